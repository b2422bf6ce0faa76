package models

import "time"

type AlertType string

const (
	AlertTypeOverdue     AlertType = "overdue"
	AlertTypeCritical    AlertType = "critical"
	AlertTypeUrgent      AlertType = "urgent"
	AlertTypeInfo        AlertType = "info"
	AlertTypeCustom      AlertType = "custom"
	AlertTypeMaintenance AlertType = "maintenance"
	AlertTypeSafety      AlertType = "safety"
	AlertTypeSystem      AlertType = "system"
)

type AlertSeverity string

const (
	AlertSeverityLow      AlertSeverity = "low"
	AlertSeverityMedium   AlertSeverity = "medium"
	AlertSeverityHigh     AlertSeverity = "high"
	AlertSeverityCritical AlertSeverity = "critical"
)

// Rank orders severities from low (1) to critical (4). Unknown severities rank 0.
func (s AlertSeverity) Rank() int {
	switch s {
	case AlertSeverityLow:
		return 1
	case AlertSeverityMedium:
		return 2
	case AlertSeverityHigh:
		return 3
	case AlertSeverityCritical:
		return 4
	default:
		return 0
	}
}

func (s AlertSeverity) Valid() bool {
	return s.Rank() > 0
}

type RelatedType string

const (
	RelatedChecklist RelatedType = "checklist"
	RelatedRequest   RelatedType = "request"
	RelatedUser      RelatedType = "user"
	RelatedSystem    RelatedType = "system"
)

type Frequency string

const (
	FrequencyOnce    Frequency = "once"
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// Spacing is the minimum time between two displays. Once has no spacing:
// an alert shown once is never shown again.
func (f Frequency) Spacing() (time.Duration, bool) {
	switch f {
	case FrequencyDaily:
		return 24 * time.Hour, true
	case FrequencyWeekly:
		return 7 * 24 * time.Hour, true
	case FrequencyMonthly:
		return 30 * 24 * time.Hour, true
	default:
		return 0, false
	}
}

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyOnce, FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return true
	default:
		return false
	}
}

type Alert struct {
	ID       string        `json:"id"`
	Type     AlertType     `json:"type"`
	Trigger  string        `json:"trigger,omitempty"` // rule that produced the alert
	Severity AlertSeverity `json:"severity"`
	Title    string        `json:"title"`
	Message  string        `json:"message"`

	Department  string      `json:"department,omitempty"`
	RelatedID   string      `json:"related_id,omitempty"`
	RelatedType RelatedType `json:"related_type,omitempty"`
	AssignedTo  []string    `json:"assigned_to,omitempty"`

	CreatedAt      time.Time  `json:"created_at"`
	Read           bool       `json:"read"`
	Dismissible    bool       `json:"dismissible"`
	Persistent     bool       `json:"persistent"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	Frequency      Frequency  `json:"frequency,omitempty"`
	LastShown      *time.Time `json:"last_shown,omitempty"`
	SnoozedUntil   *time.Time `json:"snoozed_until,omitempty"`
	ShowCount      int        `json:"show_count"`
	MaxShows       int        `json:"max_shows,omitempty"` // 0 means no cap
	ActionRequired bool       `json:"action_required"`
	CustomColor    string     `json:"custom_color,omitempty"`
	CreatedBy      string     `json:"created_by,omitempty"`
}

// Expired reports whether the alert's expiry lies strictly before now.
func (a *Alert) Expired(now time.Time) bool {
	return a.ExpiresAt != nil && now.After(*a.ExpiresAt)
}

// Exhausted reports whether the alert has used up its display allowance.
func (a *Alert) Exhausted() bool {
	return a.MaxShows > 0 && a.ShowCount >= a.MaxShows
}

// Color returns the display color: the custom override when set, else the
// configured color for the alert's severity.
func (a *Alert) Color(s *AlertSettings) string {
	if a.CustomColor != "" {
		return a.CustomColor
	}
	if s == nil {
		return ""
	}
	return s.SeverityColors[a.Severity]
}

// Clone returns a deep copy so callers cannot mutate shared state.
func (a *Alert) Clone() *Alert {
	c := *a
	if a.AssignedTo != nil {
		c.AssignedTo = append([]string(nil), a.AssignedTo...)
	}
	c.ExpiresAt = cloneTime(a.ExpiresAt)
	c.LastShown = cloneTime(a.LastShown)
	c.SnoozedUntil = cloneTime(a.SnoozedUntil)
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
