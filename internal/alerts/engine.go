package alerts

import (
	"sync"
	"time"

	"github.com/mr1hm/go-maintenance-alerts/internal/models"
)

// Engine runs the detection rules and answers lifecycle questions. It owns
// the active settings; everything else is passed in.
type Engine struct {
	mu       sync.RWMutex
	settings models.AlertSettings
	factory  *Factory
}

func NewEngine(settings models.AlertSettings) *Engine {
	return &Engine{
		settings: settings.Clone(),
		factory:  NewFactory(),
	}
}

// Settings returns a copy of the active settings.
func (e *Engine) Settings() models.AlertSettings {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.settings.Clone()
}

// UpdateSettings replaces the settings wholesale. The existing creation time
// is kept and UpdatedAt is stamped with now. No range validation happens here.
func (e *Engine) UpdateSettings(s models.AlertSettings, now time.Time) models.AlertSettings {
	e.mu.Lock()
	defer e.mu.Unlock()

	next := s.Clone()
	if !e.settings.CreatedAt.IsZero() {
		next.CreatedAt = e.settings.CreatedAt
	}
	next.UpdatedAt = now
	e.settings = next
	return next.Clone()
}

// OnAlert registers a callback invoked for every alert the engine creates.
func (e *Engine) OnAlert(o Observer) {
	e.factory.Subscribe(o)
}

// RunAutomaticChecks evaluates every rule and concatenates the results in a
// fixed order: overdue, critical, maintenance window, equipment failure,
// safety, compliance. Repeated detections of one condition share an id;
// merging into a store is left to the caller.
func (e *Engine) RunAutomaticChecks(checklists []models.Checklist, requests []models.MaintenanceRequest, now time.Time) []*models.Alert {
	s := e.Settings()

	var out []*models.Alert
	out = append(out, checkOverdueChecklists(e.factory, checklists, &s, now)...)
	out = append(out, checkCriticalRequests(e.factory, requests, &s, now)...)
	out = append(out, checkMaintenanceWindow(e.factory, &s, now)...)
	out = append(out, checkEquipmentFailure(e.factory, requests, &s, now)...)
	out = append(out, checkSafetyIncidents(e.factory, requests, &s, now)...)
	out = append(out, checkComplianceDeadlines(e.factory, checklists, &s, now)...)
	return out
}

// CreateCustomAlert creates a user-authored alert, filling expiry, frequency
// and show cap from the settings defaults when the payload leaves them unset.
func (e *Engine) CreateCustomAlert(p Payload, now time.Time) *models.Alert {
	s := e.Settings()

	p.Type = models.AlertTypeCustom
	p.Trigger = TriggerCustom
	if p.ExpiresAt == nil {
		exp := now.Add(hours(s.DefaultAlertDuration))
		p.ExpiresAt = &exp
	}
	if p.Frequency == "" {
		p.Frequency = s.DefaultShowFrequency
	}
	if p.MaxShows == 0 {
		p.MaxShows = s.DefaultMaxShows
	}
	return e.factory.New(p, now)
}

// ShouldShowAlert is the display-eligibility predicate. It never mutates a.
func (e *Engine) ShouldShowAlert(a *models.Alert, now time.Time) bool {
	return ShouldShow(a, now)
}

// CleanupExpiredAlerts drops expired and exhausted alerts when automatic
// deletion is on, and returns the input untouched otherwise.
func (e *Engine) CleanupExpiredAlerts(alerts []*models.Alert, now time.Time) []*models.Alert {
	e.mu.RLock()
	enabled := e.settings.AutoDeleteExpired
	e.mu.RUnlock()
	if !enabled {
		return alerts
	}
	return Cleanup(alerts, now)
}

// ShouldShow reports whether a may be displayed at now.
func ShouldShow(a *models.Alert, now time.Time) bool {
	if a.Expired(now) || a.Exhausted() {
		return false
	}
	if a.SnoozedUntil != nil && now.Before(*a.SnoozedUntil) {
		return false
	}
	if a.Frequency == "" || a.LastShown == nil {
		return true
	}
	if a.Frequency == models.FrequencyOnce {
		return false
	}
	spacing, ok := a.Frequency.Spacing()
	if !ok {
		return true
	}
	return now.Sub(*a.LastShown) >= spacing
}

// Cleanup filters out alerts that are expired or exhausted.
func Cleanup(alerts []*models.Alert, now time.Time) []*models.Alert {
	kept := make([]*models.Alert, 0, len(alerts))
	for _, a := range alerts {
		if a.Expired(now) || a.Exhausted() {
			continue
		}
		kept = append(kept, a)
	}
	return kept
}
