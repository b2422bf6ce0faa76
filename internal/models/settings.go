package models

import (
	"errors"
	"fmt"
	"time"
)

// AlertSettings holds every threshold and default that governs alert
// generation and lifecycle. There is one per deployment.
type AlertSettings struct {
	ID string `json:"id" yaml:"id"`

	OverdueChecklistsEnabled   bool `json:"overdue_checklists_enabled" yaml:"overdue_checklists_enabled"`
	OverdueChecklistsThreshold int  `json:"overdue_checklists_threshold" yaml:"overdue_checklists_threshold"` // hours

	CriticalRequestsEnabled   bool `json:"critical_requests_enabled" yaml:"critical_requests_enabled"`
	CriticalRequestsThreshold int  `json:"critical_requests_threshold" yaml:"critical_requests_threshold"` // hours

	MaintenanceWindowEnabled bool   `json:"maintenance_window_enabled" yaml:"maintenance_window_enabled"`
	MaintenanceWindowStart   string `json:"maintenance_window_start" yaml:"maintenance_window_start"` // HH:MM
	MaintenanceWindowEnd     string `json:"maintenance_window_end" yaml:"maintenance_window_end"`     // HH:MM

	EquipmentFailureEnabled bool `json:"equipment_failure_enabled" yaml:"equipment_failure_enabled"`
	SafetyIncidentEnabled   bool `json:"safety_incident_enabled" yaml:"safety_incident_enabled"`

	ComplianceDeadlineEnabled   bool `json:"compliance_deadline_enabled" yaml:"compliance_deadline_enabled"`
	ComplianceDeadlineThreshold int  `json:"compliance_deadline_threshold" yaml:"compliance_deadline_threshold"` // days

	CustomAlertsEnabled  bool      `json:"custom_alerts_enabled" yaml:"custom_alerts_enabled"`
	DefaultAlertDuration int       `json:"default_alert_duration" yaml:"default_alert_duration"` // hours
	DefaultShowFrequency Frequency `json:"default_show_frequency" yaml:"default_show_frequency"`
	DefaultMaxShows      int       `json:"default_max_shows" yaml:"default_max_shows"`

	AutoDeleteExpired   bool                     `json:"auto_delete_expired" yaml:"auto_delete_expired"`
	EmailNotifications  bool                     `json:"email_notifications" yaml:"email_notifications"`
	DepartmentFiltering bool                     `json:"department_filtering" yaml:"department_filtering"`
	SeverityColors      map[AlertSeverity]string `json:"severity_colors" yaml:"severity_colors"`

	CreatedAt time.Time `json:"created_at" yaml:"-"`
	UpdatedAt time.Time `json:"updated_at" yaml:"-"`
}

func DefaultAlertSettings(now time.Time) AlertSettings {
	return AlertSettings{
		ID:                          "default",
		OverdueChecklistsEnabled:    true,
		OverdueChecklistsThreshold:  24,
		CriticalRequestsEnabled:     true,
		CriticalRequestsThreshold:   4,
		MaintenanceWindowEnabled:    true,
		MaintenanceWindowStart:      "02:00",
		MaintenanceWindowEnd:        "06:00",
		EquipmentFailureEnabled:     true,
		SafetyIncidentEnabled:       true,
		ComplianceDeadlineEnabled:   true,
		ComplianceDeadlineThreshold: 7,
		CustomAlertsEnabled:         true,
		DefaultAlertDuration:        72,
		DefaultShowFrequency:        FrequencyDaily,
		DefaultMaxShows:             5,
		AutoDeleteExpired:           true,
		EmailNotifications:          true,
		DepartmentFiltering:         true,
		SeverityColors: map[AlertSeverity]string{
			AlertSeverityLow:      "#3b82f6",
			AlertSeverityMedium:   "#f59e0b",
			AlertSeverityHigh:     "#ef4444",
			AlertSeverityCritical: "#dc2626",
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a copy that does not share the color map.
func (s AlertSettings) Clone() AlertSettings {
	if s.SeverityColors != nil {
		colors := make(map[AlertSeverity]string, len(s.SeverityColors))
		for k, v := range s.SeverityColors {
			colors[k] = v
		}
		s.SeverityColors = colors
	}
	return s
}

// Validate rejects settings that would make the triggers degenerate. The
// engine itself accepts anything; this is applied at the API and file
// boundaries.
func (s *AlertSettings) Validate() error {
	var errs []error
	if s.OverdueChecklistsThreshold < 0 {
		errs = append(errs, fmt.Errorf("overdue_checklists_threshold must not be negative: %d", s.OverdueChecklistsThreshold))
	}
	if s.CriticalRequestsThreshold < 0 {
		errs = append(errs, fmt.Errorf("critical_requests_threshold must not be negative: %d", s.CriticalRequestsThreshold))
	}
	if s.ComplianceDeadlineThreshold < 0 {
		errs = append(errs, fmt.Errorf("compliance_deadline_threshold must not be negative: %d", s.ComplianceDeadlineThreshold))
	}
	if s.DefaultAlertDuration < 0 {
		errs = append(errs, fmt.Errorf("default_alert_duration must not be negative: %d", s.DefaultAlertDuration))
	}
	if s.DefaultMaxShows < 0 {
		errs = append(errs, fmt.Errorf("default_max_shows must not be negative: %d", s.DefaultMaxShows))
	}
	if !s.DefaultShowFrequency.Valid() {
		errs = append(errs, fmt.Errorf("invalid default_show_frequency: %q", s.DefaultShowFrequency))
	}
	if _, _, err := ParseClock(s.MaintenanceWindowStart); err != nil {
		errs = append(errs, fmt.Errorf("maintenance_window_start: %w", err))
	}
	if _, _, err := ParseClock(s.MaintenanceWindowEnd); err != nil {
		errs = append(errs, fmt.Errorf("maintenance_window_end: %w", err))
	}
	for sev := range s.SeverityColors {
		if !sev.Valid() {
			errs = append(errs, fmt.Errorf("unknown severity in severity_colors: %q", sev))
		}
	}
	return errors.Join(errs...)
}

// ParseClock parses a 24h "HH:MM" time of day.
func ParseClock(v string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", v)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid time of day %q, want HH:MM", v)
	}
	return t.Hour(), t.Minute(), nil
}
