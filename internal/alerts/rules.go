package alerts

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/mr1hm/go-maintenance-alerts/internal/models"
)

// Trigger names, recorded on every alert the corresponding rule emits.
const (
	TriggerOverdueChecklist   = "overdue_checklist"
	TriggerCriticalRequest    = "critical_request"
	TriggerMaintenanceWindow  = "maintenance_window"
	TriggerEquipmentFailure   = "equipment_failure"
	TriggerSafetyIncident     = "safety_incident"
	TriggerComplianceDeadline = "compliance_deadline"
	TriggerCustom             = "custom"
)

// maintenanceLeadTime is how long before the window start the warning fires.
const maintenanceLeadTime = 30 * time.Minute

const urgentColor = "#dc2626"

var (
	equipmentKeywords = []string{"failure", "broken", "down", "malfunction", "error", "stop", "emergency"}
	safetyKeywords    = []string{"safety", "hazard", "danger", "accident", "injury", "leak", "fire", "gas", "chemical"}
)

func checkOverdueChecklists(f *Factory, checklists []models.Checklist, s *models.AlertSettings, now time.Time) []*models.Alert {
	if !s.OverdueChecklistsEnabled {
		return nil
	}

	threshold := hours(s.OverdueChecklistsThreshold)
	var out []*models.Alert
	for _, c := range checklists {
		if c.Status != models.ChecklistPending || c.NextDueDate == nil {
			continue
		}
		overdue := now.Sub(*c.NextDueDate)
		if overdue <= threshold {
			continue
		}
		out = append(out, f.NewKeyed(conditionKey(TriggerOverdueChecklist, string(models.RelatedChecklist), c.ID), Payload{
			Type:           models.AlertTypeOverdue,
			Trigger:        TriggerOverdueChecklist,
			Severity:       models.AlertSeverityHigh,
			Title:          fmt.Sprintf("Overdue Checklist: %s", c.Title),
			Message:        fmt.Sprintf(`The checklist "%s" in %s is overdue by %d hours.`, c.Title, c.Department, roundHours(overdue)),
			Department:     c.Department,
			RelatedID:      c.ID,
			RelatedType:    models.RelatedChecklist,
			AssignedTo:     assignees(c.AssignedTo),
			ActionRequired: true,
			Dismissible:    boolPtr(true),
			Persistent:     boolPtr(false),
		}, now))
	}
	return out
}

func checkCriticalRequests(f *Factory, requests []models.MaintenanceRequest, s *models.AlertSettings, now time.Time) []*models.Alert {
	if !s.CriticalRequestsEnabled {
		return nil
	}

	threshold := hours(s.CriticalRequestsThreshold)
	var out []*models.Alert
	for _, r := range requests {
		if r.Priority != models.PriorityHigh || r.Status != models.RequestOpen || r.CreatedAt.IsZero() {
			continue
		}
		age := now.Sub(r.CreatedAt)
		if age <= threshold {
			continue
		}
		out = append(out, f.NewKeyed(conditionKey(TriggerCriticalRequest, string(models.RelatedRequest), r.ID), Payload{
			Type:           models.AlertTypeCritical,
			Trigger:        TriggerCriticalRequest,
			Severity:       models.AlertSeverityCritical,
			Title:          fmt.Sprintf("Critical Request Unattended: %s", r.Title),
			Message:        fmt.Sprintf(`High priority maintenance request "%s" in %s has been open for %d hours.`, r.Title, r.Department, roundHours(age)),
			Department:     r.Department,
			RelatedID:      r.ID,
			RelatedType:    models.RelatedRequest,
			ActionRequired: true,
			Dismissible:    boolPtr(true),
			Persistent:     boolPtr(true),
		}, now))
	}
	return out
}

// checkMaintenanceWindow is a global condition: it fires once when now falls
// within the lead time before the next window start.
func checkMaintenanceWindow(f *Factory, s *models.AlertSettings, now time.Time) []*models.Alert {
	if !s.MaintenanceWindowEnabled {
		return nil
	}

	start, ok := nextWindowStart(s.MaintenanceWindowStart, now)
	if !ok {
		return nil
	}
	until := start.Sub(now)
	if until <= 0 || until > maintenanceLeadTime {
		return nil
	}

	return []*models.Alert{
		f.NewKeyed(conditionKey(TriggerMaintenanceWindow, string(models.RelatedSystem), start.Format(time.RFC3339)), Payload{
			Type:           models.AlertTypeMaintenance,
			Trigger:        TriggerMaintenanceWindow,
			Severity:       models.AlertSeverityMedium,
			Title:          "Scheduled Maintenance Window Approaching",
			Message:        fmt.Sprintf("Scheduled maintenance window begins at %s. Please complete any critical operations.", s.MaintenanceWindowStart),
			ActionRequired: false,
			Dismissible:    boolPtr(true),
			Persistent:     boolPtr(false),
		}, now),
	}
}

// nextWindowStart returns today's window start in now's location, or
// tomorrow's when today's has already begun.
func nextWindowStart(clock string, now time.Time) (time.Time, bool) {
	h, m, err := models.ParseClock(clock)
	if err != nil {
		return time.Time{}, false
	}
	start := time.Date(now.Year(), now.Month(), now.Day(), h, m, 0, 0, now.Location())
	if !start.After(now) {
		start = time.Date(now.Year(), now.Month(), now.Day()+1, h, m, 0, 0, now.Location())
	}
	return start, true
}

func checkEquipmentFailure(f *Factory, requests []models.MaintenanceRequest, s *models.AlertSettings, now time.Time) []*models.Alert {
	if !s.EquipmentFailureEnabled {
		return nil
	}

	var out []*models.Alert
	for _, r := range requests {
		if r.Status != models.RequestOpen || !mentions(r, equipmentKeywords) {
			continue
		}
		out = append(out, f.NewKeyed(conditionKey(TriggerEquipmentFailure, string(models.RelatedRequest), r.ID), Payload{
			Type:           models.AlertTypeCritical,
			Trigger:        TriggerEquipmentFailure,
			Severity:       models.AlertSeverityCritical,
			Title:          fmt.Sprintf("Equipment Failure Detected: %s", r.Title),
			Message:        fmt.Sprintf("Potential equipment failure reported in %s. Immediate attention may be required.", r.Department),
			Department:     r.Department,
			RelatedID:      r.ID,
			RelatedType:    models.RelatedRequest,
			ActionRequired: true,
			Dismissible:    boolPtr(true),
			Persistent:     boolPtr(true),
			CustomColor:    urgentColor,
		}, now))
	}
	return out
}

// checkSafetyIncidents ignores request status: a reported hazard stays
// relevant whatever the state of the work order. Safety alerts are never
// dismissible.
func checkSafetyIncidents(f *Factory, requests []models.MaintenanceRequest, s *models.AlertSettings, now time.Time) []*models.Alert {
	if !s.SafetyIncidentEnabled {
		return nil
	}

	var out []*models.Alert
	for _, r := range requests {
		if !mentions(r, safetyKeywords) {
			continue
		}
		out = append(out, f.NewKeyed(conditionKey(TriggerSafetyIncident, string(models.RelatedRequest), r.ID), Payload{
			Type:           models.AlertTypeSafety,
			Trigger:        TriggerSafetyIncident,
			Severity:       models.AlertSeverityCritical,
			Title:          fmt.Sprintf("Safety Alert: %s", r.Title),
			Message:        fmt.Sprintf("Safety-related issue reported in %s. Immediate safety protocol activation required.", r.Department),
			Department:     r.Department,
			RelatedID:      r.ID,
			RelatedType:    models.RelatedRequest,
			ActionRequired: true,
			Dismissible:    boolPtr(false),
			Persistent:     boolPtr(true),
			CustomColor:    urgentColor,
		}, now))
	}
	return out
}

func checkComplianceDeadlines(f *Factory, checklists []models.Checklist, s *models.AlertSettings, now time.Time) []*models.Alert {
	if !s.ComplianceDeadlineEnabled {
		return nil
	}

	threshold := time.Duration(s.ComplianceDeadlineThreshold) * 24 * time.Hour
	var out []*models.Alert
	for _, c := range checklists {
		if c.NextDueDate == nil {
			continue
		}
		until := c.NextDueDate.Sub(now)
		if until <= 0 || until > threshold {
			continue
		}
		days := int(until / (24 * time.Hour))
		out = append(out, f.NewKeyed(conditionKey(TriggerComplianceDeadline, string(models.RelatedChecklist), c.ID), Payload{
			Type:           models.AlertTypeInfo,
			Trigger:        TriggerComplianceDeadline,
			Severity:       models.AlertSeverityMedium,
			Title:          fmt.Sprintf("Compliance Deadline Approaching: %s", c.Title),
			Message:        fmt.Sprintf(`Compliance checklist "%s" is due in %d days.`, c.Title, days),
			Department:     c.Department,
			RelatedID:      c.ID,
			RelatedType:    models.RelatedChecklist,
			AssignedTo:     assignees(c.AssignedTo),
			ActionRequired: true,
			Dismissible:    boolPtr(true),
			Persistent:     boolPtr(false),
		}, now))
	}
	return out
}

// mentions reports whether the request title or description contains any
// keyword, ignoring case.
func mentions(r models.MaintenanceRequest, keywords []string) bool {
	title := strings.ToLower(r.Title)
	desc := strings.ToLower(r.Description)
	for _, k := range keywords {
		if strings.Contains(title, k) || strings.Contains(desc, k) {
			return true
		}
	}
	return false
}

func assignees(user string) []string {
	if user == "" {
		return []string{}
	}
	return []string{user}
}

func hours(n int) time.Duration {
	return time.Duration(n) * time.Hour
}

func roundHours(d time.Duration) int {
	return int(math.Round(d.Hours()))
}
