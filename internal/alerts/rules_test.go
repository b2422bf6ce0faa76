package alerts

import (
	"strings"
	"testing"
	"time"

	"github.com/mr1hm/go-maintenance-alerts/internal/models"
)

var testNow = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

func testSettings() models.AlertSettings {
	return models.DefaultAlertSettings(testNow)
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func TestCheckOverdueChecklists_ThresholdBoundary(t *testing.T) {
	s := testSettings()
	f := NewFactory()
	threshold := time.Duration(s.OverdueChecklistsThreshold) * time.Hour

	atThreshold := []models.Checklist{
		{ID: "c1", Title: "Press", Status: models.ChecklistPending, NextDueDate: timePtr(testNow.Add(-threshold))},
	}
	if got := checkOverdueChecklists(f, atThreshold, &s, testNow); len(got) != 0 {
		t.Errorf("expected no alert exactly at threshold, got %d", len(got))
	}

	pastThreshold := []models.Checklist{
		{ID: "c1", Title: "Press", Status: models.ChecklistPending, NextDueDate: timePtr(testNow.Add(-threshold - time.Second))},
	}
	if got := checkOverdueChecklists(f, pastThreshold, &s, testNow); len(got) != 1 {
		t.Errorf("expected 1 alert one second past threshold, got %d", len(got))
	}
}

func TestCheckOverdueChecklists_Fields(t *testing.T) {
	s := testSettings()
	checklists := []models.Checklist{
		{ID: "c1", Title: "Weld cell", Department: "Weld Shop", Status: models.ChecklistPending, NextDueDate: timePtr(testNow.Add(-30 * time.Hour)), AssignedTo: "u7"},
		{ID: "c2", Title: "No due date", Status: models.ChecklistPending},
		{ID: "c3", Title: "Done", Status: models.ChecklistCompleted, NextDueDate: timePtr(testNow.Add(-90 * time.Hour))},
	}

	got := checkOverdueChecklists(NewFactory(), checklists, &s, testNow)
	if len(got) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(got))
	}
	a := got[0]
	if a.Type != models.AlertTypeOverdue || a.Severity != models.AlertSeverityHigh {
		t.Errorf("unexpected classification %s/%s", a.Type, a.Severity)
	}
	if !strings.Contains(a.Message, "30 hours") {
		t.Errorf("expected message to mention 30 hours, got %q", a.Message)
	}
	if a.Persistent || !a.Dismissible || !a.ActionRequired {
		t.Errorf("unexpected flags persistent=%v dismissible=%v action=%v", a.Persistent, a.Dismissible, a.ActionRequired)
	}
	if len(a.AssignedTo) != 1 || a.AssignedTo[0] != "u7" {
		t.Errorf("expected assignee u7, got %v", a.AssignedTo)
	}
	if a.RelatedID != "c1" || a.RelatedType != models.RelatedChecklist {
		t.Errorf("unexpected relation %s/%s", a.RelatedType, a.RelatedID)
	}
}

func TestCheckCriticalRequests(t *testing.T) {
	s := testSettings()
	requests := []models.MaintenanceRequest{
		{ID: "r1", Title: "Conveyor", Priority: models.PriorityHigh, Status: models.RequestOpen, CreatedAt: testNow.Add(-5 * time.Hour)},
		{ID: "r2", Title: "Fresh", Priority: models.PriorityHigh, Status: models.RequestOpen, CreatedAt: testNow.Add(-time.Hour)},
		{ID: "r3", Title: "Low", Priority: models.PriorityLow, Status: models.RequestOpen, CreatedAt: testNow.Add(-50 * time.Hour)},
		{ID: "r4", Title: "Working", Priority: models.PriorityHigh, Status: models.RequestInProgress, CreatedAt: testNow.Add(-50 * time.Hour)},
		{ID: "r5", Title: "Undated", Priority: models.PriorityHigh, Status: models.RequestOpen},
	}

	got := checkCriticalRequests(NewFactory(), requests, &s, testNow)
	if len(got) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(got))
	}
	a := got[0]
	if a.RelatedID != "r1" || a.Severity != models.AlertSeverityCritical || a.Type != models.AlertTypeCritical {
		t.Errorf("unexpected alert %+v", a)
	}
	if !a.Persistent || !a.Dismissible {
		t.Errorf("expected persistent dismissible alert")
	}
	if !strings.Contains(a.Message, "5 hours") {
		t.Errorf("expected message to mention 5 hours, got %q", a.Message)
	}
}

func TestCheckMaintenanceWindow(t *testing.T) {
	s := testSettings()
	s.MaintenanceWindowStart = "02:00"

	tests := []struct {
		name string
		now  time.Time
		want int
	}{
		{"thirty minutes before", time.Date(2026, 10, 15, 1, 30, 0, 0, time.UTC), 1},
		{"one minute before", time.Date(2026, 10, 15, 1, 59, 0, 0, time.UTC), 1},
		{"thirty one minutes before", time.Date(2026, 10, 15, 1, 29, 0, 0, time.UTC), 0},
		{"at start", time.Date(2026, 10, 15, 2, 0, 0, 0, time.UTC), 0},
		{"during window", time.Date(2026, 10, 15, 3, 0, 0, 0, time.UTC), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := checkMaintenanceWindow(NewFactory(), &s, tt.now)
			if len(got) != tt.want {
				t.Fatalf("expected %d alerts, got %d", tt.want, len(got))
			}
			if tt.want == 1 {
				a := got[0]
				if a.Type != models.AlertTypeMaintenance || a.Severity != models.AlertSeverityMedium || a.ActionRequired || a.Persistent {
					t.Errorf("unexpected alert %+v", a)
				}
			}
		})
	}
}

func TestCheckMaintenanceWindow_AcrossMidnight(t *testing.T) {
	s := testSettings()
	s.MaintenanceWindowStart = "00:10"

	got := checkMaintenanceWindow(NewFactory(), &s, time.Date(2026, 10, 15, 23, 50, 0, 0, time.UTC))
	if len(got) != 1 {
		t.Errorf("expected window starting after midnight to be announced, got %d alerts", len(got))
	}
}

func TestCheckMaintenanceWindow_MalformedStart(t *testing.T) {
	s := testSettings()
	s.MaintenanceWindowStart = "soon"

	if got := checkMaintenanceWindow(NewFactory(), &s, testNow); len(got) != 0 {
		t.Errorf("expected malformed start to be skipped, got %d alerts", len(got))
	}
}

func TestCheckEquipmentFailure_CaseInsensitive(t *testing.T) {
	s := testSettings()
	requests := []models.MaintenanceRequest{
		{ID: "upper", Title: "EQUIPMENT FAILURE", Status: models.RequestOpen},
		{ID: "lower", Title: "equipment failure", Status: models.RequestOpen},
		{ID: "desc", Title: "Line 3", Description: "Robot arm Malfunction", Status: models.RequestOpen},
		{ID: "closed", Title: "broken belt", Status: models.RequestCompleted},
		{ID: "quiet", Title: "Paint touch-up", Description: "cosmetic", Status: models.RequestOpen},
	}

	got := checkEquipmentFailure(NewFactory(), requests, &s, testNow)
	if len(got) != 3 {
		t.Fatalf("expected 3 alerts, got %d", len(got))
	}
	for _, a := range got {
		if a.Severity != models.AlertSeverityCritical || a.Type != models.AlertTypeCritical {
			t.Errorf("unexpected classification for %s", a.RelatedID)
		}
		if a.CustomColor == "" || !a.Persistent || !a.ActionRequired {
			t.Errorf("unexpected flags for %s", a.RelatedID)
		}
	}
	if got[0].RelatedID != "upper" || got[1].RelatedID != "lower" {
		t.Errorf("expected input order to be preserved, got %s, %s", got[0].RelatedID, got[1].RelatedID)
	}
}

func TestCheckSafetyIncidents_NeverDismissible(t *testing.T) {
	s := testSettings()
	requests := []models.MaintenanceRequest{
		{ID: "r1", Title: "Gas smell near oven", Status: models.RequestOpen},
		{ID: "r2", Title: "Floor", Description: "Chemical LEAK by tank 4", Status: models.RequestCompleted},
		{ID: "r3", Title: "Paint touch-up", Status: models.RequestOpen},
	}

	got := checkSafetyIncidents(NewFactory(), requests, &s, testNow)
	if len(got) != 2 {
		t.Fatalf("expected 2 alerts regardless of status, got %d", len(got))
	}
	for _, a := range got {
		if a.Dismissible {
			t.Errorf("safety alert %s must not be dismissible", a.ID)
		}
		if a.Type != models.AlertTypeSafety || a.Severity != models.AlertSeverityCritical || !a.Persistent {
			t.Errorf("unexpected safety alert %+v", a)
		}
	}
}

func TestCheckComplianceDeadlines(t *testing.T) {
	s := testSettings()
	checklists := []models.Checklist{
		{ID: "soon", Title: "Fire extinguishers", NextDueDate: timePtr(testNow.Add(3*24*time.Hour + 5*time.Hour))},
		{ID: "edge", Title: "Edge", NextDueDate: timePtr(testNow.Add(7 * 24 * time.Hour))},
		{ID: "far", Title: "Far", NextDueDate: timePtr(testNow.Add(8 * 24 * time.Hour))},
		{ID: "past", Title: "Past", NextDueDate: timePtr(testNow.Add(-time.Hour))},
		{ID: "none", Title: "None"},
	}

	got := checkComplianceDeadlines(NewFactory(), checklists, &s, testNow)
	if len(got) != 2 {
		t.Fatalf("expected 2 alerts, got %d", len(got))
	}
	if !strings.Contains(got[0].Message, "due in 3 days") {
		t.Errorf("expected days rounded down, got %q", got[0].Message)
	}
	if got[0].Type != models.AlertTypeInfo || got[0].Severity != models.AlertSeverityMedium || got[0].Persistent {
		t.Errorf("unexpected alert %+v", got[0])
	}
}

func TestRules_DisabledReturnsNothing(t *testing.T) {
	due := timePtr(testNow.Add(-100 * time.Hour))
	soon := timePtr(testNow.Add(time.Hour))
	checklists := []models.Checklist{
		{ID: "c1", Status: models.ChecklistPending, NextDueDate: due},
		{ID: "c2", Status: models.ChecklistPending, NextDueDate: soon},
	}
	requests := []models.MaintenanceRequest{
		{ID: "r1", Title: "fire: pump failure", Priority: models.PriorityHigh, Status: models.RequestOpen, CreatedAt: testNow.Add(-100 * time.Hour)},
	}
	windowNow := time.Date(2026, 10, 15, 1, 45, 0, 0, time.UTC)

	tests := []struct {
		name    string
		disable func(*models.AlertSettings)
		run     func(*Factory, *models.AlertSettings) []*models.Alert
	}{
		{"overdue", func(s *models.AlertSettings) { s.OverdueChecklistsEnabled = false }, func(f *Factory, s *models.AlertSettings) []*models.Alert {
			return checkOverdueChecklists(f, checklists, s, testNow)
		}},
		{"critical", func(s *models.AlertSettings) { s.CriticalRequestsEnabled = false }, func(f *Factory, s *models.AlertSettings) []*models.Alert {
			return checkCriticalRequests(f, requests, s, testNow)
		}},
		{"maintenance", func(s *models.AlertSettings) { s.MaintenanceWindowEnabled = false }, func(f *Factory, s *models.AlertSettings) []*models.Alert {
			return checkMaintenanceWindow(f, s, windowNow)
		}},
		{"equipment", func(s *models.AlertSettings) { s.EquipmentFailureEnabled = false }, func(f *Factory, s *models.AlertSettings) []*models.Alert {
			return checkEquipmentFailure(f, requests, s, testNow)
		}},
		{"safety", func(s *models.AlertSettings) { s.SafetyIncidentEnabled = false }, func(f *Factory, s *models.AlertSettings) []*models.Alert {
			return checkSafetyIncidents(f, requests, s, testNow)
		}},
		{"compliance", func(s *models.AlertSettings) { s.ComplianceDeadlineEnabled = false }, func(f *Factory, s *models.AlertSettings) []*models.Alert {
			return checkComplianceDeadlines(f, checklists, s, testNow)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testSettings()
			if got := tt.run(NewFactory(), &s); len(got) == 0 {
				t.Fatalf("expected enabled rule to fire on fixture")
			}
			tt.disable(&s)
			if got := tt.run(NewFactory(), &s); len(got) != 0 {
				t.Errorf("expected disabled rule to return nothing, got %d", len(got))
			}
		})
	}
}
