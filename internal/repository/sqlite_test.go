package repository

import (
	"context"
	"testing"
	"time"

	"github.com/mr1hm/go-maintenance-alerts/internal/models"
)

func setupTestDB(t *testing.T) *SQLiteDB {
	db, err := NewSQLiteDB(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	return db
}

var now = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

func TestSQLiteDB_AddAndListChecklists(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	due := now.Add(-30 * time.Hour)
	checklists := []*models.Checklist{
		{ID: "c1", Title: "Daily press", Department: "Cut Shop", Status: models.ChecklistPending, NextDueDate: &due, AssignedTo: "u1"},
		{ID: "c2", Title: "No due date", Department: "Weld Shop", Status: models.ChecklistCompleted},
	}
	for _, c := range checklists {
		if err := db.AddChecklist(ctx, c); err != nil {
			t.Fatalf("AddChecklist failed: %v", err)
		}
	}

	got, err := db.ListChecklists(ctx)
	if err != nil {
		t.Fatalf("ListChecklists failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 checklists, got %d", len(got))
	}
	if got[0].NextDueDate == nil || !got[0].NextDueDate.Equal(due) {
		t.Errorf("expected due date %v, got %v", due, got[0].NextDueDate)
	}
	if got[0].AssignedTo != "u1" || got[0].Status != models.ChecklistPending {
		t.Errorf("unexpected checklist %+v", got[0])
	}
	if got[1].NextDueDate != nil {
		t.Errorf("expected missing due date to stay nil, got %v", got[1].NextDueDate)
	}
}

func TestSQLiteDB_AddChecklistUpserts(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	c := &models.Checklist{ID: "c1", Title: "Press", Department: "Cut Shop", Status: models.ChecklistPending}
	if err := db.AddChecklist(ctx, c); err != nil {
		t.Fatalf("first AddChecklist failed: %v", err)
	}
	c.Status = models.ChecklistCompleted
	if err := db.AddChecklist(ctx, c); err != nil {
		t.Fatalf("second AddChecklist failed: %v", err)
	}

	got, _ := db.ListChecklists(ctx)
	if len(got) != 1 || got[0].Status != models.ChecklistCompleted {
		t.Errorf("expected single updated checklist, got %+v", got)
	}
}

func TestSQLiteDB_AddAndListRequests(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	r := &models.MaintenanceRequest{
		ID:          "r1",
		Title:       "Pump",
		Description: "Pump failure in line 2",
		Department:  "Final Assembly",
		Priority:    models.PriorityHigh,
		Status:      models.RequestOpen,
		RequestedBy: "u2",
		CreatedAt:   now.Add(-10 * time.Hour),
	}
	if err := db.AddRequest(ctx, r); err != nil {
		t.Fatalf("AddRequest failed: %v", err)
	}

	got, err := db.ListRequests(ctx)
	if err != nil {
		t.Fatalf("ListRequests failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 request, got %d", len(got))
	}
	g := got[0]
	if g.Title != r.Title || g.Description != r.Description || g.Priority != r.Priority || g.Status != r.Status || g.RequestedBy != r.RequestedBy {
		t.Errorf("expected %+v, got %+v", *r, g)
	}
	if !g.CreatedAt.Equal(r.CreatedAt) {
		t.Errorf("expected created_at %v, got %v", r.CreatedAt, g.CreatedAt)
	}
}

func TestSQLiteDB_Settings(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	got, err := db.GetSettings(ctx)
	if err != nil {
		t.Fatalf("GetSettings failed: %v", err)
	}
	if got != nil {
		t.Fatal("expected no settings before first save")
	}

	s := models.DefaultAlertSettings(now)
	s.OverdueChecklistsThreshold = 12
	if err := db.SaveSettings(ctx, &s); err != nil {
		t.Fatalf("SaveSettings failed: %v", err)
	}

	s.CreatedAt = now.Add(time.Hour)
	s.UpdatedAt = now.Add(2 * time.Hour)
	if err := db.SaveSettings(ctx, &s); err != nil {
		t.Fatalf("second SaveSettings failed: %v", err)
	}

	got, err = db.GetSettings(ctx)
	if err != nil {
		t.Fatalf("GetSettings failed: %v", err)
	}
	if got.OverdueChecklistsThreshold != 12 {
		t.Errorf("expected threshold 12, got %d", got.OverdueChecklistsThreshold)
	}
	if got.SeverityColors[models.AlertSeverityCritical] != "#dc2626" {
		t.Errorf("expected severity colors to round trip, got %v", got.SeverityColors)
	}
	if !got.CreatedAt.Equal(now) {
		t.Errorf("expected created_at kept at %v, got %v", now, got.CreatedAt)
	}
	if !got.UpdatedAt.Equal(now.Add(2 * time.Hour)) {
		t.Errorf("expected updated_at refreshed, got %v", got.UpdatedAt)
	}
}
