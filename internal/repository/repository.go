package repository

import (
	"context"

	"github.com/mr1hm/go-maintenance-alerts/internal/models"
)

type ChecklistRepository interface {
	AddChecklist(ctx context.Context, c *models.Checklist) error
	ListChecklists(ctx context.Context) ([]models.Checklist, error)
}

type RequestRepository interface {
	AddRequest(ctx context.Context, r *models.MaintenanceRequest) error
	ListRequests(ctx context.Context) ([]models.MaintenanceRequest, error)
}

// SettingsRepository persists the single AlertSettings row. GetSettings
// returns nil when nothing has been saved yet.
type SettingsRepository interface {
	GetSettings(ctx context.Context) (*models.AlertSettings, error)
	SaveSettings(ctx context.Context, s *models.AlertSettings) error
}

// SnapshotSource is what the alert scheduler reads on every tick.
type SnapshotSource interface {
	ListChecklists(ctx context.Context) ([]models.Checklist, error)
	ListRequests(ctx context.Context) ([]models.MaintenanceRequest, error)
}
