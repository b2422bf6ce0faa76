package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mr1hm/go-maintenance-alerts/internal/models"
)

type SQLiteDB struct {
	db *sql.DB
}

func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	// :memory: databases are per connection
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error while pinging database: %w", err)
	}

	s := &SQLiteDB{
		db: db,
	}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("error while migrating to database: %w", err)
	}

	return s, nil
}

func (s *SQLiteDB) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS checklists (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			department TEXT NOT NULL,
			status TEXT NOT NULL,
			next_due_date INTEGER,
			assigned_to TEXT
		);

		CREATE TABLE IF NOT EXISTS maintenance_requests (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT NOT NULL,
			department TEXT NOT NULL,
			priority TEXT NOT NULL,
			status TEXT NOT NULL,
			requested_by TEXT,
			created_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS alert_settings (
			id TEXT PRIMARY KEY,
			data TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_checklists_status ON checklists(status);
		CREATE INDEX IF NOT EXISTS idx_requests_status ON maintenance_requests(status);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

// AddChecklist inserts or replaces a checklist snapshot.
func (s *SQLiteDB) AddChecklist(ctx context.Context, c *models.Checklist) error {
	var due sql.NullInt64
	if c.NextDueDate != nil {
		due = sql.NullInt64{Int64: c.NextDueDate.UnixMilli(), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO checklists (id, title, department, status, next_due_date, assigned_to)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			department = excluded.department,
			status = excluded.status,
			next_due_date = excluded.next_due_date,
			assigned_to = excluded.assigned_to`,
		c.ID, c.Title, c.Department, string(c.Status), due, c.AssignedTo)
	if err != nil {
		return fmt.Errorf("error inserting checklist %s: %w", c.ID, err)
	}
	return nil
}

func (s *SQLiteDB) ListChecklists(ctx context.Context) ([]models.Checklist, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, department, status, next_due_date, assigned_to
		FROM checklists ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("error querying checklists: %w", err)
	}
	defer rows.Close()

	var out []models.Checklist
	for rows.Next() {
		var (
			c        models.Checklist
			status   string
			due      sql.NullInt64
			assignee sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.Title, &c.Department, &status, &due, &assignee); err != nil {
			return nil, fmt.Errorf("error scanning checklist: %w", err)
		}
		c.Status = models.ChecklistStatus(status)
		if due.Valid {
			t := time.UnixMilli(due.Int64).UTC()
			c.NextDueDate = &t
		}
		c.AssignedTo = assignee.String
		out = append(out, c)
	}
	return out, rows.Err()
}

// AddRequest inserts or replaces a maintenance request snapshot.
func (s *SQLiteDB) AddRequest(ctx context.Context, r *models.MaintenanceRequest) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO maintenance_requests (id, title, description, department, priority, status, requested_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			department = excluded.department,
			priority = excluded.priority,
			status = excluded.status,
			requested_by = excluded.requested_by,
			created_at = excluded.created_at`,
		r.ID, r.Title, r.Description, r.Department, string(r.Priority), string(r.Status), r.RequestedBy, r.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("error inserting request %s: %w", r.ID, err)
	}
	return nil
}

func (s *SQLiteDB) ListRequests(ctx context.Context) ([]models.MaintenanceRequest, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, description, department, priority, status, requested_by, created_at
		FROM maintenance_requests ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("error querying requests: %w", err)
	}
	defer rows.Close()

	var out []models.MaintenanceRequest
	for rows.Next() {
		var (
			r           models.MaintenanceRequest
			priority    string
			status      string
			requestedBy sql.NullString
			createdAt   int64
		)
		if err := rows.Scan(&r.ID, &r.Title, &r.Description, &r.Department, &priority, &status, &requestedBy, &createdAt); err != nil {
			return nil, fmt.Errorf("error scanning request: %w", err)
		}
		r.Priority = models.RequestPriority(priority)
		r.Status = models.RequestStatus(status)
		r.RequestedBy = requestedBy.String
		r.CreatedAt = time.UnixMilli(createdAt).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteDB) GetSettings(ctx context.Context) (*models.AlertSettings, error) {
	var (
		data      string
		createdAt int64
		updatedAt int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT data, created_at, updated_at FROM alert_settings WHERE id = ?`, "default").
		Scan(&data, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error querying settings: %w", err)
	}

	var settings models.AlertSettings
	if err := json.Unmarshal([]byte(data), &settings); err != nil {
		return nil, fmt.Errorf("error decoding settings: %w", err)
	}
	settings.CreatedAt = time.UnixMilli(createdAt).UTC()
	settings.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return &settings, nil
}

// SaveSettings upserts the settings row. The stored created_at is never
// overwritten.
func (s *SQLiteDB) SaveSettings(ctx context.Context, settings *models.AlertSettings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("error encoding settings: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO alert_settings (id, data, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			data = excluded.data,
			updated_at = excluded.updated_at`,
		"default", string(data), settings.CreatedAt.UnixMilli(), settings.UpdatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("error saving settings: %w", err)
	}
	return nil
}
