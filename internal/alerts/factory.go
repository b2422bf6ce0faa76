// Package alerts detects actionable maintenance conditions and governs the
// display lifecycle of the resulting alerts.
package alerts

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mr1hm/go-maintenance-alerts/internal/models"
)

// alertNamespace seeds the name-based ids of automatically detected alerts.
var alertNamespace = uuid.MustParse("6f1c3b2e-9a47-4d5e-8b1f-2c7e5a9d0b13")

// Observer is notified synchronously of every alert the factory creates.
type Observer func(a models.Alert) error

// Payload is everything a caller supplies for a new alert. Dismissible and
// Persistent are pointers so that "not supplied" can be told apart from false.
type Payload struct {
	Type           models.AlertType
	Trigger        string
	Severity       models.AlertSeverity
	Title          string
	Message        string
	Department     string
	RelatedID      string
	RelatedType    models.RelatedType
	AssignedTo     []string
	Dismissible    *bool
	Persistent     *bool
	ExpiresAt      *time.Time
	Frequency      models.Frequency
	MaxShows       int
	ActionRequired bool
	CustomColor    string
	CreatedBy      string
}

// Factory stamps payloads with identity and lifecycle defaults.
type Factory struct {
	mu        sync.RWMutex
	observers []Observer
}

func NewFactory() *Factory {
	return &Factory{}
}

// Subscribe registers an observer. Observers run in registration order.
func (f *Factory) Subscribe(o Observer) {
	f.mu.Lock()
	f.observers = append(f.observers, o)
	f.mu.Unlock()
}

// New creates an alert with a random id.
func (f *Factory) New(p Payload, now time.Time) *models.Alert {
	return f.create(uuid.NewString(), p, now)
}

// NewKeyed creates an alert whose id is derived from key, so the same key
// always yields the same id.
func (f *Factory) NewKeyed(key string, p Payload, now time.Time) *models.Alert {
	return f.create(KeyedID(key), p, now)
}

// KeyedID returns the deterministic alert id for a condition key.
func KeyedID(key string) string {
	return uuid.NewSHA1(alertNamespace, []byte(key)).String()
}

func conditionKey(parts ...string) string {
	return strings.Join(parts, "|")
}

func (f *Factory) create(id string, p Payload, now time.Time) *models.Alert {
	a := &models.Alert{
		ID:             id,
		Type:           p.Type,
		Trigger:        p.Trigger,
		Severity:       p.Severity,
		Title:          p.Title,
		Message:        p.Message,
		Department:     p.Department,
		RelatedID:      p.RelatedID,
		RelatedType:    p.RelatedType,
		AssignedTo:     p.AssignedTo,
		CreatedAt:      now,
		Read:           false,
		Dismissible:    boolOr(p.Dismissible, true),
		Persistent:     boolOr(p.Persistent, false),
		ExpiresAt:      p.ExpiresAt,
		Frequency:      p.Frequency,
		ShowCount:      0,
		MaxShows:       p.MaxShows,
		ActionRequired: p.ActionRequired,
		CustomColor:    p.CustomColor,
		CreatedBy:      p.CreatedBy,
	}

	if err := f.notify(*a.Clone()); err != nil {
		slog.Warn("alert observer failed", "alert_id", a.ID, "error", err)
	}
	return a
}

// notify fans out to every observer. A failing or panicking observer does
// not prevent the others from running.
func (f *Factory) notify(a models.Alert) error {
	f.mu.RLock()
	observers := make([]Observer, len(f.observers))
	copy(observers, f.observers)
	f.mu.RUnlock()

	var errs []error
	for i, o := range observers {
		if err := callObserver(o, a); err != nil {
			errs = append(errs, fmt.Errorf("observer %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

func callObserver(o Observer, a models.Alert) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return o(a)
}

func boolOr(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}

func boolPtr(v bool) *bool {
	return &v
}
