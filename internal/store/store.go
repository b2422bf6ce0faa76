// Package store holds the live alert collection and applies user actions to it.
package store

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/mr1hm/go-maintenance-alerts/internal/alerts"
	"github.com/mr1hm/go-maintenance-alerts/internal/models"
)

var (
	ErrNotFound       = errors.New("alert not found")
	ErrNotDismissible = errors.New("alert is not dismissible")
)

type Filter struct {
	Search     string // matched case-insensitively against title and message
	Department string
	Severity   models.AlertSeverity
	UnreadOnly bool
	VisibleAt  *time.Time // when set, only alerts eligible for display at this time
}

// Store keeps alerts in insertion order. All methods are safe for
// concurrent use and hand out copies.
type Store struct {
	mu        sync.RWMutex
	alerts    []*models.Alert
	index     map[string]int
	dismissed map[string]struct{}
}

func New() *Store {
	return &Store{
		index:     make(map[string]int),
		dismissed: make(map[string]struct{}),
	}
}

// Merge inserts alerts whose id is not yet known and returns the inserted
// ones. Known alerts keep their read and display state; dismissed ids stay
// out until PruneDismissed forgets them.
func (s *Store) Merge(batch []*models.Alert) []*models.Alert {
	s.mu.Lock()
	defer s.mu.Unlock()

	var added []*models.Alert
	for _, a := range batch {
		if _, ok := s.index[a.ID]; ok {
			continue
		}
		if _, ok := s.dismissed[a.ID]; ok {
			continue
		}
		c := a.Clone()
		s.index[c.ID] = len(s.alerts)
		s.alerts = append(s.alerts, c)
		added = append(added, c.Clone())
	}
	return added
}

func (s *Store) Get(id string) (*models.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s.alerts[i].Clone(), nil
}

func (s *Store) List(f Filter) []*models.Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()

	search := strings.ToLower(f.Search)
	out := make([]*models.Alert, 0, len(s.alerts))
	for _, a := range s.alerts {
		if search != "" &&
			!strings.Contains(strings.ToLower(a.Title), search) &&
			!strings.Contains(strings.ToLower(a.Message), search) {
			continue
		}
		if f.Department != "" && a.Department != f.Department {
			continue
		}
		if f.Severity != "" && a.Severity != f.Severity {
			continue
		}
		if f.UnreadOnly && a.Read {
			continue
		}
		if f.VisibleAt != nil && !alerts.ShouldShow(a, *f.VisibleAt) {
			continue
		}
		out = append(out, a.Clone())
	}
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.alerts)
}

func (s *Store) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, a := range s.alerts {
		if !a.Read {
			n++
		}
	}
	return n
}

// MarkRead is idempotent.
func (s *Store) MarkRead(id string) (*models.Alert, error) {
	return s.update(id, func(a *models.Alert) {
		a.Read = true
	})
}

// MarkShown records one display of the alert.
func (s *Store) MarkShown(id string, now time.Time) (*models.Alert, error) {
	return s.update(id, func(a *models.Alert) {
		recordShow(a, now)
	})
}

// Snooze records a display and, for a positive duration, hides the alert
// until now+d.
func (s *Store) Snooze(id string, d time.Duration, now time.Time) (*models.Alert, error) {
	return s.update(id, func(a *models.Alert) {
		recordShow(a, now)
		if d > 0 {
			until := now.Add(d)
			a.SnoozedUntil = &until
		}
	})
}

// Dismiss removes a dismissible alert. The id is remembered so the next
// detection of the same condition does not bring it straight back.
func (s *Store) Dismiss(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return ErrNotFound
	}
	if !s.alerts[i].Dismissible {
		return ErrNotDismissible
	}
	s.removeAt(i)
	s.dismissed[id] = struct{}{}
	return nil
}

// PruneDismissed forgets dismissals whose condition was not seen in the
// latest detection run, so a condition that clears and later recurs is
// alerted again.
func (s *Store) PruneDismissed(seen []*models.Alert) {
	live := make(map[string]struct{}, len(seen))
	for _, a := range seen {
		live[a.ID] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.dismissed {
		if _, ok := live[id]; !ok {
			delete(s.dismissed, id)
		}
	}
}

// Sweep replaces the collection with the result of keep and returns how
// many alerts were removed.
func (s *Store) Sweep(keep func([]*models.Alert) []*models.Alert) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := len(s.alerts)
	kept := keep(s.alerts)
	s.alerts = kept
	s.reindex()
	return before - len(kept)
}

func (s *Store) update(id string, fn func(*models.Alert)) (*models.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return nil, ErrNotFound
	}
	fn(s.alerts[i])
	return s.alerts[i].Clone(), nil
}

func (s *Store) removeAt(i int) {
	s.alerts = append(s.alerts[:i], s.alerts[i+1:]...)
	s.reindex()
}

func (s *Store) reindex() {
	s.index = make(map[string]int, len(s.alerts))
	for i, a := range s.alerts {
		s.index[a.ID] = i
	}
}

func recordShow(a *models.Alert, now time.Time) {
	shown := now
	a.LastShown = &shown
	a.ShowCount++
}
