// Package session owns the per-admin viewing state: the loaded enquiry
// collection and the mutable FilterState. Holding both behind one owner
// keeps the pipeline a pure function of (collection, filters, now).
package session

import (
	"sync"
	"time"

	"enquiry-admin/internal/models"
	"enquiry-admin/internal/storage"
)

// Session is the state of one admin's viewing session. It has no terminal
// state; filters mutate for the lifetime of the session and reset on the
// explicit clear-all or when the session is dropped at sign-out.
type Session struct {
	Store *storage.MemoryStore

	mu      sync.RWMutex
	filters models.FilterState
}

func New() *Session {
	return &Session{
		Store:   storage.NewMemoryStore(),
		filters: models.DefaultFilterState(),
	}
}

// Filters returns a snapshot of the current filter state.
func (s *Session) Filters() models.FilterState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filters
}

func (s *Session) SetSource(source string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters.Source = source
}

func (s *Session) SetTraffic(traffic models.TrafficType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters.Traffic = traffic
}

// SetDateMode selects a date preset. Custom bounds only apply in custom mode
// and are dropped when any other preset is chosen.
func (s *Session) SetDateMode(mode models.DateMode, from, to *time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.filters.DateMode = mode
	if mode == models.DateCustom {
		s.filters.DateFrom = from
		s.filters.DateTo = to
	} else {
		s.filters.DateFrom = nil
		s.filters.DateTo = nil
	}
}

func (s *Session) SetSearch(search string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters.Search = search
}

// ToggleSort selects a sort key. Re-selecting the active key flips the
// direction; a new key resets the direction to ascending.
func (s *Session) ToggleSort(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if key == s.filters.SortKey {
		if s.filters.SortDir == models.SortAsc {
			s.filters.SortDir = models.SortDesc
		} else {
			s.filters.SortDir = models.SortAsc
		}
		return
	}
	s.filters.SortKey = key
	s.filters.SortDir = models.SortAsc
}

// ClearFilters resets every facet to its default simultaneously.
func (s *Session) ClearFilters() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = models.DefaultFilterState()
}

// Manager tracks live sessions keyed by the authenticated admin's id.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
	}
}

// Get returns the admin's session, creating it on first use.
func (m *Manager) Get(adminID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[adminID]; ok {
		return s
	}
	s := New()
	m.sessions[adminID] = s
	return s
}

// Drop discards the admin's session and its held collection. Called on
// sign-out and on fail-closed authorization errors.
func (m *Manager) Drop(adminID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, adminID)
}

func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
