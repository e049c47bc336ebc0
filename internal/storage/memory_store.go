package storage

import (
	"sync"
	"time"

	"enquiry-admin/internal/models"
)

// MemoryStore holds the working set of enquiries for one viewing session.
// The full set is loaded at once and replaced wholesale on a fresh load;
// edits are session-local and discarded with the store.
type MemoryStore struct {
	mu        sync.RWMutex
	enquiries []models.Enquiry
	lastLoad  time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		enquiries: make([]models.Enquiry, 0),
	}
}

// Replace swaps in a freshly loaded collection.
func (s *MemoryStore) Replace(enquiries []models.Enquiry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.enquiries = enquiries
	s.lastLoad = time.Now()
}

// All returns a copy of the held collection.
func (s *MemoryStore) All() []models.Enquiry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	enquiries := make([]models.Enquiry, len(s.enquiries))
	copy(enquiries, s.enquiries)
	return enquiries
}

// Get returns the enquiry with the given id.
func (s *MemoryStore) Get(id string) (models.Enquiry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.enquiries {
		if e.ID == id {
			return e, true
		}
	}
	return models.Enquiry{}, false
}

// Upsert replaces the enquiry with a matching id or appends a new one.
// Replacement keeps the record's position so a stable sort over unchanged
// keys is unaffected by edits.
func (s *MemoryStore) Upsert(enquiry models.Enquiry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, e := range s.enquiries {
		if e.ID == enquiry.ID {
			s.enquiries[i] = enquiry
			return
		}
	}
	s.enquiries = append(s.enquiries, enquiry)
}

// Delete removes the enquiry with the given id, reporting whether it existed.
func (s *MemoryStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, e := range s.enquiries {
		if e.ID == id {
			s.enquiries = append(s.enquiries[:i], s.enquiries[i+1:]...)
			return true
		}
	}
	return false
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.enquiries)
}

func (s *MemoryStore) LastLoadTime() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastLoad
}

func (s *MemoryStore) HasData() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.enquiries) > 0
}
