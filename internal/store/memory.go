package store

import (
	"errors"
	"sync"
	"time"

	"github.com/i474232898/air-quality-aggregation/internal/airquality"
)

var (
	// ErrNotFound is returned when no data is available for a given city.
	ErrNotFound = errors.New("no air-quality data for location")
)

// readingHistory holds a time-ordered list of readings for one city. Order
// is append order, which is completion order: an older in-flight refresh
// finishing after a newer one lands last and becomes the latest
// (last-writer-wins by completion time).
type readingHistory struct {
	Readings []airquality.Reading
}

// MemoryStore is a concurrency-safe in-memory reading store with bounded
// retention. Everything here is recomputed per refresh cycle; the only
// durable state in the system is the budget ledger.
type MemoryStore struct {
	mu sync.RWMutex

	// key: lowercased city, value: history
	data map[string]*readingHistory

	maxHistory int           // max number of readings per city
	maxAge     time.Duration // optional max age for readings
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxHistory is <= 0, it is treated as unlimited.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string]*readingHistory),
		maxHistory: maxHistory,
		maxAge:     maxAge,
	}
}

// SaveReading appends a new reading for a city and enforces retention.
func (s *MemoryStore) SaveReading(city string, r airquality.Reading) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history, ok := s.data[city]
	if !ok {
		history = &readingHistory{}
		s.data[city] = history
	}

	history.Readings = append(history.Readings, r)

	// Enforce retention by count.
	if s.maxHistory > 0 && len(history.Readings) > s.maxHistory {
		over := len(history.Readings) - s.maxHistory
		history.Readings = history.Readings[over:]
	}

	// Enforce retention by age.
	if s.maxAge > 0 {
		cutoff := time.Now().Add(-s.maxAge)
		i := 0
		for ; i < len(history.Readings); i++ {
			if !history.Readings[i].ObservedAt.Before(cutoff) {
				break
			}
		}
		if i > 0 && i < len(history.Readings) {
			history.Readings = history.Readings[i:]
		}
	}
}

// GetLatest returns the most recent reading for a city.
func (s *MemoryStore) GetLatest(city string) (airquality.Reading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[city]
	if !ok || len(history.Readings) == 0 {
		return airquality.Reading{}, ErrNotFound
	}
	return history.Readings[len(history.Readings)-1], nil
}

// GetRange returns all readings for a city between from and to (inclusive).
func (s *MemoryStore) GetRange(city string, from, to time.Time) ([]airquality.Reading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[city]
	if !ok || len(history.Readings) == 0 {
		return nil, ErrNotFound
	}

	var result []airquality.Reading
	for _, r := range history.Readings {
		if !r.ObservedAt.Before(from) && !r.ObservedAt.After(to) {
			result = append(result, r)
		}
	}

	if len(result) == 0 {
		return nil, ErrNotFound
	}

	return result, nil
}
