package customers

import (
	"context"
	"errors"
	"sync"
)

// ErrSourceNotFound is returned when a named source does not exist.
var ErrSourceNotFound = errors.New("source not found")

// ErrEmptySourceName is returned when trying to store a table without a name.
var ErrEmptySourceName = errors.New("empty source name")

// Source supplies one table of transactions per named source (a worksheet,
// a location export, ...).
type Source interface {
	Load(ctx context.Context, name string) ([]Transaction, error)
}

// MemorySource provides an in-memory implementation of Source.
type MemorySource struct {
	mu sync.RWMutex
	m  map[string][]Transaction
}

// NewMemorySource instantiates a new MemorySource with no tables.
func NewMemorySource() *MemorySource {
	return &MemorySource{
		m: map[string][]Transaction{},
	}
}

// Set stores a copy of rows under name, replacing any previous table.
// Returns ErrEmptySourceName if name is empty.
func (s *MemorySource) Set(name string, rows []Transaction) error {
	if name == "" {
		return ErrEmptySourceName
	}
	cp := make([]Transaction, len(rows))
	copy(cp, rows)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[name] = cp
	return nil
}

// Load returns a copy of the table stored under name.
// Returns ErrSourceNotFound if there is none.
func (s *MemorySource) Load(_ context.Context, name string) ([]Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, ok := s.m[name]
	if !ok {
		return nil, ErrSourceNotFound
	}
	cp := make([]Transaction, len(rows))
	copy(cp, rows)
	return cp, nil
}

// Names lists the stored source names.
func (s *MemorySource) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.m))
	for name := range s.m {
		names = append(names, name)
	}
	return names
}
