package preferences

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/kingrea/skillmatch/internal/onboarding"
)

// MemoryStore keeps encoded records in a map. Records still go through JSON
// so the shape survives exactly as it would on disk.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string][]byte
	saves   int
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: map[string][]byte{}}
}

// Save replaces the record for profile.
func (s *MemoryStore) Save(_ context.Context, profile string, answers onboarding.Answers) error {
	if err := validateProfile(profile); err != nil {
		return err
	}
	data, err := json.Marshal(answers)
	if err != nil {
		return fmt.Errorf("preferences: encode %s: %w", profile, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[profile] = data
	s.saves++
	return nil
}

// Load reads the record for profile.
func (s *MemoryStore) Load(_ context.Context, profile string) (onboarding.Answers, error) {
	s.mu.Lock()
	data, ok := s.records[profile]
	s.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}
	var answers onboarding.Answers
	if err := json.Unmarshal(data, &answers); err != nil {
		return nil, fmt.Errorf("preferences: decode %s: %w", profile, err)
	}
	return answers, nil
}

// Saves returns how many writes the store has accepted.
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }
