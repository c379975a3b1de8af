package memory

import (
	"context"
	"strings"
	"sync"

	"resportal/pkg/sentinel"

	"resportal/internal/housing/models"
)

// IdentityStore is the in-process identity directory for dev mode and
// tests.
type IdentityStore struct {
	mu       sync.RWMutex
	profiles map[string]models.Profile
}

func NewIdentityStore(profiles ...models.Profile) *IdentityStore {
	s := &IdentityStore{profiles: make(map[string]models.Profile)}
	for _, p := range profiles {
		s.profiles[strings.ToLower(p.Username)] = p
	}
	return s
}

// Put adds or replaces a profile.
func (s *IdentityStore) Put(p models.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[strings.ToLower(p.Username)] = p
}

func (s *IdentityStore) Profile(_ context.Context, username string) (models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[strings.ToLower(username)]
	if !ok {
		return models.Profile{}, sentinel.ErrNotFound
	}
	return p, nil
}
