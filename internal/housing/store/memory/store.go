// Package memory is the in-process housing directory used in dev mode and
// unit tests. It enforces the same factual rules as the postgres store and
// returns the same sentinels.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"resportal/pkg/requestcontext"
	"resportal/pkg/sentinel"

	"resportal/internal/housing/models"
)

// Store holds application records keyed by id.
type Store struct {
	mu     sync.RWMutex
	nextID int64
	apps   map[int64]models.ApplicationDetails
	halls  []string
	now    func() time.Time
}

func NewStore(halls []string) *Store {
	return &Store{
		apps:  make(map[int64]models.ApplicationDetails),
		halls: append([]string(nil), halls...),
	}
}

// WithClock overrides the timestamp source for tests.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// timestamp prefers an overridden clock, then the request-scoped time the
// middleware injected, so one request stamps consistently across records.
func (s *Store) timestamp(ctx context.Context) time.Time {
	if s.now != nil {
		return s.now()
	}
	return requestcontext.Now(ctx)
}

// CurrentApplicationID finds the application username belongs to, either as
// an applicant or as editor.
func (s *Store) CurrentApplicationID(_ context.Context, username string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for id, app := range s.apps {
		if strings.EqualFold(app.Editor.Username, username) || app.HasApplicant(username) {
			return id, nil
		}
	}
	return 0, sentinel.ErrNotFound
}

func (s *Store) Application(_ context.Context, id int64) (models.ApplicationDetails, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	app, ok := s.apps[id]
	if !ok {
		return models.ApplicationDetails{}, sentinel.ErrNotFound
	}
	return app.Clone(), nil
}

// SaveApplication stores the record, assigning an id on first save and
// stamping DateModified. A submitted record can no longer be saved over.
func (s *Store) SaveApplication(ctx context.Context, details models.ApplicationDetails) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if details.ID != 0 {
		existing, ok := s.apps[details.ID]
		if !ok {
			return 0, sentinel.ErrNotFound
		}
		if existing.IsSubmitted() {
			return 0, sentinel.ErrInvalidState
		}
	} else {
		s.nextID++
		details.ID = s.nextID
	}

	now := s.timestamp(ctx)
	details.DateModified = &now
	stored := details.Clone()
	for i := range stored.Choices {
		stored.Choices[i].ApplicationID = stored.ID
	}
	s.apps[stored.ID] = stored
	return stored.ID, nil
}

func (s *Store) SubmitApplication(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	app, ok := s.apps[id]
	if !ok {
		return false, sentinel.ErrNotFound
	}
	if app.IsSubmitted() {
		return true, nil
	}
	now := s.timestamp(ctx)
	app.DateSubmitted = &now
	s.apps[id] = app
	return true, nil
}

func (s *Store) DeleteApplication(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.apps[id]; !ok {
		return false, sentinel.ErrNotFound
	}
	delete(s.apps, id)
	return true, nil
}

// ChangeEditor is the legacy dedicated editor-change path: it flips the
// editor without touching the rest of the record.
func (s *Store) ChangeEditor(_ context.Context, id int64, username string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	app, ok := s.apps[id]
	if !ok {
		return false, sentinel.ErrNotFound
	}
	idx := app.IndexOfApplicant(username)
	if idx < 0 {
		return false, sentinel.ErrInvalidState
	}
	next := app.Clone()
	next.Editor = next.Applicants[idx].Profile
	s.apps[id] = next
	return true, nil
}

func (s *Store) AvailableHalls(_ context.Context, _ string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.halls) == 0 {
		return nil, sentinel.ErrUnavailable
	}
	return append([]string(nil), s.halls...), nil
}
