package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"resportal/pkg/requestcontext"
	"resportal/pkg/sentinel"

	"resportal/internal/housing/models"
)

type StoreSuite struct {
	suite.Suite
	store *Store
	ctx   context.Context
}

func (s *StoreSuite) SetupTest() {
	s.store = NewStore([]string{"North", "South"})
	s.ctx = context.Background()
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) newApplication(editor string, others ...string) models.ApplicationDetails {
	profile := models.Profile{Username: editor, FirstName: editor, Gender: "F", PersonType: models.PersonTypeStudent}
	agg := models.NewDraft(profile)
	for _, u := range others {
		agg.Applicants = append(agg.Applicants, models.Applicant{
			Profile:  models.Profile{Username: u, FirstName: u, Gender: "F", PersonType: models.PersonTypeStudent},
			Username: u,
		})
	}
	return agg
}

// TestSaveAndLookup verifies id assignment and retrieval round-trips.
func (s *StoreSuite) TestSaveAndLookup() {
	s.Run("first save assigns an id and stamps the record", func() {
		id, err := s.store.SaveApplication(s.ctx, s.newApplication("alice"))
		s.Require().NoError(err)
		s.Require().Positive(id)

		stored, err := s.store.Application(s.ctx, id)
		s.Require().NoError(err)
		s.Equal(id, stored.ID)
		s.Require().NotNil(stored.DateModified)
		s.Nil(stored.DateSubmitted)
	})

	s.Run("resave keeps the id and rewrites the record", func() {
		agg := s.newApplication("alice")
		id, err := s.store.SaveApplication(s.ctx, agg)
		s.Require().NoError(err)

		agg.ID = id
		agg.Choices = []models.HallChoice{{Rank: 1, Name: "North"}}
		again, err := s.store.SaveApplication(s.ctx, agg)
		s.Require().NoError(err)
		s.Equal(id, again)

		stored, err := s.store.Application(s.ctx, id)
		s.Require().NoError(err)
		s.Require().Len(stored.Choices, 1)
		s.Equal(id, stored.Choices[0].ApplicationID, "choice rows adopt the record id")
	})

	s.Run("resave of an unknown id fails", func() {
		agg := s.newApplication("alice")
		agg.ID = 999
		_, err := s.store.SaveApplication(s.ctx, agg)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("unknown lookup", func() {
		_, err := s.store.Application(s.ctx, 999)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("stamps with the request-scoped time when no clock is set", func() {
		at := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
		ctx := requestcontext.WithTime(s.ctx, at)

		id, err := s.store.SaveApplication(ctx, s.newApplication("erin"))
		s.Require().NoError(err)

		stored, err := s.store.Application(ctx, id)
		s.Require().NoError(err)
		s.Require().NotNil(stored.DateModified)
		s.Equal(at, *stored.DateModified)
	})
}

// TestCurrentApplicationID verifies membership is found through either role.
func (s *StoreSuite) TestCurrentApplicationID() {
	id, err := s.store.SaveApplication(s.ctx, s.newApplication("alice", "carol"))
	s.Require().NoError(err)

	s.Run("found as editor", func() {
		got, err := s.store.CurrentApplicationID(s.ctx, "ALICE")
		s.Require().NoError(err)
		s.Equal(id, got)
	})

	s.Run("found as applicant", func() {
		got, err := s.store.CurrentApplicationID(s.ctx, "carol")
		s.Require().NoError(err)
		s.Equal(id, got)
	})

	s.Run("absent member", func() {
		_, err := s.store.CurrentApplicationID(s.ctx, "nobody")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

// TestSubmission verifies the submit transition and its finality.
func (s *StoreSuite) TestSubmission() {
	fixed := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s.store.WithClock(func() time.Time { return fixed })

	id, err := s.store.SaveApplication(s.ctx, s.newApplication("alice"))
	s.Require().NoError(err)

	s.Run("submit stamps the date", func() {
		ok, err := s.store.SubmitApplication(s.ctx, id)
		s.Require().NoError(err)
		s.True(ok)

		stored, err := s.store.Application(s.ctx, id)
		s.Require().NoError(err)
		s.Require().NotNil(stored.DateSubmitted)
		s.Equal(fixed, *stored.DateSubmitted)
	})

	s.Run("repeat submit succeeds without change", func() {
		ok, err := s.store.SubmitApplication(s.ctx, id)
		s.Require().NoError(err)
		s.True(ok)
	})

	s.Run("submitted records reject saves", func() {
		agg, err := s.store.Application(s.ctx, id)
		s.Require().NoError(err)
		_, err = s.store.SaveApplication(s.ctx, agg)
		s.Require().ErrorIs(err, sentinel.ErrInvalidState)
	})

	s.Run("unknown id", func() {
		_, err := s.store.SubmitApplication(s.ctx, 999)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *StoreSuite) TestDeletion() {
	id, err := s.store.SaveApplication(s.ctx, s.newApplication("alice"))
	s.Require().NoError(err)

	ok, err := s.store.DeleteApplication(s.ctx, id)
	s.Require().NoError(err)
	s.True(ok)

	_, err = s.store.Application(s.ctx, id)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.store.DeleteApplication(s.ctx, id)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *StoreSuite) TestChangeEditor() {
	id, err := s.store.SaveApplication(s.ctx, s.newApplication("alice", "carol"))
	s.Require().NoError(err)

	s.Run("flips the editor to a roster member", func() {
		ok, err := s.store.ChangeEditor(s.ctx, id, "carol")
		s.Require().NoError(err)
		s.True(ok)

		stored, err := s.store.Application(s.ctx, id)
		s.Require().NoError(err)
		s.Equal("carol", stored.Editor.Username)
	})

	s.Run("rejects a non-member", func() {
		_, err := s.store.ChangeEditor(s.ctx, id, "stranger")
		s.Require().ErrorIs(err, sentinel.ErrInvalidState)
	})
}

func (s *StoreSuite) TestAvailableHalls() {
	halls, err := s.store.AvailableHalls(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal([]string{"North", "South"}, halls)

	empty := NewStore(nil)
	_, err = empty.AvailableHalls(s.ctx, "alice")
	s.Require().ErrorIs(err, sentinel.ErrUnavailable)
}

func (s *StoreSuite) TestIdentityStore() {
	alice := models.Profile{Username: "Alice", FirstName: "Alice", PersonType: models.PersonTypeStudent}
	identity := NewIdentityStore(alice)

	s.Run("lookup is case-insensitive", func() {
		got, err := identity.Profile(s.ctx, "alice")
		s.Require().NoError(err)
		s.Equal("Alice", got.Username)
	})

	s.Run("unknown username", func() {
		_, err := identity.Profile(s.ctx, "nobody")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("put overwrites", func() {
		alice.Class = "senior"
		identity.Put(alice)
		got, err := identity.Profile(s.ctx, "ALICE")
		s.Require().NoError(err)
		s.Equal("senior", got.Class)
	})
}
