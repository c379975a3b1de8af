package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDraft(t *testing.T) {
	alice := Profile{Username: "alice", FirstName: "Alice", Gender: "F", PersonType: PersonTypeStudent}
	draft := NewDraft(alice)

	assert.Zero(t, draft.ID)
	assert.False(t, draft.IsSaved())
	assert.False(t, draft.IsSubmitted())
	assert.Equal(t, "alice", draft.Editor.Username)
	require.Len(t, draft.Applicants, 1)
	assert.Equal(t, "alice", draft.Applicants[0].Username)
}

func TestCloneIsIndependent(t *testing.T) {
	submitted := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	original := ApplicationDetails{
		ID:            5,
		DateSubmitted: &submitted,
		Applicants:    []Applicant{{Username: "alice"}},
		Choices:       []HallChoice{{Rank: 1, Name: "North"}},
	}

	clone := original.Clone()
	clone.Applicants[0].Username = "mallory"
	clone.Choices[0].Name = "South"
	*clone.DateSubmitted = submitted.Add(time.Hour)

	assert.Equal(t, "alice", original.Applicants[0].Username)
	assert.Equal(t, "North", original.Choices[0].Name)
	assert.Equal(t, submitted, *original.DateSubmitted)
}

func TestIndexOfApplicant(t *testing.T) {
	agg := ApplicationDetails{Applicants: []Applicant{
		{Username: "Alice"},
		{Username: "carol"},
	}}

	assert.Equal(t, 0, agg.IndexOfApplicant("ALICE"))
	assert.Equal(t, 1, agg.IndexOfApplicant("Carol"))
	assert.Equal(t, -1, agg.IndexOfApplicant("nobody"))
	assert.True(t, agg.HasApplicant("alice"))
}

func TestEstablishedGender(t *testing.T) {
	t.Run("first applicant wins", func(t *testing.T) {
		agg := ApplicationDetails{
			Editor:     Profile{Gender: "M"},
			Applicants: []Applicant{{Profile: Profile{Gender: "F"}}},
		}
		assert.Equal(t, "F", agg.EstablishedGender())
	})

	t.Run("editor backs an empty roster", func(t *testing.T) {
		agg := ApplicationDetails{Editor: Profile{Gender: "M"}}
		assert.Equal(t, "M", agg.EstablishedGender())
	})

	t.Run("nothing established", func(t *testing.T) {
		assert.Empty(t, ApplicationDetails{}.EstablishedGender())
	})
}

func TestSortChoices(t *testing.T) {
	agg := ApplicationDetails{Choices: []HallChoice{
		{Rank: 2, Name: "South"},
		{Rank: 1, Name: "North"},
		{Rank: 1, Name: "Annex"},
	}}
	agg.SortChoices()

	assert.Equal(t, "Annex", agg.Choices[0].Name)
	assert.Equal(t, "North", agg.Choices[1].Name)
	assert.Equal(t, "South", agg.Choices[2].Name)
}

func TestProfileDisplayName(t *testing.T) {
	assert.Equal(t, "Alice Smith", Profile{FirstName: "Alice", LastName: "Smith"}.DisplayName())
	assert.Equal(t, "Alice", Profile{FirstName: "Alice"}.DisplayName())
	assert.Equal(t, "Smith", Profile{LastName: "Smith"}.DisplayName())
	assert.Equal(t, "asmith", Profile{Username: "asmith"}.DisplayName())
	assert.True(t, Profile{}.IsZero())
}
