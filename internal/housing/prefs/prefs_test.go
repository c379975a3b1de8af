package prefs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "resportal/pkg/domain-errors"

	"resportal/internal/housing/models"
)

func choices(agg models.ApplicationDetails) []models.HallChoice {
	return agg.Choices
}

func baseAggregate() models.ApplicationDetails {
	return models.ApplicationDetails{
		ID: 7,
		Choices: []models.HallChoice{
			{ApplicationID: 7, Rank: 1, Name: "North"},
			{ApplicationID: 7, Rank: 2, Name: "South"},
			{ApplicationID: 7, Rank: 3, Name: "East"},
		},
	}
}

func TestAddChoice(t *testing.T) {
	agg := baseAggregate()
	next := AddChoice(agg)

	require.Len(t, next.Choices, 4)
	placeholder := next.Choices[3]
	assert.Equal(t, 4, placeholder.Rank)
	assert.Empty(t, placeholder.Name)
	assert.Equal(t, agg.ID, placeholder.ApplicationID)

	// The input aggregate is untouched.
	assert.Len(t, agg.Choices, 3)
}

func TestEditChoice(t *testing.T) {
	t.Run("replaces and re-sorts", func(t *testing.T) {
		agg := baseAggregate()
		next, err := EditChoice(agg, 2, 1, "  Annex  ")
		require.NoError(t, err)

		require.Len(t, next.Choices, 3)
		// Rank 1 ties sort by name: Annex before North.
		assert.Equal(t, "Annex", next.Choices[0].Name)
		assert.Equal(t, 1, next.Choices[0].Rank)
		assert.Equal(t, "North", next.Choices[1].Name)
		assert.Equal(t, "South", next.Choices[2].Name)
	})

	t.Run("duplicate name keeps content but refreshes order", func(t *testing.T) {
		agg := baseAggregate()
		agg.Choices[2].Rank = 1 // East outranks its position

		next, err := EditChoice(agg, 1, 2, "North")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

		names := []string{next.Choices[0].Name, next.Choices[1].Name, next.Choices[2].Name}
		assert.ElementsMatch(t, []string{"North", "South", "East"}, names)
		// Re-sorted despite the rejection: East's rank 1 moves it up.
		assert.Equal(t, "East", next.Choices[0].Name)
	})

	t.Run("out-of-range index is a no-op", func(t *testing.T) {
		agg := baseAggregate()
		next, err := EditChoice(agg, 5, 1, "Annex")
		require.NoError(t, err)
		assert.Equal(t, choices(agg), choices(next))

		next, err = EditChoice(agg, -1, 1, "Annex")
		require.NoError(t, err)
		assert.Equal(t, choices(agg), choices(next))
	})

	t.Run("unchanged name at the same index is allowed", func(t *testing.T) {
		agg := baseAggregate()
		next, err := EditChoice(agg, 0, 2, "North")
		require.NoError(t, err)
		assert.Equal(t, 2, next.Choices[1].Rank)
		assert.Equal(t, "North", next.Choices[1].Name)
	})
}

func TestRemoveChoice(t *testing.T) {
	t.Run("drops the entry and clamps trailing ranks", func(t *testing.T) {
		agg := baseAggregate()
		next := RemoveChoice(agg, 0)

		require.Len(t, next.Choices, 2)
		for _, c := range next.Choices {
			assert.LessOrEqual(t, c.Rank, len(next.Choices))
		}
		// Rank 3 exceeded the new length and was clamped to 2; rank 2 kept.
		assert.Equal(t, "South", next.Choices[0].Name)
		assert.Equal(t, 2, next.Choices[0].Rank)
		assert.Equal(t, "East", next.Choices[1].Name)
		assert.Equal(t, 2, next.Choices[1].Rank)
	})

	t.Run("in-range ranks stay as assigned", func(t *testing.T) {
		agg := baseAggregate()
		next := RemoveChoice(agg, 2)
		require.Len(t, next.Choices, 2)
		assert.Equal(t, 1, next.Choices[0].Rank)
		assert.Equal(t, 2, next.Choices[1].Rank)
	})

	t.Run("removing the only choice leaves an empty list", func(t *testing.T) {
		agg := models.ApplicationDetails{Choices: []models.HallChoice{{Rank: 1, Name: "North"}}}
		next := RemoveChoice(agg, 0)
		assert.Empty(t, next.Choices)
	})

	t.Run("out-of-range index is a no-op", func(t *testing.T) {
		agg := baseAggregate()
		next := RemoveChoice(agg, 3)
		assert.Equal(t, choices(agg), choices(next))
	})
}
