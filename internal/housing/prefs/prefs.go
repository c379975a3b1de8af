// Package prefs manages the ranked hall preference list of an application.
// Ranks are user-assigned; the list is kept sorted by (rank, name) and only
// out-of-range ranks are ever rewritten.
package prefs

import (
	"strings"

	"resportal/internal/housing/models"
	"resportal/internal/housing/validate"
)

// AddChoice appends a placeholder row awaiting user input: next rank, empty
// name.
func AddChoice(agg models.ApplicationDetails) models.ApplicationDetails {
	next := agg.Clone()
	next.Choices = append(next.Choices, models.HallChoice{
		ApplicationID: next.ID,
		Rank:          len(next.Choices) + 1,
	})
	return next
}

// EditChoice replaces the entry at index with the given rank and name.
// A duplicate name at another index rejects the edit: the list CONTENT stays
// unchanged, but the returned aggregate is still re-sorted by (rank, name),
// matching the display contract. On success the full list is re-sorted.
func EditChoice(agg models.ApplicationDetails, index, rank int, name string) (models.ApplicationDetails, error) {
	if index < 0 || index >= len(agg.Choices) {
		return agg, nil
	}
	next := agg.Clone()
	if err := validate.HallNameAvailable(next, index, name); err != nil {
		next.SortChoices()
		return next, err
	}
	next.Choices[index] = models.HallChoice{
		ApplicationID: next.ID,
		Rank:          rank,
		Name:          strings.TrimSpace(name),
	}
	next.SortChoices()
	return next, nil
}

// RemoveChoice drops the entry at index. Remaining ranks that exceed the new
// length are clamped down to it so no rank points past the end of the list;
// in-range ranks are left exactly as the user assigned them.
func RemoveChoice(agg models.ApplicationDetails, index int) models.ApplicationDetails {
	if index < 0 || index >= len(agg.Choices) {
		return agg
	}
	next := agg.Clone()
	next.Choices = append(next.Choices[:index], next.Choices[index+1:]...)
	for i := range next.Choices {
		if next.Choices[i].Rank > len(next.Choices) {
			next.Choices[i].Rank = len(next.Choices)
		}
	}
	next.SortChoices()
	return next
}
