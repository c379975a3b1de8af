// Package validate holds the pure rules gating roster and hall mutations.
// Functions here have no side effects beyond signaling the rejection reason;
// callers decide how to report it.
package validate

import (
	"context"
	"errors"
	"strings"

	dErrors "resportal/pkg/domain-errors"
	"resportal/pkg/sentinel"

	"resportal/internal/housing/models"
)

// Machine-readable rejection reasons, used for metrics labels and tests.
const (
	ReasonProfileMissing   = "profile_missing"
	ReasonRosterFull       = "roster_full"
	ReasonNotStudent       = "not_student"
	ReasonGenderMismatch   = "gender_mismatch"
	ReasonAlreadyListed    = "already_listed"
	ReasonOtherApplication = "other_application"
	ReasonDuplicateHall    = "duplicate_hall"
	ReasonEmptyRoster      = "empty_roster"
)

// ApplicationLookup resolves a candidate's current application id.
// Implementations return sentinel.ErrNotFound (or id 0) when the candidate
// has no application on record.
type ApplicationLookup interface {
	CurrentApplicationID(ctx context.Context, username string) (int64, error)
}

// ApplicantEligible checks whether candidate may join the aggregate's
// roster. A nil return means eligible; otherwise the error carries a
// validation code and one of the Reason* constants.
//
// The foreign-application rule needs a directory round-trip: any id other
// than zero that differs from this aggregate's id is a conflict. A lookup
// miss counts as "no application".
func ApplicantEligible(ctx context.Context, lookup ApplicationLookup, agg models.ApplicationDetails, candidate models.Profile) error {
	if candidate.IsZero() {
		return dErrors.NewReason(dErrors.CodeValidation, ReasonProfileMissing,
			"applicant profile could not be resolved")
	}
	if len(agg.Applicants) >= models.MaxApplicants {
		return dErrors.NewReason(dErrors.CodeValidation, ReasonRosterFull,
			"an application may list at most 8 applicants")
	}
	if !strings.EqualFold(candidate.PersonType, models.PersonTypeStudent) {
		return dErrors.NewReason(dErrors.CodeValidation, ReasonNotStudent,
			candidate.DisplayName()+" is not a student")
	}
	if g := agg.EstablishedGender(); g != "" && candidate.Gender != "" && !strings.EqualFold(candidate.Gender, g) {
		return dErrors.NewReason(dErrors.CodeValidation, ReasonGenderMismatch,
			"all applicants must share the same gender")
	}
	if strings.EqualFold(candidate.Username, agg.Editor.Username) || agg.HasApplicant(candidate.Username) {
		return dErrors.NewReason(dErrors.CodeValidation, ReasonAlreadyListed,
			candidate.DisplayName()+" is already on this application")
	}

	otherID, err := lookup.CurrentApplicationID(ctx, candidate.Username)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "could not check for an existing application")
	}
	if otherID != 0 && otherID != agg.ID {
		return dErrors.NewReason(dErrors.CodeValidation, ReasonOtherApplication,
			candidate.DisplayName()+" already belongs to another application")
	}
	return nil
}

// HallNameAvailable checks whether setting the choice at index to name would
// duplicate another committed choice. Equality is case-sensitive on trimmed
// names; re-saving a row with its own unchanged name is never a conflict.
// index -1 means a prospective new row.
func HallNameAvailable(agg models.ApplicationDetails, index int, name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil
	}
	for i, c := range agg.Choices {
		if i == index {
			continue
		}
		if strings.TrimSpace(c.Name) == trimmed {
			return dErrors.NewReason(dErrors.CodeValidation, ReasonDuplicateHall,
				trimmed+" is already one of your choices")
		}
	}
	return nil
}
