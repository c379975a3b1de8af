// Package roster manages the applicant list of a housing application.
// All operations are copy-on-write: they take the aggregate by value and
// return a new one, leaving the caller's copy untouched on rejection.
package roster

import (
	"context"
	"errors"

	dErrors "resportal/pkg/domain-errors"
	"resportal/pkg/sentinel"

	"resportal/internal/housing/models"
	"resportal/internal/housing/validate"
)

// IdentityDirectory resolves usernames to profiles.
type IdentityDirectory interface {
	Profile(ctx context.Context, username string) (models.Profile, error)
}

// Manager adds and removes applicants, enforcing the eligibility rules.
type Manager struct {
	identity IdentityDirectory
	lookup   validate.ApplicationLookup
}

func NewManager(identity IdentityDirectory, lookup validate.ApplicationLookup) *Manager {
	return &Manager{identity: identity, lookup: lookup}
}

// Add resolves username and appends it to the roster when eligible.
// Identity lookup failures come back coded not_found or unauthorized so the
// caller can report a recoverable notice; eligibility failures come back
// coded validation. In every failure case the returned aggregate equals the
// input.
func (m *Manager) Add(ctx context.Context, agg models.ApplicationDetails, username string) (models.ApplicationDetails, error) {
	profile, err := m.identity.Profile(ctx, username)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return agg, dErrors.New(dErrors.CodeNotFound, "no user named "+username+" could be found")
		}
		if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			return agg, err
		}
		return agg, dErrors.Wrap(err, dErrors.CodeInternal, "looking up "+username+" failed")
	}

	if err := validate.ApplicantEligible(ctx, m.lookup, agg, profile); err != nil {
		return agg, err
	}

	next := agg.Clone()
	next.Applicants = append(next.Applicants, models.Applicant{
		Profile:  profile,
		Username: profile.Username,
	})
	return next, nil
}

// Remove drops the applicant with the given username. Removing an absent
// username is a no-op and not an error.
func (m *Manager) Remove(agg models.ApplicationDetails, username string) (models.ApplicationDetails, bool) {
	idx := agg.IndexOfApplicant(username)
	if idx < 0 {
		return agg, false
	}
	next := agg.Clone()
	next.Applicants = append(next.Applicants[:idx], next.Applicants[idx+1:]...)
	return next, true
}

// SetOffCampusProgram records (or clears, with an empty program) an
// applicant's off-campus arrangement.
func (m *Manager) SetOffCampusProgram(agg models.ApplicationDetails, username, program string) (models.ApplicationDetails, error) {
	idx := agg.IndexOfApplicant(username)
	if idx < 0 {
		return agg, dErrors.New(dErrors.CodeNotFound, username+" is not on this application")
	}
	next := agg.Clone()
	next.Applicants[idx].OffCampusProgram = program
	return next, nil
}
