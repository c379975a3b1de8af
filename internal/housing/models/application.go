package models

import (
	"sort"
	"strings"
	"time"
)

// MaxApplicants caps the roster size of a single application.
const MaxApplicants = 8

// ApplicationDetails is the aggregate root for one housing application.
//
// Invariants:
//   - Applicants has between 0 and MaxApplicants entries
//   - every applicant shares the roster's established gender
//   - ID is zero exactly until the first successful save
//   - once DateSubmitted is set the aggregate is read-only to non-owning
//     actors
//   - hall choice ranks never exceed len(Choices) after a removal
//
// The aggregate is owned by the lifecycle service for the duration of a
// member session. Managers never mutate it in place: every mutation goes
// through Clone and produces a new value, so the service can compare the
// working copy against the last persisted snapshot.
type ApplicationDetails struct {
	ID            int64        `json:"id"`
	DateSubmitted *time.Time   `json:"date_submitted,omitempty"`
	DateModified  *time.Time   `json:"date_modified,omitempty"`
	Editor        Profile      `json:"editor"`
	Applicants    []Applicant  `json:"applicants"`
	Choices       []HallChoice `json:"apartment_choices"`
}

// Applicant is one roster entry. Username is denormalized from the profile
// for ordering and lookup. OffCampusProgram empty means the applicant wants
// a hall assignment rather than an off-campus arrangement.
type Applicant struct {
	Profile          Profile `json:"profile"`
	Username         string  `json:"username"`
	OffCampusProgram string  `json:"off_campus_program,omitempty"`
}

// HallChoice is one ranked hall preference. Name may be empty only as a
// placeholder row awaiting user input; committed choices have unique
// non-empty names and ranks in [1, len].
type HallChoice struct {
	ApplicationID int64  `json:"application_id"`
	Rank          int    `json:"hall_rank"`
	Name          string `json:"hall_name"`
}

// NewDraft initializes an unsaved application with the member as sole
// applicant and editor.
func NewDraft(member Profile) ApplicationDetails {
	return ApplicationDetails{
		Editor: member,
		Applicants: []Applicant{{
			Profile:  member,
			Username: member.Username,
		}},
	}
}

// Clone deep-copies the aggregate so managers can return fresh values
// without sharing slices with the caller.
func (a ApplicationDetails) Clone() ApplicationDetails {
	out := a
	out.Applicants = append([]Applicant(nil), a.Applicants...)
	out.Choices = append([]HallChoice(nil), a.Choices...)
	if a.DateSubmitted != nil {
		t := *a.DateSubmitted
		out.DateSubmitted = &t
	}
	if a.DateModified != nil {
		t := *a.DateModified
		out.DateModified = &t
	}
	return out
}

// IsSaved reports whether the aggregate has been persisted at least once.
func (a ApplicationDetails) IsSaved() bool { return a.ID > 0 }

// IsSubmitted reports whether the aggregate has been submitted and is
// therefore permanently read-only.
func (a ApplicationDetails) IsSubmitted() bool { return a.DateSubmitted != nil }

// HasApplicant reports whether username is already on the roster.
func (a ApplicationDetails) HasApplicant(username string) bool {
	return a.IndexOfApplicant(username) >= 0
}

// IndexOfApplicant returns the roster index for username, or -1.
func (a ApplicationDetails) IndexOfApplicant(username string) int {
	for i, ap := range a.Applicants {
		if strings.EqualFold(ap.Username, username) {
			return i
		}
	}
	return -1
}

// EstablishedGender is the gender every roster member must share: the first
// applicant's, or the editor's when the roster is empty. Empty means no
// gender has been established yet.
func (a ApplicationDetails) EstablishedGender() string {
	if len(a.Applicants) > 0 {
		return a.Applicants[0].Profile.Gender
	}
	return a.Editor.Gender
}

// SortChoices orders the hall choices by (rank, name). Display order is
// significant, so every mutation path re-sorts through here.
func (a *ApplicationDetails) SortChoices() {
	sort.SliceStable(a.Choices, func(i, j int) bool {
		if a.Choices[i].Rank != a.Choices[j].Rank {
			return a.Choices[i].Rank < a.Choices[j].Rank
		}
		return a.Choices[i].Name < a.Choices[j].Name
	})
}
