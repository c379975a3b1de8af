// Package editor implements the editor-transfer flow: handing the right to
// edit an application to another roster member.
package editor

import (
	"context"

	dErrors "resportal/pkg/domain-errors"

	"resportal/internal/housing/models"
)

// Phase is the transfer flow's state: idle → confirm_pending → applied or
// cancelled.
type Phase string

const (
	PhaseIdle           Phase = "idle"
	PhaseConfirmPending Phase = "confirm_pending"
	PhaseApplied        Phase = "applied"
	PhaseCancelled      Phase = "cancelled"
)

// Persister is the slice of the housing directory the flow needs: the
// regular save path and the legacy dedicated change-editor endpoint used as
// a fallback.
type Persister interface {
	SaveApplication(ctx context.Context, details models.ApplicationDetails) (int64, error)
	ChangeEditor(ctx context.Context, id int64, username string) (bool, error)
}

// Flow tracks one transfer attempt. A Flow is single-use: once applied or
// cancelled, start a new one.
type Flow struct {
	phase   Phase
	nominee string
}

func NewFlow() *Flow {
	return &Flow{phase: PhaseIdle}
}

func (f *Flow) Phase() Phase    { return f.phase }
func (f *Flow) Nominee() string { return f.nominee }

// Offer opens the confirmation step. A transfer is only offered when the
// acting member currently holds edit rights and the nominee is already on
// the roster.
func (f *Flow) Offer(agg models.ApplicationDetails, canEdit bool, nominee string) error {
	if f.phase != PhaseIdle {
		return dErrors.New(dErrors.CodeConflict, "an editor transfer is already pending")
	}
	if !canEdit {
		return dErrors.New(dErrors.CodeUnauthorized, "only the current editor may transfer editing rights")
	}
	if !agg.HasApplicant(nominee) {
		return dErrors.New(dErrors.CodeValidation, "the new editor must already be listed as an applicant")
	}
	f.phase = PhaseConfirmPending
	f.nominee = nominee
	return nil
}

// Cancel abandons a pending transfer; the acting member keeps edit rights.
func (f *Flow) Cancel() {
	if f.phase == PhaseConfirmPending {
		f.phase = PhaseCancelled
	}
}

// Confirm executes a pending transfer. Unsaved changes are persisted first,
// best effort: a failure there does not block the transfer attempt. The
// aggregate is then saved with the nominee as editor; if that fails, the
// legacy change-editor endpoint is tried before giving up.
//
// The flow ends in PhaseApplied even when both persistence paths fail,
// because intent to transfer was already acted upon; the caller revokes the
// acting member's local edit rights in every confirmed path and reports the
// returned error, if any, as a notice.
func (f *Flow) Confirm(ctx context.Context, agg models.ApplicationDetails, dirty bool, store Persister) (models.ApplicationDetails, error) {
	if f.phase != PhaseConfirmPending {
		return agg, dErrors.New(dErrors.CodeConflict, "no editor transfer is awaiting confirmation")
	}
	f.phase = PhaseApplied

	if dirty {
		if id, err := store.SaveApplication(ctx, agg); err == nil && id > 0 {
			agg.ID = id
		}
	}

	idx := agg.IndexOfApplicant(f.nominee)
	if idx < 0 {
		return agg, dErrors.New(dErrors.CodeValidation, "the new editor is no longer listed as an applicant")
	}
	next := agg.Clone()
	next.Editor = next.Applicants[idx].Profile

	if _, err := store.SaveApplication(ctx, next); err != nil {
		ok, legacyErr := store.ChangeEditor(ctx, next.ID, f.nominee)
		if legacyErr != nil || !ok {
			return agg, dErrors.Wrap(err, dErrors.CodeUnexpectedResult,
				"the editor change could not be saved")
		}
	}
	return next, nil
}
