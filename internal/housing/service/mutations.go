package service

import (
	"context"

	dErrors "resportal/pkg/domain-errors"

	"resportal/internal/housing/audit"
	"resportal/internal/housing/editor"
	"resportal/internal/housing/models"
	"resportal/internal/housing/prefs"
)

// AddApplicant resolves username and appends it to the roster when the
// eligibility rules allow it. Rejections and lookup misses become notices;
// the aggregate is untouched on failure.
func (s *Service) AddApplicant(ctx context.Context, member, username string) (Snapshot, error) {
	sess := s.session(member)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := s.ensureLoadedLocked(ctx, sess); err != nil {
		return Snapshot{}, err
	}
	if err := s.requireEditableLocked(sess); err != nil {
		s.reportFailure(sess, err)
		return sess.snapshot(), err
	}
	if err := sess.requireQuiescent(); err != nil {
		return sess.snapshot(), err
	}

	next, err := s.roster.Add(ctx, sess.agg, username)
	if err != nil {
		s.metrics.IncRejection(dErrors.ReasonOf(err))
		s.reportFailure(sess, err)
		return sess.snapshot(), err
	}
	s.applyMutationLocked(sess, next)
	return sess.snapshot(), nil
}

// RemoveApplicant drops username from the roster; absent usernames are a
// no-op.
func (s *Service) RemoveApplicant(ctx context.Context, member, username string) (Snapshot, error) {
	sess := s.session(member)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := s.ensureLoadedLocked(ctx, sess); err != nil {
		return Snapshot{}, err
	}
	if err := s.requireEditableLocked(sess); err != nil {
		s.reportFailure(sess, err)
		return sess.snapshot(), err
	}
	if err := sess.requireQuiescent(); err != nil {
		return sess.snapshot(), err
	}

	next, removed := s.roster.Remove(sess.agg, username)
	if removed {
		s.applyMutationLocked(sess, next)
	}
	return sess.snapshot(), nil
}

// SetOffCampusProgram records or clears an applicant's off-campus program.
func (s *Service) SetOffCampusProgram(ctx context.Context, member, username, program string) (Snapshot, error) {
	sess := s.session(member)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := s.ensureLoadedLocked(ctx, sess); err != nil {
		return Snapshot{}, err
	}
	if err := s.requireEditableLocked(sess); err != nil {
		s.reportFailure(sess, err)
		return sess.snapshot(), err
	}
	if err := sess.requireQuiescent(); err != nil {
		return sess.snapshot(), err
	}

	next, err := s.roster.SetOffCampusProgram(sess.agg, username, program)
	if err != nil {
		s.reportFailure(sess, err)
		return sess.snapshot(), err
	}
	s.applyMutationLocked(sess, next)
	return sess.snapshot(), nil
}

// AddChoice appends a placeholder hall choice awaiting user input.
func (s *Service) AddChoice(ctx context.Context, member string) (Snapshot, error) {
	sess := s.session(member)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := s.ensureLoadedLocked(ctx, sess); err != nil {
		return Snapshot{}, err
	}
	if err := s.requireEditableLocked(sess); err != nil {
		s.reportFailure(sess, err)
		return sess.snapshot(), err
	}
	if err := sess.requireQuiescent(); err != nil {
		return sess.snapshot(), err
	}

	s.applyMutationLocked(sess, prefs.AddChoice(sess.agg))
	return sess.snapshot(), nil
}

// EditChoice replaces the choice at index. A duplicate hall name rejects the
// edit; the list content stays as it was, re-sorted by (rank, name), and the
// conflict is reported as a notice.
func (s *Service) EditChoice(ctx context.Context, member string, index, rank int, name string) (Snapshot, error) {
	sess := s.session(member)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := s.ensureLoadedLocked(ctx, sess); err != nil {
		return Snapshot{}, err
	}
	if err := s.requireEditableLocked(sess); err != nil {
		s.reportFailure(sess, err)
		return sess.snapshot(), err
	}
	if err := sess.requireQuiescent(); err != nil {
		return sess.snapshot(), err
	}

	next, err := prefs.EditChoice(sess.agg, index, rank, name)
	if err != nil {
		// Content unchanged but order refreshed; dirty stays as it was.
		sess.agg = next
		s.metrics.IncRejection(dErrors.ReasonOf(err))
		s.reportFailure(sess, err)
		return sess.snapshot(), err
	}
	s.applyMutationLocked(sess, next)
	return sess.snapshot(), nil
}

// RemoveChoice drops the choice at index, clamping out-of-range ranks.
func (s *Service) RemoveChoice(ctx context.Context, member string, index int) (Snapshot, error) {
	sess := s.session(member)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := s.ensureLoadedLocked(ctx, sess); err != nil {
		return Snapshot{}, err
	}
	if err := s.requireEditableLocked(sess); err != nil {
		s.reportFailure(sess, err)
		return sess.snapshot(), err
	}
	if err := sess.requireQuiescent(); err != nil {
		return sess.snapshot(), err
	}

	s.applyMutationLocked(sess, prefs.RemoveChoice(sess.agg, index))
	return sess.snapshot(), nil
}

// OfferEditorTransfer opens the confirm step for handing edit rights to
// nominee. A finished flow (applied or cancelled) is replaced by a fresh
// one; a pending one is a conflict.
func (s *Service) OfferEditorTransfer(ctx context.Context, member, nominee string) (Snapshot, error) {
	sess := s.session(member)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := s.ensureLoadedLocked(ctx, sess); err != nil {
		return Snapshot{}, err
	}
	if err := sess.requireQuiescent(); err != nil {
		return sess.snapshot(), err
	}
	if p := sess.transfer.Phase(); p == editor.PhaseApplied || p == editor.PhaseCancelled {
		sess.transfer = editor.NewFlow()
	}
	canOffer := sess.canEdit && !sess.agg.IsSubmitted()
	if err := sess.transfer.Offer(sess.agg, canOffer, nominee); err != nil {
		s.reportFailure(sess, err)
		return sess.snapshot(), err
	}
	return sess.snapshot(), nil
}

// ConfirmEditorTransfer executes the pending transfer. Once confirmed, the
// acting member's edit rights are revoked whether or not persistence
// succeeded: intent to transfer was already acted upon.
func (s *Service) ConfirmEditorTransfer(ctx context.Context, member string) (Snapshot, error) {
	sess := s.session(member)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := s.ensureLoadedLocked(ctx, sess); err != nil {
		return Snapshot{}, err
	}

	if err := sess.requireQuiescent(); err != nil {
		return sess.snapshot(), err
	}

	next, err := sess.transfer.Confirm(ctx, sess.agg.Clone(), sess.dirty, s.housing)
	if sess.transfer.Phase() == editor.PhaseApplied {
		sess.canEdit = false
	}
	if err != nil {
		sess.setState(stateFor(sess.agg, sess.canEdit, sess.dirty))
		s.reportFailure(sess, err)
		return sess.snapshot(), err
	}

	sess.agg = next
	sess.dirty = false
	sess.setState(stateFor(sess.agg, sess.canEdit, false))
	s.notify(sess, models.SeverityInfo, "editing rights transferred to "+next.Editor.DisplayName())
	s.metrics.IncEditorTransfers()
	s.audit.Emit(ctx, audit.ActionEditorChanged, member, next.ID)
	return sess.snapshot(), nil
}

// CancelEditorTransfer abandons a pending transfer; rights are untouched.
func (s *Service) CancelEditorTransfer(ctx context.Context, member string) (Snapshot, error) {
	sess := s.session(member)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := s.ensureLoadedLocked(ctx, sess); err != nil {
		return Snapshot{}, err
	}
	sess.transfer.Cancel()
	return sess.snapshot(), nil
}

// applyMutationLocked installs a manager-produced aggregate and marks the
// session dirty. Callers must hold sess.mu.
func (s *Service) applyMutationLocked(sess *session, next models.ApplicationDetails) {
	sess.agg = next
	sess.dirty = true
	sess.setState(stateFor(sess.agg, sess.canEdit, true))
}
