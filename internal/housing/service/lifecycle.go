package service

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	dErrors "resportal/pkg/domain-errors"
	"resportal/pkg/sentinel"

	"resportal/internal/housing/audit"
	"resportal/internal/housing/models"
	"resportal/internal/housing/validate"
)

// Load returns the member's workflow snapshot, fetching or initializing the
// aggregate on first call. Failures here are fatal to the session: no usable
// state exists yet, so they surface as errors rather than notices.
func (s *Service) Load(ctx context.Context, member string) (Snapshot, error) {
	sess := s.session(member)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := s.ensureLoadedLocked(ctx, sess); err != nil {
		return Snapshot{}, err
	}
	return sess.snapshot(), nil
}

// ensureLoadedLocked performs the initial load exactly once per session.
// Callers must hold sess.mu.
func (s *Service) ensureLoadedLocked(ctx context.Context, sess *session) error {
	if sess.state != models.StateLoading {
		return nil
	}

	profile, err := s.identity.Profile(ctx, sess.member)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			return err
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "your profile could not be loaded")
	}
	sess.profile = profile

	id, err := s.housing.CurrentApplicationID(ctx, sess.member)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			return err
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "your housing application could not be loaded")
	}

	if id == 0 {
		// No record on file: start a fresh draft with the member as sole
		// applicant and editor.
		sess.agg = models.NewDraft(profile)
		sess.canEdit = true
		sess.dirty = false
		sess.setState(models.StateNoApplication)
	} else {
		agg, err := s.housing.Application(ctx, id)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "your housing application could not be loaded")
		}
		sess.agg = agg
		sess.canEdit = equalUser(sess.agg.Editor.Username, sess.member)
		sess.dirty = false
		sess.setState(stateFor(sess.agg, sess.canEdit, false))
	}

	s.metrics.IncLoaded()
	s.audit.Emit(ctx, audit.ActionLoaded, sess.member, sess.agg.ID)
	s.log.Info("application session loaded",
		logMember(sess.member), logApplication(sess.agg.ID))
	return nil
}

// Save persists the working aggregate. An empty roster is rejected locally
// with no network call; every applicant is re-validated in parallel before
// the directory is contacted.
func (s *Service) Save(ctx context.Context, member string) (Snapshot, error) {
	sess := s.session(member)
	sess.mu.Lock()
	if err := s.ensureLoadedLocked(ctx, sess); err != nil {
		sess.mu.Unlock()
		return Snapshot{}, err
	}
	if err := s.requireEditableLocked(sess); err != nil {
		snap := sess.snapshot()
		sess.mu.Unlock()
		return snap, err
	}
	if err := sess.tryBegin("save"); err != nil {
		snap := sess.snapshot()
		sess.mu.Unlock()
		return snap, err
	}
	sess.saving.begin()
	agg := sess.agg.Clone()
	sess.mu.Unlock()

	err := s.performSave(ctx, &agg)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.endOp()
	if err != nil {
		sess.saving.finish(false)
		s.reportFailure(sess, err)
		return sess.snapshot(), err
	}
	sess.agg = agg
	sess.dirty = false
	sess.setState(stateFor(sess.agg, sess.canEdit, false))
	sess.saving.finish(true)
	s.notify(sess, models.SeverityInfo, "application saved")
	s.metrics.IncSaved()
	s.audit.Emit(ctx, audit.ActionSaved, sess.member, sess.agg.ID)
	return sess.snapshot(), nil
}

// performSave runs the validation gate and the directory round-trip without
// holding the session lock. On success agg holds the canonical record.
func (s *Service) performSave(ctx context.Context, agg *models.ApplicationDetails) error {
	if err := s.validateRoster(ctx, *agg); err != nil {
		return err
	}

	id, err := s.housing.SaveApplication(ctx, *agg)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			return err
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "saving your application failed")
	}
	if id == 0 {
		// The call "succeeded" but returned no id: distinct from a thrown
		// network error.
		return dErrors.New(dErrors.CodeUnexpectedResult,
			"the housing service did not confirm the save")
	}

	canonical, err := s.housing.Application(ctx, id)
	if err != nil {
		// The save took; adopt the id and keep the local copy.
		s.log.Warn("reload after save failed", logApplication(id), logErr(err))
		agg.ID = id
		return nil
	}
	*agg = canonical
	return nil
}

// validateRoster re-runs the eligibility rules for every applicant in
// parallel. Each applicant is checked against the aggregate as it would look
// without them, so established members don't trip the already-listed rule.
func (s *Service) validateRoster(ctx context.Context, agg models.ApplicationDetails) error {
	if len(agg.Applicants) == 0 {
		return dErrors.NewReason(dErrors.CodeValidation, validate.ReasonEmptyRoster,
			"add at least one applicant before saving")
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := range agg.Applicants {
		applicant := agg.Applicants[i]
		g.Go(func() error {
			reduced := agg.Clone()
			reduced.Applicants = append(reduced.Applicants[:i:i], reduced.Applicants[i+1:]...)
			if equalUser(reduced.Editor.Username, applicant.Username) {
				reduced.Editor = applicant.Profile
				reduced.Editor.Username = ""
			}
			return validate.ApplicantEligible(gctx, s.housing, reduced, applicant.Profile)
		})
	}
	if err := g.Wait(); err != nil {
		s.metrics.IncRejection(dErrors.ReasonOf(err))
		return err
	}
	return nil
}

// Submit runs the save gate and marks the application final. Repeated
// submits after success are a state-level no-op.
func (s *Service) Submit(ctx context.Context, member string) (Snapshot, error) {
	sess := s.session(member)
	sess.mu.Lock()
	if err := s.ensureLoadedLocked(ctx, sess); err != nil {
		sess.mu.Unlock()
		return Snapshot{}, err
	}
	if sess.agg.IsSubmitted() {
		snap := sess.snapshot()
		sess.mu.Unlock()
		return snap, nil
	}
	if err := s.requireEditableLocked(sess); err != nil {
		snap := sess.snapshot()
		sess.mu.Unlock()
		return snap, err
	}
	if !sess.agg.IsSaved() {
		err := dErrors.New(dErrors.CodeValidation, "save your application before submitting")
		s.reportFailure(sess, err)
		snap := sess.snapshot()
		sess.mu.Unlock()
		return snap, err
	}
	if err := sess.tryBegin("submit"); err != nil {
		snap := sess.snapshot()
		sess.mu.Unlock()
		return snap, err
	}
	sess.submitting.begin()
	agg := sess.agg.Clone()
	sess.mu.Unlock()

	err := s.performSubmit(ctx, &agg)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.endOp()
	if err != nil {
		sess.submitting.finish(false)
		s.reportFailure(sess, err)
		return sess.snapshot(), err
	}
	sess.agg = agg
	sess.dirty = false
	sess.setState(models.StateSubmitted)
	sess.submitting.finish(true)
	s.notify(sess, models.SeverityInfo, "application submitted")
	s.metrics.IncSubmitted()
	s.audit.Emit(ctx, audit.ActionSubmitted, sess.member, sess.agg.ID)
	return sess.snapshot(), nil
}

func (s *Service) performSubmit(ctx context.Context, agg *models.ApplicationDetails) error {
	if err := s.validateRoster(ctx, *agg); err != nil {
		return err
	}

	ok, err := s.housing.SubmitApplication(ctx, agg.ID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			return err
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "submitting your application failed")
	}
	if !ok {
		return dErrors.New(dErrors.CodeUnexpectedResult,
			"the housing service did not confirm the submission")
	}

	// Reload to pick up DateSubmitted.
	canonical, err := s.housing.Application(ctx, agg.ID)
	if err != nil {
		s.log.Warn("reload after submit failed", logApplication(agg.ID), logErr(err))
		return nil
	}
	*agg = canonical
	return nil
}

// Delete removes the application record and resets the session to the
// no-application state, as if a fresh load had found nothing.
func (s *Service) Delete(ctx context.Context, member string) (Snapshot, error) {
	sess := s.session(member)
	sess.mu.Lock()
	if err := s.ensureLoadedLocked(ctx, sess); err != nil {
		sess.mu.Unlock()
		return Snapshot{}, err
	}
	if err := sess.tryBegin("delete"); err != nil {
		snap := sess.snapshot()
		sess.mu.Unlock()
		return snap, err
	}
	sess.deleting.begin()
	id := sess.agg.ID
	sess.mu.Unlock()

	var err error
	if id > 0 {
		var ok bool
		ok, err = s.housing.DeleteApplication(ctx, id)
		if err == nil && !ok {
			err = dErrors.New(dErrors.CodeUnexpectedResult,
				"the housing service did not confirm the deletion")
		} else if err != nil && !dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			err = dErrors.Wrap(err, dErrors.CodeInternal, "deleting your application failed")
		}
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.endOp()
	if err != nil {
		sess.deleting.finish(false)
		s.reportFailure(sess, err)
		return sess.snapshot(), err
	}
	sess.setState(models.StateDeleted)
	sess.reset()
	sess.deleting.finish(true)
	s.notify(sess, models.SeverityInfo, "application deleted")
	s.metrics.IncDeleted()
	s.audit.Emit(ctx, audit.ActionDeleted, sess.member, id)
	return sess.snapshot(), nil
}

// requireEditableLocked gates mutations: the member must hold edit rights
// and the aggregate must not be submitted.
func (s *Service) requireEditableLocked(sess *session) error {
	if sess.agg.IsSubmitted() {
		return dErrors.New(dErrors.CodeUnauthorized, "a submitted application can no longer be changed")
	}
	if !sess.canEdit {
		return dErrors.New(dErrors.CodeUnauthorized, "only the application's editor may make changes")
	}
	return nil
}

// reportFailure converts an operation error into a notice. Expected absence
// and rule rejections come through as warnings; everything else is an error.
func (s *Service) reportFailure(sess *session, err error) {
	switch dErrors.CodeOf(err) {
	case dErrors.CodeNotFound, dErrors.CodeValidation:
		s.notify(sess, models.SeverityWarning, userMessage(err))
	default:
		s.notify(sess, models.SeverityError, userMessage(err))
	}
}

func userMessage(err error) string {
	var de *dErrors.Error
	if errors.As(err, &de) {
		return de.Message
	}
	return "something went wrong, please try again"
}

func stateFor(agg models.ApplicationDetails, canEdit, dirty bool) models.State {
	switch {
	case agg.IsSubmitted():
		return models.StateSubmitted
	case !canEdit:
		return models.StateReadOnly
	case !agg.IsSaved() && !dirty:
		return models.StateNoApplication
	default:
		return models.StateEditable
	}
}
