package service

import (
	"sync"
	"time"

	dErrors "resportal/pkg/domain-errors"

	"resportal/internal/housing/editor"
	"resportal/internal/housing/models"
)

// maxNotices bounds the per-session notice feed; the transport drains it on
// every snapshot, so the bound only matters for abandoned sessions.
const maxNotices = 16

// session is one member's workflow state. The aggregate inside it is only
// ever replaced wholesale with values produced by the managers, never
// mutated in place.
type session struct {
	mu sync.Mutex

	member  string
	profile models.Profile
	state   models.State
	agg     models.ApplicationDetails
	canEdit bool
	dirty   bool

	// inFlight names the remote operation currently running, "" when none.
	// Save, submit, and delete release mu around their directory calls, so
	// this guard is what prevents duplicate concurrent submissions.
	inFlight string

	saving     *opFlag
	submitting *opFlag
	deleting   *opFlag

	transfer *editor.Flow

	notices []models.Notice
}

func newSession(member string, window time.Duration) *session {
	return &session{
		member:     member,
		state:      models.StateLoading,
		saving:     newOpFlag(window),
		submitting: newOpFlag(window),
		deleting:   newOpFlag(window),
		transfer:   editor.NewFlow(),
	}
}

// setState moves the session to next when the lifecycle permits it.
// Re-deriving the current state is a no-op; an illegal transition keeps the
// state it has. Callers must hold mu.
func (sess *session) setState(next models.State) {
	if next == sess.state || sess.state.CanTransitionTo(next) {
		sess.state = next
	}
}

// requireQuiescent rejects work while a remote operation is in flight. It
// gates local edits too: save and submit replace the aggregate with the
// directory's canonical copy when they complete, which would silently drop
// an edit made in the gap. Callers must hold mu.
func (sess *session) requireQuiescent() error {
	if sess.inFlight != "" {
		return dErrors.New(dErrors.CodeConflict,
			"another operation is still in progress, try again in a moment")
	}
	return nil
}

// tryBegin claims the in-flight slot for op. Callers must hold mu.
func (sess *session) tryBegin(op string) error {
	if err := sess.requireQuiescent(); err != nil {
		return err
	}
	sess.inFlight = op
	return nil
}

// endOp releases the in-flight slot. Callers must hold mu.
func (sess *session) endOp() { sess.inFlight = "" }

func (sess *session) pushNotice(n models.Notice) {
	sess.notices = append(sess.notices, n)
	if len(sess.notices) > maxNotices {
		sess.notices = sess.notices[len(sess.notices)-maxNotices:]
	}
}

// drainNotices returns and clears the pending notices. Callers must hold mu.
func (sess *session) drainNotices() []models.Notice {
	out := sess.notices
	sess.notices = nil
	return out
}

// reset returns the session to the no-application state with a fresh draft,
// equivalent to a load that found nothing on file. Callers must hold mu.
func (sess *session) reset() {
	sess.agg = models.NewDraft(sess.profile)
	sess.canEdit = true
	sess.dirty = false
	sess.setState(models.StateNoApplication)
	sess.transfer = editor.NewFlow()
}

// Snapshot is the read-only view handed to the transport layer.
type Snapshot struct {
	State       models.State              `json:"state"`
	Application models.ApplicationDetails `json:"application"`
	CanEdit     bool                      `json:"can_edit"`
	Dirty       bool                      `json:"dirty"`
	Saving      models.OpStatus           `json:"saving"`
	Submitting  models.OpStatus           `json:"submitting"`
	Deleting    models.OpStatus           `json:"deleting"`
	Transfer    editor.Phase              `json:"editor_transfer"`
	Notices     []models.Notice           `json:"notices,omitempty"`
}

// snapshot captures the session state and drains notices. Callers must hold
// mu.
func (sess *session) snapshot() Snapshot {
	return Snapshot{
		State:       sess.state,
		Application: sess.agg.Clone(),
		CanEdit:     sess.canEdit,
		Dirty:       sess.dirty,
		Saving:      sess.saving.Status(),
		Submitting:  sess.submitting.Status(),
		Deleting:    sess.deleting.Status(),
		Transfer:    sess.transfer.Phase(),
		Notices:     sess.drainNotices(),
	}
}
