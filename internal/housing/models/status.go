package models

// State is the lifecycle state of a member's application session.
//
// Transitions:
//
//	Loading → NoApplication | Editable | ReadOnly | Submitted
//	NoApplication → Editable                    (first mutation on a fresh draft)
//	Editable | ReadOnly → Submitted             (no further edits)
//	Editable | ReadOnly | Submitted → Deleted   (explicit delete; session resets)
type State string

const (
	StateLoading       State = "loading"
	StateNoApplication State = "no_application"
	StateEditable      State = "editable"
	StateReadOnly      State = "read_only"
	StateSubmitted     State = "submitted"
	StateDeleted       State = "deleted"
)

// CanTransitionTo reports whether the lifecycle permits moving to next.
func (s State) CanTransitionTo(next State) bool {
	switch next {
	case StateNoApplication, StateEditable, StateReadOnly:
		return s == StateLoading || s == StateNoApplication || s == StateEditable || s == StateReadOnly || s == StateDeleted
	case StateSubmitted:
		return s == StateLoading || s == StateEditable || s == StateReadOnly
	case StateDeleted:
		return s == StateEditable || s == StateReadOnly || s == StateSubmitted
	case StateLoading:
		return false
	}
	return false
}

// OpStatus is the tri-state flag driving transient status iconography for
// one remote operation: idle, busy, then a success or error window that
// auto-reverts to idle.
type OpStatus string

const (
	OpIdle    OpStatus = "idle"
	OpBusy    OpStatus = "busy"
	OpSuccess OpStatus = "success"
	OpError   OpStatus = "error"
)
