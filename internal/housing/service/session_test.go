package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"resportal/internal/housing/models"
)

// TestSessionStateGuard pins setState to the lifecycle transition table:
// legal moves take effect, illegal ones keep the state the session has.
func TestSessionStateGuard(t *testing.T) {
	sess := newSession("alice", testWindow)
	assert.Equal(t, models.StateLoading, sess.state)

	// Nothing was loaded, so there is nothing to delete yet.
	sess.setState(models.StateDeleted)
	assert.Equal(t, models.StateLoading, sess.state)

	sess.setState(models.StateEditable)
	assert.Equal(t, models.StateEditable, sess.state)

	// Loading never re-enters.
	sess.setState(models.StateLoading)
	assert.Equal(t, models.StateEditable, sess.state)

	// Re-deriving the current state is fine.
	sess.setState(models.StateEditable)
	assert.Equal(t, models.StateEditable, sess.state)

	sess.setState(models.StateSubmitted)
	assert.Equal(t, models.StateSubmitted, sess.state)

	// A submitted application cannot reopen for edits.
	sess.setState(models.StateEditable)
	assert.Equal(t, models.StateSubmitted, sess.state)

	// Deletion is the one way out, and reset lands on a fresh draft.
	sess.setState(models.StateDeleted)
	assert.Equal(t, models.StateDeleted, sess.state)
	sess.reset()
	assert.Equal(t, models.StateNoApplication, sess.state)
}
