package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddApplicantRequestValidate(t *testing.T) {
	req := &addApplicantRequest{Username: "  carol  "}
	require.NoError(t, req.validate())
	assert.Equal(t, "carol", req.Username)

	blank := &addApplicantRequest{Username: "   "}
	assert.Error(t, blank.validate())
}

func TestEditChoiceRequestValidate(t *testing.T) {
	assert.NoError(t, (&editChoiceRequest{Rank: 1, Name: "North"}).validate())
	assert.NoError(t, (&editChoiceRequest{Rank: 3}).validate())
	assert.Error(t, (&editChoiceRequest{Rank: 0, Name: "North"}).validate())
	assert.Error(t, (&editChoiceRequest{Rank: -2}).validate())
}

func TestEditorTransferRequestValidate(t *testing.T) {
	t.Run("offer requires a username", func(t *testing.T) {
		req := &editorTransferRequest{Action: "offer"}
		assert.Error(t, req.validate())

		req.Username = "carol"
		assert.NoError(t, req.validate())
	})

	t.Run("confirm and cancel stand alone", func(t *testing.T) {
		assert.NoError(t, (&editorTransferRequest{Action: "confirm"}).validate())
		assert.NoError(t, (&editorTransferRequest{Action: "cancel"}).validate())
	})

	t.Run("trims action and username", func(t *testing.T) {
		req := &editorTransferRequest{Action: " offer ", Username: " carol "}
		require.NoError(t, req.validate())
		assert.Equal(t, "offer", req.Action)
		assert.Equal(t, "carol", req.Username)
	})
}
