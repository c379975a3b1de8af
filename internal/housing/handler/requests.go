package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	dErrors "resportal/pkg/domain-errors"
)

// Editor transfer actions accepted by POST /v1/application/editor.
const (
	transferOffer   = "offer"
	transferConfirm = "confirm"
	transferCancel  = "cancel"
)

type addApplicantRequest struct {
	Username string `json:"username"`
}

func (r *addApplicantRequest) validate() error {
	r.Username = strings.TrimSpace(r.Username)
	if r.Username == "" {
		return errors.New("username is required")
	}
	return nil
}

type setProgramRequest struct {
	Program string `json:"program"`
}

func (r *setProgramRequest) validate() error { return nil }

type editChoiceRequest struct {
	Rank int    `json:"rank"`
	Name string `json:"name"`
}

func (r *editChoiceRequest) validate() error {
	if r.Rank < 1 {
		return errors.New("rank must be a positive integer")
	}
	return nil
}

type editorTransferRequest struct {
	Action   string `json:"action"`
	Username string `json:"username"`
}

func (r *editorTransferRequest) validate() error {
	r.Action = strings.TrimSpace(r.Action)
	r.Username = strings.TrimSpace(r.Username)
	if r.Action == transferOffer && r.Username == "" {
		return errors.New("username is required to offer a transfer")
	}
	return nil
}

type validatable interface{ validate() error }

// decode unmarshals and validates a request body, writing the 400 itself so
// handlers can bail with a bare return.
func decode(w http.ResponseWriter, r *http.Request, req validatable) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		writeError(w, http.StatusBadRequest, "request body is not valid JSON")
		return false
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// userFacing strips internal detail from an error before rendering it.
func userFacing(err error) string {
	var de *dErrors.Error
	if errors.As(err, &de) {
		return de.Message
	}
	return "something went wrong, please try again"
}
