package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resportal/internal/housing/audit"
	"resportal/internal/housing/halls"
	"resportal/internal/housing/models"
	"resportal/internal/housing/service"
	"resportal/internal/housing/store/memory"
	"resportal/internal/platform/logger"
)

var testSigningKey = []byte("test-signing-key")

func student(username, gender string) models.Profile {
	return models.Profile{
		Username:   username,
		FirstName:  username,
		Gender:     gender,
		PersonType: models.PersonTypeStudent,
	}
}

func newTestRouter(t *testing.T) chi.Router {
	t.Helper()
	log := logger.NewTest(t)
	identity := memory.NewIdentityStore(
		student("alice", "F"),
		student("carol", "F"),
		student("bob", "M"),
	)
	store := memory.NewStore([]string{"North", "South"})
	svc := service.NewService(identity, store, service.WithLogger(log))
	hallSource := halls.NewSource(store, nil, nil, time.Minute, log)
	return NewRouter(NewHandler(svc, hallSource, log), testSigningKey, nil)
}

func bearerToken(t *testing.T, member string, key []byte) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   member,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

func doRequest(t *testing.T, router chi.Router, method, target, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

type snapshotResponse struct {
	Error    string            `json:"error"`
	Snapshot *service.Snapshot `json:"snapshot"`
}

func decodeSnapshot(t *testing.T, rec *httptest.ResponseRecorder) service.Snapshot {
	t.Helper()
	var snap service.Snapshot
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&snap))
	return snap
}

func TestAuthentication(t *testing.T) {
	router := newTestRouter(t)

	t.Run("health endpoint is open", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/healthz", "", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing token", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/v1/application", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("token signed with the wrong key", func(t *testing.T) {
		forged := bearerToken(t, "alice", []byte("other-key"))
		rec := doRequest(t, router, http.MethodGet, "/v1/application", forged, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		token := bearerToken(t, "alice", testSigningKey)
		rec := doRequest(t, router, http.MethodGet, "/v1/application", token, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

// TestApplicationFlow walks the happy path over HTTP: load, build the
// roster and choices, save, submit.
func TestApplicationFlow(t *testing.T) {
	router := newTestRouter(t)
	token := bearerToken(t, "alice", testSigningKey)

	rec := doRequest(t, router, http.MethodGet, "/v1/application", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	snap := decodeSnapshot(t, rec)
	assert.Equal(t, models.StateNoApplication, snap.State)
	assert.True(t, snap.CanEdit)

	rec = doRequest(t, router, http.MethodPost, "/v1/application/applicants", token,
		map[string]string{"username": "carol"})
	require.Equal(t, http.StatusOK, rec.Code)
	snap = decodeSnapshot(t, rec)
	assert.Len(t, snap.Application.Applicants, 2)
	assert.True(t, snap.Dirty)

	rec = doRequest(t, router, http.MethodPost, "/v1/application/choices", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, router, http.MethodPut, "/v1/application/choices/0", token,
		map[string]any{"rank": 1, "name": "North"})
	require.Equal(t, http.StatusOK, rec.Code)
	snap = decodeSnapshot(t, rec)
	require.Len(t, snap.Application.Choices, 1)
	assert.Equal(t, "North", snap.Application.Choices[0].Name)

	rec = doRequest(t, router, http.MethodPost, "/v1/application/save", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	snap = decodeSnapshot(t, rec)
	assert.True(t, snap.Application.IsSaved())
	assert.False(t, snap.Dirty)

	rec = doRequest(t, router, http.MethodPost, "/v1/application/submit", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	snap = decodeSnapshot(t, rec)
	assert.Equal(t, models.StateSubmitted, snap.State)
}

// TestErrorMapping verifies domain error codes surface as the right HTTP
// status lines, with the snapshot attached where local state survives.
func TestErrorMapping(t *testing.T) {
	router := newTestRouter(t)
	token := bearerToken(t, "alice", testSigningKey)

	rec := doRequest(t, router, http.MethodGet, "/v1/application", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	t.Run("validation rejection is 422 with snapshot", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPost, "/v1/application/applicants", token,
			map[string]string{"username": "bob"})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

		var resp snapshotResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.NotEmpty(t, resp.Error)
		require.NotNil(t, resp.Snapshot)
		assert.Len(t, resp.Snapshot.Application.Applicants, 1)
	})

	t.Run("unknown applicant is 404", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPost, "/v1/application/applicants", token,
			map[string]string{"username": "ghost"})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("submit before save is 422", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPost, "/v1/application/submit", token, nil)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("unknown session member is a page-level 500", func(t *testing.T) {
		ghost := bearerToken(t, "ghost", testSigningKey)
		rec := doRequest(t, router, http.MethodGet, "/v1/application", ghost, nil)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)

		var resp snapshotResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.NotEmpty(t, resp.Error)
		assert.Nil(t, resp.Snapshot)
	})
}

func TestBadRequests(t *testing.T) {
	router := newTestRouter(t)
	token := bearerToken(t, "alice", testSigningKey)

	t.Run("malformed JSON body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/application/applicants",
			bytes.NewBufferString("{not json"))
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("blank username", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPost, "/v1/application/applicants", token,
			map[string]string{"username": "   "})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("non-numeric choice index", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodDelete, "/v1/application/choices/abc", token, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown editor transfer action", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPost, "/v1/application/editor", token,
			map[string]string{"action": "maybe"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestEditorTransferOverHTTP(t *testing.T) {
	router := newTestRouter(t)
	token := bearerToken(t, "alice", testSigningKey)

	doRequest(t, router, http.MethodGet, "/v1/application", token, nil)
	rec := doRequest(t, router, http.MethodPost, "/v1/application/applicants", token,
		map[string]string{"username": "carol"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doRequest(t, router, http.MethodPost, "/v1/application/save", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, router, http.MethodPost, "/v1/application/editor", token,
		map[string]string{"action": "offer", "username": "carol"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, router, http.MethodPost, "/v1/application/editor", token,
		map[string]string{"action": "confirm"})
	require.Equal(t, http.StatusOK, rec.Code)
	snap := decodeSnapshot(t, rec)
	assert.False(t, snap.CanEdit)
	assert.Equal(t, "carol", snap.Application.Editor.Username)

	// The former editor is locked out of further changes.
	rec = doRequest(t, router, http.MethodPost, "/v1/application/save", token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestListHalls(t *testing.T) {
	router := newTestRouter(t)
	token := bearerToken(t, "alice", testSigningKey)

	rec := doRequest(t, router, http.MethodGet, "/v1/halls", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string][]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, []string{"North", "South"}, resp["halls"])
}

// TestAuditRequestID verifies the id assigned at the HTTP layer travels
// through the context into published audit events.
func TestAuditRequestID(t *testing.T) {
	log := logger.NewTest(t)
	identity := memory.NewIdentityStore(student("alice", "F"))
	store := memory.NewStore([]string{"North"})
	pub := audit.NewMemoryPublisher()
	svc := service.NewService(identity, store,
		service.WithLogger(log),
		service.WithAudit(audit.NewEmitter(pub, log)))
	hallSource := halls.NewSource(store, nil, nil, time.Minute, log)
	router := NewRouter(NewHandler(svc, hallSource, log), testSigningKey, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/application", nil)
	req.Header.Set("Authorization", "Bearer "+bearerToken(t, "alice", testSigningKey))
	req.Header.Set("X-Request-Id", "req-abc-123")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	events := pub.Events()
	require.Len(t, events, 1)
	assert.Equal(t, audit.ActionLoaded, events[0].Action)
	assert.Equal(t, "req-abc-123", events[0].RequestID)
}
