// Package handler exposes the housing workflow over HTTP. It renders
// snapshots and notices produced by the service layer; no business rules
// live here.
package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	dErrors "resportal/pkg/domain-errors"
	"resportal/pkg/requestcontext"

	"resportal/internal/housing/halls"
	"resportal/internal/housing/service"
	"resportal/internal/platform/metrics"
	"resportal/internal/platform/middleware"
)

// Handler serves the housing workflow routes.
type Handler struct {
	svc    *service.Service
	halls  *halls.Source
	log    *zap.Logger
	tracer trace.Tracer
}

func NewHandler(svc *service.Service, hallSource *halls.Source, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		svc:    svc,
		halls:  hallSource,
		log:    log,
		tracer: otel.Tracer("resportal/internal/housing/handler"),
	}
}

// NewRouter wires the full route tree: open health and metrics endpoints,
// and the authenticated /v1 workflow API.
func NewRouter(h *Handler, signingKey []byte, httpMetrics *metrics.HTTP) chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		if httpMetrics != nil {
			r.Use(httpMetrics.Middleware)
		}
		r.Use(middleware.RequireMember(signingKey, h.log))

		r.Get("/application", h.getApplication)
		r.Delete("/application", h.deleteApplication)
		r.Post("/application/save", h.saveApplication)
		r.Post("/application/submit", h.submitApplication)

		r.Post("/application/applicants", h.addApplicant)
		r.Delete("/application/applicants/{username}", h.removeApplicant)
		r.Put("/application/applicants/{username}/program", h.setProgram)

		r.Post("/application/choices", h.addChoice)
		r.Put("/application/choices/{index}", h.editChoice)
		r.Delete("/application/choices/{index}", h.removeChoice)

		r.Post("/application/editor", h.editorTransfer)

		r.Get("/halls", h.listHalls)
	})
	return r
}

func (h *Handler) getApplication(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "application.load")
	defer span.End()
	snap, err := h.svc.Load(ctx, requestcontext.Member(ctx))
	h.respond(w, snap, err)
}

func (h *Handler) saveApplication(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "application.save")
	defer span.End()
	snap, err := h.svc.Save(ctx, requestcontext.Member(ctx))
	h.respond(w, snap, err)
}

func (h *Handler) submitApplication(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "application.submit")
	defer span.End()
	snap, err := h.svc.Submit(ctx, requestcontext.Member(ctx))
	h.respond(w, snap, err)
}

func (h *Handler) deleteApplication(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "application.delete")
	defer span.End()
	snap, err := h.svc.Delete(ctx, requestcontext.Member(ctx))
	h.respond(w, snap, err)
}

func (h *Handler) addApplicant(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "application.add_applicant")
	defer span.End()
	var req addApplicantRequest
	if !decode(w, r, &req) {
		return
	}
	span.SetAttributes(attribute.String("applicant", req.Username))
	snap, err := h.svc.AddApplicant(ctx, requestcontext.Member(ctx), req.Username)
	h.respond(w, snap, err)
}

func (h *Handler) removeApplicant(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "application.remove_applicant")
	defer span.End()
	username := chi.URLParam(r, "username")
	snap, err := h.svc.RemoveApplicant(ctx, requestcontext.Member(ctx), username)
	h.respond(w, snap, err)
}

func (h *Handler) setProgram(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "application.set_program")
	defer span.End()
	var req setProgramRequest
	if !decode(w, r, &req) {
		return
	}
	username := chi.URLParam(r, "username")
	snap, err := h.svc.SetOffCampusProgram(ctx, requestcontext.Member(ctx), username, req.Program)
	h.respond(w, snap, err)
}

func (h *Handler) addChoice(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "application.add_choice")
	defer span.End()
	snap, err := h.svc.AddChoice(ctx, requestcontext.Member(ctx))
	h.respond(w, snap, err)
}

func (h *Handler) editChoice(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "application.edit_choice")
	defer span.End()
	index, ok := indexParam(w, r)
	if !ok {
		return
	}
	var req editChoiceRequest
	if !decode(w, r, &req) {
		return
	}
	snap, err := h.svc.EditChoice(ctx, requestcontext.Member(ctx), index, req.Rank, req.Name)
	h.respond(w, snap, err)
}

func (h *Handler) removeChoice(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "application.remove_choice")
	defer span.End()
	index, ok := indexParam(w, r)
	if !ok {
		return
	}
	snap, err := h.svc.RemoveChoice(ctx, requestcontext.Member(ctx), index)
	h.respond(w, snap, err)
}

// editorTransfer drives the offer/confirm/cancel flow from one endpoint,
// matching the single confirmation dialog the portal renders.
func (h *Handler) editorTransfer(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "application.editor_transfer")
	defer span.End()
	var req editorTransferRequest
	if !decode(w, r, &req) {
		return
	}
	member := requestcontext.Member(ctx)

	var (
		snap service.Snapshot
		err  error
	)
	switch req.Action {
	case transferOffer:
		snap, err = h.svc.OfferEditorTransfer(ctx, member, req.Username)
	case transferConfirm:
		snap, err = h.svc.ConfirmEditorTransfer(ctx, member)
	case transferCancel:
		snap, err = h.svc.CancelEditorTransfer(ctx, member)
	default:
		writeError(w, http.StatusBadRequest, "action must be offer, confirm, or cancel")
		return
	}
	h.respond(w, snap, err)
}

func (h *Handler) listHalls(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "halls.list")
	defer span.End()
	list := h.halls.Halls(ctx, requestcontext.Member(ctx))
	writeJSON(w, http.StatusOK, map[string][]string{"halls": list})
}

// respond renders a snapshot, mapping domain error codes onto status lines.
// Validation and lookup failures still include the snapshot so clients can
// render the unchanged aggregate alongside the notice.
func (h *Handler) respond(w http.ResponseWriter, snap service.Snapshot, err error) {
	if err == nil {
		writeJSON(w, http.StatusOK, snap)
		return
	}

	status := statusFor(err)
	if snap.State == "" {
		// Load failed before any state existed: page-level error.
		writeError(w, status, userFacing(err))
		return
	}
	writeJSON(w, status, errorResponse{
		Error:    userFacing(err),
		Snapshot: &snap,
	})
}

func statusFor(err error) int {
	switch dErrors.CodeOf(err) {
	case dErrors.CodeValidation:
		return http.StatusUnprocessableEntity
	case dErrors.CodeUnauthorized:
		return http.StatusForbidden
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeConflict:
		return http.StatusConflict
	case dErrors.CodeUnexpectedResult:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

type errorResponse struct {
	Error    string            `json:"error"`
	Snapshot *service.Snapshot `json:"snapshot,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func indexParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index < 0 {
		writeError(w, http.StatusBadRequest, "choice index must be a non-negative integer")
		return 0, false
	}
	return index, true
}
