package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"technoreg/internal/registration"
	"technoreg/internal/registration/models"
	regservice "technoreg/internal/registration/service"
	dErrors "technoreg/pkg/domain-errors"
	"technoreg/pkg/platform/httputil"
	"technoreg/pkg/requestcontext"
)

// Service defines the registration operations the handler needs.
type Service interface {
	Submit(ctx context.Context, c registration.Candidate) (*models.Registration, error)
	AdminCreate(ctx context.Context, c registration.Candidate, feePaid bool) (*models.Registration, error)
	Lookup(ctx context.Context, roll string) (*models.Registration, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteMany(ctx context.Context, ids []uuid.UUID) (regservice.BulkDeleteResult, error)
}

// Handler wires registration endpoints to the registration service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a registration handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the public registration endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Post("/registrations", h.HandleSubmit)
	r.Get("/registrations/{rollNumber}", h.HandleLookup)
}

// RegisterAdmin mounts the authenticated registration endpoints.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/registrations", h.HandleAdminCreate)
	r.Delete("/registrations/{id}", h.HandleDelete)
	r.Post("/registrations/bulk-delete", h.HandleBulkDelete)
}

// HandleSubmit handles POST /api/registrations.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[CreateRegistrationRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	record, err := h.service.Submit(ctx, req.Candidate())
	if err != nil {
		h.logger.InfoContext(ctx, "registration rejected",
			"request_id", requestID,
			"roll_number", req.RollNumber,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "registration created",
		"request_id", requestID,
		"registration_id", record.ID,
		"roll_number", record.RollNumber,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusCreated, FromRegistration(record))
}

// HandleAdminCreate handles POST /api/admin/registrations. Unlike the
// public endpoint it honors the feePaid flag for walk-in cash payments.
func (h *Handler) HandleAdminCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateRegistrationRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	record, err := h.service.AdminCreate(ctx, req.Candidate(), req.FeePaid)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "registration created by admin",
		"request_id", requestID,
		"registration_id", record.ID,
		"roll_number", record.RollNumber,
		"fee_paid", record.FeePaid,
	)
	httputil.WriteJSON(w, http.StatusCreated, FromRegistration(record))
}

// HandleLookup handles GET /api/registrations/{rollNumber}.
func (h *Handler) HandleLookup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	roll := chi.URLParam(r, "rollNumber")

	record, err := h.service.Lookup(ctx, roll)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromRegistration(record))
}

// HandleDelete handles DELETE /api/admin/registrations/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid registration id"))
		return
	}

	if err := h.service.Delete(ctx, id); err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "registration deleted",
		"request_id", requestID,
		"registration_id", id,
	)
	w.WriteHeader(http.StatusNoContent)
}

// HandleBulkDelete handles POST /api/admin/registrations/bulk-delete.
// Partial failure is a 200 with per-ID outcomes, not an error.
func (h *Handler) HandleBulkDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[BulkDeleteRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.DeleteMany(ctx, req.ParsedIDs())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "bulk delete completed",
		"request_id", requestID,
		"requested", len(req.ParsedIDs()),
		"succeeded", len(result.Succeeded),
		"failed", len(result.Failed),
	)
	httputil.WriteJSON(w, http.StatusOK, FromBulkDeleteResult(result))
}
