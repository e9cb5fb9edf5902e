// Package handler exposes the payment lifecycle over HTTP: public proof
// upload, admin fee toggling, and admin proof review.
package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"technoreg/internal/payment/service"
	reghandler "technoreg/internal/registration/handler"
	"technoreg/internal/registration/models"
	dErrors "technoreg/pkg/domain-errors"
	"technoreg/pkg/platform/httputil"
	"technoreg/pkg/requestcontext"
)

// proofFormField is the multipart field carrying the screenshot.
const proofFormField = "screenshot"

// Service defines the payment operations the handler needs.
type Service interface {
	SubmitProof(ctx context.Context, id uuid.UUID, up service.Upload) (*models.Registration, error)
	SetFeeStatus(ctx context.Context, id uuid.UUID, paid bool) (*models.Registration, error)
	OpenProof(ctx context.Context, id uuid.UUID) (io.ReadCloser, string, error)
}

// Handler wires payment endpoints to the payment service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a payment handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the public payment endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Post("/registrations/{id}/payment-proof", h.HandleSubmitProof)
}

// RegisterAdmin mounts the authenticated payment endpoints.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Patch("/registrations/{id}/fee", h.HandleSetFeeStatus)
	r.Get("/registrations/{id}/payment-proof", h.HandleViewProof)
}

// HandleSubmitProof handles POST /api/registrations/{id}/payment-proof.
// The body is multipart form data with the image under the "screenshot"
// field.
func (h *Handler) HandleSubmitProof(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid registration id"))
		return
	}

	// Bound the whole form a little above the proof limit so an
	// oversized upload fails with the friendly size error rather than a
	// socket reset mid-stream.
	r.Body = http.MaxBytesReader(w, r.Body, service.MaxProofSize+1<<20)
	file, header, err := r.FormFile(proofFormField)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "screenshot file is required"))
		return
	}
	defer file.Close()

	record, err := h.service.SubmitProof(ctx, id, service.Upload{
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Content:     file,
	})
	if err != nil {
		h.logger.InfoContext(ctx, "proof upload rejected",
			"request_id", requestID,
			"registration_id", id,
			"size", header.Size,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "payment proof submitted",
		"request_id", requestID,
		"registration_id", record.ID,
		"roll_number", record.RollNumber,
		"size", header.Size,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, reghandler.FromRegistration(record))
}

// FeeStatusRequest is the HTTP request body for PATCH /registrations/{id}/fee.
type FeeStatusRequest struct {
	FeePaid *bool `json:"feePaid"`
}

// Validate implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *FeeStatusRequest) Validate() error {
	if r == nil || r.FeePaid == nil {
		return dErrors.NewField("feePaid", "feePaid is required")
	}
	return nil
}

// HandleSetFeeStatus handles PATCH /api/admin/registrations/{id}/fee.
func (h *Handler) HandleSetFeeStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid registration id"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[FeeStatusRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	record, err := h.service.SetFeeStatus(ctx, id, *req.FeePaid)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "fee status updated",
		"request_id", requestID,
		"registration_id", record.ID,
		"roll_number", record.RollNumber,
		"fee_paid", record.FeePaid,
	)
	httputil.WriteJSON(w, http.StatusOK, reghandler.FromRegistration(record))
}

// HandleViewProof handles GET /api/admin/registrations/{id}/payment-proof,
// streaming the stored image.
func (h *Handler) HandleViewProof(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid registration id"))
		return
	}

	rc, contentType, err := h.service.OpenProof(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "private, no-store")
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.WarnContext(ctx, "proof stream interrupted",
			"registration_id", id,
			"error", err,
		)
	}
}
