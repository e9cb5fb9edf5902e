// Package service implements the payment lifecycle: proof submission,
// approval, and rejection.
//
// States: Unpaid -> ProofSubmitted -> Approved; ProofSubmitted ->
// Rejected -> back to review. An admin may also approve directly with no
// proof (cash at the desk); such approvals are tagged manual. Approve and
// reject are idempotent single-field updates, so no partial-failure window
// exists.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"technoreg/internal/audit"
	"technoreg/internal/payment/blob"
	paymetrics "technoreg/internal/payment/metrics"
	"technoreg/internal/registration/models"
	dErrors "technoreg/pkg/domain-errors"
	"technoreg/pkg/platform/sentinel"
	"technoreg/pkg/requestcontext"
)

// MaxProofSize bounds uploaded proof images.
const MaxProofSize = 5 << 20

// allowedProofTypes is the MIME allowlist for proof uploads.
var allowedProofTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/jpg":  "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

// RecordStore is the slice of the registration store the payment
// lifecycle needs.
type RecordStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Registration, error)
	Execute(ctx context.Context, id uuid.UUID, validate func(*models.Registration) error, mutate func(*models.Registration)) (*models.Registration, error)
}

// AuditPublisher records payment actions.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service governs a registration's fee status and proof of payment.
type Service struct {
	records RecordStore
	blobs   blob.Store
	logger  *slog.Logger
	audit   AuditPublisher
	metrics *paymetrics.Metrics
	tracer  trace.Tracer
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.audit = publisher }
}

func WithMetrics(m *paymetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New constructs a Service.
func New(records RecordStore, blobs blob.Store, opts ...Option) *Service {
	s := &Service{
		records: records,
		blobs:   blobs,
		tracer:  otel.Tracer("technoreg/payment"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Upload describes an incoming proof image.
type Upload struct {
	ContentType string
	Size        int64
	Content     io.Reader
	Progress    blob.ProgressFunc
}

// SubmitProof validates the upload, stores the blob, and stamps the
// registration's proof reference. Either the reference is durably set or
// the registration stays exactly as it was: a blob-store failure commits
// nothing, and a record update failure leaves only an orphaned blob,
// which is logged, never hidden.
func (s *Service) SubmitProof(ctx context.Context, id uuid.UUID, up Upload) (*models.Registration, error) {
	ctx, span := s.tracer.Start(ctx, "SubmitProof")
	defer span.End()
	start := time.Now()

	ext, ok := allowedProofTypes[up.ContentType]
	if !ok {
		s.incrementRejectedUpload()
		return nil, dErrors.New(dErrors.CodeUnsupportedFileType, "please upload a JPG, PNG, or WEBP image")
	}
	if up.Size <= 0 {
		s.incrementRejectedUpload()
		return nil, dErrors.New(dErrors.CodeValidation, "uploaded file is empty")
	}
	if up.Size > MaxProofSize {
		s.incrementRejectedUpload()
		return nil, dErrors.Newf(dErrors.CodeFileTooLarge, "file is too large, max size is %dMB", MaxProofSize/1024/1024)
	}

	reg, err := s.records.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "registration not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load registration")
	}

	key := fmt.Sprintf("payment_screenshots/%s_%d.%s", reg.RollNumber, start.UnixNano(), ext)
	ref, err := s.blobs.Put(ctx, key, up.ContentType, up.Size, io.LimitReader(up.Content, MaxProofSize), up.Progress)
	if err != nil {
		// Nothing durable exists under the key; safe to retry.
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "could not store your screenshot, please try again")
	}

	now := requestcontext.Now(ctx)
	updated, err := s.records.Execute(ctx, id,
		func(r *models.Registration) error { return nil },
		func(r *models.Registration) { _ = r.AttachProof(ref, now) },
	)
	if err != nil {
		// The blob landed but no record references it: an orphan, the
		// one accepted loss. Log it so operators can sweep.
		s.logOrphan(ctx, id, ref)
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "registration was deleted before the proof could be attached")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to attach proof")
	}

	s.logAudit(ctx, audit.Event{
		Action:         audit.ActionProofSubmitted,
		RegistrationID: updated.ID,
		RollNumber:     updated.RollNumber,
	})
	if s.metrics != nil {
		s.metrics.ProofsSubmitted.Inc()
		s.metrics.ObserveUpload(start)
	}
	return updated, nil
}

// Approve marks the fee paid. Idempotent: approving an approved record is
// a no-op returning the same state. Requires admin write access.
func (s *Service) Approve(ctx context.Context, id uuid.UUID) (*models.Registration, error) {
	if err := s.requireWrite(ctx); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	var alreadyPaid bool
	updated, err := s.records.Execute(ctx, id,
		func(r *models.Registration) error {
			alreadyPaid = r.FeePaid
			return r.CanApprove()
		},
		func(r *models.Registration) {
			method := models.ApprovalManual
			if r.PaymentProofRef != "" {
				method = models.ApprovalProofReviewed
			}
			r.ApplyApproval(method, now)
		},
	)
	if err != nil {
		return nil, s.wrapRecordErr(err)
	}
	if alreadyPaid {
		return updated, nil
	}

	s.logAudit(ctx, audit.Event{
		Action:         audit.ActionFeeApproved,
		RegistrationID: updated.ID,
		RollNumber:     updated.RollNumber,
		Detail:         string(updated.ApprovalMethod),
	})
	if s.metrics != nil {
		s.metrics.FeesApproved.Inc()
	}
	return updated, nil
}

// Reject reverts the fee to unpaid, keeping any uploaded proof for audit.
// Idempotent: rejecting an unpaid record is a no-op. Requires admin write
// access.
func (s *Service) Reject(ctx context.Context, id uuid.UUID) (*models.Registration, error) {
	if err := s.requireWrite(ctx); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	var wasPaid bool
	updated, err := s.records.Execute(ctx, id,
		func(r *models.Registration) error {
			wasPaid = r.FeePaid
			return r.CanReject()
		},
		func(r *models.Registration) { r.ApplyRejection(now) },
	)
	if err != nil {
		return nil, s.wrapRecordErr(err)
	}
	if !wasPaid {
		return updated, nil
	}

	s.logAudit(ctx, audit.Event{
		Action:         audit.ActionFeeRejected,
		RegistrationID: updated.ID,
		RollNumber:     updated.RollNumber,
	})
	if s.metrics != nil {
		s.metrics.FeesReverted.Inc()
	}
	return updated, nil
}

// SetFeeStatus dispatches to Approve or Reject; it exists so transport
// code can expose the original single toggle endpoint.
func (s *Service) SetFeeStatus(ctx context.Context, id uuid.UUID, paid bool) (*models.Registration, error) {
	if paid {
		return s.Approve(ctx, id)
	}
	return s.Reject(ctx, id)
}

// OpenProof streams a stored proof image for admin review. The content
// type is recovered from the stored key's extension.
func (s *Service) OpenProof(ctx context.Context, id uuid.UUID) (io.ReadCloser, string, error) {
	reg, err := s.records.FindByID(ctx, id)
	if err != nil {
		return nil, "", s.wrapRecordErr(err)
	}
	if reg.PaymentProofRef == "" {
		return nil, "", dErrors.New(dErrors.CodeNotFound, "no proof uploaded for this registration")
	}
	rc, err := s.blobs.Open(ctx, reg.PaymentProofRef)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, "", dErrors.New(dErrors.CodeNotFound, "proof image not found")
		}
		return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to open proof")
	}
	return rc, contentTypeForRef(reg.PaymentProofRef), nil
}

func contentTypeForRef(ref string) string {
	switch {
	case strings.HasSuffix(ref, ".png"):
		return "image/png"
	case strings.HasSuffix(ref, ".webp"):
		return "image/webp"
	default:
		return "image/jpeg"
	}
}

func (s *Service) incrementRejectedUpload() {
	if s.metrics != nil {
		s.metrics.ProofsRejectedAt.Inc()
	}
}

func (s *Service) requireWrite(ctx context.Context) error {
	if !requestcontext.Level(ctx).CanWrite() {
		return dErrors.New(dErrors.CodePermissionDenied, "read-only access cannot modify payments")
	}
	return nil
}

func (s *Service) wrapRecordErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "registration not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "registration store failure")
}

func (s *Service) logOrphan(ctx context.Context, id uuid.UUID, ref string) {
	if s.logger != nil {
		s.logger.WarnContext(ctx, "orphaned proof blob",
			"request_id", requestcontext.RequestID(ctx),
			"registration_id", id,
			"blob_ref", ref,
		)
	}
	if s.audit != nil {
		_ = s.audit.Emit(ctx, audit.Event{
			Action:         audit.ActionProofAbandoned,
			RegistrationID: id,
			Detail:         ref,
			RequestID:      requestcontext.RequestID(ctx),
		})
	}
}

func (s *Service) logAudit(ctx context.Context, event audit.Event) {
	event.Actor = requestcontext.Level(ctx)
	event.RequestID = requestcontext.RequestID(ctx)
	event.ClientIP = requestcontext.ClientIP(ctx)
	event.Device = requestcontext.Device(ctx)
	if s.logger != nil {
		s.logger.InfoContext(ctx, string(event.Action),
			"request_id", event.RequestID,
			"registration_id", event.RegistrationID,
			"roll_number", event.RollNumber,
			"log_type", "audit",
		)
	}
	if s.audit != nil {
		_ = s.audit.Emit(ctx, event)
	}
}
