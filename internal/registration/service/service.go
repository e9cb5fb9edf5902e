package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"technoreg/internal/audit"
	"technoreg/internal/registration"
	regmetrics "technoreg/internal/registration/metrics"
	"technoreg/internal/registration/models"
	"technoreg/internal/registration/store"
	dErrors "technoreg/pkg/domain-errors"
	"technoreg/pkg/platform/sentinel"
	"technoreg/pkg/requestcontext"
)

// Store is the persistence contract the service needs. Both store
// implementations satisfy it.
type Store interface {
	CreateIfRollAvailable(ctx context.Context, reg *models.Registration) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Registration, error)
	FindByRoll(ctx context.Context, roll string) (*models.Registration, error)
	List(ctx context.Context) ([]models.Registration, error)
	Execute(ctx context.Context, id uuid.UUID, validate func(*models.Registration) error, mutate func(*models.Registration)) (*models.Registration, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Watch(ctx context.Context) <-chan store.Snapshot
}

// AuditPublisher records workflow actions.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service admits, looks up, and removes registrations.
type Service struct {
	store   Store
	logger  *slog.Logger
	audit   AuditPublisher
	metrics *regmetrics.Metrics
	tracer  trace.Tracer
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.audit = publisher }
}

func WithMetrics(m *regmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New constructs a Service.
func New(st Store, opts ...Option) *Service {
	s := &Service{
		store:  st,
		tracer: otel.Tracer("technoreg/registration"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit validates and persists a public registration. The validator runs
// against the current snapshot for a precise duplicate error; the store's
// conditional create remains the authority under concurrent submissions.
func (s *Service) Submit(ctx context.Context, c registration.Candidate) (*models.Registration, error) {
	ctx, span := s.tracer.Start(ctx, "Submit")
	defer span.End()
	start := time.Now()

	existing, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load registrations")
	}

	reg, err := registration.Validate(c, existing)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeDuplicate) {
			s.incrementDuplicates()
		}
		return nil, err
	}

	now := requestcontext.Now(ctx)
	reg.ID = uuid.New()
	reg.CreatedAt = now
	reg.UpdatedAt = now

	if err := s.store.CreateIfRollAvailable(ctx, reg); err != nil {
		if errors.Is(err, sentinel.ErrDuplicate) {
			// Lost the race between the advisory scan and the write.
			s.incrementDuplicates()
			return nil, dErrors.New(dErrors.CodeDuplicate, "this roll number has already been registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create registration")
	}

	s.logAudit(ctx, audit.Event{
		Action:         audit.ActionRegistrationCreated,
		RegistrationID: reg.ID,
		RollNumber:     reg.RollNumber,
	})
	if s.metrics != nil {
		s.metrics.RegistrationsCreated.Inc()
		s.metrics.ObserveSubmit(start)
	}
	return reg, nil
}

// AdminCreate admits a registration from the admin dashboard. An admin may
// mark the fee paid at entry time (cash at the desk); such records carry
// the manual approval tag with no proof, the one allowed exception to the
// proof invariant.
func (s *Service) AdminCreate(ctx context.Context, c registration.Candidate, feePaid bool) (*models.Registration, error) {
	if !requestcontext.Level(ctx).CanWrite() {
		return nil, dErrors.New(dErrors.CodePermissionDenied, "read-only access cannot add registrations")
	}

	reg, err := s.Submit(ctx, c)
	if err != nil {
		return nil, err
	}
	if !feePaid {
		return reg, nil
	}

	now := requestcontext.Now(ctx)
	return s.store.Execute(ctx, reg.ID,
		func(r *models.Registration) error { return r.CanApprove() },
		func(r *models.Registration) { r.ApplyApproval(models.ApprovalManual, now) },
	)
}

// Lookup finds a registration by roll number for the pay-online flow.
func (s *Service) Lookup(ctx context.Context, roll string) (*models.Registration, error) {
	if roll == "" {
		return nil, dErrors.NewField("rollNumber", "roll number is required")
	}
	reg, err := s.store.FindByRoll(ctx, roll)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no registration found for this roll number")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up registration")
	}
	return reg, nil
}

// List returns the full collection, newest first.
func (s *Service) List(ctx context.Context) ([]models.Registration, error) {
	regs, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list registrations")
	}
	return regs, nil
}

// Watch exposes the store's full-snapshot subscription.
func (s *Service) Watch(ctx context.Context) <-chan store.Snapshot {
	return s.store.Watch(ctx)
}

// Delete removes one registration. Admin only.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if !requestcontext.Level(ctx).CanWrite() {
		return dErrors.New(dErrors.CodePermissionDenied, "read-only access cannot delete registrations")
	}
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "registration not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete registration")
	}
	s.logAudit(ctx, audit.Event{
		Action:         audit.ActionRegistrationDeleted,
		RegistrationID: id,
	})
	if s.metrics != nil {
		s.metrics.RegistrationsDeleted.Inc()
	}
	return nil
}

// BulkDeleteResult reports per-ID outcomes of a bulk delete. Partial
// failure is expected behavior, not an error: the caller surfaces exactly
// which records were not removed.
type BulkDeleteResult struct {
	Succeeded []uuid.UUID `json:"succeeded"`
	Failed    []uuid.UUID `json:"failed"`
}

// DeleteMany removes records as N independent deletes with no
// multi-record transaction; each outcome is reported separately.
func (s *Service) DeleteMany(ctx context.Context, ids []uuid.UUID) (BulkDeleteResult, error) {
	if !requestcontext.Level(ctx).CanWrite() {
		return BulkDeleteResult{}, dErrors.New(dErrors.CodePermissionDenied, "read-only access cannot delete registrations")
	}
	result := BulkDeleteResult{
		Succeeded: make([]uuid.UUID, 0, len(ids)),
		Failed:    make([]uuid.UUID, 0),
	}
	for _, id := range ids {
		if err := s.Delete(ctx, id); err != nil {
			result.Failed = append(result.Failed, id)
			continue
		}
		result.Succeeded = append(result.Succeeded, id)
	}
	return result, nil
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

func (s *Service) incrementDuplicates() {
	if s.metrics != nil {
		s.metrics.DuplicatesRejected.Inc()
	}
}
