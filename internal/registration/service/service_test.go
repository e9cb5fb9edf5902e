package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"technoreg/internal/audit"
	"technoreg/internal/registration"
	"technoreg/internal/registration/store"
	dErrors "technoreg/pkg/domain-errors"
	"technoreg/pkg/requestcontext"
)

func newTestService(t *testing.T) (*Service, *store.InMemory, *audit.Publisher) {
	t.Helper()
	st := store.NewInMemory()
	publisher := audit.NewPublisher(audit.NewInMemoryStore())
	svc := New(st,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithAuditPublisher(publisher),
	)
	return svc, st, publisher
}

func adminCtx() context.Context {
	return requestcontext.WithLevel(context.Background(), requestcontext.AccessLevelAdmin)
}

func candidate(roll string) registration.Candidate {
	return registration.Candidate{
		Name:         "Anita Raj",
		RollNumber:   roll,
		Department:   "BCA",
		Year:         "2nd Year",
		MobileNumber: "9876543210",
		Event1:       "Tech Quiz",
	}
}

func TestSubmitStampsIdentityAndTime(t *testing.T) {
	svc, _, _ := newTestService(t)
	now := time.Date(2025, 9, 14, 10, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), now)

	reg, err := svc.Submit(ctx, candidate("22bca001"))
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, reg.ID)
	assert.Equal(t, now, reg.CreatedAt)
	assert.Equal(t, now, reg.UpdatedAt)
	assert.Equal(t, "22BCA001", reg.RollNumber)
}

func TestSubmitEmitsAuditEvent(t *testing.T) {
	svc, _, publisher := newTestService(t)
	ctx := requestcontext.WithRequestID(context.Background(), "req-1")

	reg, err := svc.Submit(ctx, candidate("22BCA001"))
	require.NoError(t, err)

	events, err := publisher.List(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, audit.ActionRegistrationCreated, events[0].Action)
	assert.Equal(t, reg.ID, events[0].RegistrationID)
	assert.Equal(t, "req-1", events[0].RequestID)
}

func TestSubmitRejectsDuplicate(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Submit(ctx, candidate("22BCA001"))
	require.NoError(t, err)

	_, err = svc.Submit(ctx, candidate("22bca001"))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeDuplicate))
}

func TestAdminCreateRequiresWriteAccess(t *testing.T) {
	svc, st, _ := newTestService(t)
	viewer := requestcontext.WithLevel(context.Background(), requestcontext.AccessLevelViewer)

	_, err := svc.AdminCreate(viewer, candidate("22BCA001"), true)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodePermissionDenied))

	records, err := st.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestAdminCreateWithCashPayment(t *testing.T) {
	svc, _, _ := newTestService(t)

	reg, err := svc.AdminCreate(adminCtx(), candidate("22BCA001"), true)
	require.NoError(t, err)
	assert.True(t, reg.FeePaid)
	assert.Equal(t, "manual", string(reg.ApprovalMethod))
	assert.Empty(t, reg.PaymentProofRef)

	unpaid, err := svc.AdminCreate(adminCtx(), candidate("23CS014"), false)
	require.NoError(t, err)
	assert.False(t, unpaid.FeePaid)
}

func TestLookup(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Submit(ctx, candidate("22BCA001"))
	require.NoError(t, err)

	found, err := svc.Lookup(ctx, "22bca001")
	require.NoError(t, err)
	assert.Equal(t, "22BCA001", found.RollNumber)

	_, err = svc.Lookup(ctx, "99XX999")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))

	_, err = svc.Lookup(ctx, "")
	assert.Equal(t, "rollNumber", dErrors.FieldOf(err))
}

func TestDeleteRequiresWriteAccess(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	reg, err := svc.Submit(ctx, candidate("22BCA001"))
	require.NoError(t, err)

	err = svc.Delete(ctx, reg.ID)
	assert.True(t, dErrors.HasCode(err, dErrors.CodePermissionDenied))

	require.NoError(t, svc.Delete(adminCtx(), reg.ID))
	err = svc.Delete(adminCtx(), reg.ID)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestDeleteManyPartialFailure(t *testing.T) {
	svc, _, _ := newTestService(t)

	reg, err := svc.Submit(context.Background(), candidate("22BCA001"))
	require.NoError(t, err)
	ghost := uuid.New()

	result, err := svc.DeleteMany(adminCtx(), []uuid.UUID{reg.ID, ghost})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{reg.ID}, result.Succeeded)
	assert.Equal(t, []uuid.UUID{ghost}, result.Failed)
}
