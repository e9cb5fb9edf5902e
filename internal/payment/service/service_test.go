package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks RecordStore,AuditPublisher

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"technoreg/internal/payment/blob"
	paymetrics "technoreg/internal/payment/metrics"
	"technoreg/internal/payment/service/mocks"
	"technoreg/internal/registration/models"
	"technoreg/internal/registration/store"
	dErrors "technoreg/pkg/domain-errors"
	"technoreg/pkg/requestcontext"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func adminCtx() context.Context {
	return requestcontext.WithLevel(context.Background(), requestcontext.AccessLevelAdmin)
}

func viewerCtx() context.Context {
	return requestcontext.WithLevel(context.Background(), requestcontext.AccessLevelViewer)
}

func seedRecord(t *testing.T, st *store.InMemory) *models.Registration {
	t.Helper()
	now := time.Now().UTC()
	reg := &models.Registration{
		ID:           uuid.New(),
		Name:         "Anita Raj",
		RollNumber:   "22BCA001",
		Department:   models.DeptBCA,
		Year:         models.Year2,
		MobileNumber: "9876543210",
		Event1:       models.EventTechQuiz,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, st.CreateIfRollAvailable(context.Background(), reg))
	return reg
}

func newService(t *testing.T) (*Service, *store.InMemory, *models.Registration) {
	t.Helper()
	st := store.NewInMemory()
	reg := seedRecord(t, st)
	blobs, err := blob.NewFilesystem(t.TempDir())
	require.NoError(t, err)
	return New(st, blobs, WithLogger(discardLogger())), st, reg
}

func jpegUpload(payload string) Upload {
	return Upload{
		ContentType: "image/jpeg",
		Size:        int64(len(payload)),
		Content:     strings.NewReader(payload),
	}
}

func TestSubmitProofHappyPath(t *testing.T) {
	svc, _, reg := newService(t)

	updated, err := svc.SubmitProof(context.Background(), reg.ID, jpegUpload("screenshot"))
	require.NoError(t, err)
	assert.NotEmpty(t, updated.PaymentProofRef)
	assert.True(t, strings.HasPrefix(updated.PaymentProofRef, "payment_screenshots/22BCA001_"))
	assert.True(t, strings.HasSuffix(updated.PaymentProofRef, ".jpg"))
	assert.Equal(t, models.PaymentProofSubmitted, updated.PaymentState())
	assert.False(t, updated.FeePaid, "upload never flips the fee flag")
}

func TestSubmitProofResubmissionReplacesReference(t *testing.T) {
	svc, _, reg := newService(t)
	ctx := context.Background()

	first, err := svc.SubmitProof(ctx, reg.ID, jpegUpload("first"))
	require.NoError(t, err)
	second, err := svc.SubmitProof(ctx, reg.ID, jpegUpload("second"))
	require.NoError(t, err)
	assert.NotEqual(t, first.PaymentProofRef, second.PaymentProofRef)
}

func TestSubmitProofRejectsBadUploads(t *testing.T) {
	svc, _, reg := newService(t)
	ctx := context.Background()

	_, err := svc.SubmitProof(ctx, reg.ID, Upload{
		ContentType: "application/pdf",
		Size:        100,
		Content:     strings.NewReader("%PDF"),
	})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnsupportedFileType))

	_, err = svc.SubmitProof(ctx, reg.ID, Upload{
		ContentType: "image/png",
		Size:        MaxProofSize + 1,
		Content:     bytes.NewReader(nil),
	})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeFileTooLarge))

	_, err = svc.SubmitProof(ctx, reg.ID, Upload{
		ContentType: "image/png",
		Size:        0,
		Content:     bytes.NewReader(nil),
	})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation), "empty upload is a validation error, not too-large")

	_, err = svc.SubmitProof(ctx, uuid.New(), jpegUpload("x"))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestSubmitProofCountsRejectedUploads(t *testing.T) {
	st := store.NewInMemory()
	reg := seedRecord(t, st)
	blobs, err := blob.NewFilesystem(t.TempDir())
	require.NoError(t, err)
	m := paymetrics.New()
	svc := New(st, blobs, WithLogger(discardLogger()), WithMetrics(m))
	ctx := context.Background()

	_, err = svc.SubmitProof(ctx, reg.ID, Upload{
		ContentType: "image/gif",
		Size:        10,
		Content:     strings.NewReader("GIF89a"),
	})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnsupportedFileType))

	_, err = svc.SubmitProof(ctx, reg.ID, Upload{
		ContentType: "image/png",
		Size:        0,
		Content:     bytes.NewReader(nil),
	})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	assert.InDelta(t, 2, promtestutil.ToFloat64(m.ProofsRejectedAt), 0)
}

type failingBlobStore struct{}

func (failingBlobStore) Put(context.Context, string, string, int64, io.Reader, blob.ProgressFunc) (string, error) {
	return "", errors.New("disk full")
}

func (failingBlobStore) Open(context.Context, string) (io.ReadCloser, error) {
	return nil, errors.New("disk full")
}

func TestSubmitProofBlobFailureLeavesRecordUntouched(t *testing.T) {
	st := store.NewInMemory()
	reg := seedRecord(t, st)
	svc := New(st, failingBlobStore{}, WithLogger(discardLogger()))

	_, err := svc.SubmitProof(context.Background(), reg.ID, jpegUpload("x"))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))

	stored, err := st.FindByID(context.Background(), reg.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.PaymentProofRef)
}

func TestSubmitProofOrphanOnRecordFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	records := mocks.NewMockRecordStore(ctrl)
	auditPub := mocks.NewMockAuditPublisher(ctrl)

	blobs, err := blob.NewFilesystem(t.TempDir())
	require.NoError(t, err)
	svc := New(records, blobs, WithLogger(discardLogger()), WithAuditPublisher(auditPub))

	reg := &models.Registration{ID: uuid.New(), RollNumber: "22BCA001"}
	records.EXPECT().FindByID(gomock.Any(), reg.ID).Return(reg, nil)
	records.EXPECT().Execute(gomock.Any(), reg.ID, gomock.Any(), gomock.Any()).
		Return(nil, errors.New("connection reset"))
	// The orphaned blob must surface in the audit trail.
	auditPub.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)

	_, err = svc.SubmitProof(context.Background(), reg.ID, jpegUpload("x"))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
}

func TestApproveIsIdempotent(t *testing.T) {
	svc, st, reg := newService(t)
	ctx := adminCtx()

	first, err := svc.Approve(ctx, reg.ID)
	require.NoError(t, err)
	assert.True(t, first.FeePaid)
	assert.Equal(t, models.ApprovalManual, first.ApprovalMethod)

	second, err := svc.Approve(ctx, reg.ID)
	require.NoError(t, err)
	assert.True(t, second.FeePaid)
	assert.Equal(t, first.ApprovalMethod, second.ApprovalMethod)

	stored, err := st.FindByID(context.Background(), reg.ID)
	require.NoError(t, err)
	assert.True(t, stored.FeePaid)
}

func TestApproveAfterProofTaggedProofReviewed(t *testing.T) {
	svc, _, reg := newService(t)

	_, err := svc.SubmitProof(context.Background(), reg.ID, jpegUpload("x"))
	require.NoError(t, err)

	approved, err := svc.Approve(adminCtx(), reg.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalProofReviewed, approved.ApprovalMethod)
	assert.Equal(t, models.PaymentApproved, approved.PaymentState())
}

func TestRejectKeepsProofForReReview(t *testing.T) {
	svc, _, reg := newService(t)
	ctx := adminCtx()

	_, err := svc.SubmitProof(context.Background(), reg.ID, jpegUpload("x"))
	require.NoError(t, err)
	_, err = svc.Approve(ctx, reg.ID)
	require.NoError(t, err)

	rejected, err := svc.Reject(ctx, reg.ID)
	require.NoError(t, err)
	assert.False(t, rejected.FeePaid)
	assert.NotEmpty(t, rejected.PaymentProofRef, "proof survives rejection")
	assert.Equal(t, models.PaymentProofSubmitted, rejected.PaymentState())
	assert.Empty(t, rejected.ApprovalMethod)
}

func TestViewerCannotMutatePayments(t *testing.T) {
	svc, st, reg := newService(t)

	_, err := svc.Approve(viewerCtx(), reg.ID)
	assert.True(t, dErrors.HasCode(err, dErrors.CodePermissionDenied))

	_, err = svc.Reject(viewerCtx(), reg.ID)
	assert.True(t, dErrors.HasCode(err, dErrors.CodePermissionDenied))

	// No access level at all is equally read-only.
	_, err = svc.SetFeeStatus(context.Background(), reg.ID, true)
	assert.True(t, dErrors.HasCode(err, dErrors.CodePermissionDenied))

	stored, err := st.FindByID(context.Background(), reg.ID)
	require.NoError(t, err)
	assert.False(t, stored.FeePaid, "denied calls never change stored state")
}

func TestOpenProofRoundTrip(t *testing.T) {
	svc, _, reg := newService(t)
	ctx := context.Background()

	_, _, err := svc.OpenProof(ctx, reg.ID)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))

	_, err = svc.SubmitProof(ctx, reg.ID, Upload{
		ContentType: "image/webp",
		Size:        4,
		Content:     strings.NewReader("webp"),
	})
	require.NoError(t, err)

	rc, contentType, err := svc.OpenProof(ctx, reg.ID)
	require.NoError(t, err)
	defer rc.Close()
	assert.Equal(t, "image/webp", contentType)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "webp", string(data))
}
