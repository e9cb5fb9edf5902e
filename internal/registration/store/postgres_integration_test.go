//go:build integration

package store_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"technoreg/internal/registration/models"
	"technoreg/internal/registration/store"
	"technoreg/pkg/platform/sentinel"
	"technoreg/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.Postgres
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
	s.Require().NoError(s.store.InitSchema(context.Background()))
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "registrations"))
}

func newRegistration(roll string) *models.Registration {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &models.Registration{
		ID:           uuid.New(),
		Name:         "Test Registrant",
		RollNumber:   roll,
		Department:   models.DeptBCA,
		Year:         models.Year2,
		MobileNumber: "9876543210",
		Event1:       models.EventTechQuiz,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (s *PostgresStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	reg := newRegistration("22BCA001")
	reg.Event2 = models.EventPanelDebate
	reg.TeamMember2 = "Kavya S"

	s.Require().NoError(s.store.CreateIfRollAvailable(ctx, reg))

	found, err := s.store.FindByID(ctx, reg.ID)
	s.Require().NoError(err)
	s.Equal(reg.RollNumber, found.RollNumber)
	s.Equal(reg.Event2, found.Event2)
	s.Equal(reg.TeamMember2, found.TeamMember2)
	s.WithinDuration(reg.CreatedAt, found.CreatedAt, time.Millisecond)

	byRoll, err := s.store.FindByRoll(ctx, "22bca001")
	s.Require().NoError(err)
	s.Equal(reg.ID, byRoll.ID)
}

func (s *PostgresStoreSuite) TestUniqueIndexRejectsCaseVariants() {
	ctx := context.Background()
	s.Require().NoError(s.store.CreateIfRollAvailable(ctx, newRegistration("22BCA001")))

	err := s.store.CreateIfRollAvailable(ctx, newRegistration("22bca001"))
	s.ErrorIs(err, sentinel.ErrDuplicate)
}

func (s *PostgresStoreSuite) TestConcurrentDuplicateRace() {
	ctx := context.Background()
	const attempts = 16
	var wins atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.store.CreateIfRollAvailable(ctx, newRegistration("22BCA001"))
			if err == nil {
				wins.Add(1)
			} else if !errors.Is(err, sentinel.ErrDuplicate) {
				s.T().Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), wins.Load())
}

func (s *PostgresStoreSuite) TestExecuteLocksAndUpdates() {
	ctx := context.Background()
	reg := newRegistration("22BCA001")
	s.Require().NoError(s.store.CreateIfRollAvailable(ctx, reg))

	now := time.Now().UTC().Truncate(time.Microsecond)
	updated, err := s.store.Execute(ctx, reg.ID,
		func(r *models.Registration) error { return nil },
		func(r *models.Registration) { r.ApplyApproval(models.ApprovalManual, now) },
	)
	s.Require().NoError(err)
	s.True(updated.FeePaid)
	s.Equal(models.ApprovalManual, updated.ApprovalMethod)

	stored, err := s.store.FindByID(ctx, reg.ID)
	s.Require().NoError(err)
	s.True(stored.FeePaid)
}

func (s *PostgresStoreSuite) TestDelete() {
	ctx := context.Background()
	reg := newRegistration("22BCA001")
	s.Require().NoError(s.store.CreateIfRollAvailable(ctx, reg))

	s.Require().NoError(s.store.Delete(ctx, reg.ID))
	s.ErrorIs(s.store.Delete(ctx, reg.ID), sentinel.ErrNotFound)

	s.NoError(s.store.CreateIfRollAvailable(ctx, newRegistration("22BCA001")))
}

func (s *PostgresStoreSuite) TestListOrdering() {
	ctx := context.Background()
	older := newRegistration("21OLD001")
	older.CreatedAt = older.CreatedAt.Add(-time.Hour)
	newer := newRegistration("22NEW001")

	s.Require().NoError(s.store.CreateIfRollAvailable(ctx, older))
	s.Require().NoError(s.store.CreateIfRollAvailable(ctx, newer))

	records, err := s.store.List(ctx)
	s.Require().NoError(err)
	s.Require().Len(records, 2)
	s.Equal("22NEW001", records[0].RollNumber)
}
