package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"technoreg/internal/registration/models"
	"technoreg/pkg/platform/sentinel"
)

// Postgres persists registrations in PostgreSQL. The roll number's
// case-insensitive uniqueness lives in the schema, so a second concurrent
// insert for the same roll fails atomically at the database.
type Postgres struct {
	db       *sql.DB
	notifier *notifier
}

// NewPostgres constructs a PostgreSQL-backed registration store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db, notifier: newNotifier()}
}

// Schema is the table definition applied by deployments and the
// integration test harness.
const Schema = `
CREATE TABLE IF NOT EXISTS registrations (
	id                uuid PRIMARY KEY,
	name              text NOT NULL,
	roll_number       text NOT NULL,
	department        text NOT NULL,
	year              text NOT NULL,
	mobile_number     text NOT NULL,
	event1            text NOT NULL,
	event2            text NOT NULL DEFAULT '',
	team_member2      text NOT NULL DEFAULT '',
	fee_paid          boolean NOT NULL DEFAULT false,
	payment_proof_ref text NOT NULL DEFAULT '',
	approval_method   text NOT NULL DEFAULT '',
	created_at        timestamptz NOT NULL,
	updated_at        timestamptz NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS registrations_roll_number_key
	ON registrations (upper(roll_number));
`

// InitSchema creates the registrations table and its unique index.
func (s *Postgres) InitSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("init registrations schema: %w", err)
	}
	return nil
}

const uniqueViolation = "23505"

// CreateIfRollAvailable inserts the record; the unique index on
// upper(roll_number) turns a concurrent duplicate into
// sentinel.ErrDuplicate instead of a second record.
func (s *Postgres) CreateIfRollAvailable(ctx context.Context, reg *models.Registration) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO registrations
			(id, name, roll_number, department, year, mobile_number,
			 event1, event2, team_member2, fee_paid, payment_proof_ref,
			 approval_method, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		reg.ID, reg.Name, reg.RollNumber, string(reg.Department), string(reg.Year),
		reg.MobileNumber, string(reg.Event1), string(reg.Event2), reg.TeamMember2,
		reg.FeePaid, reg.PaymentProofRef, string(reg.ApprovalMethod),
		reg.CreatedAt, reg.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return sentinel.ErrDuplicate
		}
		return fmt.Errorf("create registration: %w", err)
	}
	s.republish(ctx)
	return nil
}

const selectColumns = `
	id, name, roll_number, department, year, mobile_number,
	event1, event2, team_member2, fee_paid, payment_proof_ref,
	approval_method, created_at, updated_at`

// FindByID returns the record, or sentinel.ErrNotFound.
func (s *Postgres) FindByID(ctx context.Context, id uuid.UUID) (*models.Registration, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT`+selectColumns+` FROM registrations WHERE id = $1`, id)
	reg, err := scanRegistration(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find registration: %w", err)
	}
	return reg, nil
}

// FindByRoll looks a record up by roll number, case-insensitively.
func (s *Postgres) FindByRoll(ctx context.Context, roll string) (*models.Registration, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT`+selectColumns+` FROM registrations WHERE upper(roll_number) = upper($1)`, roll)
	reg, err := scanRegistration(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find registration by roll: %w", err)
	}
	return reg, nil
}

// List returns the full collection ordered by creation time descending.
func (s *Postgres) List(ctx context.Context) ([]models.Registration, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT`+selectColumns+` FROM registrations ORDER BY created_at DESC, roll_number ASC`)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()

	var regs []models.Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		regs = append(regs, *reg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	return regs, nil
}

// Execute atomically loads the record FOR UPDATE, validates the requested
// mutation, applies it, and writes the result in one transaction.
func (s *Postgres) Execute(ctx context.Context, id uuid.UUID, validate func(*models.Registration) error, mutate func(*models.Registration)) (*models.Registration, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx,
		`SELECT`+selectColumns+` FROM registrations WHERE id = $1 FOR UPDATE`, id)
	reg, err := scanRegistration(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("lock registration: %w", err)
	}

	if err := validate(reg); err != nil {
		return nil, err
	}
	mutate(reg)

	_, err = tx.ExecContext(ctx, `
		UPDATE registrations SET
			fee_paid = $2, payment_proof_ref = $3, approval_method = $4,
			name = $5, department = $6, year = $7, mobile_number = $8,
			event1 = $9, event2 = $10, team_member2 = $11, updated_at = $12
		WHERE id = $1`,
		reg.ID, reg.FeePaid, reg.PaymentProofRef, string(reg.ApprovalMethod),
		reg.Name, string(reg.Department), string(reg.Year), reg.MobileNumber,
		string(reg.Event1), string(reg.Event2), reg.TeamMember2, reg.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("update registration: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit registration update: %w", err)
	}
	s.republish(ctx)
	return reg, nil
}

// Delete removes the record, or returns sentinel.ErrNotFound.
func (s *Postgres) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM registrations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete registration: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete registration: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	s.republish(ctx)
	return nil
}

// Watch subscribes to full-snapshot deliveries until ctx is done.
// Deliveries reflect writes made through this process; multi-instance
// deployments would add LISTEN/NOTIFY here.
func (s *Postgres) Watch(ctx context.Context) <-chan Snapshot {
	regs, err := s.List(ctx)
	if err != nil {
		regs = nil
	}
	return s.notifier.subscribe(ctx, Snapshot{Registrations: regs})
}

func (s *Postgres) republish(ctx context.Context) {
	regs, err := s.List(ctx)
	if err != nil {
		return
	}
	s.notifier.publish(Snapshot{Registrations: regs})
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRegistration(row scanner) (*models.Registration, error) {
	var reg models.Registration
	var dept, year, event1, event2, method string
	err := row.Scan(
		&reg.ID, &reg.Name, &reg.RollNumber, &dept, &year, &reg.MobileNumber,
		&event1, &event2, &reg.TeamMember2, &reg.FeePaid, &reg.PaymentProofRef,
		&method, &reg.CreatedAt, &reg.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	reg.Department = models.Department(dept)
	reg.Year = models.Year(year)
	reg.Event1 = models.EventName(event1)
	reg.Event2 = models.EventName(event2)
	reg.ApprovalMethod = models.ApprovalMethod(method)
	return &reg, nil
}
