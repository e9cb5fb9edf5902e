package store

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"technoreg/internal/registration/models"
	"technoreg/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded registration store. It backs unit tests and
// single-process deployments and mirrors the PostgreSQL store's semantics,
// including conditional create on the normalized roll number.
type InMemory struct {
	mu       sync.RWMutex
	byID     map[uuid.UUID]models.Registration
	notifier *notifier
}

// NewInMemory constructs an empty in-memory store.
func NewInMemory() *InMemory {
	return &InMemory{
		byID:     make(map[uuid.UUID]models.Registration),
		notifier: newNotifier(),
	}
}

// CreateIfRollAvailable inserts the record unless another record already
// holds the same roll number (case-insensitively). Returns
// sentinel.ErrDuplicate on collision. The check and insert run under one
// lock, so concurrent submissions for the same roll admit exactly one.
func (s *InMemory) CreateIfRollAvailable(ctx context.Context, reg *models.Registration) error {
	s.mu.Lock()
	for _, existing := range s.byID {
		if strings.EqualFold(existing.RollNumber, reg.RollNumber) {
			s.mu.Unlock()
			return sentinel.ErrDuplicate
		}
	}
	s.byID[reg.ID] = *reg
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notifier.publish(snap)
	return nil
}

// FindByID returns a copy of the record, or sentinel.ErrNotFound.
func (s *InMemory) FindByID(ctx context.Context, id uuid.UUID) (*models.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	reg, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &reg, nil
}

// FindByRoll looks a record up by roll number, case-insensitively.
func (s *InMemory) FindByRoll(ctx context.Context, roll string) (*models.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, reg := range s.byID {
		if strings.EqualFold(reg.RollNumber, roll) {
			out := reg
			return &out, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

// List returns the full collection ordered by creation time descending.
func (s *InMemory) List(ctx context.Context) ([]models.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked().Registrations, nil
}

// Execute atomically loads the record, validates the requested mutation,
// applies it, and persists the result while holding the store lock. Both
// callbacks observe a consistent record; other writers wait.
func (s *InMemory) Execute(ctx context.Context, id uuid.UUID, validate func(*models.Registration) error, mutate func(*models.Registration)) (*models.Registration, error) {
	s.mu.Lock()
	reg, ok := s.byID[id]
	if !ok {
		s.mu.Unlock()
		return nil, sentinel.ErrNotFound
	}
	if err := validate(&reg); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	mutate(&reg)
	s.byID[id] = reg
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notifier.publish(snap)
	return &reg, nil
}

// Delete removes the record, or returns sentinel.ErrNotFound.
func (s *InMemory) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	if _, ok := s.byID[id]; !ok {
		s.mu.Unlock()
		return sentinel.ErrNotFound
	}
	delete(s.byID, id)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notifier.publish(snap)
	return nil
}

// Watch subscribes to full-snapshot deliveries until ctx is done.
func (s *InMemory) Watch(ctx context.Context) <-chan Snapshot {
	s.mu.RLock()
	snap := s.snapshotLocked()
	s.mu.RUnlock()
	return s.notifier.subscribe(ctx, snap)
}

func (s *InMemory) snapshotLocked() Snapshot {
	regs := make([]models.Registration, 0, len(s.byID))
	for _, reg := range s.byID {
		regs = append(regs, reg)
	}
	sortSnapshot(regs)
	return Snapshot{Registrations: regs}
}
