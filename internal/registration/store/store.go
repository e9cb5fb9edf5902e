// Package store persists Registration records. Two implementations share
// the same contract: an in-memory store for unit tests and dev wiring, and
// a PostgreSQL store for deployment.
//
// Uniqueness of the roll number is enforced HERE, by conditional create,
// not by a read-then-write in the caller: the public form's advisory
// duplicate scan and the store's constraint can therefore never disagree
// under concurrent submissions.
package store

import (
	"sort"

	"technoreg/internal/registration/models"
)

// Snapshot is one full, authoritative copy of the registration collection,
// ordered by creation time descending. Consumers of Watch must replace
// their local view wholesale on every delivery.
type Snapshot struct {
	Version       uint64
	Registrations []models.Registration
}

// sortSnapshot orders records newest-first with a roll-number tiebreak so
// deliveries are deterministic when timestamps collide.
func sortSnapshot(regs []models.Registration) {
	sort.SliceStable(regs, func(i, j int) bool {
		if !regs[i].CreatedAt.Equal(regs[j].CreatedAt) {
			return regs[i].CreatedAt.After(regs[j].CreatedAt)
		}
		return regs[i].RollNumber < regs[j].RollNumber
	})
}
