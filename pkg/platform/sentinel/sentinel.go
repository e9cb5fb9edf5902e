package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and blob backends return
// these (optionally wrapped) so services can translate them into domain
// errors without depending on store internals.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: record does not exist in the store
// - ErrDuplicate: the store's unique constraint rejected the write
// - ErrInvalidState: record in wrong state for the requested operation
// - ErrUnavailable: backend temporarily unreachable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors.
var (
	ErrNotFound     = errors.New("not found")
	ErrDuplicate    = errors.New("duplicate")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
