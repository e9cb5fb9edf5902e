package models

import (
	"time"

	"github.com/google/uuid"

	dErrors "technoreg/pkg/domain-errors"
)

// PaymentState is derived from the fee fields rather than stored, so the
// record can never disagree with its own lifecycle.
type PaymentState string

const (
	PaymentUnpaid         PaymentState = "unpaid"
	PaymentProofSubmitted PaymentState = "proof_submitted"
	PaymentApproved       PaymentState = "approved"
)

// ApprovalMethod records how a paid registration was approved, so manual
// cash entries stay distinguishable from reviewed online proofs.
type ApprovalMethod string

const (
	ApprovalNone          ApprovalMethod = ""
	ApprovalManual        ApprovalMethod = "manual"
	ApprovalProofReviewed ApprovalMethod = "proof-reviewed"
)

// Registration is the sole persisted aggregate.
//
// Invariants:
//   - RollNumber is stored uppercased and is unique case-insensitively
//     across all records (enforced by the store's conditional create)
//   - Event2, when set, differs from Event1 and does not share Event1's
//     scheduled start time
//   - FeePaid=true implies a proof reference in the online flow; a manual
//     admin approval with no proof is the one allowed exception and is
//     tagged ApprovalManual
//   - CreatedAt is immutable after construction
type Registration struct {
	ID              uuid.UUID      `json:"id"`
	Name            string         `json:"name"`
	RollNumber      string         `json:"rollNumber"`
	Department      Department     `json:"department"`
	Year            Year           `json:"year"`
	MobileNumber    string         `json:"mobileNumber"`
	Event1          EventName      `json:"event1"`
	Event2          EventName      `json:"event2,omitempty"`
	TeamMember2     string         `json:"teamMember2,omitempty"`
	FeePaid         bool           `json:"feePaid"`
	PaymentProofRef string         `json:"paymentProofRef,omitempty"`
	ApprovalMethod  ApprovalMethod `json:"approvalMethod,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

// PaymentState derives the lifecycle state from the fee fields. A rejected
// proof keeps its reference for audit, so a rejected record reads as
// proof_submitted again: the participant may resubmit or an admin may
// re-approve.
func (r *Registration) PaymentState() PaymentState {
	switch {
	case r.FeePaid:
		return PaymentApproved
	case r.PaymentProofRef != "":
		return PaymentProofSubmitted
	default:
		return PaymentUnpaid
	}
}

// Events returns the chosen events; one or two entries.
func (r *Registration) Events() []EventName {
	if r.Event2 != "" {
		return []EventName{r.Event1, r.Event2}
	}
	return []EventName{r.Event1}
}

// CanApprove checks the approval transition. Approving an already-approved
// record is a permitted no-op, so this never fails on a live record; the
// method exists to mirror CanReject and keep the transition table explicit.
func (r *Registration) CanApprove() error {
	return nil
}

// ApplyApproval marks the fee paid. Idempotent: re-approving keeps the
// original approval method and timestamp untouched.
func (r *Registration) ApplyApproval(method ApprovalMethod, now time.Time) {
	if r.FeePaid {
		return
	}
	r.FeePaid = true
	r.ApprovalMethod = method
	r.UpdatedAt = now
}

// CanReject checks the rejection transition. Rejecting an unpaid record
// with no proof is a permitted no-op.
func (r *Registration) CanReject() error {
	return nil
}

// ApplyRejection reverts the fee to unpaid. The proof reference is kept
// for audit; only the paid flag and approval tag are cleared.
func (r *Registration) ApplyRejection(now time.Time) {
	if !r.FeePaid {
		return
	}
	r.FeePaid = false
	r.ApprovalMethod = ApprovalNone
	r.UpdatedAt = now
}

// AttachProof stamps an uploaded proof reference. The fee stays unpaid
// until an admin reviews the proof.
func (r *Registration) AttachProof(ref string, now time.Time) error {
	if ref == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "proof reference cannot be empty")
	}
	r.PaymentProofRef = ref
	r.UpdatedAt = now
	return nil
}
