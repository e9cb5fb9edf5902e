package audit

import (
	"time"

	"github.com/google/uuid"

	"technoreg/pkg/requestcontext"
)

// Action identifies the audited admin or workflow action.
type Action string

const (
	ActionRegistrationCreated Action = "registration.created"
	ActionRegistrationDeleted Action = "registration.deleted"
	ActionProofSubmitted      Action = "payment.proof_submitted"
	ActionProofAbandoned      Action = "payment.proof_abandoned"
	ActionFeeApproved         Action = "payment.approved"
	ActionFeeRejected         Action = "payment.rejected"
	ActionLogin               Action = "access.login"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp      time.Time                  `json:"timestamp"`
	Action         Action                     `json:"action"`
	RegistrationID uuid.UUID                  `json:"registration_id,omitempty"`
	RollNumber     string                     `json:"roll_number,omitempty"`
	Actor          requestcontext.AccessLevel `json:"actor,omitempty"`
	RequestID      string                     `json:"request_id,omitempty"`
	ClientIP       string                     `json:"client_ip,omitempty"`
	Device         string                     `json:"device,omitempty"`
	Detail         string                     `json:"detail,omitempty"`
}
