package handler

import (
	"time"

	"github.com/google/uuid"

	"technoreg/internal/registration/models"
	regservice "technoreg/internal/registration/service"
)

// RegistrationResponse is the wire form of a registration record.
type RegistrationResponse struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	RollNumber   string    `json:"rollNumber"`
	Department   string    `json:"department"`
	Year         string    `json:"year"`
	MobileNumber string    `json:"mobileNumber"`
	Event1       string    `json:"event1"`
	Event2       string    `json:"event2,omitempty"`
	TeamMember2  string    `json:"teamMember2,omitempty"`
	FeePaid      bool      `json:"feePaid"`
	PaymentState string    `json:"paymentState"`
	HasProof     bool      `json:"hasProof"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// FromRegistration converts a domain record to its wire form. The raw
// storage reference of the payment proof stays server-side; clients only
// learn whether one exists.
func FromRegistration(r *models.Registration) *RegistrationResponse {
	return &RegistrationResponse{
		ID:           r.ID,
		Name:         r.Name,
		RollNumber:   r.RollNumber,
		Department:   string(r.Department),
		Year:         string(r.Year),
		MobileNumber: r.MobileNumber,
		Event1:       string(r.Event1),
		Event2:       string(r.Event2),
		TeamMember2:  r.TeamMember2,
		FeePaid:      r.FeePaid,
		PaymentState: string(r.PaymentState()),
		HasProof:     r.PaymentProofRef != "",
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

// FromRegistrations converts a slice of records, preserving order.
func FromRegistrations(records []models.Registration) []RegistrationResponse {
	out := make([]RegistrationResponse, 0, len(records))
	for i := range records {
		out = append(out, *FromRegistration(&records[i]))
	}
	return out
}

// BulkDeleteResponse reports per-ID outcomes of a bulk delete.
type BulkDeleteResponse struct {
	Succeeded []uuid.UUID `json:"succeeded"`
	Failed    []uuid.UUID `json:"failed"`
}

// FromBulkDeleteResult converts the service result to its wire form.
func FromBulkDeleteResult(result regservice.BulkDeleteResult) *BulkDeleteResponse {
	succeeded := result.Succeeded
	if succeeded == nil {
		succeeded = []uuid.UUID{}
	}
	failed := result.Failed
	if failed == nil {
		failed = []uuid.UUID{}
	}
	return &BulkDeleteResponse{Succeeded: succeeded, Failed: failed}
}
