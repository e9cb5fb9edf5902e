package handler

import (
	"strings"

	"github.com/google/uuid"

	"technoreg/internal/registration"
	dErrors "technoreg/pkg/domain-errors"
)

// CreateRegistrationRequest is the HTTP request body for POST /registrations.
// Field-level semantics (department membership, event windows, duplicate
// roll numbers) are enforced by the registration service; this only rejects
// bodies that are structurally hopeless.
type CreateRegistrationRequest struct {
	Name         string `json:"name"`
	RollNumber   string `json:"rollNumber"`
	Department   string `json:"department"`
	Year         string `json:"year"`
	MobileNumber string `json:"mobileNumber"`
	Event1       string `json:"event1"`
	Event2       string `json:"event2"`
	TeamMember2  string `json:"teamMember2"`

	// Admin create only; ignored on the public endpoint.
	FeePaid bool `json:"feePaid"`
}

// Validate implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *CreateRegistrationRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	r.Name = strings.TrimSpace(r.Name)
	r.RollNumber = strings.TrimSpace(r.RollNumber)
	r.MobileNumber = strings.TrimSpace(r.MobileNumber)
	r.TeamMember2 = strings.TrimSpace(r.TeamMember2)

	switch {
	case r.Name == "":
		return dErrors.NewField("name", "name is required")
	case r.RollNumber == "":
		return dErrors.NewField("rollNumber", "roll number is required")
	case r.Department == "":
		return dErrors.NewField("department", "department is required")
	case r.Year == "":
		return dErrors.NewField("year", "year is required")
	case r.MobileNumber == "":
		return dErrors.NewField("mobileNumber", "mobile number is required")
	case r.Event1 == "":
		return dErrors.NewField("event1", "event selection is required")
	}
	return nil
}

// Candidate converts the request into the validator's input form.
func (r *CreateRegistrationRequest) Candidate() registration.Candidate {
	return registration.Candidate{
		Name:         r.Name,
		RollNumber:   r.RollNumber,
		Department:   r.Department,
		Year:         r.Year,
		MobileNumber: r.MobileNumber,
		Event1:       r.Event1,
		Event2:       r.Event2,
		TeamMember2:  r.TeamMember2,
	}
}

// BulkDeleteRequest is the HTTP request body for POST /registrations/bulk-delete.
type BulkDeleteRequest struct {
	IDs []string `json:"ids"`

	parsedIDs []uuid.UUID
}

// Validate implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *BulkDeleteRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.IDs) == 0 {
		return dErrors.NewField("ids", "at least one id is required")
	}

	r.parsedIDs = make([]uuid.UUID, 0, len(r.IDs))
	for _, raw := range r.IDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return dErrors.NewField("ids", "invalid registration id: "+raw)
		}
		r.parsedIDs = append(r.parsedIDs, id)
	}
	return nil
}

// ParsedIDs returns the validated registration IDs.
func (r *BulkDeleteRequest) ParsedIDs() []uuid.UUID {
	return r.parsedIDs
}
