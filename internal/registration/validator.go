// Package registration implements admission of new symposium registrations:
// a pure validator over the candidate payload plus the current record set,
// and the service that persists admitted records.
package registration

import (
	"regexp"
	"strings"

	"technoreg/internal/registration/models"
	dErrors "technoreg/pkg/domain-errors"
)

var mobilePattern = regexp.MustCompile(`^\d{10}$`)

// Candidate is an unvalidated registration payload as submitted by a form.
type Candidate struct {
	Name         string
	RollNumber   string
	Department   string
	Year         string
	MobileNumber string
	Event1       string
	Event2       string
	TeamMember2  string
}

// Validate decides whether the candidate may be admitted given the current
// full set of existing registrations. It is a pure function: persistence,
// ID assignment, and timestamps are the caller's responsibility.
//
// The returned record is normalized: roll number uppercased, fee unpaid,
// team member kept only when an elected event is a team event. Candidates
// from the restricted department have their year coerced (not rejected) to
// the single allowed value, matching the public form's behavior.
//
// The duplicate scan here is advisory: it gives the submitter a precise
// error, but the store's conditional create remains the authority so two
// near-simultaneous submissions cannot both slip through.
func Validate(c Candidate, existing []models.Registration) (*models.Registration, error) {
	name := strings.TrimSpace(c.Name)
	if len(name) < 2 {
		return nil, dErrors.NewField("name", "name must be at least 2 characters")
	}

	roll := strings.ToUpper(strings.TrimSpace(c.RollNumber))
	if len(roll) < 3 {
		return nil, dErrors.NewField("rollNumber", "please enter a valid roll number")
	}

	dept, err := models.ParseDepartment(c.Department)
	if err != nil {
		return nil, err
	}

	year, err := models.ParseYear(c.Year)
	if err != nil {
		return nil, err
	}
	if dept == models.RestrictedDepartment {
		year = models.RestrictedDepartmentYear
	}

	if !mobilePattern.MatchString(c.MobileNumber) {
		return nil, dErrors.NewField("mobileNumber", "mobile number must be exactly 10 digits")
	}

	event1, err := models.ParseEvent("event1", c.Event1)
	if err != nil {
		return nil, err
	}

	var event2 models.EventName
	if c.Event2 != "" {
		event2, err = models.ParseEvent("event2", c.Event2)
		if err != nil {
			return nil, err
		}
		if event2 == event1 {
			return nil, dErrors.New(dErrors.CodeConflict, "cannot select the same event twice")
		}
		if models.WindowFor(event1).Overlaps(models.WindowFor(event2)) {
			return nil, dErrors.New(dErrors.CodeConflict, "selected events run in the same time slot")
		}
	}

	for i := range existing {
		if strings.EqualFold(existing[i].RollNumber, roll) {
			return nil, dErrors.New(dErrors.CodeDuplicate, "this roll number has already been registered")
		}
	}

	teamMember := strings.TrimSpace(c.TeamMember2)
	if teamMember != "" && !models.IsTeamEvent(event1) && !models.IsTeamEvent(event2) {
		teamMember = ""
	}

	return &models.Registration{
		Name:         name,
		RollNumber:   roll,
		Department:   dept,
		Year:         year,
		MobileNumber: c.MobileNumber,
		Event1:       event1,
		Event2:       event2,
		TeamMember2:  teamMember,
		FeePaid:      false,
	}, nil
}
