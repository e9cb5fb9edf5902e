package models

import (
	dErrors "technoreg/pkg/domain-errors"
)

// RegistrationFee is the flat per-registrant fee in rupees.
const RegistrationFee = 50

// Department is one of the fixed set of college departments.
type Department string

const (
	DeptCompSci   Department = "B.Sc. Computer Science"
	DeptDS        Department = "B.Sc. Data Science"
	DeptBCA       Department = "BCA"
	DeptBComCS    Department = "B.Com. CS"
	DeptMaths     Department = "B.Sc. Maths"
	DeptBComGen   Department = "B.Com. General"
	DeptBComCorp  Department = "B.Com. Corporate Secretaryship"
	DeptEconomics Department = "BA Economics"
	DeptBBA       Department = "BBA"
)

// RestrictedDepartment only fields final-year participants; candidates from
// it have their year coerced to RestrictedDepartmentYear by the validator.
const (
	RestrictedDepartment     = DeptMaths
	RestrictedDepartmentYear = Year3
)

// Departments lists every valid department in display order.
func Departments() []Department {
	return []Department{
		DeptCompSci, DeptDS, DeptBCA, DeptBComCS, DeptMaths,
		DeptBComGen, DeptBComCorp, DeptEconomics, DeptBBA,
	}
}

// ParseDepartment validates a raw department string.
func ParseDepartment(s string) (Department, error) {
	for _, d := range Departments() {
		if string(d) == s {
			return d, nil
		}
	}
	return "", dErrors.NewField("department", "unknown department")
}

// Year is one of the fixed set of study years.
type Year string

const (
	Year1 Year = "1st Year"
	Year2 Year = "2nd Year"
	Year3 Year = "3rd Year"
)

// Years lists every valid year in display order.
func Years() []Year {
	return []Year{Year1, Year2, Year3}
}

// ParseYear validates a raw year string.
func ParseYear(s string) (Year, error) {
	for _, y := range Years() {
		if string(y) == s {
			return y, nil
		}
	}
	return "", dErrors.NewField("year", "unknown year")
}

// EventName is one of the fixed set of symposium events.
type EventName string

const (
	EventTechQuiz    EventName = "Tech Quiz"
	EventBugBlaster  EventName = "Bug Blaster"
	EventPanelDebate EventName = "Panel Debate"
	EventWebWizards  EventName = "Web Wizards"
	EventDesignDuel  EventName = "Design Duel"
)

// Events lists every event in display order.
func Events() []EventName {
	return []EventName{
		EventTechQuiz, EventBugBlaster, EventPanelDebate, EventWebWizards, EventDesignDuel,
	}
}

// ParseEvent validates a raw event string. The field parameter names the
// form field for error reporting (event1 or event2).
func ParseEvent(field, s string) (EventName, error) {
	for _, e := range Events() {
		if string(e) == s {
			return e, nil
		}
	}
	return "", dErrors.NewField(field, "unknown event")
}

// Window is an event's scheduled time slot. Start and End are wall-clock
// strings ("10:15"); the schedule is coarse enough that two events clash
// exactly when they share a start time.
type Window struct {
	Start string
	End   string
}

// Overlaps reports whether two windows collide on the schedule.
func (w Window) Overlaps(other Window) bool {
	return w.Start == other.Start
}

// eventWindows is the fixed schedule for the symposium day.
var eventWindows = map[EventName]Window{
	EventTechQuiz:    {Start: "10:15", End: "11:15"},
	EventBugBlaster:  {Start: "10:15", End: "11:15"},
	EventPanelDebate: {Start: "11:15", End: "12:15"},
	EventWebWizards:  {Start: "11:15", End: "12:00"},
	EventDesignDuel:  {Start: "11:15", End: "11:45"},
}

// WindowFor returns the scheduled window for an event.
func WindowFor(e EventName) Window {
	return eventWindows[e]
}

// teamEvents are the events where a second team member name is meaningful.
var teamEvents = map[EventName]bool{
	EventPanelDebate: true,
	EventWebWizards:  true,
}

// IsTeamEvent reports whether the event accepts a second team member.
func IsTeamEvent(e EventName) bool {
	return teamEvents[e]
}
