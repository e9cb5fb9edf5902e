// Package roster derives admin-dashboard views from the live registration
// set: filtering, sorting, aggregate statistics, and CSV export. Every
// operation is a pure function over its input snapshot and is cheap enough
// to re-run wholesale on each snapshot delivery.
package roster

import (
	"sort"
	"strings"

	"technoreg/internal/registration/models"
)

// FilterAll is the sentinel meaning "no filter" for the exact-match fields.
const FilterAll = "all"

// FilterSpec narrows the roster. Search matches name or roll number,
// case-insensitively, as a substring. The exact-match fields accept
// FilterAll (or empty) to disable. All active filters combine with AND.
type FilterSpec struct {
	Search     string
	Department string
	Year       string
	Event      string
}

// Filter returns the records matching the spec, preserving input order.
func Filter(records []models.Registration, spec FilterSpec) []models.Registration {
	search := strings.ToLower(strings.TrimSpace(spec.Search))
	out := make([]models.Registration, 0, len(records))
	for _, r := range records {
		if search != "" &&
			!strings.Contains(strings.ToLower(r.Name), search) &&
			!strings.Contains(strings.ToLower(r.RollNumber), search) {
			continue
		}
		if active(spec.Department) && string(r.Department) != spec.Department {
			continue
		}
		if active(spec.Year) && string(r.Year) != spec.Year {
			continue
		}
		if active(spec.Event) && string(r.Event1) != spec.Event && string(r.Event2) != spec.Event {
			continue
		}
		out = append(out, r)
	}
	return out
}

func active(v string) bool {
	return v != "" && v != FilterAll
}

// SortKey names a sortable column.
type SortKey string

const (
	SortByName       SortKey = "name"
	SortByRollNumber SortKey = "rollNumber"
	SortByDepartment SortKey = "department"
	SortByYear       SortKey = "year"
	SortByEvent1     SortKey = "event1"
	SortByCreatedAt  SortKey = "createdAt"
)

// ParseSortKey validates a raw sort key; empty means "no sort".
func ParseSortKey(s string) (SortKey, bool) {
	switch SortKey(s) {
	case SortByName, SortByRollNumber, SortByDepartment, SortByYear, SortByEvent1, SortByCreatedAt:
		return SortKey(s), true
	case "":
		return "", true
	}
	return "", false
}

// Direction is the sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Sort stably orders a copy of records by key. Records missing the key
// sort last regardless of direction; createdAt compares by instant.
func Sort(records []models.Registration, key SortKey, dir Direction) []models.Registration {
	out := make([]models.Registration, len(records))
	copy(out, records)
	if key == "" {
		return out
	}

	sort.SliceStable(out, func(i, j int) bool {
		iMissing, jMissing := missing(&out[i], key), missing(&out[j], key)
		if iMissing != jMissing {
			return jMissing
		}
		if iMissing {
			return false
		}

		var less, equal bool
		if key == SortByCreatedAt {
			less = out[i].CreatedAt.Before(out[j].CreatedAt)
			equal = out[i].CreatedAt.Equal(out[j].CreatedAt)
		} else {
			a, b := fieldValue(&out[i], key), fieldValue(&out[j], key)
			less = a < b
			equal = a == b
		}
		if equal {
			return false
		}
		if dir == Desc {
			return !less
		}
		return less
	})
	return out
}

func missing(r *models.Registration, key SortKey) bool {
	if key == SortByCreatedAt {
		return r.CreatedAt.IsZero()
	}
	return fieldValue(r, key) == ""
}

func fieldValue(r *models.Registration, key SortKey) string {
	switch key {
	case SortByName:
		return r.Name
	case SortByRollNumber:
		return r.RollNumber
	case SortByDepartment:
		return string(r.Department)
	case SortByYear:
		return string(r.Year)
	case SortByEvent1:
		return string(r.Event1)
	}
	return ""
}

// EventCount is one event's slot fill.
type EventCount struct {
	Event models.EventName `json:"event"`
	Count int              `json:"count"`
}

// FeeStats summarizes fee collection at the flat per-registrant fee.
type FeeStats struct {
	PaidCount         int     `json:"paidCount"`
	UnpaidCount       int     `json:"unpaidCount"`
	CollectedAmount   int     `json:"collectedAmount"`
	PendingAmount     int     `json:"pendingAmount"`
	TotalAmount       int     `json:"totalAmount"`
	CollectionPercent float64 `json:"collectionPercent"`
}

// Stats is the aggregate dashboard view.
type Stats struct {
	Total        int              `json:"total"`
	EventSlots   []EventCount     `json:"eventSlots"`
	ByDepartment map[string]int   `json:"byDepartment"`
	ByYear       map[string]int   `json:"byYear"`
	Fees         FeeStats         `json:"fees"`
}

// Aggregate computes dashboard statistics. Event counting is per slot: a
// dual-event registrant contributes to both events' counts. The
// collection percentage is 0 (never NaN) for an empty roster.
func Aggregate(records []models.Registration) Stats {
	slots := make(map[models.EventName]int, len(models.Events()))
	for _, e := range models.Events() {
		slots[e] = 0
	}
	byDept := make(map[string]int, len(models.Departments()))
	for _, d := range models.Departments() {
		byDept[string(d)] = 0
	}
	byYear := make(map[string]int, len(models.Years()))
	for _, y := range models.Years() {
		byYear[string(y)] = 0
	}

	paid := 0
	for _, r := range records {
		for _, e := range r.Events() {
			if _, ok := slots[e]; ok {
				slots[e]++
			}
		}
		byDept[string(r.Department)]++
		byYear[string(r.Year)]++
		if r.FeePaid {
			paid++
		}
	}

	eventSlots := make([]EventCount, 0, len(slots))
	for _, e := range models.Events() {
		eventSlots = append(eventSlots, EventCount{Event: e, Count: slots[e]})
	}
	sort.SliceStable(eventSlots, func(i, j int) bool {
		return eventSlots[i].Count > eventSlots[j].Count
	})

	total := len(records)
	fees := FeeStats{
		PaidCount:       paid,
		UnpaidCount:     total - paid,
		CollectedAmount: paid * models.RegistrationFee,
		PendingAmount:   (total - paid) * models.RegistrationFee,
		TotalAmount:     total * models.RegistrationFee,
	}
	if total > 0 {
		fees.CollectionPercent = float64(fees.CollectedAmount) / float64(fees.TotalAmount) * 100
	}

	return Stats{
		Total:        total,
		EventSlots:   eventSlots,
		ByDepartment: byDept,
		ByYear:       byYear,
		Fees:         fees,
	}
}
