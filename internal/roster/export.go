package roster

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"technoreg/internal/registration/models"
)

var exportHeader = []string{
	"Name", "Roll Number", "Department", "Year", "Mobile",
	"Event 1", "Event 2", "Team Member 2", "Fee Paid", "Registered At",
}

// ExportFilename names the report for a given day, e.g.
// muc_techno_2k25_report_2025-09-14.csv.
func ExportFilename(now time.Time) string {
	return fmt.Sprintf("muc_techno_2k25_report_%s.csv", now.Format("2006-01-02"))
}

// ExportCSV writes a header row plus one row per record, preserving the
// input order so the export reflects whatever filter and sort the caller
// applied.
func ExportCSV(w io.Writer, records []models.Registration) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range records {
		feePaid := "No"
		if r.FeePaid {
			feePaid = "Yes"
		}
		row := []string{
			r.Name,
			r.RollNumber,
			string(r.Department),
			string(r.Year),
			r.MobileNumber,
			string(r.Event1),
			string(r.Event2),
			r.TeamMember2,
			feePaid,
			r.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
