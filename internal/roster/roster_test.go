package roster

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"technoreg/internal/registration/models"
)

func sampleRoster() []models.Registration {
	base := time.Date(2025, 9, 10, 9, 0, 0, 0, time.UTC)
	return []models.Registration{
		{
			Name: "Anita Raj", RollNumber: "22BCA001",
			Department: models.DeptBCA, Year: models.Year2,
			MobileNumber: "9876543210",
			Event1:       models.EventTechQuiz, Event2: models.EventPanelDebate,
			TeamMember2: "Kavya S", FeePaid: true,
			CreatedAt: base,
		},
		{
			Name: "Bharath Kumar", RollNumber: "23CS014",
			Department: models.DeptCompSci, Year: models.Year1,
			MobileNumber: "9123456780",
			Event1:       models.EventBugBlaster,
			CreatedAt:    base.Add(time.Hour),
		},
		{
			Name: "Charu Devi", RollNumber: "21MAT007",
			Department: models.DeptMaths, Year: models.Year3,
			MobileNumber: "9000011122",
			Event1:       models.EventDesignDuel, FeePaid: true,
			CreatedAt: base.Add(2 * time.Hour),
		},
	}
}

func TestFilterSearchMatchesNameOrRoll(t *testing.T) {
	records := sampleRoster()

	byName := Filter(records, FilterSpec{Search: "anita"})
	require.Len(t, byName, 1)
	assert.Equal(t, "22BCA001", byName[0].RollNumber)

	byRoll := Filter(records, FilterSpec{Search: "cs014"})
	require.Len(t, byRoll, 1)
	assert.Equal(t, "Bharath Kumar", byRoll[0].Name)
}

func TestFilterEventMatchesEitherSlot(t *testing.T) {
	records := sampleRoster()

	got := Filter(records, FilterSpec{Event: string(models.EventPanelDebate)})
	require.Len(t, got, 1)
	assert.Equal(t, "Anita Raj", got[0].Name)
}

func TestFilterCombinesWithAnd(t *testing.T) {
	records := sampleRoster()

	got := Filter(records, FilterSpec{
		Search:     "a",
		Department: string(models.DeptBCA),
		Year:       string(models.Year2),
	})
	require.Len(t, got, 1)
	assert.Equal(t, "Anita Raj", got[0].Name)

	none := Filter(records, FilterSpec{
		Department: string(models.DeptBCA),
		Year:       string(models.Year3),
	})
	assert.Empty(t, none)
}

func TestFilterAllSentinelDisablesField(t *testing.T) {
	records := sampleRoster()

	got := Filter(records, FilterSpec{Department: FilterAll, Year: FilterAll, Event: FilterAll})
	assert.Len(t, got, len(records))
}

func TestSortMissingValuesLast(t *testing.T) {
	records := sampleRoster()

	// Only the first record has an event2, so it must lead in both
	// directions while the rest keep their relative order.
	asc := Sort(records, SortByEvent1, Asc)
	require.Len(t, asc, 3)

	withZeroTime := append([]models.Registration{}, records...)
	withZeroTime[1].CreatedAt = time.Time{}

	for _, dir := range []Direction{Asc, Desc} {
		got := Sort(withZeroTime, SortByCreatedAt, dir)
		assert.Equal(t, "Bharath Kumar", got[len(got)-1].Name, "direction %s", dir)
	}
}

func TestSortStableAndNonMutating(t *testing.T) {
	records := sampleRoster()
	records[1].Year = models.Year2

	got := Sort(records, SortByYear, Asc)
	// Equal keys retain input order.
	assert.Equal(t, "Anita Raj", got[0].Name)
	assert.Equal(t, "Bharath Kumar", got[1].Name)
	// Input untouched.
	assert.Equal(t, "Anita Raj", records[0].Name)
}

func TestSortDesc(t *testing.T) {
	got := Sort(sampleRoster(), SortByName, Desc)
	require.Len(t, got, 3)
	assert.Equal(t, "Charu Devi", got[0].Name)
	assert.Equal(t, "Anita Raj", got[2].Name)
}

func TestParseSortKey(t *testing.T) {
	key, ok := ParseSortKey("rollNumber")
	require.True(t, ok)
	assert.Equal(t, SortByRollNumber, key)

	_, ok = ParseSortKey("mobile")
	assert.False(t, ok)

	key, ok = ParseSortKey("")
	require.True(t, ok)
	assert.Empty(t, key)
}

func TestAggregateCountsEachEventSlot(t *testing.T) {
	stats := Aggregate(sampleRoster())

	assert.Equal(t, 3, stats.Total)

	counts := make(map[models.EventName]int)
	for _, ec := range stats.EventSlots {
		counts[ec.Event] = ec.Count
	}
	// The dual-event registrant is counted under both events.
	assert.Equal(t, 1, counts[models.EventTechQuiz])
	assert.Equal(t, 1, counts[models.EventPanelDebate])
	assert.Equal(t, 1, counts[models.EventBugBlaster])
	assert.Equal(t, 1, counts[models.EventDesignDuel])
	assert.Equal(t, 0, counts[models.EventWebWizards])

	assert.Equal(t, 1, stats.ByDepartment[string(models.DeptBCA)])
	assert.Equal(t, 1, stats.ByYear[string(models.Year3)])
}

func TestAggregateFees(t *testing.T) {
	stats := Aggregate(sampleRoster())

	assert.Equal(t, 2, stats.Fees.PaidCount)
	assert.Equal(t, 1, stats.Fees.UnpaidCount)
	assert.Equal(t, 2*models.RegistrationFee, stats.Fees.CollectedAmount)
	assert.Equal(t, 1*models.RegistrationFee, stats.Fees.PendingAmount)
	assert.Equal(t, 3*models.RegistrationFee, stats.Fees.TotalAmount)
	assert.InDelta(t, 66.66, stats.Fees.CollectionPercent, 0.01)
}

func TestAggregateEmptyRoster(t *testing.T) {
	stats := Aggregate(nil)

	assert.Zero(t, stats.Total)
	assert.Zero(t, stats.Fees.CollectionPercent)
	require.Len(t, stats.EventSlots, len(models.Events()))
	for _, ec := range stats.EventSlots {
		assert.Zero(t, ec.Count)
	}
}

func TestExportCSVPreservesOrder(t *testing.T) {
	records := sampleRoster()

	var buf bytes.Buffer
	require.NoError(t, ExportCSV(&buf, records))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, len(records)+1)

	assert.Equal(t, exportHeader, rows[0])
	for i, r := range records {
		assert.Equal(t, r.Name, rows[i+1][0])
		assert.Equal(t, r.RollNumber, rows[i+1][1])
	}
	assert.Equal(t, "Yes", rows[1][8])
	assert.Equal(t, "No", rows[2][8])
}

func TestExportFilename(t *testing.T) {
	now := time.Date(2025, 9, 14, 15, 4, 5, 0, time.UTC)
	assert.Equal(t, "muc_techno_2k25_report_2025-09-14.csv", ExportFilename(now))
}
