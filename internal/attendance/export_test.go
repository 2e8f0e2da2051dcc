package attendance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Benedict258/Tend-X/internal/space"
)

func TestExportColumnOrder(t *testing.T) {
	sp := space.Space{
		ID:         "space-1",
		Title:      "Algorithms 101",
		UniqueCode: "TEND-00042",
		RequiredFields: space.FieldSchema{
			{ID: "1", Name: "Student ID", Type: space.FieldNumber, Required: true},
			{ID: "2", Name: "Department", Type: space.FieldText},
		},
	}
	records := []Record{
		{
			ID:      "rec-1",
			SpaceID: "space-1",
			Fields: map[string]string{
				"name":       "Jane Doe",
				"email":      "jane@x.com",
				"student_id": "99",
				"department": "CS",
			},
			SubmittedAt: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		},
	}

	f, err := Export(sp, records)
	require.NoError(t, err)

	rows, err := f.GetRows("Attendance")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, []string{"Name", "Email", "Student ID", "Department", "Submitted At"}, rows[0])
	assert.Equal(t, []string{"Jane Doe", "jane@x.com", "99", "CS", "2026-03-14 09:30:00"}, rows[1])
}

func TestExportEmptySpace(t *testing.T) {
	sp := space.Space{ID: "space-1", UniqueCode: "TEND-00001"}

	f, err := Export(sp, nil)
	require.NoError(t, err)

	rows, err := f.GetRows("Attendance")
	require.NoError(t, err)
	require.Len(t, rows, 1, "header row only")
	assert.Equal(t, []string{"Name", "Email", "Submitted At"}, rows[0])

	assert.Equal(t, "TEND-00001-attendance.xlsx", ExportFilename(sp))
}
