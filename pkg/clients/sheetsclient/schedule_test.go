package sheetsclient

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTabTitle(t *testing.T) {
	week := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "Week of Mon Jan 01 2024", TabTitle(week))
}

func TestScheduleValues_RowsAndRoleColumns(t *testing.T) {
	schedule := &PublishedSchedule{
		WeekStart: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Roles:     []string{"Chef", "Rider"},
		Rows: []PublishedRow{
			{Date: "Mon Jan 01 2024", Window: "Lunch", Cells: map[string][]string{
				"Chef":  {"Alice (11:00)"},
				"Rider": {"Bob (11:30)", "Cara (12:00)"},
			}},
			{Date: "Mon Jan 01 2024", Window: "Dinner", Cells: map[string][]string{}},
		},
	}

	values := ScheduleValues(schedule)

	require.Len(t, values, 3)
	assert.Equal(t, []interface{}{"Date", "Window", "Chef", "Rider"}, values[0])
	assert.Equal(t, []interface{}{"Mon Jan 01 2024", "Lunch", "Alice (11:00)", "Bob (11:30), Cara (12:00)"}, values[1])
	assert.Equal(t, []interface{}{"Mon Jan 01 2024", "Dinner", "", ""}, values[2])
}

func TestScheduleValues_GapsSection(t *testing.T) {
	schedule := &PublishedSchedule{
		Roles: []string{"Chef"},
		Rows: []PublishedRow{
			{Date: "Tue Jan 02 2024", Window: "Lunch", Cells: map[string][]string{}},
		},
		Gaps: []PublishedGap{
			{Date: "Tue Jan 02 2024", Window: "Lunch", Role: "Chef", Required: 2, Assigned: 0},
		},
	}

	values := ScheduleValues(schedule)

	require.Len(t, values, 6)
	assert.Equal(t, []interface{}{}, values[2])
	assert.Equal(t, []interface{}{"Gaps"}, values[3])
	assert.Equal(t, []interface{}{"Tue Jan 02 2024", "Lunch", "Chef", 2, 0}, values[5])
}
