package sheetsclient

import (
	"fmt"
	"strings"
	"time"
)

// TabDateFormat is the date layout used in tab titles and row labels
const TabDateFormat = "Mon Jan 02 2006"

// PublishedRow is one (day, window) row of a published schedule
type PublishedRow struct {
	Date   string // Format: "Mon Jan 02 2006"
	Window string

	// Cells holds the worker labels assigned to each role
	Cells map[string][]string
}

// PublishedGap is an unfilled requirement listed below the schedule
type PublishedGap struct {
	Date     string
	Window   string
	Role     string
	Required int
	Assigned int
}

// PublishedSchedule represents a complete published week
type PublishedSchedule struct {
	WeekStart time.Time

	// Roles is the column order
	Roles []string
	Rows  []PublishedRow
	Gaps  []PublishedGap
}

// TabTitle returns the tab title of the week, e.g. "Week of Mon Jan 01 2024"
func TabTitle(weekStart time.Time) string {
	return "Week of " + weekStart.Format(TabDateFormat)
}

// PublishSchedule writes the schedule to the week's tab, creating the tab if needed.
// An existing tab is cleared and fully rewritten.
func (c *Client) PublishSchedule(spreadsheetID string, schedule *PublishedSchedule) error {
	title := TabTitle(schedule.WeekStart)

	existing, err := c.findSheet(spreadsheetID, title)
	if err != nil {
		return err
	}

	if existing == nil {
		if _, err := c.createSheet(spreadsheetID, title); err != nil {
			return fmt.Errorf("failed to create tab %q: %w", title, err)
		}
	} else if err := c.clearSheet(spreadsheetID, title); err != nil {
		return fmt.Errorf("failed to clear tab %q: %w", title, err)
	}

	if err := c.writeValues(spreadsheetID, title, ScheduleValues(schedule)); err != nil {
		return fmt.Errorf("failed to write tab %q: %w", title, err)
	}

	return nil
}

// ScheduleValues lays the schedule out as sheet rows: a header, one row per (day, window)
// with a column per role, then a gaps section when there are gaps
func ScheduleValues(schedule *PublishedSchedule) [][]interface{} {
	header := []interface{}{"Date", "Window"}
	for _, role := range schedule.Roles {
		header = append(header, role)
	}

	values := [][]interface{}{header}
	for _, row := range schedule.Rows {
		sheetRow := []interface{}{row.Date, row.Window}
		for _, role := range schedule.Roles {
			sheetRow = append(sheetRow, strings.Join(row.Cells[role], ", "))
		}
		values = append(values, sheetRow)
	}

	if len(schedule.Gaps) == 0 {
		return values
	}

	values = append(values,
		[]interface{}{},
		[]interface{}{"Gaps"},
		[]interface{}{"Date", "Window", "Role", "Required", "Assigned"},
	)
	for _, gap := range schedule.Gaps {
		values = append(values, []interface{}{gap.Date, gap.Window, gap.Role, gap.Required, gap.Assigned})
	}

	return values
}
