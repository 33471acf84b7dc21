package model

import (
	"fmt"
	"time"
)

// Role is a job function a worker may perform in a slot (e.g. "Chef", "Rider")
type Role string

// TransportMode is the way a worker travels during a shift (e.g. "scooter", "car")
type TransportMode string

// WindowName identifies a recurring service period within a day (e.g. "Lunch", "Dinner")
type WindowName string

const (
	WindowLunch  WindowName = "Lunch"
	WindowDinner WindowName = "Dinner"
)

// DaysPerWeek is the number of days in a scheduling week. Day 0 is Monday.
const DaysPerWeek = 7

// TimeOfDay is a wall-clock time expressed as minutes since midnight
type TimeOfDay int

// ParseTimeOfDay parses a "15:04" formatted string
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return TimeOfDay(t.Hour()*60 + t.Minute()), nil
}

// MustParseTimeOfDay is ParseTimeOfDay for literals known to be valid
func MustParseTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// Window is a named service period with a fixed outer bound
type Window struct {
	Name  WindowName
	Start TimeOfDay
	End   TimeOfDay
}

// SlotKey identifies a (day, window) pair within the week
type SlotKey struct {
	Day    int
	Window WindowName
}

func (k SlotKey) String() string {
	return fmt.Sprintf("%s %s", DayName(k.Day), k.Window)
}

// RoleSlotKey identifies a (day, window, role) triple within the week
type RoleSlotKey struct {
	Day    int
	Window WindowName
	Role   Role
}

// Slot returns the (day, window) part of the key
func (k RoleSlotKey) Slot() SlotKey {
	return SlotKey{Day: k.Day, Window: k.Window}
}

// DateRange is an inclusive range of calendar dates (time of day is ignored)
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether the calendar date of t falls within the range
func (r DateRange) Contains(t time.Time) bool {
	d := truncateDay(t)
	return !d.Before(truncateDay(r.Start)) && !d.After(truncateDay(r.End))
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// WorkerProfile is the read-only view of a worker supplied to the engine
type WorkerProfile struct {
	ID               string
	Name             string
	PrimaryRole      Role
	QualifiedRoles   []Role
	PrimaryTransport TransportMode
	TransportModes   []TransportMode
	Availability     map[SlotKey]bool
	Absences         []DateRange
	IsPriority       bool
}

// HasRole returns true if the worker is qualified for the given role
func (w *WorkerProfile) HasRole(role Role) bool {
	if w.PrimaryRole == role {
		return true
	}
	for _, r := range w.QualifiedRoles {
		if r == role {
			return true
		}
	}
	return false
}

// RoleCount returns the number of distinct roles the worker is qualified for
func (w *WorkerProfile) RoleCount() int {
	seen := make(map[Role]bool, len(w.QualifiedRoles)+1)
	if w.PrimaryRole != "" {
		seen[w.PrimaryRole] = true
	}
	for _, r := range w.QualifiedRoles {
		seen[r] = true
	}
	return len(seen)
}

// IsAvailable returns true if the worker declared availability for the slot
func (w *WorkerProfile) IsAvailable(slot SlotKey) bool {
	return w.Availability[slot]
}

// IsAbsent returns true if any absence covers the given date
func (w *WorkerProfile) IsAbsent(date time.Time) bool {
	for _, a := range w.Absences {
		if a.Contains(date) {
			return true
		}
	}
	return false
}

// AlternateTransport returns a transport mode other than the given one, if the worker has one
func (w *WorkerProfile) AlternateTransport(excluded TransportMode) (TransportMode, bool) {
	if w.PrimaryTransport != "" && w.PrimaryTransport != excluded {
		return w.PrimaryTransport, true
	}
	for _, m := range w.TransportModes {
		if m != excluded {
			return m, true
		}
	}
	return "", false
}

// ShiftRequirement is the staffing target for one (day, window, role) triple
type ShiftRequirement struct {
	Day      int
	Window   WindowName
	Role     Role
	Required int
	Max      int

	// Priority is derived by the prioritizer, higher is more important
	Priority int
}

// Key returns the (day, window, role) key of the requirement
func (r *ShiftRequirement) Key() RoleSlotKey {
	return RoleSlotKey{Day: r.Day, Window: r.Window, Role: r.Role}
}

// Slot returns the (day, window) of the requirement
func (r *ShiftRequirement) Slot() SlotKey {
	return SlotKey{Day: r.Day, Window: r.Window}
}

// Assignment binds a worker to a (day, window, role, start time)
type Assignment struct {
	ID        string
	WorkerID  string
	Day       int
	Window    WindowName
	Role      Role
	StartTime TimeOfDay
	EndTime   TimeOfDay
	Transport TransportMode
	Score     int

	// Existing marks assignments that were committed before this run
	Existing bool

	// Relabelled marks existing assignments whose role or transport was changed by this run
	Relabelled bool
}

// Slot returns the (day, window) of the assignment
func (a *Assignment) Slot() SlotKey {
	return SlotKey{Day: a.Day, Window: a.Window}
}

// Key returns the (day, window, role) of the assignment
func (a *Assignment) Key() RoleSlotKey {
	return RoleSlotKey{Day: a.Day, Window: a.Window, Role: a.Role}
}

// StartTimeDistributionTarget is the desired head count starting at a given time
type StartTimeDistributionTarget struct {
	Day         int
	Window      WindowName
	Role        Role
	StartTime   TimeOfDay
	TargetCount int
	Active      bool
}

// TransportCapacityConfig caps concurrent use of a scarce transport mode per (day, window)
type TransportCapacityConfig struct {
	LimitedMode  TransportMode
	LimitedRoles []Role
	MaxPerSlot   int
}

// DefaultMaxPerSlot is used when no transport capacity has been configured
const DefaultMaxPerSlot = 2

// IsLimitedRole returns true if the role is subject to the capacity cap
func (c TransportCapacityConfig) IsLimitedRole(role Role) bool {
	for _, r := range c.LimitedRoles {
		if r == role {
			return true
		}
	}
	return false
}

// GapRecord is a shortfall between required and assigned staff after all phases
type GapRecord struct {
	Day      int
	Window   WindowName
	Role     Role
	Required int
	Assigned int
	Missing  int
}

// QualityMetrics summarises the schedule quality
type QualityMetrics struct {
	CoverageScore float64
	FairnessScore float64
	OverallScore  float64
}

// ScheduleResult is the output of a run
type ScheduleResult struct {
	Assignments   []*Assignment
	Gaps          []GapRecord
	Metrics       QualityMetrics
	RoleCounts    map[Role]int
	WorkerCounts  map[string]int
	TotalRequired int
	TotalAssigned int
}

// DayName returns the short english name for a day index (0 = Monday)
func DayName(day int) string {
	names := [DaysPerWeek]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}
	if day < 0 || day >= DaysPerWeek {
		return fmt.Sprintf("Day%d", day)
	}
	return names[day]
}
