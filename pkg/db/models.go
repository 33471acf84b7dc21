package db

// DateFormat is the layout used for every calendar date stored as text
const DateFormat = "2006-01-02"

// Worker represents a database worker record
type Worker struct {
	ID               string   `yaml:"id" validate:"required"`
	Name             string   `yaml:"name" validate:"required"`
	PrimaryRole      string   `yaml:"primaryRole" validate:"required"`
	QualifiedRoles   []string `yaml:"qualifiedRoles,omitempty"`
	PrimaryTransport string   `yaml:"primaryTransport,omitempty"`
	TransportModes   []string `yaml:"transportModes,omitempty"`
	IsPriority       bool     `yaml:"isPriority,omitempty"`
	Active           bool     `yaml:"active"`
}

// Availability represents a recurring weekly availability declaration.
// Day is the day of the week (0 = Monday).
type Availability struct {
	WorkerID string `yaml:"workerID" validate:"required"`
	Day      int    `yaml:"day" validate:"min=0,max=6"`
	Window   string `yaml:"window" validate:"required"`
}

// Absence represents a period a worker cannot work.
// Either a date range or an RRULE (or both) may be set.
type Absence struct {
	ID        string `yaml:"id"`
	WorkerID  string `yaml:"workerID" validate:"required"`
	StartDate string `yaml:"startDate,omitempty" validate:"required_without=RRule"`
	EndDate   string `yaml:"endDate,omitempty" validate:"required_with=StartDate"`
	RRule     string `yaml:"rrule,omitempty"`
}

// Requirement represents the weekly staffing template of a (day, window, role)
type Requirement struct {
	Day      int    `yaml:"day" validate:"min=0,max=6"`
	Window   string `yaml:"window" validate:"required"`
	Role     string `yaml:"role" validate:"required"`
	Required int    `yaml:"required" validate:"min=0"`
	Max      int    `yaml:"max" validate:"min=0"`
}

// StartTimeTarget represents a desired head count starting at a given time
type StartTimeTarget struct {
	Day         int    `yaml:"day" validate:"min=0,max=6"`
	Window      string `yaml:"window" validate:"required"`
	Role        string `yaml:"role" validate:"required"`
	StartTime   string `yaml:"startTime" validate:"required"`
	TargetCount int    `yaml:"targetCount" validate:"min=0"`
	Active      bool   `yaml:"active"`
}

// Assignment represents a persisted assignment of a worker to a shift.
// WeekStart is the Monday of the scheduled week, Day is relative to it.
type Assignment struct {
	ID        string `yaml:"id"`
	RunID     string `yaml:"runID"`
	WeekStart string `yaml:"weekStart"`
	Day       int    `yaml:"day"`
	Window    string `yaml:"window"`
	Role      string `yaml:"role"`
	WorkerID  string `yaml:"workerID"`
	StartTime string `yaml:"startTime"`
	EndTime   string `yaml:"endTime"`
	Transport string `yaml:"transport,omitempty"`
	Score     int    `yaml:"score"`
}

// ScheduleRun represents a committed scheduling run for a week
type ScheduleRun struct {
	ID              string  `yaml:"id"`
	WeekStart       string  `yaml:"weekStart"`
	CreatedAt       string  `yaml:"createdAt"`
	CoverageScore   float64 `yaml:"coverageScore"`
	FairnessScore   float64 `yaml:"fairnessScore"`
	OverallScore    float64 `yaml:"overallScore"`
	GapCount        int     `yaml:"gapCount"`
	AssignmentCount int     `yaml:"assignmentCount"`
	Forced          bool    `yaml:"forced,omitempty"`
}

// Snapshot is the complete input data of the scheduler, as read from or written to a store
type Snapshot struct {
	Workers          []Worker          `yaml:"workers" validate:"dive"`
	Availability     []Availability    `yaml:"availability" validate:"dive"`
	Absences         []Absence         `yaml:"absences,omitempty" validate:"dive"`
	Requirements     []Requirement     `yaml:"requirements" validate:"dive"`
	StartTimeTargets []StartTimeTarget `yaml:"startTimeTargets,omitempty" validate:"dive"`
}
