package services

import (
	"context"
	"sync"
	"time"

	"github.com/jakechorley/shift-planner/internal/config"
	"github.com/jakechorley/shift-planner/pkg/clients/sheetsclient"
	"github.com/jakechorley/shift-planner/pkg/db"
)

// mockStore implements GenerateScheduleStore and PublishScheduleStore for testing
type mockStore struct {
	mu sync.Mutex

	snapshot    db.Snapshot
	assignments map[string][]db.Assignment

	insertedRuns          []db.ScheduleRun
	insertedAssignments   []db.Assignment
	relabelledAssignments []db.Assignment

	getWorkersErr     error
	getAssignmentsErr error
	insertErr         error
}

func (m *mockStore) GetWorkers(ctx context.Context) ([]db.Worker, error) {
	if m.getWorkersErr != nil {
		return nil, m.getWorkersErr
	}
	return m.snapshot.Workers, nil
}

func (m *mockStore) GetAvailability(ctx context.Context) ([]db.Availability, error) {
	return m.snapshot.Availability, nil
}

func (m *mockStore) GetAbsences(ctx context.Context) ([]db.Absence, error) {
	return m.snapshot.Absences, nil
}

func (m *mockStore) GetRequirements(ctx context.Context) ([]db.Requirement, error) {
	return m.snapshot.Requirements, nil
}

func (m *mockStore) GetStartTimeTargets(ctx context.Context) ([]db.StartTimeTarget, error) {
	return m.snapshot.StartTimeTargets, nil
}

func (m *mockStore) GetAssignments(ctx context.Context, weekStart string) ([]db.Assignment, error) {
	if m.getAssignmentsErr != nil {
		return nil, m.getAssignmentsErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.assignments[weekStart], nil
}

func (m *mockStore) InsertScheduleRun(ctx context.Context, run *db.ScheduleRun, assignments, relabelled []db.Assignment) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insertedRuns = append(m.insertedRuns, *run)
	m.insertedAssignments = append(m.insertedAssignments, assignments...)
	m.relabelledAssignments = append(m.relabelledAssignments, relabelled...)

	// Apply relabels to the stored week the way the real stores do
	stored := m.assignments[run.WeekStart]
	for _, r := range relabelled {
		for i := range stored {
			if stored[i].ID == r.ID {
				stored[i].Role = r.Role
				stored[i].Transport = r.Transport
			}
		}
	}
	m.assignments[run.WeekStart] = append(stored, assignments...)
	return nil
}

// mockRecorder implements RunRecorder for testing
type mockRecorder struct {
	mu       sync.Mutex
	outcomes map[string]string
	failures int
}

func (m *mockRecorder) RecordRun(week, outcome string, coverage float64, gaps int, elapsed time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.outcomes == nil {
		m.outcomes = make(map[string]string)
	}
	m.outcomes[week] = outcome
}

func (m *mockRecorder) RecordFailure(elapsed time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures++
}

// mockPublisher implements SchedulePublisher for testing
type mockPublisher struct {
	spreadsheetID string
	published     *sheetsclient.PublishedSchedule
	publishErr    error
}

func (m *mockPublisher) PublishSchedule(spreadsheetID string, schedule *sheetsclient.PublishedSchedule) error {
	if m.publishErr != nil {
		return m.publishErr
	}
	m.spreadsheetID = spreadsheetID
	m.published = schedule
	return nil
}

// mockImporter implements db.SnapshotImporter for testing
type mockImporter struct {
	imported  *db.Snapshot
	importErr error
}

func (m *mockImporter) ImportSnapshot(ctx context.Context, snapshot *db.Snapshot) error {
	if m.importErr != nil {
		return m.importErr
	}
	m.imported = snapshot
	return nil
}

// mockRunLister implements ScheduleRunLister for testing
type mockRunLister struct {
	runs   []db.ScheduleRun
	getErr error
}

func (m *mockRunLister) GetScheduleRuns(ctx context.Context) ([]db.ScheduleRun, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.runs, nil
}

const testWeek = "2024-01-01"

var testWeekStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// newTestStore returns a store with a chef and a waiter available on Monday lunch,
// an inactive chef, and a Monday lunch requirement for one chef and one waiter
func newTestStore() *mockStore {
	return &mockStore{
		snapshot: db.Snapshot{
			Workers: []db.Worker{
				{ID: "alice", Name: "Alice", PrimaryRole: "Chef", PrimaryTransport: "bike", Active: true},
				{ID: "bob", Name: "Bob", PrimaryRole: "Waiter", PrimaryTransport: "bike", Active: true},
				{ID: "carol", Name: "Carol", PrimaryRole: "Chef", PrimaryTransport: "bike", Active: false},
			},
			Availability: []db.Availability{
				{WorkerID: "alice", Day: 0, Window: "Lunch"},
				{WorkerID: "bob", Day: 0, Window: "Lunch"},
				{WorkerID: "carol", Day: 0, Window: "Lunch"},
			},
			Requirements: []db.Requirement{
				{Day: 0, Window: "Lunch", Role: "Chef", Required: 1, Max: 1},
				{Day: 0, Window: "Lunch", Role: "Waiter", Required: 1, Max: 1},
			},
		},
		assignments: map[string][]db.Assignment{},
	}
}

func newTestConfig() *config.Config {
	return &config.Config{
		Storage:      config.StorageConfig{Backend: config.BackendFile, SnapshotPath: "snapshot.yaml"},
		Publish:      config.PublishConfig{SpreadsheetID: "sheet-1"},
		RolePriority: map[string]int{"Chef": 10, "Waiter": 5},
	}
}
