package services

import (
	"fmt"
	"sort"
	"time"

	"github.com/jakechorley/shift-planner/pkg/core/model"
	"github.com/jakechorley/shift-planner/pkg/db"
)

// ParseWeekStart parses a YYYY-MM-DD date that must fall on a Monday
func ParseWeekStart(s string) (time.Time, error) {
	weekStart, err := time.Parse(db.DateFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid week start %q: %w", s, err)
	}
	if weekStart.Weekday() != time.Monday {
		return time.Time{}, fmt.Errorf("week start %s is a %s, expected a Monday", s, weekStart.Weekday())
	}
	return weekStart, nil
}

// weekStarts returns count consecutive Mondays starting at first
func weekStarts(first time.Time, count int) []time.Time {
	weeks := make([]time.Time, count)
	for i := 0; i < count; i++ {
		weeks[i] = first.AddDate(0, 0, 7*i)
	}
	return weeks
}

// workerNames maps worker IDs to display names
func workerNames(workers []db.Worker) map[string]string {
	names := make(map[string]string, len(workers))
	for _, w := range workers {
		names[w.ID] = w.Name
	}
	return names
}

// orderedRoles returns the roles by configured priority (highest first), then by name
func orderedRoles(roles map[model.Role]bool, priority map[model.Role]int) []model.Role {
	ordered := make([]model.Role, 0, len(roles))
	for role := range roles {
		ordered = append(ordered, role)
	}
	sort.Slice(ordered, func(i, j int) bool {
		pi, pj := priority[ordered[i]], priority[ordered[j]]
		if pi != pj {
			return pi > pj
		}
		return ordered[i] < ordered[j]
	})
	return ordered
}
