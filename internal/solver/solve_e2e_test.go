package solver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swinghop/scheduler/internal/model"
	"github.com/swinghop/scheduler/internal/schedule"
)

// These tests run the native CP-SAT solver on miniature instances.

func TestSolveCoupleCourse(t *testing.T) {
	inst := &schedule.Instance{
		Rooms:     []string{"big hall"},
		Venues:    []string{"Mosilana"},
		RoomVenue: map[string]string{"big hall": "Mosilana"},
		Courses:   []schedule.Course{{Name: "LH 1 /1"}},
		Teachers: []schedule.Teacher{
			{
				Name: "Anna", Role: schedule.RoleLead,
				MaxCourses: 1, IdealCourses: 1,
				Availability: allFine(),
				Interest:     map[string]int{"LH 1 /1": 3},
			},
			{
				Name: "Tom", Role: schedule.RoleFollow,
				MaxCourses: 1, IdealCourses: 1,
				Availability: allFine(),
				Interest:     map[string]int{"LH 1 /1": 3},
			},
		},
		Pins: schedule.Pins{Open: []string{"LH 1 /1"}},
	}
	m, err := model.Build(inst)
	require.NoError(t, err)

	result, err := Solve(context.Background(), m, Options{TimeLimit: 30 * time.Second})
	require.NoError(t, err)
	assert.Equal(t, StatusOptimal, result.Status)
	require.NotNil(t, result.Solution)

	require.Len(t, result.Solution.Assignments, 1)
	a := result.Solution.Assignments[0]
	assert.Equal(t, "LH 1 /1", a.Course)
	assert.Equal(t, []string{"Anna (lead)", "Tom (follow)"}, a.Staff)

	// Everybody teaches their ideal load in their preferred slots.
	assert.Equal(t, int64(0), result.Solution.Penalty)
	assert.Equal(t, int64(0), result.Objective)
}

func TestSolveSeparationFamily(t *testing.T) {
	inst := &schedule.Instance{
		Rooms:     []string{"big hall"},
		Venues:    []string{"Mosilana"},
		RoomVenue: map[string]string{"big hall": "Mosilana"},
		Courses: []schedule.Course{
			{Name: "Balboa 1", Kind: schedule.KindSolo},
			{Name: "Balboa 2", Kind: schedule.KindSolo},
		},
		Teachers: []schedule.Teacher{
			{
				Name: "Anna", Role: schedule.RoleLead,
				MaxCourses: 2, IdealCourses: 2,
				Availability: allFine(),
				Interest:     map[string]int{"Balboa 1": 3, "Balboa 2": 3},
			},
		},
		Pins: schedule.Pins{
			Open: []string{"Balboa 1", "Balboa 2"},
			// The family leaves exactly one non-overlapping arrangement.
			AllowedSlots: map[string][]int{
				"Balboa 1": {0},
				"Balboa 2": {0, 4},
			},
		},
		Different: [][]string{{"Balboa 1", "Balboa 2"}},
	}
	m, err := model.Build(inst)
	require.NoError(t, err)

	result, err := Solve(context.Background(), m, Options{TimeLimit: 30 * time.Second})
	require.NoError(t, err)
	require.Len(t, result.Solution.Assignments, 2)
	assert.Equal(t, 0, result.Solution.Assignments[0].Slot)
	assert.Equal(t, 4, result.Solution.Assignments[1].Slot)
	assert.Equal(t, 2, result.Solution.Workload["Anna"])
}

func TestSolveStudentBlackout(t *testing.T) {
	inst := &schedule.Instance{
		Rooms:     []string{"big hall"},
		Venues:    []string{"Mosilana"},
		RoomVenue: map[string]string{"big hall": "Mosilana"},
		Courses:   []schedule.Course{{Name: "Solo Jazz", Kind: schedule.KindSolo}},
		Teachers: []schedule.Teacher{
			{
				Name: "Anna", Role: schedule.RoleLead,
				MaxCourses: 1, IdealCourses: 1,
				Availability: allFine(),
				Interest:     map[string]int{"Solo Jazz": 3},
			},
		},
		Students: []schedule.Student{
			// Every slot the course may run in is blacked out.
			{Name: "Lucka", Blackout: []int{0, 1}, Desired: []string{"Solo Jazz"}},
		},
		Pins: schedule.Pins{
			Open:         []string{"Solo Jazz"},
			AllowedSlots: map[string][]int{"Solo Jazz": {0, 1}},
		},
	}
	m, err := model.Build(inst)
	require.NoError(t, err)

	result, err := Solve(context.Background(), m, Options{TimeLimit: 30 * time.Second})
	require.NoError(t, err)

	var entry *LedgerEntry
	for i := range result.Solution.Ledger {
		if result.Solution.Ledger[i].Name == schedule.PenaltyStudBad {
			entry = &result.Solution.Ledger[i]
		}
	}
	require.NotNil(t, entry)
	assert.Equal(t, int64(1), entry.Raw)
	require.Len(t, entry.Details, 1)
	assert.Contains(t, entry.Details[0], "Lucka misses Solo Jazz")
}

func TestSolveHonorsHardExclusions(t *testing.T) {
	avail := allFine()
	avail[0] = schedule.PrefUnavailable
	inst := &schedule.Instance{
		Rooms:     []string{"big hall"},
		Venues:    []string{"Mosilana"},
		RoomVenue: map[string]string{"big hall": "Mosilana"},
		Courses: []schedule.Course{
			{Name: "LH 1 /1"},
			{Name: "Solo Jazz", Kind: schedule.KindSolo},
		},
		Teachers: []schedule.Teacher{
			{
				Name: "Anna", Role: schedule.RoleLead,
				MaxCourses: 1, IdealCourses: 1,
				Availability: avail,
				Interest:     map[string]int{"LH 1 /1": 3, "Solo Jazz": 0},
				NotWith:      []string{"Bea"},
			},
			{
				Name: "Tom", Role: schedule.RoleFollow,
				MaxCourses: 1, IdealCourses: 1,
				Availability: allFine(),
				Interest:     map[string]int{"LH 1 /1": 3},
			},
			{
				Name: "Bea", Role: schedule.RoleFollow,
				MaxCourses: 1, IdealCourses: 0,
				Availability: allFine(),
				Interest:     map[string]int{"LH 1 /1": 3},
			},
			{
				Name: "Cleo", Role: schedule.RoleLead,
				MaxCourses: 1, IdealCourses: 1,
				Availability: allFine(),
				Interest:     map[string]int{"Solo Jazz": 3},
			},
		},
		Pins: schedule.Pins{
			Open:         []string{"LH 1 /1", "Solo Jazz"},
			AllowedSlots: map[string][]int{"LH 1 /1": {0, 1}},
		},
	}
	m, err := model.Build(inst)
	require.NoError(t, err)

	for run := 0; run < 2; run++ {
		result, err := Solve(context.Background(), m, Options{TimeLimit: 30 * time.Second})
		require.NoError(t, err)
		sol := result.Solution
		require.Len(t, sol.Assignments, 2)

		// Nobody exceeds their workload cap.
		for name, count := range sol.Workload {
			i := inst.TeacherIndex(name)
			require.GreaterOrEqual(t, i, 0)
			assert.LessOrEqual(t, count, inst.Teachers[i].MaxCourses)
		}

		for _, a := range sol.Assignments {
			switch a.Course {
			case "LH 1 /1":
				// Anna is hard-unavailable on Mon 17:30, leaving one
				// allowed slot, and Bea never shares a course with her.
				assert.Equal(t, 1, a.Slot)
				assert.Equal(t, []string{"Anna (lead)", "Tom (follow)"}, a.Staff)
			case "Solo Jazz":
				// Anna answered 0 for Solo Jazz, so only Cleo can hold it.
				assert.Equal(t, []string{"Cleo"}, a.Staff)
			}
		}
	}
}

func TestSolveForcedOpenWithoutTeachers(t *testing.T) {
	inst := &schedule.Instance{
		Rooms:     []string{"big hall"},
		Venues:    []string{"Mosilana"},
		RoomVenue: map[string]string{"big hall": "Mosilana"},
		Courses:   []schedule.Course{{Name: "Solo Jazz", Kind: schedule.KindSolo}},
		Pins:      schedule.Pins{Open: []string{"Solo Jazz"}},
	}
	m, err := model.Build(inst)
	require.NoError(t, err)

	result, err := Solve(context.Background(), m, Options{TimeLimit: 30 * time.Second})
	assert.ErrorIs(t, err, ErrInfeasible)
	assert.Equal(t, StatusInfeasible, result.Status)
}
