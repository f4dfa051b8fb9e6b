package model

import (
	"testing"

	"github.com/google/or-tools/ortools/sat/go/cpmodel"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swinghop/scheduler/internal/schedule"
)

// fakeBinding assigns values by variable index; unset variables are
// zero. Negated literals resolve against their underlying variable.
type fakeBinding map[cpmodel.VarIndex]int64

func (f fakeBinding) BoolValue(v cpmodel.BoolVar) bool {
	if v.Index() < 0 {
		return f[-v.Index()-1] == 0
	}
	return f[v.Index()] != 0
}

func (f fakeBinding) IntValue(v cpmodel.IntVar) int64 {
	return f[v.Index()]
}

func (f fakeBinding) set(v cpmodel.BoolVar) {
	f[v.Index()] = 1
}

func allFine() (a [schedule.NumSlots]int) {
	for i := range a {
		a[i] = schedule.PrefFine
	}
	return a
}

func testInstance() *schedule.Instance {
	return &schedule.Instance{
		Rooms:     []string{"big hall"},
		Venues:    []string{"Mosilana"},
		RoomVenue: map[string]string{"big hall": "Mosilana"},
		Courses: []schedule.Course{
			{Name: "LH 1 /1"},
			{Name: "Solo Jazz", Kind: schedule.KindSolo},
			{Name: "Open Training", Kind: schedule.KindOpen},
		},
		Teachers: []schedule.Teacher{
			{
				Name: "Anna", Role: schedule.RoleLead,
				MaxCourses: 2, IdealCourses: 1,
				Availability: allFine(),
				Interest:     map[string]int{"LH 1 /1": 3, "Solo Jazz": 3},
			},
			{
				Name: "Tom", Role: schedule.RoleFollow,
				MaxCourses: 2, IdealCourses: 1,
				Availability: allFine(),
				Interest:     map[string]int{"LH 1 /1": 3},
				AttendWishes: []string{"Open Training"},
			},
		},
		Students: []schedule.Student{
			{Name: "Lucka", Blackout: []int{0}, Desired: []string{"LH 1"}},
		},
	}
}

func termNames(m *Model) []string {
	return lo.Map(m.Terms, func(t Term, _ int) string { return t.Name })
}

func TestBuild(t *testing.T) {
	m, err := Build(testInstance())
	require.NoError(t, err)
	require.NotNil(t, m.Proto())
	assert.NotEmpty(t, m.Proto().GetVariables())

	// Without placeholders on the roster there is no takeover term.
	names := termNames(m)
	assert.NotContains(t, names, schedule.PenaltyPlaceholders)
	assert.Contains(t, names, schedule.PenaltyUtilization)
	assert.Contains(t, names, schedule.PenaltyAttendFree)
	assert.Contains(t, names, schedule.PenaltyStudBad)
	assert.Contains(t, names, schedule.PenaltyCoursesClosed)
	assert.Len(t, names, 14)

	for _, term := range m.Terms {
		assert.Equal(t, term.Weight, m.Inst.PenaltyWeight(term.Name))
	}
}

func TestBuildRejectsInvalidInstance(t *testing.T) {
	inst := testInstance()
	inst.Pins.Slot = map[string]int{"Balboa": 0}
	_, err := Build(inst)
	assert.Error(t, err)
}

func TestBuildSkipsZeroWeightTerms(t *testing.T) {
	inst := testInstance()
	inst.Weights = map[string]int{schedule.PenaltyUtilization: 0}
	m, err := Build(inst)
	require.NoError(t, err)
	assert.NotContains(t, termNames(m), schedule.PenaltyUtilization)
	assert.Len(t, m.Terms, 13)
}

func TestBuildCustomTerm(t *testing.T) {
	m, err := Build(testInstance(), CustomTerm("monday_misuse", 10,
		func(b *cpmodel.Builder, n *Network) (cpmodel.LinearArgument, int64) {
			expr := cpmodel.NewLinearExpr()
			for c := range n.Occupies[0] {
				expr.Add(n.Occupies[0][c])
			}
			return expr, int64(len(n.Occupies[0]))
		}, nil))
	require.NoError(t, err)
	assert.Contains(t, termNames(m), "monday_misuse")
	last := m.Terms[len(m.Terms)-1]
	assert.Equal(t, TermCustom, last.Kind)
	assert.Equal(t, 10, last.Weight)
}

func TestNetworkRoleVariables(t *testing.T) {
	m, err := Build(testInstance())
	require.NoError(t, err)

	// Anna can only lead the couple course, Tom can only follow it.
	_, ok := m.Net.LeadVar(0, 0)
	assert.True(t, ok)
	_, ok = m.Net.FollowVar(0, 0)
	assert.False(t, ok)
	_, ok = m.Net.FollowVar(1, 0)
	assert.True(t, ok)
	_, ok = m.Net.LeadVar(1, 0)
	assert.False(t, ok)

	// Static attendance resolved through name generalization.
	assert.True(t, m.Net.Attends[1][2])
	assert.False(t, m.Net.Attends[0][2])
}

func explainFor(t *testing.T, m *Model, name string, bind Binding) []string {
	t.Helper()
	for _, term := range m.Terms {
		if term.Name == name {
			return term.Explain(bind)
		}
	}
	t.Fatalf("no term named %q", name)
	return nil
}

func TestExplainEmptySchedule(t *testing.T) {
	m, err := Build(testInstance())
	require.NoError(t, err)
	bind := fakeBinding{}

	assert.ElementsMatch(t, []string{
		"Anna teaches 0, wanted 1",
		"Tom teaches 0, wanted 1",
	}, explainFor(t, m, schedule.PenaltyUtilization, bind))

	assert.ElementsMatch(t, []string{
		"LH 1 /1", "Solo Jazz", "Open Training",
	}, explainFor(t, m, schedule.PenaltyCoursesClosed, bind))

	assert.ElementsMatch(t, []string{"Anna", "Tom"},
		explainFor(t, m, schedule.PenaltyEverybodyTeach, bind))

	// Nothing is scheduled, so nothing can be missed or conflicted.
	assert.Empty(t, explainFor(t, m, schedule.PenaltyStudBad, bind))
	assert.Empty(t, explainFor(t, m, schedule.PenaltyAttendFree, bind))
}

func TestExplainPlacedCourse(t *testing.T) {
	m, err := Build(testInstance())
	require.NoError(t, err)

	// LH 1 /1 lands on Mon 17:30, taught by Anna and Tom.
	bind := fakeBinding{}
	bind.set(m.Net.Placement[0][0][0])
	bind.set(m.Net.Teaches[0][0])
	bind.set(m.Net.Teaches[1][0])

	assert.ElementsMatch(t, []string{"Solo Jazz", "Open Training"},
		explainFor(t, m, schedule.PenaltyCoursesClosed, bind))
	assert.Empty(t, explainFor(t, m, schedule.PenaltyEverybodyTeach, bind))

	// Mon 17:30 is in Lucka's blackout.
	assert.Equal(t, []string{"Lucka misses LH 1 /1 (Mon 17:30)"},
		explainFor(t, m, schedule.PenaltyStudBad, bind))

	// Both teach exactly their ideal load now.
	assert.Empty(t, explainFor(t, m, schedule.PenaltyUtilization, bind))
}
