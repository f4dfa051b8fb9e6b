package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swinghop/scheduler/internal/schedule"
)

func richInstance() *schedule.Instance {
	inst := testInstance()
	inst.Venues = []string{"Kometa", "Mosilana"}
	inst.Rooms = []string{"studio", "big hall"}
	inst.RoomVenue = map[string]string{"studio": "Kometa", "big hall": "Mosilana"}
	inst.Courses = append(inst.Courses,
		schedule.Course{Name: "LH 1 /2"},
		schedule.Course{Name: "LH 2"},
	)
	inst.Teachers[0].Interest["LH 1 /2"] = 3
	inst.Teachers[0].Interest["LH 2"] = 3
	inst.Teachers[1].Interest["LH 1 /2"] = 3
	inst.Teachers[1].Interest["LH 2"] = 3
	return inst
}

func TestBuildWithPinsAndFamilies(t *testing.T) {
	inst := richInstance()
	inst.Pins = schedule.Pins{
		Slot:          map[string]int{"LH 1 /1": 4},
		AllowedSlots:  map[string][]int{"Solo Jazz": {0, 1, 2}},
		Open:          []string{"LH 1 /1"},
		Closed:        []string{"Open Training"},
		Teachers:      map[string][]string{"Anna": {"LH 1 /1"}},
		RoomRequired:  map[string]string{"Solo Jazz": "studio"},
		RoomForbidden: map[string]string{"LH 2": "studio"},
	}
	inst.Different = [][]string{{"LH 1 /1", "LH 1 /2"}}
	inst.Adjacent = [][]string{{"LH 1 /2", "LH 2"}}

	m, err := Build(inst)
	require.NoError(t, err)
	assert.NotEmpty(t, m.Proto().GetConstraints())
}

func TestBuildRejectsIneligibleForcedTeacher(t *testing.T) {
	inst := richInstance()
	// Tom never leads and Anna never follows, so Tom cannot be forced
	// onto a solo course he has no interest in.
	inst.Pins = schedule.Pins{Teachers: map[string][]string{"Tom": {"Solo Jazz"}}}
	_, err := Build(inst)
	assert.Error(t, err)
}

func TestBuildWithPlaceholders(t *testing.T) {
	inst := testInstance()
	inst.Teachers = append(inst.Teachers,
		schedule.Teacher{Name: "LEADER", Role: schedule.RoleLead, MaxCourses: 3, Placeholder: true},
		schedule.Teacher{Name: "FOLLOW", Role: schedule.RoleFollow, MaxCourses: 3, Placeholder: true},
	)
	m, err := Build(inst)
	require.NoError(t, err)
	assert.Contains(t, termNames(m), schedule.PenaltyPlaceholders)
}
