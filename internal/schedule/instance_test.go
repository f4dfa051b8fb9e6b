package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlotGrid(t *testing.T) {
	assert.Equal(t, 0, SlotIndex(0, 0))
	assert.Equal(t, 5, SlotIndex(1, 2))
	assert.Equal(t, 11, SlotIndex(3, 2))
	for s := 0; s < NumSlots; s++ {
		assert.Equal(t, s, SlotIndex(SlotDay(s), SlotTime(s)))
	}
	assert.Equal(t, "Mon 17:30", SlotLabel(0))
	assert.Equal(t, "Thu 20:00", SlotLabel(11))
	assert.Equal(t, []int{3, 4, 5}, DaySlots(1))
}

func TestRoleEligibility(t *testing.T) {
	assert.True(t, RoleLead.CanLead())
	assert.False(t, RoleLead.CanFollow())
	assert.False(t, RoleFollow.CanLead())
	assert.True(t, RoleBothLead.CanLead())
	assert.True(t, RoleBothLead.CanFollow())
	assert.True(t, RoleBothFollow.CanFollow())
}

func validInstance() *Instance {
	return &Instance{
		Rooms:     []string{"big hall", "small hall"},
		Venues:    []string{"Mosilana"},
		RoomVenue: map[string]string{"big hall": "Mosilana", "small hall": "Mosilana"},
		Courses: []Course{
			{Name: "LH 1 /1"},
			{Name: "LH 1 /2"},
			{Name: "Solo Jazz", Kind: KindSolo},
		},
		Teachers: []Teacher{
			{Name: "Anna", Role: RoleLead, MaxCourses: 2, Interest: map[string]int{"LH 1 /1": 3, "LH 1 /2": 3, "Solo Jazz": 3}},
		},
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, validInstance().Validate())

	cases := []struct {
		name   string
		mutate func(*Instance)
	}{
		{"no rooms", func(in *Instance) { in.Rooms = nil }},
		{"unmapped room", func(in *Instance) { delete(in.RoomVenue, "big hall") }},
		{"unknown venue", func(in *Instance) { in.RoomVenue["big hall"] = "Kometa" }},
		{"duplicate course", func(in *Instance) { in.Courses = append(in.Courses, Course{Name: "LH 1 /1"}) }},
		{"pin for unknown course", func(in *Instance) { in.Pins.Slot = map[string]int{"Balboa": 0} }},
		{"pin out of range", func(in *Instance) { in.Pins.Slot = map[string]int{"LH 1 /1": 12} }},
		{"open and closed", func(in *Instance) {
			in.Pins.Open = []string{"LH 1 /1"}
			in.Pins.Closed = []string{"LH 1 /1"}
		}},
		{"closed with fixed slot", func(in *Instance) {
			in.Pins.Slot = map[string]int{"LH 1 /1": 3}
			in.Pins.Closed = []string{"LH 1 /1"}
		}},
		{"forced assignment of unknown teacher", func(in *Instance) {
			in.Pins.Teachers = map[string][]string{"Bart": {"LH 1 /1"}}
		}},
		{"room required and forbidden", func(in *Instance) {
			in.Pins.RoomRequired = map[string]string{"LH 1 /1": "big hall"}
			in.Pins.RoomForbidden = map[string]string{"LH 1 /1": "big hall"}
		}},
		{"singleton family", func(in *Instance) { in.Different = [][]string{{"LH 1 /1"}} }},
		{"family with unknown course", func(in *Instance) { in.DiffDay = [][]string{{"LH 1 /1", "Balboa"}} }},
		{"adjacent family larger than a day", func(in *Instance) {
			in.Courses = append(in.Courses, Course{Name: "A"}, Course{Name: "B"})
			in.Adjacent = [][]string{{"LH 1 /1", "LH 1 /2", "A", "B"}}
		}},
		{"adjacent member pinned closed", func(in *Instance) {
			in.Adjacent = [][]string{{"LH 1 /1", "LH 1 /2"}}
			in.Pins.Closed = []string{"LH 1 /2"}
		}},
		{"different family larger than a day's times", func(in *Instance) {
			in.Courses = append(in.Courses, Course{Name: "A"})
			in.Different = [][]string{{"LH 1 /1", "LH 1 /2", "Solo Jazz", "A"}}
		}},
		{"unknown weight override", func(in *Instance) { in.Weights = map[string]int{"tardiness": 3} }},
		{"blackout out of range", func(in *Instance) {
			in.Students = []Student{{Name: "Lucka", Blackout: []int{-1}}}
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInstance()
			tc.mutate(in)
			assert.Error(t, in.Validate())
		})
	}
}

func TestPenaltyWeight(t *testing.T) {
	in := validInstance()
	assert.Equal(t, 25, in.PenaltyWeight(PenaltyUtilization))
	assert.Equal(t, 1000000, in.PenaltyWeight(PenaltyPlaceholders))

	in.Weights = map[string]int{PenaltyUtilization: 0, PenaltySplit: 7}
	assert.Equal(t, 0, in.PenaltyWeight(PenaltyUtilization))
	assert.Equal(t, 7, in.PenaltyWeight(PenaltySplit))
	assert.Equal(t, 75, in.PenaltyWeight(PenaltyTeachDays))
}

func TestEligibility(t *testing.T) {
	in := validInstance()
	in.Teachers = append(in.Teachers,
		Teacher{Name: "Tom", Role: RoleFollow, MaxCourses: 2, Interest: map[string]int{"LH 1 /1": 2}},
		Teacher{Name: "LEADER", Role: RoleLead, MaxCourses: 3, Placeholder: true},
	)

	// Anna leads, never follows.
	assert.True(t, in.LeadEligible(0, 0))
	assert.False(t, in.FollowEligible(0, 0))

	// Tom has no interest answer for LH 1 /2, which is a hard exclusion.
	assert.True(t, in.FollowEligible(1, 0))
	assert.False(t, in.FollowEligible(1, 1))
	assert.False(t, in.MayTeach(1, 1))

	// The placeholder may cover any regular course but no solo course.
	assert.True(t, in.LeadEligible(2, 0))
	assert.True(t, in.MayTeach(2, 1))
	assert.False(t, in.MayTeach(2, 2))

	assert.Equal(t, []int{0, 1}, in.People())
}
