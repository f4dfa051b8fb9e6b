package schedule

import (
	"fmt"

	"github.com/samber/lo"
)

// Instance is the normalized preference table plus the static school
// layout: everything the model builder needs, already name-checked.
type Instance struct {
	Rooms     []string
	Venues    []string
	RoomVenue map[string]string

	Courses  []Course
	Teachers []Teacher
	Students []Student

	Pins Pins

	// Separation families over course names.
	Different [][]string // pairwise distinct day and distinct time
	DiffDay   [][]string // pairwise distinct day
	Adjacent  [][]string // same day, same venue, back-to-back times

	// Weights overrides the default penalty weights by name.
	Weights map[string]int
}

// CourseIndex returns the index of a specific course name, or -1.
func (in *Instance) CourseIndex(name string) int {
	return lo.IndexOf(lo.Map(in.Courses, func(c Course, _ int) string { return c.Name }), name)
}

// TeacherIndex returns the index of a teacher name, or -1.
func (in *Instance) TeacherIndex(name string) int {
	return lo.IndexOf(lo.Map(in.Teachers, func(t Teacher, _ int) string { return t.Name }), name)
}

// RoomIndex returns the index of a room name, or -1.
func (in *Instance) RoomIndex(name string) int {
	return lo.IndexOf(in.Rooms, name)
}

// VenueIndex returns the index of a venue name, or -1.
func (in *Instance) VenueIndex(name string) int {
	return lo.IndexOf(in.Venues, name)
}

// VenueOfRoom resolves a room index to its venue index.
func (in *Instance) VenueOfRoom(room int) int {
	return in.VenueIndex(in.RoomVenue[in.Rooms[room]])
}

// RoomsInVenue returns the indices of all rooms belonging to a venue.
func (in *Instance) RoomsInVenue(venue int) []int {
	var rooms []int
	for r := range in.Rooms {
		if in.VenueOfRoom(r) == venue {
			rooms = append(rooms, r)
		}
	}
	return rooms
}

// People returns the indices of real (non-placeholder) teachers. Only
// those carry attendance and occupancy semantics.
func (in *Instance) People() []int {
	var people []int
	for t := range in.Teachers {
		if !in.Teachers[t].Placeholder {
			people = append(people, t)
		}
	}
	return people
}

// LeadEligible reports whether the teacher may take the lead part of a
// regular course: role admits leading and interest is not a hard refusal.
func (in *Instance) LeadEligible(teacher, course int) bool {
	t := &in.Teachers[teacher]
	return t.Role.CanLead() && (t.Placeholder || t.InterestIn(in.Courses[course].Name) > PrefUnavailable)
}

// FollowEligible is the follow-side counterpart of LeadEligible.
func (in *Instance) FollowEligible(teacher, course int) bool {
	t := &in.Teachers[teacher]
	return t.Role.CanFollow() && (t.Placeholder || t.InterestIn(in.Courses[course].Name) > PrefUnavailable)
}

// MayTeach reports whether the teacher is in the course's eligibility
// pool at all. Open courses are never taught.
func (in *Instance) MayTeach(teacher, course int) bool {
	c := in.Courses[course]
	if c.Kind == KindOpen {
		return false
	}
	t := &in.Teachers[teacher]
	if t.Placeholder {
		return c.Kind == KindRegular
	}
	if t.InterestIn(c.Name) == PrefUnavailable {
		return false
	}
	if c.Kind == KindRegular {
		return in.LeadEligible(teacher, course) || in.FollowEligible(teacher, course)
	}
	return true
}

// Validate rejects configuration errors before any model is built.
// Data-quality issues (unknown names in social preference lists) are the
// ingestion layer's concern; by this point every reference must resolve.
func (in *Instance) Validate() error {
	if len(in.Rooms) == 0 {
		return fmt.Errorf("instance has no rooms")
	}
	for _, room := range in.Rooms {
		venue, ok := in.RoomVenue[room]
		if !ok {
			return fmt.Errorf("room %q is not mapped to a venue", room)
		}
		if in.VenueIndex(venue) < 0 {
			return fmt.Errorf("room %q maps to unknown venue %q", room, venue)
		}
	}
	seen := map[string]bool{}
	for _, c := range in.Courses {
		if seen[c.Name] {
			return fmt.Errorf("duplicate course %q", c.Name)
		}
		seen[c.Name] = true
	}
	for name, slot := range in.Pins.Slot {
		if in.CourseIndex(name) < 0 {
			return fmt.Errorf("pinned slot for unknown course %q", name)
		}
		if slot < 0 || slot >= NumSlots {
			return fmt.Errorf("pinned slot %d for course %q out of range", slot, name)
		}
	}
	for name, slots := range in.Pins.AllowedSlots {
		if in.CourseIndex(name) < 0 {
			return fmt.Errorf("allowed slots for unknown course %q", name)
		}
		for _, slot := range slots {
			if slot < 0 || slot >= NumSlots {
				return fmt.Errorf("allowed slot %d for course %q out of range", slot, name)
			}
		}
	}
	for _, name := range in.Pins.Open {
		if in.CourseIndex(name) < 0 {
			return fmt.Errorf("forced-open unknown course %q", name)
		}
		if lo.Contains(in.Pins.Closed, name) {
			return fmt.Errorf("course %q is pinned both open and closed", name)
		}
	}
	for _, name := range in.Pins.Closed {
		if in.CourseIndex(name) < 0 {
			return fmt.Errorf("forced-closed unknown course %q", name)
		}
		if _, ok := in.Pins.Slot[name]; ok {
			return fmt.Errorf("course %q is pinned closed but has a fixed slot", name)
		}
	}
	for teacher, courses := range in.Pins.Teachers {
		if in.TeacherIndex(teacher) < 0 {
			return fmt.Errorf("forced assignment for unknown teacher %q", teacher)
		}
		for _, course := range courses {
			if in.CourseIndex(course) < 0 {
				return fmt.Errorf("forced assignment of %q to unknown course %q", teacher, course)
			}
		}
	}
	for course, room := range in.Pins.RoomForbidden {
		if in.CourseIndex(course) < 0 || in.RoomIndex(room) < 0 {
			return fmt.Errorf("room-forbidden pin references unknown course %q or room %q", course, room)
		}
	}
	for course, room := range in.Pins.RoomRequired {
		if in.CourseIndex(course) < 0 || in.RoomIndex(room) < 0 {
			return fmt.Errorf("room-required pin references unknown course %q or room %q", course, room)
		}
		if forbidden, ok := in.Pins.RoomForbidden[course]; ok && forbidden == room {
			return fmt.Errorf("course %q requires and forbids room %q", course, room)
		}
	}
	for _, family := range append(append(in.Different, in.DiffDay...), in.Adjacent...) {
		if len(family) < 2 {
			return fmt.Errorf("separation family %v needs at least two courses", family)
		}
		for _, name := range family {
			if in.CourseIndex(name) < 0 {
				return fmt.Errorf("separation family references unknown course %q", name)
			}
		}
	}
	for _, family := range in.Adjacent {
		if len(family) > TimesPerDay {
			return fmt.Errorf("adjacent family %v larger than a day", family)
		}
		// Adjacency channels each member through a day/time decomposition
		// that only an open course can satisfy.
		for _, name := range family {
			if lo.Contains(in.Pins.Closed, name) {
				return fmt.Errorf("course %q is pinned closed but belongs to adjacent family %v", name, family)
			}
		}
	}
	// A "different" family needs a distinct time per member; the day has
	// only TimesPerDay of them.
	for _, family := range in.Different {
		if len(family) > TimesPerDay {
			return fmt.Errorf("different family %v larger than a day's times", family)
		}
	}
	for _, family := range in.DiffDay {
		if len(family) > NumDays {
			return fmt.Errorf("diffday family %v larger than the week", family)
		}
	}
	for name := range in.Weights {
		if !KnownPenalty(name) {
			return fmt.Errorf("weight override for unknown penalty %q", name)
		}
	}
	for _, s := range in.Students {
		for _, slot := range s.Blackout {
			if slot < 0 || slot >= NumSlots {
				return fmt.Errorf("student %q blackout slot %d out of range", s.Name, slot)
			}
		}
	}
	return nil
}
