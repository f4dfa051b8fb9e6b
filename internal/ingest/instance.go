// Package ingest turns instance files and raw survey exports into a
// normalized schedule.Instance.
package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/swinghop/scheduler/internal/schedule"
)

type rawCourse struct {
	Name string
	Kind string
}

type rawTeacher struct {
	Name         string
	Role         string
	Max          int
	Ideal        int
	Availability []int
	Interest     map[string]int
	WantsWith    []string `mapstructure:"wantsWith"`
	NotWith      []string `mapstructure:"notWith"`
	MinDays      string   `mapstructure:"minDays"`
	SplitOK      string   `mapstructure:"splitOk"`
	BestPref     string   `mapstructure:"bestPref"`
	Attend       []string
}

type rawStudent struct {
	Name     string
	Blackout []string
	Desired  []string
}

type rawPins struct {
	Slot          map[string]string
	AllowedSlots  map[string][]string `mapstructure:"allowedSlots"`
	Open          []string
	Closed        []string
	Teachers      map[string][]string
	RoomForbidden map[string]string `mapstructure:"roomForbidden"`
	RoomRequired  map[string]string `mapstructure:"roomRequired"`
}

type rawInstance struct {
	Venues         map[string][]string
	Courses        []rawCourse
	Teachers       []rawTeacher
	Students       []rawStudent
	Pins           rawPins
	Different      [][]string
	DiffDay        [][]string `mapstructure:"diffDay"`
	Adjacent       [][]string
	Weights        map[string]int
	NoPlaceholders bool `mapstructure:"noPlaceholders"`
}

// LoadInstance reads an instance file. Slots are written as labels
// ("Mon 17:30") and resolved to indices here; everything downstream
// works with indices only.
func LoadInstance(path string) (*schedule.Instance, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading instance: %w", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(bytes, &fields); err != nil {
		return nil, fmt.Errorf("parsing instance: %w", err)
	}
	var raw rawInstance
	if err := mapstructure.Decode(fields, &raw); err != nil {
		return nil, fmt.Errorf("decoding instance: %w", err)
	}
	return buildInstance(&raw)
}

func buildInstance(raw *rawInstance) (*schedule.Instance, error) {
	inst := &schedule.Instance{
		RoomVenue: make(map[string]string),
		Different: raw.Different,
		DiffDay:   raw.DiffDay,
		Adjacent:  raw.Adjacent,
		Weights:   raw.Weights,
	}

	// Map iteration order is not stable; venue order must be.
	inst.Venues = make([]string, 0, len(raw.Venues))
	for venue := range raw.Venues {
		inst.Venues = append(inst.Venues, venue)
	}
	sort.Strings(inst.Venues)
	for _, venue := range inst.Venues {
		for _, room := range raw.Venues[venue] {
			inst.Rooms = append(inst.Rooms, room)
			inst.RoomVenue[room] = venue
		}
	}

	for _, rc := range raw.Courses {
		kind, err := parseKind(rc.Kind)
		if err != nil {
			return nil, fmt.Errorf("course %q: %w", rc.Name, err)
		}
		inst.Courses = append(inst.Courses, schedule.Course{Name: rc.Name, Kind: kind})
	}

	for _, rt := range raw.Teachers {
		teacher, err := buildTeacher(&rt)
		if err != nil {
			return nil, fmt.Errorf("teacher %q: %w", rt.Name, err)
		}
		inst.Teachers = append(inst.Teachers, teacher)
	}
	if !raw.NoPlaceholders {
		inst.Teachers = append(inst.Teachers, Placeholders(len(inst.Courses))...)
	}

	for _, rs := range raw.Students {
		blackout, err := parseSlots(rs.Blackout)
		if err != nil {
			return nil, fmt.Errorf("student %q: %w", rs.Name, err)
		}
		inst.Students = append(inst.Students, schedule.Student{
			Name:     rs.Name,
			Blackout: blackout,
			Desired:  rs.Desired,
		})
	}

	pins, err := buildPins(&raw.Pins)
	if err != nil {
		return nil, err
	}
	inst.Pins = pins
	return inst, nil
}

// Placeholders returns the fake stand-in couple that absorbs otherwise
// unstaffable courses. They are available always and interested in
// everything, at an enormous penalty per takeover.
func Placeholders(numCourses int) []schedule.Teacher {
	fake := func(name string, role schedule.Role) schedule.Teacher {
		t := schedule.Teacher{
			Name:        name,
			Role:        role,
			MaxCourses:  numCourses,
			Placeholder: true,
		}
		for s := range t.Availability {
			t.Availability[s] = schedule.PrefFine
		}
		return t
	}
	return []schedule.Teacher{
		fake("LEADER", schedule.RoleLead),
		fake("FOLLOW", schedule.RoleFollow),
	}
}

func buildTeacher(rt *rawTeacher) (schedule.Teacher, error) {
	t := schedule.Teacher{
		Name:         rt.Name,
		MaxCourses:   rt.Max,
		IdealCourses: rt.Ideal,
		Interest:     rt.Interest,
		WantsWith:    rt.WantsWith,
		NotWith:      rt.NotWith,
		AttendWishes: rt.Attend,
	}
	role, err := parseRole(rt.Role)
	if err != nil {
		return t, err
	}
	t.Role = role
	if len(rt.Availability) != schedule.NumSlots {
		return t, fmt.Errorf("availability needs %d values, got %d", schedule.NumSlots, len(rt.Availability))
	}
	copy(t.Availability[:], rt.Availability)
	switch rt.MinDays {
	case "", "indifferent":
		t.MinDays = schedule.MinDaysIndifferent
	case "fewer_days":
		t.MinDays = schedule.MinDaysFewerDays
	case "fewer_per_day":
		t.MinDays = schedule.MinDaysFewerPerDay
	default:
		return t, fmt.Errorf("unknown minDays value %q", rt.MinDays)
	}
	switch rt.SplitOK {
	case "", "indifferent":
		t.SplitOK = schedule.SplitIndifferent
	case "dislikes_gaps":
		t.SplitOK = schedule.SplitDislikesGaps
	case "tolerates_gaps":
		t.SplitOK = schedule.SplitToleratesGaps
	default:
		return t, fmt.Errorf("unknown splitOk value %q", rt.SplitOK)
	}
	switch rt.BestPref {
	case "", "none":
		t.BestPref = schedule.BestNone
	case "time":
		t.BestPref = schedule.BestTime
	case "course":
		t.BestPref = schedule.BestCourse
	case "person":
		t.BestPref = schedule.BestPerson
	default:
		return t, fmt.Errorf("unknown bestPref value %q", rt.BestPref)
	}
	return t, nil
}

func buildPins(raw *rawPins) (schedule.Pins, error) {
	pins := schedule.Pins{
		Open:          raw.Open,
		Closed:        raw.Closed,
		Teachers:      raw.Teachers,
		RoomForbidden: raw.RoomForbidden,
		RoomRequired:  raw.RoomRequired,
	}
	if len(raw.Slot) > 0 {
		pins.Slot = make(map[string]int, len(raw.Slot))
		for course, label := range raw.Slot {
			slot, err := ParseSlot(label)
			if err != nil {
				return pins, fmt.Errorf("pinned slot for %q: %w", course, err)
			}
			pins.Slot[course] = slot
		}
	}
	if len(raw.AllowedSlots) > 0 {
		pins.AllowedSlots = make(map[string][]int, len(raw.AllowedSlots))
		for course, labels := range raw.AllowedSlots {
			slots, err := parseSlots(labels)
			if err != nil {
				return pins, fmt.Errorf("allowed slots for %q: %w", course, err)
			}
			pins.AllowedSlots[course] = slots
		}
	}
	return pins, nil
}

// ParseSlot resolves a "Mon 17:30" style label to a slot index.
func ParseSlot(label string) (int, error) {
	parts := strings.Fields(label)
	if len(parts) != 2 {
		return 0, fmt.Errorf("malformed slot label %q", label)
	}
	day, time := -1, -1
	for d, name := range schedule.DayNames {
		if name == parts[0] {
			day = d
		}
	}
	for t, name := range schedule.TimeNames {
		if name == parts[1] {
			time = t
		}
	}
	if day < 0 || time < 0 {
		return 0, fmt.Errorf("unknown slot label %q", label)
	}
	return schedule.SlotIndex(day, time), nil
}

func parseSlots(labels []string) ([]int, error) {
	var slots []int
	for _, label := range labels {
		slot, err := ParseSlot(label)
		if err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

func parseKind(kind string) (schedule.CourseKind, error) {
	switch kind {
	case "", "regular":
		return schedule.KindRegular, nil
	case "solo":
		return schedule.KindSolo, nil
	case "open":
		return schedule.KindOpen, nil
	}
	return 0, fmt.Errorf("unknown course kind %q", kind)
}

func parseRole(role string) (schedule.Role, error) {
	switch role {
	case "lead":
		return schedule.RoleLead, nil
	case "follow":
		return schedule.RoleFollow, nil
	case "both_lead":
		return schedule.RoleBothLead, nil
	case "both_follow":
		return schedule.RoleBothFollow, nil
	}
	return 0, fmt.Errorf("unknown role %q", role)
}
