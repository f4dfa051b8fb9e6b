package model

import (
	"fmt"

	"github.com/google/or-tools/ortools/sat/go/cpmodel"

	"github.com/swinghop/scheduler/internal/schedule"
)

// postConstraints encodes the rules a timetable must never violate.
// Violating any of them makes the whole instance infeasible; nothing here
// is ever relaxed.
func postConstraints(b *cpmodel.Builder, inst *schedule.Instance, n *Network) error {
	numC := len(inst.Courses)
	numT := len(inst.Teachers)
	numR := len(inst.Rooms)
	numV := len(inst.Venues)

	// At most one course per room and slot.
	for s := 0; s < schedule.NumSlots; s++ {
		for r := 0; r < numR; r++ {
			courses := make([]cpmodel.BoolVar, numC)
			for c := range courses {
				courses[c] = n.Placement[s][r][c]
			}
			b.AddAtMostOne(courses...)
		}
	}

	// A teacher cannot run two rooms at the same time.
	for t := 0; t < numT; t++ {
		for s := 0; s < schedule.NumSlots; s++ {
			b.AddAtMostOne(n.TeachesInSlot[t][s]...)
		}
	}

	// Role cardinality per course kind, gated on the active flag, with
	// the complement of each eligibility pool forced out entirely.
	for c, course := range inst.Courses {
		switch course.Kind {
		case schedule.KindRegular:
			var leads, follows []cpmodel.BoolVar
			for t := 0; t < numT; t++ {
				if lead, ok := n.LeadVar(t, c); ok {
					leads = append(leads, lead)
				}
				if follow, ok := n.FollowVar(t, c); ok {
					follows = append(follows, follow)
				}
				if !inst.LeadEligible(t, c) && !inst.FollowEligible(t, c) {
					b.AddEquality(n.Teaches[t][c], cpmodel.NewConstant(0))
				}
			}
			equivSumExactly(b, n.CourseActive[c], sumOf(leads...), 1)
			equivSumExactly(b, n.CourseActive[c], sumOf(follows...), 1)
		case schedule.KindSolo:
			var eligible []cpmodel.BoolVar
			for t := 0; t < numT; t++ {
				if inst.MayTeach(t, c) {
					eligible = append(eligible, n.Teaches[t][c])
				} else {
					b.AddEquality(n.Teaches[t][c], cpmodel.NewConstant(0))
				}
			}
			equivSumExactly(b, n.CourseActive[c], sumOf(eligible...), 1)
		case schedule.KindOpen:
			for t := 0; t < numT; t++ {
				b.AddEquality(n.Teaches[t][c], cpmodel.NewConstant(0))
			}
		}
	}

	// Workload ceilings. Placeholders are exempt: they exist to absorb
	// whatever cannot be staffed.
	for t := 0; t < numT; t++ {
		if inst.Teachers[t].Placeholder {
			continue
		}
		b.AddLessOrEqual(n.TeachCount[t], cpmodel.NewConstant(int64(inst.Teachers[t].MaxCourses)))
	}

	// Hard slot unavailability.
	for t := 0; t < numT; t++ {
		if inst.Teachers[t].Placeholder {
			continue
		}
		for s := 0; s < schedule.NumSlots; s++ {
			if inst.Teachers[t].Availability[s] == schedule.PrefUnavailable {
				b.AddEquality(n.TeacherBusy[t][s], cpmodel.NewConstant(0))
			}
		}
	}

	// Declared incompatible pairs never share a course.
	for t1 := 0; t1 < numT; t1++ {
		for _, other := range inst.Teachers[t1].NotWith {
			t2 := inst.TeacherIndex(other)
			if t2 < 0 {
				// Ingestion warns and keeps the name; tolerate it here.
				continue
			}
			for c := 0; c < numC; c++ {
				b.AddAtMostOne(n.Teaches[t1][c], n.Teaches[t2][c])
			}
		}
	}

	// A teacher commits to a single venue per day.
	if numV > 1 {
		for t := 0; t < numT; t++ {
			for d := 0; d < schedule.NumDays; d++ {
				b.AddAtMostOne(n.TeacherVenueDay[t][d]...)
			}
		}
	}

	if err := postPins(b, inst, n); err != nil {
		return err
	}
	postSeparation(b, inst, n)
	return nil
}

func postPins(b *cpmodel.Builder, inst *schedule.Instance, n *Network) error {
	for name, slot := range inst.Pins.Slot {
		c := inst.CourseIndex(name)
		b.AddEquality(n.CourseSlot[c], cpmodel.NewConstant(int64(slot)))
	}
	for name, slots := range inst.Pins.AllowedSlots {
		c := inst.CourseIndex(name)
		table := b.AddAllowedAssignments(n.CourseSlot[c])
		for _, slot := range slots {
			table.AddTuple(int64(slot))
		}
	}
	for _, name := range inst.Pins.Open {
		b.AddEquality(n.CourseActive[inst.CourseIndex(name)], cpmodel.NewConstant(1))
	}
	for _, name := range inst.Pins.Closed {
		b.AddEquality(n.CourseActive[inst.CourseIndex(name)], cpmodel.NewConstant(0))
	}
	for teacher, courses := range inst.Pins.Teachers {
		t := inst.TeacherIndex(teacher)
		for _, course := range courses {
			c := inst.CourseIndex(course)
			if !inst.MayTeach(t, c) {
				return fmt.Errorf("teacher %q is pinned to course %q but is not eligible for it", teacher, course)
			}
			// The pin binds only if the course actually runs.
			b.AddBoolAnd(n.Teaches[t][c]).OnlyEnforceIf(n.CourseActive[c])
		}
	}
	for course, room := range inst.Pins.RoomForbidden {
		c := inst.CourseIndex(course)
		r := inst.RoomIndex(room)
		slots := make([]cpmodel.BoolVar, schedule.NumSlots)
		for s := range slots {
			slots[s] = n.Placement[s][r][c]
		}
		b.AddEquality(sumOf(slots...), cpmodel.NewConstant(0))
	}
	for course, room := range inst.Pins.RoomRequired {
		c := inst.CourseIndex(course)
		r := inst.RoomIndex(room)
		slots := make([]cpmodel.BoolVar, schedule.NumSlots)
		for s := range slots {
			slots[s] = n.Placement[s][r][c]
		}
		equivSumExactly(b, n.CourseActive[c], sumOf(slots...), 1)
	}
	return nil
}

// postSeparation encodes the course-separation families.
//
// "Different" and "diffday" families compare day/time only between pairs
// that are both active: an inactive course has no day or time (-1) and
// must not consume a value in the comparison, so distinctness is posted
// per pair under a both-active literal instead of one AllDifferent.
//
// Adjacent families channel day and time through floor division and
// modulo of the slot index. The time component has domain [0,2], which a
// slot of -1 cannot satisfy, so every member of an adjacent family is
// implicitly forced open.
func postSeparation(b *cpmodel.Builder, inst *schedule.Instance, n *Network) {
	pairDistinct := func(family []string, times bool) {
		for i := 0; i < len(family); i++ {
			for j := i + 1; j < len(family); j++ {
				ci := inst.CourseIndex(family[i])
				cj := inst.CourseIndex(family[j])
				both := b.NewBoolVar()
				equivAnd(b, both, n.CourseActive[ci], n.CourseActive[cj])
				for d := 0; d < schedule.NumDays; d++ {
					expr := cpmodel.NewLinearExpr()
					for _, s := range schedule.DaySlots(d) {
						expr.Add(n.Occupies[s][ci]).Add(n.Occupies[s][cj])
					}
					b.AddLessOrEqual(expr, cpmodel.NewConstant(1)).OnlyEnforceIf(both)
				}
				if !times {
					continue
				}
				for time := 0; time < schedule.TimesPerDay; time++ {
					expr := cpmodel.NewLinearExpr()
					for d := 0; d < schedule.NumDays; d++ {
						s := schedule.SlotIndex(d, time)
						expr.Add(n.Occupies[s][ci]).Add(n.Occupies[s][cj])
					}
					b.AddLessOrEqual(expr, cpmodel.NewConstant(1)).OnlyEnforceIf(both)
				}
			}
		}
	}
	for _, family := range inst.Different {
		pairDistinct(family, true)
	}
	for _, family := range inst.DiffDay {
		pairDistinct(family, false)
	}

	for _, family := range inst.Adjacent {
		days := make([]cpmodel.IntVar, len(family))
		times := make([]cpmodel.IntVar, len(family))
		venues := make([]cpmodel.IntVar, len(family))
		for i, name := range family {
			c := inst.CourseIndex(name)
			days[i] = b.NewIntVar(0, schedule.NumDays-1)
			times[i] = b.NewIntVar(0, schedule.TimesPerDay-1)
			b.AddDivisionEquality(days[i], n.CourseSlot[c], cpmodel.NewConstant(schedule.TimesPerDay))
			b.AddModuloEquality(times[i], n.CourseSlot[c], cpmodel.NewConstant(schedule.TimesPerDay))
			venues[i] = n.CourseVenue[c]
		}
		sameDay := b.AddAllowedAssignments(days...)
		for d := 0; d < schedule.NumDays; d++ {
			tuple := make([]int64, len(family))
			for i := range tuple {
				tuple[i] = int64(d)
			}
			sameDay.AddTuple(tuple...)
		}
		sameVenue := b.AddAllowedAssignments(venues...)
		for v := 0; v < len(inst.Venues); v++ {
			tuple := make([]int64, len(family))
			for i := range tuple {
				tuple[i] = int64(v)
			}
			sameVenue.AddTuple(tuple...)
		}
		// Back-to-back: a full family fills the day; a 2-of-3 family must
		// occupy adjacent times, enumerated explicitly because generic
		// distinctness would also admit the split 17:30+20:00 pair.
		if len(family) == schedule.TimesPerDay {
			args := make([]cpmodel.LinearArgument, len(times))
			for i, v := range times {
				args[i] = v
			}
			b.AddAllDifferent(args...)
		} else {
			adjacent := b.AddAllowedAssignments(times...)
			for _, tuple := range [][]int64{{0, 1}, {1, 0}, {1, 2}, {2, 1}} {
				adjacent.AddTuple(tuple...)
			}
		}
	}
}
