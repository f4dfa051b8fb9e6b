package model

import (
	"github.com/google/or-tools/ortools/sat/go/cpmodel"

	"github.com/swinghop/scheduler/internal/schedule"
)

// Network declares the primitive decision variables and every derived
// relation the constraints and penalties are written against. All
// derivations are posted as two-directional equivalences: the solver has
// no notion of default truth, so each helper literal is tied both ways
// to the primitives it abstracts.
type Network struct {
	// Placement[s][r][c] is true iff course c occupies slot s in room r.
	Placement [][][]cpmodel.BoolVar
	// Occupies[s][c] is true iff course c occupies slot s in some room.
	Occupies [][]cpmodel.BoolVar
	// Teaches[t][c] is true iff teacher t teaches course c.
	Teaches [][]cpmodel.BoolVar

	// CourseSlot[c] is the slot of course c, or -1 when it does not run.
	CourseSlot []cpmodel.IntVar
	// CourseActive[c] is true iff course c has exactly one placement.
	CourseActive []cpmodel.BoolVar
	// CourseVenue[c] is the venue of whichever room course c landed in.
	CourseVenue []cpmodel.IntVar
	// InVenue[c][v] is true iff course c is placed in a room of venue v.
	InVenue [][]cpmodel.BoolVar

	// TeachesInSlot[t][s][c] = Teaches[t][c] AND Occupies[s][c].
	TeachesInSlot [][][]cpmodel.BoolVar
	// TeacherBusy[t][s] is true iff teacher t teaches some course at s.
	TeacherBusy [][]cpmodel.BoolVar
	// TeacherDay[t][d] is true iff teacher t teaches anywhere on day d.
	TeacherDay [][]cpmodel.BoolVar
	// TeacherVenueDay[t][d][v] is true iff t teaches in venue v on day d.
	TeacherVenueDay [][][]cpmodel.BoolVar

	// Attends[p][c] is the static attendance wish of person p, resolved
	// through the course-name generalization rule.
	Attends [][]bool
	// OccupiedOrTeaching[p][c] = Teaches[p][c] OR Attends[p][c].
	OccupiedOrTeaching [][]cpmodel.BoolVar
	// PersonBusy[p][s] is true iff p teaches or attends something at s.
	PersonBusy [][]cpmodel.BoolVar
	// PersonDay[p][d] is true iff p is busy anywhere on day d.
	PersonDay [][]cpmodel.BoolVar
	// UnavailableOrBusy[p][s] = PersonBusy[p][s] OR hard-unavailable at s.
	UnavailableOrBusy [][]cpmodel.BoolVar
	// CannotAttend[p][s] = TeacherBusy[p][s] OR hard-unavailable at s.
	// This is the attendance-conflict relation: attending a course must
	// not count against attending that same course.
	CannotAttend [][]cpmodel.BoolVar

	// TeachCount[t] counts courses taught; OccupiedCount[p] busy slots.
	TeachCount    []cpmodel.IntVar
	OccupiedCount []cpmodel.IntVar
	// DoesNotTeach[t] is true iff TeachCount[t] == 0.
	DoesNotTeach []cpmodel.BoolVar

	// Role refinements exist only for (teacher, regular course) pairs
	// where the teacher's role pool admits that side.
	leads   map[[2]int]cpmodel.BoolVar
	follows map[[2]int]cpmodel.BoolVar

	personSlotCourse [][][]cpmodel.BoolVar
}

// LeadVar returns the lead-role variable for (teacher, course) when the
// teacher is lead-eligible for that regular course.
func (n *Network) LeadVar(t, c int) (cpmodel.BoolVar, bool) {
	v, ok := n.leads[[2]int{t, c}]
	return v, ok
}

// FollowVar is the follow-side counterpart of LeadVar.
func (n *Network) FollowVar(t, c int) (cpmodel.BoolVar, bool) {
	v, ok := n.follows[[2]int{t, c}]
	return v, ok
}

// sumOf builds a linear expression summing boolean variables.
func sumOf(vars ...cpmodel.BoolVar) *cpmodel.LinearExpr {
	expr := cpmodel.NewLinearExpr()
	for _, v := range vars {
		expr.Add(v)
	}
	return expr
}

// equivAnd posts lit <=> AND(vars).
func equivAnd(b *cpmodel.Builder, lit cpmodel.BoolVar, vars ...cpmodel.BoolVar) {
	b.AddBoolAnd(vars...).OnlyEnforceIf(lit)
	negated := make([]cpmodel.BoolVar, len(vars))
	for i, v := range vars {
		negated[i] = v.Not()
	}
	b.AddBoolOr(negated...).OnlyEnforceIf(lit.Not())
}

// equivOr posts lit <=> OR(vars).
func equivOr(b *cpmodel.Builder, lit cpmodel.BoolVar, vars ...cpmodel.BoolVar) {
	b.AddBoolOr(vars...).OnlyEnforceIf(lit)
	negated := make([]cpmodel.BoolVar, len(vars))
	for i, v := range vars {
		negated[i] = v.Not()
	}
	b.AddBoolAnd(negated...).OnlyEnforceIf(lit.Not())
}

// equivSumAtLeastOne posts lit <=> sum(expr) >= 1, with the sum pinned to
// zero on the negative side.
func equivSumAtLeastOne(b *cpmodel.Builder, lit cpmodel.BoolVar, expr cpmodel.LinearArgument) {
	b.AddGreaterOrEqual(expr, cpmodel.NewConstant(1)).OnlyEnforceIf(lit)
	b.AddEquality(expr, cpmodel.NewConstant(0)).OnlyEnforceIf(lit.Not())
}

// equivSumExactly posts lit <=> sum(expr) == n, with zero otherwise.
func equivSumExactly(b *cpmodel.Builder, lit cpmodel.BoolVar, expr cpmodel.LinearArgument, n int64) {
	b.AddEquality(expr, cpmodel.NewConstant(n)).OnlyEnforceIf(lit)
	b.AddEquality(expr, cpmodel.NewConstant(0)).OnlyEnforceIf(lit.Not())
}

// equivSumZero posts lit <=> sum(expr) == 0.
func equivSumZero(b *cpmodel.Builder, lit cpmodel.BoolVar, expr cpmodel.LinearArgument) {
	b.AddEquality(expr, cpmodel.NewConstant(0)).OnlyEnforceIf(lit)
	b.AddGreaterOrEqual(expr, cpmodel.NewConstant(1)).OnlyEnforceIf(lit.Not())
}

func buildNetwork(b *cpmodel.Builder, inst *schedule.Instance) *Network {
	numC := len(inst.Courses)
	numT := len(inst.Teachers)
	numR := len(inst.Rooms)
	numV := len(inst.Venues)

	n := &Network{
		leads:   make(map[[2]int]cpmodel.BoolVar),
		follows: make(map[[2]int]cpmodel.BoolVar),
	}

	// Primitive decisions.
	n.Placement = make([][][]cpmodel.BoolVar, schedule.NumSlots)
	for s := range n.Placement {
		n.Placement[s] = make([][]cpmodel.BoolVar, numR)
		for r := range n.Placement[s] {
			n.Placement[s][r] = make([]cpmodel.BoolVar, numC)
			for c := range n.Placement[s][r] {
				n.Placement[s][r][c] = b.NewBoolVar()
			}
		}
	}
	n.Teaches = make([][]cpmodel.BoolVar, numT)
	for t := range n.Teaches {
		n.Teaches[t] = make([]cpmodel.BoolVar, numC)
		for c := range n.Teaches[t] {
			n.Teaches[t][c] = b.NewBoolVar()
		}
	}
	for c, course := range inst.Courses {
		if course.Kind != schedule.KindRegular {
			continue
		}
		for t := range inst.Teachers {
			lead, leadOK := cpmodel.BoolVar{}, inst.LeadEligible(t, c)
			follow, followOK := cpmodel.BoolVar{}, inst.FollowEligible(t, c)
			if leadOK {
				lead = b.NewBoolVar()
				n.leads[[2]int{t, c}] = lead
			}
			if followOK {
				follow = b.NewBoolVar()
				n.follows[[2]int{t, c}] = follow
			}
			switch {
			case leadOK && followOK:
				equivOr(b, n.Teaches[t][c], lead, follow)
				b.AddBoolOr(lead.Not(), follow.Not())
			case leadOK:
				b.AddEquality(n.Teaches[t][c], lead)
			case followOK:
				b.AddEquality(n.Teaches[t][c], follow)
			}
		}
	}

	// Course slot channeling. Occupies[s][c] must agree with the room
	// sum, and it pins CourseSlot in both directions per slot so that a
	// course with no placement is forced to -1.
	n.Occupies = make([][]cpmodel.BoolVar, schedule.NumSlots)
	n.CourseSlot = make([]cpmodel.IntVar, numC)
	for c := range n.CourseSlot {
		n.CourseSlot[c] = b.NewIntVar(-1, schedule.NumSlots-1)
	}
	for s := range n.Occupies {
		n.Occupies[s] = make([]cpmodel.BoolVar, numC)
		for c := range n.Occupies[s] {
			occ := b.NewBoolVar()
			n.Occupies[s][c] = occ
			rooms := make([]cpmodel.BoolVar, numR)
			for r := range rooms {
				rooms[r] = n.Placement[s][r][c]
			}
			equivSumExactly(b, occ, sumOf(rooms...), 1)
			b.AddEquality(n.CourseSlot[c], cpmodel.NewConstant(int64(s))).OnlyEnforceIf(occ)
			b.AddNotEqual(n.CourseSlot[c], cpmodel.NewConstant(int64(s))).OnlyEnforceIf(occ.Not())
		}
	}

	// Active <=> exactly one placement across the whole grid.
	n.CourseActive = make([]cpmodel.BoolVar, numC)
	for c := range n.CourseActive {
		n.CourseActive[c] = b.NewBoolVar()
		all := cpmodel.NewLinearExpr()
		for s := 0; s < schedule.NumSlots; s++ {
			for r := 0; r < numR; r++ {
				all.Add(n.Placement[s][r][c])
			}
		}
		equivSumExactly(b, n.CourseActive[c], all, 1)
	}

	// Venue of a course, driven by which venue's rooms it occupies.
	n.CourseVenue = make([]cpmodel.IntVar, numC)
	n.InVenue = make([][]cpmodel.BoolVar, numC)
	for c := range n.CourseVenue {
		n.CourseVenue[c] = b.NewIntVar(0, int64(numV)-1)
		n.InVenue[c] = make([]cpmodel.BoolVar, numV)
		for v := 0; v < numV; v++ {
			hit := b.NewBoolVar()
			n.InVenue[c][v] = hit
			expr := cpmodel.NewLinearExpr()
			for s := 0; s < schedule.NumSlots; s++ {
				for _, r := range inst.RoomsInVenue(v) {
					expr.Add(n.Placement[s][r][c])
				}
			}
			equivSumAtLeastOne(b, hit, expr)
			b.AddEquality(n.CourseVenue[c], cpmodel.NewConstant(int64(v))).OnlyEnforceIf(hit)
		}
	}

	// Teaching occupancy chain.
	n.TeachesInSlot = make([][][]cpmodel.BoolVar, numT)
	n.TeacherBusy = make([][]cpmodel.BoolVar, numT)
	for t := 0; t < numT; t++ {
		n.TeachesInSlot[t] = make([][]cpmodel.BoolVar, schedule.NumSlots)
		n.TeacherBusy[t] = make([]cpmodel.BoolVar, schedule.NumSlots)
		for s := 0; s < schedule.NumSlots; s++ {
			n.TeachesInSlot[t][s] = make([]cpmodel.BoolVar, numC)
			for c := 0; c < numC; c++ {
				tsc := b.NewBoolVar()
				n.TeachesInSlot[t][s][c] = tsc
				equivAnd(b, tsc, n.Occupies[s][c], n.Teaches[t][c])
			}
			busy := b.NewBoolVar()
			n.TeacherBusy[t][s] = busy
			equivSumAtLeastOne(b, busy, sumOf(n.TeachesInSlot[t][s]...))
		}
	}

	// Attendance is static input; the teach-or-attend chain mirrors the
	// teaching one with attendance folded in.
	n.Attends = make([][]bool, numT)
	n.OccupiedOrTeaching = make([][]cpmodel.BoolVar, numT)
	n.personSlotCourse = make([][][]cpmodel.BoolVar, numT)
	n.PersonBusy = make([][]cpmodel.BoolVar, numT)
	for t := 0; t < numT; t++ {
		teacher := &inst.Teachers[t]
		n.Attends[t] = make([]bool, numC)
		n.OccupiedOrTeaching[t] = make([]cpmodel.BoolVar, numC)
		for c := 0; c < numC; c++ {
			if !teacher.Placeholder {
				for _, wish := range teacher.AttendWishes {
					if schedule.GeneralMatches(inst.Courses[c].Name, wish) {
						n.Attends[t][c] = true
						break
					}
				}
			}
			attends := b.NewBoolVar()
			if n.Attends[t][c] {
				b.AddEquality(attends, cpmodel.NewConstant(1))
			} else {
				b.AddEquality(attends, cpmodel.NewConstant(0))
			}
			pc := b.NewBoolVar()
			n.OccupiedOrTeaching[t][c] = pc
			equivOr(b, pc, n.Teaches[t][c], attends)
		}
		n.personSlotCourse[t] = make([][]cpmodel.BoolVar, schedule.NumSlots)
		n.PersonBusy[t] = make([]cpmodel.BoolVar, schedule.NumSlots)
		for s := 0; s < schedule.NumSlots; s++ {
			n.personSlotCourse[t][s] = make([]cpmodel.BoolVar, numC)
			for c := 0; c < numC; c++ {
				psc := b.NewBoolVar()
				n.personSlotCourse[t][s][c] = psc
				equivAnd(b, psc, n.Occupies[s][c], n.OccupiedOrTeaching[t][c])
			}
			busy := b.NewBoolVar()
			n.PersonBusy[t][s] = busy
			equivSumAtLeastOne(b, busy, sumOf(n.personSlotCourse[t][s]...))
		}
	}

	// Day aggregations.
	n.TeacherDay = make([][]cpmodel.BoolVar, numT)
	n.PersonDay = make([][]cpmodel.BoolVar, numT)
	for t := 0; t < numT; t++ {
		n.TeacherDay[t] = make([]cpmodel.BoolVar, schedule.NumDays)
		n.PersonDay[t] = make([]cpmodel.BoolVar, schedule.NumDays)
		for d := 0; d < schedule.NumDays; d++ {
			var teach, busy []cpmodel.BoolVar
			for _, s := range schedule.DaySlots(d) {
				teach = append(teach, n.TeacherBusy[t][s])
				busy = append(busy, n.PersonBusy[t][s])
			}
			n.TeacherDay[t][d] = b.NewBoolVar()
			equivSumAtLeastOne(b, n.TeacherDay[t][d], sumOf(teach...))
			n.PersonDay[t][d] = b.NewBoolVar()
			equivSumAtLeastOne(b, n.PersonDay[t][d], sumOf(busy...))
		}
	}

	// Hard-unavailability overlays.
	n.UnavailableOrBusy = make([][]cpmodel.BoolVar, numT)
	n.CannotAttend = make([][]cpmodel.BoolVar, numT)
	for t := 0; t < numT; t++ {
		teacher := &inst.Teachers[t]
		n.UnavailableOrBusy[t] = make([]cpmodel.BoolVar, schedule.NumSlots)
		n.CannotAttend[t] = make([]cpmodel.BoolVar, schedule.NumSlots)
		for s := 0; s < schedule.NumSlots; s++ {
			unavailable := !teacher.Placeholder && teacher.Availability[s] == schedule.PrefUnavailable
			nb := b.NewBoolVar()
			n.UnavailableOrBusy[t][s] = nb
			ca := b.NewBoolVar()
			n.CannotAttend[t][s] = ca
			if unavailable {
				b.AddEquality(nb, cpmodel.NewConstant(1))
				b.AddEquality(ca, cpmodel.NewConstant(1))
			} else {
				b.AddEquality(nb, n.PersonBusy[t][s])
				b.AddEquality(ca, n.TeacherBusy[t][s])
			}
		}
	}

	// Venue commitment per day.
	n.TeacherVenueDay = make([][][]cpmodel.BoolVar, numT)
	venueOcc := make([][][]cpmodel.BoolVar, schedule.NumSlots)
	for s := 0; s < schedule.NumSlots; s++ {
		venueOcc[s] = make([][]cpmodel.BoolVar, numC)
		for c := 0; c < numC; c++ {
			venueOcc[s][c] = make([]cpmodel.BoolVar, numV)
			for v := 0; v < numV; v++ {
				hit := b.NewBoolVar()
				venueOcc[s][c][v] = hit
				rooms := inst.RoomsInVenue(v)
				vars := make([]cpmodel.BoolVar, len(rooms))
				for i, r := range rooms {
					vars[i] = n.Placement[s][r][c]
				}
				equivSumExactly(b, hit, sumOf(vars...), 1)
			}
		}
	}
	for t := 0; t < numT; t++ {
		n.TeacherVenueDay[t] = make([][]cpmodel.BoolVar, schedule.NumDays)
		for d := 0; d < schedule.NumDays; d++ {
			n.TeacherVenueDay[t][d] = make([]cpmodel.BoolVar, numV)
			for v := 0; v < numV; v++ {
				expr := cpmodel.NewLinearExpr()
				for _, s := range schedule.DaySlots(d) {
					for c := 0; c < numC; c++ {
						hit := b.NewBoolVar()
						equivAnd(b, hit, venueOcc[s][c][v], n.Teaches[t][c])
						expr.Add(hit)
					}
				}
				tdv := b.NewBoolVar()
				n.TeacherVenueDay[t][d][v] = tdv
				equivSumAtLeastOne(b, tdv, expr)
			}
		}
	}

	// Counters.
	n.TeachCount = make([]cpmodel.IntVar, numT)
	n.OccupiedCount = make([]cpmodel.IntVar, numT)
	n.DoesNotTeach = make([]cpmodel.BoolVar, numT)
	for t := 0; t < numT; t++ {
		n.TeachCount[t] = b.NewIntVar(0, int64(numC))
		b.AddEquality(n.TeachCount[t], sumOf(n.Teaches[t]...))
		n.OccupiedCount[t] = b.NewIntVar(0, schedule.NumSlots)
		b.AddEquality(n.OccupiedCount[t], sumOf(n.PersonBusy[t]...))
		n.DoesNotTeach[t] = b.NewBoolVar()
		equivSumZero(b, n.DoesNotTeach[t], n.TeachCount[t])
	}

	return n
}
