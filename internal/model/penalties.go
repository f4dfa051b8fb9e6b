package model

import (
	"fmt"
	"sort"
	"strings"

	log "github.com/golang/glog"
	"github.com/google/or-tools/ortools/sat/go/cpmodel"
	"github.com/samber/lo"

	"github.com/swinghop/scheduler/internal/schedule"
)

// TermKind enumerates every soft-penalty family. The mapping from name
// to behavior is a closed set: each kind carries its own construction
// and its own explain derivation.
type TermKind int

const (
	TermUtilization TermKind = iota
	TermTeachDays
	TermOccupiedDays
	TermTeachThree
	TermSplit
	TermSlotStrong
	TermSlotMild
	TermCourseStrong
	TermCourseMild
	TermTeachTogether
	TermAttendFree
	TermCoursesClosed
	TermStudBad
	TermEverybodyTeach
	TermPlaceholders
	TermCustom
)

// Term is one named soft objective component. Count tallies the raw
// contributions, Boosted the boost-multiplied sum that the objective
// prices at Weight per unit. Explain re-derives the responsible people
// and courses from the primitive variables of a solved binding; it never
// reads the tally variables, so it doubles as a consistency check.
type Term struct {
	Kind    TermKind
	Name    string
	Weight  int
	Count   cpmodel.IntVar
	Boosted cpmodel.IntVar
	Explain func(Binding) []string
}

// termPolicy decides, from one teacher's stated preferences alone,
// whether a per-person penalty applies to them and with what weight
// multiplier. Indifference means the term contributes nothing for that
// person, not merely that it scores zero.
func termPolicy(t *schedule.Teacher, kind TermKind) (applies bool, multiplier int64) {
	if t.Placeholder {
		return false, 1
	}
	dimension := func(dim schedule.BestPref) (bool, int64) {
		if t.BestPref == dim {
			return true, 2
		}
		return true, 1
	}
	switch kind {
	case TermUtilization:
		return t.MaxCourses > 0, 1
	case TermTeachDays, TermOccupiedDays:
		return t.MinDays == schedule.MinDaysFewerDays, 1
	case TermTeachThree:
		return t.MinDays == schedule.MinDaysFewerPerDay, 1
	case TermSplit:
		return t.SplitOK == schedule.SplitDislikesGaps, 1
	case TermSlotStrong:
		if !discriminates(t.Availability[:], schedule.PrefStrongNo) {
			return false, 1
		}
		return dimension(schedule.BestTime)
	case TermSlotMild:
		if !discriminates(t.Availability[:], schedule.PrefMildNo) {
			return false, 1
		}
		return dimension(schedule.BestTime)
	case TermCourseStrong:
		if !discriminates(lo.Values(t.Interest), schedule.PrefStrongNo) {
			return false, 1
		}
		return dimension(schedule.BestCourse)
	case TermCourseMild:
		if !discriminates(lo.Values(t.Interest), schedule.PrefMildNo) {
			return false, 1
		}
		return dimension(schedule.BestCourse)
	case TermTeachTogether:
		if len(t.WantsWith) == 0 {
			return false, 1
		}
		return dimension(schedule.BestPerson)
	}
	return false, 1
}

// discriminates reports whether the values actually express a preference
// at the given dislike level: the level must occur alongside something
// better, otherwise the person is treating all options alike.
func discriminates(values []int, level int) bool {
	hasLevel := lo.Contains(values, level)
	hasBetter := false
	for _, v := range values {
		if v > level {
			hasBetter = true
			break
		}
	}
	return hasLevel && hasBetter
}

type contribution struct {
	expr  cpmodel.LinearArgument
	boost int64
	max   int64
}

type composer struct {
	b     *cpmodel.Builder
	inst  *schedule.Instance
	net   *Network
	terms []Term
}

func (pc *composer) finish(kind TermKind, name string, contribs []contribution, explain func(Binding) []string) {
	weight := pc.inst.PenaltyWeight(name)
	if weight == 0 {
		log.Infof("penalties: skipping %q", name)
		return
	}
	var maxCount, maxBoosted int64
	countExpr := cpmodel.NewLinearExpr()
	boostedExpr := cpmodel.NewLinearExpr()
	for _, contrib := range contribs {
		countExpr.Add(contrib.expr)
		boostedExpr.AddTerm(contrib.expr, contrib.boost)
		maxCount += contrib.max
		maxBoosted += contrib.boost * contrib.max
	}
	count := pc.b.NewIntVar(0, maxCount)
	pc.b.AddEquality(count, countExpr)
	boosted := pc.b.NewIntVar(0, maxBoosted)
	pc.b.AddEquality(boosted, boostedExpr)
	pc.terms = append(pc.terms, Term{
		Kind:    kind,
		Name:    name,
		Weight:  weight,
		Count:   count,
		Boosted: boosted,
		Explain: explain,
	})
}

func (pc *composer) compose() {
	pc.utilization()
	pc.teachDays()
	pc.occupiedDays()
	pc.teachThree()
	pc.split()
	pc.slotPref(TermSlotStrong, schedule.PenaltySlotStrong, schedule.PrefStrongNo)
	pc.slotPref(TermSlotMild, schedule.PenaltySlotMild, schedule.PrefMildNo)
	pc.coursePref(TermCourseStrong, schedule.PenaltyCourseStrong, schedule.PrefStrongNo)
	pc.coursePref(TermCourseMild, schedule.PenaltyCourseMild, schedule.PrefMildNo)
	pc.teachTogether()
	pc.attendFree()
	pc.coursesClosed()
	pc.studBad()
	pc.everybodyTeach()
	pc.placeholders()
}

// applicable collects the teachers a per-person term covers, paired with
// their multipliers.
func (pc *composer) applicable(kind TermKind) ([]int, []int64) {
	var teachers []int
	var boosts []int64
	for t := range pc.inst.Teachers {
		if ok, mult := termPolicy(&pc.inst.Teachers[t], kind); ok {
			teachers = append(teachers, t)
			boosts = append(boosts, mult)
		}
	}
	return teachers, boosts
}

// taughtCourses re-derives the courses a teacher holds from the
// primitive assignment variables.
func taughtCourses(bind Binding, n *Network, t int) []int {
	var courses []int
	for c := range n.Teaches[t] {
		if bind.BoolValue(n.Teaches[t][c]) {
			courses = append(courses, c)
		}
	}
	return courses
}

// placedSlot re-derives the slot a course landed in, or -1, by scanning
// the placement grid.
func placedSlot(bind Binding, n *Network, c int) int {
	for s := range n.Placement {
		for r := range n.Placement[s] {
			if bind.BoolValue(n.Placement[s][r][c]) {
				return s
			}
		}
	}
	return -1
}

// teachingSlots re-derives the set of slots where a teacher stands in
// front of a class.
func teachingSlots(bind Binding, n *Network, t int) map[int]bool {
	slots := make(map[int]bool)
	for _, c := range taughtCourses(bind, n, t) {
		if s := placedSlot(bind, n, c); s >= 0 {
			slots[s] = true
		}
	}
	return slots
}

// busySlots additionally counts attended courses.
func busySlots(bind Binding, n *Network, t int) map[int]bool {
	slots := teachingSlots(bind, n, t)
	for c, attends := range n.Attends[t] {
		if attends {
			if s := placedSlot(bind, n, c); s >= 0 {
				slots[s] = true
			}
		}
	}
	return slots
}

func (pc *composer) utilization() {
	teachers, _ := pc.applicable(TermUtilization)
	span := int64(len(pc.inst.Courses))
	var contribs []contribution
	for _, t := range teachers {
		ideal := int64(pc.inst.Teachers[t].IdealCourses)
		diff := pc.b.NewIntVar(-span, span)
		pc.b.AddEquality(diff, cpmodel.NewLinearExpr().Add(pc.net.TeachCount[t]).AddConstant(-ideal))
		abs := pc.b.NewIntVar(0, span)
		pc.b.AddAbsEquality(abs, diff)
		sq := pc.b.NewIntVar(0, span*span)
		pc.b.AddMultiplicationEquality(sq, abs, abs)
		contribs = append(contribs, contribution{expr: sq, boost: 1, max: span * span})
	}
	inst, net := pc.inst, pc.net
	pc.finish(TermUtilization, schedule.PenaltyUtilization, contribs, func(bind Binding) []string {
		var out []string
		for _, t := range teachers {
			actual := len(taughtCourses(bind, net, t))
			ideal := inst.Teachers[t].IdealCourses
			if actual != ideal {
				out = append(out, fmt.Sprintf("%s teaches %d, wanted %d", inst.Teachers[t].Name, actual, ideal))
			}
		}
		return out
	})
}

// dayOveruse posts the squared number of days someone shows up beyond
// the minimum their load implies (ceil(n / TimesPerDay), encoded as
// (n-1) div TimesPerDay + 1 to keep the division non-negative).
func (pc *composer) dayOveruse(count cpmodel.IntVar, dayVars []cpmodel.BoolVar) cpmodel.IntVar {
	days := pc.b.NewIntVar(0, schedule.NumDays)
	pc.b.AddEquality(days, sumOf(dayVars...))
	some := pc.b.NewBoolVar()
	pc.b.AddGreaterOrEqual(count, cpmodel.NewConstant(1)).OnlyEnforceIf(some)
	pc.b.AddEquality(count, cpmodel.NewConstant(0)).OnlyEnforceIf(some.Not())
	minusOne := pc.b.NewIntVar(0, schedule.NumSlots)
	pc.b.AddEquality(minusOne, cpmodel.NewLinearExpr().Add(count).AddConstant(-1)).OnlyEnforceIf(some)
	pc.b.AddEquality(minusOne, cpmodel.NewConstant(0)).OnlyEnforceIf(some.Not())
	needed := pc.b.NewIntVar(0, schedule.NumDays)
	pc.b.AddDivisionEquality(needed, minusOne, cpmodel.NewConstant(schedule.TimesPerDay))
	extra := pc.b.NewIntVar(0, schedule.NumDays)
	pc.b.AddEquality(extra, cpmodel.NewLinearExpr().Add(days).AddTerm(needed, -1).AddConstant(-1)).OnlyEnforceIf(some)
	pc.b.AddEquality(extra, cpmodel.NewConstant(0)).OnlyEnforceIf(some.Not())
	sq := pc.b.NewIntVar(0, schedule.NumDays*schedule.NumDays)
	pc.b.AddMultiplicationEquality(sq, extra, extra)
	return sq
}

func (pc *composer) teachDays() {
	teachers, _ := pc.applicable(TermTeachDays)
	var contribs []contribution
	for _, t := range teachers {
		sq := pc.dayOveruse(pc.net.TeachCount[t], pc.net.TeacherDay[t])
		contribs = append(contribs, contribution{expr: sq, boost: 1, max: schedule.NumDays * schedule.NumDays})
	}
	inst, net := pc.inst, pc.net
	pc.finish(TermTeachDays, schedule.PenaltyTeachDays, contribs, func(bind Binding) []string {
		var out []string
		for _, t := range teachers {
			courses := len(taughtCourses(bind, net, t))
			days := lo.Uniq(lo.Map(lo.Keys(teachingSlots(bind, net, t)), func(s int, _ int) int { return schedule.SlotDay(s) }))
			if len(days)*schedule.TimesPerDay-courses >= schedule.TimesPerDay {
				out = append(out, fmt.Sprintf("%s: %d courses over %d days", inst.Teachers[t].Name, courses, len(days)))
			}
		}
		return out
	})
}

func (pc *composer) occupiedDays() {
	teachers, _ := pc.applicable(TermOccupiedDays)
	var contribs []contribution
	for _, t := range teachers {
		sq := pc.dayOveruse(pc.net.OccupiedCount[t], pc.net.PersonDay[t])
		contribs = append(contribs, contribution{expr: sq, boost: 1, max: schedule.NumDays * schedule.NumDays})
	}
	inst, net := pc.inst, pc.net
	pc.finish(TermOccupiedDays, schedule.PenaltyOccupiedDays, contribs, func(bind Binding) []string {
		var out []string
		for _, t := range teachers {
			slots := busySlots(bind, net, t)
			days := lo.Uniq(lo.Map(lo.Keys(slots), func(s int, _ int) int { return schedule.SlotDay(s) }))
			if len(days)*schedule.TimesPerDay-len(slots) >= schedule.TimesPerDay {
				out = append(out, fmt.Sprintf("%s: busy %d slots over %d days", inst.Teachers[t].Name, len(slots), len(days)))
			}
		}
		return out
	})
}

func (pc *composer) teachThree() {
	teachers, _ := pc.applicable(TermTeachThree)
	var contribs []contribution
	for _, t := range teachers {
		for d := 0; d < schedule.NumDays; d++ {
			slots := schedule.DaySlots(d)
			full := pc.b.NewBoolVar()
			equivAnd(pc.b, full, pc.net.TeacherBusy[t][slots[0]], pc.net.TeacherBusy[t][slots[1]], pc.net.TeacherBusy[t][slots[2]])
			contribs = append(contribs, contribution{expr: full, boost: 1, max: 1})
		}
	}
	inst, net := pc.inst, pc.net
	pc.finish(TermTeachThree, schedule.PenaltyTeachThree, contribs, func(bind Binding) []string {
		var out []string
		for _, t := range teachers {
			slots := teachingSlots(bind, net, t)
			for d := 0; d < schedule.NumDays; d++ {
				if lo.EveryBy(schedule.DaySlots(d), func(s int) bool { return slots[s] }) {
					out = append(out, fmt.Sprintf("%s: %s fully booked", inst.Teachers[t].Name, schedule.DayNames[d]))
				}
			}
		}
		return out
	})
}

func (pc *composer) split() {
	teachers, _ := pc.applicable(TermSplit)
	var contribs []contribution
	for _, t := range teachers {
		for d := 0; d < schedule.NumDays; d++ {
			slots := schedule.DaySlots(d)
			first, middle, last := pc.net.TeacherBusy[t][slots[0]], pc.net.TeacherBusy[t][slots[1]], pc.net.TeacherBusy[t][slots[2]]
			gap := pc.b.NewBoolVar()
			pc.b.AddBoolAnd(first, middle.Not(), last).OnlyEnforceIf(gap)
			pc.b.AddBoolOr(first.Not(), middle, last.Not()).OnlyEnforceIf(gap.Not())
			contribs = append(contribs, contribution{expr: gap, boost: 1, max: 1})
		}
	}
	inst, net := pc.inst, pc.net
	pc.finish(TermSplit, schedule.PenaltySplit, contribs, func(bind Binding) []string {
		var out []string
		for _, t := range teachers {
			slots := teachingSlots(bind, net, t)
			for d := 0; d < schedule.NumDays; d++ {
				ds := schedule.DaySlots(d)
				if slots[ds[0]] && !slots[ds[1]] && slots[ds[2]] {
					out = append(out, fmt.Sprintf("%s: gap on %s", inst.Teachers[t].Name, schedule.DayNames[d]))
				}
			}
		}
		return out
	})
}

func (pc *composer) slotPref(kind TermKind, name string, level int) {
	teachers, boosts := pc.applicable(kind)
	var contribs []contribution
	for i, t := range teachers {
		expr := cpmodel.NewLinearExpr()
		var count int64
		for s := 0; s < schedule.NumSlots; s++ {
			if pc.inst.Teachers[t].Availability[s] == level {
				expr.Add(pc.net.TeacherBusy[t][s])
				count++
			}
		}
		if count > 0 {
			contribs = append(contribs, contribution{expr: expr, boost: boosts[i], max: count})
		}
	}
	inst, net := pc.inst, pc.net
	pc.finish(kind, name, contribs, func(bind Binding) []string {
		var out []string
		for _, t := range teachers {
			slots := teachingSlots(bind, net, t)
			var bad []string
			for s := 0; s < schedule.NumSlots; s++ {
				if inst.Teachers[t].Availability[s] == level && slots[s] {
					bad = append(bad, schedule.SlotLabel(s))
				}
			}
			if len(bad) > 0 {
				out = append(out, fmt.Sprintf("%s: %s", inst.Teachers[t].Name, strings.Join(bad, ", ")))
			}
		}
		return out
	})
}

func (pc *composer) coursePref(kind TermKind, name string, level int) {
	teachers, boosts := pc.applicable(kind)
	var contribs []contribution
	for i, t := range teachers {
		expr := cpmodel.NewLinearExpr()
		var count int64
		for c, course := range pc.inst.Courses {
			if course.Kind != schedule.KindOpen && pc.inst.Teachers[t].InterestIn(course.Name) == level {
				expr.Add(pc.net.Teaches[t][c])
				count++
			}
		}
		if count > 0 {
			contribs = append(contribs, contribution{expr: expr, boost: boosts[i], max: count})
		}
	}
	inst, net := pc.inst, pc.net
	pc.finish(kind, name, contribs, func(bind Binding) []string {
		var out []string
		for _, t := range teachers {
			var bad []string
			for _, c := range taughtCourses(bind, net, t) {
				if inst.Teachers[t].InterestIn(inst.Courses[c].Name) == level {
					bad = append(bad, inst.Courses[c].Name)
				}
			}
			if len(bad) > 0 {
				out = append(out, fmt.Sprintf("%s: %s", inst.Teachers[t].Name, strings.Join(bad, ", ")))
			}
		}
		return out
	})
}

func (pc *composer) teachTogether() {
	teachers, boosts := pc.applicable(TermTeachTogether)
	partners := make(map[int][]int)
	for _, t := range teachers {
		for _, name := range pc.inst.Teachers[t].WantsWith {
			if o := pc.inst.TeacherIndex(name); o >= 0 {
				partners[t] = append(partners[t], o)
			}
		}
	}
	var contribs []contribution
	var covered []int
	for i, t := range teachers {
		if len(partners[t]) == 0 {
			continue
		}
		var successes []cpmodel.BoolVar
		for c := range pc.inst.Courses {
			withPartner := pc.b.NewBoolVar()
			vars := make([]cpmodel.BoolVar, len(partners[t]))
			for j, o := range partners[t] {
				vars[j] = pc.net.Teaches[o][c]
			}
			equivSumAtLeastOne(pc.b, withPartner, sumOf(vars...))
			success := pc.b.NewBoolVar()
			equivAnd(pc.b, success, pc.net.Teaches[t][c], withPartner)
			successes = append(successes, success)
		}
		nobody := pc.b.NewBoolVar()
		equivSumZero(pc.b, nobody, sumOf(successes...))
		contribs = append(contribs, contribution{expr: nobody, boost: boosts[i], max: 1})
		covered = append(covered, t)
	}
	inst, net := pc.inst, pc.net
	pc.finish(TermTeachTogether, schedule.PenaltyTeachTogether, contribs, func(bind Binding) []string {
		var out []string
		for _, t := range covered {
			shared := false
			for _, c := range taughtCourses(bind, net, t) {
				for _, o := range partners[t] {
					if bind.BoolValue(net.Teaches[o][c]) {
						shared = true
					}
				}
			}
			if !shared {
				out = append(out, fmt.Sprintf("%s teaches with no preferred partner", inst.Teachers[t].Name))
			}
		}
		return out
	})
}

func (pc *composer) attendFree() {
	// For every course somebody wants to attend, count the interested
	// people who are teaching elsewhere (or hard-unavailable) in the slot
	// where the course landed.
	interested := make(map[int][]int)
	for _, p := range pc.inst.People() {
		for c := range pc.inst.Courses {
			if pc.net.Attends[p][c] {
				interested[c] = append(interested[c], p)
			}
		}
	}
	var contribs []contribution
	courses := lo.Keys(interested)
	sort.Ints(courses)
	for _, c := range courses {
		people := interested[c]
		for s := 0; s < schedule.NumSlots; s++ {
			vars := make([]cpmodel.BoolVar, len(people))
			for i, p := range people {
				vars[i] = pc.net.CannotAttend[p][s]
			}
			blocked := pc.b.NewIntVar(0, int64(len(people)))
			pc.b.AddEquality(blocked, sumOf(vars...)).OnlyEnforceIf(pc.net.Occupies[s][c])
			pc.b.AddEquality(blocked, cpmodel.NewConstant(0)).OnlyEnforceIf(pc.net.Occupies[s][c].Not())
			contribs = append(contribs, contribution{expr: blocked, boost: 1, max: int64(len(people))})
		}
	}
	inst, net := pc.inst, pc.net
	pc.finish(TermAttendFree, schedule.PenaltyAttendFree, contribs, func(bind Binding) []string {
		var out []string
		for _, c := range courses {
			s := placedSlot(bind, net, c)
			if s < 0 {
				continue
			}
			var blocked []string
			for _, p := range interested[c] {
				unavailable := inst.Teachers[p].Availability[s] == schedule.PrefUnavailable
				if unavailable || teachingSlots(bind, net, p)[s] {
					blocked = append(blocked, inst.Teachers[p].Name)
				}
			}
			if len(blocked) > 0 {
				out = append(out, fmt.Sprintf("%s at %s: %s", inst.Courses[c].Name, schedule.SlotLabel(s), strings.Join(blocked, ", ")))
			}
		}
		return out
	})
}

func (pc *composer) coursesClosed() {
	var contribs []contribution
	var considered []int
	for c, course := range pc.inst.Courses {
		if lo.Contains(pc.inst.Pins.Closed, course.Name) {
			continue
		}
		contribs = append(contribs, contribution{expr: pc.net.CourseActive[c].Not(), boost: 1, max: 1})
		considered = append(considered, c)
	}
	inst, net := pc.inst, pc.net
	pc.finish(TermCoursesClosed, schedule.PenaltyCoursesClosed, contribs, func(bind Binding) []string {
		var out []string
		for _, c := range considered {
			if placedSlot(bind, net, c) < 0 {
				out = append(out, inst.Courses[c].Name)
			}
		}
		return out
	})
}

func (pc *composer) studBad() {
	type wish struct {
		student int
		course  int
	}
	var wishes []wish
	for i := range pc.inst.Students {
		student := &pc.inst.Students[i]
		seen := make(map[int]bool)
		for _, desired := range student.Desired {
			for _, name := range pc.inst.ExpandGeneral(desired) {
				c := pc.inst.CourseIndex(name)
				if !seen[c] {
					seen[c] = true
					wishes = append(wishes, wish{student: i, course: c})
				}
			}
		}
	}
	var contribs []contribution
	for _, w := range wishes {
		student := &pc.inst.Students[w.student]
		if len(student.Blackout) == 0 {
			continue
		}
		vars := make([]cpmodel.BoolVar, len(student.Blackout))
		for i, s := range student.Blackout {
			vars[i] = pc.net.Occupies[s][w.course]
		}
		bad := pc.b.NewBoolVar()
		equivSumAtLeastOne(pc.b, bad, sumOf(vars...))
		contribs = append(contribs, contribution{expr: bad, boost: 1, max: 1})
	}
	inst, net := pc.inst, pc.net
	pc.finish(TermStudBad, schedule.PenaltyStudBad, contribs, func(bind Binding) []string {
		var out []string
		for _, w := range wishes {
			student := &inst.Students[w.student]
			s := placedSlot(bind, net, w.course)
			if s >= 0 && student.BlackedOut(s) {
				out = append(out, fmt.Sprintf("%s misses %s (%s)", student.Name, inst.Courses[w.course].Name, schedule.SlotLabel(s)))
			}
		}
		return out
	})
}

func (pc *composer) everybodyTeach() {
	var contribs []contribution
	var considered []int
	for t := range pc.inst.Teachers {
		teacher := &pc.inst.Teachers[t]
		if teacher.Placeholder || teacher.MaxCourses == 0 {
			continue
		}
		contribs = append(contribs, contribution{expr: pc.net.DoesNotTeach[t], boost: 1, max: 1})
		considered = append(considered, t)
	}
	inst, net := pc.inst, pc.net
	pc.finish(TermEverybodyTeach, schedule.PenaltyEverybodyTeach, contribs, func(bind Binding) []string {
		var out []string
		for _, t := range considered {
			if len(taughtCourses(bind, net, t)) == 0 {
				out = append(out, inst.Teachers[t].Name)
			}
		}
		return out
	})
}

func (pc *composer) placeholders() {
	var contribs []contribution
	var fakes []int
	for t := range pc.inst.Teachers {
		if !pc.inst.Teachers[t].Placeholder {
			continue
		}
		fakes = append(fakes, t)
		contribs = append(contribs, contribution{
			expr:  sumOf(pc.net.Teaches[t]...),
			boost: 1,
			max:   int64(len(pc.inst.Courses)),
		})
	}
	if len(fakes) == 0 {
		return
	}
	inst, net := pc.inst, pc.net
	pc.finish(TermPlaceholders, schedule.PenaltyPlaceholders, contribs, func(bind Binding) []string {
		var out []string
		for _, t := range fakes {
			for _, c := range taughtCourses(bind, net, t) {
				out = append(out, fmt.Sprintf("%s covers %s", inst.Teachers[t].Name, inst.Courses[c].Name))
			}
		}
		return out
	})
}
