package solver

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/or-tools/ortools/sat/go/cpmodel"
	"github.com/samber/lo"

	cmpb "github.com/google/or-tools/ortools/sat/proto/cpmodel"

	"github.com/swinghop/scheduler/internal/model"
	"github.com/swinghop/scheduler/internal/schedule"
)

type responseBinding struct {
	resp *cmpb.CpSolverResponse
}

// NewResponseBinding adapts a solver response to the value-lookup
// interface the decoder and penalty explanations read from.
func NewResponseBinding(resp *cmpb.CpSolverResponse) model.Binding {
	return responseBinding{resp: resp}
}

func (rb responseBinding) BoolValue(v cpmodel.BoolVar) bool {
	return cpmodel.SolutionBooleanValue(rb.resp, v)
}

func (rb responseBinding) IntValue(v cpmodel.IntVar) int64 {
	return cpmodel.SolutionIntegerValue(rb.resp, v)
}

// Assignment is one running course in the decoded timetable.
type Assignment struct {
	Slot   int
	Room   string
	Course string
	// Staff lists the teachers with their roles, or "OPEN" for courses
	// that run without one.
	Staff []string
}

// LedgerEntry reports one penalty term of a decoded solution. Details
// are re-derived from the assignment variables, independently of the
// solver's own tallies.
type LedgerEntry struct {
	Name    string
	Raw     int64
	Weight  int
	Boosted int64
	Product int64
	Details []string
}

// Solution is a decoded timetable with its penalty breakdown.
type Solution struct {
	Assignments []Assignment
	Ledger      []LedgerEntry
	Penalty     int64
	// SlotLoad counts occupied rooms per slot.
	SlotLoad [schedule.NumSlots]int
	// Workload counts courses taught per teacher.
	Workload map[string]int
	// Blocked maps each real person to the slot labels where they are
	// hard-unavailable or committed to a course.
	Blocked map[string][]string
}

// Decode turns a total variable binding into a Solution. Decoding is a
// pure read: the same binding always decodes to the same solution.
func Decode(m *model.Model, bind model.Binding) *Solution {
	inst, net := m.Inst, m.Net
	sol := &Solution{
		Workload: make(map[string]int),
		Blocked:  make(map[string][]string),
	}

	for s := 0; s < schedule.NumSlots; s++ {
		for r := range inst.Rooms {
			for c := range inst.Courses {
				if !bind.BoolValue(net.Placement[s][r][c]) {
					continue
				}
				sol.SlotLoad[s]++
				sol.Assignments = append(sol.Assignments, Assignment{
					Slot:   s,
					Room:   inst.Rooms[r],
					Course: inst.Courses[c].Name,
					Staff:  decodeStaff(inst, net, bind, c),
				})
			}
		}
	}
	sort.Slice(sol.Assignments, func(i, j int) bool {
		a, b := sol.Assignments[i], sol.Assignments[j]
		if a.Slot != b.Slot {
			return a.Slot < b.Slot
		}
		return a.Room < b.Room
	})

	for _, term := range m.Terms {
		entry := LedgerEntry{
			Name:    term.Name,
			Raw:     bind.IntValue(term.Count),
			Weight:  term.Weight,
			Boosted: bind.IntValue(term.Boosted),
		}
		entry.Product = int64(entry.Weight) * entry.Boosted
		if term.Explain != nil && entry.Raw > 0 {
			entry.Details = term.Explain(bind)
		}
		sol.Penalty += entry.Product
		sol.Ledger = append(sol.Ledger, entry)
	}

	for t := range inst.Teachers {
		var count int
		for c := range inst.Courses {
			if bind.BoolValue(net.Teaches[t][c]) {
				count++
			}
		}
		if count > 0 {
			sol.Workload[inst.Teachers[t].Name] = count
		}
	}

	for _, p := range inst.People() {
		for s := 0; s < schedule.NumSlots; s++ {
			if bind.BoolValue(net.UnavailableOrBusy[p][s]) {
				name := inst.Teachers[p].Name
				sol.Blocked[name] = append(sol.Blocked[name], schedule.SlotLabel(s))
			}
		}
	}
	return sol
}

func decodeStaff(inst *schedule.Instance, net *model.Network, bind model.Binding, c int) []string {
	if inst.Courses[c].Kind == schedule.KindOpen {
		return []string{"OPEN"}
	}
	var staff []string
	for t := range inst.Teachers {
		if !bind.BoolValue(net.Teaches[t][c]) {
			continue
		}
		name := inst.Teachers[t].Name
		switch {
		case inst.Courses[c].Kind == schedule.KindSolo:
			staff = append(staff, name)
		case leadsCourse(net, bind, t, c):
			staff = append(staff, name+" (lead)")
		default:
			staff = append(staff, name+" (follow)")
		}
	}
	sort.Strings(staff)
	return staff
}

// leadsCourse resolves the role a teacher fills on a regular course. A
// teacher eligible for only one side fills that side.
func leadsCourse(net *model.Network, bind model.Binding, t, c int) bool {
	if lead, ok := net.LeadVar(t, c); ok && bind.BoolValue(lead) {
		return true
	}
	return false
}

// String renders the timetable grid followed by the penalty ledger.
func (sol *Solution) String() string {
	var sb strings.Builder
	for _, a := range sol.Assignments {
		fmt.Fprintf(&sb, "%-9s  %s: %s (%s)\n", schedule.SlotLabel(a.Slot), a.Room, a.Course, strings.Join(a.Staff, ", "))
	}
	teachers := lo.Keys(sol.Workload)
	sort.Strings(teachers)
	for _, name := range teachers {
		fmt.Fprintf(&sb, "%s teaches %d\n", name, sol.Workload[name])
	}
	for _, e := range sol.Ledger {
		if e.Raw == 0 {
			continue
		}
		fmt.Fprintf(&sb, "%s: %d x %d = %d\n", e.Name, e.Boosted, e.Weight, e.Product)
		for _, d := range e.Details {
			fmt.Fprintf(&sb, "  %s\n", d)
		}
	}
	fmt.Fprintf(&sb, "total penalty: %d\n", sol.Penalty)
	return sb.String()
}
