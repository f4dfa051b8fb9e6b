package schedule

// CourseKind determines how many teachers a course needs when it runs.
type CourseKind int

const (
	// KindRegular courses are taught by a lead/follow couple.
	KindRegular CourseKind = iota
	// KindSolo courses are taught by a single teacher.
	KindSolo
	// KindOpen courses are self-run trainings with no teacher.
	KindOpen
)

func (k CourseKind) String() string {
	switch k {
	case KindRegular:
		return "regular"
	case KindSolo:
		return "solo"
	case KindOpen:
		return "open"
	}
	return "unknown"
}

// Course is a named weekly class. Whether it actually runs this term is a
// decision left to the solver unless pinned open or closed.
type Course struct {
	Name string
	Kind CourseKind
}

// Role is a teacher's declared dancing role. The Both variants keep the
// primary role first: a RoleBothLead teacher is primarily a lead who is
// also willing to follow.
type Role int

const (
	RoleLead Role = iota
	RoleFollow
	RoleBothLead
	RoleBothFollow
)

func (r Role) String() string {
	switch r {
	case RoleLead:
		return "lead"
	case RoleFollow:
		return "follow"
	case RoleBothLead:
		return "both/lead"
	case RoleBothFollow:
		return "both/follow"
	}
	return "unknown"
}

// CanLead reports whether the role admits teaching the lead part.
func (r Role) CanLead() bool {
	return r == RoleLead || r == RoleBothLead || r == RoleBothFollow
}

// CanFollow reports whether the role admits teaching the follow part.
func (r Role) CanFollow() bool {
	return r == RoleFollow || r == RoleBothLead || r == RoleBothFollow
}

// Ordinal preference values shared by availability and course interest.
// Zero is always a hard exclusion, never a soft preference.
const (
	PrefUnavailable = 0
	PrefStrongNo    = 1
	PrefMildNo      = 2
	PrefFine        = 3
)

// MinDaysPref selects which day-packing preference a teacher expressed.
type MinDaysPref int

const (
	MinDaysIndifferent MinDaysPref = iota
	// MinDaysFewerDays prefers courses squeezed into as few days as possible.
	MinDaysFewerDays
	// MinDaysFewerPerDay prefers at most two courses on any single day.
	MinDaysFewerPerDay
)

// SplitPref records how a teacher feels about an empty middle slot
// between two taught lessons on the same day.
type SplitPref int

const (
	SplitIndifferent SplitPref = iota
	SplitDislikesGaps
	SplitToleratesGaps
)

// BestPref names the preference dimension that receives a boosted weight.
type BestPref int

const (
	BestNone BestPref = iota
	BestTime
	BestCourse
	BestPerson
)

// Teacher is one normalized row of the preference survey.
type Teacher struct {
	Name string
	Role Role

	// MaxCourses is a hard workload cap; a teacher with no survey answer
	// keeps the zero value and therefore cannot teach at all.
	MaxCourses   int
	IdealCourses int

	// Availability holds one ordinal value per slot.
	Availability [NumSlots]int

	// Interest maps specific course names to ordinal interest values.
	// A missing entry is treated as PrefUnavailable.
	Interest map[string]int

	// WantsWith and NotWith are co-teacher names; NotWith is hard.
	WantsWith []string
	NotWith   []string

	MinDays  MinDaysPref
	SplitOK  SplitPref
	BestPref BestPref

	// AttendWishes lists course names (possibly general) the teacher wants
	// to attend as a student.
	AttendWishes []string

	// Placeholder marks the fake LEADER/FOLLOW stand-ins that absorb
	// otherwise unstaffable couple courses at an enormous penalty.
	Placeholder bool
}

// InterestIn returns the teacher's interest in a specific course,
// defaulting to a hard exclusion when the survey had no answer.
func (t *Teacher) InterestIn(course string) int {
	if v, ok := t.Interest[course]; ok {
		return v
	}
	return PrefUnavailable
}

// Student participates only through attendance conflicts.
type Student struct {
	Name string
	// Blackout lists slots the student can never attend.
	Blackout []int
	// Desired lists course names (possibly general) the student wants.
	Desired []string
}

// BlackedOut reports whether the slot is in the student's blackout set.
func (s *Student) BlackedOut(slot int) bool {
	for _, b := range s.Blackout {
		if b == slot {
			return true
		}
	}
	return false
}

// Pins are explicit scheduling decisions taken out of the solver's hands.
type Pins struct {
	// Slot fixes a course to one slot (which also forces it open).
	Slot map[string]int
	// AllowedSlots restricts a course to a slot subset.
	AllowedSlots map[string][]int
	// Open and Closed force the active flag.
	Open   []string
	Closed []string
	// Teachers forces assignments, applied only if the course runs.
	Teachers map[string][]string
	// RoomForbidden and RoomRequired pin the room choice per course.
	RoomForbidden map[string]string
	RoomRequired  map[string]string
}
