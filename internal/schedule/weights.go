package schedule

// Penalty names. Each one is an independently weighted soft term; a zero
// weight disables the term entirely.
const (
	PenaltyUtilization     = "utilization"
	PenaltyTeachDays       = "teach_days"
	PenaltyOccupiedDays    = "occupied_days"
	PenaltyTeachThree      = "teach_three"
	PenaltySplit           = "split"
	PenaltySlotStrong      = "slotpref_bad"
	PenaltySlotMild        = "slotpref_slight"
	PenaltyCourseStrong    = "coursepref_bad"
	PenaltyCourseMild      = "coursepref_slight"
	PenaltyTeachTogether   = "teach_together"
	PenaltyAttendFree      = "attend_free"
	PenaltyCoursesClosed   = "courses_closed"
	PenaltyStudBad         = "stud_bad"
	PenaltyEverybodyTeach  = "everybody_teach"
	PenaltyPlaceholders    = "faketeachers"
)

var defaultWeights = map[string]int{
	PenaltyUtilization:    25,
	PenaltyTeachDays:      75,
	PenaltyOccupiedDays:   25,
	PenaltyTeachThree:     40,
	PenaltySplit:          50,
	PenaltySlotStrong:     80,
	PenaltySlotMild:       20,
	PenaltyCourseStrong:   80,
	PenaltyCourseMild:     20,
	PenaltyTeachTogether:  25,
	PenaltyAttendFree:     50,
	PenaltyCoursesClosed:  1000,
	PenaltyStudBad:        40,
	PenaltyEverybodyTeach: 1000,
	PenaltyPlaceholders:   1000000,
}

// KnownPenalty reports whether name is one of the built-in penalties.
func KnownPenalty(name string) bool {
	_, ok := defaultWeights[name]
	return ok
}

// PenaltyWeight resolves the effective weight of a built-in penalty,
// honoring instance overrides.
func (in *Instance) PenaltyWeight(name string) int {
	if w, ok := in.Weights[name]; ok {
		return w
	}
	return defaultWeights[name]
}
