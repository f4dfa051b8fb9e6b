package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	log "github.com/golang/glog"
	"github.com/samber/lo"

	"github.com/swinghop/scheduler/internal/schedule"
)

// Survey column headers, as exported by the form.
const (
	colName           = "Who are you?"
	colIdeal          = "How many courses would you ideally like to teach?"
	colMax            = "How many courses are you able to teach at most?"
	colAttend         = "What courses and trainings would you like to attend?"
	colTeachWith      = "Who would you like to teach with?"
	colNotWith        = "Are there any people you cannot teach with?"
	colSlotPrefix     = "What days and times are convenient for you? ["
	colInterestPrefix = "What courses would you like to teach? ["
)

// Non-answers people type into the "cannot teach with" field.
var notWithNoise = []string{"", "-", "No", "no", "None", "nah", "ne", "není"}

// NormalizeName canonicalizes a person's name the way the roster spells
// it: trimmed, with inner spaces turned into dashes.
func NormalizeName(name string) string {
	return strings.ReplaceAll(strings.TrimSpace(name), " ", "-")
}

// ParseSurvey reads a form export and fills the survey-derived fields of
// the matching roster teachers: workload bounds, slot availability,
// course interest, attendance wishes and the social preference lists.
// Teachers without a survey row keep a zero course cap and cannot teach.
func ParseSurvey(r io.Reader, inst *schedule.Instance) error {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("reading survey header: %w", err)
	}
	column := make(map[string]int, len(header))
	for i, name := range header {
		column[name] = i
	}
	for _, required := range []string{colName, colIdeal, colMax} {
		if _, ok := column[required]; !ok {
			return fmt.Errorf("survey is missing column %q", required)
		}
	}

	// Interest columns name course families, one column each.
	var interestCourses []string
	for _, name := range header {
		if !strings.HasPrefix(name, colInterestPrefix) {
			continue
		}
		course := strings.TrimSuffix(strings.TrimPrefix(name, colInterestPrefix), "]")
		if err := inst.CheckCourseName(course); err != nil {
			log.Warningf("survey: interest column for %q matches no course", course)
			continue
		}
		interestCourses = append(interestCourses, course)
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("reading survey row: %w", err)
		}
		cell := func(name string) string {
			i, ok := column[name]
			if !ok || i >= len(record) {
				return ""
			}
			return record[i]
		}
		name := NormalizeName(cell(colName))
		if name == "" {
			continue
		}
		t := inst.TeacherIndex(name)
		if t < 0 {
			log.Warningf("survey: %s is not on the roster, skipping", name)
			continue
		}
		if err := fillTeacher(&inst.Teachers[t], inst, interestCourses, cell); err != nil {
			return fmt.Errorf("survey row for %s: %w", name, err)
		}
	}
	return nil
}

func fillTeacher(t *schedule.Teacher, inst *schedule.Instance, interestCourses []string, cell func(string) string) error {
	t.IdealCourses = firstDigit(t.Name, colIdeal, cell(colIdeal))
	t.MaxCourses = firstDigit(t.Name, colMax, cell(colMax))

	for s := 0; s < schedule.NumSlots; s++ {
		col := fmt.Sprintf("%s%s]", colSlotPrefix, schedule.SlotLabel(s))
		t.Availability[s] = firstDigit(t.Name, col, cell(col))
	}

	// Interest answers name course families; spread each answer across
	// the specific courses it stands for, never lowering a more specific
	// earlier answer.
	if t.Interest == nil {
		t.Interest = make(map[string]int)
	}
	for _, course := range interestCourses {
		col := fmt.Sprintf("%s%s]", colInterestPrefix, course)
		value := firstDigit(t.Name, col, cell(col))
		for _, specific := range inst.ExpandGeneralTaught(course) {
			if value > t.Interest[specific] {
				t.Interest[specific] = value
			}
		}
	}

	for _, wish := range strings.Split(cell(colAttend), ",") {
		wish = strings.TrimSpace(wish)
		if wish == "" {
			continue
		}
		if err := inst.CheckCourseName(wish); err != nil {
			log.Warningf("survey: %s wants to attend %q which matches nothing", t.Name, wish)
			continue
		}
		t.AttendWishes = append(t.AttendWishes, wish)
	}

	t.WantsWith = splitNames(cell(colTeachWith), nil)
	t.NotWith = splitNames(cell(colNotWith), notWithNoise)
	for _, other := range append(append([]string{}, t.WantsWith...), t.NotWith...) {
		if inst.TeacherIndex(other) < 0 {
			log.Warningf("survey: %s named unknown teacher %q", t.Name, other)
		}
	}
	return nil
}

func splitNames(answer string, noise []string) []string {
	var names []string
	for _, part := range strings.Split(answer, ",") {
		if lo.Contains(noise, strings.TrimSpace(part)) {
			continue
		}
		name := NormalizeName(part)
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}

// firstDigit extracts the leading digit of a multiple-choice answer like
// "3 - gladly". A blank answer is taken as a hard refusal.
func firstDigit(teacher, col, answer string) int {
	if answer == "" {
		log.Warningf("survey: %s left %q blank, defaulting to 0", teacher, col)
		return 0
	}
	c := answer[0]
	if c < '0' || c > '9' {
		log.Warningf("survey: %s answered %q for %q, defaulting to 0", teacher, answer, col)
		return 0
	}
	return int(c - '0')
}
