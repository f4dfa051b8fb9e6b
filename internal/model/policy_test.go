package model

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/swinghop/scheduler/internal/schedule"
)

func TestTermPolicy(t *testing.T) {
	allFine := func() (a [schedule.NumSlots]int) {
		for i := range a {
			a[i] = schedule.PrefFine
		}
		return a
	}

	t.Run("placeholders are exempt from everything", func(t *testing.T) {
		fake := schedule.Teacher{Name: "LEADER", Placeholder: true, MaxCourses: 5}
		for kind := TermUtilization; kind <= TermTeachTogether; kind++ {
			applies, _ := termPolicy(&fake, kind)
			assert.False(t, applies)
		}
	})

	t.Run("utilization needs a positive cap", func(t *testing.T) {
		applies, _ := termPolicy(&schedule.Teacher{MaxCourses: 0}, TermUtilization)
		assert.False(t, applies)
		applies, mult := termPolicy(&schedule.Teacher{MaxCourses: 2}, TermUtilization)
		assert.True(t, applies)
		assert.Equal(t, int64(1), mult)
	})

	t.Run("day packing follows the stated preference", func(t *testing.T) {
		few := schedule.Teacher{MinDays: schedule.MinDaysFewerDays}
		spread := schedule.Teacher{MinDays: schedule.MinDaysFewerPerDay}

		applies, _ := termPolicy(&few, TermTeachDays)
		assert.True(t, applies)
		applies, _ = termPolicy(&few, TermTeachThree)
		assert.False(t, applies)
		applies, _ = termPolicy(&spread, TermTeachThree)
		assert.True(t, applies)
		applies, _ = termPolicy(&spread, TermOccupiedDays)
		assert.False(t, applies)
	})

	t.Run("slot preference requires a discriminating availability", func(t *testing.T) {
		indifferent := schedule.Teacher{Availability: allFine()}
		applies, _ := termPolicy(&indifferent, TermSlotStrong)
		assert.False(t, applies)

		picky := schedule.Teacher{Availability: allFine()}
		picky.Availability[0] = schedule.PrefStrongNo
		applies, mult := termPolicy(&picky, TermSlotStrong)
		assert.True(t, applies)
		assert.Equal(t, int64(1), mult)
		applies, _ = termPolicy(&picky, TermSlotMild)
		assert.False(t, applies)

		// All-bad answers express no preference at all.
		var hopeless schedule.Teacher
		for i := range hopeless.Availability {
			hopeless.Availability[i] = schedule.PrefStrongNo
		}
		applies, _ = termPolicy(&hopeless, TermSlotStrong)
		assert.False(t, applies)
	})

	t.Run("best preference doubles its dimension", func(t *testing.T) {
		picky := schedule.Teacher{Availability: allFine(), BestPref: schedule.BestTime}
		picky.Availability[3] = schedule.PrefMildNo
		applies, mult := termPolicy(&picky, TermSlotMild)
		assert.True(t, applies)
		assert.Equal(t, int64(2), mult)

		chooser := schedule.Teacher{
			Interest: map[string]int{"LH 1": schedule.PrefStrongNo, "LH 2": schedule.PrefFine},
			BestPref: schedule.BestCourse,
		}
		applies, mult = termPolicy(&chooser, TermCourseStrong)
		assert.True(t, applies)
		assert.Equal(t, int64(2), mult)

		social := schedule.Teacher{WantsWith: []string{"Zora"}, BestPref: schedule.BestPerson}
		applies, mult = termPolicy(&social, TermTeachTogether)
		assert.True(t, applies)
		assert.Equal(t, int64(2), mult)

		// The boost never leaks across dimensions.
		applies, mult = termPolicy(&picky, TermSlotStrong)
		assert.False(t, applies)
		social.BestPref = schedule.BestTime
		applies, mult = termPolicy(&social, TermTeachTogether)
		assert.True(t, applies)
		assert.Equal(t, int64(1), mult)
	})

	t.Run("gap dislike gates the split term", func(t *testing.T) {
		applies, _ := termPolicy(&schedule.Teacher{SplitOK: schedule.SplitDislikesGaps}, TermSplit)
		assert.True(t, applies)
		applies, _ = termPolicy(&schedule.Teacher{SplitOK: schedule.SplitToleratesGaps}, TermSplit)
		assert.False(t, applies)
	})
}
