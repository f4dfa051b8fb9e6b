package schedule

import "fmt"

// The week is a fixed grid of teaching slots: four evenings, three
// lesson times each. Slots are flattened as day*TimesPerDay+time so
// that day and time can be recovered with floor division and modulo.
const (
	NumDays     = 4
	TimesPerDay = 3
	NumSlots    = NumDays * TimesPerDay
)

var (
	DayNames  = []string{"Mon", "Tue", "Wed", "Thu"}
	TimeNames = []string{"17:30", "18:45", "20:00"}
)

// SlotIndex flattens a (day, time) pair into a slot index.
func SlotIndex(day, time int) int {
	return day*TimesPerDay + time
}

// SlotDay returns the day component of a slot index.
func SlotDay(slot int) int {
	return slot / TimesPerDay
}

// SlotTime returns the time-of-day component of a slot index.
func SlotTime(slot int) int {
	return slot % TimesPerDay
}

// SlotLabel renders a slot as "Mon 17:30".
func SlotLabel(slot int) string {
	if slot < 0 || slot >= NumSlots {
		return fmt.Sprintf("slot(%d)", slot)
	}
	return DayNames[SlotDay(slot)] + " " + TimeNames[SlotTime(slot)]
}

// DaySlots returns the slot indices belonging to a day, in time order.
func DaySlots(day int) []int {
	slots := make([]int, TimesPerDay)
	for i := range slots {
		slots[i] = SlotIndex(day, i)
	}
	return slots
}
