package schedule

import (
	"fmt"
	"strings"
)

// Survey answers often name a whole course family ("LH 4") rather than a
// specific variant ("LH 4 /1"). A general name matches every specific
// course sharing its prefix, with two families opted out of prefix
// matching because their names are prefixes of each other: anything
// ending in "English" and the whole "Collegiate Shag" family match only
// their exact specific name.
func GeneralMatches(specific, general string) bool {
	if strings.HasSuffix(specific, "English") || strings.HasPrefix(specific, "Collegiate Shag") {
		return specific == general
	}
	return strings.HasPrefix(specific, general)
}

// ExpandGeneral returns the specific course names a general name stands for.
func (in *Instance) ExpandGeneral(general string) []string {
	var names []string
	for _, c := range in.Courses {
		if GeneralMatches(c.Name, general) {
			names = append(names, c.Name)
		}
	}
	return names
}

// ExpandGeneralTaught is ExpandGeneral restricted to teachable courses.
func (in *Instance) ExpandGeneralTaught(general string) []string {
	var names []string
	for _, c := range in.Courses {
		if c.Kind != KindOpen && GeneralMatches(c.Name, general) {
			names = append(names, c.Name)
		}
	}
	return names
}

// CheckCourseName verifies a general name resolves to at least one known
// course. An unresolvable name is a configuration error.
func (in *Instance) CheckCourseName(general string) error {
	if len(in.ExpandGeneral(general)) == 0 {
		return fmt.Errorf("unknown course: %q", general)
	}
	return nil
}
