package dataset

import "strings"

// NormalizeVariable strips a trailing units suffix from an output variable
// name. Both "Heating Energy [J]" and "Heating Energy (J)" normalize to
// "Heating Energy".
func NormalizeVariable(name string) string {
	name = strings.TrimSpace(name)
	for _, open := range []string{" [", " ("} {
		if i := strings.LastIndex(name, open); i > 0 {
			close := "]"
			if open == " (" {
				close = ")"
			}
			if strings.HasSuffix(name, close) {
				return strings.TrimSpace(name[:i])
			}
		}
	}
	return name
}

// MatchesVariable reports whether a recorded variable name refers to the
// requested output, ignoring any units suffix on either side.
func MatchesVariable(recorded, requested string) bool {
	return NormalizeVariable(recorded) == NormalizeVariable(requested)
}
