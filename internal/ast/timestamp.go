package ast

import "fmt"

// Formatted returns the canonical textual form of a timestamp,
// "YYYY-MM-DDTHH:MM" plus the timezone suffix as written. Invalid
// timestamps return their raw text so lexicographic comparisons still
// behave deterministically.
func (t Timestamp) Formatted() string {
	if !t.Valid {
		return t.Raw
	}
	return fmt.Sprintf("%04d-%02d-%02dT%02d:%02d%s", t.Year, t.Month, t.Day, t.Hour, t.Minute, t.Timezone)
}

// Before reports whether t sorts strictly before other under the
// canonical lexicographic timestamp ordering.
func (t Timestamp) Before(other Timestamp) bool {
	return t.Formatted() < other.Formatted()
}
