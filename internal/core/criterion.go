package core

// Criterion is one compliance rule being checked. Identity is immutable and
// loaded once per session; the order of the session's criteria list defines
// reporting order and is the compatibility token for resume.
type Criterion struct {
	ID    string `json:"id" yaml:"id"`
	Theme string `json:"theme" yaml:"theme"`
	Title string `json:"title" yaml:"title"`
}

// CriteriaIDs returns the ordered identifier list for a criteria set.
func CriteriaIDs(criteria []Criterion) []string {
	ids := make([]string, len(criteria))
	for i, c := range criteria {
		ids[i] = c.ID
	}
	return ids
}

// SameCriteria reports whether two ordered identifier lists are identical.
func SameCriteria(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
