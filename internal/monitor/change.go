package monitor

import "github.com/rewired-gh/rosterwatch/internal/models"

// HasChanged reports whether the two record collections differ as sets of (team, date, details) keys.
// Order and repetition are ignored. A missing previous set behaves like an empty one, so a first run
// only counts as changed when it found something.
func HasChanged(current, previous []models.TransactionRecord) bool {
	a := keySet(current)
	b := keySet(previous)
	if len(a) != len(b) {
		return true
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return true
		}
	}
	return false
}

func keySet(records []models.TransactionRecord) map[models.Key]struct{} {
	set := make(map[models.Key]struct{}, len(records))
	for _, r := range records {
		set[r.Key()] = struct{}{}
	}
	return set
}
