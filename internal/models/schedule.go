package models

import "sort"

// ScheduleEntry is one game on the subject team's calendar.
type ScheduleEntry struct {
	Date         Date
	OpponentCode string
	IsHome       bool
}

// OpponentSet holds team codes and full names the subject team faces soon.
type OpponentSet map[string]struct{}

// NewOpponentSet returns a set containing names.
func NewOpponentSet(names ...string) OpponentSet {
	s := make(OpponentSet, len(names))
	for _, n := range names {
		s.Add(n)
	}
	return s
}

// Add inserts name; empty names are ignored.
func (s OpponentSet) Add(name string) {
	if name == "" {
		return
	}
	s[name] = struct{}{}
}

// Has reports whether name is in the set.
func (s OpponentSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Sorted returns the members in ascending order.
func (s OpponentSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
