// Package monitor decides which transactions matter this run and whether they differ from the last
// notified set.
package monitor

import (
	"regexp"
	"strings"

	"github.com/rewired-gh/rosterwatch/internal/logger"
	"github.com/rewired-gh/rosterwatch/internal/models"
)

// Subject identifies the team whose own transactions are never reported.
type Subject struct {
	Name string
	Code string
}

// owns reports whether team belongs to the subject. Plain, case-sensitive substring match.
func (s Subject) owns(team string) bool {
	return (s.Name != "" && strings.Contains(team, s.Name)) ||
		(s.Code != "" && strings.Contains(team, s.Code))
}

// Filter keeps records whose team matches one of the relevant opponents as a whole word,
// ignoring case, and drops every record that belongs to the subject team.
// The input slice is not modified.
func Filter(records []models.TransactionRecord, relevant models.OpponentSet, subject Subject) []models.TransactionRecord {
	matcher := opponentMatcher(relevant)
	out := make([]models.TransactionRecord, 0)
	if matcher == nil {
		return out
	}

	for _, rec := range records {
		if subject.owns(rec.Team) {
			continue
		}
		if matcher.MatchString(rec.Team) {
			out = append(out, rec)
		}
	}

	logger.Info("Filtered to %d relevant transactions from opponents", len(out))
	return out
}

// opponentMatcher compiles one case-insensitive, word-bounded alternation of the names.
// It returns nil for an empty set.
func opponentMatcher(relevant models.OpponentSet) *regexp.Regexp {
	names := relevant.Sorted()
	if len(names) == 0 {
		return nil
	}
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = regexp.QuoteMeta(n)
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
}
