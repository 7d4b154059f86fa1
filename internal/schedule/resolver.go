package schedule

import (
	"github.com/rewired-gh/rosterwatch/internal/logger"
	"github.com/rewired-gh/rosterwatch/internal/models"
)

// DefaultHorizonDays is how far ahead the opponent window looks.
const DefaultHorizonDays = 5

// Resolver computes the opponent window from a fixed schedule.
type Resolver struct {
	entries     []models.ScheduleEntry
	teamNames   map[string]string
	horizonDays int
	fallback    []string
}

// NewResolver creates a resolver. teamNames maps opponent codes to full names and may be nil.
// fallback is returned whenever the window comes out empty.
func NewResolver(entries []models.ScheduleEntry, teamNames map[string]string, horizonDays int, fallback []string) *Resolver {
	if horizonDays < 0 {
		horizonDays = DefaultHorizonDays
	}
	return &Resolver{
		entries:     entries,
		teamNames:   teamNames,
		horizonDays: horizonDays,
		fallback:    fallback,
	}
}

// Resolve returns the codes and known full names of every opponent played within
// [today, today+horizon] days. An empty window yields the fallback set instead.
func (r *Resolver) Resolve(today models.Date) models.OpponentSet {
	opponents := Window(r.entries, today, r.horizonDays, r.teamNames)
	if len(opponents) == 0 {
		logger.Warn("No opponents found in schedule, using fallback opponents %v", r.fallback)
		return models.NewOpponentSet(r.fallback...)
	}
	logger.Info("Found upcoming opponents for the next %d days: %v", r.horizonDays, opponents.Sorted())
	return opponents
}

// Window is the fallback-free window computation.
func Window(entries []models.ScheduleEntry, today models.Date, horizonDays int, teamNames map[string]string) models.OpponentSet {
	opponents := models.NewOpponentSet()
	for _, e := range entries {
		days := today.DaysUntil(e.Date)
		if days < 0 || days > horizonDays {
			continue
		}
		opponents.Add(e.OpponentCode)
		if name, ok := teamNames[e.OpponentCode]; ok {
			opponents.Add(name)
		}
	}
	return opponents
}
