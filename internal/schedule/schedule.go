// Package schedule loads the subject team's season calendar and resolves which opponents fall inside the
// upcoming window.
package schedule

import (
	_ "embed"
	"os"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/rewired-gh/rosterwatch/internal/logger"
	"github.com/rewired-gh/rosterwatch/internal/models"
)

//go:embed data/bluejays_2025.yaml
var defaultDocument []byte

// ErrScheduleData marks schedule input that cannot produce a single usable entry.
var ErrScheduleData = crerr.New("schedule data unusable")

// shortDateLayout is the "Thursday, Mar 27" form used in published season calendars.
const shortDateLayout = "Monday, Jan 2"

// Document is the on-disk schedule resource.
type Document struct {
	Season int               `yaml:"season"`
	Teams  map[string]string `yaml:"teams"`
	Games  []Game            `yaml:"games"`
}

// Game is one raw schedule row.
type Game struct {
	Date     string `yaml:"date"`
	Opponent string `yaml:"opponent"`
	Home     bool   `yaml:"home"`
}

// Default returns the embedded season schedule.
func Default() (*Document, error) {
	return Decode(defaultDocument)
}

// LoadFile reads a schedule document from path.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, crerr.Mark(crerr.Wrapf(err, "reading schedule %s", path), ErrScheduleData)
	}
	return Decode(data)
}

// Decode parses a YAML schedule document.
func Decode(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, crerr.Mark(crerr.Wrap(err, "decoding schedule"), ErrScheduleData)
	}
	return &doc, nil
}

// Entries converts the raw rows into schedule entries.
// Rows with a bad date or no opponent are skipped and logged; if no row survives the
// document is reported as ErrScheduleData.
func (d *Document) Entries() ([]models.ScheduleEntry, error) {
	entries := make([]models.ScheduleEntry, 0, len(d.Games))
	for i, g := range d.Games {
		date, err := parseGameDate(g.Date, d.Season)
		if err != nil {
			logger.Warn("Skipping schedule row %d: %v", i, err)
			continue
		}
		opponent := strings.TrimSpace(g.Opponent)
		if opponent == "" {
			logger.Warn("Skipping schedule row %d: missing opponent", i)
			continue
		}
		entries = append(entries, models.ScheduleEntry{
			Date:         date,
			OpponentCode: opponent,
			IsHome:       g.Home,
		})
	}

	if len(d.Games) > 0 && len(entries) == 0 {
		return nil, crerr.Mark(crerr.Newf("none of %d schedule rows could be parsed", len(d.Games)), ErrScheduleData)
	}
	return entries, nil
}

// parseGameDate accepts ISO dates or the short weekday form, which takes its year from season.
func parseGameDate(s string, season int) (models.Date, error) {
	s = strings.TrimSpace(s)
	if d, err := models.ParseDate(s); err == nil {
		return d, nil
	}
	t, err := time.Parse(shortDateLayout, s)
	if err != nil {
		return models.Date{}, crerr.Newf("unparseable game date %q", s)
	}
	if season <= 0 {
		return models.Date{}, crerr.Newf("game date %q has no year and the document has no season", s)
	}
	return models.NewDate(season, t.Month(), t.Day()), nil
}
