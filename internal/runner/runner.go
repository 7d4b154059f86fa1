// Package runner executes one transaction check: resolve opponents, fetch, filter, compare with the
// checkpoint, report, notify and commit.
package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/rewired-gh/rosterwatch/internal/logger"
	"github.com/rewired-gh/rosterwatch/internal/models"
	"github.com/rewired-gh/rosterwatch/internal/monitor"
	"github.com/rewired-gh/rosterwatch/internal/notifier"
	"github.com/rewired-gh/rosterwatch/internal/report"
	"github.com/rewired-gh/rosterwatch/internal/source"
	"github.com/rewired-gh/rosterwatch/internal/storage"
)

// Mode selects the fetch window.
type Mode int

const (
	// ModeSinceLastCheck fetches everything dated on or after the last check day.
	ModeSinceLastCheck Mode = iota
	// ModeTodayOnly fetches today's records and notifies even if they were already sent.
	ModeTodayOnly
)

func (m Mode) String() string {
	if m == ModeTodayOnly {
		return "today-only"
	}
	return "since-last-check"
}

// Reasons reported when no notification goes out.
const (
	ReasonNoTransactions = "no transactions found"
	ReasonUnchanged      = "no new transactions compared to previous check"
	ReasonDisabled       = "notifications disabled"
	ReasonNotifyFailed   = "notification failed"
)

// Config is the fixed per-process setup of a Runner.
type Config struct {
	Subject  monitor.Subject
	Location *time.Location
}

// Result describes what one run saw and did.
type Result struct {
	RunID     string
	Mode      Mode
	Today     models.Date
	Since     models.Date
	Opponents []string
	Fetched   int
	Relevant  int
	Changed   bool
	Notified  bool
	Subject   string
	Report    string
	Reason    string
}

// Runner wires the pipeline together. A nil notifier means notifications are disabled.
type Runner struct {
	subject  monitor.Subject
	loc      *time.Location
	resolver opponentResolver
	source   source.Source
	store    *storage.Store
	notifier notifier.Notifier
	out      io.Writer
	now      func() time.Time
}

// opponentResolver is satisfied by *schedule.Resolver.
type opponentResolver interface {
	Resolve(today models.Date) models.OpponentSet
}

func New(cfg Config, resolver opponentResolver, src source.Source, store *storage.Store, n notifier.Notifier) *Runner {
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	return &Runner{
		subject:  cfg.Subject,
		loc:      loc,
		resolver: resolver,
		source:   src,
		store:    store,
		notifier: n,
		out:      os.Stdout,
		now:      time.Now,
	}
}

// SetOutput redirects the printed report.
func (r *Runner) SetOutput(w io.Writer) {
	r.out = w
}

// Run performs a single check. Recoverable failures are logged and absorbed; the returned error is
// only set when the run itself broke, in which case the checkpoint was not committed.
func (r *Runner) Run(ctx context.Context, mode Mode) (result *Result, err error) {
	runID := uuid.NewString()
	defer func() {
		if p := recover(); p != nil {
			err = crerr.Newf("run %s aborted: %v", runID, p)
			result = nil
			logger.Error("Unexpected error in transaction check: %v", p)
		}
	}()

	now := r.now().In(r.loc)
	today := models.DateOf(now)
	logger.Info("Starting MLB transaction check (run %s, mode %s)", runID, mode)

	opponents := r.resolver.Resolve(today)

	checkpoint := r.store.Load()
	since := models.DateOf(checkpoint.LastCheck.In(r.loc))
	if mode == ModeTodayOnly {
		since = today
	}

	records, fetchErr := r.source.Fetch(ctx, since)
	if fetchErr != nil {
		logger.Error("Error fetching MLB transactions: %v", fetchErr)
		records = nil
	}

	relevant := monitor.Filter(records, opponents, r.subject)
	changed := monitor.HasChanged(relevant, checkpoint.LastNotified)

	result = &Result{
		RunID:     runID,
		Mode:      mode,
		Today:     today,
		Since:     since,
		Opponents: opponents.Sorted(),
		Fetched:   len(records),
		Relevant:  len(relevant),
		Changed:   changed,
		Subject:   report.Subject(relevant),
		Report:    report.Format(relevant, opponents),
	}
	fmt.Fprintln(r.out, result.Report)

	switch {
	case len(relevant) == 0:
		result.Reason = ReasonNoTransactions
	case mode != ModeTodayOnly && !changed:
		result.Reason = ReasonUnchanged
	case r.notifier == nil:
		result.Reason = ReasonDisabled
	default:
		if err := r.notifier.Notify(ctx, result.Subject, result.Report); err != nil {
			logger.Error("Failed to send %s notification: %v", r.notifier.Type(), err)
			result.Reason = ReasonNotifyFailed
			break
		}
		result.Notified = true
		logger.Info("Notification sent: %s", result.Subject)
		if err := r.store.SaveNotified(relevant); err != nil {
			logger.Error("Failed to save notified transactions: %v", err)
		}
	}

	if !result.Notified {
		fmt.Fprintf(r.out, "No email sent: %s\n", result.Reason)
	}

	if err := r.store.SaveLastCheck(now); err != nil {
		logger.Error("Failed to save last check time: %v", err)
	}

	logger.Info("Transaction check complete (run %s): %d fetched, %d relevant, notified=%t",
		runID, result.Fetched, result.Relevant, result.Notified)
	return result, nil
}
