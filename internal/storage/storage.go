// Package storage persists the run checkpoint: the last-check timestamp and the last notified record set.
package storage

import (
	"time"

	"github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"

	"github.com/rewired-gh/rosterwatch/internal/config"
	"github.com/rewired-gh/rosterwatch/internal/logger"
	"github.com/rewired-gh/rosterwatch/internal/models"
)

// Document names. The file backend stores each as <name>.json.
const (
	KeyLastCheck        = "last_check"
	KeyLastTransactions = "last_transactions"
)

var (
	// ErrNotFound is returned by a Backend when a document has never been written.
	ErrNotFound = crerr.New("checkpoint document not found")
	// ErrPersistenceRead marks a checkpoint that exists but cannot be read or decoded.
	ErrPersistenceRead = crerr.New("checkpoint read failed")
	// ErrPersistenceWrite marks a checkpoint write that did not complete.
	ErrPersistenceWrite = crerr.New("checkpoint write failed")
)

// Backend stores whole JSON documents by name. Every Put replaces the previous value.
type Backend interface {
	Get(name string) ([]byte, error)
	Put(name string, data []byte) error
	Close() error
}

// Open returns the backend selected by cfg.Backend.
func Open(cfg config.StorageConfig) (Backend, error) {
	var (
		b   Backend
		err error
	)
	switch cfg.Backend {
	case "", "file":
		b, err = NewFileBackend(cfg.Dir)
	case "sqlite":
		b, err = NewSQLiteBackend(cfg.DBPath)
	case "bolt":
		b, err = NewBoltBackend(cfg.DBPath)
	default:
		return nil, crerr.Newf("unknown storage backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// DefaultLastCheck is the far-past timestamp used before the first successful run.
func DefaultLastCheck(loc *time.Location) time.Time {
	return time.Date(2000, time.January, 1, 0, 0, 0, 0, loc)
}

type lastCheckDoc struct {
	LastCheck string `json:"last_check"`
}

// Store reads and writes the checkpoint on top of a Backend.
// The timestamp and the record set are independent documents.
type Store struct {
	backend Backend
	loc     *time.Location
}

// NewStore wraps backend. Naive timestamps are read in loc.
func NewStore(backend Backend, loc *time.Location) *Store {
	if loc == nil {
		loc = time.UTC
	}
	return &Store{backend: backend, loc: loc}
}

// Load returns the stored checkpoint. It never fails: a missing or corrupt timestamp becomes
// DefaultLastCheck and a missing or corrupt record set becomes nil.
func (s *Store) Load() models.Checkpoint {
	cp := models.Checkpoint{LastCheck: DefaultLastCheck(s.loc)}

	if t, err := s.lastCheck(); err != nil {
		if !crerr.Is(err, ErrNotFound) {
			logger.Warn("Using default last check time: %v", err)
		}
	} else {
		cp.LastCheck = t
	}

	if records, err := s.notified(); err != nil {
		if !crerr.Is(err, ErrNotFound) {
			logger.Warn("Ignoring stored transactions: %v", err)
		}
	} else {
		cp.LastNotified = records
	}

	return cp
}

func (s *Store) lastCheck() (time.Time, error) {
	data, err := s.backend.Get(KeyLastCheck)
	if err != nil {
		return time.Time{}, markRead(err)
	}
	var doc lastCheckDoc
	if err := sonic.Unmarshal(data, &doc); err != nil {
		return time.Time{}, crerr.Mark(crerr.Wrap(err, "decoding last check"), ErrPersistenceRead)
	}
	t, err := parseTimestamp(doc.LastCheck, s.loc)
	if err != nil {
		return time.Time{}, crerr.Mark(err, ErrPersistenceRead)
	}
	return t, nil
}

func (s *Store) notified() ([]models.TransactionRecord, error) {
	data, err := s.backend.Get(KeyLastTransactions)
	if err != nil {
		return nil, markRead(err)
	}
	records := make([]models.TransactionRecord, 0)
	if err := sonic.Unmarshal(data, &records); err != nil {
		return nil, crerr.Mark(crerr.Wrap(err, "decoding stored transactions"), ErrPersistenceRead)
	}
	return records, nil
}

// SaveLastCheck overwrites the last-check timestamp.
func (s *Store) SaveLastCheck(t time.Time) error {
	data, err := sonic.Marshal(lastCheckDoc{LastCheck: t.Format(time.RFC3339Nano)})
	if err != nil {
		return crerr.Mark(crerr.Wrap(err, "encoding last check"), ErrPersistenceWrite)
	}
	if err := s.backend.Put(KeyLastCheck, data); err != nil {
		return crerr.Mark(crerr.Wrap(err, "saving last check"), ErrPersistenceWrite)
	}
	return nil
}

// SaveNotified overwrites the last notified record set.
func (s *Store) SaveNotified(records []models.TransactionRecord) error {
	if records == nil {
		records = []models.TransactionRecord{}
	}
	data, err := sonic.Marshal(records)
	if err != nil {
		return crerr.Mark(crerr.Wrap(err, "encoding transactions"), ErrPersistenceWrite)
	}
	if err := s.backend.Put(KeyLastTransactions, data); err != nil {
		return crerr.Mark(crerr.Wrap(err, "saving transactions"), ErrPersistenceWrite)
	}
	return nil
}

// Close closes the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

func markRead(err error) error {
	if crerr.Is(err, ErrNotFound) {
		return err
	}
	return crerr.Mark(err, ErrPersistenceRead)
}

// Timestamps written by older tooling carry no zone offset.
var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func parseTimestamp(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, crerr.Newf("unrecognized timestamp %q", s)
}
