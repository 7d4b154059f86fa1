package models

import (
	"errors"
	"time"
)

// TransactionRecord is one dated roster move reported by a record source.
// Only Date and Team take part in filtering and ordering; Player is informational.
type TransactionRecord struct {
	Date    Date   `json:"date"`
	Team    string `json:"team"`
	Details string `json:"details"`
	Player  string `json:"player"`
}

// Key identifies a transaction across runs. Player is deliberately not part of it.
type Key struct {
	Team    string
	Date    string
	Details string
}

// Key returns the (team, date, details) identity of the record.
func (t TransactionRecord) Key() Key {
	return Key{Team: t.Team, Date: t.Date.String(), Details: t.Details}
}

// Validate checks the fields every source must provide.
func (t *TransactionRecord) Validate() error {
	if t.Date.IsZero() {
		return errors.New("transaction date must not be empty")
	}
	if t.Team == "" {
		return errors.New("transaction team must not be empty")
	}
	return nil
}

// Checkpoint is the state carried between runs.
// LastNotified is nil when no record set has ever been stored.
type Checkpoint struct {
	LastCheck    time.Time
	LastNotified []TransactionRecord
}
