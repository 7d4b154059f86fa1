package storage

import (
	"time"

	crerr "github.com/cockroachdb/errors"
	bolt "go.etcd.io/bbolt"
)

const bucketCheckpoints = "checkpoints"

// BoltBackend stores checkpoint documents in one bbolt bucket.
type BoltBackend struct {
	db *bolt.DB
}

func NewBoltBackend(dbPath string) (*BoltBackend, error) {
	if dbPath == "" {
		dbPath = "rosterwatch.bolt"
	}
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, crerr.Wrap(err, "opening database")
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(bucketCheckpoints)); err != nil {
			return crerr.Wrap(err, "creating checkpoints bucket")
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltBackend{db: db}, nil
}

func (s *BoltBackend) Get(name string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket([]byte(bucketCheckpoints)).Get([]byte(name))
		if data == nil {
			return ErrNotFound
		}
		// data is only valid inside the transaction
		out = append([]byte(nil), data...)
		return nil
	})
	return out, err
}

func (s *BoltBackend) Put(name string, data []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketCheckpoints)).Put([]byte(name), data)
	})
}

func (s *BoltBackend) Close() error {
	return s.db.Close()
}
