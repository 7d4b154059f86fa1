package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	crerr "github.com/cockroachdb/errors"

	"github.com/rewired-gh/rosterwatch/internal/config"
	"github.com/rewired-gh/rosterwatch/internal/models"
)

var toronto = mustLocation("America/Toronto")

func mustLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

func backends(t *testing.T) map[string]func(t *testing.T) Backend {
	t.Helper()
	return map[string]func(t *testing.T) Backend{
		"file": func(t *testing.T) Backend {
			b, err := NewFileBackend(t.TempDir())
			if err != nil {
				t.Fatalf("NewFileBackend: %v", err)
			}
			return b
		},
		"sqlite": func(t *testing.T) Backend {
			b, err := NewSQLiteBackend(":memory:")
			if err != nil {
				t.Fatalf("NewSQLiteBackend: %v", err)
			}
			return b
		},
		"bolt": func(t *testing.T) Backend {
			b, err := NewBoltBackend(filepath.Join(t.TempDir(), "checkpoint.bolt"))
			if err != nil {
				t.Fatalf("NewBoltBackend: %v", err)
			}
			return b
		},
	}
}

func testRecords() []models.TransactionRecord {
	return []models.TransactionRecord{
		{Date: models.NewDate(2025, time.April, 20), Team: "Boston Red Sox", Details: "placed Smith on IL", Player: "Smith"},
		{Date: models.NewDate(2025, time.April, 19), Team: "New York Yankees", Details: "recalled Doe", Player: "Doe"},
	}
}

func TestBackendGetMissing(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			b := open(t)
			t.Cleanup(func() { _ = b.Close() })

			if _, err := b.Get(KeyLastCheck); !crerr.Is(err, ErrNotFound) {
				t.Errorf("Get on empty backend: got %v, want ErrNotFound", err)
			}
		})
	}
}

func TestBackendPutOverwrites(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			b := open(t)
			t.Cleanup(func() { _ = b.Close() })

			if err := b.Put(KeyLastTransactions, []byte(`[1]`)); err != nil {
				t.Fatalf("Put: %v", err)
			}
			if err := b.Put(KeyLastTransactions, []byte(`[2]`)); err != nil {
				t.Fatalf("Put: %v", err)
			}
			got, err := b.Get(KeyLastTransactions)
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if string(got) != `[2]` {
				t.Errorf("Get = %s, want [2]", got)
			}
		})
	}
}

func TestStoreRoundTrip(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := NewStore(open(t), toronto)
			t.Cleanup(func() { _ = s.Close() })

			now := time.Date(2025, time.April, 20, 9, 30, 0, 0, toronto)
			if err := s.SaveLastCheck(now); err != nil {
				t.Fatalf("SaveLastCheck: %v", err)
			}
			if err := s.SaveNotified(testRecords()); err != nil {
				t.Fatalf("SaveNotified: %v", err)
			}

			cp := s.Load()
			if !cp.LastCheck.Equal(now) {
				t.Errorf("LastCheck = %v, want %v", cp.LastCheck, now)
			}
			if len(cp.LastNotified) != 2 {
				t.Fatalf("LastNotified has %d records, want 2", len(cp.LastNotified))
			}
			for i, want := range testRecords() {
				if got := cp.LastNotified[i]; got.Key() != want.Key() || got.Player != want.Player {
					t.Errorf("record %d = %+v, want %+v", i, got, want)
				}
			}
		})
	}
}

func TestStoreLoadDefaults(t *testing.T) {
	s := NewStore(mustFileBackend(t, t.TempDir()), toronto)

	cp := s.Load()
	want := time.Date(2000, time.January, 1, 0, 0, 0, 0, toronto)
	if !cp.LastCheck.Equal(want) {
		t.Errorf("LastCheck = %v, want %v", cp.LastCheck, want)
	}
	if cp.LastNotified != nil {
		t.Errorf("LastNotified = %v, want nil", cp.LastNotified)
	}
}

func TestStoreLoadCorrupt(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "last_check.json"), `{"last_check": "yesterday"}`)
	writeFile(t, filepath.Join(dir, "last_transactions.json"), `{not json`)

	cp := NewStore(mustFileBackend(t, dir), toronto).Load()
	if !cp.LastCheck.Equal(DefaultLastCheck(toronto)) {
		t.Errorf("LastCheck = %v, want default", cp.LastCheck)
	}
	if cp.LastNotified != nil {
		t.Errorf("LastNotified = %v, want nil", cp.LastNotified)
	}
}

func TestStoreLoadLegacyFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "last_check.json"), `{"last_check": "2025-04-18T07:15:02.123456"}`)
	writeFile(t, filepath.Join(dir, "last_transactions.json"),
		`[{"date": "2025-04-18", "team": "Tampa Bay Rays", "details": "signed Roe", "player": "Roe"}]`)

	cp := NewStore(mustFileBackend(t, dir), toronto).Load()

	want := time.Date(2025, time.April, 18, 7, 15, 2, 123456000, toronto)
	if !cp.LastCheck.Equal(want) {
		t.Errorf("LastCheck = %v, want %v", cp.LastCheck, want)
	}
	if len(cp.LastNotified) != 1 || cp.LastNotified[0].Team != "Tampa Bay Rays" {
		t.Errorf("LastNotified = %+v", cp.LastNotified)
	}
}

func TestStoreSaveEmptyRecordSet(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(mustFileBackend(t, dir), toronto)
	if err := s.SaveNotified(nil); err != nil {
		t.Fatalf("SaveNotified: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "last_transactions.json"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "[]" {
		t.Errorf("file = %s, want []", data)
	}
	if cp := s.Load(); cp.LastNotified == nil || len(cp.LastNotified) != 0 {
		t.Errorf("LastNotified = %#v, want empty non-nil", cp.LastNotified)
	}
}

func TestStoreWriteFailure(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "gone")
	s := NewStore(mustFileBackend(t, dir), toronto)
	if err := os.RemoveAll(dir); err != nil {
		t.Fatal(err)
	}

	err := s.SaveLastCheck(time.Now())
	if !crerr.Is(err, ErrPersistenceWrite) {
		t.Errorf("SaveLastCheck error = %v, want ErrPersistenceWrite", err)
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		input   string
		want    time.Time
		wantErr bool
	}{
		{"2025-04-18T07:15:02-04:00", time.Date(2025, 4, 18, 11, 15, 2, 0, time.UTC), false},
		{"2025-04-18T07:15:02", time.Date(2025, 4, 18, 7, 15, 2, 0, toronto), false},
		{"2025-04-18 07:15:02", time.Date(2025, 4, 18, 7, 15, 2, 0, toronto), false},
		{"2000-01-01T00:00:00", time.Date(2000, 1, 1, 0, 0, 0, 0, toronto), false},
		{"", time.Time{}, true},
		{"04/18/25", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseTimestamp(tt.input, toronto)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseTimestamp(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && !got.Equal(tt.want) {
				t.Errorf("parseTimestamp(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		cfg     config.StorageConfig
		wantErr bool
	}{
		{config.StorageConfig{Backend: "file", Dir: dir}, false},
		{config.StorageConfig{Backend: "sqlite", DBPath: filepath.Join(dir, "c.db")}, false},
		{config.StorageConfig{Backend: "bolt", DBPath: filepath.Join(dir, "c.bolt")}, false},
		{config.StorageConfig{Backend: "redis"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.cfg.Backend, func(t *testing.T) {
			b, err := Open(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Open() error = %v, wantErr %v", err, tt.wantErr)
			}
			if b != nil {
				_ = b.Close()
			}
		})
	}
}

func mustFileBackend(t *testing.T, dir string) *FileBackend {
	t.Helper()
	b, err := NewFileBackend(dir)
	if err != nil {
		t.Fatalf("NewFileBackend: %v", err)
	}
	return b
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}
