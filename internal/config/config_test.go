package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadAndValidate(t *testing.T) {
	// Create temp config file
	content := `
team:
  name: "Toronto Blue Jays"
  code: "TOR"
  timezone: "America/Toronto"

schedule:
  horizon_days: 3
  fallback_opponents:
    - NYY
    - BOS

source:
  kind: feed
  url: "https://example.com/transactions.json"
  timeout: 10s
  max_retries: 2

storage:
  backend: sqlite
  db_path: "./data/test.db"

email:
  enabled: true
  smtp_host: "smtp.example.com"
  smtp_port: "587"
  from: "alerts@example.com"
  to:
    - "a@example.com"
    - "b@example.com"

logging:
  level: "debug"
  format: "text"
`
	tmpfile, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Remove(tmpfile.Name()) }()

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	// Test Load
	cfg, err := Load(tmpfile.Name())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// Verify values
	if cfg.Schedule.HorizonDays != 3 {
		t.Errorf("Unexpected horizon: %d", cfg.Schedule.HorizonDays)
	}
	if len(cfg.Schedule.FallbackOpponents) != 2 {
		t.Errorf("Expected 2 fallback opponents, got %d", len(cfg.Schedule.FallbackOpponents))
	}
	if cfg.Source.Timeout != 10*time.Second {
		t.Errorf("Unexpected timeout: %v", cfg.Source.Timeout)
	}
	if cfg.Storage.Backend != "sqlite" {
		t.Errorf("Unexpected backend: %s", cfg.Storage.Backend)
	}
	if len(cfg.Email.To) != 2 {
		t.Errorf("Expected 2 recipients, got %d", len(cfg.Email.To))
	}
	if cfg.Telegram.MaxRetries != 1 {
		t.Errorf("Expected telegram default max retries 1, got %d", cfg.Telegram.MaxRetries)
	}

	// Test Validate
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Team.Code != "TOR" {
		t.Errorf("Unexpected team code: %s", cfg.Team.Code)
	}
	if cfg.Schedule.HorizonDays != 5 {
		t.Errorf("Unexpected horizon: %d", cfg.Schedule.HorizonDays)
	}
	if len(cfg.Schedule.FallbackOpponents) != 8 {
		t.Errorf("Expected 8 fallback opponents, got %d", len(cfg.Schedule.FallbackOpponents))
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if cfg.Location().String() != "America/Toronto" {
		t.Errorf("Unexpected location: %v", cfg.Location())
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("EMAIL_PASSWORD", "hunter2")
	t.Setenv("ROSTERWATCH_STORAGE_BACKEND", "bolt")
	t.Setenv("ROSTERWATCH_SCHEDULE_HORIZON_DAYS", "7")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Email.Password != "hunter2" {
		t.Errorf("password not read from EMAIL_PASSWORD")
	}
	if cfg.Storage.Backend != "bolt" {
		t.Errorf("Unexpected backend: %s", cfg.Storage.Backend)
	}
	if cfg.Schedule.HorizonDays != 7 {
		t.Errorf("Unexpected horizon: %d", cfg.Schedule.HorizonDays)
	}
}

func TestLoadEmailRecipientsFromEnv(t *testing.T) {
	tests := []struct {
		env  string
		want []string
	}{
		{"a@example.com", []string{"a@example.com"}},
		{"a@example.com,b@example.com", []string{"a@example.com", "b@example.com"}},
		{"a@example.com, b@example.com,", []string{"a@example.com", "b@example.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			t.Setenv("ROSTERWATCH_EMAIL_TO", tt.env)

			cfg, err := Load("")
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if len(cfg.Email.To) != len(tt.want) {
				t.Fatalf("Email.To = %q, want %q", cfg.Email.To, tt.want)
			}
			for i := range tt.want {
				if cfg.Email.To[i] != tt.want[i] {
					t.Errorf("Email.To[%d] = %q, want %q", i, cfg.Email.To[i], tt.want[i])
				}
			}
			if err := cfg.Validate(); err != nil {
				t.Errorf("Validate: %v", err)
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	if got := splitList(nil); got != nil {
		t.Errorf("splitList(nil) = %q, want nil", got)
	}
	if got := splitList([]string{" , "}); got != nil {
		t.Errorf("splitList(blank) = %q, want nil", got)
	}
	got := splitList([]string{"a@example.com,", "b@example.com"})
	if len(got) != 2 || got[0] != "a@example.com" || got[1] != "b@example.com" {
		t.Errorf("splitList = %q", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/rosterwatch.yaml"); err == nil {
		t.Error("expected error for missing config file")
	}
}

func validConfig() *Config {
	return &Config{
		Team: TeamConfig{Name: "Toronto Blue Jays", Code: "TOR", Timezone: "America/Toronto"},
		Schedule: ScheduleConfig{
			HorizonDays:       5,
			FallbackOpponents: []string{"NYY"},
		},
		Source: SourceConfig{
			Kind:       "feed",
			URL:        "https://example.com/transactions.json",
			Timeout:    30 * time.Second,
			MaxRetries: 1,
		},
		Storage: StorageConfig{Backend: "file", Dir: "."},
		Email: EmailConfig{
			Enabled:  true,
			SMTPHost: "smtp.example.com",
			SMTPPort: "465",
			From:     "alerts@example.com",
			To:       []string{"ops@example.com"},
		},
		Telegram: TelegramConfig{MaxRetries: 1},
		Logging:  LoggingConfig{Level: "info", Format: "json"},
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{
			name:    "valid",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "missing team code",
			mutate:  func(c *Config) { c.Team.Code = "" },
			wantErr: true,
		},
		{
			name:    "unknown timezone",
			mutate:  func(c *Config) { c.Team.Timezone = "Mars/Olympus" },
			wantErr: true,
		},
		{
			name:    "unknown source kind",
			mutate:  func(c *Config) { c.Source.Kind = "carrier-pigeon" },
			wantErr: true,
		},
		{
			name: "file source without path",
			mutate: func(c *Config) {
				c.Source.Kind = "file"
				c.Source.URL = ""
			},
			wantErr: true,
		},
		{
			name: "file source with path",
			mutate: func(c *Config) {
				c.Source.Kind = "file"
				c.Source.URL = ""
				c.Source.FilePath = "transactions.json"
			},
			wantErr: false,
		},
		{
			name:    "unknown storage backend",
			mutate:  func(c *Config) { c.Storage.Backend = "redis" },
			wantErr: true,
		},
		{
			name:    "invalid recipient",
			mutate:  func(c *Config) { c.Email.To = []string{"not-an-address"} },
			wantErr: true,
		},
		{
			name: "email disabled tolerates missing host",
			mutate: func(c *Config) {
				c.Email.Enabled = false
				c.Email.SMTPHost = ""
			},
			wantErr: false,
		},
		{
			name:    "missing telegram token when enabled",
			mutate:  func(c *Config) { c.Telegram.Enabled = true; c.Telegram.ChatID = "42" },
			wantErr: true,
		},
		{
			name:    "empty fallback set",
			mutate:  func(c *Config) { c.Schedule.FallbackOpponents = nil },
			wantErr: true,
		},
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.Logging.Level = "trace" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
