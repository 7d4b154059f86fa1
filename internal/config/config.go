package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config represents the complete application configuration
type Config struct {
	Team     TeamConfig     `mapstructure:"team"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
	Source   SourceConfig   `mapstructure:"source"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Email    EmailConfig    `mapstructure:"email"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// TeamConfig identifies the subject team whose opponents are watched
type TeamConfig struct {
	Name     string `mapstructure:"name" validate:"required"`
	Code     string `mapstructure:"code" validate:"required"`
	Timezone string `mapstructure:"timezone" validate:"required"`
}

// ScheduleConfig holds the opponent window settings.
// An empty File selects the embedded season schedule.
type ScheduleConfig struct {
	File              string   `mapstructure:"file"`
	HorizonDays       int      `mapstructure:"horizon_days" validate:"min=0,max=60"`
	FallbackOpponents []string `mapstructure:"fallback_opponents" validate:"min=1,dive,required"`
}

// SourceConfig selects and configures the transaction record source
type SourceConfig struct {
	Kind       string        `mapstructure:"kind" validate:"oneof=feed page file"`
	URL        string        `mapstructure:"url" validate:"required_unless=Kind file,omitempty,url"`
	FilePath   string        `mapstructure:"file_path" validate:"required_if=Kind file"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries" validate:"min=1,max=10"`
	UserAgent  string        `mapstructure:"user_agent"`
}

// StorageConfig holds checkpoint persistence configuration
type StorageConfig struct {
	Backend string `mapstructure:"backend" validate:"oneof=file sqlite bolt"`
	Dir     string `mapstructure:"dir" validate:"required_if=Backend file"`
	DBPath  string `mapstructure:"db_path"`
}

// EmailConfig holds SMTP notification configuration.
// Password is normally supplied through the environment.
type EmailConfig struct {
	Enabled  bool     `mapstructure:"enabled"`
	SMTPHost string   `mapstructure:"smtp_host" validate:"required_if=Enabled true"`
	SMTPPort string   `mapstructure:"smtp_port" validate:"required_if=Enabled true,omitempty,numeric"`
	Username string   `mapstructure:"username"`
	Password string   `mapstructure:"password"`
	From     string   `mapstructure:"from" validate:"required_if=Enabled true,omitempty,email"`
	To       []string `mapstructure:"to" validate:"required_if=Enabled true,dive,email"`
}

// TelegramConfig holds Telegram notification configuration
type TelegramConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	BotToken       string        `mapstructure:"bot_token" validate:"required_if=Enabled true"`
	ChatID         string        `mapstructure:"chat_id" validate:"required_if=Enabled true"`
	MaxRetries     int           `mapstructure:"max_retries" validate:"min=1"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json text"`
}

// Load reads configuration from an optional file and environment variables.
// An empty path means defaults plus environment only.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// Environment overrides, e.g. ROSTERWATCH_STORAGE_BACKEND
	v.SetEnvPrefix("ROSTERWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The mail secret also comes from the plain EMAIL_PASSWORD variable
	if err := v.BindEnv("email.password", "ROSTERWATCH_EMAIL_PASSWORD", "EMAIL_PASSWORD"); err != nil {
		return nil, fmt.Errorf("failed to bind email password: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// ROSTERWATCH_EMAIL_TO="a@x.com,b@y.com" arrives as a single element
	cfg.Email.To = splitList(cfg.Email.To)

	return &cfg, nil
}

// splitList splits comma-separated entries and drops blanks. It returns nil when nothing is left.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// Team defaults
	v.SetDefault("team.name", "Toronto Blue Jays")
	v.SetDefault("team.code", "TOR")
	v.SetDefault("team.timezone", "America/Toronto")

	// Schedule defaults
	v.SetDefault("schedule.file", "")
	v.SetDefault("schedule.horizon_days", 5)
	v.SetDefault("schedule.fallback_opponents", []string{
		"NYY", "BOS", "TBR", "BAL",
		"New York Yankees", "Boston Red Sox", "Tampa Bay Rays", "Baltimore Orioles",
	})

	// Source defaults
	v.SetDefault("source.kind", "feed")
	v.SetDefault("source.url", "https://raw.githubusercontent.com/gkatoh1/MLB-Transactions/refs/heads/main/transactions.json")
	v.SetDefault("source.file_path", "")
	v.SetDefault("source.timeout", "30s")
	v.SetDefault("source.max_retries", 1)
	v.SetDefault("source.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")

	// Storage defaults
	v.SetDefault("storage.backend", "file")
	v.SetDefault("storage.dir", ".")
	v.SetDefault("storage.db_path", "./rosterwatch.db")

	// Email defaults
	v.SetDefault("email.enabled", true)
	v.SetDefault("email.smtp_host", "smtp.gmail.com")
	v.SetDefault("email.smtp_port", "465")
	v.SetDefault("email.username", "")
	v.SetDefault("email.password", "")
	v.SetDefault("email.from", "rosterwatch@example.com")
	v.SetDefault("email.to", []string{"rosterwatch@example.com"})

	// Telegram defaults
	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.chat_id", "")
	v.SetDefault("telegram.max_retries", 1)
	v.SetDefault("telegram.retry_delay_base", "1s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%s fails %q validation (value %v)", fieldPath(fe.Namespace()), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if _, err := time.LoadLocation(c.Team.Timezone); err != nil {
		return fmt.Errorf("team.timezone is not a known location: %w", err)
	}

	return nil
}

// Location returns the team's timezone. Validate must have succeeded.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Team.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// fieldPath turns "Config.Email.SMTPHost" into "Email.SMTPHost".
func fieldPath(namespace string) string {
	return strings.TrimPrefix(namespace, "Config.")
}
