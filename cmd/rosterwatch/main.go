package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rewired-gh/rosterwatch/internal/config"
	"github.com/rewired-gh/rosterwatch/internal/logger"
	"github.com/rewired-gh/rosterwatch/internal/models"
	"github.com/rewired-gh/rosterwatch/internal/monitor"
	"github.com/rewired-gh/rosterwatch/internal/notifier"
	"github.com/rewired-gh/rosterwatch/internal/runner"
	"github.com/rewired-gh/rosterwatch/internal/schedule"
	"github.com/rewired-gh/rosterwatch/internal/source"
	"github.com/rewired-gh/rosterwatch/internal/storage"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	var todayOnly bool

	root := &cobra.Command{
		Use:           "rosterwatch",
		Short:         "Email a digest of roster moves by upcoming opponents",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mode := runner.ModeSinceLastCheck
			if todayOnly {
				mode = runner.ModeTodayOnly
			}
			return run(cmd.Context(), configPath, mode)
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to configuration file (optional)")
	root.Flags().BoolVar(&todayOnly, "today", false, "Only check today's transactions and notify even if already sent")

	root.AddCommand(newScrapeCmd(&configPath))
	return root
}

func newScrapeCmd(configPath *string) *cobra.Command {
	var pageURL, output string

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Scrape the transactions page into a feed document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return scrape(cmd.Context(), *configPath, pageURL, output)
		},
	}
	cmd.Flags().StringVar(&pageURL, "url", "", "Transactions page URL (default: source.url when source.kind is page, else "+source.DefaultPageURL+")")
	cmd.Flags().StringVarP(&output, "output", "o", "transactions.json", "Where to write the feed document")
	return cmd
}

// scrape writes every transaction on the page to output. A failed fetch leaves output untouched.
func scrape(ctx context.Context, configPath, pageURL, output string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	defer logger.Sync()

	if pageURL == "" {
		pageURL = source.DefaultPageURL
		if cfg.Source.Kind == "page" && cfg.Source.URL != "" {
			pageURL = cfg.Source.URL
		}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	records, err := source.NewPageClient(pageURL, source.OptionsFrom(cfg.Source)).Fetch(ctx, models.Date{})
	if err != nil {
		return fmt.Errorf("failed to scrape transactions: %w", err)
	}
	return source.WriteFeed(output, records, time.Now().In(cfg.Location()))
}

// run returns an error only for faults that should fail the process: bad configuration or
// unusable storage. Everything else is logged and the process exits cleanly.
func run(ctx context.Context, configPath string, mode runner.Mode) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	defer logger.Sync()
	if configPath != "" {
		logger.Info("Configuration loaded from %s", configPath)
	}

	backend, err := storage.Open(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	store := storage.NewStore(backend, cfg.Location())
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close storage: %v", err)
		}
	}()

	src, err := source.New(cfg.Source)
	if err != nil {
		return fmt.Errorf("failed to initialize record source: %w", err)
	}

	r := runner.New(runner.Config{
		Subject:  monitor.Subject{Name: cfg.Team.Name, Code: cfg.Team.Code},
		Location: cfg.Location(),
	}, newResolver(cfg), src, store, newNotifier(cfg))

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if _, err := r.Run(ctx, mode); err != nil {
		logger.Error("Transaction check failed: %v", err)
	}
	return nil
}

// newResolver loads the configured schedule. An unusable schedule leaves the resolver with no
// entries so the fallback opponents apply.
func newResolver(cfg *config.Config) *schedule.Resolver {
	var (
		doc *schedule.Document
		err error
	)
	if cfg.Schedule.File != "" {
		doc, err = schedule.LoadFile(cfg.Schedule.File)
	} else {
		doc, err = schedule.Default()
	}

	var entries []models.ScheduleEntry
	var teamNames map[string]string
	if err != nil {
		logger.Warn("Failed to load schedule: %v", err)
	} else {
		teamNames = doc.Teams
		if entries, err = doc.Entries(); err != nil {
			logger.Warn("Failed to parse schedule: %v", err)
		}
	}

	return schedule.NewResolver(entries, teamNames, cfg.Schedule.HorizonDays, cfg.Schedule.FallbackOpponents)
}

// newNotifier returns the enabled channels, or nil when none is usable.
func newNotifier(cfg *config.Config) notifier.Notifier {
	var channels notifier.Multi

	if cfg.Email.Enabled {
		if cfg.Email.Password == "" {
			logger.Warn("Email password not set, email notifications disabled")
		} else {
			channels = append(channels, notifier.NewEmailNotifier(notifier.EmailConfig{
				SMTPHost: cfg.Email.SMTPHost,
				SMTPPort: cfg.Email.SMTPPort,
				Username: cfg.Email.Username,
				Password: cfg.Email.Password,
				From:     cfg.Email.From,
				To:       cfg.Email.To,
			}))
		}
	}

	if cfg.Telegram.Enabled {
		tg, err := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.MaxRetries, cfg.Telegram.RetryDelayBase)
		if err != nil {
			logger.Error("Failed to initialize Telegram client: %v", err)
		} else {
			channels = append(channels, tg)
			logger.Info("Telegram client initialized successfully")
		}
	}

	switch len(channels) {
	case 0:
		return nil
	case 1:
		return channels[0]
	default:
		return channels
	}
}
