package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/persona-agent/internal/ai"
	"github.com/persona-agent/internal/calendar"
	"github.com/persona-agent/internal/config"
	"github.com/persona-agent/internal/planner"
	"github.com/persona-agent/internal/server"
	"github.com/persona-agent/internal/social"
	"github.com/persona-agent/internal/storage"
	"github.com/persona-agent/internal/storage/sqlite"
	"github.com/persona-agent/internal/trends"
	"github.com/persona-agent/pkg/logger"
	"github.com/persona-agent/pkg/ratelimit"
)

var (
	cfgFile string
	cfg     *config.Config
	log     *logger.Logger
	repo    storage.Repository
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "persona-scheduler",
		Short: "HTTP API and background topic refresh for persona agent",
		Long: `Serves the planning HTTP API and periodically regenerates hot topics
for recent sessions, exporting their content calendars.`,
		RunE: runScheduler,
	}

	rootCmd.Flags().StringVar(&cfgFile, "config", "", "config file path")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runScheduler(cmd *cobra.Command, args []string) error {
	var err error

	// Load config
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Initialize logger
	log = logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})

	log.Info().Msg("Starting Persona Agent Scheduler")

	repo, err = sqlite.New(cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer repo.Close()

	if err := repo.Migrate(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Initialize rate limiter
	limiter := ratelimit.NewLimiter(ratelimit.Limits{
		LLMPerMinute:    cfg.RateLimit.LLMRequestsPerMinute,
		LLMBurst:        cfg.RateLimit.LLMBurst,
		SocialPerMinute: cfg.RateLimit.SocialRequestsPerMinute,
		SheetsPerMinute: cfg.RateLimit.SheetsRequestsPerMinute,
	})

	// Initialize AI client
	aiClient, err := ai.NewClient(cfg, limiter, log)
	if err != nil {
		return err
	}
	log.Info().Str("provider", aiClient.Provider()).Msg("Chat gateway ready")

	var trendSource planner.TrendsContext
	if cfg.Trends.Enabled {
		trendSource = trends.NewService(cfg.Trends, limiter, log)
	}

	personaPlanner := planner.NewPersonaPlanner(aiClient, repo, trendSource, log)

	var exporter *calendar.SheetsExporter
	if cfg.Sheets.Enabled {
		exporter, err = calendar.NewSheetsExporter(context.Background(), cfg.Sheets, limiter, log)
		if err != nil {
			return err
		}
	}

	// Create cron scheduler
	c := cron.New(cron.WithLogger(cronLogger{log}))

	_, err = c.AddFunc(cfg.Scheduler.TopicsRefreshCron, func() {
		ctx := context.Background()
		log.Info().Msg("Running scheduled topic refresh")

		result, err := personaPlanner.Refresh(ctx, time.Now().Add(-cfg.Scheduler.RefreshWindow))
		if err != nil {
			log.Error().Err(err).Msg("Scheduled topic refresh failed")
			return
		}

		for _, session := range result.Refreshed {
			exportCalendar(ctx, session, exporter)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule topic refresh job: %w", err)
	}
	log.Info().Str("cron", cfg.Scheduler.TopicsRefreshCron).Msg("Topic refresh job scheduled")

	// Start scheduler
	c.Start()
	log.Info().Msg("Scheduler started")

	srv := server.New(server.Deps{
		Persona:    personaPlanner,
		Diagnoser:  planner.NewDiagnoser(aiClient, repo, log),
		Strategist: planner.NewStrategist(aiClient, log),
		Social:     social.NewDefaultManager(cfg.Social, limiter, log),
		Repository: repo,
		Platforms:  cfg.CalendarPlatforms(),
	}, log)

	// PORT overrides the configured address on hosted platforms
	addr := cfg.Scheduler.HTTPAddr
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}

	// Serve until a shutdown signal arrives
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := srv.ListenAndServe(ctx, addr)

	log.Info().Msg("Shutting down scheduler")
	<-c.Stop().Done()

	return serveErr
}

// exportCalendar writes the refreshed calendar to export_dir/<session id>
// and appends it to Google Sheets when enabled
func exportCalendar(ctx context.Context, session *planner.Session, exporter *calendar.SheetsExporter) {
	sessionLog := log.WithSession(session.ID)
	entries := session.Calendar(time.Now(), cfg.CalendarPlatforms())

	dir := filepath.Join(cfg.Calendar.ExportDir, session.ID)
	paths, err := calendar.Export(dir, entries, cfg.Calendar.Formats)
	if err != nil {
		sessionLog.Error().Err(err).Msg("Calendar export failed")
	} else {
		sessionLog.Info().Strs("files", paths).Msg("Calendar exported")
	}

	if exporter == nil {
		return
	}
	if _, err := exporter.Append(ctx, entries); err != nil {
		sessionLog.Error().Err(err).Msg("Sheets export failed")
	}
}

// cronLogger adapts our logger for cron
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Info().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
