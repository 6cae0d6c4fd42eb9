package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/hiring-panel/internal/audit"
	"github.com/jonathan/hiring-panel/internal/collab"
	"github.com/jonathan/hiring-panel/internal/config"
	"github.com/jonathan/hiring-panel/internal/consensus"
	"github.com/jonathan/hiring-panel/internal/db"
	"github.com/jonathan/hiring-panel/internal/metrics"
	"github.com/jonathan/hiring-panel/internal/observability"
	"github.com/jonathan/hiring-panel/internal/oversight"
	"github.com/jonathan/hiring-panel/internal/session"
	"github.com/jonathan/hiring-panel/internal/store"
)

// app bundles the wired engine components shared by every subcommand.
type app struct {
	cfg     config.Config
	logger  *zap.Logger
	ledger  *audit.Ledger
	engine  *session.Engine
	gate    *oversight.Gate
	printer *observability.Printer

	database *db.DB
}

// newApp loads configuration, connects storage and wires the engine.
// Callers must invoke close when done.
func newApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	// Step 1: Load config file if provided, otherwise start from defaults
	cfg := config.Default()
	if rootConfigPath != "" {
		loadedCfg, err := config.LoadConfig(rootConfigPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loadedCfg
	}

	// Step 2: Apply CLI overrides (command-line args take priority)
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = rootDBURL
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = rootVerbose
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.Verbose)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	// Step 3: Select storage. An empty database URL runs fully in-memory,
	// which only makes sense for single-process runs like demos and sweeps.
	var (
		sessions   store.SessionStore
		requests   store.OversightStore
		auditStore store.AuditStore
		database   *db.DB
	)
	if cfg.DatabaseURL != "" {
		database, err = db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		sessions, requests, auditStore = database, database, database
	} else {
		logger.Warn("no database configured, state will not survive this process")
		mem := store.NewMemoryStore()
		sessions, requests, auditStore = mem, mem, mem
	}

	// Step 4: Wire the engine
	manager := metrics.NewManager(prometheus.DefaultRegisterer)
	notifier := &collab.LogNotifier{Logger: logger}
	ledger := audit.NewLedger(auditStore, notifier, logger)

	gate := oversight.NewGate(oversight.Deps{
		Config:   cfg.Oversight,
		Store:    requests,
		Verifier: staticVerifier(cfg.Reviewers),
		Notifier: notifier,
		Recorder: ledger,
		Metrics:  manager,
		Logger:   logger,
	})

	engine := session.NewEngine(session.Deps{
		Store:     sessions,
		Recorder:  ledger,
		Consensus: consensus.NewEngine(cfg.Consensus),
		Gate:      gate,
		Scorer:    collab.NewTermScorer(cfg.BiasTerms),
		Metrics:   manager,
		Timeline:  cfg.Timeline,
		Logger:    logger,
	})

	return &app{
		cfg:      cfg,
		logger:   logger,
		ledger:   ledger,
		engine:   engine,
		gate:     gate,
		printer:  observability.NewPrinter(os.Stdout),
		database: database,
	}, nil
}

func (a *app) close() {
	if a.database != nil {
		a.database.Close()
	}
	_ = a.logger.Sync()
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// staticVerifier builds the qualification verifier from the configured
// reviewer roster. Malformed reviewer IDs are skipped; an unlisted reviewer
// holds no qualifications and fails closed.
func staticVerifier(reviewers map[string][]string) *collab.StaticVerifier {
	qualified := make(map[uuid.UUID]map[string]bool, len(reviewers))
	for id, qualifications := range reviewers {
		parsed, err := uuid.Parse(id)
		if err != nil {
			continue
		}
		held := make(map[string]bool, len(qualifications))
		for _, q := range qualifications {
			held[q] = true
		}
		qualified[parsed] = held
	}
	return &collab.StaticVerifier{Qualified: qualified}
}

// parseScores parses repeated "criterion=value" flag values.
func parseScores(specs []string) (map[string]float64, error) {
	scores := make(map[string]float64, len(specs))
	for _, spec := range specs {
		criterion, raw, ok := strings.Cut(spec, "=")
		if !ok {
			return nil, fmt.Errorf("invalid score %q, expected criterion=value", spec)
		}
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid score value in %q: %w", spec, err)
		}
		scores[criterion] = value
	}
	return scores, nil
}

// parseExtensions parses repeated "key=value" flag values into the
// extension payload.
func parseExtensions(specs []string) (map[string]any, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	extensions := make(map[string]any, len(specs))
	for _, spec := range specs {
		key, value, ok := strings.Cut(spec, "=")
		if !ok {
			return nil, fmt.Errorf("invalid extension %q, expected key=value", spec)
		}
		extensions[key] = value
	}
	return extensions, nil
}

// parseUUIDs parses a list of UUID flag values.
func parseUUIDs(raw []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, r := range raw {
		id, err := uuid.Parse(r)
		if err != nil {
			return nil, fmt.Errorf("invalid UUID %q: %w", r, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
