package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/EAGLE605/nfl-betting-system-sub001/internal/config"
	"github.com/EAGLE605/nfl-betting-system-sub001/internal/loader"
	"github.com/EAGLE605/nfl-betting-system-sub001/internal/models"
	"github.com/EAGLE605/nfl-betting-system-sub001/internal/storage"
	"github.com/EAGLE605/nfl-betting-system-sub001/pkg/backtest"
	"github.com/EAGLE605/nfl-betting-system-sub001/pkg/edge"
	"github.com/EAGLE605/nfl-betting-system-sub001/pkg/optimizer"
)

// options holds the command line flags
type options struct {
	configPath  string
	gamesPath   string
	strategy    string
	sweep       bool
	kellyGrid   string
	edgeGrid    string
	concurrency int
	ledgerPath  string
	sortGames   bool
	persist     bool
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "path to the config file (built-in defaults when empty)")
	flag.StringVar(&opts.gamesPath, "games", "", "game table, .csv or .json")
	flag.StringVar(&opts.strategy, "strategy", config.DefaultStrategy, "strategy to run")
	flag.BoolVar(&opts.sweep, "sweep", false, "run every configured strategy plus the -kelly/-edges grid and rank them")
	flag.StringVar(&opts.kellyGrid, "kelly", "", "comma-separated Kelly fractions for the sweep grid")
	flag.StringVar(&opts.edgeGrid, "edges", "", "comma-separated minimum edges for the sweep grid")
	flag.IntVar(&opts.concurrency, "concurrency", 4, "parallel strategy runs during a sweep")
	flag.StringVar(&opts.ledgerPath, "ledger", "", "write the ledger of the run (or best sweep variant) as CSV")
	flag.BoolVar(&opts.sortGames, "sort", false, "sort games chronologically before replaying")
	flag.BoolVar(&opts.persist, "persist", false, "save results to the configured result store")
	flag.Parse()

	// .env is optional
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logger := setupLogger(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	best, err := run(ctx, cfg, opts, logger)
	if err != nil {
		logger.Error().Err(err).Msg("backtest failed")
		stop()
		os.Exit(1)
	}

	// A NO-GO verdict exits non-zero so scripts can gate on it
	if !best.Report.Go {
		stop()
		os.Exit(2)
	}
}

func run(ctx context.Context, cfg *config.Config, opts options, logger zerolog.Logger) (*models.BacktestResult, error) {
	if opts.gamesPath == "" {
		return nil, fmt.Errorf("-games is required")
	}
	games, err := loader.LoadGames(opts.gamesPath)
	if err != nil {
		return nil, err
	}
	if opts.sortGames {
		loader.SortChronologically(games)
	}
	logger.Info().Int("games", len(games)).Str("path", opts.gamesPath).Msg("loaded games")

	registry, err := edge.LoadRegistry(cfg.Filter.RulesFile)
	if err != nil {
		return nil, err
	}
	runner, err := backtest.NewRunner(registry, logger, cfg.StrategyParams()...)
	if err != nil {
		return nil, err
	}

	var results []*models.BacktestResult
	if opts.sweep {
		variants, err := sweepVariants(cfg, opts)
		if err != nil {
			return nil, err
		}

		opt := optimizer.NewOptimizer(runner, opts.concurrency, logger)
		results, err = opt.Sweep(ctx, games, variants)
		if err != nil {
			return nil, err
		}
		if err := printRanking(os.Stdout, results); err != nil {
			return nil, err
		}
	} else {
		result, err := runner.Run(ctx, opts.strategy, games)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}

	best := results[0]
	if err := printSummary(os.Stdout, best); err != nil {
		return nil, err
	}
	if err := printCriteria(os.Stdout, best.Report); err != nil {
		return nil, err
	}

	if opts.ledgerPath != "" {
		if err := writeLedger(opts.ledgerPath, best.Ledger); err != nil {
			return nil, err
		}
		logger.Info().Str("path", opts.ledgerPath).Msg("ledger written")
	}

	if opts.persist {
		if err := persist(ctx, cfg, results, logger); err != nil {
			return nil, err
		}
	}

	return best, nil
}

// sweepVariants returns the configured strategies plus the optional Kelly/edge grid
func sweepVariants(cfg *config.Config, opts options) ([]models.StrategyParams, error) {
	variants := cfg.StrategyParams()

	kellies, err := parseFloats(opts.kellyGrid)
	if err != nil {
		return nil, fmt.Errorf("invalid -kelly: %w", err)
	}
	edges, err := parseFloats(opts.edgeGrid)
	if err != nil {
		return nil, fmt.Errorf("invalid -edges: %w", err)
	}
	if len(kellies) > 0 || len(edges) > 0 {
		variants = append(variants, optimizer.Grid(cfg.BaseStrategy(), kellies, edges)...)
	}
	return variants, nil
}

func persist(ctx context.Context, cfg *config.Config, results []*models.BacktestResult, logger zerolog.Logger) error {
	store, err := storage.NewSQLStore(storage.Config{Driver: cfg.Storage.Driver, DSN: cfg.Storage.DSN}, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	for _, r := range results {
		if err := store.SaveResult(ctx, r); err != nil {
			return err
		}
	}
	logger.Info().Int("runs", len(results)).Str("dsn", cfg.Storage.DSN).Msg("results persisted")
	return nil
}

func parseFloats(raw string) ([]float64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	var out []float64
	for _, part := range strings.Split(raw, ",") {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("parse %q: %w", part, err)
		}
		out = append(out, f)
	}
	return out, nil
}

// setupLogger configures the logger based on config
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// The report goes to stdout, so logs go to stderr
	if cfg.Format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		log.Logger = log.Output(os.Stderr)
	}

	return log.Logger.With().Str("service", "nfl-backtest-cli").Logger()
}
