package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/EAGLE605/nfl-betting-system-sub001/internal/models"
	"github.com/EAGLE605/nfl-betting-system-sub001/internal/service"
)

// Supported drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// The schema sticks to types both sqlite and postgres accept.
// Money is stored as decimal text so it round-trips exactly.
const schema = `
CREATE TABLE IF NOT EXISTS backtest_runs (
    run_id           TEXT PRIMARY KEY,
    strategy         TEXT NOT NULL,
    game_count       INTEGER NOT NULL,
    started_at       TEXT NOT NULL,
    completed_at     TEXT NOT NULL,
    state            TEXT NOT NULL,
    initial_bankroll TEXT NOT NULL,
    final_bankroll   TEXT NOT NULL,
    total_bets       INTEGER NOT NULL,
    verdict          TEXT NOT NULL,
    report           TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS backtest_bets (
    run_id           TEXT NOT NULL,
    sequence         INTEGER NOT NULL,
    bet_id           TEXT NOT NULL,
    game_id          TEXT NOT NULL,
    side             TEXT NOT NULL,
    team             TEXT NOT NULL,
    tier             TEXT NOT NULL,
    rules            TEXT NOT NULL,
    win_probability  DOUBLE PRECISION NOT NULL,
    edge             DOUBLE PRECISION NOT NULL,
    decimal_odds     DOUBLE PRECISION NOT NULL,
    closing_odds     DOUBLE PRECISION,
    full_kelly       DOUBLE PRECISION NOT NULL,
    applied_fraction DOUBLE PRECISION NOT NULL,
    multiplier       DOUBLE PRECISION NOT NULL,
    stake            TEXT NOT NULL,
    won              INTEGER NOT NULL,
    profit           TEXT NOT NULL,
    bankroll_before  TEXT NOT NULL,
    bankroll_after   TEXT NOT NULL,
    placed_at        TEXT NOT NULL,
    resolved_at      TEXT NOT NULL,
    PRIMARY KEY (run_id, sequence)
);

CREATE INDEX IF NOT EXISTS idx_runs_strategy ON backtest_runs(strategy, completed_at);
`

// Config holds result store configuration
type Config struct {
	Driver string // sqlite or postgres
	DSN    string // file path for sqlite, connection string for postgres
}

// SQLStore persists completed backtest runs and their bet ledgers
type SQLStore struct {
	db     *sql.DB
	driver string
	logger zerolog.Logger
}

// NewSQLStore opens the database and applies the schema
func NewSQLStore(config Config, logger zerolog.Logger) (*SQLStore, error) {
	driver := config.Driver
	if driver == "" {
		driver = DriverSQLite
	}
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("storage.NewSQLStore: unsupported driver %q", driver)
	}

	db, err := sql.Open(driver, config.DSN)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLStore: open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// sqlite is single-writer
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLStore: apply schema: %w", err)
	}

	return &SQLStore{
		db:     db,
		driver: driver,
		logger: logger.With().Str("component", "sql_store").Str("driver", driver).Logger(),
	}, nil
}

// rebind rewrites ? placeholders to $n for postgres
func (s *SQLStore) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SaveResult writes the run summary and every placed bet in one transaction
func (s *SQLStore) SaveResult(ctx context.Context, result *models.BacktestResult) error {
	if result == nil || result.Report == nil {
		return fmt.Errorf("storage.SaveResult: result has no report")
	}

	report, err := json.Marshal(result.Report)
	if err != nil {
		return fmt.Errorf("storage.SaveResult: marshal report: %w", err)
	}

	state := ""
	if result.Ledger != nil {
		state = string(result.Ledger.State)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveResult: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, s.rebind(`
		INSERT INTO backtest_runs (
			run_id, strategy, game_count, started_at, completed_at, state,
			initial_bankroll, final_bankroll, total_bets, verdict, report
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		result.RunID.String(),
		result.Strategy,
		result.GameCount,
		formatTime(result.StartedAt),
		formatTime(result.CompletedAt),
		state,
		result.Report.InitialBankroll.String(),
		result.Report.FinalBankroll.String(),
		result.Report.TotalBets,
		result.Report.Verdict,
		string(report),
	); err != nil {
		return fmt.Errorf("storage.SaveResult: insert run %s: %w", result.RunID, err)
	}

	if result.Ledger != nil {
		stmt, err := tx.PrepareContext(ctx, s.rebind(`
			INSERT INTO backtest_bets (
				run_id, sequence, bet_id, game_id, side, team, tier, rules,
				win_probability, edge, decimal_odds, closing_odds,
				full_kelly, applied_fraction, multiplier,
				stake, won, profit, bankroll_before, bankroll_after,
				placed_at, resolved_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`))
		if err != nil {
			return fmt.Errorf("storage.SaveResult: prepare bet insert: %w", err)
		}
		defer stmt.Close()

		for _, entry := range result.Ledger.Entries {
			if entry.Status != models.EntryBet || entry.Bet == nil {
				continue
			}
			bet := entry.Bet

			closing := sql.NullFloat64{}
			if bet.ClosingOdds != nil {
				closing = sql.NullFloat64{Float64: *bet.ClosingOdds, Valid: true}
			}
			won := 0
			if bet.Won {
				won = 1
			}

			if _, err := stmt.ExecContext(ctx,
				result.RunID.String(),
				entry.Sequence,
				bet.ID.String(),
				bet.GameID,
				string(bet.Side),
				bet.Team,
				string(bet.Tier),
				strings.Join(bet.Rules, ","),
				bet.WinProbability,
				bet.Edge,
				bet.DecimalOdds,
				closing,
				bet.FullKelly,
				bet.AppliedFraction,
				bet.Multiplier,
				bet.Stake.String(),
				won,
				bet.Profit.String(),
				bet.BankrollBefore.String(),
				bet.BankrollAfter.String(),
				formatTime(bet.PlacedAt),
				formatTime(bet.ResolvedAt),
			); err != nil {
				return fmt.Errorf("storage.SaveResult: insert bet %s: %w", bet.GameID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveResult: commit: %w", err)
	}

	s.logger.Debug().
		Str("run_id", result.RunID.String()).
		Int("bets", result.Report.TotalBets).
		Msg("saved backtest run")

	return nil
}

// GetRun returns the stored run summary. The ledger is not reloaded; use ListBets.
func (s *SQLStore) GetRun(ctx context.Context, runID uuid.UUID) (*models.BacktestResult, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT strategy, game_count, started_at, completed_at, report
		FROM backtest_runs WHERE run_id = ?`), runID.String())

	result := models.BacktestResult{RunID: runID}
	var startedAt, completed, report string
	err := row.Scan(&result.Strategy, &result.GameCount, &startedAt, &completed, &report)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s not stored", service.ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("storage.GetRun: scan: %w", err)
	}

	if result.StartedAt, err = parseTime(startedAt); err != nil {
		return nil, fmt.Errorf("storage.GetRun: %w", err)
	}
	if result.CompletedAt, err = parseTime(completed); err != nil {
		return nil, fmt.Errorf("storage.GetRun: %w", err)
	}

	result.Report = &models.PerformanceReport{}
	if err := json.Unmarshal([]byte(report), result.Report); err != nil {
		return nil, fmt.Errorf("storage.GetRun: unmarshal report: %w", err)
	}

	return &result, nil
}

// ListBets returns a run's bets in ledger order
func (s *SQLStore) ListBets(ctx context.Context, runID uuid.UUID) ([]models.Bet, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT bet_id, game_id, side, team, tier, rules,
		       win_probability, edge, decimal_odds, closing_odds,
		       full_kelly, applied_fraction, multiplier,
		       stake, won, profit, bankroll_before, bankroll_after,
		       placed_at, resolved_at
		FROM backtest_bets WHERE run_id = ? ORDER BY sequence`), runID.String())
	if err != nil {
		return nil, fmt.Errorf("storage.ListBets: query: %w", err)
	}
	defer rows.Close()

	var bets []models.Bet
	for rows.Next() {
		bet, err := scanBet(rows)
		if err != nil {
			return nil, fmt.Errorf("storage.ListBets: %w", err)
		}
		bets = append(bets, bet)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage.ListBets: rows: %w", err)
	}

	return bets, nil
}

// ListRuns returns the stored run ids of a strategy, newest first
func (s *SQLStore) ListRuns(ctx context.Context, strategy string, limit int) ([]uuid.UUID, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT run_id FROM backtest_runs
		WHERE strategy = ?
		ORDER BY completed_at DESC
		LIMIT ?`), strategy, limit)
	if err != nil {
		return nil, fmt.Errorf("storage.ListRuns: query: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("storage.ListRuns: scan: %w", err)
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("storage.ListRuns: run id %q: %w", raw, err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBet(row scanner) (models.Bet, error) {
	var (
		bet                          models.Bet
		betID, side, tier, rules     string
		closing                      sql.NullFloat64
		stake, profit, before, after string
		won                          int
		placedAt, resolvedAt         string
	)

	if err := row.Scan(
		&betID, &bet.GameID, &side, &bet.Team, &tier, &rules,
		&bet.WinProbability, &bet.Edge, &bet.DecimalOdds, &closing,
		&bet.FullKelly, &bet.AppliedFraction, &bet.Multiplier,
		&stake, &won, &profit, &before, &after,
		&placedAt, &resolvedAt,
	); err != nil {
		return bet, fmt.Errorf("scan bet: %w", err)
	}

	var err error
	if bet.ID, err = uuid.Parse(betID); err != nil {
		return bet, fmt.Errorf("bet id %q: %w", betID, err)
	}
	bet.Side = models.Side(side)
	bet.Tier = models.Tier(tier)
	if rules != "" {
		bet.Rules = strings.Split(rules, ",")
	}
	if closing.Valid {
		v := closing.Float64
		bet.ClosingOdds = &v
	}
	bet.Won = won != 0

	amounts := []struct {
		raw string
		dst *decimal.Decimal
	}{
		{stake, &bet.Stake},
		{profit, &bet.Profit},
		{before, &bet.BankrollBefore},
		{after, &bet.BankrollAfter},
	}
	for _, a := range amounts {
		if *a.dst, err = decimal.NewFromString(a.raw); err != nil {
			return bet, fmt.Errorf("bet %s amount %q: %w", bet.GameID, a.raw, err)
		}
	}

	if bet.PlacedAt, err = parseTime(placedAt); err != nil {
		return bet, err
	}
	if bet.ResolvedAt, err = parseTime(resolvedAt); err != nil {
		return bet, err
	}

	return bet, nil
}

// Ping checks the database connection
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// fixed-width so stored timestamps sort lexically
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(raw string) (time.Time, error) {
	t, err := time.Parse(timeLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", raw, err)
	}
	return t, nil
}
