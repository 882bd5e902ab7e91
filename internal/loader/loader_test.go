package loader

import (
	"bytes"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EAGLE605/nfl-betting-system-sub001/internal/models"
)

const gamesCSV = `game_id,season,week,gameday,home_team,away_team,side,decimal_odds,american_odds,closing_odds,model_prob,home_win,tags,rest_diff,stadium
2023_01_DET_KC,2023,1,2023-09-07 20:20,KC,DET,home,1.91,,1.87,0.60,0,primetime;divisional,0,Arrowhead
2023_01_CAR_ATL,2023,1,2023-09-10,ATL,CAR,away,,+150,,0.45,1,,3.5,
`

func TestReadCSV(t *testing.T) {
	games, err := ReadCSV(strings.NewReader(gamesCSV))
	require.NoError(t, err)
	require.Len(t, games, 2)

	first := games[0]
	assert.Equal(t, "2023_01_DET_KC", first.ID)
	assert.Equal(t, 2023, first.Season)
	assert.Equal(t, 1, first.Week)
	assert.Equal(t, time.Date(2023, 9, 7, 20, 20, 0, 0, time.UTC), first.ScheduledAt)
	assert.Equal(t, "KC", first.HomeTeam)
	assert.Equal(t, models.SideHome, first.Side)
	assert.InDelta(t, 1.91, first.DecimalOdds, 1e-12)
	require.NotNil(t, first.ClosingOdds)
	assert.InDelta(t, 1.87, *first.ClosingOdds, 1e-12)
	assert.InDelta(t, 0.60, first.PredictedProbability, 1e-12)
	assert.False(t, first.HomeWin)
	assert.Equal(t, []string{"primetime", "divisional"}, first.Tags)
	assert.Equal(t, map[string]float64{"rest_diff": 0}, first.Features)

	second := games[1]
	assert.Equal(t, models.SideAway, second.Side)
	assert.Equal(t, 150.0, second.AmericanOdds)
	assert.Zero(t, second.DecimalOdds)
	assert.Nil(t, second.ClosingOdds)
	assert.True(t, second.HomeWin)
	assert.Equal(t, "CAR", second.Team())
	assert.Equal(t, 3.5, second.Features["rest_diff"])
}

func TestReadCSV_Errors(t *testing.T) {
	tests := []struct {
		name string
		csv  string
	}{
		{"empty", ""},
		{"bad time", "id,scheduled_at\ng1,next tuesday\n"},
		{"bad odds", "id,decimal_odds\ng1,abc\n"},
		{"bad outcome", "id,home_win\ng1,maybe\n"},
		{"ragged row", "id,week\ng1,1,extra\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.csv))
			assert.Error(t, err)
		})
	}
}

func TestReadJSON(t *testing.T) {
	array := `[{"id":"g1","scheduled_at":"2023-09-07T20:20:00Z","side":"home","decimal_odds":1.91,"predicted_probability":0.6,"home_win":true}]`
	games, err := ReadJSON(strings.NewReader(array))
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, "g1", games[0].ID)
	assert.True(t, games[0].HomeWin)

	wrapped := `{"games":[{"id":"g1"},{"id":"g2"}]}`
	games, err = ReadJSON(strings.NewReader(wrapped))
	require.NoError(t, err)
	assert.Len(t, games, 2)

	_, err = ReadJSON(strings.NewReader("invalid json data"))
	assert.Error(t, err)
}

func TestLoadGames(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "games.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(gamesCSV), 0o600))

	games, err := LoadGames(csvPath)
	require.NoError(t, err)
	assert.Len(t, games, 2)

	_, err = LoadGames(filepath.Join(dir, "games.parquet"))
	assert.Error(t, err)

	parquet := filepath.Join(dir, "games.xlsx")
	require.NoError(t, os.WriteFile(parquet, nil, 0o600))
	_, err = LoadGames(parquet)
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestSortChronologically(t *testing.T) {
	t0 := time.Date(2023, 9, 10, 17, 0, 0, 0, time.UTC)
	games := []models.Game{
		{ID: "late", ScheduledAt: t0.Add(3 * time.Hour)},
		{ID: "slot-a", ScheduledAt: t0},
		{ID: "early", ScheduledAt: t0.Add(-time.Hour)},
		{ID: "slot-b", ScheduledAt: t0},
	}

	SortChronologically(games)

	ids := make([]string, len(games))
	for i, g := range games {
		ids[i] = g.ID
	}
	assert.Equal(t, []string{"early", "slot-a", "slot-b", "late"}, ids)
}

func TestWriteLedgerCSV(t *testing.T) {
	kickoff := time.Date(2023, 9, 7, 20, 20, 0, 0, time.UTC)
	ledger := &models.Ledger{
		Entries: []models.LedgerEntry{
			{
				Sequence:    1,
				GameID:      "g1",
				ScheduledAt: kickoff,
				Status:      models.EntryBet,
				Candidate:   &models.BetCandidate{Side: models.SideHome, Team: "KC", Tier: models.TierC, PredictedProbability: 0.6, DecimalOdds: 1.91, Edge: 0.0764},
				Bet:         &models.Bet{Stake: decimal.NewFromInt(200), Won: true, Profit: decimal.NewFromInt(182)},
				Bankroll:    decimal.NewFromInt(10182),
			},
			{Sequence: 2, GameID: "g2", ScheduledAt: kickoff, Status: models.EntrySkippedInvalid, Reason: "bad odds", Bankroll: decimal.NewFromInt(10182)},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteLedgerCSV(&buf, ledger))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, ledgerHeader, rows[0])
	assert.Equal(t, []string{"1", "g1", "2023-09-07T20:20:00Z", "bet", "", "home", "KC", "C", "0.6000", "1.910", "0.0764", "200.00", "true", "182.00", "10182.00"}, rows[1])
	assert.Equal(t, "skipped_invalid", rows[2][3])
	assert.Equal(t, "bad odds", rows[2][4])
	assert.Equal(t, "", rows[2][11])
}
