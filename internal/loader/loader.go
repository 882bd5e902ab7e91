// Package loader reads historical game tables from CSV or JSON files.
package loader

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/EAGLE605/nfl-betting-system-sub001/internal/models"
)

var ErrUnsupportedFormat = errors.New("unsupported game file format")

// Accepted scheduled_at layouts, tried in order
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Column aliases map common upstream headers onto game fields
var columnAliases = map[string]string{
	"game_id":     "id",
	"gameday":     "scheduled_at",
	"kickoff":     "scheduled_at",
	"date":        "scheduled_at",
	"home":        "home_team",
	"away":        "away_team",
	"odds":        "decimal_odds",
	"moneyline":   "american_odds",
	"model_prob":  "predicted_probability",
	"probability": "predicted_probability",
	"closing":     "closing_odds",
	"result":      "home_win",
}

// LoadGames reads a game table, picking the format from the file extension
func LoadGames(path string) ([]models.Game, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open game file: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ReadCSV(f)
	case ".json":
		return ReadJSON(f)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// ReadJSON reads either a bare array of games or an object with a "games" array
func ReadJSON(r io.Reader) ([]models.Game, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read games: %w", err)
	}

	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var games []models.Game
		if err := json.Unmarshal(data, &games); err != nil {
			return nil, fmt.Errorf("failed to unmarshal games: %w", err)
		}
		return games, nil
	}

	var wrapper struct {
		Games []models.Game `json:"games"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, fmt.Errorf("failed to unmarshal games: %w", err)
	}
	return wrapper.Games, nil
}

// ReadCSV reads a header-driven game table. Unknown numeric columns become features;
// the tags column holds semicolon-separated situational tags.
func ReadCSV(r io.Reader) ([]models.Game, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	columns := make([]string, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(name))
		if alias, ok := columnAliases[name]; ok {
			name = alias
		}
		columns[i] = name
	}

	var games []models.Game
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		game, err := parseRecord(columns, record)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		games = append(games, game)
	}

	return games, nil
}

func parseRecord(columns, record []string) (models.Game, error) {
	game := models.Game{Side: models.SideHome}

	for i, column := range columns {
		value := strings.TrimSpace(record[i])
		if value == "" {
			continue
		}

		var err error
		switch column {
		case "id":
			game.ID = value
		case "season":
			game.Season, err = strconv.Atoi(value)
		case "week":
			game.Week, err = strconv.Atoi(value)
		case "scheduled_at":
			game.ScheduledAt, err = parseTime(value)
		case "home_team":
			game.HomeTeam = value
		case "away_team":
			game.AwayTeam = value
		case "side":
			game.Side = models.Side(strings.ToLower(value))
		case "decimal_odds":
			game.DecimalOdds, err = strconv.ParseFloat(value, 64)
		case "american_odds":
			game.AmericanOdds, err = strconv.ParseFloat(value, 64)
		case "closing_odds":
			var closing float64
			if closing, err = strconv.ParseFloat(value, 64); err == nil {
				game.ClosingOdds = &closing
			}
		case "predicted_probability":
			game.PredictedProbability, err = strconv.ParseFloat(value, 64)
		case "home_win":
			game.HomeWin, err = parseBool(value)
		case "tags":
			for _, tag := range strings.Split(value, ";") {
				if tag = strings.TrimSpace(tag); tag != "" {
					game.Tags = append(game.Tags, tag)
				}
			}
		default:
			f, perr := strconv.ParseFloat(value, 64)
			if perr != nil {
				// non-numeric extras are ignored
				continue
			}
			if game.Features == nil {
				game.Features = make(map[string]float64)
			}
			game.Features[column] = f
		}
		if err != nil {
			return game, fmt.Errorf("column %s: %w", column, err)
		}
	}

	return game, nil
}

func parseTime(value string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", value)
}

func parseBool(value string) (bool, error) {
	switch strings.ToLower(value) {
	case "w", "win", "home":
		return true, nil
	case "l", "loss", "away":
		return false, nil
	}
	return strconv.ParseBool(value)
}

// SortChronologically orders games by scheduled time, keeping file order within a slot
func SortChronologically(games []models.Game) {
	sort.SliceStable(games, func(i, j int) bool {
		return games[i].ScheduledAt.Before(games[j].ScheduledAt)
	})
}
