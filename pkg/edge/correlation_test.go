package edge

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EAGLE605/nfl-betting-system-sub001/internal/models"
)

func candidate(gameID, team, opponent string, at time.Time) models.BetCandidate {
	return models.BetCandidate{
		GameID:               gameID,
		ScheduledAt:          at,
		Team:                 team,
		Opponent:             opponent,
		DecimalOdds:          1.9,
		PredictedProbability: 0.6,
		Tier:                 models.TierB,
	}
}

func TestGroupCorrelation(t *testing.T) {
	checker := NewGroupCorrelation(NFLDivisions())
	sunday := time.Date(2023, 9, 10, 17, 0, 0, 0, time.UTC)
	monday := sunday.Add(27 * time.Hour)

	a := candidate("g1", "KC", "DET", sunday)
	sameGame := candidate("g1", "DET", "KC", sunday)
	sameDivisionSameDay := candidate("g2", "DEN", "LV", sunday.Add(3*time.Hour))
	sameDivisionOtherDay := candidate("g3", "LAC", "MIA", monday)
	unrelated := candidate("g4", "PHI", "NE", sunday)

	assert.True(t, checker.AreCorrelated(&a, &sameGame))
	assert.True(t, checker.AreCorrelated(&a, &sameDivisionSameDay))
	assert.False(t, checker.AreCorrelated(&a, &sameDivisionOtherDay))
	assert.False(t, checker.AreCorrelated(&a, &unrelated))
}

func TestBuildParlay(t *testing.T) {
	checker := NewGroupCorrelation(NFLDivisions())
	sunday := time.Date(2023, 9, 10, 17, 0, 0, 0, time.UTC)

	legs := []models.BetCandidate{
		candidate("g1", "KC", "DET", sunday),
		candidate("g2", "PHI", "NE", sunday),
		candidate("g3", "SF", "PIT", sunday),
	}

	parlay, err := BuildParlay(checker, legs...)
	require.NoError(t, err)
	assert.Len(t, parlay.Legs, 3)
	assert.InDelta(t, 1.9*1.9*1.9, parlay.DecimalOdds, 1e-9)
	assert.InDelta(t, 0.216, parlay.WinProbability, 1e-9)
	assert.InDelta(t, 0.216-1/(1.9*1.9*1.9), parlay.Edge(), 1e-9)
}

func TestBuildParlay_Rejections(t *testing.T) {
	checker := NewGroupCorrelation(NFLDivisions())
	sunday := time.Date(2023, 9, 10, 17, 0, 0, 0, time.UTC)

	_, err := BuildParlay(checker, candidate("g1", "KC", "DET", sunday))
	assert.Error(t, err)

	_, err = BuildParlay(checker,
		candidate("g1", "KC", "DET", sunday),
		candidate("g2", "PHI", "NE", sunday),
		candidate("g3", "SF", "PIT", sunday),
		candidate("g4", "BUF", "NYJ", sunday),
	)
	assert.True(t, errors.Is(err, ErrTooManyLegs))

	_, err = BuildParlay(checker,
		candidate("g1", "KC", "DET", sunday),
		candidate("g2", "DEN", "LV", sunday),
	)
	assert.True(t, errors.Is(err, ErrCorrelatedLegs))

	noBet := candidate("g5", "ATL", "CAR", sunday)
	noBet.Tier = models.TierNoBet
	_, err = BuildParlay(checker, candidate("g1", "KC", "DET", sunday), noBet)
	assert.Error(t, err)
}
