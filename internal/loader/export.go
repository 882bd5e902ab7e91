package loader

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/EAGLE605/nfl-betting-system-sub001/internal/models"
)

var ledgerHeader = []string{
	"sequence", "game_id", "scheduled_at", "status", "reason",
	"side", "team", "tier", "win_probability", "decimal_odds", "edge",
	"stake", "won", "profit", "bankroll",
}

// WriteLedgerCSV writes one row per ledger entry, in replay order
func WriteLedgerCSV(w io.Writer, ledger *models.Ledger) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(ledgerHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, e := range ledger.Entries {
		row := []string{
			strconv.Itoa(e.Sequence),
			e.GameID,
			e.ScheduledAt.UTC().Format(time.RFC3339),
			string(e.Status),
			e.Reason,
			"", "", "", "", "", "", "", "", "",
			e.Bankroll.StringFixed(2),
		}
		if c := e.Candidate; c != nil {
			row[5] = string(c.Side)
			row[6] = c.Team
			row[7] = string(c.Tier)
			row[8] = strconv.FormatFloat(c.PredictedProbability, 'f', 4, 64)
			row[9] = strconv.FormatFloat(c.DecimalOdds, 'f', 3, 64)
			row[10] = strconv.FormatFloat(c.Edge, 'f', 4, 64)
		}
		if b := e.Bet; b != nil {
			row[11] = b.Stake.StringFixed(2)
			row[12] = strconv.FormatBool(b.Won)
			row[13] = b.Profit.StringFixed(2)
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write entry %d: %w", e.Sequence, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
