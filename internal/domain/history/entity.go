package history

import (
	"strings"
	"time"

	"oitracker/internal/domain/snapshot"
)

// Point is one live row as it looked after a given batch.
type Point struct {
	CapturedAt  time.Time `ch:"captured_at" json:"captured_at"`
	RunID       string    `ch:"run_id" json:"run_id"`
	Stock       string    `ch:"stock" json:"stock"`
	Section     string    `ch:"section" json:"section"`
	Label       string    `ch:"label" json:"label"`
	Strike      string    `ch:"strike" json:"strike"`
	PrevOI      string    `ch:"prev_oi" json:"prev_oi"`
	OIDiff      string    `ch:"oi_diff" json:"oi_diff"`
	IsNewStrike bool      `ch:"is_new_strike" json:"is_new_strike"`
}

// PointsFromLive stamps a batch's live rows of one security.
func PointsFromLive(runID string, at time.Time, stock string, rows []snapshot.LiveRow) []Point {
	points := make([]Point, 0, len(rows))
	for _, row := range rows {
		points = append(points, Point{
			CapturedAt:  at,
			RunID:       runID,
			Stock:       stock,
			Section:     row.Section.String(),
			Label:       row.Label,
			Strike:      strings.TrimSpace(row.Strike),
			PrevOI:      row.PrevOI,
			OIDiff:      row.OIDiff,
			IsNewStrike: row.IsNewStrike == snapshot.NewStrikeFlag,
		})
	}
	return points
}

// Query selects points of one security, newest first.
type Query struct {
	Stock  string
	Strike string // optional exact match
	Limit  int
}
