package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/blaze-intelligence/platform/internal/models"
	"github.com/blaze-intelligence/platform/internal/normalize"
)

// NBASource ingests from the NBA Stats player index. The upstream resultSet
// tables are flattened to a player list before they reach this source; the
// fixture carries the flattened shape.
type NBASource struct{}

func (s *NBASource) League() string   { return "nba" }
func (s *NBASource) Provider() string { return "nba_stats" }

type nbaPayload struct {
	Players []nbaPlayer `json:"players"`
}

type nbaPlayer struct {
	PersonID     int     `json:"personId"`
	DisplayName  string  `json:"displayName"`
	TeamTricode  string  `json:"teamTricode"`
	Position     string  `json:"position"`
	JerseyNum    string  `json:"jerseyNum"`
	Height       string  `json:"height"`
	WeightPounds float64 `json:"weightPounds"`
	BirthDate    string  `json:"birthDate"`
	Country      string  `json:"country"`
	Season       string  `json:"season"`

	Points       float64 `json:"pts"`
	Rebounds     float64 `json:"reb"`
	Assists      float64 `json:"ast"`
	FieldGoalPct float64 `json:"fgPct"`
	ThreePct     float64 `json:"fg3Pct"`
	FreeThrowPct float64 `json:"ftPct"`
	Minutes      float64 `json:"min"`
	GamesPlayed  float64 `json:"gp"`
}

func (s *NBASource) FetchLive(ctx context.Context, deps *Deps, params Params) ([]byte, error) {
	headers := map[string]string{
		"Referer":   "https://www.nba.com/",
		"X-Api-Key": deps.Config.CredentialFor(s.Provider()),
	}
	query := url.Values{
		"Season":     {params.Season},
		"LeagueID":   {"00"},
		"Historical": {"0"},
	}
	payload, _, err := deps.Client.Fetch(ctx, s.Provider(),
		"https://stats.nba.com/stats/playerindex", headers, query)
	return payload, err
}

func (s *NBASource) Parse(payload []byte) ([]normalize.RawRecord, error) {
	var parsed nbaPayload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return nil, fmt.Errorf("nba payload: %w", err)
	}

	records := make([]normalize.RawRecord, 0, len(parsed.Players))
	for _, p := range parsed.Players {
		metrics := map[string]float64{
			"points_per_game":   p.Points,
			"rebounds_per_game": p.Rebounds,
			"assists_per_game":  p.Assists,
			"field_goal_pct":    p.FieldGoalPct,
			"three_point_pct":   p.ThreePct,
			"free_throw_pct":    p.FreeThrowPct,
			"minutes_per_game":  p.Minutes,
			"games_played":      p.GamesPlayed,
		}
		raw := normalize.RawRecord{
			ProviderID:   fmt.Sprintf("%d", p.PersonID),
			Source:       s.Provider(),
			Name:         p.DisplayName,
			Sport:        "NBA",
			League:       "NBA",
			TeamCode:     p.TeamTricode,
			Position:     p.Position,
			JerseyNumber: p.JerseyNum,
			HeightRaw:    p.Height,
			DOB:          p.BirthDate,
			Birthplace:   p.Country,
			Season:       p.Season,
			Metrics:      metrics,
			ExternalIDs:  map[string]string{"nba_person_id": fmt.Sprintf("%d", p.PersonID)},
		}
		if p.WeightPounds > 0 {
			raw.WeightLbs = models.Float(p.WeightPounds)
		}
		records = append(records, raw)
	}
	return records, nil
}
