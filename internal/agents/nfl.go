package agents

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/blaze-intelligence/platform/internal/models"
	"github.com/blaze-intelligence/platform/internal/normalize"
)

// NFLSource ingests season player stats from SportsData.io.
type NFLSource struct{}

func (s *NFLSource) League() string   { return "nfl" }
func (s *NFLSource) Provider() string { return "sportsdata_io" }

type nflPlayer struct {
	PlayerID        int     `json:"PlayerID"`
	Name            string  `json:"Name"`
	Team            string  `json:"Team"`
	Position        string  `json:"Position"`
	Number          int     `json:"Number"`
	Height          string  `json:"Height"`
	Weight          float64 `json:"Weight"`
	BirthDate       string  `json:"BirthDate"`
	College         string  `json:"College"`
	Season          int     `json:"Season"`
	RushingYards    float64 `json:"RushingYards"`
	RushingTDs      float64 `json:"RushingTouchdowns"`
	ReceivingYards  float64 `json:"ReceivingYards"`
	ReceivingTDs    float64 `json:"ReceivingTouchdowns"`
	PassingYards    float64 `json:"PassingYards"`
	PassingTDs      float64 `json:"PassingTouchdowns"`
	PassCompletions float64 `json:"PassingCompletionPercentage"`
	EPA             float64 `json:"ExpectedPointsAdded"`
}

func (s *NFLSource) FetchLive(ctx context.Context, deps *Deps, params Params) ([]byte, error) {
	endpoint := fmt.Sprintf("https://api.sportsdata.io/v3/nfl/stats/json/PlayerSeasonStats/%s", params.Season)
	headers := map[string]string{
		"Ocp-Apim-Subscription-Key": deps.Config.CredentialFor(s.Provider()),
	}
	payload, _, err := deps.Client.Fetch(ctx, s.Provider(), endpoint, headers, nil)
	return payload, err
}

func (s *NFLSource) Parse(payload []byte) ([]normalize.RawRecord, error) {
	var players []nflPlayer
	if err := json.Unmarshal(payload, &players); err != nil {
		return nil, fmt.Errorf("nfl payload: %w", err)
	}

	records := make([]normalize.RawRecord, 0, len(players))
	for _, p := range players {
		metrics := map[string]float64{
			"rushing_yards":   p.RushingYards,
			"rushing_tds":     p.RushingTDs,
			"receiving_yards": p.ReceivingYards,
			"receiving_tds":   p.ReceivingTDs,
			"passing_yards":   p.PassingYards,
			"passing_tds":     p.PassingTDs,
			"completion_pct":  p.PassCompletions,
			"epa":             p.EPA,
		}
		raw := normalize.RawRecord{
			ProviderID:   fmt.Sprintf("%d", p.PlayerID),
			Source:       s.Provider(),
			Name:         p.Name,
			Sport:        "NFL",
			League:       "NFL",
			TeamCode:     p.Team,
			Position:     p.Position,
			HeightRaw:    p.Height,
			DOB:          p.BirthDate,
			College:      p.College,
			Season:       fmt.Sprintf("%d", p.Season),
			Metrics:      metrics,
			ExternalIDs:  map[string]string{"sportsdata_id": fmt.Sprintf("%d", p.PlayerID)},
		}
		if p.Number > 0 {
			raw.JerseyNumber = fmt.Sprintf("%d", p.Number)
		}
		if p.Weight > 0 {
			raw.WeightLbs = models.Float(p.Weight)
		}
		records = append(records, raw)
	}
	return records, nil
}
