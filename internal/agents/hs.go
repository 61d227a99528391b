package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/blaze-intelligence/platform/internal/models"
	"github.com/blaze-intelligence/platform/internal/normalize"
)

// HSSource ingests high school football prospects from Perfect Game.
type HSSource struct{}

func (s *HSSource) League() string   { return "hs" }
func (s *HSSource) Provider() string { return "perfect_game" }

type pgPayload struct {
	Prospects []pgProspect `json:"prospects"`
}

type pgProspect struct {
	PGID       int                `json:"pg_id"`
	Name       string             `json:"name"`
	SchoolCode string             `json:"school_code"`
	School     string             `json:"school"`
	City       string             `json:"city"`
	State      string             `json:"state"`
	GradYear   int                `json:"grad_year"`
	Position   string             `json:"position"`
	Jersey     string             `json:"jersey"`
	Height     string             `json:"height"`
	WeightLbs  float64            `json:"weight_lbs"`
	Stats      map[string]float64 `json:"stats"`
	Stars      *int               `json:"stars,omitempty"`
	StateRank  *int               `json:"state_rank,omitempty"`
}

func (s *HSSource) FetchLive(ctx context.Context, deps *Deps, params Params) ([]byte, error) {
	headers := map[string]string{
		"X-Api-Key": deps.Config.CredentialFor(s.Provider()),
	}
	query := url.Values{"sport": {"football"}, "class": {params.Season}}
	payload, _, err := deps.Client.Fetch(ctx, s.Provider(),
		"https://api.perfectgame.org/v2/prospects", headers, query)
	return payload, err
}

func (s *HSSource) Parse(payload []byte) ([]normalize.RawRecord, error) {
	var parsed pgPayload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return nil, fmt.Errorf("perfect game payload: %w", err)
	}

	records := make([]normalize.RawRecord, 0, len(parsed.Prospects))
	for _, p := range parsed.Prospects {
		birthplace := p.City
		if p.State != "" && birthplace != "" {
			birthplace += ", " + p.State
		}
		raw := normalize.RawRecord{
			ProviderID:   fmt.Sprintf("%d", p.PGID),
			Source:       s.Provider(),
			Name:         p.Name,
			Sport:        "HS-FB",
			League:       "HS",
			TeamCode:     p.SchoolCode,
			Position:     p.Position,
			JerseyNumber: p.Jersey,
			HeightRaw:    p.Height,
			Birthplace:   birthplace,
			Season:       fmt.Sprintf("%d", p.GradYear),
			Metrics:      p.Stats,
			ExternalIDs: map[string]string{
				"pg_id":  fmt.Sprintf("%d", p.PGID),
				"school": p.School,
			},
		}
		if p.WeightLbs > 0 {
			raw.WeightLbs = models.Float(p.WeightLbs)
		}
		if p.Stars != nil || p.StateRank != nil {
			raw.Recruiting = &models.Recruiting{Stars: p.Stars, NationalRank: p.StateRank}
		}
		records = append(records, raw)
	}
	return records, nil
}
