package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/blaze-intelligence/platform/internal/models"
	"github.com/blaze-intelligence/platform/internal/normalize"
)

// NILSource ingests name/image/likeness market profiles in the On3 shape,
// enriched with Opendorse deal-flow fields. Records are college athletes, so
// they normalize under their NCAA identities.
type NILSource struct{}

func (s *NILSource) League() string   { return "nil" }
func (s *NILSource) Provider() string { return "on3" }

type nilPayload struct {
	Athletes []nilAthlete `json:"athletes"`
}

type nilAthlete struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	SchoolCode string `json:"school_code"`
	Sport      string `json:"sport"`
	Position   string `json:"position"`
	ClassYear  string `json:"class_year"`

	ValuationUSD    *float64 `json:"nil_valuation_usd"`
	EngagementRate  *float64 `json:"engagement_rate"`
	FollowersTotal  *float64 `json:"followers_total"`
	DealsLast90d    *float64 `json:"deals_last_90d"`
	DealValue90dUSD *float64 `json:"deal_value_90d_usd"`
	SearchIndex     *float64 `json:"search_index"`
	LocalPopularity *float64 `json:"local_popularity_index"`
}

func (s *NILSource) FetchLive(ctx context.Context, deps *Deps, params Params) ([]byte, error) {
	headers := map[string]string{
		"Authorization": "Bearer " + deps.Config.CredentialFor(s.Provider()),
	}
	query := url.Values{"year": {params.Season}}
	payload, _, err := deps.Client.Fetch(ctx, s.Provider(),
		"https://api.on3.com/v1/nil/valuations", headers, query)
	return payload, err
}

func (s *NILSource) Parse(payload []byte) ([]normalize.RawRecord, error) {
	var parsed nilPayload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return nil, fmt.Errorf("on3 payload: %w", err)
	}

	records := make([]normalize.RawRecord, 0, len(parsed.Athletes))
	for _, a := range parsed.Athletes {
		sport := a.Sport
		if sport == "" {
			sport = "NCAA-FB"
		}
		profile := &models.NILProfile{
			ValuationUSD:       a.ValuationUSD,
			EngagementRate:     a.EngagementRate,
			FollowersTotal:     a.FollowersTotal,
			DealsLast90d:       a.DealsLast90d,
			DealValue90dUSD:    a.DealValue90dUSD,
			SearchIndex:        a.SearchIndex,
			LocalPopularityIdx: a.LocalPopularity,
		}
		records = append(records, normalize.RawRecord{
			ProviderID: fmt.Sprintf("%d", a.ID),
			Source:     s.Provider(),
			Name:       a.Name,
			Sport:      sport,
			League:     "NCAA",
			TeamCode:   a.SchoolCode,
			Position:   a.Position,
			ClassYear:  a.ClassYear,
			NILProfile: profile,
			ExternalIDs: map[string]string{
				"on3_id": fmt.Sprintf("%d", a.ID),
			},
		})
	}
	return records, nil
}
