package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/blaze-intelligence/platform/internal/models"
	"github.com/blaze-intelligence/platform/internal/normalize"
)

// NCAASource ingests college football rosters and stats from the
// CollegeFootballData API.
type NCAASource struct{}

func (s *NCAASource) League() string   { return "ncaa" }
func (s *NCAASource) Provider() string { return "cfbd" }

type cfbdPlayer struct {
	ID           int                `json:"id"`
	FirstName    string             `json:"first_name"`
	LastName     string             `json:"last_name"`
	Team         string             `json:"team"`
	TeamCode     string             `json:"team_abbreviation"`
	Position     string             `json:"position"`
	Jersey       int                `json:"jersey"`
	HeightInches float64            `json:"height"`
	WeightLbs    float64            `json:"weight"`
	HomeCity     string             `json:"home_city"`
	HomeState    string             `json:"home_state"`
	Year         int                `json:"year"`
	Season       string             `json:"season"`
	Stats        map[string]float64 `json:"stats"`
	Recruiting   *cfbdRecruiting    `json:"recruiting,omitempty"`
}

type cfbdRecruiting struct {
	Stars        *int `json:"stars"`
	NationalRank *int `json:"national_rank"`
	PositionRank *int `json:"position_rank"`
}

var classYears = map[int]string{1: "FR", 2: "SO", 3: "JR", 4: "SR"}

func (s *NCAASource) FetchLive(ctx context.Context, deps *Deps, params Params) ([]byte, error) {
	headers := map[string]string{
		"Authorization": "Bearer " + deps.Config.CredentialFor(s.Provider()),
	}
	query := url.Values{"year": {params.Season}}
	payload, _, err := deps.Client.Fetch(ctx, s.Provider(),
		"https://api.collegefootballdata.com/roster", headers, query)
	return payload, err
}

func (s *NCAASource) Parse(payload []byte) ([]normalize.RawRecord, error) {
	var players []cfbdPlayer
	if err := json.Unmarshal(payload, &players); err != nil {
		return nil, fmt.Errorf("cfbd payload: %w", err)
	}

	records := make([]normalize.RawRecord, 0, len(players))
	for _, p := range players {
		teamCode := p.TeamCode
		if teamCode == "" {
			teamCode = p.Team
		}
		birthplace := p.HomeCity
		if p.HomeState != "" && birthplace != "" {
			birthplace += ", " + p.HomeState
		}
		raw := normalize.RawRecord{
			ProviderID: fmt.Sprintf("%d", p.ID),
			Source:     s.Provider(),
			Name:       p.FirstName + " " + p.LastName,
			Sport:      "NCAA-FB",
			League:     "NCAA",
			TeamCode:   teamCode,
			Position:   p.Position,
			Birthplace: birthplace,
			ClassYear:  classYears[p.Year],
			Season:     p.Season,
			Metrics:    p.Stats,
			ExternalIDs: map[string]string{
				"cfbd_id": fmt.Sprintf("%d", p.ID),
			},
		}
		if p.Jersey > 0 {
			raw.JerseyNumber = fmt.Sprintf("%d", p.Jersey)
		}
		if p.HeightInches > 0 {
			raw.HeightRaw = fmt.Sprintf("%.0f", p.HeightInches)
		}
		if p.WeightLbs > 0 {
			raw.WeightLbs = models.Float(p.WeightLbs)
		}
		if p.Recruiting != nil {
			raw.Recruiting = &models.Recruiting{
				Stars:        p.Recruiting.Stars,
				NationalRank: p.Recruiting.NationalRank,
				PositionRank: p.Recruiting.PositionRank,
			}
		}
		records = append(records, raw)
	}
	return records, nil
}
