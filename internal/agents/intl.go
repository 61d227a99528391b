package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/blaze-intelligence/platform/internal/models"
	"github.com/blaze-intelligence/platform/internal/normalize"
)

// IntlSource ingests international baseball (KBO, NPB) from TheSportsDB
// player feed.
type IntlSource struct{}

func (s *IntlSource) League() string   { return "intl" }
func (s *IntlSource) Provider() string { return "thesportsdb" }

type tsdbPayload struct {
	Player []tsdbPlayer `json:"player"`
}

type tsdbPlayer struct {
	IDPlayer    string             `json:"idPlayer"`
	StrPlayer   string             `json:"strPlayer"`
	StrTeam     string             `json:"strTeam"`
	StrTeamCode string             `json:"strTeamCode"`
	StrLeague   string             `json:"strLeague"`
	StrPosition string             `json:"strPosition"`
	StrHeight   string             `json:"strHeight"`
	StrWeight   string             `json:"strWeight"`
	DateBorn    string             `json:"dateBorn"`
	StrNation   string             `json:"strNationality"`
	StrSeason   string             `json:"strSeason"`
	Stats       map[string]float64 `json:"stats"`
}

func (s *IntlSource) FetchLive(ctx context.Context, deps *Deps, params Params) ([]byte, error) {
	key := deps.Config.CredentialFor(s.Provider())
	endpoint := fmt.Sprintf("https://www.thesportsdb.com/api/v1/json/%s/searchplayers.php", key)
	payload, _, err := deps.Client.Fetch(ctx, s.Provider(), endpoint, nil, nil)
	return payload, err
}

func (s *IntlSource) Parse(payload []byte) ([]normalize.RawRecord, error) {
	var parsed tsdbPayload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return nil, fmt.Errorf("thesportsdb payload: %w", err)
	}

	records := make([]normalize.RawRecord, 0, len(parsed.Player))
	for _, p := range parsed.Player {
		sport := strings.ToUpper(p.StrLeague)
		teamCode := p.StrTeamCode
		if teamCode == "" {
			teamCode = abbreviate(p.StrTeam)
		}
		raw := normalize.RawRecord{
			ProviderID: p.IDPlayer,
			Source:     s.Provider(),
			Name:       p.StrPlayer,
			Sport:      sport,
			League:     sport,
			TeamCode:   teamCode,
			Position:   p.StrPosition,
			HeightRaw:  p.StrHeight,
			DOB:        p.DateBorn,
			Birthplace: p.StrNation,
			Season:     p.StrSeason,
			Metrics:    p.Stats,
			ExternalIDs: map[string]string{
				"thesportsdb_id": p.IDPlayer,
				"team_name":      p.StrTeam,
			},
		}
		if w := parseWeightLbs(p.StrWeight); w > 0 {
			raw.WeightLbs = models.Float(w)
		}
		records = append(records, raw)
	}
	return records, nil
}

// abbreviate falls back to the first three letters of a team name when no
// code is provided.
func abbreviate(name string) string {
	cleaned := strings.ToUpper(strings.ReplaceAll(name, " ", ""))
	if len(cleaned) > 3 {
		return cleaned[:3]
	}
	return cleaned
}

// parseWeightLbs reads TheSportsDB weight strings like "209 lbs".
func parseWeightLbs(raw string) float64 {
	raw = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(raw), "lbs"))
	var lbs float64
	if _, err := fmt.Sscanf(raw, "%f", &lbs); err != nil {
		return 0
	}
	return lbs
}
