package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/blaze-intelligence/platform/internal/models"
	"github.com/blaze-intelligence/platform/internal/normalize"
)

// MLBSource ingests from the MLB StatsAPI people feed. Fixtures mirror the
// same shape.
type MLBSource struct{}

func (s *MLBSource) League() string   { return "mlb" }
func (s *MLBSource) Provider() string { return "mlb_statsapi" }

type mlbPayload struct {
	People []mlbPerson `json:"people"`
}

type mlbPerson struct {
	ID                 int     `json:"id"`
	FullName           string  `json:"fullName"`
	PrimaryNumber      string  `json:"primaryNumber"`
	BirthDate          string  `json:"birthDate"`
	BirthCity          string  `json:"birthCity"`
	BirthStateProvince string  `json:"birthStateProvince"`
	Height             string  `json:"height"`
	Weight             float64 `json:"weight"`
	BatSide            struct {
		Code string `json:"code"`
	} `json:"batSide"`
	PrimaryPosition struct {
		Abbreviation string `json:"abbreviation"`
	} `json:"primaryPosition"`
	CurrentTeam struct {
		Abbreviation string `json:"abbreviation"`
	} `json:"currentTeam"`
	SeasonStats map[string]float64 `json:"seasonStats"`
	Season      string             `json:"season"`
	Biometrics  *mlbBiometrics     `json:"biometrics,omitempty"`
}

type mlbBiometrics struct {
	HRVRmssdMs      *float64 `json:"hrv_rmssd_ms"`
	ReactionMs      *float64 `json:"reaction_ms"`
	GSRMicrosiemens *float64 `json:"gsr_microsiemens"`
	SleepHours      *float64 `json:"sleep_hours"`
}

func (s *MLBSource) FetchLive(ctx context.Context, deps *Deps, params Params) ([]byte, error) {
	query := url.Values{
		"season":  {params.Season},
		"sportId": {"1"},
		"hydrate": {"currentTeam,stats(group=[hitting,pitching],type=season)"},
	}
	headers := map[string]string{}
	if key := deps.Config.CredentialFor(s.Provider()); key != "" {
		headers["X-Api-Key"] = key
	}
	payload, _, err := deps.Client.Fetch(ctx, s.Provider(),
		"https://statsapi.mlb.com/api/v1/sports/1/players", headers, query)
	return payload, err
}

func (s *MLBSource) Parse(payload []byte) ([]normalize.RawRecord, error) {
	var parsed mlbPayload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return nil, fmt.Errorf("mlb payload: %w", err)
	}

	records := make([]normalize.RawRecord, 0, len(parsed.People))
	for _, p := range parsed.People {
		birthplace := p.BirthCity
		if p.BirthStateProvince != "" && birthplace != "" {
			birthplace += ", " + p.BirthStateProvince
		}
		raw := normalize.RawRecord{
			ProviderID:   fmt.Sprintf("%d", p.ID),
			Source:       s.Provider(),
			Name:         p.FullName,
			Sport:        "MLB",
			League:       "MLB",
			TeamCode:     p.CurrentTeam.Abbreviation,
			Position:     p.PrimaryPosition.Abbreviation,
			JerseyNumber: p.PrimaryNumber,
			HeightRaw:    p.Height,
			DOB:          p.BirthDate,
			Birthplace:   birthplace,
			Handedness:   p.BatSide.Code,
			Season:       p.Season,
			Metrics:      p.SeasonStats,
			ExternalIDs:  map[string]string{"mlbam_id": fmt.Sprintf("%d", p.ID)},
		}
		if p.Weight > 0 {
			raw.WeightLbs = models.Float(p.Weight)
		}
		if p.Biometrics != nil {
			raw.Biometrics = &models.Biometrics{
				HRVRmssdMs:      p.Biometrics.HRVRmssdMs,
				ReactionMs:      p.Biometrics.ReactionMs,
				GSRMicrosiemens: p.Biometrics.GSRMicrosiemens,
				SleepHours:      p.Biometrics.SleepHours,
			}
		}
		records = append(records, raw)
	}
	return records, nil
}
