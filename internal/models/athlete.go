package models

import "time"

// Athlete is the canonical record every provider payload is normalized into.
// Optional numeric fields are pointers: nil means "not observed", which is
// distinct from zero. JSON output encodes absence as null.
type Athlete struct {
	PlayerID     string        `json:"player_id"`
	Name         string        `json:"name"`
	Sport        string        `json:"sport"`
	League       string        `json:"league"`
	TeamID       string        `json:"team_id"`
	Position     string        `json:"position"`
	JerseyNumber string        `json:"jersey_number,omitempty"`
	Bio          *Bio          `json:"bio,omitempty"`
	Stats        StatLine      `json:"stats"`
	Projections  *Projection   `json:"projections,omitempty"`
	NILProfile   *NILProfile   `json:"nil_profile,omitempty"`
	Biometrics   *Biometrics   `json:"biometrics,omitempty"`
	HAVF         HAVF          `json:"hav_f"`
	InjuryStatus *InjuryStatus `json:"injury_status,omitempty"`
	Recruiting   *Recruiting   `json:"recruiting,omitempty"`
	Meta         Meta          `json:"meta"`
}

// Bio holds biographical attributes. Height and weight are stored in metric
// units; conversion happens at the normalizer boundary.
type Bio struct {
	DOB        string   `json:"dob,omitempty"`
	Birthplace string   `json:"birthplace,omitempty"`
	HeightCm   *float64 `json:"height_cm,omitempty"`
	WeightKg   *float64 `json:"weight_kg,omitempty"`
	Handedness string   `json:"handedness,omitempty"`
	ClassYear  string   `json:"class_year,omitempty"`
	College    string   `json:"college,omitempty"`
}

// StatLine is a season of sport-namespaced performance metrics.
type StatLine struct {
	Season       string             `json:"season"`
	Performances map[string]float64 `json:"performances"`
}

// Projection mirrors StatLine with the projecting model tagged.
type Projection struct {
	Season       string             `json:"season"`
	Model        string             `json:"model,omitempty"`
	Performances map[string]float64 `json:"performances"`
}

// NILProfile carries name/image/likeness market data. Any field may be absent.
type NILProfile struct {
	ValuationUSD        *float64 `json:"valuation_usd,omitempty"`
	EngagementRate      *float64 `json:"engagement_rate,omitempty"`
	FollowersTotal      *float64 `json:"followers_total,omitempty"`
	DealsLast90d        *float64 `json:"deals_last_90d,omitempty"`
	DealValue90dUSD     *float64 `json:"deal_value_90d_usd,omitempty"`
	SearchIndex         *float64 `json:"search_index,omitempty"`
	LocalPopularityIdx  *float64 `json:"local_popularity_index,omitempty"`
}

// Empty reports whether every field is absent.
func (n *NILProfile) Empty() bool {
	if n == nil {
		return true
	}
	return n.ValuationUSD == nil && n.EngagementRate == nil && n.FollowersTotal == nil &&
		n.DealsLast90d == nil && n.DealValue90dUSD == nil && n.SearchIndex == nil &&
		n.LocalPopularityIdx == nil
}

// Biometrics carries wearable-sourced readings. Any field may be absent.
type Biometrics struct {
	HRVRmssdMs      *float64 `json:"hrv_rmssd_ms,omitempty"`
	ReactionMs      *float64 `json:"reaction_ms,omitempty"`
	GSRMicrosiemens *float64 `json:"gsr_microsiemens,omitempty"`
	SleepHours      *float64 `json:"sleep_hours,omitempty"`
}

// Empty reports whether every reading is absent.
func (b *Biometrics) Empty() bool {
	if b == nil {
		return true
	}
	return b.HRVRmssdMs == nil && b.ReactionMs == nil && b.GSRMicrosiemens == nil && b.SleepHours == nil
}

// HAVF holds the three sub-scores plus the composite. Populated fields are
// always within [0, 100].
type HAVF struct {
	ChampionReadiness *float64 `json:"champion_readiness"`
	CognitiveLeverage *float64 `json:"cognitive_leverage"`
	NILTrustScore     *float64 `json:"nil_trust_score"`
	CompositeScore    *float64 `json:"composite_score"`
	LastComputedAt    string   `json:"last_computed_at,omitempty"`
}

type InjuryStatus struct {
	CurrentStatus string `json:"current_status"`
	Since         string `json:"since,omitempty"`
	Notes         string `json:"notes,omitempty"`
}

type Recruiting struct {
	Stars        *int `json:"stars,omitempty"`
	NationalRank *int `json:"national_rank,omitempty"`
	PositionRank *int `json:"position_rank,omitempty"`
}

// Meta records provenance. Sources is ordered and non-empty for every
// normalized record.
type Meta struct {
	Sources     []string          `json:"sources"`
	UpdatedAt   string            `json:"updated_at"`
	ExternalIDs map[string]string `json:"external_ids,omitempty"`
}

// Float returns a pointer for an optional numeric field.
func Float(v float64) *float64 { return &v }

// Int returns a pointer for an optional integer field.
func Int(v int) *int { return &v }

// ISOTime formats a timestamp the way every persisted artifact expects:
// RFC 3339 in UTC.
func ISOTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
