package models

// Team is the canonical team record. Rosters reference athletes by player_id
// rather than embedding them.
type Team struct {
	TeamID   string   `json:"team_id"`
	Name     string   `json:"name"`
	Sport    string   `json:"sport"`
	League   string   `json:"league"`
	Division string   `json:"division,omitempty"`
	Location Location `json:"location,omitempty"`
	Season   *Season  `json:"season,omitempty"`
	Roster   []string `json:"roster,omitempty"`
}

type Location struct {
	City     string `json:"city,omitempty"`
	State    string `json:"state,omitempty"`
	Country  string `json:"country,omitempty"`
	Venue    string `json:"venue,omitempty"`
	Timezone string `json:"timezone,omitempty"`
}

// Season is a win/loss record. WinPct is wins/(wins+losses+ties) when the
// denominator is positive.
type Season struct {
	Wins   int     `json:"wins"`
	Losses int     `json:"losses"`
	Ties   int     `json:"ties"`
	WinPct float64 `json:"win_pct"`
}

// ComputeWinPct derives WinPct from the counts.
func (s *Season) ComputeWinPct() {
	games := s.Wins + s.Losses + s.Ties
	if games > 0 {
		s.WinPct = float64(s.Wins) / float64(games)
	} else {
		s.WinPct = 0
	}
}

// Readiness statuses per the banding thresholds.
const (
	StatusReady   = "ready"
	StatusMonitor = "monitor"
	StatusCaution = "caution"
)

// TeamReadiness is one team's rollup of scored athletes.
type TeamReadiness struct {
	TeamID         string  `json:"team_id"`
	League         string  `json:"league"`
	ReadinessScore float64 `json:"readiness_score"`
	Status         string  `json:"status"`
	PlayersCount   int     `json:"players_count"`
	StarsCount     int     `json:"stars_count"`
	ComputedAt     string  `json:"computed_at"`
}

// BandStatus maps a readiness score to its status band.
func BandStatus(score float64) string {
	switch {
	case score >= 75:
		return StatusReady
	case score >= 50:
		return StatusMonitor
	default:
		return StatusCaution
	}
}
