// Package teams is the static registry of teams across the covered leagues.
// It backs team_id resolution during normalization, the unified output's
// teams block, and the win-percentage adjustment in readiness rollups.
package teams

import (
	"fmt"
	"strings"

	"github.com/blaze-intelligence/platform/internal/models"
)

// Entry is one registered team.
type Entry struct {
	Code     string
	Name     string
	Division string
	Market   string
	State    string
	Venue    string
	Timezone string
	// Priority tiers: 0 is a declared focus team, higher is lower priority.
	Priority int
	Wins     int
	Losses   int
	Ties     int
}

// DefaultFocusTeams are processed first and surfaced in the featured
// readiness block, in this order.
var DefaultFocusTeams = []string{"MLB-STL", "NFL-TEN", "NCAA-TEX", "NBA-MEM"}

var mlbTeams = map[string]Entry{
	"STL": {Code: "STL", Name: "St. Louis Cardinals", Division: "NL Central", Market: "St. Louis", State: "MO", Venue: "Busch Stadium", Timezone: "America/Chicago", Priority: 0, Wins: 83, Losses: 79},
	"NYY": {Code: "NYY", Name: "New York Yankees", Division: "AL East", Market: "New York", State: "NY", Venue: "Yankee Stadium", Timezone: "America/New_York", Priority: 1, Wins: 94, Losses: 68},
	"LAD": {Code: "LAD", Name: "Los Angeles Dodgers", Division: "NL West", Market: "Los Angeles", State: "CA", Venue: "Dodger Stadium", Timezone: "America/Los_Angeles", Priority: 1, Wins: 98, Losses: 64},
	"HOU": {Code: "HOU", Name: "Houston Astros", Division: "AL West", Market: "Houston", State: "TX", Venue: "Minute Maid Park", Timezone: "America/Chicago", Priority: 1, Wins: 88, Losses: 74},
	"CHC": {Code: "CHC", Name: "Chicago Cubs", Division: "NL Central", Market: "Chicago", State: "IL", Venue: "Wrigley Field", Timezone: "America/Chicago", Priority: 1, Wins: 83, Losses: 79},
	"ATL": {Code: "ATL", Name: "Atlanta Braves", Division: "NL East", Market: "Atlanta", State: "GA", Venue: "Truist Park", Timezone: "America/New_York", Priority: 1, Wins: 89, Losses: 73},
	"TEX": {Code: "TEX", Name: "Texas Rangers", Division: "AL West", Market: "Dallas", State: "TX", Venue: "Globe Life Field", Timezone: "America/Chicago", Priority: 2, Wins: 78, Losses: 84},
	"SEA": {Code: "SEA", Name: "Seattle Mariners", Division: "AL West", Market: "Seattle", State: "WA", Venue: "T-Mobile Park", Timezone: "America/Los_Angeles", Priority: 2, Wins: 85, Losses: 77},
}

var nflTeams = map[string]Entry{
	"TEN": {Code: "TEN", Name: "Tennessee Titans", Division: "AFC South", Market: "Nashville", State: "TN", Venue: "Nissan Stadium", Timezone: "America/Chicago", Priority: 0, Wins: 6, Losses: 11},
	"KC":  {Code: "KC", Name: "Kansas City Chiefs", Division: "AFC West", Market: "Kansas City", State: "MO", Venue: "Arrowhead Stadium", Timezone: "America/Chicago", Priority: 1, Wins: 15, Losses: 2},
	"BAL": {Code: "BAL", Name: "Baltimore Ravens", Division: "AFC North", Market: "Baltimore", State: "MD", Venue: "M&T Bank Stadium", Timezone: "America/New_York", Priority: 1, Wins: 12, Losses: 5},
	"DAL": {Code: "DAL", Name: "Dallas Cowboys", Division: "NFC East", Market: "Dallas", State: "TX", Venue: "AT&T Stadium", Timezone: "America/Chicago", Priority: 1, Wins: 7, Losses: 10},
	"HOU": {Code: "HOU", Name: "Houston Texans", Division: "AFC South", Market: "Houston", State: "TX", Venue: "NRG Stadium", Timezone: "America/Chicago", Priority: 2, Wins: 10, Losses: 7},
}

var ncaaTeams = map[string]Entry{
	"TEX": {Code: "TEX", Name: "Texas Longhorns", Division: "SEC", Market: "Austin", State: "TX", Venue: "DKR-Texas Memorial Stadium", Timezone: "America/Chicago", Priority: 0, Wins: 13, Losses: 2},
	"ALA": {Code: "ALA", Name: "Alabama Crimson Tide", Division: "SEC", Market: "Tuscaloosa", State: "AL", Venue: "Bryant-Denny Stadium", Timezone: "America/Chicago", Priority: 1, Wins: 9, Losses: 4},
	"UGA": {Code: "UGA", Name: "Georgia Bulldogs", Division: "SEC", Market: "Athens", State: "GA", Venue: "Sanford Stadium", Timezone: "America/New_York", Priority: 1, Wins: 11, Losses: 3},
	"OU":  {Code: "OU", Name: "Oklahoma Sooners", Division: "SEC", Market: "Norman", State: "OK", Venue: "Gaylord Family Oklahoma Memorial Stadium", Timezone: "America/Chicago", Priority: 2, Wins: 6, Losses: 7},
}

var nbaTeams = map[string]Entry{
	"MEM": {Code: "MEM", Name: "Memphis Grizzlies", Division: "Southwest", Market: "Memphis", State: "TN", Venue: "FedExForum", Timezone: "America/Chicago", Priority: 0, Wins: 27, Losses: 55},
	"DAL": {Code: "DAL", Name: "Dallas Mavericks", Division: "Southwest", Market: "Dallas", State: "TX", Venue: "American Airlines Center", Timezone: "America/Chicago", Priority: 1, Wins: 50, Losses: 32},
	"SAS": {Code: "SAS", Name: "San Antonio Spurs", Division: "Southwest", Market: "San Antonio", State: "TX", Venue: "Frost Bank Center", Timezone: "America/Chicago", Priority: 2, Wins: 22, Losses: 60},
	"NOP": {Code: "NOP", Name: "New Orleans Pelicans", Division: "Southwest", Market: "New Orleans", State: "LA", Venue: "Smoothie King Center", Timezone: "America/Chicago", Priority: 2, Wins: 49, Losses: 33},
}

var leagues = map[string]struct {
	sport string
	teams map[string]Entry
}{
	"MLB":  {sport: "MLB", teams: mlbTeams},
	"NFL":  {sport: "NFL", teams: nflTeams},
	"NCAA": {sport: "NCAA-FB", teams: ncaaTeams},
	"NBA":  {sport: "NBA", teams: nbaTeams},
}

// Lookup resolves a league/code pair to an Entry.
func Lookup(league, code string) (Entry, bool) {
	l, ok := leagues[strings.ToUpper(league)]
	if !ok {
		return Entry{}, false
	}
	e, ok := l.teams[strings.ToUpper(code)]
	return e, ok
}

// TeamID builds the canonical <LEAGUE>-<TEAM_CODE> identifier.
func TeamID(league, code string) string {
	return fmt.Sprintf("%s-%s", strings.ToUpper(league), strings.ToUpper(code))
}

// TeamFor materializes the canonical team record for a league/code pair.
// Unregistered teams still resolve: the record carries only the identifiers.
func TeamFor(league, code string) models.Team {
	league = strings.ToUpper(league)
	code = strings.ToUpper(code)

	team := models.Team{
		TeamID: TeamID(league, code),
		Name:   code,
		Sport:  league,
		League: league,
	}
	l, ok := leagues[league]
	if !ok {
		return team
	}
	team.Sport = l.sport

	e, ok := l.teams[code]
	if !ok {
		return team
	}
	team.Name = e.Name
	team.Division = e.Division
	team.Location = models.Location{
		City:     e.Market,
		State:    e.State,
		Country:  "USA",
		Venue:    e.Venue,
		Timezone: e.Timezone,
	}
	season := &models.Season{Wins: e.Wins, Losses: e.Losses, Ties: e.Ties}
	season.ComputeWinPct()
	team.Season = season
	return team
}

// WinPct returns the registered season win percentage for a canonical
// team_id, when the team is known and has played games.
func WinPct(teamID string) (float64, bool) {
	parts := strings.SplitN(teamID, "-", 2)
	if len(parts) != 2 {
		return 0, false
	}
	e, ok := Lookup(parts[0], parts[1])
	if !ok {
		return 0, false
	}
	if e.Wins+e.Losses+e.Ties == 0 {
		return 0, false
	}
	return float64(e.Wins) / float64(e.Wins+e.Losses+e.Ties), true
}
