package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blaze-intelligence/platform/internal/readiness"
	"github.com/blaze-intelligence/platform/pkg/config"
)

const mlbFixture = `{"people": [
  {"id": 571448, "fullName": "Nolan Arenado", "primaryNumber": "28",
   "birthDate": "1991-04-16", "height": "6' 2\"", "weight": 215,
   "primaryPosition": {"abbreviation": "3B"}, "currentTeam": {"abbreviation": "STL"},
   "season": "2025", "seasonStats": {"avg": 0.266, "hr": 26, "war": 2.5, "wpa": 0.8}}
]}`

const nbaFixture = `{"players": [
  {"personId": 1630583, "displayName": "Santi Aldama", "teamTricode": "MEM",
   "position": "PF", "jerseyNum": "7", "height": "6-11", "weightPounds": 224,
   "birthDate": "2001-01-10", "season": "2025",
   "pts": 12.5, "reb": 6.2, "ast": 2.9, "fgPct": 0.483, "gp": 71}
]}`

func testOrchestrator(t *testing.T) (*Orchestrator, *bytes.Buffer, string) {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	fixtureDir := t.TempDir()
	cfg := &config.Config{
		DataDir:    t.TempDir(),
		FixtureDir: fixtureDir,
	}
	var out bytes.Buffer
	o, err := New(cfg, logger, &out)
	require.NoError(t, err)
	return o, &out, fixtureDir
}

func writeFixture(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestFixtureRunSucceeds(t *testing.T) {
	o, out, fixtureDir := testOrchestrator(t)
	writeFixture(t, fixtureDir, "mlb.json", mlbFixture)
	writeFixture(t, fixtureDir, "nba.json", nbaFixture)

	report, err := o.Run(context.Background(), Options{Leagues: []string{"mlb", "nba"}})
	require.NoError(t, err)
	assert.False(t, report.Failed)
	assert.Equal(t, 2, report.Players)

	// mlb, nba, unified, readiness, validation
	require.Len(t, report.Stages, 5)
	for _, stage := range report.Stages {
		assert.True(t, stage.OK, "stage %s: %s", stage.Name, stage.Reason)
	}

	unified, err := o.Store().ReadUnified()
	require.NoError(t, err)
	assert.Len(t, unified.Players, 2)
	require.Len(t, unified.Teams, 2)
	assert.Equal(t, "St. Louis Cardinals", unified.Teams[0].Name)
	assert.Len(t, unified.Teams[0].Roster, 1)

	summary := out.String()
	assert.Contains(t, summary, "✓ mlb")
	assert.Contains(t, summary, "Result: OK")
}

func TestFailedLeagueDoesNotAbortRun(t *testing.T) {
	o, out, fixtureDir := testOrchestrator(t)
	writeFixture(t, fixtureDir, "mlb.json", "{broken")
	writeFixture(t, fixtureDir, "nba.json", nbaFixture)

	report, err := o.Run(context.Background(), Options{Leagues: []string{"mlb", "nba"}})
	require.NoError(t, err)
	assert.True(t, report.Failed)
	assert.Equal(t, 1, report.Players, "nba still ingested after mlb failure")

	summary := out.String()
	assert.Contains(t, summary, "✗ mlb")
	assert.Contains(t, summary, "reason:")
	assert.Contains(t, summary, "✓ nba")
	assert.Contains(t, summary, "Result: FAILED")
}

func TestMissingFixturesReportZeroPlayers(t *testing.T) {
	o, _, _ := testOrchestrator(t)

	report, err := o.Run(context.Background(), Options{Leagues: []string{"hs", "intl"}})
	require.NoError(t, err)
	assert.False(t, report.Failed, "missing fixtures are not failures")
	assert.Zero(t, report.Players)
}

func TestUnknownLeagueIsConfigError(t *testing.T) {
	o, _, _ := testOrchestrator(t)
	_, err := o.Run(context.Background(), Options{Leagues: []string{"cricket"}})
	assert.Error(t, err)
}

func TestSingleAgentOption(t *testing.T) {
	o, _, fixtureDir := testOrchestrator(t)
	writeFixture(t, fixtureDir, "nba.json", nbaFixture)

	report, err := o.Run(context.Background(), Options{Agent: "nba"})
	require.NoError(t, err)
	// nba, unified, readiness, validation
	require.Len(t, report.Stages, 4)
	assert.Equal(t, "nba", report.Stages[0].Name)
	assert.Equal(t, 1, report.Players)
}

func TestSkipFlags(t *testing.T) {
	o, _, fixtureDir := testOrchestrator(t)
	writeFixture(t, fixtureDir, "mlb.json", mlbFixture)

	report, err := o.Run(context.Background(), Options{
		Leagues:       []string{"mlb"},
		SkipTests:     true,
		SkipReadiness: true,
	})
	require.NoError(t, err)
	// mlb and unified only
	require.Len(t, report.Stages, 2)
}

func TestReadinessFileWritten(t *testing.T) {
	o, _, fixtureDir := testOrchestrator(t)
	writeFixture(t, fixtureDir, "mlb.json", mlbFixture)

	_, err := o.Run(context.Background(), Options{Leagues: []string{"mlb"}})
	require.NoError(t, err)

	raw, err := o.Store().ReadReadiness()
	require.NoError(t, err)

	var file readiness.File
	require.NoError(t, json.Unmarshal(raw, &file))
	assert.Contains(t, file.Sports, "MLB")
	require.Len(t, file.Featured, 1)
	assert.Equal(t, "MLB-STL", file.Featured[0].TeamID)
}
