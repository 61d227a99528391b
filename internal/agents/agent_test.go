package agents

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blaze-intelligence/platform/internal/fetch"
	"github.com/blaze-intelligence/platform/internal/havf"
	"github.com/blaze-intelligence/platform/internal/normalize"
	"github.com/blaze-intelligence/platform/internal/store"
	"github.com/blaze-intelligence/platform/pkg/config"
)

const mlbFixture = `{
  "people": [
    {
      "id": 571448,
      "fullName": "Nolan Arenado",
      "primaryNumber": "28",
      "birthDate": "1991-04-16",
      "height": "6' 2\"",
      "weight": 215,
      "batSide": {"code": "R"},
      "primaryPosition": {"abbreviation": "3B"},
      "currentTeam": {"abbreviation": "STL"},
      "season": "2025",
      "seasonStats": {"avg": 0.266, "hr": 26, "rbi": 93, "war": 2.5, "wpa": 0.8}
    },
    {
      "id": 0,
      "fullName": "",
      "primaryPosition": {"abbreviation": "P"},
      "currentTeam": {"abbreviation": "STL"}
    },
    {
      "id": 669357,
      "fullName": "Jordan Walker",
      "primaryNumber": "18",
      "birthDate": "2002-05-22",
      "height": "6-6",
      "weight": 250,
      "primaryPosition": {"abbreviation": "RF"},
      "currentTeam": {"abbreviation": "STL"},
      "season": "2025",
      "seasonStats": {"avg": 0.254, "hr": 16, "war": 1.1, "wpa": 0.2},
      "biometrics": {"hrv_rmssd_ms": 64, "reaction_ms": 168, "sleep_hours": 7.8}
    }
  ]
}`

func testDeps(t *testing.T) (*Deps, string) {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	fixtureDir := t.TempDir()
	dataDir := t.TempDir()

	st, err := store.New(dataDir, logger)
	require.NoError(t, err)

	cfg := &config.Config{FixtureDir: fixtureDir, DataDir: dataDir}
	deps := &Deps{
		Config:     cfg,
		Client:     fetch.NewClient(time.Second, logger),
		Fixtures:   fetch.NewFixtures(fixtureDir, logger),
		Normalizer: normalize.New(logger),
		Engine:     havf.New(logger),
		Store:      st,
		Logger:     logger,
	}
	return deps, fixtureDir
}

func TestAgentFixtureRun(t *testing.T) {
	deps, fixtureDir := testDeps(t)
	require.NoError(t, os.WriteFile(filepath.Join(fixtureDir, "mlb.json"), []byte(mlbFixture), 0o644))

	agent := New(&MLBSource{}, deps)
	res := agent.Run(context.Background(), Params{Season: "2025"})

	require.NoError(t, res.Err)
	assert.Equal(t, StateDone, res.State)
	assert.Equal(t, 2, res.Players, "empty-name record must be dropped")
	assert.Equal(t, 1, res.Dropped)

	file, err := deps.Store.ReadLeague("mlb")
	require.NoError(t, err)
	require.Len(t, file.Players, 2)
	for _, p := range file.Players {
		assert.Regexp(t, `^MLB-STL-[0-9A-F]{8}$`, p.PlayerID)
		require.NotNil(t, p.HAVF.ChampionReadiness, "every persisted record is scored")
		assert.NotNil(t, p.HAVF.CompositeScore)
	}
}

func TestAgentMissingFixtureReportsZero(t *testing.T) {
	deps, _ := testDeps(t)

	agent := New(&NBASource{}, deps)
	res := agent.Run(context.Background(), Params{Season: "2025"})

	require.NoError(t, res.Err)
	assert.Equal(t, StateDone, res.State)
	assert.Zero(t, res.Players)
}

func TestAgentMalformedFixtureFails(t *testing.T) {
	deps, fixtureDir := testDeps(t)
	require.NoError(t, os.WriteFile(filepath.Join(fixtureDir, "nfl.json"), []byte("{not json"), 0o644))

	agent := New(&NFLSource{}, deps)
	res := agent.Run(context.Background(), Params{})

	assert.Equal(t, StateFailed, res.State)
	require.Error(t, res.Err)
	kind, ok := fetch.KindOf(res.Err)
	require.True(t, ok)
	assert.Equal(t, fetch.KindMalformedResponse, kind)
}

func TestProviderOrderPreserved(t *testing.T) {
	deps, fixtureDir := testDeps(t)
	fixture := `{"people": [
	  {"id": 1, "fullName": "Yankees Guy", "primaryPosition": {"abbreviation": "C"}, "currentTeam": {"abbreviation": "NYY"}, "season": "2025"},
	  {"id": 2, "fullName": "Cards Guy", "primaryPosition": {"abbreviation": "SS"}, "currentTeam": {"abbreviation": "STL"}, "season": "2025"},
	  {"id": 3, "fullName": "Dodgers Guy", "primaryPosition": {"abbreviation": "1B"}, "currentTeam": {"abbreviation": "LAD"}, "season": "2025"}
	]}`
	require.NoError(t, os.WriteFile(filepath.Join(fixtureDir, "mlb.json"), []byte(fixture), 0o644))

	agent := New(&MLBSource{}, deps)
	res := agent.Run(context.Background(), Params{Season: "2025"})

	require.NoError(t, res.Err)
	require.Len(t, res.Athletes, 3)

	// Records persist in the order the provider returned them.
	file, err := deps.Store.ReadLeague("mlb")
	require.NoError(t, err)
	require.Len(t, file.Players, 3)
	for i, teamID := range []string{"MLB-NYY", "MLB-STL", "MLB-LAD"} {
		assert.Equal(t, teamID, res.Athletes[i].TeamID)
		assert.Equal(t, teamID, file.Players[i].TeamID)
	}
}

func TestRegistryRejectsUnknownLeague(t *testing.T) {
	deps, _ := testDeps(t)

	agentsList, err := Registry([]string{"mlb", "nfl", "ncaa", "nba", "hs", "nil", "intl"}, deps)
	require.NoError(t, err)
	assert.Len(t, agentsList, 7)

	_, err = Registry([]string{"cricket"}, deps)
	assert.Error(t, err)
}
