package validate

import (
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blaze-intelligence/platform/internal/models"
	"github.com/blaze-intelligence/platform/internal/store"
)

func testSuite(t *testing.T) (*Suite, *store.Store) {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	st, err := store.New(t.TempDir(), logger)
	require.NoError(t, err)
	return New(st, logger), st
}

func validAthlete(id string) models.Athlete {
	now := models.ISOTime(time.Now())
	return models.Athlete{
		PlayerID: id,
		Name:     "Player " + id,
		Sport:    "MLB",
		League:   "MLB",
		TeamID:   "MLB-STL",
		Position: "3B",
		HAVF: models.HAVF{
			ChampionReadiness: models.Float(70),
			CognitiveLeverage: models.Float(25),
			NILTrustScore:     models.Float(15),
			CompositeScore:    models.Float(40.5),
			LastComputedAt:    now,
		},
		Meta: models.Meta{Sources: []string{"mlb_statsapi"}, UpdatedAt: now},
	}
}

func TestCleanRunPasses(t *testing.T) {
	suite, st := testSuite(t)
	require.NoError(t, st.WriteLeague("mlb", []models.Athlete{
		validAthlete("MLB-STL-AAAA1111"),
		validAthlete("MLB-STL-BBBB2222"),
	}, time.Now()))

	assert.Empty(t, suite.Run([]string{"mlb", "nfl"}))
}

func TestDuplicateIDCaught(t *testing.T) {
	suite, st := testSuite(t)
	require.NoError(t, st.WriteLeague("mlb", []models.Athlete{
		validAthlete("MLB-STL-AAAA1111"),
		validAthlete("MLB-STL-AAAA1111"),
	}, time.Now()))

	violations := suite.Run([]string{"mlb"})
	require.NotEmpty(t, violations)
	assert.Equal(t, "player_id_unique", violations[0].Check)
}

func TestCompositeWithoutSubscoresCaught(t *testing.T) {
	suite, st := testSuite(t)
	bad := validAthlete("MLB-STL-CCCC3333")
	bad.HAVF.NILTrustScore = nil
	require.NoError(t, st.WriteLeague("mlb", []models.Athlete{bad}, time.Now()))

	violations := suite.Run([]string{"mlb"})
	found := false
	for _, v := range violations {
		if v.Check == "composite_requires_subscores" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestOutOfBoundsCaught(t *testing.T) {
	suite, st := testSuite(t)
	bad := validAthlete("MLB-STL-DDDD4444")
	bad.HAVF.ChampionReadiness = models.Float(140)
	require.NoError(t, st.WriteLeague("mlb", []models.Athlete{bad}, time.Now()))

	violations := suite.Run([]string{"mlb"})
	found := false
	for _, v := range violations {
		if v.Check == "havf_bounds" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestStaleUpdatedAtCaught(t *testing.T) {
	suite, st := testSuite(t)
	bad := validAthlete("MLB-STL-FFFF6666")
	bad.Meta.UpdatedAt = "2025-06-01T11:59:59Z"
	bad.HAVF.LastComputedAt = "2025-06-01T12:00:00Z"
	require.NoError(t, st.WriteLeague("mlb", []models.Athlete{bad}, time.Now()))

	violations := suite.Run([]string{"mlb"})
	found := false
	for _, v := range violations {
		if v.Check == "meta_updated_at_ordering" {
			found = true
		}
	}
	assert.True(t, found, "updated_at one second behind last_computed_at must fail")
}

func TestMissingSourcesCaught(t *testing.T) {
	suite, st := testSuite(t)
	bad := validAthlete("MLB-STL-EEEE5555")
	bad.Meta.Sources = nil
	require.NoError(t, st.WriteLeague("mlb", []models.Athlete{bad}, time.Now()))

	violations := suite.Run([]string{"mlb"})
	require.NotEmpty(t, violations)
	assert.Equal(t, "meta_sources_nonempty", violations[0].Check)
}
