package normalize

import (
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blaze-intelligence/platform/internal/models"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func testNormalizer() *Normalizer {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewWithClock(fixedClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}, logger)
}

func validRaw() RawRecord {
	return RawRecord{
		ProviderID: "571448",
		Source:     "mlb_statsapi",
		Name:       "Nolan Arenado",
		Sport:      "MLB",
		League:     "MLB",
		TeamCode:   "STL",
		Position:   "3B",
		HeightRaw:  "6'2\"",
		WeightLbs:  models.Float(215),
		DOB:        "1991-04-16",
		Season:     "2025",
		Metrics: map[string]float64{
			"avg": 0.266, "hr": 26, "rbi": 93, "war": 2.5, "wpa": 0.8,
			"launch_angle": 14.2, // not whitelisted
		},
	}
}

func TestBatchNormalizesValidRecord(t *testing.T) {
	res := testNormalizer().Batch([]RawRecord{validRaw()})
	require.Len(t, res.Athletes, 1)
	require.Empty(t, res.Dropped)

	a := res.Athletes[0]
	assert.Equal(t, "MLB-STL", a.TeamID)
	assert.Regexp(t, `^MLB-STL-[0-9A-F]{8}$`, a.PlayerID)

	require.NotNil(t, a.Bio)
	require.NotNil(t, a.Bio.HeightCm)
	assert.InDelta(t, 188.0, *a.Bio.HeightCm, 0.1)
	require.NotNil(t, a.Bio.WeightKg)
	assert.InDelta(t, 97.5, *a.Bio.WeightKg, 0.1)

	assert.Contains(t, a.Stats.Performances, "avg")
	assert.Contains(t, a.Stats.Performances, "war")
	assert.NotContains(t, a.Stats.Performances, "launch_angle")

	assert.Equal(t, []string{"mlb_statsapi"}, a.Meta.Sources)
	assert.Equal(t, "2025-06-01T12:00:00Z", a.Meta.UpdatedAt)
	assert.Equal(t, "571448", a.Meta.ExternalIDs["mlb_statsapi_id"])
	assert.Equal(t, "6'2\"", a.Meta.ExternalIDs["height_raw"])
}

func TestBatchDropsAndCounts(t *testing.T) {
	noName := validRaw()
	noName.Name = ""
	badSport := validRaw()
	badSport.Sport = "CRICKET"
	badHeight := validRaw()
	badHeight.HeightRaw = "tall"

	res := testNormalizer().Batch([]RawRecord{validRaw(), noName, badSport, badHeight, validRaw()})
	assert.Len(t, res.Athletes, 2, "invalid records must not abort the batch")
	require.Len(t, res.Dropped, 3)

	assert.Equal(t, 1, res.Dropped[0].Index)
	assert.Equal(t, ReasonMissingRequired, res.Dropped[0].Reason)
	assert.Equal(t, 2, res.Dropped[1].Index)
	assert.Equal(t, ReasonUnknownSport, res.Dropped[1].Reason)
	assert.Equal(t, 3, res.Dropped[2].Index)
	assert.Equal(t, ReasonBadEncoding, res.Dropped[2].Reason)
}

func TestBatchPreservesOrder(t *testing.T) {
	first := validRaw()
	second := validRaw()
	second.ProviderID = "660271"
	second.Name = "Shohei Ohtani"
	second.TeamCode = "LAD"

	res := testNormalizer().Batch([]RawRecord{first, second})
	require.Len(t, res.Athletes, 2)
	assert.Equal(t, "Nolan Arenado", res.Athletes[0].Name)
	assert.Equal(t, "Shohei Ohtani", res.Athletes[1].Name)
}

func TestBatchIsIdempotent(t *testing.T) {
	n := testNormalizer()
	in := []RawRecord{validRaw()}
	first := n.Batch(in)
	second := n.Batch(in)
	assert.Equal(t, first, second, "same input under a fixed clock must produce identical output")
}

func TestPlayerIDStability(t *testing.T) {
	a := PlayerID("mlb", "stl", "571448", "")
	b := PlayerID("MLB", "STL", "571448", "ignored when provider id present")
	assert.Equal(t, a, b)
	assert.Regexp(t, `^MLB-STL-[0-9A-F]{8}$`, a)

	// Distinct providers ids yield distinct hashes.
	c := PlayerID("MLB", "STL", "571449", "")
	assert.NotEqual(t, a, c)

	// Name fallback is case-insensitive.
	d := PlayerID("MLB", "STL", "", "Nolan Arenado")
	e := PlayerID("MLB", "STL", "", "nolan arenado")
	assert.Equal(t, d, e)
}

func TestMetricWhitelistPerSport(t *testing.T) {
	raw := validRaw()
	raw.Sport = "NBA"
	raw.League = "NBA"
	raw.TeamCode = "MEM"
	raw.Metrics = map[string]float64{
		"points_per_game": 24.5,
		"era":             3.15, // MLB metric, not NBA
	}

	res := testNormalizer().Batch([]RawRecord{raw})
	require.Len(t, res.Athletes, 1)
	perf := res.Athletes[0].Stats.Performances
	assert.Contains(t, perf, "points_per_game")
	assert.NotContains(t, perf, "era")
}

func TestNoBioYieldsNilBio(t *testing.T) {
	raw := validRaw()
	raw.HeightRaw = ""
	raw.WeightLbs = nil
	raw.DOB = ""

	res := testNormalizer().Batch([]RawRecord{raw})
	require.Len(t, res.Athletes, 1)
	assert.Nil(t, res.Athletes[0].Bio)
}
