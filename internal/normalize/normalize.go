// Package normalize turns provider-shaped payloads into canonical athlete
// records. Everything downstream (scoring, readiness, persistence) sees only
// the output of this package.
package normalize

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/blaze-intelligence/platform/internal/models"
	"github.com/blaze-intelligence/platform/internal/teams"
	"github.com/blaze-intelligence/platform/internal/units"
)

// Reasons a record is dropped.
const (
	ReasonMissingRequired = "missing_required"
	ReasonBadEncoding     = "bad_encoding"
	ReasonUnknownSport    = "unknown_sport"
)

// Error describes one dropped record. Drops never abort the batch.
type Error struct {
	Index  int
	Reason string
	Detail string
}

func (e Error) Error() string {
	return fmt.Sprintf("record %d: %s (%s)", e.Index, e.Reason, e.Detail)
}

// RawRecord is the provider-neutral intermediate every league agent produces
// before normalization. Provider payload structs are flattened into this
// shape so that normalization logic is written once.
type RawRecord struct {
	ProviderID   string
	Source       string
	Name         string
	Sport        string
	League       string
	TeamCode     string
	Position     string
	JerseyNumber string

	HeightRaw  string
	WeightLbs  *float64
	DOB        string
	Birthplace string
	Handedness string
	ClassYear  string
	College    string

	Season          string
	Metrics         map[string]float64
	Projections     map[string]float64
	ProjectionModel string

	NILProfile   *models.NILProfile
	Biometrics   *models.Biometrics
	InjuryStatus *models.InjuryStatus
	Recruiting   *models.Recruiting
	ExternalIDs  map[string]string
}

// metricWhitelists pins the sport-namespaced performance metrics that survive
// normalization. Anything else a provider reports is discarded.
var metricWhitelists = map[string]map[string]bool{
	"MLB": setOf(
		"avg", "obp", "slg", "ops", "hr", "rbi", "sb",
		"era", "whip", "k9", "bb9",
		"war", "wpa",
	),
	"NFL": setOf(
		"rushing_yards", "rushing_tds", "receiving_yards", "receiving_tds",
		"passing_yards", "passing_tds", "completion_pct",
		"epa",
	),
	"NCAA-FB": setOf(
		"rushing_yards", "rushing_tds", "receiving_yards", "receiving_tds",
		"passing_yards", "passing_tds", "completion_pct", "passer_rating",
	),
	"HS-FB": setOf(
		"rushing_yards", "rushing_tds", "receiving_yards", "receiving_tds",
		"passing_yards", "passing_tds", "completion_pct", "passer_rating",
	),
	"NBA": setOf(
		"points_per_game", "rebounds_per_game", "assists_per_game",
		"field_goal_pct", "three_point_pct", "free_throw_pct",
		"minutes_per_game", "games_played",
	),
}

func setOf(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

// knownSports maps accepted sport labels to their canonical spelling.
var knownSports = map[string]string{
	"MLB":     "MLB",
	"NFL":     "NFL",
	"NCAA-FB": "NCAA-FB",
	"HS-FB":   "HS-FB",
	"NBA":     "NBA",
	"KBO":     "KBO",
	"NPB":     "NPB",
}

// Clock is injected so normalization is deterministic under test.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Normalizer converts batches of raw records.
type Normalizer struct {
	clock  Clock
	logger *logrus.Logger
}

// New builds a Normalizer on the wall clock.
func New(logger *logrus.Logger) *Normalizer {
	return &Normalizer{clock: realClock{}, logger: logger}
}

// NewWithClock builds a Normalizer with an injected clock.
func NewWithClock(clock Clock, logger *logrus.Logger) *Normalizer {
	return &Normalizer{clock: clock, logger: logger}
}

// Result carries the surviving records plus per-record drop errors.
type Result struct {
	Athletes []models.Athlete
	Dropped  []Error
}

// Batch normalizes a batch. Input order is preserved in the output; invalid
// records are dropped and counted, never fatal.
func (n *Normalizer) Batch(records []RawRecord) Result {
	res := Result{Athletes: make([]models.Athlete, 0, len(records))}
	for i, raw := range records {
		athlete, err := n.one(raw)
		if err != nil {
			derr := err.(Error)
			derr.Index = i
			res.Dropped = append(res.Dropped, derr)
			n.logger.WithFields(logrus.Fields{
				"index":  i,
				"reason": derr.Reason,
				"detail": derr.Detail,
			}).Warn("Dropped record during normalization")
			continue
		}
		res.Athletes = append(res.Athletes, athlete)
	}
	return res
}

func (n *Normalizer) one(raw RawRecord) (models.Athlete, error) {
	name := strings.TrimSpace(raw.Name)
	position := strings.TrimSpace(raw.Position)
	teamCode := strings.TrimSpace(raw.TeamCode)
	league := strings.ToUpper(strings.TrimSpace(raw.League))

	sport, ok := knownSports[strings.ToUpper(strings.TrimSpace(raw.Sport))]
	if !ok {
		return models.Athlete{}, Error{Reason: ReasonUnknownSport, Detail: raw.Sport}
	}
	if name == "" || position == "" || teamCode == "" || league == "" {
		missing := []string{}
		if name == "" {
			missing = append(missing, "name")
		}
		if position == "" {
			missing = append(missing, "position")
		}
		if teamCode == "" {
			missing = append(missing, "team_id")
		}
		if league == "" {
			missing = append(missing, "league")
		}
		return models.Athlete{}, Error{Reason: ReasonMissingRequired, Detail: strings.Join(missing, ",")}
	}

	athlete := models.Athlete{
		PlayerID:     PlayerID(league, teamCode, raw.ProviderID, name),
		Name:         name,
		Sport:        sport,
		League:       league,
		TeamID:       teams.TeamID(league, teamCode),
		Position:     position,
		JerseyNumber: strings.TrimSpace(raw.JerseyNumber),
		NILProfile:   raw.NILProfile,
		Biometrics:   raw.Biometrics,
		InjuryStatus: raw.InjuryStatus,
		Recruiting:   raw.Recruiting,
	}

	bio, err := n.bio(raw)
	if err != nil {
		return models.Athlete{}, err
	}
	athlete.Bio = bio

	athlete.Stats = models.StatLine{
		Season:       raw.Season,
		Performances: filterMetrics(sport, raw.Metrics),
	}
	if len(raw.Projections) > 0 {
		athlete.Projections = &models.Projection{
			Season:       raw.Season,
			Model:        raw.ProjectionModel,
			Performances: filterMetrics(sport, raw.Projections),
		}
	}

	athlete.Meta = models.Meta{
		Sources:     sources(raw),
		UpdatedAt:   models.ISOTime(n.clock.Now()),
		ExternalIDs: externalIDs(raw),
	}
	return athlete, nil
}

func (n *Normalizer) bio(raw RawRecord) (*models.Bio, error) {
	bio := &models.Bio{
		DOB:        raw.DOB,
		Birthplace: raw.Birthplace,
		Handedness: raw.Handedness,
		ClassYear:  raw.ClassYear,
		College:    raw.College,
	}
	hasBio := raw.DOB != "" || raw.Birthplace != "" || raw.Handedness != "" ||
		raw.ClassYear != "" || raw.College != ""

	if h := strings.TrimSpace(raw.HeightRaw); h != "" {
		cm, err := units.ParseHeight(h)
		if err != nil {
			return nil, Error{Reason: ReasonBadEncoding, Detail: fmt.Sprintf("height %q", raw.HeightRaw)}
		}
		bio.HeightCm = models.Float(float64(cm))
		hasBio = true
	}
	if raw.WeightLbs != nil {
		bio.WeightKg = models.Float(float64(units.LbsToKg(*raw.WeightLbs)))
		hasBio = true
	}
	if !hasBio {
		return nil, nil
	}
	return bio, nil
}

func filterMetrics(sport string, metrics map[string]float64) map[string]float64 {
	out := make(map[string]float64)
	whitelist := metricWhitelists[sport]
	for name, v := range metrics {
		key := strings.ToLower(strings.TrimSpace(name))
		if whitelist == nil || whitelist[key] {
			out[key] = v
		}
	}
	return out
}

func sources(raw RawRecord) []string {
	if raw.Source == "" {
		return []string{"unknown"}
	}
	return []string{raw.Source}
}

func externalIDs(raw RawRecord) map[string]string {
	ids := make(map[string]string, len(raw.ExternalIDs)+2)
	for k, v := range raw.ExternalIDs {
		ids[k] = v
	}
	if raw.ProviderID != "" && raw.Source != "" {
		key := strings.ToLower(raw.Source) + "_id"
		if _, ok := ids[key]; !ok {
			ids[key] = raw.ProviderID
		}
	}
	// Original imperial encodings survive in external ids when informative.
	if raw.HeightRaw != "" {
		ids["height_raw"] = raw.HeightRaw
	}
	if len(ids) == 0 {
		return nil
	}
	return ids
}

// PlayerID derives the canonical id: league, team code, then the first 8 hex
// chars of the MD5 of the provider id, upper-cased. Not a security primitive,
// only a short stable key. Falls back to hashing the name when a provider id
// is missing.
func PlayerID(league, teamCode, providerID, name string) string {
	seed := providerID
	if seed == "" {
		seed = strings.ToLower(name)
	}
	sum := md5.Sum([]byte(seed))
	hash8 := strings.ToUpper(hex.EncodeToString(sum[:])[:8])
	return fmt.Sprintf("%s-%s-%s", strings.ToUpper(league), strings.ToUpper(teamCode), hash8)
}
