// Package readiness rolls scored athletes up into per-team readiness records
// and the run-level readiness.json payload.
package readiness

import (
	"math"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/blaze-intelligence/platform/internal/models"
	"github.com/blaze-intelligence/platform/internal/teams"
)

// StarThreshold marks an athlete as a star within a roster.
const StarThreshold = 80.0

// defaultComposite stands in for athletes whose composite is absent, so
// sparse rosters are not dragged below the caution threshold.
const defaultComposite = 50.0

// LeagueSummary is one league's block in readiness.json.
type LeagueSummary struct {
	Teams            []models.TeamReadiness `json:"teams"`
	AverageReadiness float64                `json:"averageReadiness"`
}

// File is the readiness.json payload.
type File struct {
	GeneratedAt string                   `json:"generated_at"`
	Sports      map[string]LeagueSummary `json:"sports"`
	Featured    []models.TeamReadiness   `json:"featured"`
}

// Clock is injected for deterministic computed_at stamps.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Aggregator computes readiness rollups. Focus teams appear in the featured
// block in their declared order regardless of score.
type Aggregator struct {
	clock  Clock
	logger *logrus.Logger
	focus  []string
}

// New builds an Aggregator on the wall clock.
func New(focus []string, logger *logrus.Logger) *Aggregator {
	return NewWithClock(focus, realClock{}, logger)
}

// NewWithClock builds an Aggregator with an injected clock.
func NewWithClock(focus []string, clock Clock, logger *logrus.Logger) *Aggregator {
	if len(focus) == 0 {
		focus = teams.DefaultFocusTeams
	}
	return &Aggregator{clock: clock, logger: logger, focus: focus}
}

// Compute rolls a run's scored athletes into the readiness payload. Only
// teams with at least one scored athlete appear.
func (a *Aggregator) Compute(players []models.Athlete) File {
	now := a.clock.Now()
	byTeam := make(map[string][]models.Athlete)
	leagueOf := make(map[string]string)
	for _, p := range players {
		if p.TeamID == "" {
			continue
		}
		byTeam[p.TeamID] = append(byTeam[p.TeamID], p)
		leagueOf[p.TeamID] = p.League
	}

	records := make(map[string]models.TeamReadiness, len(byTeam))
	sports := make(map[string]LeagueSummary)
	perLeague := make(map[string][]models.TeamReadiness)

	for teamID, roster := range byTeam {
		rec := a.teamRecord(teamID, leagueOf[teamID], roster, now)
		records[teamID] = rec
		perLeague[rec.League] = append(perLeague[rec.League], rec)
	}

	for league, recs := range perLeague {
		sort.Slice(recs, func(i, j int) bool {
			if recs[i].ReadinessScore != recs[j].ReadinessScore {
				return recs[i].ReadinessScore > recs[j].ReadinessScore
			}
			return recs[i].TeamID < recs[j].TeamID
		})
		var sum float64
		for _, r := range recs {
			sum += r.ReadinessScore
		}
		sports[league] = LeagueSummary{
			Teams:            recs,
			AverageReadiness: round1(sum / float64(len(recs))),
		}
	}

	// Featured holds exactly the declared focus teams, in declared order,
	// regardless of their scores.
	featured := make([]models.TeamReadiness, 0, len(a.focus))
	for _, teamID := range a.focus {
		if rec, ok := records[teamID]; ok {
			featured = append(featured, rec)
		}
	}

	a.logger.WithFields(logrus.Fields{
		"teams":    len(records),
		"leagues":  len(sports),
		"featured": len(featured),
	}).Info("Computed readiness rollup")

	return File{
		GeneratedAt: models.ISOTime(now),
		Sports:      sports,
		Featured:    featured,
	}
}

func (a *Aggregator) teamRecord(teamID, league string, roster []models.Athlete, now time.Time) models.TeamReadiness {
	var sum float64
	var stars int
	for _, p := range roster {
		composite := defaultComposite
		if p.HAVF.CompositeScore != nil {
			composite = *p.HAVF.CompositeScore
		}
		sum += composite
		if composite >= StarThreshold {
			stars++
		}
	}
	score := sum / float64(len(roster))

	if winPct, ok := teams.WinPct(teamID); ok {
		score = (score + (50 + 40*(winPct-0.5))) / 2
	}
	score = round1(math.Max(0, math.Min(100, score)))

	return models.TeamReadiness{
		TeamID:         teamID,
		League:         league,
		ReadinessScore: score,
		Status:         models.BandStatus(score),
		PlayersCount:   len(roster),
		StarsCount:     stars,
		ComputedAt:     models.ISOTime(now),
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
