// Package validate is the post-run invariant suite: it re-reads the run's
// persisted output and checks the contracts downstream consumers rely on.
package validate

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/blaze-intelligence/platform/internal/models"
	"github.com/blaze-intelligence/platform/internal/store"
)

// Violation is one failed check.
type Violation struct {
	Check  string
	Detail string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.Check, v.Detail)
}

// Suite validates persisted run output.
type Suite struct {
	store  *store.Store
	logger *logrus.Logger
}

// New builds a Suite over a run's store.
func New(st *store.Store, logger *logrus.Logger) *Suite {
	return &Suite{store: st, logger: logger}
}

// Run checks every league file named in leagues plus the unified file.
// It returns all violations rather than stopping at the first.
func (s *Suite) Run(leagues []string) []Violation {
	var violations []Violation
	seen := make(map[string]string)

	for _, league := range leagues {
		file, err := s.store.ReadLeague(league)
		if err != nil {
			// A league that produced no players has no file; that is not a
			// violation.
			continue
		}
		for _, p := range file.Players {
			violations = append(violations, checkAthlete(p, seen, league)...)
		}
	}

	if unified, err := s.store.ReadUnified(); err == nil {
		unifiedSeen := make(map[string]string)
		for _, p := range unified.Players {
			violations = append(violations, checkAthlete(p, unifiedSeen, "unified")...)
		}
	}

	if len(violations) > 0 {
		for _, v := range violations {
			s.logger.WithFields(logrus.Fields{
				"check":  v.Check,
				"detail": v.Detail,
			}).Error("Validation violation")
		}
	} else {
		s.logger.Info("Validation suite passed")
	}
	return violations
}

func checkAthlete(p models.Athlete, seen map[string]string, scope string) []Violation {
	var out []Violation

	if prior, dup := seen[p.PlayerID]; dup {
		out = append(out, Violation{
			Check:  "player_id_unique",
			Detail: fmt.Sprintf("%s duplicated in %s and %s (%s)", p.PlayerID, prior, scope, p.Name),
		})
	} else {
		seen[p.PlayerID] = scope
	}

	for name, score := range map[string]*float64{
		"champion_readiness": p.HAVF.ChampionReadiness,
		"cognitive_leverage": p.HAVF.CognitiveLeverage,
		"nil_trust_score":    p.HAVF.NILTrustScore,
		"composite_score":    p.HAVF.CompositeScore,
	} {
		if score != nil && (*score < 0 || *score > 100) {
			out = append(out, Violation{
				Check:  "havf_bounds",
				Detail: fmt.Sprintf("%s %s=%v out of [0,100]", p.PlayerID, name, *score),
			})
		}
	}

	if p.HAVF.CompositeScore != nil {
		if p.HAVF.ChampionReadiness == nil || p.HAVF.CognitiveLeverage == nil || p.HAVF.NILTrustScore == nil {
			out = append(out, Violation{
				Check:  "composite_requires_subscores",
				Detail: p.PlayerID,
			})
		}
	}

	if len(p.Meta.Sources) == 0 {
		out = append(out, Violation{Check: "meta_sources_nonempty", Detail: p.PlayerID})
	}
	if p.Meta.UpdatedAt == "" {
		out = append(out, Violation{Check: "meta_updated_at_present", Detail: p.PlayerID})
	} else if updated, err := time.Parse(time.RFC3339, p.Meta.UpdatedAt); err != nil {
		out = append(out, Violation{Check: "meta_updated_at_parseable", Detail: p.PlayerID})
	} else if p.HAVF.LastComputedAt != "" {
		// updated_at must not predate embedded timestamps. Scoring restamps
		// updated_at alongside last_computed_at, so no slack is needed.
		if computed, err := time.Parse(time.RFC3339, p.HAVF.LastComputedAt); err == nil {
			if computed.After(updated) {
				out = append(out, Violation{
					Check:  "meta_updated_at_ordering",
					Detail: fmt.Sprintf("%s computed %s after updated %s", p.PlayerID, p.HAVF.LastComputedAt, p.Meta.UpdatedAt),
				})
			}
		}
	}
	return out
}
