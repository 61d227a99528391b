// Package agents runs the per-league ingestion pipelines. Each agent is a
// small state machine around a provider-specific Source; failures are
// reported to the orchestrator, never fatal to the run.
package agents

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/blaze-intelligence/platform/internal/fetch"
	"github.com/blaze-intelligence/platform/internal/havf"
	"github.com/blaze-intelligence/platform/internal/models"
	"github.com/blaze-intelligence/platform/internal/normalize"
	"github.com/blaze-intelligence/platform/internal/store"
	"github.com/blaze-intelligence/platform/pkg/config"
)

// Agent lifecycle states.
type State string

const (
	StateIdle        State = "idle"
	StateFetching    State = "fetching"
	StateNormalizing State = "normalizing"
	StateScoring     State = "scoring"
	StateWriting     State = "writing"
	StateDone        State = "done"
	StateFailed      State = "failed"
)

// Params are the orchestrator's per-run inputs to an agent.
type Params struct {
	Live   bool
	Season string
}

// Result is what an agent reports back.
type Result struct {
	League   string
	State    State
	Players  int
	Dropped  int
	Athletes []models.Athlete
	Err      error
	Duration time.Duration
}

// Source is the provider-specific half of an agent: it knows where the data
// lives and how to flatten the provider's shape into raw records.
type Source interface {
	// League is the canonical key used for fixture and output file names.
	League() string
	// Provider names the credentialed provider for rate limiting and
	// credential lookup.
	Provider() string
	// FetchLive pulls the live payload.
	FetchLive(ctx context.Context, deps *Deps, params Params) ([]byte, error)
	// Parse flattens a payload (live or fixture) into raw records.
	Parse(payload []byte) ([]normalize.RawRecord, error)
}

// Deps are the shared services an agent runs against.
type Deps struct {
	Config     *config.Config
	Client     *fetch.Client
	Fixtures   *fetch.Fixtures
	Normalizer *normalize.Normalizer
	Engine     *havf.Engine
	Store      *store.Store
	Logger     *logrus.Logger
}

// Agent drives one Source through the pipeline.
type Agent struct {
	source Source
	deps   *Deps
	state  State
}

// New binds a source to its dependencies.
func New(source Source, deps *Deps) *Agent {
	return &Agent{source: source, deps: deps, state: StateIdle}
}

// State reports the agent's current lifecycle state.
func (a *Agent) State() State { return a.state }

// League names the agent's league.
func (a *Agent) League() string { return a.source.League() }

// Run executes idle through done. Any error lands in failed with the cause
// in the result; the orchestrator decides what that means for the run.
func (a *Agent) Run(ctx context.Context, params Params) Result {
	start := time.Now()
	league := a.source.League()
	log := a.deps.Logger.WithFields(logrus.Fields{
		"league": league,
		"agent":  a.source.Provider(),
	})
	res := Result{League: league}

	fail := func(err error) Result {
		a.state = StateFailed
		res.State = StateFailed
		res.Err = err
		res.Duration = time.Since(start)
		log.WithError(err).Error("Agent failed")
		return res
	}

	a.state = StateFetching
	payload, live, err := a.fetchPayload(ctx, params, log)
	if err != nil {
		return fail(err)
	}
	if payload == nil {
		// No fixture for this league: zero players, run continues.
		a.state = StateDone
		res.State = StateDone
		res.Duration = time.Since(start)
		log.Info("No payload, reporting zero players")
		return res
	}

	a.state = StateNormalizing
	raws, err := a.source.Parse(payload)
	if err != nil {
		return fail(&fetch.Error{Kind: fetch.KindMalformedResponse, Provider: a.source.Provider(), Err: err})
	}
	batch := a.deps.Normalizer.Batch(raws)
	res.Dropped = len(batch.Dropped)

	a.state = StateScoring
	a.deps.Engine.ScoreAll(batch.Athletes)

	a.state = StateWriting
	if err := a.deps.Store.WriteLeague(league, batch.Athletes, time.Now()); err != nil {
		return fail(err)
	}

	a.state = StateDone
	res.State = StateDone
	res.Players = len(batch.Athletes)
	res.Athletes = batch.Athletes
	res.Duration = time.Since(start)
	log.WithFields(logrus.Fields{
		"players": res.Players,
		"dropped": res.Dropped,
		"live":    live,
	}).Info("Agent completed")
	return res
}

// fetchPayload decides live versus fixture. Live requires the flag, the env
// opt-in, and a non-empty credential; anything less falls back to fixtures.
func (a *Agent) fetchPayload(ctx context.Context, params Params, log *logrus.Entry) ([]byte, bool, error) {
	provider := a.source.Provider()
	if a.deps.Config.LiveEnabled(params.Live) && a.deps.Config.CredentialFor(provider) != "" {
		payload, err := a.source.FetchLive(ctx, a.deps, params)
		if err != nil {
			return nil, true, err
		}
		return payload, true, nil
	}

	log.Debug("Live fetch disabled, loading fixture")
	payload, ok := a.deps.Fixtures.Load(a.source.League())
	if !ok {
		return nil, false, nil
	}
	return payload, false, nil
}

// Registry builds the full agent set in priority order for a league list.
// Unknown league keys are a config error.
func Registry(leagues []string, deps *Deps) ([]*Agent, error) {
	sources := map[string]Source{
		"mlb":  &MLBSource{},
		"nfl":  &NFLSource{},
		"ncaa": &NCAASource{},
		"nba":  &NBASource{},
		"hs":   &HSSource{},
		"nil":  &NILSource{},
		"intl": &IntlSource{},
	}
	var out []*Agent
	for _, key := range leagues {
		src, ok := sources[key]
		if !ok {
			return nil, fmt.Errorf("unknown league %q", key)
		}
		out = append(out, New(src, deps))
	}
	return out, nil
}
