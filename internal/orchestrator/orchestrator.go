// Package orchestrator sequences a full ingestion run: league agents in
// priority order, the readiness rollup, and the post-run validation suite.
package orchestrator

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/blaze-intelligence/platform/internal/agents"
	"github.com/blaze-intelligence/platform/internal/fetch"
	"github.com/blaze-intelligence/platform/internal/havf"
	"github.com/blaze-intelligence/platform/internal/models"
	"github.com/blaze-intelligence/platform/internal/normalize"
	"github.com/blaze-intelligence/platform/internal/readiness"
	"github.com/blaze-intelligence/platform/internal/services"
	"github.com/blaze-intelligence/platform/internal/store"
	"github.com/blaze-intelligence/platform/internal/teams"
	"github.com/blaze-intelligence/platform/internal/validate"
	"github.com/blaze-intelligence/platform/pkg/config"
)

// DefaultLeagues is the priority order leagues run in.
var DefaultLeagues = []string{"mlb", "nfl", "ncaa", "nba", "hs", "nil", "intl"}

// Options select what a run does. Zero values mean "everything, fixtures
// only".
type Options struct {
	Live          bool
	Leagues       []string
	FocusTeams    []string
	Agent         string
	SkipTests     bool
	SkipReadiness bool
	Season        string
}

// StageResult is one line of the final summary.
type StageResult struct {
	Name     string
	OK       bool
	Reason   string
	Players  int
	Duration time.Duration
}

// RunReport is everything a completed run produced.
type RunReport struct {
	RunID   string
	Stages  []StageResult
	Players int
	Failed  bool
}

// Orchestrator wires the shared services and drives runs.
type Orchestrator struct {
	cfg    *config.Config
	logger *logrus.Logger
	store  *store.Store
	cache  *services.CacheService
	deps   *agents.Deps
	out    io.Writer
}

// New validates options-independent configuration and builds the run
// harness. Errors here are fatal config errors (exit code 2 territory).
func New(cfg *config.Config, logger *logrus.Logger, out io.Writer) (*Orchestrator, error) {
	st, err := store.New(cfg.DataDir, logger)
	if err != nil {
		return nil, fmt.Errorf("open data dir: %w", err)
	}

	cache := services.NewCacheService(cfg.RedisURL, cfg.CacheTTL, logger)
	clientOpts := []fetch.Option{}
	if cache.Enabled() {
		clientOpts = append(clientOpts, fetch.WithCache(cache))
	}
	if cfg.OutboundRateLimit > 0 {
		clientOpts = append(clientOpts, fetch.WithGlobalRate(cfg.OutboundRateLimit, int(cfg.OutboundRateLimit)))
	}
	if cfg.CircuitBreakerThreshold > 0 {
		clientOpts = append(clientOpts, fetch.WithBreakerThreshold(cfg.CircuitBreakerThreshold))
	}

	deps := &agents.Deps{
		Config:     cfg,
		Client:     fetch.NewClient(cfg.ExternalAPITimeout, logger, clientOpts...),
		Fixtures:   fetch.NewFixtures(cfg.FixtureDir, logger),
		Normalizer: normalize.New(logger),
		Engine:     havf.New(logger),
		Store:      st,
		Logger:     logger,
	}
	return &Orchestrator{cfg: cfg, logger: logger, store: st, cache: cache, deps: deps, out: out}, nil
}

// Store exposes the run's store, for the API server.
func (o *Orchestrator) Store() *store.Store { return o.store }

// Cache exposes the payload cache, for the API's ingest trigger.
func (o *Orchestrator) Cache() *services.CacheService { return o.cache }

// resolve turns Options into the concrete league list and focus teams.
// Unknown leagues are a fatal config error.
func (o *Orchestrator) resolve(opts Options) ([]string, []string, error) {
	leagueList := opts.Leagues
	if len(leagueList) == 0 {
		leagueList = DefaultLeagues
	}
	if opts.Agent != "" {
		leagueList = []string{strings.ToLower(opts.Agent)}
	}
	known := make(map[string]bool, len(DefaultLeagues))
	for _, l := range DefaultLeagues {
		known[l] = true
	}
	for _, l := range leagueList {
		if !known[l] {
			return nil, nil, fmt.Errorf("unknown league %q", l)
		}
	}

	focus := opts.FocusTeams
	if len(focus) == 0 {
		focus = o.cfg.FocusTeams
	}
	if len(focus) == 0 {
		focus = teams.DefaultFocusTeams
	}
	return leagueList, focus, nil
}

// Run executes one full ingestion pass. A cancelled context stops between
// stages; completed league files stay on disk.
func (o *Orchestrator) Run(ctx context.Context, opts Options) (*RunReport, error) {
	leagueList, focus, err := o.resolve(opts)
	if err != nil {
		return nil, err
	}

	agentList, err := agents.Registry(leagueList, o.deps)
	if err != nil {
		return nil, err
	}

	report := &RunReport{RunID: uuid.New().String()}
	season := opts.Season
	if season == "" {
		season = fmt.Sprintf("%d", time.Now().Year())
	}
	params := agents.Params{Live: opts.Live, Season: season}

	o.logger.WithFields(logrus.Fields{
		"run_id":  report.RunID,
		"leagues": strings.Join(leagueList, ","),
		"live":    o.cfg.LiveEnabled(opts.Live),
	}).Info("Starting ingestion run")

	var allPlayers []models.Athlete
	for _, agent := range agentList {
		if ctx.Err() != nil {
			report.Stages = append(report.Stages, StageResult{
				Name: agent.League(), OK: false, Reason: "run cancelled",
			})
			report.Failed = true
			continue
		}
		res := agent.Run(ctx, params)
		stage := StageResult{
			Name:     res.League,
			OK:       res.State == agents.StateDone,
			Players:  res.Players,
			Duration: res.Duration,
		}
		if res.Err != nil {
			stage.Reason = res.Err.Error()
			report.Failed = true
		}
		report.Stages = append(report.Stages, stage)
		allPlayers = append(allPlayers, res.Athletes...)
	}
	report.Players = len(allPlayers)

	// Unified output always reflects whatever completed.
	unifiedStage := StageResult{Name: "unified", OK: true}
	if err := o.store.WriteUnified(report.RunID, rosterTeams(allPlayers), allPlayers, time.Now()); err != nil {
		unifiedStage.OK = false
		unifiedStage.Reason = err.Error()
		report.Failed = true
	}
	report.Stages = append(report.Stages, unifiedStage)

	if !opts.SkipReadiness {
		stage := StageResult{Name: "readiness", OK: true}
		agg := readiness.New(focus, o.logger)
		if err := o.store.WriteReadiness(agg.Compute(allPlayers)); err != nil {
			stage.OK = false
			stage.Reason = err.Error()
			report.Failed = true
		}
		report.Stages = append(report.Stages, stage)
	}

	if !opts.SkipTests {
		stage := StageResult{Name: "validation", OK: true}
		violations := validate.New(o.store, o.logger).Run(leagueList)
		if len(violations) > 0 {
			stage.OK = false
			stage.Reason = violations[0].String()
			report.Failed = true
		}
		report.Stages = append(report.Stages, stage)
	}

	o.printSummary(report)
	return report, nil
}

// rosterTeams builds the unified teams block: every team observed in the
// run, with its roster as ordered player id references.
func rosterTeams(players []models.Athlete) []models.Team {
	order := []string{}
	rosters := make(map[string][]string)
	leagues := make(map[string]string)
	for _, p := range players {
		if _, seen := rosters[p.TeamID]; !seen {
			order = append(order, p.TeamID)
		}
		rosters[p.TeamID] = append(rosters[p.TeamID], p.PlayerID)
		leagues[p.TeamID] = p.League
	}

	out := make([]models.Team, 0, len(order))
	for _, teamID := range order {
		parts := strings.SplitN(teamID, "-", 2)
		var team models.Team
		if len(parts) == 2 {
			team = teams.TeamFor(parts[0], parts[1])
		} else {
			team = models.Team{TeamID: teamID, League: leagues[teamID], Sport: leagues[teamID]}
		}
		team.Roster = rosters[teamID]
		out = append(out, team)
	}
	return out
}

// printSummary writes the ✓/✗ block users see at the end of a run.
func (o *Orchestrator) printSummary(report *RunReport) {
	fmt.Fprintf(o.out, "\nRun %s\n", report.RunID)
	fmt.Fprintln(o.out, strings.Repeat("-", 46))
	for _, stage := range report.Stages {
		mark := "✓"
		if !stage.OK {
			mark = "✗"
		}
		line := fmt.Sprintf("%s %-12s", mark, stage.Name)
		if stage.OK && stage.Players > 0 {
			line += fmt.Sprintf(" %4d players", stage.Players)
		}
		if stage.Duration > 0 {
			line += fmt.Sprintf("  (%s)", stage.Duration.Round(time.Millisecond))
		}
		fmt.Fprintln(o.out, line)
		if !stage.OK && stage.Reason != "" {
			fmt.Fprintf(o.out, "    reason: %s\n", stage.Reason)
		}
	}
	fmt.Fprintln(o.out, strings.Repeat("-", 46))
	if report.Failed {
		fmt.Fprintln(o.out, "Result: FAILED")
	} else {
		fmt.Fprintf(o.out, "Result: OK (%d players)\n", report.Players)
	}
}
