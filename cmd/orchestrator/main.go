// The orchestrator binary runs one ingestion pass: league agents in priority
// order, readiness rollup, and the post-run validation suite.
//
//	orchestrator run [--live] [--leagues mlb,nfl,ncaa,nba,hs,nil,intl]
//	    [--focus-teams MLB-STL,NFL-TEN,NCAA-TEX,NBA-MEM]
//	    [--agent <single-agent>] [--skip-tests] [--skip-readiness]
//
// Exit codes: 0 all stages ok, 1 a stage failed, 2 fatal config error.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/blaze-intelligence/platform/internal/orchestrator"
	"github.com/blaze-intelligence/platform/pkg/config"
	"github.com/blaze-intelligence/platform/pkg/logger"
)

const (
	exitOK          = 0
	exitStageFailed = 1
	exitConfigError = 2
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	// Accept an optional leading "run" subcommand.
	if len(args) > 0 && args[0] == "run" {
		args = args[1:]
	}

	fs := flag.NewFlagSet("orchestrator", flag.ContinueOnError)
	live := fs.Bool("live", false, "perform outbound provider requests (also requires LIVE_FETCH=1)")
	leagues := fs.String("leagues", "", "comma-separated league list (default: all)")
	focusTeams := fs.String("focus-teams", "", "comma-separated focus team ids")
	agent := fs.String("agent", "", "run a single league agent")
	season := fs.String("season", "", "season to ingest (default: current year)")
	skipTests := fs.Bool("skip-tests", false, "skip the post-run validation suite")
	skipReadiness := fs.Bool("skip-readiness", false, "skip the readiness rollup")
	if err := fs.Parse(args); err != nil {
		return exitConfigError
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		return exitConfigError
	}
	log := logger.InitLogger("", cfg.IsDevelopment())

	orch, err := orchestrator.New(cfg, log, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		return exitConfigError
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := orchestrator.Options{
		Live:          *live,
		Leagues:       splitList(*leagues),
		FocusTeams:    splitUpper(*focusTeams),
		Agent:         *agent,
		Season:        *season,
		SkipTests:     *skipTests,
		SkipReadiness: *skipReadiness,
	}

	report, err := orch.Run(ctx, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		return exitConfigError
	}
	if report.Failed {
		return exitStageFailed
	}
	return exitOK
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, strings.ToLower(trimmed))
		}
	}
	return out
}

// splitUpper keeps team ids in their canonical uppercase form.
func splitUpper(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, strings.ToUpper(trimmed))
		}
	}
	return out
}
