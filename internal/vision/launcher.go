package vision

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"

	"github.com/sirupsen/logrus"
)

// ProcessLauncher spawns workers as separate OS processes running the
// visionworker binary. Worker i listens on BasePort+i.
type ProcessLauncher struct {
	Binary    string
	BasePort  int
	ModelPath string
	Logger    *logrus.Logger
}

// Launch starts one worker process.
func (l *ProcessLauncher) Launch(ctx context.Context, workerID int) (string, func(), error) {
	port := l.BasePort + workerID
	args := []string{
		"--id", strconv.Itoa(workerID),
		"--port", strconv.Itoa(port),
	}
	if l.ModelPath != "" {
		args = append(args, "--model", l.ModelPath)
	}

	cmd := exec.CommandContext(ctx, l.Binary, args...)
	if err := cmd.Start(); err != nil {
		return "", nil, fmt.Errorf("start worker process: %w", err)
	}
	l.Logger.WithFields(logrus.Fields{
		"worker_id": workerID,
		"pid":       cmd.Process.Pid,
		"port":      port,
	}).Info("Spawned vision worker process")

	// The dispatcher always calls stop, which reaps the process.
	stop := func() {
		if cmd.Process != nil {
			cmd.Process.Kill()
		}
		cmd.Wait()
	}

	return fmt.Sprintf("127.0.0.1:%d", port), stop, nil
}
