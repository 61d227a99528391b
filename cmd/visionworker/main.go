// The visionworker binary runs one single-threaded inference worker serving
// length-prefixed JSON over TCP loopback. The dispatcher spawns one process
// per pool slot.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/blaze-intelligence/platform/internal/vision"
	"github.com/blaze-intelligence/platform/pkg/logger"
)

func main() {
	id := flag.Int("id", 0, "worker id")
	port := flag.Int("port", 5555, "loopback port to listen on")
	model := flag.String("model", "", "path to the detection model artifact")
	flag.Parse()

	log := logger.InitLogger("", false)

	worker := vision.NewWorker(*id, *model, log)
	if err := worker.Listen(fmt.Sprintf("127.0.0.1:%d", *port)); err != nil {
		log.WithError(err).Fatal("Failed to bind worker port")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := worker.Run(ctx); err != nil {
		log.WithError(err).Error("Worker exited with error")
		os.Exit(1)
	}
}
