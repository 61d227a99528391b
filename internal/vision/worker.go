package vision

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/blaze-intelligence/platform/internal/models"
)

// Worker is one single-threaded inference server on TCP loopback. Requests
// on a connection are handled strictly in order, so per-worker frame ordering
// is preserved.
type Worker struct {
	id       int
	detector *Detector
	logger   *logrus.Entry

	listener net.Listener
	started  time.Time

	mu    sync.Mutex
	stats models.WorkerStats

	shutdown chan struct{}
	once     sync.Once
}

// NewWorker builds a worker. The model load attempt happens here; a failed
// load degrades the worker to the fallback permanently.
func NewWorker(id int, modelPath string, logger *logrus.Logger) *Worker {
	entry := logger.WithField("worker_id", id)
	w := &Worker{
		id:       id,
		detector: NewDetector(modelPath, logger),
		logger:   entry,
		shutdown: make(chan struct{}),
	}
	w.stats.WorkerID = id
	w.stats.Degraded = w.detector.Degraded()
	return w
}

// Listen binds the worker to an address ("127.0.0.1:0" for an ephemeral
// port) without starting the serve loop.
func (w *Worker) Listen(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("worker %d listen: %w", w.id, err)
	}
	w.listener = ln
	w.started = time.Now()
	w.logger.WithField("addr", ln.Addr().String()).Info("Vision worker listening")
	return nil
}

// Addr returns the bound address. Valid after Listen.
func (w *Worker) Addr() string {
	if w.listener == nil {
		return ""
	}
	return w.listener.Addr().String()
}

// Run serves until a shutdown command arrives or the context is cancelled.
// Connections are served one at a time; the worker is single-threaded by
// contract.
func (w *Worker) Run(ctx context.Context) error {
	if w.listener == nil {
		return fmt.Errorf("worker %d: Run before Listen", w.id)
	}
	go func() {
		select {
		case <-ctx.Done():
		case <-w.shutdown:
		}
		w.listener.Close()
	}()

	for {
		conn, err := w.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			case <-w.shutdown:
				return nil
			default:
				return fmt.Errorf("worker %d accept: %w", w.id, err)
			}
		}
		w.serveConn(conn)
		select {
		case <-w.shutdown:
			return nil
		default:
		}
	}
}

// Stop requests shutdown out of band.
func (w *Worker) Stop() {
	w.once.Do(func() { close(w.shutdown) })
}

func (w *Worker) serveConn(conn net.Conn) {
	defer conn.Close()
	for {
		var req Request
		if err := ReadMessage(conn, &req); err != nil {
			if !errors.Is(err, net.ErrClosed) {
				w.logger.WithError(err).Debug("Connection closed")
			}
			return
		}

		resp := w.handle(req)
		if err := WriteMessage(conn, resp); err != nil {
			w.logger.WithError(err).Warn("Failed to write response")
			return
		}
		if req.Command == CommandShutdown {
			w.Stop()
			return
		}
	}
}

func (w *Worker) handle(req Request) Response {
	start := time.Now()
	switch req.Command {
	case CommandInference:
		return w.infer(req, start)
	case CommandStatus:
		stats := w.snapshot()
		return Response{
			WorkerID:         w.id,
			Success:          true,
			ProcessingTimeMs: msSince(start),
			Stats:            &stats,
		}
	case CommandShutdown:
		w.logger.Info("Shutdown command received")
		return Response{WorkerID: w.id, Success: true, ProcessingTimeMs: msSince(start)}
	default:
		return Response{
			WorkerID:         w.id,
			Success:          false,
			ProcessingTimeMs: msSince(start),
			Error:            fmt.Sprintf("unknown command %q", req.Command),
		}
	}
}

// infer runs one frame. Any per-frame failure, decode included, produces an
// empty detection set and keeps the worker alive.
func (w *Worker) infer(req Request, start time.Time) (resp Response) {
	frame := &models.DetectionFrame{
		TimestampMs: start.UnixMilli(),
		WorkerID:    w.id,
		Sport:       req.Options.Sport,
		Detections:  []models.Detection{},
	}

	defer func() {
		if r := recover(); r != nil {
			w.logger.WithField("panic", r).Error("Recovered inference panic")
			frame.Detections = []models.Detection{}
			frame.Error = fmt.Sprintf("inference panic: %v", r)
			resp = w.finishFrame(frame, start, false)
		}
	}()

	img, err := DecodeFrame(req.FrameData)
	if err != nil {
		frame.Error = err.Error()
		return w.finishFrame(frame, start, false)
	}

	detections, analysis := w.detector.Detect(img, req.Options)
	frame.Detections = detections
	frame.Analysis = analysis
	return w.finishFrame(frame, start, true)
}

func (w *Worker) finishFrame(frame *models.DetectionFrame, start time.Time, ok bool) Response {
	latency := msSince(start)
	frame.LatencyMs = latency
	frame.ChampionshipCompliant = latency <= models.ChampionshipLatencyMs

	w.mu.Lock()
	w.stats.FramesTotal++
	w.stats.TotalLatencyMs += latency
	if latency > w.stats.PeakLatencyMs {
		w.stats.PeakLatencyMs = latency
	}
	if frame.ChampionshipCompliant {
		w.stats.CompliantTotal++
	}
	w.mu.Unlock()

	return Response{
		WorkerID:         w.id,
		Success:          ok,
		ProcessingTimeMs: latency,
		Frame:            frame,
		Error:            frame.Error,
	}
}

func (w *Worker) snapshot() models.WorkerStats {
	w.mu.Lock()
	stats := w.stats
	w.mu.Unlock()
	if stats.FramesTotal > 0 {
		stats.AvgLatencyMs = stats.TotalLatencyMs / float64(stats.FramesTotal)
		stats.ComplianceRate = float64(stats.CompliantTotal) / float64(stats.FramesTotal)
	}
	stats.UptimeSeconds = int64(time.Since(w.started).Seconds())
	return stats
}

func msSince(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}
