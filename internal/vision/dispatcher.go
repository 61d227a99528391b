package vision

import (
	"context"
	"errors"
	"fmt"
	"net"
	"runtime"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/blaze-intelligence/platform/internal/models"
)

// ErrBackpressure is returned when every worker queue is at capacity.
var ErrBackpressure = errors.New("vision: all worker queues full")

// queueDepth bounds each worker's pending frames.
const queueDepth = 8

// Launcher starts one worker and reports its dialable address. The returned
// stop function force-terminates the worker; the dispatcher prefers the
// graceful shutdown command and uses stop as the backstop.
type Launcher interface {
	Launch(ctx context.Context, workerID int) (addr string, stop func(), err error)
}

// InProcessLauncher runs workers as goroutines inside this process. Used by
// tests and by single-binary deployments.
type InProcessLauncher struct {
	ModelPath string
	Logger    *logrus.Logger
}

// Launch starts an in-process worker on an ephemeral loopback port.
func (l *InProcessLauncher) Launch(ctx context.Context, workerID int) (string, func(), error) {
	w := NewWorker(workerID, l.ModelPath, l.Logger)
	if err := w.Listen("127.0.0.1:0"); err != nil {
		return "", nil, err
	}
	go func() {
		if err := w.Run(ctx); err != nil {
			l.Logger.WithError(err).WithField("worker_id", workerID).Error("Vision worker exited")
		}
	}()
	return w.Addr(), w.Stop, nil
}

type job struct {
	req    Request
	result chan jobResult
}

type jobResult struct {
	resp Response
	err  error
}

// workerClient owns one connection to a worker plus its bounded queue. The
// single loop goroutine serializes requests, preserving per-worker ordering.
type workerClient struct {
	id   int
	conn net.Conn
	jobs chan job
	stop func()
	done chan struct{}
}

func (c *workerClient) loop() {
	defer close(c.done)
	for j := range c.jobs {
		var res jobResult
		if err := WriteMessage(c.conn, j.req); err != nil {
			res.err = fmt.Errorf("worker %d send: %w", c.id, err)
		} else if err := ReadMessage(c.conn, &res.resp); err != nil {
			res.err = fmt.Errorf("worker %d recv: %w", c.id, err)
		}
		j.result <- res
	}
}

// PoolStatus aggregates every worker's counters.
type PoolStatus struct {
	Workers        []models.WorkerStats `json:"workers"`
	FramesTotal    int64                `json:"frames_total"`
	ComplianceRate float64              `json:"compliance_rate"`
	DegradedCount  int                  `json:"degraded_count"`
}

// Dispatcher owns the worker pool and assigns frames round-robin. Cross
// worker ordering is not guaranteed; per-worker ordering is.
type Dispatcher struct {
	logger  *logrus.Logger
	workers []*workerClient

	mu   sync.Mutex
	next int
}

// DefaultWorkerCount is the pool size when none is configured.
func DefaultWorkerCount() int { return runtime.NumCPU() }

// NewDispatcher launches n workers (default CPU count when n <= 0) and
// connects to each.
func NewDispatcher(ctx context.Context, n int, launcher Launcher, logger *logrus.Logger) (*Dispatcher, error) {
	if n <= 0 {
		n = DefaultWorkerCount()
	}
	d := &Dispatcher{logger: logger}

	for i := 0; i < n; i++ {
		addr, stop, err := launcher.Launch(ctx, i)
		if err != nil {
			d.Shutdown(context.Background())
			return nil, fmt.Errorf("launch worker %d: %w", i, err)
		}
		conn, err := dialWithRetry(ctx, addr)
		if err != nil {
			stop()
			d.Shutdown(context.Background())
			return nil, fmt.Errorf("connect worker %d: %w", i, err)
		}
		client := &workerClient{
			id:   i,
			conn: conn,
			jobs: make(chan job, queueDepth),
			stop: stop,
			done: make(chan struct{}),
		}
		go client.loop()
		d.workers = append(d.workers, client)
	}
	logger.WithField("workers", n).Info("Vision dispatcher ready")
	return d, nil
}

func dialWithRetry(ctx context.Context, addr string) (net.Conn, error) {
	var lastErr error
	for attempt := 0; attempt < 20; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		conn, err := net.DialTimeout("tcp", addr, time.Second)
		if err == nil {
			return conn, nil
		}
		lastErr = err
		time.Sleep(50 * time.Millisecond)
	}
	return nil, lastErr
}

// Infer submits one frame. Assignment starts at the round-robin cursor and
// falls through to the next worker with queue room; when every queue is full
// the call fails fast with ErrBackpressure.
func (d *Dispatcher) Infer(ctx context.Context, frameData string, opts InferOptions) (*models.DetectionFrame, error) {
	j := job{
		req:    Request{Command: CommandInference, FrameData: frameData, Options: opts},
		result: make(chan jobResult, 1),
	}
	if err := d.enqueue(j); err != nil {
		return nil, err
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-j.result:
		if res.err != nil {
			return nil, res.err
		}
		if res.resp.Frame == nil {
			return nil, fmt.Errorf("worker %d returned no frame", res.resp.WorkerID)
		}
		return res.resp.Frame, nil
	}
}

func (d *Dispatcher) enqueue(j job) error {
	d.mu.Lock()
	start := d.next
	d.next = (d.next + 1) % len(d.workers)
	d.mu.Unlock()

	for i := 0; i < len(d.workers); i++ {
		client := d.workers[(start+i)%len(d.workers)]
		select {
		case client.jobs <- j:
			return nil
		default:
		}
	}
	return ErrBackpressure
}

// Status queries every worker's counters over its normal queue.
func (d *Dispatcher) Status(ctx context.Context) (PoolStatus, error) {
	var status PoolStatus
	var compliant int64
	for _, client := range d.workers {
		j := job{req: Request{Command: CommandStatus}, result: make(chan jobResult, 1)}
		select {
		case client.jobs <- j:
		case <-ctx.Done():
			return status, ctx.Err()
		}
		select {
		case <-ctx.Done():
			return status, ctx.Err()
		case res := <-j.result:
			if res.err != nil {
				return status, res.err
			}
			if res.resp.Stats == nil {
				continue
			}
			stats := *res.resp.Stats
			status.Workers = append(status.Workers, stats)
			status.FramesTotal += stats.FramesTotal
			compliant += stats.CompliantTotal
			if stats.Degraded {
				status.DegradedCount++
			}
		}
	}
	if status.FramesTotal > 0 {
		status.ComplianceRate = float64(compliant) / float64(status.FramesTotal)
	}
	return status, nil
}

// Shutdown asks each worker to finish its in-flight frame and exit, then
// tears down connections. The force-stop backstop runs regardless.
func (d *Dispatcher) Shutdown(ctx context.Context) {
	for _, client := range d.workers {
		j := job{req: Request{Command: CommandShutdown}, result: make(chan jobResult, 1)}
		select {
		case client.jobs <- j:
			select {
			case <-j.result:
			case <-ctx.Done():
			case <-time.After(5 * time.Second):
			}
		default:
			d.logger.WithField("worker_id", client.id).Warn("Queue full during shutdown, forcing stop")
		}
		close(client.jobs)
		<-client.done
		client.conn.Close()
		if client.stop != nil {
			client.stop()
		}
	}
	d.logger.Info("Vision dispatcher stopped")
}
