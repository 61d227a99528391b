package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"io"
	"math/rand"
	"net"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// noisyFrame renders a deterministic high-variance image and returns it
// base64-encoded, the way clients submit frames.
func noisyFrame(t *testing.T, size int) string {
	t.Helper()
	rng := rand.New(rand.NewSource(42))
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8(rng.Intn(256)),
				G: uint8(rng.Intn(256)),
				B: uint8(rng.Intn(256)),
				A: 255,
			})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestProtocolRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	in := Request{Command: CommandInference, FrameData: "abc", Options: InferOptions{Sport: "baseball"}}
	require.NoError(t, WriteMessage(&buf, in))

	// 4-byte big-endian length header precedes the payload.
	header := buf.Bytes()[:4]
	assert.Equal(t, buf.Len()-4, int(uint32(header[0])<<24|uint32(header[1])<<16|uint32(header[2])<<8|uint32(header[3])))

	var out Request
	require.NoError(t, ReadMessage(&buf, &out))
	assert.Equal(t, in, out)
}

func TestFallbackNeverEmpty(t *testing.T) {
	fb := fallbackDetector{}

	noise := image.NewRGBA(image.Rect(0, 0, 128, 128))
	rng := rand.New(rand.NewSource(7))
	for y := 0; y < 128; y++ {
		for x := 0; x < 128; x++ {
			noise.Set(x, y, color.RGBA{uint8(rng.Intn(256)), uint8(rng.Intn(256)), uint8(rng.Intn(256)), 255})
		}
	}
	dets := fb.Detect(noise, InferOptions{})
	assert.NotEmpty(t, dets)
	assert.LessOrEqual(t, len(dets), fallbackMaxResults)

	// A flat image still yields the full-frame detection.
	flat := image.NewRGBA(image.Rect(0, 0, 64, 64))
	dets = fb.Detect(flat, InferOptions{})
	require.Len(t, dets, 1)
	assert.Equal(t, "person", dets[0].Class)

	tiny := image.NewRGBA(image.Rect(0, 0, 2, 2))
	assert.NotEmpty(t, fb.Detect(tiny, InferOptions{}))
}

func TestDetectorDegradesWithoutModel(t *testing.T) {
	d := NewDetector("", testLogger())
	assert.True(t, d.Degraded())
	assert.Equal(t, "edge-density-fallback", d.BackendName())
}

func TestSportWhitelist(t *testing.T) {
	d := NewDetector("", testLogger())
	img, err := DecodeFrame(noisyFrame(t, 128))
	require.NoError(t, err)

	dets, analysis := d.Detect(img, InferOptions{Sport: "football"})
	for _, det := range dets {
		assert.Contains(t, []string{"person", "sports ball"}, det.Class)
	}
	assert.Contains(t, analysis, "player_count")
	assert.Contains(t, analysis, "ball_in_play")
}

func TestDecodeFrameDataURL(t *testing.T) {
	frame := noisyFrame(t, 16)
	_, err := DecodeFrame("data:image/png;base64," + frame)
	require.NoError(t, err)

	_, err = DecodeFrame("not base64 at all!!!")
	assert.Error(t, err)
}

func startWorker(t *testing.T) (*Worker, net.Conn) {
	t.Helper()
	w := NewWorker(1, "", testLogger())
	require.NoError(t, w.Listen("127.0.0.1:0"))
	go w.Run(context.Background())
	t.Cleanup(w.Stop)

	conn, err := net.DialTimeout("tcp", w.Addr(), time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return w, conn
}

func roundTrip(t *testing.T, conn net.Conn, req Request) Response {
	t.Helper()
	require.NoError(t, WriteMessage(conn, req))
	var resp Response
	require.NoError(t, ReadMessage(conn, &resp))
	return resp
}

func TestWorkerInference(t *testing.T) {
	_, conn := startWorker(t)

	resp := roundTrip(t, conn, Request{
		Command:   CommandInference,
		FrameData: noisyFrame(t, 128),
		Options:   InferOptions{Sport: "baseball"},
	})
	require.True(t, resp.Success)
	require.NotNil(t, resp.Frame)
	assert.Equal(t, 1, resp.Frame.WorkerID)
	assert.NotEmpty(t, resp.Frame.Detections)
	assert.Greater(t, resp.Frame.LatencyMs, 0.0)
	assert.Equal(t, resp.Frame.LatencyMs <= 33, resp.Frame.ChampionshipCompliant)
}

func TestWorkerSurvivesBadFrame(t *testing.T) {
	_, conn := startWorker(t)

	resp := roundTrip(t, conn, Request{Command: CommandInference, FrameData: "!!garbage!!"})
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Frame)
	assert.Empty(t, resp.Frame.Detections)
	assert.NotEmpty(t, resp.Frame.Error)

	// Worker must stay alive for the next frame.
	resp = roundTrip(t, conn, Request{Command: CommandInference, FrameData: noisyFrame(t, 64)})
	assert.True(t, resp.Success)
}

func TestWorkerStatusCounters(t *testing.T) {
	_, conn := startWorker(t)

	frame := noisyFrame(t, 64)
	for i := 0; i < 3; i++ {
		roundTrip(t, conn, Request{Command: CommandInference, FrameData: frame})
	}

	resp := roundTrip(t, conn, Request{Command: CommandStatus})
	require.True(t, resp.Success)
	require.NotNil(t, resp.Stats)
	assert.Equal(t, int64(3), resp.Stats.FramesTotal)
	assert.True(t, resp.Stats.Degraded)
	assert.Greater(t, resp.Stats.AvgLatencyMs, 0.0)
}

func TestDispatcherPool(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	launcher := &InProcessLauncher{Logger: testLogger()}
	d, err := NewDispatcher(ctx, 2, launcher, testLogger())
	require.NoError(t, err)
	defer d.Shutdown(context.Background())

	frame := noisyFrame(t, 64)
	for i := 0; i < 6; i++ {
		result, err := d.Infer(ctx, frame, InferOptions{Sport: "basketball"})
		require.NoError(t, err)
		assert.NotEmpty(t, result.Detections)
	}

	status, err := d.Status(ctx)
	require.NoError(t, err)
	assert.Len(t, status.Workers, 2)
	assert.Equal(t, int64(6), status.FramesTotal)
	assert.Equal(t, 2, status.DegradedCount)
}

func TestDispatcherBackpressure(t *testing.T) {
	// Two stalled clients with saturated queues and no serving loop.
	var clients []*workerClient
	for i := 0; i < 2; i++ {
		c := &workerClient{id: i, jobs: make(chan job, queueDepth)}
		for len(c.jobs) < queueDepth {
			c.jobs <- job{}
		}
		clients = append(clients, c)
	}
	d := &Dispatcher{logger: testLogger(), workers: clients}

	err := d.enqueue(job{result: make(chan jobResult, 1)})
	assert.ErrorIs(t, err, ErrBackpressure)
}
