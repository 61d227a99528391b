package vision

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/blaze-intelligence/platform/internal/models"
)

// detectorBackend is what actually produces raw detections for a decoded
// frame.
type detectorBackend interface {
	Name() string
	Detect(img image.Image, opts InferOptions) []models.Detection
}

// sportWhitelists restrict emitted classes per sport. Unlisted sports pass
// everything through.
var sportWhitelists = map[string]map[string]bool{
	"football":   {"person": true, "sports ball": true},
	"baseball":   {"person": true, "sports ball": true, "baseball bat": true},
	"basketball": {"person": true, "sports ball": true},
}

// Detector wraps the backend with decoding, thresholding, whitelisting, and
// sport post-analysis. One Detector per worker process.
type Detector struct {
	backend  detectorBackend
	degraded bool
	logger   *logrus.Logger
}

// NewDetector tries to load a real model from modelPath. When the model is
// missing or no inference runtime is available the functional fallback takes
// over permanently; the degradation is logged once here.
func NewDetector(modelPath string, logger *logrus.Logger) *Detector {
	d := &Detector{logger: logger}
	if err := d.loadModel(modelPath); err != nil {
		logger.WithError(err).WithField("model", modelPath).
			Warn("Model unavailable, edge-density fallback active for this worker")
		d.backend = fallbackDetector{}
		d.degraded = true
	}
	return d
}

// loadModel verifies the model artifact. A native inference runtime is not
// linked into this binary, so even a present artifact degrades to the
// fallback; the check distinguishes "missing" from "present but unusable" in
// the log line.
func (d *Detector) loadModel(modelPath string) error {
	if modelPath == "" {
		return fmt.Errorf("no model path configured")
	}
	info, err := os.Stat(modelPath)
	if err != nil {
		return fmt.Errorf("model artifact: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("model artifact is empty")
	}
	return fmt.Errorf("no inference runtime linked for %s", modelPath)
}

// Degraded reports whether the fallback is serving this worker.
func (d *Detector) Degraded() bool { return d.degraded }

// BackendName names the active backend for status reporting.
func (d *Detector) BackendName() string { return d.backend.Name() }

// DecodeFrame accepts raw base64 or a base64 data-URL and decodes the image.
func DecodeFrame(frameData string) (image.Image, error) {
	payload := frameData
	if strings.HasPrefix(payload, "data:") {
		idx := strings.Index(payload, ",")
		if idx < 0 {
			return nil, fmt.Errorf("malformed data-url")
		}
		payload = payload[idx+1:]
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("frame is not base64: %w", err)
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	return img, nil
}

// Detect runs the backend and applies threshold, whitelist, and analysis.
func (d *Detector) Detect(img image.Image, opts InferOptions) ([]models.Detection, map[string]interface{}) {
	detections := d.backend.Detect(img, opts)

	threshold := opts.ConfidenceThreshold
	filtered := detections[:0]
	whitelist := sportWhitelists[strings.ToLower(opts.Sport)]
	for _, det := range detections {
		if det.Confidence < threshold {
			continue
		}
		if whitelist != nil && !whitelist[det.Class] {
			continue
		}
		filtered = append(filtered, det)
	}
	return filtered, analyze(filtered, opts.Sport)
}

// analyze derives the sport-specific post-analysis block: player count,
// ball-in-play flag, and a crude formation read for football.
func analyze(detections []models.Detection, sport string) map[string]interface{} {
	var players int
	ballInPlay := false
	var personXs []float64
	for _, det := range detections {
		switch det.Class {
		case "person":
			players++
			personXs = append(personXs, (det.Bbox[0]+det.Bbox[2])/2)
		case "sports ball":
			ballInPlay = true
		}
	}

	analysis := map[string]interface{}{
		"player_count": players,
		"ball_in_play": ballInPlay,
	}
	if strings.ToLower(sport) == "football" && players > 0 {
		minX, maxX := personXs[0], personXs[0]
		for _, x := range personXs {
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
		}
		formation := "tight"
		if players >= 4 && maxX-minX > 300 {
			formation = "spread"
		}
		analysis["formation"] = formation
	}
	return analysis
}
