// Package vision implements the per-frame object detection path: the worker
// process, its loopback wire protocol, and the dispatcher that owns a pool of
// workers.
package vision

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"github.com/blaze-intelligence/platform/internal/models"
)

// maxMessageBytes bounds a single framed message. Frames are small JPEG
// stills, far under this.
const maxMessageBytes = 64 << 20

// Commands understood by a worker.
const (
	CommandInference = "inference"
	CommandStatus    = "status"
	CommandShutdown  = "shutdown"
)

// InferOptions tune one inference call.
type InferOptions struct {
	Sport               string  `json:"sport,omitempty"`
	ConfidenceThreshold float64 `json:"confidence_threshold,omitempty"`
	ChampionshipLevel   bool    `json:"championship_level,omitempty"`
}

// Request is one framed command to a worker. FrameData is base64 or a
// base64 data-URL.
type Request struct {
	Command   string       `json:"command"`
	FrameData string       `json:"frame_data,omitempty"`
	Options   InferOptions `json:"options,omitempty"`
}

// Response is the worker's reply. Frame is set for inference, Stats for
// status.
type Response struct {
	WorkerID         int                    `json:"worker_id"`
	Success          bool                   `json:"success"`
	ProcessingTimeMs float64                `json:"processing_time_ms"`
	Frame            *models.DetectionFrame `json:"frame,omitempty"`
	Stats            *models.WorkerStats    `json:"stats,omitempty"`
	Error            string                 `json:"error,omitempty"`
}

// WriteMessage frames v as length-prefixed JSON: 4-byte big-endian length,
// then the payload.
func WriteMessage(w io.Writer, v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(payload)))
	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("write payload: %w", err)
	}
	return nil
}

// ReadMessage reads one framed message and decodes it into v.
func ReadMessage(r io.Reader, v interface{}) error {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return err
	}
	size := binary.BigEndian.Uint32(header[:])
	if size > maxMessageBytes {
		return fmt.Errorf("message of %d bytes exceeds limit", size)
	}
	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return fmt.Errorf("read payload: %w", err)
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("decode message: %w", err)
	}
	return nil
}
