package models

// ChampionshipLatencyMs is the per-frame latency target for vision inference.
const ChampionshipLatencyMs = 33.0

// Detection is one detected object within a frame. Bbox is [x1, y1, x2, y2]
// in source-frame pixel coordinates.
type Detection struct {
	Class      string     `json:"class"`
	Confidence float64    `json:"confidence"`
	Bbox       [4]float64 `json:"bbox"`
	ClassID    int        `json:"class_id"`
}

// DetectionFrame is the result of one inference call.
type DetectionFrame struct {
	TimestampMs           int64                  `json:"timestamp_ms"`
	WorkerID              int                    `json:"worker_id"`
	Sport                 string                 `json:"sport"`
	Detections            []Detection            `json:"detections"`
	LatencyMs             float64                `json:"latency_ms"`
	ChampionshipCompliant bool                   `json:"championship_compliant"`
	Analysis              map[string]interface{} `json:"analysis,omitempty"`
	Error                 string                 `json:"error,omitempty"`
}

// WorkerStats are a vision worker's running counters, reported through the
// status command and never shared as memory.
type WorkerStats struct {
	WorkerID       int     `json:"worker_id"`
	FramesTotal    int64   `json:"frames_total"`
	TotalLatencyMs float64 `json:"total_latency_ms"`
	AvgLatencyMs   float64 `json:"avg_latency_ms"`
	PeakLatencyMs  float64 `json:"peak_latency_ms"`
	CompliantTotal int64   `json:"compliant_total"`
	ComplianceRate float64 `json:"compliance_rate"`
	Degraded       bool    `json:"degraded"`
	UptimeSeconds  int64   `json:"uptime_seconds"`
}
