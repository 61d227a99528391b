// Package store persists run artifacts as JSON files. All writes are atomic:
// temp file in the destination directory, fsync, rename.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/blaze-intelligence/platform/internal/models"
)

// UnifiedVersion tags the unified output schema.
const UnifiedVersion = "2.0"

// LeagueFile is the per-league envelope at leagues/<league>.json.
type LeagueFile struct {
	League      string           `json:"league"`
	GeneratedAt string           `json:"generated_at"`
	Players     []models.Athlete `json:"players"`
}

// UnifiedFile is the run-level envelope at unified/unified_data_latest.json.
type UnifiedFile struct {
	Version     string           `json:"version"`
	RunID       string           `json:"run_id,omitempty"`
	GeneratedAt string           `json:"generated_at"`
	Teams       []models.Team    `json:"teams"`
	Players     []models.Athlete `json:"players"`
}

// Store writes artifacts under a single data directory. One Store instance is
// the single writer for a run.
type Store struct {
	dir    string
	logger *logrus.Logger
}

// New roots a Store at dir, creating the layout if needed.
func New(dir string, logger *logrus.Logger) (*Store, error) {
	for _, sub := range []string{"", "leagues", "unified"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	return &Store{dir: dir, logger: logger}, nil
}

// Dir returns the data root.
func (s *Store) Dir() string { return s.dir }

// WriteLeague persists one league's players.
func (s *Store) WriteLeague(league string, players []models.Athlete, generatedAt time.Time) error {
	name := strings.ToLower(league) + ".json"
	file := LeagueFile{
		League:      strings.ToUpper(league),
		GeneratedAt: models.ISOTime(generatedAt),
		Players:     players,
	}
	path := filepath.Join(s.dir, "leagues", name)
	if err := s.writeJSON(path, file); err != nil {
		return fmt.Errorf("write league %s: %w", league, err)
	}
	s.logger.WithFields(logrus.Fields{
		"league":  league,
		"players": len(players),
		"path":    path,
	}).Info("Persisted league file")
	return nil
}

// WriteUnified persists the run-level unified file.
func (s *Store) WriteUnified(runID string, teams []models.Team, players []models.Athlete, generatedAt time.Time) error {
	file := UnifiedFile{
		Version:     UnifiedVersion,
		RunID:       runID,
		GeneratedAt: models.ISOTime(generatedAt),
		Teams:       teams,
		Players:     players,
	}
	path := filepath.Join(s.dir, "unified", "unified_data_latest.json")
	if err := s.writeJSON(path, file); err != nil {
		return fmt.Errorf("write unified: %w", err)
	}
	s.logger.WithFields(logrus.Fields{
		"teams":   len(teams),
		"players": len(players),
	}).Info("Persisted unified file")
	return nil
}

// WriteReadiness persists readiness.json. The payload is produced by the
// readiness aggregator; the store only handles atomicity.
func (s *Store) WriteReadiness(payload interface{}) error {
	path := filepath.Join(s.dir, "readiness.json")
	if err := s.writeJSON(path, payload); err != nil {
		return fmt.Errorf("write readiness: %w", err)
	}
	s.logger.WithField("path", path).Info("Persisted readiness file")
	return nil
}

// ReadLeague loads a previously written league file.
func (s *Store) ReadLeague(league string) (*LeagueFile, error) {
	path := filepath.Join(s.dir, "leagues", strings.ToLower(league)+".json")
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read league %s: %w", league, err)
	}
	var file LeagueFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("decode league %s: %w", league, err)
	}
	return &file, nil
}

// ReadUnified loads the unified file.
func (s *Store) ReadUnified() (*UnifiedFile, error) {
	raw, err := os.ReadFile(filepath.Join(s.dir, "unified", "unified_data_latest.json"))
	if err != nil {
		return nil, fmt.Errorf("read unified: %w", err)
	}
	var file UnifiedFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("decode unified: %w", err)
	}
	return &file, nil
}

// ReadReadiness loads readiness.json raw; callers decode into their view.
func (s *Store) ReadReadiness() ([]byte, error) {
	raw, err := os.ReadFile(filepath.Join(s.dir, "readiness.json"))
	if err != nil {
		return nil, fmt.Errorf("read readiness: %w", err)
	}
	return raw, nil
}

// writeJSON marshals v and writes it atomically. The temp file lives in the
// target directory so the rename never crosses filesystems.
func (s *Store) writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("fsync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}
