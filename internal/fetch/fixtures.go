package fetch

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// Fixtures serves canned provider payloads from a directory. The ingest path
// falls back to fixtures whenever live mode is off or a credential is absent.
type Fixtures struct {
	dir    string
	logger *logrus.Logger
}

// NewFixtures points the loader at a fixture directory.
func NewFixtures(dir string, logger *logrus.Logger) *Fixtures {
	return &Fixtures{dir: dir, logger: logger}
}

// Load reads fixtures/<league>.json. A missing or unreadable fixture is not
// an error: the agent reports zero players and the run continues.
func (f *Fixtures) Load(league string) ([]byte, bool) {
	name := strings.ToLower(strings.TrimSpace(league)) + ".json"
	path := filepath.Join(f.dir, name)

	payload, err := os.ReadFile(path)
	if err != nil {
		f.logger.WithFields(logrus.Fields{
			"league": league,
			"path":   path,
		}).Warn("No fixture available")
		return nil, false
	}
	f.logger.WithFields(logrus.Fields{
		"league": league,
		"bytes":  len(payload),
	}).Debug("Loaded fixture payload")
	return payload, true
}
