package api

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blaze-intelligence/platform/internal/models"
	"github.com/blaze-intelligence/platform/internal/store"
	"github.com/blaze-intelligence/platform/pkg/config"
)

func testServer(t *testing.T) (*Server, *store.Store) {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	st, err := store.New(t.TempDir(), logger)
	require.NoError(t, err)

	hub := NewHub(logger)
	go hub.Run()

	return &Server{
		Config: &config.Config{Env: "development"},
		Store:  st,
		Hub:    hub,
		Logger: logger,
	}, st
}

func TestHealth(t *testing.T) {
	s, _ := testServer(t)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestLeagueEndpoint(t *testing.T) {
	s, st := testServer(t)
	require.NoError(t, st.WriteLeague("mlb", []models.Athlete{{
		PlayerID: "MLB-STL-AB12CD34",
		Name:     "Test Player",
		Sport:    "MLB",
		League:   "MLB",
		TeamID:   "MLB-STL",
		Position: "3B",
	}}, time.Now()))
	router := s.Router()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/leagues/mlb", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "MLB-STL-AB12CD34")

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/leagues/xfl", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReadinessEndpointEmpty(t *testing.T) {
	s, _ := testServer(t)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/readiness", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestVisionStatusUnavailable(t *testing.T) {
	s, _ := testServer(t)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/vision/status", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestIngestWithoutScheduler(t *testing.T) {
	s, _ := testServer(t)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/ingest", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
