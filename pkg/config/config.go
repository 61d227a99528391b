package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	// Server
	Port string `mapstructure:"PORT"`
	Env  string `mapstructure:"ENV"`

	// Redis (optional payload cache)
	RedisURL string `mapstructure:"REDIS_URL"`

	// Output layout
	DataDir    string `mapstructure:"DATA_DIR"`
	FixtureDir string `mapstructure:"FIXTURE_DIR"`

	// Live fetch gate: outbound requests happen only when LIVE_FETCH=1
	// and the run was started with --live.
	LiveFetch string `mapstructure:"LIVE_FETCH"`

	// Provider credentials
	MLBStatsAPIKey      string `mapstructure:"MLB_STATS_API_KEY"`
	BaseballSavantToken string `mapstructure:"BASEBALL_SAVANT_TOKEN"`
	CFBDAPIKey          string `mapstructure:"CFBD_API_KEY"`
	PerfectGameAPIKey   string `mapstructure:"PERFECT_GAME_API_KEY"`
	On3APIKey           string `mapstructure:"ON3_API_KEY"`
	OpendorseAPIKey     string `mapstructure:"OPENDORSE_API_KEY"`
	KBOAPIKey           string `mapstructure:"KBO_API_KEY"`
	NPBAPIKey           string `mapstructure:"NPB_API_KEY"`
	SportsDataIOKey     string `mapstructure:"SPORTSDATA_IO_KEY"`
	TheSportsDBAPIKey   string `mapstructure:"THESPORTSDB_API_KEY"`

	// Fetch tuning
	OutboundRateLimit       float64       `mapstructure:"OUTBOUND_RATE_LIMIT"`
	ExternalAPITimeout      time.Duration `mapstructure:"EXTERNAL_API_TIMEOUT"`
	CircuitBreakerThreshold int           `mapstructure:"CIRCUIT_BREAKER_THRESHOLD"`
	CacheTTL                time.Duration `mapstructure:"CACHE_TTL"`

	// Scheduled ingestion (cmd/server)
	IngestInterval string `mapstructure:"INGEST_INTERVAL"`

	// Focus teams surfaced first in readiness output
	FocusTeams []string `mapstructure:"FOCUS_TEAMS"`

	// Vision pool. Workers run in-process unless VISION_WORKER_BINARY points
	// at a built visionworker, in which case they are spawned as processes on
	// VISION_BASE_PORT and up.
	VisionWorkers      int    `mapstructure:"VISION_WORKERS"`
	VisionBasePort     int    `mapstructure:"VISION_BASE_PORT"`
	VisionModelPath    string `mapstructure:"VISION_MODEL_PATH"`
	VisionWorkerBinary string `mapstructure:"VISION_WORKER_BINARY"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")

	// Set defaults
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("DATA_DIR", "data")
	viper.SetDefault("FIXTURE_DIR", "fixtures")
	viper.SetDefault("LIVE_FETCH", "")

	viper.SetDefault("MLB_STATS_API_KEY", "")
	viper.SetDefault("BASEBALL_SAVANT_TOKEN", "")
	viper.SetDefault("CFBD_API_KEY", "")
	viper.SetDefault("PERFECT_GAME_API_KEY", "")
	viper.SetDefault("ON3_API_KEY", "")
	viper.SetDefault("OPENDORSE_API_KEY", "")
	viper.SetDefault("KBO_API_KEY", "")
	viper.SetDefault("NPB_API_KEY", "")
	viper.SetDefault("SPORTSDATA_IO_KEY", "")
	viper.SetDefault("THESPORTSDB_API_KEY", "3") // Free tier

	viper.SetDefault("OUTBOUND_RATE_LIMIT", 10.0) // requests per second, all providers combined
	viper.SetDefault("EXTERNAL_API_TIMEOUT", "30s")
	viper.SetDefault("CIRCUIT_BREAKER_THRESHOLD", 5)
	viper.SetDefault("CACHE_TTL", "15m")

	viper.SetDefault("INGEST_INTERVAL", "2h")
	viper.SetDefault("FOCUS_TEAMS", "MLB-STL,NFL-TEN,NCAA-TEX,NBA-MEM")

	viper.SetDefault("VISION_WORKERS", 0) // 0 = CPU count
	viper.SetDefault("VISION_BASE_PORT", 5555)
	viper.SetDefault("VISION_MODEL_PATH", "")
	viper.SetDefault("VISION_WORKER_BINARY", "")

	// Read from environment
	viper.AutomaticEnv()

	// Read config file if exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Parse focus teams from comma-separated string
	if focusStr := viper.GetString("FOCUS_TEAMS"); focusStr != "" {
		config.FocusTeams = splitTrim(focusStr)
	}

	return &config, nil
}

func splitTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// CredentialFor returns the configured credential for a provider family.
func (c *Config) CredentialFor(provider string) string {
	switch provider {
	case "mlb_statsapi":
		return c.MLBStatsAPIKey
	case "baseball_savant":
		return c.BaseballSavantToken
	case "cfbd":
		return c.CFBDAPIKey
	case "perfect_game":
		return c.PerfectGameAPIKey
	case "on3":
		return c.On3APIKey
	case "opendorse":
		return c.OpendorseAPIKey
	case "kbo":
		return c.KBOAPIKey
	case "npb":
		return c.NPBAPIKey
	case "sportsdata_io", "nba_stats":
		return c.SportsDataIOKey
	case "thesportsdb":
		return c.TheSportsDBAPIKey
	}
	return ""
}

// LiveEnabled reports whether outbound fetching is permitted at all.
// Both the environment gate and the --live flag must agree.
func (c *Config) LiveEnabled(liveFlag bool) bool {
	return liveFlag && c.LiveFetch == "1"
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
