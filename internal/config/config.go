package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port          string `yaml:"port"`
	PublicBaseURL string `yaml:"publicBaseUrl"`
	ResultsDir    string `yaml:"resultsDir"`

	QuestionDefaultTimeMs int `yaml:"questionDefaultTimeMs"`
	LeaderboardDisplayMs  int `yaml:"leaderboardDisplayMs"`
	CountdownMs           int `yaml:"countdownMs"`
	AutoAdvanceMs         int `yaml:"autoAdvanceMs"`
	ExtendTimeMs          int `yaml:"extendTimeMs"`

	MaxPlayerNameLen  int `yaml:"maxPlayerNameLen"`
	PinLength         int `yaml:"pinLength"`
	MaxPlayers        int `yaml:"maxPlayers"`
	MinPlayersToStart int `yaml:"minPlayersToStart"`
	PowerUpCharges    int `yaml:"powerUpCharges"`

	ScoringBase          int `yaml:"scoringBase"`
	ScoringBonusWindowMs int `yaml:"scoringBonusWindowMs"`

	// RateLimits maps inbound event name to max events per second per
	// connection. Unlisted events are not limited.
	RateLimits map[string]int `yaml:"rateLimits"`

	OrphanSweepIntervalMs int `yaml:"orphanSweepIntervalMs"`
	RatePruneIntervalMs   int `yaml:"ratePruneIntervalMs"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Port:          "8080",
		PublicBaseURL: "http://localhost:8080",
		ResultsDir:    "./results",

		QuestionDefaultTimeMs: 20_000,
		LeaderboardDisplayMs:  3_000,
		CountdownMs:           3_000,
		AutoAdvanceMs:         3_000,
		ExtendTimeMs:          5_000,

		MaxPlayerNameLen:  20,
		PinLength:         6,
		MaxPlayers:        100,
		MinPlayersToStart: 1,
		PowerUpCharges:    1,

		ScoringBase:          100,
		ScoringBonusWindowMs: 10_000,

		RateLimits: map[string]int{
			"host-join":     5,
			"player-join":   5,
			"start-game":    3,
			"submit-answer": 3,
			"next-question": 5,
			"power-up":      3,
		},

		OrphanSweepIntervalMs: 60_000,
		RatePruneIntervalMs:   10_000,
	}
}

// Load builds the effective config: defaults, overlaid by the YAML file at
// path (if it exists), overlaid by environment variables. A .env file in the
// working directory is picked up first.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, err
			}
		} else if !os.IsNotExist(err) {
			return cfg, err
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Port = getenv("PORT", c.Port)
	c.PublicBaseURL = getenv("PUBLIC_BASE_URL", c.PublicBaseURL)
	c.ResultsDir = getenv("RESULTS_DIR", c.ResultsDir)
	c.QuestionDefaultTimeMs = getenvInt("QUESTION_DEFAULT_TIME_MS", c.QuestionDefaultTimeMs)
	c.LeaderboardDisplayMs = getenvInt("LEADERBOARD_DISPLAY_MS", c.LeaderboardDisplayMs)
	c.CountdownMs = getenvInt("COUNTDOWN_MS", c.CountdownMs)
	c.AutoAdvanceMs = getenvInt("AUTO_ADVANCE_MS", c.AutoAdvanceMs)
	c.ExtendTimeMs = getenvInt("EXTEND_TIME_MS", c.ExtendTimeMs)
	c.MaxPlayerNameLen = getenvInt("MAX_PLAYER_NAME_LEN", c.MaxPlayerNameLen)
	c.PinLength = getenvInt("PIN_LENGTH", c.PinLength)
	c.MaxPlayers = getenvInt("MAX_PLAYERS", c.MaxPlayers)
	c.MinPlayersToStart = getenvInt("MIN_PLAYERS_TO_START", c.MinPlayersToStart)
	c.PowerUpCharges = getenvInt("POWER_UP_CHARGES", c.PowerUpCharges)
	c.ScoringBase = getenvInt("SCORING_BASE", c.ScoringBase)
	c.ScoringBonusWindowMs = getenvInt("SCORING_BONUS_WINDOW_MS", c.ScoringBonusWindowMs)
	c.OrphanSweepIntervalMs = getenvInt("ORPHAN_SWEEP_INTERVAL_MS", c.OrphanSweepIntervalMs)
	c.RatePruneIntervalMs = getenvInt("RATE_PRUNE_INTERVAL_MS", c.RatePruneIntervalMs)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
