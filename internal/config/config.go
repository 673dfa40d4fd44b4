package config

import (
	"fmt"
	"maps"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"scorekeeper-backend/internal/models"
	"scorekeeper-backend/internal/store"
)

type Config struct {
	Port        string
	CORSOrigins []string

	Store store.Config

	StatsAPIURL    string
	StatsAPICookie string

	RulesFile string
	Rules     Rules

	LogLevel  string
	LogFormat string
}

// Rules are the tunables that can live in a YAML file next to the binary.
type Rules struct {
	HistoryLimit   int                     `yaml:"history_limit"`
	DefaultTargets map[models.GameType]int `yaml:"default_targets"`
	ReportCacheTTL time.Duration           `yaml:"report_cache_ttl"`
	SweepInterval  time.Duration           `yaml:"sweep_interval"`
}

func DefaultRules() Rules {
	return Rules{
		HistoryLimit: 10,
		DefaultTargets: map[models.GameType]int{
			models.GameEightBall: 5,
			models.GameNineBall:  25,
		},
		ReportCacheTTL: 24 * time.Hour,
		SweepInterval:  time.Hour,
	}
}

// DefaultTarget is the race length used when a setup leaves it out.
func (r Rules) DefaultTarget(gt models.GameType) int {
	if n, ok := r.DefaultTargets[gt]; ok && n > 0 {
		return n
	}
	return models.LegacyDefaultTarget
}

// LoadRules reads a rules file over the defaults. Game type keys in
// default_targets may use any spelling ParseGameType accepts. An empty path
// returns the defaults.
func LoadRules(path string) (Rules, error) {
	rules := DefaultRules()
	if path == "" {
		return rules, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("failed to read rules file: %w", err)
	}
	targets := maps.Clone(rules.DefaultTargets)
	rules.DefaultTargets = nil
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return Rules{}, fmt.Errorf("failed to parse rules file: %w", err)
	}

	if rules.HistoryLimit < 1 {
		return Rules{}, fmt.Errorf("history_limit must be at least 1, got %d", rules.HistoryLimit)
	}
	for raw, n := range rules.DefaultTargets {
		gt, err := models.ParseGameType(string(raw))
		if err != nil {
			return Rules{}, fmt.Errorf("default_targets: %w", err)
		}
		if n < 1 {
			return Rules{}, fmt.Errorf("default_targets.%s must be at least 1, got %d", raw, n)
		}
		targets[gt] = n
	}
	rules.DefaultTargets = targets
	if rules.ReportCacheTTL <= 0 || rules.SweepInterval <= 0 {
		return Rules{}, fmt.Errorf("report_cache_ttl and sweep_interval must be positive")
	}
	return rules, nil
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file found, using environment variables")
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		CORSOrigins: splitList(getEnv("CORS_ORIGIN", "http://localhost:5173")),
		Store: store.Config{
			Backend:           getEnv("STORE_BACKEND", "memory"),
			DataDir:           getEnv("DATA_DIR", "./data"),
			RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
			RedisPassword:     os.Getenv("REDIS_PASSWORD"),
			RedisDB:           getEnvAsInt("REDIS_DB", 0),
			GCPProjectID:      os.Getenv("GCP_PROJECT_ID"),
			FirestoreDatabase: os.Getenv("FIRESTORE_DATABASE"),
			CredentialsFile:   os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
			DatabaseURL:       os.Getenv("DATABASE_URL"),
		},
		StatsAPIURL:    getEnv("STATS_API_URL", "https://onthehill.app/api"),
		StatsAPICookie: os.Getenv("STATS_API_COOKIE"),
		RulesFile:      os.Getenv("RULES_FILE"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "console"),
	}

	rules, err := LoadRules(cfg.RulesFile)
	if err != nil {
		return nil, err
	}
	cfg.Rules = rules
	return cfg, nil
}

// SetupLogging configures the global zerolog logger.
func SetupLogging(level, format string) {
	if format != "json" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func splitList(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
