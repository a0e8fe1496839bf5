package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Log       LogConfig
	Scheduler SchedulerConfig
	Tuning    TuningConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SchedulerConfig tunes the genetic search and the weekly time grid.
type SchedulerConfig struct {
	PopulationSize       int
	MaxGenerations       int
	StagnationLimit      int
	TournamentSize       int
	EliteCount           int
	MutationRate         float64
	Workers              int
	SlotMinutes          int
	OperatingStartMinute int
	OperatingEndMinute   int
	BalanceThreshold     float64
}

// TuningConfig governs the feedback-driven weight recalibration loop.
type TuningConfig struct {
	RecalibrateInterval time.Duration
	LearningRate        float64
	MinWeight           float64
	MaxWeight           float64
	DiagnosticsCacheTTL time.Duration
}

// Load reads configuration from the environment, with an optional .env file
// for development.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		Env:       v.GetString("ENV"),
		Port:      v.GetInt("PORT"),
		APIPrefix: v.GetString("API_PREFIX"),
		Database: DatabaseConfig{
			Host:         v.GetString("DB_HOST"),
			Port:         v.GetInt("DB_PORT"),
			User:         v.GetString("DB_USER"),
			Password:     v.GetString("DB_PASSWORD"),
			Name:         v.GetString("DB_NAME"),
			SSLMode:      v.GetString("DB_SSL_MODE"),
			MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("REDIS_ENABLED"),
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetInt("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret:     v.GetString("JWT_SECRET"),
			Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), time.Hour),
			Issuer:     v.GetString("JWT_ISSUER"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS")),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Scheduler: SchedulerConfig{
			PopulationSize:       v.GetInt("SCHEDULER_POPULATION_SIZE"),
			MaxGenerations:       v.GetInt("SCHEDULER_MAX_GENERATIONS"),
			StagnationLimit:      v.GetInt("SCHEDULER_STAGNATION_LIMIT"),
			TournamentSize:       v.GetInt("SCHEDULER_TOURNAMENT_SIZE"),
			EliteCount:           v.GetInt("SCHEDULER_ELITE_COUNT"),
			MutationRate:         v.GetFloat64("SCHEDULER_MUTATION_RATE"),
			Workers:              v.GetInt("SCHEDULER_WORKERS"),
			SlotMinutes:          v.GetInt("SCHEDULER_SLOT_MINUTES"),
			OperatingStartMinute: v.GetInt("SCHEDULER_OPERATING_START_MINUTE"),
			OperatingEndMinute:   v.GetInt("SCHEDULER_OPERATING_END_MINUTE"),
			BalanceThreshold:     v.GetFloat64("SCHEDULER_BALANCE_THRESHOLD"),
		},
		Tuning: TuningConfig{
			RecalibrateInterval: parseDuration(v.GetString("TUNING_RECALIBRATE_INTERVAL"), 10*time.Minute),
			LearningRate:        v.GetFloat64("TUNING_LEARNING_RATE"),
			MinWeight:           v.GetFloat64("TUNING_MIN_WEIGHT"),
			MaxWeight:           v.GetFloat64("TUNING_MAX_WEIGHT"),
			DiagnosticsCacheTTL: parseDuration(v.GetString("TUNING_DIAGNOSTICS_CACHE_TTL"), time.Minute),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Env != EnvDevelopment && c.Env != EnvProduction {
		return errors.New("ENV must be development or production")
	}
	if c.Env == EnvProduction && c.JWT.Secret == "" {
		return errors.New("JWT_SECRET is required in production")
	}
	if c.Scheduler.OperatingStartMinute >= c.Scheduler.OperatingEndMinute {
		return errors.New("SCHEDULER_OPERATING_START_MINUTE must precede SCHEDULER_OPERATING_END_MINUTE")
	}
	if c.Tuning.MinWeight < 0 || c.Tuning.MaxWeight <= c.Tuning.MinWeight {
		return errors.New("tuning weight bounds must satisfy 0 <= min < max")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "aba_scheduler")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "1h")
	v.SetDefault("JWT_ISSUER", "aba-scheduler-api")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SCHEDULER_POPULATION_SIZE", 100)
	v.SetDefault("SCHEDULER_MAX_GENERATIONS", 150)
	v.SetDefault("SCHEDULER_STAGNATION_LIMIT", 25)
	v.SetDefault("SCHEDULER_TOURNAMENT_SIZE", 3)
	v.SetDefault("SCHEDULER_ELITE_COUNT", 2)
	v.SetDefault("SCHEDULER_MUTATION_RATE", 0.05)
	v.SetDefault("SCHEDULER_WORKERS", 0)
	v.SetDefault("SCHEDULER_SLOT_MINUTES", 60)
	v.SetDefault("SCHEDULER_OPERATING_START_MINUTE", 8*60)
	v.SetDefault("SCHEDULER_OPERATING_END_MINUTE", 18*60)
	v.SetDefault("SCHEDULER_BALANCE_THRESHOLD", 2.0)

	v.SetDefault("TUNING_RECALIBRATE_INTERVAL", "10m")
	v.SetDefault("TUNING_LEARNING_RATE", 0.5)
	v.SetDefault("TUNING_MIN_WEIGHT", 0.1)
	v.SetDefault("TUNING_MAX_WEIGHT", 10.0)
	v.SetDefault("TUNING_DIAGNOSTICS_CACHE_TTL", "1m")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
