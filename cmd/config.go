package cmd

import (
	"errors"
	"fmt"
	"time"

	"dispatch/internal/core/domain/services"
	"dispatch/internal/pkg/errs"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type Config struct {
	HTTPPort string
	Storage  string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	LocationTTL   time.Duration

	AMQPURL string

	ProofSecret string
	ProofTTL    time.Duration
	JWTSecret   string

	EstimatorURL     string
	EstimatorTimeout time.Duration

	DispatchWindow        time.Duration
	StalePendingThreshold time.Duration
	SweepSchedule         string
	LowBalanceThreshold   int64
	ResyncGrace           time.Duration

	LogLevel  string
	LogFormat string
}

// LoadConfig reads envFile when it exists, then the process environment.
// Environment variables win over the file.
func LoadConfig(envFile string) (Config, error) {
	if envFile != "" {
		_ = godotenv.Load(envFile)
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := Config{
		HTTPPort:              v.GetString("HTTP_PORT"),
		Storage:               v.GetString("STORAGE"),
		DBHost:                v.GetString("DB_HOST"),
		DBPort:                v.GetString("DB_PORT"),
		DBUser:                v.GetString("DB_USER"),
		DBPassword:            v.GetString("DB_PASSWORD"),
		DBName:                v.GetString("DB_NAME"),
		DBSslMode:             v.GetString("DB_SSLMODE"),
		RedisAddr:             v.GetString("REDIS_ADDR"),
		RedisPassword:         v.GetString("REDIS_PASSWORD"),
		RedisDB:               v.GetInt("REDIS_DB"),
		LocationTTL:           v.GetDuration("LOCATION_TTL"),
		AMQPURL:               v.GetString("AMQP_URL"),
		ProofSecret:           v.GetString("PROOF_SECRET"),
		ProofTTL:              v.GetDuration("PROOF_TTL"),
		JWTSecret:             v.GetString("JWT_SECRET"),
		EstimatorURL:          v.GetString("ESTIMATOR_URL"),
		EstimatorTimeout:      v.GetDuration("ESTIMATOR_TIMEOUT"),
		DispatchWindow:        v.GetDuration("DISPATCH_WINDOW"),
		StalePendingThreshold: v.GetDuration("STALE_PENDING_THRESHOLD"),
		SweepSchedule:         v.GetString("SWEEP_SCHEDULE"),
		LowBalanceThreshold:   v.GetInt64("LOW_BALANCE_THRESHOLD"),
		ResyncGrace:           v.GetDuration("RESYNC_GRACE"),
		LogLevel:              v.GetString("LOG_LEVEL"),
		LogFormat:             v.GetString("LOG_FORMAT"),
	}
	return cfg, cfg.Validate()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("STORAGE", StoragePostgres)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("LOCATION_TTL", "1h")
	v.SetDefault("PROOF_TTL", services.DefaultProofTTL.String())
	v.SetDefault("ESTIMATOR_TIMEOUT", "2s")
	v.SetDefault("DISPATCH_WINDOW", "2m")
	v.SetDefault("STALE_PENDING_THRESHOLD", "30m")
	v.SetDefault("SWEEP_SCHEDULE", "*/5 * * * * *")
	v.SetDefault("LOW_BALANCE_THRESHOLD", 500)
	v.SetDefault("RESYNC_GRACE", "5s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

// Validate reports every problem at once.
func (c Config) Validate() error {
	var storageErr, dbErr, windowErr error
	switch c.Storage {
	case StorageMemory:
	case StoragePostgres:
		if c.DBUser == "" || c.DBName == "" {
			dbErr = errs.NewValueIsRequiredError("DB_USER and DB_NAME")
		}
	default:
		storageErr = errs.NewValueIsInvalidErrorWithCause("STORAGE", fmt.Errorf("%q is not postgres or memory", c.Storage))
	}

	var proofErr, jwtErr error
	if c.ProofSecret == "" {
		proofErr = errs.NewValueIsRequiredError("PROOF_SECRET")
	}
	if c.JWTSecret == "" {
		jwtErr = errs.NewValueIsRequiredError("JWT_SECRET")
	}
	if c.DispatchWindow <= 0 || c.StalePendingThreshold <= 0 {
		windowErr = errs.NewValueIsInvalidErrorWithCause("sweep thresholds", errors.New("DISPATCH_WINDOW and STALE_PENDING_THRESHOLD must be positive"))
	}

	return errors.Join(storageErr, dbErr, proofErr, jwtErr, windowErr)
}

// DSN is the libpq connection string for the gorm postgres driver.
func (c Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSslMode)
}
