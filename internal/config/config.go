package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"
)

// Config holds application level configuration loaded from environment and flags.
type Config struct {
	RunAddress          string
	DatabaseURI         string
	VerifierAddress     string
	PharmacyAddress     string
	JWTSecret           string
	AccessTokenTTL      time.Duration
	RefreshTokenTTL     time.Duration
	BcryptCost          int
	PrescriptionDir     string
	DeliveryFee         float64
	VerifyPollInterval  time.Duration
	VerifyBatchSize     int
	VerifyRetryAfter    time.Duration
	WorkerPoolSize      int
	DispatchMaxAttempts int
	DispatchBackoff     time.Duration
	ShutdownTimeout     time.Duration
}

const (
	defaultRunAddress         = ":8080"
	defaultJWTSecret          = "change-me-in-production"
	defaultAccessTokenTTL     = 30 * time.Minute
	defaultRefreshTokenTTL    = 30 * 24 * time.Hour
	defaultPrescriptionDir    = "prescriptions"
	defaultDeliveryFee        = 500.0
	defaultVerifyPollInterval = 3 * time.Second
	defaultVerifyBatchSize    = 32
	defaultVerifyRetryAfter   = time.Minute
	defaultWorkerPoolSize     = 4
	defaultDispatchAttempts   = 3
	defaultDispatchBackoff    = time.Second
	defaultShutdownTimeout    = 10 * time.Second
)

// Load parses configuration from flags and environment variables.
func Load() (*Config, error) {
	return load(os.Args[1:], os.LookupEnv)
}

type envLookup func(string) (string, bool)

func load(args []string, lookup envLookup) (*Config, error) {
	cfg := &Config{
		RunAddress:          getString(lookup, "RUN_ADDRESS", defaultRunAddress),
		DatabaseURI:         getString(lookup, "DATABASE_URI", ""),
		VerifierAddress:     getString(lookup, "VERIFIER_ADDRESS", ""),
		PharmacyAddress:     getString(lookup, "PHARMACY_ADDRESS", ""),
		JWTSecret:           getString(lookup, "JWT_SECRET", defaultJWTSecret),
		AccessTokenTTL:      getDuration(lookup, "ACCESS_TOKEN_TTL", defaultAccessTokenTTL),
		RefreshTokenTTL:     getDuration(lookup, "REFRESH_TOKEN_TTL", defaultRefreshTokenTTL),
		BcryptCost:          getInt(lookup, "BCRYPT_COST", 0),
		PrescriptionDir:     getString(lookup, "PRESCRIPTION_DIR", defaultPrescriptionDir),
		DeliveryFee:         getFloat(lookup, "DELIVERY_FEE", defaultDeliveryFee),
		VerifyPollInterval:  getDuration(lookup, "VERIFY_POLL_INTERVAL", defaultVerifyPollInterval),
		VerifyBatchSize:     getInt(lookup, "VERIFY_BATCH_SIZE", defaultVerifyBatchSize),
		VerifyRetryAfter:    getDuration(lookup, "VERIFY_RETRY_AFTER", defaultVerifyRetryAfter),
		WorkerPoolSize:      getInt(lookup, "WORKER_POOL_SIZE", defaultWorkerPoolSize),
		DispatchMaxAttempts: getInt(lookup, "DISPATCH_MAX_ATTEMPTS", defaultDispatchAttempts),
		DispatchBackoff:     getDuration(lookup, "DISPATCH_BACKOFF", defaultDispatchBackoff),
		ShutdownTimeout:     getDuration(lookup, "SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
	}

	fs := flag.NewFlagSet("medcart", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		pollIntervalStr    = cfg.VerifyPollInterval.String()
		shutdownTimeoutStr = cfg.ShutdownTimeout.String()
	)

	fs.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "HTTP server listen address")
	fs.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "PostgreSQL DSN")
	fs.StringVar(&cfg.VerifierAddress, "v", cfg.VerifierAddress, "Prescription verifier base URL")
	fs.StringVar(&cfg.PharmacyAddress, "p", cfg.PharmacyAddress, "Pharmacy directory base URL")
	fs.StringVar(&cfg.JWTSecret, "jwt-secret", cfg.JWTSecret, "Secret for signing auth tokens")
	fs.StringVar(&cfg.PrescriptionDir, "prescription-dir", cfg.PrescriptionDir, "Directory for uploaded prescriptions")
	fs.IntVar(&cfg.WorkerPoolSize, "worker-pool", cfg.WorkerPoolSize, "Number of concurrent verification workers")
	fs.StringVar(&pollIntervalStr, "poll-interval", pollIntervalStr, "Interval between verification polls")
	fs.StringVar(&shutdownTimeoutStr, "shutdown-timeout", shutdownTimeoutStr, "Graceful shutdown timeout")
	fs.IntVar(&cfg.VerifyBatchSize, "poll-batch", cfg.VerifyBatchSize, "Maximum orders per verification batch")
	fs.IntVar(&cfg.DispatchMaxAttempts, "dispatch-attempts", cfg.DispatchMaxAttempts, "Notification attempts per pharmacy")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	var err error

	if cfg.VerifyPollInterval, err = time.ParseDuration(pollIntervalStr); err != nil {
		return nil, fmt.Errorf("invalid poll interval: %w", err)
	}

	if cfg.ShutdownTimeout, err = time.ParseDuration(shutdownTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}

	if secretFile, ok := lookup("JWT_SECRET_FILE"); ok && secretFile != "" {
		content, err := os.ReadFile(secretFile)
		if err != nil {
			return nil, fmt.Errorf("read jwt secret file: %w", err)
		}
		cfg.JWTSecret = string(content)
	}

	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = defaultWorkerPoolSize
	}

	if cfg.VerifyBatchSize <= 0 {
		cfg.VerifyBatchSize = defaultVerifyBatchSize
	}

	if cfg.VerifyPollInterval <= 0 {
		cfg.VerifyPollInterval = defaultVerifyPollInterval
	}

	if cfg.VerifyRetryAfter <= 0 {
		cfg.VerifyRetryAfter = defaultVerifyRetryAfter
	}

	if cfg.DispatchMaxAttempts <= 0 {
		cfg.DispatchMaxAttempts = defaultDispatchAttempts
	}

	if cfg.DispatchBackoff <= 0 {
		cfg.DispatchBackoff = defaultDispatchBackoff
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	if cfg.DeliveryFee < 0 {
		return nil, fmt.Errorf("delivery fee must be non-negative")
	}

	if cfg.DatabaseURI == "" {
		return nil, fmt.Errorf("database URI must be provided")
	}

	if cfg.VerifierAddress == "" {
		return nil, fmt.Errorf("verifier address must be provided")
	}

	if cfg.PharmacyAddress == "" {
		return nil, fmt.Errorf("pharmacy directory address must be provided")
	}

	return cfg, nil
}

func getString(lookup envLookup, key, def string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(lookup envLookup, key string, def int) int {
	if v, ok := lookup(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(lookup envLookup, key string, def float64) float64 {
	if v, ok := lookup(key); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getDuration(lookup envLookup, key string, def time.Duration) time.Duration {
	if v, ok := lookup(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
