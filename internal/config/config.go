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
	RunAddress           string
	BackendAddress       string
	ServiceToken         string
	SessionSecret        string
	DatabaseURI          string
	PollInterval         time.Duration
	ReturnFlightDuration time.Duration
	ReturnTickInterval   time.Duration
	BatteryDrain         int
	BatteryFloor         int
	PathSamples          int
	ShutdownTimeout      time.Duration
}

const (
	defaultRunAddress           = ":8080"
	defaultSessionSecret        = "change-me-in-production"
	defaultPollInterval         = 5 * time.Second
	defaultReturnFlightDuration = 10 * time.Second
	defaultReturnTickInterval   = 50 * time.Millisecond
	defaultBatteryDrain         = 20
	defaultBatteryFloor         = 20
	defaultPathSamples          = 30
	defaultShutdownTimeout      = 10 * time.Second
)

// Load parses configuration from flags and environment variables.
func Load() (*Config, error) {
	return load(os.Args[1:], os.LookupEnv)
}

type envLookup func(string) (string, bool)

func load(args []string, lookup envLookup) (*Config, error) {
	cfg := &Config{
		RunAddress:           getString(lookup, "RUN_ADDRESS", defaultRunAddress),
		BackendAddress:       getString(lookup, "BACKEND_ADDRESS", ""),
		ServiceToken:         getString(lookup, "SERVICE_TOKEN", ""),
		SessionSecret:        getString(lookup, "SESSION_SECRET", defaultSessionSecret),
		DatabaseURI:          getString(lookup, "DATABASE_URI", ""),
		PollInterval:         getDuration(lookup, "POLL_INTERVAL", defaultPollInterval),
		ReturnFlightDuration: getDuration(lookup, "RETURN_FLIGHT_DURATION", defaultReturnFlightDuration),
		ReturnTickInterval:   getDuration(lookup, "RETURN_TICK_INTERVAL", defaultReturnTickInterval),
		BatteryDrain:         getInt(lookup, "BATTERY_DRAIN", defaultBatteryDrain),
		BatteryFloor:         getInt(lookup, "BATTERY_FLOOR", defaultBatteryFloor),
		PathSamples:          getInt(lookup, "PATH_SAMPLES", defaultPathSamples),
		ShutdownTimeout:      getDuration(lookup, "SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
	}

	fs := flag.NewFlagSet("trackd", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		pollIntervalStr    = cfg.PollInterval.String()
		returnDurationStr  = cfg.ReturnFlightDuration.String()
		shutdownTimeoutStr = cfg.ShutdownTimeout.String()
	)

	fs.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "HTTP server listen address")
	fs.StringVar(&cfg.BackendAddress, "b", cfg.BackendAddress, "Ordering backend base URL")
	fs.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "PostgreSQL DSN for the flight journal")
	fs.StringVar(&cfg.ServiceToken, "service-token", cfg.ServiceToken, "Bearer credential for backend calls")
	fs.StringVar(&cfg.SessionSecret, "session-secret", cfg.SessionSecret, "Secret for verifying session tokens")
	fs.StringVar(&pollIntervalStr, "poll-interval", pollIntervalStr, "Delay between tracking polls")
	fs.StringVar(&returnDurationStr, "return-duration", returnDurationStr, "Simulated return flight duration")
	fs.IntVar(&cfg.BatteryDrain, "battery-drain", cfg.BatteryDrain, "Battery percentage spent per delivery")
	fs.IntVar(&cfg.PathSamples, "path-samples", cfg.PathSamples, "Sample points along the rendered route")
	fs.StringVar(&shutdownTimeoutStr, "shutdown-timeout", shutdownTimeoutStr, "Graceful shutdown timeout")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	var err error

	if cfg.PollInterval, err = time.ParseDuration(pollIntervalStr); err != nil {
		return nil, fmt.Errorf("invalid poll interval: %w", err)
	}

	if cfg.ReturnFlightDuration, err = time.ParseDuration(returnDurationStr); err != nil {
		return nil, fmt.Errorf("invalid return flight duration: %w", err)
	}

	if cfg.ShutdownTimeout, err = time.ParseDuration(shutdownTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}

	if tokenFile, ok := lookup("SERVICE_TOKEN_FILE"); ok && tokenFile != "" {
		content, err := os.ReadFile(tokenFile)
		if err != nil {
			return nil, fmt.Errorf("read service token file: %w", err)
		}
		cfg.ServiceToken = string(content)
	}

	if secretFile, ok := lookup("SESSION_SECRET_FILE"); ok && secretFile != "" {
		content, err := os.ReadFile(secretFile)
		if err != nil {
			return nil, fmt.Errorf("read session secret file: %w", err)
		}
		cfg.SessionSecret = string(content)
	}

	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}

	if cfg.ReturnFlightDuration <= 0 {
		cfg.ReturnFlightDuration = defaultReturnFlightDuration
	}

	if cfg.ReturnTickInterval <= 0 {
		cfg.ReturnTickInterval = defaultReturnTickInterval
	}

	if cfg.BatteryDrain < 0 || cfg.BatteryDrain > 100 {
		cfg.BatteryDrain = defaultBatteryDrain
	}

	if cfg.BatteryFloor < 0 || cfg.BatteryFloor > 100 {
		cfg.BatteryFloor = defaultBatteryFloor
	}

	if cfg.PathSamples <= 1 {
		cfg.PathSamples = defaultPathSamples
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	if cfg.BackendAddress == "" {
		return nil, fmt.Errorf("ordering backend address must be provided")
	}

	if cfg.ServiceToken == "" {
		return nil, fmt.Errorf("backend service token must be provided")
	}

	if cfg.DatabaseURI == "" {
		return nil, fmt.Errorf("database URI must be provided")
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

func getDuration(lookup envLookup, key string, def time.Duration) time.Duration {
	if v, ok := lookup(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
