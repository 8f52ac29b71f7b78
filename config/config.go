// Package config centralises runtime configuration helpers for Mensa services.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment identifies the runtime environment where Mensa operates.
type Environment string

const (
	// EnvDev marks the development environment.
	EnvDev Environment = "dev"
	// EnvStaging marks the staging environment.
	EnvStaging Environment = "staging"
	// EnvProd marks the production environment.
	EnvProd Environment = "prod"
)

// HTTPSettings configures the public HTTP surface.
type HTTPSettings struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// TelemetrySettings configures metric export. An empty endpoint disables
// export and metrics stay in-process only.
type TelemetrySettings struct {
	Endpoint string
	Interval time.Duration
}

// SimulationSettings configures the synthetic campus day runner.
type SimulationSettings struct {
	Enabled        bool
	Seed           int64
	Rounds         int
	Students       int
	Staff          int
	OrdersPerSec   float64
	RestockEvery   int
	RestockBatch   int64
	TopUpAmount    string
	InitialBalance string
}

// Settings contains the Mensa configuration tree loaded from defaults and overrides.
type Settings struct {
	Environment Environment
	CampusName  string
	MenuPath    string
	HTTP        HTTPSettings
	Telemetry   TelemetrySettings
	Simulation  SimulationSettings
}

// Default returns the default Mensa configuration.
func Default() Settings {
	return Settings{
		Environment: EnvProd,
		CampusName:  "main-campus",
		MenuPath:    "",
		HTTP: HTTPSettings{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		Telemetry: TelemetrySettings{
			Endpoint: "",
			Interval: 15 * time.Second,
		},
		Simulation: SimulationSettings{
			Enabled:        false,
			Seed:           1,
			Rounds:         100,
			Students:       20,
			Staff:          5,
			OrdersPerSec:   50,
			RestockEvery:   5,
			RestockBatch:   10,
			TopUpAmount:    "25",
			InitialBalance: "50",
		},
	}
}

// FromEnv loads configuration values from environment variables, overriding defaults.
func FromEnv() Settings {
	cfg := Default()
	if env := strings.TrimSpace(os.Getenv("MENSA_ENV")); env != "" {
		cfg.Environment = Environment(strings.ToLower(env))
	}
	if v := strings.TrimSpace(os.Getenv("MENSA_CAMPUS_NAME")); v != "" {
		cfg.CampusName = v
	}
	if v := strings.TrimSpace(os.Getenv("MENSA_MENU_PATH")); v != "" {
		cfg.MenuPath = v
	}
	if v := strings.TrimSpace(os.Getenv("MENSA_HTTP_ADDR")); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv("MENSA_HTTP_READ_TIMEOUT")); v != "" {
		if dur, err := time.ParseDuration(v); err == nil {
			cfg.HTTP.ReadTimeout = dur
		}
	}
	if v := strings.TrimSpace(os.Getenv("MENSA_HTTP_WRITE_TIMEOUT")); v != "" {
		if dur, err := time.ParseDuration(v); err == nil {
			cfg.HTTP.WriteTimeout = dur
		}
	}
	if v := strings.TrimSpace(os.Getenv("MENSA_OTLP_ENDPOINT")); v != "" {
		cfg.Telemetry.Endpoint = v
	}
	if v := strings.TrimSpace(os.Getenv("MENSA_OTLP_INTERVAL")); v != "" {
		if dur, err := time.ParseDuration(v); err == nil {
			cfg.Telemetry.Interval = dur
		}
	}
	if v := strings.TrimSpace(os.Getenv("MENSA_SIM_ENABLED")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Simulation.Enabled = b
		}
	}
	if v := strings.TrimSpace(os.Getenv("MENSA_SIM_SEED")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Simulation.Seed = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("MENSA_SIM_ROUNDS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Simulation.Rounds = n
		}
	}
	return cfg
}

// Option mutates Settings when applied via Apply.
type Option func(*Settings)

// Apply applies the provided Option set to a copy of the base Settings.
func Apply(base Settings, opts ...Option) Settings {
	cfg := base
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithEnvironment configures the top-level environment.
func WithEnvironment(env Environment) Option {
	return func(s *Settings) {
		if env != "" {
			s.Environment = env
		}
	}
}

// WithCampusName sets the campus registry name.
func WithCampusName(name string) Option {
	name = strings.TrimSpace(name)
	return func(s *Settings) {
		if name != "" {
			s.CampusName = name
		}
	}
}

// WithHTTPAddr overrides the HTTP listen address.
func WithHTTPAddr(addr string) Option {
	addr = strings.TrimSpace(addr)
	return func(s *Settings) {
		if addr != "" {
			s.HTTP.Addr = addr
		}
	}
}

// WithMenuPath points at a YAML menu fixture loaded at startup.
func WithMenuPath(path string) Option {
	path = strings.TrimSpace(path)
	return func(s *Settings) {
		if path != "" {
			s.MenuPath = path
		}
	}
}

// WithTelemetryEndpoint overrides the OTLP metric endpoint.
func WithTelemetryEndpoint(endpoint string) Option {
	endpoint = strings.TrimSpace(endpoint)
	return func(s *Settings) {
		s.Telemetry.Endpoint = endpoint
	}
}

// WithSimulation replaces the simulation block wholesale.
func WithSimulation(sim SimulationSettings) Option {
	return func(s *Settings) {
		s.Simulation = sim
	}
}
