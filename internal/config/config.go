package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig `env:",prefix=SERVER_"`

	// Database configuration
	Database DatabaseConfig `env:",prefix=DB_"`

	// Application configuration
	App AppConfig `env:",prefix=APP_"`

	// Raffle defaults applied to requests that leave options unset
	Raffle RaffleConfig `env:",prefix=RAFFLE_"`

	// Request rate limiting for raffle runs
	Rate RateConfig `env:",prefix=RATE_"`

	// ResultsTTL is how long an unread raffle result is kept in memory
	ResultsTTL time.Duration `env:"RESULTS_TTL,default=24h"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port         string `env:"PORT,default=8080"`
	Host         string `env:"HOST,default=0.0.0.0"`
	ReadTimeout  int    `env:"READ_TIMEOUT,default=30"`  // seconds
	WriteTimeout int    `env:"WRITE_TIMEOUT,default=30"` // seconds
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	// Enabled turns on season history loading and result persistence
	Enabled  bool   `env:"ENABLED,default=false"`
	Host     string `env:"HOST,default=localhost"`
	Port     string `env:"PORT,default=5432"`
	User     string `env:"USER,default=postgres"`
	Password string `env:"PASSWORD,default=postgres"`
	Name     string `env:"NAME,default=deluxxe"`
	SSLMode  string `env:"SSL_MODE,default=disable"`
	MaxConns int    `env:"MAX_CONNS,default=10"`
	MinConns int    `env:"MIN_CONNS,default=2"`
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	Environment string `env:"ENVIRONMENT,default=development"`
	Verbose     bool   `env:"VERBOSE,default=true"`
	LogFile     string `env:"LOG_FILE"`
}

// RaffleConfig holds the default raffle options
type RaffleConfig struct {
	MaxRounds                        int  `env:"MAX_ROUNDS,default=5"`
	ClearHistoryIfNoCandidates       bool `env:"CLEAR_HISTORY_IF_NO_CANDIDATES,default=false"`
	AllowRentersToWin                bool `env:"ALLOW_RENTERS_TO_WIN,default=false"`
	FilterDriversWithWinningHistory  bool `env:"FILTER_DRIVERS_WITH_WINNING_HISTORY,default=true"`
	LimitOnePrizePerDriverPerWeekend bool `env:"LIMIT_ONE_PRIZE_PER_DRIVER_PER_WEEKEND,default=true"`
}

// RateConfig holds the token bucket settings for raffle runs
type RateConfig struct {
	RPS   float64 `env:"RPS,default=2"`
	Burst int     `env:"BURST,default=5"`
}

// Load loads configuration from environment variables
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}
	return &cfg, nil
}

// GetDatabaseURL returns the PostgreSQL connection URL
func (c *DatabaseConfig) GetDatabaseURL() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// GetServerAddr returns the server address
func (c *ServerConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDevelopment returns true if running in development environment
func (c *AppConfig) IsDevelopment() bool {
	return c.Environment == "development"
}
