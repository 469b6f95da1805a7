package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Discord   DiscordConfig   `yaml:"discord"`
	Ledger    LedgerConfig    `yaml:"ledger"`
	Auction   AuctionConfig   `yaml:"auction"`
	Server    ServerConfig    `yaml:"server"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// DiscordConfig holds Discord bot settings.
type DiscordConfig struct {
	Token string `yaml:"token"`
	// GuildID scopes slash command registration to one server.
	GuildID string `yaml:"guild_id"`
	// WhitelistRole may run admin commands in addition to administrators.
	WhitelistRole string `yaml:"whitelist_role"`
	// ReportChannel receives settlement and reset announcements.
	ReportChannel string `yaml:"report_channel"`
}

// LedgerConfig holds ledger store settings.
type LedgerConfig struct {
	Driver string `yaml:"driver"` // "jsonfile" or "postgres"

	// jsonfile driver.
	Path string `yaml:"path"`

	// postgres driver.
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN returns the Postgres connection string.
func (l LedgerConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		l.Host, l.Port, l.User, l.Password, l.DBName, l.SSLMode,
	)
}

// AuctionConfig holds auction house rules.
type AuctionConfig struct {
	// StartingCoins is the lazy default balance for unseen accounts.
	StartingCoins int `yaml:"starting_coins"`
	// DefaultMinBid is the floor for the first bid when none is given.
	DefaultMinBid int `yaml:"default_min_bid"`
	// DefaultDuration applies when an auction is started without one.
	DefaultDuration time.Duration `yaml:"default_duration"`
	// NextIDStart seeds the auction id counter on a fresh ledger.
	NextIDStart int64 `yaml:"next_id_start"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// TelemetryConfig holds OpenTelemetry settings.
type TelemetryConfig struct {
	ServiceName    string `yaml:"service_name"`
	ServiceVersion string `yaml:"service_version"`
	OTLPEndpoint   string `yaml:"otlp_endpoint"`
	Insecure       bool   `yaml:"insecure"`
}

// Load reads a YAML configuration file from the given path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := &Config{
		Ledger: LedgerConfig{
			Driver:  "jsonfile",
			Path:    "auctions.json",
			Host:    "localhost",
			Port:    5432,
			SSLMode: "disable",
		},
		Auction: AuctionConfig{
			StartingCoins:   1000,
			DefaultMinBid:   10,
			DefaultDuration: 48 * time.Hour,
			NextIDStart:     11500,
		},
		Server: ServerConfig{
			Port:            8080,
			ShutdownTimeout: 15 * time.Second,
		},
		Telemetry: TelemetryConfig{
			ServiceName:    "auctioneer",
			ServiceVersion: "0.1.0",
		},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	switch c.Ledger.Driver {
	case "jsonfile", "postgres":
		// valid
	default:
		return fmt.Errorf("unsupported ledger driver %q: must be \"jsonfile\" or \"postgres\"", c.Ledger.Driver)
	}
	if c.Auction.StartingCoins < 0 {
		return fmt.Errorf("starting_coins must not be negative, got %d", c.Auction.StartingCoins)
	}
	if c.Auction.DefaultMinBid <= 0 {
		return fmt.Errorf("default_min_bid must be positive, got %d", c.Auction.DefaultMinBid)
	}
	if c.Auction.DefaultDuration <= 0 {
		return fmt.Errorf("default_duration must be positive, got %s", c.Auction.DefaultDuration)
	}
	return nil
}
