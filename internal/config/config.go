package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"gopkg.in/yaml.v3"
)

const (
	DefaultRPCURL              = "https://api.devnet.solana.com"
	DefaultPercolatorProgramID = "F1uxb9kqJg7jv1FoYCjqBm12RYDsTEPnHUbpTopsNVAg"
	DefaultSovereignProgramID  = "2UAZc1jj4QTSkgrC8U9d4a7EM9AQunxMvW5g7rX7Af9T"
)

type Config struct {
	Log       LoggingConfig   `yaml:"log"`
	RPC       RPCConfig       `yaml:"rpc"`
	WS        WSConfig        `yaml:"ws"`
	Wallet    WalletConfig    `yaml:"wallet"`
	Programs  ProgramsConfig  `yaml:"programs"`
	State     StateConfig     `yaml:"state"`
	Timescale TimescaleConfig `yaml:"timescale"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Watch     WatchConfig     `yaml:"watch"`
	Telegram  TelegramConfig  `yaml:"telegram"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	// Format is "json" (default) or "console".
	Format string `yaml:"format"`
}

type RPCConfig struct {
	URL            string        `yaml:"url"`
	Commitment     string        `yaml:"commitment"`
	Timeout        time.Duration `yaml:"timeout"`
	ConfirmTimeout time.Duration `yaml:"confirm_timeout"`
	PollInterval   time.Duration `yaml:"poll_interval"`
}

type WSConfig struct {
	URL            string        `yaml:"url"`
	ReconnectDelay time.Duration `yaml:"reconnect_delay"`
	PingInterval   time.Duration `yaml:"ping_interval"`
}

type WalletConfig struct {
	// PrivateKey is a base58 secret or a JSON byte array. Prefer SOLANA_PRIVATE_KEY.
	PrivateKey string `yaml:"private_key"`
}

type ProgramsConfig struct {
	Percolator string `yaml:"percolator"`
	Sovereign  string `yaml:"sovereign"`
	Sigma      string `yaml:"sigma"`
	Exodus     string `yaml:"exodus"`
	Veil       string `yaml:"veil"`
	Stratum    string `yaml:"stratum"`
}

// ProgramIDs are the resolved program keys. Unset programs are the zero key.
type ProgramIDs struct {
	Percolator solana.PublicKey
	Sovereign  solana.PublicKey
	Sigma      solana.PublicKey
	Exodus     solana.PublicKey
	Veil       solana.PublicKey
	Stratum    solana.PublicKey
}

type StateConfig struct {
	SQLitePath string `yaml:"sqlite_path"`
}

type TimescaleConfig struct {
	Enabled         bool          `yaml:"enabled"`
	DSN             string        `yaml:"dsn"`
	Schema          string        `yaml:"schema"`
	QueueSize       int           `yaml:"queue_size"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

type MetricsConfig struct {
	Enabled *bool  `yaml:"enabled"`
	Address string `yaml:"address"`
	Path    string `yaml:"path"`
}

func (m MetricsConfig) EnabledValue() bool {
	return m.Enabled != nil && *m.Enabled
}

type WatchConfig struct {
	Slabs     []string      `yaml:"slabs"`
	Interval  time.Duration `yaml:"interval"`
	Subscribe bool          `yaml:"subscribe"`
}

type TelegramConfig struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
	ChatID  string `yaml:"chat_id"`
	// RepeatWindow suppresses an identical alert sent again within it.
	RepeatWindow time.Duration `yaml:"repeat_window"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyEnv(&cfg)
	applyDefaults(&cfg)
	return &cfg, validate(&cfg)
}

// Default builds a config from the environment alone, for commands run
// without a config file.
func Default() (*Config, error) {
	var cfg Config
	applyEnv(&cfg)
	applyDefaults(&cfg)
	return &cfg, validate(&cfg)
}

// applyEnv lets the environment override file values.
func applyEnv(cfg *Config) {
	override := func(dst *string, key string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	override(&cfg.RPC.URL, "SOLANA_RPC_URL")
	override(&cfg.WS.URL, "SOLANA_WS_URL")
	override(&cfg.Wallet.PrivateKey, "SOLANA_PRIVATE_KEY")
	override(&cfg.Programs.Percolator, "PERCOLATOR_PROGRAM_ID")
	override(&cfg.Programs.Sovereign, "SOVEREIGN_PROGRAM_ID")
	override(&cfg.Programs.Sigma, "SIGMA_PROGRAM_ID")
	override(&cfg.Programs.Exodus, "EXODUS_PROGRAM_ID")
	override(&cfg.Programs.Veil, "VEIL_CSR_PROGRAM_ID")
	override(&cfg.Programs.Stratum, "STRATUM_PROGRAM_ID")
	override(&cfg.Telegram.Token, "TELEGRAM_BOT_TOKEN")
	override(&cfg.Telegram.ChatID, "TELEGRAM_CHAT_ID")
}

func applyDefaults(cfg *Config) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.RPC.URL == "" {
		cfg.RPC.URL = DefaultRPCURL
	}
	if cfg.RPC.Commitment == "" {
		cfg.RPC.Commitment = "confirmed"
	}
	if cfg.RPC.Timeout == 0 {
		cfg.RPC.Timeout = 15 * time.Second
	}
	if cfg.RPC.ConfirmTimeout == 0 {
		cfg.RPC.ConfirmTimeout = 60 * time.Second
	}
	if cfg.RPC.PollInterval == 0 {
		cfg.RPC.PollInterval = 700 * time.Millisecond
	}
	if cfg.WS.URL == "" {
		cfg.WS.URL = wsFromRPC(cfg.RPC.URL)
	}
	if cfg.WS.ReconnectDelay == 0 {
		cfg.WS.ReconnectDelay = 3 * time.Second
	}
	if cfg.WS.PingInterval == 0 {
		cfg.WS.PingInterval = 30 * time.Second
	}
	if cfg.Programs.Percolator == "" {
		cfg.Programs.Percolator = DefaultPercolatorProgramID
	}
	if cfg.Programs.Sovereign == "" {
		cfg.Programs.Sovereign = DefaultSovereignProgramID
	}
	if cfg.State.SQLitePath == "" {
		cfg.State.SQLitePath = "data/nexus.db"
	}
	if cfg.Timescale.Schema == "" {
		cfg.Timescale.Schema = "public"
	}
	if cfg.Timescale.QueueSize == 0 {
		cfg.Timescale.QueueSize = 256
	}
	if cfg.Metrics.Enabled == nil {
		enabled := true
		cfg.Metrics.Enabled = &enabled
	}
	if cfg.Metrics.Address == "" {
		cfg.Metrics.Address = "127.0.0.1:9102"
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
	if cfg.Watch.Interval == 0 {
		cfg.Watch.Interval = 30 * time.Second
	}
	if cfg.Telegram.RepeatWindow == 0 {
		cfg.Telegram.RepeatWindow = 15 * time.Minute
	}
}

func validate(cfg *Config) error {
	if !strings.HasPrefix(cfg.RPC.URL, "http://") && !strings.HasPrefix(cfg.RPC.URL, "https://") {
		return fmt.Errorf("rpc.url must be http(s), got %q", cfg.RPC.URL)
	}
	switch cfg.RPC.Commitment {
	case "processed", "confirmed", "finalized":
	default:
		return fmt.Errorf("rpc.commitment must be processed, confirmed or finalized, got %q", cfg.RPC.Commitment)
	}
	if _, err := cfg.Programs.Resolve(); err != nil {
		return err
	}
	for _, slab := range cfg.Watch.Slabs {
		if _, err := solana.PublicKeyFromBase58(slab); err != nil {
			return fmt.Errorf("watch.slabs: invalid address %q: %w", slab, err)
		}
	}
	if cfg.Watch.Interval < 0 {
		return errors.New("watch.interval must be > 0")
	}
	if cfg.Timescale.Enabled && strings.TrimSpace(cfg.Timescale.DSN) == "" {
		return errors.New("timescale.dsn is required when timescale is enabled")
	}
	return nil
}

// Resolve parses every configured program id.
func (p ProgramsConfig) Resolve() (ProgramIDs, error) {
	var ids ProgramIDs
	fields := []struct {
		name string
		raw  string
		dst  *solana.PublicKey
	}{
		{"percolator", p.Percolator, &ids.Percolator},
		{"sovereign", p.Sovereign, &ids.Sovereign},
		{"sigma", p.Sigma, &ids.Sigma},
		{"exodus", p.Exodus, &ids.Exodus},
		{"veil", p.Veil, &ids.Veil},
		{"stratum", p.Stratum, &ids.Stratum},
	}
	for _, f := range fields {
		raw := strings.TrimSpace(f.raw)
		if raw == "" {
			continue
		}
		pk, err := solana.PublicKeyFromBase58(raw)
		if err != nil {
			return ProgramIDs{}, fmt.Errorf("programs.%s: invalid program id %q: %w", f.name, raw, err)
		}
		*f.dst = pk
	}
	return ids, nil
}

func wsFromRPC(rpcURL string) string {
	switch {
	case strings.HasPrefix(rpcURL, "https://"):
		return "wss://" + strings.TrimPrefix(rpcURL, "https://")
	case strings.HasPrefix(rpcURL, "http://"):
		return "ws://" + strings.TrimPrefix(rpcURL, "http://")
	default:
		return rpcURL
	}
}
