package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

const (
	DefaultHost             = "0.0.0.0"
	DefaultPort             = 10000
	DefaultBufSize          = 100
	DefaultCooldownSec      = 30
	DefaultPointsThreshold  = 40
	DefaultAbsenceThreshold = 3
	DefaultHistoryWindow    = 50
	DefaultVerifyWindow     = 3
	DefaultLogLevel         = "info"
)

type Config struct {
	Telegram TelegramConfig `json:"telegram"`
	Engine   EngineConfig   `json:"engine"`
	Gateway  GatewayConfig  `json:"gateway"`
	DataDir  string         `json:"dataDir"`
	LogLevel string         `json:"logLevel"`
}

type TelegramConfig struct {
	Enabled     bool   `json:"enabled"`
	Token       string `json:"token"`
	Proxy       string `json:"proxy,omitempty"`
	AdminChatID int64  `json:"adminChatId,omitempty"`
}

// EngineConfig holds the prediction thresholds. Deployed variants of this
// bot disagreed on several of these values, so all of them are named
// configuration rather than constants.
type EngineConfig struct {
	CooldownSec         int   `json:"cooldownSec"`
	PointsThreshold     int   `json:"pointsThreshold"`
	AbsenceThreshold    int   `json:"absenceThreshold"`
	HistoryWindow       int   `json:"historyWindow"`
	VerifyWindow        int   `json:"verifyWindow"`
	SourceChannelID     int64 `json:"sourceChannelId,omitempty"`
	PredictionChannelID int64 `json:"predictionChannelId,omitempty"`
}

// GatewayConfig is the health/metrics HTTP listener.
type GatewayConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

func DefaultConfig() *Config {
	return &Config{
		Telegram: TelegramConfig{},
		Engine: EngineConfig{
			CooldownSec:      DefaultCooldownSec,
			PointsThreshold:  DefaultPointsThreshold,
			AbsenceThreshold: DefaultAbsenceThreshold,
			HistoryWindow:    DefaultHistoryWindow,
			VerifyWindow:     DefaultVerifyWindow,
		},
		Gateway: GatewayConfig{
			Host: DefaultHost,
			Port: DefaultPort,
		},
		DataDir:  filepath.Join(ConfigDir(), "data"),
		LogLevel: DefaultLogLevel,
	}
}

func ConfigDir() string {
	home := os.Getenv("HOME")
	if home == "" {
		home, _ = os.UserHomeDir()
	}
	return filepath.Join(home, ".damebot")
}

func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.json")
}

func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides take precedence over the file;
	// names match what hosting platforms inject.
	if token := os.Getenv("BOT_TOKEN"); token != "" {
		cfg.Telegram.Token = token
		cfg.Telegram.Enabled = true
	}
	if id := os.Getenv("ADMIN_CHAT_ID"); id != "" {
		if parsed, err := strconv.ParseInt(id, 10, 64); err == nil {
			cfg.Telegram.AdminChatID = parsed
		}
	}
	if id := os.Getenv("TARGET_CHANNEL_ID"); id != "" {
		if parsed, err := strconv.ParseInt(id, 10, 64); err == nil {
			cfg.Engine.SourceChannelID = parsed
		}
	}
	if id := os.Getenv("PREDICTION_CHANNEL_ID"); id != "" {
		if parsed, err := strconv.ParseInt(id, 10, 64); err == nil {
			cfg.Engine.PredictionChannelID = parsed
		}
	}
	if port := os.Getenv("PORT"); port != "" {
		if parsed, err := strconv.Atoi(port); err == nil {
			cfg.Gateway.Port = parsed
		}
	}
	if dir := os.Getenv("DAMEBOT_DATA_DIR"); dir != "" {
		cfg.DataDir = dir
	}
	if level := os.Getenv("DAMEBOT_LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}

	if cfg.DataDir == "" {
		cfg.DataDir = DefaultConfig().DataDir
	}
	if cfg.Engine.CooldownSec <= 0 {
		cfg.Engine.CooldownSec = DefaultCooldownSec
	}
	if cfg.Engine.HistoryWindow <= 0 {
		cfg.Engine.HistoryWindow = DefaultHistoryWindow
	}

	return cfg, nil
}

func SaveConfig(cfg *Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(ConfigPath(), data, 0o644)
}
