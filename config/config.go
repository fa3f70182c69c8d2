// Package config loads settings from an optional TOML file with environment
// overrides on top. Everything has a usable default except the API key.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/meetingmind/meetingmind/internal/capture"
	"github.com/meetingmind/meetingmind/internal/db"
	"github.com/meetingmind/meetingmind/internal/gemini"
	"github.com/meetingmind/meetingmind/internal/recognizer"
)

// DefaultLocale is the speech-recognition language tag used when none is
// configured.
const DefaultLocale = "es-ES"

type Config struct {
	DatabasePath string
	Locale       string

	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string

	RecognizerSocket string

	FFmpegPath  string
	AudioFormat string
	AudioDevice string

	LogFile string
}

type fileConfig struct {
	DatabasePath string `toml:"database_path"`
	Locale       string `toml:"locale"`

	GeminiAPIKey  string `toml:"gemini_api_key"`
	GeminiModel   string `toml:"gemini_model"`
	GeminiBaseURL string `toml:"gemini_base_url"`

	RecognizerSocket string `toml:"recognizer_socket"`

	FFmpegPath  string `toml:"ffmpeg_path"`
	AudioFormat string `toml:"audio_format"`
	AudioDevice string `toml:"audio_device"`

	LogFile string `toml:"log_file"`
}

// Load reads the config file if one exists, then applies MEETINGMIND_*
// environment overrides.
func Load() (*Config, error) {
	cfg := &Config{
		DatabasePath:     db.DefaultPath(),
		Locale:           DefaultLocale,
		GeminiModel:      gemini.DefaultModel,
		GeminiBaseURL:    gemini.DefaultBaseURL,
		RecognizerSocket: recognizer.DefaultSocketPath(),
		FFmpegPath:       capture.DefaultFFmpegPath,
		AudioFormat:      capture.DefaultFormat,
		AudioDevice:      capture.DefaultDevice,
	}

	if path := configFilePath(); path != "" {
		var fc fileConfig
		if _, err := toml.DecodeFile(path, &fc); err == nil {
			applyFile(cfg, &fc)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

func applyFile(cfg *Config, fc *fileConfig) {
	if fc.DatabasePath != "" {
		cfg.DatabasePath = expandTilde(fc.DatabasePath)
	}
	if fc.Locale != "" {
		cfg.Locale = fc.Locale
	}
	if fc.GeminiAPIKey != "" {
		cfg.GeminiAPIKey = fc.GeminiAPIKey
	}
	if fc.GeminiModel != "" {
		cfg.GeminiModel = fc.GeminiModel
	}
	if fc.GeminiBaseURL != "" {
		cfg.GeminiBaseURL = fc.GeminiBaseURL
	}
	if fc.RecognizerSocket != "" {
		cfg.RecognizerSocket = expandTilde(fc.RecognizerSocket)
	}
	if fc.FFmpegPath != "" {
		cfg.FFmpegPath = fc.FFmpegPath
	}
	if fc.AudioFormat != "" {
		cfg.AudioFormat = fc.AudioFormat
	}
	if fc.AudioDevice != "" {
		cfg.AudioDevice = fc.AudioDevice
	}
	if fc.LogFile != "" {
		cfg.LogFile = expandTilde(fc.LogFile)
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MEETINGMIND_DB_PATH"); v != "" {
		cfg.DatabasePath = expandTilde(v)
	}
	if v := os.Getenv("MEETINGMIND_LOCALE"); v != "" {
		cfg.Locale = v
	}
	if v := os.Getenv("MEETINGMIND_GEMINI_API_KEY"); v != "" {
		cfg.GeminiAPIKey = v
	}
	if v := os.Getenv("MEETINGMIND_GEMINI_MODEL"); v != "" {
		cfg.GeminiModel = v
	}
	if v := os.Getenv("MEETINGMIND_GEMINI_BASE_URL"); v != "" {
		cfg.GeminiBaseURL = v
	}
	if v := os.Getenv("MEETINGMIND_RECOGNIZER_SOCKET"); v != "" {
		cfg.RecognizerSocket = expandTilde(v)
	}
	if v := os.Getenv("MEETINGMIND_FFMPEG_PATH"); v != "" {
		cfg.FFmpegPath = v
	}
	if v := os.Getenv("MEETINGMIND_AUDIO_FORMAT"); v != "" {
		cfg.AudioFormat = v
	}
	if v := os.Getenv("MEETINGMIND_AUDIO_DEVICE"); v != "" {
		cfg.AudioDevice = v
	}
	if v := os.Getenv("MEETINGMIND_LOG_FILE"); v != "" {
		cfg.LogFile = expandTilde(v)
	}
}

func configFilePath() string {
	var configDir string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		configDir = filepath.Join(xdg, "meetingmind")
	} else if home, err := os.UserHomeDir(); err == nil {
		configDir = filepath.Join(home, ".config", "meetingmind")
	} else {
		return ""
	}

	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}

func expandTilde(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
