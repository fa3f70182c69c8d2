package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/meetingmind/meetingmind/internal/gemini"
)

func writeConfigFile(t *testing.T, content string) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	appDir := filepath.Join(dir, "meetingmind")
	if err := os.MkdirAll(appDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(appDir, "config.toml"), []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func clearEnvOverrides(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"MEETINGMIND_DB_PATH", "MEETINGMIND_LOCALE",
		"MEETINGMIND_GEMINI_API_KEY", "MEETINGMIND_GEMINI_MODEL", "MEETINGMIND_GEMINI_BASE_URL",
		"MEETINGMIND_RECOGNIZER_SOCKET", "MEETINGMIND_FFMPEG_PATH",
		"MEETINGMIND_AUDIO_FORMAT", "MEETINGMIND_AUDIO_DEVICE", "MEETINGMIND_LOG_FILE",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	clearEnvOverrides(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Locale != DefaultLocale {
		t.Errorf("locale = %q, want %q", cfg.Locale, DefaultLocale)
	}
	if cfg.GeminiModel != gemini.DefaultModel {
		t.Errorf("model = %q, want %q", cfg.GeminiModel, gemini.DefaultModel)
	}
	if cfg.GeminiAPIKey != "" {
		t.Errorf("api key = %q, want empty", cfg.GeminiAPIKey)
	}
	if cfg.DatabasePath == "" {
		t.Error("database path empty")
	}
}

func TestLoadFromFile(t *testing.T) {
	clearEnvOverrides(t)
	writeConfigFile(t, `
database_path = "/tmp/mm-test/meetings.sqlite"
locale = "en-US"
gemini_api_key = "file-key"
audio_format = "alsa"
`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DatabasePath != "/tmp/mm-test/meetings.sqlite" {
		t.Errorf("database path = %q", cfg.DatabasePath)
	}
	if cfg.Locale != "en-US" {
		t.Errorf("locale = %q", cfg.Locale)
	}
	if cfg.GeminiAPIKey != "file-key" {
		t.Errorf("api key = %q", cfg.GeminiAPIKey)
	}
	if cfg.AudioFormat != "alsa" {
		t.Errorf("audio format = %q", cfg.AudioFormat)
	}
	// Unset keys keep their defaults.
	if cfg.GeminiModel != gemini.DefaultModel {
		t.Errorf("model = %q, want default", cfg.GeminiModel)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	clearEnvOverrides(t)
	writeConfigFile(t, `
gemini_api_key = "file-key"
locale = "en-US"
`)
	t.Setenv("MEETINGMIND_GEMINI_API_KEY", "env-key")
	t.Setenv("MEETINGMIND_LOCALE", "pt-BR")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.GeminiAPIKey != "env-key" {
		t.Errorf("api key = %q, want env override", cfg.GeminiAPIKey)
	}
	if cfg.Locale != "pt-BR" {
		t.Errorf("locale = %q, want env override", cfg.Locale)
	}
}
