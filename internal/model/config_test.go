package model

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadConfigMissingFileYieldsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AppearanceMode != AppearanceSystem {
		t.Fatalf("expected default appearance, got %q", cfg.AppearanceMode)
	}
	if cfg.ColorTheme != DefaultColorTheme {
		t.Fatalf("expected default theme, got %q", cfg.ColorTheme)
	}
	if !cfg.NotificationsEnabled {
		t.Fatalf("expected notifications enabled by default")
	}
	if cfg.DBPath == "" {
		t.Fatalf("expected a default database path")
	}
}

func TestConfigSaveRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg.AppearanceMode = AppearanceDark
	cfg.ColorTheme = "green"
	cfg.NotificationsEnabled = false
	if err := cfg.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if loaded.AppearanceMode != AppearanceDark {
		t.Fatalf("expected Dark, got %q", loaded.AppearanceMode)
	}
	if loaded.ColorTheme != "green" {
		t.Fatalf("expected green, got %q", loaded.ColorTheme)
	}
	if loaded.NotificationsEnabled {
		t.Fatalf("expected notifications off")
	}
}

func TestConfigPreservesUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "color_theme: purple\nfuture_flag: experimental\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ColorTheme != "purple" {
		t.Fatalf("expected purple, got %q", cfg.ColorTheme)
	}

	cfg.NotificationsEnabled = false
	if err := cfg.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if !strings.Contains(string(raw), "future_flag") {
		t.Fatalf("unknown key dropped on save:\n%s", raw)
	}
}

func TestSetColorThemeSignalsRestart(t *testing.T) {
	cfg := &Config{ColorTheme: DefaultColorTheme}

	if restart := cfg.SetColorTheme(DefaultColorTheme); restart {
		t.Fatalf("same theme must not request a restart")
	}
	if restart := cfg.SetColorTheme("green"); !restart {
		t.Fatalf("theme change must request a restart")
	}
	if cfg.ColorTheme != "green" {
		t.Fatalf("expected theme updated, got %q", cfg.ColorTheme)
	}
}
