package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	if cfg.Port != "8080" {
		t.Fatalf("unexpected default port %q", cfg.Port)
	}
	if cfg.QuestionDefaultTimeMs != 20_000 {
		t.Fatalf("unexpected default question time %d", cfg.QuestionDefaultTimeMs)
	}
	if cfg.PinLength != 6 || cfg.MaxPlayerNameLen != 20 || cfg.MaxPlayers != 100 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.RateLimits["submit-answer"] != 3 {
		t.Fatalf("unexpected submit-answer limit %d", cfg.RateLimits["submit-answer"])
	}
}

func TestLoadMissingFileKeepsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != Default().Port {
		t.Fatalf("missing file must keep defaults, got port %q", cfg.Port)
	}
}

func TestLoadYAMLOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("port: \"9000\"\nmaxPlayers: 12\nrateLimits:\n  submit-answer: 7\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9000" {
		t.Fatalf("expected yaml port override, got %q", cfg.Port)
	}
	if cfg.MaxPlayers != 12 {
		t.Fatalf("expected yaml maxPlayers override, got %d", cfg.MaxPlayers)
	}
	if cfg.RateLimits["submit-answer"] != 7 {
		t.Fatalf("expected yaml rate limit override, got %d", cfg.RateLimits["submit-answer"])
	}
	// untouched keys keep their defaults
	if cfg.CountdownMs != Default().CountdownMs {
		t.Fatalf("unexpected countdown %d", cfg.CountdownMs)
	}
}

func TestEnvOverridesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("port: \"9000\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("PORT", "9999")
	t.Setenv("MIN_PLAYERS_TO_START", "2")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9999" {
		t.Fatalf("env must win over yaml, got %q", cfg.Port)
	}
	if cfg.MinPlayersToStart != 2 {
		t.Fatalf("expected env min players, got %d", cfg.MinPlayersToStart)
	}
}

func TestBadEnvIntIsIgnored(t *testing.T) {
	t.Setenv("MAX_PLAYERS", "lots")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.MaxPlayers != Default().MaxPlayers {
		t.Fatalf("unparseable env int must fall back, got %d", cfg.MaxPlayers)
	}
}
