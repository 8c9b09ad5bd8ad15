package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Agent.BaseURL != DefaultAgentURL {
		t.Errorf("unexpected agent URL %q", cfg.Agent.BaseURL)
	}
	if cfg.Agent.PushURL != DefaultPushURL {
		t.Errorf("unexpected push URL %q", cfg.Agent.PushURL)
	}
	if cfg.Speech.Locale != DefaultLocale || cfg.Speech.Rate != DefaultRate {
		t.Errorf("unexpected speech defaults: %+v", cfg.Speech)
	}
	if cfg.Session.RequestTimeout != 15*time.Second {
		t.Errorf("unexpected request timeout %v", cfg.Session.RequestTimeout)
	}
	if cfg.Agent.Reconnect {
		t.Error("reconnection should be off by default")
	}
	if cfg.Server.Port != "8000" {
		t.Errorf("unexpected server port %q", cfg.Server.Port)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `agent:
  base_url: http://10.0.0.5:9000
  push_url: ws://10.0.0.5:9000/ws/medias
  reconnect: true
  reconnect_interval: 10s
speech:
  locale: en-US
  rate: 1.0
session:
  request_timeout: 30s
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Agent.BaseURL != "http://10.0.0.5:9000" {
		t.Errorf("unexpected agent URL %q", cfg.Agent.BaseURL)
	}
	if !cfg.Agent.Reconnect || cfg.Agent.ReconnectInterval != 10*time.Second {
		t.Errorf("unexpected reconnect settings: %+v", cfg.Agent)
	}
	if cfg.Speech.Locale != "en-US" || cfg.Speech.Rate != 1.0 {
		t.Errorf("unexpected speech config: %+v", cfg.Speech)
	}
	if cfg.Session.RequestTimeout != 30*time.Second {
		t.Errorf("unexpected request timeout %v", cfg.Session.RequestTimeout)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("unexpected log level %q", cfg.Log.Level)
	}
	// Fields the file omits still get defaults.
	if cfg.Server.Port != "8000" {
		t.Errorf("unexpected server port %q", cfg.Server.Port)
	}
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("TEST_AGENT_HOST", "10.1.2.3")

	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "agent:\n  base_url: http://${TEST_AGENT_HOST}:8000\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Agent.BaseURL != "http://10.1.2.3:8000" {
		t.Errorf("env not expanded: %q", cfg.Agent.BaseURL)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
