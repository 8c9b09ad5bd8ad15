package session

import (
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
	if cfg.Locale != "zh-CN" {
		t.Errorf("unexpected default locale %q", cfg.Locale)
	}
	if cfg.RequestTimeout != 15*time.Second {
		t.Errorf("unexpected default timeout %v", cfg.RequestTimeout)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"zero timeout disables the bound", func(c *Config) { c.RequestTimeout = 0 }, false},
		{"missing locale", func(c *Config) { c.Locale = "" }, true},
		{"zero rate", func(c *Config) { c.Rate = 0 }, true},
		{"negative rate", func(c *Config) { c.Rate = -1 }, true},
		{"negative timeout", func(c *Config) { c.RequestTimeout = -time.Second }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestConfigWithMethodsReturnCopies(t *testing.T) {
	base := DefaultConfig()
	modified := base.WithLocale("en-US").WithRate(1.0).WithRequestTimeout(time.Minute)

	if base.Locale != "zh-CN" || base.Rate != 1.2 || base.RequestTimeout != 15*time.Second {
		t.Errorf("base config mutated: %+v", base)
	}
	if modified.Locale != "en-US" || modified.Rate != 1.0 || modified.RequestTimeout != time.Minute {
		t.Errorf("unexpected modified config: %+v", modified)
	}
}
