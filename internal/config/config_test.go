package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8081" {
		t.Errorf("Port = %q, want 8081", cfg.Port)
	}
	if cfg.DataBackend != "memory" {
		t.Errorf("DataBackend = %q, want memory", cfg.DataBackend)
	}
	if cfg.GeneratorSeed != 0 {
		t.Errorf("GeneratorSeed = %d, want 0", cfg.GeneratorSeed)
	}
	if cfg.ScanInterval != 15*time.Minute {
		t.Errorf("ScanInterval = %v, want 15m", cfg.ScanInterval)
	}
	if cfg.AMQPExchange != "fleetlease" {
		t.Errorf("AMQPExchange = %q", cfg.AMQPExchange)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DATA_BACKEND", "sqlite")
	t.Setenv("GENERATOR_SEED", "42")
	t.Setenv("SCAN_INTERVAL", "1m")

	cfg := Load()
	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Port)
	}
	if cfg.DataBackend != "sqlite" {
		t.Errorf("DataBackend = %q, want sqlite", cfg.DataBackend)
	}
	if cfg.GeneratorSeed != 42 {
		t.Errorf("GeneratorSeed = %d, want 42", cfg.GeneratorSeed)
	}
	if cfg.ScanInterval != time.Minute {
		t.Errorf("ScanInterval = %v, want 1m", cfg.ScanInterval)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults valid", func(c *Config) {}, ""},
		{"bad port", func(c *Config) { c.Port = "http" }, "invalid port"},
		{"port out of range", func(c *Config) { c.Port = "70000" }, "invalid port"},
		{"bad backend", func(c *Config) { c.DataBackend = "sheets" }, "invalid data backend"},
		{"bad amqp scheme", func(c *Config) { c.AMQPURL = "http://localhost" }, "invalid AMQP URL scheme"},
		{"amqp without exchange", func(c *Config) { c.AMQPExchange = "" }, "exchange name cannot be empty"},
		{"scan interval too small", func(c *Config) { c.ScanInterval = time.Millisecond }, "invalid scan interval"},
		{"report without sheet name", func(c *Config) {
			c.GoogleSpreadsheetID = "sheet-id"
			c.ReportSheetName = ""
		}, "report sheet name"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Load()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("expected valid, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := Load()
	cfg.Port = "abc"
	cfg.DataBackend = "redis"
	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected error")
	}
	for _, want := range []string{"invalid port", "invalid data backend"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error missing %q: %v", want, err)
		}
	}
}
