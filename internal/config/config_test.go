package config

import (
	"strings"
	"testing"
	"time"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{"APP_ENV", "PORT", "DATA_BACKEND", "STRICT_INVARIANTS", "SHUTDOWN_TIMEOUT", "AMQP_URL", "JWT_SECRET", "LOG_FORMAT", "SQLITE_DB_PATH"} {
		t.Setenv(key, "")
	}

	cfg := FromEnv()
	if cfg.Env != EnvDevelopment {
		t.Errorf("Env = %q, want %q", cfg.Env, EnvDevelopment)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.DataBackend != BackendSQLite {
		t.Errorf("DataBackend = %q, want sqlite", cfg.DataBackend)
	}
	if !cfg.StrictInvariants {
		t.Error("expected strict invariants by default in development")
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("ShutdownTimeout = %s, want 10s", cfg.ShutdownTimeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestFromEnv_ProductionDisablesStrict(t *testing.T) {
	t.Setenv("APP_ENV", EnvProduction)
	t.Setenv("STRICT_INVARIANTS", "")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg := FromEnv()
	if cfg.StrictInvariants {
		t.Error("expected strict invariants off in production")
	}

	t.Setenv("STRICT_INVARIANTS", "true")
	if !FromEnv().StrictInvariants {
		t.Error("explicit STRICT_INVARIANTS=true should win")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Env:             EnvDevelopment,
			Port:            "8080",
			DataBackend:     BackendMemory,
			AMQPExchange:    "splitledger",
			LogFormat:       "text",
			ShutdownTimeout: time.Second,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "bad env", mutate: func(c *Config) { c.Env = "staging" }, wantErr: "APP_ENV"},
		{name: "port not a number", mutate: func(c *Config) { c.Port = "http" }, wantErr: "must be a number"},
		{name: "port out of range", mutate: func(c *Config) { c.Port = "70000" }, wantErr: "between 1 and 65535"},
		{name: "unknown backend", mutate: func(c *Config) { c.DataBackend = "postgres" }, wantErr: "invalid data backend"},
		{name: "sqlite without path", mutate: func(c *Config) { c.DataBackend = BackendSQLite }, wantErr: "SQLITE_DB_PATH"},
		{name: "bolt without path", mutate: func(c *Config) { c.DataBackend = BackendBolt }, wantErr: "BOLT_DB_PATH"},
		{name: "amqp scheme", mutate: func(c *Config) { c.AMQPURL = "http://broker" }, wantErr: "scheme"},
		{name: "production needs secret", mutate: func(c *Config) { c.Env = EnvProduction }, wantErr: "JWT_SECRET"},
		{name: "log format", mutate: func(c *Config) { c.LogFormat = "xml" }, wantErr: "LOG_FORMAT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	cfg := &Config{Env: "x", Port: "0", DataBackend: "y", LogFormat: "text", ShutdownTimeout: time.Second}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"APP_ENV", "between 1 and 65535", "invalid data backend"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}
