package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFromEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	content := "TELEPROMPTER_PROFILE=academic\nSERVER_PORT=8123\nGEMINI_API_KEY=test-key\nCAPTURE_LISTEN_TIMEOUT=1500ms\nCAPTURE_PHRASE_LIMIT=4\n"
	if err := os.WriteFile(envFile, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	for _, key := range []string{"TELEPROMPTER_PROFILE", "SERVER_PORT", "GEMINI_API_KEY", "CAPTURE_LISTEN_TIMEOUT", "CAPTURE_PHRASE_LIMIT", "OPENAI_API_KEY"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := LoadFrom(envFile)
	if err != nil {
		t.Fatalf("LoadFrom returned error: %v", err)
	}

	if cfg.Profile.Name != "academic" {
		t.Fatalf("expected academic profile, got %q", cfg.Profile.Name)
	}
	if cfg.Server.Port != 8123 {
		t.Fatalf("expected port 8123, got %d", cfg.Server.Port)
	}
	if cfg.Capture.ListenTimeout != 1500*time.Millisecond {
		t.Fatalf("unexpected listen timeout %s", cfg.Capture.ListenTimeout)
	}
	if cfg.Capture.PhraseTimeLimit != 4*time.Second {
		t.Fatalf("unexpected phrase limit %s", cfg.Capture.PhraseTimeLimit)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Server:  ServerConfig{Port: 8000},
			Profile: ProfileConfig{Name: "startup"},
			Capture: CaptureConfig{Enabled: true, ListenTimeout: time.Second, PhraseTimeLimit: 10 * time.Second},
			STT:     STTConfig{OpenAI: OpenAIConfig{APIKey: "k"}},
			Control: ControlConfig{SocketPath: "/tmp/x.sock"},
		}
	}

	cases := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 0 }, wantErr: true},
		{name: "unknown profile", mutate: func(c *Config) { c.Profile.Name = "bank" }, wantErr: true},
		{name: "capture without keys", mutate: func(c *Config) { c.STT.OpenAI.APIKey = "" }, wantErr: true},
		{name: "no capture no keys", mutate: func(c *Config) {
			c.Capture.Enabled = false
			c.STT.OpenAI.APIKey = ""
		}},
		{name: "zero timeout", mutate: func(c *Config) { c.Capture.ListenTimeout = 0 }, wantErr: true},
	}

	for _, tc := range cases {
		cfg := base()
		tc.mutate(cfg)
		err := cfg.Validate()
		if (err != nil) != tc.wantErr {
			t.Fatalf("%s: Validate() error = %v, wantErr %v", tc.name, err, tc.wantErr)
		}
	}
}

func TestGetEnvDurationBareSeconds(t *testing.T) {
	t.Setenv("X_DURATION", "2")
	if got := getEnvDuration("X_DURATION", time.Second); got != 2*time.Second {
		t.Fatalf("got %s", got)
	}
	t.Setenv("X_DURATION", "garbage")
	if got := getEnvDuration("X_DURATION", time.Second); got != time.Second {
		t.Fatalf("expected default on garbage, got %s", got)
	}
}

func TestValidateProfileFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "custom.yaml")
	if err := os.WriteFile(file, []byte("name: custom\n"), 0o600); err != nil {
		t.Fatalf("write profile: %v", err)
	}

	cfg := &Config{
		Server:  ServerConfig{Port: 8000},
		Profile: ProfileConfig{Name: "custom", File: file},
		Capture: CaptureConfig{ListenTimeout: time.Second, PhraseTimeLimit: 10 * time.Second},
		Control: ControlConfig{SocketPath: "/tmp/x.sock"},
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("profile file should bypass the built-in name check: %v", err)
	}

	cfg.Profile.File = filepath.Join(t.TempDir(), "missing.yaml")
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for missing profile file")
	}

	cfg.Profile = ProfileConfig{Name: "academic"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("built-in profile rejected: %v", err)
	}
}

func TestLoadFromReadsProfileFile(t *testing.T) {
	t.Setenv("TELEPROMPTER_PROFILE_FILE", "/nonexistent/profile.yaml")
	t.Setenv("CAPTURE_ENABLED", "false")

	if _, err := LoadFrom(""); err == nil {
		t.Fatalf("expected validation error for missing profile file")
	}
}
