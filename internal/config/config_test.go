package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var envKeys = []string{
	"WIZARD_SERVER_URL", "EMA_SESSION_ID", "EMA_SPEECH_PROVIDER", "CLOVA_ID",
	"CLOVA_SECRET", "GEMINI_API_KEY", "DEEPGRAM_API_KEY", "EMA_AUDIO_BACKEND",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultConfigFile)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "missing.yaml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Path() != path {
		t.Fatalf("expected path %q, got %q", path, cfg.Path())
	}
	if cfg.Wizard.BaseURL != "http://localhost:8000" {
		t.Fatalf("expected default base url, got %q", cfg.Wizard.BaseURL)
	}
	if cfg.Wizard.PollInterval.Std() != 2*time.Second {
		t.Fatalf("expected default poll interval, got %s", cfg.Wizard.PollInterval.Std())
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	clearEnv(t)

	path := writeConfig(t, `
wizard:
  base_url: http://console.local:9000
  poll_interval: 500ms
speech:
  provider: deepgram
  synthesizer: clova
  clova:
    id: clova-id
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Path() != path {
		t.Fatalf("expected path %q, got %q", path, cfg.Path())
	}
	if cfg.Wizard.BaseURL != "http://console.local:9000" {
		t.Fatalf("expected file base url, got %q", cfg.Wizard.BaseURL)
	}
	if cfg.Wizard.PollInterval.Std() != 500*time.Millisecond {
		t.Fatalf("expected 500ms poll interval, got %s", cfg.Wizard.PollInterval.Std())
	}
	if cfg.Wizard.Timeout.Std() != 10*time.Second {
		t.Fatalf("expected default timeout to survive, got %s", cfg.Wizard.Timeout.Std())
	}
	if cfg.Prompts.Repeat == "" {
		t.Fatalf("expected default prompts to survive")
	}

	providerConfig := cfg.ProviderConfig()
	if providerConfig.Provider != "deepgram" || providerConfig.Synthesizer != "clova" || providerConfig.ClovaID != "clova-id" {
		t.Fatalf("unexpected provider config %+v", providerConfig)
	}
}

func TestEnvironmentOverridesFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("WIZARD_SERVER_URL", "https://wizard.example.com")
	t.Setenv("EMA_AUDIO_BACKEND", BackendPortaudio)
	t.Setenv("GEMINI_API_KEY", "gemini-key")

	path := writeConfig(t, "wizard:\n  base_url: http://console.local:9000\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Wizard.BaseURL != "https://wizard.example.com" {
		t.Fatalf("expected environment base url, got %q", cfg.Wizard.BaseURL)
	}
	if cfg.Audio.Backend != BackendPortaudio {
		t.Fatalf("expected portaudio backend, got %q", cfg.Audio.Backend)
	}
	if cfg.Speech.Gemini.APIKey != "gemini-key" {
		t.Fatalf("expected gemini key from environment, got %q", cfg.Speech.Gemini.APIKey)
	}
	if cfg.Path() != path {
		t.Fatalf("expected path %q to survive the environment overlay, got %q", path, cfg.Path())
	}
}

func TestLoadEnvFileDoesNotOverrideEnvironment(t *testing.T) {
	clearEnv(t)
	os.Unsetenv("EMA_SESSION_ID")
	t.Setenv("EMA_SPEECH_PROVIDER", "gemini")

	envPath := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(envPath, []byte("EMA_SESSION_ID=4321\nEMA_SPEECH_PROVIDER=deepgram\n"), 0o600); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}

	if err := LoadEnvFile(envPath); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Session.ID != "4321" {
		t.Fatalf("expected session id from env file, got %q", cfg.Session.ID)
	}
	if cfg.Speech.Provider != "gemini" {
		t.Fatalf("expected process environment to win, got %q", cfg.Speech.Provider)
	}

	if err := LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("expected missing env file to be ignored, got %v", err)
	}
}

func TestLoadRejectsMalformedDuration(t *testing.T) {
	clearEnv(t)

	path := writeConfig(t, "wizard:\n  poll_interval: often\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected malformed duration to fail")
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.Wizard.BaseURL = "console.local"
	cfg.Wizard.PollInterval = 0
	cfg.Speech.Provider = "whisper"
	cfg.Speech.Transcriber = "siri"
	cfg.Audio.Backend = "alsa"

	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected validation errors")
	}
	for _, fragment := range []string{"wizard.base_url", "wizard.poll_interval", "speech.provider", "speech.transcriber", "audio.backend"} {
		if !strings.Contains(err.Error(), fragment) {
			t.Fatalf("expected error to mention %s, got %v", fragment, err)
		}
	}
}

func TestRedactedMasksCredentials(t *testing.T) {
	cfg := Default()
	cfg.Speech.Clova.ID = "visible"
	cfg.Speech.Clova.Secret = "secret"
	cfg.Speech.Deepgram.APIKey = "key"

	redacted := cfg.Redacted()
	if redacted.Speech.Clova.Secret != "****" || redacted.Speech.Deepgram.APIKey != "****" {
		t.Fatalf("expected credentials to be masked, got %+v", redacted.Speech)
	}
	if redacted.Speech.Clova.ID != "visible" || redacted.Speech.Gemini.APIKey != "" {
		t.Fatalf("expected non-secret and empty values untouched, got %+v", redacted.Speech)
	}
	if cfg.Speech.Clova.Secret != "secret" {
		t.Fatalf("expected original to be untouched")
	}

	data, err := redacted.YAML()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if strings.Contains(string(data), "secret: secret") {
		t.Fatalf("expected secret not to be rendered, got %s", data)
	}
	if !strings.Contains(string(data), "poll_interval: 2s") {
		t.Fatalf("expected durations to render as strings, got %s", data)
	}
}

func TestSchemaDescribesConfigFile(t *testing.T) {
	data, err := Schema()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	schema := string(data)
	for _, fragment := range []string{`"poll_interval"`, `"base_url"`, `"deepgram"`, `"Go duration string, e.g. 2s"`} {
		if !strings.Contains(schema, fragment) {
			t.Fatalf("expected schema to contain %s", fragment)
		}
	}
}
