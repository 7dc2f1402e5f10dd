// Package config loads the ema-helper configuration: defaults, then the YAML
// file, then a .env file and process environment overrides.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/invopop/jsonschema"
	"github.com/jinzhu/copier"
	"github.com/joho/godotenv"
	"github.com/koscakluka/ema-helper/core/speech/providers"
)

const (
	DefaultBaseDir    = ".ema-helper"
	DefaultConfigFile = "config.yaml"
	DefaultEnvFile    = ".env"
)

const (
	BackendMiniaudio = "miniaudio"
	BackendPortaudio = "portaudio"
)

type Config struct {
	Wizard  Wizard  `yaml:"wizard,omitempty" jsonschema:"description=Wizard console connection"`
	Session Session `yaml:"session,omitempty"`
	Speech  Speech  `yaml:"speech,omitempty" jsonschema:"description=Speech vendors used for transcription and synthesis"`
	Audio   Audio   `yaml:"audio,omitempty"`
	Prompts Prompts `yaml:"prompts,omitempty" jsonschema:"description=Notices shown to the user"`

	path string
}

type Wizard struct {
	BaseURL      string   `yaml:"base_url,omitempty" jsonschema:"format=uri"`
	PollInterval Duration `yaml:"poll_interval,omitempty" jsonschema_description:"Go duration string, e.g. 2s"`
	Timeout      Duration `yaml:"timeout,omitempty" jsonschema_description:"Go duration string, e.g. 10s"`
}

type Session struct {
	// ID replaces the generated four digit code when set.
	ID        string   `yaml:"id,omitempty"`
	SendDelay Duration `yaml:"send_delay,omitempty" jsonschema_description:"Go duration string, e.g. 1s"`
}

type Speech struct {
	Provider    string   `yaml:"provider,omitempty" jsonschema:"enum=clova,enum=gemini,enum=deepgram"`
	Transcriber string   `yaml:"transcriber,omitempty" jsonschema:"enum=clova,enum=gemini,enum=deepgram"`
	Synthesizer string   `yaml:"synthesizer,omitempty" jsonschema:"enum=clova,enum=gemini,enum=deepgram"`
	Clova       Clova    `yaml:"clova,omitempty"`
	Gemini      Gemini   `yaml:"gemini,omitempty"`
	Deepgram    Deepgram `yaml:"deepgram,omitempty"`
}

type Clova struct {
	ID       string `yaml:"id,omitempty"`
	Secret   string `yaml:"secret,omitempty"`
	Speaker  string `yaml:"speaker,omitempty"`
	Language string `yaml:"language,omitempty"`
	BaseURL  string `yaml:"base_url,omitempty"`
}

type Gemini struct {
	APIKey  string `yaml:"api_key,omitempty"`
	Voice   string `yaml:"voice,omitempty"`
	BaseURL string `yaml:"base_url,omitempty"`
}

type Deepgram struct {
	APIKey  string `yaml:"api_key,omitempty"`
	Voice   string `yaml:"voice,omitempty"`
	BaseURL string `yaml:"base_url,omitempty"`
}

type Audio struct {
	Backend    string `yaml:"backend,omitempty" jsonschema:"enum=miniaudio,enum=portaudio"`
	ScratchDir string `yaml:"scratch_dir,omitempty"`
	// BufferSize is the PortAudio read size in frames.
	BufferSize int `yaml:"buffer_size,omitempty" jsonschema:"minimum=1"`
}

type Prompts struct {
	Listening         string `yaml:"listening,omitempty"`
	Repeat            string `yaml:"repeat,omitempty"`
	Retry             string `yaml:"retry,omitempty"`
	DeviceUnavailable string `yaml:"device_unavailable,omitempty"`
	PlaybackFailed    string `yaml:"playback_failed,omitempty"`
}

func Default() Config {
	return Config{
		Wizard: Wizard{
			BaseURL:      "http://localhost:8000",
			PollInterval: Duration(2 * time.Second),
			Timeout:      Duration(10 * time.Second),
		},
		Session: Session{SendDelay: Duration(time.Second)},
		Speech:  Speech{Provider: string(providers.Clova)},
		Audio: Audio{
			Backend:    BackendMiniaudio,
			ScratchDir: os.TempDir(),
			BufferSize: 1024,
		},
		Prompts: Prompts{
			Listening:         "듣고 있어요...",
			Repeat:            "다시 말씀해주세요.",
			Retry:             "전송하지 못했어요. 다시 시도해주세요.",
			DeviceUnavailable: "마이크를 사용할 수 없어요.",
			PlaybackFailed:    "답변을 재생하지 못했어요.",
		},
	}
}

func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, DefaultBaseDir, DefaultConfigFile), nil
}

// Load reads the config file at path, or the default location when path is
// empty. A missing file yields the defaults. Environment overrides are applied
// last; see [LoadEnvFile] for .env support.
func Load(path string) (*Config, error) {
	if path == "" {
		var err error
		if path, err = DefaultPath(); err != nil {
			return nil, err
		}
	}

	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		var file Config
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
		if err := merge(&cfg, &file); err != nil {
			return nil, err
		}
	}

	env := fromEnv(os.LookupEnv)
	if err := merge(&cfg, &env); err != nil {
		return nil, err
	}
	// merge copies over unexported fields as well.
	cfg.path = path

	return &cfg, nil
}

// LoadEnvFile loads variables from a .env file without overriding variables
// that are already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		path = DefaultEnvFile
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// merge copies every non-empty value of src over dst.
func merge(dst, src *Config) error {
	if err := copier.CopyWithOption(dst, src, copier.Option{IgnoreEmpty: true, DeepCopy: true}); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

func fromEnv(lookup func(string) (string, bool)) Config {
	get := func(key string) string {
		value, _ := lookup(key)
		return strings.TrimSpace(value)
	}

	var cfg Config
	cfg.Wizard.BaseURL = get("WIZARD_SERVER_URL")
	cfg.Session.ID = get("EMA_SESSION_ID")
	cfg.Speech.Provider = get("EMA_SPEECH_PROVIDER")
	cfg.Speech.Clova.ID = get("CLOVA_ID")
	cfg.Speech.Clova.Secret = get("CLOVA_SECRET")
	cfg.Speech.Gemini.APIKey = get("GEMINI_API_KEY")
	cfg.Speech.Deepgram.APIKey = get("DEEPGRAM_API_KEY")
	cfg.Audio.Backend = get("EMA_AUDIO_BACKEND")
	return cfg
}

func (c *Config) Path() string { return c.path }

func (c *Config) Validate() error {
	var errs []error

	if u, err := url.Parse(c.Wizard.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("wizard.base_url must be an http(s) URL, got %q", c.Wizard.BaseURL))
	}
	if c.Wizard.PollInterval <= 0 {
		errs = append(errs, errors.New("wizard.poll_interval must be positive"))
	}
	if c.Wizard.Timeout <= 0 {
		errs = append(errs, errors.New("wizard.timeout must be positive"))
	}
	if c.Session.SendDelay < 0 {
		errs = append(errs, errors.New("session.send_delay must not be negative"))
	}

	if !providers.Name(c.Speech.Provider).Valid() {
		errs = append(errs, fmt.Errorf("unknown speech.provider %q", c.Speech.Provider))
	}
	for field, name := range map[string]string{"speech.transcriber": c.Speech.Transcriber, "speech.synthesizer": c.Speech.Synthesizer} {
		if name != "" && !providers.Name(name).Valid() {
			errs = append(errs, fmt.Errorf("unknown %s %q", field, name))
		}
	}

	switch c.Audio.Backend {
	case BackendMiniaudio, BackendPortaudio:
	default:
		errs = append(errs, fmt.Errorf("unknown audio.backend %q", c.Audio.Backend))
	}
	if c.Audio.BufferSize <= 0 {
		errs = append(errs, errors.New("audio.buffer_size must be positive"))
	}

	return errors.Join(errs...)
}

func (c *Config) ProviderConfig() providers.Config {
	return providers.Config{
		Provider:    providers.Name(c.Speech.Provider),
		Transcriber: providers.Name(c.Speech.Transcriber),
		Synthesizer: providers.Name(c.Speech.Synthesizer),

		ClovaID:       c.Speech.Clova.ID,
		ClovaSecret:   c.Speech.Clova.Secret,
		ClovaSpeaker:  c.Speech.Clova.Speaker,
		ClovaLanguage: c.Speech.Clova.Language,
		ClovaBaseURL:  c.Speech.Clova.BaseURL,

		GeminiAPIKey:  c.Speech.Gemini.APIKey,
		GeminiVoice:   c.Speech.Gemini.Voice,
		GeminiBaseURL: c.Speech.Gemini.BaseURL,

		DeepgramAPIKey:  c.Speech.Deepgram.APIKey,
		DeepgramVoice:   c.Speech.Deepgram.Voice,
		DeepgramBaseURL: c.Speech.Deepgram.BaseURL,
	}
}

// Redacted returns a copy with credentials masked, for display.
func (c Config) Redacted() Config {
	mask := func(secret *string) {
		if *secret != "" {
			*secret = "****"
		}
	}
	mask(&c.Speech.Clova.Secret)
	mask(&c.Speech.Gemini.APIKey)
	mask(&c.Speech.Deepgram.APIKey)
	return c
}

// YAML renders the config the way it is written on disk.
func (c Config) YAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

// Schema returns the JSON schema of the config file.
func Schema() ([]byte, error) {
	reflector := jsonschema.Reflector{
		FieldNameTag:              "yaml",
		DoNotReference:            true,
		AllowAdditionalProperties: false,
	}
	schema := reflector.Reflect(&Config{})
	schema.Title = "ema-helper configuration"

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config schema: %w", err)
	}
	return data, nil
}
