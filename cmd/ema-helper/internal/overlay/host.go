package overlay

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	orchestration "github.com/koscakluka/ema-helper/core"
	"github.com/koscakluka/ema-helper/core/capture"
	"github.com/koscakluka/ema-helper/core/playback"
	"github.com/koscakluka/ema-helper/core/speech/providers"
	"github.com/koscakluka/ema-helper/core/wizard"
	"github.com/koscakluka/ema-helper/internal/config"
)

// Run hosts the assistant in the terminal until the user quits or ctx is
// done.
func Run(ctx context.Context, cfg *config.Config) error {
	capability, err := providers.New(ctx, cfg.ProviderConfig())
	if err != nil {
		return fmt.Errorf("failed to configure speech: %w", err)
	}

	bridge := NewBridge()
	defer bridge.Close()

	opts := append(engineOptions(cfg), orchestration.WithSpeech(capability))

	backend, err := openAudio(cfg.Audio)
	if err != nil {
		// The engine still runs; every mic tap reports the device as
		// unavailable.
		logger.Warn("audio unavailable", "error", err)
	} else {
		defer backend.Close()
		opts = append(opts,
			orchestration.WithAudioCapture(capture.NewController(backend.source, capture.WithEncodingInfo(backend.encodingInfo))),
			orchestration.WithAudioPlayback(playback.NewController(backend.sink, playback.WithScratchDir(cfg.Audio.ScratchDir))),
		)
	}

	engine := orchestration.NewEngine(append(opts, bridge.EngineOptions()...)...)
	engine.Start(ctx)
	defer engine.Close()
	if backend != nil {
		engine.MicrophonePermissionGranted()
	}

	logger.Info("assistant started", "session_id", engine.SessionID(), "wizard", cfg.Wizard.BaseURL)

	program := tea.NewProgram(NewModel(engine, bridge, engine.SessionID()), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("terminal UI failed: %w", err)
	}
	// Unblock the engine before it is closed.
	bridge.Close()
	return nil
}

func engineOptions(cfg *config.Config) []orchestration.EngineOption {
	opts := []orchestration.EngineOption{
		orchestration.WithWizardConsole(cfg.Wizard.BaseURL,
			wizard.WithPollInterval(cfg.Wizard.PollInterval.Std()),
			wizard.WithTimeout(cfg.Wizard.Timeout.Std()),
		),
		orchestration.WithSendDelay(cfg.Session.SendDelay.Std()),
		orchestration.WithPrompts(prompts(cfg.Prompts)),
	}
	if cfg.Session.ID != "" {
		opts = append(opts, orchestration.WithSessionID(cfg.Session.ID))
	}
	return opts
}

func prompts(cfg config.Prompts) orchestration.Prompts {
	p := orchestration.DefaultPrompts()
	for target, value := range map[*string]string{
		&p.Listening:         cfg.Listening,
		&p.Repeat:            cfg.Repeat,
		&p.Retry:             cfg.Retry,
		&p.DeviceUnavailable: cfg.DeviceUnavailable,
		&p.PlaybackFailed:    cfg.PlaybackFailed,
	} {
		if value != "" {
			*target = value
		}
	}
	return p
}
