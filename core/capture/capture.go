// Package capture arms the microphone, buffers what it hears and hands the
// result back as a single clip.
package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/koscakluka/ema-helper/core/audio"
)

var (
	ErrDeviceUnavailable = errors.New("capture: device unavailable")
	ErrAlreadyCapturing  = errors.New("capture: already capturing")
)

// Source is a microphone backend. onAudio is called from the backend's own
// capture thread and must copy the buffer if it keeps it.
type Source interface {
	StartCapture(ctx context.Context, onAudio func(audio []byte)) error
	StopCapture() error
}

// Controller owns at most one armed capture at a time.
type Controller struct {
	source       Source
	encodingInfo audio.EncodingInfo

	mu         sync.Mutex
	permission bool
	armed      bool

	bufferMu sync.Mutex
	// buffer grows without a cap while armed; utterances are expected to be
	// short and no duration limit is imposed.
	buffer bytes.Buffer
}

type ControllerOption func(*Controller)

func WithEncodingInfo(encodingInfo audio.EncodingInfo) ControllerOption {
	return func(c *Controller) {
		c.encodingInfo = encodingInfo
	}
}

// WithPermission starts the controller with microphone access already
// granted, for hosts that have no permission flow.
func WithPermission() ControllerOption {
	return func(c *Controller) {
		c.permission = true
	}
}

func NewController(source Source, opts ...ControllerOption) *Controller {
	controller := &Controller{
		source:       source,
		encodingInfo: audio.GetDefaultEncodingInfo(),
	}
	for _, opt := range opts {
		opt(controller)
	}
	return controller
}

// SetPermission records whether the host granted microphone access.
// Revoking it does not stop an armed capture.
func (c *Controller) SetPermission(granted bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.permission = granted
}

func (c *Controller) IsCapturing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.armed
}

func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.armed {
		return ErrAlreadyCapturing
	}
	if !c.permission || c.source == nil {
		return ErrDeviceUnavailable
	}

	c.bufferMu.Lock()
	c.buffer.Reset()
	c.bufferMu.Unlock()

	if err := c.source.StartCapture(ctx, c.appendAudio); err != nil {
		return fmt.Errorf("%w: %w", ErrDeviceUnavailable, err)
	}

	c.armed = true
	logger.Debug("capture started", "encoding", c.encodingInfo.String())
	return nil
}

func (c *Controller) appendAudio(audio []byte) {
	c.bufferMu.Lock()
	defer c.bufferMu.Unlock()
	c.buffer.Write(audio)
}

// Stop releases the device and returns everything captured since Start. When
// nothing is armed it returns an empty clip.
func (c *Controller) Stop() (audio.Clip, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.armed {
		return audio.EmptyClip(c.encodingInfo), nil
	}
	c.armed = false

	stopErr := c.source.StopCapture()

	c.bufferMu.Lock()
	data := bytes.Clone(c.buffer.Bytes())
	c.buffer.Reset()
	c.bufferMu.Unlock()

	clip := audio.Clip{Data: data, EncodingInfo: c.encodingInfo}
	logger.Debug("capture stopped", "bytes", len(data), "duration", clip.Duration())

	if stopErr != nil {
		return clip, fmt.Errorf("failed to stop capture: %w", stopErr)
	}
	return clip, nil
}

// Discard stops an armed capture and drops its audio.
func (c *Controller) Discard() {
	if _, err := c.Stop(); err != nil {
		logger.Warn("failed to discard capture", "error", err)
	}
}
