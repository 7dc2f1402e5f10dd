// Package playback plays synthesized speech through a scratch file that is
// removed exactly once whatever way playback ends.
package playback

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/koscakluka/ema-helper/core/audio"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var ErrClosed = errors.New("playback: controller closed")

// Sink renders decoded linear16 audio and blocks until it has been played or
// ctx is done.
type Sink interface {
	Play(ctx context.Context, encodingInfo audio.EncodingInfo, pcm io.Reader) error
}

// Controller keeps at most one playback running. A new Play replaces the
// running one.
type Controller struct {
	sink       Sink
	scratchDir string

	mu     sync.Mutex
	cancel context.CancelFunc
	closed bool

	wg sync.WaitGroup
}

type ControllerOption func(*Controller)

// WithScratchDir sets where scratch files are written. Defaults to the OS temp
// directory.
func WithScratchDir(dir string) ControllerOption {
	return func(c *Controller) {
		c.scratchDir = dir
	}
}

func NewController(sink Sink, opts ...ControllerOption) *Controller {
	controller := &Controller{sink: sink}
	for _, opt := range opts {
		opt(controller)
	}
	return controller
}

// Play writes speech to a scratch file and plays it asynchronously. onDone is
// called exactly once with the outcome; a replaced or stopped playback
// reports context.Canceled. An error returned from Play itself means playback
// never started and onDone will not be called.
func (c *Controller) Play(ctx context.Context, speech audio.Speech, onDone func(err error)) error {
	if onDone == nil {
		onDone = func(error) {}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}

	path, err := c.writeScratch(speech)
	if err != nil {
		return err
	}

	if c.cancel != nil {
		c.cancel()
	}
	playCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	c.cancel = cancel

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer cancel()

		err := c.play(playCtx, path, speech)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("playback failed", "error", err, "container", string(speech.Container))
		}
		onDone(err)
	}()

	return nil
}

func (c *Controller) writeScratch(speech audio.Speech) (string, error) {
	file, err := os.CreateTemp(c.scratchDir, "tts-*"+speech.Container.Extension())
	if err != nil {
		return "", fmt.Errorf("failed to create scratch file: %w", err)
	}
	path := file.Name()

	_, writeErr := file.Write(speech.Data)
	closeErr := file.Close()
	if err := errors.Join(writeErr, closeErr); err != nil {
		removeScratch(path)
		return "", fmt.Errorf("failed to write scratch file: %w", err)
	}

	return path, nil
}

func (c *Controller) play(ctx context.Context, path string, speech audio.Speech) (err error) {
	ctx, span := tracer.Start(ctx, "play")
	defer span.End()
	span.SetAttributes(
		attribute.String("container", string(speech.Container)),
		attribute.Int("bytes", len(speech.Data)),
	)

	cleanup := sync.OnceFunc(func() { removeScratch(path) })
	defer cleanup()
	defer func() {
		if err != nil && !errors.Is(err, context.Canceled) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open scratch file: %w", err)
	}
	defer file.Close()

	encodingInfo, pcm, err := audio.Decode(speech.Container, file, speech.EncodingInfo)
	if err != nil {
		return fmt.Errorf("failed to decode speech: %w", err)
	}

	if err := c.sink.Play(ctx, encodingInfo, pcm); err != nil {
		return fmt.Errorf("failed to play speech: %w", err)
	}
	return nil
}

func removeScratch(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("failed to remove scratch file", "path", path, "error", err)
	}
}

// Stop cancels the running playback, if any.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// Close stops playback and waits for every playback goroutine to finish its
// cleanup. It is safe to call more than once.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.mu.Unlock()

	c.wg.Wait()
}
