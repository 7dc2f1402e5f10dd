package capture

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

type fakeSource struct {
	mu      sync.Mutex
	onAudio func([]byte)

	startErr   error
	startCalls atomic.Int32
	stopCalls  atomic.Int32
}

func (f *fakeSource) StartCapture(_ context.Context, onAudio func([]byte)) error {
	f.startCalls.Add(1)
	if f.startErr != nil {
		return f.startErr
	}
	f.mu.Lock()
	f.onAudio = onAudio
	f.mu.Unlock()
	return nil
}

func (f *fakeSource) StopCapture() error {
	f.stopCalls.Add(1)
	f.mu.Lock()
	f.onAudio = nil
	f.mu.Unlock()
	return nil
}

func (f *fakeSource) emit(audio []byte) {
	f.mu.Lock()
	onAudio := f.onAudio
	f.mu.Unlock()
	if onAudio != nil {
		onAudio(audio)
	}
}

func TestStopWithoutStartReturnsEmptyClip(t *testing.T) {
	source := &fakeSource{}
	controller := NewController(source, WithPermission())

	clip, err := controller.Stop()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !clip.IsEmpty() {
		t.Fatalf("expected empty clip, got %d bytes", len(clip.Data))
	}
	if source.stopCalls.Load() != 0 {
		t.Fatalf("expected device not to be touched")
	}
}

func TestStartWhileArmedFailsAndKeepsCapture(t *testing.T) {
	source := &fakeSource{}
	controller := NewController(source, WithPermission())

	if err := controller.Start(context.Background()); err != nil {
		t.Fatalf("expected first start to succeed, got %v", err)
	}
	source.emit([]byte{1, 2})

	if err := controller.Start(context.Background()); !errors.Is(err, ErrAlreadyCapturing) {
		t.Fatalf("expected ErrAlreadyCapturing, got %v", err)
	}
	if got := source.startCalls.Load(); got != 1 {
		t.Fatalf("expected device started once, got %d", got)
	}

	source.emit([]byte{3, 4})
	clip, err := controller.Stop()
	if err != nil {
		t.Fatalf("expected stop to succeed, got %v", err)
	}
	if string(clip.Data) != string([]byte{1, 2, 3, 4}) {
		t.Fatalf("expected capture to keep accumulating, got %v", clip.Data)
	}
}

func TestStartWithoutPermissionIsDeviceUnavailable(t *testing.T) {
	source := &fakeSource{}
	controller := NewController(source)

	if err := controller.Start(context.Background()); !errors.Is(err, ErrDeviceUnavailable) {
		t.Fatalf("expected ErrDeviceUnavailable, got %v", err)
	}
	if source.startCalls.Load() != 0 {
		t.Fatalf("expected device not to be opened without permission")
	}

	controller.SetPermission(true)
	if err := controller.Start(context.Background()); err != nil {
		t.Fatalf("expected start after permission, got %v", err)
	}
}

func TestDeviceFailureIsDeviceUnavailable(t *testing.T) {
	cause := errors.New("device busy")
	controller := NewController(&fakeSource{startErr: cause}, WithPermission())

	err := controller.Start(context.Background())
	if !errors.Is(err, ErrDeviceUnavailable) || !errors.Is(err, cause) {
		t.Fatalf("expected ErrDeviceUnavailable wrapping the cause, got %v", err)
	}
	if controller.IsCapturing() {
		t.Fatalf("expected controller to stay disarmed")
	}
}

func TestStopCopiesBufferAndResets(t *testing.T) {
	source := &fakeSource{}
	controller := NewController(source, WithPermission())

	_ = controller.Start(context.Background())
	frame := []byte{9, 9}
	source.emit(frame)
	frame[0] = 0

	clip, _ := controller.Stop()
	if clip.Data[0] != 9 {
		t.Fatalf("expected captured audio to be copied out of the device buffer")
	}

	_ = controller.Start(context.Background())
	second, _ := controller.Stop()
	if !second.IsEmpty() {
		t.Fatalf("expected a fresh buffer per capture, got %d bytes", len(second.Data))
	}
}

func TestDiscardReleasesDeviceAndDropsAudio(t *testing.T) {
	source := &fakeSource{}
	controller := NewController(source, WithPermission())

	if err := controller.Start(context.Background()); err != nil {
		t.Fatalf("unexpected start error: %v", err)
	}
	source.emit([]byte{1, 2, 3})

	controller.Discard()
	if got := source.stopCalls.Load(); got != 1 {
		t.Fatalf("expected device to be stopped once, got %d", got)
	}

	if err := controller.Start(context.Background()); err != nil {
		t.Fatalf("expected capture to be startable after discard, got %v", err)
	}
	clip, _ := controller.Stop()
	if !clip.IsEmpty() {
		t.Fatalf("expected discarded audio to be dropped, got %d bytes", len(clip.Data))
	}
}
