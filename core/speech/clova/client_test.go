package clova

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/koscakluka/ema-helper/core/audio"
	"github.com/koscakluka/ema-helper/core/speech"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient("id", "secret", WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("expected client to be created, got %v", err)
	}
	return client
}

func TestTranscribeSendsWAVWithCredentials(t *testing.T) {
	var gotBody []byte
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/recog/v1/stt" || r.URL.Query().Get("lang") != "Kor" {
			t.Errorf("unexpected request %s", r.URL)
		}
		if r.Header.Get("X-NCP-APIGW-API-KEY-ID") != "id" || r.Header.Get("X-NCP-APIGW-API-KEY") != "secret" {
			t.Errorf("expected credentials headers to be set")
		}
		if r.Header.Get("Content-Type") != "application/octet-stream" {
			t.Errorf("expected octet-stream body, got %q", r.Header.Get("Content-Type"))
		}
		gotBody, _ = io.ReadAll(r.Body)
		_, _ = w.Write([]byte(`{"text":" hello there "}`))
	})

	clip := audio.Clip{Data: []byte{1, 2, 3, 4}, EncodingInfo: audio.GetDefaultEncodingInfo()}
	text, err := client.Transcribe(context.Background(), clip)
	if err != nil {
		t.Fatalf("expected transcription to succeed, got %v", err)
	}
	if text != "hello there" {
		t.Fatalf("expected trimmed text %q, got %q", "hello there", text)
	}
	if len(gotBody) != audio.WAVHeaderSize+len(clip.Data) || string(gotBody[:4]) != "RIFF" {
		t.Fatalf("expected WAV wrapped payload, got %d bytes", len(gotBody))
	}
}

func TestTranscribeEmptyTextIsEmptyResult(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"text":""}`))
	})

	_, err := client.Transcribe(context.Background(), audio.EmptyClip(audio.GetDefaultEncodingInfo()))
	if !errors.Is(err, speech.ErrEmptyResult) {
		t.Fatalf("expected ErrEmptyResult, got %v", err)
	}
}

func TestTranscribeNonSuccessIsVendorError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	})

	_, err := client.Transcribe(context.Background(), audio.Clip{Data: []byte{0, 0}, EncodingInfo: audio.GetDefaultEncodingInfo()})
	vendorErr, ok := speech.IsVendorError(err)
	if !ok {
		t.Fatalf("expected vendor error, got %v", err)
	}
	if vendorErr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status 429, got %d", vendorErr.Code)
	}
}

func TestTranscribeUnreachableIsNetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()

	client, _ := NewClient("id", "secret", WithBaseURL(server.URL))
	_, err := client.Transcribe(context.Background(), audio.Clip{Data: []byte{0, 0}, EncodingInfo: audio.GetDefaultEncodingInfo()})
	if !errors.Is(err, speech.ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
}

func TestSynthesizePostsVoiceForm(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tts-premium/v1/tts" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("expected form body, got %v", err)
		}
		for key, want := range map[string]string{"speaker": "nara", "format": "mp3", "speed": "0", "text": "안녕하세요"} {
			if got := r.PostForm.Get(key); got != want {
				t.Errorf("expected %s=%q, got %q", key, want, got)
			}
		}
		_, _ = w.Write([]byte("ID3fake-mp3"))
	})

	result, err := client.Synthesize(context.Background(), "안녕하세요")
	if err != nil {
		t.Fatalf("expected synthesis to succeed, got %v", err)
	}
	if result.Container != audio.ContainerMP3 || string(result.Data) != "ID3fake-mp3" {
		t.Fatalf("unexpected synthesized speech %q (%s)", result.Data, result.Container)
	}
}

func TestSynthesizeEmptyBodyIsEmptyResult(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	if _, err := client.Synthesize(context.Background(), "hi"); !errors.Is(err, speech.ErrEmptyResult) {
		t.Fatalf("expected ErrEmptyResult, got %v", err)
	}
}

func TestNewClientRequiresCredentials(t *testing.T) {
	if _, err := NewClient("", "secret"); err == nil {
		t.Fatalf("expected missing client id to be rejected")
	}
}
