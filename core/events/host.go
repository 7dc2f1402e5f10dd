package events

const (
	// KindBubbleTapped identifies a tap on the floating bubble.
	KindBubbleTapped Kind = "host.bubble_tapped"
	// KindMicTapped identifies a tap on the microphone control.
	KindMicTapped Kind = "host.mic_tapped"
	// KindChatClosed identifies the user closing the chat surface.
	KindChatClosed Kind = "host.chat_closed"
	// KindMicrophonePermissionGranted identifies the host granting microphone access.
	KindMicrophonePermissionGranted Kind = "host.microphone_permission_granted"
)

// BubbleTapped toggles the chat surface.
type BubbleTapped struct{ Base }

// NewBubbleTapped creates a bubble tapped event.
func NewBubbleTapped() BubbleTapped {
	return BubbleTapped{Base: NewBase(KindBubbleTapped)}
}

// MicTapped starts or stops listening depending on the current state.
type MicTapped struct{ Base }

// NewMicTapped creates a mic tapped event.
func NewMicTapped() MicTapped {
	return MicTapped{Base: NewBase(KindMicTapped)}
}

// ChatClosed hides the chat surface.
type ChatClosed struct{ Base }

// NewChatClosed creates a chat closed event.
func NewChatClosed() ChatClosed {
	return ChatClosed{Base: NewBase(KindChatClosed)}
}

// MicrophonePermissionGranted unlocks audio capture.
type MicrophonePermissionGranted struct{ Base }

// NewMicrophonePermissionGranted creates a microphone permission granted event.
func NewMicrophonePermissionGranted() MicrophonePermissionGranted {
	return MicrophonePermissionGranted{Base: NewBase(KindMicrophonePermissionGranted)}
}
