// Package events defines the typed events the session engine consumes.
//
// Every input to the engine, whether it comes from the host UI or from a
// background task, is one of these events. The engine applies them one at a
// time on its owning goroutine.
//
// Event kinds are grouped by namespace:
//
//   - host.*
//   - pipeline.*
//   - session.*
//
// host events
//
//   - BubbleTapped (host.bubble_tapped): the bubble was tapped.
//   - MicTapped (host.mic_tapped): the microphone control was tapped.
//   - ChatClosed (host.chat_closed): the chat surface was closed.
//   - MicrophonePermissionGranted (host.microphone_permission_granted): the
//     host obtained microphone access.
//
// pipeline events
//
//   - CaptureFinished (pipeline.capture_finished): capture stopped; carries
//     the clip.
//   - TranscriptionFinished (pipeline.transcription_finished): transcript or
//     failure for the last clip.
//   - SynthesisFinished (pipeline.synthesis_finished): reply audio or failure.
//   - PlaybackFinished (pipeline.playback_finished): reply playback ended.
//
// session events
//
//   - MessageSent (session.message_sent): outcome of submitting an utterance.
//   - MessageDelivered (session.message_delivered): new assistant or wizard
//     message, in session log order.
//   - ConnectivityChanged (session.connectivity_changed): console reachability
//     changed.
//
// Events that report a background task embed TaskResult. Task is the run
// identifier assigned when the task was spawned.
package events
