// Package recognizer provides the client and protocol types for talking to
// the platform speech recognizer daemon over a Unix socket using NDJSON.
//
// The daemon owns the actual speech-to-text engine; this package only moves
// commands and events across the socket. Commands are fire-and-forget
// writes; everything the daemon has to say, including failures, arrives on
// the event stream. When the socket is absent the platform has no
// live-transcription capability and recordings proceed audio-only.
package recognizer

// Command is sent from a client to the recognizer daemon.
type Command struct {
	Cmd    string `json:"cmd"`
	Locale string `json:"locale,omitempty"`
}

// Event is streamed from the daemon.
//
// Event kinds:
//   - "partial": interim text, display-only, superseded by later events
//   - "final":   finalized text, appended to the transcript
//   - "end":     the recognizer stopped on its own (e.g. after a pause in
//     speech); a session that is still active restarts it
//   - "error":   a recognition error; Code "no-speech" and "audio-capture"
//     are benign and only warrant a restart
type Event struct {
	Event   string `json:"event"`
	Text    string `json:"text,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// Benign reports whether an error event is a transient recognition hiccup
// rather than a real failure.
func (e Event) Benign() bool {
	return e.Event == "error" && (e.Code == "no-speech" || e.Code == "audio-capture")
}
