// Package session coordinates one recording: the audio capture resource and
// the live speech recognition resource, for the span between start and stop.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/meetingmind/meetingmind/internal/capture"
	"github.com/meetingmind/meetingmind/internal/recognizer"
)

// Capture is the audio resource owned by a session.
type Capture interface {
	Start(ctx context.Context) error
	Stop() (*capture.Artifact, error)
}

// Speech is a live recognition run. Start may be called again after the
// engine signals "end"; text recognized before the restart is kept.
type Speech interface {
	Start(locale string) error
	Stop() error
	ReadEvent() (recognizer.Event, error)
	Close() error
}

// UpdateKind classifies session updates streamed to the UI.
type UpdateKind int

const (
	// UpdatePartial carries interim text. Display-only, never persisted.
	UpdatePartial UpdateKind = iota
	// UpdateFinal carries a finalized segment already added to the transcript.
	UpdateFinal
	// UpdateDegraded signals, once per session, that speech-to-text is
	// unavailable and the recording is audio-only.
	UpdateDegraded
	// UpdateError carries a non-benign recognition error. The session
	// keeps recording.
	UpdateError
)

// Update is one live event from an active session.
type Update struct {
	Kind UpdateKind
	Text string
	Err  error
}

// Result is what a stopped session hands over for persistence.
type Result struct {
	StartedAt  time.Time
	EndedAt    time.Time
	Transcript string
	Degraded   bool
	Artifact   *capture.Artifact
}

// Session owns one recording's capture and recognition resources.
type Session struct {
	cap    Capture
	speech Speech // nil when the platform has no recognizer
	locale string
	log    *slog.Logger

	updates chan Update

	mu        sync.Mutex
	active    bool
	degraded  bool
	startedAt time.Time
	finals    []string

	loopDone chan struct{}
}

// New creates a session. speech may be nil; the session then records
// audio-only and signals the degraded capability on start.
func New(cap Capture, speech Speech, locale string, log *slog.Logger) *Session {
	if log == nil {
		log = slog.Default()
	}
	return &Session{
		cap:     cap,
		speech:  speech,
		locale:  locale,
		log:     log,
		updates: make(chan Update, 64),
	}
}

// Updates streams live partial/final text and capability/error signals.
func (s *Session) Updates() <-chan Update {
	return s.updates
}

// Start acquires the microphone and, when available, starts recognition.
// A capture permission failure aborts the start; no partial state is left
// behind. An unavailable or failing recognizer degrades the session to
// audio-only instead of failing it.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active {
		return fmt.Errorf("session already active")
	}

	if err := s.cap.Start(ctx); err != nil {
		return err
	}

	s.active = true
	s.startedAt = time.Now()
	s.finals = nil

	if s.speech == nil {
		s.markDegradedLocked(nil)
		return nil
	}

	if err := s.speech.Start(s.locale); err != nil {
		s.log.Warn("recognizer start failed, recording audio-only", "error", err)
		s.markDegradedLocked(err)
		return nil
	}

	s.loopDone = make(chan struct{})
	go s.eventLoop()
	return nil
}

// Stop stops recognition and capture and assembles the result. The final
// transcript is the arrival-ordered concatenation of final segments;
// interim text is discarded.
func (s *Session) Stop() (*Result, error) {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return nil, fmt.Errorf("session not active")
	}
	s.active = false
	loopDone := s.loopDone
	s.mu.Unlock()

	if s.speech != nil && loopDone != nil {
		if err := s.speech.Stop(); err != nil {
			s.log.Warn("recognizer stop", "error", err)
		}
		select {
		case <-loopDone:
		case <-time.After(2 * time.Second):
			s.log.Warn("recognizer event loop did not drain in time")
		}
		_ = s.speech.Close()
	}

	artifact, err := s.cap.Stop()
	if err != nil {
		return nil, fmt.Errorf("stop capture: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return &Result{
		StartedAt:  s.startedAt,
		EndedAt:    time.Now(),
		Transcript: strings.Join(s.finals, " "),
		Degraded:   s.degraded,
		Artifact:   artifact,
	}, nil
}

// eventLoop consumes recognizer events until the session stops. While the
// session is active, an "end" or a benign error restarts recognition and
// final text keeps accumulating across restarts.
func (s *Session) eventLoop() {
	defer close(s.loopDone)

	for {
		ev, err := s.speech.ReadEvent()
		if err != nil {
			if s.isActive() {
				s.log.Warn("recognizer stream ended", "error", err)
				s.emit(Update{Kind: UpdateError, Err: err})
			}
			return
		}

		switch ev.Event {
		case "partial":
			s.emit(Update{Kind: UpdatePartial, Text: ev.Text})

		case "final":
			s.mu.Lock()
			s.finals = append(s.finals, ev.Text)
			s.mu.Unlock()
			s.emit(Update{Kind: UpdateFinal, Text: ev.Text})

		case "end":
			if !s.restartIfActive("engine end") {
				return
			}

		case "error":
			if ev.Benign() {
				if !s.restartIfActive(ev.Code) {
					return
				}
				continue
			}
			s.log.Warn("recognition error", "code", ev.Code, "message", ev.Message)
			s.emit(Update{Kind: UpdateError, Err: fmt.Errorf("recognition error: %s", ev.Message)})
		}
	}
}

// restartIfActive restarts recognition when the session is still running.
// It returns false when the loop should exit instead.
func (s *Session) restartIfActive(reason string) bool {
	if !s.isActive() {
		return false
	}
	s.log.Debug("restarting recognition", "reason", reason)
	if err := s.speech.Start(s.locale); err != nil {
		s.log.Warn("recognizer restart failed", "error", err)
		s.emit(Update{Kind: UpdateError, Err: err})
		return false
	}
	return true
}

func (s *Session) isActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// markDegradedLocked flags the session audio-only and signals it once.
func (s *Session) markDegradedLocked(cause error) {
	if s.degraded {
		return
	}
	s.degraded = true
	s.emit(Update{Kind: UpdateDegraded, Err: cause})
}

// emit delivers an update without blocking; a UI that is not draining
// loses display-only updates rather than stalling recognition.
func (s *Session) emit(u Update) {
	select {
	case s.updates <- u:
	default:
	}
}
