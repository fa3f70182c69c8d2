package app

import (
	"github.com/meetingmind/meetingmind/internal/db"
	"github.com/meetingmind/meetingmind/internal/meetings"
	"github.com/meetingmind/meetingmind/internal/session"
)

// SessionStartedMsg is sent when a recording session is up.
type SessionStartedMsg struct {
	Session RecordingSession
}

// SessionStartErrorMsg is sent when the session could not start, typically
// because the microphone was unavailable.
type SessionStartErrorMsg struct {
	Err error
}

// SessionUpdateMsg wraps one live update from the active session.
type SessionUpdateMsg struct {
	Update session.Update
}

// RecordingStoppedMsg carries a stopped session's result, pending the save
// prompt.
type RecordingStoppedMsg struct {
	Result *session.Result
}

// RecordingSavedMsg is sent after a stopped session was persisted.
type RecordingSavedMsg struct {
	Meeting db.Meeting
}

// RecordingErrorMsg is sent when stopping or saving a recording failed.
type RecordingErrorMsg struct {
	Err error
}

// MeetingsLoadedMsg carries the history list, newest first.
type MeetingsLoadedMsg struct {
	Meetings []db.Meeting
}

// DetailLoadedMsg carries one meeting with its transcript and minutes.
type DetailLoadedMsg struct {
	Detail *meetings.Detail
}

// SummarizeDoneMsg reports the outcome of a summarization run.
type SummarizeDoneMsg struct {
	MeetingID string
	Err       error
}

// DeleteDoneMsg reports the outcome of a meeting deletion.
type DeleteDoneMsg struct {
	Err error
}

// StatsLoadedMsg carries the dashboard numbers.
type StatsLoadedMsg struct {
	Stats *meetings.Stats
}

// LoadErrorMsg is sent when a store read failed.
type LoadErrorMsg struct {
	Err error
}

// ClearTransientErrorMsg clears a transient error after a timeout.
type ClearTransientErrorMsg struct{}

// TimerTickMsg advances the recording timer once a second.
type TimerTickMsg struct{}
