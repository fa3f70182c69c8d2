// Package db provides SQLite persistence for the meetingmind record kinds:
// meetings, transcripts, summaries, and action items.
package db

import "time"

// Meeting status values. A meeting only ever moves forward through these.
const (
	StatusRecorded    = "recorded"
	StatusTranscribed = "transcribed"
	StatusSummarized  = "summarized"
)

// Transcript sources. SourceNone marks the empty placeholder written when a
// recording captured no speech.
const (
	SourceLive   = "live"
	SourceManual = "manual"
	SourceNone   = "none"
)

// Action item priorities.
const (
	PriorityHigh   = "High"
	PriorityMedium = "Medium"
	PriorityLow    = "Low"
)

// Action item statuses.
const (
	TaskPending    = "Pending"
	TaskInProgress = "In-progress"
	TaskDone       = "Done"
)

// Meeting represents one recorded session and its metadata. The audio
// artifact is embedded in the row; exports strip it.
type Meeting struct {
	ID         string
	Title      string
	StartedAt  time.Time
	EndedAt    time.Time
	DurationMS int64
	Tags       []string
	Status     string

	Audio         []byte
	AudioMimeType string
	AudioSize     int64
}

// Transcript holds the text for one meeting, keyed by meeting ID.
// It is overwritten, not versioned, on every save.
type Transcript struct {
	MeetingID string
	Text      string
	Source    string
	UpdatedAt time.Time
}

// Summary holds the raw structured-minutes JSON returned by the model,
// keyed by meeting ID. A re-run replaces it.
type Summary struct {
	MeetingID string
	Data      string
	CreatedAt time.Time
}

// ActionItem is one task extracted from a meeting's minutes.
type ActionItem struct {
	ID        string
	MeetingID string
	Title     string
	Assignee  string
	DueDate   string
	Priority  string
	Status    string
	CreatedAt time.Time
}
