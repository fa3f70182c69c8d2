// Package meetings implements the meeting lifecycle on top of the store:
// saving finished recordings, transcript edits, summarization, and the
// derived dashboard numbers.
package meetings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/meetingmind/meetingmind/internal/db"
	"github.com/meetingmind/meetingmind/internal/gemini"
	"github.com/meetingmind/meetingmind/internal/session"
)

// DefaultTitle is used when a recording is saved without one.
const DefaultTitle = "Untitled recording"

var (
	// ErrMeetingNotFound reports an operation against a missing meeting.
	ErrMeetingNotFound = errors.New("meeting not found")
	// ErrEmptyTranscript reports a summarization attempt with nothing to
	// summarize. No upstream call is made.
	ErrEmptyTranscript = errors.New("transcript is empty")
	// ErrSummarizationInProgress reports a summarization retrigger while a
	// call is still outstanding.
	ErrSummarizationInProgress = errors.New("summarization already in progress")
)

// Summarizer produces structured minutes for a transcript.
type Summarizer interface {
	Summarize(ctx context.Context, transcript string, start, end time.Time) (*gemini.Minutes, error)
}

// Service wires the store and the summarizer into the meeting lifecycle.
type Service struct {
	store      *db.Store
	summarizer Summarizer
	log        *slog.Logger

	mu   sync.Mutex
	busy bool
}

// NewService creates the lifecycle service. summarizer may be nil when no
// API key is configured; Summarize then fails up front.
func NewService(store *db.Store, summarizer Summarizer, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: store, summarizer: summarizer, log: log}
}

// SaveRecording persists a finished session as a new meeting plus its
// transcript row in one transaction. A non-empty live transcript puts the
// meeting straight into the transcribed state.
func (s *Service) SaveRecording(ctx context.Context, title string, res *session.Result) (*db.Meeting, error) {
	if strings.TrimSpace(title) == "" {
		title = DefaultTitle
	}

	status := db.StatusRecorded
	source := db.SourceNone
	if strings.TrimSpace(res.Transcript) != "" {
		status = db.StatusTranscribed
		source = db.SourceLive
	}

	m := &db.Meeting{
		ID:         uuid.NewString(),
		Title:      title,
		StartedAt:  res.StartedAt,
		EndedAt:    res.EndedAt,
		DurationMS: res.EndedAt.Sub(res.StartedAt).Milliseconds(),
		Tags:       []string{},
		Status:     status,
	}
	if res.Artifact != nil {
		m.Audio = res.Artifact.Data
		m.AudioMimeType = res.Artifact.MimeType
		m.AudioSize = int64(len(res.Artifact.Data))
	}

	t := &db.Transcript{
		MeetingID: m.ID,
		Text:      res.Transcript,
		Source:    source,
		UpdatedAt: res.EndedAt,
	}

	if err := s.store.SaveRecording(ctx, m, t); err != nil {
		return nil, fmt.Errorf("save recording: %w", err)
	}
	s.log.Info("recording saved", "meeting", m.ID, "duration_ms", m.DurationMS, "degraded", res.Degraded)
	return m, nil
}

// SaveTranscript overwrites the meeting's transcript with manually edited
// text, creating the row if the meeting never had one. Saving non-empty text
// over a recorded meeting advances it to transcribed; transcribed and
// summarized meetings keep their status.
func (s *Service) SaveTranscript(ctx context.Context, meetingID, text string) error {
	m, err := s.store.Meeting(ctx, meetingID)
	if err != nil {
		return err
	}
	if m == nil {
		return ErrMeetingNotFound
	}

	t := &db.Transcript{
		MeetingID: meetingID,
		Text:      text,
		Source:    db.SourceManual,
		UpdatedAt: time.Now(),
	}
	if err := s.store.PutTranscript(ctx, t); err != nil {
		return fmt.Errorf("save transcript: %w", err)
	}

	if m.Status == db.StatusRecorded && strings.TrimSpace(text) != "" {
		m.Status = db.StatusTranscribed
		if err := s.store.PutMeeting(ctx, m); err != nil {
			return fmt.Errorf("advance meeting status: %w", err)
		}
	}
	return nil
}

// Summarize runs the transcript through the model and persists the result:
// the summary row, the replaced action-item set, and the summarized status,
// all in one transaction. On any failure the stored records are untouched.
// Only one summarization runs at a time.
func (s *Service) Summarize(ctx context.Context, meetingID string) (*gemini.Minutes, error) {
	if s.summarizer == nil {
		return nil, fmt.Errorf("no summarizer configured")
	}

	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return nil, ErrSummarizationInProgress
	}
	s.busy = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.busy = false
		s.mu.Unlock()
	}()

	m, err := s.store.Meeting(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrMeetingNotFound
	}

	t, err := s.store.Transcript(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	if t == nil || strings.TrimSpace(t.Text) == "" {
		return nil, ErrEmptyTranscript
	}

	minutes, err := s.summarizer.Summarize(ctx, t.Text, m.StartedAt, m.EndedAt)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(minutes)
	if err != nil {
		return nil, fmt.Errorf("encode minutes: %w", err)
	}

	now := time.Now()
	sum := &db.Summary{MeetingID: meetingID, Data: string(data), CreatedAt: now}
	items := actionItemsFromPlan(meetingID, minutes.ActionPlan, now)

	if err := s.store.SaveMinutes(ctx, sum, items); err != nil {
		return nil, fmt.Errorf("save minutes: %w", err)
	}
	s.log.Info("meeting summarized", "meeting", meetingID, "action_items", len(items))
	return minutes, nil
}

// actionItemsFromPlan maps the model's action plan onto stored items,
// filling the blanks the model is allowed to leave.
func actionItemsFromPlan(meetingID string, plan []gemini.PlannedTask, now time.Time) []db.ActionItem {
	items := make([]db.ActionItem, 0, len(plan))
	for _, p := range plan {
		it := db.ActionItem{
			ID:        uuid.NewString(),
			MeetingID: meetingID,
			Title:     p.Task,
			Assignee:  p.Assignee,
			DueDate:   p.DueDate,
			Priority:  p.Priority,
			Status:    p.Status,
			CreatedAt: now,
		}
		if it.Title == "" {
			it.Title = "Untitled task"
		}
		if it.Assignee == "" {
			it.Assignee = "Unassigned"
		}
		if it.Priority == "" {
			it.Priority = db.PriorityMedium
		}
		if it.Status == "" {
			it.Status = db.TaskPending
		}
		items = append(items, it)
	}
	return items
}

// Detail bundles everything the detail view shows for one meeting.
type Detail struct {
	Meeting     db.Meeting
	Transcript  *db.Transcript
	Minutes     *gemini.Minutes
	ActionItems []db.ActionItem
}

// Detail loads a meeting with its transcript, parsed minutes, and action
// items. Missing children stay nil or empty.
func (s *Service) Detail(ctx context.Context, meetingID string) (*Detail, error) {
	m, err := s.store.Meeting(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrMeetingNotFound
	}

	d := &Detail{Meeting: *m}

	if d.Transcript, err = s.store.Transcript(ctx, meetingID); err != nil {
		return nil, err
	}

	sum, err := s.store.Summary(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	if sum != nil {
		var minutes gemini.Minutes
		if err := json.Unmarshal([]byte(sum.Data), &minutes); err != nil {
			return nil, fmt.Errorf("decode stored minutes: %w", err)
		}
		d.Minutes = &minutes
	}

	if d.ActionItems, err = s.store.ActionItemsForMeeting(ctx, meetingID); err != nil {
		return nil, err
	}
	return d, nil
}

// Meetings lists all meetings, newest first.
func (s *Service) Meetings(ctx context.Context) ([]db.Meeting, error) {
	meetings, err := s.store.Meetings(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(meetings, func(i, j int) bool {
		return meetings[i].StartedAt.After(meetings[j].StartedAt)
	})
	return meetings, nil
}

// Delete removes a meeting; its transcript, summary, and action items go
// with it.
func (s *Service) Delete(ctx context.Context, meetingID string) error {
	m, err := s.store.Meeting(ctx, meetingID)
	if err != nil {
		return err
	}
	if m == nil {
		return ErrMeetingNotFound
	}
	return s.store.DeleteMeeting(ctx, meetingID)
}

// Reset wipes every stored record.
func (s *Service) Reset(ctx context.Context) error {
	return s.store.Reset(ctx)
}
