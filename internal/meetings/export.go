package meetings

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/meetingmind/meetingmind/internal/db"
)

// Archive is the portable export format: every record kind in one flat JSON
// document. Audio artifacts are stripped; only their metadata travels.
type Archive struct {
	ExportedAt  time.Time           `json:"exportedAt"`
	Meetings    []archiveMeeting    `json:"meetings"`
	Transcripts []archiveTranscript `json:"transcripts"`
	Summaries   []archiveSummary    `json:"summaries"`
	ActionItems []archiveActionItem `json:"actionItems"`
}

type archiveMeeting struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	StartedAt     time.Time `json:"startedAt"`
	EndedAt       time.Time `json:"endedAt"`
	DurationMS    int64     `json:"durationMs"`
	Tags          []string  `json:"tags"`
	Status        string    `json:"status"`
	AudioMimeType string    `json:"audioMimeType,omitempty"`
	AudioSize     int64     `json:"audioSize,omitempty"`
}

type archiveTranscript struct {
	MeetingID string    `json:"meetingId"`
	Text      string    `json:"text"`
	Source    string    `json:"source"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type archiveSummary struct {
	MeetingID string          `json:"meetingId"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"createdAt"`
}

type archiveActionItem struct {
	ID        string    `json:"id"`
	MeetingID string    `json:"meetingId"`
	Title     string    `json:"title"`
	Assignee  string    `json:"assignee"`
	DueDate   string    `json:"dueDate,omitempty"`
	Priority  string    `json:"priority"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// Export serializes all stored records, minus audio bytes, as indented JSON.
func (s *Service) Export(ctx context.Context) ([]byte, error) {
	meetings, err := s.store.Meetings(ctx)
	if err != nil {
		return nil, err
	}
	transcripts, err := s.store.Transcripts(ctx)
	if err != nil {
		return nil, err
	}
	summaries, err := s.store.Summaries(ctx)
	if err != nil {
		return nil, err
	}
	items, err := s.store.ActionItems(ctx)
	if err != nil {
		return nil, err
	}

	a := Archive{
		ExportedAt:  time.Now().UTC(),
		Meetings:    make([]archiveMeeting, 0, len(meetings)),
		Transcripts: make([]archiveTranscript, 0, len(transcripts)),
		Summaries:   make([]archiveSummary, 0, len(summaries)),
		ActionItems: make([]archiveActionItem, 0, len(items)),
	}

	for _, m := range meetings {
		a.Meetings = append(a.Meetings, archiveMeeting{
			ID:            m.ID,
			Title:         m.Title,
			StartedAt:     m.StartedAt,
			EndedAt:       m.EndedAt,
			DurationMS:    m.DurationMS,
			Tags:          m.Tags,
			Status:        m.Status,
			AudioMimeType: m.AudioMimeType,
			AudioSize:     m.AudioSize,
		})
	}
	for _, t := range transcripts {
		a.Transcripts = append(a.Transcripts, archiveTranscript{
			MeetingID: t.MeetingID,
			Text:      t.Text,
			Source:    t.Source,
			UpdatedAt: t.UpdatedAt,
		})
	}
	for _, sum := range summaries {
		a.Summaries = append(a.Summaries, archiveSummary{
			MeetingID: sum.MeetingID,
			Data:      json.RawMessage(sum.Data),
			CreatedAt: sum.CreatedAt,
		})
	}
	for _, it := range items {
		a.ActionItems = append(a.ActionItems, archiveActionItem{
			ID:        it.ID,
			MeetingID: it.MeetingID,
			Title:     it.Title,
			Assignee:  it.Assignee,
			DueDate:   it.DueDate,
			Priority:  it.Priority,
			Status:    it.Status,
			CreatedAt: it.CreatedAt,
		})
	}

	return json.MarshalIndent(a, "", "  ")
}

// Import loads an exported archive. Records are upserted by their original
// IDs, so importing into a store that already holds some of them overwrites
// rather than duplicates. Parents go in before children to satisfy the
// reference constraints.
func (s *Service) Import(ctx context.Context, data []byte) error {
	var a Archive
	if err := json.Unmarshal(data, &a); err != nil {
		return fmt.Errorf("decode archive: %w", err)
	}

	for _, am := range a.Meetings {
		m := &db.Meeting{
			ID:            am.ID,
			Title:         am.Title,
			StartedAt:     am.StartedAt,
			EndedAt:       am.EndedAt,
			DurationMS:    am.DurationMS,
			Tags:          am.Tags,
			Status:        am.Status,
			AudioMimeType: am.AudioMimeType,
			AudioSize:     am.AudioSize,
		}
		if err := s.store.PutMeeting(ctx, m); err != nil {
			return fmt.Errorf("import meeting %s: %w", am.ID, err)
		}
	}
	for _, at := range a.Transcripts {
		t := &db.Transcript{
			MeetingID: at.MeetingID,
			Text:      at.Text,
			Source:    at.Source,
			UpdatedAt: at.UpdatedAt,
		}
		if err := s.store.PutTranscript(ctx, t); err != nil {
			return fmt.Errorf("import transcript for %s: %w", at.MeetingID, err)
		}
	}
	for _, as := range a.Summaries {
		sum := &db.Summary{
			MeetingID: as.MeetingID,
			Data:      string(as.Data),
			CreatedAt: as.CreatedAt,
		}
		if err := s.store.PutSummary(ctx, sum); err != nil {
			return fmt.Errorf("import summary for %s: %w", as.MeetingID, err)
		}
	}
	for _, ai := range a.ActionItems {
		it := &db.ActionItem{
			ID:        ai.ID,
			MeetingID: ai.MeetingID,
			Title:     ai.Title,
			Assignee:  ai.Assignee,
			DueDate:   ai.DueDate,
			Priority:  ai.Priority,
			Status:    ai.Status,
			CreatedAt: ai.CreatedAt,
		}
		if err := s.store.PutActionItem(ctx, it); err != nil {
			return fmt.Errorf("import action item %s: %w", ai.ID, err)
		}
	}

	s.log.Info("archive imported",
		"meetings", len(a.Meetings),
		"transcripts", len(a.Transcripts),
		"summaries", len(a.Summaries),
		"actionItems", len(a.ActionItems))
	return nil
}
