package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "test.sqlite"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testMeeting(id string) *Meeting {
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(30 * time.Minute)
	return &Meeting{
		ID:         id,
		Title:      "Budget review",
		StartedAt:  start,
		EndedAt:    end,
		DurationMS: end.Sub(start).Milliseconds(),
		Tags:       []string{"budget", "q1"},
		Status:     StatusRecorded,
	}
}

func TestMeetingRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	m := testMeeting("m-1")
	m.Audio = []byte{0x1a, 0x45, 0xdf, 0xa3}
	m.AudioMimeType = "audio/webm"
	m.AudioSize = 4

	if err := store.AddMeeting(ctx, m); err != nil {
		t.Fatalf("AddMeeting: %v", err)
	}

	got, err := store.Meeting(ctx, "m-1")
	if err != nil {
		t.Fatalf("Meeting: %v", err)
	}
	if got == nil {
		t.Fatal("expected meeting, got nil")
	}
	if got.Title != "Budget review" {
		t.Errorf("Title = %q, want %q", got.Title, "Budget review")
	}
	if got.Status != StatusRecorded {
		t.Errorf("Status = %q, want %q", got.Status, StatusRecorded)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "budget" {
		t.Errorf("Tags = %v, want [budget q1]", got.Tags)
	}
	if !got.StartedAt.Equal(m.StartedAt) {
		t.Errorf("StartedAt = %v, want %v", got.StartedAt, m.StartedAt)
	}
	if string(got.Audio) != string(m.Audio) {
		t.Errorf("Audio = %v, want %v", got.Audio, m.Audio)
	}
}

func TestMeetingAbsent(t *testing.T) {
	store := openTestStore(t)

	got, err := store.Meeting(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Meeting: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}

func TestAddMeetingDuplicateFails(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.AddMeeting(ctx, testMeeting("m-1")); err != nil {
		t.Fatalf("AddMeeting: %v", err)
	}
	if err := store.AddMeeting(ctx, testMeeting("m-1")); err == nil {
		t.Fatal("expected duplicate add to fail")
	}
}

func TestPutMeetingUpdatesWithoutCascading(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	m := testMeeting("m-1")
	if err := store.AddMeeting(ctx, m); err != nil {
		t.Fatalf("AddMeeting: %v", err)
	}
	if err := store.AddTranscript(ctx, &Transcript{
		MeetingID: "m-1", Text: "hello", Source: SourceLive, UpdatedAt: time.Now(),
	}); err != nil {
		t.Fatalf("AddTranscript: %v", err)
	}

	m.Status = StatusTranscribed
	if err := store.PutMeeting(ctx, m); err != nil {
		t.Fatalf("PutMeeting: %v", err)
	}

	got, err := store.Meeting(ctx, "m-1")
	if err != nil {
		t.Fatalf("Meeting: %v", err)
	}
	if got.Status != StatusTranscribed {
		t.Errorf("Status = %q, want %q", got.Status, StatusTranscribed)
	}

	// The transcript must survive the put.
	tr, err := store.Transcript(ctx, "m-1")
	if err != nil {
		t.Fatalf("Transcript: %v", err)
	}
	if tr == nil || tr.Text != "hello" {
		t.Errorf("transcript after put = %+v, want text %q", tr, "hello")
	}
}

func TestDeleteMeetingCascades(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.AddMeeting(ctx, testMeeting("m-1")); err != nil {
		t.Fatalf("AddMeeting: %v", err)
	}
	if err := store.AddTranscript(ctx, &Transcript{MeetingID: "m-1", Text: "t", Source: SourceLive, UpdatedAt: time.Now()}); err != nil {
		t.Fatalf("AddTranscript: %v", err)
	}
	if err := store.AddSummary(ctx, &Summary{MeetingID: "m-1", Data: "{}", CreatedAt: time.Now()}); err != nil {
		t.Fatalf("AddSummary: %v", err)
	}
	for _, id := range []string{"a-1", "a-2"} {
		if err := store.AddActionItem(ctx, &ActionItem{
			ID: id, MeetingID: "m-1", Title: "task", Assignee: "ana",
			Priority: PriorityMedium, Status: TaskPending, CreatedAt: time.Now(),
		}); err != nil {
			t.Fatalf("AddActionItem: %v", err)
		}
	}

	if err := store.DeleteMeeting(ctx, "m-1"); err != nil {
		t.Fatalf("DeleteMeeting: %v", err)
	}

	if tr, _ := store.Transcript(ctx, "m-1"); tr != nil {
		t.Error("transcript survived cascade")
	}
	if sum, _ := store.Summary(ctx, "m-1"); sum != nil {
		t.Error("summary survived cascade")
	}
	items, err := store.ActionItemsForMeeting(ctx, "m-1")
	if err != nil {
		t.Fatalf("ActionItemsForMeeting: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("got %d action items after cascade, want 0", len(items))
	}
}

func TestDeleteMeetingAbsentIsNoop(t *testing.T) {
	store := openTestStore(t)
	if err := store.DeleteMeeting(context.Background(), "nope"); err != nil {
		t.Fatalf("DeleteMeeting: %v", err)
	}
}

func TestTranscriptOverwrite(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.AddMeeting(ctx, testMeeting("m-1")); err != nil {
		t.Fatalf("AddMeeting: %v", err)
	}
	if err := store.PutTranscript(ctx, &Transcript{MeetingID: "m-1", Text: "first", Source: SourceLive, UpdatedAt: time.Now()}); err != nil {
		t.Fatalf("PutTranscript: %v", err)
	}
	if err := store.PutTranscript(ctx, &Transcript{MeetingID: "m-1", Text: "second", Source: SourceManual, UpdatedAt: time.Now()}); err != nil {
		t.Fatalf("PutTranscript overwrite: %v", err)
	}

	got, err := store.Transcript(ctx, "m-1")
	if err != nil {
		t.Fatalf("Transcript: %v", err)
	}
	if got.Text != "second" || got.Source != SourceManual {
		t.Errorf("got %q/%q, want second/manual", got.Text, got.Source)
	}

	all, err := store.Transcripts(ctx)
	if err != nil {
		t.Fatalf("Transcripts: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("got %d transcripts, want 1 (overwritten, not versioned)", len(all))
	}
}

func TestSaveRecording(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	m := testMeeting("m-1")
	tr := &Transcript{MeetingID: "m-1", Text: "", Source: SourceLive, UpdatedAt: time.Now()}

	if err := store.SaveRecording(ctx, m, tr); err != nil {
		t.Fatalf("SaveRecording: %v", err)
	}

	got, err := store.Meeting(ctx, "m-1")
	if err != nil {
		t.Fatalf("Meeting: %v", err)
	}
	if got == nil || got.Status != StatusRecorded {
		t.Fatalf("meeting after save = %+v, want status recorded", got)
	}
	gotTr, err := store.Transcript(ctx, "m-1")
	if err != nil {
		t.Fatalf("Transcript: %v", err)
	}
	if gotTr == nil || gotTr.Source != SourceLive {
		t.Fatalf("transcript after save = %+v, want source live", gotTr)
	}
}

func TestSaveMinutesReplacesActionItems(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.AddMeeting(ctx, testMeeting("m-1")); err != nil {
		t.Fatalf("AddMeeting: %v", err)
	}

	first := []ActionItem{
		{ID: "a-1", MeetingID: "m-1", Title: "old task", Assignee: "ana", Priority: PriorityHigh, Status: TaskPending, CreatedAt: time.Now()},
		{ID: "a-2", MeetingID: "m-1", Title: "older task", Assignee: "luis", Priority: PriorityLow, Status: TaskPending, CreatedAt: time.Now()},
	}
	if err := store.SaveMinutes(ctx, &Summary{MeetingID: "m-1", Data: `{"v":1}`, CreatedAt: time.Now()}, first); err != nil {
		t.Fatalf("SaveMinutes: %v", err)
	}

	second := []ActionItem{
		{ID: "a-3", MeetingID: "m-1", Title: "new task", Assignee: "ana", Priority: PriorityMedium, Status: TaskPending, CreatedAt: time.Now()},
	}
	if err := store.SaveMinutes(ctx, &Summary{MeetingID: "m-1", Data: `{"v":2}`, CreatedAt: time.Now()}, second); err != nil {
		t.Fatalf("SaveMinutes rerun: %v", err)
	}

	items, err := store.ActionItemsForMeeting(ctx, "m-1")
	if err != nil {
		t.Fatalf("ActionItemsForMeeting: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("got %d action items, want 1 (replaced, not merged)", len(items))
	}
	if items[0].ID != "a-3" {
		t.Errorf("surviving item = %q, want a-3", items[0].ID)
	}

	sum, err := store.Summary(ctx, "m-1")
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if sum.Data != `{"v":2}` {
		t.Errorf("summary data = %q, want overwritten", sum.Data)
	}

	m, err := store.Meeting(ctx, "m-1")
	if err != nil {
		t.Fatalf("Meeting: %v", err)
	}
	if m.Status != StatusSummarized {
		t.Errorf("status = %q, want %q", m.Status, StatusSummarized)
	}
}

func TestReset(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.AddMeeting(ctx, testMeeting("m-1")); err != nil {
		t.Fatalf("AddMeeting: %v", err)
	}
	if err := store.AddTranscript(ctx, &Transcript{MeetingID: "m-1", Text: "t", Source: SourceLive, UpdatedAt: time.Now()}); err != nil {
		t.Fatalf("AddTranscript: %v", err)
	}

	if err := store.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	meetings, err := store.Meetings(ctx)
	if err != nil {
		t.Fatalf("Meetings: %v", err)
	}
	if len(meetings) != 0 {
		t.Errorf("got %d meetings after reset, want 0", len(meetings))
	}
	transcripts, err := store.Transcripts(ctx)
	if err != nil {
		t.Fatalf("Transcripts: %v", err)
	}
	if len(transcripts) != 0 {
		t.Errorf("got %d transcripts after reset, want 0", len(transcripts))
	}
}

func TestActionItemDueDateNullable(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.AddMeeting(ctx, testMeeting("m-1")); err != nil {
		t.Fatalf("AddMeeting: %v", err)
	}
	if err := store.AddActionItem(ctx, &ActionItem{
		ID: "a-1", MeetingID: "m-1", Title: "task", Assignee: "ana",
		Priority: PriorityMedium, Status: TaskPending, CreatedAt: time.Now(),
	}); err != nil {
		t.Fatalf("AddActionItem: %v", err)
	}

	it, err := store.ActionItem(ctx, "a-1")
	if err != nil {
		t.Fatalf("ActionItem: %v", err)
	}
	if it.DueDate != "" {
		t.Errorf("DueDate = %q, want empty", it.DueDate)
	}
}
