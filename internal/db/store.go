package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store provides read-write access to the meetingmind SQLite database.
// Every operation is individually atomic; grouped writes (SaveRecording,
// SaveMinutes, DeleteMeeting's cascade) run inside one transaction.
type Store struct {
	db *sql.DB
}

// DefaultPath returns the default database path.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".meetingmind", "meetingmind.sqlite")
}

const schema = `
	CREATE TABLE IF NOT EXISTS meetings (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		startedAt REAL NOT NULL,
		endedAt REAL NOT NULL,
		durationMs INTEGER NOT NULL,
		tags TEXT NOT NULL DEFAULT '[]',
		status TEXT NOT NULL DEFAULT 'recorded',
		audio BLOB,
		audioMimeType TEXT,
		audioSize INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS meetings_startedAt ON meetings(startedAt);

	CREATE TABLE IF NOT EXISTS transcripts (
		meetingId TEXT PRIMARY KEY REFERENCES meetings(id) ON DELETE CASCADE,
		text TEXT NOT NULL,
		source TEXT NOT NULL DEFAULT 'live',
		updatedAt REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS summaries (
		meetingId TEXT PRIMARY KEY REFERENCES meetings(id) ON DELETE CASCADE,
		data TEXT NOT NULL,
		createdAt REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS actionItems (
		id TEXT PRIMARY KEY,
		meetingId TEXT NOT NULL REFERENCES meetings(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		assignee TEXT NOT NULL,
		dueDate TEXT,
		priority TEXT NOT NULL DEFAULT 'Medium',
		status TEXT NOT NULL DEFAULT 'Pending',
		createdAt REAL NOT NULL
	);

	CREATE INDEX IF NOT EXISTS actionItems_meetingId ON actionItems(meetingId);
	CREATE INDEX IF NOT EXISTS actionItems_status ON actionItems(status);
`

// Open opens (creating if needed) the database with WAL and foreign keys on.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Verify connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ---- meetings ----

// AddMeeting inserts a meeting. It fails if the ID already exists.
func (s *Store) AddMeeting(ctx context.Context, m *Meeting) error {
	tags, err := json.Marshal(m.Tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO meetings (id, title, startedAt, endedAt, durationMs, tags, status, audio, audioMimeType, audioSize)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, m.ID, m.Title, timeToUnix(m.StartedAt), timeToUnix(m.EndedAt), m.DurationMS,
		string(tags), m.Status, m.Audio, m.AudioMimeType, m.AudioSize)
	if err != nil {
		return fmt.Errorf("add meeting: %w", err)
	}
	return nil
}

// PutMeeting inserts or updates a meeting by ID. An upsert rather than
// INSERT OR REPLACE: REPLACE deletes the old row first, which would fire
// the child-table cascades.
func (s *Store) PutMeeting(ctx context.Context, m *Meeting) error {
	tags, err := json.Marshal(m.Tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO meetings (id, title, startedAt, endedAt, durationMs, tags, status, audio, audioMimeType, audioSize)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			startedAt = excluded.startedAt,
			endedAt = excluded.endedAt,
			durationMs = excluded.durationMs,
			tags = excluded.tags,
			status = excluded.status,
			audio = excluded.audio,
			audioMimeType = excluded.audioMimeType,
			audioSize = excluded.audioSize
	`, m.ID, m.Title, timeToUnix(m.StartedAt), timeToUnix(m.EndedAt), m.DurationMS,
		string(tags), m.Status, m.Audio, m.AudioMimeType, m.AudioSize)
	if err != nil {
		return fmt.Errorf("put meeting: %w", err)
	}
	return nil
}

// Meeting returns the meeting with the given ID, or nil if absent.
func (s *Store) Meeting(ctx context.Context, id string) (*Meeting, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, startedAt, endedAt, durationMs, tags, status, audio, audioMimeType, audioSize
		FROM meetings
		WHERE id = ?
	`, id)

	m, err := scanMeeting(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan meeting: %w", err)
	}
	return m, nil
}

// Meetings returns all meetings, unordered. Callers sort.
func (s *Store) Meetings(ctx context.Context) ([]Meeting, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, startedAt, endedAt, durationMs, tags, status, audio, audioMimeType, audioSize
		FROM meetings
	`)
	if err != nil {
		return nil, fmt.Errorf("query meetings: %w", err)
	}
	defer rows.Close()

	var meetings []Meeting
	for rows.Next() {
		m, err := scanMeeting(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan meeting: %w", err)
		}
		meetings = append(meetings, *m)
	}
	return meetings, rows.Err()
}

// DeleteMeeting removes a meeting and, through the foreign-key cascades,
// its transcript, summary, and action items. No-op when absent.
func (s *Store) DeleteMeeting(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM meetings WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete meeting: %w", err)
	}
	return nil
}

// ClearMeetings removes all meetings and their dependent records.
func (s *Store) ClearMeetings(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM meetings`); err != nil {
		return fmt.Errorf("clear meetings: %w", err)
	}
	return nil
}

func scanMeeting(scan func(...any) error) (*Meeting, error) {
	var m Meeting
	var startedAt, endedAt float64
	var tags string
	var mime sql.NullString

	if err := scan(&m.ID, &m.Title, &startedAt, &endedAt, &m.DurationMS,
		&tags, &m.Status, &m.Audio, &mime, &m.AudioSize); err != nil {
		return nil, err
	}

	m.StartedAt = timeFromUnix(startedAt)
	m.EndedAt = timeFromUnix(endedAt)
	if mime.Valid {
		m.AudioMimeType = mime.String
	}
	if err := json.Unmarshal([]byte(tags), &m.Tags); err != nil {
		return nil, fmt.Errorf("unmarshal tags: %w", err)
	}
	return &m, nil
}

// ---- transcripts ----

// AddTranscript inserts a transcript. Fails if one exists for the meeting.
func (s *Store) AddTranscript(ctx context.Context, t *Transcript) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transcripts (meetingId, text, source, updatedAt)
		VALUES (?, ?, ?, ?)
	`, t.MeetingID, t.Text, t.Source, timeToUnix(t.UpdatedAt))
	if err != nil {
		return fmt.Errorf("add transcript: %w", err)
	}
	return nil
}

// PutTranscript inserts or overwrites the transcript for a meeting.
func (s *Store) PutTranscript(ctx context.Context, t *Transcript) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transcripts (meetingId, text, source, updatedAt)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(meetingId) DO UPDATE SET
			text = excluded.text,
			source = excluded.source,
			updatedAt = excluded.updatedAt
	`, t.MeetingID, t.Text, t.Source, timeToUnix(t.UpdatedAt))
	if err != nil {
		return fmt.Errorf("put transcript: %w", err)
	}
	return nil
}

// Transcript returns the transcript for a meeting, or nil if absent.
func (s *Store) Transcript(ctx context.Context, meetingID string) (*Transcript, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT meetingId, text, source, updatedAt
		FROM transcripts
		WHERE meetingId = ?
	`, meetingID)

	var t Transcript
	var updatedAt float64
	if err := row.Scan(&t.MeetingID, &t.Text, &t.Source, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan transcript: %w", err)
	}
	t.UpdatedAt = timeFromUnix(updatedAt)
	return &t, nil
}

// Transcripts returns all transcripts.
func (s *Store) Transcripts(ctx context.Context) ([]Transcript, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT meetingId, text, source, updatedAt FROM transcripts`)
	if err != nil {
		return nil, fmt.Errorf("query transcripts: %w", err)
	}
	defer rows.Close()

	var transcripts []Transcript
	for rows.Next() {
		var t Transcript
		var updatedAt float64
		if err := rows.Scan(&t.MeetingID, &t.Text, &t.Source, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan transcript: %w", err)
		}
		t.UpdatedAt = timeFromUnix(updatedAt)
		transcripts = append(transcripts, t)
	}
	return transcripts, rows.Err()
}

// DeleteTranscript removes the transcript for a meeting. No-op when absent.
func (s *Store) DeleteTranscript(ctx context.Context, meetingID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM transcripts WHERE meetingId = ?`, meetingID); err != nil {
		return fmt.Errorf("delete transcript: %w", err)
	}
	return nil
}

// ClearTranscripts removes all transcripts.
func (s *Store) ClearTranscripts(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM transcripts`); err != nil {
		return fmt.Errorf("clear transcripts: %w", err)
	}
	return nil
}

// ---- summaries ----

// AddSummary inserts a summary. Fails if one exists for the meeting.
func (s *Store) AddSummary(ctx context.Context, sum *Summary) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO summaries (meetingId, data, createdAt)
		VALUES (?, ?, ?)
	`, sum.MeetingID, sum.Data, timeToUnix(sum.CreatedAt))
	if err != nil {
		return fmt.Errorf("add summary: %w", err)
	}
	return nil
}

// PutSummary inserts or overwrites the summary for a meeting.
func (s *Store) PutSummary(ctx context.Context, sum *Summary) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO summaries (meetingId, data, createdAt)
		VALUES (?, ?, ?)
		ON CONFLICT(meetingId) DO UPDATE SET
			data = excluded.data,
			createdAt = excluded.createdAt
	`, sum.MeetingID, sum.Data, timeToUnix(sum.CreatedAt))
	if err != nil {
		return fmt.Errorf("put summary: %w", err)
	}
	return nil
}

// Summary returns the summary for a meeting, or nil if absent.
func (s *Store) Summary(ctx context.Context, meetingID string) (*Summary, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT meetingId, data, createdAt FROM summaries WHERE meetingId = ?
	`, meetingID)

	var sum Summary
	var createdAt float64
	if err := row.Scan(&sum.MeetingID, &sum.Data, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan summary: %w", err)
	}
	sum.CreatedAt = timeFromUnix(createdAt)
	return &sum, nil
}

// Summaries returns all summaries.
func (s *Store) Summaries(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT meetingId, data, createdAt FROM summaries`)
	if err != nil {
		return nil, fmt.Errorf("query summaries: %w", err)
	}
	defer rows.Close()

	var summaries []Summary
	for rows.Next() {
		var sum Summary
		var createdAt float64
		if err := rows.Scan(&sum.MeetingID, &sum.Data, &createdAt); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		sum.CreatedAt = timeFromUnix(createdAt)
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

// DeleteSummary removes the summary for a meeting. No-op when absent.
func (s *Store) DeleteSummary(ctx context.Context, meetingID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM summaries WHERE meetingId = ?`, meetingID); err != nil {
		return fmt.Errorf("delete summary: %w", err)
	}
	return nil
}

// ClearSummaries removes all summaries.
func (s *Store) ClearSummaries(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM summaries`); err != nil {
		return fmt.Errorf("clear summaries: %w", err)
	}
	return nil
}

// ---- action items ----

// AddActionItem inserts an action item. Fails if the ID already exists.
func (s *Store) AddActionItem(ctx context.Context, it *ActionItem) error {
	_, err := s.db.ExecContext(ctx, insertActionItemSQL,
		it.ID, it.MeetingID, it.Title, it.Assignee, nullable(it.DueDate),
		it.Priority, it.Status, timeToUnix(it.CreatedAt))
	if err != nil {
		return fmt.Errorf("add action item: %w", err)
	}
	return nil
}

// PutActionItem inserts or updates an action item by ID.
func (s *Store) PutActionItem(ctx context.Context, it *ActionItem) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO actionItems (id, meetingId, title, assignee, dueDate, priority, status, createdAt)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			assignee = excluded.assignee,
			dueDate = excluded.dueDate,
			priority = excluded.priority,
			status = excluded.status
	`, it.ID, it.MeetingID, it.Title, it.Assignee, nullable(it.DueDate),
		it.Priority, it.Status, timeToUnix(it.CreatedAt))
	if err != nil {
		return fmt.Errorf("put action item: %w", err)
	}
	return nil
}

// ActionItem returns the action item with the given ID, or nil if absent.
func (s *Store) ActionItem(ctx context.Context, id string) (*ActionItem, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, meetingId, title, assignee, dueDate, priority, status, createdAt
		FROM actionItems
		WHERE id = ?
	`, id)

	it, err := scanActionItem(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan action item: %w", err)
	}
	return it, nil
}

// ActionItems returns all action items.
func (s *Store) ActionItems(ctx context.Context) ([]ActionItem, error) {
	return s.queryActionItems(ctx, `
		SELECT id, meetingId, title, assignee, dueDate, priority, status, createdAt
		FROM actionItems
	`)
}

// ActionItemsForMeeting returns every action item belonging to a meeting.
func (s *Store) ActionItemsForMeeting(ctx context.Context, meetingID string) ([]ActionItem, error) {
	return s.queryActionItems(ctx, `
		SELECT id, meetingId, title, assignee, dueDate, priority, status, createdAt
		FROM actionItems
		WHERE meetingId = ?
	`, meetingID)
}

func (s *Store) queryActionItems(ctx context.Context, query string, args ...any) ([]ActionItem, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query action items: %w", err)
	}
	defer rows.Close()

	var items []ActionItem
	for rows.Next() {
		it, err := scanActionItem(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan action item: %w", err)
		}
		items = append(items, *it)
	}
	return items, rows.Err()
}

// DeleteActionItem removes an action item by ID. No-op when absent.
func (s *Store) DeleteActionItem(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM actionItems WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete action item: %w", err)
	}
	return nil
}

// ClearActionItems removes all action items.
func (s *Store) ClearActionItems(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM actionItems`); err != nil {
		return fmt.Errorf("clear action items: %w", err)
	}
	return nil
}

func scanActionItem(scan func(...any) error) (*ActionItem, error) {
	var it ActionItem
	var due sql.NullString
	var createdAt float64
	if err := scan(&it.ID, &it.MeetingID, &it.Title, &it.Assignee, &due,
		&it.Priority, &it.Status, &createdAt); err != nil {
		return nil, err
	}
	if due.Valid {
		it.DueDate = due.String
	}
	it.CreatedAt = timeFromUnix(createdAt)
	return &it, nil
}

// ---- grouped transactional writes ----

const insertActionItemSQL = `
	INSERT INTO actionItems (id, meetingId, title, assignee, dueDate, priority, status, createdAt)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`

// SaveRecording persists a finished recording: meeting plus transcript in
// one transaction, so a crash cannot leave a meeting without its transcript
// row.
func (s *Store) SaveRecording(ctx context.Context, m *Meeting, t *Transcript) error {
	tags, err := json.Marshal(m.Tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save recording: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO meetings (id, title, startedAt, endedAt, durationMs, tags, status, audio, audioMimeType, audioSize)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, m.ID, m.Title, timeToUnix(m.StartedAt), timeToUnix(m.EndedAt), m.DurationMS,
		string(tags), m.Status, m.Audio, m.AudioMimeType, m.AudioSize); err != nil {
		return fmt.Errorf("save recording meeting: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO transcripts (meetingId, text, source, updatedAt)
		VALUES (?, ?, ?, ?)
	`, t.MeetingID, t.Text, t.Source, timeToUnix(t.UpdatedAt)); err != nil {
		return fmt.Errorf("save recording transcript: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save recording: %w", err)
	}
	return nil
}

// SaveMinutes persists a successful summarization in one transaction: the
// summary is written, the meeting's action-item set is replaced (never
// merged), and the meeting status becomes summarized.
func (s *Store) SaveMinutes(ctx context.Context, sum *Summary, items []ActionItem) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save minutes: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO summaries (meetingId, data, createdAt)
		VALUES (?, ?, ?)
		ON CONFLICT(meetingId) DO UPDATE SET
			data = excluded.data,
			createdAt = excluded.createdAt
	`, sum.MeetingID, sum.Data, timeToUnix(sum.CreatedAt)); err != nil {
		return fmt.Errorf("save minutes summary: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM actionItems WHERE meetingId = ?`, sum.MeetingID); err != nil {
		return fmt.Errorf("replace action items: %w", err)
	}
	for i := range items {
		it := &items[i]
		if _, err := tx.ExecContext(ctx, insertActionItemSQL,
			it.ID, it.MeetingID, it.Title, it.Assignee, nullable(it.DueDate),
			it.Priority, it.Status, timeToUnix(it.CreatedAt)); err != nil {
			return fmt.Errorf("insert action item: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `UPDATE meetings SET status = ? WHERE id = ?`,
		StatusSummarized, sum.MeetingID); err != nil {
		return fmt.Errorf("mark summarized: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save minutes: %w", err)
	}
	return nil
}

// Reset removes every record of every kind.
func (s *Store) Reset(ctx context.Context) error {
	// Child tables cascade from meetings, but clear them explicitly so a
	// reset also removes orphans left by older databases.
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reset: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"actionItems", "summaries", "transcripts", "meetings"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("reset %s: %w", table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reset: %w", err)
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func timeToUnix(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

func timeFromUnix(ts float64) time.Time {
	sec := int64(ts)
	nsec := int64((ts - float64(sec)) * 1e9)
	return time.Unix(sec, nsec)
}
