// Package app is the bubbletea TUI: a record view with live transcription,
// the meeting history, a detail view with the generated minutes, and a
// dashboard of trailing-month numbers.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/meetingmind/meetingmind/internal/db"
	"github.com/meetingmind/meetingmind/internal/meetings"
	"github.com/meetingmind/meetingmind/internal/session"
	"github.com/meetingmind/meetingmind/internal/ui"
)

// View identifies the active screen.
type View int

const (
	ViewRecord View = iota
	ViewHistory
	ViewDetail
	ViewDashboard
)

// RecordingSession is the slice of a live session the TUI drives.
type RecordingSession interface {
	Start(ctx context.Context) error
	Stop() (*session.Result, error)
	Updates() <-chan session.Update
}

// SessionFactory builds a fresh session per recording.
type SessionFactory func() RecordingSession

// Model is the root bubbletea model.
type Model struct {
	svc        *meetings.Service
	newSession SessionFactory
	log        *slog.Logger

	view   View
	width  int
	height int

	// Recording state
	recording   bool
	sess        RecordingSession
	degraded    bool
	partialText string
	liveLines   []string
	startedAt   time.Time
	elapsed     time.Duration

	// Save prompt shown after a recording stops
	pendingSave   bool
	pendingResult *session.Result
	titleInput    string

	// History
	meetingsList []db.Meeting
	selected     int

	// Detail
	detail      *meetings.Detail
	summarizing bool

	// Dashboard
	stats *meetings.Stats

	// Errors
	errorMessage   string
	errorTransient bool

	statusText string
}

// New creates the root model.
func New(svc *meetings.Service, factory SessionFactory, log *slog.Logger) Model {
	if log == nil {
		log = slog.Default()
	}
	return Model{
		svc:        svc,
		newSession: factory,
		log:        log,
		statusText: "Idle",
	}
}

// Init preloads the history so switching views is instant.
func (m Model) Init() tea.Cmd {
	return loadMeetingsCmd(m.svc)
}

// ---- commands ----

func startSessionCmd(factory SessionFactory) tea.Cmd {
	return func() tea.Msg {
		sess := factory()
		if err := sess.Start(context.Background()); err != nil {
			return SessionStartErrorMsg{Err: err}
		}
		return SessionStartedMsg{Session: sess}
	}
}

// readUpdateCmd reads the next live update from the session.
func readUpdateCmd(sess RecordingSession) tea.Cmd {
	return func() tea.Msg {
		return SessionUpdateMsg{Update: <-sess.Updates()}
	}
}

func stopSessionCmd(sess RecordingSession) tea.Cmd {
	return func() tea.Msg {
		res, err := sess.Stop()
		if err != nil {
			return RecordingErrorMsg{Err: err}
		}
		return RecordingStoppedMsg{Result: res}
	}
}

func saveRecordingCmd(svc *meetings.Service, title string, res *session.Result) tea.Cmd {
	return func() tea.Msg {
		meeting, err := svc.SaveRecording(context.Background(), title, res)
		if err != nil {
			return RecordingErrorMsg{Err: err}
		}
		return RecordingSavedMsg{Meeting: *meeting}
	}
}

func loadMeetingsCmd(svc *meetings.Service) tea.Cmd {
	return func() tea.Msg {
		list, err := svc.Meetings(context.Background())
		if err != nil {
			return LoadErrorMsg{Err: err}
		}
		return MeetingsLoadedMsg{Meetings: list}
	}
}

func loadDetailCmd(svc *meetings.Service, meetingID string) tea.Cmd {
	return func() tea.Msg {
		d, err := svc.Detail(context.Background(), meetingID)
		if err != nil {
			return LoadErrorMsg{Err: err}
		}
		return DetailLoadedMsg{Detail: d}
	}
}

func summarizeCmd(svc *meetings.Service, meetingID string) tea.Cmd {
	return func() tea.Msg {
		_, err := svc.Summarize(context.Background(), meetingID)
		return SummarizeDoneMsg{MeetingID: meetingID, Err: err}
	}
}

func deleteCmd(svc *meetings.Service, meetingID string) tea.Cmd {
	return func() tea.Msg {
		return DeleteDoneMsg{Err: svc.Delete(context.Background(), meetingID)}
	}
}

func loadStatsCmd(svc *meetings.Service) tea.Cmd {
	return func() tea.Msg {
		st, err := svc.Stats(context.Background(), time.Now())
		if err != nil {
			return LoadErrorMsg{Err: err}
		}
		return StatsLoadedMsg{Stats: st}
	}
}

func clearTransientErrorCmd() tea.Cmd {
	return tea.Tick(5*time.Second, func(time.Time) tea.Msg {
		return ClearTransientErrorMsg{}
	})
}

func timerTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return TimerTickMsg{}
	})
}

// ---- update ----

// Update processes messages and returns the updated model and any commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case SessionStartedMsg:
		m.recording = true
		m.sess = msg.Session
		m.degraded = false
		m.partialText = ""
		m.liveLines = nil
		m.startedAt = time.Now()
		m.elapsed = 0
		m.statusText = "Recording"
		return m, tea.Batch(readUpdateCmd(m.sess), timerTickCmd())

	case SessionStartErrorMsg:
		m.statusText = "Idle"
		m.errorMessage = msg.Err.Error()
		m.errorTransient = false
		return m, nil

	case SessionUpdateMsg:
		if !m.recording {
			return m, nil
		}
		switch msg.Update.Kind {
		case session.UpdatePartial:
			m.partialText = msg.Update.Text
		case session.UpdateFinal:
			m.liveLines = append(m.liveLines, msg.Update.Text)
			m.partialText = ""
		case session.UpdateDegraded:
			m.degraded = true
		case session.UpdateError:
			m.errorMessage = msg.Update.Err.Error()
			m.errorTransient = true
			return m, tea.Batch(readUpdateCmd(m.sess), clearTransientErrorCmd())
		}
		return m, readUpdateCmd(m.sess)

	case TimerTickMsg:
		if !m.recording {
			return m, nil
		}
		m.elapsed = time.Since(m.startedAt)
		return m, timerTickCmd()

	case RecordingStoppedMsg:
		m.recording = false
		m.sess = nil
		m.partialText = ""
		m.pendingSave = true
		m.pendingResult = msg.Result
		m.titleInput = ""
		m.statusText = "Name the recording"
		return m, nil

	case RecordingSavedMsg:
		m.pendingSave = false
		m.pendingResult = nil
		m.titleInput = ""
		m.liveLines = nil
		m.degraded = false
		m.statusText = "Saved"
		m.view = ViewHistory
		return m, loadMeetingsCmd(m.svc)

	case RecordingErrorMsg:
		m.recording = false
		m.sess = nil
		m.statusText = "Idle"
		m.errorMessage = msg.Err.Error()
		m.errorTransient = false
		return m, nil

	case MeetingsLoadedMsg:
		m.meetingsList = msg.Meetings
		if m.selected >= len(m.meetingsList) {
			m.selected = max(0, len(m.meetingsList)-1)
		}
		return m, nil

	case DetailLoadedMsg:
		m.detail = msg.Detail
		m.view = ViewDetail
		return m, nil

	case SummarizeDoneMsg:
		m.summarizing = false
		if msg.Err != nil {
			m.errorMessage = msg.Err.Error()
			m.errorTransient = true
			return m, clearTransientErrorCmd()
		}
		m.statusText = "Minutes ready"
		cmds := []tea.Cmd{loadMeetingsCmd(m.svc)}
		if m.view == ViewDetail && m.detail != nil && m.detail.Meeting.ID == msg.MeetingID {
			cmds = append(cmds, loadDetailCmd(m.svc, msg.MeetingID))
		}
		return m, tea.Batch(cmds...)

	case DeleteDoneMsg:
		if msg.Err != nil {
			m.errorMessage = msg.Err.Error()
			m.errorTransient = true
			return m, clearTransientErrorCmd()
		}
		if m.view == ViewDetail {
			m.view = ViewHistory
			m.detail = nil
		}
		return m, loadMeetingsCmd(m.svc)

	case StatsLoadedMsg:
		m.stats = msg.Stats
		return m, nil

	case LoadErrorMsg:
		m.errorMessage = msg.Err.Error()
		m.errorTransient = true
		return m, clearTransientErrorCmd()

	case ClearTransientErrorMsg:
		if m.errorTransient {
			m.errorMessage = ""
			m.errorTransient = false
		}
		return m, nil
	}

	return m, nil
}

// handleKey processes key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == KeyCtrlC {
		if m.sess != nil {
			m.sess.Stop()
		}
		return m, tea.Quit
	}

	// The save prompt captures everything typed.
	if m.pendingSave {
		switch key {
		case KeyEnter:
			res := m.pendingResult
			title := m.titleInput
			return m, saveRecordingCmd(m.svc, title, res)
		case KeyEsc:
			m.pendingSave = false
			m.pendingResult = nil
			m.titleInput = ""
			m.liveLines = nil
			m.statusText = "Discarded"
			return m, nil
		case KeyBackspace:
			if len(m.titleInput) > 0 {
				runes := []rune(m.titleInput)
				m.titleInput = string(runes[:len(runes)-1])
			}
			return m, nil
		case KeySpace:
			m.titleInput += " "
			return m, nil
		default:
			if msg.Type == tea.KeyRunes {
				m.titleInput += string(msg.Runes)
			}
			return m, nil
		}
	}

	switch key {
	case KeyQuit, KeyQuitUpper:
		if m.sess != nil {
			m.sess.Stop()
		}
		return m, tea.Quit

	case KeyTab:
		switch m.view {
		case ViewRecord:
			m.view = ViewHistory
			return m, loadMeetingsCmd(m.svc)
		case ViewHistory, ViewDetail:
			m.view = ViewDashboard
			return m, loadStatsCmd(m.svc)
		default:
			m.view = ViewRecord
			return m, nil
		}

	case KeySpace:
		if m.view != ViewRecord {
			return m, nil
		}
		if m.recording {
			m.statusText = "Stopping..."
			return m, stopSessionCmd(m.sess)
		}
		m.errorMessage = ""
		m.statusText = "Starting..."
		return m, startSessionCmd(m.newSession)

	case KeyJ, KeyDown:
		if m.view == ViewHistory && m.selected < len(m.meetingsList)-1 {
			m.selected++
		}
		return m, nil

	case KeyK, KeyUp:
		if m.view == ViewHistory && m.selected > 0 {
			m.selected--
		}
		return m, nil

	case KeyEnter:
		if m.view == ViewHistory && m.selected < len(m.meetingsList) {
			return m, loadDetailCmd(m.svc, m.meetingsList[m.selected].ID)
		}
		return m, nil

	case KeyEsc:
		if m.view == ViewDetail {
			m.view = ViewHistory
			m.detail = nil
		}
		return m, nil

	case KeySummarize:
		id := m.currentMeetingID()
		if id == "" || m.summarizing {
			return m, nil
		}
		m.summarizing = true
		m.statusText = "Summarizing..."
		return m, summarizeCmd(m.svc, id)

	case KeyDelete:
		id := m.currentMeetingID()
		if id == "" {
			return m, nil
		}
		return m, deleteCmd(m.svc, id)
	}

	return m, nil
}

// currentMeetingID resolves the meeting the user is acting on.
func (m Model) currentMeetingID() string {
	switch m.view {
	case ViewDetail:
		if m.detail != nil {
			return m.detail.Meeting.ID
		}
	case ViewHistory:
		if m.selected < len(m.meetingsList) {
			return m.meetingsList[m.selected].ID
		}
	}
	return ""
}

// ---- view ----

// View renders the full TUI.
func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	var sections []string
	sections = append(sections, m.renderHeader())
	sections = append(sections, m.renderStatusBar())
	sections = append(sections, ui.DividerStyle.Render(strings.Repeat("─", m.width)))

	switch m.view {
	case ViewRecord:
		sections = append(sections, m.renderRecordView())
	case ViewHistory:
		sections = append(sections, m.renderHistoryView())
	case ViewDetail:
		sections = append(sections, m.renderDetailView())
	case ViewDashboard:
		sections = append(sections, m.renderDashboardView())
	}

	sections = append(sections, ui.DividerStyle.Render(strings.Repeat("─", m.width)))
	if m.errorMessage != "" {
		sections = append(sections, ui.ErrorStyle.Render("Error: ")+ui.ErrorTextStyle.Render(m.errorMessage))
	}
	sections = append(sections, m.renderFooter())

	return strings.Join(sections, "\n")
}

func (m Model) renderHeader() string {
	title := ui.TitleStyle.Render("MEETINGMIND")
	var label string
	switch m.view {
	case ViewRecord:
		label = " — Record"
	case ViewHistory:
		label = " — History"
	case ViewDetail:
		label = " — Meeting"
	case ViewDashboard:
		label = " — Dashboard"
	}
	return title + ui.DimStyle.Render(label)
}

func (m Model) renderStatusBar() string {
	var dot string
	if m.recording {
		dot = ui.RecordingDotStyle.Render("● REC " + formatElapsed(m.elapsed))
	} else {
		dot = ui.IdleDotStyle.Render("○ " + m.statusText)
	}

	var degraded string
	if m.degraded && m.recording {
		degraded = "  " + ui.WarnStyle.Render("⚠ audio-only (no live transcription)")
	}

	var processing string
	if m.summarizing {
		processing = "  " + ui.SpinnerStyle.Render("⟳ AI")
	}

	return dot + degraded + processing
}

func (m Model) renderRecordView() string {
	height := m.contentHeight()
	var lines []string

	if m.pendingSave {
		lines = append(lines, "")
		lines = append(lines, ui.PanelTitleStyle.Render("  Save recording"))
		lines = append(lines, "")
		lines = append(lines, "  Title: "+ui.InputStyle.Render(m.titleInput+"▌"))
		lines = append(lines, "")
		lines = append(lines, ui.DimStyle.Render("  Enter to save, Esc to discard"))
	} else if !m.recording && len(m.liveLines) == 0 {
		lines = append(lines, "")
		lines = append(lines, ui.DimStyle.Render("  Press Space to start recording"))
	} else {
		textWidth := max(10, m.width-4)
		for _, l := range m.liveLines {
			for _, wl := range wrapText(l, textWidth) {
				lines = append(lines, "  "+wl)
			}
		}
		if m.partialText != "" {
			for _, wl := range wrapText(m.partialText+"▌", textWidth) {
				lines = append(lines, "  "+ui.PartialTextStyle.Render(wl))
			}
		}
		if len(lines) > height {
			lines = lines[len(lines)-height:]
		}
	}

	return padLines(lines, height)
}

func (m Model) renderHistoryView() string {
	height := m.contentHeight()
	var lines []string

	if len(m.meetingsList) == 0 {
		lines = append(lines, "")
		lines = append(lines, ui.DimStyle.Render("  No meetings yet. Record one first."))
	} else {
		for i, meeting := range m.meetingsList {
			badge := ui.StatusBadge(meeting.Status)
			ts := ui.TimestampStyle.Render(meeting.StartedAt.Format("2006-01-02 15:04"))
			dur := ui.DimStyle.Render(formatElapsed(time.Duration(meeting.DurationMS) * time.Millisecond))
			line := fmt.Sprintf("%s %s  %s  %s", badge, ts, truncateToWidth(meeting.Title, 40), dur)
			if i == m.selected {
				line = ui.SelectedStyle.Render("> ") + line
			} else {
				line = "  " + line
			}
			lines = append(lines, line)
		}
		lines = scrollWindow(lines, m.selected, height)
	}

	return padLines(lines, height)
}

func (m Model) renderDetailView() string {
	height := m.contentHeight()
	if m.detail == nil {
		return padLines([]string{ui.DimStyle.Render("  Loading...")}, height)
	}

	d := m.detail
	textWidth := max(10, m.width-4)
	var lines []string

	lines = append(lines, "  "+ui.PanelTitleStyle.Render(d.Meeting.Title)+" "+ui.StatusBadge(d.Meeting.Status))
	lines = append(lines, "  "+ui.DimStyle.Render(
		d.Meeting.StartedAt.Format("2006-01-02 15:04")+" · "+formatElapsed(time.Duration(d.Meeting.DurationMS)*time.Millisecond)))
	lines = append(lines, "")

	if d.Minutes != nil {
		lines = append(lines, "  "+ui.PanelTitleActiveStyle.Render("Minutes"))
		for _, wl := range wrapText(d.Minutes.ExecutiveSummary, textWidth) {
			lines = append(lines, "  "+wl)
		}
		if len(d.Minutes.KeyPoints) > 0 {
			lines = append(lines, "")
			lines = append(lines, "  "+ui.PanelTitleStyle.Render("Key points"))
			for _, p := range d.Minutes.KeyPoints {
				for j, wl := range wrapText(p, textWidth-2) {
					prefix := "  • "
					if j > 0 {
						prefix = "    "
					}
					lines = append(lines, prefix+wl)
				}
			}
		}
		if len(d.ActionItems) > 0 {
			lines = append(lines, "")
			lines = append(lines, "  "+ui.PanelTitleStyle.Render(fmt.Sprintf("Action plan (%d)", len(d.ActionItems))))
			for _, it := range d.ActionItems {
				due := it.DueDate
				if due == "" {
					due = "no due date"
				}
				lines = append(lines, truncateToWidth(
					fmt.Sprintf("  • %s — %s (%s, %s)", it.Title, it.Assignee, it.Priority, due), m.width-2))
			}
		}
	} else if d.Transcript != nil && strings.TrimSpace(d.Transcript.Text) != "" {
		lines = append(lines, "  "+ui.PanelTitleActiveStyle.Render("Transcript"))
		for _, wl := range wrapText(d.Transcript.Text, textWidth) {
			lines = append(lines, "  "+wl)
		}
		lines = append(lines, "")
		lines = append(lines, ui.DimStyle.Render("  Press s to generate minutes"))
	} else {
		lines = append(lines, ui.DimStyle.Render("  No transcript. Edit one with: meetingmind transcript"))
	}

	if len(lines) > height {
		lines = lines[:height]
	}
	return padLines(lines, height)
}

func (m Model) renderDashboardView() string {
	height := m.contentHeight()
	if m.stats == nil {
		return padLines([]string{ui.DimStyle.Render("  Loading...")}, height)
	}

	st := m.stats
	var lines []string
	lines = append(lines, "")
	lines = append(lines, "  "+ui.PanelTitleActiveStyle.Render("Last 30 days"))
	lines = append(lines, fmt.Sprintf("    Meeting time     %s", formatHoursMinutes(st.TotalDuration)))
	lines = append(lines, fmt.Sprintf("    Meetings         %d", st.MeetingCount))
	lines = append(lines, fmt.Sprintf("    Open tasks       %d", st.OpenTaskCount))
	lines = append(lines, fmt.Sprintf("    With action plan %d%%", st.ActionPlanPct))

	if len(st.OpenTasks) > 0 {
		lines = append(lines, "")
		lines = append(lines, "  "+ui.PanelTitleStyle.Render("Open tasks"))
		for _, it := range st.OpenTasks {
			lines = append(lines, truncateToWidth(
				fmt.Sprintf("    • %s — %s (%s)", it.Title, it.Assignee, it.Priority), m.width-2))
			if len(lines) >= height {
				break
			}
		}
	}

	if len(lines) > height {
		lines = lines[:height]
	}
	return padLines(lines, height)
}

func (m Model) renderFooter() string {
	var parts []string

	switch m.view {
	case ViewRecord:
		if m.recording {
			parts = append(parts, ui.FooterKeyStyle.Render("Space")+ui.FooterDescStyle.Render(" Stop"))
		} else if !m.pendingSave {
			parts = append(parts, ui.FooterKeyStyle.Render("Space")+ui.FooterDescStyle.Render(" Record"))
		}
	case ViewHistory:
		parts = append(parts, ui.FooterKeyStyle.Render("j/k")+ui.FooterDescStyle.Render(" Nav"))
		parts = append(parts, ui.FooterKeyStyle.Render("Enter")+ui.FooterDescStyle.Render(" Open"))
		parts = append(parts, ui.FooterKeyStyle.Render("s")+ui.FooterDescStyle.Render(" Summarize"))
		parts = append(parts, ui.FooterKeyStyle.Render("x")+ui.FooterDescStyle.Render(" Delete"))
	case ViewDetail:
		parts = append(parts, ui.FooterKeyStyle.Render("s")+ui.FooterDescStyle.Render(" Summarize"))
		parts = append(parts, ui.FooterKeyStyle.Render("x")+ui.FooterDescStyle.Render(" Delete"))
		parts = append(parts, ui.FooterKeyStyle.Render("Esc")+ui.FooterDescStyle.Render(" Back"))
	}

	parts = append(parts, ui.FooterKeyStyle.Render("Tab")+ui.FooterDescStyle.Render(" View"))
	parts = append(parts, ui.FooterKeyStyle.Render("q")+ui.FooterDescStyle.Render(" Quit"))

	return strings.Join(parts, "  ")
}

func (m Model) contentHeight() int {
	if m.height == 0 {
		return 20
	}
	// header + status + two dividers + error + footer
	return max(5, m.height-7)
}

// ---- helpers ----

func formatElapsed(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d.Hours())
	mi := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, mi, s)
}

func formatHoursMinutes(d time.Duration) string {
	total := int(d.Minutes())
	return fmt.Sprintf("%dh %dm", total/60, total%60)
}

// scrollWindow keeps the selected line visible in a list taller than the
// viewport.
func scrollWindow(lines []string, selected, height int) []string {
	if len(lines) <= height {
		return lines
	}
	start := 0
	if selected >= height {
		start = selected - height + 1
	}
	end := start + height
	if end > len(lines) {
		end = len(lines)
	}
	return lines[start:end]
}

func padLines(lines []string, height int) string {
	for len(lines) < height {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func truncateToWidth(s string, width int) string {
	visible := lipgloss.Width(s)
	if visible <= width {
		return s
	}
	runes := []rune(s)
	if len(runes) > width-1 {
		return string(runes[:width-1]) + "…"
	}
	return s
}

func wrapText(text string, width int) []string {
	if width <= 0 {
		return []string{text}
	}

	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		var current string
		for _, word := range strings.Fields(paragraph) {
			if current == "" {
				current = word
			} else if len(current)+1+len(word) <= width {
				current += " " + word
			} else {
				lines = append(lines, current)
				current = word
			}
		}
		if current != "" {
			lines = append(lines, current)
		} else {
			lines = append(lines, "")
		}
	}
	if len(lines) == 0 {
		return []string{""}
	}
	return lines
}
