// Package cli wires the cobra commands. Running the binary with no
// subcommand opens the TUI; the subcommands cover scripted use.
package cli

import (
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/meetingmind/meetingmind/config"
	"github.com/meetingmind/meetingmind/internal/app"
	"github.com/meetingmind/meetingmind/internal/capture"
	"github.com/meetingmind/meetingmind/internal/meetings"
	"github.com/meetingmind/meetingmind/internal/recognizer"
	"github.com/meetingmind/meetingmind/internal/session"
	"github.com/meetingmind/meetingmind/internal/version"
)

type Dependencies struct {
	Service *meetings.Service
	Config  *config.Config
	Logger  *slog.Logger
}

func NewRootCmd(deps *Dependencies) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "meetingmind",
		Short: "Record meetings, capture live transcripts, and generate minutes",
		Long: "A local-first meeting notebook: records audio, captures live " +
			"speech-to-text, and turns transcripts into structured minutes " +
			"with action items.",
		RunE: func(cmd *cobra.Command, args []string) error {
			model := app.New(deps.Service, newSessionFactory(deps.Config, deps.Logger), deps.Logger)
			_, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
			return err
		},
	}

	rootCmd.Version = version.Version
	rootCmd.SetVersionTemplate(version.Full() + "\n")

	rootCmd.AddCommand(NewListCmd(deps))
	rootCmd.AddCommand(NewShowCmd(deps))
	rootCmd.AddCommand(NewTranscriptCmd(deps))
	rootCmd.AddCommand(NewSummarizeCmd(deps))
	rootCmd.AddCommand(NewDeleteCmd(deps))
	rootCmd.AddCommand(NewExportCmd(deps))
	rootCmd.AddCommand(NewImportCmd(deps))
	rootCmd.AddCommand(NewResetCmd(deps))
	rootCmd.AddCommand(NewDoctorCmd(deps))

	return rootCmd
}

// newSessionFactory builds one recording session per use: a fresh ffmpeg
// capture plus, when the recognizer daemon is reachable, a speech stream.
// Without the daemon the session records audio-only.
func newSessionFactory(cfg *config.Config, log *slog.Logger) app.SessionFactory {
	return func() app.RecordingSession {
		rec := capture.NewRecorder(cfg.FFmpegPath, cfg.AudioFormat, cfg.AudioDevice)

		var speech session.Speech
		if recognizer.Available(cfg.RecognizerSocket) {
			client, err := recognizer.Connect(cfg.RecognizerSocket)
			if err != nil {
				log.Warn("recognizer daemon unreachable, recording audio-only", "error", err)
			} else {
				speech = client
			}
		}

		return session.New(rec, speech, cfg.Locale, log)
	}
}
