package cli

import (
	"fmt"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/meetingmind/meetingmind/internal/recognizer"
)

func NewDoctorCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check prerequisites",
		RunE: func(cmd *cobra.Command, args []string) error {
			ok := true
			check := func(name string, good bool, detail string) {
				mark := "✓"
				if !good {
					mark = "✗"
					ok = false
				}
				fmt.Printf("%s %-20s %s\n", mark, name, detail)
			}

			if _, err := exec.LookPath(deps.Config.FFmpegPath); err != nil {
				check("ffmpeg", false, "not found, audio capture will fail")
			} else {
				check("ffmpeg", true, deps.Config.FFmpegPath)
			}

			if recognizer.Available(deps.Config.RecognizerSocket) {
				check("recognizer daemon", true, deps.Config.RecognizerSocket)
			} else {
				fmt.Printf("~ %-20s %s\n", "recognizer daemon",
					"not running, recordings will be audio-only")
			}

			if deps.Config.GeminiAPIKey != "" {
				check("Gemini API key", true, "configured")
			} else {
				check("Gemini API key", false,
					"not set, set MEETINGMIND_GEMINI_API_KEY or add gemini_api_key to the config file")
			}

			check("database", true, deps.Config.DatabasePath)

			if ok {
				fmt.Println("\nReady to record.")
			} else {
				fmt.Println("\nSome prerequisites are missing.")
			}
			return nil
		},
	}
}
