package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/meetingmind/meetingmind/internal/db"
)

// resolveMeeting matches a full ID or a unique ID prefix.
func resolveMeeting(cmd *cobra.Command, deps *Dependencies, arg string) (*db.Meeting, error) {
	ctx := cmd.Context()
	list, err := deps.Service.Meetings(ctx)
	if err != nil {
		return nil, err
	}

	var matches []db.Meeting
	for _, m := range list {
		if m.ID == arg {
			return &m, nil
		}
		if strings.HasPrefix(m.ID, arg) {
			matches = append(matches, m)
		}
	}
	switch len(matches) {
	case 1:
		return &matches[0], nil
	case 0:
		return nil, fmt.Errorf("no meeting matches %q", arg)
	default:
		return nil, fmt.Errorf("%q matches %d meetings, use more of the id", arg, len(matches))
	}
}

func NewListCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recorded meetings",
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := deps.Service.Meetings(cmd.Context())
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Println("No meetings yet.")
				return nil
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%-10s  %-16s  %-11s  %-9s  %s\n", "ID", "STARTED", "STATUS", "DURATION", "TITLE")
			for _, m := range list {
				fmt.Fprintf(w, "%-10s  %-16s  %-11s  %-9s  %s\n",
					m.ID[:8],
					m.StartedAt.Local().Format("2006-01-02 15:04"),
					m.Status,
					(time.Duration(m.DurationMS) * time.Millisecond).Round(time.Second),
					m.Title)
			}
			return nil
		},
	}
}

func NewShowCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "show <meeting-id>",
		Short: "Show a meeting's transcript and minutes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := resolveMeeting(cmd, deps, args[0])
			if err != nil {
				return err
			}
			d, err := deps.Service.Detail(cmd.Context(), m.ID)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s  [%s]\n", d.Meeting.Title, d.Meeting.Status)
			fmt.Fprintf(w, "%s · %s\n\n",
				d.Meeting.StartedAt.Local().Format("2006-01-02 15:04"),
				(time.Duration(d.Meeting.DurationMS) * time.Millisecond).Round(time.Second))

			if d.Transcript != nil && strings.TrimSpace(d.Transcript.Text) != "" {
				fmt.Fprintf(w, "## Transcript (%s)\n%s\n\n", d.Transcript.Source, d.Transcript.Text)
			}

			if d.Minutes != nil {
				min := d.Minutes
				fmt.Fprintf(w, "## Minutes: %s\n", min.Title)
				fmt.Fprintf(w, "%s, %s\n\n", min.Date, min.TimeRange)
				fmt.Fprintf(w, "### Summary\n%s\n\n", min.ExecutiveSummary)
				if min.Objective != "" {
					fmt.Fprintf(w, "### Objective\n%s\n\n", min.Objective)
				}
				if len(min.Participants) > 0 {
					fmt.Fprintln(w, "### Participants")
					for _, p := range min.Participants {
						fmt.Fprintf(w, "- %s: %s\n", p.Name, p.Contribution)
					}
					fmt.Fprintln(w)
				}
				if len(min.KeyPoints) > 0 {
					fmt.Fprintln(w, "### Key points")
					for _, p := range min.KeyPoints {
						fmt.Fprintf(w, "- %s\n", p)
					}
					fmt.Fprintln(w)
				}
				if len(d.ActionItems) > 0 {
					fmt.Fprintln(w, "### Action plan")
					for _, it := range d.ActionItems {
						due := it.DueDate
						if due == "" {
							due = "no due date"
						}
						fmt.Fprintf(w, "- [%s] %s — %s (%s, %s)\n", it.Status, it.Title, it.Assignee, it.Priority, due)
					}
					fmt.Fprintln(w)
				}
				if len(min.Topics) > 0 {
					fmt.Fprintf(w, "Topics: %s\n", strings.Join(min.Topics, ", "))
				}
			}
			return nil
		},
	}
}

func NewTranscriptCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "transcript <meeting-id> [file]",
		Short: "Replace a meeting's transcript from a file or stdin",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := resolveMeeting(cmd, deps, args[0])
			if err != nil {
				return err
			}

			var text []byte
			if len(args) == 2 && args[1] != "-" {
				text, err = os.ReadFile(args[1])
			} else {
				text, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return fmt.Errorf("read transcript: %w", err)
			}

			if err := deps.Service.SaveTranscript(cmd.Context(), m.ID, string(text)); err != nil {
				return err
			}
			fmt.Printf("Transcript saved for %s\n", m.Title)
			return nil
		},
	}
}

func NewSummarizeCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "summarize <meeting-id>",
		Short: "Generate structured minutes for a meeting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := resolveMeeting(cmd, deps, args[0])
			if err != nil {
				return err
			}

			minutes, err := deps.Service.Summarize(cmd.Context(), m.ID)
			if err != nil {
				return err
			}
			fmt.Printf("Minutes generated: %s (%d action items)\n", minutes.Title, len(minutes.ActionPlan))
			return nil
		},
	}
}

func NewDeleteCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <meeting-id>",
		Short: "Delete a meeting and everything attached to it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := resolveMeeting(cmd, deps, args[0])
			if err != nil {
				return err
			}
			if err := deps.Service.Delete(cmd.Context(), m.ID); err != nil {
				return err
			}
			fmt.Printf("Deleted %s\n", m.Title)
			return nil
		},
	}
}
