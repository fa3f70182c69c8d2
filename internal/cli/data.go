package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func NewExportCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Export all meetings as JSON (audio excluded)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := deps.Service.Export(cmd.Context())
			if err != nil {
				return err
			}
			if len(args) == 0 || args[0] == "-" {
				_, err = cmd.OutOrStdout().Write(append(data, '\n'))
				return err
			}
			if err := os.WriteFile(args[0], data, 0o600); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			fmt.Printf("Exported to %s\n", args[0])
			return nil
		},
	}
}

func NewImportCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import a previously exported archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read archive: %w", err)
			}
			if err := deps.Service.Import(cmd.Context(), data); err != nil {
				return err
			}
			fmt.Println("Import complete.")
			return nil
		},
	}
}

func NewResetCmd(deps *Dependencies) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every stored meeting, transcript, summary, and task",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to wipe the database without --yes")
			}
			if err := deps.Service.Reset(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("All data deleted.")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the full wipe")
	return cmd
}
