package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mcoot/guildtracker/internal/model"
	"github.com/mcoot/guildtracker/internal/services/roster"
)

func newImportCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Record a roster saved by fetch",
		Long: `Read a JSON array in the format fetch prints, from a file or stdin, and
record it under --date (today by default). Entries without a name or a
level are skipped.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var in io.Reader = cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer func() { _ = f.Close() }()
				in = f
			}

			levels, err := roster.ReadJSON(in)
			if err != nil {
				return err
			}

			a, err := openApp(ctx)
			if err != nil {
				return err
			}

			if date == "" {
				date = model.DateOf(a.Clock.Now())
			}
			n, err := a.TrackerService.RecordOn(ctx, date, levels)
			if err != nil {
				return fmt.Errorf("import: %w", err)
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(Recorded{Date: date, Recorded: n})
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Date to record under, YYYY-MM-DD (default today)")
	return cmd
}
