package cli

import (
	"github.com/spf13/cobra"

	"github.com/mcoot/guildtracker/internal/model"
)

func newProgressCmd() *cobra.Command {
	var days, top int

	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Show who progressed least and most over recent days",
		Long: `Compare each member's level on the oldest and newest of the last --days
recorded dates. Only members recorded on every one of those dates count.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			days = intFlag(cmd, "days", days, cfg.ShortWindow)
			top = intFlag(cmd, "top", top, cfg.Top)

			a, err := openApp(ctx)
			if err != nil {
				return err
			}

			report, err := a.TrackerService.Progress(ctx, days, top)
			if err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(Progress{Days: days, ProgressReport: report})
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", DefaultConfig().ShortWindow, "Number of recorded days to compare")
	cmd.Flags().IntVar(&top, "top", DefaultConfig().Top, "Number of members per list")
	return cmd
}

func newProjectCmd() *cobra.Command {
	var top int

	cmd := &cobra.Command{
		Use:   "project",
		Short: "Project member levels a week ahead",
		Long: `Assume each member keeps the pace of the last 7 recorded days and show
where they will be in 7 days, highest first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			top = intFlag(cmd, "top", top, cfg.Top)

			a, err := openApp(ctx)
			if err != nil {
				return err
			}

			report, err := a.TrackerService.Projection(ctx, top)
			if err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(Projection{ProjectionReport: report})
			return nil
		},
	}

	cmd.Flags().IntVar(&top, "top", DefaultConfig().Top, "Number of members to show")
	return cmd
}

func newHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show every recorded level",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := openApp(ctx)
			if err != nil {
				return err
			}

			records, err := a.TrackerService.History(ctx)
			if err != nil {
				return err
			}
			if records == nil {
				records = []model.LevelRecord{}
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(History(records))
			return nil
		},
	}
}
