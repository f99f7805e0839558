package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/mcoot/guildtracker/internal/model"
)

func newTrackCmd() *cobra.Command {
	var top int

	cmd := &cobra.Command{
		Use:   "track",
		Short: "Fetch the roster, record today's levels and report progress",
		Long: `Fetch the guild roster, append today's levels to the history, then report
the least and most progress over the short and long windows and project
each member's level a week ahead.

Reports that lack data are shown as notes and do not fail the command.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			top = intFlag(cmd, "top", top, cfg.Top)

			creds, err := Credentials()
			if err != nil {
				return err
			}

			a, err := openApp(ctx)
			if err != nil {
				return err
			}

			levels, err := a.RosterService.Fetch(ctx, creds)
			if err != nil {
				return err
			}

			result := TrackResult{Recorded: Recorded{Date: model.DateOf(a.Clock.Now())}}
			result.Recorded.Recorded, err = a.TrackerService.RecordOn(ctx, result.Date, levels)
			if err != nil {
				return err
			}

			for _, days := range []int{cfg.ShortWindow, cfg.LongWindow} {
				report, err := a.TrackerService.Progress(ctx, days, top)
				if err != nil {
					if !isNotEnoughData(err) {
						return err
					}
					result.Notes = append(result.Notes, "progress: "+err.Error())
					continue
				}
				result.Progress = append(result.Progress, Progress{Days: days, ProgressReport: report})
			}

			projection, err := a.TrackerService.Projection(ctx, top)
			switch {
			case err == nil:
				result.Projection = &Projection{ProjectionReport: projection}
			case isNotEnoughData(err):
				result.Notes = append(result.Notes, "projection: "+err.Error())
			default:
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&top, "top", DefaultConfig().Top, "Number of members per list")
	return cmd
}

// isNotEnoughData reports whether err only means the history is too thin
func isNotEnoughData(err error) bool {
	return errors.Is(err, model.ErrNoHistory) ||
		errors.Is(err, model.ErrInsufficientHistory) ||
		errors.Is(err, model.ErrNoCompleteMembers)
}

// intFlag returns the flag's value when set on the command line and
// fallback otherwise
func intFlag(cmd *cobra.Command, name string, val, fallback int) int {
	if cmd.Flags().Changed(name) {
		return val
	}
	return fallback
}
