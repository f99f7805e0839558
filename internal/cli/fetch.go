package cli

import (
	"github.com/spf13/cobra"

	"github.com/mcoot/guildtracker/internal/services/roster"
)

func newFetchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch",
		Short: "Print the guild roster as JSON",
		Long: `Log in with SF_USERNAME and SF_PASSWORD, refresh the first character's
state and print its guild's members as a JSON array of {name, level}.

The output is always JSON, in roster order, whatever --output says.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			creds, err := Credentials()
			if err != nil {
				return err
			}

			levels, err := roster.New(client, logger).Fetch(cmd.Context(), creds)
			if err != nil {
				return err
			}

			return roster.WriteJSON(cmd.OutOrStdout(), levels)
		},
	}
}
