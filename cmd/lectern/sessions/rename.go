package sessionscmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/learnlabco/lectern/pkg/cliui"
)

const renameLongDesc string = `Rename a chat session.

Examples:
  lectern sessions rename 7f3a9c12 "Midterm prep"`

func newRenameCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rename <id> <title>",
		Short: "Rename a chat session",
		Long:  renameLongDesc,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newAPIClient(cmd)
			if err != nil {
				return err
			}

			session, err := client.RenameSession(commandContext(), args[0], args[1])
			if err != nil {
				return fmt.Errorf("renaming session: %w", err)
			}

			fmt.Printf("\n  %s Renamed %s to %s\n\n",
				cliui.SuccessMark,
				cliui.NameStyle.Render(session.ID),
				cliui.ValueStyle.Render(session.Title),
			)

			return nil
		},
	}

	return cmd
}
