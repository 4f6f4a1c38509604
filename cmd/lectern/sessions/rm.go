package sessionscmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/learnlabco/lectern/pkg/cliui"
	"github.com/learnlabco/lectern/pkg/dotdir"
)

const rmLongDesc string = `Delete a chat session from the backend.

If the deleted session is the active one, the local session pointer in
the .lectern/ directory is cleared as well.

Examples:
  lectern sessions rm 7f3a9c12`

func newRmCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a chat session",
		Long:  rmLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")

			client, err := newAPIClient(cmd)
			if err != nil {
				return err
			}

			if err := client.DeleteSession(commandContext(), args[0]); err != nil {
				return fmt.Errorf("deleting session: %w", err)
			}

			// Clear the local pointer if it referenced this session
			ddm := dotdir.NewManager()
			state, err := ddm.LoadSessionState(configDir)
			if err == nil && state != nil && state.SessionID == args[0] {
				_ = ddm.ClearSession(configDir)
			}

			fmt.Printf("\n  %s Deleted session %s\n\n",
				cliui.SuccessMark,
				cliui.NameStyle.Render(args[0]),
			)

			return nil
		},
	}

	return cmd
}
