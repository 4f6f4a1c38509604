package sessionscmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/learnlabco/lectern/pkg/cliui"
	"github.com/learnlabco/lectern/pkg/utils"
)

const listLongDesc string = `List chat sessions stored on the backend.

Sessions are shown newest first with their id, title, and namespace.

Examples:
  lectern sessions list`

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List chat sessions",
		Long:  listLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := newAPIClient(cmd)
			if err != nil {
				return err
			}

			sessions, err := client.ListSessions(commandContext())
			if err != nil {
				return fmt.Errorf("listing sessions: %w", err)
			}

			if len(sessions) == 0 {
				fmt.Printf("\n  %s No sessions. Start one with 'lectern chat'.\n\n", cliui.DimStyle.Render("●"))
				return nil
			}

			fmt.Printf("\n  %s\n\n", cliui.HeaderStyle.Render("Sessions"))
			for _, s := range sessions {
				title := s.Title
				if title == "" {
					title = "(untitled)"
				}
				fmt.Printf("  %s  %s  %s\n",
					cliui.NameStyle.Render(utils.Truncate(s.ID, 12)),
					cliui.ValueStyle.Render(utils.Truncate(title, 48)),
					cliui.DimStyle.Render(s.Namespace),
				)
			}
			fmt.Println()

			return nil
		},
	}

	return cmd
}
