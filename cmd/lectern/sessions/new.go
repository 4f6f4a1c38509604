package sessionscmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/learnlabco/lectern/pkg/api"
	"github.com/learnlabco/lectern/pkg/cliui"
	"github.com/learnlabco/lectern/pkg/config"
	"github.com/learnlabco/lectern/pkg/dotdir"
)

const newLongDesc string = `Create a chat session on the backend.

The new session becomes the active one: 'lectern chat' and
'lectern ask --session' will continue it.

Examples:
  lectern sessions new
  lectern sessions new "Photosynthesis review"`

func newNewCmd() *cobra.Command {
	var namespace string

	cmd := &cobra.Command{
		Use:   "new [title]",
		Short: "Create a chat session",
		Long:  newLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")

			client, err := newAPIClient(cmd)
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("namespace") {
				v, err := config.InitViper(configDir)
				if err != nil {
					return fmt.Errorf("loading config: %w", err)
				}
				namespace = v.GetString("chat.namespace")
			}

			title := ""
			if len(args) == 1 {
				title = args[0]
			}

			session, err := client.CreateSession(commandContext(), api.CreateSessionPayload{
				Title:     title,
				Namespace: namespace,
			})
			if err != nil {
				return fmt.Errorf("creating session: %w", err)
			}

			ddm := dotdir.NewManager()
			if err := ddm.SaveSession(&dotdir.SessionState{
				SessionID: session.ID,
				Namespace: session.Namespace,
			}, configDir); err != nil {
				return fmt.Errorf("saving session state: %w", err)
			}

			fmt.Printf("\n  %s Created session %s\n\n",
				cliui.SuccessMark,
				cliui.NameStyle.Render(session.ID),
			)

			return nil
		},
	}

	cmd.Flags().StringVarP(&namespace, "namespace", "n", "", "Course namespace for the session")

	return cmd
}
