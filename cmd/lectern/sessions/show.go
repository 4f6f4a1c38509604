package sessionscmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/learnlabco/lectern/pkg/cliui"
)

const showLongDesc string = `Show the messages of a chat session.

Prints the full conversation history, oldest message first.

Examples:
  lectern sessions show 7f3a9c12`

func newShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a session's messages",
		Long:  showLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newAPIClient(cmd)
			if err != nil {
				return err
			}

			messages, err := client.SessionMessages(commandContext(), args[0])
			if err != nil {
				return fmt.Errorf("fetching messages: %w", err)
			}

			if len(messages) == 0 {
				fmt.Printf("\n  %s No messages in this session.\n\n", cliui.DimStyle.Render("●"))
				return nil
			}

			fmt.Println()
			for _, msg := range messages {
				fmt.Printf("  %s %s\n\n",
					cliui.KeyStyle.Render(msg.Role+">"),
					msg.Content,
				)
			}

			return nil
		},
	}

	return cmd
}
