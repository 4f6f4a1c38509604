// Package sessionscmder provides the sessions command for managing
// server-side chat sessions.
package sessionscmder

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/learnlabco/lectern/pkg/api"
	"github.com/learnlabco/lectern/pkg/config"
	"github.com/learnlabco/lectern/pkg/credentials"
	"github.com/learnlabco/lectern/pkg/logger"
)

const sessionsLongDesc string = `Manage server-side chat sessions.

Sessions hold conversation history on the LearnLab backend so follow-up
questions carry context. Use subcommands to list, create, rename, inspect,
or delete sessions:
  lectern sessions list                    List sessions
  lectern sessions new [title]             Create a session
  lectern sessions show <id>               Show a session's messages
  lectern sessions rename <id> <title>     Rename a session
  lectern sessions rm <id>                 Delete a session`

const sessionsShortDesc string = "Manage server-side chat sessions"

func NewSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: sessionsShortDesc,
		Long:  sessionsLongDesc,
	}

	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newNewCmd())
	cmd.AddCommand(newShowCmd())
	cmd.AddCommand(newRenameCmd())
	cmd.AddCommand(newRmCmd())

	return cmd
}

// newAPIClient builds an api.Client from the resolved config and stored
// credentials. Shared by every sessions subcommand.
func newAPIClient(cmd *cobra.Command) (*api.Client, error) {
	configDir, _ := cmd.Flags().GetString("config-dir")
	debug, _ := cmd.Flags().GetBool("debug")

	v, err := config.InitViper(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	credsMgr, err := credentials.NewManager(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading credentials: %w", err)
	}
	token, err := credsMgr.ResolveToken(credentials.DefaultProfile)
	if err != nil {
		return nil, fmt.Errorf("resolving token: %w", err)
	}

	log := logger.NewLogger(debug)

	return api.NewClient(v.GetString("client.api_target"), token, nil, log), nil
}

func commandContext() context.Context {
	return context.Background()
}
