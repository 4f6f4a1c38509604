// Package lecterncmder
package lecterncmder

import (
	"github.com/spf13/cobra"

	askcmder "github.com/learnlabco/lectern/cmd/lectern/ask"
	authcmder "github.com/learnlabco/lectern/cmd/lectern/auth"
	chatcmder "github.com/learnlabco/lectern/cmd/lectern/chat"
	configcmder "github.com/learnlabco/lectern/cmd/lectern/config"
	replaycmder "github.com/learnlabco/lectern/cmd/lectern/replay"
	sessionscmder "github.com/learnlabco/lectern/cmd/lectern/sessions"
	versioncmder "github.com/learnlabco/lectern/cmd/version"
)

const lecternLongDesc string = `Lectern is the terminal client for LearnLab.

Ask questions against your course material and watch the answer stream in:
  lectern ask "what is osmosis?"    One-shot question
  lectern chat                      Interactive study session
  lectern sessions                  Manage server-side chat sessions`

const lecternShortDesc string = "Lectern - LearnLab terminal client"

func NewLecternCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lectern",
		Short: lecternShortDesc,
		Long:  lecternLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .lectern/ directory")

	// Add subcommands
	cmd.AddCommand(askcmder.NewAskCmd())
	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(sessionscmder.NewSessionsCmd())
	cmd.AddCommand(authcmder.NewAuthCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(replaycmder.NewReplayCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
