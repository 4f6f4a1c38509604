// Package authcmder provides the auth command for storing API tokens.
package authcmder

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/learnlabco/lectern/pkg/cliui"
	"github.com/learnlabco/lectern/pkg/credentials"
)

const authLongDesc string = `Store an API token for the LearnLab backend.

Tokens are stored in credentials.toml in the .lectern/ directory and sent
as a Bearer token on every request. Multiple named profiles can be stored;
commands use the "default" profile unless told otherwise.

The LECTERN_TOKEN environment variable, when set, takes precedence over
any stored profile.

Examples:
  lectern auth                     Prompt for a token (default profile)
  lectern auth staging             Prompt for a token (staging profile)
  lectern auth --list              List stored profiles
  lectern auth --remove staging    Remove the staging profile
  echo $TOKEN | lectern auth       Pipe a token from stdin`

const authShortDesc string = "Store an API token for the LearnLab backend"

func NewAuthCmd() *cobra.Command {
	var listFlag bool
	var removeFlag string

	cmd := &cobra.Command{
		Use:   "auth [profile]",
		Short: authShortDesc,
		Long:  authLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")

			switch {
			case listFlag:
				return runList(configDir)
			case removeFlag != "":
				return runRemove(removeFlag, configDir)
			default:
				profile := credentials.DefaultProfile
				if len(args) == 1 {
					profile = args[0]
				}
				return runAuth(profile, configDir)
			}
		},
	}

	cmd.Flags().BoolVar(&listFlag, "list", false, "List stored profiles")
	cmd.Flags().StringVar(&removeFlag, "remove", "", "Remove the stored token for a profile")

	return cmd
}

func runAuth(profile, configDir string) error {
	profile = strings.ToLower(strings.TrimSpace(profile))
	if profile == "" {
		return errors.New("profile name cannot be empty")
	}

	token, err := readToken(profile)
	if err != nil {
		return err
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("token cannot be empty")
	}

	mgr, err := credentials.NewManager(configDir)
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}

	if err := mgr.SetToken(profile, token); err != nil {
		return err
	}

	fmt.Printf("\n  %s Stored token for profile %s %s\n\n",
		cliui.SuccessMark,
		cliui.NameStyle.Render(profile),
		cliui.DimStyle.Render("("+mgr.GetTarget()+")"),
	)

	return nil
}

func runList(configDir string) error {
	mgr, err := credentials.NewManager(configDir)
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}

	profiles, err := mgr.ListProfiles()
	if err != nil {
		return err
	}

	if len(profiles) == 0 {
		fmt.Printf("\n  %s No stored tokens.\n", cliui.DimStyle.Render("●"))
		fmt.Printf("  Use 'lectern auth' to store one.\n\n")
		return nil
	}

	fmt.Printf("\n  %s\n\n", cliui.HeaderStyle.Render("Stored profiles"))
	for _, p := range profiles {
		fmt.Printf("  %s  %s\n", cliui.SuccessMark, cliui.NameStyle.Render(p))
	}
	fmt.Println()

	return nil
}

func runRemove(profile, configDir string) error {
	profile = strings.ToLower(strings.TrimSpace(profile))

	mgr, err := credentials.NewManager(configDir)
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}

	if err := mgr.RemoveToken(profile); err != nil {
		return err
	}

	fmt.Printf("\n  %s Removed profile %s.\n\n", cliui.SuccessMark, cliui.NameStyle.Render(profile))

	return nil
}

// readToken reads a token from stdin. If stdin is a pipe, it reads the
// first line. Otherwise, it prompts interactively with hidden input.
func readToken(profile string) (string, error) {
	fi, err := os.Stdin.Stat()
	if err != nil {
		return "", fmt.Errorf("checking stdin: %w", err)
	}

	// Piped input
	if (fi.Mode() & os.ModeCharDevice) == 0 {
		scanner := bufio.NewScanner(os.Stdin)
		if scanner.Scan() {
			return scanner.Text(), nil
		}
		if err := scanner.Err(); err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return "", errors.New("no input received on stdin")
	}

	// Interactive terminal
	fmt.Printf("Enter API token for profile %s: ", profile)

	tokenBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println() // newline after hidden input
	if err != nil {
		return "", fmt.Errorf("reading token: %w", err)
	}

	return string(tokenBytes), nil
}
