// Package askcmder provides the ask command for one-shot questions.
package askcmder

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/learnlabco/lectern/pkg/api"
	"github.com/learnlabco/lectern/pkg/cliui"
	"github.com/learnlabco/lectern/pkg/config"
	"github.com/learnlabco/lectern/pkg/credentials"
	"github.com/learnlabco/lectern/pkg/logger"
	"github.com/learnlabco/lectern/pkg/stream"
)

type askCommander struct {
	apiTarget string
	namespace string
	agent     string
	mode      string
	k         uint
	sessionID string
	noStream  bool
	debug     bool
	configDir string

	logger *zap.Logger
}

var askFlags = config.FlagSet{
	config.FlagAPITarget: {
		Name: "api-target", Shorthand: "a", ViperKey: "client.api_target",
		Description: "LearnLab API server URL",
	},
	config.FlagNamespace: {
		Name: "namespace", Shorthand: "n", ViperKey: "chat.namespace",
		Description: "Course namespace to ask against",
	},
	config.FlagAgent: {
		Name: "agent", ViperKey: "chat.agent",
		Description: "Preferred agent (e.g. tutor, summarizer)",
	},
	config.FlagMode: {
		Name: "mode", ViperKey: "chat.mode",
		Description: "Routing mode (auto, direct, retrieval)",
	},
	config.FlagK: {
		Name: "k", ViperKey: "chat.k",
		Description: "Number of passages to retrieve",
	},
}

var askFlagKeys = []string{
	config.FlagAPITarget,
	config.FlagNamespace,
	config.FlagAgent,
	config.FlagMode,
	config.FlagK,
}

const askLongDesc string = `Ask a one-shot question and stream the answer.

The question is sent to the LearnLab backend; intermediate agent steps
(retrieval, planning) print as they happen and the answer streams in token
by token. With --no-stream the command waits for the complete answer and
prints it with its citations.

Examples:
  lectern ask "what is osmosis?"
  lectern ask --namespace biology-101 --k 8 "explain active transport"
  lectern ask --no-stream "summarize chapter 3"`

const askShortDesc string = "Ask a one-shot question"

func NewAskCmd() *cobra.Command {
	cmder := &askCommander{}

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: askShortDesc,
		Long:  askLongDesc,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, askFlags, askFlagKeys)

			cmder.apiTarget = v.GetString("client.api_target")
			cmder.namespace = v.GetString("chat.namespace")
			cmder.agent = v.GetString("chat.agent")
			cmder.mode = v.GetString("chat.mode")
			cmder.k = v.GetUint("chat.k")
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run(args[0])
		},
	}

	config.AddStringFlag(cmd, askFlags, config.FlagAPITarget, &cmder.apiTarget)
	config.AddStringFlag(cmd, askFlags, config.FlagNamespace, &cmder.namespace)
	config.AddStringFlag(cmd, askFlags, config.FlagAgent, &cmder.agent)
	config.AddStringFlag(cmd, askFlags, config.FlagMode, &cmder.mode)
	config.AddUintFlag(cmd, askFlags, config.FlagK, &cmder.k)
	cmd.Flags().StringVar(&cmder.sessionID, "session", "", "Continue an existing session by id")
	cmd.Flags().BoolVar(&cmder.noStream, "no-stream", false, "Wait for the full answer instead of streaming")

	return cmd
}

func (c *askCommander) run(question string) error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	credsMgr, err := credentials.NewManager(c.configDir)
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}
	token, err := credsMgr.ResolveToken(credentials.DefaultProfile)
	if err != nil {
		return fmt.Errorf("resolving token: %w", err)
	}

	client := api.NewClient(c.apiTarget, token, nil, c.logger)

	payload := api.AskPayload{
		Prompt:         question,
		Namespace:      c.namespace,
		K:              c.k,
		PreferredAgent: c.agent,
		Mode:           c.mode,
		SessionID:      c.sessionID,
	}

	if c.noStream {
		return c.askBlocking(client, payload)
	}

	return c.askStreaming(client, payload)
}

func (c *askCommander) askStreaming(client *api.Client, payload api.AskPayload) error {
	answerStarted := false

	handler := stream.Callbacks{
		Step: func(step stream.Step) {
			line := step.Name
			if step.Detail != "" {
				line += "  " + step.Detail
			}
			fmt.Fprintf(os.Stderr, "  %s\n", cliui.StepStyle.Render(line))
		},
		Token: func(token string) {
			if !answerStarted {
				fmt.Fprintln(os.Stderr)
				answerStarted = true
			}
			fmt.Print(token)
		},
		Error: func(message string) {
			fmt.Fprintf(os.Stderr, "\n  %s %s\n", cliui.WarnStyle.Render("!"), message)
		},
	}

	sess, err := client.AskStream(context.Background(), payload, handler)
	if err != nil {
		return err
	}

	<-sess.Done()
	fmt.Println()

	return sess.Err()
}

func (c *askCommander) askBlocking(client *api.Client, payload api.AskPayload) error {
	start := time.Now()

	var resp *api.AskResponse
	err := cliui.Step(os.Stderr, "Asking "+c.apiTarget, func() error {
		var askErr error
		resp, askErr = client.Ask(context.Background(), payload)
		return askErr
	})
	if err != nil {
		return err
	}

	fmt.Printf("\n%s\n", strings.TrimSpace(resp.Answer))

	if len(resp.Citations) > 0 {
		fmt.Printf("\n  %s\n", cliui.HeaderStyle.Render("Citations"))
		for _, citation := range resp.Citations {
			fmt.Printf("  %s %s\n",
				cliui.DimStyle.Render("•"),
				cliui.SourceStyle.Render(citation.Source),
			)
		}
	}

	fmt.Printf("\n  %s\n",
		cliui.DimStyle.Render(cliui.FormatDuration(time.Since(start))),
	)

	return nil
}
