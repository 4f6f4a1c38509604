// Package chatcmder provides the chat command for interactive study
// sessions against the LearnLab backend.
package chatcmder

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/learnlabco/lectern/pkg/api"
	"github.com/learnlabco/lectern/pkg/cliui"
	"github.com/learnlabco/lectern/pkg/config"
	"github.com/learnlabco/lectern/pkg/credentials"
	"github.com/learnlabco/lectern/pkg/dotdir"
	"github.com/learnlabco/lectern/pkg/eventstream"
	"github.com/learnlabco/lectern/pkg/eventstream/kafka"
	"github.com/learnlabco/lectern/pkg/eventstream/nop"
	"github.com/learnlabco/lectern/pkg/logger"
	"github.com/learnlabco/lectern/pkg/stream"
	"github.com/learnlabco/lectern/pkg/utils"
)

var (
	userPrompt      = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true).Render("you> ")
	assistantPrompt = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Render("lectern> ")
)

type chatCommander struct {
	apiTarget string
	namespace string
	agent     string
	mode      string
	k         uint
	debug     bool
	configDir string

	esProvider string
	esBrokers  string
	esTopic    string

	logger *zap.Logger
}

var chatFlags = config.FlagSet{
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
		Description: "Number of passages to retrieve per question",
	},
}

var chatFlagKeys = []string{
	config.FlagAPITarget,
	config.FlagNamespace,
	config.FlagAgent,
	config.FlagMode,
	config.FlagK,
}

const chatLongDesc string = `Start an interactive study session.

Each question is sent to the LearnLab backend and the answer streams in
token by token, with intermediate agent steps (retrieval, planning) shown
as they happen. The conversation continues in a server-side session so
follow-up questions carry context.

The active session is remembered in the .lectern/ directory; re-running
"lectern chat" picks up where you left off. Use /new inside the session
(or "lectern chat --new") to start a fresh one.

Examples:
  lectern chat
  lectern chat --namespace biology-101
  lectern chat --new`

const chatShortDesc string = "Interactive study session with streaming answers"

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}
	var newSession bool

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, chatFlags, chatFlagKeys)

			cmder.apiTarget = v.GetString("client.api_target")
			cmder.namespace = v.GetString("chat.namespace")
			cmder.agent = v.GetString("chat.agent")
			cmder.mode = v.GetString("chat.mode")
			cmder.k = v.GetUint("chat.k")
			cmder.esProvider = v.GetString("eventstream.provider")
			cmder.esBrokers = v.GetString("eventstream.brokers")
			cmder.esTopic = v.GetString("eventstream.topic")
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run(newSession)
		},
	}

	config.AddStringFlag(cmd, chatFlags, config.FlagAPITarget, &cmder.apiTarget)
	config.AddStringFlag(cmd, chatFlags, config.FlagNamespace, &cmder.namespace)
	config.AddStringFlag(cmd, chatFlags, config.FlagAgent, &cmder.agent)
	config.AddStringFlag(cmd, chatFlags, config.FlagMode, &cmder.mode)
	config.AddUintFlag(cmd, chatFlags, config.FlagK, &cmder.k)
	cmd.Flags().BoolVar(&newSession, "new", false, "Start a fresh session instead of resuming")

	return cmd
}

func (c *chatCommander) run(newSession bool) error {
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

	// Turn events are published off the prompt loop so a slow broker
	// never delays the next question.
	pool, err := eventstream.NewPool(&eventstream.PoolConfig{
		Publisher: c.newPublisher(),
		Logger:    c.logger,
	})
	if err != nil {
		return fmt.Errorf("starting publish pool: %w", err)
	}
	defer func() { _ = pool.Close() }()

	// Load the remembered session pointer
	ddm := dotdir.NewManager()
	if newSession {
		if err := ddm.ClearSession(c.configDir); err != nil {
			return fmt.Errorf("clearing session state: %w", err)
		}
	}
	state, err := ddm.LoadSessionState(c.configDir)
	if err != nil {
		return fmt.Errorf("loading session state: %w", err)
	}

	sessionID := ""
	fmt.Println()
	if state != nil && state.SessionID != "" && state.Namespace == c.namespace {
		sessionID = state.SessionID
		fmt.Printf("  %s Resuming session %s\n",
			cliui.SuccessMark,
			cliui.NameStyle.Render(utils.Truncate(sessionID, 16)),
		)
	} else {
		fmt.Printf("  %s New session\n", cliui.DimStyle.Render("●"))
	}

	fmt.Printf("  %s %s  %s %s\n",
		cliui.KeyStyle.Render("Namespace:"),
		cliui.NameStyle.Render(c.namespace),
		cliui.KeyStyle.Render("Target:"),
		cliui.DimStyle.Render(c.apiTarget),
	)
	fmt.Printf("\n  %s\n\n", cliui.DimStyle.Render("Type your question and press Enter. /new for a fresh session, /exit or Ctrl+D to quit."))

	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print(userPrompt)
		if !scanner.Scan() {
			// EOF or error
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "/exit" {
			break
		}
		if input == "/new" {
			if err := ddm.ClearSession(c.configDir); err != nil {
				fmt.Fprintf(os.Stderr, "  %s %v\n", cliui.FailMark, err)
				continue
			}
			sessionID = ""
			fmt.Printf("  %s New session\n\n", cliui.DimStyle.Render("●"))
			continue
		}

		ctx := context.Background()

		// First question creates the server-side session
		if sessionID == "" {
			session, err := client.CreateSession(ctx, api.CreateSessionPayload{
				Title:     utils.Truncate(input, 48),
				Namespace: c.namespace,
			})
			if err != nil {
				fmt.Fprintf(os.Stderr, "  %s %v\n", cliui.FailMark, err)
				continue
			}
			sessionID = session.ID

			saveErr := ddm.SaveSession(&dotdir.SessionState{
				SessionID: sessionID,
				Namespace: c.namespace,
				Agent:     c.agent,
			}, c.configDir)
			if saveErr != nil {
				c.logger.Warn("failed to save session state", zap.Error(saveErr))
			}
		}

		turn, err := c.sendAndStream(ctx, client, sessionID, input)
		if err != nil {
			fmt.Fprintf(os.Stderr, "\n  %s %v\n", cliui.FailMark, err)
		}

		c.publishTurn(pool, turn)

		fmt.Println()
		fmt.Println()
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	fmt.Println()
	return nil
}

// sendAndStream asks one question and streams the answer to stdout.
// The returned turn metadata is always populated, even on failure.
func (c *chatCommander) sendAndStream(ctx context.Context, client *api.Client, sessionID, prompt string) (eventstream.TurnMeta, error) {
	turn := eventstream.TurnMeta{
		SessionID: sessionID,
		Prompt:    prompt,
	}

	start := time.Now()
	answerStarted := false
	var answer strings.Builder

	handler := stream.Callbacks{
		Step: func(step stream.Step) {
			line := step.Name
			if step.Detail != "" {
				line += "  " + step.Detail
			}
			if preview := stepPreview(step.Output); preview != "" {
				line += "  " + preview
			}
			fmt.Printf("  %s\n", cliui.StepStyle.Render(line))
			turn.StepCount++
		},
		Token: func(token string) {
			if !answerStarted {
				fmt.Print("\n" + assistantPrompt)
				answerStarted = true
			}
			fmt.Print(token)
			answer.WriteString(token)
			turn.TokenCount++
		},
		Error: func(message string) {
			fmt.Fprintf(os.Stderr, "\n  %s %s\n", cliui.WarnStyle.Render("!"), message)
		},
	}

	sess, err := client.AskStream(ctx, api.AskPayload{
		Prompt:         prompt,
		Namespace:      c.namespace,
		K:              c.k,
		PreferredAgent: c.agent,
		Mode:           c.mode,
		SessionID:      sessionID,
	}, handler)
	if err != nil {
		turn.Failed = true
		turn.DurationMs = time.Since(start).Milliseconds()
		return turn, err
	}

	<-sess.Done()

	turn.Answer = answer.String()
	turn.DurationMs = time.Since(start).Milliseconds()

	if err := sess.Err(); err != nil {
		turn.Failed = true
		return turn, err
	}

	return turn, nil
}

// stepPreview renders a compact key=value preview of a step's output payload.
// Long values are truncated; at most four pairs are shown.
func stepPreview(output map[string]any) string {
	if len(output) == 0 {
		return ""
	}

	raw, err := json.Marshal(output)
	if err != nil {
		return ""
	}

	var parts []string
	gjson.ParseBytes(raw).ForEach(func(key, value gjson.Result) bool {
		parts = append(parts, key.String()+"="+utils.Truncate(value.String(), 24))
		return len(parts) < 4
	})

	return strings.Join(parts, " ")
}

// newPublisher builds the turn event publisher from config.
// Unknown providers fall back to the nop publisher with a warning.
func (c *chatCommander) newPublisher() eventstream.Publisher {
	switch c.esProvider {
	case "kafka":
		brokers := strings.Split(c.esBrokers, ",")
		for i := range brokers {
			brokers[i] = strings.TrimSpace(brokers[i])
		}
		return kafka.NewPublisher(brokers, c.esTopic, c.logger)
	case "", "nop":
		return nop.NewPublisher()
	default:
		c.logger.Warn("unknown eventstream provider, falling back to nop",
			zap.String("provider", c.esProvider))
		return nop.NewPublisher()
	}
}

func (c *chatCommander) publishTurn(pool *eventstream.Pool, turn eventstream.TurnMeta) {
	event := eventstream.NewTurnCompletedEvent(eventstream.EventSource{
		Target:    c.apiTarget,
		Namespace: c.namespace,
		Agent:     c.agent,
	}, turn)

	pool.Enqueue(event)
}
