// Package replaycmder provides the replay command for serving a recorded
// stream transcript over HTTP.
package replaycmder

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/learnlabco/lectern/pkg/config"
	"github.com/learnlabco/lectern/pkg/logger"
	"github.com/learnlabco/lectern/pkg/replay"
)

type replayCommander struct {
	listen  string
	delayMS uint
	debug   bool

	logger *zap.Logger
}

var replayFlags = config.FlagSet{
	config.FlagReplayListen: {
		Name: "listen", Shorthand: "l", ViperKey: "replay.listen",
		Description: "Address for the replay server to listen on",
	},
	config.FlagReplayDelay: {
		Name: "delay", ViperKey: "replay.delay_ms",
		Description: "Delay between replayed records in milliseconds",
	},
}

var replayFlagKeys = []string{
	config.FlagReplayListen,
	config.FlagReplayDelay,
}

const replayLongDesc string = `Serve a recorded stream transcript over HTTP.

The transcript file holds raw streaming records exactly as the backend
emits them (newline-delimited fields, blank-line terminated). The replay
server answers POST /chat/ask_stream with those records, pacing them by
the configured delay, so clients can be exercised without a live backend.

Examples:
  lectern replay testdata/osmosis.stream
  lectern replay --listen :9090 --delay 100 testdata/osmosis.stream`

const replayShortDesc string = "Serve a recorded stream transcript"

func NewReplayCmd() *cobra.Command {
	cmder := &replayCommander{}

	cmd := &cobra.Command{
		Use:   "replay <transcript>",
		Short: replayShortDesc,
		Long:  replayLongDesc,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, replayFlags, replayFlagKeys)

			cmder.listen = v.GetString("replay.listen")
			cmder.delayMS = v.GetUint("replay.delay_ms")
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

	config.AddStringFlag(cmd, replayFlags, config.FlagReplayListen, &cmder.listen)
	config.AddUintFlag(cmd, replayFlags, config.FlagReplayDelay, &cmder.delayMS)

	return cmd
}

func (c *replayCommander) run(transcriptPath string) error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	transcript, err := replay.LoadTranscript(transcriptPath)
	if err != nil {
		return fmt.Errorf("loading transcript: %w", err)
	}

	server := replay.NewServer(replay.Config{
		ListenAddr: c.listen,
		Delay:      time.Duration(c.delayMS) * time.Millisecond,
	}, transcript, c.logger)

	c.logger.Info("starting replay server",
		zap.String("listen", c.listen),
		zap.String("transcript", transcriptPath),
		zap.Int("records", len(transcript.Records)),
	)

	errChan := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("replay server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("shutting down", zap.String("signal", sig.String()))
		return server.Shutdown()
	}
}
