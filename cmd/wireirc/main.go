package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/wireirc/internal/app"
	"github.com/vovakirdan/wireirc/internal/config"
	applog "github.com/vovakirdan/wireirc/internal/log"
)

type flags struct {
	configPath string
	overrides  config.Config
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "wireirc: %s\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   "wireirc",
		Short: "A minimal IRC client",
		Long: `wireirc connects to an IRC server and relays chat between the
terminal and the network.

Commands typed at the prompt:

  /join <channel>     join a channel and make it current
  /switch <channel>   make a joined channel current, joining it if needed
  /msg <text>         send text to the current channel
  /raw <line>         send a line to the server unchanged
  /quit [reason]      leave the server`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), f)
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&f.configPath, "config", "c", "", "path to config file")
	fs.StringVarP(&f.overrides.Nickname, "nick", "n", "", "nickname")
	fs.StringVarP(&f.overrides.Server, "server", "s", "", "server host")
	fs.IntVarP(&f.overrides.Port, "port", "p", 0, "server port")
	fs.BoolVar(&f.overrides.UseTLS, "tls", false, "connect over TLS")
	fs.StringArrayVar(&f.overrides.Channels, "channel", nil, "channel to join on connect (repeatable)")
	fs.StringVar(&f.overrides.LogLevel, "log-level", "", "log level (debug, info, warn, error, off)")
	fs.StringVar(&f.overrides.TranscriptPath, "transcript", "", "SQLite file to record the session transcript")
	fs.StringVar(&f.overrides.StatusAddr, "status-addr", "", "listen address for the status endpoint")

	return cmd
}

func run(ctx context.Context, f flags) error {
	bootLog := applog.New(f.overrides.LogLevel, nil)

	cfg, path, err := config.Load(bootLog, f.configPath)
	if err != nil {
		return err
	}
	cfg.UpdateFrom(f.overrides)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}

	logger := applog.New(cfg.LogLevel, nil)
	logger.Debug().Str("config", path).Msg("configuration loaded")

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(cfg, logger, os.Stdin, os.Stdout)
	if err != nil {
		return err
	}

	if err := application.Run(ctx); err != nil {
		return err
	}
	logger.Info().Msg("bye")
	return nil
}
