package main

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shanvika-ai/shanvika/client/internal/config"
	"github.com/shanvika-ai/shanvika/client/internal/logging"
)

type rootOptions struct {
	verbose bool
	baseURL string
	envFile string

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "shanvika",
		Short: "Chat with Shanvika AI from the terminal",
		Long: `shanvika talks to a Shanvika backend.

Run without arguments to start the interactive chat. Use "serve" to expose
the same chat to a browser page through a local gateway.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.logger != nil {
				_ = opts.logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, opts)
		},
	}

	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose logging")
	root.PersistentFlags().StringVar(&opts.baseURL, "base-url", "", "Backend URL (or set SHANVIKA_BASE_URL)")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "Environment file loaded before the process environment")

	root.AddCommand(
		newChatCmd(opts),
		newSendCmd(opts),
		newServeCmd(opts),
		newHistoryCmd(opts),
		newShowCmd(opts),
		newRenameCmd(opts),
		newDeleteCmd(opts),
		newDeleteAllCmd(opts),
		newProfileCmd(opts),
		newInstructionCmd(opts),
		newMemoryCmd(opts),
		newDiaryCmd(opts),
		newSpeakCmd(opts),
		newToolsCmd(opts),
	)
	return root
}

// setup loads configuration and builds the logger for every command.
func (o *rootOptions) setup(cmd *cobra.Command) error {
	if o.envFile != "" {
		if err := godotenv.Load(o.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", o.envFile, err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if o.baseURL != "" {
		cfg.Backend.BaseURL = o.baseURL
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	// The full-screen chat owns the terminal, so its logs go to a file.
	if isInteractive(cmd) && cfg.Log.File == "" {
		cfg.Log.File = filepath.Join(filepath.Dir(cfg.State.DBPath), "shanvika.log")
	}

	logger, err := logging.New(cfg.Log, o.verbose)
	if err != nil {
		return err
	}
	zap.ReplaceGlobals(logger)

	o.cfg = cfg
	o.logger = logger
	return nil
}

func isInteractive(cmd *cobra.Command) bool {
	return cmd.Name() == "chat" || !cmd.HasParent()
}
