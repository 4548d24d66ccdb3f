package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/metalagman/contentgen/internal/completion"
	"github.com/metalagman/contentgen/internal/config"
	"github.com/metalagman/contentgen/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time.
var version = "dev"

type cli struct {
	cfgFile string
	debug   bool
	cfg     config.Config
	// completionOpts are appended to every completion client.
	completionOpts []completion.Option
	// modelsBaseURL overrides the API base used for key verification.
	modelsBaseURL string
}

// Execute runs the root command.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root, err := (&cli{}).rootCmd()
	if err != nil {
		return err
	}
	return root.ExecuteContext(ctx)
}

func (c *cli) rootCmd() (*cobra.Command, error) {
	root := &cobra.Command{
		Use:           "contentgen",
		Short:         "contentgen stores an API key and generates text from prompts",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&c.cfgFile, "config", config.DefaultPath, "config file path")
	root.PersistentFlags().BoolVar(&c.debug, "debug", false, "enable debug logging")
	if err := viper.BindPFlag("config", root.PersistentFlags().Lookup("config")); err != nil {
		return nil, fmt.Errorf("bind config flag: %w", err)
	}
	root.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load .env: %w", err)
		}
		cfg, err := loadConfig(c.cfgFile, cmd.Flags().Changed("config"))
		if err != nil {
			return err
		}
		c.cfg = cfg
		logging.Init(c.debug, cfg.Log.Format)
		return nil
	}

	root.AddCommand(c.initCmd())
	root.AddCommand(c.serveCmd())
	root.AddCommand(c.generateCmd())
	root.AddCommand(c.promptCmd())
	root.AddCommand(c.keyCmd())
	root.AddCommand(c.mcpCmd())
	return root, nil
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
}
