package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/metalagman/contentgen/internal/config"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func (c *cli) initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the state directory and a default config",
		RunE: func(_ *cobra.Command, _ []string) error {
			return writeDefaultConfig(c.cfgFile)
		},
	}
}

func writeDefaultConfig(path string) error {
	if path == "" {
		path = config.DefaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if _, err := os.Stat(path); err == nil {
		log.Info().Str("path", path).Msg("config already exists, skipping")
		return nil
	}

	data, err := yaml.Marshal(config.Defaults())
	if err != nil {
		return fmt.Errorf("encode default config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	log.Info().Str("path", path).Msg("installed default config")
	return nil
}
