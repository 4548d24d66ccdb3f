package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/metalagman/contentgen/internal/keycheck"
	"github.com/metalagman/contentgen/internal/logging"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func (c *cli) keyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage the stored API key",
	}
	cmd.AddCommand(c.keySetCmd())
	cmd.AddCommand(c.keyShowCmd())
	cmd.AddCommand(c.keyVerifyCmd())
	return cmd
}

func (c *cli) keySetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <value>",
		Short: "Store the API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, closeFn, err := openSettings(c.cfg)
			if err != nil {
				return err
			}
			defer closeFn()
			return keys.SetAPIKey(cmd.Context(), args[0])
		},
	}
}

func (c *cli) keyShowCmd() *cobra.Command {
	var reveal bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the stored API key",
		RunE: func(cmd *cobra.Command, _ []string) error {
			keys, closeFn, err := openSettings(c.cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			key, err := keys.APIKey(cmd.Context())
			if err != nil {
				return err
			}
			if key == "" {
				log.Info().Msg("no api key stored")
				return nil
			}
			if !reveal {
				key = logging.MaskSecret(key)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), key)
			return err
		},
	}
	cmd.Flags().BoolVar(&reveal, "reveal", false, "print the full key")
	return cmd
}

func (c *cli) keyVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check the stored API key against the API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			keys, closeFn, err := openSettings(c.cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			key, err := keys.APIKey(cmd.Context())
			if err != nil {
				return err
			}
			res, err := c.newKeyChecker(c.cfg).Verify(cmd.Context(), key)
			if err != nil {
				var rejected *keycheck.RejectedError
				if errors.As(err, &rejected) {
					return fmt.Errorf("api key %s was rejected (status %d)", logging.MaskSecret(key), rejected.StatusCode)
				}
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "api key ok: %d models visible (%s)\n", res.Models, strings.Join(res.Sample, ", "))
			return err
		},
	}
}
