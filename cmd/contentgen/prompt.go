package main

import (
	"github.com/metalagman/contentgen/internal/tui"
	"github.com/spf13/cobra"
)

func (c *cli) promptCmd() *cobra.Command {
	var style string
	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Open an interactive prompt",
		RunE: func(cmd *cobra.Command, _ []string) error {
			keys, closeFn, err := openSettings(c.cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			render := func(markdown string, width int) (string, error) {
				return tui.RenderMarkdown(markdown, style, width)
			}
			return tui.Run(cmd.Context(), c.newContentService(keys, c.cfg), render)
		},
	}
	cmd.Flags().StringVar(&style, "style", "", "glamour style (dark, light, notty); auto when empty")
	return cmd
}
