package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/metalagman/contentgen/internal/completion"
	"github.com/metalagman/contentgen/internal/content"
	"github.com/metalagman/contentgen/internal/tui"
	"github.com/spf13/cobra"
)

func (c *cli) generateCmd() *cobra.Command {
	var (
		apiKey string
		render bool
		style  string
	)
	cmd := &cobra.Command{
		Use:   "generate [prompt...]",
		Short: "Generate text for a prompt",
		Long:  "Generate text for a prompt given as arguments, or read from stdin when no arguments are given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt := strings.Join(args, " ")
			if len(args) == 0 {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read prompt: %w", err)
				}
				prompt = strings.TrimRight(string(data), "\r\n")
			}

			keys, closeFn, err := openSettings(c.cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			svc := c.newContentService(keys, c.cfg)
			var res content.Result
			if cmd.Flags().Changed("api-key") {
				res, err = svc.GenerateWithKey(cmd.Context(), apiKey, prompt)
			} else {
				res, err = svc.Generate(cmd.Context(), prompt)
			}
			if err != nil {
				return fmt.Errorf("generate content (%s): %w", completion.Kind(err), err)
			}

			out := res.Content
			if render {
				if out, err = tui.RenderMarkdown(res.Content, style, 0); err != nil {
					return err
				}
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
			return err
		},
	}
	cmd.Flags().StringVar(&apiKey, "api-key", "", "use this API key instead of the stored one")
	cmd.Flags().BoolVar(&render, "render", false, "render the result as Markdown for the terminal")
	cmd.Flags().StringVar(&style, "style", "", "glamour style for --render (dark, light, notty); auto when empty")
	return cmd
}
