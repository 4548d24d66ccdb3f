package main

import (
	"github.com/metalagman/contentgen/internal/mcpserver"
	"github.com/spf13/cobra"
)

func (c *cli) mcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the generate_content tool over MCP stdio",
		RunE: func(cmd *cobra.Command, _ []string) error {
			keys, closeFn, err := openSettings(c.cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			server := mcpserver.NewServer(c.newContentService(keys, c.cfg), version)
			return mcpserver.Serve(cmd.Context(), server)
		},
	}
}
