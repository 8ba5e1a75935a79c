package main

import (
	"github.com/spf13/cobra"

	"github.com/lvillar/certgen/logging"
	"github.com/lvillar/certgen/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the MCP server on stdio",
	Long:  "Expose certificate generation and template inspection to AI assistants over the Model Context Protocol.",
	RunE:  runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd.Context(), nil)
	if err != nil {
		return err
	}
	defer logging.Sync(a.log)

	s := mcp.NewServerWithIO(cmd.InOrStdin(), cmd.OutOrStdout(), a.log)
	mcp.RegisterDefaultTools(s, a.gen, a.cfg.UploadDir)
	mcp.RegisterDefaultResources(s, a.gen)
	return s.Run(cmd.Context())
}
