package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lvillar/certgen/logging"
)

var templatesCmd = &cobra.Command{
	Use:   "templates [id]",
	Short: "List templates, or show one template",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runTemplates,
}

func init() {
	rootCmd.AddCommand(templatesCmd)
}

func runTemplates(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), nil)
	if err != nil {
		return err
	}
	defer logging.Sync(a.log)

	out := cmd.OutOrStdout()
	if len(args) == 0 {
		ids, err := a.gen.Templates().List(cmd.Context())
		if err != nil {
			return err
		}
		for _, id := range ids {
			fmt.Fprintln(out, id)
		}
		return nil
	}

	spec, err := a.gen.Templates().Load(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(spec)
}
