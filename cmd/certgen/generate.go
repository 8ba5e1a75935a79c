package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lvillar/certgen"
	"github.com/lvillar/certgen/logging"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a certificate document from a CSV roster",
	Long: `Generate one PDF with a page per roster row and print the result as JSON.

Example:
  certgen generate --csv roster.csv --prefix cert --template course \
    --detail courseName="Go 101" --detail instructorName="Rob Pike"`,
	RunE: runGenerate,
}

var (
	generateCSV      string
	generatePrefix   string
	generateTemplate string
	generateDetails  []string
)

func init() {
	generateCmd.Flags().StringVar(&generateCSV, "csv", "", "Path to the roster CSV (required)")
	generateCmd.Flags().StringVar(&generatePrefix, "prefix", "", "Output file name prefix (required)")
	generateCmd.Flags().StringVar(&generateTemplate, "template", "", "Template id (required)")
	generateCmd.Flags().StringArrayVar(&generateDetails, "detail", nil, "Field value shared by every page, as key=value (repeatable)")
	_ = generateCmd.MarkFlagRequired("csv")
	_ = generateCmd.MarkFlagRequired("prefix")
	_ = generateCmd.MarkFlagRequired("template")

	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	details, err := parseDetails(generateDetails)
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context(), nil)
	if err != nil {
		return err
	}
	defer logging.Sync(a.log)

	if err := os.MkdirAll(a.cfg.OutputDir, 0o755); err != nil {
		return err
	}

	res := a.gen.Generate(cmd.Context(), certgen.Request{
		Upload:   generateCSV,
		Prefix:   generatePrefix,
		Template: generateTemplate,
		Details:  details,
	})

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return err
	}
	if !res.OK() {
		return fmt.Errorf("generation failed with status %d", res.Status)
	}
	return nil
}

// parseDetails turns key=value pairs into a map. Later keys win.
func parseDetails(pairs []string) (map[string]string, error) {
	details := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --detail %q, want key=value", p)
		}
		details[k] = v
	}
	return details, nil
}
