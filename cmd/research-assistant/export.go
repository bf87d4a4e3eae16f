// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-assistant/internal/report"
	"github.com/pdiddy/research-assistant/internal/session"
)

var exportCmd = &cobra.Command{
	Use:   "export [session-id]",
	Short: "Render a session's report to Markdown or YAML",
	Long: `Export renders a saved session's research record. The default Markdown
format writes the report itself; the yaml format dumps the full record
(proposal, outline, sections, sources) for further processing.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().String("format", "markdown", "export format: markdown or yaml")
	exportCmd.Flags().String("output", "", "output file (default: stdout for markdown, report.yaml for yaml)")

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	store, err := session.NewStore(agentConfig().Session)
	if err != nil {
		return err
	}
	defer store.Close()

	rec, err := store.Load(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("format")
	output, _ := cmd.Flags().GetString("output")

	switch format {
	case "markdown", "":
		md := report.Markdown(rec)
		if output == "" {
			fmt.Print(md)
			return nil
		}
		if err := os.WriteFile(output, []byte(md), 0o644); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		fmt.Printf("Exported to %s\n", output)
	case "yaml":
		if output == "" {
			output = "report.yaml"
		}
		if err := report.WriteYAML(output, rec); err != nil {
			return err
		}
		fmt.Printf("Exported to %s\n", output)
	default:
		return fmt.Errorf("unsupported format %q: use markdown or yaml", format)
	}
	return nil
}
