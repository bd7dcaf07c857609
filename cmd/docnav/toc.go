package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docnav/internal/toc"
)

var tocJSON bool

var tocCmd = &cobra.Command{
	Use:   "toc FILE",
	Short: "Print the table of contents of a writeup",
	Args:  cobra.ExactArgs(1),
	RunE:  runTOC,
}

func init() {
	tocCmd.Flags().BoolVar(&tocJSON, "json", false, "print sections as JSON")
	rootCmd.AddCommand(tocCmd)
}

func runTOC(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	path := args[0]
	ex, err := toc.ForFile(path, toc.WithHighlightStyle(cfg.HighlightStyle))
	if err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	doc, err := ex.Extract(f, path)
	if err != nil {
		return fmt.Errorf("extracting %s: %w", path, err)
	}

	out := cmd.OutOrStdout()
	if tocJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"title":    doc.Title,
			"sections": doc.Sections,
		})
	}

	fmt.Fprintln(out, doc.Title)
	for _, s := range doc.Sections {
		indent := strings.Repeat("  ", s.Level-1)
		fmt.Fprintf(out, "%s- %s (#%s)\n", indent, s.Text, s.ID)
	}
	return nil
}
