package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"complaint-workers/internal/matching/catalog"
	"complaint-workers/internal/matching/morphology"
	"complaint-workers/internal/matching/text"
)

func newValidateCmd() *cobra.Command {
	var catalogPath, dictPath string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a catalog file and a dictionary file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runValidate(cmd, catalogPath, dictPath)
		},
	}

	f := cmd.Flags()
	f.StringVar(&catalogPath, "catalog", "configs/catalog.yaml", "Path to catalog file")
	f.StringVar(&dictPath, "dictionary", "", "Path to dictionary file (empty = built-in)")
	return cmd
}

func runValidate(cmd *cobra.Command, catalogPath, dictPath string) error {
	if _, err := text.LoadDictionary(dictPath); err != nil {
		return fmt.Errorf("dictionary: %w", err)
	}

	records, err := catalog.NewFileSource(catalogPath).Fetch(cmd.Context())
	if err != nil {
		return fmt.Errorf("catalog: %w", err)
	}

	analyzer, err := morphology.NewSnowballAnalyzer("russian")
	if err != nil {
		return err
	}
	built := catalog.BuildEntries(cmd.Context(), records, analyzer)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Catalog: %d active records, %d entries built, %d skipped\n", len(records), len(built.Entries), built.Skipped)
	if built.Skipped > 0 {
		return fmt.Errorf("%d catalog records were skipped (non-positive id, empty name or duplicate id)", built.Skipped)
	}
	fmt.Fprintln(out, "Catalog and dictionary validation passed.")
	return nil
}
