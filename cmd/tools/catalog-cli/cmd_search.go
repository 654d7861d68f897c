package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"complaint-workers/internal/common/config"
	"complaint-workers/internal/common/logger"
	"complaint-workers/internal/matching/catalog"
	"complaint-workers/internal/matching/morphology"
	"complaint-workers/internal/matching/search"
	"complaint-workers/internal/matching/similarity"
	"complaint-workers/internal/matching/text"
)

type searchFlags struct {
	catalog      string
	dictionary   string
	contextLabel string
	top          int
	verbose      bool
}

func newSearchCmd() *cobra.Command {
	var flags searchFlags
	cmd := &cobra.Command{
		Use:   "search <complaint text>",
		Short: "Match complaint text against a catalog file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, flags, strings.Join(args, " "))
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.catalog, "catalog", "configs/catalog.yaml", "Path to catalog file")
	f.StringVar(&flags.dictionary, "dictionary", "", "Path to dictionary file (empty = built-in)")
	f.StringVar(&flags.contextLabel, "context", "", "Context label (water, electricity, heating)")
	f.IntVar(&flags.top, "top", 5, "Maximum number of candidates")
	f.BoolVarP(&flags.verbose, "verbose", "v", false, "Log pipeline details to stderr")
	return cmd
}

func runSearch(cmd *cobra.Command, flags searchFlags, query string) error {
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("complaint text is required")
	}

	log := logger.NewNoOpLogger()
	if flags.verbose {
		log = logger.NewStructured("debug", "console")
	}

	analyzer, err := morphology.NewSnowballAnalyzer("russian")
	if err != nil {
		return err
	}
	dict, err := text.LoadDictionary(flags.dictionary)
	if err != nil {
		return err
	}

	cfg := config.DefaultMatchingConfig()
	if flags.top > 0 {
		cfg.TopN = flags.top
	}

	cache := catalog.NewCache(catalog.NewFileSource(flags.catalog), analyzer, log)
	filter := text.NewNoiseFilter(text.NewDictionaryStore(dict, flags.dictionary), analyzer, log)
	pipeline := search.NewPipeline(cfg, cache, filter, similarity.NewLocalEngine(), nil, log)

	outcome, err := pipeline.Search(cmd.Context(), query, flags.contextLabel)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	return printJSON(cmd.OutOrStdout(), outcome)
}
