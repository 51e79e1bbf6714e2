package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/reason-search/internal/search"
	"github.com/pdiddy/reason-search/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Run a quick multi-query web search",
	Long: `Search sends every --query to the web search provider concurrently and
prints the deduplicated results and validated images per query. Per-query
settings (--max-results, --topic, --depth) line up with the queries by
position; a missing entry falls back to the first one.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringArray("query", nil, "search query (repeatable)")
	searchCmd.Flags().IntSlice("max-results", nil, "results per query (default 10)")
	searchCmd.Flags().StringSlice("topic", nil, "topic per query: general or news")
	searchCmd.Flags().StringSlice("depth", nil, "search depth per query: basic or advanced")
	searchCmd.Flags().StringSlice("exclude-domain", nil, "domain to exclude from every query (repeatable)")
	searchCmd.Flags().Bool("yaml", false, "output results as YAML instead of JSON")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	queries, _ := cmd.Flags().GetStringArray("query")
	queries = append(queries, args...)
	if len(queries) == 0 {
		return fmt.Errorf("provide at least one --query")
	}
	maxResults, _ := cmd.Flags().GetIntSlice("max-results")
	topics, _ := cmd.Flags().GetStringSlice("topic")
	depths, _ := cmd.Flags().GetStringSlice("depth")
	exclude, _ := cmd.Flags().GetStringSlice("exclude-domain")
	asYAML, _ := cmd.Flags().GetBool("yaml")

	req := search.MultiSearchRequest{
		Queries:        queries,
		MaxResults:     maxResults,
		ExcludeDomains: exclude,
	}
	for _, t := range topics {
		req.Topics = append(req.Topics, types.Topic(t))
	}
	for _, d := range depths {
		req.SearchDepths = append(req.SearchDepths, types.SearchDepth(d))
	}

	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	p, err := buildProviders(cfg, false)
	if err != nil {
		return err
	}
	defer p.Close()

	results, err := search.MultiSearch(context.Background(), p.web, p.prober, req,
		search.WithProbeConcurrency(cfg.ImageCheck.Concurrency),
		search.WithQueryCompletion(func(c search.QueryCompletion) {
			fmt.Fprintf(os.Stderr, "[%d/%d] %q: %d results, %d images\n",
				c.Index+1, c.Total, c.Query, c.ResultsCount, c.ImagesCount)
		}),
	)
	if err != nil {
		return err
	}

	if asYAML {
		return writeYAML(os.Stdout, results)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}
