package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/datahackshaw/sourcesearch/internal/search"
	"github.com/datahackshaw/sourcesearch/internal/secrets"
	"github.com/datahackshaw/sourcesearch/pkg/types"
)

const (
	defaultTimeout   = 15 * time.Second
	defaultRetries   = 1
	defaultUserAgent = "sourcesearch/0.1"
)

var searchCmd = &cobra.Command{
	Use:   "search [query...]",
	Short: "Search CrossRef and Semantic Scholar for papers",
	Long: `Search queries the CrossRef and Semantic Scholar APIs for papers matching
a free-text question. Results are normalized, deduplicated by DOI (or by
title when no DOI is known), capped per source, and printed as a ranked
table. Progress messages go to stderr so stdout stays parseable.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().Int("limit", 0, "maximum results kept per source (default 5)")
	searchCmd.Flags().Int("rows", 0, "result count requested from each API (default 15)")
	searchCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 15s)")
	searchCmd.Flags().Int("retries", 0, "backoff retries on HTTP 429 (default 1)")
	searchCmd.Flags().String("mailto", "", "email for the CrossRef polite pool (overrides the crossref-mailto secret)")
	searchCmd.Flags().String("api-key", "", "Semantic Scholar API key (overrides the semantic-scholar-api-key secret)")
	searchCmd.Flags().Bool("json", false, "output results as JSON")
	searchCmd.Flags().String("csl", "", "write results to a CSL-YAML file instead of printing a table")
	searchCmd.Flags().String("save", "", "also write the query and results to a YAML query file")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide a search query")
	}
	query := strings.Join(args, " ")

	cfg := searchConfig(cmd)
	session := search.NewSession(searchBackends(cmd, cfg), cfg)

	task := session.Submit(context.Background(), query)
	for ev := range task.Events {
		switch ev.Type {
		case search.EventStatus:
			fmt.Fprintln(os.Stderr, ev.Message)
		case search.EventError:
			return errors.New(ev.Message)
		case search.EventResults:
			return writeSearchOutput(cmd, query, cfg, *ev.Output)
		}
	}

	// A single-submit session is never superseded, but the channel
	// contract allows a close without a terminal event.
	return fmt.Errorf("search ended without results")
}

func writeSearchOutput(cmd *cobra.Command, query string, cfg types.SearchConfig, out search.Output) error {
	if savePath, _ := cmd.Flags().GetString("save"); savePath != "" {
		if err := search.WriteQueryFile(savePath, query, cfg, out); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Saved query file to %s\n", savePath)
	}

	if cslPath, _ := cmd.Flags().GetString("csl"); cslPath != "" {
		f, err := os.Create(cslPath)
		if err != nil {
			return fmt.Errorf("creating CSL file: %w", err)
		}
		defer f.Close()
		if err := search.FormatCSL(out, f); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Wrote CSL to %s\n", cslPath)
		return nil
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return search.FormatJSON(out, os.Stdout)
	}

	search.FormatTable(out, os.Stdout)
	return nil
}

func searchConfig(cmd *cobra.Command) types.SearchConfig {
	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout == 0 {
		timeout = defaultTimeout
	}
	retries, _ := cmd.Flags().GetInt("retries")
	if retries == 0 {
		retries = defaultRetries
	}
	limit, _ := cmd.Flags().GetInt("limit")
	rows, _ := cmd.Flags().GetInt("rows")

	return types.SearchConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   timeout,
			UserAgent: defaultUserAgent,
		},
		RequestRows:  rows,
		PerSourceCap: limit,
		MaxRetries:   retries,
	}
}

func searchBackends(cmd *cobra.Command, cfg types.SearchConfig) []search.Backend {
	client := &http.Client{Timeout: cfg.Timeout}

	mailto, _ := cmd.Flags().GetString("mailto")
	apiKey, _ := cmd.Flags().GetString("api-key")

	return []search.Backend{
		&search.CrossRefBackend{
			Client:  client,
			Mailto:  secretDefault(secrets.KeyCrossRefMailto, mailto),
			Limiter: rate.NewLimiter(rate.Limit(search.CrossRefRateLimit), 1),
		},
		&search.SemanticScholarBackend{
			Client:  client,
			APIKey:  secretDefault(secrets.KeySemanticScholar, apiKey),
			Limiter: rate.NewLimiter(rate.Limit(search.SemanticRateLimit), 1),
		},
	}
}
