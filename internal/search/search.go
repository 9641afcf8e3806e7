// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search queries bibliographic APIs and merges their results into
// one deduplicated, ordered record list. CrossRef is queried first, then
// Semantic Scholar; a failing source never aborts the search.
package search

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/time/rate"

	"github.com/datahackshaw/sourcesearch/pkg/types"
)

// Backend searches a single bibliographic API. Each source (CrossRef,
// Semantic Scholar) implements this interface and returns fully normalized
// records; raw API schemas never leave the client.
type Backend interface {
	Source() types.Source
	Search(ctx context.Context, query string, cfg types.SearchConfig, notify Notify) ([]types.PaperRecord, error)
}

// Notify receives human-readable progress messages during a search. A nil
// Notify is valid and discards messages.
type Notify func(message string)

func (n Notify) say(message string) {
	if n != nil {
		n(message)
	}
}

// Output holds the merged search results.
type Output struct {
	// Records are the accepted records in admission order.
	Records []types.PaperRecord `json:"records" yaml:"records"`

	// Sources lists the sources in query order.
	Sources []types.Source `json:"sources" yaml:"sources"`

	// BySource counts accepted records per source.
	BySource map[types.Source]int `json:"by_source" yaml:"by_source"`

	// SourceErrors describes sources that failed. A failed source
	// contributes zero records but does not fail the search.
	SourceErrors []string `json:"source_errors,omitempty" yaml:"source_errors,omitempty"`
}

// Summary returns the end-of-search message, e.g.
// "Found 7 papers (5 from CrossRef, 2 from Semantic Scholar)".
func (o Output) Summary() string {
	parts := make([]string, len(o.Sources))
	for i, src := range o.Sources {
		parts[i] = fmt.Sprintf("%d from %s", o.BySource[src], src.DisplayName())
	}
	return fmt.Sprintf("Found %d papers (%s)", len(o.Records), strings.Join(parts, ", "))
}

// Run queries every backend in order and aggregates the results. The query
// is trimmed and must be non-empty; validation happens before any network
// request. Each backend failure is reported through notify and recorded in
// SourceErrors, then the next backend is tried regardless. An empty record
// list with no error is a valid outcome.
func Run(ctx context.Context, query string, backends []Backend, cfg types.SearchConfig, notify Notify) (Output, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Output{}, ErrEmptyQuery
	}
	if len(backends) == 0 {
		return Output{}, ErrNoSources
	}

	agg := newAggregator(cfg.PerSourceCap)
	out := Output{Sources: make([]types.Source, 0, len(backends))}

	for _, b := range backends {
		src := b.Source()
		out.Sources = append(out.Sources, src)
		notify.say(fmt.Sprintf("Searching %s database...", src.DisplayName()))

		records, err := b.Search(ctx, query, cfg, notify)
		if err != nil {
			out.SourceErrors = append(out.SourceErrors, fmt.Sprintf("%s: %v", src, err))
			notify.say(fmt.Sprintf("%s search failed, continuing...", src.DisplayName()))
			continue
		}

		for _, rec := range records {
			agg.admit(rec)
		}
	}

	out.Records = agg.records
	out.BySource = agg.bySource
	notify.say(out.Summary())

	return out, nil
}

// waitLimiter blocks until the client-side rate limiter admits a request.
// A nil limiter admits immediately.
func waitLimiter(ctx context.Context, l *rate.Limiter) error {
	if l == nil {
		return nil
	}
	return l.Wait(ctx)
}
