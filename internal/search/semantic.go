// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/time/rate"

	"github.com/datahackshaw/sourcesearch/internal/httputil"
	"github.com/datahackshaw/sourcesearch/pkg/types"
)

// semanticAPIBase is the Semantic Scholar paper search endpoint. Declared
// as a var so tests can substitute an httptest server.
var semanticAPIBase = "https://api.semanticscholar.org/graph/v1/paper/search"

// SemanticRateLimit is the client-side request rate in requests per
// second. The public pool allows roughly one request per second.
const SemanticRateLimit = 1.0

// semanticVariant is one parameter set for the search endpoint. Variants
// are tried in order; when the API rejects or rate-limits the full request,
// the fallback asks for fewer rows and fields.
type semanticVariant struct {
	fields string
	limit  int
}

var semanticVariants = []semanticVariant{
	{fields: "title,authors,url,externalIds,abstract,year,venue,citationCount,publicationTypes", limit: 15},
	{fields: "title,authors,url,abstract,year", limit: 10},
}

// SemanticScholarBackend queries the Semantic Scholar Graph API.
type SemanticScholarBackend struct {
	Client *http.Client

	// APIKey is optional; requests without one share the public pool.
	APIKey string

	// Limiter throttles outgoing requests. Nil means unthrottled.
	Limiter *rate.Limiter
}

// Source returns the source identifier.
func (b *SemanticScholarBackend) Source() types.Source { return types.SourceSemanticScholar }

// Search queries the paper search endpoint, walking the variant list until
// one responds. A rate-limited variant reports through notify before the
// next is tried. All variants empty is a no-results outcome, not an error.
func (b *SemanticScholarBackend) Search(ctx context.Context, query string, cfg types.SearchConfig, notify Notify) ([]types.PaperRecord, error) {
	rows := cfg.RequestRows
	if rows <= 0 {
		rows = 15
	}

	var lastErr error
	var sawEmpty bool

	for i, variant := range semanticVariants {
		limit := variant.limit
		if i == 0 {
			limit = rows
		}

		records, err := b.searchVariant(ctx, query, variant.fields, limit, cfg)
		if err != nil {
			lastErr = err
			if IsRateLimited(err) && i < len(semanticVariants)-1 {
				notify.say("Semantic Scholar rate limited, trying alternative...")
			}
			continue
		}
		if len(records) == 0 {
			sawEmpty = true
			continue
		}
		return records, nil
	}

	// At least one variant answered cleanly with nothing.
	if sawEmpty {
		notify.say("Semantic Scholar found no results")
		return nil, nil
	}
	return nil, lastErr
}

func (b *SemanticScholarBackend) searchVariant(ctx context.Context, query, fields string, limit int, cfg types.SearchConfig) ([]types.PaperRecord, error) {
	if err := waitLimiter(ctx, b.Limiter); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	params := url.Values{
		"query":  {query},
		"limit":  {strconv.Itoa(limit)},
		"fields": {fields},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, semanticAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)
	req.Header.Set("Accept", "application/json")
	if b.APIKey != "" {
		req.Header.Set("x-api-key", b.APIKey)
	}

	resp, err := httputil.DoWithRetry(ctx, b.Client, req, cfg.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("Semantic Scholar API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Source: types.SourceSemanticScholar, StatusCode: resp.StatusCode}
	}

	var sr semanticResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("parsing Semantic Scholar response: %w", err)
	}

	records := make([]types.PaperRecord, 0, len(sr.Data))
	for _, paper := range sr.Data {
		records = append(records, normalizePaper(paper))
	}
	return records, nil
}

// normalizePaper converts one Semantic Scholar paper into the canonical
// record. It never fails: missing fields degrade to sentinels. When the
// API supplies no link but the paper has a DOI, the DOI resolver link is
// used instead of the sentinel.
func normalizePaper(paper semanticPaper) types.PaperRecord {
	rec := types.PaperRecord{
		Source:   types.SourceSemanticScholar,
		Title:    types.NoTitle,
		Authors:  types.UnknownAuthor,
		URL:      types.NoLink,
		Abstract: types.NoAbstractSemantic,
	}

	if t := strings.TrimSpace(paper.Title); t != "" {
		rec.Title = t
	}

	var names []string
	for _, a := range paper.Authors {
		if name := strings.TrimSpace(a.Name); name != "" {
			names = append(names, name)
		}
	}
	if len(names) > 0 {
		rec.Authors = strings.Join(names, ", ")
	}

	if paper.Year > 0 {
		rec.Year = strconv.Itoa(paper.Year)
	}

	doi := strings.TrimSpace(paper.ExternalIDs.DOI)
	if doi != "" {
		rec.DOI = strings.ToLower(doi)
	}

	switch {
	case strings.TrimSpace(paper.URL) != "":
		rec.URL = paper.URL
	case doi != "":
		rec.URL = doiBase + doi
	}

	if strings.TrimSpace(paper.Abstract) != "" {
		rec.Abstract = paper.Abstract
	}

	rec.Journal = strings.TrimSpace(paper.Venue)

	if paper.CitationCount > 0 {
		rec.Citations = paper.CitationCount
	}

	return rec
}

// Semantic Scholar API JSON structures.
type semanticResponse struct {
	Total  int             `json:"total"`
	Offset int             `json:"offset"`
	Data   []semanticPaper `json:"data"`
}

type semanticPaper struct {
	PaperID          string              `json:"paperId"`
	Title            string              `json:"title"`
	Abstract         string              `json:"abstract"`
	URL              string              `json:"url"`
	Year             int                 `json:"year"`
	Venue            string              `json:"venue"`
	CitationCount    int                 `json:"citationCount"`
	PublicationTypes []string            `json:"publicationTypes"`
	Authors          []semanticAuthor    `json:"authors"`
	ExternalIDs      semanticExternalIDs `json:"externalIds"`
}

type semanticAuthor struct {
	AuthorID string `json:"authorId"`
	Name     string `json:"name"`
}

type semanticExternalIDs struct {
	DOI      string `json:"DOI"`
	ArXiv    string `json:"ArXiv"`
	CorpusID int    `json:"CorpusId"`
}
