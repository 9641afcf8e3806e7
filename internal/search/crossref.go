// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/time/rate"

	"github.com/datahackshaw/sourcesearch/internal/httputil"
	"github.com/datahackshaw/sourcesearch/pkg/types"
)

// crossrefAPIBase is the CrossRef works endpoint, used both for relevance
// search (?query=) and single-record lookup (/<doi>). Declared as a var so
// tests can substitute an httptest server.
var crossrefAPIBase = "https://api.crossref.org/works"

// doiBase is the DOI resolver used to build record links.
const doiBase = "https://doi.org/"

// CrossRefRateLimit is the client-side request rate in requests per second.
// CrossRef asks polite-pool users to stay conservative.
const CrossRefRateLimit = 2.0

// doiPattern matches bare DOIs: "10.1145/1234567.1234568".
var doiPattern = regexp.MustCompile(`^10\.\d{4,9}/[^\s]+$`)

// ValidDOI reports whether s looks like a bare DOI.
func ValidDOI(s string) bool {
	return doiPattern.MatchString(strings.TrimSpace(s))
}

// CrossRefBackend queries the CrossRef REST API.
type CrossRefBackend struct {
	Client *http.Client

	// Mailto is included in requests for polite pool access.
	Mailto string

	// Limiter throttles outgoing requests. Nil means unthrottled.
	Limiter *rate.Limiter
}

// Source returns the source identifier.
func (b *CrossRefBackend) Source() types.Source { return types.SourceCrossRef }

// Search queries the CrossRef works endpoint sorted by relevance and
// returns normalized records in API rank order.
func (b *CrossRefBackend) Search(ctx context.Context, query string, cfg types.SearchConfig, _ Notify) ([]types.PaperRecord, error) {
	rows := cfg.RequestRows
	if rows <= 0 {
		rows = 15
	}

	params := url.Values{
		"query": {query},
		"rows":  {strconv.Itoa(rows)},
		"sort":  {"relevance"},
		"order": {"desc"},
	}
	if b.Mailto != "" {
		params.Set("mailto", b.Mailto)
	}

	body, err := b.get(ctx, crossrefAPIBase+"?"+params.Encode(), cfg)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var cr crossrefSearchResponse
	if err := json.NewDecoder(body).Decode(&cr); err != nil {
		return nil, fmt.Errorf("parsing CrossRef response: %w", err)
	}

	records := make([]types.PaperRecord, 0, len(cr.Message.Items))
	for _, work := range cr.Message.Items {
		records = append(records, normalizeWork(work))
	}
	return records, nil
}

// Lookup fetches a single work by DOI and returns its normalized record.
func (b *CrossRefBackend) Lookup(ctx context.Context, doi string, cfg types.SearchConfig) (types.PaperRecord, error) {
	doi = strings.TrimSpace(doi)
	if !ValidDOI(doi) {
		return types.PaperRecord{}, fmt.Errorf("invalid DOI %q", doi)
	}

	body, err := b.get(ctx, crossrefAPIBase+"/"+url.PathEscape(doi), cfg)
	if err != nil {
		return types.PaperRecord{}, err
	}
	defer body.Close()

	var cr crossrefLookupResponse
	if err := json.NewDecoder(body).Decode(&cr); err != nil {
		return types.PaperRecord{}, fmt.Errorf("parsing CrossRef response: %w", err)
	}
	return normalizeWork(cr.Message), nil
}

// get performs a rate-limited GET with 429 backoff and maps non-200
// statuses onto the package error taxonomy. Callers close the body.
func (b *CrossRefBackend) get(ctx context.Context, reqURL string, cfg types.SearchConfig) (io.ReadCloser, error) {
	if err := waitLimiter(ctx, b.Limiter); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := httputil.DoWithRetry(ctx, b.Client, req, cfg.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("CrossRef API request: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return resp.Body, nil
	case http.StatusNotFound:
		resp.Body.Close()
		return nil, fmt.Errorf("CrossRef: %w", ErrNotFound)
	default:
		resp.Body.Close()
		return nil, &StatusError{Source: types.SourceCrossRef, StatusCode: resp.StatusCode}
	}
}

// normalizeWork converts one CrossRef work into the canonical record. It
// never fails: missing fields degrade to sentinels.
func normalizeWork(work crossrefWork) types.PaperRecord {
	rec := types.PaperRecord{
		Source:   types.SourceCrossRef,
		Title:    types.NoTitle,
		Authors:  types.UnknownAuthor,
		URL:      types.NoLink,
		Abstract: types.NoAbstractCrossRef,
	}

	if len(work.Title) > 0 && strings.TrimSpace(work.Title[0]) != "" {
		rec.Title = strings.TrimSpace(work.Title[0])
	}

	var names []string
	for _, a := range work.Author {
		name := strings.TrimSpace(strings.TrimSpace(a.Given) + " " + strings.TrimSpace(a.Family))
		if name != "" {
			names = append(names, name)
		}
	}
	if len(names) > 0 {
		rec.Authors = strings.Join(names, ", ")
	}

	// Print date wins over online date when both exist.
	if y := work.PublishedPrint.year(); y > 0 {
		rec.Year = strconv.Itoa(y)
	} else if y := work.PublishedOnline.year(); y > 0 {
		rec.Year = strconv.Itoa(y)
	}

	if doi := strings.TrimSpace(work.DOI); doi != "" {
		rec.DOI = strings.ToLower(doi)
		rec.URL = doiBase + doi
	}

	if strings.TrimSpace(work.Abstract) != "" {
		rec.Abstract = work.Abstract
	}

	if len(work.ContainerTitle) > 0 {
		rec.Journal = work.ContainerTitle[0]
	}

	if work.IsReferencedByCount > 0 {
		rec.Citations = work.IsReferencedByCount
	}

	return rec
}

// CrossRef API JSON structures.
type crossrefSearchResponse struct {
	Message crossrefSearchMessage `json:"message"`
}

type crossrefSearchMessage struct {
	TotalResults int            `json:"total-results"`
	Items        []crossrefWork `json:"items"`
}

type crossrefLookupResponse struct {
	Message crossrefWork `json:"message"`
}

type crossrefWork struct {
	Title               []string         `json:"title"`
	Abstract            string           `json:"abstract"`
	Author              []crossrefAuthor `json:"author"`
	DOI                 string           `json:"DOI"`
	ContainerTitle      []string         `json:"container-title"`
	IsReferencedByCount int              `json:"is-referenced-by-count"`
	PublishedPrint      crossrefDate     `json:"published-print"`
	PublishedOnline     crossrefDate     `json:"published-online"`
}

type crossrefAuthor struct {
	Given  string `json:"given"`
	Family string `json:"family"`
}

type crossrefDate struct {
	DateParts [][]int `json:"date-parts"`
}

// year returns the leading date-parts component, or 0 when absent.
func (d crossrefDate) year() int {
	if len(d.DateParts) > 0 && len(d.DateParts[0]) > 0 {
		return d.DateParts[0][0]
	}
	return 0
}
