package types

import "time"

// HTTPConfig holds shared HTTP settings for components that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout (default 15s). Every API call is
	// bounded by it, so a search task always terminates.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the identifying User-Agent header sent with API requests
	// (e.g. "sourcesearch/0.1"). Semantic Scholar requires one.
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SearchConfig holds settings for the search pipeline.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// RequestRows is the result count requested from each API (default 15).
	// Always at least PerSourceCap, so deduplication has surplus to draw on.
	RequestRows int `json:"request_rows" yaml:"request_rows"`

	// PerSourceCap is the maximum number of records accepted per source
	// into a single result set (default 5).
	PerSourceCap int `json:"per_source_cap" yaml:"per_source_cap"`

	// MaxRetries is the number of backoff retries on HTTP 429 before a
	// request attempt is abandoned (default 1).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// LibraryConfig holds settings for the saved-papers library.
type LibraryConfig struct {
	// LibraryDir is the directory holding the library database and exports.
	LibraryDir string `json:"library_dir" yaml:"library_dir"`

	// MaxResults is the default maximum number of find results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}
