// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for sourcesearch.
package types

import "strings"

// Source identifies the API a record came from.
type Source string

const (
	SourceCrossRef        Source = "crossref"
	SourceSemanticScholar Source = "semantic_scholar"
)

// DisplayName returns the human-readable source name used in progress
// messages and table output.
func (s Source) DisplayName() string {
	switch s {
	case SourceCrossRef:
		return "CrossRef"
	case SourceSemanticScholar:
		return "Semantic Scholar"
	default:
		return string(s)
	}
}

// Sentinel values used when a source omits a field. Normalizers substitute
// these rather than leaving fields empty, so every record is displayable.
const (
	NoTitle       = "No Title"
	UnknownAuthor = "Unknown Author"
	NoLink        = "#"

	// Per-source abstract sentinels, kept distinct so output reflects
	// which API was missing the abstract.
	NoAbstractCrossRef = "Abstract not available from CrossRef."
	NoAbstractSemantic = "No abstract available."
)

// PaperRecord is the canonical bibliographic record produced by source
// normalization. Records are constructed once and never mutated afterward.
type PaperRecord struct {
	// Title is the paper title, or the NoTitle sentinel.
	Title string `json:"title" yaml:"title"`

	// Authors is a comma-joined list of display names, or UnknownAuthor.
	Authors string `json:"authors" yaml:"authors"`

	// Source identifies which API produced this record.
	Source Source `json:"source" yaml:"source"`

	// DOI is the lower-cased DOI, or empty when the source provided none.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// URL is a resolvable link to the paper, or the NoLink sentinel.
	URL string `json:"url" yaml:"url"`

	// Abstract is the abstract text, or a per-source "not available" sentinel.
	Abstract string `json:"abstract" yaml:"abstract"`

	// Year is the 4-digit publication year as a string, or empty.
	Year string `json:"year,omitempty" yaml:"year,omitempty"`

	// Journal is the venue or container title, or empty.
	Journal string `json:"journal,omitempty" yaml:"journal,omitempty"`

	// Citations is the citation count reported by the source, never negative.
	Citations int `json:"citations" yaml:"citations"`
}

// IdentityKey derives the deduplication key for the record: the lower-cased
// DOI when present, otherwise the lower-cased title. The key is computed on
// demand and never stored. Keys shorter than four characters are too
// ambiguous to identify a paper; callers must treat them as invalid.
func (r PaperRecord) IdentityKey() string {
	if r.DOI != "" {
		return strings.ToLower(r.DOI)
	}
	return strings.ToLower(r.Title)
}

// HasAbstract reports whether the record carries real abstract text rather
// than a sentinel.
func (r PaperRecord) HasAbstract() bool {
	switch r.Abstract {
	case "", NoAbstractCrossRef, NoAbstractSemantic:
		return false
	}
	return true
}

// Citation formats the record as a plain-text citation:
// "Authors (Year). Title." with the journal appended when known.
// A record without a year cites as "n.d.".
func (r PaperRecord) Citation() string {
	year := r.Year
	if year == "" {
		year = "n.d."
	}

	var b strings.Builder
	b.WriteString(r.Authors)
	b.WriteString(" (")
	b.WriteString(year)
	b.WriteString("). ")
	b.WriteString(r.Title)
	b.WriteString(".")
	if r.Journal != "" {
		b.WriteString(" ")
		b.WriteString(r.Journal)
		b.WriteString(".")
	}
	return b.String()
}
