// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"strings"

	"github.com/datahackshaw/sourcesearch/pkg/types"
)

// DefaultPerSourceCap bounds how many records each source contributes to a
// single result set.
const DefaultPerSourceCap = 5

// minKeyLen is the shortest identity key accepted for deduplication. A DOI
// or title shorter than this cannot distinguish one paper from another.
const minKeyLen = 4

// aggregator collects normalized records across sources, rejecting
// duplicates by identity key and capping acceptances per source. Admission
// order is preserved: records appear in the order sources were queried and,
// within a source, in the order the API ranked them. A fresh aggregator is
// built for every search; nothing carries over between runs.
type aggregator struct {
	perSourceCap int
	seen         map[string]struct{}
	bySource     map[types.Source]int
	records      []types.PaperRecord
}

func newAggregator(perSourceCap int) *aggregator {
	if perSourceCap <= 0 {
		perSourceCap = DefaultPerSourceCap
	}
	return &aggregator{
		perSourceCap: perSourceCap,
		seen:         make(map[string]struct{}),
		bySource:     make(map[types.Source]int),
	}
}

// admit accepts rec unless its identity key is invalid, one of its dedup
// keys is already claimed, or its source has hit the per-source cap. An
// accepted record claims both its DOI key and its title key, so a DOI-less
// item still collides with an earlier DOI-bearing item sharing its title.
// The first claim on a key wins; later collisions are dropped whole,
// never merged.
func (a *aggregator) admit(rec types.PaperRecord) bool {
	if len(strings.TrimSpace(rec.IdentityKey())) < minKeyLen {
		return false
	}

	doiKey := dedupDOIKey(rec)
	titleKey := dedupTitleKey(rec)
	if doiKey != "" {
		if _, dup := a.seen[doiKey]; dup {
			return false
		}
	}
	if titleKey != "" {
		if _, dup := a.seen[titleKey]; dup {
			return false
		}
	}
	if a.bySource[rec.Source] >= a.perSourceCap {
		return false
	}

	if doiKey != "" {
		a.seen[doiKey] = struct{}{}
	}
	if titleKey != "" {
		a.seen[titleKey] = struct{}{}
	}
	a.bySource[rec.Source]++
	a.records = append(a.records, rec)
	return true
}

// dedupDOIKey returns the DOI dedup key, or "" for records without a DOI.
func dedupDOIKey(rec types.PaperRecord) string {
	doi := strings.ToLower(strings.TrimSpace(rec.DOI))
	if doi == "" {
		return ""
	}
	return "doi:" + doi
}

// dedupTitleKey returns the title dedup key. Titles shorter than minKeyLen
// form no key; the missing-title sentinel forms one only when the record
// has no DOI, where the sentinel is the identity key itself.
func dedupTitleKey(rec types.PaperRecord) string {
	title := strings.ToLower(strings.TrimSpace(rec.Title))
	if len(title) < minKeyLen {
		return ""
	}
	if rec.DOI != "" && rec.Title == types.NoTitle {
		return ""
	}
	return "title:" + title
}
