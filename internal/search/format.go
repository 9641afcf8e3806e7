// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// FormatTable writes results as a human-readable table to w.
func FormatTable(out Output, w io.Writer) {
	if len(out.Records) == 0 {
		fmt.Fprintln(w, "No papers found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-60s  %-20s  %-4s  %-5s  %s\n",
		"Rank", "Title", "Authors", "Year", "Cites", "Source")
	fmt.Fprintln(w, strings.Repeat("-", 110))

	for i, r := range out.Records {
		title := r.Title
		if len(title) > 60 {
			title = title[:57] + "..."
		}
		cites := ""
		if r.Citations > 0 {
			cites = strconv.Itoa(r.Citations)
		}
		fmt.Fprintf(w, "%-4d  %-60s  %-20s  %-4s  %-5s  %s\n",
			i+1, title, formatAuthors(r.Authors), r.Year, cites, r.Source.DisplayName())
	}

	fmt.Fprintf(w, "\n%s\n", out.Summary())
}

// FormatJSON writes the full output as indented JSON to w.
func FormatJSON(out Output, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func formatAuthors(authors string) string {
	if authors == "" {
		return ""
	}
	names := strings.Split(authors, ", ")
	if len(names) == 1 {
		return truncate(names[0], 20)
	}
	return truncate(names[0], 14) + " et al."
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
