package types

import "testing"

func TestIdentityKey(t *testing.T) {
	tests := []struct {
		name string
		rec  PaperRecord
		want string
	}{
		{"doi preferred", PaperRecord{DOI: "10.1/ABC", Title: "Graph Theory"}, "10.1/abc"},
		{"title fallback", PaperRecord{Title: "Graph Theory"}, "graph theory"},
		{"doi already lower", PaperRecord{DOI: "10.1145/3295222"}, "10.1145/3295222"},
		{"empty record", PaperRecord{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rec.IdentityKey(); got != tt.want {
				t.Errorf("IdentityKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCitation(t *testing.T) {
	tests := []struct {
		name string
		rec  PaperRecord
		want string
	}{
		{
			"full record",
			PaperRecord{Title: "On Graphs", Authors: "A. Author, B. Author", Year: "2019", Journal: "J. Graph Theory"},
			"A. Author, B. Author (2019). On Graphs. J. Graph Theory.",
		},
		{
			"no journal",
			PaperRecord{Title: "On Graphs", Authors: "A. Author", Year: "2019"},
			"A. Author (2019). On Graphs.",
		},
		{
			"no year",
			PaperRecord{Title: "On Graphs", Authors: "A. Author"},
			"A. Author (n.d.). On Graphs.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rec.Citation(); got != tt.want {
				t.Errorf("Citation() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSourceDisplayName(t *testing.T) {
	if got := SourceCrossRef.DisplayName(); got != "CrossRef" {
		t.Errorf("DisplayName() = %q, want %q", got, "CrossRef")
	}
	if got := SourceSemanticScholar.DisplayName(); got != "Semantic Scholar" {
		t.Errorf("DisplayName() = %q, want %q", got, "Semantic Scholar")
	}
	if got := Source("other").DisplayName(); got != "other" {
		t.Errorf("DisplayName() = %q, want %q", got, "other")
	}
}

func TestHasAbstract(t *testing.T) {
	tests := []struct {
		name     string
		abstract string
		want     bool
	}{
		{"real text", "We study graphs.", true},
		{"empty", "", false},
		{"crossref sentinel", NoAbstractCrossRef, false},
		{"semantic sentinel", NoAbstractSemantic, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := PaperRecord{Abstract: tt.abstract}
			if got := r.HasAbstract(); got != tt.want {
				t.Errorf("HasAbstract() = %v, want %v", got, tt.want)
			}
		})
	}
}
