// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/datahackshaw/sourcesearch/internal/library"
	"github.com/datahackshaw/sourcesearch/internal/search"
	"github.com/datahackshaw/sourcesearch/internal/secrets"
	"github.com/datahackshaw/sourcesearch/pkg/types"
)

var libraryCmd = &cobra.Command{
	Use:   "library",
	Short: "Manage the local library of saved papers",
	Long: `Library maintains a SQLite database of saved papers with full-text search
over titles, authors, and abstracts. Use subcommands to add papers by DOI
or from a saved query file, list or search the library, remove papers, or
export everything.`,
}

// --- add subcommand ---

var libraryAddCmd = &cobra.Command{
	Use:   "add [doi...]",
	Short: "Add papers by DOI or from a saved query file",
	Long: `Add saves papers into the library. DOIs given as arguments are resolved
through the CrossRef API. With --from, every record in a saved query file
is added instead.`,
	RunE: runLibraryAdd,
}

func runLibraryAdd(cmd *cobra.Command, args []string) error {
	fromPath, _ := cmd.Flags().GetString("from")
	if len(args) == 0 && fromPath == "" {
		return fmt.Errorf("provide one or more DOIs or --from with a query file")
	}

	store, err := openLibrary(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()

	var records []types.PaperRecord
	if fromPath != "" {
		qf, err := search.ReadQueryFile(fromPath)
		if err != nil {
			return err
		}
		records = qf.Records
	}

	if len(args) > 0 {
		cfg := types.SearchConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   defaultTimeout,
				UserAgent: defaultUserAgent,
			},
			MaxRetries: defaultRetries,
		}
		crossref := &search.CrossRefBackend{
			Client:  &http.Client{Timeout: cfg.Timeout},
			Mailto:  secretDefault(secrets.KeyCrossRefMailto, ""),
			Limiter: rate.NewLimiter(rate.Limit(search.CrossRefRateLimit), 1),
		}
		for _, doi := range args {
			rec, err := crossref.Lookup(ctx, doi, cfg)
			if err != nil {
				return fmt.Errorf("resolving %s: %w", doi, err)
			}
			records = append(records, rec)
		}
	}

	added := 0
	for _, rec := range records {
		key, err := store.Save(ctx, rec)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: skipping %q: %v\n", rec.Title, err)
			continue
		}
		fmt.Printf("Saved %s  (%s)\n", key, rec.Title)
		added++
	}

	if added == 0 && len(records) > 0 {
		return fmt.Errorf("no papers added")
	}
	return nil
}

// --- list and find subcommands ---

var libraryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved papers, most recent first",
	RunE:  runLibraryList,
}

func runLibraryList(cmd *cobra.Command, args []string) error {
	store, err := openLibrary(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.List(context.Background())
	if err != nil {
		return err
	}
	return formatLibraryEntries(cmd, entries)
}

var libraryFindCmd = &cobra.Command{
	Use:   "find [query...]",
	Short: "Full-text search over saved papers",
	Long: `Find searches titles, authors, and abstracts of saved papers, ranked by
relevance. Without a query it lists the most recently added papers.`,
	RunE: runLibraryFind,
}

func runLibraryFind(cmd *cobra.Command, args []string) error {
	store, err := openLibrary(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	maxResults, _ := cmd.Flags().GetInt("max-results")
	entries, err := store.Find(context.Background(), strings.Join(args, " "), maxResults)
	if err != nil {
		return err
	}
	return formatLibraryEntries(cmd, entries)
}

func formatLibraryEntries(cmd *cobra.Command, entries []library.Entry) error {
	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Println("No papers found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-40s  %-50s  %-4s  %s\n", "Key", "Title", "Year", "Source")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 110))
	for _, e := range entries {
		key := e.Key
		if len(key) > 40 {
			key = key[:37] + "..."
		}
		title := e.Title
		if len(title) > 50 {
			title = title[:47] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-40s  %-50s  %-4s  %s\n", key, title, e.Year, e.Source.DisplayName())
	}

	fmt.Fprintf(os.Stdout, "\n%d paper(s)\n", len(entries))
	return nil
}

// --- remove subcommand ---

var libraryRemoveCmd = &cobra.Command{
	Use:   "remove [key]",
	Short: "Remove a saved paper by key",
	RunE:  runLibraryRemove,
}

func runLibraryRemove(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("provide the key of the paper to remove")
	}

	store, err := openLibrary(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Remove(context.Background(), args[0]); err != nil {
		return err
	}
	fmt.Printf("Removed %s\n", args[0])
	return nil
}

// --- export subcommand ---

var libraryExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the library to YAML or JSON",
	RunE:  runLibraryExport,
}

func runLibraryExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	if format == "" {
		format = "yaml"
	}
	path, _ := cmd.Flags().GetString("out")
	if path == "" {
		path = filepath.Join(libraryDir(cmd), "export."+format)
	}

	store, err := openLibrary(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	switch format {
	case "yaml":
		err = store.ExportYAML(ctx, path)
	case "json":
		err = store.ExportJSON(ctx, path)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	if err != nil {
		return err
	}

	fmt.Printf("Exported library to %s\n", path)
	return nil
}

// --- shared helpers ---

func libraryDir(cmd *cobra.Command) string {
	dir, _ := cmd.Flags().GetString("library-dir")
	if dir == "" {
		dir = "library"
	}
	return dir
}

func openLibrary(cmd *cobra.Command) (*library.Store, error) {
	maxResults, _ := cmd.Flags().GetInt("max-results")
	return library.NewStore(types.LibraryConfig{
		LibraryDir: libraryDir(cmd),
		MaxResults: maxResults,
	})
}

func init() {
	libraryCmd.PersistentFlags().Int("max-results", 20, "maximum number of find results")

	libraryAddCmd.Flags().String("from", "", "query file written by search --save")

	libraryListCmd.Flags().Bool("json", false, "output entries as JSON")
	libraryFindCmd.Flags().Bool("json", false, "output entries as JSON")

	libraryExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	libraryExportCmd.Flags().String("out", "", "output path (default: export.<format> in the library directory)")

	libraryCmd.AddCommand(libraryAddCmd)
	libraryCmd.AddCommand(libraryListCmd)
	libraryCmd.AddCommand(libraryFindCmd)
	libraryCmd.AddCommand(libraryRemoveCmd)
	libraryCmd.AddCommand(libraryExportCmd)

	rootCmd.AddCommand(libraryCmd)
}
