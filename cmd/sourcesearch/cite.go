package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var citeCmd = &cobra.Command{
	Use:   "cite [key]",
	Short: "Print a citation for a saved paper",
	Long: `Cite prints a plain-text citation for a paper in the library, looked up
by its key: the lowercased DOI, or the lowercased title when no DOI is
known.`,
	RunE: runCite,
}

func runCite(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("provide the key of the paper to cite")
	}

	store, err := openLibrary(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	entry, err := store.Get(context.Background(), args[0])
	if err != nil {
		return err
	}

	fmt.Println(entry.Citation())
	return nil
}

func init() {
	rootCmd.AddCommand(citeCmd)
}
