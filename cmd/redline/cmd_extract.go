package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"redline/internal/directive"
	"redline/internal/extract"
)

var extractCmd = &cobra.Command{
	Use:   "extract [file]",
	Short: "Extract directives from model output without applying them",
	Long: `Dry run of the extraction pipeline: reads model output from the
given file (or stdin), prints the validated directives as JSON, and
lists anything that was rejected. Nothing touches the remote store.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExtract,
}

func runExtract(cmd *cobra.Command, args []string) error {
	text, err := readInput(args)
	if err != nil {
		return err
	}

	candidates := extract.Directives(text)
	batch, rejected := directive.ValidateAll(candidates)
	for _, r := range rejected {
		fmt.Fprintln(os.Stderr, "rejected:", r)
	}

	if batch == nil {
		batch = []directive.Directive{}
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(batch)
}
