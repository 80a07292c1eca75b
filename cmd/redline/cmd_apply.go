package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"redline/internal/apply"
	"redline/internal/directive"
	"redline/internal/extract"
)

var applyJSON bool

var applyCmd = &cobra.Command{
	Use:   "apply [file]",
	Short: "Extract directives from model output and apply them",
	Long: `Reads model output from the given file (or stdin), extracts edit
directives, and applies them to the remote store. Useful for replaying
a saved reply or driving the pipeline from another tool.

Example:
  redline apply reply.txt
  pbpaste | redline apply`,
	Args: cobra.MaximumNArgs(1),
	RunE: runApply,
}

func init() {
	applyCmd.Flags().BoolVar(&applyJSON, "json", false, "print results as JSON")
}

func runApply(cmd *cobra.Command, args []string) error {
	text, err := readInput(args)
	if err != nil {
		return err
	}

	st, err := newGitHubStore()
	if err != nil {
		return err
	}

	candidates := extract.Directives(text)
	batch, rejected := directive.ValidateAll(candidates)
	for _, r := range rejected {
		fmt.Fprintln(os.Stderr, "rejected:", r)
	}
	if len(batch) == 0 {
		fmt.Println("no directives found")
		return nil
	}

	results := apply.New(st).Batch(cmd.Context(), batch)
	return printResults(results)
}

func readInput(args []string) (string, error) {
	if len(args) == 1 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func printResults(results []directive.OperationResult) error {
	if applyJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	failed := 0
	for _, r := range results {
		if r.Success {
			msg := r.Message
			if msg == "" {
				msg = "ok"
			}
			fmt.Printf("✓ %s %s: %s\n", r.Action, r.File, msg)
		} else {
			failed++
			fmt.Printf("✗ %s %s: %s\n", r.Action, r.File, r.Error)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d operations failed", failed, len(results))
	}
	return nil
}
