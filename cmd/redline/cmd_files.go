package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var filesCmd = &cobra.Command{
	Use:   "files [path]",
	Short: "List repository files or print one file's content",
	Long: `With no arguments, lists every file in the remote store. With a
path, prints that file's content to stdout.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFiles,
}

func runFiles(cmd *cobra.Command, args []string) error {
	st, err := newGitHubStore()
	if err != nil {
		return err
	}

	if len(args) == 0 {
		paths, err := st.List(cmd.Context())
		if err != nil {
			return err
		}
		for _, p := range paths {
			fmt.Println(p)
		}
		return nil
	}

	f, err := st.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	fmt.Print(f.Content)
	return nil
}
