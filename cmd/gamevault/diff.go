package main

import (
	"github.com/gingerrexayers/gamevault/internal/gamevault/commands"
	"github.com/spf13/cobra"
)

func NewDiffCommand() *cobra.Command {
	var dir string
	var showUnchanged bool

	cmd := &cobra.Command{
		Use:   "diff <version_a> <version_b>",
		Short: "Show per-file changes between two versions.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return commands.Diff(dir, args[0], args[1], showUnchanged)
		},
	}

	cmd.Flags().StringVarP(&dir, "directory", "d", ".", "The project directory containing the .gamevault store")
	cmd.Flags().BoolVar(&showUnchanged, "all", false, "Include unchanged paths in the output")

	return cmd
}
