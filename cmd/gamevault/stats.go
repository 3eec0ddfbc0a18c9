package main

import (
	"github.com/gingerrexayers/gamevault/internal/gamevault/commands"
	"github.com/spf13/cobra"
)

func NewStatsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats [directory]",
		Short: "Show storage usage of a project's backup store.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			return commands.Stats(dir)
		},
	}
	return cmd
}
