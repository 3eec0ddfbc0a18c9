package main

import (
	"github.com/gingerrexayers/gamevault/internal/gamevault/commands"
	"github.com/spf13/cobra"
)

func NewListCommand() *cobra.Command {
	var opts commands.ListOptions

	cmd := &cobra.Command{
		Use:   "list [directory]",
		Short: "List the versions recorded for a project.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			return commands.List(dir, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.MilestonesOnly, "milestones", false, "Show only milestone versions")
	cmd.Flags().StringVar(&opts.Tag, "tag", "", "Show only versions carrying this tag")
	cmd.Flags().StringVar(&opts.Type, "type", "", "Show only versions of this type")

	return cmd
}
