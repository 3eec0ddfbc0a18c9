package main

import (
	"github.com/gingerrexayers/gamevault/internal/gamevault/commands"
	"github.com/spf13/cobra"
)

func NewBackupCommand() *cobra.Command {
	var opts commands.BackupOptions

	cmd := &cobra.Command{
		Use:   "backup [directory]",
		Short: "Create a new backup version of a project directory.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			return commands.Backup(dir, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Name, "name", "n", "", "A name for the version")
	cmd.Flags().StringVarP(&opts.Type, "type", "t", "development", "Version type (development, alpha, beta, milestone, release)")
	cmd.Flags().StringVarP(&opts.Description, "description", "d", "", "A description for the version")
	cmd.Flags().BoolVar(&opts.IsMilestone, "milestone", false, "Mark this version as a milestone")
	cmd.Flags().StringSliceVar(&opts.Tags, "tag", nil, "Tags for the version (repeatable)")

	return cmd
}
