package main

import (
	"github.com/gingerrexayers/gamevault/internal/gamevault/commands"
	"github.com/spf13/cobra"
)

// NewRestoreCommand creates the 'restore' command for the CLI.
func NewRestoreCommand() *cobra.Command {
	var sourceDir string
	var outputDir string
	var excluded []string

	cmd := &cobra.Command{
		Use:   "restore <version_id_or_prefix>",
		Short: "Restore a project version into a directory.",
		Long: `Restores a version to the output directory. Only files recorded in
the version's manifest are written; other files already present in the
output directory are left untouched.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			finalOutputDir := outputDir
			if finalOutputDir == "" {
				finalOutputDir = sourceDir
			}
			return commands.Restore(sourceDir, args[0], finalOutputDir, excluded)
		},
	}

	cmd.Flags().StringVarP(&sourceDir, "directory", "d", ".", "The project directory containing the .gamevault store")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "The directory to restore files to (defaults to the project directory)")
	cmd.Flags().StringSliceVar(&excluded, "exclude", nil, "Relative paths to skip during restore (repeatable)")

	return cmd
}
