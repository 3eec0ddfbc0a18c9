package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "gamevault",
		Short: "Incremental, deduplicating backups for game and art projects.",
	}

	rootCmd.AddCommand(NewBackupCommand())
	rootCmd.AddCommand(NewListCommand())
	rootCmd.AddCommand(NewRestoreCommand())
	rootCmd.AddCommand(NewDiffCommand())
	rootCmd.AddCommand(NewStatsCommand())
	rootCmd.AddCommand(NewCompletionCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
