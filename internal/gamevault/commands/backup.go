// Package commands contains the command-line orchestration for the
// gamevault application. Each function builds an engine for the target
// project, runs one operation, and prints a human-readable result. The
// core in lib never prints; all user output happens here.
package commands

import (
	"fmt"

	"github.com/gingerrexayers/gamevault/internal/gamevault/lib"
	"github.com/gingerrexayers/gamevault/internal/gamevault/types"
)

// BackupOptions mirrors the flags of the backup command.
type BackupOptions struct {
	Name        string
	Type        string
	Description string
	IsMilestone bool
	Tags        []string
}

// Backup creates a new version of the project at targetDirectory.
func Backup(targetDirectory string, opts BackupOptions) error {
	engine, err := lib.NewEngine(targetDirectory, lib.DefaultConfig())
	if err != nil {
		return err
	}
	defer engine.Close()

	fmt.Printf("Backing up %q...\n", engine.Root())

	version, err := engine.CreateBackup(lib.BackupOptions{
		Name:        opts.Name,
		Type:        types.VersionType(opts.Type),
		Description: opts.Description,
		IsMilestone: opts.IsMilestone,
		Tags:        opts.Tags,
	})
	if err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}

	stats, err := engine.StorageStats()
	if err != nil {
		return fmt.Errorf("backup succeeded but stats are unavailable: %w", err)
	}

	fmt.Println("Backup complete.")
	fmt.Printf("   Version:  %s (%s)\n", version.ID, version.Name)
	if version.ParentID != "" {
		fmt.Printf("   Parent:   %s\n", version.ParentID)
	}
	fmt.Printf("   Files:    %d\n", len(version.Files))
	fmt.Printf("   Storage:  %d bytes across %d objects\n",
		stats.TotalBytes, stats.FileObjects+stats.ChunkObjects)
	return nil
}
