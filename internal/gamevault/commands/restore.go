package commands

import (
	"fmt"

	"github.com/gingerrexayers/gamevault/internal/gamevault/lib"
)

// Restore reconstructs a version of the project at sourceDir into
// outputDir. Only files in the version's manifest are written; existing
// unrelated files in outputDir are left alone.
func Restore(sourceDir, versionIdentifier, outputDir string, excluded []string) error {
	engine, err := lib.NewEngine(sourceDir, lib.DefaultConfig())
	if err != nil {
		return err
	}
	defer engine.Close()

	version, err := engine.Tracker().FindVersion(versionIdentifier)
	if err != nil {
		return fmt.Errorf("failed to find version %q: %w", versionIdentifier, err)
	}

	fmt.Printf("Restoring version %s (%s) to %q...\n", shortID(version.ID), version.Name, outputDir)

	if err := engine.RestoreVersion(version.ID, outputDir, excluded); err != nil {
		return err
	}

	fmt.Printf("Restore complete: %d files.\n", len(version.Files))
	return nil
}

// shortID abbreviates a version id for display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
