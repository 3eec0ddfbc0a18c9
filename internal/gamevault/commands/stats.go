package commands

import (
	"fmt"

	"github.com/gingerrexayers/gamevault/internal/gamevault/lib"
)

// Stats prints on-disk storage usage per object namespace.
func Stats(targetDirectory string) error {
	engine, err := lib.NewEngine(targetDirectory, lib.DefaultConfig())
	if err != nil {
		return err
	}
	defer engine.Close()

	stats, err := engine.StorageStats()
	if err != nil {
		return fmt.Errorf("failed to collect storage stats: %w", err)
	}

	fmt.Printf("Storage for %q:\n", engine.Root())
	fmt.Printf("   Files:   %d objects, %d bytes\n", stats.FileObjects, stats.FilesBytes)
	fmt.Printf("   Chunks:  %d objects, %d bytes\n", stats.ChunkObjects, stats.ChunksBytes)
	fmt.Printf("   Total:   %d bytes (compressed at rest)\n", stats.TotalBytes)
	return nil
}
