package commands

import (
	"fmt"
	"sort"

	"github.com/gingerrexayers/gamevault/internal/gamevault/lib"
	"github.com/gingerrexayers/gamevault/internal/gamevault/types"
)

// Diff prints the per-path changes between two versions.
func Diff(targetDirectory, versionA, versionB string, showUnchanged bool) error {
	engine, err := lib.NewEngine(targetDirectory, lib.DefaultConfig())
	if err != nil {
		return err
	}
	defer engine.Close()

	diff, err := engine.Diff(versionA, versionB)
	if err != nil {
		return err
	}

	paths := make([]string, 0, len(diff))
	for path := range diff {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	markers := map[types.ChangeType]string{
		types.ChangeAdded:     "A",
		types.ChangeModified:  "M",
		types.ChangeDeleted:   "D",
		types.ChangeUnchanged: " ",
	}

	changed := 0
	for _, path := range paths {
		change := diff[path]
		if change == types.ChangeUnchanged && !showUnchanged {
			continue
		}
		if change != types.ChangeUnchanged {
			changed++
		}
		fmt.Printf("%s  %s\n", markers[change], path)
	}
	fmt.Printf("%d paths compared, %d changed.\n", len(paths), changed)
	return nil
}
