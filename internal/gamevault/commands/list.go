package commands

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/gingerrexayers/gamevault/internal/gamevault/lib"
	"github.com/gingerrexayers/gamevault/internal/gamevault/types"
)

// ListOptions mirrors the flags of the list command.
type ListOptions struct {
	MilestonesOnly bool
	Tag            string
	Type           string
}

// List prints the project's versions, oldest first.
func List(targetDirectory string, opts ListOptions) error {
	engine, err := lib.NewEngine(targetDirectory, lib.DefaultConfig())
	if err != nil {
		return err
	}
	defer engine.Close()

	summaries, err := engine.Tracker().ListVersions(lib.ListFilter{
		MilestonesOnly: opts.MilestonesOnly,
		Tag:            opts.Tag,
		Type:           types.VersionType(opts.Type),
	})
	if err != nil {
		return fmt.Errorf("failed to list versions: %w", err)
	}

	if len(summaries) == 0 {
		fmt.Println("No versions found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCREATED\tTYPE\tFILES\tNAME\tTAGS")
	for _, s := range summaries {
		id := s.ID
		if len(id) > 8 {
			id = id[:8]
		}
		name := s.Name
		if s.IsMilestone {
			name = "* " + name
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			id,
			s.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			s.Type,
			s.FileCount,
			name,
			strings.Join(s.Tags, ","),
		)
	}
	return w.Flush()
}
