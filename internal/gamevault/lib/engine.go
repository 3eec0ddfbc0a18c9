package lib

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gingerrexayers/gamevault/internal/gamevault/types"
)

// Engine orchestrates backups over a project tree: it scans the working
// directory, compares against the parent version's manifest, persists
// only new or changed content through the optimizer, and appends an
// immutable Version. It is a single-writer component; concurrent readers
// of published versions are safe because versions and stored objects are
// never mutated.
type Engine struct {
	root      string
	cfg       Config
	store     *FSStore
	optimizer *Optimizer
	tracker   *Tracker
	delta     *DeltaCompressor
}

// NewEngine opens (initializing if needed) the vault for a project root.
func NewEngine(root string, cfg Config) (*Engine, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("could not resolve project root %s: %w", root, err)
	}
	if _, err := os.Stat(absRoot); err != nil {
		return nil, fmt.Errorf("project root %s: %w", absRoot, err)
	}

	store, err := NewFSStore(absRoot, cfg)
	if err != nil {
		return nil, err
	}
	delta, err := NewDeltaCompressor(cfg)
	if err != nil {
		store.Close()
		return nil, err
	}
	tracker, err := OpenTracker(absRoot)
	if err != nil {
		store.Close()
		delta.Close()
		return nil, err
	}

	return &Engine{
		root:      absRoot,
		cfg:       cfg,
		store:     store,
		optimizer: NewOptimizer(store, NewChunker(cfg), delta, cfg),
		tracker:   tracker,
		delta:     delta,
	}, nil
}

// Close releases the engine's index and compression resources.
func (e *Engine) Close() error {
	e.delta.Close()
	e.store.Close()
	return e.tracker.Close()
}

// Root returns the absolute project root the engine operates on.
func (e *Engine) Root() string { return e.root }

// Tracker exposes the version tracker for listing and history queries.
func (e *Engine) Tracker() *Tracker { return e.tracker }

// BackupOptions name and classify a new version.
type BackupOptions struct {
	Name        string
	Type        types.VersionType
	Description string
	IsMilestone bool
	Tags        []string
}

// scanFiles walks the project tree and returns the relative paths of
// every regular file that is not ignored, sorted for deterministic
// processing order.
func (e *Engine) scanFiles() ([]string, error) {
	var files []string
	err := filepath.WalkDir(e.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == e.root {
			return nil
		}
		if IsPathIgnored(e.root, path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			rel, err := filepath.Rel(e.root, path)
			if err != nil {
				return err
			}
			files = append(files, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// resolveBase returns a BaseResolver that searches the manifests from
// startID back through the parent chain for an entry whose content hash
// matches the requested id. Delta bases always live in an ancestor of
// the version that recorded the delta.
func (e *Engine) resolveBase(startID string) BaseResolver {
	return func(id types.ContentID) (*types.FileInfo, error) {
		currentID := startID
		for currentID != "" {
			version, err := e.tracker.GetVersion(currentID)
			if err != nil {
				return nil, err
			}
			for _, info := range version.Files {
				if info.ContentHash == id {
					return &info, nil
				}
			}
			currentID = version.ParentID
		}
		return nil, fmt.Errorf("no version records content %s: %w", id, ErrNotFound)
	}
}

// CreateBackup walks the project tree and appends a new version chained
// to the current head. Unchanged files (same content hash as the parent
// entry) are carried over without storing anything; new and changed
// files go through the optimizer. If any file fails, no version is
// recorded and the parent remains head.
func (e *Engine) CreateBackup(opts BackupOptions) (*types.Version, error) {
	parent, err := e.tracker.Head()
	if err != nil {
		return nil, err
	}

	files, err := e.scanFiles()
	if err != nil {
		return nil, fmt.Errorf("failed to scan project tree: %w", err)
	}

	var parentFiles map[string]types.FileInfo
	var parentID string
	var resolve BaseResolver
	if parent != nil {
		parentFiles = parent.Files
		parentID = parent.ID
		resolve = e.resolveBase(parent.ID)
	}

	manifest := make(map[string]types.FileInfo, len(files))
	for _, relPath := range files {
		fullPath := filepath.Join(e.root, filepath.FromSlash(relPath))

		contentHash, err := HashFile(fullPath)
		if err != nil {
			return nil, fmt.Errorf("failed to hash %s: %w", relPath, err)
		}

		if prior, ok := parentFiles[relPath]; ok && prior.ContentHash == contentHash {
			// Unchanged: repeat the parent's entry, no store writes.
			manifest[relPath] = prior
			continue
		}

		content, err := os.ReadFile(fullPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", relPath, err)
		}
		stat, err := os.Stat(fullPath)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", relPath, err)
		}

		var prior *types.FileInfo
		if p, ok := parentFiles[relPath]; ok {
			prior = &p
		}

		info, err := e.optimizer.StoreAsset(relPath, content, stat.ModTime().UTC(), prior, resolve)
		if err != nil {
			return nil, err
		}
		manifest[relPath] = info
	}
	// Files present in the parent but absent on disk are simply omitted.

	if opts.Name == "" {
		opts.Name = "Backup " + time.Now().UTC().Format(time.RFC3339)
	}
	if opts.Type == "" {
		opts.Type = types.VersionDevelopment
	}

	version := &types.Version{
		ID:          NewVersionID(),
		ParentID:    parentID,
		Name:        opts.Name,
		Type:        opts.Type,
		Description: opts.Description,
		IsMilestone: opts.IsMilestone,
		Tags:        opts.Tags,
		Files:       manifest,
		CreatedAt:   time.Now().UTC(),
	}

	// Commit point: every object is already durable; appending the
	// version publishes the backup.
	if err := e.tracker.CreateVersion(version); err != nil {
		return nil, err
	}
	return version, nil
}

// isExcluded reports whether relPath matches an exclusion, either
// exactly or as a directory prefix.
func isExcluded(relPath string, excluded []string) bool {
	for _, ex := range excluded {
		ex = strings.TrimSuffix(filepath.ToSlash(ex), "/")
		if relPath == ex || strings.HasPrefix(relPath, ex+"/") {
			return true
		}
	}
	return false
}

// RestoreVersion writes every file in the version's manifest (minus
// exclusions) under outputDir. Only manifest paths are written: nothing
// outside the manifest is deleted or overwritten, and files from other
// versions or the live tree never bleed through.
func (e *Engine) RestoreVersion(versionID, outputDir string, excluded []string) error {
	version, err := e.tracker.FindVersion(versionID)
	if err != nil {
		return err
	}

	absOutput, err := filepath.Abs(outputDir)
	if err != nil {
		return fmt.Errorf("could not resolve output path %s: %w", outputDir, err)
	}
	if err := os.MkdirAll(absOutput, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	resolve := e.resolveBase(version.ParentID)

	// Deterministic restore order.
	paths := make([]string, 0, len(version.Files))
	for relPath := range version.Files {
		paths = append(paths, relPath)
	}
	sort.Strings(paths)

	for _, relPath := range paths {
		if isExcluded(relPath, excluded) {
			continue
		}
		info := version.Files[relPath]
		outPath := filepath.Join(absOutput, filepath.FromSlash(relPath))
		if err := e.optimizer.RestoreAssetToFile(info, outPath, resolve); err != nil {
			return fmt.Errorf("failed to restore %s: %w", relPath, err)
		}
	}
	return nil
}

// RestoreFileBytes reconstructs a single file's bytes from a version
// without touching the filesystem. External tooling (timeline views,
// thumbnailers) uses this for byte access to historical content.
func (e *Engine) RestoreFileBytes(versionID, relPath string) ([]byte, error) {
	version, err := e.tracker.FindVersion(versionID)
	if err != nil {
		return nil, err
	}
	info, ok := version.Files[filepath.ToSlash(relPath)]
	if !ok {
		return nil, fmt.Errorf("path %s in version %s: %w", relPath, version.ID, ErrNotFound)
	}
	return e.optimizer.RestoreAsset(info, e.resolveBase(version.ParentID))
}

// Diff classifies every path present in either version: added, deleted,
// modified (content hash differs), or unchanged.
func (e *Engine) Diff(versionA, versionB string) (map[string]types.ChangeType, error) {
	a, err := e.tracker.FindVersion(versionA)
	if err != nil {
		return nil, err
	}
	b, err := e.tracker.FindVersion(versionB)
	if err != nil {
		return nil, err
	}

	diff := make(map[string]types.ChangeType)
	for relPath, infoB := range b.Files {
		infoA, ok := a.Files[relPath]
		switch {
		case !ok:
			diff[relPath] = types.ChangeAdded
		case infoA.ContentHash != infoB.ContentHash:
			diff[relPath] = types.ChangeModified
		default:
			diff[relPath] = types.ChangeUnchanged
		}
	}
	for relPath := range a.Files {
		if _, ok := b.Files[relPath]; !ok {
			diff[relPath] = types.ChangeDeleted
		}
	}
	return diff, nil
}

// StorageStats reports on-disk compressed sizes per namespace, the
// number a user watches to see dedup working.
func (e *Engine) StorageStats() (types.StorageStats, error) {
	return e.store.SizeReport()
}
