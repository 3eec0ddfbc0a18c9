package lib

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/gingerrexayers/gamevault/internal/gamevault/types"
)

// bbolt buckets in index.db.
var (
	bucketVersions = []byte("versions") // version id -> VersionSummary JSON
	bucketMeta     = []byte("meta")     // "head" -> latest version id
)

var keyHead = []byte("head")

// Tracker manages the version forest: one JSON manifest per version
// under versions/, plus a bbolt index with summaries and the head
// pointer so listing does not load every manifest. Versions are append
// only; a published version is never mutated.
type Tracker struct {
	baseDir string

	mu    sync.Mutex
	db    *bolt.DB
	cache map[string]*types.Version
}

// OpenTracker opens (creating if needed) the version index for a
// project root.
func OpenTracker(baseDir string) (*Tracker, error) {
	if _, err := EnsureVaultDirs(baseDir); err != nil {
		return nil, fmt.Errorf("failed to create vault directories: %w", err)
	}

	db, err := bolt.Open(GetIndexDBPath(baseDir), 0644, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open version index: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		if _, e := tx.CreateBucketIfNotExists(bucketVersions); e != nil {
			return e
		}
		if _, e := tx.CreateBucketIfNotExists(bucketMeta); e != nil {
			return e
		}
		return nil
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize version index: %w", err)
	}

	return &Tracker{
		baseDir: baseDir,
		db:      db,
		cache:   make(map[string]*types.Version),
	}, nil
}

// Close closes the underlying index database.
func (t *Tracker) Close() error {
	return t.db.Close()
}

// NewVersionID returns a fresh unique version id.
func NewVersionID() string {
	return uuid.NewString()
}

func (t *Tracker) manifestPath(id string) string {
	return filepath.Join(GetVersionsDir(t.baseDir), id+".json")
}

// CreateVersion persists a new version: manifest first, then the index
// row and head pointer. The id must be unused.
func (t *Tracker) CreateVersion(version *types.Version) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if version.ID == "" {
		version.ID = NewVersionID()
	}
	if version.CreatedAt.IsZero() {
		version.CreatedAt = time.Now().UTC()
	}

	// Uniqueness guard before anything touches disk.
	var taken bool
	if err := t.db.View(func(tx *bolt.Tx) error {
		taken = tx.Bucket(bucketVersions).Get([]byte(version.ID)) != nil
		return nil
	}); err != nil {
		return fmt.Errorf("failed to check version id %s: %w", version.ID, err)
	}
	if taken {
		return fmt.Errorf("version %s: %w", version.ID, ErrAlreadyExists)
	}

	manifestJSON, err := json.MarshalIndent(version, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode version %s: %w", version.ID, err)
	}
	path := t.manifestPath(version.ID)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, manifestJSON, 0644); err != nil {
		return fmt.Errorf("failed to write version manifest %s: %w", version.ID, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to finalize version manifest %s: %w", version.ID, err)
	}

	summary := types.VersionSummary{
		ID:          version.ID,
		ParentID:    version.ParentID,
		Name:        version.Name,
		Type:        version.Type,
		IsMilestone: version.IsMilestone,
		Tags:        version.Tags,
		FileCount:   len(version.Files),
		CreatedAt:   version.CreatedAt,
	}
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to encode version summary %s: %w", version.ID, err)
	}

	if err := t.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(bucketVersions).Put([]byte(version.ID), summaryJSON); err != nil {
			return err
		}
		return tx.Bucket(bucketMeta).Put(keyHead, []byte(version.ID))
	}); err != nil {
		return fmt.Errorf("failed to index version %s: %w", version.ID, err)
	}

	t.cache[version.ID] = version
	return nil
}

// GetVersion loads a version manifest by exact id.
func (t *Tracker) GetVersion(id string) (*types.Version, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.getVersionLocked(id)
}

func (t *Tracker) getVersionLocked(id string) (*types.Version, error) {
	if v, ok := t.cache[id]; ok {
		return v, nil
	}

	content, err := os.ReadFile(t.manifestPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("version %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read version %s: %w", id, err)
	}

	var version types.Version
	if err := json.Unmarshal(content, &version); err != nil {
		return nil, fmt.Errorf("failed to parse version %s: %w", id, err)
	}

	t.cache[id] = &version
	return &version, nil
}

// FindVersion resolves an identifier that may be a full version id or a
// unique id prefix, the way snapshot tooling lets users abbreviate.
func (t *Tracker) FindVersion(identifier string) (*types.Version, error) {
	t.mu.Lock()

	var matches []string
	err := t.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketVersions).ForEach(func(k, _ []byte) error {
			if strings.HasPrefix(string(k), identifier) {
				matches = append(matches, string(k))
			}
			return nil
		})
	})
	t.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to scan version index: %w", err)
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("version %q: %w", identifier, ErrNotFound)
	case 1:
		return t.GetVersion(matches[0])
	default:
		return nil, fmt.Errorf("ambiguous version identifier %q matches %d versions", identifier, len(matches))
	}
}

// Head returns the most recently created version, or nil when the
// project has no versions yet.
func (t *Tracker) Head() (*types.Version, error) {
	t.mu.Lock()

	var headID string
	err := t.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucketMeta).Get(keyHead); v != nil {
			headID = string(v)
		}
		return nil
	})
	t.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to read head pointer: %w", err)
	}
	if headID == "" {
		return nil, nil
	}
	return t.GetVersion(headID)
}

// ListFilter narrows ListVersions output. The zero value matches
// everything.
type ListFilter struct {
	MilestonesOnly bool
	Tag            string
	Type           types.VersionType
}

// ListVersions returns version summaries, oldest first.
func (t *Tracker) ListVersions(filter ListFilter) ([]types.VersionSummary, error) {
	t.mu.Lock()

	var summaries []types.VersionSummary
	err := t.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketVersions).ForEach(func(_, v []byte) error {
			var s types.VersionSummary
			if err := json.Unmarshal(v, &s); err != nil {
				return err
			}
			summaries = append(summaries, s)
			return nil
		})
	})
	t.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to list versions: %w", err)
	}

	var filtered []types.VersionSummary
	for _, s := range summaries {
		if filter.MilestonesOnly && !s.IsMilestone {
			continue
		}
		if filter.Type != "" && s.Type != filter.Type {
			continue
		}
		if filter.Tag != "" {
			found := false
			for _, tag := range s.Tags {
				if tag == filter.Tag {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		filtered = append(filtered, s)
	}

	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].CreatedAt.Before(filtered[j].CreatedAt)
	})
	return filtered, nil
}

// Milestones returns milestone versions, oldest first.
func (t *Tracker) Milestones() ([]types.VersionSummary, error) {
	return t.ListVersions(ListFilter{MilestonesOnly: true})
}

// History walks the parent chain from id back to the root and returns
// the versions in chronological order.
func (t *Tracker) History(id string) ([]*types.Version, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var history []*types.Version
	currentID := id
	for currentID != "" {
		version, err := t.getVersionLocked(currentID)
		if err != nil {
			return nil, err
		}
		history = append(history, version)
		currentID = version.ParentID
	}

	// Walked newest to oldest; flip to chronological.
	for i, j := 0, len(history)-1; i < j; i, j = i+1, j-1 {
		history[i], history[j] = history[j], history[i]
	}
	return history, nil
}

// DeleteVersion removes a version's manifest and index row. Stored
// objects are never touched: other versions may reference them, and
// object garbage collection is deliberately not implemented.
func (t *Tracker) DeleteVersion(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, err := t.getVersionLocked(id); err != nil {
		return err
	}

	if err := os.Remove(t.manifestPath(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete version manifest %s: %w", id, err)
	}

	if err := t.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(bucketVersions).Delete([]byte(id)); err != nil {
			return err
		}
		// If the head was deleted, fall back to the newest remaining
		// version.
		head := tx.Bucket(bucketMeta).Get(keyHead)
		if head == nil || string(head) != id {
			return nil
		}
		var newest string
		var newestAt time.Time
		err := tx.Bucket(bucketVersions).ForEach(func(_, v []byte) error {
			var s types.VersionSummary
			if err := json.Unmarshal(v, &s); err != nil {
				return err
			}
			if newest == "" || s.CreatedAt.After(newestAt) {
				newest = s.ID
				newestAt = s.CreatedAt
			}
			return nil
		})
		if err != nil {
			return err
		}
		if newest == "" {
			return tx.Bucket(bucketMeta).Delete(keyHead)
		}
		return tx.Bucket(bucketMeta).Put(keyHead, []byte(newest))
	}); err != nil {
		return fmt.Errorf("failed to unindex version %s: %w", id, err)
	}

	delete(t.cache, id)
	return nil
}
