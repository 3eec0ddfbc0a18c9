// Package types defines the serialized data model shared by the vault's
// storage, versioning, and command layers.
package types

import "time"

// ContentID is a hex-encoded strong content hash. It is both the identity
// used for dedup decisions and the key under which bytes live in the
// object store.
type ContentID string

// Namespace selects which half of the object store an id lives in.
type Namespace string

const (
	// FileNamespace holds whole-file objects.
	FileNamespace Namespace = "files"
	// ChunkNamespace holds sub-file chunk objects (and stored deltas).
	ChunkNamespace Namespace = "chunks"
)

// Metadata keys recognized on a FileInfo.
const (
	// MetaDelta marks an entry whose chunk list holds a single stored
	// delta instead of raw content chunks.
	MetaDelta = "delta"
	// MetaBaseVersion is the ContentID of the file content the stored
	// delta was computed against.
	MetaBaseVersion = "base_version"
)

// Chunk is one piece of a file's data. Data is never serialized; only the
// id and size travel in manifests.
type Chunk struct {
	ID   ContentID `json:"id"`
	Size int64     `json:"size"`
	Data []byte    `json:"-"`
}

// FileInfo describes one file as recorded in a Version manifest. Exactly
// one of Chunks (binary path) or the ContentHash entry in the file
// namespace (text path) is authoritative for reconstructing bytes.
type FileInfo struct {
	Path         string            `json:"path"`
	Size         int64             `json:"size"`
	ContentHash  ContentID         `json:"content_hash"`
	ModifiedTime time.Time         `json:"modified_time"`
	IsBinary     bool              `json:"is_binary"`
	Chunks       []ContentID       `json:"chunks,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// IsDelta reports whether this entry is stored as a delta against a base
// version of the same logical file.
func (f FileInfo) IsDelta() bool {
	return f.Metadata[MetaDelta] == "true"
}

// BaseVersion returns the ContentID the stored delta was computed against.
// It is only meaningful when IsDelta is true.
func (f FileInfo) BaseVersion() ContentID {
	return ContentID(f.Metadata[MetaBaseVersion])
}

// VersionType categorizes a version in the project's lifecycle.
type VersionType string

const (
	VersionDevelopment VersionType = "development"
	VersionAlpha       VersionType = "alpha"
	VersionBeta        VersionType = "beta"
	VersionMilestone   VersionType = "milestone"
	VersionRelease     VersionType = "release"
)

// Version is an immutable snapshot of the full logical project tree.
// Files maps relative paths to FileInfo for every file present at this
// version, even when the bytes were stored by an ancestor. Versions chain
// into a forest through ParentID and are only ever appended.
type Version struct {
	ID          string              `json:"id"`
	ParentID    string              `json:"parent_id,omitempty"`
	Name        string              `json:"name"`
	Type        VersionType         `json:"type"`
	Description string              `json:"description,omitempty"`
	IsMilestone bool                `json:"is_milestone"`
	Tags        []string            `json:"tags,omitempty"`
	Files       map[string]FileInfo `json:"files"`
	CreatedAt   time.Time           `json:"created_at"`
}

// VersionSummary is the lightweight row kept in the version index so that
// listing does not require loading every manifest.
type VersionSummary struct {
	ID          string      `json:"id"`
	ParentID    string      `json:"parent_id,omitempty"`
	Name        string      `json:"name"`
	Type        VersionType `json:"type"`
	IsMilestone bool        `json:"is_milestone"`
	Tags        []string    `json:"tags,omitempty"`
	FileCount   int         `json:"file_count"`
	CreatedAt   time.Time   `json:"created_at"`
}

// ChangeType classifies one path in a version diff.
type ChangeType string

const (
	ChangeAdded     ChangeType = "added"
	ChangeModified  ChangeType = "modified"
	ChangeDeleted   ChangeType = "deleted"
	ChangeUnchanged ChangeType = "unchanged"
)

// StorageStats reports on-disk (compressed) sizes per namespace.
type StorageStats struct {
	FilesBytes   int64 `json:"files_bytes"`
	ChunksBytes  int64 `json:"chunks_bytes"`
	TotalBytes   int64 `json:"total_bytes"`
	FileObjects  int   `json:"file_objects"`
	ChunkObjects int   `json:"chunk_objects"`
}
