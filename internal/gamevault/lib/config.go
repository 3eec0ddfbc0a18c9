package lib

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/denormal/go-gitignore"
	"github.com/klauspost/compress/zstd"
)

// VaultDirName is the name of the root directory for all backup data.
const VaultDirName = ".gamevault"

// FilesDirName is the subdirectory for whole-file objects.
const FilesDirName = "files"

// ChunksDirName is the subdirectory for chunk objects.
const ChunksDirName = "chunks"

// VersionsDirName is the subdirectory for version manifest files.
const VersionsDirName = "versions"

// IndexDBName is the bbolt database holding version summaries and the
// head pointer.
const IndexDBName = "index.db"

// IgnoreFilename is the file containing user-defined ignore patterns,
// gitignore syntax.
const IgnoreFilename = ".gvignore"

// Config carries every tunable the engine's strategies need. A zero
// value is not usable; start from DefaultConfig.
type Config struct {
	// Chunking bounds for the Rabin chunker. Boundaries are declared by
	// the rolling hash, clamped to [MinChunkSize, MaxChunkSize].
	MinChunkSize int
	AvgChunkSize int
	MaxChunkSize int

	// CompressionLevel applies to every object written by this store
	// instance. zstd frames are self-describing, so objects written at
	// other levels still read back fine.
	CompressionLevel zstd.EncoderLevel

	// Hash is the strong content hash strategy.
	Hash Hasher

	// DeltaBlockSize is the base block size for delta compression.
	DeltaBlockSize int

	// BinaryExtensions are treated as binary without sniffing content.
	// TextExtensions are treated as text the same way.
	BinaryExtensions map[string]bool
	TextExtensions   map[string]bool
}

// DefaultConfig returns the engine defaults. Chunk bounds follow the
// usual CDC sizing for game/art assets where edits are localized.
func DefaultConfig() Config {
	return Config{
		MinChunkSize:     4 * 1024,
		AvgChunkSize:     16 * 1024,
		MaxChunkSize:     64 * 1024,
		CompressionLevel: zstd.SpeedDefault,
		Hash:             Blake3Hex,
		DeltaBlockSize:   2 * 1024,
		BinaryExtensions: map[string]bool{
			".png": true, ".jpg": true, ".jpeg": true, ".tga": true,
			".psd": true, ".blend": true, ".fbx": true, ".obj": true,
			".wav": true, ".ogg": true, ".mp3": true, ".ttf": true,
			".uasset": true, ".umap": true, ".unity": true, ".pak": true,
			".dll": true, ".so": true, ".exe": true, ".bin": true,
		},
		TextExtensions: map[string]bool{
			".txt": true, ".md": true, ".json": true, ".yaml": true,
			".yml": true, ".xml": true, ".ini": true, ".cfg": true,
			".cs": true, ".cpp": true, ".h": true, ".go": true,
			".py": true, ".lua": true, ".gd": true, ".shader": true,
		},
	}
}

// --- Path helpers ---

// GetVaultDir returns the absolute path to the .gamevault directory for a
// given project root.
func GetVaultDir(baseDir string) string {
	return filepath.Join(baseDir, VaultDirName)
}

// GetFilesDir returns the path to the whole-file object namespace.
func GetFilesDir(baseDir string) string {
	return filepath.Join(GetVaultDir(baseDir), FilesDirName)
}

// GetChunksDir returns the path to the chunk object namespace.
func GetChunksDir(baseDir string) string {
	return filepath.Join(GetVaultDir(baseDir), ChunksDirName)
}

// GetVersionsDir returns the path to the version manifest directory.
func GetVersionsDir(baseDir string) string {
	return filepath.Join(GetVaultDir(baseDir), VersionsDirName)
}

// GetIndexDBPath returns the path to the version index database.
func GetIndexDBPath(baseDir string) string {
	return filepath.Join(GetVaultDir(baseDir), IndexDBName)
}

// VaultPaths holds the directory layout of an initialized vault.
type VaultPaths struct {
	VaultDir    string
	FilesDir    string
	ChunksDir   string
	VersionsDir string
}

// EnsureVaultDirs creates the vault directory layout if needed. It is
// idempotent.
func EnsureVaultDirs(baseDir string) (VaultPaths, error) {
	paths := VaultPaths{
		VaultDir:    GetVaultDir(baseDir),
		FilesDir:    GetFilesDir(baseDir),
		ChunksDir:   GetChunksDir(baseDir),
		VersionsDir: GetVersionsDir(baseDir),
	}
	for _, dir := range []string{paths.FilesDir, paths.ChunksDir, paths.VersionsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return VaultPaths{}, err
		}
	}
	return paths, nil
}

// --- Ignore handling ---

// defaultIgnorePatterns are always in effect, independent of .gvignore.
var defaultIgnorePatterns = []string{
	".git/**",
	VaultDirName + "/**",
	IgnoreFilename,
}

var (
	// ignoreCache maps a canonical project root to its compiled matcher.
	// The gitignore library is not safe for concurrent use, so all
	// access is serialized.
	ignoreCache = make(map[string]gitignore.GitIgnore)
	ignoreMutex sync.Mutex
)

// IsPathIgnored reports whether path (inside baseDir) is excluded from
// backups by the default patterns or the project's .gvignore.
func IsPathIgnored(baseDir, path string) bool {
	ignoreMutex.Lock()
	defer ignoreMutex.Unlock()

	canonicalBase, err := filepath.EvalSymlinks(baseDir)
	if err != nil {
		canonicalBase = baseDir
	}

	matcher, ok := ignoreCache[canonicalBase]
	if !ok {
		matcher = loadIgnoreMatcher(canonicalBase)
		ignoreCache[canonicalBase] = matcher
	}

	canonicalPath, err := filepath.EvalSymlinks(path)
	if err != nil {
		canonicalPath = path
	}

	relativePath, err := filepath.Rel(canonicalBase, canonicalPath)
	if err != nil {
		return false
	}

	match := matcher.Match(filepath.ToSlash(relativePath))
	if match == nil {
		match = matcher.Match(canonicalPath)
	}
	if match == nil {
		return false
	}
	return match.Ignore()
}

// loadIgnoreMatcher compiles the default patterns plus the project's
// .gvignore into a single matcher.
func loadIgnoreMatcher(baseDir string) gitignore.GitIgnore {
	rawPatterns := make([]string, len(defaultIgnorePatterns))
	copy(rawPatterns, defaultIgnorePatterns)

	ignoreFilePath := filepath.Join(baseDir, IgnoreFilename)
	if content, err := os.ReadFile(ignoreFilePath); err == nil {
		rawPatterns = append(rawPatterns, strings.Split(string(content), "\n")...)
	}

	var finalPatterns []string
	for _, p := range rawPatterns {
		trimmed := strings.TrimSpace(p)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		trimmed = strings.ReplaceAll(trimmed, "\\", "/")
		// Directory patterns need a glob suffix for the gitignore library.
		if strings.HasSuffix(trimmed, "/") && !strings.HasSuffix(trimmed, "**/") {
			trimmed = trimmed + "**"
		}
		finalPatterns = append(finalPatterns, trimmed)
	}

	matcher := gitignore.New(
		strings.NewReader(strings.Join(finalPatterns, "\n")),
		baseDir,
		func(err gitignore.Error) bool { return false },
	)
	if matcher == nil {
		return gitignore.New(strings.NewReader(""), "", nil)
	}
	return matcher
}

// ResetIgnoreState clears the ignore cache. Used by tests that reuse
// temp directories.
func ResetIgnoreState() {
	ignoreMutex.Lock()
	defer ignoreMutex.Unlock()
	ignoreCache = make(map[string]gitignore.GitIgnore)
}
