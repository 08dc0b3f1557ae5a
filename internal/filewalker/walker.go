package filewalker

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// Kind classifies a discovered file.
type Kind int

const (
	KindTable Kind = iota
	KindPatch
	KindContainer
)

func (k Kind) String() string {
	switch k {
	case KindTable:
		return "table"
	case KindPatch:
		return "patch"
	case KindContainer:
		return "container"
	default:
		return "unknown"
	}
}

// ContainerExtension is the extension of IDCL resource archives.
const ContainerExtension = ".resources"

// Walker traverses directories looking for string tables, patches and
// resource containers.
type Walker struct {
	kinds map[string]Kind
}

// NewWalker creates a Walker. tableSuffix is the string table extension,
// normally ".blang".
func NewWalker(tableSuffix string) *Walker {
	return &Walker{
		kinds: map[string]Kind{
			strings.ToLower(tableSuffix): KindTable,
			".json":                      KindPatch,
			ContainerExtension:           KindContainer,
		},
	}
}

// FileEntry represents a discovered file ready for processing.
type FileEntry struct {
	Path string
	Ext  string
	Kind Kind
}

// Classify reports the kind of path, or false if the walker ignores it.
func (w *Walker) Classify(path string) (Kind, bool) {
	k, ok := w.kinds[strings.ToLower(filepath.Ext(path))]
	return k, ok
}

// Walk discovers all supported files under the given root directory.
// Only the listed kinds are returned; no kinds means all of them.
func (w *Walker) Walk(root string, kinds ...Kind) ([]FileEntry, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root path: %w", err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root is not a directory: %s", root)
	}

	want := func(k Kind) bool {
		if len(kinds) == 0 {
			return true
		}
		for _, w := range kinds {
			if w == k {
				return true
			}
		}
		return false
	}

	var entries []FileEntry

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Error walking path")
			return nil
		}
		if d.IsDir() {
			return nil
		}

		kind, ok := w.Classify(path)
		if !ok || !want(kind) {
			return nil
		}
		entries = append(entries, FileEntry{
			Path: path,
			Ext:  strings.ToLower(filepath.Ext(path)),
			Kind: kind,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}

	log.Info().Int("count", len(entries)).Str("root", root).Msg("Discovered files")
	return entries, nil
}
