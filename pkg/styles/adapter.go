package styles

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
)

// Loader provides cached loading of style packs from a base directory.
// This adapter provides the interface needed by the dispatcher's
// named-style flow.
type Loader struct {
	baseDir string
	cache   map[string]*StylePack
	mu      sync.RWMutex
}

// NewLoader creates a style pack loader for the given base directory.
func NewLoader(baseDir string) *Loader {
	return &Loader{
		baseDir: baseDir,
		cache:   make(map[string]*StylePack),
	}
}

// Load loads a style pack by name from baseDir/<name>/style.yml.
// Results are cached for subsequent loads.
func (l *Loader) Load(name string) (*StylePack, error) {
	// Validate name to prevent path traversal attacks
	if strings.Contains(name, "..") || strings.Contains(name, "/") || strings.Contains(name, "\\") {
		return nil, fmt.Errorf("invalid style name: %s", name)
	}

	// Check cache with read lock
	l.mu.RLock()
	if pack, ok := l.cache[name]; ok {
		l.mu.RUnlock()
		return pack, nil
	}
	l.mu.RUnlock()

	// Load from disk using secure path joining
	stylePath := filepath.Join(l.baseDir, name)
	pack, err := LoadStyleFromDirectory(stylePath)
	if err != nil {
		return nil, err
	}

	// Cache with write lock
	l.mu.Lock()
	l.cache[name] = pack
	l.mu.Unlock()

	return pack, nil
}
