package auth

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/AzureAD/microsoft-authentication-library-for-go/apps/cache"
)

// FileCache persists the serialized token cache to a single local file so
// sign-ins survive process restarts. Implements cache.ExportReplace.
//
// A missing or unreadable cache file is not an error; the next sign-in
// simply starts fresh.
type FileCache struct {
	mu   sync.Mutex
	path string
}

// NewFileCache creates a file-backed token cache at the given path.
func NewFileCache(path string) *FileCache {
	return &FileCache{path: path}
}

// DefaultCachePath returns the per-user default token cache location.
func DefaultCachePath() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("resolve user cache dir: %w", err)
	}
	return filepath.Join(dir, "draftsync", "token_cache.json"), nil
}

// Replace loads the persisted cache into the token library before it reads.
func (c *FileCache) Replace(ctx context.Context, u cache.Unmarshaler, hints cache.ReplaceHints) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.path)
	if err != nil {
		// Missing cache means first run
		return nil
	}
	if err := u.Unmarshal(data); err != nil {
		// Corrupt cache is discarded; a fresh sign-in rebuilds it
		return nil
	}
	return nil
}

// Export writes the serialized cache back to disk after the library updates
// it. The file is restricted to the current user.
func (c *FileCache) Export(ctx context.Context, m cache.Marshaler, hints cache.ExportHints) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := m.Marshal()
	if err != nil {
		return fmt.Errorf("serialize token cache: %w", err)
	}

	if dir := filepath.Dir(c.path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("create token cache dir: %w", err)
		}
	}
	if err := os.WriteFile(c.path, data, 0600); err != nil {
		return fmt.Errorf("write token cache: %w", err)
	}
	return nil
}

// Path returns the cache file location.
func (c *FileCache) Path() string {
	return c.path
}
