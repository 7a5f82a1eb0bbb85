// Package cache memoizes posterior summaries so repeated reports over the same
// trace log skip reparsing it.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"time"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key joins the parts of a cache key and hashes them.
func Key(parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return "dravlex:v1:" + hex.EncodeToString(hash[:])
}

// FileKey derives a key from a file's identity (path, size, modification
// time) and extra parts such as the burn-in fraction and parameter. Editing
// or replacing the file changes the key.
func FileKey(path string, parts ...string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
	id := []string{path, fmt.Sprint(info.Size()), info.ModTime().UTC().Format(time.RFC3339Nano)}
	return Key(append(id, parts...)...), nil
}
