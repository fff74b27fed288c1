// Package cache is the on-disk, sharded HTTP response cache shared by
// every crawler: content keyed by sha256(url), with a JSON sidecar
// carrying the headers needed for conditional re-fetches.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/witto13/bess-crawler/internal/clerrors"
)

// Metadata is the JSON sidecar stored alongside cached content.
type Metadata struct {
	URL           string `json:"url"`
	CachedAt      string `json:"cached_at"`
	ContentLength int    `json:"content_length"`
	ETag          string `json:"etag,omitempty"`
	LastModified  string `json:"last_modified,omitempty"`
	ContentType   string `json:"content_type,omitempty"`
}

// Cache is a sharded on-disk content cache rooted at BasePath.
type Cache struct {
	BasePath string
}

func New(basePath string) *Cache {
	return &Cache{BasePath: basePath}
}

func urlHash(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}

func (c *Cache) paths(url string) (contentPath, metadataPath string) {
	hash := urlHash(url)
	dir := filepath.Join(c.BasePath, hash[:2])
	return filepath.Join(dir, hash+".bin"), filepath.Join(dir, hash+".meta.json")
}

// Get returns cached content and metadata if present and, when
// maxAge is non-zero, still fresh.
func (c *Cache) Get(url string, maxAge time.Duration) ([]byte, *Metadata, bool) {
	contentPath, metadataPath := c.paths(url)

	metaBytes, err := os.ReadFile(metadataPath)
	if err != nil {
		return nil, nil, false
	}
	var metadata Metadata
	if err := json.Unmarshal(metaBytes, &metadata); err != nil {
		return nil, nil, false
	}

	if maxAge > 0 {
		cachedAt, err := time.Parse(time.RFC3339, metadata.CachedAt)
		if err == nil && time.Since(cachedAt) > maxAge {
			return nil, nil, false
		}
	}

	content, err := os.ReadFile(contentPath)
	if err != nil {
		return nil, nil, false
	}
	return content, &metadata, true
}

// Set stores content and the conditional-request headers worth
// remembering (ETag, Last-Modified, Content-Type).
func (c *Cache) Set(url string, content []byte, etag, lastModified, contentType string) error {
	contentPath, metadataPath := c.paths(url)
	if err := os.MkdirAll(filepath.Dir(contentPath), 0o755); err != nil {
		return clerrors.FailedToWithDetails("create cache directory", "httpx/cache", url, err)
	}
	if err := os.WriteFile(contentPath, content, 0o644); err != nil {
		return clerrors.FailedToWithDetails("write cache content", "httpx/cache", url, err)
	}

	metadata := Metadata{
		URL:           url,
		CachedAt:      time.Now().UTC().Format(time.RFC3339),
		ContentLength: len(content),
		ETag:          etag,
		LastModified:  lastModified,
		ContentType:   contentType,
	}
	metaBytes, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return clerrors.FailedToWithDetails("marshal cache metadata", "httpx/cache", url, err)
	}
	if err := os.WriteFile(metadataPath, metaBytes, 0o644); err != nil {
		return clerrors.FailedToWithDetails("write cache metadata", "httpx/cache", url, err)
	}
	return nil
}

// ConditionalHeaders returns the If-None-Match/If-Modified-Since
// headers to attach to a re-fetch, built from whatever is cached.
func (c *Cache) ConditionalHeaders(url string) map[string]string {
	_, metadata, ok := c.Get(url, 0)
	if !ok {
		return nil
	}
	headers := make(map[string]string)
	if metadata.ETag != "" {
		headers["If-None-Match"] = metadata.ETag
	}
	if metadata.LastModified != "" {
		headers["If-Modified-Since"] = metadata.LastModified
	}
	return headers
}
