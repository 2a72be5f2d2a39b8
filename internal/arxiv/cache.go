package arxiv

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	cacheSubdir         = "paperdistill/pdfs"
	defaultCacheTTL     = 24 * time.Hour
	partialSuffix       = ".part"
	metaSuffix          = ".meta"
	defaultPDFHTTPLimit = 90 * time.Second
)

// pdfCache keeps downloaded PDFs on disk, revalidating stale copies with
// ETag/Last-Modified and resuming interrupted downloads with Range requests.
type pdfCache struct {
	dir    string
	ttl    time.Duration
	client *http.Client
}

type pdfCacheMeta struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag"`
	LastModified string    `json:"lastModified"`
	CachedAt     time.Time `json:"cachedAt"`
	Size         int64     `json:"size"`
}

func newPDFCache(dir string, ttl time.Duration, client *http.Client) (*pdfCache, error) {
	if dir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			base = filepath.Join(os.TempDir(), "paperdistill-cache")
		}
		dir = filepath.Join(base, cacheSubdir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	if client == nil {
		client = &http.Client{Timeout: defaultPDFHTTPLimit}
	}
	return &pdfCache{dir: dir, ttl: ttl, client: client}, nil
}

// Fetch returns a local path for pdfURL, downloading it when missing or stale.
// A stale copy is served when revalidation fails.
func (c *pdfCache) Fetch(ctx context.Context, pdfURL string) (string, error) {
	paths := c.pathsFor(cacheKey(pdfURL))

	if info, err := os.Stat(paths.pdf); err == nil && time.Since(info.ModTime()) < c.ttl && info.Size() > 0 {
		return paths.pdf, nil
	}

	meta, _ := readMeta(paths.meta)
	current, _ := os.Stat(paths.pdf)
	path, err := c.download(ctx, pdfURL, paths, meta, current)
	if err == nil {
		return path, nil
	}
	if current != nil && current.Size() > 0 {
		return paths.pdf, nil
	}
	return "", err
}

type cachePaths struct {
	pdf     string
	meta    string
	partial string
}

func (c *pdfCache) download(ctx context.Context, pdfURL string, paths cachePaths, meta pdfCacheMeta, current os.FileInfo) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pdfURL, nil)
	if err != nil {
		return "", err
	}
	if current != nil && current.Size() > 0 {
		if meta.ETag != "" {
			req.Header.Set("If-None-Match", meta.ETag)
		}
		if meta.LastModified != "" {
			req.Header.Set("If-Modified-Since", meta.LastModified)
		}
	}

	var partialSize int64
	if info, err := os.Stat(paths.partial); err == nil && info.Size() > 0 {
		partialSize = info.Size()
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", partialSize))
		if meta.ETag != "" {
			req.Header.Set("If-Range", meta.ETag)
		} else if meta.LastModified != "" {
			req.Header.Set("If-Range", meta.LastModified)
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNotModified:
		if current != nil && current.Size() > 0 {
			meta.CachedAt = time.Now().UTC()
			now := time.Now()
			_ = os.Chtimes(paths.pdf, now, now)
			_ = writeMeta(paths.meta, meta)
			return paths.pdf, nil
		}
		return c.download(ctx, pdfURL, paths, pdfCacheMeta{}, nil)
	case http.StatusOK:
		return c.saveBody(resp, paths, false)
	case http.StatusPartialContent:
		return c.saveBody(resp, paths, partialSize > 0)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("pdf download failed: %s (%s)", resp.Status, string(body))
	}
}

func (c *pdfCache) saveBody(resp *http.Response, paths cachePaths, appendExisting bool) (string, error) {
	flags := os.O_CREATE | os.O_WRONLY
	if appendExisting {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	file, err := os.OpenFile(paths.partial, flags, 0o644)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(file, resp.Body); err != nil {
		file.Close()
		return "", err
	}
	if err := file.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(paths.partial, paths.pdf); err != nil {
		return "", err
	}

	meta := pdfCacheMeta{
		URL:          resp.Request.URL.String(),
		ETag:         resp.Header.Get("Etag"),
		LastModified: resp.Header.Get("Last-Modified"),
		CachedAt:     time.Now().UTC(),
	}
	if info, err := os.Stat(paths.pdf); err == nil {
		meta.Size = info.Size()
	}
	if err := writeMeta(paths.meta, meta); err != nil {
		return "", err
	}
	return paths.pdf, nil
}

func (c *pdfCache) pathsFor(key string) cachePaths {
	return cachePaths{
		pdf:     filepath.Join(c.dir, key+".pdf"),
		meta:    filepath.Join(c.dir, key+metaSuffix),
		partial: filepath.Join(c.dir, key+partialSuffix),
	}
}

func cacheKey(pdfURL string) string {
	if id := ExtractIdentifier(pdfURL); id != "" {
		return sanitizeKey(id)
	}
	sum := sha1.Sum([]byte(pdfURL))
	return hex.EncodeToString(sum[:])
}

func sanitizeKey(value string) string {
	value = strings.TrimSpace(value)
	value = strings.ReplaceAll(value, "/", "-")
	value = strings.ReplaceAll(value, ":", "-")
	value = strings.ReplaceAll(value, "..", "-")
	return value
}

func readMeta(path string) (pdfCacheMeta, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return pdfCacheMeta{}, err
	}
	var meta pdfCacheMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return pdfCacheMeta{}, err
	}
	return meta, nil
}

func writeMeta(path string, meta pdfCacheMeta) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
