package ics

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	appLog "wedpage/internal/log"
)

// Source is one programme source: either an ICS subscription URL or a local
// .ics file shipped next to the config.
type Source struct {
	// ID is an internal identifier used for de-dup and logging.
	ID string
	// Name is a human-friendly label shown on the page.
	Name string
	// Location is an http(s) URL or a filesystem path.
	Location string
}

// FetchResult contains the outcome of fetching a single source.
type FetchResult struct {
	Source    Source
	Body      []byte
	FromCache bool // true if we reused the cached body due to a 304
}

// cacheEntry holds HTTP cache metadata for a single source URL.
type cacheEntry struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Fetcher loads programme sources. Remote sources are fetched with
// ETag / Last-Modified conditional requests backed by a small disk cache,
// so repeated page starts do not re-download an unchanged invite.
type Fetcher struct {
	client   *http.Client
	cacheDir string
}

// NewFetcher creates a Fetcher caching under cacheDir (a relative fallback
// is used when empty so development runs without special permissions).
func NewFetcher(cacheDir string) *Fetcher {
	if cacheDir == "" {
		cacheDir = "./var/ics-cache"
	}
	return &Fetcher{
		client:   &http.Client{Timeout: 15 * time.Second},
		cacheDir: cacheDir,
	}
}

// FetchAll fetches every source, logging and collecting per-source errors.
// The result slice only contains sources that produced a body.
func (f *Fetcher) FetchAll(ctx context.Context, sources []Source) ([]FetchResult, []error) {
	results := make([]FetchResult, 0, len(sources))
	errs := make([]error, 0)

	for _, src := range sources {
		res, err := f.FetchOne(ctx, src)
		if err != nil {
			errs = append(errs, err)
			appLog.Error("programme fetch failed", err, "id", src.ID, "location", redactLocation(src.Location))
			continue
		}
		results = append(results, res)
	}

	return results, errs
}

// FetchOne loads a single source. Local paths are read directly; URLs go
// through the conditional-request cache.
func (f *Fetcher) FetchOne(ctx context.Context, src Source) (FetchResult, error) {
	if src.Location == "" {
		return FetchResult{}, errors.New("source location is empty")
	}

	if !isRemote(src.Location) {
		body, err := os.ReadFile(src.Location)
		if err != nil {
			return FetchResult{}, err
		}
		return FetchResult{Source: src, Body: body}, nil
	}

	return f.fetchRemote(ctx, src)
}

func (f *Fetcher) fetchRemote(ctx context.Context, src Source) (FetchResult, error) {
	cachePath, err := f.cachePathForURL(src.Location)
	if err != nil {
		return FetchResult{}, err
	}
	if err := os.MkdirAll(cachePath, 0o700); err != nil {
		return FetchResult{}, err
	}

	meta, _ := loadCacheMeta(cachePath)
	cachedBody, _ := os.ReadFile(filepath.Join(cachePath, "body.ics"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.Location, nil)
	if err != nil {
		return FetchResult{}, err
	}
	if meta.ETag != "" {
		req.Header.Set("If-None-Match", meta.ETag)
	}
	if meta.LastModified != "" {
		req.Header.Set("If-Modified-Since", meta.LastModified)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		// Offline start: fall back to the cached body when we have one.
		if len(cachedBody) > 0 {
			appLog.Warn("programme fetch failed, using cached copy", "id", src.ID, "reason", err)
			return FetchResult{Source: src, Body: cachedBody, FromCache: true}, nil
		}
		return FetchResult{}, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotModified && len(cachedBody) > 0:
		return FetchResult{Source: src, Body: cachedBody, FromCache: true}, nil

	case resp.StatusCode == http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return FetchResult{}, err
		}
		meta = cacheEntry{
			URL:          src.Location,
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
			UpdatedAt:    time.Now(),
		}
		// Cache write failures are non-fatal; next start just refetches.
		if err := os.WriteFile(filepath.Join(cachePath, "body.ics"), body, 0o600); err == nil {
			if data, merr := json.Marshal(meta); merr == nil {
				_ = os.WriteFile(filepath.Join(cachePath, "meta.json"), data, 0o600)
			}
		}
		return FetchResult{Source: src, Body: body}, nil

	default:
		return FetchResult{}, errors.New("unexpected HTTP status " + resp.Status)
	}
}

func (f *Fetcher) cachePathForURL(raw string) (string, error) {
	sum := sha256.Sum256([]byte(raw))
	return filepath.Join(f.cacheDir, hex.EncodeToString(sum[:8])), nil
}

func loadCacheMeta(cachePath string) (cacheEntry, error) {
	var meta cacheEntry
	data, err := os.ReadFile(filepath.Join(cachePath, "meta.json"))
	if err != nil {
		return meta, err
	}
	err = json.Unmarshal(data, &meta)
	return meta, err
}

func isRemote(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

// redactLocation strips query strings from URLs before logging; private
// calendar links often carry tokens there.
func redactLocation(location string) string {
	if !isRemote(location) {
		return location
	}
	u, err := url.Parse(location)
	if err != nil {
		return "(unparseable url)"
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}
