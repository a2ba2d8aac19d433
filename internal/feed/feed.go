// Package feed loads the release catalog published by an update feed.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/caedis/deltaplan/internal/forge"
	"github.com/caedis/deltaplan/internal/logging"
	"github.com/caedis/deltaplan/internal/release"
	"github.com/caedis/deltaplan/internal/semver"
)

// ErrBadManifest marks a manifest whose entries cannot be turned into a catalog.
var ErrBadManifest = errors.New("bad release manifest")

const maxRetries = 3

var (
	httpClient = http.DefaultClient
	retryDelay = 2 * time.Second
)

type Manifest struct {
	App      string          `json:"app"`
	Releases []ManifestEntry `json:"releases"`
}

type ManifestEntry struct {
	Version  string `json:"version"`
	Package  string `json:"package,omitempty"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	Delta    bool   `json:"delta"`
	SHA1     string `json:"sha1,omitempty"`
}

// Entries converts the manifest into release entries, in manifest order.
func (m *Manifest) Entries() ([]release.Entry, error) {
	entries := make([]release.Entry, 0, len(m.Releases))
	for i, r := range m.Releases {
		v, err := semver.Parse(r.Version)
		if err != nil {
			return nil, fmt.Errorf("%w: release %d (%s): %v", ErrBadManifest, i, r.Filename, err)
		}
		if r.Size < 0 {
			return nil, fmt.Errorf("%w: release %d (%s): negative size %d", ErrBadManifest, i, r.Filename, r.Size)
		}
		if strings.TrimSpace(r.Filename) == "" {
			return nil, fmt.Errorf("%w: release %d: missing filename", ErrBadManifest, i)
		}
		pkg := r.Package
		if pkg == "" {
			pkg = m.App
		}
		entries = append(entries, release.Entry{
			Version:     v,
			PackageName: pkg,
			Filename:    r.Filename,
			Filesize:    r.Size,
			IsDelta:     r.Delta,
			SHA1:        r.SHA1,
		})
	}
	return entries, nil
}

// FindFull returns the full entry with exactly version v.
func FindFull(entries []release.Entry, v semver.Version) (release.Entry, bool) {
	for _, e := range entries {
		if !e.IsDelta && e.Version.Equal(v) {
			return e, true
		}
	}
	return release.Entry{}, false
}

// Load reads a manifest from an http(s) URL, a local file path, or a release
// host repository such as "github:owner/repo".
func Load(ctx context.Context, source string) (*Manifest, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, fmt.Errorf("no feed configured")
	}

	repo, ok, err := forge.ParseSource(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadManifest, err)
	}
	if ok {
		return loadForge(ctx, repo)
	}

	var data []byte
	if isURL(source) {
		data, err = fetchWithRetry(ctx, source)
	} else {
		logging.Debugf("Verbose: reading feed file %s\n", source)
		data, err = os.ReadFile(source)
	}
	if err != nil {
		return nil, fmt.Errorf("reading feed: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing feed: %w", err)
	}
	logging.Debugf("Verbose: loaded feed app=%q releases=%d\n", m.App, len(m.Releases))
	return &m, nil
}

func loadForge(ctx context.Context, repo forge.Source) (*Manifest, error) {
	logging.Debugf("Verbose: listing release packages from %s\n", repo)
	pkgs, err := repo.Packages(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading feed: %w", err)
	}

	m := &Manifest{App: repo.Repo, Releases: make([]ManifestEntry, 0, len(pkgs))}
	for _, p := range pkgs {
		m.Releases = append(m.Releases, ManifestEntry{
			Version:  p.Version,
			Package:  p.Name,
			Filename: p.Filename,
			Size:     p.Size,
			Delta:    p.Delta,
		})
	}
	logging.Debugf("Verbose: loaded feed app=%q releases=%d\n", m.App, len(m.Releases))
	return m, nil
}

func isURL(source string) bool {
	lower := strings.ToLower(source)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func fetchWithRetry(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			logging.Debugf("Verbose: retrying feed %s attempt=%d/%d\n", url, attempt+1, maxRetries)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * retryDelay):
			}
		}

		data, err := fetchOnce(ctx, url)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, lastErr
		}
		if attempt < maxRetries-1 {
			logging.Warnf("Fetching feed failed (attempt %d/%d): %v", attempt+1, maxRetries, err)
		}
	}
	return nil, lastErr
}

func fetchOnce(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: HTTP %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", url, err)
	}
	return data, nil
}
