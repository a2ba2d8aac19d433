// Package forge builds a release catalog from the packages attached to
// GitHub or Gitea releases.
package forge

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path"
	"slices"
	"strings"

	"github.com/caedis/deltaplan/internal/semver"
)

// Kind identifies the release host API.
type Kind string

const (
	GitHub Kind = "github"
	Gitea  Kind = "gitea"
)

const (
	releasesPerPage = 25
	githubAPI       = "https://api.github.com"
	packageExt      = ".nupkg"
)

var forgeHTTPClient = http.DefaultClient

// Release is the subset of the releases API response we need. Gitea serves
// the same shape as GitHub.
type Release struct {
	TagName    string         `json:"tag_name"`
	Draft      bool           `json:"draft"`
	Prerelease bool           `json:"prerelease"`
	Assets     []ReleaseAsset `json:"assets"`
}

type ReleaseAsset struct {
	Name               string `json:"name"`
	Size               int64  `json:"size"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

// Package is a release package found among the assets.
type Package struct {
	Name     string
	Version  string
	Filename string
	Size     int64
	Delta    bool
}

// Source is a repository on a release host.
type Source struct {
	Kind  Kind
	API   string // base API URL, without trailing slash
	Owner string
	Repo  string
	Token string
	// Prerelease includes releases flagged as pre-releases.
	Prerelease bool
}

// ParseSource recognises "github:owner/repo" and
// "gitea:https://host/owner/repo". ok is false for anything else, e.g. a
// plain feed URL or file path.
func ParseSource(s string) (src Source, ok bool, err error) {
	scheme, rest, found := strings.Cut(strings.TrimSpace(s), ":")
	if !found {
		return Source{}, false, nil
	}

	switch Kind(strings.ToLower(scheme)) {
	case GitHub:
		owner, repo, err := splitRepo(rest)
		if err != nil {
			return Source{}, true, err
		}
		return Source{Kind: GitHub, API: githubAPI, Owner: owner, Repo: repo, Token: os.Getenv("GITHUB_TOKEN")}, true, nil
	case Gitea:
		u, err := url.Parse(rest)
		if err != nil || u.Host == "" {
			return Source{}, true, fmt.Errorf("invalid gitea repository URL %q", rest)
		}
		owner, repo, err := splitRepo(u.Path)
		if err != nil {
			return Source{}, true, err
		}
		api := u.Scheme + "://" + u.Host + "/api/v1"
		return Source{Kind: Gitea, API: api, Owner: owner, Repo: repo, Token: os.Getenv("GITEA_TOKEN")}, true, nil
	}
	return Source{}, false, nil
}

func splitRepo(p string) (owner, repo string, err error) {
	parts := strings.Split(strings.Trim(p, "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("repository %q should be in the format owner/repo", p)
	}
	return parts[0], strings.TrimSuffix(parts[1], ".git"), nil
}

func (s Source) String() string {
	return fmt.Sprintf("%s:%s/%s", s.Kind, s.Owner, s.Repo)
}

// Packages lists the release packages attached to recent releases, highest
// release tag first; tags that are not versions come last. Drafts are skipped, and so are pre-releases unless
// s.Prerelease is set.
func (s Source) Packages(ctx context.Context) ([]Package, error) {
	apiURL := fmt.Sprintf("%s/repos/%s/%s/releases?per_page=%d", s.API, s.Owner, s.Repo, releasesPerPage)
	releases, err := fetchReleases(ctx, apiURL, s.Token)
	if err != nil {
		return nil, fmt.Errorf("repo %s: %w", s, err)
	}
	slices.SortStableFunc(releases, func(a, b Release) int {
		return semver.Compare(strings.TrimSpace(b.TagName), strings.TrimSpace(a.TagName))
	})

	var pkgs []Package
	for _, rel := range releases {
		if rel.Draft || (rel.Prerelease && !s.Prerelease) {
			continue
		}
		for _, asset := range rel.Assets {
			pkg, ok := ParsePackageFilename(asset.Name)
			if !ok {
				continue
			}
			pkg.Size = asset.Size
			pkgs = append(pkgs, pkg)
		}
	}
	if len(pkgs) == 0 {
		return nil, fmt.Errorf("repo %s: no %s assets found in recent releases", s, packageExt)
	}
	return pkgs, nil
}

func fetchReleases(ctx context.Context, apiURL, token string) ([]Release, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "token "+token)
	}

	resp, err := forgeHTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	var releases []Release
	if err := json.NewDecoder(resp.Body).Decode(&releases); err != nil {
		return nil, fmt.Errorf("decoding releases: %w", err)
	}
	return releases, nil
}

// ParsePackageFilename splits names like "MyApp-1.2.0-beta.1-delta.nupkg"
// into package name, version and kind. The version starts at the first
// hyphen after which the remainder parses as a version.
func ParsePackageFilename(name string) (Package, bool) {
	name = path.Base(strings.TrimSpace(name))
	stem, ok := cutSuffixFold(name, packageExt)
	if !ok {
		return Package{}, false
	}

	var delta bool
	if s, ok := cutSuffixFold(stem, "-delta"); ok {
		delta = true
		stem = s
	} else if s, ok := cutSuffixFold(stem, "-full"); ok {
		stem = s
	} else {
		return Package{}, false
	}

	for i := 0; i < len(stem); i++ {
		if stem[i] != '-' || i == 0 {
			continue
		}
		if _, err := semver.Parse(stem[i+1:]); err == nil {
			return Package{Name: stem[:i], Version: stem[i+1:], Filename: name, Delta: delta}, true
		}
	}
	return Package{}, false
}

// cutSuffixFold is strings.CutSuffix with case-insensitive matching. The
// suffix is compared on the original bytes so s is never re-sliced after a
// case conversion.
func cutSuffixFold(s, suffix string) (string, bool) {
	if len(s) < len(suffix) || !strings.EqualFold(s[len(s)-len(suffix):], suffix) {
		return s, false
	}
	return s[:len(s)-len(suffix)], true
}
