package forge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestParsePackageFilename(t *testing.T) {
	tests := []struct {
		name  string
		want  Package
		valid bool
	}{
		{name: "MyApp-1.2.0-full.nupkg", want: Package{Name: "MyApp", Version: "1.2.0", Filename: "MyApp-1.2.0-full.nupkg"}, valid: true},
		{name: "MyApp-1.2.0-delta.nupkg", want: Package{Name: "MyApp", Version: "1.2.0", Filename: "MyApp-1.2.0-delta.nupkg", Delta: true}, valid: true},
		{name: "My-App-2.0.0-beta.1-full.nupkg", want: Package{Name: "My-App", Version: "2.0.0-beta.1", Filename: "My-App-2.0.0-beta.1-full.nupkg"}, valid: true},
		{name: "MyApp-1.2.0-FULL.NUPKG", want: Package{Name: "MyApp", Version: "1.2.0", Filename: "MyApp-1.2.0-FULL.NUPKG"}, valid: true},
		{name: "ȺȺȺ-1.0.0-full.nupkg", want: Package{Name: "ȺȺȺ", Version: "1.0.0", Filename: "ȺȺȺ-1.0.0-full.nupkg"}, valid: true},
		{name: strings.Repeat("Ⱥ", 7) + "-1.0.0-full.nupkg", want: Package{Name: strings.Repeat("Ⱥ", 7), Version: "1.0.0", Filename: strings.Repeat("Ⱥ", 7) + "-1.0.0-full.nupkg"}, valid: true},
		{name: "Ⱥpp-1.0.0-fullȺ.nupkg"},
		{name: "MyApp-1.2.0.nupkg"},
		{name: "MyAppSetup.exe"},
		{name: "RELEASES"},
		{name: "-1.0.0-full.nupkg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParsePackageFilename(tt.name)
			if ok != tt.valid {
				t.Fatalf("ParsePackageFilename(%q) ok=%t want=%t", tt.name, ok, tt.valid)
			}
			if ok && got != tt.want {
				t.Fatalf("ParsePackageFilename(%q)=%+v want=%+v", tt.name, got, tt.want)
			}
		})
	}
}

func TestParseSource(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "gh-token")
	t.Setenv("GITEA_TOKEN", "")

	src, ok, err := ParseSource("github:owner/repo")
	if err != nil || !ok {
		t.Fatalf("ParseSource github: ok=%t err=%v", ok, err)
	}
	if src.API != githubAPI || src.Owner != "owner" || src.Repo != "repo" || src.Token != "gh-token" {
		t.Fatalf("unexpected github source: %+v", src)
	}

	src, ok, err = ParseSource("gitea:https://git.example.test/team/app.git")
	if err != nil || !ok {
		t.Fatalf("ParseSource gitea: ok=%t err=%v", ok, err)
	}
	if src.API != "https://git.example.test/api/v1" || src.Owner != "team" || src.Repo != "app" {
		t.Fatalf("unexpected gitea source: %+v", src)
	}

	for _, s := range []string{"https://example.test/releases.json", "releases.json", `C:\feeds\releases.json`} {
		if _, ok, err := ParseSource(s); ok || err != nil {
			t.Fatalf("ParseSource(%q) should not be a release host: ok=%t err=%v", s, ok, err)
		}
	}

	if _, ok, err := ParseSource("github:just-owner"); !ok || err == nil {
		t.Fatalf("malformed github source should be recognised and rejected: ok=%t err=%v", ok, err)
	}
}

func TestPackages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/repos/team/app/releases" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("per_page"); got != "25" {
			t.Errorf("unexpected per_page query: %s", got)
		}
		if got := r.Header.Get("Authorization"); got != "token test-token" {
			t.Errorf("unexpected Authorization header: %q", got)
		}

		releases := []Release{
			{TagName: "1.2.0", Assets: []ReleaseAsset{
				{Name: "App-1.2.0-full.nupkg", Size: 1000},
				{Name: "App-1.2.0-delta.nupkg", Size: 40},
				{Name: "AppSetup.exe", Size: 5000},
			}},
			{TagName: "1.3.0-rc.1", Prerelease: true, Assets: []ReleaseAsset{
				{Name: "App-1.3.0-rc.1-full.nupkg", Size: 1000},
			}},
			{TagName: "2.0.0", Draft: true, Assets: []ReleaseAsset{
				{Name: "App-2.0.0-full.nupkg", Size: 1000},
			}},
		}
		if err := json.NewEncoder(w).Encode(releases); err != nil {
			t.Errorf("encoding response: %v", err)
		}
	}))
	defer server.Close()

	src := Source{Kind: Gitea, API: server.URL + "/api/v1", Owner: "team", Repo: "app", Token: "test-token"}
	pkgs, err := src.Packages(context.Background())
	if err != nil {
		t.Fatalf("Packages failed: %v", err)
	}
	if len(pkgs) != 2 {
		t.Fatalf("got %d packages, want 2: %+v", len(pkgs), pkgs)
	}
	if pkgs[0].Size != 1000 || pkgs[0].Delta || pkgs[1].Size != 40 || !pkgs[1].Delta {
		t.Fatalf("unexpected packages: %+v", pkgs)
	}

	src.Prerelease = true
	pkgs, err = src.Packages(context.Background())
	if err != nil {
		t.Fatalf("Packages with prereleases failed: %v", err)
	}
	if len(pkgs) != 3 || pkgs[0].Version != "1.3.0-rc.1" {
		t.Fatalf("prerelease package missing: %+v", pkgs)
	}
}

func TestPackagesGitHubHost(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/owner/repo/releases" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode([]Release{{TagName: "1.0.0", Assets: []ReleaseAsset{{Name: "App-1.0.0-full.nupkg", Size: 10}}}})
	}))
	defer server.Close()

	parsed, err := url.Parse(server.URL)
	if err != nil {
		t.Fatalf("url.Parse failed: %v", err)
	}

	oldClient := forgeHTTPClient
	forgeHTTPClient = &http.Client{
		Transport: &rewriteHostTransport{
			host: parsed.Host,
			rt:   server.Client().Transport,
		},
	}
	t.Cleanup(func() { forgeHTTPClient = oldClient })

	t.Setenv("GITHUB_TOKEN", "")
	src, _, err := ParseSource("github:owner/repo")
	if err != nil {
		t.Fatal(err)
	}
	pkgs, err := src.Packages(context.Background())
	if err != nil {
		t.Fatalf("Packages failed: %v", err)
	}
	if len(pkgs) != 1 || pkgs[0].Name != "App" {
		t.Fatalf("unexpected packages: %+v", pkgs)
	}
}

func TestPackagesOrderedByTag(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]Release{
			{TagName: "nightly", Assets: []ReleaseAsset{{Name: "App-0.9.0-full.nupkg", Size: 5}}},
			{TagName: "1.0.0", Assets: []ReleaseAsset{{Name: "App-1.0.0-full.nupkg", Size: 10}}},
			{TagName: "v1.10.0", Assets: []ReleaseAsset{{Name: "App-1.10.0-full.nupkg", Size: 30}}},
			{TagName: "1.9.0", Assets: []ReleaseAsset{{Name: "App-1.9.0-full.nupkg", Size: 20}}},
		})
	}))
	defer server.Close()

	src := Source{Kind: Gitea, API: server.URL, Owner: "o", Repo: "r"}
	pkgs, err := src.Packages(context.Background())
	if err != nil {
		t.Fatalf("Packages failed: %v", err)
	}

	var got []string
	for _, p := range pkgs {
		got = append(got, p.Version)
	}
	want := []string{"1.10.0", "1.9.0", "1.0.0", "0.9.0"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("package order=%v want=%v", got, want)
	}
}

func TestPackagesNoAssets(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]Release{{TagName: "1.0.0"}})
	}))
	defer server.Close()

	src := Source{Kind: Gitea, API: server.URL, Owner: "o", Repo: "r"}
	if _, err := src.Packages(context.Background()); err == nil {
		t.Fatalf("expected error when no packages are attached")
	}
}

func TestPackagesHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	src := Source{Kind: Gitea, API: server.URL, Owner: "o", Repo: "r"}
	if _, err := src.Packages(context.Background()); err == nil {
		t.Fatalf("expected error for HTTP 404")
	}
}

type rewriteHostTransport struct {
	host string
	rt   http.RoundTripper
}

func (t *rewriteHostTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	cloned := req.Clone(req.Context())
	cloned.URL.Scheme = "http"
	cloned.URL.Host = t.host
	return t.rt.RoundTrip(cloned)
}
