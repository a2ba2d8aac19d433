package updater

import (
	"archive/zip"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/caedis/deltaplan/internal/feed"
	"github.com/stretchr/testify/require"
)

func writeFeed(t *testing.T, dir string, releases ...feed.ManifestEntry) string {
	t.Helper()
	path := filepath.Join(dir, "releases.json")
	data, err := json.Marshal(feed.Manifest{App: "app", Releases: releases})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func writePackage(t *testing.T, dir, filename, notes string) {
	t.Helper()
	f, err := os.Create(filepath.Join(dir, filename))
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	w, err := zw.Create("app.nuspec")
	require.NoError(t, err)
	_, err = w.Write([]byte(`<package><metadata><id>app</id><releaseNotes>` + notes + `</releaseNotes></metadata></package>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
}

func standardFeed(t *testing.T, dir string) string {
	t.Helper()
	return writeFeed(t, dir,
		feed.ManifestEntry{Version: "1.0.0", Filename: "app-1.0.0-full.nupkg", Size: 1000},
		feed.ManifestEntry{Version: "1.1.0", Filename: "app-1.1.0-delta.nupkg", Size: 20, Delta: true},
		feed.ManifestEntry{Version: "1.1.0", Filename: "app-1.1.0-full.nupkg", Size: 1000},
		feed.ManifestEntry{Version: "1.2.0", Filename: "app-1.2.0-delta.nupkg", Size: 30, Delta: true},
		feed.ManifestEntry{Version: "1.2.0", Filename: "app-1.2.0-full.nupkg", Size: 1100},
	)
}

func feedEntry(version string, delta bool) feed.ManifestEntry {
	kind := "full"
	if delta {
		kind = "delta"
	}
	return feed.ManifestEntry{Version: version, Filename: "app-" + version + "-" + kind + ".nupkg", Size: 10, Delta: delta}
}
