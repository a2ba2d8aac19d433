package notes

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/caedis/deltaplan/internal/release"
)

// ErrNoReleaseNotes is returned when a package carries no release notes.
var ErrNoReleaseNotes = errors.New("package has no release notes")

// ArchiveSource reads release notes from the package manifest (.nuspec) stored
// at the root of each package archive in the package directory.
type ArchiveSource struct {
	Render RenderOptions
}

type nuspec struct {
	XMLName  xml.Name `xml:"package"`
	Metadata struct {
		ID           string `xml:"id"`
		Version      string `xml:"version"`
		ReleaseNotes string `xml:"releaseNotes"`
	} `xml:"metadata"`
}

func (s *ArchiveSource) ReleaseNotes(ctx context.Context, e release.Entry, packageDir string, format release.NotesFormat) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	md, err := readPackageNotes(filepath.Join(packageDir, e.Filename))
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return Render(md, format, s.Render)
}

func readPackageNotes(pkgPath string) (string, error) {
	zr, err := zip.OpenReader(pkgPath)
	if err != nil {
		return "", fmt.Errorf("opening package %s: %w", filepath.Base(pkgPath), err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if strings.Contains(f.Name, "/") || !strings.EqualFold(path.Ext(f.Name), ".nuspec") {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("opening %s: %w", f.Name, err)
		}
		var manifest nuspec
		err = xml.NewDecoder(rc).Decode(&manifest)
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("parsing %s: %w", f.Name, err)
		}

		notes := strings.TrimSpace(manifest.Metadata.ReleaseNotes)
		if notes == "" {
			return "", fmt.Errorf("%s: %w", filepath.Base(pkgPath), ErrNoReleaseNotes)
		}
		return notes, nil
	}
	return "", fmt.Errorf("%s: no .nuspec manifest in package", filepath.Base(pkgPath))
}
