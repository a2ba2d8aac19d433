package updater

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/caedis/deltaplan/internal/config"
	"github.com/caedis/deltaplan/internal/feed"
	"github.com/caedis/deltaplan/internal/logging"
	"github.com/caedis/deltaplan/internal/semver"
)

// Init records version as the installed release of packageDir, using the full
// entry for that version from the feed.
func Init(ctx context.Context, packageDir, source, version string) error {
	packageDir = strings.TrimSpace(packageDir)
	source = strings.TrimSpace(source)
	if packageDir == "" {
		return errors.New("package directory is empty")
	}
	if source == "" {
		return errors.New("no feed configured - pass --feed")
	}

	v, err := semver.Parse(version)
	if err != nil {
		return err
	}

	catalog, err := loadCatalog(ctx, source)
	if err != nil {
		return err
	}
	installed, ok := feed.FindFull(catalog, v)
	if !ok {
		return fmt.Errorf("feed has no full release for version %s", v)
	}

	state, err := config.LoadOrEmpty(packageDir)
	if err != nil {
		return err
	}
	state.Feed = source
	state.Release = &installed
	if err := state.Save(packageDir); err != nil {
		return err
	}

	logging.Infof("Tracking %s as installed in %s\n", installed, packageDir)
	return nil
}
