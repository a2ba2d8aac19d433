package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caedis/deltaplan/internal/plan"
	"github.com/caedis/deltaplan/internal/release"
)

const StateFile = ".deltaplan.json"

// ErrNoState is returned by Load when the package directory has no state
// file, which means nothing has been installed yet.
var ErrNoState = errors.New("no " + StateFile + " found")

type LocalState struct {
	Feed      string         `json:"feed,omitempty"`
	Release   *release.Entry `json:"installed,omitempty"`
	CheckedAt time.Time      `json:"checked_at,omitzero"`
}

// Installed returns the installed release as a plan option.
func (s *LocalState) Installed() plan.Installed {
	if s == nil || s.Release == nil {
		return plan.None()
	}
	return plan.Some(*s.Release)
}

// Load reads the local state from the package directory.
func Load(packageDir string) (*LocalState, error) {
	path := filepath.Join(packageDir, StateFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w in %s - run 'init' first or treat as fresh install", ErrNoState, packageDir)
		}
		return nil, fmt.Errorf("reading state: %w", err)
	}

	var state LocalState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parsing state: %w", err)
	}
	return &state, nil
}

// LoadOrEmpty is like Load but returns an empty state when none exists yet.
func LoadOrEmpty(packageDir string) (*LocalState, error) {
	state, err := Load(packageDir)
	if errors.Is(err, ErrNoState) {
		return &LocalState{}, nil
	}
	return state, err
}

// Save writes the local state to the package directory.
func (s *LocalState) Save(packageDir string) error {
	if err := os.MkdirAll(packageDir, 0o755); err != nil {
		return fmt.Errorf("creating package directory: %w", err)
	}
	path := filepath.Join(packageDir, StateFile)

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling state: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing state: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("writing state: %w", err)
	}
	return nil
}
