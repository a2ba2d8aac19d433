// Package semver provides the comparable version type used across release
// catalogs, plans and local state.
package semver

import (
	"encoding/json"
	"fmt"
	"strings"

	mver "github.com/Masterminds/semver/v3"
)

// Version is a parsed semantic version. It is held by value so that it can be
// compared with == and used inside map keys.
type Version struct {
	v mver.Version
}

// Parse parses a version string. Leading "v" prefixes and short forms such as
// "1.2" are accepted and normalized.
func Parse(s string) (Version, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Version{}, fmt.Errorf("parsing version: empty string")
	}
	parsed, err := mver.NewVersion(s)
	if err != nil {
		return Version{}, fmt.Errorf("parsing version %q: %w", s, err)
	}
	// Rebuild from components so the stored original text is canonical and
	// "v1.2" and "1.2.0" compare equal with ==.
	canonical := mver.New(parsed.Major(), parsed.Minor(), parsed.Patch(), parsed.Prerelease(), parsed.Metadata())
	return Version{v: *canonical}, nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Compare returns -1, 0 or +1. Build metadata does not take part in ordering.
func (v Version) Compare(o Version) int {
	return v.v.Compare(&o.v)
}

func (v Version) Equal(o Version) bool       { return v.Compare(o) == 0 }
func (v Version) LessThan(o Version) bool    { return v.Compare(o) < 0 }
func (v Version) GreaterThan(o Version) bool { return v.Compare(o) > 0 }

// IsPrerelease reports whether the version carries a pre-release suffix.
func (v Version) IsPrerelease() bool {
	return v.v.Prerelease() != ""
}

// HasMetadata reports whether the version carries build metadata.
func (v Version) HasMetadata() bool {
	return v.v.Metadata() != ""
}

// IsZero reports whether v was never parsed.
func (v Version) IsZero() bool {
	return v == Version{}
}

func (v Version) String() string {
	if v.IsZero() {
		return ""
	}
	return v.v.String()
}

func (v Version) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.String())
}

func (v *Version) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decoding version: %w", err)
	}
	if s == "" {
		*v = Version{}
		return nil
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Compare compares two version strings. Unparsable strings sort before every
// valid version and compare lexically among themselves.
func Compare(a, b string) int {
	av, aErr := Parse(a)
	bv, bErr := Parse(b)
	switch {
	case aErr != nil && bErr != nil:
		return strings.Compare(a, b)
	case aErr != nil:
		return -1
	case bErr != nil:
		return 1
	}
	return av.Compare(bv)
}
