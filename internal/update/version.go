package update

import (
	"cmp"
	"fmt"
	"regexp"
	"strconv"

	apperrors "relwatch/internal/errors"
)

// Version is a release version as a (major, minor, revision) triple.
// The zero value v0.0.0 doubles as the sentinel for "absent or unparseable"
// in Parse; use ParseVersion where the two must be told apart.
type Version struct {
	Major    int
	Minor    int
	Revision int
}

// tagRegex matches release tags of the form v<major>.<minor>.<revision>.
// No surrounding whitespace, pre-release or build metadata is accepted.
var tagRegex = regexp.MustCompile(`^v(\d+)\.(\d+)\.(\d+)$`)

// ParseVersion parses a release tag such as "v1.2.3".
// Returns an error wrapping ErrInvalidVersion if the tag does not match.
func ParseVersion(s string) (Version, error) {
	matches := tagRegex.FindStringSubmatch(s)
	if matches == nil {
		return Version{}, apperrors.New(apperrors.CodeInvalidVersion,
			fmt.Sprintf("parse version %q", s), ErrInvalidVersion)
	}

	var parts [3]int
	for i := range parts {
		n, err := strconv.Atoi(matches[i+1])
		if err != nil {
			// Only reachable on overflow; the regex guarantees digits.
			return Version{}, apperrors.New(apperrors.CodeInvalidVersion,
				fmt.Sprintf("parse version %q", s), fmt.Errorf("%w: %v", ErrInvalidVersion, err))
		}
		parts[i] = n
	}

	return Version{Major: parts[0], Minor: parts[1], Revision: parts[2]}, nil
}

// Parse is ParseVersion with silent degradation: any malformed input
// yields the zero Version.
func Parse(s string) Version {
	v, err := ParseVersion(s)
	if err != nil {
		return Version{}
	}
	return v
}

// String returns the version as "v{major}.{minor}.{revision}".
func (v Version) String() string {
	return fmt.Sprintf("v%d.%d.%d", v.Major, v.Minor, v.Revision)
}

// Compare compares two versions.
// Returns:
//
//	-1 if v < other
//	 0 if v == other
//	 1 if v > other
func (v Version) Compare(other Version) int {
	if c := cmp.Compare(v.Major, other.Major); c != 0 {
		return c
	}
	if c := cmp.Compare(v.Minor, other.Minor); c != 0 {
		return c
	}
	return cmp.Compare(v.Revision, other.Revision)
}

// Compare is the function form of Version.Compare, usable with slices.SortFunc.
func Compare(a, b Version) int {
	return a.Compare(b)
}

// LessThan returns true if v < other.
func (v Version) LessThan(other Version) bool {
	return v.Compare(other) < 0
}

// GreaterThan returns true if v > other.
func (v Version) GreaterThan(other Version) bool {
	return v.Compare(other) > 0
}

// Equal returns true if v == other.
func (v Version) Equal(other Version) bool {
	return v.Compare(other) == 0
}

// IsZero reports whether v is v0.0.0.
func (v Version) IsZero() bool {
	return v == Version{}
}
