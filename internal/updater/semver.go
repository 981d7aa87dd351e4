package updater

import (
	"fmt"
	"strconv"
	"strings"
)

// Semver represents a semantic version.
type Semver struct {
	Major      int
	Minor      int
	Patch      int
	Prerelease []string
}

// ParseSemver parses a version string like "1.2.3", "v1.2" or "1.2.3-rc.1".
// Build metadata after "+" is ignored.
func ParseSemver(s string) (Semver, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "v")
	if i := strings.IndexByte(s, '+'); i >= 0 {
		s = s[:i]
	}

	var pre []string
	if i := strings.IndexByte(s, '-'); i >= 0 {
		if s[i+1:] == "" {
			return Semver{}, fmt.Errorf("invalid semver: empty pre-release in %q", s)
		}
		pre = strings.Split(s[i+1:], ".")
		s = s[:i]
	}

	parts := strings.Split(s, ".")
	if len(parts) < 1 || len(parts) > 3 {
		return Semver{}, fmt.Errorf("invalid semver: %q", s)
	}

	nums := make([]int, 3)
	names := []string{"major", "minor", "patch"}
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return Semver{}, fmt.Errorf("invalid %s version %q", names[i], p)
		}
		nums[i] = n
	}

	return Semver{Major: nums[0], Minor: nums[1], Patch: nums[2], Prerelease: pre}, nil
}

// String returns the version as "major.minor.patch[-pre]".
func (v Semver) String() string {
	s := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	if len(v.Prerelease) > 0 {
		s += "-" + strings.Join(v.Prerelease, ".")
	}
	return s
}

// Compare returns -1, 0 or 1 following semantic version precedence.
func (v Semver) Compare(other Semver) int {
	if c := cmpInt(v.Major, other.Major); c != 0 {
		return c
	}
	if c := cmpInt(v.Minor, other.Minor); c != 0 {
		return c
	}
	if c := cmpInt(v.Patch, other.Patch); c != 0 {
		return c
	}
	return comparePrerelease(v.Prerelease, other.Prerelease)
}

// LessThan returns true if v < other.
func (v Semver) LessThan(other Semver) bool {
	return v.Compare(other) < 0
}

// comparePrerelease: a release outranks any pre-release; identifiers are
// compared numerically when both are numbers, otherwise lexically, and
// numeric identifiers rank below alphanumeric ones.
func comparePrerelease(a, b []string) int {
	switch {
	case len(a) == 0 && len(b) == 0:
		return 0
	case len(a) == 0:
		return 1
	case len(b) == 0:
		return -1
	}
	for i := 0; i < len(a) && i < len(b); i++ {
		an, aerr := strconv.Atoi(a[i])
		bn, berr := strconv.Atoi(b[i])
		switch {
		case aerr == nil && berr == nil:
			if c := cmpInt(an, bn); c != 0 {
				return c
			}
		case aerr == nil:
			return -1
		case berr == nil:
			return 1
		default:
			if c := strings.Compare(a[i], b[i]); c != 0 {
				return c
			}
		}
	}
	return cmpInt(len(a), len(b))
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
