// Package version reports the build version of kbdswitch.
package version

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is set via ldflags at build time:
// -ldflags "-X github.com/latinkbd/kbdswitch/internal/version.Version=x.y.z"
var Version = ""

const devVersion = "0.0.1-dev"

// Get returns the build version without a leading "v". Development builds
// report 0.0.1-dev.
func Get() (string, error) {
	if Version == "" {
		return devVersion, nil
	}
	v := strings.TrimPrefix(Version, "v")
	base := strings.SplitN(v, "-", 2)[0]
	if !strings.Contains(base, ".") {
		return "", fmt.Errorf("invalid version format: %s (expected x.y.z)", Version)
	}
	return v, nil
}

// String is Get with invalid versions reported verbatim.
func String() string {
	v, err := Get()
	if err != nil {
		return Version
	}
	return v
}

// Parse extracts major, minor and patch from "1.2.3" or "1.2.3-dirty".
func Parse(v string) (major, minor, patch int) {
	v = strings.SplitN(v, "-", 2)[0]
	nums := strings.Split(v, ".")
	if len(nums) >= 1 {
		major, _ = strconv.Atoi(nums[0])
	}
	if len(nums) >= 2 {
		minor, _ = strconv.Atoi(nums[1])
	}
	if len(nums) >= 3 {
		patch, _ = strconv.Atoi(nums[2])
	}
	return
}
