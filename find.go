package zfile

import (
	"strings"

	"golang.org/x/sys/unix"
)

// Find looks for name in each directory of path, a list separated by
// colons or semicolons, and returns the first existing match. With
// executable set, only files the caller may execute match. An empty path,
// or an empty element of it, checks name relative to the current directory.
func Find(name, path string, executable bool) (string, bool) {
	if name == "" {
		return "", false
	}
	how := uint32(unix.F_OK)
	if executable {
		how = unix.X_OK
	}
	if path == "" {
		if unix.Access(name, how) == nil {
			return name, true
		}
		return "", false
	}

	for _, dir := range strings.Split(strings.ReplaceAll(path, ";", ":"), ":") {
		candidate := name
		switch {
		case dir == "":
		case strings.HasSuffix(dir, "/"):
			candidate = dir + name
		default:
			candidate = dir + "/" + name
		}
		if unix.Access(candidate, how) == nil {
			return candidate, true
		}
	}
	return "", false
}
