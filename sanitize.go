package webmetrics

import "strings"

const (
	// Unknown is the uri tag value used when no path is known.
	Unknown = "UNKNOWN"

	// Root is the uri tag value of the root path.
	Root = "root"
)

// SanitizePath normalizes path into a stable uri tag value. Runs of slashes
// are collapsed, a single trailing slash is removed and an empty result
// becomes Root. Nothing else is changed: no case folding, no decoding.
//
//	SanitizePath("//a//b///c/") == "/a/b/c"
//	SanitizePath("/") == "root"
func SanitizePath(path string) string {
	if strings.Contains(path, "//") {
		var b strings.Builder
		b.Grow(len(path))
		for i := 0; i < len(path); i++ {
			if path[i] == '/' && i > 0 && path[i-1] == '/' {
				continue
			}
			b.WriteByte(path[i])
		}
		path = b.String()
	}

	path = strings.TrimSuffix(path, "/")
	if path == "" {
		return Root
	}
	return path
}

// sanitizeOptionalPath is SanitizePath for paths that may be missing.
func sanitizeOptionalPath(path *string) string {
	if path == nil {
		return Unknown
	}
	return SanitizePath(*path)
}
