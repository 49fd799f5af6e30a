package layout

import "strings"

const UnknownVersion = "unknown"

var versionReplacer = strings.NewReplacer(" ", "_", ",", "_", ".", "_")

// SanitizeVersion derives a directory name from a product version string.
// Only space, comma and period are replaced.
func SanitizeVersion(raw string) string {
	if raw == "" {
		raw = UnknownVersion
	}
	return versionReplacer.Replace(raw)
}
