package layout

import "strings"

// Archive-internal paths may carry one of these root-data markers.
var dataPrefixes = []string{"data:", "data\\", "data/"}

// Normalize turns an archive-internal path into a relative output path. At
// most one leading data prefix is stripped and backslashes become slashes.
func Normalize(raw string) string {
	rel := raw
	for _, prefix := range dataPrefixes {
		if strings.HasPrefix(rel, prefix) {
			rel = rel[len(prefix):]
			break
		}
	}
	return strings.ReplaceAll(rel, "\\", "/")
}
