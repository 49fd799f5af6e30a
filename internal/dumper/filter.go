package dumper

import (
	"strings"

	"github.com/teamcutter/d2rdump/internal/layout"
)

// ExcludeMarker is skipped case-insensitively before any filter is applied.
const ExcludeMarker = "lowend"

// Filter selects entries by substring. The match is not suffix-anchored:
// ".sprite" also matches "foo.sprite.bak".
type Filter struct {
	text string
	all  bool
}

// ParseFilter maps "all" and ".all" to the match-everything sentinel.
func ParseFilter(s string) Filter {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "all", ".all":
		return Filter{text: s, all: true}
	}
	return Filter{text: s}
}

func MatchAll() Filter {
	return Filter{text: "all", all: true}
}

func (f Filter) All() bool {
	return f.all
}

func (f Filter) String() string {
	return f.text
}

func (f Filter) Match(name string) bool {
	return f.all || strings.Contains(name, f.text)
}

// Bucket is the output subdirectory for entries selected by f.
func (f Filter) Bucket() string {
	if f.all {
		return layout.AllBucket
	}
	return layout.Bucket(f.text)
}

// Excluded reports whether name carries the exclusion marker.
func Excluded(name string) bool {
	return strings.Contains(strings.ToLower(name), ExcludeMarker)
}
