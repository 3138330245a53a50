package shared

import (
	"strings"

	"golang.org/x/text/cases"
)

var slugFolder = cases.Fold()

// Slugify produces a URL-safe slug from a display name using Unicode case
// folding, so names differing only in case map to the same slug.
func Slugify(name string) string {
	folded := slugFolder.String(strings.TrimSpace(name))
	fields := strings.Fields(folded)
	return strings.Join(fields, "-")
}
