package breadcrumbs

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/helixlab/helixdash/internal/app/models"
)

// Title turns a slug or path segment such as "multiple-sequence_alignment"
// into "Multiple Sequence Alignment".
func Title(segment string) string {
	s := strings.NewReplacer("-", " ", "_", " ").Replace(segment)
	// Casers keep state, so each call gets its own.
	return cases.Title(language.English).String(strings.Join(strings.Fields(s), " "))
}

// FromPath derives a trail from a URL path. labels overrides the text for
// specific segments, keyed by the raw segment.
func FromPath(path string, labels map[string]string) []models.Breadcrumb {
	trail := []models.Breadcrumb{{Label: "Home", URL: "/dashboard"}}
	var url strings.Builder
	for _, seg := range strings.Split(strings.Trim(path, "/"), "/") {
		if seg == "" {
			continue
		}
		url.WriteString("/" + seg)
		label, ok := labels[seg]
		if !ok {
			label = Title(seg)
		}
		trail = append(trail, models.Breadcrumb{Label: label, URL: url.String()})
	}
	return trail
}
