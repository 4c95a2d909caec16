package fresh

import (
	"strings"

	"github.com/harutofu/shiori/internal/search"
)

// FilterToday keeps results whose title, snippet or URL mentions the
// reference date in any accepted form. Everything else is dropped, including
// undated results; callers fall back to the unfiltered set when nothing
// survives.
func FilterToday(results []search.Result, ctx Context) []search.Result {
	patterns := TodayPatterns(ctx.ReferenceDate)
	out := make([]search.Result, 0, len(results))
	for _, r := range results {
		text := r.Title + " " + r.Snippet + " " + r.URL
		if matchesAny(text, patterns) {
			out = append(out, r)
		}
	}
	return out
}

func matchesAny(text string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}
