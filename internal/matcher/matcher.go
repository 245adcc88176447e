package matcher

import (
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

// DefaultThreshold is the minimum Jaro-Winkler similarity for a suggestion.
const DefaultThreshold = 0.80

// SuggestColumn returns the header most similar to any of the aliases, for
// "did you mean" diagnostics. It never takes part in column resolution.
func SuggestColumn(headers, aliases []string, threshold float64) (string, bool) {
	jw := metrics.NewJaroWinkler()
	jw.CaseSensitive = false

	var best string
	var highestScore float64

	for _, h := range headers {
		candidate := cleanHeader(h)
		if candidate == "" {
			continue
		}
		for _, alias := range aliases {
			score := strutil.Similarity(candidate, cleanHeader(alias), jw)
			if score > highestScore && score >= threshold {
				highestScore = score
				best = h
			}
		}
	}
	return best, best != ""
}

// cleanHeader drops bracketed units such as "(cM)" before comparing.
func cleanHeader(s string) string {
	if idx := strings.IndexAny(s, "(["); idx != -1 {
		s = s[:idx]
	}
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
