package detect

import (
	"strings"

	"github.com/xrash/smetrics"
)

// stringSimilarity scores two free-text values in [0,1] with Jaro-Winkler,
// after case and whitespace normalization.
func stringSimilarity(a, b string) float64 {
	a = normalize(a)
	b = normalize(b)
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	return smetrics.JaroWinkler(a, b, 0.7, 4)
}

// setSimilarity is the Jaccard index of two string sets, normalized.
func setSimilarity(a, b []string) float64 {
	setA := toSet(a)
	setB := toSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	intersection := 0
	for v := range setA {
		if _, ok := setB[v]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

// tokenSimilarity compares longer narrative text by word-set overlap.
// Jaro-Winkler degrades on long strings, so narratives are tokenized first.
func tokenSimilarity(a, b string) float64 {
	return setSimilarity(strings.Fields(normalize(a)), strings.Fields(normalize(b)))
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		n := normalize(v)
		if n != "" {
			set[n] = struct{}{}
		}
	}
	return set
}
