package detect

import (
	"math"
	"strings"
	"time"

	"github.com/pvtools/casedup/internal/core/model"
)

// Criterion weights are percentage contributions and sum to 100.
const (
	weightInitials  = 15
	weightDOB       = 20
	weightSex       = 5
	weightCountry   = 5
	weightDrug      = 20
	weightReactions = 20
	weightNarrative = 15
)

// matchedThreshold is the per-criterion similarity above which a fuzzy
// dimension counts as matched.
const matchedThreshold = 0.85

const dobLayout = "2006-01-02"

// Compare scores two cases against the fixed criteria set and returns the
// per-dimension breakdown plus the weighted overall score (0-100).
// Dimensions that cannot be scored (a value missing on either side) carry
// a nil similarity and are excluded from the weighted mean.
func Compare(c1, c2 *model.Case) ([]model.MatchingCriterion, float64) {
	criteria := []model.MatchingCriterion{
		exactCriterion("Patient Initials", c1.PatientInitials, c2.PatientInitials, weightInitials),
		dobCriterion(c1.PatientDOB, c2.PatientDOB),
		exactCriterion("Sex", c1.PatientSex, c2.PatientSex, weightSex),
		exactCriterion("Country", c1.Country, c2.Country, weightCountry),
		fuzzyCriterion("Suspect Drug", c1.SuspectDrug, c2.SuspectDrug, weightDrug),
		reactionsCriterion(c1.Reactions, c2.Reactions),
		narrativeCriterion(c1.Narrative, c2.Narrative),
	}
	return criteria, Score(criteria)
}

// Score is the weighted mean of the scorable criteria, scaled to 0-100.
func Score(criteria []model.MatchingCriterion) float64 {
	var weighted, totalWeight float64
	for _, c := range criteria {
		if c.Similarity == nil {
			continue
		}
		weighted += *c.Similarity * float64(c.Weight)
		totalWeight += float64(c.Weight)
	}
	if totalWeight == 0 {
		return 0
	}
	return math.Round(weighted / totalWeight * 100)
}

func exactCriterion(label, v1, v2 string, weight int) model.MatchingCriterion {
	c := model.MatchingCriterion{Label: label, Value1: v1, Value2: v2, Weight: weight}
	if v1 == "" || v2 == "" {
		return c
	}
	sim := 0.0
	if normalize(v1) == normalize(v2) {
		sim = 1.0
	}
	c.Similarity = &sim
	c.Matched = sim == 1.0
	return c
}

func fuzzyCriterion(label, v1, v2 string, weight int) model.MatchingCriterion {
	c := model.MatchingCriterion{Label: label, Value1: v1, Value2: v2, Weight: weight}
	if v1 == "" || v2 == "" {
		return c
	}
	sim := stringSimilarity(v1, v2)
	c.Similarity = &sim
	c.Matched = sim >= matchedThreshold
	return c
}

func dobCriterion(d1, d2 *time.Time) model.MatchingCriterion {
	c := model.MatchingCriterion{Label: "Date of Birth", Weight: weightDOB}
	if d1 != nil {
		c.Value1 = d1.Format(dobLayout)
	}
	if d2 != nil {
		c.Value2 = d2.Format(dobLayout)
	}
	if d1 == nil || d2 == nil {
		return c
	}
	sim := 0.0
	if d1.Truncate(24 * time.Hour).Equal(d2.Truncate(24 * time.Hour)) {
		sim = 1.0
	}
	c.Similarity = &sim
	c.Matched = sim == 1.0
	return c
}

func reactionsCriterion(r1, r2 model.StringList) model.MatchingCriterion {
	c := model.MatchingCriterion{
		Label:  "Reactions",
		Value1: strings.Join(r1, ", "),
		Value2: strings.Join(r2, ", "),
		Weight: weightReactions,
	}
	if len(r1) == 0 || len(r2) == 0 {
		return c
	}
	sim := setSimilarity(r1, r2)
	c.Similarity = &sim
	c.Matched = sim >= matchedThreshold
	return c
}

func narrativeCriterion(n1, n2 string) model.MatchingCriterion {
	c := model.MatchingCriterion{Label: "Narrative", Weight: weightNarrative}
	if n1 != "" {
		c.Value1 = snippet(n1)
	}
	if n2 != "" {
		c.Value2 = snippet(n2)
	}
	if n1 == "" || n2 == "" {
		return c
	}
	sim := tokenSimilarity(n1, n2)
	c.Similarity = &sim
	c.Matched = sim >= matchedThreshold
	return c
}

// snippet keeps criterion values displayable; full narratives live on the
// case record.
func snippet(s string) string {
	const max = 120
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
