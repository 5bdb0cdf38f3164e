package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStringSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, stringSimilarity("Amoxicillin", "  amoxicillin "))
	assert.Equal(t, 0.0, stringSimilarity("", "amoxicillin"))
	assert.Greater(t, stringSimilarity("Amoxicillin", "Amoxicilin"), 0.9)
	assert.Less(t, stringSimilarity("Amoxicillin", "Metformin"), 0.7)
}

func TestSetSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, setSimilarity([]string{"rash", "pruritus"}, []string{"Pruritus", "RASH"}))
	assert.Equal(t, 0.0, setSimilarity([]string{"rash"}, []string{"nausea"}))
	assert.Equal(t, 0.0, setSimilarity(nil, []string{"nausea"}))
	assert.InDelta(t, 1.0/3.0, setSimilarity([]string{"rash", "pruritus"}, []string{"rash", "nausea"}), 1e-9)
}

func TestTokenSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, tokenSimilarity("rash after amoxicillin", "Rash after amoxicillin"))
	assert.Equal(t, 0.0, tokenSimilarity("", "anything"))
	assert.Greater(t, tokenSimilarity(
		"patient developed rash after amoxicillin",
		"rash developed after amoxicillin was started",
	), 0.5)
}
