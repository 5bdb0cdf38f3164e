package assess

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pvtools/casedup/internal/core/model"
)

type mockModel struct {
	Response string
	Err      error
	Prompt   string
}

func (m *mockModel) Generate(ctx context.Context, prompt string) (string, error) {
	m.Prompt = prompt
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}

func fixtureCases() (*model.Case, *model.Case) {
	dob := time.Date(1964, 3, 12, 0, 0, 0, 0, time.UTC)
	c1 := &model.Case{
		SafetyReportID:  "US-2024-0001",
		PatientInitials: "JMW",
		PatientDOB:      &dob,
		PatientSex:      "female",
		Country:         "US",
		SuspectDrug:     "Amoxicillin",
		Reactions:       model.StringList{"rash"},
		Narrative:       "Rash after amoxicillin.",
	}
	c2 := &model.Case{
		SafetyReportID:  "US-2024-0002",
		PatientInitials: "JMW",
		PatientSex:      "female",
		Country:         "US",
		SuspectDrug:     "Amoxicilin",
		Reactions:       model.StringList{"rash"},
		Narrative:       "Rash reported after starting amoxicillin.",
	}
	return c1, c2
}

func TestAssessParsesVerdict(t *testing.T) {
	m := &mockModel{Response: `{"is_duplicate": true, "confidence": 0.92, "reasoning": "same patient and drug"}`}
	a := NewAssessor(m)

	c1, c2 := fixtureCases()
	verdict, err := a.Assess(context.Background(), c1, c2)
	require.NoError(t, err)

	assert.True(t, verdict.IsDuplicate)
	assert.Equal(t, 0.92, verdict.Confidence)
	assert.Equal(t, "same patient and drug", verdict.Reasoning)

	assert.Contains(t, m.Prompt, "US-2024-0001")
	assert.Contains(t, m.Prompt, "US-2024-0002")
}

// Models often wrap JSON in fences or prose; the parser must cope.
func TestAssessStripsWrapping(t *testing.T) {
	m := &mockModel{Response: "Here is my verdict:\n```json\n{\"is_duplicate\": false, \"confidence\": 0.3}\n```\n"}
	a := NewAssessor(m)

	c1, c2 := fixtureCases()
	verdict, err := a.Assess(context.Background(), c1, c2)
	require.NoError(t, err)
	assert.False(t, verdict.IsDuplicate)
	assert.Equal(t, 0.3, verdict.Confidence)
}

func TestAssessRejectsOutOfRangeConfidence(t *testing.T) {
	m := &mockModel{Response: `{"is_duplicate": true, "confidence": 1.4}`}
	a := NewAssessor(m)

	c1, c2 := fixtureCases()
	_, err := a.Assess(context.Background(), c1, c2)
	require.Error(t, err)
}

func TestAssessGarbageResponse(t *testing.T) {
	m := &mockModel{Response: "I cannot decide."}
	a := NewAssessor(m)

	c1, c2 := fixtureCases()
	_, err := a.Assess(context.Background(), c1, c2)
	require.Error(t, err)
}

func TestVerdictValidate(t *testing.T) {
	assert.NoError(t, (&Verdict{Confidence: 0}).Validate())
	assert.NoError(t, (&Verdict{Confidence: 1}).Validate())
	assert.Error(t, (&Verdict{Confidence: -0.1}).Validate())
	assert.Error(t, (&Verdict{Confidence: 1.1}).Validate())
}
