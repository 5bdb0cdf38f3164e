package cases

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pvtools/casedup/internal/core/model"
)

type mockSource struct {
	cases map[string]*model.Case
	calls int
	err   error
}

func (m *mockSource) CaseByID(ctx context.Context, id string) (*model.Case, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.cases[id]
	if !ok {
		return nil, errors.New("record not found")
	}
	return c, nil
}

func TestCaseSummaryFromSource(t *testing.T) {
	src := &mockSource{cases: map[string]*model.Case{
		"case-a": {ID: "case-a", SafetyReportID: "US-2024-0001", PatientInitials: "JMW"},
	}}
	svc := NewService(src, nil)

	summary, err := svc.CaseSummary(context.Background(), "case-a")
	require.NoError(t, err)
	assert.Equal(t, "case-a", summary.CaseID)
	assert.Equal(t, "US-2024-0001", summary.SafetyReportID)
	assert.Equal(t, "JMW", summary.PatientInitials)
	assert.Equal(t, 1, src.calls)
}

func TestCaseSummaryPropagatesError(t *testing.T) {
	src := &mockSource{err: errors.New("db down")}
	svc := NewService(src, nil)

	_, err := svc.CaseSummary(context.Background(), "case-a")
	require.Error(t, err)
}

func TestCaseReturnsFullRecord(t *testing.T) {
	src := &mockSource{cases: map[string]*model.Case{
		"case-a": {ID: "case-a", Narrative: "full narrative"},
	}}
	svc := NewService(src, nil)

	c, err := svc.Case(context.Background(), "case-a")
	require.NoError(t, err)
	assert.Equal(t, "full narrative", c.Narrative)
}

func TestSummaryKey(t *testing.T) {
	assert.Equal(t, "case-summary:abc", summaryKey("abc"))
}
