package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pvtools/casedup/internal/core/assess"
	"github.com/pvtools/casedup/internal/core/cases"
	"github.com/pvtools/casedup/internal/core/detect"
	"github.com/pvtools/casedup/internal/core/model"
	"github.com/pvtools/casedup/internal/core/resolve"
	"github.com/pvtools/casedup/internal/store"
)

type memStore struct {
	cases      map[string]*model.Case
	candidates map[uint]*model.DuplicateCandidate
	mergeLinks []*model.CaseMergeLink
	nextID     uint
}

func newMemStore() *memStore {
	return &memStore{
		cases:      make(map[string]*model.Case),
		candidates: make(map[uint]*model.DuplicateCandidate),
		nextID:     1,
	}
}

func (m *memStore) CaseByID(ctx context.Context, id string) (*model.Case, error) {
	c, ok := m.cases[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	clone := *c
	return &clone, nil
}

func (m *memStore) CreateCase(ctx context.Context, c *model.Case) error {
	if c.ID == "" {
		c.ID = "generated-case-id"
	}
	m.cases[c.ID] = c
	return nil
}

func (m *memStore) UpdateCase(ctx context.Context, c *model.Case) error {
	m.cases[c.ID] = c
	return nil
}

func (m *memStore) ActiveCases(ctx context.Context, excludeID string) ([]model.Case, error) {
	var out []model.Case
	for _, c := range m.cases {
		if c.ID != excludeID && c.Status == model.CaseStatusActive {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *memStore) CandidateByID(ctx context.Context, id uint) (*model.DuplicateCandidate, error) {
	c, ok := m.candidates[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	clone := *c
	return &clone, nil
}

func (m *memStore) PendingCandidates(ctx context.Context) ([]model.DuplicateCandidate, error) {
	var out []model.DuplicateCandidate
	for _, c := range m.candidates {
		if c.Status == model.CandidateStatusPending {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *memStore) CreateCandidate(ctx context.Context, c *model.DuplicateCandidate) error {
	c.ID = m.nextID
	m.nextID++
	m.candidates[c.ID] = c
	return nil
}

func (m *memStore) UpdateCandidate(ctx context.Context, c *model.DuplicateCandidate) error {
	m.candidates[c.ID] = c
	return nil
}

func (m *memStore) CreateMergeLink(ctx context.Context, l *model.CaseMergeLink) error {
	m.mergeLinks = append(m.mergeLinks, l)
	return nil
}

func (m *memStore) Close() error { return nil }

type fakeModel struct {
	response string
}

func (f *fakeModel) Generate(ctx context.Context, prompt string) (string, error) {
	return f.response, nil
}

func seededStore() *memStore {
	st := newMemStore()
	sim := 1.0
	st.cases["case-a"] = &model.Case{
		ID: "case-a", SafetyReportID: "US-2024-0001", PatientInitials: "JMW",
		Status: model.CaseStatusActive, PatientSex: "female", Country: "US",
		SuspectDrug: "Amoxicillin", Reactions: model.StringList{"rash"},
	}
	st.cases["case-b"] = &model.Case{
		ID: "case-b", SafetyReportID: "US-2024-0002", PatientInitials: "JMW",
		Status: model.CaseStatusActive, PatientSex: "female", Country: "US",
		SuspectDrug: "Amoxicillin", Reactions: model.StringList{"rash"},
	}
	st.candidates[1] = &model.DuplicateCandidate{
		ID: 1, CaseID1: "case-a", CaseID2: "case-b", SimilarityScore: 85,
		Status: model.CandidateStatusPending,
		MatchingCriteria: model.CriteriaList{
			{Label: "DOB", Value1: "1980-01-01", Value2: "1980-01-01", Matched: true, Similarity: &sim, Weight: 30},
		},
		DetectedAt: time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC),
	}
	st.nextID = 2
	return st
}

func newTestRouter(st *memStore, assessor *assess.Assessor) *gin.Engine {
	gin.SetMode(gin.TestMode)
	srv := New(st, cases.NewService(st, nil), resolve.NewService(st), detect.NewScanner(st, 50), assessor)
	return srv.SetupRouter()
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestDuplicateDetail(t *testing.T) {
	r := newTestRouter(seededStore(), nil)
	w := doJSON(t, r, http.MethodGet, "/duplicates/1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var view struct {
		State     string `json:"state"`
		Candidate struct {
			Score      int    `json:"score"`
			ScoreLevel string `json:"scoreLevel"`
			Pending    bool   `json:"pending"`
			Case1      struct {
				CaseRef        string `json:"caseRef"`
				SafetyReportID string `json:"safetyReportId"`
			} `json:"case1"`
			Criteria []struct {
				Weight string `json:"weight"`
				Bar    *struct {
					Percent int    `json:"percent"`
					Status  string `json:"status"`
				} `json:"bar"`
			} `json:"criteria"`
			Resolution *struct{} `json:"resolution"`
		} `json:"candidate"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))

	assert.Equal(t, "content", view.State)
	assert.Equal(t, 85, view.Candidate.Score)
	assert.Equal(t, "alert", view.Candidate.ScoreLevel)
	assert.True(t, view.Candidate.Pending)
	assert.Nil(t, view.Candidate.Resolution)
	assert.Equal(t, "US-2024-0001", view.Candidate.Case1.SafetyReportID)
	require.Len(t, view.Candidate.Criteria, 1)
	assert.Equal(t, "30%", view.Candidate.Criteria[0].Weight)
	require.NotNil(t, view.Candidate.Criteria[0].Bar)
	assert.Equal(t, 100, view.Candidate.Criteria[0].Bar.Percent)
	assert.Equal(t, "good", view.Candidate.Criteria[0].Bar.Status)
}

func TestDuplicateDetailNotFound(t *testing.T) {
	r := newTestRouter(seededStore(), nil)
	w := doJSON(t, r, http.MethodGet, "/duplicates/99", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"state":"error"`)
}

func TestDuplicateDetailBadID(t *testing.T) {
	r := newTestRouter(seededStore(), nil)
	w := doJSON(t, r, http.MethodGet, "/duplicates/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListDuplicates(t *testing.T) {
	r := newTestRouter(seededStore(), nil)
	w := doJSON(t, r, http.MethodGet, "/duplicates", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Candidates []struct {
			ID         uint    `json:"id"`
			Score      float64 `json:"score"`
			ScoreLevel string  `json:"scoreLevel"`
		} `json:"candidates"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Candidates, 1)
	assert.Equal(t, uint(1), resp.Candidates[0].ID)
	assert.Equal(t, "alert", resp.Candidates[0].ScoreLevel)
}

func TestResolveDuplicate(t *testing.T) {
	st := seededStore()
	r := newTestRouter(st, nil)

	w := doJSON(t, r, http.MethodPost, "/duplicates/1/resolve", map[string]string{
		"resolution": "not_duplicate",
		"notes":      "different onset dates",
		"reviewerId": "u-1",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.CandidateStatusDismissed, st.candidates[1].Status)

	// A second resolution attempt conflicts.
	w = doJSON(t, r, http.MethodPost, "/duplicates/1/resolve", map[string]string{
		"resolution": "duplicate",
		"reviewerId": "u-1",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestResolveDuplicateInvalidBody(t *testing.T) {
	r := newTestRouter(seededStore(), nil)
	w := doJSON(t, r, http.MethodPost, "/duplicates/1/resolve", map[string]string{"notes": "missing fields"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMergeDuplicate(t *testing.T) {
	st := seededStore()
	r := newTestRouter(st, nil)

	w := doJSON(t, r, http.MethodPost, "/duplicates/1/merge", map[string]string{
		"reviewerId":   "u-2",
		"reviewerName": "B. Reviewer",
	})
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, model.CandidateStatusMerged, st.candidates[1].Status)
	assert.Equal(t, model.CaseStatusSuperseded, st.cases["case-b"].Status)
	require.Len(t, st.mergeLinks, 1)
	assert.Equal(t, "case-a", st.mergeLinks[0].WinnerID)
}

func TestGetCaseEnvelope(t *testing.T) {
	r := newTestRouter(seededStore(), nil)

	w := doJSON(t, r, http.MethodGet, "/cases/case-a", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			SafetyReportID  string `json:"safetyReportId"`
			PatientInitials string `json:"patientInitials"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "US-2024-0001", resp.Data.SafetyReportID)
	assert.Equal(t, "JMW", resp.Data.PatientInitials)

	w = doJSON(t, r, http.MethodGet, "/cases/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)
}

func TestCreateCaseRunsScan(t *testing.T) {
	st := seededStore()
	r := newTestRouter(st, nil)

	w := doJSON(t, r, http.MethodPost, "/cases", map[string]interface{}{
		"safetyReportId":  "US-2024-0003",
		"patientInitials": "JMW",
		"patientSex":      "female",
		"country":         "US",
		"suspectDrug":     "Amoxicillin",
		"reactions":       []string{"rash"},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Case       model.Case                 `json:"case"`
		Candidates []model.DuplicateCandidate `json:"candidates"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Case.ID)
	// The new case matches both seeded cases on every scorable dimension.
	assert.Len(t, resp.Candidates, 2)
	for _, c := range resp.Candidates {
		assert.Equal(t, model.CandidateStatusPending, c.Status)
		assert.GreaterOrEqual(t, c.SimilarityScore, 50.0)
	}
}

func TestCreateCaseRejectsBadDOB(t *testing.T) {
	r := newTestRouter(seededStore(), nil)
	w := doJSON(t, r, http.MethodPost, "/cases", map[string]interface{}{
		"safetyReportId": "US-2024-0004",
		"patientDob":     "01/02/1980",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAssessUnavailableWithoutModel(t *testing.T) {
	r := newTestRouter(seededStore(), nil)
	w := doJSON(t, r, http.MethodPost, "/duplicates/1/assess", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestAssessDuplicate(t *testing.T) {
	assessor := assess.NewAssessor(&fakeModel{
		response: `{"is_duplicate": true, "confidence": 0.9, "reasoning": "same report"}`,
	})
	r := newTestRouter(seededStore(), assessor)

	w := doJSON(t, r, http.MethodPost, "/duplicates/1/assess", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Verdict assess.Verdict `json:"verdict"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Verdict.IsDuplicate)
	assert.Equal(t, 0.9, resp.Verdict.Confidence)
}
