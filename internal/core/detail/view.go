package detail

import (
	"math"
	"strconv"
	"time"

	"github.com/pvtools/casedup/internal/core/model"
)

// Display thresholds are fixed, not configurable.
const (
	scoreAlertFloor   = 80
	scoreWarningFloor = 60

	barGoodFloor    = 0.8
	barNeutralFloor = 0.5
)

const (
	dash       = "-"
	shortIDLen = 8
	timeLayout = "2006-01-02 15:04"
)

type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateError   State = "error"
	StateContent State = "content"
)

// ScoreLevel colors the overall similarity gauge.
type ScoreLevel string

const (
	ScoreLevelAlert   ScoreLevel = "alert"
	ScoreLevelWarning ScoreLevel = "warning"
	ScoreLevelSuccess ScoreLevel = "success"
)

// BarStatus colors a single criterion's similarity bar.
type BarStatus string

const (
	BarStatusGood      BarStatus = "good"
	BarStatusNeutral   BarStatus = "neutral"
	BarStatusException BarStatus = "exception"
)

// View is one snapshot of the detail screen: exactly one of the loading,
// error or content renditions.
type View struct {
	State     State          `json:"state"`
	Error     string         `json:"error,omitempty"`
	Candidate *CandidateView `json:"candidate,omitempty"`
}

// CandidateView is the fully formatted content rendition.
type CandidateView struct {
	ID         uint                  `json:"id"`
	Score      int                   `json:"score"`
	ScoreLevel ScoreLevel            `json:"scoreLevel"`
	Status     model.CandidateStatus `json:"status"`
	Pending    bool                  `json:"pending"`
	Case1      CasePanel             `json:"case1"`
	Case2      CasePanel             `json:"case2"`
	Criteria   []CriterionRow        `json:"criteria"`
	Resolution *ResolutionPanel      `json:"resolution,omitempty"`
	DetectedAt string                `json:"detectedAt"`
}

// CasePanel is one of the two side-by-side case summaries. Report ID and
// initials stay dashed until the case lookup delivers.
type CasePanel struct {
	CaseID          string `json:"caseId"`
	CaseRef         string `json:"caseRef"`
	SafetyReportID  string `json:"safetyReportId"`
	PatientInitials string `json:"patientInitials"`
}

type CriterionRow struct {
	Label   string         `json:"label"`
	Value1  string         `json:"value1"`
	Value2  string         `json:"value2"`
	Matched bool           `json:"matched"`
	Bar     *SimilarityBar `json:"bar,omitempty"`
	Weight  string         `json:"weight"`
}

type SimilarityBar struct {
	Percent int       `json:"percent"`
	Status  BarStatus `json:"status"`
}

type ResolutionPanel struct {
	Resolution string `json:"resolution"`
	ResolvedBy string `json:"resolvedBy"`
	ResolvedAt string `json:"resolvedAt"`
	Notes      string `json:"notes"`
}

// ScoreLevelFor maps an overall score (0-100) to its gauge color.
func ScoreLevelFor(score float64) ScoreLevel {
	switch {
	case score >= scoreAlertFloor:
		return ScoreLevelAlert
	case score >= scoreWarningFloor:
		return ScoreLevelWarning
	default:
		return ScoreLevelSuccess
	}
}

func barStatusFor(similarity float64) BarStatus {
	switch {
	case similarity >= barGoodFloor:
		return BarStatusGood
	case similarity >= barNeutralFloor:
		return BarStatusNeutral
	default:
		return BarStatusException
	}
}

// ContentView formats a candidate for display. Case panels carry dashes
// until summaries are applied.
func ContentView(c *model.DuplicateCandidate) *CandidateView {
	view := &CandidateView{
		ID:         c.ID,
		Score:      int(math.Round(c.SimilarityScore)),
		ScoreLevel: ScoreLevelFor(c.SimilarityScore),
		Status:     c.Status,
		Pending:    c.Pending(),
		Case1:      emptyPanel(c.CaseID1),
		Case2:      emptyPanel(c.CaseID2),
		DetectedAt: formatTime(c.DetectedAt),
	}

	view.Criteria = make([]CriterionRow, 0, len(c.MatchingCriteria))
	for _, mc := range c.MatchingCriteria {
		view.Criteria = append(view.Criteria, criterionRow(mc))
	}

	if !c.Pending() {
		view.Resolution = resolutionPanel(c)
	}
	return view
}

func (v *CandidateView) applySummary(slot int, s *model.CaseSummary) {
	panel := &v.Case1
	if slot == 2 {
		panel = &v.Case2
	}
	panel.SafetyReportID = orDash(s.SafetyReportID)
	panel.PatientInitials = orDash(s.PatientInitials)
}

func emptyPanel(caseID string) CasePanel {
	return CasePanel{
		CaseID:          caseID,
		CaseRef:         ShortID(caseID),
		SafetyReportID:  dash,
		PatientInitials: dash,
	}
}

func criterionRow(mc model.MatchingCriterion) CriterionRow {
	row := CriterionRow{
		Label:   mc.Label,
		Value1:  orDash(mc.Value1),
		Value2:  orDash(mc.Value2),
		Matched: mc.Matched,
		Weight:  weightPercent(mc.Weight),
	}
	if mc.Similarity != nil {
		row.Bar = &SimilarityBar{
			Percent: int(math.Round(*mc.Similarity * 100)),
			Status:  barStatusFor(*mc.Similarity),
		}
	}
	return row
}

func resolutionPanel(c *model.DuplicateCandidate) *ResolutionPanel {
	// Resolution tag falls back to the raw status when none was recorded.
	resolution := string(c.Status)
	if c.Resolution != nil && *c.Resolution != "" {
		resolution = *c.Resolution
	}

	resolvedBy := dash
	switch {
	case c.ResolvedByName != nil && *c.ResolvedByName != "":
		resolvedBy = *c.ResolvedByName
	case c.ResolvedBy != nil && *c.ResolvedBy != "":
		resolvedBy = *c.ResolvedBy
	}

	resolvedAt := dash
	if c.ResolvedAt != nil {
		resolvedAt = formatTime(*c.ResolvedAt)
	}

	notes := dash
	if c.ResolutionNotes != nil && *c.ResolutionNotes != "" {
		notes = *c.ResolutionNotes
	}

	return &ResolutionPanel{
		Resolution: resolution,
		ResolvedBy: resolvedBy,
		ResolvedAt: resolvedAt,
		Notes:      notes,
	}
}

// ShortID truncates a case identifier for panel headers.
func ShortID(id string) string {
	if len(id) <= shortIDLen {
		return id
	}
	return id[:shortIDLen] + "..."
}

func weightPercent(w int) string {
	return strconv.Itoa(w) + "%"
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return dash
	}
	return t.UTC().Format(timeLayout)
}

func orDash(s string) string {
	if s == "" {
		return dash
	}
	return s
}
