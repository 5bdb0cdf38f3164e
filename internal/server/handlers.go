package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pvtools/casedup/internal/core/detail"
	"github.com/pvtools/casedup/internal/core/model"
	"github.com/pvtools/casedup/internal/core/resolve"
	"github.com/pvtools/casedup/internal/store"
)

func (s *Server) ListDuplicates(c *gin.Context) {
	candidates, err := s.Store.PendingCandidates(c.Request.Context())
	if err != nil {
		s.log.WithError(err).Error("failed to list pending candidates")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list candidates"})
		return
	}

	type item struct {
		ID         uint                  `json:"id"`
		CaseID1    string                `json:"caseId1"`
		CaseID2    string                `json:"caseId2"`
		Score      float64               `json:"score"`
		ScoreLevel detail.ScoreLevel     `json:"scoreLevel"`
		Status     model.CandidateStatus `json:"status"`
		DetectedAt time.Time             `json:"detectedAt"`
	}
	items := make([]item, 0, len(candidates))
	for _, cand := range candidates {
		items = append(items, item{
			ID:         cand.ID,
			CaseID1:    cand.CaseID1,
			CaseID2:    cand.CaseID2,
			Score:      cand.SimilarityScore,
			ScoreLevel: detail.ScoreLevelFor(cand.SimilarityScore),
			Status:     cand.Status,
			DetectedAt: cand.DetectedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"candidates": items})
}

// DuplicateDetail serves the comparison view for one candidate: gauge,
// case panels, criteria rows, and either the pending actions flag or the
// resolution panel.
func (s *Server) DuplicateDetail(c *gin.Context) {
	id, ok := candidateID(c)
	if !ok {
		return
	}

	view, err := detail.Build(c.Request.Context(), s.Store, s.Cases, id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, detail.View{State: detail.StateError, Error: "Candidate not found"})
		return
	}
	if err != nil {
		s.log.WithError(err).WithField("candidateId", id).Error("failed to build detail view")
		c.JSON(http.StatusInternalServerError, detail.View{State: detail.StateError, Error: "Failed to load candidate"})
		return
	}

	c.JSON(http.StatusOK, detail.View{State: detail.StateContent, Candidate: view})
}

func (s *Server) ResolveDuplicate(c *gin.Context) {
	id, ok := candidateID(c)
	if !ok {
		return
	}

	var req resolve.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	candidate, err := s.Resolver.Resolve(c.Request.Context(), id, req)
	if err != nil {
		s.resolutionError(c, id, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"candidate": candidate})
}

type mergeRequest struct {
	ReviewerID   string `json:"reviewerId" binding:"required"`
	ReviewerName string `json:"reviewerName"`
}

func (s *Server) MergeDuplicate(c *gin.Context) {
	id, ok := candidateID(c)
	if !ok {
		return
	}

	var req mergeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	candidate, err := s.Resolver.Merge(c.Request.Context(), id, req.ReviewerID, req.ReviewerName)
	if err != nil {
		s.resolutionError(c, id, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"candidate": candidate})
}

func (s *Server) AssessDuplicate(c *gin.Context) {
	if s.Assessor == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Assessment is not configured"})
		return
	}

	id, ok := candidateID(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	candidate, err := s.Store.CandidateByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Candidate not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load candidate"})
		return
	}

	case1, err := s.Cases.Case(ctx, candidate.CaseID1)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load case"})
		return
	}
	case2, err := s.Cases.Case(ctx, candidate.CaseID2)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load case"})
		return
	}

	verdict, err := s.Assessor.Assess(ctx, case1, case2)
	if err != nil {
		s.log.WithError(err).WithField("candidateId", id).Error("assessment failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Assessment failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"verdict": verdict})
}

// GetCase mirrors the lookup contract the detail view consumes: a success
// flag plus the summary projection, with failures degrading to
// success=false rather than an error payload.
func (s *Server) GetCase(c *gin.Context) {
	summary, err := s.Cases.CaseSummary(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"success": false})
		return
	}
	if err != nil {
		s.log.WithError(err).WithField("caseId", c.Param("id")).Error("case lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": summary})
}

type caseRequest struct {
	SafetyReportID  string   `json:"safetyReportId" binding:"required"`
	PatientInitials string   `json:"patientInitials"`
	PatientDOB      string   `json:"patientDob"`
	PatientSex      string   `json:"patientSex"`
	Country         string   `json:"country"`
	SuspectDrug     string   `json:"suspectDrug"`
	Reactions       []string `json:"reactions"`
	Narrative       string   `json:"narrative"`
}

// CreateCase ingests a case record and immediately scans it against the
// active case base for duplicate candidates.
func (s *Server) CreateCase(c *gin.Context) {
	var req caseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	newCase := model.Case{
		SafetyReportID:  req.SafetyReportID,
		PatientInitials: req.PatientInitials,
		PatientSex:      req.PatientSex,
		Country:         req.Country,
		SuspectDrug:     req.SuspectDrug,
		Reactions:       req.Reactions,
		Narrative:       req.Narrative,
		ReceivedAt:      time.Now().UTC(),
		Status:          model.CaseStatusActive,
	}
	if req.PatientDOB != "" {
		dob, err := time.Parse("2006-01-02", req.PatientDOB)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid patientDob, expected YYYY-MM-DD"})
			return
		}
		newCase.PatientDOB = &dob
	}

	ctx := c.Request.Context()
	if err := s.Store.CreateCase(ctx, &newCase); err != nil {
		s.log.WithError(err).Error("failed to create case")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create case"})
		return
	}

	candidates, err := s.Scanner.ScanCase(ctx, newCase.ID)
	if err != nil {
		// The case is saved; report it with a scan warning rather than failing.
		s.log.WithError(err).WithField("caseId", newCase.ID).Error("duplicate scan failed")
		c.JSON(http.StatusCreated, gin.H{"case": newCase, "scanError": "Duplicate scan failed"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"case": newCase, "candidates": candidates})
}

func (s *Server) resolutionError(c *gin.Context, id uint, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Candidate not found"})
	case errors.Is(err, resolve.ErrNotPending):
		c.JSON(http.StatusConflict, gin.H{"error": "Candidate is already resolved"})
	case errors.Is(err, resolve.ErrInvalidResolution):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid resolution"})
	default:
		s.log.WithError(err).WithField("candidateId", id).Error("resolution failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve candidate"})
	}
}

func candidateID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid candidate id"})
		return 0, false
	}
	return uint(id), true
}
