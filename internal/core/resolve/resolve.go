package resolve

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pvtools/casedup/internal/core/model"
	"github.com/pvtools/casedup/internal/logging"
)

var (
	// ErrNotPending is returned when a candidate was already reviewed.
	ErrNotPending = errors.New("candidate is not pending")

	// ErrInvalidResolution is returned for resolution values outside the
	// known set.
	ErrInvalidResolution = errors.New("invalid resolution")
)

// Store is the persistence surface the resolution workflow needs.
type Store interface {
	CandidateByID(ctx context.Context, id uint) (*model.DuplicateCandidate, error)
	UpdateCandidate(ctx context.Context, c *model.DuplicateCandidate) error
	CaseByID(ctx context.Context, id string) (*model.Case, error)
	UpdateCase(ctx context.Context, c *model.Case) error
	CreateMergeLink(ctx context.Context, l *model.CaseMergeLink) error
}

// Request carries a reviewer's verdict on a pending candidate.
type Request struct {
	Resolution   string `json:"resolution" binding:"required"`
	Notes        string `json:"notes"`
	ReviewerID   string `json:"reviewerId" binding:"required"`
	ReviewerName string `json:"reviewerName"`
}

// Service owns the candidate review transitions: pending candidates can
// be dismissed, confirmed, or merged; anything else is final.
type Service struct {
	store Store
	log   *logrus.Entry
}

func NewService(store Store) *Service {
	return &Service{
		store: store,
		log:   logging.Module("resolve"),
	}
}

// Resolve closes a pending candidate as not-duplicate (dismissed) or
// duplicate (confirmed) and records the reviewer metadata.
func (s *Service) Resolve(ctx context.Context, id uint, req Request) (*model.DuplicateCandidate, error) {
	var status model.CandidateStatus
	switch req.Resolution {
	case model.ResolutionNotDuplicate:
		status = model.CandidateStatusDismissed
	case model.ResolutionDuplicate:
		status = model.CandidateStatusConfirmed
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidResolution, req.Resolution)
	}

	candidate, err := s.store.CandidateByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !candidate.Pending() {
		return nil, ErrNotPending
	}

	s.applyResolution(candidate, status, req.Resolution, req)
	if err := s.store.UpdateCandidate(ctx, candidate); err != nil {
		return nil, fmt.Errorf("failed to update candidate %d: %w", id, err)
	}

	s.log.WithFields(logrus.Fields{
		"candidateId": id,
		"resolution":  req.Resolution,
		"reviewer":    req.ReviewerID,
	}).Info("candidate resolved")
	return candidate, nil
}

// Merge confirms a pending candidate as a true duplicate and folds the
// second case into the first: the loser is marked superseded and a merge
// link records the operation.
func (s *Service) Merge(ctx context.Context, id uint, reviewerID, reviewerName string) (*model.DuplicateCandidate, error) {
	candidate, err := s.store.CandidateByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !candidate.Pending() {
		return nil, ErrNotPending
	}

	winner, err := s.store.CaseByID(ctx, candidate.CaseID1)
	if err != nil {
		return nil, fmt.Errorf("failed to load winning case: %w", err)
	}
	loser, err := s.store.CaseByID(ctx, candidate.CaseID2)
	if err != nil {
		return nil, fmt.Errorf("failed to load losing case: %w", err)
	}

	now := time.Now().UTC()
	loser.Status = model.CaseStatusSuperseded
	loser.SupersededBy = &winner.ID
	if err := s.store.UpdateCase(ctx, loser); err != nil {
		return nil, fmt.Errorf("failed to supersede case %s: %w", loser.ID, err)
	}

	link := &model.CaseMergeLink{
		CandidateID: candidate.ID,
		WinnerID:    winner.ID,
		LoserID:     loser.ID,
		MergedBy:    reviewerID,
		MergedAt:    now,
	}
	if err := s.store.CreateMergeLink(ctx, link); err != nil {
		return nil, fmt.Errorf("failed to record merge link: %w", err)
	}

	s.applyResolution(candidate, model.CandidateStatusMerged, model.ResolutionMerged, Request{
		ReviewerID:   reviewerID,
		ReviewerName: reviewerName,
	})
	if err := s.store.UpdateCandidate(ctx, candidate); err != nil {
		return nil, fmt.Errorf("failed to update candidate %d: %w", id, err)
	}

	s.log.WithFields(logrus.Fields{
		"candidateId": id,
		"winner":      winner.ID,
		"loser":       loser.ID,
		"reviewer":    reviewerID,
	}).Info("cases merged")
	return candidate, nil
}

func (s *Service) applyResolution(c *model.DuplicateCandidate, status model.CandidateStatus, resolution string, req Request) {
	now := time.Now().UTC()
	c.Status = status
	c.Resolution = &resolution
	c.ResolvedAt = &now
	c.ResolvedBy = &req.ReviewerID
	if req.ReviewerName != "" {
		name := req.ReviewerName
		c.ResolvedByName = &name
	}
	if req.Notes != "" {
		notes := req.Notes
		c.ResolutionNotes = &notes
	}
}
