package detect

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pvtools/casedup/internal/core/model"
	"github.com/pvtools/casedup/internal/logging"
)

// Store is the persistence surface the scanner needs.
type Store interface {
	CaseByID(ctx context.Context, id string) (*model.Case, error)
	ActiveCases(ctx context.Context, excludeID string) ([]model.Case, error)
	CreateCandidate(ctx context.Context, c *model.DuplicateCandidate) error
}

// Scanner compares a case against all active cases and records pending
// duplicate candidates for pairs scoring at or above the floor.
type Scanner struct {
	store    Store
	minScore float64
	log      *logrus.Entry
}

func NewScanner(store Store, minScore float64) *Scanner {
	return &Scanner{
		store:    store,
		minScore: minScore,
		log:      logging.Module("detect"),
	}
}

func (s *Scanner) ScanCase(ctx context.Context, caseID string) ([]model.DuplicateCandidate, error) {
	subject, err := s.store.CaseByID(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("failed to load case %s: %w", caseID, err)
	}

	others, err := s.store.ActiveCases(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active cases: %w", err)
	}

	var found []model.DuplicateCandidate
	for i := range others {
		criteria, score := Compare(subject, &others[i])
		if score < s.minScore {
			continue
		}

		candidate := model.DuplicateCandidate{
			CaseID1:          subject.ID,
			CaseID2:          others[i].ID,
			SimilarityScore:  score,
			Status:           model.CandidateStatusPending,
			MatchingCriteria: criteria,
			DetectedAt:       time.Now().UTC(),
		}
		if err := s.store.CreateCandidate(ctx, &candidate); err != nil {
			return found, fmt.Errorf("failed to save candidate for pair (%s, %s): %w",
				subject.ID, others[i].ID, err)
		}

		s.log.WithFields(logrus.Fields{
			"caseId1": candidate.CaseID1,
			"caseId2": candidate.CaseID2,
			"score":   candidate.SimilarityScore,
		}).Info("duplicate candidate recorded")
		found = append(found, candidate)
	}

	return found, nil
}
