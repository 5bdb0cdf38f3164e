package store

import (
	"context"
	"errors"

	"github.com/pvtools/casedup/internal/core/model"
)

// ErrNotFound is returned when a case or candidate does not exist.
var ErrNotFound = errors.New("record not found")

// Store is the persistence surface for cases, duplicate candidates and
// merge links. The MySQL implementation lives in this package; consumers
// should declare the narrower interface they actually need and accept
// this through it.
type Store interface {
	CaseByID(ctx context.Context, id string) (*model.Case, error)
	CreateCase(ctx context.Context, c *model.Case) error
	UpdateCase(ctx context.Context, c *model.Case) error
	ActiveCases(ctx context.Context, excludeID string) ([]model.Case, error)

	CandidateByID(ctx context.Context, id uint) (*model.DuplicateCandidate, error)
	PendingCandidates(ctx context.Context) ([]model.DuplicateCandidate, error)
	CreateCandidate(ctx context.Context, c *model.DuplicateCandidate) error
	UpdateCandidate(ctx context.Context, c *model.DuplicateCandidate) error

	CreateMergeLink(ctx context.Context, l *model.CaseMergeLink) error

	Close() error
}
