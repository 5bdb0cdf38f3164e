package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CandidateStatus string

const (
	CandidateStatusPending   CandidateStatus = "pending"
	CandidateStatusDismissed CandidateStatus = "dismissed"
	CandidateStatusConfirmed CandidateStatus = "confirmed"
	CandidateStatusMerged    CandidateStatus = "merged"
)

// Resolution values recorded when a reviewer closes a candidate.
const (
	ResolutionNotDuplicate = "not_duplicate"
	ResolutionDuplicate    = "duplicate"
	ResolutionMerged       = "merged"
)

// MatchingCriterion is one comparison dimension between the two cases of a
// candidate pair. Similarity is nil when the dimension could not be scored
// (for example a missing date of birth on either side).
type MatchingCriterion struct {
	Label      string   `json:"label"`
	Value1     string   `json:"value1"`
	Value2     string   `json:"value2"`
	Matched    bool     `json:"matched"`
	Similarity *float64 `json:"similarity,omitempty"`
	Weight     int      `json:"weight"`
}

// CriteriaList stores the matching criteria as a JSON column.
type CriteriaList []MatchingCriterion

func (l CriteriaList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *CriteriaList) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("cannot scan %T into CriteriaList", value)
	}
}

// DuplicateCandidate is a pair of cases flagged as potential duplicates of
// each other, together with the detection evidence and, once reviewed, the
// resolution metadata.
type DuplicateCandidate struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	CaseID1          string          `gorm:"type:varchar(36);not null;index:idx_candidate_pair" json:"caseId1"`
	CaseID2          string          `gorm:"type:varchar(36);not null;index:idx_candidate_pair" json:"caseId2"`
	SimilarityScore  float64         `gorm:"not null" json:"similarityScore"`
	Status           CandidateStatus `gorm:"type:varchar(20);default:pending;index" json:"status"`
	MatchingCriteria CriteriaList    `gorm:"type:json" json:"matchingCriteria"`
	DetectedAt       time.Time       `json:"detectedAt"`
	ResolvedBy       *string         `gorm:"type:varchar(64)" json:"resolvedBy,omitempty"`
	ResolvedByName   *string         `gorm:"type:varchar(128)" json:"resolvedByName,omitempty"`
	ResolvedAt       *time.Time      `json:"resolvedAt,omitempty"`
	Resolution       *string         `gorm:"type:varchar(32)" json:"resolution,omitempty"`
	ResolutionNotes  *string         `gorm:"type:text" json:"resolutionNotes,omitempty"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (DuplicateCandidate) TableName() string {
	return "duplicate_candidates"
}

func (c *DuplicateCandidate) Pending() bool {
	return c.Status == CandidateStatusPending
}

// CaseMergeLink records a completed merge: the losing case was superseded
// by the winning one.
type CaseMergeLink struct {
	ID          string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	CandidateID uint      `gorm:"not null;index" json:"candidateId"`
	WinnerID    string    `gorm:"type:varchar(36);not null" json:"winnerId"`
	LoserID     string    `gorm:"type:varchar(36);not null" json:"loserId"`
	MergedBy    string    `gorm:"type:varchar(64)" json:"mergedBy"`
	MergedAt    time.Time `json:"mergedAt"`
}

func (CaseMergeLink) TableName() string {
	return "case_merge_links"
}

func (l *CaseMergeLink) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}
