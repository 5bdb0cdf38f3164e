package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CaseStatus string

const (
	CaseStatusActive     CaseStatus = "active"
	CaseStatusSuperseded CaseStatus = "superseded"
)

// Case is an adverse-event safety report record.
type Case struct {
	ID              string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	SafetyReportID  string     `gorm:"type:varchar(64);index" json:"safetyReportId"`
	PatientInitials string     `gorm:"type:varchar(16)" json:"patientInitials"`
	PatientDOB      *time.Time `json:"patientDob,omitempty"`
	PatientSex      string     `gorm:"type:varchar(16)" json:"patientSex"`
	Country         string     `gorm:"type:varchar(8)" json:"country"`
	SuspectDrug     string     `gorm:"type:varchar(255)" json:"suspectDrug"`
	Reactions       StringList `gorm:"type:json" json:"reactions"`
	Narrative       string     `gorm:"type:text" json:"narrative"`
	ReceivedAt      time.Time  `json:"receivedAt"`
	Status          CaseStatus `gorm:"type:varchar(20);default:active;index" json:"status"`
	SupersededBy    *string    `gorm:"type:varchar(36)" json:"supersededBy,omitempty"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Case) TableName() string {
	return "cases"
}

func (c *Case) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// CaseSummary is the minimal projection served to the detail view panels.
type CaseSummary struct {
	CaseID          string `json:"caseId"`
	SafetyReportID  string `json:"safetyReportId"`
	PatientInitials string `json:"patientInitials"`
}

func (c *Case) Summary() *CaseSummary {
	return &CaseSummary{
		CaseID:          c.ID,
		SafetyReportID:  c.SafetyReportID,
		PatientInitials: c.PatientInitials,
	}
}

// StringList stores a slice of strings as a JSON column.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *StringList) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("cannot scan %T into StringList", value)
	}
}
