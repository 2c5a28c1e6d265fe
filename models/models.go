package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Stage status values
const (
	StagePending = "pending"
	StageApplied = "applied"
	StageStale   = "stale" // the file changed after it was staged
)

// Session is one migrate run over a directory
type Session struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)"`
	StartedAt time.Time `gorm:"autoCreateTime"`
	EndedAt   *time.Time

	Root   string `gorm:"type:text"`
	DryRun bool

	// Statistics
	FilesScanned  int     `gorm:"default:0"`
	FilesModified int     `gorm:"default:0"`
	Operations    int     `gorm:"default:0"`
	StagesCount   int     `gorm:"default:0"`
	AppliesCount  int     `gorm:"default:0"`
	Confidence    float64 `gorm:"type:decimal(3,2)"`

	RuleCounts    datatypes.JSON `gorm:"type:jsonb"`
	Scope         datatypes.JSON `gorm:"type:jsonb"`
	TransactionID string         `gorm:"type:varchar(36)"`

	Stages []Stage `gorm:"foreignKey:SessionID"`
}

// Stage is the migrated content of one file, kept until it is applied
type Stage struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	SessionID string `gorm:"type:varchar(36);index"`

	FilePath string `gorm:"type:text;not null"`
	Language string `gorm:"type:varchar(50);not null"`

	// Content
	Original string `gorm:"type:text"`
	Modified string `gorm:"type:text"`
	Diff     string `gorm:"type:text"`

	// Checksums for validation
	BaseDigest  string `gorm:"type:varchar(64)"` // SHA256 of original
	AfterDigest string `gorm:"type:varchar(64)"` // SHA256 of modified

	Operations int            `gorm:"default:0"`
	RuleCounts datatypes.JSON `gorm:"type:jsonb"`
	Imports    datatypes.JSON `gorm:"type:jsonb"`

	// Confidence scoring
	ConfidenceScore   float64        `gorm:"type:decimal(3,2)"`
	ConfidenceLevel   string         `gorm:"type:varchar(10)"`
	ConfidenceFactors datatypes.JSON `gorm:"type:jsonb"`

	// Status tracking
	Status    string    `gorm:"type:varchar(20);default:'pending'"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	AppliedAt *time.Time

	Apply *Apply `gorm:"foreignKey:StageID"`
}

// Apply records a stage written to disk
type Apply struct {
	ID      string `gorm:"primaryKey;type:varchar(36)"`
	StageID string `gorm:"type:varchar(36);uniqueIndex"`

	// Checksums for validation
	BaseDigest  string `gorm:"type:varchar(64)"`
	AfterDigest string `gorm:"type:varchar(64)"`

	TransactionID string    `gorm:"type:varchar(36);index"`
	AppliedBy     string    `gorm:"type:varchar(100)"`
	AppliedAt     time.Time `gorm:"autoCreateTime"`

	// Revert tracking
	Reverted   bool `gorm:"default:false"`
	RevertedAt *time.Time
}

// BeforeCreate assigns a UUID when the session has no ID
func (s *Session) BeforeCreate(*gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// BeforeCreate assigns a UUID when the stage has no ID
func (s *Stage) BeforeCreate(*gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// BeforeCreate assigns a UUID when the apply has no ID
func (a *Apply) BeforeCreate(*gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// TableName customizations for cleaner names
func (Stage) TableName() string   { return "stages" }
func (Apply) TableName() string   { return "applies" }
func (Session) TableName() string { return "sessions" }
