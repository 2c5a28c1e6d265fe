package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/oxhq/junify/core"
	"github.com/oxhq/junify/models"
)

var (
	// ErrSessionNotFound is returned when no session matches an ID or prefix
	ErrSessionNotFound = errors.New("session not found")
	// ErrAmbiguousSession is returned when an ID prefix matches several sessions
	ErrAmbiguousSession = errors.New("session prefix is ambiguous")
)

// Journal records migration runs and writes staged files later
type Journal struct {
	db *gorm.DB
}

// NewJournal wraps an open journal database
func NewJournal(db *gorm.DB) *Journal {
	return &Journal{db: db}
}

// ApplyReport summarizes one Apply call
type ApplyReport struct {
	SessionID     string
	TransactionID string
	Applied       []string
	Stale         []string
}

// Record stores result as a session with one stage per modified file.
// Stages of a run that wrote its files are recorded as applied.
func (j *Journal) Record(ctx context.Context, op core.FileMigrateOp, result *core.FileMigrateResult) (*models.Session, error) {
	now := time.Now().UTC()
	written := !op.DryRun && result.TransactionID != ""
	session := &models.Session{
		Root:          op.Scope.Path,
		DryRun:        op.DryRun,
		EndedAt:       &now,
		FilesScanned:  result.FilesScanned,
		FilesModified: result.FilesModified,
		Operations:    result.TotalOperations,
		Confidence:    result.Confidence.Score,
		RuleCounts:    jsonColumn(result.RuleCounts),
		Scope:         jsonColumn(op.Scope),
		TransactionID: result.TransactionID,
	}

	for _, f := range result.Files {
		if !f.Modified || f.Error != "" {
			continue
		}
		stage := models.Stage{
			FilePath:          f.FilePath,
			Language:          f.Language,
			Original:          f.Original,
			Modified:          f.Result,
			Diff:              f.Diff,
			BaseDigest:        core.Checksum([]byte(f.Original)),
			AfterDigest:       core.Checksum([]byte(f.Result)),
			Operations:        f.Operations,
			RuleCounts:        jsonColumn(f.RuleCounts),
			Imports:           jsonColumn(f.Imports),
			ConfidenceScore:   f.Confidence.Score,
			ConfidenceLevel:   f.Confidence.Level,
			ConfidenceFactors: jsonColumn(f.Confidence.Factors),
			Status:            models.StagePending,
		}
		if written {
			stage.Status = models.StageApplied
			stage.AppliedAt = &now
			stage.Apply = &models.Apply{
				BaseDigest:    stage.BaseDigest,
				AfterDigest:   stage.AfterDigest,
				TransactionID: result.TransactionID,
				AppliedBy:     "migrate",
			}
		}
		session.Stages = append(session.Stages, stage)
	}
	session.StagesCount = len(session.Stages)
	if written {
		session.AppliesCount = len(session.Stages)
	}

	if err := j.db.WithContext(ctx).Create(session).Error; err != nil {
		return nil, fmt.Errorf("record session: %w", err)
	}
	return session, nil
}

// Sessions returns the latest sessions, newest first, without their stages
func (j *Journal) Sessions(ctx context.Context, limit int) ([]models.Session, error) {
	var sessions []models.Session
	q := j.db.WithContext(ctx).Order("started_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// Session loads the session whose ID is or starts with id, with its stages
func (j *Journal) Session(ctx context.Context, id string) (*models.Session, error) {
	var matches []models.Session
	err := j.db.WithContext(ctx).
		Preload("Stages", func(db *gorm.DB) *gorm.DB { return db.Order("file_path") }).
		Preload("Stages.Apply").
		Where("id = ? OR id LIKE ?", id, id+"%").
		Limit(2).
		Find(&matches).Error
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	for i := range matches {
		if matches[i].ID == id {
			return &matches[i], nil
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	case 1:
		return &matches[0], nil
	}
	return nil, fmt.Errorf("%w: %s", ErrAmbiguousSession, id)
}

// Apply writes the pending stages of session id inside one file
// transaction of tm. A stage whose file no longer has the staged base
// digest is marked stale and skipped.
func (j *Journal) Apply(ctx context.Context, id string, tm *core.TransactionManager) (*ApplyReport, error) {
	session, err := j.Session(ctx, id)
	if err != nil {
		return nil, err
	}
	report := &ApplyReport{SessionID: session.ID}

	var pending, stale []*models.Stage
	for i := range session.Stages {
		s := &session.Stages[i]
		if s.Status != models.StagePending {
			continue
		}
		current, err := os.ReadFile(s.FilePath)
		if err != nil || core.Checksum(current) != s.BaseDigest {
			stale = append(stale, s)
			report.Stale = append(report.Stale, s.FilePath)
			continue
		}
		pending = append(pending, s)
	}

	if len(pending) > 0 {
		tx, err := tm.Begin(fmt.Sprintf("apply session %s", session.ID))
		if err != nil {
			return nil, fmt.Errorf("begin transaction: %w", err)
		}
		for _, s := range pending {
			if err := ctx.Err(); err != nil {
				return nil, rollback(tm, err)
			}
			if err := tm.Replace(s.FilePath, []byte(s.Modified)); err != nil {
				return nil, rollback(tm, fmt.Errorf("write %s: %w", s.FilePath, err))
			}
			report.Applied = append(report.Applied, s.FilePath)
		}
		if err := tm.Commit(); err != nil {
			return nil, fmt.Errorf("commit transaction: %w", err)
		}
		report.TransactionID = tx.ID
	}

	now := time.Now().UTC()
	err = j.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, s := range stale {
			if err := tx.Model(s).Update("status", models.StageStale).Error; err != nil {
				return err
			}
		}
		for _, s := range pending {
			if err := tx.Model(s).Updates(map[string]any{"status": models.StageApplied, "applied_at": now}).Error; err != nil {
				return err
			}
			apply := &models.Apply{
				StageID:       s.ID,
				BaseDigest:    s.BaseDigest,
				AfterDigest:   s.AfterDigest,
				TransactionID: report.TransactionID,
				AppliedBy:     "apply",
			}
			if err := tx.Create(apply).Error; err != nil {
				return err
			}
		}
		if len(pending) == 0 {
			return nil
		}
		return tx.Model(session).Updates(map[string]any{
			"applies_count":  gorm.Expr("applies_count + ?", len(pending)),
			"transaction_id": report.TransactionID,
		}).Error
	})
	if err != nil {
		return report, fmt.Errorf("update journal: %w", err)
	}
	return report, nil
}

// MarkReverted flags every apply of transaction txID as reverted
func (j *Journal) MarkReverted(ctx context.Context, txID string) (int64, error) {
	now := time.Now().UTC()
	res := j.db.WithContext(ctx).Model(&models.Apply{}).
		Where("transaction_id = ? AND reverted = ?", txID, false).
		Updates(map[string]any{"reverted": true, "reverted_at": now})
	if res.Error != nil {
		return 0, fmt.Errorf("mark reverted: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func rollback(tm *core.TransactionManager, cause error) error {
	if err := tm.Rollback(); err != nil {
		return errors.Join(cause, fmt.Errorf("rollback: %w", err))
	}
	return cause
}

func jsonColumn(v any) datatypes.JSON {
	data, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("null")
	}
	return datatypes.JSON(data)
}
