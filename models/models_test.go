package models

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&Session{}, &Stage{}, &Apply{}))
	return db
}

func TestTableNames(t *testing.T) {
	assert.Equal(t, "sessions", Session{}.TableName())
	assert.Equal(t, "stages", Stage{}.TableName())
	assert.Equal(t, "applies", Apply{}.TableName())
}

func TestBeforeCreateAssignsIDs(t *testing.T) {
	db := openDB(t)
	session := &Session{
		Root:       "/src",
		DryRun:     false,
		RuleCounts: datatypes.JSON(`{"assert":3}`),
		Stages: []Stage{{
			FilePath: "/src/FooTest.java",
			Language: "java",
			Apply:    &Apply{TransactionID: uuid.NewString()},
		}},
	}
	require.NoError(t, db.Create(session).Error)

	assert.NoError(t, uuid.Validate(session.ID))
	assert.NoError(t, uuid.Validate(session.Stages[0].ID))
	assert.Equal(t, session.ID, session.Stages[0].SessionID)
	assert.Equal(t, session.Stages[0].ID, session.Stages[0].Apply.StageID)

	var stage Stage
	require.NoError(t, db.Preload("Apply").First(&stage, "id = ?", session.Stages[0].ID).Error)
	assert.Equal(t, StagePending, stage.Status)
	require.NotNil(t, stage.Apply)
	assert.False(t, stage.Apply.Reverted)

	var loaded Session
	require.NoError(t, db.First(&loaded, "id = ?", session.ID).Error)
	assert.False(t, loaded.DryRun)
	assert.JSONEq(t, `{"assert":3}`, string(loaded.RuleCounts))
}

func TestKeepsExplicitID(t *testing.T) {
	db := openDB(t)
	id := uuid.NewString()
	require.NoError(t, db.Create(&Session{ID: id, Root: "."}).Error)

	var loaded Session
	require.NoError(t, db.First(&loaded, "id = ?", id).Error)
	assert.Equal(t, ".", loaded.Root)
}

func TestApplyIsUniquePerStage(t *testing.T) {
	db := openDB(t)
	stage := &Stage{FilePath: "a.java", Language: "java"}
	require.NoError(t, db.Create(stage).Error)
	require.NoError(t, db.Create(&Apply{StageID: stage.ID}).Error)
	assert.Error(t, db.Create(&Apply{StageID: stage.ID}).Error)
}
