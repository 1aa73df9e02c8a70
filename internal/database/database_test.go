package database

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wellmirror/backend/config"
	"github.com/wellmirror/backend/internal/models"
)

func TestNewSQLite(t *testing.T) {
	cfg := &config.Config{
		DBDriver: "sqlite",
		DBPath:   fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()),
	}

	db, err := New(cfg)
	require.NoError(t, err)
	require.NotNil(t, db)

	require.NoError(t, RunMigrations(db))

	answer := models.GeneratedAnswer{
		UserID:       "user-1",
		Answer:       "Balanced meal overall.",
		ScorePercent: 30,
		Improvement:  "Add more vegetables.",
	}
	err = db.Create(&answer).Error
	assert.NoError(t, err)
	assert.NotZero(t, answer.ID)
}
