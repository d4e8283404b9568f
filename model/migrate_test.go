package model_test

import (
	"testing"
	"time"

	"github.com/Saadmadni84/Learning-Platform--sub002/model"
	"github.com/Saadmadni84/Learning-Platform--sub002/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestAutoMigrateAndCRUD(t *testing.T) {
	db := testutil.SetupTestDB(t)

	acc := model.Account{
		Email:        "alice@example.com",
		PasswordHash: "hash",
		DisplayName:  "Alice",
		Role:         model.RoleStudent,
		Status:       1,
	}
	require.NoError(t, db.Create(&acc).Error)
	assert.NotZero(t, acc.ID)

	// Email is unique.
	dup := model.Account{Email: "alice@example.com", PasswordHash: "x", Role: model.RoleStudent}
	assert.Error(t, db.Create(&dup).Error)

	rec := model.QuestSessionRecord{
		SessionID:       "qs_test-1",
		UserID:          "user-1",
		Title:           "Learning Quest",
		Difficulty:      "easy",
		Objectives:      datatypes.JSON(`[{"id":"obj-1","completed":false}]`),
		Goals:           datatypes.JSON(`["algebra"]`),
		TotalObjectives: 3,
		StartedAt:       time.Now().UTC(),
	}
	require.NoError(t, db.Create(&rec).Error)

	var got model.QuestSessionRecord
	require.NoError(t, db.Where("user_id = ?", "user-1").First(&got).Error)
	assert.Equal(t, "qs_test-1", got.SessionID)
	assert.JSONEq(t, `["algebra"]`, string(got.Goals))
}
