package model

import (
	"time"

	"gorm.io/datatypes"
)

// QuestSessionRecord is the persisted form of a quest session.
// Objectives and goals are stored as JSON blobs; the progress counters are
// columns so the leaderboard and admin views can query them directly.
type QuestSessionRecord struct {
	SessionID           string         `gorm:"primaryKey;size:40" json:"session_id"`
	UserID              string         `gorm:"index:idx_quest_user;size:64;not null" json:"user_id"`
	Title               string         `gorm:"size:128" json:"title"`
	Difficulty          string         `gorm:"size:16;not null" json:"difficulty"`
	Objectives          datatypes.JSON `json:"objectives"`
	Goals               datatypes.JSON `json:"goals"` // accepted at start, not yet consumed
	CurrentObjectiveIdx int            `gorm:"default:0" json:"current_objective_index"`
	CompletedObjectives int            `gorm:"default:0" json:"completed_objectives"`
	TotalObjectives     int            `gorm:"not null" json:"total_objectives"`
	XPEarned            int            `gorm:"default:0" json:"xp_earned"`
	Points              int            `gorm:"default:0" json:"points"`
	StartedAt           time.Time      `gorm:"not null" json:"started_at"`
	UpdatedAt           time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}
