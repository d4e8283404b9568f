package quest

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/Saadmadni84/Learning-Platform--sub002/cache"
	"github.com/Saadmadni84/Learning-Platform--sub002/model"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrSessionNotFound is returned when no persisted session matches an id.
var ErrSessionNotFound = errors.New("quest: session not found")

// LeaderboardKey is the sorted set holding per-user accumulated XP.
const LeaderboardKey = "leaderboard:xp"

// ProgressChannel returns the pub/sub channel carrying progress events for a user.
func ProgressChannel(userID string) string {
	return "quest:progress:" + userID
}

// StartRequest is the inbound start-quest payload.
type StartRequest struct {
	UserID     string   `json:"user_id" binding:"required"`
	Difficulty string   `json:"difficulty"`
	Goals      []string `json:"goals"`
}

// ProgressEvent is published on every advance.
type ProgressEvent struct {
	SessionID   string   `json:"session_id"`
	UserID      string   `json:"user_id"`
	ObjectiveID string   `json:"objective_id"`
	Progress    Progress `json:"progress"`
	Completed   bool     `json:"completed"`
}

// Service owns quest session construction and progression, persisting
// sessions through gorm and fanning progress out to the cache leaderboard
// and the pub/sub progress channel.
type Service struct {
	db     *gorm.DB
	cache  cache.Cache
	pubsub cache.PubSub
	logger *zap.Logger
}

// NewService creates a quest Service.
func NewService(db *gorm.DB, c cache.Cache, ps cache.PubSub, logger *zap.Logger) *Service {
	return &Service{db: db, cache: c, pubsub: ps, logger: logger}
}

// Initialize builds a new session from a start request and persists it.
func (svc *Service) Initialize(ctx context.Context, req StartRequest) (*Session, error) {
	difficulty, err := ParseDifficulty(req.Difficulty)
	if err != nil {
		return nil, err
	}
	s, err := NewSession(req.UserID, difficulty, req.Goals)
	if err != nil {
		return nil, err
	}

	record, err := recordFromSession(s, req.Goals)
	if err != nil {
		return nil, err
	}
	if err := svc.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, err
	}

	svc.logger.Info("quest session started",
		zap.String("session_id", s.SessionID),
		zap.String("user_id", s.UserID),
		zap.String("difficulty", string(s.Difficulty)))
	return s, nil
}

// Get loads a persisted session by id.
func (svc *Service) Get(ctx context.Context, sessionID string) (*Session, error) {
	var record model.QuestSessionRecord
	err := svc.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return sessionFromRecord(&record)
}

// Advance applies a progress mutation to a persisted session: marks the
// objective complete, accumulates the deltas, saves the result, refreshes
// the leaderboard, and publishes a progress event.
func (svc *Service) Advance(ctx context.Context, sessionID, objectiveID string, xpDelta, pointsDelta int) (*Session, error) {
	s, err := svc.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.Advance(objectiveID, xpDelta, pointsDelta); err != nil {
		return nil, err
	}

	objectivesJSON, err := json.Marshal(s.Objectives)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{
		"objectives":            datatypes.JSON(objectivesJSON),
		"current_objective_idx": s.Progress.CurrentObjectiveIndex,
		"completed_objectives":  s.Progress.CompletedObjectives,
		"xp_earned":             s.Progress.XPEarned,
		"points":                s.Progress.Points,
	}
	if err := svc.db.WithContext(ctx).Model(&model.QuestSessionRecord{}).
		Where("session_id = ?", sessionID).Updates(updates).Error; err != nil {
		return nil, err
	}

	svc.refreshLeaderboard(ctx, s.UserID)
	svc.publishProgress(ctx, s, objectiveID)

	if s.Completed() {
		svc.logger.Info("quest session completed",
			zap.String("session_id", s.SessionID),
			zap.String("user_id", s.UserID),
			zap.Int("xp_earned", s.Progress.XPEarned))
	}
	return s, nil
}

// TotalXP returns the user's XP summed over all their sessions.
func (svc *Service) TotalXP(ctx context.Context, userID string) (int64, error) {
	var total int64
	err := svc.db.WithContext(ctx).Model(&model.QuestSessionRecord{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(xp_earned), 0)").
		Scan(&total).Error
	return total, err
}

func (svc *Service) refreshLeaderboard(ctx context.Context, userID string) {
	if svc.cache == nil {
		return
	}
	total, err := svc.TotalXP(ctx, userID)
	if err != nil {
		svc.logger.Warn("leaderboard refresh failed", zap.Error(err))
		return
	}
	_ = svc.cache.ZAdd(ctx, LeaderboardKey, float64(total), userID)
}

func (svc *Service) publishProgress(ctx context.Context, s *Session, objectiveID string) {
	if svc.pubsub == nil {
		return
	}
	payload, _ := json.Marshal(ProgressEvent{
		SessionID:   s.SessionID,
		UserID:      s.UserID,
		ObjectiveID: objectiveID,
		Progress:    s.Progress,
		Completed:   s.Completed(),
	})
	if err := svc.pubsub.Publish(ctx, ProgressChannel(s.UserID), string(payload)); err != nil {
		svc.logger.Warn("progress publish failed", zap.Error(err))
	}
}

func recordFromSession(s *Session, goals []string) (*model.QuestSessionRecord, error) {
	objectivesJSON, err := json.Marshal(s.Objectives)
	if err != nil {
		return nil, err
	}
	if goals == nil {
		goals = []string{}
	}
	goalsJSON, err := json.Marshal(goals)
	if err != nil {
		return nil, err
	}
	return &model.QuestSessionRecord{
		SessionID:           s.SessionID,
		UserID:              s.UserID,
		Title:               s.Title,
		Difficulty:          string(s.Difficulty),
		Objectives:          datatypes.JSON(objectivesJSON),
		Goals:               datatypes.JSON(goalsJSON),
		CurrentObjectiveIdx: s.Progress.CurrentObjectiveIndex,
		CompletedObjectives: s.Progress.CompletedObjectives,
		TotalObjectives:     s.Progress.TotalObjectives,
		XPEarned:            s.Progress.XPEarned,
		Points:              s.Progress.Points,
		StartedAt:           s.Progress.StartedAt,
	}, nil
}

func sessionFromRecord(r *model.QuestSessionRecord) (*Session, error) {
	var objectives []Objective
	if err := json.Unmarshal(r.Objectives, &objectives); err != nil {
		return nil, err
	}
	return &Session{
		SessionID:  r.SessionID,
		UserID:     r.UserID,
		Title:      r.Title,
		Difficulty: Difficulty(r.Difficulty),
		Objectives: objectives,
		Progress: Progress{
			CurrentObjectiveIndex: r.CurrentObjectiveIdx,
			CompletedObjectives:   r.CompletedObjectives,
			TotalObjectives:       r.TotalObjectives,
			XPEarned:              r.XPEarned,
			Points:                r.Points,
			StartedAt:             r.StartedAt,
		},
	}, nil
}
