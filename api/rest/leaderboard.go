package rest

import (
	"context"
	"net/http"
	"strconv"

	"github.com/Saadmadni84/Learning-Platform--sub002/cache"
	"github.com/Saadmadni84/Learning-Platform--sub002/model"
	"github.com/Saadmadni84/Learning-Platform--sub002/quest"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// LeaderboardHandler handles leaderboard REST endpoints.
type LeaderboardHandler struct {
	db     *gorm.DB
	cache  cache.Cache
	logger *zap.Logger
}

// NewLeaderboardHandler creates a LeaderboardHandler.
func NewLeaderboardHandler(db *gorm.DB, c cache.Cache, logger *zap.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{db: db, cache: c, logger: logger}
}

const leaderboardTop = 100

// Entry is one row in the XP leaderboard.
type Entry struct {
	Rank   int    `json:"rank"`
	UserID string `json:"user_id"`
	XP     int64  `json:"xp"`
}

type xpRow struct {
	UserID string
	XP     int64
}

// TopXP returns the top users sorted by accumulated XP.
// GET /api/leaderboard/xp?limit=20
func (h *LeaderboardHandler) TopXP(c *gin.Context) {
	limit := 20
	if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 && l <= leaderboardTop {
		limit = l
	}

	// Try the cached sorted set first.
	ctx := c.Request.Context()
	members, err := h.cache.ZRevRange(ctx, quest.LeaderboardKey, 0, int64(limit-1))
	if err == nil && len(members) > 0 {
		entries := make([]Entry, 0, len(members))
		for i, m := range members {
			score, _ := h.cache.ZScore(ctx, quest.LeaderboardKey, m)
			entries = append(entries, Entry{
				Rank:   i + 1,
				UserID: m,
				XP:     int64(score),
			})
		}
		c.JSON(http.StatusOK, gin.H{"leaderboard": entries})
		return
	}

	// Fall back to aggregating the session table.
	rows, err := h.topFromDB(limit)
	if err != nil {
		h.logger.Error("leaderboard query failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	entries := make([]Entry, len(rows))
	for i, r := range rows {
		entries[i] = Entry{Rank: i + 1, UserID: r.UserID, XP: r.XP}
		// Refresh cache entry.
		_ = h.cache.ZAdd(ctx, quest.LeaderboardKey, float64(r.XP), r.UserID)
	}
	c.JSON(http.StatusOK, gin.H{"leaderboard": entries})
}

// Refresh rebuilds the leaderboard sorted set from the DB.
// Called periodically by the scheduler; also exposed as POST /api/admin/leaderboard/refresh.
func (h *LeaderboardHandler) Refresh(c *gin.Context) {
	n, err := h.RefreshFromDB(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"refreshed": n})
}

// RefreshFromDB repopulates the sorted set and returns the entry count.
func (h *LeaderboardHandler) RefreshFromDB(ctx context.Context) (int, error) {
	rows, err := h.topFromDB(leaderboardTop)
	if err != nil {
		return 0, err
	}
	for _, r := range rows {
		_ = h.cache.ZAdd(ctx, quest.LeaderboardKey, float64(r.XP), r.UserID)
	}
	return len(rows), nil
}

func (h *LeaderboardHandler) topFromDB(limit int) ([]xpRow, error) {
	var rows []xpRow
	err := h.db.Model(&model.QuestSessionRecord{}).
		Select("user_id, SUM(xp_earned) AS xp").
		Group("user_id").
		Order("xp DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
