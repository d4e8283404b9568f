package rest

import (
	"net/http"
	"strconv"

	"github.com/Saadmadni84/Learning-Platform--sub002/audit"
	mw "github.com/Saadmadni84/Learning-Platform--sub002/middleware"
	"github.com/Saadmadni84/Learning-Platform--sub002/model"
	"github.com/Saadmadni84/Learning-Platform--sub002/queststore"
	"github.com/Saadmadni84/Learning-Platform--sub002/scheduler"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AdminHandler handles admin-only REST endpoints.
// Routes should be protected by AdminAuth middleware.
type AdminHandler struct {
	db       *gorm.DB
	stores   *queststore.Manager
	sched    *scheduler.Scheduler
	activity *audit.Service
	logger   *zap.Logger
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(
	db *gorm.DB,
	stores *queststore.Manager,
	sched *scheduler.Scheduler,
	activity *audit.Service,
	logger *zap.Logger,
) *AdminHandler {
	return &AdminHandler{db: db, stores: stores, sched: sched, activity: activity, logger: logger}
}

// Metrics returns server health metrics.
// GET /api/admin/metrics
func (h *AdminHandler) Metrics(c *gin.Context) {
	var sessionCount int64
	h.db.Model(&model.QuestSessionRecord{}).Count(&sessionCount)
	c.JSON(http.StatusOK, gin.H{
		"live_stores":     h.stores.Count(),
		"active_users":    len(h.stores.ActiveUsers()),
		"total_sessions":  sessionCount,
		"scheduler_tasks": h.sched.ListTickers(),
	})
}

// ListActiveQuests returns the users with an active quest session.
// GET /api/admin/quests/active
func (h *AdminHandler) ListActiveQuests(c *gin.Context) {
	users := h.stores.ActiveUsers()
	type activeQuest struct {
		UserID     string `json:"user_id"`
		SessionID  string `json:"session_id"`
		Difficulty string `json:"difficulty"`
		Completed  int    `json:"completed_objectives"`
		Total      int    `json:"total_objectives"`
	}
	result := make([]activeQuest, 0, len(users))
	for _, id := range users {
		st := h.stores.Peek(id)
		if st == nil {
			continue
		}
		snap := st.Snapshot()
		if snap.Session == nil {
			continue
		}
		result = append(result, activeQuest{
			UserID:     id,
			SessionID:  snap.Session.SessionID,
			Difficulty: string(snap.Session.Difficulty),
			Completed:  snap.Session.Progress.CompletedObjectives,
			Total:      snap.Session.Progress.TotalObjectives,
		})
	}
	c.JSON(http.StatusOK, gin.H{"quests": result, "count": len(result)})
}

// BanAccount bans or unbans a platform account.
// POST /api/admin/accounts/:id/ban
func (h *AdminHandler) BanAccount(c *gin.Context) {
	accountID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req struct {
		Ban bool `json:"ban"`
	}
	_ = c.ShouldBindJSON(&req)

	status := 1
	if req.Ban {
		status = 0
	}
	result := h.db.Model(&model.Account{}).Where("id = ?", accountID).Update("status", status)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
		return
	}

	if h.activity != nil {
		h.activity.Log(audit.Entry{
			TraceID:   mw.GetTraceID(c),
			AccountID: &accountID,
			Action:    audit.ActionAccountBan,
			Request:   req,
			IP:        c.ClientIP(),
		})
	}
	h.logger.Info("admin updated account status",
		zap.Int64("account_id", accountID), zap.Int("status", status))
	c.JSON(http.StatusOK, gin.H{"ok": true, "status": status})
}

// ListSchedulerTasks returns names of all registered ticker tasks.
// GET /api/admin/scheduler
func (h *AdminHandler) ListSchedulerTasks(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tasks": h.sched.ListTickers()})
}

// AdminAuth returns a middleware that checks the X-Admin-Key header.
// WARNING: if adminKey is empty all admin endpoints are disabled (503) so the
// server cannot be accidentally deployed without protection. Set a non-empty
// server.admin_key in config to enable admin routes.
func AdminAuth(adminKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if adminKey == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable,
				gin.H{"error": "admin endpoints disabled: set server.admin_key in config"})
			return
		}
		key := c.GetHeader("X-Admin-Key")
		if key != adminKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}
