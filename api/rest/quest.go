package rest

import (
	"errors"
	"net/http"

	"github.com/Saadmadni84/Learning-Platform--sub002/audit"
	mw "github.com/Saadmadni84/Learning-Platform--sub002/middleware"
	"github.com/Saadmadni84/Learning-Platform--sub002/quest"
	"github.com/Saadmadni84/Learning-Platform--sub002/queststore"
	"github.com/gin-gonic/gin"
)

// QuestHandler handles quest session REST endpoints.
type QuestHandler struct {
	svc      *quest.Service
	stores   *queststore.Manager
	activity *audit.Service
}

// NewQuestHandler creates a new QuestHandler.
func NewQuestHandler(svc *quest.Service, stores *queststore.Manager, activity *audit.Service) *QuestHandler {
	return &QuestHandler{svc: svc, stores: stores, activity: activity}
}

// Start handles POST /api/quests/start.
// Response: {"success": true, "session": {...}} or {"success": false, "error": "..."}.
func (h *QuestHandler) Start(c *gin.Context) {
	var req quest.StartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "user_id is required"})
		return
	}

	store := h.stores.ForUser(req.UserID)
	store.StartInitialization()

	session, err := h.svc.Initialize(c.Request.Context(), req)
	if err != nil {
		store.SetError(err.Error())
		status := http.StatusBadRequest
		if !errors.Is(err, quest.ErrMissingUserID) && !errors.Is(err, quest.ErrInvalidDifficulty) {
			status = http.StatusInternalServerError
		}
		c.JSON(status, gin.H{"success": false, "error": err.Error()})
		return
	}
	store.SetSession(session)

	if h.activity != nil {
		h.activity.Log(audit.Entry{
			TraceID:   mw.GetTraceID(c),
			UserID:    req.UserID,
			SessionID: session.SessionID,
			Action:    audit.ActionQuestStart,
			Request:   req,
			IP:        c.ClientIP(),
		})
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "session": session})
}

// Current handles GET /api/quests/current?user_id=<id>.
// Returns the caller's store snapshot: status, session (may be nil), error.
func (h *QuestHandler) Current(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}
	store := h.stores.Peek(userID)
	if store == nil {
		c.JSON(http.StatusOK, queststore.Snapshot{Status: queststore.StatusIdle})
		return
	}
	c.JSON(http.StatusOK, store.Snapshot())
}

type advanceRequest struct {
	SessionID   string `json:"session_id" binding:"required"`
	ObjectiveID string `json:"objective_id" binding:"required"`
	XP          int    `json:"xp"`
	Points      int    `json:"points"`
}

// Advance handles POST /api/quests/advance.
func (h *QuestHandler) Advance(c *gin.Context) {
	var req advanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	session, err := h.svc.Advance(c.Request.Context(), req.SessionID, req.ObjectiveID, req.XP, req.Points)
	switch {
	case errors.Is(err, quest.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "session not found"})
		return
	case errors.Is(err, quest.ErrUnknownObjective), errors.Is(err, quest.ErrNegativeDelta):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal error"})
		return
	}

	// Reflect the new progress into the user's store, if one is live.
	if store := h.stores.Peek(session.UserID); store != nil {
		p := session.Progress
		store.UpdateProgress(queststore.ProgressPatch{
			CurrentObjectiveIndex: &p.CurrentObjectiveIndex,
			CompletedObjectives:   &p.CompletedObjectives,
			XPEarned:              &p.XPEarned,
			Points:                &p.Points,
		})
	}

	if h.activity != nil {
		h.activity.Log(audit.Entry{
			TraceID:   mw.GetTraceID(c),
			UserID:    session.UserID,
			SessionID: session.SessionID,
			Action:    audit.ActionQuestAdvance,
			Request:   req,
			IP:        c.ClientIP(),
		})
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "session": session})
}

type resetRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// Reset handles POST /api/quests/reset: returns the user's store to idle.
func (h *QuestHandler) Reset(c *gin.Context) {
	var req resetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}
	if store := h.stores.Peek(req.UserID); store != nil {
		store.Reset()
	}
	c.JSON(http.StatusOK, gin.H{"status": "reset"})
}
