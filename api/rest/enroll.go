package rest

import (
	"net/http"

	"github.com/Saadmadni84/Learning-Platform--sub002/enroll"
	"github.com/gin-gonic/gin"
)

// EnrollHandler handles the enrollment wizard validation endpoint.
type EnrollHandler struct {
	validator *enroll.Validator
}

// NewEnrollHandler creates a new EnrollHandler.
func NewEnrollHandler(v *enroll.Validator) *EnrollHandler {
	return &EnrollHandler{validator: v}
}

type validateRequest struct {
	Flow string       `json:"flow" binding:"omitempty,oneof=student educator"`
	Step int          `json:"step" binding:"required,min=1,max=3"`
	Data enroll.Input `json:"data"`
}

// Validate handles POST /api/enroll/validate.
// A failed validation is a normal response, not an HTTP error: the client
// renders the field errors inline.
func (h *EnrollHandler) Validate(c *gin.Context) {
	var req validateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	flow := enroll.Flow(req.Flow)
	if flow == "" {
		flow = enroll.FlowStudent
	}
	c.JSON(http.StatusOK, h.validator.Validate(flow, req.Step, req.Data))
}
