package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Benedict258/Tend-X/internal/attendance"
	"github.com/Benedict258/Tend-X/internal/auth"
	"github.com/Benedict258/Tend-X/internal/space"
)

// resolveCheckin resolves a check-in code and, when the space is accepting,
// returns the ordered form schema plus best-effort identity prefill.
func (s *Server) resolveCheckin(c *gin.Context) {
	res, err := s.Spaces.Resolve(c.Request.Context(), c.Param("code"))
	if err != nil {
		if errors.Is(err, space.ErrInvalidCode) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		s.Logger.Error("resolve failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}

	switch res.State {
	case space.StateNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
	case space.StateRejected:
		c.JSON(http.StatusConflict, gin.H{
			"error":  "session not accepting submissions",
			"reason": res.Reason,
			"title":  res.Space.Title,
		})
	default:
		body := gin.H{
			"space": gin.H{
				"id":    res.Space.ID,
				"title": res.Space.Title,
				"type":  res.Space.Type,
			},
			"fields": attendance.FormSchema(res.Space.RequiredFields),
		}
		// Prefill is purely best-effort; an unauthenticated visitor or a
		// failed profile lookup just means no prefill block.
		if uid, ok := auth.UserID(c); ok {
			if p := s.Users.Profile(c.Request.Context(), uid); p != nil {
				body["prefill"] = p
			}
		}
		c.JSON(http.StatusOK, body)
	}
}

// submitCheckin validates and writes one attendance record.
func (s *Server) submitCheckin(c *gin.Context) {
	var req struct {
		Fields map[string]string `json:"fields" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var userID *string
	if uid, ok := auth.UserID(c); ok {
		userID = &uid
	}

	rec, err := s.Attendance.Submit(c.Request.Context(), c.Param("code"), userID, req.Fields)
	if err != nil {
		var verr *attendance.ValidationError
		var rej *space.RejectedError
		switch {
		case errors.Is(err, space.ErrInvalidCode):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, space.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		case errors.As(err, &rej):
			c.JSON(http.StatusConflict, gin.H{"error": "session not accepting submissions", "reason": rej.Reason})
		case errors.As(err, &verr):
			c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": verr.Fields})
		default:
			s.Logger.Error("submission failed", zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"error": "submission failed, please try again"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"record_id":    rec.ID,
		"space_id":     rec.SpaceID,
		"submitted_at": rec.SubmittedAt,
	})
}
