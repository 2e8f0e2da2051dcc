package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Benedict258/Tend-X/internal/attendance"
	"github.com/Benedict258/Tend-X/internal/auth"
	"github.com/Benedict258/Tend-X/internal/space"
)

func (s *Server) createSpace(c *gin.Context) {
	uid, _ := auth.UserID(c)

	var req struct {
		Title          string            `json:"title" binding:"required"`
		Type           string            `json:"type" binding:"required"`
		RequiredFields space.FieldSchema `json:"required_fields"`
		StartTime      *time.Time        `json:"start_time"`
		EndTime        *time.Time        `json:"end_time"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sp, err := s.Spaces.Create(c.Request.Context(), uid, space.CreateInput{
		Title:          req.Title,
		Type:           req.Type,
		RequiredFields: req.RequiredFields,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, sp)
}

func (s *Server) listSpaces(c *gin.Context) {
	uid, _ := auth.UserID(c)
	limit, offset := pageParams(c, 50)
	spaces, err := s.Spaces.List(c.Request.Context(), uid, limit, offset)
	if err != nil {
		s.Logger.Error("list spaces failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"spaces": spaces})
}

func (s *Server) getSpace(c *gin.Context) {
	uid, _ := auth.UserID(c)
	sp, err := s.Spaces.Get(c.Request.Context(), c.Param("id"), uid)
	if err != nil {
		if errors.Is(err, space.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "space not found"})
			return
		}
		s.Logger.Error("get space failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, sp)
}

func (s *Server) setSpaceStatus(c *gin.Context) {
	uid, _ := auth.UserID(c)

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := s.Spaces.SetStatus(c.Request.Context(), c.Param("id"), uid, req.Status)
	if err != nil {
		if errors.Is(err, space.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "space not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": req.Status})
}

func (s *Server) listRecords(c *gin.Context) {
	uid, _ := auth.UserID(c)
	sp, err := s.Spaces.Get(c.Request.Context(), c.Param("id"), uid)
	if err != nil {
		if errors.Is(err, space.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "space not found"})
			return
		}
		s.Logger.Error("get space failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}

	limit, offset := pageParams(c, 100)
	recs, total, err := s.Attendance.Records(c.Request.Context(), sp, limit, offset)
	if err != nil {
		s.Logger.Error("list records failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": recs, "total": total})
}

func (s *Server) exportRecords(c *gin.Context) {
	uid, _ := auth.UserID(c)
	sp, err := s.Spaces.Get(c.Request.Context(), c.Param("id"), uid)
	if err != nil {
		if errors.Is(err, space.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "space not found"})
			return
		}
		s.Logger.Error("get space failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}

	recs, _, err := s.Attendance.Records(c.Request.Context(), sp, 10000, 0)
	if err != nil {
		s.Logger.Error("export query failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}

	f, err := attendance.Export(sp, recs)
	if err != nil {
		s.Logger.Error("export render failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+attendance.ExportFilename(sp)+`"`)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := f.Write(c.Writer); err != nil {
		s.Logger.Error("export write failed", zap.Error(err))
	}
}
