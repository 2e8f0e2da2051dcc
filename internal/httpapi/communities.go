package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Benedict258/Tend-X/internal/auth"
	"github.com/Benedict258/Tend-X/internal/community"
)

func (s *Server) createCommunity(c *gin.Context) {
	uid, _ := auth.UserID(c)

	var req struct {
		Name        string `json:"name" binding:"required"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cm, err := s.Communities.Create(c.Request.Context(), uid, req.Name, req.Description)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, cm)
}

func (s *Server) joinCommunity(c *gin.Context) {
	uid, _ := auth.UserID(c)
	if err := s.Communities.Join(c.Request.Context(), c.Param("id"), uid); err != nil {
		if errors.Is(err, community.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		s.Logger.Error("join failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "join failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"joined": true})
}

func (s *Server) createPost(c *gin.Context) {
	uid, _ := auth.UserID(c)

	var req struct {
		Body string `json:"body" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := s.Communities.CreatePost(c.Request.Context(), c.Param("id"), uid, req.Body)
	if err != nil {
		switch {
		case errors.Is(err, community.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, community.ErrNotMember):
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (s *Server) listPosts(c *gin.Context) {
	uid, _ := auth.UserID(c)
	limit, offset := pageParams(c, 50)

	posts, err := s.Communities.ListPosts(c.Request.Context(), c.Param("id"), uid, limit, offset)
	if err != nil {
		if errors.Is(err, community.ErrNotMember) {
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
			return
		}
		s.Logger.Error("list posts failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

func (s *Server) listNotifications(c *gin.Context) {
	uid, _ := auth.UserID(c)
	limit, offset := pageParams(c, 50)

	ns, err := s.Notify.List(c.Request.Context(), uid, limit, offset)
	if err != nil {
		s.Logger.Error("list notifications failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": ns})
}
