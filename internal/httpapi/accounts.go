package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Benedict258/Tend-X/internal/auth"
	"github.com/Benedict258/Tend-X/internal/user"
)

func (s *Server) register(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		FullName string `json:"full_name" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	u, err := s.Users.Register(c.Request.Context(), req.Email, req.FullName, req.Password)
	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.issueTokens(c, u, http.StatusCreated)
}

func (s *Server) login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	u, err := s.Users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, user.ErrBadCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		s.Logger.Error("login failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	s.issueTokens(c, u, http.StatusOK)
}

func (s *Server) refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	claims, err := auth.Parse(req.RefreshToken, s.Cfg.JWTSigningKey, s.Cfg.JWTIssuer)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}
	ok, err := s.Users.RotateRefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		s.Logger.Error("refresh rotation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "refresh failed"})
		return
	}
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "refresh token expired or revoked"})
		return
	}

	s.issueTokens(c, user.User{ID: claims.UserID, Role: claims.Role}, http.StatusOK)
}

func (s *Server) issueTokens(c *gin.Context, u user.User, status int) {
	tokens, err := auth.Issue(u.ID, u.Role, s.Cfg.JWTIssuer, s.Cfg.JWTSigningKey, s.Cfg.AccessTTL, s.Cfg.RefreshTTL)
	if err != nil {
		s.Logger.Error("token issue failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
		return
	}
	if err := s.Users.SaveRefreshToken(c.Request.Context(), u.ID, tokens.RefreshToken, tokens.RefreshExp); err != nil {
		s.Logger.Warn("save refresh token failed", zap.String("user_id", u.ID), zap.Error(err))
	}

	c.JSON(status, gin.H{
		"user_id":       u.ID,
		"access_token":  tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
		"expires_at":    tokens.AccessExp.Unix(),
	})
}
