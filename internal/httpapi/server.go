// Package httpapi wires the gin routes for the Tend-X API.
package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Benedict258/Tend-X/internal/attendance"
	"github.com/Benedict258/Tend-X/internal/auth"
	"github.com/Benedict258/Tend-X/internal/community"
	"github.com/Benedict258/Tend-X/internal/config"
	"github.com/Benedict258/Tend-X/internal/httpmiddleware"
	"github.com/Benedict258/Tend-X/internal/notify"
	"github.com/Benedict258/Tend-X/internal/space"
	"github.com/Benedict258/Tend-X/internal/user"
)

// SpaceService is the space surface the handlers need.
type SpaceService interface {
	Create(ctx context.Context, ownerID string, in space.CreateInput) (space.Space, error)
	Resolve(ctx context.Context, code string) (space.Resolution, error)
	Get(ctx context.Context, id, ownerID string) (space.Space, error)
	List(ctx context.Context, ownerID string, limit, offset int) ([]space.Space, error)
	SetStatus(ctx context.Context, id, ownerID, status string) error
}

// AttendanceService is the submission surface the handlers need.
type AttendanceService interface {
	Submit(ctx context.Context, code string, userID *string, values map[string]string) (attendance.Record, error)
	Records(ctx context.Context, sp space.Space, limit, offset int) ([]attendance.Record, int64, error)
}

// UserService is the account surface the handlers need.
type UserService interface {
	Register(ctx context.Context, email, fullName, password string) (user.User, error)
	Login(ctx context.Context, email, password string) (user.User, error)
	Profile(ctx context.Context, id string) *user.Profile
	SaveRefreshToken(ctx context.Context, userID, token string, expiresAt time.Time) error
	RotateRefreshToken(ctx context.Context, token string) (bool, error)
}

// CommunityService is the community surface the handlers need.
type CommunityService interface {
	Create(ctx context.Context, ownerID, name, description string) (community.Community, error)
	Join(ctx context.Context, communityID, userID string) error
	CreatePost(ctx context.Context, communityID, authorID, body string) (community.Post, error)
	ListPosts(ctx context.Context, communityID, userID string, limit, offset int) ([]community.Post, error)
}

// NotifyService is the notification surface the handlers need.
type NotifyService interface {
	List(ctx context.Context, userID string, limit, offset int) ([]notify.Notification, error)
}

// Health reports liveness of a backing dependency.
type Health func(ctx context.Context) bool

// Server holds handler dependencies.
type Server struct {
	Cfg         config.App
	Logger      *zap.Logger
	Spaces      SpaceService
	Attendance  AttendanceService
	Users       UserService
	Communities CommunityService
	Notify      NotifyService
	DBHealthy   Health
	RedisOK     Health
}

// Router builds the gin engine with all middleware and routes.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(corsMiddleware())
	r.Use(securityHeaders())
	r.Use(httpmiddleware.NewSimpleTokenBucket(s.Cfg.RateLimitPerMin, s.Cfg.RateLimitPerMin).GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", s.health)

	v1 := r.Group("/v1")
	{
		v1.POST("/auth/register", s.register)
		v1.POST("/auth/login", s.login)
		v1.POST("/auth/refresh", s.refresh)

		// Check-in is public; a bearer token is honored when present so the
		// submitter's identity can prefill the form and tag the record.
		checkin := v1.Group("/checkin", auth.Optional(s.Cfg.JWTSigningKey, s.Cfg.JWTIssuer))
		checkin.GET("/:code", s.resolveCheckin)
		checkin.POST("/:code", s.submitCheckin)

		authed := v1.Group("", auth.Require(s.Cfg.JWTSigningKey, s.Cfg.JWTIssuer))
		{
			authed.POST("/spaces", s.createSpace)
			authed.GET("/spaces", s.listSpaces)
			authed.GET("/spaces/:id", s.getSpace)
			authed.PATCH("/spaces/:id/status", s.setSpaceStatus)
			authed.GET("/spaces/:id/records", s.listRecords)
			authed.GET("/spaces/:id/export", s.exportRecords)

			authed.POST("/communities", s.createCommunity)
			authed.POST("/communities/:id/join", s.joinCommunity)
			authed.POST("/communities/:id/posts", s.createPost)
			authed.GET("/communities/:id/posts", s.listPosts)

			authed.GET("/notifications", s.listNotifications)
		}
	}

	return r
}

func (s *Server) health(c *gin.Context) {
	dbOK := s.DBHealthy == nil || s.DBHealthy(c.Request.Context())
	redisOK := s.RedisOK == nil || s.RedisOK(c.Request.Context())
	status := http.StatusOK
	if !dbOK || !redisOK {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"status": "ok", "db": dbOK, "redis": redisOK})
}

// CORS middleware for browser requests
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}

// pageParams reads limit/offset query values with defaults.
func pageParams(c *gin.Context, defLimit int) (int, int) {
	limit, offset := defLimit, 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}
	return limit, offset
}
