package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/mslee98/crawl-back/internal/adapters/transport/http/dto"
	"github.com/mslee98/crawl-back/internal/app/auth/service"
	"github.com/mslee98/crawl-back/internal/app/crawl"
	customErrors "github.com/mslee98/crawl-back/internal/domain/auth/errors"
	"github.com/mslee98/crawl-back/internal/domain/auth/jwt"
	logx "github.com/mslee98/crawl-back/internal/infra/log"
	"github.com/mslee98/crawl-back/internal/infra/validate"
	"go.uber.org/zap"
)

const healthTimeout = 2 * time.Second

// HealthCheck is a named dependency probed by GET /health.
type HealthCheck struct {
	Name string
	Ping func(context.Context) error
}

type Handler struct {
	svc     service.Service
	crawler crawl.Fetcher
	v       *validator.Validate
	log     *zap.Logger
	checks  []HealthCheck
}

func NewHandler(
	svc service.Service,
	crawler crawl.Fetcher,
	v *validator.Validate,
	log *zap.Logger,
	checks ...HealthCheck,
) *Handler {
	return &Handler{svc: svc, crawler: crawler, v: v, log: log, checks: checks}
}

// Register mounts the routes. gate guards /auth/me, authLimit guards signup and login.
func (h *Handler) Register(r gin.IRouter, gate, authLimit gin.HandlerFunc) {
	auth := r.Group("/auth")
	auth.POST("/signup", authLimit, h.signup)
	auth.POST("/login", authLimit, h.login)
	auth.POST("/refresh", h.refresh)
	auth.POST("/logout", h.logout)
	auth.GET("/me", gate, h.me)

	cr := r.Group("/crawl")
	cr.POST("/start", h.crawlStart)
	cr.GET("/status", h.crawlStatus)

	r.GET("/health", h.health)
}

func (h *Handler) signup(c *gin.Context) {
	var body dto.SignupDTO
	if !bind(c, &body) {
		return
	}
	h.log.Info("/auth/signup", logx.Digest("login", body.ID))

	acc, err := h.svc.Signup(c.Request.Context(), body)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, acc)
}

func (h *Handler) login(c *gin.Context) {
	var body dto.LoginDTO
	if !bind(c, &body) {
		return
	}
	h.log.Info("/auth/login", logx.Digest("login", body.ID))

	res, err := h.svc.Login(c.Request.Context(), body)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"bearerToken":  res.BearerToken,
		"refreshToken": res.RefreshToken,
		"expiresIn":    int(res.ExpiresIn.Seconds()),
		"account":      res.Account,
	})
}

func (h *Handler) refresh(c *gin.Context) {
	var body dto.RefreshDTO
	if !bind(c, &body) {
		return
	}
	res, err := h.svc.Refresh(c.Request.Context(), body)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"bearerToken": res.BearerToken,
		"expiresIn":   int(res.ExpiresIn.Seconds()),
	})
}

func (h *Handler) logout(c *gin.Context) {
	var body dto.LogoutDTO
	if !bind(c, &body) {
		return
	}
	if err := h.svc.Logout(c.Request.Context(), body); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (h *Handler) me(c *gin.Context) {
	claims, ok := jwt.ClaimsFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	acc, err := h.svc.GetProfile(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, acc)
}

func (h *Handler) crawlStart(c *gin.Context) {
	var body dto.CrawlDTO
	if !bind(c, &body) {
		return
	}
	if err := validate.Struct(h.v, body); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.crawler.Crawl(c.Request.Context(), body.URL, body.Selector))
}

func (h *Handler) crawlStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.crawler.Status())
}

func (h *Handler) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	code := http.StatusOK
	checks := make(gin.H, len(h.checks))
	for _, hc := range h.checks {
		if err := hc.Ping(ctx); err != nil {
			h.log.Warn("health check failed", zap.String("check", hc.Name), zap.Error(err))
			checks[hc.Name] = "down"
			code = http.StatusServiceUnavailable
			continue
		}
		checks[hc.Name] = "ok"
	}

	status := "ok"
	if code != http.StatusOK {
		status = "degraded"
	}
	c.JSON(code, gin.H{"status": status, "checks": checks, "time": time.Now().Unix()})
}

func bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		writeError(c, customErrors.NewInvalidArgument("malformed request body"))
		return false
	}
	return true
}
