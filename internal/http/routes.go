package http

import (
	"time"

	"ekehi_engine/internal/http/handlers"
	"ekehi_engine/internal/http/middleware"
	"ekehi_engine/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouteConfig carries the request limits and CORS origin of the API.
type RouteConfig struct {
	AllowedOrigin   string
	APIRateLimit    int
	APIRateWindow   time.Duration
	ClaimRateLimit  int
	ClaimRateWindow time.Duration
	AdminUserIDs    []int64
}

func RegisterRoutes(r *gin.Engine, h *handlers.Handler, health *handlers.HealthHandler, hub *ws.Hub, cfg RouteConfig) {
	// Health checks (no rate limiting)
	r.GET("/health", health.Health)
	r.GET("/healthz", health.Liveness)
	r.GET("/readyz", health.Readiness)

	// Prometheus metrics
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Engine event stream
	if hub != nil {
		r.GET("/ws", ws.HandleWS(hub, cfg.AllowedOrigin))
	}

	api := r.Group("/api/v1")
	api.Use(middleware.APIRateLimit(cfg.APIRateLimit, cfg.APIRateWindow))

	// public
	api.GET("/leaderboard", h.GetLeaderboard)

	auth := api.Group("")
	auth.Use(middleware.JWT())

	claimLimit := middleware.ClaimRateLimit(cfg.ClaimRateLimit, cfg.ClaimRateWindow)

	auth.GET("/me", h.Me)
	auth.GET("/history", h.History)
	auth.GET("/profile/:id", h.Profile)
	auth.GET("/leaderboard/rank", h.GetMyRank)

	mining := auth.Group("/mining")
	mining.GET("/session", h.SessionState)
	mining.POST("/session/start", h.StartSession)
	mining.POST("/session/claim", claimLimit, h.ClaimSession)
	mining.POST("/session/stop", h.StopSession)
	mining.GET("/rate", h.MiningRate)

	ads := auth.Group("/ads")
	ads.GET("/status", h.AdStatus)
	ads.POST("/watched", claimLimit, h.AdWatched)

	referral := auth.Group("/referral")
	referral.GET("/code", h.GetReferralCode)
	referral.GET("/link", h.GetReferralLink)
	referral.GET("/stats", h.GetReferralStats)
	referral.POST("/apply", claimLimit, h.ApplyReferralCode)

	achievements := auth.Group("/achievements")
	achievements.GET("", h.ListAchievements)
	achievements.POST("/:id/claim", claimLimit, h.ClaimAchievement)
	achievements.POST("/:id/submit", h.SubmitSocial)

	presale := auth.Group("/presale")
	presale.GET("/purchases", h.ListPurchases)
	presale.POST("/purchases", h.CreatePurchase)

	// admin
	admin := auth.Group("/admin")
	admin.Use(middleware.RequireAdmin(cfg.AdminUserIDs))
	admin.GET("/stats", h.AdminStats)
	admin.GET("/social/submissions", h.AdminListSubmissions)
	admin.POST("/social/submissions/:id/verify", h.AdminVerifySubmission)
	admin.POST("/social/submissions/:id/reject", h.AdminRejectSubmission)
	admin.GET("/presale/purchases", h.AdminPendingPurchases)
	admin.POST("/presale/purchases/:id/complete", h.AdminCompletePurchase)
	admin.POST("/presale/purchases/:id/reject", h.AdminRejectPurchase)
	admin.GET("/users/:id/audit", h.AdminUserAudit)
}
