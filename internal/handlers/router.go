package handlers

import (
	"net/http"

	"linksnap/internal/services"

	"github.com/gin-gonic/gin"
)

func (h *Handler) SetupRouter(rateLimiter *services.IPRateLimiter, metricsHandler http.Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	if rateLimiter != nil {
		r.Use(h.RateLimitMiddleware(rateLimiter))
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	if metricsHandler != nil {
		r.GET("/metrics", gin.WrapH(metricsHandler))
	}

	auth := r.Group("/api/v1/auth")
	{
		auth.POST("/register", h.RegisterUser)
		auth.POST("/login", h.LoginUser)
		auth.POST("/refresh", h.RefreshToken)
		auth.POST("/logout", h.LogoutUser)
	}

	api := r.Group("/api/v1")
	api.Use(h.AuthRequired())
	{
		api.POST("/links", h.CreateLink)
		api.GET("/links", h.ListLinks)
		api.GET("/links/export", h.ExportLinks)
		api.POST("/links/bulk-delete", h.BulkDeleteLinks)
		api.GET("/links/:id", h.GetLink)
		api.PUT("/links/:id", h.UpdateLink)
		api.DELETE("/links/:id", h.DeleteLink)
		api.GET("/links/:id/qr", h.LinkQRCode)

		api.GET("/redirects", h.RedirectFeed)
		api.GET("/stream", h.Stream)

		analytics := api.Group("/analytics")
		{
			analytics.GET("/summary", h.AnalyticsSummary)
			analytics.GET("/clicks", h.AnalyticsClicks)
			analytics.GET("/devices", h.AnalyticsBreakdown("device"))
			analytics.GET("/browsers", h.AnalyticsBreakdown("browser"))
			analytics.GET("/referrers", h.AnalyticsBreakdown("referrer"))
			analytics.GET("/countries", h.AnalyticsBreakdown("country"))
			analytics.GET("/links/:id", h.AnalyticsLink)
			analytics.GET("/export", h.AnalyticsExport)
		}
	}

	// Catch-all slug redirect
	r.GET("/:slug", h.Redirect)

	return r
}
