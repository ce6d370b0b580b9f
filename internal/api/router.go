package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/marketfresh/checkoutapi/internal/api/handlers"
	"github.com/marketfresh/checkoutapi/internal/api/middleware"
	"github.com/marketfresh/checkoutapi/internal/config"
	"github.com/marketfresh/checkoutapi/internal/repository/postgres"
	"github.com/marketfresh/checkoutapi/internal/service"
)

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, repos *postgres.Repositories, checkout *service.CheckoutService, logger *zap.Logger) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(loggingMiddleware(logger))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1 routes
	v1 := router.Group("/v1")
	{
		sessions := v1.Group("/checkout-sessions")
		sessions.Use(middleware.AuthMiddleware(repos, logger))
		{
			sessions.POST("", handlers.HandleStartSession(checkout, logger))
			sessions.GET("/:id", handlers.HandleGetSession(checkout, logger))
			sessions.POST("/:id/refresh", handlers.HandleRefreshSession(checkout, logger))

			sessions.POST("/:id/addresses", handlers.HandleCreateAddress(checkout, logger))
			sessions.DELETE("/:id/addresses/:addressId", handlers.HandleDeleteAddress(checkout, logger))
			sessions.PUT("/:id/address", handlers.HandleSelectAddress(checkout, logger))
			sessions.PUT("/:id/date", handlers.HandleSelectDate(checkout, logger))
			sessions.PUT("/:id/payment-method", handlers.HandleSelectPaymentMethod(checkout, logger))

			sessions.POST("/:id/discounts", handlers.HandleAddDiscount(checkout, logger))
			sessions.DELETE("/:id/discounts/:discountId", handlers.HandleRemoveDiscount(checkout, logger))
			sessions.PUT("/:id/balance", handlers.HandleToggleBalance(checkout, logger))

			sessions.POST("/:id/cards", handlers.HandleCreateCard(checkout, logger))
			sessions.DELETE("/:id/cards/:customerId", handlers.HandleDeleteCard(checkout, logger))

			sessions.POST("/:id/cvv", handlers.HandleProvideCvv(checkout, logger))
			sessions.POST("/:id/submit", handlers.HandleSubmit(checkout, logger))
		}
	}

	return router
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		status := c.Writer.Status()
		logger.Info("HTTP request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
		)
	}
}
