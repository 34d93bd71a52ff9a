package httpserver

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"subscription-checkout/internal/domain"
	checkoutsvc "subscription-checkout/internal/service/checkout"
)

type catalogService interface {
	Load(ctx context.Context, customerID string) (*domain.ProductsList, error)
}

type checkoutService interface {
	Start(ctx context.Context, customerID string) (*checkoutsvc.Session, error)
	Get(id string) (*checkoutsvc.Session, error)
	Toggle(id, itemUUID string) (*checkoutsvc.Session, error)
	End(id string) error
}

// Deps holds the services the routes call into.
type Deps struct {
	CatalogSvc  catalogService
	CheckoutSvc checkoutService
}

// buildRouter wires routes for the API.
func buildRouter(logger *zap.Logger, db Pinger, deps Deps, corsOrigins []string) (*gin.Engine, error) {
	if deps.CatalogSvc == nil || deps.CheckoutSvc == nil {
		return nil, errors.New("httpserver: catalog and checkout services are required")
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(requestLogger(logger), gin.Recovery(), cors.New(corsConfig(corsOrigins)))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	h := &handlers{catalog: deps.CatalogSvc, checkout: deps.CheckoutSvc, logger: logger}
	router.GET("/catalog", h.getCatalog)

	sessions := router.Group("/checkout/sessions")
	sessions.POST("", h.startSession)
	sessions.GET("/:sessionID", h.getSession)
	sessions.DELETE("/:sessionID", h.endSession)
	sessions.POST("/:sessionID/items/:itemUUID/toggle", h.toggleItem)

	return router, nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	cfg.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	return cfg
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("route", c.FullPath()),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
