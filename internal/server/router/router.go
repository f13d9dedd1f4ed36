package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockbook/internal/server/handlers"
)

// New wires the Gin engine with required routes and middlewares. The chat
// handler and metrics handler are optional and their routes are skipped when nil.
func New(shop *handlers.InventoryHandler, chat *handlers.ChatHandler, metrics http.Handler, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if metrics != nil {
		r.GET("/metrics", gin.WrapH(metrics))
	}

	api := r.Group("/api")
	{
		api.GET("/stock", shop.ListStock)
		api.GET("/stock/low", shop.LowStock)
		api.GET("/stock/:id", shop.GetItem)

		api.GET("/purchases", shop.ListPurchases)
		api.POST("/purchases", shop.CreatePurchase)
		api.GET("/purchases/:id", shop.GetPurchase)
		api.PUT("/purchases/:id", shop.UpdatePurchase)
		api.DELETE("/purchases/:id", shop.DeletePurchase)

		api.GET("/sales", shop.ListSales)
		api.POST("/sales", shop.CreateSale)
		api.GET("/sales/:id", shop.GetSale)
		api.PUT("/sales/:id", shop.UpdateSale)
		api.DELETE("/sales/:id", shop.DeleteSale)

		api.GET("/reports/daily", shop.DailyReport)
		api.GET("/reports/daily/export", shop.ExportDailyReport)
	}

	if chat != nil {
		r.GET("/webhook", chat.Subscribe)
		r.POST("/webhook", chat.Commands)
		r.POST("/send-message", chat.Send)
	}

	if logger != nil {
		logger.Info("router initialized", zap.Bool("whatsapp", chat != nil), zap.Bool("metrics", metrics != nil))
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
