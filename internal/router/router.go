package router

import (
	"fmt"
	"strings"

	"github.com/freshbasket/freshbasket/internal/cache"
	"github.com/freshbasket/freshbasket/internal/config"
	adminhandlers "github.com/freshbasket/freshbasket/internal/http/handlers/admin"
	publichandlers "github.com/freshbasket/freshbasket/internal/http/handlers/public"
	"github.com/freshbasket/freshbasket/internal/logger"
	"github.com/freshbasket/freshbasket/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter wires middleware and the API surface.
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)

	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "fb"
	}
	intakeRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:order_intake", redisPrefix),
		WindowSeconds: cfg.Security.IntakeRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.IntakeRateLimit.MaxRequests,
	}

	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	apiV1 := r.Group("/api/v1")
	{
		orders := apiV1.Group("/orders")
		{
			orders.POST("", RateLimitMiddleware(cache.Client(), intakeRule, KeyByIPAndJSONField("guest_email")), publicHandler.CreateOrder)
			orders.GET("/:order_no", publicHandler.GetOrder)
			orders.POST("/webhook/payment", publicHandler.PaymentWebhook)
			orders.POST("/substitution/:order_no/items/:item_id/respond", publicHandler.RespondSubstitution)
		}

		delivery := apiV1.Group("/delivery")
		{
			delivery.GET("/slots", publicHandler.ListDeliverySlots)
			delivery.GET("/zones/match", publicHandler.MatchDeliveryZone)
		}

		admin := apiV1.Group("/admin")
		admin.Use(AdminJWTMiddleware(cfg.AdminJWT.SecretKey))
		{
			admin.GET("/orders", adminHandler.ListOrders)
			admin.GET("/orders/:order_no", adminHandler.GetOrder)
			admin.PATCH("/orders/:order_no/status", adminHandler.UpdateOrderStatus)
			admin.POST("/orders/:order_no/items/:item_id/substitute", adminHandler.OfferSubstitute)

			admin.GET("/slots", adminHandler.ListSlots)
			admin.POST("/slots/generate", adminHandler.GenerateSlots)
			admin.PUT("/slots/:id", adminHandler.UpdateSlot)

			admin.POST("/vouchers", adminHandler.CreateVoucher)
			admin.GET("/vouchers", adminHandler.ListVouchers)
			admin.GET("/vouchers/:id", adminHandler.GetVoucher)
			admin.PUT("/vouchers/:id", adminHandler.UpdateVoucher)
			admin.DELETE("/vouchers/:id", adminHandler.DeleteVoucher)

			admin.POST("/zones", adminHandler.CreateZone)
			admin.GET("/zones", adminHandler.ListZones)
			admin.GET("/zones/:id", adminHandler.GetZone)
			admin.PUT("/zones/:id", adminHandler.UpdateZone)
			admin.DELETE("/zones/:id", adminHandler.DeleteZone)
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
