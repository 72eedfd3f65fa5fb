package router

import (
	"fmt"
	"strings"

	"github.com/variant-next/internal/cache"
	"github.com/variant-next/internal/config"
	adminhandlers "github.com/variant-next/internal/http/handlers/admin"
	publichandlers "github.com/variant-next/internal/http/handlers/public"
	"github.com/variant-next/internal/logger"
	"github.com/variant-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
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
		redisPrefix = "vn"
	}
	adminLoginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:admin_login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		Message:       "too many login attempts",
	}

	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	apiV1 := r.Group("/api/v1")
	{
		// 公开接口
		public := apiV1.Group("/public")
		{
			public.GET("/products", publicHandler.GetProducts)
			public.GET("/products/:slug", publicHandler.GetProductBySlug)
			public.POST("/products/:slug/resolve", publicHandler.ResolveVariant)
		}

		// 购物车接口（匿名令牌，无需鉴权）
		cart := apiV1.Group("/cart")
		{
			cart.GET("", publicHandler.GetCart)
			cart.POST("/lines", publicHandler.MutateCartLine)
			cart.DELETE("", publicHandler.ClearCart)
		}

		// 管理员接口
		admin := apiV1.Group("/admin")
		{
			admin.POST("/login", RateLimitMiddleware(cache.Client(), adminLoginRule, KeyByIP), adminHandler.AdminLogin)

			authorized := admin.Use(AdminJWTAuthMiddleware(c.AuthService))
			{
				authorized.GET("/products/:id/overrides", adminHandler.ListOverrides)
				authorized.PUT("/products/:id/overrides", adminHandler.UpsertOverride)
				authorized.DELETE("/products/:id/overrides", adminHandler.RemoveOverride)
			}
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
