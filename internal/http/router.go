package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/danielokoye/staffhub/internal/auth"
	"github.com/danielokoye/staffhub/internal/config"
	"github.com/danielokoye/staffhub/internal/http/handlers"
	"github.com/danielokoye/staffhub/internal/http/middlewares"
	"github.com/danielokoye/staffhub/internal/observability"
	"github.com/danielokoye/staffhub/internal/repo/postgres"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

func NewRouter(log *slog.Logger, pool *pgxpool.Pool, cfg config.Config) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Trailing slashes are significant: /employees and /employees/ are
	// different routes, no auto-redirect.
	r.RedirectTrailingSlash = false

	// metrics
	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	prom := observability.NewProm(promRegistry)

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(middlewares.RequireJSON())
	r.Use(middlewares.MaxBodyBytes(1 << 20)) // 1 MiB
	r.Use(prom.GinHandleMiddleware())
	r.Use(otelgin.Middleware("staffhub"))

	// health
	ping := func() error {
		if pool == nil {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		return pool.Ping(ctx)
	}

	h := handlers.NewHealthHandler(ping)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{})))

	// auth plumbing
	jwtManager := auth.NewManager(cfg.JWTSecret, cfg.AccessTTL(), cfg.RefreshTTL())
	authMw := middlewares.NewAuthMiddleware(jwtManager)

	var revoked auth.RevocationList

	if cfg.RedisAddr != "" {
		revoked = auth.NewRedisRevocationList(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}))
	} else {
		revoked = auth.NewMemoryRevocationList()
	}

	// wire up repositories
	usersRepo := postgres.NewUsersRepo(pool)
	refreshRepo := postgres.NewRefreshTokensRepo(pool)
	employeesRepo := postgres.NewEmployeesRepo(pool, prom)
	formsRepo := postgres.NewFormsRepo(pool, prom)

	// wire up handlers
	authHandler := handlers.NewAuthHandler(usersRepo, jwtManager, refreshRepo, revoked)
	employeesHandler := handlers.NewEmployeesHandler(employeesRepo)
	formsHandler := handlers.NewFormsHandler(formsRepo)

	// credential endpoints get a per-IP limiter, authenticated routes
	// a per-user one
	loginLimiter := middlewares.NewRateLimiter(10, time.Minute)
	userLimiter := middlewares.NewRateLimiter(120, time.Minute)

	r.POST("/register",
		loginLimiter.RateLimiterMiddleware(middlewares.KeyByIP),
		authMw.RejectAuthenticated(),
		authHandler.Register,
	)
	r.POST("/login",
		loginLimiter.RateLimiterMiddleware(middlewares.KeyByIP),
		authMw.RejectAuthenticated(),
		authHandler.Login,
	)
	r.POST("/refresh", authHandler.Refresh)
	r.POST("/logout", authHandler.Logout)

	r.POST("/change-password", authMw.RequireAuth(), userLimiter.RateLimiterMiddleware(middlewares.KeyByUserOrIP), authHandler.ChangePassword)
	r.GET("/profile", authMw.RequireAuth(), authHandler.Profile)

	employees := r.Group("/employees", authMw.RequireAuth(), userLimiter.RateLimiterMiddleware(middlewares.KeyByUserOrIP))
	{
		employees.GET("", employeesHandler.List)
		employees.POST("", employeesHandler.Create)
		employees.GET("/:id", employeesHandler.Get)
		employees.PUT("/:id", employeesHandler.Update)
		employees.PATCH("/:id", employeesHandler.Patch)
		employees.DELETE("/:id", employeesHandler.Delete)
	}

	// form definitions are admin-authored; submissions stay open
	r.POST("/form/create", authMw.RequireAuth(), authMw.RequireAdmin(), formsHandler.Create)
	r.GET("/form/:formId", formsHandler.Get)
	r.POST("/form/:formId/submit", formsHandler.SubmitResponse)

	return r
}
