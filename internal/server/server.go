// Package server wires the HTTP surface: routing, request decoding and the
// mapping from domain errors to wire responses.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cedarforestgiant/swimmeret/internal/config"
	guardraildomain "github.com/cedarforestgiant/swimmeret/internal/guardrail/domain"
	incidentdomain "github.com/cedarforestgiant/swimmeret/internal/incident/domain"
	"github.com/cedarforestgiant/swimmeret/internal/observability/logger"
	"github.com/cedarforestgiant/swimmeret/internal/observability/metrics"
	pooldomain "github.com/cedarforestgiant/swimmeret/internal/pool/domain"
	telemetrydomain "github.com/cedarforestgiant/swimmeret/internal/telemetry/domain"
	verificationdomain "github.com/cedarforestgiant/swimmeret/internal/verification/domain"
)

type Server struct {
	cfg    config.Config
	log    *zap.Logger
	db     *gorm.DB
	engine *gin.Engine

	incidentSvc     incidentdomain.Service
	telemetrySvc    telemetrydomain.Service
	verificationSvc verificationdomain.Service
	poolSvc         pooldomain.Service
	guardrailSvc    guardraildomain.Service

	limiter *rateLimiter
}

// EngineParam collects engine middleware dependencies.
type EngineParam struct {
	fx.In

	Config      config.Config
	Log         *zap.Logger
	HTTPMetrics *metrics.HTTPMetrics
}

// NewEngine builds the gin engine with recovery, request logging and
// metrics middleware.
func NewEngine(p EngineParam) *gin.Engine {
	if p.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":  "Server error",
			"detail": fmt.Sprint(recovered),
		})
	}))
	engine.Use(logger.GinMiddleware(logger.MiddlewareConfig{
		Logger:    p.Log,
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	engine.Use(metrics.GinMiddleware(p.HTTPMetrics))
	return engine
}

type ServerParam struct {
	fx.In

	Config config.Config
	Log    *zap.Logger
	DB     *gorm.DB
	Engine *gin.Engine

	IncidentSvc     incidentdomain.Service
	TelemetrySvc    telemetrydomain.Service
	VerificationSvc verificationdomain.Service
	PoolSvc         pooldomain.Service
	GuardrailSvc    guardraildomain.Service
}

func NewServer(p ServerParam) *Server {
	return &Server{
		cfg:    p.Config,
		log:    p.Log.Named("server"),
		db:     p.DB,
		engine: p.Engine,

		incidentSvc:     p.IncidentSvc,
		telemetrySvc:    p.TelemetrySvc,
		verificationSvc: p.VerificationSvc,
		poolSvc:         p.PoolSvc,
		guardrailSvc:    p.GuardrailSvc,

		limiter: newRateLimiter(60, time.Minute),
	}
}

// RegisterAPIRoutes binds the public API surface.
func (s *Server) RegisterAPIRoutes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.engine.GET("/metrics", metrics.Handler())

	api := s.engine.Group("/api")

	stability := api.Group("/stability", s.rateLimit())
	stability.POST("/incidents", s.CreateIncident)
	stability.POST("/usage-snapshot", s.CreateUsageSnapshot)
	stability.POST("/verify", s.VerifyUser)

	api.POST("/guardrails/apply", s.rateLimit(), s.ApplyGuardrails)

	pools := api.Group("/pools")
	pools.POST("/join", s.rateLimit(), s.JoinPool)
	pools.POST("/:poolId/pledge", s.rateLimit(), s.CreatePledge)
	pools.GET("/:poolId", s.GetPoolAggregate)
	pools.GET("/slug/:slug", s.GetPoolAggregateBySlug)

	api.GET("/lab/pools/:poolId", s.GetLabPoolAggregate)

	if !s.cfg.IsProduction() {
		api.POST("/test/cleanup", s.TestCleanup)
	}
}

// RunHTTP starts the HTTP server under the fx lifecycle.
func RunHTTP(lc fx.Lifecycle, s *Server) {
	srv := &http.Server{
		Addr:              s.cfg.HTTPAddr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			s.log.Info("http server starting", zap.String("addr", s.cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					s.log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

func (s *Server) rateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.limiter.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
			return
		}
		c.Next()
	}
}
