// Package server exposes the callable operation surface over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/wordbridge/linguameter/internal/config"
	contingentdomain "github.com/wordbridge/linguameter/internal/contingent/domain"
	identitydomain "github.com/wordbridge/linguameter/internal/identity/domain"
	"github.com/wordbridge/linguameter/internal/observability"
	obslogger "github.com/wordbridge/linguameter/internal/observability/logger"
	obsmetrics "github.com/wordbridge/linguameter/internal/observability/metrics"
	obstracing "github.com/wordbridge/linguameter/internal/observability/tracing"
	"github.com/wordbridge/linguameter/internal/period"
	translatedomain "github.com/wordbridge/linguameter/internal/translate/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

type Server struct {
	engine        *gin.Engine
	cfg           config.Config
	log           *zap.Logger
	periods       *period.Resolver
	translateSvc  translatedomain.Service
	identitySvc   identitydomain.Service
	contingentSvc contingentdomain.Service
}

type Params struct {
	fx.In

	Gin           *gin.Engine
	Cfg           config.Config
	Log           *zap.Logger
	Periods       *period.Resolver
	TranslateSvc  translatedomain.Service
	IdentitySvc   identitydomain.Service
	ContingentSvc contingentdomain.Service
}

func NewServer(p Params) *Server {
	return &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		log:           p.Log.Named("server"),
		periods:       p.Periods,
		translateSvc:  p.TranslateSvc,
		identitySvc:   p.IdentitySvc,
		contingentSvc: p.ContingentSvc,
	}
}

func (s *Server) RegisterAPIRoutes() {
	v1 := s.engine.Group("/v1")
	v1.Use(RequireUser())
	{
		v1.POST("/translate", s.Translate)
		v1.GET("/quota", s.QuotaStatus)
		v1.POST("/users", s.RegisterUser)
	}
}

func (s *Server) RegisterAdminRoutes() {
	admin := s.engine.Group("/v1/admin")
	admin.Use(RequireAdmin(s.cfg.AdminToken))
	{
		admin.GET("/usage", s.UsageReport)
		admin.GET("/identities", s.ListIdentities)
		admin.POST("/identities/promote", s.PromoteIdentities)
		admin.POST("/contingent/ensure", s.EnsureContingent)
	}
}

func RunHTTP(lc fx.Lifecycle, cfg config.Config, log *zap.Logger, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			log.Info("http server starting", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}
