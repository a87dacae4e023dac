package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/amber/internal/budget"
	budgetdomain "github.com/smallbiznis/amber/internal/budget/domain"
	"github.com/smallbiznis/amber/internal/cache"
	"github.com/smallbiznis/amber/internal/clock"
	"github.com/smallbiznis/amber/internal/config"
	"github.com/smallbiznis/amber/internal/ingest"
	ingestdomain "github.com/smallbiznis/amber/internal/ingest/domain"
	"github.com/smallbiznis/amber/internal/ledger"
	"github.com/smallbiznis/amber/internal/observability"
	obsmiddleware "github.com/smallbiznis/amber/internal/observability/logger"
	obstracing "github.com/smallbiznis/amber/internal/observability/tracing"
	"github.com/smallbiznis/amber/internal/report"
	reportdomain "github.com/smallbiznis/amber/internal/report/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	cache.Module,
	ledger.Module,
	budget.Module,
	ingest.Module,
	report.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config) *gin.Engine {
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config) *gin.Engine {
	return NewEngine(obsCfg)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine    *gin.Engine
	cfg       config.Config
	clock     clock.Clock
	ingestSvc ingestdomain.Service
	reportSvc reportdomain.Service
	budgetSvc budgetdomain.Service
}

type ServerParams struct {
	fx.In

	Gin       *gin.Engine
	Cfg       config.Config
	Clock     clock.Clock
	IngestSvc ingestdomain.Service
	ReportSvc reportdomain.Service
	BudgetSvc budgetdomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:    p.Gin,
		cfg:       p.Cfg,
		clock:     p.Clock,
		ingestSvc: p.IngestSvc,
		reportSvc: p.ReportSvc,
		budgetSvc: p.BudgetSvc,
	}

	svc.registerAPIRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	api.POST("/uploads", s.UploadFile)
	api.GET("/uploads", s.ListUploads)

	api.GET("/reports", s.GetReport)
	api.GET("/reports/pickup", s.GetPickup)
	api.GET("/snapshots", s.ListSnapshots)

	api.GET("/budgets", s.ListBudgets)
	api.PUT("/budgets", s.PutBudgets)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}
