package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	accountdomain "github.com/zapdash/zapdash/internal/account/domain"
	"github.com/zapdash/zapdash/internal/config"
	identitydomain "github.com/zapdash/zapdash/internal/identity/domain"
	"github.com/zapdash/zapdash/internal/identity/session"
	instancedomain "github.com/zapdash/zapdash/internal/instance/domain"
	"github.com/zapdash/zapdash/internal/observability"
	obsmiddleware "github.com/zapdash/zapdash/internal/observability/logger"
	obsmetrics "github.com/zapdash/zapdash/internal/observability/metrics"
	obstracing "github.com/zapdash/zapdash/internal/observability/tracing"
	organizationdomain "github.com/zapdash/zapdash/internal/organization/domain"
	registrationdomain "github.com/zapdash/zapdash/internal/registration/domain"
	teamdomain "github.com/zapdash/zapdash/internal/team/domain"
	teardowndomain "github.com/zapdash/zapdash/internal/teardown/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(registerRoutes),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
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
	engine      *gin.Engine
	cfg         config.Config
	log         *zap.Logger
	sessions    *session.Manager
	identitySvc identitydomain.Service
	orgSvc      organizationdomain.Service
	orgRepo     organizationdomain.Repository
	regSvc      registrationdomain.Service
	teamSvc     teamdomain.Service
	accountSvc  accountdomain.Service
	instanceSvc instancedomain.Service
	teardownSvc teardowndomain.Orchestrator
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	Log         *zap.Logger
	Sessions    *session.Manager
	IdentitySvc identitydomain.Service
	OrgSvc      organizationdomain.Service
	OrgRepo     organizationdomain.Repository
	RegSvc      registrationdomain.Service
	TeamSvc     teamdomain.Service
	AccountSvc  accountdomain.Service
	InstanceSvc instancedomain.Service
	TeardownSvc teardowndomain.Orchestrator
}

func NewServer(p ServerParams) *Server {
	return &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		log:         p.Log.Named("server"),
		sessions:    p.Sessions,
		identitySvc: p.IdentitySvc,
		orgSvc:      p.OrgSvc,
		orgRepo:     p.OrgRepo,
		regSvc:      p.RegSvc,
		teamSvc:     p.TeamSvc,
		accountSvc:  p.AccountSvc,
		instanceSvc: p.InstanceSvc,
		teardownSvc: p.TeardownSvc,
	}
}

func registerRoutes(s *Server) {
	s.RegisterAPIRoutes()
}

// RegisterAPIRoutes mounts the JSON API under /api/v1.
func (s *Server) RegisterAPIRoutes() {
	api := s.engine.Group("/api/v1")

	auth := api.Group("/auth")
	auth.POST("/register", s.Register)
	auth.POST("/login", s.Login)
	auth.POST("/logout", s.Logout)
	auth.GET("/me", s.AuthRequired(), s.Me)

	private := api.Group("", s.AuthRequired())

	private.GET("/team", s.ListTeam)
	private.PATCH("/team/:memberId/role", s.UpdateMemberRole)
	private.DELETE("/team/:memberId", s.RemoveMember)

	private.DELETE("/account", s.DeleteAccount)

	private.GET("/organization", s.GetOrganization)
	private.DELETE("/organization", s.TeardownOrganization)

	private.GET("/instances", s.ListInstances)
	private.POST("/instances", s.CreateInstance)
	private.DELETE("/instances/:id", s.DeleteInstance)
	private.PUT("/instances/:id/webhook", s.SetInstanceWebhook)
	private.DELETE("/instances/:id/webhook", s.RemoveInstanceWebhook)
	private.POST("/instances/:id/connect", s.ConnectInstance)
}

func run(lc fx.Lifecycle, s *Server) {
	srv := &http.Server{
		Addr:    s.cfg.ListenAddr,
		Handler: s.engine,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					s.log.Fatal("http server failed", zap.Error(err))
				}
			}()
			s.log.Info("http server listening", zap.String("addr", s.cfg.ListenAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}
