// Package httpapi is the HTTP boundary: it binds JSON requests, calls the
// auth service and writes results or the error envelope.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/metrics"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"github.com/dmitrijs2005/gophauth/internal/server/throttle"
)

const shutdownTimeout = 10 * time.Second

// UserService is the auth core as the handlers see it.
type UserService interface {
	Register(ctx context.Context, username, password string) (*models.User, error)
	Login(ctx context.Context, username, password string) (*services.LoginResult, error)
	Profile(ctx context.Context, token string) (*models.User, error)
}

// Pinger reports database reachability for /healthz.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Options carries the collaborators and settings of a Server.
type Options struct {
	Address     string
	CORSOrigins []string
	Users       UserService
	Limiter     throttle.Limiter
	Metrics     *metrics.Metrics
	Health      Pinger
	Logger      logging.Logger
}

type Server struct {
	address string
	users   UserService
	limiter throttle.Limiter
	metrics *metrics.Metrics
	health  Pinger
	logger  logging.Logger
	router  *gin.Engine
}

func NewHTTPServer(o Options) *Server {
	s := &Server{
		address: o.Address,
		users:   o.Users,
		limiter: o.Limiter,
		metrics: o.Metrics,
		health:  o.Health,
		logger:  o.Logger.With("module", "http_server"),
	}
	if s.limiter == nil {
		s.limiter = throttle.Nop{}
	}
	if s.metrics == nil {
		s.metrics = metrics.New()
	}

	s.router = s.newRouter(o.CORSOrigins)
	return s
}

func (s *Server) newRouter(origins []string) *gin.Engine {
	router := gin.New()
	router.Use(s.requestLogger(), s.observeDuration())
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		s.logger.Error(c.Request.Context(), "panic serving request", "panic", recovered, "path", c.Request.URL.Path)
		abortWith(c, errInternal)
	}))

	if len(origins) > 0 {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = origins
		corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
		corsConfig.ExposeHeaders = []string{"Retry-After"}
		router.Use(cors.New(corsConfig))
	}

	router.GET("/", s.handleRoot)
	router.GET("/healthz", s.handleHealth)
	router.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	api := router.Group("/api")
	api.POST("/register", s.handleRegister)
	api.POST("/login", s.handleLogin)
	api.GET("/profile", s.handleProfile)

	router.NoRoute(func(c *gin.Context) {
		c.AbortWithStatusJSON(http.StatusNotFound, ErrorResponse{Error: errorBody{Kind: KindNotFound, Message: "route not found"}})
	})

	return router
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.serve(ctx, listen)
}

func (s *Server) serve(ctx context.Context, listen net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(listen)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "Stopping HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	<-errCh

	return nil
}
