package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"sync"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kapu/interview-teleprompter-go/internal/command"
	"github.com/kapu/interview-teleprompter-go/internal/constants"
	"github.com/kapu/interview-teleprompter-go/internal/metrics"
	"github.com/kapu/interview-teleprompter-go/internal/profile"
	"github.com/kapu/interview-teleprompter-go/internal/service/conversation"
	"github.com/kapu/interview-teleprompter-go/internal/service/knowledge"
	"github.com/kapu/interview-teleprompter-go/internal/util"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

type Config struct {
	Addr string
	// Port and PublicHost build the pairing URL shown in the QR code.
	Port           int
	PublicHost     string
	AllowedOrigins []string
	Debug          bool
}

// Deps are the services behind the HTTP surface.
type Deps struct {
	Registry        *command.Registry
	Session         *conversation.Session
	Profile         *profile.Profile
	Catalog         *knowledge.Catalog
	Hub             *Hub
	Metrics         *metrics.Metrics
	CheckMicrophone func() (string, error)
	Clock           util.Clock
}

type Server struct {
	cfg        Config
	deps       Deps
	engine     *gin.Engine
	httpServer *http.Server
	logger     *zap.Logger

	shutdownOnce sync.Once
	shutdownErr  error
}

func New(cfg Config, deps Deps, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Registry == nil || deps.Session == nil || deps.Profile == nil || deps.Catalog == nil {
		return nil, fmt.Errorf("server: registry, session, profile and catalog are required")
	}
	if deps.Hub == nil {
		deps.Hub = NewHub(deps.Metrics, logger)
	}
	if deps.Clock == nil {
		deps.Clock = util.SystemClock
	}

	if !cfg.Debug && gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	tmpl, err := template.ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	engine := gin.New()
	engine.Use(recovery(logger))
	engine.Use(requestLogger(logger))
	engine.Use(cors.New(corsConfig(cfg.AllowedOrigins)))
	engine.SetHTMLTemplate(tmpl)

	s := &Server{
		cfg:    cfg,
		deps:   deps,
		engine: engine,
		logger: logger,
	}
	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      engine,
		ReadTimeout:  constants.ServerConfig.ReadTimeout,
		WriteTimeout: constants.ServerConfig.WriteTimeout,
	}
	s.setupRoutes()
	return s, nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	cfg.AllowWebSockets = true
	if len(origins) == 0 || util.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}

func (s *Server) setupRoutes() {
	s.engine.GET("/", s.handleIndex)
	s.engine.GET("/healthz", s.handleHealth)
	s.engine.GET("/favicon.ico", s.handleFavicon)
	s.engine.GET("/metrics", gin.WrapH(s.deps.Metrics.Handler()))
	s.engine.GET("/ws", s.handleFeed)

	api := s.engine.Group("/api")
	{
		api.GET("/references", s.handleListReferences)
		api.GET("/references/:id", s.handleGetReference)
		api.GET("/personal_work", s.handleListPersonalWork)
		api.GET("/personal_work/:id", s.handleGetPersonalWork)
		api.POST("/ask", s.handleAsk)
	}

	tp := api.Group("/teleprompter")
	{
		tp.POST("/start", s.handleStart)
		tp.POST("/stop", s.handleStop)
		tp.GET("/status", s.handleStatus)
		tp.GET("/conversation", s.handleConversation)
		tp.GET("/response", s.handleResponse)
		tp.GET("/qr", s.handleQR)
		tp.GET("/check_microphone", s.handleCheckMicrophone)
		tp.POST("/check_microphone", s.handleCheckMicrophone)
		tp.POST("/start_listening", s.handleStartListening)
		tp.POST("/stop_listening", s.handleStopListening)
	}
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) Hub() *Hub {
	return s.deps.Hub
}

// Serve listens until ctx is cancelled or the listener fails.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}
	return s.ServeListener(ctx, ln)
}

func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	s.logger.Info("HTTP server listening",
		zap.String("addr", ln.Addr().String()),
		zap.String("pairing_url", PairingURL(s.cfg.PublicHost, s.cfg.Port)),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ServerConfig.ShutdownTimeout)
		defer cancel()
		if err := s.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

// Shutdown closes feed clients and drains requests. Later calls return the
// first call's result.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(func() {
		s.deps.Hub.Close()
		if err := s.httpServer.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.shutdownErr = fmt.Errorf("http shutdown: %w", err)
			return
		}
		s.logger.Info("HTTP server stopped")
	})
	return s.shutdownErr
}
