package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/kapu/interview-teleprompter-go/internal/audio"
	"github.com/kapu/interview-teleprompter-go/internal/capture"
	"github.com/kapu/interview-teleprompter-go/internal/command"
	"github.com/kapu/interview-teleprompter-go/internal/config"
	"github.com/kapu/interview-teleprompter-go/internal/constants"
	"github.com/kapu/interview-teleprompter-go/internal/domain"
	"github.com/kapu/interview-teleprompter-go/internal/ipc"
	"github.com/kapu/interview-teleprompter-go/internal/metrics"
	"github.com/kapu/interview-teleprompter-go/internal/profile"
	"github.com/kapu/interview-teleprompter-go/internal/server"
	"github.com/kapu/interview-teleprompter-go/internal/service/cache"
	"github.com/kapu/interview-teleprompter-go/internal/service/conversation"
	"github.com/kapu/interview-teleprompter-go/internal/service/database"
	"github.com/kapu/interview-teleprompter-go/internal/service/knowledge"
	"github.com/kapu/interview-teleprompter-go/internal/service/nlu"
	"github.com/kapu/interview-teleprompter-go/internal/service/stt"
)

// Container bundles the assembled services of one teleprompter process.
type Container struct {
	Config *config.Config
	Logger *zap.Logger

	Metrics   *metrics.Metrics
	Profile   *profile.Profile
	Session   *conversation.Session
	Responder *nlu.Responder
	Catalog   *knowledge.Catalog
	STT       *stt.Manager
	Capture   *capture.Controller
	Registry  *command.Registry
	Server    *server.Server
	Control   *ipc.Server

	closers []func()
}

// Build assembles every service. Optional backends are only contacted when
// enabled in cfg; a failure there aborts the build and releases whatever was
// already opened.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (container *Container, err error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var closers []func()
	defer func() {
		if err != nil {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		}
	}()

	m := metrics.New()

	p, err := loadProfile(cfg.Profile)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	responder := nlu.NewResponder(p, logger,
		nlu.WithCache(nlu.NewAnswerCache(constants.ResponseCacheConfig.Size, constants.ResponseCacheConfig.TTL)),
		nlu.WithMetrics(m),
	)

	session := conversation.NewSession(p.Name, logger)
	session.Subscribe(&entryGauge{metrics: m, log: session.Log()})

	// Conversation mirror
	if cfg.Redis.Enabled {
		cacheSvc, cacheErr := cache.NewCacheService(cache.CacheConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, logger)
		if cacheErr != nil {
			return nil, fmt.Errorf("failed to create cache service: %w", cacheErr)
		}
		closers = append(closers, func() {
			_ = cacheSvc.Close()
		})
		session.Subscribe(conversation.NewMirror(cacheSvc, m, logger))
	}

	// Reference catalog
	var primary knowledge.Source
	if cfg.Postgres.Enabled {
		postgresSvc, pgErr := database.NewPostgresService(database.PostgresConfig{
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			Database: cfg.Postgres.Database,
		}, logger)
		if pgErr != nil {
			return nil, fmt.Errorf("failed to create postgres service: %w", pgErr)
		}
		closers = append(closers, func() {
			_ = postgresSvc.Close()
		})

		repo := knowledge.NewRepository(postgresSvc, p.Name, logger)
		if err = repo.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("failed to prepare reference schema: %w", err)
		}
		primary = repo
	}
	catalog := knowledge.NewCatalog(primary, knowledge.NewStaticSource(p), logger)

	// Capture stack
	captureCfg := capture.Config{
		Responder:    responder,
		Session:      session,
		Metrics:      m,
		SampleRate:   constants.CaptureConfig.SampleRate,
		ErrorBackoff: constants.CaptureConfig.ErrorBackoff,
	}
	var sttManager *stt.Manager
	if cfg.Capture.Enabled {
		sttManager, err = buildSTT(ctx, cfg, m, logger)
		if err != nil {
			return nil, err
		}
		captureCfg.Transcriber = sttManager
		captureCfg.Recorder = audio.NewRecorder(audio.RecorderConfig{
			Segmenter: audio.SegmenterConfig{
				SampleRate:       constants.CaptureConfig.SampleRate,
				FrameSize:        constants.CaptureConfig.FrameSize,
				SilenceRMS:       cfg.Capture.SilenceRMS,
				SilenceHang:      constants.CaptureConfig.SilenceHang,
				MinSpeechSamples: constants.CaptureConfig.MinSpeechSamples,
			},
			ListenTimeout:   cfg.Capture.ListenTimeout,
			PhraseTimeLimit: cfg.Capture.PhraseTimeLimit,
		}, logger)
	} else {
		logger.Info("Audio capture disabled; typed questions only")
	}
	controller := capture.NewController(captureCfg, logger)

	registry := command.NewDefaultRegistry(&command.Dependencies{
		Controller: controller,
		Session:    session,
		Responder:  responder,
		Metrics:    m,
		Logger:     logger,
	})

	hub := server.NewHub(m, logger)
	session.Subscribe(hub)

	httpServer, err := server.New(server.Config{
		Addr:           cfg.Addr(),
		Port:           cfg.Server.Port,
		PublicHost:     cfg.Server.PublicHost,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Debug:          cfg.Server.Debug,
	}, server.Deps{
		Registry:        registry,
		Session:         session,
		Profile:         p,
		Catalog:         catalog,
		Hub:             hub,
		Metrics:         m,
		CheckMicrophone: audio.CheckMicrophone,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create http server: %w", err)
	}

	control := ipc.NewServer(cfg.Control.SocketPath, ControlHandler(registry), logger)

	logger.Info("Teleprompter assembled",
		zap.String("profile", p.Name),
		zap.String("session_id", session.ID()),
		zap.Bool("capture", controller.Enabled()),
		zap.Bool("redis_mirror", cfg.Redis.Enabled),
		zap.Bool("postgres_references", cfg.Postgres.Enabled),
		zap.Int("commands", registry.Count()),
	)

	return &Container{
		Config:    cfg,
		Logger:    logger,
		Metrics:   m,
		Profile:   p,
		Session:   session,
		Responder: responder,
		Catalog:   catalog,
		STT:       sttManager,
		Capture:   controller,
		Registry:  registry,
		Server:    httpServer,
		Control:   control,
		closers:   closers,
	}, nil
}

// loadProfile prefers an external profile file over the built-in name.
func loadProfile(cfg config.ProfileConfig) (*profile.Profile, error) {
	if cfg.File != "" {
		return profile.LoadFile(cfg.File)
	}
	return profile.Load(cfg.Name)
}

// buildSTT wires OpenAI as primary and Gemini as fallback. Either may be
// missing; the manager promotes whichever one exists.
func buildSTT(ctx context.Context, cfg *config.Config, m *metrics.Metrics, logger *zap.Logger) (*stt.Manager, error) {
	var primary, fallback stt.Transcriber

	if openAI := stt.NewOpenAITranscriber(stt.OpenAIConfig{
		APIKey:   cfg.STT.OpenAI.APIKey,
		Model:    cfg.STT.OpenAI.Model,
		BaseURL:  cfg.STT.OpenAI.BaseURL,
		Language: cfg.STT.Language,
	}, logger); openAI != nil {
		primary = openAI
	}

	gemini, err := stt.NewGeminiTranscriber(ctx, stt.GeminiConfig{
		APIKey:   cfg.STT.Gemini.APIKey,
		Model:    cfg.STT.Gemini.Model,
		Language: cfg.STT.Language,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini transcriber: %w", err)
	}
	if gemini != nil {
		fallback = gemini
	}

	manager, err := stt.NewManager(stt.ManagerConfig{
		Primary:        primary,
		Fallback:       fallback,
		EnableFallback: cfg.STT.EnableFallback,
		Metrics:        m,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech-to-text manager: %w", err)
	}
	return manager, nil
}

// ControlHandler routes control socket messages through the command registry.
func ControlHandler(registry *command.Registry) ipc.Handler {
	return func(ctx context.Context, msg ipc.ControlMessage) (*domain.CommandResult, error) {
		return registry.Execute(ctx, domain.NewCommandContext("ipc", msg.Params), msg.Cmd)
	}
}

// Start serves HTTP and control traffic until ctx ends or either server fails.
// With AutoStart set the capture loop is started first.
func (c *Container) Start(ctx context.Context) error {
	if err := c.Control.Listen(); err != nil {
		return fmt.Errorf("failed to open control socket: %w", err)
	}

	if c.Config.Capture.AutoStart && c.Capture.Enabled() {
		res, err := c.Registry.Execute(ctx, domain.NewCommandContext("autostart", nil), "start")
		if err != nil {
			c.Logger.Warn("Auto-start failed", zap.Error(err))
		} else {
			c.Logger.Info("Auto-start", zap.String("result", res.Message))
		}
	}

	p := pool.New().WithContext(ctx).WithCancelOnError()
	p.Go(func(ctx context.Context) error {
		return c.Server.Serve(ctx)
	})
	p.Go(func(ctx context.Context) error {
		return c.Control.Serve(ctx)
	})
	return p.Wait()
}

// Shutdown stops capture before the servers; backends are closed last.
func (c *Container) Shutdown(ctx context.Context) error {
	var errs []error

	if c.Capture.Stop() {
		c.Logger.Info("Capture loop stopped for shutdown")
	}
	if err := c.Server.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := c.Control.Close(); err != nil {
		errs = append(errs, fmt.Errorf("control socket: %w", err))
	}
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil

	return errors.Join(errs...)
}

// entryGauge keeps the conversation size gauge in step with the log.
type entryGauge struct {
	metrics *metrics.Metrics
	log     *conversation.Log
}

func (g *entryGauge) EntryAppended(string, domain.ConversationEntry) {
	g.metrics.SetConversationEntries(g.log.Len())
}

func (g *entryGauge) StatusChanged(domain.ListeningStatus) {}
