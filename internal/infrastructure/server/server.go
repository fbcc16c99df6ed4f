package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	api "github.com/GriffinCanCode/WidgetArcade/backend/internal/api/http"
	"github.com/GriffinCanCode/WidgetArcade/backend/internal/api/middleware"
	"github.com/GriffinCanCode/WidgetArcade/backend/internal/api/ws"
	"github.com/GriffinCanCode/WidgetArcade/backend/internal/companion"
	"github.com/GriffinCanCode/WidgetArcade/backend/internal/domain/host"
	"github.com/GriffinCanCode/WidgetArcade/backend/internal/domain/manifest"
	"github.com/GriffinCanCode/WidgetArcade/backend/internal/domain/script"
	"github.com/GriffinCanCode/WidgetArcade/backend/internal/domain/session"
	"github.com/GriffinCanCode/WidgetArcade/backend/internal/domain/shell"
	"github.com/GriffinCanCode/WidgetArcade/backend/internal/infrastructure/config"
	"github.com/GriffinCanCode/WidgetArcade/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/WidgetArcade/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/WidgetArcade/backend/internal/plugins/core"
)

// Options overrides what NewServer would otherwise build from config
type Options struct {
	Logger     *logging.Logger
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// Server wires the shell, its plugins and the frontend API together
type Server struct {
	config  *config.Config
	logger  *logging.Logger
	metrics *monitoring.Metrics

	shell   *shell.Shell
	loader  *host.Loader
	session *session.Store
	bridge  *companion.Bridge
	hub     *ws.Hub
	router  *gin.Engine

	mu       sync.Mutex
	httpSrv  *http.Server       // Protected by mu
	cancel   context.CancelFunc // Protected by mu
	unbind   []func()           // Protected by mu
	stopTick chan struct{}      // Protected by mu, nil until Start
}

// NewServer creates a server from cfg using the default Prometheus registry
func NewServer(cfg *config.Config) (*Server, error) {
	logger, err := logging.New(logging.FromSettings(cfg.Logging))
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return New(cfg, Options{Logger: logger})
}

// New creates a server. Nothing runs until Start.
func New(cfg *config.Config, opts Options) (*Server, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewDefault()
	}
	registerer, gatherer := opts.Registerer, opts.Gatherer
	if registerer == nil {
		registerer, gatherer = prometheus.DefaultRegisterer, prometheus.DefaultGatherer
	}

	metrics := monitoring.NewMetricsWith(registerer)
	sh := shell.New(shell.Options{
		Logger:      logger.Logger,
		Metrics:     metrics,
		HookTimeout: cfg.Shell.HookTimeout,
	})
	loader := host.NewLoader(sh, logger.Logger).WithMetrics(metrics)
	store := session.NewStore(sh, cfg.Shell.StatePath, logger.Logger)
	hub := ws.NewHub(sh, logger.Logger).WithMetrics(metrics)

	var bridge *companion.Bridge
	if cfg.Companion.Enabled {
		opts := companion.DefaultOptions()
		opts.Timeout = cfg.Companion.Timeout
		bridge = &companion.Bridge{
			Client: companion.NewClient(cfg.Companion.BaseURL, opts, logger.Logger).WithMetrics(metrics),
		}
		if cfg.Companion.WSURL != "" {
			bridge.Stream = companion.NewStream(cfg.Companion.WSURL, sh.Bus, logger.Logger)
		}
	}

	s := &Server{
		config:   cfg,
		logger:   logger,
		metrics:  metrics,
		shell:    sh,
		loader:   loader,
		session:  store,
		bridge:   bridge,
		hub:      hub,
	}

	sources, err := s.sources(context.Background())
	if err != nil {
		return nil, err
	}
	loader.Add(sources...)

	s.router = s.newRouter(gatherer)
	logger.Info("Server initialized",
		zap.Int("sources", len(sources)),
		zap.Bool("companion", bridge != nil))
	return s, nil
}

func (s *Server) newRouter(gatherer prometheus.Gatherer) *gin.Engine {
	if !s.config.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(s.logger.Logger))
	router.Use(monitoring.Middleware(s.metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if s.config.RateLimit.Enabled {
		s.logger.Info("Rate limiting enabled",
			zap.Int("rps", s.config.RateLimit.RequestsPerSecond),
			zap.Int("burst", s.config.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: s.config.RateLimit.RequestsPerSecond,
			Burst:             s.config.RateLimit.Burst,
		}))
	}

	handlers := api.NewHandlers(api.Deps{
		Shell:       s.shell,
		Loader:      s.loader,
		Session:     s.session,
		Companion:   s.bridge,
		Metrics:     s.metrics,
		Gatherer:    gatherer,
		Logger:      s.logger.Logger,
		CallTimeout: s.config.Shell.ScriptTimeout,
	})
	handlers.Register(router)
	router.GET("/stream", s.hub.HandleConnection)
	return router
}

// sources returns the built-in plugins followed by every plugin file found
// under the plugin directory, in path order
func (s *Server) sources(ctx context.Context) ([]host.Source, error) {
	sources := []host.Source{
		host.Static("builtin:core", core.New(core.Options{DefaultLayout: s.config.Shell.DefaultLayout})),
	}

	paths, err := manifest.Discover(ctx, s.config.Shell.PluginDir, s.config.Shell.PluginPatterns)
	if err != nil {
		return nil, fmt.Errorf("failed to discover plugins: %w", err)
	}
	for _, path := range paths {
		src, err := s.sourceFor(path)
		if err != nil {
			s.logger.Warn("Skipping plugin file", zap.String("path", path), zap.Error(err))
			continue
		}
		sources = append(sources, src)
	}
	return sources, nil
}

func (s *Server) sourceFor(path string) (host.Source, error) {
	if strings.EqualFold(filepath.Ext(path), ".js") {
		return script.NewFileSource(path, script.Config{
			Timeout: s.config.Shell.ScriptTimeout,
			Logger:  s.logger.Logger,
		}), nil
	}
	src, err := manifest.NewFileSource(path)
	if err != nil {
		return nil, err
	}
	return src, nil
}

// Start binds host services, loads every plugin, and starts hot reload,
// the WebSocket hub and the companion bridge. It does not listen.
func (s *Server) Start(ctx context.Context) (host.LoadReport, error) {
	s.mu.Lock()
	if s.stopTick != nil {
		s.mu.Unlock()
		return host.LoadReport{}, errors.New("server already started")
	}
	stopTick := make(chan struct{})
	s.stopTick = stopTick
	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.mu.Unlock()

	s.bindSessionServices()
	s.hub.Start()
	if s.bridge != nil {
		s.track(s.bridge.Start(runCtx, s.shell.Bus))
	}
	s.metrics.StartUptime(stopTick)

	report := s.loader.LoadAll(ctx)
	if len(report.Failed) > 0 {
		for src, reason := range report.Failed {
			s.logger.Warn("Plugin not loaded", zap.String("source", src), zap.String("error", reason))
		}
	}

	if s.config.Shell.WatchInterval > 0 {
		go s.loader.Watch(runCtx, s.config.Shell.WatchInterval)
	}
	if s.config.Shell.RestoreSession {
		s.restore(ctx)
	}
	return report, nil
}

func (s *Server) restore(ctx context.Context) {
	report, err := s.session.Restore(ctx)
	switch {
	case errors.Is(err, session.ErrNoSession):
		return
	case err != nil:
		s.logger.Warn("Session restore failed", zap.Error(err))
	default:
		s.logger.Info("Session restored",
			zap.String("layout", report.Layout),
			zap.Int("opened", len(report.Opened)),
			zap.Strings("skipped", report.Skipped))
	}
}

// bindSessionServices exposes the session store on the bus so plugins can
// save and restore without importing it
func (s *Server) bindSessionServices() {
	s.shell.Bus.Provide(core.ServiceSessionSave, func(ctx context.Context, _ interface{}) (interface{}, error) {
		return s.session.Save(ctx)
	})
	s.shell.Bus.Provide(core.ServiceSessionRestore, func(ctx context.Context, _ interface{}) (interface{}, error) {
		return s.session.Restore(ctx)
	})
	s.track(func() {
		s.shell.Bus.Withdraw(core.ServiceSessionSave)
		s.shell.Bus.Withdraw(core.ServiceSessionRestore)
	})
}

func (s *Server) track(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unbind = append(s.unbind, fn)
}

// Handler returns the HTTP handler serving the API and the stream
func (s *Server) Handler() http.Handler {
	return s.router
}

// Shell returns the shell the server hosts
func (s *Server) Shell() *shell.Shell {
	return s.shell
}

// Run starts the server and listens until ctx is done, then shuts down
func (s *Server) Run(ctx context.Context) error {
	if _, err := s.Start(ctx); err != nil {
		return err
	}

	addr := s.config.Addr()
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Lock()
	s.httpSrv = srv
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return s.Close(shutdownCtx)
}

// Close stops listening, disconnects clients, saves the session when
// configured, and disposes every plugin in reverse load order
func (s *Server) Close(ctx context.Context) error {
	s.logger.Info("Shutting down server...")

	s.mu.Lock()
	srv, cancel, unbind, stopTick := s.httpSrv, s.cancel, s.unbind, s.stopTick
	s.httpSrv, s.cancel, s.unbind = nil, nil, nil
	s.mu.Unlock()
	started := stopTick != nil

	var errs []error
	if srv != nil {
		if err := srv.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shut down http server: %w", err))
		}
	}
	s.hub.Close()

	if started && s.config.Shell.SaveOnExit {
		if _, err := s.session.Save(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to save session: %w", err))
		}
	}
	if cancel != nil {
		cancel()
	}
	for _, fn := range unbind {
		fn()
	}
	if started {
		select {
		case <-stopTick:
		default:
			close(stopTick)
		}
	}

	if err := s.loader.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to dispose plugins: %w", err))
	}
	s.shell.Close()

	_ = s.logger.Sync()
	return errors.Join(errs...)
}
