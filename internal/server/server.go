package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	api "github.com/GriffinCanCode/GameShelf/internal/api/http"
	"github.com/GriffinCanCode/GameShelf/internal/api/middleware"
	"github.com/GriffinCanCode/GameShelf/internal/domain/catalog"
	"github.com/GriffinCanCode/GameShelf/internal/domain/modal"
	"github.com/GriffinCanCode/GameShelf/internal/domain/registry"
	"github.com/GriffinCanCode/GameShelf/internal/domain/surface"
	"github.com/GriffinCanCode/GameShelf/internal/infrastructure/config"
	"github.com/GriffinCanCode/GameShelf/internal/infrastructure/logging"
	"github.com/GriffinCanCode/GameShelf/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/GameShelf/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/GameShelf/internal/prefs"
	"github.com/GriffinCanCode/GameShelf/internal/providers/filesystem"
	"github.com/GriffinCanCode/GameShelf/internal/providers/http/client"
	"github.com/GriffinCanCode/GameShelf/internal/providers/http/files"
	"github.com/GriffinCanCode/GameShelf/internal/scheduler"
	"github.com/GriffinCanCode/GameShelf/internal/shared/paths"
	"github.com/GriffinCanCode/GameShelf/internal/ws"
)

// Server wraps the HTTP server and dependencies
type Server struct {
	config   *config.Config
	logger   *logging.Logger
	router   *gin.Engine
	http     *http.Server
	loop     *scheduler.Loop
	queue    *modal.Queue
	manager  *registry.Manager
	tracer   *tracing.Tracer
	metrics  *monitoring.Metrics
	registry *prometheus.Registry
	ws       *ws.Handler
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config, logger *logging.Logger) (*Server, error) {
	if logger == nil {
		if cfg.Logging.Development {
			logger = logging.NewDevelopment()
		} else {
			logger = logging.NewDefault()
		}
	}

	gamesDir, err := paths.Expand(cfg.Storage.GamesDir)
	if err != nil {
		return nil, fmt.Errorf("games dir: %w", err)
	}
	var defaultsDir string
	if cfg.Storage.DefaultsDir != "" {
		if defaultsDir, err = paths.Expand(cfg.Storage.DefaultsDir); err != nil {
			return nil, fmt.Errorf("defaults dir: %w", err)
		}
	}

	loop := scheduler.New(logger.Logger)
	reg := monitoring.NewRegistry()
	s := &Server{
		config:   cfg,
		loop:     loop,
		registry: reg,
		metrics:  monitoring.NewMetrics(reg),
	}

	// The queue is created first so the logger can surface errors into it.
	s.queue = modal.NewQueue().WithObserver(func(pending int) {
		s.metrics.SetModalPending(pending)
		s.ws.Broadcast(ws.EventModal)
	})
	if cfg.Logging.Surface {
		logger = logger.WithSurface(func(text string) {
			loop.Post(func() { s.queue.Show(text) })
		})
	}
	s.logger = logger
	log := logger.Logger

	log.Info("Initializing GameShelf server",
		zap.String("addr", cfg.Addr()),
		zap.String("games_dir", gamesDir),
	)

	disk := filesystem.NewDisk(gamesDir, defaultsDir, log)
	if n := disk.CleanStaging(); n > 0 {
		log.Info("Removed abandoned staging directories", zap.Int("count", n))
	}

	httpClient := client.New(client.Config{
		Timeout:         cfg.Fetch.Timeout,
		RetryMax:        cfg.Fetch.Retries,
		RetryWaitMin:    cfg.Fetch.RetryWaitMin,
		RetryWaitMax:    cfg.Fetch.RetryWaitMax,
		RateLimit:       cfg.Fetch.RateLimit,
		Burst:           cfg.Fetch.Burst,
		UserAgent:       cfg.Fetch.UserAgent,
		MaxBodyBytes:    cfg.Fetch.MaxBodyMB << 20,
		BreakerFailures: cfg.Fetch.BreakerFailures,
		BreakerTimeout:  cfg.Fetch.BreakerTimeout,
	}, log)

	store, err := prefs.Open(cfg.Storage.PrefsPath, log)
	if err != nil {
		return nil, fmt.Errorf("preferences: %w", err)
	}

	spinner := surface.NewSpinner()
	selector := surface.NewSelector()

	s.manager = registry.NewManager(registry.Options{
		Loop:             loop,
		Storage:          disk,
		Loader:           catalog.NewDiskLoader(),
		Fetcher:          files.NewDownloader(httpClient, log),
		Prefs:            store,
		Queue:            s.queue,
		Busy:             spinner,
		Selector:         selector,
		Logger:           log,
		LoadingThreshold: cfg.Loading.CardsLoadingThreshold,
	}).WithMetrics(s.metrics)

	s.ws = ws.NewHandler(s.manager, log).WithMetrics(s.metrics)
	spinner.OnChange(func() { s.ws.Broadcast(ws.EventStatus) })
	selector.OnChange(func() { s.ws.Broadcast(ws.EventStatus) })

	s.tracer = tracing.New("gameshelf", log)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(s.tracer))
	router.Use(monitoring.Middleware(s.metrics))

	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.Server.CORSOrigins
	router.Use(middleware.CORS(cors))
	if cfg.RateLimit.Enabled {
		log.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		limits := middleware.DefaultRateLimitConfig()
		limits.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		limits.Burst = cfg.RateLimit.Burst
		router.Use(middleware.RateLimit(limits))
	}

	api.NewHandlers(api.Options{
		Manager:  s.manager,
		Spinner:  spinner,
		Selector: selector,
		Breakers: httpClient.BreakerStates,
		Logger:   log,
	}).Register(router)
	router.GET("/stream", s.ws.HandleConnection)
	router.GET("/metrics", monitoring.Handler(s.registry))

	s.router = router
	s.http = &http.Server{
		Addr:    cfg.Addr(),
		Handler: router,
	}

	log.Info("Server initialized successfully")
	return s, nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Manager returns the package manager.
func (s *Server) Manager() *registry.Manager {
	return s.manager
}

// start runs the loop, the modal frame tick and the initial activation.
// It returns a channel that yields the loop's exit error.
func (s *Server) start(ctx context.Context) <-chan error {
	done := make(chan error, 1)
	go func() { done <- s.loop.Run(ctx) }()

	s.loop.Every(s.config.Loading.FrameInterval, func() {
		s.queue.Update(modal.InputNone)
	})
	s.manager.Start()
	return done
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	loopCtx, stopLoop := context.WithCancel(context.Background())
	defer stopLoop()
	loopDone := s.start(loopCtx)

	serveErr := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", s.http.Addr))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case err, ok := <-serveErr:
		if ok {
			runErr = fmt.Errorf("http server: %w", err)
		}
	}

	s.logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("HTTP shutdown incomplete", zap.Error(err))
	}

	stopLoop()
	<-loopDone
	s.tracer.Close()
	_ = s.logger.Sync()

	return runErr
}
