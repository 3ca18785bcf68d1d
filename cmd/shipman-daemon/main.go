package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/andrescamacho/shippingmanager-go/internal/adapters/bridge"
	"github.com/andrescamacho/shippingmanager-go/internal/adapters/grpc"
	"github.com/andrescamacho/shippingmanager-go/internal/adapters/metrics"
	"github.com/andrescamacho/shippingmanager-go/internal/adapters/persistence"
	"github.com/andrescamacho/shippingmanager-go/internal/application/autopilot"
	"github.com/andrescamacho/shippingmanager-go/internal/application/common"
	appLedger "github.com/andrescamacho/shippingmanager-go/internal/application/ledger"
	"github.com/andrescamacho/shippingmanager-go/internal/infrastructure/config"
	"github.com/andrescamacho/shippingmanager-go/internal/infrastructure/database"
	"github.com/andrescamacho/shippingmanager-go/internal/infrastructure/logging"
	"github.com/andrescamacho/shippingmanager-go/internal/infrastructure/pidfile"
	settingsStore "github.com/andrescamacho/shippingmanager-go/internal/infrastructure/settings"
)

// killTimeout bounds how long --force waits for the previous daemon to exit
const killTimeout = 10 * time.Second

func main() {
	forceFlag := flag.Bool("force", false, "Kill any existing daemon and start a new one")
	configFlag := flag.String("config", "", "Path to config.yaml (default: search ., ./configs, /etc/shipman)")
	flag.Parse()

	fmt.Println("Shipping Manager Autopilot Daemon v0.1.0")
	fmt.Println("========================================")

	fmt.Println("Loading configuration...")
	cfg, err := config.LoadConfig(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	fmt.Printf("Acquiring PID file lock: %s\n", cfg.Daemon.PIDFile)
	pf := pidfile.New(cfg.Daemon.PIDFile)
	if err := pf.Acquire(); err != nil {
		if !*forceFlag {
			log.Fatalf("Failed to acquire PID file lock: %v\nUse --force to kill the existing daemon", err)
		}
		fmt.Println("Force mode enabled - attempting to kill existing daemon...")
		pid, killErr := pf.KillExisting(killTimeout)
		if killErr != nil {
			log.Fatalf("Failed to kill existing daemon: %v", killErr)
		}
		fmt.Printf("Existing daemon (pid %d) killed\n", pid)
		if err := pf.Acquire(); err != nil {
			log.Fatalf("Failed to acquire PID file lock after killing existing daemon: %v", err)
		}
	}
	defer func() {
		if err := pf.Release(); err != nil {
			log.Printf("Warning: failed to release PID file: %v", err)
		}
	}()
	fmt.Println("PID file lock acquired")

	if err := run(cfg); err != nil {
		log.Printf("Fatal error: %v", err)
		pf.Release()
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	// 1. Logger
	logger, err := logging.New(cfg.Logging, nil)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Close()

	lifetime, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	lifetime = common.WithLogger(lifetime, logger)

	// 2. Database
	fmt.Printf("Connecting to %s database...\n", cfg.Database.Type)
	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close(db)
	if err := database.AutoMigrate(db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	fmt.Println("Database connected")

	// 3. Metrics registry and collectors
	var (
		requestCollector *metrics.RequestMetricsCollector
		bridgeCollector  *metrics.BridgeMetricsCollector
	)
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		requestCollector = metrics.NewRequestMetricsCollector()
		if err := requestCollector.Register(); err != nil {
			return fmt.Errorf("failed to register request metrics: %w", err)
		}
		bridgeCollector = metrics.NewBridgeMetricsCollector()
		if err := bridgeCollector.Register(); err != nil {
			return fmt.Errorf("failed to register bridge metrics: %w", err)
		}
	}

	// 4. Mediator and ledger handlers
	med := common.NewMediator()
	med.Use(common.LoggingMiddleware(2 * time.Second))
	if requestCollector != nil {
		med.Use(metrics.PrometheusMiddleware(requestCollector))
	}
	transactionRepo := persistence.NewGormTransactionRepository(db)
	if err := appLedger.RegisterHandlers(med, transactionRepo, nil); err != nil {
		return fmt.Errorf("failed to register ledger handlers: %w", err)
	}

	// 5. Browser session and bridge
	fmt.Printf("Opening %s in the browser...\n", cfg.Bridge.GameURL)
	session := bridge.NewSession(bridge.SessionOptions{
		Browser:       cfg.Bridge.Browser,
		Headless:      cfg.Bridge.Headless,
		Viewport:      bridge.Viewport{Width: cfg.Bridge.Window.Width, Height: cfg.Bridge.Window.Height},
		Position:      bridge.WindowPosition{X: cfg.Bridge.Window.X, Y: cfg.Bridge.Window.Y},
		URL:           cfg.Bridge.GameURL,
		ScriptTimeout: cfg.Bridge.ScriptTimeout,
		SkipInstall:   cfg.Bridge.SkipInstall,
	})
	if err := session.Start(); err != nil {
		return fmt.Errorf("failed to start browser session: %w", err)
	}
	defer session.Close()
	fmt.Printf("Browser session ready (%s)\n", session.BrowserName())

	gateOpts := bridge.GateOptions{
		RatePerSecond:   cfg.Bridge.RateLimit.PerSecond,
		Burst:           cfg.Bridge.RateLimit.Burst,
		BreakerFailures: cfg.Bridge.CircuitBreaker.MaxFailures,
		BreakerCooldown: cfg.Bridge.CircuitBreaker.Cooldown,
	}
	if bridgeCollector != nil {
		gateOpts.Observer = bridgeCollector
	}
	gate := bridge.NewGate(bridge.NewPlaywrightBridge(session, nil), gateOpts, nil)

	// 6. Settings file
	settings, err := settingsStore.Open(cfg.Settings.Path, logger)
	if err != nil {
		return fmt.Errorf("failed to open settings: %w", err)
	}
	if cfg.Settings.Watch {
		settings.Watch()
	}
	fmt.Printf("Settings loaded from %s\n", settings.Path())

	// 7. Event fan-out: subscribers plus the persisted status log
	bus := autopilot.NewEventBus()

	statusRepo := persistence.NewGormStatusLogRepository(db, nil)
	statusRepo.SetDedupWindow(time.Duration(cfg.Logging.DedupWindowSeconds) * time.Second)
	recorder := logging.NewStatusRecorder(bus, statusRepo, logger)
	recorder.Start(lifetime)
	defer recorder.Stop()

	// 8. Metrics server
	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		autopilotCollector := metrics.NewAutopilotCollector(bus)
		if err := autopilotCollector.Register(); err != nil {
			return fmt.Errorf("failed to register autopilot metrics: %w", err)
		}
		autopilotCollector.Start(lifetime)
		defer autopilotCollector.Stop()

		ledgerCollector := metrics.NewLedgerMetricsCollector(med, cfg.Metrics.LedgerPollInterval)
		if err := ledgerCollector.Register(); err != nil {
			return fmt.Errorf("failed to register ledger metrics: %w", err)
		}
		ledgerCollector.Start(lifetime)
		defer ledgerCollector.Stop()

		metricsServer, err = metrics.NewServer(cfg.Metrics.Address(), cfg.Metrics.Path)
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}
		go func() {
			if err := metricsServer.Serve(); err != nil {
				logger.Log(common.LevelError, "Metrics server stopped", map[string]interface{}{"error": err.Error()})
			}
		}()
		fmt.Printf("Metrics available at http://%s%s\n", metricsServer.Addr(), cfg.Metrics.Path)
	}

	// 9. Controller
	ctrl := autopilot.NewController(gate, settings, bus, med, logger, nil, autopilot.Options{
		ReadyPollInterval: cfg.Controller.ReadyPollInterval,
		ReadyMaxAttempts:  cfg.Controller.ReadyMaxAttempts,
		LoginPollInterval: cfg.Controller.LoginPollInterval,
		LoginMaxAttempts:  cfg.Controller.LoginMaxAttempts,
		DeparturePacing:   cfg.Controller.DeparturePacing,
		Email:             cfg.Controller.Email,
		Password:          cfg.Controller.Password,
	})
	if !cfg.Controller.HasCredentials() {
		fmt.Println("No auto-login credentials configured; log in through the browser window")
	}

	// 10. Control socket
	socketPath := cfg.Daemon.SocketPath
	if err := os.MkdirAll(filepath.Dir(socketPath), 0755); err != nil {
		return fmt.Errorf("failed to create socket directory: %w", err)
	}
	server, err := grpc.NewDaemonServer(lifetime, ctrl, bus, socketPath, grpc.ServerOptions{
		CircuitState: func() string { return gate.CircuitState().String() },
		Logger:       logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create daemon server: %w", err)
	}
	serveErr := make(chan error, 1)
	go func() { serveErr <- server.Serve() }()
	fmt.Printf("Daemon listening on: %s\n", socketPath)

	if cfg.Daemon.AutoStart {
		if err := ctrl.Start(lifetime); err != nil {
			return fmt.Errorf("failed to start autopilot: %w", err)
		}
		fmt.Println("Autopilot started")
	}

	fmt.Println("\n✓ Daemon is ready to accept connections")
	fmt.Println("Press Ctrl+C to stop")

	select {
	case <-lifetime.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("daemon server error: %w", err)
		}
	}

	fmt.Println("\nShutting down...")
	stop()
	if err := ctrl.Stop(); err != nil && !errors.Is(err, autopilot.ErrNotRunning) {
		logger.Log(common.LevelWarn, "Controller stop failed", map[string]interface{}{"error": err.Error()})
	}
	ctrl.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Daemon.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Log(common.LevelWarn, "Daemon server shutdown failed", map[string]interface{}{"error": err.Error()})
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Log(common.LevelWarn, "Metrics server shutdown failed", map[string]interface{}{"error": err.Error()})
		}
	}

	fmt.Println("Daemon stopped")
	return nil
}
