// Command mensa launches the campus fulfillment runtime.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/mensahq/mensa/config"
	"github.com/mensahq/mensa/internal/campus"
	"github.com/mensahq/mensa/internal/httpapi"
	"github.com/mensahq/mensa/internal/observability"
	"github.com/mensahq/mensa/internal/sim"
	"github.com/mensahq/mensa/lib/telemetry"
)

const (
	loggerPrefix             = "mensa "
	shutdownTimeout          = 30 * time.Second
	serverShutdownTimeout    = 5 * time.Second
	lifecycleShutdownTimeout = 10 * time.Second
	telemetryShutdownTimeout = 5 * time.Second
	readHeaderTimeout        = 5 * time.Second
)

func main() {
	flags := parseFlags()
	ctx, cancel := newSignalContext()
	defer cancel()

	logger := newProcessLogger()

	cfg := config.Apply(config.FromEnv(),
		config.WithHTTPAddr(flags.httpAddr),
		config.WithCampusName(flags.campusName),
		config.WithMenuPath(flags.menuPath),
	)
	logger.Printf("configuration initialised: env=%s, campus=%s", cfg.Environment, cfg.CampusName)

	observability.SetLogger(observability.NewSlogLogger(nil))

	_, telemetryShutdown, err := telemetry.Init(ctx, cfg.Telemetry)
	if err != nil {
		logger.Fatalf("initialize telemetry: %v", err)
	}
	observability.SetMetrics(observability.NewOTelMetrics("mensa"))
	if cfg.Telemetry.Endpoint != "" {
		logger.Printf("telemetry initialized: endpoint=%s", cfg.Telemetry.Endpoint)
	} else {
		logger.Print("telemetry export disabled")
	}

	cam := campus.New(cfg.CampusName)
	if cfg.MenuPath != "" {
		if err := seedMenus(cam, cfg.MenuPath); err != nil {
			logger.Fatalf("seed menus: %v", err)
		}
		logger.Printf("menus seeded from %s: cafeterias=%d", cfg.MenuPath, len(cam.Cafeterias()))
	}

	var lifecycle conc.WaitGroup

	server := buildAPIServer(cfg.HTTP, cam)
	startAPIServer(&lifecycle, logger, server)
	logger.Printf("API listening on %s", server.Addr)

	if cfg.Simulation.Enabled {
		startSimulation(ctx, &lifecycle, logger, cam, cfg.Simulation)
	}

	logger.Print("mensa started; awaiting shutdown signal")
	<-ctx.Done()
	logger.Print("shutdown signal received, initiating graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	shutdownStart := time.Now()
	performGracefulShutdown(shutdownCtx, logger, gracefulShutdownConfig{
		server:            server,
		mainCancel:        cancel,
		lifecycle:         &lifecycle,
		telemetryShutdown: telemetryShutdown,
	})
	logger.Printf("shutdown completed in %v", time.Since(shutdownStart))
}

type cliFlags struct {
	httpAddr   string
	campusName string
	menuPath   string
}

func parseFlags() cliFlags {
	httpAddr := flag.String("http-addr", "", "HTTP listen address (overrides MENSA_HTTP_ADDR)")
	campusName := flag.String("campus", "", "campus name (overrides MENSA_CAMPUS_NAME)")
	menuPath := flag.String("menu", "", "path to YAML menu fixture (overrides MENSA_MENU_PATH)")
	flag.Parse()
	return cliFlags{httpAddr: *httpAddr, campusName: *campusName, menuPath: *menuPath}
}

func newSignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func newProcessLogger() *log.Logger {
	return log.New(os.Stdout, loggerPrefix, log.LstdFlags|log.Lmicroseconds)
}

func seedMenus(cam *campus.Campus, path string) error {
	fixture, err := config.LoadMenuFixture(path)
	if err != nil {
		return err
	}
	for _, fixtureCaf := range fixture.Cafeterias {
		caf, err := cam.AddCafeteria(fixtureCaf.Name)
		if err != nil {
			return fmt.Errorf("add cafeteria %q: %w", fixtureCaf.Name, err)
		}
		for _, item := range fixtureCaf.Items {
			if err := caf.Catalog().Add(item.Name, item.Description, item.ItemPrice(), item.Quantity); err != nil {
				return fmt.Errorf("add item %q at %q: %w", item.Name, fixtureCaf.Name, err)
			}
		}
	}
	return nil
}

func buildAPIServer(cfg config.HTTPSettings, cam *campus.Campus) *http.Server {
	app := httpapi.NewApp(cam)
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.NewRouter(app),
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

func startAPIServer(lifecycle *conc.WaitGroup, logger *log.Logger, server *http.Server) {
	lifecycle.Go(func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Printf("api server: %v", err)
		}
	})
}

func startSimulation(ctx context.Context, lifecycle *conc.WaitGroup, logger *log.Logger, cam *campus.Campus, cfg config.SimulationSettings) {
	simulator, err := sim.New(cam, cfg)
	if err != nil {
		logger.Printf("simulation disabled: %v", err)
		return
	}
	lifecycle.Go(func() {
		stats, err := simulator.Run(ctx)
		if err != nil {
			logger.Printf("simulation aborted: %v", err)
			return
		}
		logger.Printf("simulation finished: %s", stats)
	})
	logger.Printf("simulation started: seed=%d rounds=%d", cfg.Seed, cfg.Rounds)
}

type gracefulShutdownConfig struct {
	server            *http.Server
	mainCancel        context.CancelFunc
	lifecycle         *conc.WaitGroup
	telemetryShutdown func(context.Context) error
}

func performGracefulShutdown(ctx context.Context, logger *log.Logger, cfg gracefulShutdownConfig) {
	shutdownStep := func(name string, timeout time.Duration, fn func(context.Context) error) {
		stepCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		logger.Printf("shutdown: %s...", name)
		if err := fn(stepCtx); err != nil {
			logger.Printf("shutdown: %s failed: %v", name, err)
		} else {
			logger.Printf("shutdown: %s completed", name)
		}
	}

	if cfg.server != nil {
		shutdownStep("stopping api server", serverShutdownTimeout, func(stepCtx context.Context) error {
			return cfg.server.Shutdown(stepCtx)
		})
	}

	logger.Print("shutdown: cancelling main context")
	if cfg.mainCancel != nil {
		cfg.mainCancel()
	}

	if cfg.lifecycle != nil {
		shutdownStep("waiting for lifecycle goroutines", lifecycleShutdownTimeout, func(stepCtx context.Context) error {
			done := make(chan struct{})
			go func() {
				cfg.lifecycle.Wait()
				close(done)
			}()
			select {
			case <-done:
				return nil
			case <-stepCtx.Done():
				return fmt.Errorf("timeout waiting for goroutines: %w", stepCtx.Err())
			}
		})
	}

	if cfg.telemetryShutdown != nil {
		shutdownStep("shutting down telemetry", telemetryShutdownTimeout, cfg.telemetryShutdown)
	}
}
