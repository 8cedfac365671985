package cmd

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"example.com/medfleet/services/lorry/api"
	"example.com/medfleet/services/lorry/internal/db"
	"example.com/medfleet/services/lorry/internal/telemetry"
)

var (
	// Serve command flags
	disableNewRelic bool
	serverPort      int
	gracefulTimeout int
	skipMigrations  bool
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Long: `Starts the lorry service API server that handles ledger appends,
stock reconstruction, assignments, verification and the driver access gate.

The server respects the configuration in config.yaml or specified via the
--config flag. It will gracefully shut down on receiving SIGINT or SIGTERM.`,
	Run: func(cmd *cobra.Command, args []string) {
		startServer()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&disableNewRelic, "disable-newrelic", false, "Disable New Relic monitoring")
	serveCmd.Flags().IntVar(&serverPort, "port", 0, "Server port (overrides config file)")
	serveCmd.Flags().IntVar(&gracefulTimeout, "graceful-timeout", 30, "Graceful shutdown timeout in seconds")
	serveCmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "Skip running database migrations on startup")
}

// startServer initializes and starts the API server
func startServer() {
	d, err := buildDeps(log)
	if err != nil {
		log.Fatalf("Failed to initialize service: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		d.close(ctx)
	}()

	if serverPort > 0 {
		d.cfg.Server.Port = serverPort
	}

	if !skipMigrations {
		log.Info("Running database migrations...")
		if err := db.Migrate(d.gormDB); err != nil {
			log.Fatalf("Failed to run database migrations: %v", err)
		}
		log.Info("Database migrations completed successfully")
	}

	if disableNewRelic {
		d.cfg.NewRelic.Enabled = false
	}
	nrApp, err := telemetry.InitNewRelic(&d.cfg.NewRelic)
	if err != nil {
		log.Warnf("Failed to initialize New Relic: %v", err)
	}

	server := api.NewServer(d.cfg, log, nrApp, d.services)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(gracefulTimeout)*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Info("Server successfully shutdown")
}
