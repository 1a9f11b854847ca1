package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/burrowmq/burrow/pkg/config"
	"github.com/burrowmq/burrow/pkg/health"
	"github.com/burrowmq/burrow/pkg/log"
	"github.com/burrowmq/burrow/pkg/store"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "burrow",
	Short: "Burrow - persistent offline message store for MQTT brokers",
	Long: `Burrow is the persistent offline message store of a distributed
MQTT broker. It durably records in-flight QoS>0 publications for
subscribers that are disconnected or slow, exposes them again at
reconnect, and deduplicates payloads across subscriber fanout.`,
	Version: Version,
}

func init() {
	// Set version template
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"Burrow version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	// Global flags
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")

	// Initialize logging before command execution
	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(serveCmd)
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")

	log.Init(log.Config{
		Level:      log.Level(logLevel),
		JSONOutput: logJSON,
	})
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Open the message store and serve health and metrics endpoints",
	Long: `Open every store bucket, recover their on-disk state, and keep the
store available to the broker core. Serves /healthz, /readyz and
/metrics over HTTP while running.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfgPath, _ := cmd.Flags().GetString("config")
		storeDir, _ := cmd.Flags().GetString("store-dir")
		listenAddr, _ := cmd.Flags().GetString("listen")

		cfg := config.Default()
		if cfgPath != "" {
			loaded, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			cfg = loaded
		}
		if storeDir != "" {
			cfg.StoreDir = storeDir
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		logger := log.WithComponent("main")
		logger.Info().
			Str("version", Version).
			Str("store_dir", cfg.StoreDir).
			Int("buckets", cfg.Buckets).
			Msg("starting message store")

		s, err := store.New(cfg)
		if err != nil {
			return fmt.Errorf("failed to open message store: %v", err)
		}
		defer s.Close()

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		health.NewHandler(s.Ready).Register(mux)

		srv := &http.Server{
			Addr:    listenAddr,
			Handler: mux,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error().Err(err).Msg("HTTP server failed")
			}
		}()
		logger.Info().Str("addr", listenAddr).Msg("serving health and metrics")

		// Wait for shutdown signal
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info().Str("signal", sig.String()).Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("HTTP shutdown failed")
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().String("config", "", "Path to YAML config file")
	serveCmd.Flags().String("store-dir", "", "Override store directory")
	serveCmd.Flags().String("listen", ":9090", "Health and metrics listen address")
}
