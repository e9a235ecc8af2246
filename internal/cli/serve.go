package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pbechard/citecheck/internal/job"
	"github.com/pbechard/citecheck/internal/logging"
	"github.com/pbechard/citecheck/internal/model"
	"github.com/pbechard/citecheck/internal/pipeline"
	"github.com/pbechard/citecheck/internal/server"
	"github.com/pbechard/citecheck/internal/store"
	"github.com/spf13/cobra"
)

var (
	serveAddr    string
	storeBackend string
	storePath    string
	serveWorkers int
	queueSize    int
	logLevel     string
	logFormat    string
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the citation check HTTP service",
	Long: `Serve exposes the pipeline over HTTP: submit documents, poll job
progress, and fetch results. Small documents are answered inline;
large documents are queued and processed in the background.

Endpoints:
  POST /api/v1/documents     submit a document (JSON or plain text)
  GET  /api/v1/progress/:id  poll job progress
  GET  /api/v1/results/:id   fetch a finished result
  GET  /health               liveness and queue depth

Example:
  citecheck serve
  citecheck serve --addr :9090 --workers 4
  citecheck serve --store badger --store-path /var/lib/citecheck`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address")
	serveCmd.Flags().StringVar(&storeBackend, "store", "memory", "job store backend (memory, badger)")
	serveCmd.Flags().StringVar(&storePath, "store-path", "", "badger database directory (empty = in-memory badger)")
	serveCmd.Flags().IntVar(&serveWorkers, "workers", 2, "background job workers")
	serveCmd.Flags().IntVar(&queueSize, "queue-size", 64, "pending job queue capacity")
	serveCmd.Flags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	serveCmd.Flags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")

	// Shared flags, same meaning as on check
	serveCmd.Flags().BoolVar(&noVerify, "no-verify", false, "skip external verification (extraction and clustering only)")
	serveCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the verification response cache")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig()
	if err != nil {
		return err
	}
	cfg.Server.Addr = serveAddr
	cfg.Store.Backend = storeBackend
	cfg.Store.Path = storePath
	cfg.Jobs.Workers = serveWorkers
	cfg.Jobs.QueueSize = queueSize
	cfg.Log.Level = logLevel
	cfg.Log.Format = logFormat

	logger := logging.New(cfg.Log.Level, cfg.Log.Format)

	st, err := openStore(cfg.Store, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logger.Warn("closing job store", "error", cerr)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		logger.Info("shutdown signal received")
		cancel()
	}()

	p := pipeline.NewPipeline(cfg)
	coord := job.NewCoordinator(p, st, cfg.Jobs, logger)
	coord.Start(ctx)
	defer coord.Shutdown()

	logger.Info("citecheck service starting",
		"addr", cfg.Server.Addr,
		"store", cfg.Store.Backend,
		"workers", cfg.Jobs.Workers,
		"verify", cfg.Verify.Enabled,
	)

	srv := server.New(cfg.Server, coord, logger)
	return srv.Run(ctx)
}

// openStore selects the job store backend
func openStore(cfg model.StoreConfig, logger *slog.Logger) (store.Store, error) {
	switch cfg.Backend {
	case "", "memory":
		return store.NewMemoryStore(cfg.TTL, 10*time.Minute), nil
	case "badger":
		return store.NewBadgerStore(cfg.Path, cfg.TTL, logger)
	default:
		return nil, fmt.Errorf("unknown store backend: %s (supported: memory, badger)", cfg.Backend)
	}
}
