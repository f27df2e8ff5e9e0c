// Package main provides the local server for the desktop client.
// The client talks REST/WebSocket to cfg.Server.Bind (127.0.0.1:7490 by
// default).
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kimhsiao/squishylog/cmd/desktop/handlers"
	"github.com/kimhsiao/squishylog/internal/app"
	"github.com/kimhsiao/squishylog/internal/config"
	"github.com/kimhsiao/squishylog/internal/logging"
)

func main() {
	if err := run(); err != nil {
		logging.Error("Desktop server stopped", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, path, exists, err := config.Load(os.Getenv("SQUISHY_CONFIG"))
	if err != nil {
		return err
	}
	app.ConfigureLogging(cfg)
	logging.Info("Configuration loaded", map[string]interface{}{"path": path, "exists": exists})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	if a.LoadErr != nil {
		logging.Warn("Stored collection unreadable; starting empty", map[string]interface{}{"reason": a.LoadErr.Error()})
	}

	sched, err := a.Scheduler()
	if err != nil {
		return err
	}
	if err := sched.Start(ctx); err != nil {
		logging.Warn("Backup scheduler not started", map[string]interface{}{"reason": err.Error()})
	}
	defer sched.Stop()

	hub := NewWSHub(a.Records, a.Compositor)
	defer hub.Close()

	srv := &http.Server{
		Addr:              cfg.Server.Bind,
		Handler:           newMux(a, hub),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info("SquishyLog desktop server starting", map[string]interface{}{
			"bind":    cfg.Server.Bind,
			"records": a.Store.Len(),
		})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newMux registers every route of the desktop API.
func newMux(a *app.App, hub *WSHub) *http.ServeMux {
	recordHandler := handlers.NewRecordHandler(a.Records, hub)
	imageHandler := handlers.NewImageHandler(a.Records, a.Batch, a.Compositor, hub)
	exportHandler := handlers.NewExportHandler(a.Export, a.Config.Export.Dir, hub)

	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","service":"squishylog-desktop"}`))
	})

	// Record routes
	mux.HandleFunc("/api/records", recordHandler.Records)
	mux.HandleFunc("/api/records/{id}", recordHandler.Record)
	mux.HandleFunc("/api/records/{id}/duplicate", recordHandler.DuplicateRecord)
	mux.HandleFunc("/api/stats", recordHandler.Stats)

	// Image routes
	mux.HandleFunc("/api/records/{id}/images/{stage}", imageHandler.StageImages)
	mux.HandleFunc("/api/records/{id}/images/{stage}/{index}", imageHandler.Image)
	mux.HandleFunc("/api/images/compress", imageHandler.Compress)
	mux.HandleFunc("/api/images/preview", imageHandler.Preview)
	mux.HandleFunc("/api/filters", imageHandler.Filters)

	// Export routes
	mux.HandleFunc("/api/export", exportHandler.Export)
	mux.HandleFunc("/api/backups", exportHandler.Backups)

	// WebSocket
	mux.HandleFunc("/ws", HandleWebSocket(hub))

	return mux
}
