package cli

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mm-replacer/api"
	"mm-replacer/dictionary"
	"mm-replacer/offline"
)

const (
	watchDebounce   = 300 * time.Millisecond
	shutdownTimeout = 10 * time.Second
)

func newServeCmd(staticFS fs.FS) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the replacer UI and API",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd, staticFS)
			if err != nil {
				return err
			}
			defer rt.close()
			if listen != "" {
				rt.cfg.Listen = listen
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, rt, staticFS)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "Listen address (overrides config)")
	return cmd
}

func serve(ctx context.Context, rt *runtime, staticFS fs.FS) error {
	log := rt.logger

	// Startup sync: restore the stored rules, then refresh if stale.
	if err := rt.app.Restore(); err != nil {
		log.Warn("stored dictionary unusable", zap.Error(err))
	}
	if _, err := rt.app.Sync(ctx, false); err != nil {
		log.Warn("startup sync failed; using last known rules", zap.Error(err), zap.Int("rules", len(rt.app.Rules())))
	}

	var cache *offline.Cache
	if !rt.cfg.Offline.Disabled {
		cache = offline.New(rt.cfg.Offline.CacheName, offline.DefaultAssets, log.Named("offline"))
		if err := cache.Install(ctx, api.AssetHandler(staticFS)); err != nil {
			// Serving continues straight from the network handler.
			log.Error("offline cache not installed", zap.Error(err))
		}
	}

	if fsrc, ok := rt.source.(*dictionary.FileSource); ok && rt.cfg.Dictionary.Watch {
		w, err := dictionary.NewWatcher(fsrc.Path, watchDebounce, func(ctx context.Context) {
			if _, err := rt.app.Sync(ctx, true); err != nil {
				log.Warn("resync after file change failed", zap.Error(err))
			}
		}, log.Named("watch"))
		if err != nil {
			log.Warn("dictionary watcher disabled", zap.Error(err))
		} else {
			go w.Run(ctx)
			defer func() { <-w.Done() }()
			log.Info("watching dictionary file", zap.String("path", fsrc.Path))
		}
	}

	srv := &http.Server{
		Addr:              rt.cfg.Listen,
		Handler:           api.RegisterRoutes(rt.app, cache, staticFS, log.Named("http")),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("mm-replacer listening", zap.String("addr", srv.Addr), zap.Stringer("dictionary", rt.source))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	rt.hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
