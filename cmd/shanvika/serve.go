package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/shanvika-ai/shanvika/client/internal/handler"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Expose the chat to a browser through a local gateway",
		Long: `Serve the chat controller over HTTP under /ui: composer endpoints,
the conversation list, and transcript events over SSE and WebSocket.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = opts.cfg.Gateway.Addr
			}

			a, err := newApp(opts.cfg, opts.logger)
			if err != nil {
				return err
			}
			defer a.Close()

			router := handler.NewRouter(handler.Services{
				Controller: a.controller,
				Workspace:  a.workspace,
				Transcript: a.transcript,
				Catalog:    a.catalog,
				Renderer:   a.renderer,
			}, opts.cfg.Gateway.AllowedOrigins, opts.logger)

			ctx := cmd.Context()
			srv := &http.Server{
				Addr:              addr,
				Handler:           router,
				ReadHeaderTimeout: 5 * time.Second,
				IdleTimeout:       120 * time.Second,
				// Event streams end with the process context instead of
				// holding shutdown open.
				BaseContext: func(net.Listener) context.Context { return ctx },
			}
			srv.RegisterOnShutdown(func() { a.controller.Cancel() })

			opts.logger.Info("gateway listening",
				zap.String("addr", addr),
				zap.String("backend", opts.cfg.Backend.BaseURL))
			return runServer(ctx, srv)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (or set SHANVIKA_GATEWAY_ADDR / PORT)")
	return cmd
}

// runServer serves until ctx ends, then shuts down gracefully.
func runServer(ctx context.Context, srv *http.Server) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
