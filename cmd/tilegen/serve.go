package main

import (
	"context"
	"errors"
	"flag"
	"net/http"

	"go.uber.org/zap"

	"github.com/utkarsh5026/tilegen/server"
)

func runServe(ctx context.Context, configPath string, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", "", "Listen address (overrides server.addr)")
	_ = fs.Parse(args)

	a, err := newApp(configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	if *addr != "" {
		a.cfg.Server.Addr = *addr
	}

	srv := &http.Server{
		Addr:         a.cfg.Server.Addr,
		Handler:      server.New(a.producer, a.pool, a.logger.Named("http")),
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("serving tiles", zap.String("addr", srv.Addr), zap.Int("workers", a.pool.Size()))
		errCh <- srv.ListenAndServe()
	}()

	go func() {
		if err := a.pool.WaitReady(ctx); err == nil {
			a.logger.Info("worker pool ready")
		}
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
