package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/jrsteele09/toolshop-apitest/authserverfake"
	"github.com/jrsteele09/toolshop-apitest/internal/config"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func stubCommand(cfg config.Config) *cli.Command {
	return &cli.Command{
		Name:  "stub",
		Usage: "Serve the fake Toolshop auth endpoints until interrupted",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "listen address", EnvVars: []string{"PORT"}, Value: cfg.GetPort()},
			&cli.DurationFlag{Name: "token-expiry", Usage: "lifetime of issued tokens", EnvVars: []string{"STUB_TOKEN_EXPIRY"}, Value: cfg.GetStubTokenExpiry()},
		},
		Action: func(c *cli.Context) error {
			displayAppname(cfg.GetAppName() + " stub")
			return runStub(c.Context, cfg, c.String("addr"), c.Duration("token-expiry"))
		},
	}
}

func runStub(ctx context.Context, cfg config.StubConfig, addr string, tokenExpiry time.Duration) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	handler, err := authserverfake.New(cfg, authserverfake.WithTokenExpiry(tokenExpiry))
	if err != nil {
		return fmt.Errorf("authserverfake.New: %w", err)
	}
	handler.LogRoutes()

	stopCtx, stop := waitForStopSignal(ctx)
	defer stop()

	server := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- listenAndServe(server)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-stopCtx.Done():
	}
	return shutdown(server)
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("Stub listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	log.Info().Msg("Stub stopped")
	return nil
}
