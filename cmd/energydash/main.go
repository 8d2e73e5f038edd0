package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/energydash/energydash/pkg/backend"
	"github.com/energydash/energydash/pkg/dashboard"
	"github.com/energydash/energydash/pkg/log"
	"github.com/energydash/energydash/pkg/metrics"
	"github.com/energydash/energydash/pkg/poller"
	"github.com/energydash/energydash/pkg/present"
	"github.com/energydash/energydash/pkg/server"
	"github.com/energydash/energydash/pkg/tariff"
	"github.com/energydash/energydash/pkg/vendor"
	"github.com/levenlabs/go-lflag"
	"github.com/levenlabs/go-llog"
	"golang.org/x/sync/errgroup"
)

func main() {
	// init packages
	m := metrics.New()
	t := tariff.Configured()
	b := backend.Configured()
	v := vendor.Configured()
	sink := present.NewMemorySink()
	p := present.Configured(sink)
	d := dashboard.Configured(v, b, t, p, m)
	disp := present.NewDispatcher()

	// init server
	srv := server.Configured(d, sink, disp, m)

	// parse flags
	lflag.Configure()

	var level slog.Level
	// lflag automatically sets llog's level, but we need to set the slog level
	switch llog.GetLevel() {
	case llog.DebugLevel:
		level = slog.LevelDebug
	case llog.InfoLevel:
		level = slog.LevelInfo
	case llog.WarnLevel:
		level = slog.LevelWarn
	case llog.ErrorLevel:
		level = slog.LevelError
	default:
		panic(fmt.Errorf("unknown log level: %s", llog.GetLevel().String()))
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	log.SetDefaultLogLevel(level)
	slog.Debug("logger configured", slog.String("level", level.String()))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pl, err := poller.New(m, d.Jobs()...)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to create poller", "error", err)
		os.Exit(1)
	}
	d.RegisterCommands(disp, pl)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return pl.Run(gctx)
	})
	g.Go(func() error {
		// Run will block until context is canceled or error happens
		return srv.Run(gctx)
	})
	runErr := g.Wait()

	// destroys every chart and flushes the slot publisher
	if err := p.Close(context.Background()); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to close presenter", "error", err)
	}
	if runErr != nil {
		log.Ctx(ctx).ErrorContext(ctx, "server failed", "error", runErr)
		os.Exit(1)
	}
	log.Ctx(ctx).InfoContext(ctx, "server exited cleanly")
}
