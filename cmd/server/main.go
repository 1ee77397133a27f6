package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/thegreathir/jigarpich/internal/archive"
	"github.com/thegreathir/jigarpich/internal/bot"
	"github.com/thegreathir/jigarpich/internal/config"
	"github.com/thegreathir/jigarpich/internal/game"
	"github.com/thegreathir/jigarpich/internal/httpapi"
	"github.com/thegreathir/jigarpich/internal/hub"
	"github.com/thegreathir/jigarpich/internal/words"
	"github.com/thegreathir/jigarpich/internal/ws"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	log, err := cfg.Logger()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer log.Sync()

	if err := words.Init(cfg.WordsFile); err != nil {
		log.Fatal("failed to load words", zap.String("path", cfg.WordsFile), zap.Error(err))
	}
	easy, medium, hard := words.Default().Stats()
	log.Info("words loaded", zap.Int("easy", easy), zap.Int("medium", medium), zap.Int("hard", hard))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	h := hub.NewHub(ctx, log.Named("hub"))
	defer h.Shutdown()

	opts := []game.Option{
		game.WithSkipCooldown(cfg.SkipCooldown),
		game.WithAlerts(cfg.AlertSchedule()),
	}
	deps := httpapi.Deps{Log: log.Named("http")}
	if cfg.DatabaseURL != "" {
		arc, err := archive.Open(cfg.DatabaseURL, log.Named("archive"))
		if err != nil {
			log.Fatal("failed to open results archive", zap.Error(err))
		}
		defer arc.Close()
		opts = append(opts, game.WithRecorder(arc))
		deps.Results = arc
	} else {
		log.Info("DATABASE_URL not set, results archive disabled")
	}

	gw := ws.NewGateway(log.Named("ws"))
	orch := game.New(h, gw, words.Default(), log.Named("game"), opts...)
	gw.SetInbound(bot.NewRouter(orch, gw, log.Named("bot")))

	deps.Rooms = orch
	deps.WS = gw.Handler()
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           httpapi.SetupRoutes(deps),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server stopped", zap.Error(err))
	}
}
