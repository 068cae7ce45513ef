package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/guilleprfc/video-chat-app/internal/adapters/http"
	"github.com/guilleprfc/video-chat-app/internal/adapters/gateway"
	"github.com/guilleprfc/video-chat-app/internal/adapters/rtc"
	"github.com/guilleprfc/video-chat-app/internal/app"
	"github.com/guilleprfc/video-chat-app/internal/app/orch"
	"github.com/guilleprfc/video-chat-app/internal/config"
	"github.com/guilleprfc/video-chat-app/internal/domain"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("failed to load config")
	}

	transport := gateway.NewTransport(cfg.KeepAlivePeriod)
	media := rtc.NewFactory(cfg.ICEServers)
	engine := app.NewEngine(app.DisplayKey{})
	streams := app.NewStreams()

	o := orch.New(transport, media, engine, streams, orch.Options{
		ServerURL:       cfg.GatewayURL,
		HallRoom:        domain.RoomID(cfg.HallRoom),
		HallDescription: cfg.HallDescription,
		ControlRoom:     domain.RoomID(cfg.ControlRoom),
	})

	r := router.SetupRouter(cfg, o)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("tour client started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	o.Close()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
