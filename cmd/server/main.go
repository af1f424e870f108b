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

	router "voicerelay/internal/adapters/http"
	"voicerelay/internal/adapters/ws"
	"voicerelay/internal/app"
	"voicerelay/internal/config"
	"voicerelay/internal/store"
	"voicerelay/internal/tlscert"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.Mode == "debug" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	st, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open store")
	}
	defer closeStore()

	sessions := app.NewRegistry()
	hub := ws.NewHub()
	coord := app.NewCoordinator(st, sessions, hub)
	relay := app.NewRelay(sessions, hub)
	speaking := app.NewSpeaking(coord)
	wsCtl := ws.NewController(coord, relay, speaking, hub, cfg.ReadLimit, cfg.PingPeriod)

	r := router.SetupRouter(ctx, cfg, coord, wsCtl)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("voicerelay HTTP server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("http server error")
		}
	}()

	var tlsSrv *http.Server
	if cfg.TLSEnabled {
		certPath, keyPath, err := tlscert.Ensure(cfg.CertDir)
		if err != nil {
			log.Error().Err(err).Msg("certificate provisioning failed, continuing HTTP only")
		} else {
			tlsSrv = &http.Server{
				Addr:    fmt.Sprintf(":%d", cfg.HTTPSPort),
				Handler: r,
			}
			go func() {
				log.Info().Str("addr", tlsSrv.Addr).Msg("voicerelay HTTPS server started")
				if err := tlsSrv.ListenAndServeTLS(certPath, keyPath); err != nil && err != http.ErrServerClosed {
					log.Error().Err(err).Msg("https server error")
				}
			}()
		}
	}

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	if tlsSrv != nil {
		if err := tlsSrv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("TLS server forced to shutdown")
		}
	}
	log.Info().Msg("Server exited gracefully")
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, func(), error) {
	switch cfg.Store {
	case "mongo":
		st, err := store.NewMongo(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, nil, err
		}
		return st, func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := st.Close(closeCtx); err != nil {
				log.Error().Err(err).Msg("mongo disconnect")
			}
		}, nil
	default:
		return store.NewMemory(), func() {}, nil
	}
}
