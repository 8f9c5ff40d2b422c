package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dom/pkmn-draft-website/internal/api"
	"github.com/dom/pkmn-draft-website/internal/config"
	"github.com/dom/pkmn-draft-website/internal/draftdb"
	"github.com/dom/pkmn-draft-website/internal/manager"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := draftdb.Load(cfg.DataDir)
	if err != nil {
		log.Fatal().Err(err).Str("dir", cfg.DataDir).Msg("failed to load item database")
	}
	if len(db.SetNames()) == 0 {
		log.Warn().Str("dir", cfg.DataDir).Msg("no draft sets found")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mgr := manager.New(db, clockwork.NewRealClock(), manager.Config{
		ItemTime:  cfg.ItemTime,
		SlushTime: cfg.SlushTime,
	})
	go mgr.Run(ctx)

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      api.NewRouter(mgr),
		ReadTimeout:  15 * time.Second,
		IdleTimeout:  60 * time.Second,
		// No WriteTimeout: poll requests stay open until the player's
		// view changes.
	}

	go func() {
		if cfg.ServeTLS() {
			go runRedirectServer(cfg.HTTPSHost)
			log.Info().Str("addr", cfg.Addr).Msg("server starting with TLS")
			if err := srv.ListenAndServeTLS(cfg.TLSCert, cfg.TLSKey); err != nil && err != http.ErrServerClosed {
				log.Fatal().Err(err).Msg("failed to start server")
			}
			return
		}
		log.Info().Str("addr", cfg.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

// runRedirectServer binds port 80 and bounces every request to the HTTPS
// host.
func runRedirectServer(httpsHost string) {
	redirect := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host := httpsHost
		if host == "" {
			host = r.Host
		}
		http.Redirect(w, r, "https://"+host+r.URL.RequestURI(), http.StatusMovedPermanently)
	})
	if err := http.ListenAndServe("0.0.0.0:80", redirect); err != nil {
		log.Error().Err(err).Msg("https redirect listener failed")
	}
}
