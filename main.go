// main.go
//
// Entry point for the memory game backend.
// Loads configuration, opens and migrates SQLite, picks the card catalog,
// wires auth events into the session manager, sweeps idle sessions, and
// serves HTTP.

package main

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/memory/internal/auth"
	"github.com/robalobadob/memory/internal/catalog"
	"github.com/robalobadob/memory/internal/config"
	"github.com/robalobadob/memory/internal/httpserver"
	"github.com/robalobadob/memory/internal/session"
	"github.com/robalobadob/memory/internal/store"
)

func main() {
	cfg := config.Load()
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	db, err := store.OpenDB(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open db")
	}
	defer db.Close()
	if err := store.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate")
	}

	src, err := catalog.New(cfg.CatalogURL, cfg.CatalogFile, cfg.CatalogTimeout)
	if err != nil {
		log.Fatal().Err(err).Msg("load card catalog")
	}

	authSvc := auth.NewService(db, cfg.JWTSecret, cfg.JWTExpiry)
	sessions := session.New(store.NewDocuments(db), store.NewMemoryBlobs())
	authSvc.Subscribe(sessions.HandleAuthChange)
	go sessions.Run(context.Background(), time.Minute, cfg.SessionIdle)

	srv := httpserver.New(cfg, authSvc, sessions, src)
	log.Info().Str("port", cfg.Port).Bool("devRoutes", cfg.DevRoutes).Msg("starting memory server")
	if err := srv.Start(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
