package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/yigit/schoolbook/internal/pkg/logger"
	"github.com/yigit/schoolbook/internal/server"
)

// @title Schoolbook API
// @version 1.0
// @description Multi-tenant school records: grades, attendance, parent links, imports and report cards.

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT access token.

func main() {
	migrateOnly := flag.Bool("migrate-only", false, "apply database migrations and exit")
	flag.Parse()

	if *migrateOnly {
		if err := server.Migrate(); err != nil {
			logger.Error().Err(err).Msg("Migration failed")
			os.Exit(1)
		}
		return
	}

	srv, err := server.NewServer()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize server")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("Server stopped with an error")
		stop()
		os.Exit(1)
	}
}
