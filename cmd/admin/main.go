package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/alumnae/internal/admin"
	"github.com/dmitrijs2005/alumnae/internal/logging"
	"github.com/dmitrijs2005/alumnae/internal/server"
	"github.com/dmitrijs2005/alumnae/internal/server/auth"
	"github.com/dmitrijs2005/alumnae/internal/server/config"
	"github.com/dmitrijs2005/alumnae/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/alumnae/internal/server/services"
)

func connect(ctx context.Context) (*admin.Backend, error) {
	cfg := config.LoadConfig()
	logger := logging.NewJSON(os.Stderr, cfg.LogLevel).With("module", "admin")

	db, err := server.OpenDB(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}

	rm := repomanager.NewPostgresRepositoryManager()
	clock := auth.SystemClock{}
	ac := server.NewAuthComponents(cfg, clock, nil, logger)
	revocations := services.NewRevocationService(db, rm, ac)

	return &admin.Backend{
		DB:       db,
		Migrator: rm,
		Accounts: services.NewUserService(db, rm, ac, revocations),
		Pruner:   revocations,
		Clock:    clock,
	}, nil
}

func main() {
	tool := admin.NewTool(connect, os.Stdin, os.Stdout)
	if err := tool.App().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
