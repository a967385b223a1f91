package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"storefront/internal/config"
	"storefront/internal/infra/db"
	"storefront/internal/infra/memrepo"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/server"

	"github.com/joho/godotenv"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	//.envは無くてもよい
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Warn("load .env", "err", err)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Error("load config", "err", err)
		os.Exit(1)
	}

	repos, err := buildRepos(cfg)
	if err != nil {
		logger.Error("connect db", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e := server.New(cfg, repos, logger)
	logger.Info("listening", "addr", cfg.Addr(), "memory", cfg.UseMemory)
	if err := server.Start(ctx, e, cfg.Addr()); err != nil {
		logger.Error("server", "err", err)
		os.Exit(1)
	}
}

func buildRepos(cfg config.Config) (server.Repos, error) {
	if cfg.UseMemory {
		m := memrepo.New()
		return server.Repos{
			Products:     m.Products(),
			CartItems:    m.CartItems(),
			Favorites:    m.Favorites(),
			SiteSettings: m.SiteSettings(),
			AuditLogs:    m.AuditLogs(),
			Tx:           m,
		}, nil
	}

	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		return server.Repos{}, err
	}
	if err := db.Migrate(gormDB); err != nil {
		return server.Repos{}, err
	}

	//Repository（GORM実装）生成
	return server.Repos{
		Products:     infraRepo.NewProductGormRepository(gormDB),
		CartItems:    infraRepo.NewCartItemGormRepository(gormDB),
		Favorites:    infraRepo.NewFavoriteGormRepository(gormDB),
		SiteSettings: infraRepo.NewSiteSettingGormRepository(gormDB),
		AuditLogs:    infraRepo.NewAuditLogGormRepository(gormDB),
		Tx:           infraRepo.NewTxManagerGorm(gormDB),
	}, nil
}
