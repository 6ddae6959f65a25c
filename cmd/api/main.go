package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geofield/worksheet-system/internal/api"
	"github.com/geofield/worksheet-system/internal/core/ports"
	"github.com/geofield/worksheet-system/internal/core/service"
	"github.com/geofield/worksheet-system/internal/infrastructure/config"
	mongodb "github.com/geofield/worksheet-system/internal/infrastructure/db/mongo"
	redisdb "github.com/geofield/worksheet-system/internal/infrastructure/db/redis"
	"github.com/geofield/worksheet-system/internal/infrastructure/identity"
	"github.com/geofield/worksheet-system/pkg/logger"
)

// rootSubjectID is the fixed identity-provider subject of the bootstrap ADMIN
// account, so repeated startups reconcile the same account.
const rootSubjectID = "root-bootstrap-user"

func main() {
	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		bootLog := logger.Init(logger.Options{})
		bootLog.Fatal().Err(err).Msg("load configuration")
	}

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	// --- Stores ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		Timeout:  cfg.Mongo.Timeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connect")
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Warn().Err(err).Msg("mongo disconnect")
		}
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Timeout:  cfg.Redis.Timeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connect")
	}
	defer rdb.Close()

	userRepo := mongodb.NewUserRepository(db)
	worksheetRepo := mongodb.NewWorksheetRepository(db)
	sessionStore := redisdb.NewSessionStore(rdb)

	if err := userRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("ensure user indexes")
	}
	if err := worksheetRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("ensure worksheet indexes")
	}

	// --- Identity provider ---
	var provider ports.IdentityProvider
	if cfg.Identity.UseFirebase() {
		fb, err := identity.NewFirebaseProvider(ctx, cfg.Identity.FirebaseCredentialsFile, cfg.Identity.FirebaseAPIKey)
		if err != nil {
			log.Fatal().Err(err).Msg("firebase provider")
		}
		provider = fb
		log.Info().Msg("using firebase identity provider")
	} else {
		local := identity.NewLocalProvider(db)
		if err := local.EnsureIndexes(ctx); err != nil {
			log.Fatal().Err(err).Msg("ensure credential indexes")
		}
		provider = local
		log.Info().Msg("using local identity provider")
	}

	// --- Services ---
	accountService := service.NewAccountService(userRepo, sessionStore, provider, service.RootAccount{
		SubjectID: rootSubjectID,
		Email:     cfg.Root.Email,
		Password:  cfg.Root.Password,
		Name:      cfg.Root.Name,
	}, log)
	userService := service.NewUserService(userRepo, sessionStore, provider, log)
	worksheetService := service.NewWorksheetService(worksheetRepo, log)

	if err := accountService.EnsureRoot(ctx); err != nil {
		log.Fatal().Err(err).Msg("ensure root account")
	}

	// --- HTTP server ---
	e := api.NewRouter(db, rdb, api.Services{
		Accounts:   accountService,
		Users:      userService,
		Worksheets: worksheetService,
		Sessions:   sessionStore,
	}, cfg.SessionSecret, log)

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server start")
		}
	}()
	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	log.Info().Msg("server stopped")
}
