package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hallyulab/musebook/backend/internal/auth"
	"github.com/hallyulab/musebook/backend/internal/charm"
	"github.com/hallyulab/musebook/backend/internal/config"
	"github.com/hallyulab/musebook/backend/internal/database"
	"github.com/hallyulab/musebook/backend/internal/logging"
	"github.com/hallyulab/musebook/backend/internal/muses"
	"github.com/hallyulab/musebook/backend/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	cfgFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "musebook-api",
		Short: "Musebook archive backend service",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}

	setupFlags(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	cmd.PersistentFlags().String("http-address", defaults.GetString("http.address"), "HTTP listen address")
	cmd.PersistentFlags().String("database-path", defaults.GetString("database.path"), "SQLite database path")
	cmd.PersistentFlags().Int("sync-interval-seconds", defaults.GetInt("sync.interval_seconds"), "Background feed sync period in seconds")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("access-key", "", "Archive access key (overrides env)")
	cmd.PersistentFlags().String("signing-secret", "", "Session signing secret (overrides env)")
	cmd.PersistentFlags().String("charm-api-key", "", "Charm analysis API key (overrides env)")
	cmd.PersistentFlags().String("charm-model", defaults.GetString("charm.model"), "Charm analysis model name")
	cmd.PersistentFlags().String("charm-base-url", defaults.GetString("charm.base_url"), "Charm analysis API base URL")

	bindFlag(cmd, "http.address", "http-address")
	bindFlag(cmd, "database.path", "database-path")
	bindFlag(cmd, "sync.interval_seconds", "sync-interval-seconds")
	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "auth.access_key", "access-key")
	bindFlag(cmd, "auth.signing_secret", "signing-secret")
	bindFlag(cmd, "charm.api_key", "charm-api-key")
	bindFlag(cmd, "charm.model", "charm-model")
	bindFlag(cmd, "charm.base_url", "charm-base-url")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	if err := viper.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if cfgFile != "" && errors.As(err, &configNotFound) {
			return err
		}
	}

	return nil
}

func runServer(ctx context.Context) error {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(appConfig.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	db, err := database.OpenSQLite(appConfig.DatabasePath, logger)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	archive, err := muses.NewGormArchive(db, time.Now)
	if err != nil {
		return err
	}
	store, err := muses.NewStore(muses.StoreConfig{
		Archive: archive,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	museService, err := muses.NewService(muses.ServiceConfig{
		Store:      store,
		IDProvider: muses.NewUUIDProvider(),
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	// The charm generator is optional; without credentials the detail view
	// serves its fixed fallback text instead of failing requests.
	var analyzer muses.Analyzer
	if appConfig.CharmAPIKey != "" {
		generator, err := charm.NewGenerator(charm.GeneratorConfig{
			APIKey:  appConfig.CharmAPIKey,
			Model:   appConfig.CharmModel,
			BaseURL: appConfig.CharmBaseURL,
			Logger:  logger,
		})
		if err != nil {
			return err
		}
		analyzer = generator
	} else {
		logger.Warn("charm api key not configured, analysis requests will use fallback text")
	}

	detailService, err := muses.NewDetailService(muses.DetailConfig{
		Store:    store,
		Analyzer: analyzer,
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	museService.SetDeleteHook(detailService.Close)

	dispatcher := server.NewRealtimeDispatcher()
	syncer, err := muses.NewSyncer(muses.SyncerConfig{
		Store:    store,
		Interval: appConfig.SyncInterval,
		Logger:   logger,
		Notify: func(museID string) {
			dispatcher.Publish(server.RealtimeMessage{
				EventType: server.RealtimeEventSyncUpdate,
				MuseIDs:   []string{museID},
				Timestamp: time.Now().UTC(),
			})
		},
	})
	if err != nil {
		return err
	}
	defer syncer.Stop()

	tokenManager := auth.NewTokenIssuer(auth.TokenIssuerConfig{
		SigningSecret: []byte(appConfig.SigningSecret),
		AccessKey:     appConfig.AccessKey,
		Issuer:        "musebook-auth",
		Audience:      "musebook-api",
	})

	handler, err := server.NewHTTPHandler(server.Dependencies{
		MuseService:   museService,
		DetailService: detailService,
		Syncer:        syncer,
		TokenManager:  tokenManager,
		Dispatcher:    dispatcher,
		Logger:        logger,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:    appConfig.HTTPAddress,
		Handler: handler,
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("address", appConfig.HTTPAddress))
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-signalCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
