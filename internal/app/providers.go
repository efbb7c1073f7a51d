package app

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/eslsoft/kanaplay/internal/infrastructure/config"
	"github.com/eslsoft/kanaplay/internal/infrastructure/database"
	"github.com/eslsoft/kanaplay/internal/infrastructure/logging"
	"github.com/eslsoft/kanaplay/internal/infrastructure/store"
	"github.com/eslsoft/kanaplay/internal/infrastructure/wanikani"
	"github.com/eslsoft/kanaplay/internal/repository"
	"github.com/eslsoft/kanaplay/internal/usecase"
	"github.com/eslsoft/kanaplay/internal/usecase/backup"
	"github.com/eslsoft/kanaplay/internal/worker"
)

// provideStore migrates the schema before handing out the store.
func provideStore(db *database.DB, logger *logrus.Logger) (*store.Store, error) {
	if err := db.Migrate(context.Background()); err != nil {
		return nil, err
	}
	return store.New(db, store.WithLogger(logger)), nil
}

// provideLogHook persists log entries into the local store once it exists.
func provideLogHook(logger *logrus.Logger, logs repository.LogRepository, cfg *config.Config) (*logging.StoreHook, func()) {
	hook := logging.NewStoreHook(logs, logging.WithRetain(cfg.Log.Retain))
	logger.AddHook(hook)
	return hook, func() {
		_ = hook.Close()
	}
}

func provideWaniKaniClient(cfg *config.Config, logger *logrus.Logger) (*wanikani.Client, error) {
	return wanikani.NewClient(cfg, wanikani.WithLogger(logger))
}

func provideSyncSettings(cfg *config.Config) usecase.SyncSettings {
	return usecase.SyncSettings{
		EntityInterval: cfg.Sync.EntityInterval,
		PushBatchSize:  cfg.Sync.PushBatchSize,
		PushBatchDelay: cfg.Sync.PushBatchDelay,
	}
}

// provideWorker starts the background context that owns the sync engine.
func provideWorker(repos usecase.SyncRepositories, remote repository.RemoteSource, conn repository.Connectivity, settings usecase.SyncSettings, logger *logrus.Logger) (*worker.Worker, func()) {
	engine := usecase.NewSyncUsecase(repos, remote, conn, settings, logger)
	w := worker.New(engine, logger)
	w.Start()
	return w, w.Stop
}

// provideSyncClient exposes the worker to the rest of the app as a SyncUsecase.
func provideSyncClient(w *worker.Worker) usecase.SyncUsecase {
	return w.Client()
}

func provideSyncManager(syncer usecase.SyncUsecase, flags repository.FlagRepository, conn repository.Connectivity, cfg *config.Config, logger *logrus.Logger) *usecase.SyncManager {
	return usecase.NewSyncManager(syncer, flags, conn, cfg.Sync.CycleInterval, logger)
}

func provideBackup(db *database.DB) (*backup.Service, error) {
	return backup.NewService(db)
}
