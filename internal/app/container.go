package app

import (
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/kanaplay/internal/infrastructure/config"
	"github.com/eslsoft/kanaplay/internal/infrastructure/database"
	"github.com/eslsoft/kanaplay/internal/infrastructure/logging"
	"github.com/eslsoft/kanaplay/internal/infrastructure/observability"
	"github.com/eslsoft/kanaplay/internal/repository"
	"github.com/eslsoft/kanaplay/internal/usecase"
	"github.com/eslsoft/kanaplay/internal/usecase/backup"
	"github.com/eslsoft/kanaplay/internal/worker"
)

// Container aggregates the application dependencies produced by Wire.
type Container struct {
	Config     *config.Config
	Logger     *logrus.Logger
	Tracing    *observability.Tracing
	LogHook    *logging.StoreHook
	DB         *database.DB
	Worker     *worker.Worker
	Sync       usecase.SyncUsecase
	Session    usecase.SessionUsecase
	Encounters usecase.EncounterUsecase
	Manager    *usecase.SyncManager
	Documents  repository.DocumentFinder
	Backup     *backup.Service
}
