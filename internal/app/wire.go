//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"

	"github.com/eslsoft/kanaplay/internal/adapter/remote"
	"github.com/eslsoft/kanaplay/internal/adapter/repository"
	"github.com/eslsoft/kanaplay/internal/infrastructure/config"
	"github.com/eslsoft/kanaplay/internal/infrastructure/database"
	"github.com/eslsoft/kanaplay/internal/infrastructure/logging"
	"github.com/eslsoft/kanaplay/internal/infrastructure/observability"
	"github.com/eslsoft/kanaplay/internal/infrastructure/store"
	"github.com/eslsoft/kanaplay/internal/infrastructure/wanikani"
	repo "github.com/eslsoft/kanaplay/internal/repository"
	"github.com/eslsoft/kanaplay/internal/usecase"
)

var configSet = wire.NewSet(
	config.Load,
)

var infraSet = wire.NewSet(
	logging.NewLogger,
	observability.InitTracing,
	database.Open,
	provideStore,
	wire.Bind(new(repo.Batcher), new(*store.Store)),
)

var repositorySet = wire.NewSet(
	repository.NewCollections,
	repository.NewSubjectRepository,
	repository.NewAssignmentRepository,
	repository.NewStudyMaterialRepository,
	repository.NewUserRepository,
	repository.NewEncounterRepository,
	repository.NewLogRepository,
	repository.NewFlagRepository,
	repository.NewDocumentFinder,
	provideLogHook,
)

var remoteSet = wire.NewSet(
	provideWaniKaniClient,
	remote.NewWaniKaniSource,
	wire.Bind(new(repo.Connectivity), new(*wanikani.Client)),
)

var usecaseSet = wire.NewSet(
	provideSyncSettings,
	wire.Struct(new(usecase.SyncRepositories), "*"),
	provideWorker,
	provideSyncClient,
	usecase.NewSessionUsecase,
	usecase.NewEncounterUsecase,
	provideSyncManager,
	provideBackup,
)

// Initialize builds the application container using Wire.
func Initialize() (*Container, func(), error) {
	wire.Build(
		configSet,
		infraSet,
		repositorySet,
		remoteSet,
		usecaseSet,
		wire.Struct(new(Container), "*"),
	)
	return nil, nil, nil
}
