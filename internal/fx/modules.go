package fx

import (
	"arena-tracker/internal/champions"
	"arena-tracker/internal/config"
	"arena-tracker/internal/database"
	"arena-tracker/internal/logger"
	"arena-tracker/internal/repository"
	"arena-tracker/internal/riot"
	"arena-tracker/internal/server"
	"arena-tracker/internal/service"
	syncengine "arena-tracker/internal/sync"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func ProvideEngine(client *riot.Client, catalog *champions.Catalog, log zerolog.Logger) *syncengine.Engine {
	return syncengine.NewEngine(client, catalog, log)
}

func ProvideTracker(
	client *riot.Client,
	engine *syncengine.Engine,
	accounts *repository.AccountRepository,
	records *repository.RecordRepository,
	catalog *champions.Catalog,
	log zerolog.Logger,
) *service.Tracker {
	return service.NewTracker(client, engine, accounts, records, catalog, log)
}

var Module = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	fx.Provide(database.New),
	fx.Provide(champions.NewCatalog),
	// repos
	fx.Provide(repository.NewAccountRepository),
	fx.Provide(repository.NewRecordRepository),
	// riot api client + sync engine
	fx.Provide(riot.NewClient),
	fx.Provide(ProvideEngine),
	// svc
	fx.Provide(ProvideTracker),
	// server
	fx.Provide(server.New),
)
