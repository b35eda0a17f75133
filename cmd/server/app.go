package main

import (
	"database/sql"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iliyamo/maternal-vitals/internal/config"
	"github.com/iliyamo/maternal-vitals/internal/database"
	"github.com/iliyamo/maternal-vitals/internal/queue"
	"github.com/iliyamo/maternal-vitals/internal/repository"
	"github.com/iliyamo/maternal-vitals/internal/service"
	"github.com/iliyamo/maternal-vitals/internal/utils"
)

// app holds the process-wide dependencies shared by the subcommands.
type app struct {
	cfg config.Config
	log zerolog.Logger
	db  *sql.DB
	rdb *redis.Client         // nil when Redis is disabled
	pub *queue.AsyncPublisher // nil when no broker is configured

	tokens      *repository.TokenRepo
	identity    *service.IdentityRegistry
	assignments *service.AssignmentDirectory
	alerts      *service.AlertEngine
	ingestor    *service.TelemetryIngestor
	history     *service.HistoryService
}

// newApp loads configuration, opens the database and wires the services.
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := config.NewLogger(cfg)

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, log: log, db: db, rdb: config.NewRedisClient()}

	accounts := repository.NewAccountRepo(db)
	patients := repository.NewPatientRepo(db)
	doctors := repository.NewDoctorRepo(db)
	readings := repository.NewReadingRepo(db)
	alerts := repository.NewAlertRepo(db)
	a.tokens = repository.NewTokenRepo(db)

	cacheCfg := config.LoadCacheConfig()
	assignCache := a.rdb
	if !cacheCfg.Enabled {
		assignCache = nil
	}
	a.assignments = service.NewAssignmentDirectory(repository.NewAssignmentRepo(db), doctors, assignCache, cacheCfg.AssignmentTTL, log)
	a.alerts = service.NewAlertEngine(alerts, a.assignments)
	a.identity = service.NewIdentityRegistry(db, accounts, patients, doctors, utils.BcryptHasher{Cost: cfg.BcryptCost}, log)
	a.history = service.NewHistoryService(patients, readings, alerts, a.assignments)

	// A nil *Publisher inside the interface would not compare equal to nil.
	var events service.AlertPublisher
	if cfg.RabbitURL != "" {
		a.pub = queue.NewAsyncPublisher(queue.NewPublisher(cfg.RabbitURL, log), 256, log)
		events = a.pub
	} else {
		log.Info().Msg("RABBITMQ_URL not set; alert events disabled")
	}
	a.ingestor = service.NewTelemetryIngestor(db, patients, readings, a.alerts, events, cfg.AlertOnNoSignal, log)
	return a, nil
}

func (a *app) Close() {
	if a.pub != nil {
		_ = a.pub.Close(5 * time.Second)
	}
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
	_ = a.db.Close()
}
