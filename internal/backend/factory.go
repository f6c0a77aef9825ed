// Package backend wires the dependency graph shared by the API server
// and the engine worker.
package backend

import (
	"fmt"
	"log/slog"

	"scenplan/internal/amqp"
	"scenplan/internal/config"
	"scenplan/internal/services"
	"scenplan/internal/storage"
)

// Backend holds the repository, broker client, and services built from
// one configuration.
type Backend struct {
	Repo     *storage.SQLiteRepository
	AMQP     *amqp.Client
	Catalog  *services.CatalogService
	BOQ      *services.BOQService
	Workflow *services.WorkflowService
	Engine   *services.EngineService
}

// New builds the full graph. The AMQP client is optional: connection
// failures log a warning and the engine falls back to inline runs. The
// invalidator may be nil for processes without a schedule cache.
func New(logger *slog.Logger, cfg *config.Config, invalidator services.ScheduleInvalidator) (*Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("initialize repository: %w", err)
	}

	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, engine runs execute inline", "error", err)
			amqpClient = nil
		} else {
			logger.Info("Initialized AMQP client",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
		}
	}

	catalog := services.NewCatalogService(repo)

	logger.Info("Initialized SQLite backend",
		"db_path", cfg.SQLiteDBPath,
		"amqp_enabled", amqpClient != nil)

	return &Backend{
		Repo:     repo,
		AMQP:     amqpClient,
		Catalog:  catalog,
		BOQ:      services.NewBOQService(repo, catalog, invalidator),
		Workflow: services.NewWorkflowService(repo),
		Engine:   services.NewEngineService(repo, amqpClient),
	}, nil
}

// Close releases the broker connection and the database.
func (b *Backend) Close() {
	if b.AMQP != nil {
		if err := b.AMQP.Close(); err != nil {
			slog.Warn("Failed to close AMQP client", "error", err)
		}
	}
	if err := b.Repo.Close(); err != nil {
		slog.Warn("Failed to close repository", "error", err)
	}
}
