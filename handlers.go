package dokit

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/helixml/dokit/application/handler"
	documenthandler "github.com/helixml/dokit/application/handler/document"
	"github.com/helixml/dokit/application/service"
	"github.com/helixml/dokit/domain/task"
	"github.com/helixml/dokit/infrastructure/tracking"
)

// registerHandlers installs a handler for each queue operation the client
// can dispatch.
func (c *Client) registerHandlers() error {
	c.registry.Register(task.OperationExtractText, documenthandler.NewExtractText(
		c.Ingest, c.trackerFactory, c.logger,
	))
	c.registry.Register(task.OperationCreateEmbeddings, documenthandler.NewCreateEmbeddings(
		c.Ingest, c.trackerFactory, c.logger,
	))
	c.registry.Register(task.OperationDeleteDocument, documenthandler.NewDelete(
		c.documentStore, c.chunkStore, c.blobs, c.statusStore, c.queue, c.trackerFactory, c.logger,
	))

	c.logger.Info("registered task handlers", slog.Int("count", len(c.registry.Operations())))
	return nil
}

// validateHandlers confirms every prescribed operation is routable before
// the worker starts.
func (c *Client) validateHandlers() error {
	var missing []string
	for _, op := range (task.PrescribedOperations{}).All() {
		if !c.registry.HasHandler(op) {
			missing = append(missing, op.String())
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("missing handlers for operations: [%s]", strings.Join(missing, ", "))
}

// buildDatabaseURL derives the connection URL from the configured backend.
func buildDatabaseURL(cfg *clientConfig) (string, error) {
	switch cfg.database {
	case databaseSQLite:
		return "sqlite:///" + cfg.dbPath, nil
	case databasePostgres:
		return cfg.dbDSN, nil
	default:
		return "", ErrNoDatabase
	}
}

// trackerFactoryImpl builds progress trackers with the client reporters
// already subscribed.
type trackerFactoryImpl struct {
	reporters []tracking.Reporter
	logger    *slog.Logger
}

func (f *trackerFactoryImpl) ForOperation(operation task.Operation, trackableType task.TrackableType, trackableID int64) handler.Tracker {
	tracker := tracking.TrackerForOperation(operation, f.logger, trackableType, trackableID)
	for _, reporter := range f.reporters {
		tracker.Subscribe(reporter)
	}
	return tracker
}

// workerTrackerAdapter narrows trackerFactoryImpl to the smaller tracker
// interface the worker needs.
type workerTrackerAdapter struct {
	factory *trackerFactoryImpl
}

func (a *workerTrackerAdapter) ForOperation(operation task.Operation, trackableType task.TrackableType, trackableID int64) service.WorkerTracker {
	return a.factory.ForOperation(operation, trackableType, trackableID)
}
