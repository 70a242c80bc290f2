package scheduler

import (
	"database/sql"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/hcollier/todo-api/internal/metrics"
)

// Run starts a background cron job that samples the database connection pool
// into the metrics gauges. spec is a cron expression (e.g. "@every 1m").
// Stop the returned cron when shutting down.
func Run(db *sql.DB, spec string) (*cron.Cron, error) {
	c := cron.New()

	_, err := c.AddFunc(spec, func() {
		metrics.RecordDBStats(db.Stats())
	})
	if err != nil {
		return nil, err
	}

	// Record once at startup so gauges are populated before the first tick.
	metrics.RecordDBStats(db.Stats())

	c.Start()
	slog.Info("db stats sampler started", "spec", spec)
	return c, nil
}
