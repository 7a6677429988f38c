package storage

import (
	"context"

	"go.uber.org/zap"

	"tableconverter/internal/logger"
)

// dryRun logs the INSERT it would run instead of running it. Reads go to
// the wrapped repository.
type dryRun struct {
	Repository
	log *zap.SugaredLogger
}

// DryRun wraps repo so Insert only logs the statement. The statement is
// rendered by repo when it implements StatementRenderer.
func DryRun(repo Repository, log *zap.SugaredLogger) Repository {
	return &dryRun{Repository: repo, log: logger.OrNop(log).With(logger.FieldComponent, "dry-run")}
}

func (d *dryRun) Insert(_ context.Context, table string, columns, values []string) error {
	d.log.Infow("insert skipped", logger.FieldTable, table, logger.FieldQuery, d.render(table, columns, values))
	return nil
}

func (d *dryRun) render(table string, columns, values []string) string {
	if r, ok := d.Repository.(StatementRenderer); ok {
		return r.RenderInsert(table, columns, values)
	}
	return RenderInsert(table, columns, values)
}
