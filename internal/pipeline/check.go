package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"tableconverter/internal/config"
	"tableconverter/internal/convert"
	"tableconverter/internal/dedup"
	"tableconverter/internal/logger"
	"tableconverter/internal/mapping"
	"tableconverter/internal/transform"
)

// CheckResult is what a dry resolution of one export found.
type CheckResult struct {
	Source        string
	InputHeaders  []string
	OutputHeaders []string
	Rows          int
}

// offline answers every existence query with "absent". Check uses it so the
// duplicate detector's configuration is validated without a database.
type offline struct{}

func (offline) Exists(context.Context, string, string, string) (bool, error) { return false, nil }

// Check loads the mapping and the export at location and resolves them
// against each other without touching the destination. It fails with the
// error a real run would fail with before its first insert, except for
// answer-code lookups, which need the database.
func Check(ctx context.Context, cfg *config.Run, location string, log *zap.SugaredLogger) (*CheckResult, error) {
	log = logger.OrNop(log)
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	spec, err := mapping.Load(cfg.MappingFile)
	if err != nil {
		return nil, err
	}
	table, err := readTable(ctx, cfg.Source, location, log)
	if err != nil {
		return nil, err
	}

	fns := transform.NewBuiltins(TransformOptions(cfg, loc, time.Now), transform.NewLookups(nil, LookupConfig(cfg), log))
	plan, err := mapping.Resolve(spec, table.Headers, fns)
	if err != nil {
		return nil, err
	}
	if _, err := convert.New(plan, fns); err != nil {
		return nil, err
	}
	if _, err := dedup.New(plan, offline{}, dedup.Options{
		Field:    cfg.UniquenessField,
		Table:    cfg.Storage.Table,
		Disabled: cfg.PreventSkipping,
		Location: loc,
	}, log); err != nil {
		return nil, err
	}

	return &CheckResult{
		Source:        location,
		InputHeaders:  table.Headers,
		OutputHeaders: plan.Headers,
		Rows:          len(table.Rows),
	}, nil
}
