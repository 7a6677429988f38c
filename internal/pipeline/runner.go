// Package pipeline drives one survey import from export to destination.
//
// A run goes through fixed stages, each timed and counted in metrics:
//
//	load_spec -> read_source -> resolve -> preload -> rows -> report
//
// Rows are handled one at a time in export order: duplicate check, convert,
// insert. The first fatal error stops the run; rows written before it stay
// written.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tableconverter/internal/config"
	"tableconverter/internal/convert"
	"tableconverter/internal/dedup"
	"tableconverter/internal/errors"
	"tableconverter/internal/logger"
	"tableconverter/internal/mapping"
	"tableconverter/internal/metrics"
	"tableconverter/internal/parser"
	"tableconverter/internal/storage"
	"tableconverter/internal/transform"
)

// Stage names as reported in logs and metrics.
const (
	StageLoadSpec   = "load_spec"
	StageReadSource = "read_source"
	StageResolve    = "resolve"
	StagePreload    = "preload"
	StageRows       = "rows"
	StageReport     = "report"
)

// Report summarizes one run.
type Report struct {
	RunID  string
	Source string

	// Rows is the number of data rows read from the export.
	Rows     int
	Inserted int
	Skipped  int

	// Frequency counts the satisfaction codes produced, by code.
	Frequency map[string]int
	Duration  time.Duration
}

// Print writes a human-readable summary to w.
func (r *Report) Print(w io.Writer) {
	fmt.Fprintf(w, "run %s: %s\n", r.RunID, r.Source)
	fmt.Fprintf(w, "  rows:     %d\n", r.Rows)
	fmt.Fprintf(w, "  inserted: %d\n", r.Inserted)
	fmt.Fprintf(w, "  skipped:  %d\n", r.Skipped)
	if len(r.Frequency) > 0 {
		fmt.Fprintln(w, "  satisfaction codes:")
		for _, code := range slices.Sorted(maps.Keys(r.Frequency)) {
			fmt.Fprintf(w, "    %-8s %d\n", code, r.Frequency[code])
		}
	}
	fmt.Fprintf(w, "  duration: %s\n", r.Duration.Truncate(time.Millisecond))
}

// Runner imports exports into the destination configured by a Run.
type Runner struct {
	cfg  *config.Run
	repo storage.Repository
	log  *zap.SugaredLogger
	loc  *time.Location
	now  func() time.Time
	job  string
}

// Option customizes a Runner.
type Option func(*Runner)

// WithClock replaces time.Now for the datestamp and submitdate transforms.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// New returns a Runner writing to repo. When cfg.Debug is set, inserts are
// logged instead of executed.
func New(cfg *config.Run, repo storage.Repository, log *zap.SugaredLogger, opts ...Option) (*Runner, error) {
	if repo == nil {
		return nil, errors.Configurationf("pipeline: repository is nil")
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	log = logger.OrNop(log)
	if cfg.Debug {
		repo = storage.DryRun(repo, log)
	}
	job := cfg.Metrics.Job
	if job == "" {
		job = "tableconverter"
	}
	r := &Runner{cfg: cfg, repo: repo, log: log, loc: loc, now: time.Now, job: job}
	for _, o := range opts {
		o(r)
	}
	return r, nil
}

// RunAll imports every configured export in order and stops at the first
// failing one. The reports of completed runs are returned with the error.
func (r *Runner) RunAll(ctx context.Context) ([]*Report, error) {
	locs, err := Locations(r.cfg)
	if err != nil {
		return nil, err
	}
	reports := make([]*Report, 0, len(locs))
	for _, loc := range locs {
		rep, err := r.Run(ctx, loc)
		if rep != nil {
			reports = append(reports, rep)
		}
		if err != nil {
			return reports, errors.Wrapf(err, "import %s", loc)
		}
	}
	return reports, nil
}

// Run imports the export at location. On failure the partial report is
// returned alongside the error.
func (r *Runner) Run(ctx context.Context, location string) (*Report, error) {
	start := time.Now()
	rep := &Report{RunID: uuid.NewString(), Source: location}
	log := r.log.With(logger.FieldRunID, rep.RunID)
	log.Infow("run started", logger.FieldPath, location, logger.FieldTable, r.cfg.Storage.Table, "dry_run", r.cfg.Debug)

	var (
		spec  *mapping.Spec
		table *parser.Table
		plan  *mapping.Plan
		lk    = transform.NewLookups(r.repo, LookupConfig(r.cfg), log)
		fns   = transform.NewBuiltins(TransformOptions(r.cfg, r.loc, r.now), lk)
	)

	err := r.step(log, StageLoadSpec, func() (err error) {
		spec, err = mapping.Load(r.cfg.MappingFile)
		return err
	})
	if err == nil {
		err = r.step(log, StageReadSource, func() (err error) {
			table, err = readTable(ctx, r.cfg.Source, location, log)
			return err
		})
	}
	if err == nil {
		err = r.step(log, StageResolve, func() (err error) {
			plan, err = mapping.Resolve(spec, table.Headers, fns)
			return err
		})
	}
	if err == nil {
		err = r.step(log, StagePreload, func() error {
			return lk.Preload(ctx, spec)
		})
	}
	if err == nil {
		rep.Rows = len(table.Rows)
		metrics.RecordRow(r.job, "read", int64(rep.Rows))
		err = r.step(log, StageRows, func() error {
			return r.importRows(ctx, log, plan, fns, table.Rows, rep)
		})
	}

	rep.Frequency = lk.Frequency()
	rep.Duration = time.Since(start)
	_ = r.step(log, StageReport, func() error {
		metrics.RecordRow(r.job, "inserted", int64(rep.Inserted))
		metrics.RecordRow(r.job, "skipped", int64(rep.Skipped))
		for code, n := range rep.Frequency {
			metrics.RecordFrequency(r.job, code, int64(n))
		}
		return nil
	})

	if err != nil {
		log.Errorw("run failed",
			logger.FieldError, err,
			logger.FieldErrorKind, errors.Kind(err),
			"inserted", rep.Inserted,
			"skipped", rep.Skipped)
		return rep, err
	}
	log.Infow("run finished",
		"rows", rep.Rows,
		"inserted", rep.Inserted,
		"skipped", rep.Skipped,
		"frequency", rep.Frequency,
		logger.FieldDuration, rep.Duration.Milliseconds())
	return rep, nil
}

// importRows runs the per-row loop: duplicate check, convert, insert.
func (r *Runner) importRows(ctx context.Context, log *zap.SugaredLogger, plan *mapping.Plan, fns *transform.Registry, rows [][]string, rep *Report) error {
	conv, err := convert.New(plan, fns)
	if err != nil {
		return err
	}
	det, err := dedup.New(plan, r.repo, dedup.Options{
		Field:    r.cfg.UniquenessField,
		Table:    r.cfg.Storage.Table,
		Disabled: r.cfg.PreventSkipping,
		Location: r.loc,
	}, log)
	if err != nil {
		return err
	}

	headers := conv.Headers()
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := i + 1

		if det.IsDuplicate(ctx, row) {
			rep.Skipped++
			log.Infow("row skipped, already imported", logger.FieldLine, line, logger.FieldKey, det.Key(row))
			continue
		}

		out, err := conv.Convert(ctx, line, row)
		if err != nil {
			return err
		}
		if err := r.repo.Insert(ctx, r.cfg.Storage.Table, headers, out); err != nil {
			return errors.Wrapf(err, "line %d", line)
		}
		det.Remember(det.Key(row))
		rep.Inserted++
		log.Debugw("row inserted", logger.FieldLine, line)
	}
	return nil
}

// step runs fn as the named stage and records its outcome.
func (r *Runner) step(log *zap.SugaredLogger, name string, fn func() error) error {
	start := time.Now()
	err := fn()
	d := time.Since(start)
	metrics.RecordStep(r.job, name, err, d)
	log.Debugw("stage done", logger.FieldStage, name, logger.FieldDuration, d.Milliseconds(), logger.FieldError, err)
	return err
}
