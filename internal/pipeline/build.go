package pipeline

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"tableconverter/internal/config"
	"tableconverter/internal/datasource"
	"tableconverter/internal/datasource/file"
	"tableconverter/internal/datasource/httpds"
	"tableconverter/internal/errors"
	"tableconverter/internal/parser"
	csvparser "tableconverter/internal/parser/csv"
	xlsxparser "tableconverter/internal/parser/xlsx"
	"tableconverter/internal/storage"
	"tableconverter/internal/transform"
)

// Function variables used as test seams.
var (
	newRepositoryFn = storage.New
	openSourceFn    = openSource
)

// StorageConfig maps the run's storage section onto a storage.Config.
func StorageConfig(run *config.Run) storage.Config {
	s := run.Storage
	return storage.Config{
		Kind:         s.Kind,
		DSN:          s.DSN,
		Host:         s.Host,
		Port:         s.Port,
		User:         s.User,
		Password:     s.Password,
		Database:     s.Database,
		Params:       s.Params,
		SQLMode:      s.SQLMode,
		MaxOpenConns: s.MaxOpenConns,
	}
}

// OpenRepository opens the destination configured by run.
func OpenRepository(ctx context.Context, run *config.Run) (storage.Repository, error) {
	return newRepositoryFn(ctx, StorageConfig(run))
}

// TransformOptions maps the run's transforms section onto transform.Options.
func TransformOptions(run *config.Run, loc *time.Location, now func() time.Time) transform.Options {
	t := run.Transforms
	return transform.Options{
		StatusColumn:       t.StatusColumn,
		SatisfactionColumn: t.SatisfactionColumn,
		DatestampColumn:    t.DatestampColumn,
		StartdateColumn:    t.StartdateColumn,
		CompleteStatus:     t.CompleteStatus,
		CompletedLabel:     t.CompletedLabel,
		LastPage:           t.LastPage,
		Location:           loc,
		Now:                now,
	}
}

// LookupConfig maps the run onto the answer-code lookup settings.
func LookupConfig(run *config.Run) transform.LookupConfig {
	return transform.LookupConfig{
		AnswersTable: run.Storage.AnswersTable,
		QID:          run.QID,
		RegionQID:    run.RegionQID,
		Language:     run.Language,
		StripHTML:    run.Transforms.StripAnswerHTML,
	}
}

// Locations returns the exports a run imports: the entries of source.list
// when set, else source.path.
func Locations(run *config.Run) ([]string, error) {
	if run.Source.List != "" {
		locs, err := file.ReadList(run.Source.List)
		if err != nil {
			return nil, err
		}
		if len(locs) == 0 {
			return nil, errors.Configurationf("source list %s has no entries", run.Source.List)
		}
		return locs, nil
	}
	if run.Source.Path == "" {
		return nil, errors.Configurationf("source.path must not be empty")
	}
	return []string{run.Source.Path}, nil
}

// openSource picks the byte source for location: http(s) URLs are
// downloaded, everything else is a local file.
func openSource(s config.Source, location string, log *zap.SugaredLogger) datasource.Source {
	if !config.IsRemote(location) {
		return file.NewLocal(location)
	}
	var hdr http.Header
	if s.HTTP.Token != "" {
		hdr = http.Header{}
		hdr.Set("Authorization", "Bearer "+s.HTTP.Token)
	}
	client := httpds.NewClient(httpds.Config{
		Timeout:            s.HTTP.Timeout,
		MaxRetries:         s.HTTP.MaxRetries,
		InsecureSkipVerify: s.HTTP.InsecureSkipVerify,
		Headers:            hdr,
	}, log)
	return httpds.NewSource(client, location)
}

// newParser returns the parser for location. An explicit source.kind wins;
// otherwise the kind follows the location's extension.
func newParser(s config.Source, location string, log *zap.SugaredLogger) (parser.Parser, error) {
	kind := s.Kind
	if kind == "" {
		kind = config.InferSourceKind(location)
	}
	switch kind {
	case config.SourceCSV:
		return csvparser.NewReader(csvparser.Options{Comma: s.CommaRune(), Encoding: s.Encoding}, log), nil
	case config.SourceXLSX:
		return xlsxparser.NewReader(xlsxparser.Options{Sheet: s.Sheet}, log), nil
	default:
		return nil, errors.Configurationf("unsupported source.kind=%s", kind)
	}
}

// readTable opens location and parses it into a cleaned table.
func readTable(ctx context.Context, s config.Source, location string, log *zap.SugaredLogger) (*parser.Table, error) {
	p, err := newParser(s, location, log)
	if err != nil {
		return nil, err
	}
	rc, err := openSourceFn(s, location, log).Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return p.Parse(ctx, rc)
}
