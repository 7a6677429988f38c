package transform

import (
	"context"
	"maps"
	"strings"
	"sync"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"tableconverter/internal/errors"
	"tableconverter/internal/logger"
	"tableconverter/internal/mapping"
	htmltext "tableconverter/internal/parser/html"
	"tableconverter/internal/storage"
)

// AnswerSource lists the answer options of a question. storage.Repository
// satisfies it.
type AnswerSource interface {
	AnswerCodes(ctx context.Context, table string, qid int, language string) ([]storage.AnswerCode, error)
}

// LookupConfig says where the answer codes live.
type LookupConfig struct {
	// AnswersTable holds the answer options. Default "lime_answers".
	AnswersTable string
	// QID is the question whose answers map satisfaction labels to codes.
	QID int
	// RegionQID is the question whose answers map region names to codes.
	// Default 2293.
	RegionQID int
	// Language of the answer labels. Default "en".
	Language string
	// StripHTML reduces answer labels to plain text before keying.
	StripHTML bool
}

func (c LookupConfig) withDefaults() LookupConfig {
	if c.AnswersTable == "" {
		c.AnswersTable = "lime_answers"
	}
	if c.RegionQID == 0 {
		c.RegionQID = 2293
	}
	if c.Language == "" {
		c.Language = "en"
	}
	return c
}

// codeTable is one question's answer options, loaded on first use. The load
// runs at most once; its error, if any, is kept and returned on every use.
type codeTable struct {
	src      AnswerSource
	table    string
	qid      int
	language string
	key      func(answer string) string
	log      *zap.SugaredLogger

	once  sync.Once
	codes map[string]string
	err   error
}

func (t *codeTable) load(ctx context.Context) (map[string]string, error) {
	t.once.Do(func() {
		if t.src == nil {
			t.err = errors.Mark(errors.Newf("no destination to read answer codes for qid %d", t.qid), errors.ErrSink)
			return
		}
		rows, err := t.src.AnswerCodes(ctx, t.table, t.qid, t.language)
		if err != nil {
			t.err = errors.WrapSink(err, "load answer codes for qid %d", t.qid)
			return
		}
		t.codes = make(map[string]string, len(rows))
		for _, r := range rows {
			t.codes[t.key(r.Answer)] = r.Code
		}
		t.log.Infow("answer codes loaded", "qid", t.qid, logger.FieldCount, len(t.codes))
	})
	return t.codes, t.err
}

// Lookups owns the memoized code tables and the satisfaction frequency
// counter for one run.
type Lookups struct {
	satisfaction *codeTable
	region       *codeTable

	mu    sync.Mutex
	lower cases.Caser
	freq  map[string]int
}

// NewLookups builds the lookups for one run. src may be nil when no lookup
// transform will run; using one then fails with a sink error.
func NewLookups(src AnswerSource, cfg LookupConfig, log *zap.SugaredLogger) *Lookups {
	cfg = cfg.withDefaults()
	log = logger.OrNop(log).With(logger.FieldComponent, "lookups")

	clean := func(s string) string { return s }
	if cfg.StripHTML {
		clean = htmltext.NormalizeText
	}

	return &Lookups{
		satisfaction: &codeTable{
			src: src, table: cfg.AnswersTable, qid: cfg.QID, language: cfg.Language,
			key: clean, log: log,
		},
		region: &codeTable{
			src: src, table: cfg.AnswersTable, qid: cfg.RegionQID, language: cfg.Language,
			key: func(a string) string { return strings.ToLower(clean(a)) }, log: log,
		},
		lower: cases.Lower(language.Und),
		freq:  make(map[string]int),
	}
}

// Satisfaction returns the code for a satisfaction label. The label is
// tried as is, then lowercased with the first letter after each run of
// whitespace raised ("VERY satisfied" -> "Very Satisfied", "N/A" -> "N/a").
// Every match counts towards Frequency. A miss returns "" without error.
func (l *Lookups) Satisfaction(ctx context.Context, text string) (string, error) {
	if text == "" {
		return "", nil
	}
	codes, err := l.satisfaction.load(ctx)
	if err != nil {
		return "", err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	code, ok := codes[text]
	if !ok {
		code, ok = codes[l.upperWords(text)]
	}
	if !ok {
		return "", nil
	}
	l.freq[code]++
	return code, nil
}

// upperWords lowercases s and uppercases the first letter of every
// whitespace-separated word. Punctuation does not start a word.
func (l *Lookups) upperWords(s string) string {
	rs := []rune(l.lower.String(s))
	start := true
	for i, r := range rs {
		if unicode.IsSpace(r) {
			start = true
			continue
		}
		if start {
			rs[i] = unicode.ToUpper(r)
			start = false
		}
	}
	return string(rs)
}

// Region returns the code for a region name. The name is lowercased, the
// word "region" removed and the rest trimmed, so "North Region" finds the
// answer "North". ok is false when nothing matches.
func (l *Lookups) Region(ctx context.Context, text string) (code string, ok bool, err error) {
	codes, err := l.region.load(ctx)
	if err != nil {
		return "", false, err
	}
	code, ok = codes[NormalizeRegion(text)]
	return code, ok, nil
}

// NormalizeRegion lowercases s, removes every "region" and trims the result.
func NormalizeRegion(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(strings.ToLower(s), "region", ""))
}

// Frequency returns a copy of the satisfaction code counts.
func (l *Lookups) Frequency() map[string]int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return maps.Clone(l.freq)
}

// Preload loads the code tables the mapping's transforms will use, concurrently,
// so the row loop never waits on them.
func (l *Lookups) Preload(ctx context.Context, spec *mapping.Spec) error {
	g, ctx := errgroup.WithContext(ctx)
	seen := map[string]bool{}
	for _, c := range spec.Columns {
		if seen[c.Function] {
			continue
		}
		seen[c.Function] = true

		switch c.Function {
		case FuncSatisfactionCode:
			g.Go(func() error { _, err := l.satisfaction.load(ctx); return err })
		case FuncRegionCode:
			g.Go(func() error { _, err := l.region.load(ctx); return err })
		}
	}
	return g.Wait()
}
