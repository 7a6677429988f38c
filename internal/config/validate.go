package config

import (
	"fmt"
	"strings"
	"time"

	"tableconverter/internal/errors"
	"tableconverter/internal/logger"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a finding that is reported but does not block
	// execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding for a Run.
//
// Path is a dotted path into the config (e.g. "storage.table").
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// knownStorageKinds mirrors the backends linked by storage/all.
var knownStorageKinds = map[string]struct{}{
	"mysql": {}, "postgres": {}, "sqlite": {}, "mssql": {}, "oracle": {},
}

// Validate performs static checks over a decoded Run. It does not touch the
// filesystem or the network.
func Validate(r Run) []Issue {
	var issues []Issue
	add := func(sev IssueSeverity, path, format string, args ...any) {
		issues = append(issues, Issue{Severity: sev, Path: path, Message: fmt.Sprintf(format, args...)})
	}

	if strings.TrimSpace(r.MappingFile) == "" {
		add(SeverityError, "mapping_file", "mapping_file must not be empty")
	}
	if r.QID <= 0 {
		add(SeverityError, "qid", "qid must be a positive question id, got %d", r.QID)
	}
	if r.RegionQID <= 0 {
		add(SeverityError, "region_qid", "region_qid must be a positive question id, got %d", r.RegionQID)
	}
	if strings.TrimSpace(r.Language) == "" {
		add(SeverityWarning, "language", "language is empty; answer codes will only match untagged rows")
	}
	if !r.PreventSkipping && strings.TrimSpace(r.UniquenessField) == "" {
		add(SeverityError, "uniqueness_field", "uniqueness_field must be set unless prevent_skipping is true")
	}
	if r.Debug {
		add(SeverityWarning, "debug", "dry run: statements are logged and nothing is written")
	}
	if r.Timezone != "" && r.Timezone != "Local" {
		if _, err := time.LoadLocation(r.Timezone); err != nil {
			add(SeverityError, "timezone", "unknown timezone %q", r.Timezone)
		}
	}

	issues = append(issues, validateSource(r.Source)...)
	issues = append(issues, validateStorage(r.Storage)...)
	issues = append(issues, validateMetrics(r.Metrics)...)

	if _, err := logger.ParseLevel(r.Log.Level); err != nil {
		add(SeverityWarning, "log.level", "unknown level %q; info is used", r.Log.Level)
	}
	return issues
}

func validateSource(s Source) []Issue {
	var issues []Issue

	if strings.TrimSpace(s.Path) == "" && strings.TrimSpace(s.List) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.path",
			Message:  "source.path must not be empty",
		})
	}
	if s.Path != "" && s.List != "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "source.list",
			Message:  "both source.path and source.list are set; source.list wins",
		})
	}

	switch s.Kind {
	case SourceCSV, SourceXLSX, "":
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.kind",
			Message:  fmt.Sprintf("unknown source kind %q; use csv or xlsx", s.Kind),
		})
	}
	if s.Kind == SourceXLSX && s.Encoding != "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "source.encoding",
			Message:  "encoding is ignored for xlsx sources",
		})
	}
	if len([]rune(s.Comma)) > 1 && s.Comma != `\t` {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.comma",
			Message:  fmt.Sprintf("comma must be a single character, got %q", s.Comma),
		})
	}

	if s.HTTP.MaxRetries < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.http.max_retries",
			Message:  "max_retries must be >= 0",
		})
	}
	if s.HTTP.InsecureSkipVerify {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "source.http.insecure_skip_verify",
			Message:  "TLS certificate verification is disabled",
		})
	}
	return issues
}

func validateStorage(s Storage) []Issue {
	var issues []Issue

	if strings.TrimSpace(s.Table) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.table",
			Message:  "storage.table must not be empty",
		})
	}
	if strings.TrimSpace(s.AnswersTable) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.answers_table",
			Message:  "storage.answers_table must not be empty",
		})
	}

	if _, ok := knownStorageKinds[s.Kind]; !ok {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.kind",
			Message:  fmt.Sprintf("unsupported storage kind %q", s.Kind),
		})
		return issues
	}

	hasTarget := s.DSN != "" || s.Host != "" || (s.Kind == "sqlite" && s.Database != "")
	if !hasTarget {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.dsn",
			Message:  "either storage.dsn or storage.host must be set",
		})
	}
	if s.DSN != "" && s.Host != "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "storage.host",
			Message:  "storage.dsn is set; host, port and credentials are ignored",
		})
	}
	if s.SQLMode != "" && s.Kind != "mysql" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "storage.sql_mode",
			Message:  fmt.Sprintf("sql_mode only applies to mysql, not %s", s.Kind),
		})
	}
	if s.MaxOpenConns < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.max_open_conns",
			Message:  "max_open_conns must be >= 0",
		})
	}
	return issues
}

func validateMetrics(m Metrics) []Issue {
	var issues []Issue

	switch m.Backend {
	case "", MetricsNone:
	case MetricsPromPush:
		if m.PushgatewayURL == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "metrics.pushgateway_url",
				Message:  "prompush backend requires pushgateway_url",
			})
		}
	case MetricsDatadog:
		if m.DatadogAddr == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "metrics.datadog_addr",
				Message:  "datadog backend requires datadog_addr",
			})
		}
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "metrics.backend",
			Message:  fmt.Sprintf("unknown metrics backend %q; use none, prompush or datadog", m.Backend),
		})
	}
	return issues
}

// Errors folds the error-severity issues into one configuration error, or
// returns nil when there are none.
func Errors(issues []Issue) error {
	var msgs []string
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			msgs = append(msgs, iss.Path+": "+iss.Message)
		}
	}
	if len(msgs) == 0 {
		return nil
	}
	return errors.WithHint(
		errors.Configurationf("invalid run configuration: %s", strings.Join(msgs, "; ")),
		"run `tableconverter check` to list every finding")
}
