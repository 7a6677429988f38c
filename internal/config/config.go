// Package config provides the run configuration of a survey import and its
// loader.
//
// A run is described by a config file (JSON, YAML or TOML), overridden by
// environment variables prefixed TABLECONVERTER_ and by command-line flags
// bound into the same viper instance. Nested keys use '_' in variable names:
// storage.password is read from TABLECONVERTER_STORAGE_PASSWORD.
//
// Defaults live in SetDefaults and nowhere else.
package config

import (
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"tableconverter/internal/errors"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "TABLECONVERTER"

// Source kinds.
const (
	SourceCSV  = "csv"
	SourceXLSX = "xlsx"
)

// Metrics backends.
const (
	MetricsNone     = "none"
	MetricsPromPush = "prompush"
	MetricsDatadog  = "datadog"
)

// Run is the complete configuration of one import.
type Run struct {
	Source Source `mapstructure:"source"`

	// MappingFile is the column mapping (JSON or YAML).
	MappingFile string `mapstructure:"mapping_file"`

	Storage Storage `mapstructure:"storage"`

	// UniquenessField is the logical column whose value identifies a
	// response already present in the destination.
	UniquenessField string `mapstructure:"uniqueness_field"`

	// QID is the satisfaction question; RegionQID the region question.
	QID       int    `mapstructure:"qid"`
	RegionQID int    `mapstructure:"region_qid"`
	Language  string `mapstructure:"language"`

	// Debug turns the run into a dry run: statements are logged, not executed.
	Debug bool `mapstructure:"debug"`
	// PreventSkipping disables the duplicate check.
	PreventSkipping bool `mapstructure:"prevent_skipping"`

	// Timezone names the zone dates are written in ("Local", "UTC",
	// "Europe/Prague", ...).
	Timezone string `mapstructure:"timezone"`

	Transforms Transforms `mapstructure:"transforms"`
	Metrics    Metrics    `mapstructure:"metrics"`
	Log        Log        `mapstructure:"log"`
}

// Source locates the export.
type Source struct {
	// Path is a local file or an http(s) URL.
	Path string `mapstructure:"path"`
	// List is a file of paths, one per line, imported in order.
	List string `mapstructure:"list"`
	// Kind is csv or xlsx. Inferred from the extension when empty.
	Kind     string `mapstructure:"kind"`
	Encoding string `mapstructure:"encoding"`
	Comma    string `mapstructure:"comma"`
	Sheet    string `mapstructure:"sheet"`
	HTTP     HTTP   `mapstructure:"http"`
}

// HTTP tunes downloads of remote exports.
type HTTP struct {
	Timeout            time.Duration `mapstructure:"timeout"`
	MaxRetries         int           `mapstructure:"max_retries"`
	InsecureSkipVerify bool          `mapstructure:"insecure_skip_verify"`
	// Token is sent as a bearer token when set.
	Token string `mapstructure:"token"`
}

// Storage configures the destination database.
type Storage struct {
	Kind string `mapstructure:"kind"`

	DSN      string            `mapstructure:"dsn"`
	Host     string            `mapstructure:"host"`
	Port     int               `mapstructure:"port"`
	User     string            `mapstructure:"user"`
	Password string            `mapstructure:"password"`
	Database string            `mapstructure:"database"`
	Params   map[string]string `mapstructure:"params"`
	SQLMode  string            `mapstructure:"sql_mode"`

	MaxOpenConns int `mapstructure:"max_open_conns"`

	// Table receives the converted rows.
	Table string `mapstructure:"table"`
	// AnswersTable holds the answer options used by the code lookups.
	AnswersTable string `mapstructure:"answers_table"`
}

// Transforms overrides the column names and literals the builtin
// transforms use.
type Transforms struct {
	StatusColumn       string `mapstructure:"status_column"`
	SatisfactionColumn string `mapstructure:"satisfaction_column"`
	DatestampColumn    string `mapstructure:"datestamp_column"`
	StartdateColumn    string `mapstructure:"startdate_column"`
	CompleteStatus     string `mapstructure:"complete_status"`
	CompletedLabel     string `mapstructure:"completed_label"`
	LastPage           string `mapstructure:"last_page"`
	StripAnswerHTML    bool   `mapstructure:"strip_answer_html"`
}

// Metrics selects where run metrics go.
type Metrics struct {
	Backend        string `mapstructure:"backend"`
	PushgatewayURL string `mapstructure:"pushgateway_url"`
	DatadogAddr    string `mapstructure:"datadog_addr"`
	Job            string `mapstructure:"job"`
}

// Log configures the process logger.
type Log struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// SetDefaults installs every default value on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("source.path", "")
	v.SetDefault("source.list", "")
	v.SetDefault("source.kind", "")
	v.SetDefault("source.encoding", "")
	v.SetDefault("source.comma", ",")
	v.SetDefault("source.sheet", "")
	v.SetDefault("source.http.timeout", 30*time.Second)
	v.SetDefault("source.http.max_retries", 3)
	v.SetDefault("source.http.insecure_skip_verify", false)

	v.SetDefault("mapping_file", "")

	v.SetDefault("storage.kind", "mysql")
	v.SetDefault("storage.host", "")
	v.SetDefault("storage.port", 0)
	v.SetDefault("storage.user", "")
	v.SetDefault("storage.database", "")
	v.SetDefault("storage.sql_mode", "NO_ENGINE_SUBSTITUTION")
	v.SetDefault("storage.max_open_conns", 4)
	v.SetDefault("storage.table", "")
	v.SetDefault("storage.answers_table", "lime_answers")

	v.SetDefault("uniqueness_field", "startdate")
	v.SetDefault("qid", 0)
	v.SetDefault("region_qid", 2293)
	v.SetDefault("language", "en")
	v.SetDefault("debug", false)
	v.SetDefault("prevent_skipping", false)
	v.SetDefault("timezone", "Local")

	v.SetDefault("transforms.status_column", "status")
	v.SetDefault("transforms.satisfaction_column", "OverallSatisfaction")
	v.SetDefault("transforms.datestamp_column", "datestamp")
	v.SetDefault("transforms.startdate_column", "startdate")
	v.SetDefault("transforms.complete_status", "Complete")
	v.SetDefault("transforms.completed_label", "Completed")
	v.SetDefault("transforms.last_page", "13")
	v.SetDefault("transforms.strip_answer_html", false)

	v.SetDefault("metrics.backend", MetricsNone)
	v.SetDefault("metrics.pushgateway_url", "")
	v.SetDefault("metrics.datadog_addr", "127.0.0.1:8125")
	v.SetDefault("metrics.job", "tableconverter")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
}

// bindSecrets makes keys without a default visible to AutomaticEnv.
func bindSecrets(v *viper.Viper) {
	_ = v.BindEnv("storage.dsn")
	_ = v.BindEnv("storage.password")
	_ = v.BindEnv("source.http.token")
}

// NewViper returns a viper instance with defaults and environment overrides
// installed. Flags may be bound to it before Load.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	bindSecrets(v)
	return v
}

// Load reads the config file at path (if any) into v and decodes the
// result. The file format follows the extension: .json, .yaml/.yml or .toml.
func Load(v *viper.Viper, path string) (*Run, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.WrapConfiguration(err, "read config %s", path)
		}
	}

	var run Run
	if err := v.Unmarshal(&run); err != nil {
		return nil, errors.WrapConfiguration(err, "decode config")
	}
	run.Normalize()
	return &run, nil
}

// Normalize trims identifiers and infers the source kind of a single-file
// run. Entries of a source list are judged one by one when they are read.
func (r *Run) Normalize() {
	r.Storage.Kind = strings.ToLower(strings.TrimSpace(r.Storage.Kind))
	r.Metrics.Backend = strings.ToLower(strings.TrimSpace(r.Metrics.Backend))
	r.Source.Kind = strings.ToLower(strings.TrimSpace(r.Source.Kind))
	if r.Source.Kind == "" && r.Source.List == "" {
		r.Source.Kind = InferSourceKind(r.Source.Path)
	}
}

// InferSourceKind returns xlsx for .xlsx/.xlsm paths and csv otherwise. URLs
// are judged by their path, so query strings do not interfere.
func InferSourceKind(path string) string {
	p := path
	if IsRemote(path) {
		if u, err := url.Parse(path); err == nil {
			p = u.Path
		}
	}
	switch strings.ToLower(filepath.Ext(p)) {
	case ".xlsx", ".xlsm":
		return SourceXLSX
	default:
		return SourceCSV
	}
}

// IsRemote reports whether path is an http(s) URL.
func IsRemote(path string) bool {
	l := strings.ToLower(path)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}

// Location resolves Timezone. Empty means Local.
func (r *Run) Location() (*time.Location, error) {
	if r.Timezone == "" || r.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return nil, errors.WrapConfiguration(err, "timezone %q", r.Timezone)
	}
	return loc, nil
}

// CommaRune returns the first rune of Source.Comma, or ','.
func (s Source) CommaRune() rune {
	if s.Comma == "" {
		return ','
	}
	if s.Comma == `\t` {
		return '\t'
	}
	return []rune(s.Comma)[0]
}
