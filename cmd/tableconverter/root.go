package main

import (
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"tableconverter/internal/config"
	"tableconverter/internal/logger"
)

// newRootCmd builds the command tree. Each call gets its own viper instance,
// so tests can run commands side by side.
func newRootCmd(out, errOut io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:   "tableconverter",
		Short: "Import survey exports into a LimeSurvey response table",
		Long: `tableconverter reads a survey export (CSV or XLSX, local or over HTTP),
maps its columns with a mapping file, skips responses that were already
imported, and inserts the rest into the destination table.

Configuration comes from a JSON, YAML or TOML file, from environment
variables prefixed TABLECONVERTER_, and from flags, in increasing order of
precedence.

Examples:
  tableconverter check --config run.yaml        # validate and resolve, write nothing
  tableconverter run --config run.yaml          # import
  tableconverter run --config run.yaml --dry-run`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.SetErr(errOut)

	root.PersistentFlags().String("config", "", "run configuration file (.json, .yaml, .toml)")

	root.AddCommand(newRunCmd())
	root.AddCommand(newCheckCmd())
	root.AddCommand(newVersionCmd())
	return root
}

// bindFlags adds the flags shared by run and check and binds them into v.
func bindFlags(cmd *cobra.Command, v *viper.Viper) {
	f := cmd.Flags()
	f.String("source", "", "export file or http(s) URL")
	f.String("source-list", "", "file listing exports to import, one per line")
	f.String("mapping", "", "column mapping file (.json, .yaml)")
	f.String("table", "", "destination table")
	f.Int("qid", 0, "question id of the satisfaction question")
	f.Bool("prevent-skipping", false, "insert rows even when already imported")
	f.String("log-level", "", "debug, info, warn or error")

	for key, flag := range map[string]string{
		"source.path":      "source",
		"source.list":      "source-list",
		"mapping_file":     "mapping",
		"storage.table":    "table",
		"qid":              "qid",
		"prevent_skipping": "prevent-skipping",
		"log.level":        "log-level",
	} {
		_ = v.BindPFlag(key, f.Lookup(flag))
	}
}

// loadRun reads the configuration named by --config into v.
func loadRun(cmd *cobra.Command, v *viper.Viper) (*config.Run, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(v, path)
}

// newLogger builds the process logger. An unknown level falls back to info;
// Validate reports it.
func newLogger(run *config.Run) *zap.SugaredLogger {
	log, err := logger.New(logger.Options{Level: run.Log.Level, JSON: run.Log.JSON})
	if err != nil {
		log, _ = logger.New(logger.Options{JSON: run.Log.JSON})
	}
	return log
}

// reportIssues logs warnings and returns the blocking errors, if any.
func reportIssues(log *zap.SugaredLogger, issues []config.Issue) error {
	for _, iss := range issues {
		if iss.Severity == config.SeverityWarning {
			log.Warnw(iss.Message, logger.FieldPath, iss.Path)
		}
	}
	return config.Errors(issues)
}
