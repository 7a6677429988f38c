package main

import (
	"github.com/spf13/cobra"

	"tableconverter/internal/config"
	"tableconverter/internal/pipeline"
)

// openRepositoryFn is a test seam.
var openRepositoryFn = pipeline.OpenRepository

func newRunCmd() *cobra.Command {
	v := config.NewViper()
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Import the configured exports",
		Long: `Import every configured export into the destination table.

Rows whose uniqueness field is already present are skipped. The run stops at
the first fatal error; rows inserted before it stay inserted. A report is
printed per export.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := loadRun(cmd, v)
			if err != nil {
				return err
			}
			log := newLogger(run)
			defer func() { _ = log.Sync() }()

			if err := reportIssues(log, config.Validate(*run)); err != nil {
				return err
			}

			flush, err := setupMetrics(run, log)
			if err != nil {
				return err
			}
			defer flush()

			ctx := cmd.Context()
			repo, err := openRepositoryFn(ctx, run)
			if err != nil {
				return err
			}
			defer repo.Close()

			runner, err := pipeline.New(run, repo, log)
			if err != nil {
				return err
			}
			reports, err := runner.RunAll(ctx)
			for _, rep := range reports {
				rep.Print(cmd.OutOrStdout())
			}
			return err
		},
	}

	bindFlags(cmd, v)
	cmd.Flags().Bool("dry-run", false, "log the INSERT statements instead of executing them")
	cmd.Flags().String("metrics-backend", "", "none, prompush or datadog")
	_ = v.BindPFlag("debug", cmd.Flags().Lookup("dry-run"))
	_ = v.BindPFlag("metrics.backend", cmd.Flags().Lookup("metrics-backend"))
	return cmd
}
