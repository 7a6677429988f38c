package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"tableconverter/internal/config"
	"tableconverter/internal/errors"
	"tableconverter/internal/pipeline"
)

func newCheckCmd() *cobra.Command {
	v := config.NewViper()
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the configuration and resolve the mapping, writing nothing",
		Long: `Validate the run configuration, load the mapping file and the export
headers, and resolve them against each other. Every finding is printed,
followed by the destination column list each export would produce.

No connection to the destination is made.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			run, err := loadRun(cmd, v)
			if err != nil {
				return err
			}
			log := newLogger(run)
			defer func() { _ = log.Sync() }()

			issues := config.Validate(*run)
			for _, iss := range issues {
				fmt.Fprintf(out, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
			}
			if err := config.Errors(issues); err != nil {
				return err
			}

			locs, err := pipeline.Locations(run)
			if err != nil {
				return err
			}
			failed := 0
			for _, loc := range locs {
				res, err := pipeline.Check(cmd.Context(), run, loc, log)
				if err != nil {
					failed++
					fmt.Fprintf(out, "%s: %v\n", loc, err)
					continue
				}
				fmt.Fprintf(out, "%s: %d rows\n", res.Source, res.Rows)
				fmt.Fprintf(out, "  output columns: %s\n", strings.Join(res.OutputHeaders, ", "))
			}
			if failed > 0 {
				return errors.Newf("%d of %d exports failed the check", failed, len(locs))
			}
			fmt.Fprintln(out, "ok")
			return nil
		},
	}
	bindFlags(cmd, v)
	return cmd
}
