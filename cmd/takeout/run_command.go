package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"takeout/internal/config"
	"takeout/internal/logging"
	"takeout/internal/pipeline"
	"takeout/internal/store"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var (
		sourceFlag  string
		destFlag    string
		workersFlag int
		pageFlag    int
		dryRunFlag  bool
		memFlag     bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the import pipeline over the source tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := applyRunOverrides(cfg, sourceFlag, destFlag, workersFlag, pageFlag, dryRunFlag, memFlag); err != nil {
				return err
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("ensure directories: %w", err)
			}

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("initialize logging: %w", err)
			}

			st, err := store.Open(cfg.DatabasePath())
			if err != nil {
				return fmt.Errorf("open state database: %w", err)
			}
			defer st.Close()

			p, err := pipeline.New(cfg, st, logger)
			if err != nil {
				return err
			}
			report, err := p.Run(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if cfg.Pipeline.DryRun {
				fmt.Fprintln(out, "Dry run: no files were copied or written.")
				fmt.Fprintf(out, "Would copy %d files.\n", report.WouldCopy)
			}
			fmt.Fprintf(out, "Discovered %d files (%d new).\n", report.Discovered, report.Added)
			fmt.Fprintf(out, "Succeeded %d, skipped %d, failed %d, remaining %d.\n",
				report.Summary.Success, report.Summary.Skipped,
				report.Summary.Failed, report.Summary.Remaining())
			if report.Summary.Failed > 0 {
				fmt.Fprintln(out, "Run `takeout status` to inspect failures.")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&sourceFlag, "source", "", "Override the source directory")
	cmd.Flags().StringVar(&destFlag, "dest", "", "Override the destination directory")
	cmd.Flags().IntVar(&workersFlag, "workers", 0, "Override the worker count")
	cmd.Flags().IntVar(&pageFlag, "page-size", 0, "Override the pipeline page size")
	cmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "Log intended copies and writes without performing them")
	cmd.Flags().BoolVar(&memFlag, "mem", false, "Keep state in memory (no resumability)")
	return cmd
}

func applyRunOverrides(cfg *config.Config, source, dest string, workers, pageSize int, dryRun, mem bool) error {
	if source != "" {
		expanded, err := config.ExpandPath(source)
		if err != nil {
			return fmt.Errorf("resolve source path: %w", err)
		}
		cfg.Paths.SourceDir = expanded
	}
	if dest != "" {
		expanded, err := config.ExpandPath(dest)
		if err != nil {
			return fmt.Errorf("resolve dest path: %w", err)
		}
		cfg.Paths.DestDir = expanded
	}
	if workers > 0 {
		cfg.Pipeline.Workers = workers
	}
	if pageSize > 0 {
		cfg.Pipeline.PageSize = pageSize
	}
	if dryRun {
		cfg.Pipeline.DryRun = true
	}
	if mem {
		cfg.Pipeline.InMemoryDB = true
	}
	return cfg.Validate()
}
