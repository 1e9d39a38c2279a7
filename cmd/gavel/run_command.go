package main

import (
	"fmt"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"gavel/internal/logging"
	"gavel/internal/pipeline"
	"gavel/internal/services"
	"gavel/internal/sources"
	"gavel/internal/state"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var sourceFlag string
	var forceFlag bool
	var testFlag bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Discover, download, and transcribe new hearing videos",
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := normalizeSource(sourceFlag)
			if err != nil {
				return err
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			runCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			runCtx = services.WithRunID(runCtx, uuid.NewString())
			logger = logging.WithContext(runCtx, logger)

			if testFlag {
				logger.Info("test mode: execution log will not be updated")
			}
			if forceFlag {
				logger.Info("force mode: settled videos will be reprocessed")
			}

			store, err := ctx.openStore(testFlag)
			if err != nil {
				return err
			}
			p, err := pipeline.New(cfg, store, logger)
			if err != nil {
				return err
			}

			var stats pipeline.Stats
			err = ctx.withLock(runCtx, func() error {
				var runErr error
				stats, runErr = p.Run(runCtx, pipeline.RunOptions{Source: source, Force: forceFlag})
				return runErr
			})
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderStatsTable(stats))
			if !stats.OK() {
				if failures := renderFailureTable(store); failures != "" {
					fmt.Fprintln(cmd.OutOrStdout(), failures)
				}
				return fmt.Errorf("%d videos failed", stats.Failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&sourceFlag, "source", "all", "Archive to process: house, senate, or all")
	cmd.Flags().BoolVar(&forceFlag, "force", false, "Reprocess videos the execution log already settled")
	cmd.Flags().BoolVar(&testFlag, "test", false, "Run without updating the execution log")
	return cmd
}

func normalizeSource(raw string) (string, error) {
	switch raw {
	case "", "all":
		return "", nil
	case sources.SourceHouse, sources.SourceSenate:
		return raw, nil
	}
	return "", fmt.Errorf("unknown source %q (expected house, senate, or all)", raw)
}

// renderFailureTable lists the videos the execution log holds in the failed
// state, with their recorded errors.
func renderFailureTable(store *state.Store) string {
	failed := store.ListByStatus(state.StatusFailed)
	if len(failed) == 0 {
		return ""
	}
	rows := make([][]string, 0, len(failed))
	for _, identifier := range failed {
		rec, _ := store.Get(identifier)
		rows = append(rows, []string{identifier, rec.Error})
	}
	return renderTable([]string{"Failed Video", "Error"}, rows,
		[]columnAlignment{alignLeft, alignLeft})
}

func renderStatsTable(stats pipeline.Stats) string {
	rows := [][]string{
		{"Discovered", strconv.Itoa(stats.Discovered)},
		{"Eligible", strconv.Itoa(stats.Eligible)},
		{"Downloaded", strconv.Itoa(stats.Downloaded)},
		{"Transcribed", strconv.Itoa(stats.Transcribed)},
		{"Skipped", strconv.Itoa(stats.Skipped)},
		{"Failed", strconv.Itoa(stats.Failed)},
	}
	return renderTable([]string{"Stage", "Count"}, rows, []columnAlignment{alignLeft, alignRight})
}
