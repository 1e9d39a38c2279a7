package main

import (
	"context"
	"fmt"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"gavel/internal/pipeline"
)

func newQCCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "qc",
		Short: "Re-run quality control over every transcript on disk",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRecoveryPipeline(ctx, cmd, func(runCtx context.Context, p *pipeline.Pipeline) error {
				stats, err := p.RescoreExisting(runCtx)
				if err != nil {
					return err
				}
				rows := [][]string{
					{"Scored", strconv.Itoa(stats.Scored)},
					{"Passed", strconv.Itoa(stats.Passed)},
					{"Failed QC", strconv.Itoa(stats.Failed)},
					{"Errors", strconv.Itoa(stats.Errors)},
				}
				fmt.Fprintln(cmd.OutOrStdout(),
					renderTable([]string{"Result", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
				if stats.Errors > 0 {
					return fmt.Errorf("%d transcripts could not be scored", stats.Errors)
				}
				return nil
			})
		},
	}
}

func newRetranscribeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retranscribe",
		Short: "Re-download and re-transcribe videos that failed quality control",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRecoveryPipeline(ctx, cmd, func(runCtx context.Context, p *pipeline.Pipeline) error {
				stats, err := p.Retranscribe(runCtx)
				if err != nil {
					return err
				}
				rows := [][]string{
					{"QC failures found", strconv.Itoa(stats.Candidates)},
					{"Transcribed", strconv.Itoa(stats.Transcribed)},
					{"Failed", strconv.Itoa(stats.Failed)},
				}
				fmt.Fprintln(cmd.OutOrStdout(),
					renderTable([]string{"Result", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
				if stats.Failed > 0 {
					return fmt.Errorf("%d videos failed", stats.Failed)
				}
				return nil
			})
		},
	}
}

func newUploadCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "upload",
		Short: "Upload remaining local videos to object storage",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRecoveryPipeline(ctx, cmd, func(runCtx context.Context, p *pipeline.Pipeline) error {
				stats, err := p.UploadAndDeleteExisting(runCtx)
				if err != nil {
					return err
				}
				rows := [][]string{
					{"Uploaded", strconv.Itoa(stats.Uploaded)},
					{"Deleted locally", strconv.Itoa(stats.Deleted)},
					{"Failed", strconv.Itoa(stats.Failed)},
				}
				fmt.Fprintln(cmd.OutOrStdout(),
					renderTable([]string{"Result", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
				if stats.Failed > 0 {
					return fmt.Errorf("%d uploads failed", stats.Failed)
				}
				return nil
			})
		},
	}
}

// withRecoveryPipeline assembles a pipeline and runs fn under the
// single-instance lock with signal-aware cancellation.
func withRecoveryPipeline(ctx *commandContext, cmd *cobra.Command, fn func(context.Context, *pipeline.Pipeline) error) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return err
	}
	store, err := ctx.openStore(false)
	if err != nil {
		return err
	}
	p, err := pipeline.New(cfg, store, logger)
	if err != nil {
		return err
	}

	runCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return ctx.withLock(runCtx, func() error {
		return fn(runCtx, p)
	})
}
