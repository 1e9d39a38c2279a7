package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"gavel/internal/notifications"
)

func newNotifyCommand(ctx *commandContext) *cobra.Command {
	notifyCmd := &cobra.Command{
		Use:   "notify",
		Short: "Notification utilities",
	}

	notifyCmd.AddCommand(&cobra.Command{
		Use:   "test",
		Short: "Send a test notification",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.Notifications.Telegram.Enabled {
				return errors.New("telegram notifications are not enabled")
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			svc := notifications.NewFromConfig(cfg, logger)
			if err := svc.Publish(cmd.Context(),
				"<b>Gavel Hearing Transcriber</b>\n\nTest notification"); err != nil {
				return fmt.Errorf("send test notification: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Test notification sent")
			return nil
		},
	})

	return notifyCmd
}
