package main

import (
	"github.com/spf13/cobra"

	"reelsort/internal/notifications"
)

func newNotifyCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Notification helpers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newNotifyTestCommand(ctx))
	return cmd
}

func newNotifyTestCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Send a test notification to the configured topic",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			if cfg.Notifications.NtfyTopic == "" {
				cmd.Println("No ntfy topic configured; nothing to send.")
				return nil
			}

			svc := notifications.NewService(cfg, logger)
			if err := svc.Publish(cmd.Context(), notifications.EventTest,
				"reelsort test", "Notifications are working."); err != nil {
				return err
			}
			cmd.Println("Test notification sent.")
			return nil
		},
	}
}
