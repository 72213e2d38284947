package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"lotscan/internal/api"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon status and active sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			var status api.DaemonStatus
			if err := ctx.apiGet("/api/status", &status); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "running: %t (pid %d)\n", status.Running, status.PID)
			fmt.Fprintf(out, "audit log: %s\n", status.AuditLogPath)
			fmt.Fprintf(out, "lock file: %s\n", status.LockFilePath)

			if len(status.ActiveSessions) == 0 {
				fmt.Fprintln(out, "no active sessions")
				return nil
			}

			rows := make([][]string, 0, len(status.ActiveSessions))
			for _, sess := range status.ActiveSessions {
				rows = append(rows, []string{
					sess.SessionID,
					sess.Location,
					sess.StartedAt.Local().Format(time.RFC3339),
					strconv.Itoa(sess.Records),
				})
			}
			fmt.Fprintln(out, renderTable([]string{"SESSION", "LOCATION", "STARTED", "RECORDS"}, rows, 3))
			return nil
		},
	}
}
