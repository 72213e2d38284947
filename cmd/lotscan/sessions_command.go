package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"lotscan/internal/api"
)

func newSessionsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "Summarize recent audit sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			var response api.SessionListResponse
			if err := ctx.apiGet("/api/sessions", &response); err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if len(response.Active) > 0 {
				rows := make([][]string, 0, len(response.Active))
				for _, sess := range response.Active {
					rows = append(rows, []string{
						sess.SessionID,
						sess.Location,
						sess.StartedAt.Local().Format(time.RFC3339),
						strconv.Itoa(sess.Records),
					})
				}
				fmt.Fprintln(out, "active:")
				fmt.Fprintln(out, renderTable([]string{"SESSION", "LOCATION", "STARTED", "RECORDS"}, rows, 3))
			}

			if len(response.Recent) == 0 {
				fmt.Fprintln(out, "no recorded sessions")
				return nil
			}
			rows := make([][]string, 0, len(response.Recent))
			for _, summary := range response.Recent {
				rows = append(rows, []string{
					summary.SessionID,
					summary.Location,
					summary.StartedAt.Local().Format(time.RFC3339),
					summary.LastScan.Local().Format(time.RFC3339),
					strconv.Itoa(summary.Records),
				})
			}
			fmt.Fprintln(out, "recorded:")
			fmt.Fprintln(out, renderTable([]string{"SESSION", "LOCATION", "FIRST SCAN", "LAST SCAN", "RECORDS"}, rows, 4))
			return nil
		},
	}
}
