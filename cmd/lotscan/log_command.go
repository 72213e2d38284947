package main

import (
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"lotscan/internal/api"
)

func newLogCommand(ctx *commandContext) *cobra.Command {
	var sessionFlag string
	var limitFlag int

	cmd := &cobra.Command{
		Use:   "log",
		Short: "List audit log records",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/log"
			if sessionFlag != "" {
				path += "?session=" + url.QueryEscape(sessionFlag)
			}
			var response api.LogResponse
			if err := ctx.apiGet(path, &response); err != nil {
				return err
			}

			records := response.Records
			if limitFlag > 0 && len(records) > limitFlag {
				records = records[:limitFlag]
			}
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no records")
				return nil
			}

			rows := make([][]string, 0, len(records))
			for _, record := range records {
				rows = append(rows, []string{
					record.VIN,
					string(record.Method),
					record.Location,
					record.SessionID,
					record.CapturedAt.Local().Format(time.RFC3339),
					fmt.Sprintf("%.5f,%.5f", record.Latitude, record.Longitude),
					record.UserEmail,
				})
			}
			headers := []string{"VIN", "METHOD", "LOCATION", "SESSION", "CAPTURED", "FIX", "USER"}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(headers, rows))
			return nil
		},
	}

	cmd.Flags().StringVar(&sessionFlag, "session", "", "Limit output to one session id")
	cmd.Flags().IntVar(&limitFlag, "limit", 0, "Maximum number of records to show")
	return cmd
}
