package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/portwalk-net/portwalk/pkg/audit"
	"github.com/portwalk-net/portwalk/pkg/cli"
)

var (
	auditHost  string
	auditUser  string
	auditLimit int
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect the local change history",
}

var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded operations, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.AuditDB == "" {
			return fmt.Errorf("no audit_db configured in %s", cfgPath)
		}
		store, err := audit.Open(cfg.AuditDB)
		if err != nil {
			return err
		}
		defer store.Close()

		events, err := store.List(cmd.Context(), audit.Filter{
			Host:  auditHost,
			User:  auditUser,
			Limit: auditLimit,
		})
		if err != nil {
			return err
		}

		t := cli.NewTable("TIME", "USER", "OPERATION", "HOST", "PORT", "RESULT")
		for _, e := range events {
			result := cli.Green("ok")
			if !e.Success {
				result = cli.Red("failed")
			}
			t.Row(e.Timestamp.Local().Format("2006-01-02 15:04:05"),
				e.User, e.Operation, e.Host, e.Port, result)
		}
		t.Flush()

		for _, e := range events {
			if !e.Success && e.Error != "" {
				fmt.Println(cli.Dim(fmt.Sprintf("#%d %s: %s", e.ID, e.Host,
					strings.SplitN(e.Error, "\n", 2)[0])))
			}
		}
		return nil
	},
}

func init() {
	auditListCmd.Flags().StringVar(&auditHost, "host", "", "Filter by device")
	auditListCmd.Flags().StringVar(&auditUser, "user", "", "Filter by operator")
	auditListCmd.Flags().IntVar(&auditLimit, "limit", 50, "Maximum events to show")
	auditCmd.AddCommand(auditListCmd)
}
