package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/portwalk-net/portwalk/pkg/cli"
)

var sitesCmd = &cobra.Command{
	Use:   "sites",
	Short: "List configured sites and their core switches",
	RunE: func(cmd *cobra.Command, args []string) error {
		t := cli.NewTable("SITE", "CORES")
		for _, s := range cfg.Sites {
			t.Row(s.Name, strings.Join(s.Cores, ", "))
		}
		t.Flush()
		return nil
	},
}
