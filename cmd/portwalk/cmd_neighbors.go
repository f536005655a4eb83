package main

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/portwalk-net/portwalk/pkg/cli"
	"github.com/portwalk-net/portwalk/pkg/parse"
	"github.com/portwalk-net/portwalk/pkg/session"
)

var neighborPlatform string

var neighborsCmd = &cobra.Command{
	Use:   "neighbors <host>",
	Short: "List CDP neighbors of a switch",
	Long: `Logs into the switch and lists its CDP neighbors. Useful for eyeballing what
hangs off a switch (APs, phones, downstream switches) before or after a move.

Uses the detail listing when the platform supports it and falls back to the
brief table otherwise.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		dev, err := dialHost(ctx, args[0])
		if err != nil {
			return err
		}
		defer dev.Close()

		opts := session.RunOptions{Primary: 120 * time.Second}
		out, err := dev.Run(ctx, "show cdp neighbors detail", opts)
		if err != nil {
			return err
		}
		neighbors := parse.CDPDetail(out)
		if len(neighbors) == 0 {
			out, err = dev.Run(ctx, "show cdp neighbors", opts)
			if err != nil {
				return err
			}
			neighbors = parse.CDPBrief(out)
		}

		t := cli.NewTable("DEVICE", "IP", "PLATFORM", "LOCAL INTF", "PORT ID")
		for _, n := range neighbors {
			if neighborPlatform != "" &&
				!strings.Contains(strings.ToLower(n.Platform), strings.ToLower(neighborPlatform)) {
				continue
			}
			t.Row(n.DeviceID, n.IP, n.Platform, n.LocalInterface, n.PortID)
		}
		t.Flush()
		return nil
	},
}

func init() {
	neighborsCmd.Flags().StringVar(&neighborPlatform, "platform", "", "Only show neighbors whose platform contains this string")
	rootCmd.AddCommand(neighborsCmd)
}
