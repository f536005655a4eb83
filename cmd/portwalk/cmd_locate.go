package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/portwalk-net/portwalk/pkg/cli"
	"github.com/portwalk-net/portwalk/pkg/parse"
	"github.com/portwalk-net/portwalk/pkg/resolve"
	"github.com/portwalk-net/portwalk/pkg/session"
)

var locateCmd = &cobra.Command{
	Use:   "locate <mac-or-ip>",
	Short: "Find the access port behind a MAC or IP",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		tgt, err := classifyTarget(args[0])
		if err != nil {
			return err
		}
		site, err := chooseSite()
		if err != nil {
			return err
		}

		result, mac, err := locateOnSite(ctx, site, tgt)
		if err != nil {
			return err
		}

		if jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(struct {
				Site string `json:"site"`
				MAC  string `json:"mac"`
				*resolve.Result
			}{site.Name, mac, result})
		}

		printLocation(site.Name, mac, result)
		printPortConfig(ctx, result)
		return nil
	},
}

func printLocation(site, mac string, r *resolve.Result) {
	fmt.Printf("[%s] %s is on %s port %s (vlan %s)\n",
		site, cli.Bold(mac), cli.Bold(r.Host), cli.Green(r.Port), r.VLAN)

	var hops []string
	for _, h := range r.Path {
		hops = append(hops, h.Host+":"+h.Port)
	}
	fmt.Println(cli.Dim("path: " + strings.Join(hops, " -> ")))
}

// printPortConfig shows the port's current running config so the operator
// sees what a VLAN change would replace. Best effort; location already stands.
func printPortConfig(ctx context.Context, r *resolve.Result) {
	dev, err := dialHost(ctx, r.Host)
	if err != nil {
		fmt.Fprintln(os.Stderr, cli.Yellow("could not read port config: "+err.Error()))
		return
	}
	defer dev.Close()

	out, err := dev.Run(ctx, "show running-config interface "+r.Port,
		session.RunOptions{Primary: 60 * time.Second})
	if err != nil {
		return
	}
	fmt.Println()
	for _, line := range parse.CleanConfigLines(out) {
		fmt.Println("  " + line)
	}
}
