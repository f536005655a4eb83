package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/portwalk-net/portwalk/pkg/cli"
	"github.com/portwalk-net/portwalk/pkg/config"
	"github.com/portwalk-net/portwalk/pkg/push"
	"github.com/portwalk-net/portwalk/pkg/resolve"
)

// runInteractive is the guided flow for operators who live in this tool all
// day: pick a site once, then locate and optionally re-VLAN endpoints until
// done. Every change still shows its config and asks before applying.
func runInteractive(ctx context.Context) error {
	if len(cfg.Sites) == 0 {
		return fmt.Errorf("no sites configured; create %s first", cfgPath)
	}

	site, err := pickSite()
	if err != nil {
		return err
	}
	fmt.Printf("Working at site %s (cores: %d)\n\n", cli.Bold(site.Name), len(site.Cores))

	for {
		raw, err := cli.ReadLine("MAC or IP to locate (blank to quit): ")
		if err != nil {
			return err
		}
		if raw == "" {
			return nil
		}

		tgt, err := classifyTarget(raw)
		if err != nil {
			fmt.Println(cli.Red(err.Error()))
			continue
		}

		result, mac, err := locateOnSite(ctx, site, tgt)
		if err != nil {
			fmt.Println(cli.Red(err.Error()))
			continue
		}
		printLocation(site.Name, mac, result)
		printPortConfig(ctx, result)

		if !cli.Confirm("Change this port's VLAN?") {
			fmt.Println()
			continue
		}

		if err := interactiveVLANChange(ctx, site.Name, result); err != nil {
			if errors.Is(err, errBackToMenu) {
				fmt.Println()
				continue
			}
			fmt.Println(cli.Red(err.Error()))
		}
		fmt.Println()
	}
}

var errBackToMenu = errors.New("cancelled")

func pickSite() (*config.Site, error) {
	if siteName != "" || len(cfg.Sites) == 1 {
		return chooseSite()
	}

	fmt.Println("Sites:")
	for i, s := range cfg.Sites {
		fmt.Printf("  %2d) %s\n", i+1, cli.DotPad(s.Name, 28))
	}
	answer, err := cli.ReadLine("Site number: ")
	if err != nil {
		return nil, err
	}
	n, err := strconv.Atoi(answer)
	if err != nil || n < 1 || n > len(cfg.Sites) {
		return nil, fmt.Errorf("invalid site selection %q", answer)
	}
	return &cfg.Sites[n-1], nil
}

func interactiveVLANChange(ctx context.Context, site string, result *resolve.Result) error {
	access, err := cli.ReadLine("Access VLAN: ")
	if err != nil {
		return err
	}
	voice, err := cli.ReadLine("Voice VLAN (blank for none): ")
	if err != nil {
		return err
	}

	batch := push.Batch{Port: result.Port, AccessVLAN: access, VoiceVLAN: voice}
	fmt.Println("\nPlanned config on " + cli.Bold(result.Host) + ":")
	for _, line := range batch.Commands() {
		fmt.Println("  " + line)
	}
	if !cli.Confirm("Apply now?") {
		return errBackToMenu
	}
	return executeVLANChange(ctx, site, result, batch)
}
