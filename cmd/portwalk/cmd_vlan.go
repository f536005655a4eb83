package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/portwalk-net/portwalk/pkg/audit"
	"github.com/portwalk-net/portwalk/pkg/cli"
	"github.com/portwalk-net/portwalk/pkg/lock"
	"github.com/portwalk-net/portwalk/pkg/push"
	"github.com/portwalk-net/portwalk/pkg/resolve"
	"github.com/portwalk-net/portwalk/pkg/session"
	"github.com/portwalk-net/portwalk/pkg/util"
)

var (
	accessVLAN string
	voiceVLAN  string
)

var vlanCmd = &cobra.Command{
	Use:   "vlan",
	Short: "VLAN operations on located access ports",
}

var vlanSetCmd = &cobra.Command{
	Use:   "set <mac-or-ip>",
	Short: "Move the endpoint's access port to new VLANs",
	Long: `Locates the access port behind the given MAC or IP, then rewrites it as an
access port on the requested VLAN (plus optional voice VLAN). The interface is
defaulted first, so anything previously configured on it is replaced.

Previews by default; -x executes.`,
	Args: cobra.ExactArgs(1),
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
		printLocation(site.Name, mac, result)
		printPortConfig(ctx, result)

		batch := push.Batch{Port: result.Port, AccessVLAN: accessVLAN, VoiceVLAN: voiceVLAN}

		fmt.Println("\nPlanned config on " + cli.Bold(result.Host) + ":")
		for _, line := range batch.Commands() {
			fmt.Println("  " + line)
		}

		if !executeMode {
			fmt.Println(cli.Yellow("\nPreview only. Re-run with -x to execute."))
			return nil
		}
		if !assumeYes && !cli.Confirm("\nApply to "+result.Host+" "+result.Port+"?") {
			return util.ErrCancelled
		}

		return executeVLANChange(ctx, site.Name, result, batch)
	},
}

func executeVLANChange(ctx context.Context, site string, result *resolve.Result, batch push.Batch) error {
	operator := operatorName()

	if cfg.LockRedis != "" {
		locker, err := lock.New(ctx, cfg.LockRedis)
		if err != nil {
			return err
		}
		defer locker.Close()
		if err := locker.Acquire(ctx, result.Host, operator); err != nil {
			return err
		}
		defer func() {
			if err := locker.Release(ctx, result.Host, operator); err != nil {
				util.Warnf("releasing lock on %s: %v", result.Host, err)
			}
		}()
	}

	event := audit.NewEvent(operator, result.Host, "vlan set").
		WithSite(site).
		WithPort(batch.Port).
		WithCommands(batch.Commands())

	err := pushBatch(ctx, result.Host, batch)
	recordEvent(ctx, event.Finish(err))

	var verr *util.VerificationError
	if errors.As(err, &verr) {
		fmt.Fprintln(os.Stderr, cli.Red("Configuration did not verify; check the port manually."))
		fmt.Fprintln(os.Stderr, verr.Diff())
		return err
	}
	if err != nil {
		return err
	}

	fmt.Println(cli.Green(fmt.Sprintf("%s %s moved to vlan %s and saved.",
		result.Host, batch.Port, batch.AccessVLAN)))
	return nil
}

func pushBatch(ctx context.Context, host string, batch push.Batch) error {
	dev, err := dialHost(ctx, host)
	if err != nil {
		return err
	}
	defer dev.Close()

	// Gauge the device before pushing; slow switches get stretched timeouts
	// and longer settle delays.
	scale := session.Measure(ctx, dev)
	dev.SetScale(scale)

	p := &push.Pusher{Scale: scale}
	return p.Push(ctx, dev, batch)
}

// recordEvent writes to the audit store when one is configured. Audit
// problems are reported but never mask the operation's own outcome.
func recordEvent(ctx context.Context, e *audit.Event) {
	if cfg.AuditDB == "" {
		return
	}
	store, err := audit.Open(cfg.AuditDB)
	if err != nil {
		util.Warnf("audit store unavailable: %v", err)
		return
	}
	defer store.Close()
	if err := store.Record(ctx, e); err != nil {
		util.Warnf("audit record failed: %v", err)
	}
}

func init() {
	vlanSetCmd.Flags().StringVar(&accessVLAN, "access", "", "Access VLAN to assign (required)")
	vlanSetCmd.Flags().StringVar(&voiceVLAN, "voice", "", "Voice VLAN to assign")
	vlanSetCmd.MarkFlagRequired("access")
	vlanCmd.AddCommand(vlanSetCmd)
}
