// Package push applies access-port VLAN configuration and refuses to report
// success until the change can be read back from the device. Switches under
// load accept config lines and silently drop them; verification plus retry is
// the only honest completion signal.
package push

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/portwalk-net/portwalk/pkg/parse"
	"github.com/portwalk-net/portwalk/pkg/session"
	"github.com/portwalk-net/portwalk/pkg/util"
)

// Batch describes one access-port change: wipe the interface and set it up
// as an access port on the given VLANs.
type Batch struct {
	Port       string
	AccessVLAN string
	// VoiceVLAN is optional; empty means no voice VLAN line.
	VoiceVLAN string
}

// Commands returns the config-mode lines in apply order. The interface is
// defaulted first so stale config never survives the change.
func (b Batch) Commands() []string {
	cmds := []string{
		"default interface " + b.Port,
		"interface " + b.Port,
		"switchport mode access",
		"switchport access vlan " + b.AccessVLAN,
	}
	if b.VoiceVLAN != "" {
		cmds = append(cmds, "switchport voice vlan "+b.VoiceVLAN)
	}
	return append(cmds,
		"spanning-tree portfast",
		"no shutdown",
	)
}

func (b Batch) validate() error {
	if b.Port == "" {
		return fmt.Errorf("batch has no port")
	}
	if err := validVLAN(b.AccessVLAN); err != nil {
		return fmt.Errorf("access vlan: %w", err)
	}
	if b.VoiceVLAN != "" {
		if err := validVLAN(b.VoiceVLAN); err != nil {
			return fmt.Errorf("voice vlan: %w", err)
		}
	}
	return nil
}

func validVLAN(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("%q is not a VLAN number", s)
	}
	if n < 1 || n > 4094 {
		return fmt.Errorf("%d out of range 1-4094", n)
	}
	return nil
}

// directive is one verification predicate against the config read-back.
// Either any of accepts must be present, or absent must not appear.
// configOnly directives are skipped when the read-back came from operational
// state, which never shows them.
type directive struct {
	line       string
	accepts    []string
	absent     string
	configOnly bool
}

// directives returns the read-back checks for this batch. Platforms phrase a
// few lines differently (portfast vs portfast edge), and "no shutdown" never
// shows in a running config, so it is checked as the absence of "shutdown".
func (b Batch) directives() []directive {
	d := []directive{
		{line: "switchport mode access", accepts: []string{"switchport mode access"}},
		{line: "switchport access vlan " + b.AccessVLAN,
			accepts: []string{"switchport access vlan " + b.AccessVLAN}},
	}
	if b.VoiceVLAN != "" {
		d = append(d, directive{line: "switchport voice vlan " + b.VoiceVLAN,
			accepts: []string{"switchport voice vlan " + b.VoiceVLAN}})
	}
	return append(d,
		directive{line: "spanning-tree portfast", configOnly: true,
			accepts: []string{"spanning-tree portfast", "spanning-tree portfast edge"}},
		directive{line: "no shutdown", absent: "shutdown", configOnly: true},
	)
}

var configPromptRe = regexp.MustCompile(`\(config[^)]*\)#`)

const defaultMaxRetries = 3

// Pusher applies batches with verification and retry.
type Pusher struct {
	// Scale is the responsiveness factor from session.Measure. It stretches
	// the settle delays and the retry backoff; timeouts inside the session
	// scale on their own.
	Scale float64

	// MaxRetries is the number of apply+verify attempts (default 3).
	MaxRetries int

	// sleep is replaced in tests.
	sleep func(time.Duration)
}

func (p *Pusher) pause(d time.Duration) {
	if p.sleep != nil {
		p.sleep(d)
		return
	}
	time.Sleep(d)
}

// Push applies the batch to dev and verifies it stuck. Each failed
// verification backs off 10s times the attempt number (scaled) and re-applies
// from scratch; re-applying the same access config is idempotent. When every
// attempt fails the returned error is a *util.VerificationError carrying the
// lines that never verified and the final read-back.
func (p *Pusher) Push(ctx context.Context, dev session.Device, b Batch) error {
	if err := b.validate(); err != nil {
		return err
	}

	scale := p.Scale
	if scale < 1 {
		scale = 1
	}
	retries := p.MaxRetries
	if retries == 0 {
		retries = defaultMaxRetries
	}

	log := util.WithDevice(dev.Host()).WithField("port", b.Port)

	var lastFailed []string
	var lastRead string

	err := util.Retry(ctx, util.RetryConfig{
		Attempts: retries,
		Backoff:  util.LinearBackoff(10*time.Second, scale),
		Sleep:    p.sleep,
	}, func(attempt int) error {
		log.Infof("applying config, attempt %d/%d", attempt, retries)
		if err := p.apply(ctx, dev, b); err != nil {
			return err
		}

		// Let the config plane commit before reading back.
		p.pause(time.Duration(float64(3*time.Second) * scale))

		lines, raw, operational := p.readBack(ctx, dev, b.Port)
		lastRead = raw
		if failed := verify(lines, b.directives(), operational); len(failed) > 0 {
			lastFailed = failed
			log.Warnf("read-back missing %d line(s): %s", len(failed), strings.Join(failed, "; "))
			return fmt.Errorf("%d line(s) did not verify", len(failed))
		}
		lastFailed = nil
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if len(lastFailed) > 0 {
			return &util.VerificationError{
				Port:     b.Port,
				Attempts: retries,
				Failed:   lastFailed,
				ReadBack: lastRead,
			}
		}
		return err
	}

	log.Infof("config verified")
	p.save(ctx, dev, b.Port, log)
	return nil
}

// apply enters config mode, plays the batch in timing mode, and exits.
// Config-mode echo is unreliable on the platforms that need this tool most,
// so commands are paced instead of prompt-matched.
func (p *Pusher) apply(ctx context.Context, dev session.Device, b Batch) error {
	if _, err := dev.Run(ctx, "configure terminal", session.RunOptions{
		Expect:  configPromptRe,
		Primary: 60 * time.Second,
	}); err != nil {
		return fmt.Errorf("enter config mode on %s: %w", dev.Host(), err)
	}

	for _, cmd := range b.Commands() {
		if _, err := dev.Run(ctx, cmd, session.RunOptions{Timing: true, Settle: time.Second}); err != nil {
			return fmt.Errorf("send %q: %w", cmd, err)
		}
		p.pause(100 * time.Millisecond)
	}

	if _, err := dev.Run(ctx, "end", session.RunOptions{Timing: true, Settle: time.Second}); err != nil {
		return fmt.Errorf("leave config mode: %w", err)
	}
	return nil
}

// readBack fetches the interface config for verification. Running-config
// reads come first; when the platform rejects both spellings the operational
// switchport state is translated into config phrasing instead, flagged so
// config-only directives are not held against it.
func (p *Pusher) readBack(ctx context.Context, dev session.Device, port string) (lines []string, raw string, operational bool) {
	opts := session.RunOptions{Primary: 60 * time.Second}

	for _, cmd := range []string{
		"show running-config interface " + port,
		"show run int " + port,
	} {
		out, err := dev.Run(ctx, cmd, opts)
		if err != nil || parse.InvalidCommand(out) {
			continue
		}
		if lines := parse.CleanConfigLines(out); len(lines) > 0 {
			return lines, out, false
		}
	}

	out, err := dev.Run(ctx, "show interface "+port+" switchport", opts)
	if err != nil {
		return nil, "", true
	}
	return parse.SwitchportToConfigLines(out), out, true
}

// verify returns the directive lines the read-back does not satisfy.
func verify(lines []string, directives []directive, operational bool) []string {
	present := make(map[string]bool, len(lines))
	for _, l := range lines {
		present[l] = true
	}

	var failed []string
	for _, d := range directives {
		if operational && d.configOnly {
			continue
		}
		if d.absent != "" {
			if present[d.absent] {
				failed = append(failed, d.line)
			}
			continue
		}
		ok := false
		for _, a := range d.accepts {
			if present[a] {
				ok = true
				break
			}
		}
		if !ok {
			failed = append(failed, d.line)
		}
	}
	return failed
}

// save persists the config and logs a final read-back. Neither failing can
// undo a verified change, so both are warnings at worst.
func (p *Pusher) save(ctx context.Context, dev session.Device, port string, log *logrus.Entry) {
	if _, err := dev.Run(ctx, "write memory", session.RunOptions{Primary: 120 * time.Second}); err != nil {
		log.Warnf("write memory failed, config applied but not saved: %v", err)
		return
	}
	log.Infof("config saved")

	if out, err := dev.Run(ctx, "show running-config interface "+port, session.RunOptions{Primary: 60 * time.Second}); err == nil {
		log.Debugf("final state of %s:\n%s", port, out)
	}
}
