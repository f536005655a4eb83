// Package resolve walks a MAC address from a core switch down through the
// switching topology to the access port where the endpoint actually lives.
// Each hop reads the MAC table, and when the learning port turns out to be a
// trunk or port-channel it follows the CDP neighbor on that link and repeats
// on the downstream switch.
package resolve

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/portwalk-net/portwalk/pkg/parse"
	"github.com/portwalk-net/portwalk/pkg/session"
	"github.com/portwalk-net/portwalk/pkg/util"
)

// DialFunc opens an authenticated session to a downstream switch discovered
// during the walk.
type DialFunc func(ctx context.Context, host string) (session.Device, error)

// Hop records one switch visited during resolution and the port the MAC was
// learned on there.
type Hop struct {
	Host string
	Port string
}

// Result is a fully resolved access port.
type Result struct {
	// Host is the switch that owns the access port.
	Host string

	// Port is the access interface the endpoint is attached to.
	Port string

	// VLAN is the VLAN the MAC is currently learned in.
	VLAN string

	// Path lists every switch visited, core first, access switch last.
	Path []Hop
}

const defaultMaxHops = 8

// Resolver traces MAC addresses through the topology.
type Resolver struct {
	// Dial opens sessions to downstream switches.
	Dial DialFunc

	// MaxHops bounds the walk depth (default 8). Campus access trees are
	// shallow; anything deeper means a wiring surprise, not a real path.
	MaxHops int
}

// Resolve walks mac starting from dev until it lands on a non-trunk port.
// The caller keeps ownership of dev; sessions the walk opens to downstream
// switches are closed before Resolve returns. Revisiting a switch fails with
// ErrCycleDetected rather than looping.
func (r *Resolver) Resolve(ctx context.Context, dev session.Device, mac string) (*Result, error) {
	mac, err := parse.NormalizeMAC(mac)
	if err != nil {
		return nil, err
	}

	maxHops := r.MaxHops
	if maxHops == 0 {
		maxHops = defaultMaxHops
	}

	visited := map[string]bool{dev.Host(): true}
	var path []Hop

	current := dev
	defer func() {
		if current != dev {
			current.Close()
		}
	}()

	for {
		if len(path) >= maxHops {
			return nil, fmt.Errorf("%w: gave up after %d switches tracing %s", util.ErrTooManyHops, len(path), mac)
		}

		log := util.WithDevice(current.Host())

		entry, err := lookupMAC(ctx, current, mac)
		if err != nil {
			return nil, err
		}
		path = append(path, Hop{Host: current.Host(), Port: entry.Port})
		log.Infof("%s learned on %s (vlan %s)", mac, entry.Port, entry.VLAN)

		trunk, err := isTrunkPort(ctx, current, entry.Port)
		if err != nil {
			return nil, err
		}
		if !trunk {
			return &Result{Host: current.Host(), Port: entry.Port, VLAN: entry.VLAN, Path: path}, nil
		}

		nextIP, err := r.neighborIP(ctx, current, entry.Port)
		if err != nil {
			return nil, err
		}
		if visited[nextIP] {
			return nil, fmt.Errorf("%w: %s already visited tracing %s", util.ErrCycleDetected, nextIP, mac)
		}
		visited[nextIP] = true

		log.Infof("%s is a trunk, following to %s", entry.Port, nextIP)
		next, err := r.Dial(ctx, nextIP)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", util.ErrNeighborUnreachable, nextIP, err)
		}
		if current != dev {
			current.Close()
		}
		current = next
	}
}

// lookupMAC finds the MAC-table entry for mac. Older IOS spells the command
// with a hyphen, so a rejected or empty first attempt retries the alternate
// spelling before concluding the MAC is absent.
func lookupMAC(ctx context.Context, dev session.Device, mac string) (parse.MACEntry, error) {
	opts := session.RunOptions{Primary: 180 * time.Second}

	for _, cmd := range []string{
		"show mac address-table | include " + mac,
		"show mac-address-table | include " + mac,
	} {
		out, err := dev.Run(ctx, cmd, opts)
		if err != nil {
			continue
		}
		if parse.InvalidCommand(out) {
			continue
		}
		if entry, ok := parse.MACTable(out, mac); ok {
			return entry, nil
		}
	}
	return parse.MACEntry{}, fmt.Errorf("%w: %s has no entry for %s", util.ErrNotFoundHere, dev.Host(), mac)
}

func isTrunkPort(ctx context.Context, dev session.Device, port string) (bool, error) {
	// A port-channel is always an uplink; no need to ask.
	if isPortChannel(port) {
		return true, nil
	}
	out, err := dev.Run(ctx, "show interface "+port+" switchport", session.RunOptions{Primary: 60 * time.Second})
	if err != nil {
		return false, fmt.Errorf("switchport mode of %s on %s: %w", port, dev.Host(), err)
	}
	return parse.IsTrunk(out), nil
}

// isPortChannel matches Po1/po12/Port-channel1 but not ports whose name
// merely starts with "Po" by coincidence.
func isPortChannel(port string) bool {
	p := strings.ToLower(port)
	return strings.HasPrefix(p, "port-channel") ||
		(strings.HasPrefix(p, "po") && len(p) > 2 && p[2] >= '0' && p[2] <= '9')
}

// neighborIP finds the management IP of the switch on the far side of port.
// A port-channel has no CDP adjacency of its own, so its members are probed
// in order until one reports a neighbor.
func (r *Resolver) neighborIP(ctx context.Context, dev session.Device, port string) (string, error) {
	probes := []string{port}
	if isPortChannel(port) {
		members, err := portChannelMembers(ctx, dev, port)
		if err != nil {
			return "", err
		}
		probes = members
	}

	for _, p := range probes {
		out, err := dev.Run(ctx, "show cdp neighbors "+p+" detail", session.RunOptions{Primary: 60 * time.Second})
		if err != nil {
			continue
		}
		if ip := parse.FirstNeighborIP(out); ip != "" {
			return ip, nil
		}
	}
	return "", fmt.Errorf("%w: no CDP neighbor behind %s on %s", util.ErrNoNeighbor, port, dev.Host())
}

// portChannelMembers lists the physical members of a port-channel. Member
// listing is flaky on loaded switches, so the command sequence is retried as
// a whole before giving up.
func portChannelMembers(ctx context.Context, dev session.Device, channel string) ([]string, error) {
	id := strings.TrimPrefix(strings.TrimPrefix(channel, "Po"), "po")
	cmds := []string{
		"show etherchannel summary",
		"show etherchannel " + id + " summary",
		"show etherchannel summary | include " + channel,
	}

	var members []string
	err := util.Retry(ctx, util.RetryConfig{
		Attempts: 3,
		Backoff:  util.LinearBackoff(2*time.Second, 1),
	}, func(attempt int) error {
		for _, cmd := range cmds {
			out, err := dev.Run(ctx, cmd, session.RunOptions{Primary: 60 * time.Second})
			if err != nil || parse.InvalidCommand(out) {
				continue
			}
			if m := parse.PortChannelMembers(out, channel); len(m) > 0 {
				members = m
				return nil
			}
		}
		return fmt.Errorf("no members listed for %s on %s (attempt %d)", channel, dev.Host(), attempt)
	})
	if err != nil {
		return nil, err
	}
	return members, nil
}

// MACFromARP resolves an IP to its MAC via the ARP table of dev, typically a
// core switch that routes for the subnet.
func MACFromARP(ctx context.Context, dev session.Device, ip string) (string, error) {
	out, err := dev.Run(ctx, "show ip arp "+ip, session.RunOptions{Primary: 60 * time.Second})
	if err != nil {
		return "", fmt.Errorf("arp lookup of %s on %s: %w", ip, dev.Host(), err)
	}
	mac := parse.ARPMAC(out)
	if mac == "" {
		return "", fmt.Errorf("%w: no ARP entry for %s on %s", util.ErrNotFoundHere, ip, dev.Host())
	}
	return parse.NormalizeMAC(mac)
}
