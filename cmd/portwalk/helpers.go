package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/user"

	"github.com/portwalk-net/portwalk/pkg/cli"
	"github.com/portwalk-net/portwalk/pkg/config"
	"github.com/portwalk-net/portwalk/pkg/parse"
	"github.com/portwalk-net/portwalk/pkg/resolve"
	"github.com/portwalk-net/portwalk/pkg/session"
	"github.com/portwalk-net/portwalk/pkg/util"
)

// target is a classified locate argument: either a MAC (normalized) or an IP
// that still needs an ARP lookup on a core.
type target struct {
	raw string
	mac string
	ip  string
}

func classifyTarget(raw string) (target, error) {
	if ip := net.ParseIP(raw); ip != nil {
		return target{raw: raw, ip: raw}, nil
	}
	mac, err := parse.NormalizeMAC(raw)
	if err != nil {
		return target{}, fmt.Errorf("%q is neither an IP address nor a MAC address", raw)
	}
	return target{raw: raw, mac: mac}, nil
}

// chooseSite resolves -s against the config. With a single configured site
// the flag is optional.
func chooseSite() (*config.Site, error) {
	if siteName != "" {
		s, ok := cfg.Site(siteName)
		if !ok {
			return nil, fmt.Errorf("unknown site %q (see: portwalk sites)", siteName)
		}
		return s, nil
	}
	if len(cfg.Sites) == 1 {
		return &cfg.Sites[0], nil
	}
	return nil, fmt.Errorf("multiple sites configured, pick one with -s (see: portwalk sites)")
}

// credentialChain returns the configured chain, prompting interactively when
// nothing is configured and stdin is a terminal.
func credentialChain() ([]config.Credential, error) {
	if len(cfg.Credentials) > 0 {
		return cfg.Credentials, nil
	}
	fmt.Println("No credentials configured; enter them now.")
	cred, err := cli.PromptCredential()
	if err != nil {
		return nil, err
	}
	return []config.Credential{cred}, nil
}

func newResolver(dialer *session.Dialer, chain []config.Credential) *resolve.Resolver {
	return &resolve.Resolver{
		Dial: func(ctx context.Context, host string) (session.Device, error) {
			return dialer.Dial(ctx, host, chain)
		},
	}
}

// locateOnSite walks the site's cores in order: unreachable cores and cores
// that do not know the target are skipped, the first core that can resolve it
// wins. IP targets are translated to a MAC through the core's ARP table first.
func locateOnSite(ctx context.Context, site *config.Site, tgt target) (*resolve.Result, string, error) {
	chain, err := credentialChain()
	if err != nil {
		return nil, "", err
	}
	dialer := session.NewDialer(session.Options{})
	resolver := newResolver(dialer, chain)

	var lastErr error
	for _, core := range site.Cores {
		log := util.WithDevice(core)

		dev, err := dialer.Dial(ctx, core, chain)
		if err != nil {
			log.Warnf("core unreachable: %v", err)
			lastErr = err
			continue
		}

		mac := tgt.mac
		if mac == "" {
			mac, err = resolve.MACFromARP(ctx, dev, tgt.ip)
			if err != nil {
				log.Warnf("no ARP entry for %s here: %v", tgt.ip, err)
				lastErr = err
				dev.Close()
				continue
			}
			log.Infof("%s resolves to %s", tgt.ip, mac)
		}

		result, err := resolver.Resolve(ctx, dev, mac)
		dev.Close()
		if err != nil {
			if errors.Is(err, util.ErrNotFoundHere) {
				log.Infof("%s not learned on this core", mac)
				lastErr = err
				continue
			}
			return nil, "", err
		}
		return result, mac, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("site %q has no cores", site.Name)
	}
	return nil, "", fmt.Errorf("could not locate %s at site %s: %w", tgt.raw, site.Name, lastErr)
}

// dialHost opens a session to one host with the configured chain.
func dialHost(ctx context.Context, host string) (*session.Session, error) {
	chain, err := credentialChain()
	if err != nil {
		return nil, err
	}
	return session.NewDialer(session.Options{}).Dial(ctx, host, chain)
}

// operatorName identifies the local operator for locks and audit records.
func operatorName() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		host, _ := os.Hostname()
		if host != "" {
			return u.Username + "@" + host
		}
		return u.Username
	}
	return "unknown"
}
