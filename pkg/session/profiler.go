package session

import (
	"context"
	"regexp"
	"time"

	"github.com/portwalk-net/portwalk/pkg/util"
)

var configPromptRe = regexp.MustCompile(`\(config[^)]*\)#`)

// Measure probes how sluggish a device's CLI is before any configuration is
// pushed at it. It times a cheap show command and a config-mode round trip,
// takes the worse of the two, and maps the latency onto a scale factor that
// stretches every later timeout and settle delay. A probe failure yields a
// cautious 2x rather than an error: an unresponsive device is exactly the
// case the scaling exists for.
func Measure(ctx context.Context, dev Device) float64 {
	log := util.WithDevice(dev.Host())

	worst, err := timeCmd(ctx, dev, "show clock", RunOptions{Primary: 90 * time.Second})
	if err != nil {
		log.Warnf("responsiveness probe failed: %v", err)
		return 2
	}

	start := time.Now()
	if _, err := dev.Run(ctx, "configure terminal", RunOptions{Expect: configPromptRe, Primary: 90 * time.Second}); err != nil {
		log.Warnf("config-mode probe failed: %v", err)
		return 2
	}
	// Anchor on the prompt so the probe measures the device, not the
	// executor's fallback settle for output-less commands.
	if _, err := dev.Run(ctx, "end", RunOptions{Expect: genericPromptRe, Primary: 90 * time.Second}); err != nil {
		log.Warnf("config-mode probe failed: %v", err)
		return 2
	}
	if d := time.Since(start); d > worst {
		worst = d
	}

	scale := scaleFor(worst)
	log.Infof("responsiveness: worst probe %.1fs, scale %.1fx", worst.Seconds(), scale)
	return scale
}

// scaleFor maps a worst-case probe latency onto a timeout multiplier.
func scaleFor(worst time.Duration) float64 {
	switch {
	case worst > 60*time.Second:
		return 8
	case worst > 30*time.Second:
		return 6
	case worst > 10*time.Second:
		return 4
	case worst > 5*time.Second:
		return 2
	case worst > 2*time.Second:
		return 1.5
	default:
		return 1
	}
}

func timeCmd(ctx context.Context, dev Device, cmd string, opts RunOptions) (time.Duration, error) {
	start := time.Now()
	if _, err := dev.Run(ctx, cmd, opts); err != nil {
		return 0, err
	}
	return time.Since(start), nil
}
