// Package session provides authenticated interactive CLI channels to network
// devices over SSH: credential-chain fallback on connect, a layered command
// executor tolerant of inconsistent prompt echoes, and a responsiveness
// profiler whose scale factor stretches every downstream timeout.
package session

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"
)

// Device is the narrow command-channel contract that the resolver and the
// config pusher depend on. *Session implements it; tests substitute scripted
// mocks.
type Device interface {
	Host() string
	Run(ctx context.Context, cmd string, opts RunOptions) (string, error)
	Close() error
}

// RunOptions tunes one command execution. Zero values select conservative
// defaults suitable for show commands on slow switches.
type RunOptions struct {
	// Expect anchors tier 1 on a specific pattern (e.g. the config-mode
	// prompt). Nil anchors on a generic privileged/user prompt.
	Expect *regexp.Regexp

	// Primary is the tier-1 timeout (default 120s).
	Primary time.Duration

	// Fallback is the tier-2 timeout for the unanchored prompt wait
	// (default 180s).
	Fallback time.Duration

	// Timing skips straight to the tier-3 timing-based send. Used for
	// config-mode commands whose echo many platforms mangle.
	Timing bool

	// Settle is the tier-3 wait after sending (default 2s).
	Settle time.Duration
}

func (o RunOptions) withDefaults() RunOptions {
	if o.Primary == 0 {
		o.Primary = 120 * time.Second
	}
	if o.Fallback == 0 {
		o.Fallback = 180 * time.Second
	}
	if o.Settle == 0 {
		o.Settle = 2 * time.Second
	}
	return o
}

// genericPromptRe matches any line ending in the user or privileged prompt
// marker. Used before the device's own prompt has been learned, and as the
// tier-1 anchor when the caller supplies none.
var genericPromptRe = regexp.MustCompile(`(?m)[>#] ?$`)

const pollInterval = 100 * time.Millisecond

// captureBuffer accumulates shell output from the SSH reader goroutine.
type captureBuffer struct {
	mu  sync.Mutex
	buf strings.Builder
}

func (c *captureBuffer) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.Write(p)
}

func (c *captureBuffer) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.String()
}

func (c *captureBuffer) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buf.Reset()
}

// Session is one live authenticated CLI channel to a device. Sessions are not
// safe for concurrent use: device CLIs accept one command at a time, and all
// of portwalk issues commands strictly sequentially.
type Session struct {
	host   string
	user   string
	client *ssh.Client
	sess   *ssh.Session
	stdin  io.WriteCloser
	out    *captureBuffer
	prompt string

	mu    sync.Mutex
	scale float64
}

// Host returns the address this session is connected to.
func (s *Session) Host() string { return s.host }

// User returns the username that authenticated this session.
func (s *Session) User() string { return s.user }

// Scale returns the current responsiveness scale factor (1 until measured).
func (s *Session) Scale() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scale == 0 {
		return 1
	}
	return s.scale
}

// SetScale installs the measured responsiveness factor. All subsequent
// timeouts and settle delays on this session are multiplied by it.
func (s *Session) SetScale(f float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f < 1 {
		f = 1
	}
	s.scale = f
}

// Close tears down the shell and the SSH connection.
func (s *Session) Close() error {
	if s.stdin != nil {
		fmt.Fprintln(s.stdin, "exit")
		s.stdin.Close()
	}
	if s.sess != nil {
		s.sess.Close()
	}
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// Run executes one command with the three-tier strategy:
//
//  1. pattern-anchored wait (opts.Expect or a generic prompt), Primary timeout
//  2. wait for this session's own prompt, Fallback timeout
//  3. timing-based send: fixed settle, return whatever arrived (never fails)
//
// Heterogeneous firmware produces inconsistent prompt echoes under latency;
// the hierarchy trades wall-clock time for reliability instead of failing on
// the first mismatch. Timeouts scale with the session's responsiveness factor.
func (s *Session) Run(ctx context.Context, cmd string, opts RunOptions) (string, error) {
	opts = opts.withDefaults()
	scale := s.Scale()

	if !opts.Timing {
		if opts.Expect != nil {
			// Explicit anchor: a match alone is success, even when the
			// command produced no output beyond the new prompt.
			out, err := s.expect(ctx, cmd, opts.Expect, scaleDur(opts.Primary, scale))
			if err == nil {
				return out, nil
			}
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
		} else {
			out, err := s.expect(ctx, cmd, genericPromptRe, scaleDur(opts.Primary, scale))
			if err == nil && strings.TrimSpace(out) != "" {
				return out, nil
			}
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
		}

		out, err := s.expect(ctx, cmd, s.promptPattern(), scaleDur(opts.Fallback, scale))
		if err == nil && strings.TrimSpace(out) != "" {
			return out, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}

	return s.timing(ctx, cmd, scaleDur(opts.Settle, scale)), nil
}

// expect sends cmd and waits for pattern to appear in the captured output.
// The command echo is stripped from the returned text.
func (s *Session) expect(ctx context.Context, cmd string, pattern *regexp.Regexp, timeout time.Duration) (string, error) {
	s.out.Reset()
	if err := s.send(cmd); err != nil {
		return "", err
	}

	deadline := time.Now().Add(timeout)
	for {
		text := s.out.String()
		if pattern.MatchString(text) {
			return stripEcho(cmd, text), nil
		}
		if time.Now().After(deadline) {
			return "", fmt.Errorf("timeout after %s waiting for %s", timeout, pattern)
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

// timing sends cmd, waits a fixed settle delay, and returns whatever output
// was captured, possibly nothing. Last-resort tier; never fails.
func (s *Session) timing(ctx context.Context, cmd string, settle time.Duration) string {
	s.out.Reset()
	if err := s.send(cmd); err != nil {
		return ""
	}
	select {
	case <-ctx.Done():
	case <-time.After(settle):
	}
	return stripEcho(cmd, s.out.String())
}

func (s *Session) send(cmd string) error {
	_, err := fmt.Fprintf(s.stdin, "%s\n", cmd)
	return err
}

// promptPattern matches this session's learned base prompt at line start,
// tolerating mode suffixes like "(config-if)".
func (s *Session) promptPattern() *regexp.Regexp {
	if s.prompt == "" {
		return genericPromptRe
	}
	return regexp.MustCompile(`(?m)^` + regexp.QuoteMeta(s.prompt) + `[^\n]*[>#] ?$`)
}

// stripEcho drops the echoed command line and a trailing bare prompt line.
func stripEcho(cmd, text string) string {
	lines := strings.Split(text, "\n")
	if len(lines) > 0 && strings.Contains(lines[0], cmd) {
		lines = lines[1:]
	}
	for len(lines) > 0 {
		last := strings.TrimSpace(lines[len(lines)-1])
		if last == "" {
			lines = lines[:len(lines)-1]
			continue
		}
		if (strings.HasSuffix(last, "#") || strings.HasSuffix(last, ">")) && len(strings.Fields(last)) == 1 {
			lines = lines[:len(lines)-1]
		}
		break
	}
	return strings.Join(lines, "\n")
}

func scaleDur(d time.Duration, scale float64) time.Duration {
	if scale <= 1 {
		return d
	}
	return time.Duration(float64(d) * scale)
}
