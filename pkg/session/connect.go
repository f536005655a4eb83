package session

import (
	"context"
	"errors"
	"fmt"
	"net"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/portwalk-net/portwalk/pkg/config"
	"github.com/portwalk-net/portwalk/pkg/parse"
	"github.com/portwalk-net/portwalk/pkg/util"
)

// Options tunes how connections are established.
type Options struct {
	// Port is the SSH port (default 22).
	Port int

	// ConnTimeout bounds the TCP+SSH handshake (default 20s).
	ConnTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.Port == 0 {
		o.Port = 22
	}
	if o.ConnTimeout == 0 {
		o.ConnTimeout = 20 * time.Second
	}
	return o
}

type connectFunc func(ctx context.Context, host string, cred config.Credential, opts Options) (*Session, error)

// Dialer establishes sessions by walking a credential chain in order. Mixed
// switch fleets rarely share one credential set, so each candidate is tried
// until one authenticates.
type Dialer struct {
	opts    Options
	connect connectFunc
}

// NewDialer returns a Dialer that connects over SSH.
func NewDialer(opts Options) *Dialer {
	return &Dialer{opts: opts.withDefaults(), connect: sshConnect}
}

// Dial tries each credential in order and returns the first session that
// authenticates and reaches a usable prompt. When the whole chain fails it
// returns a *util.ConnectionError wrapping the last failure.
func (d *Dialer) Dial(ctx context.Context, host string, chain []config.Credential) (*Session, error) {
	if len(chain) == 0 {
		return nil, &util.ConnectionError{Host: host, Last: errors.New("no credentials configured")}
	}

	log := util.WithDevice(host)
	var last error
	for i, cred := range chain {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		log.Debugf("connect attempt %d/%d as %s", i+1, len(chain), cred.Username)
		s, err := d.connect(ctx, host, cred, d.opts)
		if err != nil {
			log.Warnf("credential %s rejected: %v", cred.Username, err)
			last = err
			continue
		}
		log.Infof("connected as %s", cred.Username)
		return s, nil
	}
	return nil, &util.ConnectionError{Host: host, Attempts: len(chain), Last: last}
}

// ansiRe strips terminal color and erase sequences some platforms emit.
var ansiRe = regexp.MustCompile(`\x1b\[[0-9;]*[A-Za-z]`)

var passwordPromptRe = regexp.MustCompile(`(?i)password`)

// sshConnect opens an interactive shell, learns the device prompt, disables
// output paging, and enters privileged mode when an enable secret is set.
func sshConnect(ctx context.Context, host string, cred config.Credential, opts Options) (*Session, error) {
	cfg := &ssh.ClientConfig{
		User:            cred.Username,
		Auth:            []ssh.AuthMethod{ssh.Password(cred.Password)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         opts.ConnTimeout,
	}

	addr := net.JoinHostPort(host, strconv.Itoa(opts.Port))
	client, err := ssh.Dial("tcp", addr, cfg)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	sess, err := client.NewSession()
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("session %s: %w", addr, err)
	}

	modes := ssh.TerminalModes{
		ssh.ECHO:          1,
		ssh.TTY_OP_ISPEED: 14400,
		ssh.TTY_OP_OSPEED: 14400,
	}
	if err := sess.RequestPty("vt100", 40, 200, modes); err != nil {
		sess.Close()
		client.Close()
		return nil, fmt.Errorf("request pty: %w", err)
	}

	stdin, err := sess.StdinPipe()
	if err != nil {
		sess.Close()
		client.Close()
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}

	out := &captureBuffer{}
	sess.Stdout = out
	sess.Stderr = out

	if err := sess.Shell(); err != nil {
		sess.Close()
		client.Close()
		return nil, fmt.Errorf("start shell: %w", err)
	}

	s := &Session{
		host:   host,
		user:   cred.Username,
		client: client,
		sess:   sess,
		stdin:  stdin,
		out:    out,
		scale:  1,
	}
	if err := s.stabilize(ctx, cred); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// stabilize waits for the login banner to finish, derives the base prompt,
// disables paging, and elevates to privileged mode if a secret is present.
func (s *Session) stabilize(ctx context.Context, cred config.Credential) error {
	line, err := s.waitForPrompt(ctx, 15*time.Second)
	if err != nil {
		return fmt.Errorf("no prompt after login: %w", err)
	}
	s.prompt = basePrompt(line)

	// Disable paging so long tables arrive in one read. IOS and ASA spell
	// this differently; try both, neither failing is fatal.
	out := s.timing(ctx, "terminal length 0", 1*time.Second)
	if parse.InvalidCommand(out) {
		s.timing(ctx, "terminal pager 0", 1*time.Second)
	}

	if cred.EnableSecret != "" && !strings.HasSuffix(s.promptLine(ctx), "#") {
		if err := s.elevate(ctx, cred.EnableSecret); err != nil {
			return err
		}
	}
	return nil
}

// elevate enters privileged exec via the enable secret.
func (s *Session) elevate(ctx context.Context, secret string) error {
	s.out.Reset()
	if err := s.send("enable"); err != nil {
		return err
	}
	if _, err := s.waitFor(ctx, passwordPromptRe, 10*time.Second); err != nil {
		return fmt.Errorf("enable: %w", err)
	}
	s.out.Reset()
	if err := s.send(secret); err != nil {
		return err
	}
	line, err := s.waitForPrompt(ctx, 10*time.Second)
	if err != nil || !strings.HasSuffix(line, "#") {
		return fmt.Errorf("enable secret rejected on %s", s.host)
	}
	s.prompt = basePrompt(line)
	return nil
}

// promptLine provokes a fresh prompt with an empty send and returns its last
// output line.
func (s *Session) promptLine(ctx context.Context) string {
	s.out.Reset()
	if err := s.send(""); err != nil {
		return ""
	}
	line, err := s.waitForPrompt(ctx, 5*time.Second)
	if err != nil {
		return ""
	}
	return line
}

// waitForPrompt blocks until the captured output ends with a prompt marker
// and returns that final line, ANSI-stripped.
func (s *Session) waitForPrompt(ctx context.Context, timeout time.Duration) (string, error) {
	return s.waitFor(ctx, genericPromptRe, timeout)
}

// waitFor polls the capture buffer until pattern matches, returning the last
// non-empty line of output.
func (s *Session) waitFor(ctx context.Context, pattern *regexp.Regexp, timeout time.Duration) (string, error) {
	deadline := time.Now().Add(timeout)
	for {
		text := ansiRe.ReplaceAllString(s.out.String(), "")
		if pattern.MatchString(text) {
			return lastLine(text), nil
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

func lastLine(text string) string {
	lines := strings.Split(text, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return ""
}

// basePrompt reduces a prompt line like "IDF2-SW01(config)#" to the stable
// hostname portion used to anchor later prompt matches.
func basePrompt(line string) string {
	line = strings.TrimSpace(line)
	line = strings.TrimRight(line, "># ")
	if i := strings.IndexByte(line, '('); i > 0 {
		line = line[:i]
	}
	return line
}
