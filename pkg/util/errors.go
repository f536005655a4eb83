// Package util provides logging, the shared error taxonomy, and the retry
// helper used across portwalk packages.
package util

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for connection, traversal, and configuration outcomes.
var (
	ErrAuthFailed          = errors.New("authentication failed")
	ErrNotFoundHere        = errors.New("target MAC not present on this device")
	ErrNoNeighbor          = errors.New("no neighbor found on resolved interface")
	ErrNeighborUnreachable = errors.New("neighbor device unreachable")
	ErrCycleDetected       = errors.New("topology cycle detected")
	ErrTooManyHops         = errors.New("hop budget exhausted")
	ErrVerificationFailed  = errors.New("configuration verification failed")
	ErrCancelled           = errors.New("cancelled by operator")
	ErrDeviceLocked        = errors.New("device locked by another operator")
)

// ConnectionError reports that every credential in the chain failed against a
// host. Callers treat it as "unreachable" and move on to the next core switch.
type ConnectionError struct {
	Host     string
	Attempts int
	Last     error // error from the last candidate tried
}

func (e *ConnectionError) Error() string {
	msg := fmt.Sprintf("all %d credential(s) failed for %s", e.Attempts, e.Host)
	if e.Last != nil {
		msg += ": " + e.Last.Error()
	}
	return msg
}

func (e *ConnectionError) Unwrap() error {
	return ErrAuthFailed
}

// VerificationError reports a config push whose read-back never matched intent
// after exhausting the retry budget. The device may be partially configured and
// must be checked manually; ReadBack holds the last interface read-back so the
// operator can see what the device actually reports.
type VerificationError struct {
	Port     string
	Attempts int
	Failed   []string // directives not found in the read-back
	ReadBack string
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("verification failed on %s after %d attempt(s): missing %s",
		e.Port, e.Attempts, strings.Join(e.Failed, ", "))
}

func (e *VerificationError) Unwrap() error {
	return ErrVerificationFailed
}

// Diff returns an operator-readable summary of expected vs observed state.
func (e *VerificationError) Diff() string {
	var sb strings.Builder
	sb.WriteString("Expected but not found:\n")
	for _, f := range e.Failed {
		sb.WriteString("  - " + f + "\n")
	}
	sb.WriteString("Device reports:\n")
	for _, line := range strings.Split(strings.TrimSpace(e.ReadBack), "\n") {
		sb.WriteString("  " + line + "\n")
	}
	return sb.String()
}
