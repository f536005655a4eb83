// Package audit records every configuration change portwalk makes. VLAN
// changes touch live user ports, so the trail of who moved which port to
// which VLAN, and whether it verified, is kept locally in SQLite.
package audit

import (
	"fmt"
	"time"
)

// Event is one recorded operation against a device.
type Event struct {
	ID        int64         `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	User      string        `json:"user"`
	Site      string        `json:"site,omitempty"`
	Host      string        `json:"host"`
	Port      string        `json:"port,omitempty"`
	Operation string        `json:"operation"`
	Commands  []string      `json:"commands,omitempty"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// NewEvent starts an event for an operation against host.
func NewEvent(user, host, operation string) *Event {
	return &Event{
		Timestamp: time.Now(),
		User:      user,
		Host:      host,
		Operation: operation,
	}
}

// WithSite sets the site name.
func (e *Event) WithSite(site string) *Event {
	e.Site = site
	return e
}

// WithPort sets the interface the operation targeted.
func (e *Event) WithPort(port string) *Event {
	e.Port = port
	return e
}

// WithCommands records the config lines that were pushed.
func (e *Event) WithCommands(cmds []string) *Event {
	e.Commands = cmds
	return e
}

// Finish stamps the outcome and elapsed time.
func (e *Event) Finish(err error) *Event {
	e.Duration = time.Since(e.Timestamp)
	e.Success = err == nil
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

func (e *Event) String() string {
	status := "ok"
	if !e.Success {
		status = "FAILED"
	}
	return fmt.Sprintf("%s %s %s %s %s [%s]",
		e.Timestamp.Format("2006-01-02 15:04:05"), e.User, e.Operation, e.Host, e.Port, status)
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	Host      string
	User      string
	Operation string
	Limit     int
}
