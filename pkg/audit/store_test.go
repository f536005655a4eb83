package audit

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_RecordAndList(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	ok := NewEvent("netops", "10.0.0.2", "vlan set").
		WithSite("hq").
		WithPort("Gi1/0/5").
		WithCommands([]string{"switchport access vlan 50"}).
		Finish(nil)
	if err := s.Record(ctx, ok); err != nil {
		t.Fatalf("Record() error: %v", err)
	}
	if ok.ID == 0 {
		t.Error("Record() did not assign an ID")
	}

	failed := NewEvent("netops", "10.0.0.3", "vlan set").
		Finish(errors.New("verification failed"))
	failed.Timestamp = ok.Timestamp.Add(time.Second)
	if err := s.Record(ctx, failed); err != nil {
		t.Fatalf("Record() error: %v", err)
	}

	events, err := s.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("List() returned %d events, want 2", len(events))
	}

	// Newest first.
	if events[0].Host != "10.0.0.3" {
		t.Errorf("events[0].Host = %q, want newest (10.0.0.3)", events[0].Host)
	}
	if events[0].Success || events[0].Error != "verification failed" {
		t.Errorf("failed event round-trip = %+v", events[0])
	}

	got := events[1]
	if got.User != "netops" || got.Site != "hq" || got.Port != "Gi1/0/5" {
		t.Errorf("event fields = %+v", got)
	}
	if len(got.Commands) != 1 || got.Commands[0] != "switchport access vlan 50" {
		t.Errorf("Commands = %v", got.Commands)
	}
	if !got.Success {
		t.Error("successful event stored as failed")
	}
}

func TestStore_ListFilters(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i, host := range []string{"10.0.0.2", "10.0.0.2", "10.0.0.3"} {
		e := NewEvent("netops", host, "locate").Finish(nil)
		e.Timestamp = e.Timestamp.Add(time.Duration(i) * time.Second)
		if err := s.Record(ctx, e); err != nil {
			t.Fatalf("Record() error: %v", err)
		}
	}

	events, err := s.List(ctx, Filter{Host: "10.0.0.2"})
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(events) != 2 {
		t.Errorf("List(host filter) returned %d, want 2", len(events))
	}

	events, err = s.List(ctx, Filter{Limit: 1})
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(events) != 1 {
		t.Errorf("List(limit 1) returned %d, want 1", len(events))
	}

	events, err = s.List(ctx, Filter{Operation: "vlan set"})
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("List(no match) returned %d, want 0", len(events))
	}
}

func TestEventString(t *testing.T) {
	e := NewEvent("netops", "10.0.0.2", "vlan set").WithPort("Gi1/0/5").Finish(nil)
	s := e.String()
	for _, want := range []string{"netops", "10.0.0.2", "Gi1/0/5", "[ok]"} {
		if !strings.Contains(s, want) {
			t.Errorf("String() = %q, missing %q", s, want)
		}
	}
}
