package main

import (
	"testing"

	"github.com/dayzlog/dayzlog-go/pkg/dayzlog/event"
)

func TestParseKinds(t *testing.T) {
	kinds, err := parseKinds([]string{"connected", "disconnected", "server_restart"})
	if err != nil {
		t.Fatalf("parseKinds() error = %v", err)
	}
	want := []event.Kind{event.Connected, event.Disconnected, event.ServerRestart}
	if len(kinds) != len(want) {
		t.Fatalf("got %d kinds, want %d", len(kinds), len(want))
	}
	for i, k := range kinds {
		if k != want[i] {
			t.Errorf("kind %d = %q, want %q", i, k, want[i])
		}
	}
}

func TestParseKinds_CustomKindPassesThrough(t *testing.T) {
	kinds, err := parseKinds([]string{"banned"})
	if err != nil {
		t.Fatalf("parseKinds() error = %v", err)
	}
	if len(kinds) != 1 || kinds[0] != event.Kind("banned") {
		t.Errorf("got %v, want [banned]", kinds)
	}
}

func TestParseKinds_EmptyName(t *testing.T) {
	if _, err := parseKinds([]string{""}); err == nil {
		t.Fatal("expected error for empty kind name")
	}
}

func TestParseKinds_NoNames(t *testing.T) {
	kinds, err := parseKinds(nil)
	if err != nil {
		t.Fatalf("parseKinds() error = %v", err)
	}
	if len(kinds) != 0 {
		t.Errorf("got %v, want empty", kinds)
	}
}
