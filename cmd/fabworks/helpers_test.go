package main

import (
	"testing"
	"time"

	"fabworks/internal/workorder"
)

func TestDisplayLabel(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"in_progress", "In Progress"},
		{"not_started", "Not Started"},
		{"print", "Print"},
	}
	for _, tc := range cases {
		if got := displayLabel(tc.input); got != tc.want {
			t.Fatalf("displayLabel(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestFormatTime(t *testing.T) {
	if got := formatTime(nil); got != "-" {
		t.Fatalf("nil time = %q, want -", got)
	}
	at := time.Date(2026, 2, 3, 14, 5, 0, 0, time.Local)
	if got := formatTime(&at); got != "2026-02-03 14:05" {
		t.Fatalf("formatTime = %q", got)
	}
}

func TestParseID(t *testing.T) {
	if id, err := parseID(" 12 "); err != nil || id != 12 {
		t.Fatalf("parseID(12) = %d, %v", id, err)
	}
	for _, bad := range []string{"", "abc", "0", "-4"} {
		if _, err := parseID(bad); err == nil {
			t.Fatalf("parseID(%q) should fail", bad)
		}
	}
}

func TestParseKinds(t *testing.T) {
	kinds, err := parseKinds("scanning, print ,design")
	if err != nil {
		t.Fatalf("parseKinds: %v", err)
	}
	want := []workorder.StepKind{workorder.KindScanning, workorder.KindPrint, workorder.KindDesign}
	if len(kinds) != len(want) {
		t.Fatalf("kinds = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("kinds[%d] = %q, want %q", i, kinds[i], want[i])
		}
	}

	if _, err := parseKinds("scanning,welding"); err == nil {
		t.Fatal("unknown service should fail")
	}
	if _, err := parseKinds(" , "); err == nil {
		t.Fatal("empty list should fail")
	}
}
