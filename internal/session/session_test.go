package session_test

import (
	"testing"
	"time"

	"lotscan/internal/session"
)

func TestDeriveIDIsDeterministic(t *testing.T) {
	at := time.Date(2026, 8, 26, 14, 30, 5, 120_000_000, time.UTC)
	first := session.DeriveID("Dock 7", at)
	second := session.DeriveID("Dock 7", at)
	if first != second {
		t.Fatalf("expected deterministic id, got %q and %q", first, second)
	}
	if first != "dock-7-20260826T143005.12" {
		t.Fatalf("unexpected id format: %q", first)
	}
}

func TestDeriveIDDistinguishesSubsecondStarts(t *testing.T) {
	at := time.Date(2026, 8, 26, 14, 30, 5, 0, time.UTC)
	a := session.DeriveID("Dock 7", at)
	b := session.DeriveID("Dock 7", at.Add(50*time.Millisecond))
	if a == b {
		t.Fatalf("expected distinct ids across subsecond starts, both %q", a)
	}
}

func TestDeriveIDSlugifiesLocation(t *testing.T) {
	at := time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC)
	got := session.DeriveID("  North Yard / Bay 3  ", at)
	want := "north-yard-bay-3-20260826T000000.00"
	if got != want {
		t.Fatalf("DeriveID = %q, want %q", got, want)
	}
}

func TestLedgerScopesDuplicatesPerSession(t *testing.T) {
	ledger := session.NewLedger()

	ledger.Record("s1", "1G1FW1R77J4100000")
	if !ledger.Contains("s1", "1G1FW1R77J4100000") {
		t.Fatal("expected identifier in session s1")
	}
	if ledger.Contains("s2", "1G1FW1R77J4100000") {
		t.Fatal("identifier must not leak into session s2")
	}
	if !ledger.Contains("s1", "1g1fw1r77j4100000") {
		t.Fatal("comparison must be case-normalized")
	}
}

func TestLedgerOrderAndCount(t *testing.T) {
	ledger := session.NewLedger()
	ledger.Record("s1", "AAAAAAAA111111111")
	ledger.Record("s1", "BBBBBBBB222222222")
	ledger.Record("s1", "AAAAAAAA111111111") // no-op repeat

	if got := ledger.Count("s1"); got != 2 {
		t.Fatalf("expected 2 identifiers, got %d", got)
	}
	ids := ledger.Identifiers("s1")
	if len(ids) != 2 || ids[0] != "BBBBBBBB222222222" || ids[1] != "AAAAAAAA111111111" {
		t.Fatalf("expected most-recent-first order, got %v", ids)
	}
}

func TestLedgerDrop(t *testing.T) {
	ledger := session.NewLedger()
	ledger.Record("s1", "AAAAAAAA111111111")
	ledger.Drop("s1")
	if ledger.Count("s1") != 0 {
		t.Fatal("expected dropped session to be empty")
	}
}
