package ledger

import (
	"bytes"
	"testing"
)

func TestDeriveAddressDeterministic(t *testing.T) {
	authority := []byte{1, 2, 3}

	a := DeriveAddress("flappy", []byte("game_v2"), authority)
	b := DeriveAddress("flappy", []byte("game_v2"), authority)
	if a != b {
		t.Fatalf("same inputs derived different addresses")
	}

	tests := []struct {
		name    string
		program ProgramID
		tag     []byte
		auth    []byte
	}{
		{name: "different program", program: "other", tag: []byte("game_v2"), auth: authority},
		{name: "different tag", program: "flappy", tag: []byte("game_v3"), auth: authority},
		{name: "different authority", program: "flappy", tag: []byte("game_v2"), auth: []byte{9, 9, 9}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if DeriveAddress(tt.program, tt.tag, tt.auth) == a {
				t.Fatalf("expected distinct address")
			}
		})
	}
}

func TestParseAddressRoundTrip(t *testing.T) {
	a := DeriveAddress("flappy", []byte("game_v2"), []byte{5})
	parsed, err := ParseAddress(a.String())
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if parsed != a {
		t.Fatalf("round trip mismatch")
	}

	if _, err := ParseAddress("zz"); err == nil {
		t.Fatalf("expected error for invalid hex")
	}
	if _, err := ParseAddress("abcd"); err == nil {
		t.Fatalf("expected error for short address")
	}
}

func TestLedgerAccountLifecycle(t *testing.T) {
	l := NewLedger(Base)
	addr := DeriveAddress("flappy", []byte("game_v2"), []byte{1})

	if _, ok := l.Account(addr); ok {
		t.Fatalf("account should not exist yet")
	}
	if err := l.SetData(addr, []byte{1}); err != ErrAccountNotFound {
		t.Fatalf("SetData on missing account: err = %v", err)
	}

	if err := l.CreateAccount(addr, "flappy", []byte{1, 2, 3}); err != nil {
		t.Fatalf("create error: %v", err)
	}
	if err := l.CreateAccount(addr, "flappy", nil); err != ErrAccountAlreadyExists {
		t.Fatalf("duplicate create: err = %v", err)
	}

	acc, ok := l.Account(addr)
	if !ok || acc.Owner != "flappy" || !bytes.Equal(acc.Data, []byte{1, 2, 3}) {
		t.Fatalf("stored account = %+v, ok = %v", acc, ok)
	}

	// Mutating the returned copy must not touch the store.
	acc.Data[0] = 99
	again, _ := l.Account(addr)
	if again.Data[0] != 1 {
		t.Fatalf("Account returned aliased data")
	}

	if err := l.SetOwner(addr, "delegation"); err != nil {
		t.Fatalf("set owner error: %v", err)
	}
	acc, _ = l.Account(addr)
	if acc.Owner != "delegation" {
		t.Fatalf("owner = %s, want delegation", acc.Owner)
	}

	if err := l.Remove(addr); err != nil {
		t.Fatalf("remove error: %v", err)
	}
	if err := l.Remove(addr); err != ErrAccountNotFound {
		t.Fatalf("double remove: err = %v", err)
	}
}

func TestExportRestore(t *testing.T) {
	l := NewLedger(Base)
	addrA := DeriveAddress("flappy", []byte("game_v2"), []byte{1})
	addrB := DeriveAddress("flappy", []byte("game_v2"), []byte{2})
	_ = l.CreateAccount(addrA, "flappy", []byte{1})
	_ = l.CreateAccount(addrB, "delegation", []byte{2})

	snapshot := l.Export()

	restored := NewLedger(Base)
	restored.Restore(snapshot)
	for addr, want := range snapshot {
		got, ok := restored.Account(addr)
		if !ok || got.Owner != want.Owner || !bytes.Equal(got.Data, want.Data) {
			t.Fatalf("restored %s = %+v, want %+v", addr, got, want)
		}
	}
}
