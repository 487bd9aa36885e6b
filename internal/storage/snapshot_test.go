package storage

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"

	"flappy/internal/ledger"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "base.snapshot")
	store := NewStore(path, testLogger())

	src := ledger.NewLedger(ledger.Base)
	addrA := ledger.DeriveAddress("flappy", []byte("game_v2"), []byte{1})
	addrB := ledger.DeriveAddress("flappy", []byte("game_v2"), []byte{2})
	if err := src.CreateAccount(addrA, "flappy", []byte{1, 2, 3}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := src.CreateAccount(addrB, "delegation", []byte{4, 5}); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := store.Save(src); err != nil {
		t.Fatalf("save: %v", err)
	}

	dst := ledger.NewLedger(ledger.Base)
	if err := store.Load(dst); err != nil {
		t.Fatalf("load: %v", err)
	}

	accounts := dst.Export()
	if len(accounts) != 2 {
		t.Fatalf("restored %d accounts, want 2", len(accounts))
	}
	a, ok := dst.Account(addrA)
	if !ok || a.Owner != "flappy" || len(a.Data) != 3 {
		t.Errorf("account A = %+v, ok = %v", a, ok)
	}
	b, ok := dst.Account(addrB)
	if !ok || b.Owner != "delegation" {
		t.Errorf("account B = %+v, ok = %v", b, ok)
	}
}

func TestLoadMissingSnapshotIsFreshBoot(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "none.snapshot"), testLogger())
	l := ledger.NewLedger(ledger.Base)
	if err := store.Load(l); err != nil {
		t.Fatalf("load: %v", err)
	}
	if n := len(l.Export()); n != 0 {
		t.Errorf("ledger has %d accounts, want 0", n)
	}
}

func TestLoadRejectsWrongContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "base.snapshot")
	store := NewStore(path, testLogger())

	src := ledger.NewLedger(ledger.Base)
	if err := store.Save(src); err != nil {
		t.Fatalf("save: %v", err)
	}

	rollup := ledger.NewLedger(ledger.Rollup)
	if err := store.Load(rollup); err == nil {
		t.Fatalf("loaded a base snapshot into the rollup ledger")
	}
}

func TestLoadRejectsCorruptSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "base.snapshot")
	if err := os.WriteFile(path, []byte("not msgpack"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	store := NewStore(path, testLogger())
	if err := store.Load(ledger.NewLedger(ledger.Base)); err == nil {
		t.Fatalf("loaded garbage without error")
	}
}
