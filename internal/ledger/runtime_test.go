package ledger

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type fakeProgram struct {
	id ProgramID
	fn func(ctx *ExecContext) error
}

func (p *fakeProgram) ID() ProgramID                 { return p.id }
func (p *fakeProgram) Execute(ctx *ExecContext) error { return p.fn(ctx) }

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testKey(b byte) *secp256k1.PrivateKey {
	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = b
	}
	seed[31] = 1 // keep the scalar nonzero and in range
	return secp256k1.PrivKeyFromBytes(seed)
}

func newTx(priv *secp256k1.PrivateKey, program ProgramID, addr Address, op int64, params []byte) *Transaction {
	tx := &Transaction{
		ID:      uuid.New(),
		Program: program,
		Account: addr,
		Op:      op,
		Params:  params,
	}
	tx.Sign(priv)
	return tx
}

func TestTransactionSignatureRoundTrip(t *testing.T) {
	priv := testKey(3)
	addr := DeriveAddress("flappy", []byte("game_v2"), priv.PubKey().SerializeCompressed())
	tx := newTx(priv, "flappy", addr, 1, []byte(`{"a":1}`))

	if err := tx.VerifySignature(); err != nil {
		t.Fatalf("verify error: %v", err)
	}

	// Any change to the signed envelope must invalidate the signature.
	tx.Params = []byte(`{"a":2}`)
	if err := tx.VerifySignature(); err != ErrBadSignature {
		t.Fatalf("tampered verify: err = %v, want ErrBadSignature", err)
	}
}

func TestSubmitRejectsBadSignature(t *testing.T) {
	l := NewLedger(Base)
	rt := NewRuntime(l, testLogger())
	executed := false
	rt.Register(&fakeProgram{id: "flappy", fn: func(ctx *ExecContext) error {
		executed = true
		return nil
	}})

	priv := testKey(4)
	addr := DeriveAddress("flappy", []byte("game_v2"), priv.PubKey().SerializeCompressed())
	tx := newTx(priv, "flappy", addr, 1, nil)
	tx.Op = 2 // tamper after signing

	if err := rt.Submit(tx); err != ErrBadSignature {
		t.Fatalf("err = %v, want ErrBadSignature", err)
	}
	if executed {
		t.Fatalf("program ran despite bad signature")
	}
}

func TestSubmitRejectsUnknownProgram(t *testing.T) {
	rt := NewRuntime(NewLedger(Base), testLogger())
	priv := testKey(5)
	tx := newTx(priv, "nobody", Address{}, 1, nil)
	if err := rt.Submit(tx); err != ErrUnknownProgram {
		t.Fatalf("err = %v, want ErrUnknownProgram", err)
	}
}

func TestSubmitRejectsOwnerMismatch(t *testing.T) {
	l := NewLedger(Base)
	rt := NewRuntime(l, testLogger())
	executed := false
	rt.Register(&fakeProgram{id: "flappy", fn: func(ctx *ExecContext) error {
		executed = true
		return nil
	}})

	priv := testKey(6)
	addr := DeriveAddress("flappy", []byte("game_v2"), priv.PubKey().SerializeCompressed())
	if err := l.CreateAccount(addr, "delegation", []byte{1}); err != nil {
		t.Fatalf("create error: %v", err)
	}

	if err := rt.Submit(newTx(priv, "flappy", addr, 1, nil)); err != ErrOwnerMismatch {
		t.Fatalf("err = %v, want ErrOwnerMismatch", err)
	}
	if executed {
		t.Fatalf("program ran against foreign-owned account")
	}
}

func TestSubmitIsAtomicOnProgramFailure(t *testing.T) {
	l := NewLedger(Base)
	rt := NewRuntime(l, testLogger())
	boom := errors.New("boom")
	rt.Register(&fakeProgram{id: "flappy", fn: func(ctx *ExecContext) error {
		ctx.SetData([]byte{9, 9, 9}) // staged, then aborted
		return boom
	}})

	priv := testKey(7)
	addr := DeriveAddress("flappy", []byte("game_v2"), priv.PubKey().SerializeCompressed())
	if err := l.CreateAccount(addr, "flappy", []byte{1, 2, 3}); err != nil {
		t.Fatalf("create error: %v", err)
	}

	if err := rt.Submit(newTx(priv, "flappy", addr, 1, nil)); err != boom {
		t.Fatalf("err = %v, want program error", err)
	}
	acc, _ := l.Account(addr)
	if !bytes.Equal(acc.Data, []byte{1, 2, 3}) {
		t.Fatalf("account mutated by failed instruction: %v", acc.Data)
	}
}

func TestSubmitAppliesCreateAndWriteBack(t *testing.T) {
	l := NewLedger(Base)
	rt := NewRuntime(l, testLogger())
	rt.Register(&fakeProgram{id: "flappy", fn: func(ctx *ExecContext) error {
		if !ctx.AccountExists() {
			return ctx.Create([]byte{1})
		}
		data := append([]byte(nil), ctx.Data()...)
		data[0]++
		ctx.SetData(data)
		return nil
	}})

	priv := testKey(8)
	addr := DeriveAddress("flappy", []byte("game_v2"), priv.PubKey().SerializeCompressed())

	if err := rt.Submit(newTx(priv, "flappy", addr, 1, nil)); err != nil {
		t.Fatalf("create submit error: %v", err)
	}
	acc, ok := l.Account(addr)
	if !ok || acc.Owner != "flappy" || !bytes.Equal(acc.Data, []byte{1}) {
		t.Fatalf("created account = %+v, ok = %v", acc, ok)
	}

	if err := rt.Submit(newTx(priv, "flappy", addr, 2, nil)); err != nil {
		t.Fatalf("update submit error: %v", err)
	}
	acc, _ = l.Account(addr)
	if !bytes.Equal(acc.Data, []byte{2}) {
		t.Fatalf("write-back data = %v, want [2]", acc.Data)
	}
}
