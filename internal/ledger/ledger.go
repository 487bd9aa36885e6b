package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sync"
)

// ContextKind names an execution context. The base ledger is permanent and
// canonical; the rollup is a low-latency context that accounts are delegated
// to and reconciled from.
type ContextKind string

const (
	Base   ContextKind = "base"
	Rollup ContextKind = "rollup"
)

// ProgramID identifies the program owning an account.
type ProgramID string

// Address is a deterministically derived account address.
type Address [32]byte

func (a Address) String() string {
	return hex.EncodeToString(a[:])
}

// ParseAddress decodes a hex address string.
func ParseAddress(s string) (Address, error) {
	var a Address
	raw, err := hex.DecodeString(s)
	if err != nil {
		return a, err
	}
	if len(raw) != len(a) {
		return a, errors.New("address must be 32 bytes")
	}
	copy(a[:], raw)
	return a, nil
}

// DeriveAddress computes the capability-scoped singleton address for a
// (program, seed tag, authority) triple. A player gets exactly one account
// per program because the derivation is a pure hash.
func DeriveAddress(program ProgramID, seedTag []byte, authority []byte) Address {
	h := sha256.New()
	h.Write([]byte(program))
	h.Write(seedTag)
	h.Write(authority)
	var a Address
	copy(a[:], h.Sum(nil))
	return a
}

// Account is a stored ledger entry: opaque data owned by a program. Only the
// owning program's instructions may mutate it.
type Account struct {
	Owner ProgramID
	Data  []byte
}

var (
	ErrAccountNotFound      = errors.New("account not found")
	ErrAccountAlreadyExists = errors.New("account already exists")
	ErrOwnerMismatch        = errors.New("account is not owned by the executing program")
)

// Ledger is one execution context's account store. Mutations are serialized
// by the Runtime; the ledger itself only guards map access.
type Ledger struct {
	kind ContextKind

	mu       sync.RWMutex
	accounts map[Address]*Account
}

func NewLedger(kind ContextKind) *Ledger {
	return &Ledger{
		kind:     kind,
		accounts: make(map[Address]*Account),
	}
}

func (l *Ledger) Kind() ContextKind { return l.kind }

// Account returns a copy of the stored entry.
func (l *Ledger) Account(addr Address) (Account, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	acc, ok := l.accounts[addr]
	if !ok {
		return Account{}, false
	}
	return Account{Owner: acc.Owner, Data: append([]byte(nil), acc.Data...)}, true
}

// CreateAccount stores a new entry. Creating an address twice fails.
func (l *Ledger) CreateAccount(addr Address, owner ProgramID, data []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.accounts[addr]; ok {
		return ErrAccountAlreadyExists
	}
	l.accounts[addr] = &Account{Owner: owner, Data: append([]byte(nil), data...)}
	return nil
}

// SetData replaces the stored content of an existing account.
func (l *Ledger) SetData(addr Address, data []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	acc, ok := l.accounts[addr]
	if !ok {
		return ErrAccountNotFound
	}
	acc.Data = append([]byte(nil), data...)
	return nil
}

// SetOwner reassigns program ownership of an existing account. This is the
// primitive the delegation mechanism uses for the ownership handoff.
func (l *Ledger) SetOwner(addr Address, owner ProgramID) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	acc, ok := l.accounts[addr]
	if !ok {
		return ErrAccountNotFound
	}
	acc.Owner = owner
	return nil
}

// Remove deletes an account entry.
func (l *Ledger) Remove(addr Address) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.accounts[addr]; !ok {
		return ErrAccountNotFound
	}
	delete(l.accounts, addr)
	return nil
}

// Export returns a stable copy of every stored account, for snapshots.
func (l *Ledger) Export() map[Address]Account {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[Address]Account, len(l.accounts))
	for addr, acc := range l.accounts {
		out[addr] = Account{Owner: acc.Owner, Data: append([]byte(nil), acc.Data...)}
	}
	return out
}

// Restore replaces the store content with the given accounts.
func (l *Ledger) Restore(accounts map[Address]Account) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.accounts = make(map[Address]*Account, len(accounts))
	for addr, acc := range accounts {
		l.accounts[addr] = &Account{Owner: acc.Owner, Data: append([]byte(nil), acc.Data...)}
	}
}
