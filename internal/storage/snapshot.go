// Package storage persists ledger snapshots to disk so the base layer
// survives restarts. Snapshots are msgpack-encoded and written atomically.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vmihailenco/msgpack/v5"

	"flappy/internal/ledger"
)

const snapshotVersion = 1

var ErrSnapshotVersion = errors.New("unsupported snapshot version")

type snapshotAccount struct {
	Owner string `msgpack:"owner"`
	Data  []byte `msgpack:"data"`
}

type snapshot struct {
	Version  int                        `msgpack:"version"`
	Kind     string                     `msgpack:"kind"`
	SavedAt  int64                      `msgpack:"saved_at"`
	Accounts map[string]snapshotAccount `msgpack:"accounts"` // hex address
}

// Store reads and writes ledger snapshots at a fixed path.
type Store struct {
	path string
	log  *logrus.Entry
}

func NewStore(path string, log *logrus.Logger) *Store {
	return &Store{path: path, log: log.WithField("component", "storage")}
}

// Save writes the ledger content to disk. The snapshot is staged in a temp
// file and renamed into place, so a crash mid-write never corrupts the last
// good snapshot.
func (s *Store) Save(l *ledger.Ledger) error {
	accounts := l.Export()
	snap := snapshot{
		Version:  snapshotVersion,
		Kind:     string(l.Kind()),
		SavedAt:  time.Now().Unix(),
		Accounts: make(map[string]snapshotAccount, len(accounts)),
	}
	for addr, acc := range accounts {
		snap.Accounts[addr.String()] = snapshotAccount{
			Owner: string(acc.Owner),
			Data:  acc.Data,
		}
	}

	raw, err := msgpack.Marshal(&snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".snapshot-*")
	if err != nil {
		return fmt.Errorf("stage snapshot: %w", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("commit snapshot: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"path":     s.path,
		"accounts": len(snap.Accounts),
	}).Info("ledger snapshot saved")
	return nil
}

// Load restores a ledger from the snapshot file. A missing file is not an
// error; the ledger simply starts empty.
func (s *Store) Load(l *ledger.Ledger) error {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.log.WithField("path", s.path).Info("no snapshot, starting fresh")
		return nil
	}
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}

	var snap snapshot
	if err := msgpack.Unmarshal(raw, &snap); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Version != snapshotVersion {
		return fmt.Errorf("%w: %d", ErrSnapshotVersion, snap.Version)
	}
	if snap.Kind != string(l.Kind()) {
		return fmt.Errorf("snapshot is for the %s context, not %s", snap.Kind, l.Kind())
	}

	accounts := make(map[ledger.Address]ledger.Account, len(snap.Accounts))
	for hexAddr, acc := range snap.Accounts {
		addr, err := ledger.ParseAddress(hexAddr)
		if err != nil {
			return fmt.Errorf("decode snapshot address %q: %w", hexAddr, err)
		}
		accounts[addr] = ledger.Account{
			Owner: ledger.ProgramID(acc.Owner),
			Data:  acc.Data,
		}
	}
	l.Restore(accounts)

	s.log.WithFields(logrus.Fields{
		"path":     s.path,
		"accounts": len(accounts),
	}).Info("ledger snapshot loaded")
	return nil
}
