// Package delegation implements the ownership-transfer mechanism between the
// base ledger and the ephemeral rollup. It plays the role of the external
// delegation program: while an account is delegated, the base-layer entry is
// owned by this mechanism and only the rollup copy accepts gameplay.
package delegation

import (
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"flappy/internal/ledger"
	"flappy/internal/ports"
)

// ProgramID is the base-layer owner of accounts while they are delegated.
const ProgramID ledger.ProgramID = "delegation"

var (
	ErrAlreadyDelegated = errors.New("account is already delegated")
	ErrNotDelegated     = errors.New("account is not delegated")
)

// Coordinator moves accounts between the base and rollup ledgers. It
// implements ports.Delegator for a single owning program.
type Coordinator struct {
	owner  ledger.ProgramID
	base   *ledger.Ledger
	rollup *ledger.Ledger
	clock  ports.Clock
	log    *logrus.Entry

	mu      sync.Mutex
	records map[ledger.Address]ports.DelegationRecord
}

type systemClock struct{}

func (systemClock) Now() int64 { return time.Now().Unix() }

// NewCoordinator constructs a Coordinator with the provided clock or a
// system-time default.
func NewCoordinator(owner ledger.ProgramID, base, rollup *ledger.Ledger, clock ports.Clock, log *logrus.Logger) *Coordinator {
	if clock == nil {
		clock = systemClock{}
	}
	return &Coordinator{
		owner:   owner,
		base:    base,
		rollup:  rollup,
		clock:   clock,
		log:     log.WithField("component", "delegation"),
		records: make(map[ledger.Address]ports.DelegationRecord),
	}
}

// Delegate flips base-layer ownership to the delegation mechanism and seeds
// the rollup copy. The handoff keeps the account content intact.
func (c *Coordinator) Delegate(addr ledger.Address, data []byte, validator string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.records[addr]; ok {
		return ErrAlreadyDelegated
	}
	if _, ok := c.rollup.Account(addr); ok {
		return ErrAlreadyDelegated
	}

	if err := c.base.SetOwner(addr, ProgramID); err != nil {
		return err
	}
	if err := c.rollup.CreateAccount(addr, c.owner, data); err != nil {
		// Roll the handoff back so the base account stays usable.
		_ = c.base.SetOwner(addr, c.owner)
		return err
	}

	c.records[addr] = ports.DelegationRecord{
		Validator:   validator,
		DelegatedAt: c.clock.Now(),
	}
	c.log.WithFields(logrus.Fields{
		"account":   addr.String(),
		"validator": validator,
	}).Info("account delegated to rollup")
	return nil
}

// Commit checkpoints rollup content to the base layer. Ownership does not
// change; the account keeps executing on the rollup.
func (c *Coordinator) Commit(addr ledger.Address, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.records[addr]; !ok {
		return ErrNotDelegated
	}
	if err := c.base.SetData(addr, data); err != nil {
		return err
	}
	c.log.WithField("account", addr.String()).Debug("rollup state committed to base")
	return nil
}

// Undelegate performs the final commit and returns base-layer ownership to
// the owning program, ending rollup execution for the account.
func (c *Coordinator) Undelegate(addr ledger.Address, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.records[addr]; !ok {
		return ErrNotDelegated
	}
	if err := c.base.SetData(addr, data); err != nil {
		return err
	}
	if err := c.base.SetOwner(addr, c.owner); err != nil {
		return err
	}
	delete(c.records, addr)
	c.log.WithField("account", addr.String()).Info("account undelegated from rollup")
	return nil
}

// Record reports the active delegation for an account.
func (c *Coordinator) Record(addr ledger.Address) (ports.DelegationRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.records[addr]
	return rec, ok
}
