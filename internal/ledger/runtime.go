package ledger

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Program executes instructions against accounts it owns.
type Program interface {
	ID() ProgramID
	Execute(ctx *ExecContext) error
}

// ExecContext carries one transaction's view of its target account. The
// program mutates the staged copy; the runtime persists it only when the
// program returns without error, which keeps every instruction atomic.
type ExecContext struct {
	Kind ContextKind
	Tx   *Transaction

	data    []byte
	exists  bool
	dirty   bool
	created bool
	closed  bool
}

// AccountExists reports whether the target account is present in this
// context's ledger.
func (c *ExecContext) AccountExists() bool { return c.exists }

// Data returns the staged account content.
func (c *ExecContext) Data() []byte { return c.data }

// SetData stages new account content for write-back.
func (c *ExecContext) SetData(data []byte) {
	c.data = data
	c.dirty = true
}

// Create stages creation of the target account owned by the executing
// program.
func (c *ExecContext) Create(data []byte) error {
	if c.exists {
		return ErrAccountAlreadyExists
	}
	c.data = data
	c.exists = true
	c.created = true
	return nil
}

// Close stages removal of the target account from this context's ledger,
// used when delegation ends and the rollup copy is retired.
func (c *ExecContext) Close() { c.closed = true }

// Runtime serializes and executes transactions against one ledger. It mirrors
// the on-ledger execution model: verify the signature, check program
// ownership, run the program, then apply the staged mutation atomically.
type Runtime struct {
	ledger   *Ledger
	programs map[ProgramID]Program
	log      *logrus.Entry

	mu sync.Mutex // serializes transaction application
}

func NewRuntime(l *Ledger, log *logrus.Logger) *Runtime {
	return &Runtime{
		ledger:   l,
		programs: make(map[ProgramID]Program),
		log:      log.WithField("context", string(l.Kind())),
	}
}

func (r *Runtime) Ledger() *Ledger { return r.ledger }

// Register adds a program to this execution context.
func (r *Runtime) Register(p Program) {
	r.programs[p.ID()] = p
}

// Submit executes one transaction. On any error the ledger is untouched.
func (r *Runtime) Submit(tx *Transaction) error {
	if err := tx.VerifySignature(); err != nil {
		r.log.WithField("tx", tx.ID).WithError(err).Warn("rejected transaction")
		return err
	}
	prog, ok := r.programs[tx.Program]
	if !ok {
		return ErrUnknownProgram
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	acc, exists := r.ledger.Account(tx.Account)
	if exists && acc.Owner != tx.Program {
		r.log.WithFields(logrus.Fields{
			"tx":      tx.ID,
			"account": tx.Account.String(),
			"owner":   string(acc.Owner),
		}).Warn("owner mismatch")
		return ErrOwnerMismatch
	}

	ctx := &ExecContext{
		Kind:   r.ledger.Kind(),
		Tx:     tx,
		data:   acc.Data,
		exists: exists,
	}
	if err := prog.Execute(ctx); err != nil {
		r.log.WithFields(logrus.Fields{
			"tx": tx.ID,
			"op": tx.Op,
		}).WithError(err).Debug("instruction rejected")
		return err
	}

	switch {
	case ctx.closed:
		return r.ledger.Remove(tx.Account)
	case ctx.created:
		return r.ledger.CreateAccount(tx.Account, tx.Program, ctx.data)
	case ctx.dirty:
		return r.ledger.SetData(tx.Account, ctx.data)
	}
	return nil
}
