package ports

import "flappy/internal/ledger"

// DelegationRecord describes which rollup validator currently holds delegated
// authority over an account.
type DelegationRecord struct {
	Validator   string
	DelegatedAt int64 // unix seconds
}

// Delegator is the ownership-transfer capability the game program calls but
// does not implement: hand an account to the rollup, checkpoint its content
// back, and return it. Implementations must keep exactly one execution
// context authoritative for an account at any moment.
type Delegator interface {
	// Delegate hands base-layer ownership of the account to the delegation
	// mechanism and seeds the rollup copy with the given content. Delegating
	// an already-delegated account fails with a distinct error so retries
	// can recognize the already-done condition.
	Delegate(addr ledger.Address, data []byte, validator string) error

	// Commit copies current rollup-held content back to the base layer
	// without changing ownership.
	Commit(addr ledger.Address, data []byte) error

	// Undelegate performs a final commit and returns base-layer ownership to
	// the game program. The rollup copy is retired by the caller.
	Undelegate(addr ledger.Address, data []byte) error

	// Record reports the active delegation for an account, if any.
	Record(addr ledger.Address) (DelegationRecord, bool)
}
