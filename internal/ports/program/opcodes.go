package program

// Instruction opcodes carried in the transaction envelope.
const (
	OpInitialize int64 = 1
	OpStartGame  int64 = 2
	OpFlap       int64 = 3
	OpTick       int64 = 4
	OpEndGame    int64 = 5
	OpResetGame  int64 = 6
	OpDelegate   int64 = 7
	OpCommit     int64 = 8
	OpUndelegate int64 = 9
)

// GameActionParams is the shared payload for gameplay instructions. The
// session token is optional; when present it authorizes the transaction
// signer as a delegated session key for the account's authority.
type GameActionParams struct {
	SessionToken string `json:"session_token,omitempty"`
}

// DelegateParams selects the rollup validator identity responsible for the
// account while delegated. An empty validator lets the rollup choose.
type DelegateParams struct {
	Validator string `json:"validator,omitempty"`
}
