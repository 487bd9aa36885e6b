package gateway

import (
	"encoding/hex"
	"encoding/json"
	"errors"

	"flappy/internal/app"
	"flappy/internal/delegation"
	"flappy/internal/domain"
	"flappy/internal/ledger"
	"flappy/internal/ports/program"
)

var errUnknownContext = errors.New(`context must be "base" or "rollup"`)

// Request is one client frame. Type selects the action; the matching
// sub-struct carries its payload.
type Request struct {
	Type string `json:"type"` // "tx", "account", "subscribe", "unsubscribe"

	Tx *TxRequest `json:"tx,omitempty"`

	// For account queries and event subscriptions.
	Context string `json:"context,omitempty"` // "base" (default) or "rollup"
	Account string `json:"account,omitempty"` // hex address
}

// TxRequest is a signed transaction envelope in wire form. The client signs
// offline and submits the finished envelope; the gateway never holds keys.
type TxRequest struct {
	ID        string          `json:"id,omitempty"` // uuid, minted when absent
	Context   string          `json:"context"`      // "base" or "rollup"
	Account   string          `json:"account"`      // hex address
	Op        int64           `json:"op"`
	Params    json.RawMessage `json:"params,omitempty"`
	Signer    string          `json:"signer"`    // hex compressed public key
	Signature string          `json:"signature"` // hex DER signature
}

// Response is one server frame.
type Response struct {
	Type    string       `json:"type"` // "ack", "error", "account", "event"
	ID      string       `json:"id,omitempty"`
	Code    string       `json:"code,omitempty"`
	Message string       `json:"message,omitempty"`
	Account *AccountView `json:"account,omitempty"`
	Event   *EventView   `json:"event,omitempty"`
}

// AccountView is the decoded game account in wire form.
type AccountView struct {
	Address        string     `json:"address"`
	Context        string     `json:"context"`
	Authority      string     `json:"authority"`
	Score          uint64     `json:"score"`
	HighScore      uint64     `json:"high_score"`
	Status         string     `json:"status"`
	BirdY          int32      `json:"bird_y"`
	BirdVelocity   int32      `json:"bird_velocity"`
	FrameCount     uint64     `json:"frame_count"`
	LastUpdate     int64      `json:"last_update"`
	Pipes          []PipeView `json:"pipes"`
	NextPipeSpawnX int32      `json:"next_pipe_spawn_x"`
	Seed           uint64     `json:"seed"`
}

// PipeView is one active pipe in wire form. Parked slots are omitted.
type PipeView struct {
	X      int32 `json:"x"`
	GapY   int32 `json:"gap_y"`
	Passed bool  `json:"passed"`
}

// EventView is a broadcast game event.
type EventView struct {
	Account string `json:"account"`
	Kind    string `json:"kind"`
	Payload any    `json:"payload,omitempty"`
}

func accountView(addr ledger.Address, kind ledger.ContextKind, g *domain.GameAccount) *AccountView {
	v := &AccountView{
		Address:        addr.String(),
		Context:        string(kind),
		Authority:      hex.EncodeToString(g.Authority[:]),
		Score:          g.Score,
		HighScore:      g.HighScore,
		Status:         g.Status.String(),
		BirdY:          g.BirdY,
		BirdVelocity:   g.BirdVelocity,
		FrameCount:     g.FrameCount,
		LastUpdate:     g.LastUpdate,
		NextPipeSpawnX: g.NextPipeSpawnX,
		Seed:           g.Seed,
	}
	for _, p := range g.Pipes {
		if !p.Active {
			continue
		}
		v.Pipes = append(v.Pipes, PipeView{X: p.X, GapY: p.GapY, Passed: p.Passed})
	}
	return v
}

// errorCode maps internal errors to stable symbolic codes for clients.
func errorCode(err error) string {
	switch {
	case errors.Is(err, app.ErrGameNotPlaying):
		return "GameNotPlaying"
	case errors.Is(err, app.ErrGameAlreadyStarted):
		return "GameAlreadyStarted"
	case errors.Is(err, app.ErrGameNotOver):
		return "GameNotOver"
	case errors.Is(err, program.ErrInvalidAuthentication):
		return "InvalidAuthentication"
	case errors.Is(err, program.ErrWrongContext):
		return "WrongContext"
	case errors.Is(err, program.ErrAddressMismatch):
		return "AddressMismatch"
	case errors.Is(err, program.ErrUnknownInstruction):
		return "UnknownInstruction"
	case errors.Is(err, delegation.ErrAlreadyDelegated):
		return "AlreadyDelegated"
	case errors.Is(err, delegation.ErrNotDelegated):
		return "NotDelegated"
	case errors.Is(err, ledger.ErrAccountNotFound):
		return "AccountNotFound"
	case errors.Is(err, ledger.ErrAccountAlreadyExists):
		return "AccountAlreadyExists"
	case errors.Is(err, ledger.ErrOwnerMismatch):
		return "AccountOwnerMismatch"
	case errors.Is(err, ledger.ErrBadSignature), errors.Is(err, ledger.ErrMissingSigner):
		return "BadSignature"
	case errors.Is(err, ledger.ErrUnknownProgram):
		return "UnknownProgram"
	default:
		return "BadRequest"
	}
}
