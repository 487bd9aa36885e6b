// Package program adapts the game services to the ledger runtime: it decodes
// instruction payloads, enforces authority and execution-context
// preconditions, applies the state transition and stages the account
// write-back. It is registered on both the base and rollup runtimes; the
// ledger's ownership check decides which context may actually execute.
package program

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"

	"github.com/sirupsen/logrus"

	"flappy/internal/app"
	"flappy/internal/domain"
	"flappy/internal/ledger"
	"flappy/internal/ports"
	"flappy/internal/session"
)

// SeedTag salts account address derivation. Bump it to mint fresh account
// addresses after a layout change.
const SeedTag = "game_v2"

var (
	// ErrInvalidAuthentication rejects instructions whose signer is neither
	// the account authority nor a verified session key for it.
	ErrInvalidAuthentication = errors.New("invalid authentication")
	// ErrUnknownInstruction rejects unrecognized opcodes.
	ErrUnknownInstruction = errors.New("unknown instruction")
	// ErrWrongContext rejects instructions submitted to an execution context
	// that can never process them (e.g. delegate on the rollup).
	ErrWrongContext = errors.New("instruction not valid in this execution context")
	// ErrAddressMismatch rejects initialize when the target address is not
	// the signer's derived account address.
	ErrAddressMismatch = errors.New("account address does not match signer derivation")
)

// EventSink receives game events emitted by successful instructions.
type EventSink func(addr ledger.Address, ev app.Event)

// AccountAddress derives the singleton game account address for a player.
func AccountAddress(id ledger.ProgramID, authority []byte) ledger.Address {
	return ledger.DeriveAddress(id, []byte(SeedTag), authority)
}

// Program is the game program executable on a ledger runtime.
type Program struct {
	id        ledger.ProgramID
	app       *app.Service
	sessions  *session.Service
	delegator ports.Delegator
	onEvent   EventSink
	log       *logrus.Entry
}

func New(id ledger.ProgramID, svc *app.Service, sessions *session.Service, delegator ports.Delegator, log *logrus.Logger) *Program {
	return &Program{
		id:        id,
		app:       svc,
		sessions:  sessions,
		delegator: delegator,
		log:       log.WithField("program", string(id)),
	}
}

// ID implements ledger.Program.
func (p *Program) ID() ledger.ProgramID { return p.id }

// SetEventSink registers a receiver for game events. Events are emitted only
// after an instruction succeeds.
func (p *Program) SetEventSink(sink EventSink) { p.onEvent = sink }

// Execute implements ledger.Program.
func (p *Program) Execute(ctx *ledger.ExecContext) error {
	switch ctx.Tx.Op {
	case OpInitialize:
		return p.initialize(ctx)
	case OpStartGame:
		return p.gameAction(ctx, p.app.StartGame)
	case OpFlap:
		return p.gameAction(ctx, p.app.Flap)
	case OpTick:
		return p.gameAction(ctx, p.app.Tick)
	case OpEndGame:
		return p.gameAction(ctx, p.app.EndGame)
	case OpResetGame:
		return p.gameAction(ctx, p.app.ResetGame)
	case OpDelegate:
		return p.delegate(ctx)
	case OpCommit:
		return p.commit(ctx)
	case OpUndelegate:
		return p.undelegate(ctx)
	default:
		return ErrUnknownInstruction
	}
}

// initialize creates the signer's game account on the base layer. The target
// address must match the deterministic derivation, which makes the account a
// per-player singleton.
func (p *Program) initialize(ctx *ledger.ExecContext) error {
	if ctx.Kind != ledger.Base {
		return ErrWrongContext
	}
	if ctx.AccountExists() {
		return ledger.ErrAccountAlreadyExists
	}
	if len(ctx.Tx.Signer) != domain.AuthorityLen {
		return ErrInvalidAuthentication
	}
	if AccountAddress(p.id, ctx.Tx.Signer) != ctx.Tx.Account {
		return ErrAddressMismatch
	}

	var authority [domain.AuthorityLen]byte
	copy(authority[:], ctx.Tx.Signer)
	g := p.app.NewAccount(authority)
	data, err := g.MarshalBinary()
	if err != nil {
		return err
	}
	if err := ctx.Create(data); err != nil {
		return err
	}

	p.log.WithField("account", ctx.Tx.Account.String()).Info("game account initialized")
	return nil
}

func (p *Program) gameAction(ctx *ledger.ExecContext, fn func(*domain.GameAccount) ([]app.Event, error)) error {
	g, err := p.loadAccount(ctx)
	if err != nil {
		return err
	}

	var params GameActionParams
	if len(ctx.Tx.Params) > 0 {
		if err := json.Unmarshal(ctx.Tx.Params, &params); err != nil {
			return err
		}
	}
	if err := p.authorize(g, ctx.Tx.Signer, params.SessionToken); err != nil {
		return err
	}

	events, err := fn(g)
	if err != nil {
		return err
	}

	data, err := g.MarshalBinary()
	if err != nil {
		return err
	}
	ctx.SetData(data)
	p.emit(ctx.Tx.Account, events)
	return nil
}

// authorize accepts the account authority itself, or a session key carrying a
// verified token scoped to this authority and program. Checks run before any
// mutation.
func (p *Program) authorize(g *domain.GameAccount, signer []byte, token string) error {
	if bytes.Equal(signer, g.Authority[:]) {
		return nil
	}
	if token == "" || p.sessions == nil {
		return ErrInvalidAuthentication
	}
	claims, err := p.sessions.Verify(token)
	if err != nil {
		p.log.WithError(err).Debug("session token rejected")
		return ErrInvalidAuthentication
	}
	if claims.Authority != hex.EncodeToString(g.Authority[:]) {
		return ErrInvalidAuthentication
	}
	if claims.SessionKey != hex.EncodeToString(signer) {
		return ErrInvalidAuthentication
	}
	return nil
}

// delegate hands the account to the rollup. Only the authority itself may
// delegate, and only from the base layer while the program still owns the
// account there.
func (p *Program) delegate(ctx *ledger.ExecContext) error {
	if ctx.Kind != ledger.Base {
		return ErrWrongContext
	}
	g, err := p.loadAccount(ctx)
	if err != nil {
		return err
	}
	if !bytes.Equal(ctx.Tx.Signer, g.Authority[:]) {
		return ErrInvalidAuthentication
	}

	var params DelegateParams
	if len(ctx.Tx.Params) > 0 {
		if err := json.Unmarshal(ctx.Tx.Params, &params); err != nil {
			return err
		}
	}
	return p.delegator.Delegate(ctx.Tx.Account, ctx.Data(), params.Validator)
}

// commit checkpoints the rollup's live account content to the base layer.
func (p *Program) commit(ctx *ledger.ExecContext) error {
	if ctx.Kind != ledger.Rollup {
		return ErrWrongContext
	}
	g, err := p.loadAccount(ctx)
	if err != nil {
		return err
	}
	if !bytes.Equal(ctx.Tx.Signer, g.Authority[:]) {
		return ErrInvalidAuthentication
	}
	return p.delegator.Commit(ctx.Tx.Account, ctx.Data())
}

// undelegate performs the final commit, returns base ownership to this
// program and retires the rollup copy.
func (p *Program) undelegate(ctx *ledger.ExecContext) error {
	if ctx.Kind != ledger.Rollup {
		return ErrWrongContext
	}
	g, err := p.loadAccount(ctx)
	if err != nil {
		return err
	}
	if !bytes.Equal(ctx.Tx.Signer, g.Authority[:]) {
		return ErrInvalidAuthentication
	}
	if err := p.delegator.Undelegate(ctx.Tx.Account, ctx.Data()); err != nil {
		return err
	}
	ctx.Close()
	return nil
}

func (p *Program) loadAccount(ctx *ledger.ExecContext) (*domain.GameAccount, error) {
	if !ctx.AccountExists() {
		return nil, ledger.ErrAccountNotFound
	}
	var g domain.GameAccount
	if err := g.UnmarshalBinary(ctx.Data()); err != nil {
		return nil, err
	}
	return &g, nil
}

func (p *Program) emit(addr ledger.Address, events []app.Event) {
	if p.onEvent == nil {
		return
	}
	for _, ev := range events {
		p.onEvent(addr, ev)
	}
}
