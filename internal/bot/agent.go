package bot

import (
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"flappy/internal/domain"
	"flappy/internal/ledger"
	"flappy/internal/ports/program"
)

// Agent drives one account through a runtime by signing and submitting
// transactions with its own key, the same path a real client takes.
type Agent struct {
	brain     Brain
	tuning    domain.Tuning
	key       *secp256k1.PrivateKey
	rt        *ledger.Runtime
	programID ledger.ProgramID
	addr      ledger.Address
	log       *logrus.Entry
}

func NewAgent(programID ledger.ProgramID, rt *ledger.Runtime, key *secp256k1.PrivateKey, brain Brain, tuning domain.Tuning, log *logrus.Logger) *Agent {
	addr := program.AccountAddress(programID, key.PubKey().SerializeCompressed())
	return &Agent{
		brain:     brain,
		tuning:    tuning,
		key:       key,
		rt:        rt,
		programID: programID,
		addr:      addr,
		log:       log.WithField("component", "bot"),
	}
}

// Address returns the agent's derived account address.
func (a *Agent) Address() ledger.Address { return a.addr }

// EnsureAccount initializes the agent's account if it does not exist yet.
func (a *Agent) EnsureAccount() error {
	if _, ok := a.rt.Ledger().Account(a.addr); ok {
		return nil
	}
	return a.submit(program.OpInitialize)
}

// PlayRun plays one run to game over or the frame budget, whichever comes
// first, and returns the final score.
func (a *Agent) PlayRun(maxFrames int) (uint64, error) {
	g, err := a.account()
	if err != nil {
		return 0, err
	}
	if g.Status != domain.StatusPlaying {
		if err := a.submit(program.OpStartGame); err != nil {
			return 0, err
		}
	}

	for i := 0; i < maxFrames; i++ {
		if g, err = a.account(); err != nil {
			return 0, err
		}
		if g.Status != domain.StatusPlaying {
			break
		}
		op := program.OpTick
		if a.brain.Decide(a.tuning, g) == DecisionFlap {
			op = program.OpFlap
		}
		if err := a.submit(op); err != nil {
			return 0, err
		}
	}

	if g, err = a.account(); err != nil {
		return 0, err
	}
	a.log.WithFields(logrus.Fields{
		"frames": g.FrameCount,
		"score":  g.Score,
		"status": g.Status.String(),
	}).Info("run finished")
	return g.Score, nil
}

func (a *Agent) account() (*domain.GameAccount, error) {
	acc, ok := a.rt.Ledger().Account(a.addr)
	if !ok {
		return nil, fmt.Errorf("agent account %s: %w", a.addr, ledger.ErrAccountNotFound)
	}
	var g domain.GameAccount
	if err := g.UnmarshalBinary(acc.Data); err != nil {
		return nil, err
	}
	return &g, nil
}

func (a *Agent) submit(op int64) error {
	tx := &ledger.Transaction{
		ID:      uuid.New(),
		Program: a.programID,
		Account: a.addr,
		Op:      op,
	}
	tx.Sign(a.key)
	return a.rt.Submit(tx)
}
