package app

import (
	"errors"
	"time"

	"flappy/internal/domain"
	"flappy/internal/ports"
)

var (
	// ErrGameNotPlaying rejects gameplay instructions outside a running run.
	ErrGameNotPlaying = errors.New("game is not in playing state")
	// ErrGameAlreadyStarted rejects startGame while a run is active.
	ErrGameAlreadyStarted = errors.New("game has already started")
	// ErrGameNotOver rejects resetGame unless the last run ended.
	ErrGameNotOver = errors.New("game is not over")
)

type systemClock struct{}

func (systemClock) Now() int64 { return time.Now().Unix() }

// Service contains the game instruction use-cases operating on account
// state. Every method is a single atomic transition: preconditions are
// checked before any field changes, so a rejected instruction leaves the
// account untouched.
type Service struct {
	tuning domain.Tuning
	clock  ports.Clock
}

// NewService constructs a Service with the provided clock or a system-time
// default.
func NewService(tuning domain.Tuning, clock ports.Clock) *Service {
	if clock == nil {
		clock = systemClock{}
	}
	return &Service{tuning: tuning, clock: clock}
}

// Tuning returns the constant set this service simulates with.
func (s *Service) Tuning() domain.Tuning { return s.tuning }

// NewAccount builds the initial account content for a player, with the pipe
// seed and advisory timestamp drawn from the clock.
func (s *Service) NewAccount(authority [domain.AuthorityLen]byte) *domain.GameAccount {
	now := s.clock.Now()
	return domain.NewAccount(s.tuning, authority, uint64(now), now)
}

// StartGame begins a fresh run: score and physics reset, pipes cleared, seed
// renewed. Allowed from NotStarted and GameOver.
func (s *Service) StartGame(g *domain.GameAccount) ([]Event, error) {
	if g.Status == domain.StatusPlaying {
		return nil, ErrGameAlreadyStarted
	}

	now := s.clock.Now()
	g.Score = 0
	g.Status = domain.StatusPlaying
	g.BirdY = s.tuning.GameHeight / 2 * domain.Scale
	g.BirdVelocity = 0
	g.FrameCount = 0
	g.LastUpdate = now
	domain.ResetPipes(s.tuning, g)
	g.NextPipeSpawnX = s.tuning.GameWidth * domain.Scale
	g.Seed = uint64(now)

	return []Event{{
		Kind:    EventGameStarted,
		Payload: GameStartedPayload{BirdY: g.BirdY, Seed: g.Seed},
	}}, nil
}

// Flap applies the jump impulse and then runs one simulation step.
func (s *Service) Flap(g *domain.GameAccount) ([]Event, error) {
	if g.Status != domain.StatusPlaying {
		return nil, ErrGameNotPlaying
	}
	g.BirdVelocity = s.tuning.JumpVelocity
	return s.step(g), nil
}

// Tick runs one gravity-only simulation step.
func (s *Service) Tick(g *domain.GameAccount) ([]Event, error) {
	if g.Status != domain.StatusPlaying {
		return nil, ErrGameNotPlaying
	}
	return s.step(g), nil
}

// EndGame forces the current run over, e.g. for client-detected conditions.
func (s *Service) EndGame(g *domain.GameAccount) ([]Event, error) {
	if g.Status != domain.StatusPlaying {
		return nil, ErrGameNotPlaying
	}
	domain.EndRun(g)
	g.LastUpdate = s.clock.Now()
	return []Event{{
		Kind:    EventGameOver,
		Payload: GameOverPayload{Score: g.Score, HighScore: g.HighScore},
	}}, nil
}

// ResetGame returns a finished account to NotStarted, zeroing run-scoped
// fields while preserving the high score. Only allowed after GameOver so an
// active run is never silently discarded.
func (s *Service) ResetGame(g *domain.GameAccount) ([]Event, error) {
	if g.Status != domain.StatusGameOver {
		return nil, ErrGameNotOver
	}

	g.Score = 0
	g.Status = domain.StatusNotStarted
	g.BirdY = s.tuning.GameHeight / 2 * domain.Scale
	g.BirdVelocity = 0
	g.FrameCount = 0
	g.LastUpdate = s.clock.Now()
	domain.ResetPipes(s.tuning, g)
	g.NextPipeSpawnX = s.tuning.GameWidth * domain.Scale

	return []Event{{
		Kind:    EventGameReset,
		Payload: GameResetPayload{HighScore: g.HighScore},
	}}, nil
}

func (s *Service) step(g *domain.GameAccount) []Event {
	out := domain.Advance(s.tuning, g)
	g.LastUpdate = s.clock.Now()

	events := []Event{{
		Kind: EventFrameAdvanced,
		Payload: FrameAdvancedPayload{
			FrameCount:   g.FrameCount,
			BirdY:        g.BirdY,
			BirdVelocity: g.BirdVelocity,
			Score:        g.Score,
			PipesScored:  out.PipesScored,
		},
	}}
	if out.GameOver {
		events = append(events, Event{
			Kind:    EventGameOver,
			Payload: GameOverPayload{Score: g.Score, HighScore: g.HighScore},
		})
	}
	return events
}
