// Package bot implements an autonomous pilot. It exists for load generation
// and for exercising the simulation end to end: the pilot sees only account
// state and decides, like any client, whether to flap on the next frame.
package bot

import (
	"flappy/internal/domain"
)

// Decision is the pilot's choice for one frame.
type Decision int

const (
	DecisionTick Decision = iota
	DecisionFlap
)

// Brain decides the next move from the current account state.
type Brain interface {
	Decide(t domain.Tuning, g *domain.GameAccount) Decision
}

// LookaheadPilot simulates both candidate moves one frame ahead on a copy of
// the account and keeps the bird centered on the nearest gap. Simulating
// with the real step function means its predictions are exact.
type LookaheadPilot struct{}

func (LookaheadPilot) Decide(t domain.Tuning, g *domain.GameAccount) Decision {
	tick := *g
	domain.Advance(t, &tick)

	flap := *g
	flap.BirdVelocity = t.JumpVelocity
	domain.Advance(t, &flap)

	tickAlive := tick.Status == domain.StatusPlaying
	flapAlive := flap.Status == domain.StatusPlaying
	switch {
	case tickAlive && !flapAlive:
		return DecisionTick
	case flapAlive && !tickAlive:
		return DecisionFlap
	case !tickAlive && !flapAlive:
		// Doomed either way; gliding changes nothing.
		return DecisionTick
	}

	target := targetGap(t, g)
	if distanceToGap(t, &flap, target) < distanceToGap(t, &tick, target) {
		return DecisionFlap
	}
	return DecisionTick
}

// targetGap returns the gap center of the nearest pipe the bird has not yet
// cleared, or the playfield middle when no pipe is ahead. Scaled.
func targetGap(t domain.Tuning, g *domain.GameAccount) int32 {
	birdLeft := t.BirdX * domain.Scale
	best := int32(-1)
	var bestX int32
	for i := range g.Pipes {
		p := g.Pipes[i]
		if !p.Active || p.X+t.PipeWidth*domain.Scale <= birdLeft {
			continue
		}
		if best < 0 || p.X < bestX {
			best = p.GapY
			bestX = p.X
		}
	}
	if best < 0 {
		return t.GameHeight / 2 * domain.Scale
	}
	return best
}

func distanceToGap(t domain.Tuning, g *domain.GameAccount, target int32) int32 {
	center := g.BirdY + t.BirdSize/2*domain.Scale
	d := center - target
	if d < 0 {
		return -d
	}
	return d
}

