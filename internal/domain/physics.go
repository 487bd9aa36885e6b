package domain

// Linear-congruential constants for the pipe gap sequence.
const (
	lcgMul = 1103515245
	lcgAdd = 12345
)

// Outcome reports what a single simulation step did to the account.
type Outcome struct {
	GameOver    bool
	PipesScored int
}

// Advance runs one deterministic simulation step: gravity and bird movement,
// pipe scrolling, then the evaluator in fixed order (boundary collision,
// pipe collision, scoring) so that a tick is terminal at most once. The
// account is mutated in place and must already be in StatusPlaying.
func Advance(t Tuning, g *GameAccount) Outcome {
	g.FrameCount++

	v := g.BirdVelocity + t.Gravity
	if v > t.MaxVelocity {
		v = t.MaxVelocity
	}
	if v < -t.MaxVelocity {
		v = -t.MaxVelocity
	}
	g.BirdVelocity = v
	g.BirdY += v

	// Boundary collision ends the run before any pipe processing.
	maxY := (t.GameHeight - t.BirdSize) * Scale
	if g.BirdY <= 0 || g.BirdY >= maxY {
		if g.BirdY < 0 {
			g.BirdY = 0
		}
		if g.BirdY > maxY {
			g.BirdY = maxY
		}
		EndRun(g)
		return Outcome{GameOver: true}
	}

	step := t.PipeSpeed * Scale
	for i := range g.Pipes {
		if g.Pipes[i].Active {
			g.Pipes[i].X -= step
		}
	}
	g.NextPipeSpawnX -= step

	for i := range g.Pipes {
		if g.Pipes[i].Active && birdHitsPipe(t, g.BirdY, g.Pipes[i]) {
			EndRun(g)
			return Outcome{GameOver: true}
		}
	}

	var out Outcome
	for i := range g.Pipes {
		p := &g.Pipes[i]
		if p.Active && !p.Passed && p.X+t.PipeWidth*Scale < t.BirdX*Scale {
			p.Passed = true
			g.Score++
			out.PipesScored++
		}
	}

	for i := range g.Pipes {
		if g.Pipes[i].Active && g.Pipes[i].X+t.PipeWidth*Scale < 0 {
			g.Pipes[i].Active = false
		}
	}

	if g.NextPipeSpawnX <= t.GameWidth*Scale {
		spawnPipe(t, g)
	}

	return out
}

// EndRun transitions the account to GameOver, folding the run score into the
// high score. Safe to call more than once.
func EndRun(g *GameAccount) {
	g.Status = StatusGameOver
	if g.Score > g.HighScore {
		g.HighScore = g.Score
	}
}

// birdHitsPipe reports whether the bird's box overlaps the pipe horizontally
// while sitting outside the gap vertically. All values scaled.
func birdHitsPipe(t Tuning, birdY int32, p Pipe) bool {
	birdLeft := t.BirdX * Scale
	birdRight := (t.BirdX + t.BirdSize) * Scale
	if birdRight <= p.X || birdLeft >= p.X+t.PipeWidth*Scale {
		return false
	}
	gapTop := p.GapY - t.PipeGap/2*Scale
	gapBottom := p.GapY + t.PipeGap/2*Scale
	return birdY < gapTop || birdY+t.BirdSize*Scale > gapBottom
}

// spawnPipe activates a free slot at the right edge with a gap drawn from the
// account's seed, then schedules the next spawn. With no free slot the spawn
// is deferred to a later tick rather than overwriting an active pipe.
func spawnPipe(t Tuning, g *GameAccount) {
	for i := range g.Pipes {
		if g.Pipes[i].Active {
			continue
		}
		seed, gapY := NextGap(t, g.Seed)
		g.Seed = seed
		g.Pipes[i] = Pipe{X: t.GameWidth * Scale, GapY: gapY, Active: true}
		g.NextPipeSpawnX += t.PipeSpawnDistance * Scale
		return
	}
}

// NextGap advances the linear-congruential sequence and derives the next gap
// center, scaled. The gap always leaves at least PipeHeightMin of pipe above
// and below. Same seed and call count always yield the same sequence.
func NextGap(t Tuning, seed uint64) (uint64, int32) {
	seed = seed*lcgMul + lcgAdd
	offset := int32((seed / 65536) % uint64(t.GapOffsetRange))
	gapY := t.PipeHeightMin + t.PipeGap/2 + offset
	if max := t.GameHeight - t.PipeHeightMin - t.PipeGap/2; gapY > max {
		gapY = max
	}
	return seed, gapY * Scale
}
