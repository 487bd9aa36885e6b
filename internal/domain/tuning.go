package domain

// Scale is the fixed-point multiplier. One playfield pixel equals Scale
// integer units; all simulation arithmetic stays in integers so every
// execution context reproduces identical state bit for bit.
const Scale = 1000

// Tuning holds the playfield and physics constants. Distances are in pixels,
// velocities and accelerations are pre-scaled per-tick values. Keep the same
// tuning on every execution context that simulates a given account.
type Tuning struct {
	GameWidth  int32 `json:"game_width"`
	GameHeight int32 `json:"game_height"`
	BirdSize   int32 `json:"bird_size"`
	BirdX      int32 `json:"bird_x"` // fixed horizontal position

	Gravity      int32 `json:"gravity"`       // scaled, added to velocity each tick
	JumpVelocity int32 `json:"jump_velocity"` // scaled, applied on flap
	MaxVelocity  int32 `json:"max_velocity"`  // scaled, symmetric clamp

	PipeWidth         int32 `json:"pipe_width"`
	PipeGap           int32 `json:"pipe_gap"`
	PipeSpeed         int32 `json:"pipe_speed"` // pixels per tick
	PipeSpawnDistance int32 `json:"pipe_spawn_distance"`
	PipeHeightMin     int32 `json:"pipe_height_min"`
	GapOffsetRange    int32 `json:"gap_offset_range"` // span of random gap placement
}

// DefaultTuning returns the canonical constant set.
func DefaultTuning() Tuning {
	return Tuning{
		GameWidth:  600,
		GameHeight: 400,
		BirdSize:   30,
		BirdX:      50,

		Gravity:      600,   // 0.6 px/tick^2
		JumpVelocity: -9000, // -9 px/tick
		MaxVelocity:  15000, // 15 px/tick

		PipeWidth:         60,
		PipeGap:           150,
		PipeSpeed:         10,
		PipeSpawnDistance: 200,
		PipeHeightMin:     50,
		GapOffsetRange:    300,
	}
}
