package app

// EventKind identifies emitted game events for gateway dispatch.
type EventKind string

const (
	EventGameStarted   EventKind = "game_started"
	EventFrameAdvanced EventKind = "frame_advanced"
	EventGameOver      EventKind = "game_over"
	EventGameReset     EventKind = "game_reset"
)

// Event is a game event produced by a successful instruction.
type Event struct {
	Kind    EventKind
	Payload any
}

type GameStartedPayload struct {
	BirdY int32  `json:"bird_y"`
	Seed  uint64 `json:"seed"`
}

type FrameAdvancedPayload struct {
	FrameCount   uint64 `json:"frame_count"`
	BirdY        int32  `json:"bird_y"`
	BirdVelocity int32  `json:"bird_velocity"`
	Score        uint64 `json:"score"`
	PipesScored  int    `json:"pipes_scored"`
}

type GameOverPayload struct {
	Score     uint64 `json:"score"`
	HighScore uint64 `json:"high_score"`
}

type GameResetPayload struct {
	HighScore uint64 `json:"high_score"`
}
