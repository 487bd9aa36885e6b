package domain

import (
	"bytes"
	"encoding/binary"
	"errors"
)

// Status represents the lifecycle stage of a game run.
type Status uint8

const (
	// StatusNotStarted indicates the account exists but no run is active.
	StatusNotStarted Status = iota
	// StatusPlaying indicates a run is actively being simulated.
	StatusPlaying
	// StatusGameOver indicates the last run ended and awaits a reset.
	StatusGameOver
)

func (s Status) String() string {
	switch s {
	case StatusNotStarted:
		return "not_started"
	case StatusPlaying:
		return "playing"
	case StatusGameOver:
		return "game_over"
	default:
		return "unknown"
	}
}

const (
	// AuthorityLen is the byte length of a player identity (compressed
	// secp256k1 public key).
	AuthorityLen = 33

	// MaxPipes is the fixed pipe slot capacity. It is part of the account
	// layout and therefore not tunable.
	MaxPipes = 5
)

// Pipe is one obstacle slot. Inactive slots are recycled, never appended.
type Pipe struct {
	X      int32 // horizontal position, scaled
	GapY   int32 // gap center, scaled
	Passed bool
	Active bool
}

// GameAccount is the per-player game state. All fields are fixed-size so the
// serialized account has a static length declared at creation time.
type GameAccount struct {
	Authority      [AuthorityLen]byte
	Score          uint64
	HighScore      uint64
	Status         Status
	BirdY          int32 // scaled
	BirdVelocity   int32 // scaled
	FrameCount     uint64
	LastUpdate     int64 // unix seconds, advisory only
	Pipes          [MaxPipes]Pipe
	NextPipeSpawnX int32 // scaled
	Seed           uint64
}

const pipeSize = 4 + 4 + 1 + 1

// AccountSize is the serialized size of a GameAccount in bytes.
const AccountSize = AuthorityLen + 8 + 8 + 1 + 4 + 4 + 8 + 8 + MaxPipes*pipeSize + 4 + 8

var ErrBadAccountSize = errors.New("account data has wrong size")

// MarshalBinary encodes the account into its fixed little-endian layout.
func (g *GameAccount) MarshalBinary() ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, AccountSize))
	if err := binary.Write(buf, binary.LittleEndian, g); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary decodes an account from its fixed layout. The input must be
// exactly AccountSize bytes.
func (g *GameAccount) UnmarshalBinary(data []byte) error {
	if len(data) != AccountSize {
		return ErrBadAccountSize
	}
	return binary.Read(bytes.NewReader(data), binary.LittleEndian, g)
}

// NewAccount returns a freshly initialized account for the given authority.
// Numeric run state is zeroed, the bird is centered and the pipe slots are
// parked off-screen, mirroring the initialize instruction.
func NewAccount(t Tuning, authority [AuthorityLen]byte, seed uint64, now int64) *GameAccount {
	g := &GameAccount{
		Authority:      authority,
		Status:         StatusNotStarted,
		BirdY:          t.GameHeight / 2 * Scale,
		LastUpdate:     now,
		NextPipeSpawnX: (t.GameWidth + t.PipeSpawnDistance) * Scale,
		Seed:           seed,
	}
	ResetPipes(t, g)
	return g
}

// ResetPipes parks every pipe slot off-screen and inactive.
func ResetPipes(t Tuning, g *GameAccount) {
	for i := range g.Pipes {
		g.Pipes[i] = Pipe{
			X:    -100 * Scale,
			GapY: t.GameHeight / 2 * Scale,
		}
	}
}
