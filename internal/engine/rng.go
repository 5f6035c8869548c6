package engine

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"
)

// Source is the randomness provider for rolls.
type Source interface {
	// Intn returns a random int in [0, n). n must be > 0.
	Intn(n int) int
}

// RollValue draws a uniform integer in [1, bound] from src.
func RollValue(src Source, bound int) int {
	return src.Intn(bound) + 1
}

// MathSource wraps math/rand. Not reproducible unless seeded explicitly.
type MathSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewMathSource creates a math/rand backed source. A zero seed is replaced
// with the current time.
func NewMathSource(seed int64) *MathSource {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &MathSource{rng: rand.New(rand.NewSource(seed))}
}

func (s *MathSource) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n)
}

// ByteGenerator generates bytes using HMAC-SHA256
// for streaming approach to float generation
type ByteGenerator struct {
	serverSeed   string
	clientSeed   string
	nonce        uint64
	currentRound uint64
	currentPos   int
	buffer       [32]byte
}

// NewByteGenerator creates a new byte generator with the given parameters
func NewByteGenerator(serverSeed, clientSeed string, nonce uint64, cursor uint64) *ByteGenerator {
	bg := &ByteGenerator{
		serverSeed:   serverSeed,
		clientSeed:   clientSeed,
		nonce:        nonce,
		currentRound: cursor / 32,
		currentPos:   int(cursor % 32),
	}
	bg.generateRound()
	return bg
}

// Next returns the next byte from the generator
func (bg *ByteGenerator) Next() byte {
	if bg.currentPos >= 32 {
		bg.currentRound++
		bg.currentPos = 0
		bg.generateRound()
	}

	b := bg.buffer[bg.currentPos]
	bg.currentPos++
	return b
}

// NextFloat generates the next float in [0, 1) using exactly 4 bytes
func (bg *ByteGenerator) NextFloat() float64 {
	return bytesToFloat([4]byte{bg.Next(), bg.Next(), bg.Next(), bg.Next()})
}

func (bg *ByteGenerator) generateRound() {
	h := hmac.New(sha256.New, []byte(bg.serverSeed))
	message := fmt.Sprintf("%s:%d:%d", bg.clientSeed, bg.nonce, bg.currentRound)
	h.Write([]byte(message))
	copy(bg.buffer[:], h.Sum(nil))
}

func bytesToFloat(bytes [4]byte) float64 {
	result := 0.0
	for i, b := range bytes {
		divider := math.Pow(256, float64(i+1))
		result += float64(b) / divider
	}
	return result
}

// SeededSource derives integers from the HMAC-SHA256 float stream of a
// server/client seed pair. Every Intn call consumes the next float.
type SeededSource struct {
	mu    sync.Mutex
	bg *ByteGenerator
}

// NewSeededSource starts a stream at cursor 0 for the given nonce.
func NewSeededSource(seeds Seeds, nonce uint64) *SeededSource {
	return &SeededSource{bg: NewByteGenerator(seeds.Server, seeds.Client, nonce, 0)}
}

func (s *SeededSource) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int(math.Floor(s.bg.NextFloat() * float64(n)))
}

// HashServerSeed returns the hex SHA-256 of a server seed, the commitment a
// shell can publish before any roll is drawn.
func HashServerSeed(serverSeed string) string {
	sum := sha256.Sum256([]byte(serverSeed))
	return hex.EncodeToString(sum[:])
}

// SequenceSource replays scripted roll values. Intn(n) returns value-1 for
// the next scripted value and panics when the script is exhausted or the
// value falls outside [1, n].
type SequenceSource struct {
	mu     sync.Mutex
	values []int
	pos    int
}

// NewSequenceSource scripts the given roll values in order.
func NewSequenceSource(values ...int) *SequenceSource {
	return &SequenceSource{values: append([]int(nil), values...)}
}

func (s *SequenceSource) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pos >= len(s.values) {
		panic("engine: sequence source exhausted")
	}
	v := s.values[s.pos]
	if v < 1 || v > n {
		panic(fmt.Sprintf("engine: scripted roll %d outside [1, %d]", v, n))
	}
	s.pos++
	return v - 1
}
