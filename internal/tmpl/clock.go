package tmpl

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// Clock abstracts wall-clock reads so the timestamp()/timestamp_ms()/
// timestamp_us()/datetime() built-ins can be replayed deterministically in
// tests (§9's determinism requirement: every nondeterminism source is
// routed through an injectable provider).
type Clock interface {
	Now() time.Time
}

// RandomSource abstracts entropy reads for random(n) and random_uuid().
type RandomSource interface {
	HexString(n int) string
	UUID() string
}

// SystemClock reads the real wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// SystemRandom reads crypto/rand and generates real UUIDs.
type SystemRandom struct{}

func (SystemRandom) HexString(n int) string {
	if n <= 0 {
		return ""
	}
	buf := make([]byte, (n+1)/2)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)[:n]
}

func (SystemRandom) UUID() string {
	return uuid.NewString()
}

// FixedClock always returns the same instant; useful for deterministic
// replay in tests.
type FixedClock struct {
	At time.Time
}

func (f FixedClock) Now() time.Time { return f.At }

// FixedRandom returns fixed, caller-supplied values, for deterministic
// replay in tests.
type FixedRandom struct {
	Hex       string
	UUIDValue string
}

func (f FixedRandom) HexString(n int) string {
	if n <= 0 {
		return ""
	}
	s := f.Hex
	for len(s) < n {
		s += s
	}
	return s[:n]
}

// UUID satisfies RandomSource.
func (f FixedRandom) UUID() string { return f.UUIDValue }
