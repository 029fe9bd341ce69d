// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mjlink

import (
	"math/rand"
	"os"
	"strconv"
	"testing"
	"time"
)

// getFuzzRounds returns the number of fuzz rounds from FUZZ_ROUNDS env var, default 1000
func getFuzzRounds() int {
	if envRounds := os.Getenv("FUZZ_ROUNDS"); envRounds != "" {
		if rounds, err := strconv.Atoi(envRounds); err == nil && rounds > 0 {
			return rounds
		}
	}
	return 1000
}

// getFuzzSeed returns the seed from FUZZ_SEED env var, or generates one from current time
func getFuzzSeed() int64 {
	if envSeed := os.Getenv("FUZZ_SEED"); envSeed != "" {
		if seed, err := strconv.ParseInt(envSeed, 10, 64); err == nil {
			return seed
		}
	}
	return time.Now().UnixNano()
}

// newFuzzRng creates a new random number generator and logs the seed for reproducibility
func newFuzzRng(t *testing.T) *rand.Rand {
	seed := getFuzzSeed()
	t.Logf("Seed: %d (reproduce with FUZZ_SEED=%d)", seed, seed)
	return rand.New(rand.NewSource(seed))
}

// randomLine returns up to 24 random printable and control characters.
func randomLine(rng *rand.Rand) string {
	const alphabet = "MJPRCSTN0123456789ABCDEF \r\n\t-+x"
	b := make([]byte, rng.Intn(25))
	for i := range b {
		if rng.Intn(10) == 0 {
			b[i] = byte(rng.Intn(256))
		} else {
			b[i] = alphabet[rng.Intn(len(alphabet))]
		}
	}
	return string(b)
}

// ============================================================
// Decoder Fuzz Tests
// ============================================================

func TestFuzzDecoder_RandomLines(t *testing.T) {
	rng := newFuzzRng(t)
	rounds := getFuzzRounds()
	codes := ParameterCodes()

	for i := 0; i < rounds; i++ {
		line := randomLine(rng)
		strict := rng.Intn(2) == 0
		d := NewDecoder(strict)

		// Must never panic; any failure must be a decode error
		if _, err := d.DecodeStatus(line, NewStatusQuery(1)); err != nil && !IsDecodeError(err) {
			t.Fatalf("round %d: DecodeStatus(%q) returned non-decode error %v", i, line, err)
		}
		cmd := NewParameterQuery(1, codes[rng.Intn(len(codes))])
		if _, err := d.DecodeValue(line, cmd); err != nil && !IsDecodeError(err) {
			t.Fatalf("round %d: DecodeValue(%q) returned non-decode error %v", i, line, err)
		}
	}
}

func TestFuzzDecoder_RandomValues(t *testing.T) {
	rng := newFuzzRng(t)
	rounds := getFuzzRounds()
	params := Parameters()

	for i := 0; i < rounds; i++ {
		station := rng.Intn(MaxStation + 1)
		desc := params[rng.Intn(len(params))]
		raw := rng.Int63n(2_000_000) - 1_000_000

		value := strconv.FormatInt(raw, 10)
		line := valueReply(station, FunctionParameter, desc.Code, value)

		r, err := NewDecoder(true).DecodeValue(line, NewParameterQuery(station, desc.Code))
		if err != nil {
			t.Fatalf("round %d: DecodeValue(%q) failed: %v", i, line, err)
		}
		if desc.Numeric() {
			if want := float64(raw) * desc.Scale; r.Value != want {
				t.Fatalf("round %d: %s value = %v, want %v", i, desc.Name, r.Value, want)
			}
		} else if r.Raw != value {
			t.Fatalf("round %d: %s raw = %q, want %q", i, desc.Name, r.Raw, value)
		}
	}
}

func TestFuzzDecoder_SingleCharCorruption(t *testing.T) {
	rng := newFuzzRng(t)
	rounds := getFuzzRounds()

	for i := 0; i < rounds; i++ {
		line := []byte(valueReply(1, FunctionParameter, "03", strconv.Itoa(rng.Intn(10000))))
		// Corrupt one character of the body or checksum, never the CR
		pos := rng.Intn(len(line) - 1)
		delta := byte(1 + rng.Intn(9))
		line[pos] += delta

		if _, err := NewDecoder(true).DecodeValue(string(line), NewParameterQuery(1, "03")); err == nil {
			t.Fatalf("round %d: corrupted line %q accepted in strict mode", i, line)
		}
	}
}
