//
//  Copyright 2012 Dmitry Kolesnikov, All Rights Reserved
//
//  Licensed under the Apache License, Version 2.0 (the "License");
//  you may not use this file except in compliance with the License.
//  You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
//  Unless required by applicable law or agreed to in writing, software
//  distributed under the License is distributed on an "AS IS" BASIS,
//  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//  See the License for the specific language governing permissions and
//  limitations under the License.
//

package snowflake

import (
	"github.com/rs/zerolog"
)

// Generator of k-ordered identifiers ⟨𝒕, 𝒍, 𝒔⟩ packed into integer T.
// The generator is not safe for concurrent use, see Locked.
type Generator[T Integer] struct {
	layout         Layout
	epoch          int64
	machineID      uint64
	onTimeReversed TimeReversed
	onTimeChanged  TimeChanged
	clock          func() int64
	logger         zerolog.Logger

	// runtime state
	prevTime uint64
	sequence uint64
	count    uint64
}

// Snowflake is 64-bit generator, identifiers use 63 bits.
type Snowflake = Generator[uint64]

// SafeSnowflake is 53-bit generator, identifiers are safe integers.
type SafeSnowflake = Generator[int64]

// New creates 64-bit generator. Default layout is 41 bit clock, 10 bit
// machine id and 12 bit sequence, compatible with Twitter Snowflake.
func New(opts ...Option) (*Snowflake, error) {
	return newGenerator[uint64](variant64, opts)
}

// NewSafe creates 53-bit generator. Default layout is 40 bit clock, 5 bit
// machine id and 8 bit sequence. The clock is either 40 or 41 bits.
func NewSafe(opts ...Option) (*SafeSnowflake, error) {
	return newGenerator[int64](variantSafe, opts)
}

func newGenerator[T Integer](v variant, opts []Option) (*Generator[T], error) {
	s := defaultSettings()
	for _, opt := range opts {
		opt(&s)
	}

	layout, err := newLayout(v, s.widths)
	if err != nil {
		return nil, err
	}

	if err := s.validate(layout); err != nil {
		return nil, err
	}

	g := &Generator[T]{
		layout:         layout,
		epoch:          s.epoch,
		machineID:      uint64(*s.machineID),
		onTimeReversed: s.onTimeReversed,
		onTimeChanged:  s.onTimeChanged,
		clock:          s.clock,
		logger:         s.logger.With().Str("variant", v.name).Int64("machine_id", *s.machineID).Logger(),
	}

	g.logger.Debug().
		Int64("epoch", g.epoch).
		Int("clock_bits", layout.ClockBits).
		Int("machine_bits", layout.MachineBits).
		Int("sequence_bits", layout.SequenceBits).
		Stringer("on_time_reversed", g.onTimeReversed).
		Msg("snowflake generator configured")

	return g, nil
}

// Generate returns next identifier using the wall clock. Failed call does
// not change the state of generator, it is safe to retry later.
func (g *Generator[T]) Generate() (T, error) {
	now := g.clock()
	if now < g.epoch {
		return 0, errTimeBeforeEpoch(g.epoch, now)
	}

	t := uint64(now - g.epoch)

	if t < g.prevTime {
		switch g.onTimeReversed {
		case UseReversedTime:
			g.logger.Warn().
				Int64("previous", int64(g.prevTime)+g.epoch).
				Int64("current", now).
				Msg("clock moved backward, using reversed time")
		case UsePreviousTime:
			g.logger.Warn().
				Int64("previous", int64(g.prevTime)+g.epoch).
				Int64("current", now).
				Msg("clock moved backward, using previous time")
			t = g.prevTime
		default:
			return 0, errTimeReversed(int64(g.prevTime)+g.epoch, now)
		}
	}

	if t > g.layout.MaxClock {
		return 0, errClockOverflowed(t, g.layout.MaxClock)
	}

	if t != g.prevTime {
		g.prevTime = t
		g.count = 0
		g.sequence = g.onTimeChanged.next(g.sequence)
	} else if g.count > g.layout.MaxSequence {
		return 0, errSequenceOverflowed(g.count)
	}

	g.count++
	id := g.layout.pack(t, g.machineID, g.sequence)
	g.sequence++

	return T(id), nil
}

// GenerateBy returns identifier for given unix milliseconds and sequence.
// It neither reads the clock nor changes the state of generator.
func (g *Generator[T]) GenerateBy(timestamp int64, sequence uint64) (T, error) {
	if timestamp < g.epoch {
		return 0, errTimeBeforeEpoch(g.epoch, timestamp)
	}

	if sequence > g.layout.MaxSequence {
		return 0, errSequenceOverflowed(sequence)
	}

	t := uint64(timestamp - g.epoch)
	if t > g.layout.MaxClock {
		return 0, errClockOverflowed(t, g.layout.MaxClock)
	}

	return T(g.layout.pack(t, g.machineID, sequence)), nil
}

// Layout returns bit layout of identifiers
func (g *Generator[T]) Layout() Layout { return g.layout }

// MachineID returns ⟨𝒍⟩ identity of generator
func (g *Generator[T]) MachineID() int64 { return int64(g.machineID) }

// Epoch returns zero point of the clock, unix milliseconds
func (g *Generator[T]) Epoch() int64 { return g.epoch }

// ClockBits returns width of ⟨𝒕⟩ field
func (g *Generator[T]) ClockBits() int { return g.layout.ClockBits }

// MachineBits returns width of ⟨𝒍⟩ field
func (g *Generator[T]) MachineBits() int { return g.layout.MachineBits }

// SequenceBits returns width of ⟨𝒔⟩ field
func (g *Generator[T]) SequenceBits() int { return g.layout.SequenceBits }

// MaxSequence returns number of identifiers per millisecond minus one
func (g *Generator[T]) MaxSequence() uint64 { return g.layout.MaxSequence }

// MaxMachineID returns the largest machine id permitted by the layout
func (g *Generator[T]) MaxMachineID() uint64 { return g.layout.MaxMachineID }
