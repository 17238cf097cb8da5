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
	"time"

	"github.com/rs/zerolog"
)

// settings of generator collected from options
type settings struct {
	machineID      *int64
	epoch          int64
	widths         widths
	onTimeReversed TimeReversed
	onTimeChanged  TimeChanged
	clock          func() int64
	logger         zerolog.Logger
}

func defaultSettings() settings {
	return settings{
		onTimeReversed: Throw,
		onTimeChanged:  Reset{Threshold: 0},
		clock:          unixMilli,
		logger:         zerolog.Nop(),
	}
}

// Option of generator behavior. Options are applied in order, the last one wins.
type Option func(*settings)

// WithMachineID configures ⟨𝒍⟩ identity of generator among its peers.
// The option is required. Uniqueness across the fleet is responsibility
// of the application.
func WithMachineID(id int64) Option {
	return func(s *settings) {
		s.machineID = &id
	}
}

// WithEpoch configures zero point of the clock, unix milliseconds.
func WithEpoch(ms int64) Option {
	return func(s *settings) {
		s.epoch = ms
	}
}

// WithEpochTime configures zero point of the clock
func WithEpochTime(t time.Time) Option {
	return WithEpoch(t.UnixMilli())
}

// WithClockBits configures width of ⟨𝒕⟩ field
func WithClockBits(n int) Option {
	return func(s *settings) {
		s.widths.clock = &n
	}
}

// WithMachineBits configures width of ⟨𝒍⟩ field
func WithMachineBits(n int) Option {
	return func(s *settings) {
		s.widths.machine = &n
	}
}

// WithSequenceBits configures width of ⟨𝒔⟩ field
func WithSequenceBits(n int) Option {
	return func(s *settings) {
		s.widths.sequence = &n
	}
}

// WithTimeReversed configures policy for clock regression
func WithTimeReversed(strategy TimeReversed) Option {
	return func(s *settings) {
		s.onTimeReversed = strategy
	}
}

// WithTimeChanged configures sequence policy on tick advance
func WithTimeChanged(strategy TimeChanged) Option {
	return func(s *settings) {
		s.onTimeChanged = valueOf(strategy)
	}
}

// WithSequenceResetThreshold is shortcut for WithTimeChanged(Reset{Threshold: n})
func WithSequenceResetThreshold(n int64) Option {
	return WithTimeChanged(Reset{Threshold: n})
}

// WithClock configures a custom source of unix milliseconds
func WithClock(clock func() int64) Option {
	return func(s *settings) {
		s.clock = clock
	}
}

// WithLogger configures logger used by generator
func WithLogger(logger zerolog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// validate settings against the layout
func (s settings) validate(layout Layout) error {
	if s.machineID == nil {
		return errInvalidSettings(ReasonInvalidMachineID, map[string]int64{
			"machineBitWidth": int64(layout.MachineBits),
		})
	}

	if id := *s.machineID; id < 0 || uint64(id) > layout.MaxMachineID {
		return errInvalidSettings(ReasonInvalidMachineID, map[string]int64{
			"machineId":       id,
			"machineBitWidth": int64(layout.MachineBits),
		})
	}

	if s.epoch < 0 || s.epoch > MaxSafeInteger {
		return errInvalidSettings(ReasonInvalidEpoch, map[string]int64{
			"epoch": s.epoch,
		})
	}

	if least := minEpoch(layout.ClockBits); s.epoch < least {
		return errInvalidSettings(ReasonEpochTooEarly, map[string]int64{
			"epoch":         s.epoch,
			"clockBitWidth": int64(layout.ClockBits),
			"minEpoch":      least,
		})
	}

	if !s.onTimeReversed.valid() {
		return errInvalidSettings(ReasonInvalidStrategy, map[string]int64{
			"onTimeReversed": int64(s.onTimeReversed),
		})
	}

	if s.clock == nil {
		return errInvalidSettings(ReasonInvalidClock, nil)
	}

	switch strategy := s.onTimeChanged.(type) {
	case Reset:
		if strategy.Threshold < 0 || uint64(strategy.Threshold) > layout.MaxSequence {
			return errInvalidSettings(ReasonInvalidSequenceResetThreshold, map[string]int64{
				"sequenceResetThreshold": strategy.Threshold,
				"maxSequence":            int64(layout.MaxSequence),
			})
		}
	case KeepCurrent:
	case Custom:
		if strategy == nil {
			return errInvalidSettings(ReasonInvalidStrategy, nil)
		}
	default:
		return errInvalidSettings(ReasonInvalidStrategy, nil)
	}

	return nil
}
