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

import "fmt"

// TimeReversed is the policy applied when the clock moves backward
// relative to the last accepted tick.
type TimeReversed int

const (
	// Throw fails the call with ErrTimeReversed until the clock catches up.
	Throw TimeReversed = iota
	// UseReversedTime packs the reversed clock as-is. Ids may sort out of
	// order and repeat if the reversal repeats.
	UseReversedTime
	// UsePreviousTime pins the clock to the last accepted tick. Ids stay
	// ordered but the sequence space of that tick is consumed faster.
	UsePreviousTime
)

func (s TimeReversed) String() string {
	switch s {
	case Throw:
		return "throw"
	case UseReversedTime:
		return "use_reversed_time"
	case UsePreviousTime:
		return "use_previous_time"
	default:
		return fmt.Sprintf("time_reversed(%d)", int(s))
	}
}

func (s TimeReversed) valid() bool {
	return s >= Throw && s <= UsePreviousTime
}

// MarshalText encodes the policy using its symbolic name
func (s TimeReversed) MarshalText() ([]byte, error) {
	if !s.valid() {
		return nil, fmt.Errorf("snowflake: unknown time reversed strategy %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText decodes the policy from its symbolic name
func (s *TimeReversed) UnmarshalText(text []byte) error {
	switch string(text) {
	case "throw", "":
		*s = Throw
	case "use_reversed_time":
		*s = UseReversedTime
	case "use_previous_time":
		*s = UsePreviousTime
	default:
		return fmt.Errorf("snowflake: unknown time reversed strategy %q", text)
	}
	return nil
}

// TimeChanged is the policy applied to the sequence whenever the clock
// advances to a new tick. It is a closed set: Reset, KeepCurrent, Custom.
// Pointers to these values are accepted too, a nil pointer is invalid.
type TimeChanged interface {
	// next returns sequence value for the new tick
	next(seq uint64) uint64
}

// valueOf resolves pointer forms of strategies to values, nil pointers
// resolve to nil interface.
func valueOf(s TimeChanged) TimeChanged {
	switch v := s.(type) {
	case *Reset:
		if v == nil {
			return nil
		}
		return *v
	case *KeepCurrent:
		if v == nil {
			return nil
		}
		return *v
	case *Custom:
		if v == nil {
			return nil
		}
		return *v
	default:
		return s
	}
}

// Reset zeroes the sequence on a new tick once it has reached Threshold.
// Below the threshold the sequence keeps counting across ticks.
type Reset struct {
	Threshold int64
}

func (s Reset) next(seq uint64) uint64 {
	if seq >= uint64(s.Threshold) {
		return 0
	}
	return seq
}

// KeepCurrent never touches the sequence, it wraps on the field width.
type KeepCurrent struct{}

func (KeepCurrent) next(seq uint64) uint64 { return seq }

// Custom maps the sequence on every tick. The function receives the raw
// counter, it might exceed the maximum sequence of the layout.
type Custom func(seq uint64) uint64

func (f Custom) next(seq uint64) uint64 { return f(seq) }
