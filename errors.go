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
	"sort"
	"strconv"
	"strings"
)

// Kind classifies failures of the generator.
type Kind int

const (
	KindUnknown Kind = iota
	// KindInvalidSettings is raised at construction only
	KindInvalidSettings
	KindTimeBeforeEpoch
	KindTimeReversed
	KindSequenceOverflowed
	// KindClockOverflowed reports clock offset that does not fit the clock field
	KindClockOverflowed
)

func (k Kind) String() string {
	switch k {
	case KindInvalidSettings:
		return "invalid_settings"
	case KindTimeBeforeEpoch:
		return "time_before_epoch"
	case KindTimeReversed:
		return "time_reversed"
	case KindSequenceOverflowed:
		return "sequence_overflowed"
	case KindClockOverflowed:
		return "clock_overflowed"
	default:
		return "unknown"
	}
}

// Reason is a machine readable code that details the failure.
type Reason string

const (
	ReasonInvalidMachineID              Reason = "invalid_machine_id"
	ReasonInvalidEpoch                  Reason = "invalid_epoch"
	ReasonEpochTooEarly                 Reason = "epoch_too_early"
	ReasonInvalidBitWidth               Reason = "invalid_bit_width"
	ReasonInvalidSequenceResetThreshold Reason = "invalid_sequence_reset_threshold"
	ReasonInvalidStrategy               Reason = "invalid_strategy"
	ReasonInvalidClock                  Reason = "invalid_clock"
)

// Error is the only error type returned by generators. Context maps the
// names of offending fields to their values.
type Error struct {
	Kind    Kind
	Reason  Reason
	Context map[string]int64
}

// Sentinels for errors.Is, they match any *Error of the same Kind.
var (
	ErrInvalidSettings    error = &Error{Kind: KindInvalidSettings}
	ErrTimeBeforeEpoch    error = &Error{Kind: KindTimeBeforeEpoch}
	ErrTimeReversed       error = &Error{Kind: KindTimeReversed}
	ErrSequenceOverflowed error = &Error{Kind: KindSequenceOverflowed}
	ErrClockOverflowed    error = &Error{Kind: KindClockOverflowed}
)

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString("snowflake: ")
	sb.WriteString(e.Kind.String())

	if e.Reason != "" {
		sb.WriteString(" (")
		sb.WriteString(string(e.Reason))
		sb.WriteString(")")
	}

	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for i, k := range keys {
			if i == 0 {
				sb.WriteString(": ")
			} else {
				sb.WriteString(", ")
			}
			sb.WriteString(k)
			sb.WriteString("=")
			sb.WriteString(strconv.FormatInt(e.Context[k], 10))
		}
	}

	return sb.String()
}

// Is matches errors by Kind, Reason is compared only if target defines it.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	if t.Kind != e.Kind {
		return false
	}

	return t.Reason == "" || t.Reason == e.Reason
}

func errInvalidSettings(reason Reason, ctx map[string]int64) error {
	return &Error{Kind: KindInvalidSettings, Reason: reason, Context: ctx}
}

func errTimeBeforeEpoch(epoch, now int64) error {
	return &Error{
		Kind:    KindTimeBeforeEpoch,
		Reason:  Reason(KindTimeBeforeEpoch.String()),
		Context: map[string]int64{"epoch": epoch, "time": now},
	}
}

func errTimeReversed(previous, current int64) error {
	return &Error{
		Kind:    KindTimeReversed,
		Reason:  Reason(KindTimeReversed.String()),
		Context: map[string]int64{"previous": previous, "current": current},
	}
}

func errSequenceOverflowed(sequence uint64) error {
	return &Error{
		Kind:    KindSequenceOverflowed,
		Reason:  Reason(KindSequenceOverflowed.String()),
		Context: map[string]int64{"sequence": int64(sequence)},
	}
}

func errClockOverflowed(offset, limit uint64) error {
	return &Error{
		Kind:    KindClockOverflowed,
		Reason:  Reason(KindClockOverflowed.String()),
		Context: map[string]int64{"offset": int64(offset), "max": int64(limit)},
	}
}
