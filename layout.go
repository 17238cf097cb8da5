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

// Layout of fields within identifier
//
//	 clock bits     machine bits   sequence bits
//	|--------------|--------------|-------------|
//	⟨𝒕⟩             ⟨𝒍⟩             ⟨𝒔⟩
type Layout struct {
	Budget       int
	ClockBits    int
	MachineBits  int
	SequenceBits int

	ClockShift   int
	MachineShift int

	MaxClock     uint64
	MaxMachineID uint64
	MaxSequence  uint64
}

// bits requested by the application, zero value of the pointer is "derive".
type widths struct {
	clock, machine, sequence *int
}

// span is inclusive range of allowed field width
type span struct{ lo, hi int }

func (s span) has(x int) bool { return x >= s.lo && x <= s.hi }

// newLayout derives missing widths and validates the result against
// variant. Layout never clamps, any violation is ErrInvalidSettings.
func newLayout(v variant, w widths) (Layout, error) {
	clock := v.clockDefault
	if w.clock != nil {
		clock = *w.clock
	}

	var machine, sequence int
	switch {
	case w.machine == nil && w.sequence == nil:
		machine = v.machineDefault
		sequence = v.budget - clock - machine
	case w.machine == nil:
		sequence = *w.sequence
		machine = v.budget - clock - sequence
	case w.sequence == nil:
		machine = *w.machine
		sequence = v.budget - clock - machine
	default:
		machine, sequence = *w.machine, *w.sequence
	}

	if !v.clock.has(clock) ||
		!v.machine.has(machine) ||
		!v.sequence.has(sequence) ||
		clock+machine+sequence != v.budget {
		return Layout{}, errInvalidSettings(ReasonInvalidBitWidth, map[string]int64{
			"clockBitWidth":    int64(clock),
			"machineBitWidth":  int64(machine),
			"sequenceBitWidth": int64(sequence),
			"budget":           int64(v.budget),
		})
	}

	return Layout{
		Budget:       v.budget,
		ClockBits:    clock,
		MachineBits:  machine,
		SequenceBits: sequence,
		ClockShift:   machine + sequence,
		MachineShift: sequence,
		MaxClock:     1<<clock - 1,
		MaxMachineID: 1<<machine - 1,
		MaxSequence:  1<<sequence - 1,
	}, nil
}

// pack composes identifier, sequence is masked to the field width.
func (l Layout) pack(t, machine, seq uint64) uint64 {
	return t<<l.ClockShift | machine<<l.MachineShift | seq&l.MaxSequence
}

// unpack is inverse of pack
func (l Layout) unpack(id uint64) (t, machine, seq uint64) {
	t = id >> l.ClockShift & l.MaxClock
	machine = id >> l.MachineShift & l.MaxMachineID
	seq = id & l.MaxSequence
	return
}

// minEpoch is the earliest epoch that keeps 2038-01-19T03:14:07Z within
// the clock field of given width.
func minEpoch(clockBits int) int64 {
	capacity := int64(1)<<clockBits - 1
	if capacity >= y2038 {
		return 0
	}
	return y2038 - capacity
}

// 2038-01-19T03:14:07Z in unix milliseconds
const y2038 = int64(2147483647000)
