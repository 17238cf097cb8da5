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

package snowflake_test

import (
	"errors"
	"testing"
	"time"

	"github.com/fogfish/it/v2"
	"github.com/fogfish/snowflake"
)

const twitterEpoch = int64(1288834974657)

// mustNew creates generator with machine id 0 unless opts define one
func mustNew(t *testing.T, opts ...snowflake.Option) *snowflake.Snowflake {
	t.Helper()
	gen, err := snowflake.New(append([]snowflake.Option{snowflake.WithMachineID(0)}, opts...)...)
	if err != nil {
		t.Fatalf("unable to create generator: %v", err)
	}
	return gen
}

func mustGenerate[T snowflake.Integer](t *testing.T, gen *snowflake.Generator[T]) T {
	t.Helper()
	id, err := gen.Generate()
	if err != nil {
		t.Fatalf("unable to generate: %v", err)
	}
	return id
}

func TestDefaults(t *testing.T) {
	gen := mustNew(t)

	it.Then(t).Should(
		it.Equal(gen.ClockBits(), 41),
		it.Equal(gen.MachineBits(), 10),
		it.Equal(gen.SequenceBits(), 12),
		it.Equal(gen.MaxSequence(), 4095),
		it.Equal(gen.MaxMachineID(), 1023),
		it.Equal(gen.MachineID(), 0),
		it.Equal(gen.Epoch(), 0),
		it.Equal(gen.Layout().ClockShift, 22),
		it.Equal(gen.Layout().MachineShift, 12),
		it.Equal(gen.Layout().Budget, snowflake.Budget64),
	)
}

func TestGenerate(t *testing.T) {
	clock := snowflake.NewClockMock(123456789)
	gen := mustNew(t,
		snowflake.WithMachineID(123),
		snowflake.WithClock(clock.Now),
	)

	a := gen.Decode(mustGenerate(t, gen))
	b := gen.Decode(mustGenerate(t, gen))

	it.Then(t).Should(
		it.Equal(a, snowflake.Fields{Time: 123456789, Offset: 123456789, MachineID: 123, Sequence: 0}),
		it.Equal(b, snowflake.Fields{Time: 123456789, Offset: 123456789, MachineID: 123, Sequence: 1}),
	)
}

func TestGenerateBy(t *testing.T) {
	gen := mustNew(t, snowflake.WithMachineID(666))
	id, err := gen.GenerateBy(12345, 233)

	it.Then(t).Should(
		it.Nil(err),
		it.Equal(gen.Decode(id), snowflake.Fields{Time: 12345, Offset: 12345, MachineID: 666, Sequence: 233}),
	)
}

func TestGenerateByTwitter(t *testing.T) {
	gen := mustNew(t,
		snowflake.WithMachineID(0b0101111010),
		snowflake.WithEpoch(twitterEpoch),
	)
	id, err := gen.GenerateBy(1656432460105, 0)

	it.Then(t).Should(
		it.Nil(err),
		it.Equal(id, uint64(1541815603606036480)),
	)
}

func TestGenerateByDoesNotMutate(t *testing.T) {
	clock := snowflake.NewClockMock(5000)
	gen := mustNew(t, snowflake.WithClock(clock.Now))

	a := mustGenerate(t, gen)
	for i := uint64(0); i < 100; i++ {
		if _, err := gen.GenerateBy(5000, i); err != nil {
			t.Fatal(err)
		}
	}
	b := mustGenerate(t, gen)

	it.Then(t).Should(
		it.Equal(gen.Decode(a).Sequence, 0),
		it.Equal(gen.Decode(b).Sequence, 1),
	)
}

func TestFieldRoundTrip(t *testing.T) {
	epoch := twitterEpoch
	gen := mustNew(t,
		snowflake.WithMachineID(1023),
		snowflake.WithEpoch(epoch),
	)

	for _, ts := range []int64{epoch, epoch + 1, epoch + 1<<20, epoch + 1<<40, epoch + 1<<41 - 1} {
		for _, seq := range []uint64{0, 1, 2048, 4095} {
			id, err := gen.GenerateBy(ts, seq)
			if err != nil {
				t.Fatal(err)
			}

			it.Then(t).Should(
				it.Equal(id>>22, uint64(ts-epoch)),
				it.Equal(id>>12&0x3ff, 1023),
				it.Equal(id&0xfff, seq),
				it.Equal(gen.Decode(id).Time, ts),
			)
		}
	}
}

func TestSequenceResetOnTick(t *testing.T) {
	clock := snowflake.NewClockMock(123456789)
	gen := mustNew(t,
		snowflake.WithMachineID(123),
		snowflake.WithClock(clock.Now),
	)

	mustGenerate(t, gen)
	a := gen.Decode(mustGenerate(t, gen))

	clock.Tick(time.Millisecond)
	b := gen.Decode(mustGenerate(t, gen))

	clock.Tick(time.Second)
	c := gen.Decode(mustGenerate(t, gen))

	it.Then(t).Should(
		it.Equal(a.Sequence, 1),
		it.Equal(b.Offset, 123456790),
		it.Equal(b.Sequence, 0),
		it.Equal(c.Offset, 123457790),
		it.Equal(c.Sequence, 0),
	)
}

func TestSequenceOverflow(t *testing.T) {
	clock := snowflake.NewClockMock(123456789)
	gen := mustNew(t,
		snowflake.WithMachineID(123),
		snowflake.WithClock(clock.Now),
	)

	var last uint64
	for i := 0; i <= int(gen.MaxSequence()); i++ {
		last = mustGenerate(t, gen)
	}

	_, err := gen.Generate()
	_, errBy := gen.GenerateBy(1234, 4096)

	it.Then(t).Should(
		it.Equal(gen.Decode(last).Sequence, 4095),
		it.True(errors.Is(err, snowflake.ErrSequenceOverflowed)),
		it.True(errors.Is(errBy, snowflake.ErrSequenceOverflowed)),
	)

	// failed call does not consume state
	_, err = gen.Generate()
	it.Then(t).Should(
		it.True(errors.Is(err, snowflake.ErrSequenceOverflowed)),
	)

	clock.Tick(time.Millisecond)
	next := mustGenerate(t, gen)
	it.Then(t).Should(
		it.Equal(gen.Decode(next).Sequence, 0),
		it.True(next > last),
	)
}

func TestTimeBeforeEpoch(t *testing.T) {
	epoch := time.Date(2023, 11, 11, 22, 22, 22, 0, time.UTC)
	clock := snowflake.NewClockMock(epoch.UnixMilli() - 1000)
	gen := mustNew(t,
		snowflake.WithMachineID(12),
		snowflake.WithEpochTime(epoch),
		snowflake.WithClock(clock.Now),
	)

	_, err := gen.Generate()
	_, errBy := gen.GenerateBy(epoch.UnixMilli()-1000, 1)

	var e *snowflake.Error
	it.Then(t).Should(
		it.True(errors.Is(err, snowflake.ErrTimeBeforeEpoch)),
		it.True(errors.Is(errBy, snowflake.ErrTimeBeforeEpoch)),
		it.True(errors.As(err, &e)),
	)

	it.Then(t).Should(
		it.Equal(e.Kind, snowflake.KindTimeBeforeEpoch),
		it.Equal(e.Context["epoch"], epoch.UnixMilli()),
		it.Equal(e.Context["time"], epoch.UnixMilli()-1000),
	)
}

func TestTimeReversedThrow(t *testing.T) {
	epoch := twitterEpoch
	clock := snowflake.NewClockMock(epoch + 1000)
	gen := mustNew(t,
		snowflake.WithEpoch(epoch),
		snowflake.WithClock(clock.Now),
	)

	a := mustGenerate(t, gen)

	clock.Set(epoch + 999)
	_, err := gen.Generate()

	it.Then(t).Should(
		it.True(errors.Is(err, snowflake.ErrTimeReversed)),
	)

	// generator is usable once the clock catches up
	clock.Set(epoch + 1000)
	b := mustGenerate(t, gen)

	it.Then(t).Should(
		it.Equal(gen.Decode(b).Offset, 1000),
		it.Equal(gen.Decode(b).Sequence, 1),
		it.True(b > a),
	)
}

func TestTimeReversedUseReversedTime(t *testing.T) {
	epoch := twitterEpoch
	clock := snowflake.NewClockMock(epoch + 1000)
	gen := mustNew(t,
		snowflake.WithEpoch(epoch),
		snowflake.WithClock(clock.Now),
		snowflake.WithTimeReversed(snowflake.UseReversedTime),
	)

	mustGenerate(t, gen)

	clock.Set(epoch + 999)
	b := gen.Decode(mustGenerate(t, gen))

	it.Then(t).Should(
		it.Equal(b.Offset, 999),
		it.Equal(b.Sequence, 0),
	)
}

func TestTimeReversedUsePreviousTime(t *testing.T) {
	epoch := twitterEpoch
	clock := snowflake.NewClockMock(epoch + 1000)
	gen := mustNew(t,
		snowflake.WithEpoch(epoch),
		snowflake.WithClock(clock.Now),
		snowflake.WithTimeReversed(snowflake.UsePreviousTime),
	)

	a := mustGenerate(t, gen)

	clock.Set(epoch + 999)
	b := mustGenerate(t, gen)

	it.Then(t).Should(
		it.Equal(gen.Decode(b).Offset, 1000),
		it.Equal(gen.Decode(b).Sequence, 1),
		it.True(b > a),
	)
}

func TestResetThreshold(t *testing.T) {
	clock := snowflake.NewClockMock(10000)
	gen := mustNew(t,
		snowflake.WithClock(clock.Now),
		snowflake.WithSequenceResetThreshold(5),
	)

	seqOf := func() uint64 { return gen.Decode(mustGenerate(t, gen)).Sequence }

	// first tick counts 0..2, below threshold
	it.Then(t).Should(
		it.Equal(seqOf(), 0),
		it.Equal(seqOf(), 1),
		it.Equal(seqOf(), 2),
	)

	// next tick continues from 3 and passes the threshold
	clock.Tick(time.Millisecond)
	it.Then(t).Should(
		it.Equal(seqOf(), 3),
		it.Equal(seqOf(), 4),
		it.Equal(seqOf(), 5),
	)

	// the counter is 6 >= 5, it is reset
	clock.Tick(time.Millisecond)
	it.Then(t).Should(
		it.Equal(seqOf(), 0),
	)
}

func TestResetThresholdExact(t *testing.T) {
	clock := snowflake.NewClockMock(10000)
	gen := mustNew(t,
		snowflake.WithClock(clock.Now),
		snowflake.WithSequenceResetThreshold(5),
	)

	for i := uint64(0); i < 5; i++ {
		id := mustGenerate(t, gen)
		it.Then(t).Should(
			it.Equal(gen.Decode(id).Sequence, i),
		)
	}

	clock.Tick(time.Millisecond)
	id := mustGenerate(t, gen)
	it.Then(t).Should(
		it.Equal(gen.Decode(id).Sequence, 0),
	)
}

func TestKeepCurrent(t *testing.T) {
	clock := snowflake.NewClockMock(10000)
	gen := mustNew(t,
		snowflake.WithClock(clock.Now),
		snowflake.WithMachineBits(20),
		snowflake.WithSequenceBits(2),
		snowflake.WithTimeChanged(snowflake.KeepCurrent{}),
	)

	seq := []uint64{}
	for i := 0; i < 6; i++ {
		clock.Tick(time.Millisecond)
		seq = append(seq, gen.Decode(mustGenerate(t, gen)).Sequence)
	}

	it.Then(t).Should(
		it.Equal(gen.SequenceBits(), 2),
		it.Equal(gen.ClockBits(), 41),
		it.Equal(seq[0], 0),
		it.Equal(seq[1], 1),
		it.Equal(seq[2], 2),
		it.Equal(seq[3], 3),
		it.Equal(seq[4], 0),
		it.Equal(seq[5], 1),
	)
}

func TestCustomSeesUnmaskedSequence(t *testing.T) {
	clock := snowflake.NewClockMock(10000)
	seen := []uint64{}
	gen := mustNew(t,
		snowflake.WithClock(clock.Now),
		snowflake.WithMachineBits(19),
		snowflake.WithSequenceBits(3),
		snowflake.WithTimeChanged(snowflake.Custom(func(seq uint64) uint64 {
			seen = append(seen, seq)
			return seq + 10
		})),
	)

	a := gen.Decode(mustGenerate(t, gen))
	clock.Tick(time.Millisecond)
	b := gen.Decode(mustGenerate(t, gen))

	it.Then(t).Should(
		it.Equal(len(seen), 2),
		it.Equal(seen[0], 0),
		it.Equal(seen[1], 11),
		it.Equal(a.Sequence, 10&7),
		it.Equal(b.Sequence, 21&7),
	)
}

func TestClockOverflowed(t *testing.T) {
	gen := mustNew(t)

	_, err := gen.GenerateBy(1<<41, 0)
	it.Then(t).Should(
		it.True(errors.Is(err, snowflake.ErrClockOverflowed)),
	)

	clock := snowflake.NewClockMock(1 << 41)
	gen = mustNew(t, snowflake.WithClock(clock.Now))
	_, err = gen.Generate()
	it.Then(t).Should(
		it.True(errors.Is(err, snowflake.ErrClockOverflowed)),
	)
}

func TestMonotonicUnique(t *testing.T) {
	gen := mustNew(t, snowflake.WithMachineID(7))

	seen := make(map[uint64]struct{}, 20000)
	prev := uint64(0)
	for len(seen) < 20000 {
		id, err := gen.Generate()
		if errors.Is(err, snowflake.ErrSequenceOverflowed) {
			continue
		}
		if err != nil {
			t.Fatal(err)
		}

		if id < prev {
			t.Fatalf("non monotonic %d < %d", id, prev)
		}
		if _, has := seen[id]; has {
			t.Fatalf("duplicate %d", id)
		}

		seen[id] = struct{}{}
		prev = id
	}
}

func TestInvalidSettings(t *testing.T) {
	for name, opts := range map[string][]snowflake.Option{
		"negative machine id":   {snowflake.WithMachineID(-1)},
		"large machine id":      {snowflake.WithMachineID(1024)},
		"negative epoch":        {snowflake.WithEpoch(-1)},
		"bits do not sum":       {snowflake.WithClockBits(41), snowflake.WithMachineBits(10), snowflake.WithSequenceBits(10)},
		"zero machine bits":     {snowflake.WithMachineBits(0), snowflake.WithSequenceBits(22)},
		"narrow clock":          {snowflake.WithClockBits(32)},
		"negative threshold":    {snowflake.WithSequenceResetThreshold(-1)},
		"large threshold":       {snowflake.WithSequenceResetThreshold(4096)},
		"unknown time reversed": {snowflake.WithTimeReversed(snowflake.TimeReversed(7))},
		"nil custom":            {snowflake.WithTimeChanged(snowflake.Custom(nil))},
		"nil time changed":      {snowflake.WithTimeChanged(nil)},
		"nil clock":             {snowflake.WithClock(nil)},
		"nil reset pointer":     {snowflake.WithTimeChanged((*snowflake.Reset)(nil))},
		"large reset pointer":   {snowflake.WithTimeChanged(&snowflake.Reset{Threshold: 4096})},
	} {
		t.Run(name, func(t *testing.T) {
			gen, err := snowflake.New(append([]snowflake.Option{snowflake.WithMachineID(1)}, opts...)...)
			it.Then(t).Should(
				it.True(gen == nil),
				it.True(errors.Is(err, snowflake.ErrInvalidSettings)),
			)
		})
	}
}

func TestInvalidSettingsReason(t *testing.T) {
	_, err := snowflake.New(snowflake.WithMachineID(2000))

	var e *snowflake.Error
	it.Then(t).Should(
		it.True(errors.As(err, &e)),
	)
	it.Then(t).Should(
		it.Equal(e.Reason, snowflake.ReasonInvalidMachineID),
		it.Equal(e.Context["machineId"], 2000),
		it.Equal(e.Context["machineBitWidth"], 10),
		it.True(errors.Is(err, &snowflake.Error{Kind: snowflake.KindInvalidSettings, Reason: snowflake.ReasonInvalidMachineID})),
		it.True(!errors.Is(err, &snowflake.Error{Kind: snowflake.KindInvalidSettings, Reason: snowflake.ReasonInvalidEpoch})),
	)
}

func TestDerivedWidths(t *testing.T) {
	a := mustNew(t, snowflake.WithMachineBits(14))
	b := mustNew(t, snowflake.WithSequenceBits(9))
	c := mustNew(t, snowflake.WithClockBits(42), snowflake.WithMachineBits(12))

	it.Then(t).Should(
		it.Equal(a.SequenceBits(), 8),
		it.Equal(b.MachineBits(), 13),
		it.Equal(c.SequenceBits(), 9),
	)
}

func TestMachineIDRequired(t *testing.T) {
	gen, err := snowflake.New()
	_, errSafe := snowflake.NewSafe(snowflake.WithEpoch(snowflake.MinEpoch40))

	var e *snowflake.Error
	it.Then(t).Should(
		it.True(gen == nil),
		it.True(errors.Is(err, snowflake.ErrInvalidSettings)),
		it.True(errors.Is(errSafe, snowflake.ErrInvalidSettings)),
		it.True(errors.As(err, &e)),
	)
	it.Then(t).Should(
		it.Equal(e.Reason, snowflake.ReasonInvalidMachineID),
		it.Equal(e.Context["machineBitWidth"], 10),
	)
}

func TestInvalidClock(t *testing.T) {
	_, err := snowflake.New(snowflake.WithMachineID(1), snowflake.WithClock(nil))

	var e *snowflake.Error
	it.Then(t).Should(
		it.True(errors.As(err, &e)),
	)
	it.Then(t).Should(
		it.Equal(e.Reason, snowflake.ReasonInvalidClock),
		it.Equal(len(e.Context), 0),
		it.Equal(err.Error(), "snowflake: invalid_settings (invalid_clock)"),
	)
}

func TestTimeChangedPointers(t *testing.T) {
	clock := snowflake.NewClockMock(10000)
	keep := mustNew(t,
		snowflake.WithClock(clock.Now),
		snowflake.WithMachineBits(20),
		snowflake.WithSequenceBits(2),
		snowflake.WithTimeChanged(&snowflake.KeepCurrent{}),
	)
	reset := mustNew(t,
		snowflake.WithClock(clock.Now),
		snowflake.WithTimeChanged(&snowflake.Reset{Threshold: 2}),
	)

	seqOf := func(gen *snowflake.Snowflake) uint64 {
		return gen.Decode(mustGenerate(t, gen)).Sequence
	}

	a := seqOf(keep)
	r := seqOf(reset)
	clock.Tick(time.Millisecond)
	b := seqOf(keep)
	s := seqOf(reset)
	clock.Tick(time.Millisecond)
	u := seqOf(reset)

	it.Then(t).Should(
		it.Equal(a, 0),
		it.Equal(b, 1),
		it.Equal(r, 0),
		it.Equal(s, 1),
		it.Equal(u, 0),
	)
}
