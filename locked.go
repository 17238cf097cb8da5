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
	"context"
	"errors"
	"sync"
	"time"
)

// Locked serialises access to generator, it is safe for concurrent use.
type Locked[T Integer] struct {
	mu  sync.Mutex
	gen *Generator[T]
}

// NewLocked wraps generator. The generator must not be used directly afterwards.
func NewLocked[T Integer](gen *Generator[T]) *Locked[T] {
	return &Locked[T]{gen: gen}
}

// Generate is Generator.Generate guarded by mutex
func (l *Locked[T]) Generate() (T, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.gen.Generate()
}

// GenerateBatch returns n identifiers or none. The generator state is
// preserved when the batch fails. Batch of n <= 0 is empty.
func (l *Locked[T]) GenerateBatch(n int) ([]T, error) {
	if n <= 0 {
		return []T{}, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	snapshot := l.gen.state()

	ids := make([]T, 0, n)
	for i := 0; i < n; i++ {
		id, err := l.gen.Generate()
		if err != nil {
			l.gen.restore(snapshot)
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, nil
}

// Next generates identifier, it waits for the next millisecond when
// sequence of current one is exhausted. Other failures are returned as-is.
func (l *Locked[T]) Next(ctx context.Context) (T, error) {
	for {
		l.mu.Lock()
		id, err := l.gen.Generate()
		l.mu.Unlock()

		if err == nil || !errors.Is(err, ErrSequenceOverflowed) {
			return id, err
		}

		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(time.Millisecond / 8):
		}
	}
}

// Generator returns wrapped generator for introspection and decoding
func (l *Locked[T]) Generator() *Generator[T] { return l.gen }

type state struct{ prevTime, sequence, count uint64 }

func (g *Generator[T]) state() state {
	return state{g.prevTime, g.sequence, g.count}
}

func (g *Generator[T]) restore(s state) {
	g.prevTime, g.sequence, g.count = s.prevTime, s.sequence, s.count
}
