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
	"sync/atomic"
	"time"
)

func unixMilli() int64 {
	return time.Now().UnixMilli()
}

// ClockMock is a manually driven clock, it is used to simulate clock
// jitter in tests and to replay historical time.
//
//	clock := snowflake.NewClockMock(1000)
//	gen, _ := snowflake.New(snowflake.WithClock(clock.Now))
//	clock.Set(999)
type ClockMock struct {
	ms atomic.Int64
}

// Create mock instance of clock, set to unix milliseconds
func NewClockMock(ms int64) *ClockMock {
	clock := &ClockMock{}
	clock.ms.Store(ms)
	return clock
}

// Now returns current value of the clock, unix milliseconds
func (clock *ClockMock) Now() int64 { return clock.ms.Load() }

// Set moves the clock to given unix milliseconds, backward moves are allowed
func (clock *ClockMock) Set(ms int64) { clock.ms.Store(ms) }

// Tick moves the clock forward by given duration
func (clock *ClockMock) Tick(d time.Duration) { clock.ms.Add(d.Milliseconds()) }
