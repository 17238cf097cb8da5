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
	"fmt"
	"strconv"
	"time"
)

/*******************************************************************************

Lenses of identifier

*******************************************************************************/

// Fields of identifier
type Fields struct {
	// Time is ⟨𝒕⟩ as unix milliseconds, the epoch is added back
	Time int64
	// Offset is the raw ⟨𝒕⟩ value, milliseconds since epoch
	Offset    uint64
	MachineID uint64
	Sequence  uint64
}

// Decode splits identifier to ⟨𝒕, 𝒍, 𝒔⟩ using the layout of generator
func (g *Generator[T]) Decode(id T) Fields {
	t, machine, seq := g.layout.unpack(uint64(id))
	return Fields{
		Time:      int64(t) + g.epoch,
		Offset:    t,
		MachineID: machine,
		Sequence:  seq,
	}
}

// Time returns ⟨𝒕⟩ of identifier as time.Time
func (g *Generator[T]) Time(id T) time.Time {
	return time.UnixMilli(g.Decode(id).Time)
}

// Format encodes identifier as integer in the given base, 2 <= base <= 36
func Format[T Integer](id T, base int) string {
	return strconv.FormatUint(uint64(id), base)
}

/*******************************************************************************

Lexicographically sortable encoding

*******************************************************************************/

var alphabet = []byte{
	'.', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9', 'A', 'B', 'C', 'D', 'E',
	'F', 'G', 'H', 'I', 'J', 'K', 'L', 'M', 'N', 'O', 'P', 'Q', 'R', 'S', 'T', 'U',
	'V', 'W', 'X', 'Y', 'Z', '_', 'a', 'b', 'c', 'd', 'e', 'f', 'g', 'h', 'i', 'j',
	'k', 'l', 'm', 'n', 'o', 'p', 'q', 'r', 's', 't', 'u', 'v', 'w', 'x', 'y', 'z',
}

// 64 bits are encoded by 11 symbols of 6 bits, top 2 bits are always 0
const encodedLen = 11

// Encode identifier to lexicographically sortable string of fixed length.
// The order of strings is the same as order of integers.
func Encode[T Integer](id T) string {
	x := uint64(id)
	b := make([]byte, encodedLen)
	for i := encodedLen - 1; i >= 0; i-- {
		b[i] = alphabet[x&0x3f]
		x >>= 6
	}
	return string(b)
}

// DecodeString is inverse to Encode
func DecodeString(s string) (uint64, error) {
	if len(s) != encodedLen {
		return 0, fmt.Errorf("malformed snowflake %q: length %d", s, len(s))
	}

	var x uint64
	for i := 0; i < len(s); i++ {
		var v byte
		switch c := s[i]; {
		case c == '.':
			v = 0
		case c >= '0' && c <= '9':
			v = c - '0' + 1
		case c >= 'A' && c <= 'Z':
			v = c - 'A' + 11
		case c == '_':
			v = 37
		case c >= 'a' && c <= 'z':
			v = c - 'a' + 38
		default:
			return 0, fmt.Errorf("malformed snowflake %q: symbol %q", s, c)
		}

		if i == 0 && v > 0xf {
			return 0, fmt.Errorf("malformed snowflake %q: overflow", s)
		}
		x = x<<6 | uint64(v)
	}

	return x, nil
}
