/*

  Copyright 2012 Dmitry Kolesnikov, All Rights Reserved

  Licensed under the Apache License, Version 2.0 (the "License");
  you may not use this file except in compliance with the License.
  You may obtain a copy of the License at

      http://www.apache.org/licenses/LICENSE-2.0

  Unless required by applicable law or agreed to in writing, software
  distributed under the License is distributed on an "AS IS" BASIS,
  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
  See the License for the specific language governing permissions and
  limitations under the License.

*/

/*
Package snowflake implements generators of compact, sortable numeric
identifiers. Identifier is a triple ⟨𝒕, 𝒍, 𝒔⟩ packed into single integer:

↣ ⟨𝒕⟩ milliseconds since configured epoch, the primary sorting key.

↣ ⟨𝒍⟩ machine (shard) id, assigned by the application to each generator.

↣ ⟨𝒔⟩ sequence, it disambiguates identifiers issued within one millisecond.

# Identity Schema

Two variants share the same algorithm at different widths. The 64-bit
variant reserves the sign bit and uses 63 bits, the default layout is
bit compatible with Twitter Snowflake:

	1bit    41 bit         10 bit       12 bit
	|-|------------------|------------|---------|
	 0        ⟨𝒕⟩             ⟨𝒍⟩           ⟨𝒔⟩

The safe-integer variant uses 53 bits so that identifier survives a trip
through IEEE 754 double (e.g. JavaScript number). Its clock is 40 or 41
bits, the 40 bit clock requires epoch not earlier than MinEpoch40.

	   40 bit          5 bit    8 bit
	|----------------|-------|--------|
	      ⟨𝒕⟩           ⟨𝒍⟩      ⟨𝒔⟩

Widths of fields are configurable, unset width is derived from the bit budget.

# Clock

Generator samples wall clock on every call. When the clock moves backward
it applies TimeReversed policy: Throw, UseReversedTime or UsePreviousTime.
When the clock advances it applies TimeChanged policy to the sequence:
Reset, KeepCurrent or Custom function.

	gen, err := snowflake.New(
		snowflake.WithMachineID(378),
		snowflake.WithEpoch(1288834974657),
		snowflake.WithTimeReversed(snowflake.UsePreviousTime),
	)

	id, err := gen.Generate()

Every failure is *Error with Kind and Context of offending values. A failed
call does not mutate the generator. Generator is not safe for concurrent
use, wrap it with Locked or run one generator per goroutine with distinct
machine ids.
*/
package snowflake
