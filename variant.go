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

// Integer is the set of identifier types supported by generators.
type Integer interface {
	~uint64 | ~int64
}

// variant defines bit budget and permitted widths of the identifier.
type variant struct {
	name           string
	budget         int
	clock          span
	machine        span
	sequence       span
	clockDefault   int
	machineDefault int
}

// 64-bit identifier, the sign bit is reserved.
//
//	1bit    41 bit         10 bit       12 bit
//	|-|------------------|------------|---------|
//	 0        ⟨𝒕⟩             ⟨𝒍⟩           ⟨𝒔⟩
var variant64 = variant{
	name:           "snowflake",
	budget:         63,
	clock:          span{40, 50},
	machine:        span{1, 20},
	sequence:       span{1, 20},
	clockDefault:   41,
	machineDefault: 10,
}

// 53-bit identifier, fits into IEEE 754 double without precision loss.
//
//	   40 bit          5 bit    8 bit
//	|----------------|-------|--------|
//	      ⟨𝒕⟩           ⟨𝒍⟩      ⟨𝒔⟩
var variantSafe = variant{
	name:           "snowflake-si",
	budget:         53,
	clock:          span{40, 41},
	machine:        span{1, 12},
	sequence:       span{1, 12},
	clockDefault:   40,
	machineDefault: 5,
}

// Bit budgets of supported variants
const (
	Budget64   = 63
	BudgetSafe = 53
)

// MinEpoch40 is the earliest epoch permitted with 40-bit clock,
// 2003-03-18T07:20:19.225Z.
const MinEpoch40 int64 = 1047972019225

// MaxSafeInteger is the largest integer exactly representable as float64.
const MaxSafeInteger int64 = 1<<53 - 1
