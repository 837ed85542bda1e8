// Copyright 2010-2024 Google LLC
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package integer holds the small set of value types and external-collaborator
// interfaces that the precedence and search packages are built against: the
// integer/Boolean variable handles, and the trail services that own their
// bounds and assignments.
//
// Nothing in this package stores solver state. It is the shared vocabulary
// other packages use to talk about variables without depending on whichever
// concrete trail implementation a caller plugs in.
package integer

import "fmt"

// Variable is a handle to an integer variable, or to its negation. Variables
// are allocated in pairs: a variable v and its negation share the same pair
// index, and NegationOf toggles the low bit to move between them. This
// mirrors how the CP-SAT core lays out IntegerVariable indices so that a
// newtype int and a handful of bit tricks are enough to get constant-time
// negation with no auxiliary table.
type Variable int32

// NoVariable is the sentinel for "no such variable", used for optional
// offset_var fields and negated references that do not apply.
const NoVariable Variable = -1

// Negation returns ¬v, the paired variable with lower(¬v) = -upper(v).
func (v Variable) Negation() Variable {
	if v == NoVariable {
		return NoVariable
	}
	return v ^ 1
}

// IsPositive reports whether v is the positive half of its negation pair.
func (v Variable) IsPositive() bool {
	return v&1 == 0
}

// PositiveVariable returns v or its negation, whichever is the positive half.
func PositiveVariable(v Variable) Variable {
	return v &^ 1
}

func (v Variable) String() string {
	if v == NoVariable {
		return "<none>"
	}
	return fmt.Sprintf("v%d", int32(v))
}

// Literal is a handle to a Boolean literal, or to its negation, laid out the
// same way as Variable: a literal and its negation share a pair index and
// Negated flips the low bit.
type Literal int32

// NoLiteral is the sentinel for "no such literal".
const NoLiteral Literal = -1

// Negated returns the Boolean negation of l.
func (l Literal) Negated() Literal {
	if l == NoLiteral {
		return NoLiteral
	}
	return l ^ 1
}

func (l Literal) String() string {
	if l == NoLiteral {
		return "<none>"
	}
	if l&1 == 1 {
		return fmt.Sprintf("¬l%d", int32(l^1))
	}
	return fmt.Sprintf("l%d", int32(l))
}

// IntegerLiteral is the atomic bound statement "Var >= Bound". Because
// lower(¬v) = -upper(v), "Var <= Bound" is represented as the equivalent
// statement about the negation, so a single shape covers both directions.
type IntegerLiteral struct {
	Var   Variable
	Bound int64
}

// GreaterOrEqual builds the literal "v >= bound".
func GreaterOrEqual(v Variable, bound int64) IntegerLiteral {
	return IntegerLiteral{Var: v, Bound: bound}
}

// LowerOrEqual builds the literal "v <= bound" using the negation identity.
func LowerOrEqual(v Variable, bound int64) IntegerLiteral {
	return IntegerLiteral{Var: v.Negation(), Bound: -bound}
}

func (l IntegerLiteral) String() string {
	if l.Var.IsPositive() {
		return fmt.Sprintf("%s>=%d", l.Var, l.Bound)
	}
	return fmt.Sprintf("%s<=%d", PositiveVariable(l.Var), -l.Bound)
}

// SortAndDedupeLiterals sorts lits and removes duplicates in place, returning
// the deduplicated slice. Arcs keep their presence literals canonicalized
// this way so that count maintenance and reason construction never double
// count a literal.
func SortAndDedupeLiterals(lits []Literal) []Literal {
	if len(lits) < 2 {
		return lits
	}
	sortLiterals(lits)
	n := 1
	for i := 1; i < len(lits); i++ {
		if lits[i] != lits[n-1] {
			lits[n] = lits[i]
			n++
		}
	}
	return lits[:n]
}

func sortLiterals(lits []Literal) {
	// Small helper kept local: insertion sort is plenty for the handful of
	// presence literals a single arc ever carries.
	for i := 1; i < len(lits); i++ {
		for j := i; j > 0 && lits[j-1] > lits[j]; j-- {
			lits[j-1], lits[j] = lits[j], lits[j-1]
		}
	}
}

// ContainsLiteral reports whether lits (assumed sorted) contains l.
func ContainsLiteral(lits []Literal, l Literal) bool {
	for _, x := range lits {
		if x == l {
			return true
		}
	}
	return false
}

// RemoveLiteral returns lits with the first occurrence of l removed.
func RemoveLiteral(lits []Literal, l Literal) []Literal {
	for i, x := range lits {
		if x == l {
			return append(lits[:i], lits[i+1:]...)
		}
	}
	return lits
}
