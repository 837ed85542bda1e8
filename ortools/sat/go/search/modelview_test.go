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

package search

import (
	"testing"

	"github.com/cpsat-go/precedence/ortools/sat/go/integer"
)

// fakeMapping is a VariableMapping over disjoint Boolean and integer
// reference ranges: refs below boolCount are Boolean, the rest integer.
type fakeMapping struct {
	boolCount int
	literals  []integer.Literal
	variables []integer.Variable
}

func (m fakeMapping) IsBoolean(ref int) bool { return ref < m.boolCount }
func (m fakeMapping) IsInteger(ref int) bool { return ref >= m.boolCount }
func (m fakeMapping) Literal(ref int) integer.Literal {
	return m.literals[ref]
}
func (m fakeMapping) Integer(ref int) integer.Variable {
	return m.variables[ref-m.boolCount]
}

type fakeAssignment struct {
	trueLits map[integer.Literal]bool
}

func (a fakeAssignment) LiteralIsTrue(l integer.Literal) bool  { return a.trueLits[l] }
func (a fakeAssignment) LiteralIsFalse(l integer.Literal) bool { return a.trueLits[l.Negated()] }
func (a fakeAssignment) LiteralIsAssigned(l integer.Literal) bool {
	return a.trueLits[l] || a.trueLits[l.Negated()]
}

type fakeIntegerTrail struct {
	lb, ub map[integer.Variable]int64
}

func (t fakeIntegerTrail) LowerBound(v integer.Variable) int64          { return t.lb[v] }
func (t fakeIntegerTrail) UpperBound(v integer.Variable) int64          { return t.ub[v] }
func (t fakeIntegerTrail) LevelZeroLowerBound(v integer.Variable) int64 { return t.lb[v] }
func (t fakeIntegerTrail) LevelZeroUpperBound(v integer.Variable) int64 { return t.ub[v] }
func (t fakeIntegerTrail) LowerBoundAsLiteral(v integer.Variable) integer.IntegerLiteral {
	return integer.GreaterOrEqual(v, t.lb[v])
}
func (t fakeIntegerTrail) UpperBoundAsLiteral(v integer.Variable) integer.IntegerLiteral {
	return integer.LowerOrEqual(v, t.ub[v])
}
func (t fakeIntegerTrail) IsFixed(v integer.Variable) bool                  { return t.lb[v] == t.ub[v] }
func (t fakeIntegerTrail) IsOptional(integer.Variable) bool                 { return false }
func (t fakeIntegerTrail) IsIgnoredLiteral(integer.Variable) integer.Literal { return integer.NoLiteral }
func (t fakeIntegerTrail) IsCurrentlyIgnored(integer.Variable) bool         { return false }
func (t fakeIntegerTrail) Enqueue(integer.IntegerLiteral, []integer.Literal, []integer.IntegerLiteral) bool {
	return true
}
func (t fakeIntegerTrail) EnqueueLiteral(integer.Literal, []integer.Literal, []integer.IntegerLiteral) bool {
	return true
}
func (t fakeIntegerTrail) ReportConflict([]integer.Literal, []integer.IntegerLiteral) bool {
	return false
}
func (t fakeIntegerTrail) RelaxLinearReason(int64, []int64, *[]integer.IntegerLiteral) {}
func (t fakeIntegerTrail) NumIntegerVariables() int                                    { return len(t.lb) }

type fakeEncoder struct {
	encodings map[integer.Variable][]integer.ValueLiteralPair
}

func (e fakeEncoder) VariableIsFullyEncoded(v integer.Variable) bool {
	return len(e.encodings[v]) > 0
}
func (e fakeEncoder) RawDomainEncoding(v integer.Variable) []integer.ValueLiteralPair {
	return e.encodings[v]
}
func (e fakeEncoder) AssociatedIntegerLiterals(integer.Literal) []integer.IntegerLiteral {
	return nil
}

func TestModelView_MedianValuePicksLowerMiddleOnEvenCount(t *testing.T) {
	v := integer.Variable(10)
	encoding := []integer.ValueLiteralPair{
		{Value: 3, Literal: integer.Literal(0)},
		{Value: 1, Literal: integer.Literal(2)},
		{Value: 4, Literal: integer.Literal(4)},
		{Value: 2, Literal: integer.Literal(6)},
	}
	mapping := fakeMapping{boolCount: 0, variables: []integer.Variable{v}}
	assignment := fakeAssignment{}
	trail := fakeIntegerTrail{lb: map[integer.Variable]int64{v: 1}, ub: map[integer.Variable]int64{v: 4}}
	encoder := fakeEncoder{encodings: map[integer.Variable][]integer.ValueLiteralPair{v: encoding}}

	view := NewModelView(mapping, assignment, trail, encoder)
	decision := view.MedianValue(0)
	if !decision.HasValue() {
		t.Fatalf("MedianValue(0) produced no decision")
	}
	// Sorted unassigned values are [1,2,3,4]; lower-median target is value 2,
	// whose literal is 6.
	if got, want := decision.BooleanLiteral, integer.Literal(6); got != want {
		t.Errorf("MedianValue(0).BooleanLiteral = %v, want %v", got, want)
	}
}

func TestModelView_IsFixedForBooleanAndInteger(t *testing.T) {
	v := integer.Variable(20)
	l := integer.Literal(0)
	mapping := fakeMapping{boolCount: 1, literals: []integer.Literal{l}, variables: []integer.Variable{v}}
	assignment := fakeAssignment{trueLits: map[integer.Literal]bool{l: true}}
	trail := fakeIntegerTrail{lb: map[integer.Variable]int64{v: 5}, ub: map[integer.Variable]int64{v: 5}}
	view := NewModelView(mapping, assignment, trail, fakeEncoder{})

	if !view.IsFixed(0) {
		t.Errorf("IsFixed(boolean ref) = false, want true (literal is assigned true)")
	}
	if !view.IsFixed(1) {
		t.Errorf("IsFixed(integer ref) = false, want true (lb == ub)")
	}
}

func TestModelView_GreaterOrEqualOnBooleanRef(t *testing.T) {
	l := integer.Literal(0)
	mapping := fakeMapping{boolCount: 1, literals: []integer.Literal{l}}
	view := NewModelView(mapping, fakeAssignment{}, fakeIntegerTrail{lb: map[integer.Variable]int64{}, ub: map[integer.Variable]int64{}}, fakeEncoder{})

	d := view.GreaterOrEqual(0, 1)
	if d.BooleanLiteral != l {
		t.Errorf("GreaterOrEqual(0, 1).BooleanLiteral = %v, want %v", d.BooleanLiteral, l)
	}
	d = view.LowerOrEqual(0, 0)
	if d.BooleanLiteral != l.Negated() {
		t.Errorf("LowerOrEqual(0, 0).BooleanLiteral = %v, want %v", d.BooleanLiteral, l.Negated())
	}
}
