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

// Package search builds decision functions — closures that pick the next
// branching literal — from a model's declared search strategy, and
// enumerates the fixed portfolio of solver-parameter variations a
// multi-worker run fans out across.
//
// Nothing here runs a search; it only decides, given the current state of
// an external trail, what the next decision ought to be.
package search

import (
	"sort"

	"github.com/cpsat-go/precedence/ortools/sat/go/integer"
)

// BooleanOrIntegerLiteral is the decision a strategy produces: either a
// Boolean literal to assert, or an integer bound to enqueue, never both. A
// value with BooleanLiteral == NoLiteral and no integer bound means "no
// decision available".
type BooleanOrIntegerLiteral struct {
	BooleanLiteral integer.Literal
	IntegerLiteral integer.IntegerLiteral
	hasInteger     bool
}

// HasValue reports whether a decision was actually produced.
func (d BooleanOrIntegerLiteral) HasValue() bool {
	return d.BooleanLiteral != integer.NoLiteral || d.hasInteger
}

func booleanDecision(l integer.Literal) BooleanOrIntegerLiteral {
	return BooleanOrIntegerLiteral{BooleanLiteral: l}
}

func integerDecision(l integer.IntegerLiteral) BooleanOrIntegerLiteral {
	return BooleanOrIntegerLiteral{BooleanLiteral: integer.NoLiteral, IntegerLiteral: l, hasInteger: true}
}

// ModelView unifies access to Boolean and integer model variables behind
// the single vocabulary a search strategy needs: fixed-ness, current
// bounds, and the literal that would tighten a bound to a target value.
// Model-level variable references follow the same negated-reference
// convention as integer.PositiveRef: ref >= 0 means the variable directly,
// ref < 0 its Boolean negation.
type ModelView struct {
	mapping    integer.VariableMapping
	assignment integer.Assignment
	trail      integer.IntegerTrail
	encoder    integer.Encoder
}

// NewModelView builds a view over the given collaborators. None of them are
// owned or mutated by the view; it only reads through them.
func NewModelView(mapping integer.VariableMapping, assignment integer.Assignment, trail integer.IntegerTrail, encoder integer.Encoder) *ModelView {
	return &ModelView{mapping: mapping, assignment: assignment, trail: trail, encoder: encoder}
}

// IsFixed reports whether var's value is already determined.
func (v *ModelView) IsFixed(varRef int) bool {
	if v.mapping.IsBoolean(varRef) {
		l := v.mapping.Literal(varRef)
		return v.assignment.LiteralIsAssigned(l)
	}
	if v.mapping.IsInteger(varRef) {
		return v.trail.IsFixed(v.mapping.Integer(varRef))
	}
	return true
}

// IsCurrentlyFree reports whether var is an optional integer variable that
// is currently known absent, and so should not be branched on.
func (v *ModelView) IsCurrentlyFree(varRef int) bool {
	return v.mapping.IsInteger(varRef) && v.trail.IsCurrentlyIgnored(v.mapping.Integer(varRef))
}

// Min returns the current lower bound of var, interpreting a Boolean
// variable as the integer 0 or 1.
func (v *ModelView) Min(varRef int) int64 {
	if v.mapping.IsBoolean(varRef) {
		if v.assignment.LiteralIsTrue(v.mapping.Literal(varRef)) {
			return 1
		}
		return 0
	}
	if v.mapping.IsInteger(varRef) {
		return v.trail.LowerBound(v.mapping.Integer(varRef))
	}
	return 0
}

// Max returns the current upper bound of var, interpreting a Boolean
// variable as the integer 0 or 1.
func (v *ModelView) Max(varRef int) int64 {
	if v.mapping.IsBoolean(varRef) {
		if v.assignment.LiteralIsFalse(v.mapping.Literal(varRef)) {
			return 0
		}
		return 1
	}
	if v.mapping.IsInteger(varRef) {
		return v.trail.UpperBound(v.mapping.Integer(varRef))
	}
	return 0
}

// GreaterOrEqual returns the decision that would set var >= value. Callers
// must not ask this of a fixed variable.
func (v *ModelView) GreaterOrEqual(varRef int, value int64) BooleanOrIntegerLiteral {
	if v.mapping.IsBoolean(varRef) {
		if value == 1 {
			return booleanDecision(v.mapping.Literal(varRef))
		}
		return BooleanOrIntegerLiteral{BooleanLiteral: integer.NoLiteral}
	}
	if v.mapping.IsInteger(varRef) {
		return integerDecision(integer.GreaterOrEqual(v.mapping.Integer(varRef), value))
	}
	return BooleanOrIntegerLiteral{BooleanLiteral: integer.NoLiteral}
}

// LowerOrEqual returns the decision that would set var <= value.
func (v *ModelView) LowerOrEqual(varRef int, value int64) BooleanOrIntegerLiteral {
	if v.mapping.IsBoolean(varRef) {
		if value == 0 {
			return booleanDecision(v.mapping.Literal(varRef).Negated())
		}
		return BooleanOrIntegerLiteral{BooleanLiteral: integer.NoLiteral}
	}
	if v.mapping.IsInteger(varRef) {
		return integerDecision(integer.LowerOrEqual(v.mapping.Integer(varRef), value))
	}
	return BooleanOrIntegerLiteral{BooleanLiteral: integer.NoLiteral}
}

// MedianValue returns the decision that fixes var to the median of its
// still-unassigned encoded values, picking the lower of the two middle values
// on a tie so the choice is deterministic. It requires var to be fully
// encoded into an equality ladder: the model view has no way to enumerate
// an integer domain that was never materialized into literals.
func (v *ModelView) MedianValue(varRef int) BooleanOrIntegerLiteral {
	if v.mapping.IsBoolean(varRef) {
		return booleanDecision(v.mapping.Literal(varRef).Negated())
	}

	variable := v.mapping.Integer(varRef)
	encoding := v.encoder.RawDomainEncoding(variable)
	sorted := append([]integer.ValueLiteralPair(nil), encoding...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Value < sorted[j].Value })

	var unassigned []integer.Literal
	for _, p := range sorted {
		if !v.assignment.LiteralIsAssigned(p.Literal) {
			unassigned = append(unassigned, p.Literal)
		}
	}
	// 5 values -> index 2 (the middle); 4 values -> index 1 (lower middle).
	target := (len(unassigned)+1)/2 - 1
	return booleanDecision(unassigned[target])
}
