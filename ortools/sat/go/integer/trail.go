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

package integer

// IntegerTrail is the external bound-storage collaborator: it owns the
// current and level-zero bounds of every integer variable, the optional
// variable machinery, and the Enqueue/ReportConflict primitives used to
// push bound changes and raise conflicts. The precedence and search
// packages only ever read from and push to it; they never implement it.
type IntegerTrail interface {
	LowerBound(v Variable) int64
	UpperBound(v Variable) int64
	LevelZeroLowerBound(v Variable) int64
	LevelZeroUpperBound(v Variable) int64

	LowerBoundAsLiteral(v Variable) IntegerLiteral
	UpperBoundAsLiteral(v Variable) IntegerLiteral

	IsFixed(v Variable) bool
	IsOptional(v Variable) bool
	IsIgnoredLiteral(v Variable) Literal
	IsCurrentlyIgnored(v Variable) bool

	// Enqueue pushes lit, failing (returning false) if it is already
	// contradicted at the current level.
	Enqueue(lit IntegerLiteral, literalReason []Literal, integerReason []IntegerLiteral) bool
	// EnqueueLiteral pushes a Boolean literal with an integer-backed reason.
	EnqueueLiteral(lit Literal, literalReason []Literal, integerReason []IntegerLiteral) bool
	// ReportConflict always returns false; it exists so callers can
	// `return trail.ReportConflict(...)` the way the integer trail itself does.
	ReportConflict(literalReason []Literal, integerReason []IntegerLiteral) bool
	// RelaxLinearReason shrinks integerReason in place, dropping terms whose
	// coefficient can absorb the given slack without invalidating the bound
	// implication the reason is backing.
	RelaxLinearReason(slack int64, coeffs []int64, integerReason *[]IntegerLiteral)

	NumIntegerVariables() int
}

// Assignment exposes the current Boolean truth value of literals.
type Assignment interface {
	LiteralIsTrue(l Literal) bool
	LiteralIsFalse(l Literal) bool
	LiteralIsAssigned(l Literal) bool
}

// BooleanTrail is the external literal-trail collaborator: the totally
// ordered sequence of Boolean assignments, and the current decision level.
type BooleanTrail interface {
	Assignment() Assignment
	CurrentDecisionLevel() int
	// Index is the number of literals currently on the trail.
	Index() int
	// At returns the i-th literal assigned, in trail order.
	At(i int) Literal
}

// Watcher lets a propagator register to be notified when a variable's lower
// bound changes.
type Watcher interface {
	WatchLowerBound(v Variable, watcherID int)
}

// ValueLiteralPair associates one value of a fully encoded integer variable
// with the Boolean literal that is true exactly when the variable equals
// that value.
type ValueLiteralPair struct {
	Value   int64
	Literal Literal
}

// Encoder is the external service that knows whether an integer variable is
// fully encoded into an equality ladder of Boolean literals, and can list
// that encoding.
type Encoder interface {
	VariableIsFullyEncoded(v Variable) bool
	RawDomainEncoding(v Variable) []ValueLiteralPair
	// AssociatedIntegerLiterals returns the integer bound facts that l being
	// true implies directly (e.g. the >= and <= halves of an equality
	// literal in a fully encoded variable's ladder). Returns nil when l
	// carries no such association.
	AssociatedIntegerLiterals(l Literal) []IntegerLiteral
}

// VariableMapping is the external adapter translating a model-level variable
// reference (as used in decision strategies) into either a Boolean literal
// or an integer variable. A reference ref is negated when ref < 0, with
// PositiveRef(ref) = -ref-1 giving the underlying non-negative reference,
// mirroring how CP-SAT encodes negated Boolean references.
type VariableMapping interface {
	IsBoolean(ref int) bool
	IsInteger(ref int) bool
	Literal(ref int) Literal
	Integer(ref int) Variable
}

// PositiveRef returns the non-negative form of a possibly negated model
// variable reference.
func PositiveRef(ref int) int {
	if ref >= 0 {
		return ref
	}
	return -ref - 1
}

// RefIsPositive reports whether ref refers to the variable directly, as
// opposed to its negation.
func RefIsPositive(ref int) bool {
	return ref >= 0
}

// TimeLimit is polled cooperatively by long-running passes; no operation
// suspends on it.
type TimeLimit interface {
	LimitReached() bool
}

// RandomGenerator is the external uniform source used for randomized search
// and portfolio diversification.
type RandomGenerator interface {
	// Intn returns a pseudo-random number in [0, n).
	Intn(n int) int
}

// SolverLogger is the ambient logging sink for user-visible solver
// diagnostics (as opposed to glog-based internal diagnostics, which this
// core still emits directly).
type SolverLogger interface {
	Infof(format string, args ...any)
}
