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

package precedence

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/cpsat-go/precedence/ortools/sat/go/integer"
)

// boundsOnlyTrail is a minimal integer.IntegerTrail backed by plain maps,
// enough to drive Relations and Propagator tests without a real solver.
type boundsOnlyTrail struct {
	lb, ub           map[integer.Variable]int64
	enqueuedLiterals map[integer.Literal]bool
}

func newBoundsOnlyTrail() *boundsOnlyTrail {
	return &boundsOnlyTrail{lb: map[integer.Variable]int64{}, ub: map[integer.Variable]int64{}}
}

func (t *boundsOnlyTrail) bound(v integer.Variable, lb, ub int64) {
	t.lb[v], t.ub[v] = lb, ub
	neg := v.Negation()
	t.lb[neg], t.ub[neg] = -ub, -lb
}

func (t *boundsOnlyTrail) LowerBound(v integer.Variable) int64          { return t.lb[v] }
func (t *boundsOnlyTrail) UpperBound(v integer.Variable) int64          { return t.ub[v] }
func (t *boundsOnlyTrail) LevelZeroLowerBound(v integer.Variable) int64 { return t.lb[v] }
func (t *boundsOnlyTrail) LevelZeroUpperBound(v integer.Variable) int64 { return t.ub[v] }
func (t *boundsOnlyTrail) LowerBoundAsLiteral(v integer.Variable) integer.IntegerLiteral {
	return integer.GreaterOrEqual(v, t.lb[v])
}
func (t *boundsOnlyTrail) UpperBoundAsLiteral(v integer.Variable) integer.IntegerLiteral {
	return integer.LowerOrEqual(v, t.ub[v])
}
func (t *boundsOnlyTrail) IsFixed(v integer.Variable) bool          { return t.lb[v] == t.ub[v] }
func (t *boundsOnlyTrail) IsOptional(integer.Variable) bool         { return false }
func (t *boundsOnlyTrail) IsIgnoredLiteral(integer.Variable) integer.Literal {
	return integer.NoLiteral
}
func (t *boundsOnlyTrail) IsCurrentlyIgnored(integer.Variable) bool { return false }
func (t *boundsOnlyTrail) Enqueue(lit integer.IntegerLiteral, _ []integer.Literal, _ []integer.IntegerLiteral) bool {
	if lit.Var.IsPositive() {
		if lit.Bound > t.ub[lit.Var] {
			return false
		}
		t.bound(lit.Var, lit.Bound, t.ub[lit.Var])
	} else {
		pos := integer.PositiveVariable(lit.Var)
		newUB := -lit.Bound
		if newUB < t.lb[pos] {
			return false
		}
		t.bound(pos, t.lb[pos], newUB)
	}
	return true
}
func (t *boundsOnlyTrail) EnqueueLiteral(l integer.Literal, _ []integer.Literal, _ []integer.IntegerLiteral) bool {
	if t.enqueuedLiterals == nil {
		t.enqueuedLiterals = map[integer.Literal]bool{}
	}
	t.enqueuedLiterals[l] = true
	return true
}
func (t *boundsOnlyTrail) ReportConflict([]integer.Literal, []integer.IntegerLiteral) bool {
	return false
}
func (t *boundsOnlyTrail) RelaxLinearReason(int64, []int64, *[]integer.IntegerLiteral) {}
func (t *boundsOnlyTrail) NumIntegerVariables() int                                    { return len(t.lb) }

func TestRelations_ConvergingArcsProduceFullPrecedence(t *testing.T) {
	// p and q both precede c independently; knowing both is strictly more
	// informative than either arc alone, so this is exactly the shape the
	// "is interesting" filtering heuristic is meant to keep.
	trail := newBoundsOnlyTrail()
	p, q, c := integer.Variable(0), integer.Variable(2), integer.Variable(4)
	trail.bound(p, 0, 100)
	trail.bound(q, 0, 100)
	trail.bound(c, 0, 100)

	r := NewRelations(trail)
	r.Add(p, c, 1)
	r.Add(q, c, 1)

	full := r.ComputeFullPrecedences([]integer.Variable{p, q, c})
	if !r.isDAG {
		t.Fatalf("expected a DAG, got a reported cycle")
	}

	var gotForC *FullIntegerPrecedence
	for i := range full {
		if full[i].Var == c {
			gotForC = &full[i]
		}
	}
	if gotForC == nil {
		t.Fatalf("ComputeFullPrecedences(...) = %+v, want an entry for %v", full, c)
	}
	want := map[int]int64{0: 1, 1: 1} // p (index 0) and q (index 1) both precede c by 1.
	got := map[int]int64{}
	for i, idx := range gotForC.Indices {
		got[idx] = gotForC.Offsets[i]
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("full precedence offsets for %v returned with unexpected diff (-want+got);\n%s", c, diff)
	}
}

func TestRelations_PureChainHasNoRedundantEntries(t *testing.T) {
	// a -> b -> c is fully captured by its two direct arcs; the transitively
	// implied (a,b) < c entry carries no extra information, so the "is
	// interesting" heuristic should drop it.
	trail := newBoundsOnlyTrail()
	a, b, c := integer.Variable(0), integer.Variable(2), integer.Variable(4)
	trail.bound(a, 0, 100)
	trail.bound(b, 0, 100)
	trail.bound(c, 0, 100)

	r := NewRelations(trail)
	r.Add(a, b, 2)
	r.Add(b, c, 3)

	full := r.ComputeFullPrecedences([]integer.Variable{a, b, c})
	if !r.isDAG {
		t.Fatalf("expected a DAG, got a reported cycle")
	}
	if len(full) != 0 {
		t.Errorf("ComputeFullPrecedences(...) on a pure chain = %+v, want no entries", full)
	}
}

func TestRelations_TrivialArcIsDropped(t *testing.T) {
	trail := newBoundsOnlyTrail()
	a, b := integer.Variable(0), integer.Variable(2)
	trail.bound(a, 0, 5)
	trail.bound(b, 10, 20)

	r := NewRelations(trail)
	r.Add(a, b, 1) // a.ub(5)+1 <= b.lb(10): already implied, should be dropped.
	if len(r.arcTail) != 0 {
		t.Errorf("Add(...) recorded %d arcs for an already-implied relation, want 0", len(r.arcTail))
	}
}

func TestRelations_CycleDegradesToEmpty(t *testing.T) {
	trail := newBoundsOnlyTrail()
	a, b := integer.Variable(0), integer.Variable(2)
	trail.bound(a, 0, 100)
	trail.bound(b, 0, 100)

	r := NewRelations(trail)
	r.Add(a, b, 1)
	r.Add(b, a, 1)

	full := r.ComputeFullPrecedences([]integer.Variable{a, b})
	if r.isDAG {
		t.Fatalf("Add(a,b,1) and Add(b,a,1) should form a cycle, but isDAG=true")
	}
	if full != nil {
		t.Errorf("ComputeFullPrecedences(...) on a non-DAG = %+v, want nil", full)
	}
}

func TestRelations_BuildIsIdempotentAndFreezesArcs(t *testing.T) {
	trail := newBoundsOnlyTrail()
	a, b, c := integer.Variable(0), integer.Variable(2), integer.Variable(4)
	trail.bound(a, 0, 100)
	trail.bound(b, 0, 100)
	trail.bound(c, 0, 100)

	r := NewRelations(trail)
	r.Add(a, b, 1)
	r.Build()
	numArcsAfterFirstBuild := len(r.arcTail)

	r.Add(b, c, 1) // Ignored: the store is already built.
	r.Build()       // No-op.
	if len(r.arcTail) != numArcsAfterFirstBuild {
		t.Errorf("Add/Build after Build() changed the arc count: got %d, want %d", len(r.arcTail), numArcsAfterFirstBuild)
	}
}
