// Copyright 2010-2025 Google LLC
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

// The precedence_sample_sat command pushes a small chain of task-start
// variables through the precedence propagator directly, without a full
// solver underneath it, to show how AddArc and Propagate interact.
package main

import (
	"fmt"

	log "github.com/golang/glog"

	"github.com/cpsat-go/precedence/ortools/sat/go/integer"
	"github.com/cpsat-go/precedence/ortools/sat/go/precedence"
)

// memTrail is the smallest IntegerTrail that can drive the propagator
// end to end: plain maps for bounds, no conflict-reason bookkeeping beyond
// what ReportConflict needs to satisfy the interface.
type memTrail struct {
	lb, ub map[integer.Variable]int64
}

func newMemTrail() *memTrail {
	return &memTrail{lb: map[integer.Variable]int64{}, ub: map[integer.Variable]int64{}}
}

func (t *memTrail) newTask(name string, lb, ub int64) integer.Variable {
	v := integer.Variable(2 * len(t.lb))
	t.lb[v], t.ub[v] = lb, ub
	t.lb[v.Negation()], t.ub[v.Negation()] = -ub, -lb
	return v
}

func (t *memTrail) LowerBound(v integer.Variable) int64          { return t.lb[v] }
func (t *memTrail) UpperBound(v integer.Variable) int64          { return t.ub[v] }
func (t *memTrail) LevelZeroLowerBound(v integer.Variable) int64 { return t.lb[v] }
func (t *memTrail) LevelZeroUpperBound(v integer.Variable) int64 { return t.ub[v] }
func (t *memTrail) LowerBoundAsLiteral(v integer.Variable) integer.IntegerLiteral {
	return integer.GreaterOrEqual(v, t.lb[v])
}
func (t *memTrail) UpperBoundAsLiteral(v integer.Variable) integer.IntegerLiteral {
	return integer.LowerOrEqual(v, t.ub[v])
}
func (t *memTrail) IsFixed(v integer.Variable) bool                  { return t.lb[v] == t.ub[v] }
func (t *memTrail) IsOptional(integer.Variable) bool                 { return false }
func (t *memTrail) IsIgnoredLiteral(integer.Variable) integer.Literal { return integer.NoLiteral }
func (t *memTrail) IsCurrentlyIgnored(integer.Variable) bool         { return false }
func (t *memTrail) Enqueue(lit integer.IntegerLiteral, _ []integer.Literal, _ []integer.IntegerLiteral) bool {
	v := integer.PositiveVariable(lit.Var)
	if lit.Var.IsPositive() {
		if lit.Bound > t.ub[v] {
			return false
		}
		t.lb[v] = lit.Bound
		t.lb[v.Negation()] = -t.ub[v]
	} else {
		newUB := -lit.Bound
		if newUB < t.lb[v] {
			return false
		}
		t.ub[v] = newUB
		t.ub[v.Negation()] = -t.lb[v]
	}
	return true
}
func (t *memTrail) EnqueueLiteral(integer.Literal, []integer.Literal, []integer.IntegerLiteral) bool {
	return true
}
func (t *memTrail) ReportConflict([]integer.Literal, []integer.IntegerLiteral) bool { return false }
func (t *memTrail) RelaxLinearReason(int64, []int64, *[]integer.IntegerLiteral)     {}
func (t *memTrail) NumIntegerVariables() int                                        { return len(t.lb) / 2 }

type noBoolTrail struct{}

func (noBoolTrail) Assignment() integer.Assignment { return noAssignment{} }
func (noBoolTrail) CurrentDecisionLevel() int      { return 0 }
func (noBoolTrail) Index() int                      { return 0 }
func (noBoolTrail) At(int) integer.Literal          { panic("precedence sample never assigns a literal") }

type noAssignment struct{}

func (noAssignment) LiteralIsTrue(integer.Literal) bool     { return false }
func (noAssignment) LiteralIsFalse(integer.Literal) bool    { return false }
func (noAssignment) LiteralIsAssigned(integer.Literal) bool { return false }

type noWatcher struct{}

func (noWatcher) WatchLowerBound(integer.Variable, int) {}

func precedenceSample() error {
	trail := newMemTrail()
	mix := trail.newTask("mix", 0, 100)
	bake := trail.newTask("bake", 0, 100)
	cool := trail.newTask("cool", 0, 100)

	p := precedence.NewPropagator(trail, noBoolTrail{}, noWatcher{}, 0)
	p.AddArc(mix, bake, 10, integer.NoVariable, nil)  // bake starts >= 10 after mix starts.
	p.AddArc(bake, cool, 20, integer.NoVariable, nil) // cool starts >= 20 after bake starts.

	if ok := p.Propagate(); !ok {
		return fmt.Errorf("precedence chain is infeasible")
	}

	fmt.Printf("mix  >= %d\n", trail.LowerBound(mix))
	fmt.Printf("bake >= %d\n", trail.LowerBound(bake))
	fmt.Printf("cool >= %d\n", trail.LowerBound(cool))

	pushes, cycles, _ := p.Stats()
	fmt.Printf("propagator pushed %d bounds, found %d cycles\n", pushes, cycles)
	return nil
}

func main() {
	if err := precedenceSample(); err != nil {
		log.Exitf("precedenceSample returned with error: %v", err)
	}
}
