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

// The search_portfolio_sample_sat command builds a fixed search strategy
// over three integer variables and prints the distinct parameter sets a
// four-worker portfolio run would fan out across.
package main

import (
	"fmt"

	log "github.com/golang/glog"

	"github.com/cpsat-go/precedence/ortools/sat/go/integer"
	"github.com/cpsat-go/precedence/ortools/sat/go/search"
)

// arrayMapping is a VariableMapping over a flat array of integer variables;
// every ref is an integer variable, never a Boolean one.
type arrayMapping []integer.Variable

func (m arrayMapping) IsBoolean(int) bool            { return false }
func (m arrayMapping) IsInteger(ref int) bool         { return ref < len(m) }
func (m arrayMapping) Literal(int) integer.Literal    { return integer.NoLiteral }
func (m arrayMapping) Integer(ref int) integer.Variable { return m[ref] }

type boundsTrail struct{ lb, ub []int64 }

func (t *boundsTrail) LowerBound(v integer.Variable) int64          { return t.lb[v/2] }
func (t *boundsTrail) UpperBound(v integer.Variable) int64          { return t.ub[v/2] }
func (t *boundsTrail) LevelZeroLowerBound(v integer.Variable) int64 { return t.lb[v/2] }
func (t *boundsTrail) LevelZeroUpperBound(v integer.Variable) int64 { return t.ub[v/2] }
func (t *boundsTrail) LowerBoundAsLiteral(v integer.Variable) integer.IntegerLiteral {
	return integer.GreaterOrEqual(v, t.lb[v/2])
}
func (t *boundsTrail) UpperBoundAsLiteral(v integer.Variable) integer.IntegerLiteral {
	return integer.LowerOrEqual(v, t.ub[v/2])
}
func (t *boundsTrail) IsFixed(v integer.Variable) bool                  { return t.lb[v/2] == t.ub[v/2] }
func (t *boundsTrail) IsOptional(integer.Variable) bool                 { return false }
func (t *boundsTrail) IsIgnoredLiteral(integer.Variable) integer.Literal { return integer.NoLiteral }
func (t *boundsTrail) IsCurrentlyIgnored(integer.Variable) bool         { return false }
func (t *boundsTrail) Enqueue(integer.IntegerLiteral, []integer.Literal, []integer.IntegerLiteral) bool {
	return true
}
func (t *boundsTrail) EnqueueLiteral(integer.Literal, []integer.Literal, []integer.IntegerLiteral) bool {
	return true
}
func (t *boundsTrail) ReportConflict([]integer.Literal, []integer.IntegerLiteral) bool { return false }
func (t *boundsTrail) RelaxLinearReason(int64, []int64, *[]integer.IntegerLiteral)     {}
func (t *boundsTrail) NumIntegerVariables() int                                        { return len(t.lb) }

type noEncoder struct{}

func (noEncoder) VariableIsFullyEncoded(integer.Variable) bool                        { return false }
func (noEncoder) RawDomainEncoding(integer.Variable) []integer.ValueLiteralPair       { return nil }
func (noEncoder) AssociatedIntegerLiterals(integer.Literal) []integer.IntegerLiteral { return nil }

type noSearchAssignment struct{}

func (noSearchAssignment) LiteralIsTrue(integer.Literal) bool     { return false }
func (noSearchAssignment) LiteralIsFalse(integer.Literal) bool    { return false }
func (noSearchAssignment) LiteralIsAssigned(integer.Literal) bool { return false }

func searchPortfolioSample() error {
	trail := &boundsTrail{lb: []int64{0, 0, 0}, ub: []int64{9, 9, 9}}
	mapping := arrayMapping{0, 2, 4}
	view := search.NewModelView(mapping, noSearchAssignment{}, trail, noEncoder{})

	strategy := []search.DecisionStrategy{{
		Variables:         []int{0, 1, 2},
		VariableSelection: search.ChooseMinDomainSize,
		DomainReduction:   search.SelectMinValue,
	}}
	decide := search.ConstructUserSearchStrategy(strategy, view, search.Parameters{}, nil)

	decision := decide()
	if !decision.HasValue() {
		fmt.Println("no decision available; every variable already fixed")
	} else {
		fmt.Printf("first decision: %v\n", decision.IntegerLiteral)
	}

	base := search.SatParameters{Name: "base", NumWorkers: 4, RandomSeed: 1}
	shape := search.ProblemShape{HasObjective: true, UserSearchStrategyIsEmpty: false}
	portfolio := search.GetDiverseSetOfParameters(base, shape, 4)

	fmt.Println("portfolio:")
	for _, p := range portfolio {
		fmt.Printf("  %-20s linearization=%d core=%v probing=%v\n", p.Name, p.LinearizationLevel, p.OptimizeWithCore, p.UseProbingSearch)
	}
	return nil
}

func main() {
	if err := searchPortfolioSample(); err != nil {
		log.Exitf("searchPortfolioSample returned with error: %v", err)
	}
}
