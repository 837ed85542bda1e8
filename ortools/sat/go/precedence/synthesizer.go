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
	"sort"

	"github.com/golang/glog"

	"github.com/cpsat-go/precedence/ortools/sat/go/integer"
)

// GreaterThanAtLeastOneOf is a candidate constraint synthesized from the
// arc graph: Var >= min_i(Vars[i] + Offsets[i]) whenever one of Selectors
// holds, and additionally requires every literal in Enforcements to hold
// for the whole disjunction to apply. Building and propagating the actual
// constraint is left to whatever scheduling propagator the host solver
// wires in; this package only ever detects that the constraint is implied.
type GreaterThanAtLeastOneOf struct {
	Var          integer.Variable
	Vars         []integer.Variable
	Offsets      []int64
	Selectors    []integer.Literal
	Enforcements []integer.Literal
}

// ClauseSource is the external collaborator exposing every clause the SAT
// core currently holds, used only by AddGreaterThanAtLeastOneOfConstraints
// to drive the per-clause detection pass.
type ClauseSource interface {
	AllClausesInCreationOrder() [][]integer.Literal
	NumBooleanVariables() int
}

// DecisionSolver is the subset of the SAT core's decision API the
// auto-detection fallback needs to probe "must at least one of these
// literals be false" by trial assumption.
type DecisionSolver interface {
	Backtrack(level int)
	ModelIsUnsat() bool
	// EnqueueDecisionAndBacktrackOnConflict returns ok=false only when the
	// assumption made the model UNSAT outright; assumptionsUnsat reports that
	// the decision conflicted with earlier ones, in which case
	// GetLastIncompatibleDecisions holds the discovered clause.
	EnqueueDecisionAndBacktrackOnConflict(decision integer.Literal) (assumptionsUnsat bool, ok bool)
	GetLastIncompatibleDecisions() []integer.Literal
	Assignment() integer.Assignment
	FinishPropagation() bool
}

// AddGreaterThanAtLeastOneOfConstraintsFromClause inspects one clause and
// synthesizes a GreaterThanAtLeastOneOf for every head variable that has at
// least two arcs in the clause whose presence literal is a literal of the
// clause, provided the clause's literals are almost entirely accounted for
// by those arcs. It runs at decision level zero and looks only at each arc's
// presence literals, not at its current activation state.
func (p *Propagator) AddGreaterThanAtLeastOneOfConstraintsFromClause(clause []integer.Literal) []GreaterThanAtLeastOneOf {
	if len(clause) < 2 {
		return nil
	}

	var infos []arcInfo
	for _, l := range clause {
		for _, idx := range p.literalToNewImpactedArcs[l] {
			arc := p.arcs[idx]
			if len(arc.presenceLiterals) != 1 || arc.offsetVar != integer.NoVariable {
				continue
			}
			infos = append(infos, arc)
		}
	}
	if len(infos) <= 1 {
		return nil
	}

	sort.SliceStable(infos, func(i, j int) bool { return infos[i].headVar < infos[j].headVar })

	var results []GreaterThanAtLeastOneOf
	for i := 0; i < len(infos); {
		start := i
		headVar := infos[start].headVar
		for i++; i < len(infos) && infos[i].headVar == headVar; i++ {
		}
		arcs := infos[start:i]
		if len(arcs) < 2 {
			continue
		}
		// Heuristic: only act on (almost) full clauses.
		if len(arcs)+1 < len(clause) {
			continue
		}

		var vars []integer.Variable
		var offsets []int64
		var selectors []integer.Literal
		var enforcements []integer.Literal

		j := 0
		for _, l := range clause {
			added := false
			for j < len(arcs) && l == arcs[j].presenceLiterals[0] {
				added = true
				vars = append(vars, arcs[j].tailVar)
				offsets = append(offsets, arcs[j].offset)
				selectors = append(selectors, l)
				j++
			}
			if !added {
				enforcements = append(enforcements, l.Negated())
			}
		}

		if len(enforcements)+1 == len(clause) {
			continue
		}

		results = append(results, GreaterThanAtLeastOneOf{
			Var:          headVar,
			Vars:         vars,
			Offsets:      offsets,
			Selectors:    selectors,
			Enforcements: enforcements,
		})
	}
	return results
}

// AddGreaterThanAtLeastOneOfConstraintsWithClauseAutoDetection scans every
// variable with at least two fixed-offset, singly-guarded incoming arcs and
// probes, by trial decision, whether the disjunction of their presence
// literals is implied — this is the fallback used when the problem has too
// many clauses for the from-clause pass to be worth the cost of iterating
// all of them.
func (p *Propagator) AddGreaterThanAtLeastOneOfConstraintsWithClauseAutoDetection(timeLimit integer.TimeLimit, solver DecisionSolver) []GreaterThanAtLeastOneOf {
	incoming := make(map[integer.Variable][]arcIndex)
	for idx, arc := range p.arcs {
		if arc.offsetVar != integer.NoVariable {
			continue
		}
		if arc.tailVar == arc.headVar {
			continue
		}
		if len(arc.presenceLiterals) != 1 {
			continue
		}
		incoming[arc.headVar] = append(incoming[arc.headVar], arcIndex(idx))
	}

	var results []GreaterThanAtLeastOneOf
	for target, arcsIn := range incoming {
		if len(arcsIn) <= 1 {
			continue
		}
		if timeLimit.LimitReached() {
			return results
		}

		solver.Backtrack(0)
		if solver.ModelIsUnsat() {
			return results
		}

		var clause []integer.Literal
		for _, idx := range arcsIn {
			literal := p.arcs[idx].presenceLiterals[0]
			if solver.Assignment().LiteralIsFalse(literal) {
				continue
			}
			assumptionsUnsat, ok := solver.EnqueueDecisionAndBacktrackOnConflict(literal.Negated())
			if !ok {
				return results
			}
			if assumptionsUnsat {
				clause = solver.GetLastIncompatibleDecisions()
				break
			}
		}
		solver.Backtrack(0)

		if len(clause) <= 1 {
			continue
		}

		clauseSet := make(map[integer.Literal]bool, len(clause))
		for _, l := range clause {
			clauseSet[l] = true
		}

		var arcsInClause []arcIndex
		for _, idx := range arcsIn {
			literal := p.arcs[idx].presenceLiterals[0]
			if clauseSet[literal.Negated()] {
				arcsInClause = append(arcsInClause, idx)
			}
		}
		glog.V(2).Infof("greater_than_at_least_one_of: %d/%d arcs in clause", len(arcsInClause), len(arcsIn))

		var vars []integer.Variable
		var offsets []int64
		var selectors []integer.Literal
		for _, idx := range arcsInClause {
			arc := p.arcs[idx]
			vars = append(vars, arc.tailVar)
			offsets = append(offsets, arc.offset)
			selectors = append(selectors, arc.presenceLiterals[0])
		}
		results = append(results, GreaterThanAtLeastOneOf{Var: target, Vars: vars, Offsets: offsets, Selectors: selectors})
		if !solver.FinishPropagation() {
			return results
		}
	}
	return results
}

// AddGreaterThanAtLeastOneOfConstraints runs the from-clause detection over
// every clause held by clauses (plus, cheaply, every Boolean's two-literal
// clause x ∨ ¬x), falling back to auto-detection when there are too many
// clauses for the direct scan to pay for itself.
func (p *Propagator) AddGreaterThanAtLeastOneOfConstraints(timeLimit integer.TimeLimit, solver DecisionSolver, clauses ClauseSource) []GreaterThanAtLeastOneOf {
	glog.V(1).Infof("detecting greater_than_at_least_one_of constraints")

	const clauseCountLimit = 1_000_000
	allClauses := clauses.AllClausesInCreationOrder()

	var results []GreaterThanAtLeastOneOf
	if len(allClauses) < clauseCountLimit {
		for _, clause := range allClauses {
			if timeLimit.LimitReached() || solver.ModelIsUnsat() {
				return results
			}
			results = append(results, p.AddGreaterThanAtLeastOneOfConstraintsFromClause(clause)...)
		}

		numBooleans := clauses.NumBooleanVariables()
		if numBooleans < clauseCountLimit {
			for i := 0; i < numBooleans; i++ {
				if timeLimit.LimitReached() || solver.ModelIsUnsat() {
					return results
				}
				lit := integer.Literal(2 * i)
				results = append(results, p.AddGreaterThanAtLeastOneOfConstraintsFromClause([]integer.Literal{lit, lit.Negated()})...)
			}
		}
	} else {
		results = append(results, p.AddGreaterThanAtLeastOneOfConstraintsWithClauseAutoDetection(timeLimit, solver)...)
	}

	if len(results) > 0 {
		glog.V(1).Infof("added %d greater_than_at_least_one_of constraints", len(results))
	}
	return results
}
