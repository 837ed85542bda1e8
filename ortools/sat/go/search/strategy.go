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
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/golang/glog"

	"github.com/cpsat-go/precedence/ortools/sat/go/integer"
)

// VariableSelectionStrategy picks which undecided variable a DecisionStrategy
// branches on next.
type VariableSelectionStrategy int

const (
	ChooseFirst VariableSelectionStrategy = iota
	ChooseLowestMin
	ChooseHighestMax
	ChooseMinDomainSize
	ChooseMaxDomainSize
)

// DomainReductionStrategy picks how the chosen variable's domain is split.
type DomainReductionStrategy int

const (
	SelectMinValue DomainReductionStrategy = iota
	SelectMaxValue
	SelectLowerHalf
	SelectUpperHalf
	SelectMedianValue
)

// Transformation rescales the variable at Variables[Index] before it is
// compared under the strategy's selection criterion: the effective value
// used for scoring is PositiveCoeff*raw + Offset.
type Transformation struct {
	Index         int
	PositiveCoeff int64
	Offset        int64
}

// DecisionStrategy is one user-declared branching rule: try each of
// Variables in order, score it under VariableSelection, and split the
// winner's domain under DomainReduction. Transformations must be sorted by
// Index; not every variable needs an entry.
type DecisionStrategy struct {
	Variables          []int
	VariableSelection  VariableSelectionStrategy
	DomainReduction    DomainReductionStrategy
	Transformations    []Transformation
}

// Parameters is the small slice of solver-wide parameters a branching
// decision consults: whether to randomize among near-tied candidates, and
// by how much.
type Parameters struct {
	RandomizeSearch              bool
	SearchRandomizationTolerance int64
}

// DecisionFunc produces the next branching decision, or a value whose
// HasValue is false when it has nothing left to decide.
type DecisionFunc func() BooleanOrIntegerLiteral

type varValue struct {
	ref   int
	value int64
}

// ConstructSearchStrategyInternal turns a list of DecisionStrategy rules
// into a single DecisionFunc that tries each rule in order and, within a
// rule, scores every still-undecided variable under its selection
// criterion before splitting the winner's domain.
func ConstructSearchStrategyInternal(strategies []DecisionStrategy, view *ModelView, params Parameters, random integer.RandomGenerator) DecisionFunc {
	return func() BooleanOrIntegerLiteral {
		for _, strategy := range strategies {
			candidate := 0
			candidateValue := int64(math.MaxInt64)
			var activeRefs []varValue

			tIndex := 0
			for i, ref := range strategy.Variables {
				v := integer.PositiveRef(ref)
				if view.IsFixed(v) || view.IsCurrentlyFree(v) {
					continue
				}

				coeff, offset := int64(1), int64(0)
				for tIndex < len(strategy.Transformations) && strategy.Transformations[tIndex].Index < i {
					tIndex++
				}
				if tIndex < len(strategy.Transformations) && strategy.Transformations[tIndex].Index == i {
					coeff = strategy.Transformations[tIndex].PositiveCoeff
					offset = strategy.Transformations[tIndex].Offset
				}

				lb, ub := view.Min(v), view.Max(v)
				if !integer.RefIsPositive(ref) {
					lb, ub = -view.Max(v), -view.Min(v)
				}

				var value int64
				switch strategy.VariableSelection {
				case ChooseFirst:
					value = 0
				case ChooseLowestMin:
					value = coeff*lb + offset
				case ChooseHighestMax:
					value = -(coeff*ub + offset)
				case ChooseMinDomainSize:
					value = coeff * (ub - lb + 1)
				case ChooseMaxDomainSize:
					value = -coeff * (ub - lb + 1)
				default:
					glog.Fatalf("unknown variable selection strategy %v", strategy.VariableSelection)
				}

				if value < candidateValue {
					candidate = ref
					candidateValue = value
				}
				if strategy.VariableSelection == ChooseFirst && !params.RandomizeSearch {
					break
				}
				if params.RandomizeSearch && value <= candidateValue+params.SearchRandomizationTolerance {
					activeRefs = append(activeRefs, varValue{ref: ref, value: value})
				}
			}

			if candidateValue == math.MaxInt64 {
				continue
			}
			if params.RandomizeSearch {
				threshold := candidateValue + params.SearchRandomizationTolerance
				n := 0
				for _, e := range activeRefs {
					if e.value <= threshold {
						activeRefs[n] = e
						n++
					}
				}
				activeRefs = activeRefs[:n]
				candidate = activeRefs[random.Intn(len(activeRefs))].ref
			}

			selection := strategy.DomainReduction
			if !integer.RefIsPositive(candidate) {
				switch selection {
				case SelectMinValue:
					selection = SelectMaxValue
				case SelectMaxValue:
					selection = SelectMinValue
				case SelectLowerHalf:
					selection = SelectUpperHalf
				case SelectUpperHalf:
					selection = SelectLowerHalf
				}
			}

			v := integer.PositiveRef(candidate)
			lb, ub := view.Min(v), view.Max(v)
			switch selection {
			case SelectMinValue:
				return view.LowerOrEqual(v, lb)
			case SelectMaxValue:
				return view.GreaterOrEqual(v, ub)
			case SelectLowerHalf:
				return view.LowerOrEqual(v, lb+(ub-lb)/2)
			case SelectUpperHalf:
				return view.GreaterOrEqual(v, ub-(ub-lb)/2)
			case SelectMedianValue:
				return view.MedianValue(v)
			default:
				glog.Fatalf("unknown domain reduction strategy %v", strategy.DomainReduction)
			}
		}
		return BooleanOrIntegerLiteral{BooleanLiteral: integer.NoLiteral}
	}
}

// ConstructUserSearchStrategy is ConstructSearchStrategyInternal under the
// name the rest of this package's callers expect when the rules come
// straight from a user-declared search strategy rather than a synthesized
// one.
func ConstructUserSearchStrategy(strategies []DecisionStrategy, view *ModelView, params Parameters, random integer.RandomGenerator) DecisionFunc {
	return ConstructSearchStrategyInternal(strategies, view, params, random)
}

// SequentialSearch tries each heuristic in order, returning the first
// decision any of them produces.
func SequentialSearch(heuristics []DecisionFunc) DecisionFunc {
	return func() BooleanOrIntegerLiteral {
		for _, h := range heuristics {
			if d := h(); d.HasValue() {
				return d
			}
		}
		return BooleanOrIntegerLiteral{BooleanLiteral: integer.NoLiteral}
	}
}

// FirstUnassignedVarAtItsMinHeuristic is the catch-all fallback: branch the
// first not-yet-fixed variable in decisions down to its current lower
// bound. It is what ConstructFixedSearchStrategy appends last so that a
// model asking to instantiate every variable never runs out of decisions
// before every variable is fixed.
func FirstUnassignedVarAtItsMinHeuristic(decisions []integer.Variable, trail integer.IntegerTrail) DecisionFunc {
	return func() BooleanOrIntegerLiteral {
		for _, v := range decisions {
			if trail.IsFixed(v) || trail.IsCurrentlyIgnored(v) {
				continue
			}
			return integerDecision(integer.LowerOrEqual(v, trail.LowerBound(v)))
		}
		return BooleanOrIntegerLiteral{BooleanLiteral: integer.NoLiteral}
	}
}

// SchedulingSearchHeuristic stands in for the no-overlap/cumulative-aware
// branching rule a full scheduling solver would plug in here. Concrete
// scheduling propagation is out of scope for this package — it only
// detects the *presence* of scheduling constraints well enough to decide
// whether to add this heuristic to the sequence at all — so this always
// defers to whatever heuristic runs after it.
func SchedulingSearchHeuristic(integer.IntegerTrail) DecisionFunc {
	return func() BooleanOrIntegerLiteral {
		return BooleanOrIntegerLiteral{BooleanLiteral: integer.NoLiteral}
	}
}

// FixedSearchConfig bundles the inputs ConstructFixedSearchStrategy needs
// beyond the user's own DecisionStrategy rules.
type FixedSearchConfig struct {
	UserStrategies            []DecisionStrategy
	SearchBranchingIsPartial  bool
	HasSchedulingConstraints  bool
	InstantiateAllVariables   bool
	VariableMapping           []integer.Variable
	ObjectiveVar              integer.Variable
}

// ConstructFixedSearchStrategy assembles the full branching sequence a
// "fixed search" worker runs: the user's own strategy (unless the
// branching mode is partial-fixed-only), a scheduling fallback when the
// model has scheduling constraints, and — if requested — a last-resort
// pass that instantiates every remaining variable, objective first.
func ConstructFixedSearchStrategy(cfg FixedSearchConfig, view *ModelView, trail integer.IntegerTrail, params Parameters, random integer.RandomGenerator) DecisionFunc {
	var heuristics []DecisionFunc

	if !cfg.SearchBranchingIsPartial {
		heuristics = append(heuristics, ConstructUserSearchStrategy(cfg.UserStrategies, view, params, random))
	}
	if cfg.HasSchedulingConstraints {
		heuristics = append(heuristics, SchedulingSearchHeuristic(trail))
	}
	if cfg.InstantiateAllVariables {
		var decisions []integer.Variable
		for _, v := range cfg.VariableMapping {
			if v == integer.NoVariable {
				continue
			}
			if v == cfg.ObjectiveVar || v == cfg.ObjectiveVar.Negation() {
				decisions = append([]integer.Variable{cfg.ObjectiveVar}, decisions...)
			} else {
				decisions = append(decisions, v)
			}
		}
		heuristics = append(heuristics, FirstUnassignedVarAtItsMinHeuristic(decisions, trail))
	}

	return SequentialSearch(heuristics)
}

// DisplayedVariable names one model variable worth logging a domain change
// for, in display order.
type DisplayedVariable struct {
	Ref  int
	Name string
}

// InstrumentSearchStrategy wraps a decision function with glog tracing: it
// logs every decision as it is made — including, for a Boolean decision, the
// integer literals the encoder associates with it — then logs any displayed
// variable whose domain moved since the previous decision. It is meant for
// interactive debugging of a search, not for production runs.
func InstrumentSearchStrategy(displayed []DisplayedVariable, variableMapping []integer.Variable, trail integer.IntegerTrail, encoder integer.Encoder, currentLevel func() int, strategy DecisionFunc) DecisionFunc {
	ordered := append([]DisplayedVariable(nil), displayed...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Name < ordered[j].Name })

	type bounds struct{ lo, hi int64 }
	oldDomains := make(map[int]bounds, len(ordered))

	return func() BooleanOrIntegerLiteral {
		decision := strategy()
		if !decision.HasValue() {
			return decision
		}

		if decision.BooleanLiteral != integer.NoLiteral {
			if associated := encoder.AssociatedIntegerLiterals(decision.BooleanLiteral); len(associated) > 0 {
				glog.Infof("boolean decision %v, associated integer literals %v", decision.BooleanLiteral, associated)
			} else {
				glog.Infof("boolean decision %v", decision.BooleanLiteral)
			}
		} else {
			glog.Infof("integer decision %v", decision.IntegerLiteral)
		}

		var sb []string
		for _, dv := range ordered {
			v := variableMapping[dv.Ref]
			if v == integer.NoVariable {
				continue
			}
			nb := bounds{trail.LowerBound(v), trail.UpperBound(v)}
			if ob, ok := oldDomains[dv.Ref]; !ok || ob != nb {
				sb = append(sb, glogDomainLine(dv.Name, oldDomains[dv.Ref], nb))
				oldDomains[dv.Ref] = nb
			}
		}
		if len(sb) > 0 {
			glog.Infof("diff since last call, level=%d\n%s", currentLevel(), joinLines(sb))
		}
		return decision
	}
}

func glogDomainLine(name string, old, new_ struct{ lo, hi int64 }) string {
	return fmt.Sprintf("%s %s -> %s", name, boundsString(old), boundsString(new_))
}

func boundsString(b struct{ lo, hi int64 }) string {
	return "[" + strconv.FormatInt(b.lo, 10) + "," + strconv.FormatInt(b.hi, 10) + "]"
}

func joinLines(lines []string) string {
	return strings.Join(lines, "\n")
}
