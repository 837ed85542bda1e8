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

	"github.com/golang/glog"
)

// SearchBranching names the top-level branching algorithm a worker runs,
// mirroring the handful of modes the rest of this package understands.
type SearchBranching int

const (
	AutomaticSearch SearchBranching = iota
	FixedSearch
	PortfolioSearch
	LPSearch
	PseudoCostSearch
	PartialFixedSearch
)

// SatParameters is a plain-data stand-in for the slice of solver parameters
// GetDiverseSetOfParameters actually reads or writes. It only carries the
// fields the portfolio logic touches; every other knob a full parameter
// set would expose is out of scope here.
type SatParameters struct {
	Name string

	SearchBranching SearchBranching

	LinearizationLevel          int
	OptimizeWithCore            bool
	OptimizeWithLbTreeSearch    bool
	OptimizeWithMaxHs           bool
	UseProbingSearch            bool
	RandomizeSearch             bool
	SearchRandomizationTolerance int64
	RandomSeed                  int64

	NumWorkers         int
	MinNumLnsWorkers   int
	InterleaveSearch   bool
	UseRinsLns         bool
	UseFeasibilityPump bool

	BooleanEncodingLevel int
	ShareObjectiveBounds bool

	UseDualSchedulingHeuristics           bool
	UseOverloadCheckerInCumulative        bool
	UseTimetableEdgeFindingInCumulative   bool
	UseHardPrecedencesInCumulative        bool
	ExploitAllPrecedences                bool
	ExploitBestSolution                   bool

	Subsolvers       []string
	ExtraSubsolvers  []string
	IgnoreSubsolvers []string
}

// Clone returns a deep-enough copy of p for a variant to diverge from the
// base configuration without aliasing its slices.
func (p SatParameters) Clone() SatParameters {
	q := p
	q.Subsolvers = append([]string(nil), p.Subsolvers...)
	q.ExtraSubsolvers = append([]string(nil), p.ExtraSubsolvers...)
	q.IgnoreSubsolvers = append([]string(nil), p.IgnoreSubsolvers...)
	return q
}

// ProblemShape is the minimal view of a model GetDiverseSetOfParameters
// needs to decide which named strategies apply: whether it has an
// objective to optimize, whether the user already supplied a complete
// search strategy, and whether it has scheduling constraints.
type ProblemShape struct {
	HasObjective             bool
	UserSearchStrategyIsEmpty bool
	HasSchedulingConstraints bool

	// ObjectiveNumTerms is the number of terms in the objective's linear
	// expression; only meaningful when HasObjective is true. It exists
	// solely to resolve the "core_or_no_lp" meta subsolver name, which picks
	// core for a multi-term objective (where core-based search pays for
	// itself) and no_lp otherwise.
	ObjectiveNumTerms int
}

type namedStrategy struct {
	name  string
	apply func(*SatParameters)
	// skip reports whether this strategy does not apply to shape (and the
	// base parameters it would be layered on top of) and should be dropped
	// from the portfolio entirely.
	skip func(shape ProblemShape, base SatParameters) bool
}

func lp(level int) func(*SatParameters) {
	return func(p *SatParameters) { p.LinearizationLevel = level }
}

// skipUnlessMultiTermObjective drops a core-based strategy when there is no
// objective, or when the objective has at most one term: core-based search
// amortizes its extra bookkeeping against a rich objective, and does not pay
// for itself on a single-term (or absent) one.
func skipUnlessMultiTermObjective(shape ProblemShape, base SatParameters) bool {
	return !shape.HasObjective || shape.ObjectiveNumTerms <= 1
}

var namedStrategies = []namedStrategy{
	{name: "default", apply: func(p *SatParameters) {}},
	{name: "no_lp", apply: lp(0)},
	{name: "default_lp", apply: lp(1)},
	{name: "max_lp", apply: lp(2)},
	{
		name:  "core",
		apply: func(p *SatParameters) { p.OptimizeWithCore = true },
		skip:  skipUnlessMultiTermObjective,
	},
	{
		name: "core_default_lp",
		apply: func(p *SatParameters) {
			p.OptimizeWithCore = true
			p.LinearizationLevel = 1
		},
		skip: skipUnlessMultiTermObjective,
	},
	{
		name: "core_max_lp",
		apply: func(p *SatParameters) {
			p.OptimizeWithCore = true
			p.LinearizationLevel = 2
		},
		skip: skipUnlessMultiTermObjective,
	},
	{
		name:  "max_hs",
		apply: func(p *SatParameters) { p.OptimizeWithMaxHs = true },
		skip:  skipUnlessMultiTermObjective,
	},
	{
		name:  "lb_tree_search",
		apply: func(p *SatParameters) { p.OptimizeWithLbTreeSearch = true },
		// Also dropped when the objective is being searched with
		// interleaved workers: lb_tree_search's tree bookkeeping assumes it
		// owns the search, which interleaving violates.
		skip: func(shape ProblemShape, base SatParameters) bool {
			return !shape.HasObjective || base.InterleaveSearch
		},
	},
	{name: "probing", apply: func(p *SatParameters) { p.UseProbingSearch = true }},
	{
		name: "probing_no_lp",
		apply: func(p *SatParameters) {
			p.UseProbingSearch = true
			p.LinearizationLevel = 0
		},
	},
	{
		name: "probing_max_lp",
		apply: func(p *SatParameters) {
			p.UseProbingSearch = true
			p.LinearizationLevel = 2
		},
	},
	{name: "auto", apply: func(p *SatParameters) { p.SearchBranching = AutomaticSearch }},
	{
		name: "fixed",
		apply: func(p *SatParameters) { p.SearchBranching = FixedSearch },
		// A fixed strategy only makes sense when there is something to fix
		// it to: either the user supplied one directly, or the scheduling
		// propagators synthesize one of their own.
		skip: func(shape ProblemShape, base SatParameters) bool {
			return shape.UserSearchStrategyIsEmpty && !shape.HasSchedulingConstraints
		},
	},
	{name: "quick_restart", apply: func(p *SatParameters) { p.SearchBranching = PartialFixedSearch }},
	{
		name: "quick_restart_no_lp",
		apply: func(p *SatParameters) {
			p.SearchBranching = PartialFixedSearch
			p.LinearizationLevel = 0
		},
	},
	{
		name: "quick_restart_max_lp",
		apply: func(p *SatParameters) {
			p.SearchBranching = PartialFixedSearch
			p.LinearizationLevel = 2
		},
	},
	{
		name: "reduced_costs",
		apply: func(p *SatParameters) { p.SearchBranching = LPSearch },
		// LP_SEARCH branches on the LP relaxation's reduced costs, which do
		// not exist without an objective to relax.
		skip: func(shape ProblemShape, base SatParameters) bool { return !shape.HasObjective },
	},
	{
		name: "pseudo_costs",
		apply: func(p *SatParameters) { p.SearchBranching = PseudoCostSearch },
		// Likewise, PSEUDO_COST_SEARCH tracks each variable's objective impact
		// history, which is meaningless with no objective to impact.
		skip: func(shape ProblemShape, base SatParameters) bool { return !shape.HasObjective },
	},
	{
		name:  "less_encoding",
		apply: func(p *SatParameters) { p.BooleanEncodingLevel = 0 },
		// Only useful for pure satisfiability search; an objective wants the
		// full encoding so the linear relaxation has something to work with.
		skip: func(shape ProblemShape, base SatParameters) bool { return shape.HasObjective },
	},
}

// defaultSubsolverOrder is the fixed emission order used when the caller
// does not restrict the portfolio to an explicit Subsolvers list: the same
// list cp_model_search.cc builds by default, before any shape-dependent
// skip()/deny-list filtering narrows it further. max_hs only earns its spot
// once there is a multi-term objective for its extra bookkeeping to pay for,
// which its own skip already encodes.
var defaultSubsolverOrder = []string{
	"default_lp", "fixed", "less_encoding", "no_lp", "max_lp", "core",
	"reduced_costs", "pseudo_costs", "quick_restart", "quick_restart_no_lp",
	"lb_tree_search", "probing", "max_hs",
}

// namedStrategyByName looks up a namedStrategies entry by name.
func namedStrategyByName(name string) (namedStrategy, bool) {
	for _, s := range namedStrategies {
		if s.name == name {
			return s, true
		}
	}
	return namedStrategy{}, false
}

// resolveSubsolverAlias expands the one subsolver name whose meaning
// depends on the model rather than being a static alias for a fixed
// parameter tweak: "core_or_no_lp" means "core" when the objective has more
// than one term (core-based search amortizes its overhead against a rich
// objective) and "no_lp" otherwise.
func resolveSubsolverAlias(name string, shape ProblemShape) string {
	if name != "core_or_no_lp" {
		return name
	}
	if shape.HasObjective && shape.ObjectiveNumTerms > 1 {
		return "core"
	}
	return "no_lp"
}

// GetDiverseSetOfParameters builds distinct parameter sets out of base, one
// per non-LNS worker of a multi-worker portfolio run, by applying a
// deterministic subsequence of named strategies filtered by shape and by the
// base parameters' own subsolver allow/deny lists. With an objective, the
// number of sets produced is capped at numWorkers - base.MinNumLnsWorkers
// (at least 1), since the remaining workers are reserved for LNS elsewhere;
// without one, every worker belongs to this pool. When there are more
// workers than applicable named strategies and the model has no objective to
// optimize, it pads the portfolio with randomized automatic-or-fixed and
// quick_restart variants seeded off base.RandomSeed; with an objective it
// simply repeats the rotation, since a repeated deterministic strategy still
// explores a different part of the tree once restarts and randomization
// diverge it. Every emitted variant's RandomSeed is base.RandomSeed plus its
// 1-based position in the portfolio, so worker 0 never reuses the caller's
// seed verbatim.
func GetDiverseSetOfParameters(base SatParameters, shape ProblemShape, numWorkers int) []SatParameters {
	if numWorkers <= 0 {
		return nil
	}

	allowed := make(map[string]bool)
	for _, name := range base.ExtraSubsolvers {
		allowed[resolveSubsolverAlias(name, shape)] = true
	}
	denied := make(map[string]bool, len(base.IgnoreSubsolvers))
	for _, name := range base.IgnoreSubsolvers {
		denied[resolveSubsolverAlias(name, shape)] = true
	}
	restrictToSubsolvers := len(base.Subsolvers) > 0
	wanted := make(map[string]bool, len(base.Subsolvers))
	for _, name := range base.Subsolvers {
		wanted[resolveSubsolverAlias(name, shape)] = true
	}

	candidates := namedStrategies
	if !restrictToSubsolvers {
		candidates = make([]namedStrategy, 0, len(defaultSubsolverOrder))
		for _, name := range defaultSubsolverOrder {
			if s, ok := namedStrategyByName(name); ok {
				candidates = append(candidates, s)
			}
		}
	}

	var usable []namedStrategy
	for _, s := range candidates {
		if denied[s.name] {
			continue
		}
		if s.skip != nil && s.skip(shape, base) {
			continue
		}
		if restrictToSubsolvers && !wanted[s.name] && !allowed[s.name] {
			continue
		}
		usable = append(usable, s)
	}
	if len(usable) == 0 {
		usable = []namedStrategy{{name: "default", apply: func(p *SatParameters) {}}}
	}

	// With an objective, some of the numWorkers workers are reserved for LNS
	// rather than this diverse deterministic/randomized pool: cap how many
	// variants this function itself produces accordingly.
	targetWorkers := numWorkers
	if shape.HasObjective {
		targetWorkers = numWorkers - base.MinNumLnsWorkers
		if targetWorkers < 1 {
			targetWorkers = 1
		}
	}

	glog.V(1).Infof("portfolio: %d usable named strategies for %d workers", len(usable), targetWorkers)

	result := make([]SatParameters, 0, targetWorkers)
	for i := 0; i < targetWorkers && i < len(usable); i++ {
		p := base.Clone()
		p.Name = usable[i].name
		usable[i].apply(&p)
		result = append(result, p)
	}

	if len(result) < targetWorkers {
		if shape.HasObjective {
			// Rotate through the usable strategies again: restarts and the
			// per-worker random seed below are enough to make repeats useful.
			for len(result) < targetWorkers {
				idx := len(result) % len(usable)
				p := base.Clone()
				p.Name = fmt.Sprintf("%s_%d", usable[idx].name, len(result))
				usable[idx].apply(&p)
				result = append(result, p)
			}
		} else {
			// No objective: pad with randomized automatic-or-fixed/
			// quick_restart variants so the remaining workers still
			// diversify rather than clone worker 0. A user-declared search
			// strategy is branched fixed so the padding still respects it;
			// otherwise it is left to the automatic heuristic.
			for len(result) < targetWorkers {
				p := base.Clone()
				n := len(result)
				if n%2 == 0 {
					if shape.UserSearchStrategyIsEmpty {
						p.SearchBranching = AutomaticSearch
						p.Name = fmt.Sprintf("automatic_random_%d", n)
					} else {
						p.SearchBranching = FixedSearch
						p.Name = fmt.Sprintf("fixed_random_%d", n)
					}
				} else {
					p.SearchBranching = PartialFixedSearch
					p.Name = fmt.Sprintf("quick_restart_random_%d", n)
				}
				p.RandomizeSearch = true
				p.SearchRandomizationTolerance = int64(n % 8)
				result = append(result, p)
			}
		}
	}

	for i := range result {
		result[i].RandomSeed = base.RandomSeed + int64(i) + 1
	}
	return result
}
