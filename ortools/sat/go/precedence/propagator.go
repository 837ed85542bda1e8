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

// arcIndex is an index into Propagator.arcs.
type arcIndex int

const noArcIndex arcIndex = -1

// arcInfo is one directed edge "tail + Offset (+ OffsetVar) <= Head",
// conditioned on every literal in PresenceLiterals being true.
type arcInfo struct {
	tailVar integer.Variable
	headVar integer.Variable
	offset  int64
	// offsetVar, when not integer.NoVariable, is added to offset to get the
	// arc's effective offset; it lets one arc represent "tail + v <= head"
	// for a variable v instead of only a constant.
	offsetVar        integer.Variable
	presenceLiterals []integer.Literal

	// isMarked is Bellman-Ford-Tarjan scratch state: set while this arc is
	// the current parent edge of its head in the shortest-path tree.
	isMarked bool
}

// conditionalRelation caches, for an arc that is guarded by exactly one
// presence literal and has a fixed offset, the pair (literal, offset) so
// that a later query can answer "does tail + offset <= head hold given that
// literal" without rescanning the arc list.
type conditionalRelation struct {
	literal integer.Literal
	offset  int64
}

type conditionalKey struct {
	tail integer.Variable
	head integer.Variable
}

// IntegerPrecedence is one entry of ComputePrecedences' output: the
// variable at vars[Index] is known to precede Var by at least Offset.
type IntegerPrecedence struct {
	Index  int
	Var    integer.Variable
	Offset int64
}

// Propagator maintains the incremental "tail + offset <= head" arc graph and
// pushes lower bounds with Bellman-Ford-Tarjan whenever a watched variable's
// bound moves. It is driven by a host search loop the way any other
// CP-SAT propagator is: AddArc during model loading, Propagate/Untrail as
// the trail grows and shrinks.
type Propagator struct {
	trail       integer.IntegerTrail
	boolTrail   integer.BooleanTrail
	watcher     integer.Watcher
	watcherID   int

	arcs []arcInfo

	// impactedArcs[v] lists, by arc index, every arc whose tail is v and
	// which is currently unconditionally active (arcCounts == 0).
	impactedArcs map[integer.Variable][]arcIndex
	arcCounts    []int

	// impactedPotentialArcs[v] lists, by arc index, every conditional arc
	// whose tail is v, active or not. propagateOptionalArcs consults it
	// (rather than impactedArcs) because the whole point of the pass is to
	// find arcs that are *not yet* active: an active arc's presence
	// literals are already all true, so it can never be the one-literal-
	// short case optional-arc propagation looks for.
	impactedPotentialArcs map[integer.Variable][]arcIndex

	// literalToNewImpactedArcs[l] lists arcs that become active (one step
	// closer to arcCounts == 0) when l is assigned true.
	literalToNewImpactedArcs map[integer.Literal][]arcIndex

	propagationTrailIndex int
	modifiedVars          map[integer.Variable]bool

	conditionalRelations map[conditionalKey]conditionalRelation

	// Bellman-Ford-Tarjan scratch state, reused across calls.
	bfQueue         []integer.Variable
	bfInQueue       map[integer.Variable]bool
	bfCanBeSkipped  map[integer.Variable]bool
	bfParentArcOf   map[integer.Variable]arcIndex

	numPushes             int64
	numCycles             int64
	numEnforcementPushes  int64
}

// NewPropagator returns an empty propagator. watcher is notified, via
// WatchLowerBound, of every variable whose lower bound should wake this
// propagator back up; watcherID is the opaque id the host search loop uses
// to route that notification back here.
func NewPropagator(trail integer.IntegerTrail, boolTrail integer.BooleanTrail, watcher integer.Watcher, watcherID int) *Propagator {
	return &Propagator{
		trail:                    trail,
		boolTrail:                boolTrail,
		watcher:                  watcher,
		watcherID:                watcherID,
		impactedArcs:             make(map[integer.Variable][]arcIndex),
		impactedPotentialArcs:    make(map[integer.Variable][]arcIndex),
		literalToNewImpactedArcs: make(map[integer.Literal][]arcIndex),
		modifiedVars:             make(map[integer.Variable]bool),
		conditionalRelations:     make(map[conditionalKey]conditionalRelation),
		bfInQueue:                make(map[integer.Variable]bool),
		bfCanBeSkipped:           make(map[integer.Variable]bool),
		bfParentArcOf:            make(map[integer.Variable]arcIndex),
	}
}

// Stats reports the lifetime push/cycle counters, meant to be folded into a
// shared run-statistics sink the way the upstream destructor does on exit.
func (p *Propagator) Stats() (numPushes, numCycles, numEnforcementPushes int64) {
	return p.numPushes, p.numCycles, p.numEnforcementPushes
}

func (p *Propagator) arcOffset(arc arcInfo) int64 {
	if arc.offsetVar == integer.NoVariable {
		return arc.offset
	}
	return arc.offset + p.trail.LowerBound(arc.offsetVar)
}

func (p *Propagator) watchVariable(v integer.Variable) {
	p.watcher.WatchLowerBound(v, p.watcherID)
	p.watcher.WatchLowerBound(v.Negation(), p.watcherID)
}

// AddArc records tail + offset (+ offsetVar) <= head, active only while
// every literal in presenceLiterals holds. It registers the symmetric arc
// on the negated variables the same way Add does on the relation store, plus
// — when offsetVar is set — the extra arcs needed to keep tail, head and
// offsetVar mutually symmetric.
func (p *Propagator) AddArc(tail, head integer.Variable, offset int64, offsetVar integer.Variable, presenceLiterals []integer.Literal) {
	p.watchVariable(tail)
	p.watchVariable(head)
	if offsetVar != integer.NoVariable {
		p.watchVariable(offsetVar)
	}

	enforcement := append([]integer.Literal(nil), presenceLiterals...)
	if p.trail.IsOptional(tail) {
		enforcement = append(enforcement, p.trail.IsIgnoredLiteral(tail).Negated())
	}
	if p.trail.IsOptional(head) {
		enforcement = append(enforcement, p.trail.IsIgnoredLiteral(head).Negated())
	}
	if offsetVar != integer.NoVariable && p.trail.IsOptional(offsetVar) {
		enforcement = append(enforcement, p.trail.IsIgnoredLiteral(offsetVar).Negated())
	}
	enforcement = integer.SortAndDedupeLiterals(enforcement)

	if p.boolTrail.CurrentDecisionLevel() == 0 {
		assignment := p.boolTrail.Assignment()
		newSize := 0
		for _, l := range enforcement {
			if assignment.LiteralIsTrue(l) {
				continue
			}
			if assignment.LiteralIsFalse(l) {
				return // Arc can never be active; drop it entirely.
			}
			enforcement[newSize] = l
			newSize++
		}
		enforcement = enforcement[:newSize]
	}

	if head == tail {
		glog.V(1).Infof("self arc: var=%v offset=%d offset_var=%v conditioned_by=%v", tail, offset, offsetVar, presenceLiterals)
	}

	if offsetVar != integer.NoVariable {
		lb := p.trail.LevelZeroLowerBound(offsetVar)
		if lb == p.trail.LevelZeroUpperBound(offsetVar) {
			offset += lb
			offsetVar = integer.NoVariable
		}
	}

	type internalArc struct {
		tail, head, offsetVar integer.Variable
	}
	var toAdd []internalArc
	if offsetVar == integer.NoVariable {
		toAdd = []internalArc{
			{tail, head, integer.NoVariable},
			{head.Negation(), tail.Negation(), integer.NoVariable},
		}
	} else {
		toAdd = []internalArc{
			{tail, head, offsetVar},
			{offsetVar, head, tail},
			{tail, offsetVar.Negation(), head.Negation()},
			{head.Negation(), offsetVar.Negation(), tail},
			{offsetVar, tail.Negation(), head.Negation()},
			{head.Negation(), tail.Negation(), offsetVar},
		}
	}

	for _, a := range toAdd {
		p.modifiedVars[a.tail] = true

		presence := append([]integer.Literal(nil), enforcement...)
		if p.trail.IsOptional(a.head) {
			toRemove := p.trail.IsIgnoredLiteral(a.head).Negated()
			presence = integer.RemoveLiteral(presence, toRemove)
		}

		idx := arcIndex(len(p.arcs))
		p.arcs = append(p.arcs, arcInfo{
			tailVar:          a.tail,
			headVar:          a.head,
			offset:           offset,
			offsetVar:        a.offsetVar,
			presenceLiterals: presence,
		})

		if len(presence) == 0 {
			p.impactedArcs[a.tail] = append(p.impactedArcs[a.tail], idx)
		} else {
			for _, l := range presence {
				p.literalToNewImpactedArcs[l] = append(p.literalToNewImpactedArcs[l], idx)
			}
			p.impactedPotentialArcs[a.tail] = append(p.impactedPotentialArcs[a.tail], idx)
		}

		if p.boolTrail.CurrentDecisionLevel() == 0 {
			p.arcCounts = append(p.arcCounts, len(presence))
		} else {
			count := 0
			assignment := p.boolTrail.Assignment()
			for _, l := range presence {
				if !assignment.LiteralIsTrue(l) {
					count++
				}
			}
			p.arcCounts = append(p.arcCounts, count)
		}
	}
}

// AddPrecedenceWithOffsetIfNew adds "i1 + offset <= i2" at the root decision
// level unless an arc already enforces an offset at least as large, in
// which case it reports false and leaves the store untouched.
func (p *Propagator) AddPrecedenceWithOffsetIfNew(i1, i2 integer.Variable, offset int64) bool {
	for _, idx := range p.impactedArcs[i1] {
		arc := p.arcs[idx]
		if arc.headVar == i2 {
			if offset <= p.arcOffset(arc) {
				return false
			}
		}
	}
	p.AddArc(i1, i2, offset, integer.NoVariable, nil)
	return true
}

func (p *Propagator) addToConditionalRelations(arc arcInfo) {
	if len(arc.presenceLiterals) != 1 || arc.offsetVar != integer.NoVariable {
		return
	}
	key := conditionalKey{tail: arc.tailVar, head: arc.headVar}
	if _, ok := p.conditionalRelations[key]; ok {
		return
	}
	p.conditionalRelations[key] = conditionalRelation{literal: arc.presenceLiterals[0], offset: p.arcOffset(arc)}
}

func (p *Propagator) removeFromConditionalRelations(arc arcInfo) {
	if len(arc.presenceLiterals) != 1 || arc.offsetVar != integer.NoVariable {
		return
	}
	key := conditionalKey{tail: arc.tailVar, head: arc.headVar}
	existing, ok := p.conditionalRelations[key]
	if !ok || existing.literal != arc.presenceLiterals[0] {
		return
	}
	delete(p.conditionalRelations, key)
}

// Propagate runs the propagator to fixpoint against the part of the trail
// it has not yet consumed: it first activates every arc enabled by newly
// assigned literals, pushes the bounds those arcs force, then runs
// Bellman-Ford-Tarjan over every variable touched since the last call.
func (p *Propagator) Propagate() bool {
	for p.propagationTrailIndex < p.boolTrail.Index() {
		literal := p.boolTrail.At(p.propagationTrailIndex)
		p.propagationTrailIndex++
		impacted, ok := p.literalToNewImpactedArcs[literal]
		if !ok {
			continue
		}

		// Two passes: activate every arc this literal completes before
		// checking any of them for a push, so Untrail stays exactly
		// symmetric with this loop.
		for _, idx := range impacted {
			p.arcCounts[idx]--
			if p.arcCounts[idx] == 0 {
				arc := p.arcs[idx]
				p.addToConditionalRelations(arc)
				p.impactedArcs[arc.tailVar] = append(p.impactedArcs[arc.tailVar], idx)
			}
		}
		for _, idx := range impacted {
			if p.arcCounts[idx] > 0 {
				continue
			}
			arc := p.arcs[idx]
			if p.trail.IsCurrentlyIgnored(arc.headVar) {
				continue
			}
			newHeadLB := p.trail.LowerBound(arc.tailVar) + p.arcOffset(arc)
			if newHeadLB > p.trail.LowerBound(arc.headVar) {
				if !p.enqueueAndCheck(arc, newHeadLB) {
					return false
				}
			}
		}
	}

	p.initializeBFQueueWithModifiedVars()
	if !p.bellmanFordTarjan() {
		return false
	}

	p.propagateOptionalArcs()
	p.modifiedVars = make(map[integer.Variable]bool)
	return true
}

// PropagateOutgoingArcs pushes every arc leaving var without running a full
// Bellman-Ford-Tarjan pass; callers that know var is the only node touched
// can use this cheaper path instead of Propagate.
func (p *Propagator) PropagateOutgoingArcs(v integer.Variable) bool {
	for _, idx := range p.impactedArcs[v] {
		arc := p.arcs[idx]
		if p.trail.IsCurrentlyIgnored(arc.headVar) {
			continue
		}
		newHeadLB := p.trail.LowerBound(arc.tailVar) + p.arcOffset(arc)
		if newHeadLB > p.trail.LowerBound(arc.headVar) {
			if !p.enqueueAndCheck(arc, newHeadLB) {
				return false
			}
		}
	}
	return true
}

// Untrail undoes every literal-driven arc activation performed by Propagate
// since the trail was at length trailIndex.
func (p *Propagator) Untrail(trailIndex int) {
	if p.propagationTrailIndex > trailIndex {
		p.modifiedVars = make(map[integer.Variable]bool)
	}
	for p.propagationTrailIndex > trailIndex {
		p.propagationTrailIndex--
		literal := p.boolTrail.At(p.propagationTrailIndex)
		impacted, ok := p.literalToNewImpactedArcs[literal]
		if !ok {
			continue
		}
		for _, idx := range impacted {
			if p.arcCounts[idx] == 0 {
				arc := p.arcs[idx]
				p.removeFromConditionalRelations(arc)
				tailArcs := p.impactedArcs[arc.tailVar]
				p.impactedArcs[arc.tailVar] = tailArcs[:len(tailArcs)-1]
			}
			p.arcCounts[idx]++
		}
	}
}

// ComputePrecedences returns, for every arc whose tail is in vars, the
// precedence it establishes on the arc's head variable, tagged with the
// index into vars of the tail that caused it. Variables with only a single
// such incoming relation are dropped: a lone precedence carries no
// information a direct bound check would not already give the caller.
func (p *Propagator) ComputePrecedences(vars []integer.Variable) []IntegerPrecedence {
	type sortedVar struct {
		lowerBound int64
		v          integer.Variable
	}
	var sortedVars []sortedVar
	var precedences []IntegerPrecedence

	degree := make(map[integer.Variable]int)
	lastIndex := make(map[integer.Variable]int)

	for index, v := range vars {
		for _, idx := range p.impactedArcs[v] {
			arc := p.arcs[idx]
			if p.trail.IsCurrentlyIgnored(arc.headVar) {
				continue
			}
			offset := p.arcOffset(arc)
			if offset < 0 {
				continue
			}
			if degree[arc.headVar] == 0 {
				sortedVars = append(sortedVars, sortedVar{p.trail.LowerBound(arc.headVar), arc.headVar})
			} else if lastIndex[arc.headVar] == index {
				continue
			}
			lastIndex[arc.headVar] = index
			degree[arc.headVar]++
			precedences = append(precedences, IntegerPrecedence{Index: index, Var: arc.headVar, Offset: offset})
		}
	}

	sort.Slice(sortedVars, func(i, j int) bool { return sortedVars[i].lowerBound < sortedVars[j].lowerBound })

	start := 0
	starts := make(map[integer.Variable]int)
	for _, sv := range sortedVars {
		if degree[sv.v] > 1 {
			starts[sv.v] = start
			start += degree[sv.v]
		} else {
			starts[sv.v] = -1
		}
	}

	output := make([]IntegerPrecedence, start)
	for _, prec := range precedences {
		s := starts[prec.Var]
		if s < 0 {
			continue
		}
		output[s] = prec
		starts[prec.Var] = s + 1
	}
	return output
}

// ComputePartialPrecedences is ComputePrecedences regrouped by Var, meant to
// be called only at the root decision level where its output is valid for
// the whole search.
func (p *Propagator) ComputePartialPrecedences(vars []integer.Variable) []FullIntegerPrecedence {
	before := p.ComputePrecedences(vars)
	var output []FullIntegerPrecedence
	for i := 0; i < len(before); {
		v := before[i].Var
		data := FullIntegerPrecedence{Var: v}
		for ; i < len(before) && before[i].Var == v; i++ {
			data.Indices = append(data.Indices, before[i].Index)
			data.Offsets = append(data.Offsets, before[i].Offset)
		}
		output = append(output, data)
	}
	return output
}

// AddPrecedenceReason fills literalReason/integerReason with the reason for
// the arc at arcIndex to have forced its observed minOffset: the negation of
// every presence literal that makes the arc active, plus — when the arc
// carries a variable offset — the bound fact that makes the offset at least
// minOffset.
func (p *Propagator) AddPrecedenceReason(arcIdx int, minOffset int64, literalReason *[]integer.Literal, integerReason *[]integer.IntegerLiteral) {
	arc := p.arcs[arcIdx]
	for _, l := range arc.presenceLiterals {
		*literalReason = append(*literalReason, l.Negated())
	}
	if arc.offsetVar != integer.NoVariable {
		*integerReason = append(*integerReason, integer.GreaterOrEqual(arc.offsetVar, minOffset-arc.offset))
	}
}

func appendLowerBoundReasonIfValid(v integer.Variable, trail integer.IntegerTrail, reason *[]integer.IntegerLiteral) {
	if v != integer.NoVariable {
		*reason = append(*reason, trail.LowerBoundAsLiteral(v))
	}
}

// enqueueAndCheck pushes the bound newHeadLB implied by arc, or reports the
// conflict/forced-ignore that pushing it would require. It is also the one
// place this propagator learns that arc.headVar moved, since nothing else
// here watches the trail on our behalf mid-Propagate: every successful push
// marks the head modified so propagateOptionalArcs (which only reconsiders
// modified variables) sees it within this same call, not just on the next one.
func (p *Propagator) enqueueAndCheck(arc arcInfo, newHeadLB int64) bool {
	p.numPushes++
	p.modifiedVars[arc.headVar] = true

	var literalReason []integer.Literal
	for _, l := range arc.presenceLiterals {
		literalReason = append(literalReason, l.Negated())
	}

	var integerReason []integer.IntegerLiteral
	integerReason = append(integerReason, p.trail.LowerBoundAsLiteral(arc.tailVar))
	appendLowerBoundReasonIfValid(arc.offsetVar, p.trail, &integerReason)

	if newHeadLB > p.trail.UpperBound(arc.headVar) {
		slack := newHeadLB - p.trail.UpperBound(arc.headVar) - 1
		integerReason = append(integerReason, p.trail.UpperBoundAsLiteral(arc.headVar))
		coeffs := make([]int64, len(integerReason))
		for i := range coeffs {
			coeffs[i] = 1
		}
		p.trail.RelaxLinearReason(slack, coeffs, &integerReason)

		if !p.trail.IsOptional(arc.headVar) {
			return p.trail.ReportConflict(literalReason, integerReason)
		}
		l := p.trail.IsIgnoredLiteral(arc.headVar)
		if p.boolTrail.Assignment().LiteralIsFalse(l) {
			literalReason = append(literalReason, l)
			return p.trail.ReportConflict(literalReason, integerReason)
		}
		return p.trail.EnqueueLiteral(l, literalReason, integerReason)
	}

	return p.trail.Enqueue(integer.GreaterOrEqual(arc.headVar, newHeadLB), literalReason, integerReason)
}

func (p *Propagator) propagateOptionalArcs() {
	for v := range p.modifiedVars {
		for _, idx := range p.impactedPotentialArcs[v] {
			arc := p.arcs[idx]
			if len(arc.presenceLiterals) == 0 {
				continue
			}
			numNotTrue := 0
			var toPropagate integer.Literal
			assignment := p.boolTrail.Assignment()
			for _, l := range arc.presenceLiterals {
				if !assignment.LiteralIsTrue(l) {
					numNotTrue++
					toPropagate = l
				}
			}
			if numNotTrue != 1 || assignment.LiteralIsFalse(toPropagate) {
				continue
			}

			tailLB := p.trail.LowerBound(arc.tailVar)
			headUB := p.trail.UpperBound(arc.headVar)
			if tailLB+p.arcOffset(arc) > headUB {
				var integerReason []integer.IntegerLiteral
				integerReason = append(integerReason,
					p.trail.LowerBoundAsLiteral(arc.tailVar),
					p.trail.UpperBoundAsLiteral(arc.headVar))
				appendLowerBoundReasonIfValid(arc.offsetVar, p.trail, &integerReason)

				var literalReason []integer.Literal
				for _, l := range arc.presenceLiterals {
					if l != toPropagate {
						literalReason = append(literalReason, l.Negated())
					}
				}
				p.numEnforcementPushes++
				p.trail.EnqueueLiteral(toPropagate.Negated(), literalReason, integerReason)
			}
		}
	}
}

func (p *Propagator) initializeBFQueueWithModifiedVars() {
	for node := range p.bfInQueue {
		p.bfInQueue[node] = false
	}
	p.bfQueue = p.bfQueue[:0]
	for v := range p.modifiedVars {
		p.bfQueue = append(p.bfQueue, v)
		p.bfInQueue[v] = true
	}
}

func (p *Propagator) cleanUpMarkedArcsAndParents() {
	for v := range p.modifiedVars {
		idx, ok := p.bfParentArcOf[v]
		if !ok || idx == noArcIndex {
			continue
		}
		p.arcs[idx].isMarked = false
		delete(p.bfParentArcOf, v)
		delete(p.bfCanBeSkipped, v)
	}
}

// disassembleSubtree walks the shortest-path tree rooted at source,
// unmarking every arc it finds (so a later pass does not re-detect the same
// cycle), and reports whether target is reachable from source through
// currently-marked arcs — i.e. whether the tree contains a positive cycle
// back to target.
func (p *Propagator) disassembleSubtree(source, target integer.Variable) bool {
	stack := []integer.Variable{source}
	for len(stack) > 0 {
		tail := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, idx := range p.impactedArcs[tail] {
			arc := &p.arcs[idx]
			if !arc.isMarked {
				continue
			}
			arc.isMarked = false
			if arc.headVar == target {
				return true
			}
			p.bfCanBeSkipped[arc.headVar] = true
			stack = append(stack, arc.headVar)
		}
	}
	return false
}

// analyzePositiveCycle follows bfParentArcOf back from firstArc to recover
// the positive-weight cycle that contains it, and builds the conflict reason
// backing that cycle together with mustBeAllTrue, the ignore literals of
// every optional head on the cycle (empty when no head is optional), which
// the caller pushes true instead of reporting a conflict.
func (p *Propagator) analyzePositiveCycle(firstArc arcIndex) (mustBeAllTrue []integer.Literal, literalReason []integer.Literal, integerReason []integer.IntegerLiteral) {
	firstArcHead := p.arcs[firstArc].headVar
	idx := firstArc
	var arcsOnCycle []arcIndex

	numNodes := len(p.impactedArcs)
	for len(arcsOnCycle) <= numNodes {
		arcsOnCycle = append(arcsOnCycle, idx)
		arc := p.arcs[idx]
		if arc.tailVar == firstArcHead {
			break
		}
		parent, ok := p.bfParentArcOf[arc.tailVar]
		if !ok {
			glog.Fatalf("analyzePositiveCycle: no parent arc for %v, cycle bookkeeping is broken", arc.tailVar)
		}
		idx = parent
	}

	sum := int64(0)
	for _, ai := range arcsOnCycle {
		arc := p.arcs[ai]
		sum += p.arcOffset(arc)
		appendLowerBoundReasonIfValid(arc.offsetVar, p.trail, &integerReason)
		for _, l := range arc.presenceLiterals {
			literalReason = append(literalReason, l.Negated())
		}
		if p.trail.IsOptional(arc.headVar) {
			mustBeAllTrue = append(mustBeAllTrue, p.trail.IsIgnoredLiteral(arc.headVar))
		}
	}
	if sum <= 0 {
		glog.Fatalf("analyzePositiveCycle found a non-positive cycle (sum=%d); propagation invariants are broken", sum)
	}
	return mustBeAllTrue, literalReason, integerReason
}

// bellmanFordTarjan propagates every queued variable's outgoing arcs,
// growing the shortest-path tree as it goes and using disassembleSubtree to
// detect positive cycles (a certificate of infeasibility) as soon as one
// closes, rather than waiting for a full Bellman-Ford pass to notice no
// further relaxation is possible.
func (p *Propagator) bellmanFordTarjan() bool {
	defer p.cleanUpMarkedArcsAndParents()

	for len(p.bfQueue) > 0 {
		node := p.bfQueue[0]
		p.bfQueue = p.bfQueue[1:]
		p.bfInQueue[node] = false

		if p.bfCanBeSkipped[node] {
			continue
		}

		tailLB := p.trail.LowerBound(node)
		for _, idx := range p.impactedArcs[node] {
			arc := p.arcs[idx]
			candidate := tailLB + p.arcOffset(arc)
			if candidate <= p.trail.LowerBound(arc.headVar) {
				continue
			}
			if p.trail.IsCurrentlyIgnored(arc.headVar) {
				continue
			}
			if !p.enqueueAndCheck(arc, candidate) {
				return false
			}

			if p.disassembleSubtree(arc.headVar, arc.tailVar) {
				mustBeAllTrue, literalReason, integerReason := p.analyzePositiveCycle(idx)
				if len(mustBeAllTrue) == 0 {
					p.numCycles++
					return p.trail.ReportConflict(literalReason, integerReason)
				}
				mustBeAllTrue = integer.SortAndDedupeLiterals(mustBeAllTrue)
				assignment := p.boolTrail.Assignment()
				for _, l := range mustBeAllTrue {
					if assignment.LiteralIsFalse(l) {
						literalReason = append(literalReason, l)
						return p.trail.ReportConflict(literalReason, integerReason)
					}
				}
				for _, l := range mustBeAllTrue {
					if assignment.LiteralIsTrue(l) {
						continue
					}
					p.trail.EnqueueLiteral(l, literalReason, integerReason)
				}
				continue
			}

			if parent, ok := p.bfParentArcOf[arc.headVar]; ok && parent != noArcIndex {
				p.arcs[parent].isMarked = false
			}

			newBound := p.trail.LowerBound(arc.headVar)
			if newBound == candidate {
				p.bfParentArcOf[arc.headVar] = idx
				p.arcs[idx].isMarked = true
			} else {
				delete(p.bfParentArcOf, arc.headVar)
			}

			p.bfCanBeSkipped[arc.headVar] = false
			if !p.bfInQueue[arc.headVar] && newBound >= candidate {
				p.bfQueue = append(p.bfQueue, arc.headVar)
				p.bfInQueue[arc.headVar] = true
			}
		}
	}
	return true
}
