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

// Package precedence maintains the incremental difference-constraint graph
// over integer variables that backs bound propagation along chains of
// "tail + offset <= head" relations, plus the frozen relation store used to
// answer after-the-fact precedence queries once no more arcs will be added.
package precedence

import (
	"math"
	"sort"

	"github.com/golang/glog"

	"github.com/cpsat-go/precedence/ortools/sat/go/integer"
)

// relationKey identifies a directed pair in the all-pairs closure built by
// Build: "before happens at least offset time units before after".
type relationKey struct {
	before integer.Variable
	after  integer.Variable
}

// FullIntegerPrecedence reports, for one variable, which variables of the
// subset passed to ComputeFullPrecedences are known to precede it, and by
// what offset: vars[Indices[i]] + Offsets[i] <= Var. Indices index back into
// that subset.
type FullIntegerPrecedence struct {
	Var     integer.Variable
	Indices []int
	Offsets []int64
}

// Relations is an append-only store of "tail + offset <= head" arcs. Once
// Build (or ComputeFullPrecedences, which calls it) runs, the arc set is
// frozen: later calls to Add are silently ignored, mirroring the upstream
// rule that precedences discovered after the linear relaxation has already
// consulted the store cannot retroactively change its answers.
//
// Relations is not safe for concurrent use; callers serialize access to it
// the same way they serialize access to the rest of the propagation chain.
type Relations struct {
	trail integer.IntegerTrail

	arcTail   []integer.Variable
	arcHead   []integer.Variable
	arcOffset []int64

	isBuilt bool
	isDAG   bool

	// outgoing[v] lists, in insertion order, the arc indices leaving v. Built
	// once by Build and never mutated afterward.
	outgoing map[integer.Variable][]int

	topologicalOrder []integer.Variable
	allRelations     map[relationKey]int64
}

// NewRelations returns an empty relation store backed by trail, which is
// consulted to drop arcs that are already trivially implied by the current
// level-zero bounds.
func NewRelations(trail integer.IntegerTrail) *Relations {
	return &Relations{trail: trail}
}

// Add records that tail + offset <= head. Arcs with a negative offset are
// rejected: the store only ever represents a DAG of non-decreasing
// precedences, and a negative-offset arc back toward variables already
// ahead of tail in a chain would require general cycle handling this store
// does not attempt.
func (r *Relations) Add(tail, head integer.Variable, offset int64) {
	// Loading a linear constraint as part of the linear relaxation can race
	// with queries already served off a frozen store; once built, new arcs
	// are just dropped.
	if r.isBuilt {
		return
	}
	if r.trail.UpperBound(tail)+offset <= r.trail.LowerBound(head) {
		return
	}
	if integer.PositiveVariable(tail) == integer.PositiveVariable(head) {
		return
	}
	if offset < 0 {
		return
	}

	r.arcTail = append(r.arcTail, tail, head.Negation())
	r.arcHead = append(r.arcHead, head, tail.Negation())
	r.arcOffset = append(r.arcOffset, offset, offset)
}

// Build freezes the arc set, computes a topological order if the graph is a
// DAG, and — when it is — eagerly materializes the all-pairs transitive
// closure up to a fixed work budget. Build is idempotent; later calls are
// no-ops.
func (r *Relations) Build() {
	if r.isBuilt {
		return
	}
	r.isBuilt = true

	r.outgoing = make(map[integer.Variable][]int, len(r.arcTail))
	for i, tail := range r.arcTail {
		r.outgoing[tail] = append(r.outgoing[tail], i)
	}

	order, isDAG := stableTopologicalOrder(r.arcTail, r.arcHead)
	r.topologicalOrder = order
	r.isDAG = isDAG
	if !r.isDAG {
		return
	}

	r.buildFullRelations()
}

// stableTopologicalOrder runs Kahn's algorithm over the arcs, always
// breaking ties among currently-available nodes by increasing variable
// index, so the order depends only on the arc set and not on the order in
// which arcs were added. It reports false if the arcs
// contain a cycle, in which case the returned order only covers the nodes
// reached before the cycle was detected.
func stableTopologicalOrder(arcTail, arcHead []integer.Variable) ([]integer.Variable, bool) {
	indegree := make(map[integer.Variable]int)
	adjacency := make(map[integer.Variable][]integer.Variable)
	nodes := make(map[integer.Variable]bool)
	for i := range arcTail {
		tail, head := arcTail[i], arcHead[i]
		nodes[tail] = true
		nodes[head] = true
		if _, ok := indegree[head]; !ok {
			indegree[head] = 0
		}
		if _, ok := indegree[tail]; !ok {
			indegree[tail] = 0
		}
		indegree[head]++
		adjacency[tail] = append(adjacency[tail], head)
	}

	available := make([]integer.Variable, 0, len(nodes))
	for v := range nodes {
		if indegree[v] == 0 {
			available = append(available, v)
		}
	}
	sort.Slice(available, func(i, j int) bool { return available[i] < available[j] })

	var order []integer.Variable
	for len(available) > 0 {
		sort.Slice(available, func(i, j int) bool { return available[i] < available[j] })
		next := available[0]
		available = available[1:]
		order = append(order, next)
		for _, head := range adjacency[next] {
			indegree[head]--
			if indegree[head] == 0 {
				available = append(available, head)
			}
		}
	}
	return order, len(order) == len(nodes)
}

// buildFullRelations walks the topological order once, propagating, for
// every node, the set of nodes known to precede it together with the
// largest offset by which they do. Work is capped: past the limit the
// partially built closure is kept as-is rather than aborted, the same
// trade-off the upstream propagator makes between completeness and a
// bounded preprocessing pass.
func (r *Relations) buildFullRelations() {
	const workLimit = 1_000_000
	work := 0

	r.allRelations = make(map[relationKey]int64)
	before := make(map[integer.Variable][]integer.Variable)

	add := func(a, b integer.Variable, offset int64) {
		key := relationKey{before: a, after: b}
		if existing, ok := r.allRelations[key]; ok {
			if offset > existing {
				r.allRelations[key] = offset
			}
			return
		}
		r.allRelations[key] = offset
		before[b] = append(before[b], a)
	}

outer:
	for _, tailVar := range r.topologicalOrder {
		work++
		if work > workLimit {
			break
		}
		for _, arc := range r.outgoing[tailVar] {
			headVar := r.arcHead[arc]
			arcOffset := r.arcOffset[arc]

			work++
			if work > workLimit {
				break outer
			}
			add(tailVar, headVar, arcOffset)
			add(headVar.Negation(), tailVar.Negation(), arcOffset)

			for _, beforeVar := range before[tailVar] {
				work++
				if work > workLimit {
					break outer
				}
				offset := r.allRelations[relationKey{before: beforeVar, after: tailVar}] + arcOffset
				add(beforeVar, headVar, offset)
				add(headVar.Negation(), beforeVar.Negation(), offset)
			}
		}
	}

	glog.V(2).Infof("full precedences: work=%d relations=%d", work, len(r.allRelations))
}

// ComputeFullPrecedences reports, for every variable that variables of vars
// are usefully known to precede, the full set of (index into vars, offset)
// pairs of those predecessors. It returns
// nil if the arc graph is not a DAG: the store makes no attempt to extract
// partial precedences in the presence of a cycle.
func (r *Relations) ComputeFullPrecedences(vars []integer.Variable) []FullIntegerPrecedence {
	if !r.isBuilt {
		r.Build()
	}
	if !r.isDAG {
		return nil
	}

	glog.V(2).Infof("num_arcs: %d is_dag: %v", len(r.arcTail), r.isDAG)

	toConsider := make(map[integer.Variable]bool, len(vars))
	for _, v := range vars {
		toConsider[v] = true
	}
	varIndex := make(map[integer.Variable]int, len(vars))
	for i, v := range vars {
		varIndex[v] = i
	}

	isInteresting := make(map[integer.Variable]bool)
	varsBeforeWithOffset := make(map[integer.Variable]map[integer.Variable]int64)

	var output []FullIntegerPrecedence
	for _, tailVar := range r.topologicalOrder {
		_, consider := toConsider[tailVar]
		_, hasIncoming := varsBeforeWithOffset[tailVar]
		if !consider && !hasIncoming {
			continue
		}

		tailMap := varsBeforeWithOffset[tailVar]

		for _, arc := range r.outgoing[tailVar] {
			headVar := r.arcHead[arc]
			arcOffset := r.arcOffset[arc]

			if len(tailMap) == 0 && !toConsider[tailVar] {
				continue
			}

			toUpdate := varsBeforeWithOffset[headVar]
			if toUpdate == nil {
				toUpdate = make(map[integer.Variable]int64)
				varsBeforeWithOffset[headVar] = toUpdate
			}
			for varBefore, offset := range tailMap {
				candidate := arcOffset + offset
				if existing, ok := toUpdate[varBefore]; !ok || candidate > existing {
					toUpdate[varBefore] = candidate
				}
			}
			if toConsider[tailVar] {
				if existing, ok := toUpdate[tailVar]; !ok || arcOffset > existing {
					toUpdate[tailVar] = arcOffset
				}
			}

			// If (before) already precedes tail, and tail precedes head, we
			// only need to list (before, tail) < head when head's before-set
			// holds something not already before tail.
			if len(toUpdate) > len(tailMap)+1 {
				isInteresting[headVar] = true
			} else {
				delete(isInteresting, headVar)
			}
		}

		if !isInteresting[tailVar] {
			continue
		}
		if len(tailMap) == 1 {
			continue
		}

		data := FullIntegerPrecedence{Var: tailVar}
		minOffset := int64(math.MaxInt64)
		for i, v := range vars {
			offset, ok := tailMap[v]
			if !ok {
				continue
			}
			data.Indices = append(data.Indices, i)
			data.Offsets = append(data.Offsets, offset)
			if offset < minOffset {
				minOffset = offset
			}
		}
		output = append(output, data)
	}
	return output
}
