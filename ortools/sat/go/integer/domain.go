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

import "sort"

// ClosedInterval stores the closed interval `[start,end]`. If `Start` is
// greater than `End`, the interval is considered empty.
type ClosedInterval struct {
	Start int64
	End   int64
}

// Domain stores an ordered, non-adjacent list of ClosedIntervals, used by the
// model view to enumerate the values of a fully encoded integer variable
// when picking a median decision.
type Domain struct {
	intervals []ClosedInterval
}

// adjacentOrOverlapping reports whether an interval beginning at start can
// be folded into a running interval ending at end without leaving a gap.
func adjacentOrOverlapping(end, start int64) bool {
	return end+1 >= start
}

// joinIntervals re-sorts d.intervals by (Start, End) and collapses the
// result down to the minimal non-adjacent representation in place, dropping
// any interval left empty (Start > End) by the callers that built it.
func (d *Domain) joinIntervals() {
	if len(d.intervals) == 0 {
		return
	}
	sort.Slice(d.intervals, func(i, j int) bool {
		if d.intervals[i].Start != d.intervals[j].Start {
			return d.intervals[i].Start < d.intervals[j].Start
		}
		return d.intervals[i].End < d.intervals[j].End
	})
	merged := d.intervals[:0]
	for _, cur := range d.intervals {
		if cur.Start > cur.End {
			continue
		}
		if n := len(merged); n > 0 && adjacentOrOverlapping(merged[n-1].End, cur.Start) {
			if cur.End > merged[n-1].End {
				merged[n-1].End = cur.End
			}
			continue
		}
		merged = append(merged, cur)
	}
	d.intervals = merged
}

// NewEmptyDomain creates an empty Domain.
func NewEmptyDomain() Domain {
	return Domain{}
}

// NewDomain creates a new domain of a single interval `[left,right]`. If
// `left > right`, an empty domain is returned.
func NewDomain(left, right int64) Domain {
	if left > right {
		return NewEmptyDomain()
	}
	return Domain{[]ClosedInterval{{left, right}}}
}

// FromValues creates a new domain from `values`. `values` need not be sorted
// and can repeat.
func FromValues(values []int64) Domain {
	var d Domain
	for _, v := range values {
		d.intervals = append(d.intervals, ClosedInterval{v, v})
	}
	d.joinIntervals()
	return d
}

// Min returns the minimum value of the domain, and false if the domain is
// empty.
func (d Domain) Min() (int64, bool) {
	if len(d.intervals) == 0 {
		return 0, false
	}
	return d.intervals[0].Start, true
}

// Max returns the maximum value of the domain, and false if the domain is
// empty.
func (d Domain) Max() (int64, bool) {
	if len(d.intervals) == 0 {
		return 0, false
	}
	return d.intervals[len(d.intervals)-1].End, true
}

// Values enumerates every value the domain contains, in increasing order.
// Intended for small, fully encoded domains only: the model view's median
// lookup is the one caller, and that only makes sense on a variable whose
// domain is small enough to have been entirely encoded into literals.
func (d Domain) Values() []int64 {
	var out []int64
	for _, itv := range d.intervals {
		for v := itv.Start; v <= itv.End; v++ {
			out = append(out, v)
		}
	}
	return out
}
