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

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestVariable_Negation(t *testing.T) {
	v := Variable(4)
	n := v.Negation()
	if n.Negation() != v {
		t.Errorf("v.Negation().Negation() = %v, want %v", n.Negation(), v)
	}
	if !v.IsPositive() || n.IsPositive() {
		t.Errorf("IsPositive() = (%v, %v), want (true, false)", v.IsPositive(), n.IsPositive())
	}
	if PositiveVariable(n) != v {
		t.Errorf("PositiveVariable(%v) = %v, want %v", n, PositiveVariable(n), v)
	}
}

func TestLiteral_Negated(t *testing.T) {
	l := Literal(6)
	if l.Negated().Negated() != l {
		t.Errorf("l.Negated().Negated() = %v, want %v", l.Negated().Negated(), l)
	}
	if l.Negated() == l {
		t.Errorf("l.Negated() == l, want different literal")
	}
}

func TestGreaterOrEqual_LowerOrEqual_Duality(t *testing.T) {
	v := Variable(2)
	ge := GreaterOrEqual(v, 5)
	// v <= 5  ==  ¬v >= -5.
	le := LowerOrEqual(v, 5)
	want := IntegerLiteral{Var: v.Negation(), Bound: -5}
	if diff := cmp.Diff(want, le); diff != "" {
		t.Errorf("LowerOrEqual(v, 5) returned with unexpected diff (-want+got);\n%s", diff)
	}
	if ge.Var != v || ge.Bound != 5 {
		t.Errorf("GreaterOrEqual(v, 5) = %+v, want {Var: %v, Bound: 5}", ge, v)
	}
}

func TestSortAndDedupeLiterals(t *testing.T) {
	lits := []Literal{5, 1, 3, 1, 5, 2}
	got := SortAndDedupeLiterals(lits)
	want := []Literal{1, 2, 3, 5}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("SortAndDedupeLiterals(...) returned with unexpected diff (-want+got);\n%s", diff)
	}
}

func TestPositiveRef(t *testing.T) {
	testCases := []struct {
		ref  int
		want int
	}{
		{ref: 0, want: 0},
		{ref: 5, want: 5},
		{ref: -1, want: 0},
		{ref: -6, want: 5},
	}
	for _, test := range testCases {
		if got := PositiveRef(test.ref); got != test.want {
			t.Errorf("PositiveRef(%v) = %v, want %v", test.ref, got, test.want)
		}
	}
}
