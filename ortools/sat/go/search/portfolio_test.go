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
	"testing"
)

func names(params []SatParameters) []string {
	out := make([]string, len(params))
	for i, p := range params {
		out[i] = p.Name
	}
	return out
}

func TestGetDiverseSetOfParameters_NoObjectiveDropsCoreAndFixed(t *testing.T) {
	base := SatParameters{
		Subsolvers: []string{"core", "no_lp", "fixed"},
		RandomSeed: 7,
	}
	shape := ProblemShape{HasObjective: false, UserSearchStrategyIsEmpty: true}

	got := GetDiverseSetOfParameters(base, shape, 3)
	if len(got) != 3 {
		t.Fatalf("len(got) = %d, want 3", len(got))
	}
	if got[0].Name != "no_lp" {
		t.Errorf("got[0].Name = %q, want %q (core dropped: no objective; fixed dropped: no user strategy)", got[0].Name, "no_lp")
	}
	// The remaining two slots are padded with randomized variants since
	// only one named strategy survived the filter.
	for i := 1; i < len(got); i++ {
		if !got[i].RandomizeSearch {
			t.Errorf("got[%d].RandomizeSearch = false, want true for a padded portfolio slot", i)
		}
	}
}

func TestGetDiverseSetOfParameters_SeedsAreOneBasedOffsetsFromBase(t *testing.T) {
	base := SatParameters{RandomSeed: 100}
	shape := ProblemShape{HasObjective: true}

	got := GetDiverseSetOfParameters(base, shape, 4)
	for i, p := range got {
		if want := base.RandomSeed + int64(i) + 1; p.RandomSeed != want {
			t.Errorf("got[%d].RandomSeed = %d, want %d (base + index + 1)", i, p.RandomSeed, want)
		}
	}
}

func TestGetDiverseSetOfParameters_CoreOrNoLpAliasResolvesOnObjectiveArity(t *testing.T) {
	multiTerm := ProblemShape{HasObjective: true, ObjectiveNumTerms: 5}
	single := ProblemShape{HasObjective: true, ObjectiveNumTerms: 1}
	noObjective := ProblemShape{HasObjective: false}

	for _, tc := range []struct {
		name  string
		shape ProblemShape
		want  string
	}{
		{"multi-term objective resolves to core", multiTerm, "core"},
		{"single-term objective resolves to no_lp", single, "no_lp"},
		{"no objective resolves to no_lp", noObjective, "no_lp"},
	} {
		base := SatParameters{Subsolvers: []string{"core_or_no_lp"}}
		got := GetDiverseSetOfParameters(base, tc.shape, 1)
		if len(got) != 1 || got[0].Name != tc.want {
			t.Errorf("%s: GetDiverseSetOfParameters(...) names = %v, want [%q]", tc.name, names(got), tc.want)
		}
	}
}

func TestGetDiverseSetOfParameters_StableUnderSubsolverReordering(t *testing.T) {
	shape := ProblemShape{HasObjective: true, ObjectiveNumTerms: 2}
	a := GetDiverseSetOfParameters(SatParameters{Subsolvers: []string{"no_lp", "max_lp", "core"}}, shape, 3)
	b := GetDiverseSetOfParameters(SatParameters{Subsolvers: []string{"core", "no_lp", "max_lp"}}, shape, 3)

	// The emission order follows the fixed namedStrategies table, not the
	// order subsolvers happened to be listed in, so both requests should
	// produce the same sequence of names.
	an, bn := names(a), names(b)
	if len(an) != len(bn) {
		t.Fatalf("len mismatch: %v vs %v", an, bn)
	}
	for i := range an {
		if an[i] != bn[i] {
			t.Errorf("names[%d] = %q vs %q, want equal regardless of Subsolvers order", i, an[i], bn[i])
		}
	}
}

func TestGetDiverseSetOfParameters_IgnoreSubsolversFilters(t *testing.T) {
	base := SatParameters{IgnoreSubsolvers: []string{"no_lp"}}
	shape := ProblemShape{HasObjective: false}

	got := GetDiverseSetOfParameters(base, shape, 1)
	if len(got) != 1 || got[0].Name == "no_lp" {
		t.Errorf("GetDiverseSetOfParameters(...) = %v, want the first entry not to be the ignored no_lp", names(got))
	}
}

func TestGetDiverseSetOfParameters_EmptySubsolversUsesFixedDefaultOrder(t *testing.T) {
	// No Subsolvers list: the portfolio falls back to the fixed default
	// order (cp_model_search.cc's own default), not a scan of every
	// namedStrategies entry in table-declaration order. less_encoding is
	// dropped because this shape has an objective; every other default-list
	// entry applies to a multi-term objective with no conflicting shape bit.
	base := SatParameters{RandomSeed: 1}
	shape := ProblemShape{HasObjective: true, ObjectiveNumTerms: 5}

	got := GetDiverseSetOfParameters(base, shape, 12)
	want := []string{
		"default_lp", "fixed", "no_lp", "max_lp", "core",
		"reduced_costs", "pseudo_costs", "quick_restart",
		"quick_restart_no_lp", "lb_tree_search", "probing", "max_hs",
	}
	gotNames := names(got)
	if len(gotNames) != len(want) {
		t.Fatalf("GetDiverseSetOfParameters(...) = %v, want %v", gotNames, want)
	}
	for i := range want {
		if gotNames[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q (full default order %v)", i, gotNames[i], want[i], want)
		}
	}
	never := map[string]bool{
		"default": true, "core_default_lp": true, "core_max_lp": true,
		"auto": true, "quick_restart_max_lp": true, "probing_no_lp": true,
		"probing_max_lp": true,
	}
	for _, n := range gotNames {
		if never[n] {
			t.Errorf("names = %v contains %q, which is never in the real default list", gotNames, n)
		}
	}
}

func TestGetDiverseSetOfParameters_ZeroWorkersReturnsNil(t *testing.T) {
	if got := GetDiverseSetOfParameters(SatParameters{}, ProblemShape{}, 0); got != nil {
		t.Errorf("GetDiverseSetOfParameters(..., 0) = %v, want nil", got)
	}
}
