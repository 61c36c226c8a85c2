// Copyright 2024 The Benqlever Authors.
//
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

package qet

import (
	"fmt"
	"sort"
	"strings"
)

// commutativeKey builds the canonical key for a commutative binary operator
// (currently only Join): the two child keys are sorted lexicographically, so
// the children list does not depend on which side the planner put first
// (spec.md §9, "sort child keys where the operator is commutative"). params
// are kept as given; Join's lcol/rcol record which column belongs to which
// side, so a join and its side-swapped twin still get different keys.
func commutativeKey(op string, params string, children ...string) string {
	sorted := append([]string(nil), children...)
	sort.Strings(sorted)
	return fmt.Sprintf("%s(%s)[%s]", op, params, strings.Join(sorted, ","))
}

// key builds the canonical key for a non-commutative operator: child order
// is preserved as given, since it is semantically significant.
func key(op string, params string, children ...string) string {
	return fmt.Sprintf("%s(%s)[%s]", op, params, strings.Join(children, ","))
}
