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
	"context"

	"github.com/Benkex/benqlever/rowstore"
)

// DirectExecutor executes every Operation uncached: Execute is just
// op.ComputeResult(ctx, direct). Production callers go through the execctx
// package's cache-backed Executor instead; DirectExecutor exists for unit
// tests and for computing a single throwaway subtree that should never be
// published to the shared cache.
type DirectExecutor struct{}

// Execute implements Executor.
func (DirectExecutor) Execute(ctx context.Context, op Operation) (*rowstore.ResultTable, error) {
	return op.ComputeResult(ctx, DirectExecutor{})
}
