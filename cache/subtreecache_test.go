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

package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Benkex/benqlever/rowstore"
)

func buildReady(rows ...rowstore.Row) BuildFunc {
	return func(context.Context) (*rowstore.ResultTable, error) {
		width := 1
		if len(rows) > 0 {
			width = len(rows[0])
		}
		rt := rowstore.NewResultTable(width)
		for _, r := range rows {
			_ = rt.AppendRow(r)
		}
		rt.Publish(rowstore.SortedOnUnknown)
		return rt, nil
	}
}

func TestLookupMiss(t *testing.T) {
	c := New(10, nil)
	_, err := c.Lookup("nope")
	require.Error(t, err)
	require.True(t, ErrKeyNotFound.Is(err))
}

func TestGetOrBuildCachesResult(t *testing.T) {
	c := New(10, nil)
	var calls atomic.Int32
	build := func(context.Context) (*rowstore.ResultTable, error) {
		calls.Add(1)
		rt := rowstore.NewResultTable(1)
		require.NoError(t, rt.AppendRow(rowstore.NewRow(1)))
		rt.Publish(rowstore.SortedOnUnknown)
		return rt, nil
	}

	rt1, err := c.GetOrBuild(context.Background(), "k", build)
	require.NoError(t, err)
	rt2, err := c.GetOrBuild(context.Background(), "k", build)
	require.NoError(t, err)

	require.Same(t, rt1, rt2)
	require.Equal(t, int32(1), calls.Load())
}

// TestGetOrBuildSingleFlight implements spec.md §8 scenario 5.
func TestGetOrBuildSingleFlight(t *testing.T) {
	c := New(10, nil)
	var calls atomic.Int32
	start := make(chan struct{})
	release := make(chan struct{})

	build := func(context.Context) (*rowstore.ResultTable, error) {
		calls.Add(1)
		close(start)
		<-release
		rt := rowstore.NewResultTable(1)
		require.NoError(t, rt.AppendRow(rowstore.NewRow(7)))
		rt.Publish(rowstore.SortedOnUnknown)
		return rt, nil
	}

	var wg sync.WaitGroup
	results := make([]*rowstore.ResultTable, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = c.GetOrBuild(context.Background(), "slow", build)
		}(i)
	}

	<-start
	close(release)
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	require.Same(t, results[0], results[1])
	require.Equal(t, int32(1), calls.Load())
}

func TestGetOrBuildFailureIsReturnedAndNotCached(t *testing.T) {
	c := New(10, nil)
	boom := errors.New("boom")
	build := func(context.Context) (*rowstore.ResultTable, error) {
		return nil, boom
	}

	_, err := c.GetOrBuild(context.Background(), "k", build)
	require.Error(t, err)
	require.True(t, ErrBuildFailed.Is(err))

	require.Equal(t, 0, c.Len())
	_, err = c.Lookup("k")
	require.Error(t, err)
}

func TestClearRemovesReadyEntries(t *testing.T) {
	c := New(10, nil)
	_, err := c.GetOrBuild(context.Background(), "k", buildReady(rowstore.NewRow(1)))
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())

	c.Clear()
	require.Equal(t, 0, c.Len())
	_, err = c.Lookup("k")
	require.Error(t, err)
}

func TestLRUEviction(t *testing.T) {
	c := New(2, nil)
	_, err := c.GetOrBuild(context.Background(), "a", buildReady(rowstore.NewRow(1)))
	require.NoError(t, err)
	_, err = c.GetOrBuild(context.Background(), "b", buildReady(rowstore.NewRow(2)))
	require.NoError(t, err)
	_, err = c.GetOrBuild(context.Background(), "c", buildReady(rowstore.NewRow(3)))
	require.NoError(t, err)

	require.Equal(t, 2, c.Len())
	_, err = c.Lookup("a")
	require.Error(t, err, "oldest entry should have been evicted")

	stats := c.Stats()
	require.Equal(t, uint64(1), stats.Evictions)
}
