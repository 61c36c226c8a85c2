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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithNoSources(t *testing.T) {
	cfg, err := Load("", "")
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoadJSONOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"group-by-sample-percent": 0.5}`), 0o644))

	cfg, err := Load(path, "")
	require.NoError(t, err)
	require.Equal(t, 0.5, cfg.GroupBySamplePercent)
	require.Equal(t, Default().GroupBySampleMaxRows, cfg.GroupBySampleMaxRows)
}

func TestShorthandOverridesJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"group-by-sample-percent": 0.5}`), 0o644))

	cfg, err := Load(path, "group-by-sample-percent=0.75")
	require.NoError(t, err)
	require.Equal(t, 0.75, cfg.GroupBySamplePercent)
}

func TestShorthandRejectsUnrecognizedKey(t *testing.T) {
	_, err := Load("", "not-a-real-key=1")
	require.Error(t, err)
}

func TestShorthandRejectsMalformedPair(t *testing.T) {
	_, err := Load("", "group-by-sample-percent")
	require.Error(t, err)
}
