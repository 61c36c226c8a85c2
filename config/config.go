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

// Package config holds the benchmark/operator harness's runtime tunables
// (spec.md §6): the GROUP BY sampling and hash-map thresholds the planner
// and execution layer consult at runtime. Values merge from a JSON file and
// a shorthand string, the shorthand taking precedence (spec.md §6,
// "configuration-json and configuration-shorthand merge (shorthand
// overrides json)").
package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Keys recognized on the command line and in the JSON configuration file.
const (
	KeyGroupBySamplePercent         = "group-by-sample-percent"
	KeyGroupBySampleMaxRows         = "group-by-sample-max-rows"
	KeyGroupBySampleDistinctRatio   = "group-by-sample-distinct-ratio"
	KeyGroupBySampleGroupThreshold  = "group-by-sample-group-threshold"
	KeyGroupByHashMapGroupThreshold = "group-by-hash-map-group-threshold"
)

// Config holds the recognized runtime tunables, with the defaults a fresh
// engine starts with.
type Config struct {
	GroupBySamplePercent         float64 `mapstructure:"group-by-sample-percent"`
	GroupBySampleMaxRows         uint64  `mapstructure:"group-by-sample-max-rows"`
	GroupBySampleDistinctRatio   float64 `mapstructure:"group-by-sample-distinct-ratio"`
	GroupBySampleGroupThreshold  uint64  `mapstructure:"group-by-sample-group-threshold"`
	GroupByHashMapGroupThreshold uint64  `mapstructure:"group-by-hash-map-group-threshold"`
}

// Default returns the engine's built-in tunable defaults.
func Default() Config {
	return Config{
		GroupBySamplePercent:         0.01,
		GroupBySampleMaxRows:         100000,
		GroupBySampleDistinctRatio:   0.9,
		GroupBySampleGroupThreshold:  1000,
		GroupByHashMapGroupThreshold: 1000000,
	}
}

// Load merges Default() with jsonPath's contents (if non-empty) and then
// shorthand's key=value,key=value pairs (if non-empty), shorthand winning
// on conflicts.
func Load(jsonPath string, shorthand string) (Config, error) {
	v := viper.New()
	v.SetConfigType("json")

	cfg := Default()
	setDefaults(v, cfg)

	if jsonPath != "" {
		v.SetConfigFile(jsonPath)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Wrapf(err, "reading configuration-json %q", jsonPath)
		}
	}

	if shorthand != "" {
		overrides, err := parseShorthand(shorthand)
		if err != nil {
			return Config{}, err
		}
		for k, val := range overrides {
			v.Set(k, val)
		}
	}

	var out Config
	if err := v.Unmarshal(&out); err != nil {
		return Config{}, errors.Wrap(err, "unmarshaling merged configuration")
	}
	return out, nil
}

// Usage documents every recognized tunable and its default, for the
// benchmark harness's --configuration-options mode.
func Usage() string {
	d := Default()
	return fmt.Sprintf(`Recognized configuration-json / configuration-shorthand keys:

  %-38s float, fraction of rows sampled to estimate GROUP BY cardinality (default %v)
  %-38s uint, row count above which GROUP BY sampling activates (default %v)
  %-38s float, sampled-distinct-ratio above which sampling is trusted (default %v)
  %-38s uint, minimum estimated group count before sampling is attempted (default %v)
  %-38s uint, group count above which GROUP BY switches to a hash map (default %v)
`,
		KeyGroupBySamplePercent, d.GroupBySamplePercent,
		KeyGroupBySampleMaxRows, d.GroupBySampleMaxRows,
		KeyGroupBySampleDistinctRatio, d.GroupBySampleDistinctRatio,
		KeyGroupBySampleGroupThreshold, d.GroupBySampleGroupThreshold,
		KeyGroupByHashMapGroupThreshold, d.GroupByHashMapGroupThreshold,
	)
}

func setDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault(KeyGroupBySamplePercent, cfg.GroupBySamplePercent)
	v.SetDefault(KeyGroupBySampleMaxRows, cfg.GroupBySampleMaxRows)
	v.SetDefault(KeyGroupBySampleDistinctRatio, cfg.GroupBySampleDistinctRatio)
	v.SetDefault(KeyGroupBySampleGroupThreshold, cfg.GroupBySampleGroupThreshold)
	v.SetDefault(KeyGroupByHashMapGroupThreshold, cfg.GroupByHashMapGroupThreshold)
}

// parseShorthand parses "key=value,key2=value2" into a string-keyed map,
// rejecting unrecognized keys so a typo fails loudly instead of being
// silently ignored.
func parseShorthand(s string) (map[string]float64, error) {
	recognized := map[string]bool{
		KeyGroupBySamplePercent:         true,
		KeyGroupBySampleMaxRows:         true,
		KeyGroupBySampleDistinctRatio:   true,
		KeyGroupBySampleGroupThreshold:  true,
		KeyGroupByHashMapGroupThreshold: true,
	}

	out := map[string]float64{}
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			return nil, errors.Errorf("configuration-shorthand: malformed pair %q, want key=value", pair)
		}
		key := strings.TrimSpace(kv[0])
		if !recognized[key] {
			return nil, errors.Errorf("configuration-shorthand: unrecognized key %q", key)
		}
		val, err := strconv.ParseFloat(strings.TrimSpace(kv[1]), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "configuration-shorthand: value for %q", key)
		}
		out[key] = val
	}
	return out, nil
}
