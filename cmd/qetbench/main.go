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

// Command qetbench is the operator benchmark harness (spec.md §6): it runs a
// fixed battery of Query Execution Tree operators against an in-memory
// catalog and reports each operator's wall-clock time plus the cost model's
// own estimate, either for human inspection or as a machine-readable JSON
// report that can be appended to across runs.
package main

import (
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Benkex/benqlever/benchrun"
	"github.com/Benkex/benqlever/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func newRootCmd() *cobra.Command {
	var (
		printMode     bool
		writeFile     string
		showConfigDoc bool
		appendMode    bool
		confJSON      string
		confShorthand string
		verbose       bool
		cacheCapacity int
	)

	cmd := &cobra.Command{
		Use:   "qetbench",
		Short: "Run the query-execution-tree operator benchmark suite",
		RunE: func(cmd *cobra.Command, args []string) error {
			modes := 0
			for _, on := range []bool{printMode, writeFile != "", showConfigDoc} {
				if on {
					modes++
				}
			}
			if modes == 0 {
				return errors.New("one of --print, --write, or --configuration-options is required")
			}
			if modes > 1 {
				return errors.New("--print, --write, and --configuration-options are mutually exclusive")
			}

			if showConfigDoc {
				fmt.Fprintln(cmd.OutOrStdout(), config.Usage())
				return nil
			}

			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			}
			cfg, err := config.Load(confJSON, confShorthand)
			if err != nil {
				return err
			}

			results, err := benchrun.Run(benchrun.Options{
				Config:        cfg,
				CacheCapacity: cacheCapacity,
				Log:           logrus.NewEntry(logrus.StandardLogger()),
			})
			if err != nil {
				return errors.Wrap(err, "running benchmark suite")
			}

			if printMode {
				return printReport(cmd, results, verbose)
			}
			return writeReport(writeFile, appendMode, results)
		},
	}

	cmd.Flags().BoolVar(&printMode, "print", false, "print a human-readable report to stdout")
	cmd.Flags().StringVar(&writeFile, "write", "", "write a machine-readable JSON report to `file`")
	cmd.Flags().BoolVar(&showConfigDoc, "configuration-options", false, "print configuration tunable documentation and exit")
	cmd.Flags().BoolVar(&appendMode, "append", false, "append to --write's file instead of overwriting it")
	cmd.Flags().StringVar(&confJSON, "configuration-json", "", "path to a JSON file of configuration tunables")
	cmd.Flags().StringVar(&confShorthand, "configuration-shorthand", "", "key=value,key2=value2 configuration overrides")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	cmd.Flags().IntVar(&cacheCapacity, "cache-capacity", 0, "Subtree Cache entry capacity (0 = benchmark default of 1000)")

	return cmd
}

func printReport(cmd *cobra.Command, report benchrun.Report, verbose bool) error {
	out := cmd.OutOrStdout()
	for _, r := range report.Results {
		fmt.Fprintf(out, "%-30s wall=%-12s estimated_cost=%-10d rows=%d\n", r.Name, r.Wall, r.EstimatedCost, r.RowCount)
	}
	if !verbose {
		return nil
	}

	fmt.Fprintf(out, "\nplan: %s\n", report.Plan.ChosenPlan)
	fmt.Fprintf(out, "plan estimated_cost=%d\n", report.Plan.EstimatedCost)
	for _, lv := range report.Plan.Levels {
		fmt.Fprintf(out, "  level=%-2d candidates=%-4d kept=%-4d pruned=%d\n", lv.Level, lv.Candidates, lv.Kept, lv.Pruned)
	}
	return nil
}

func writeReport(path string, appendMode bool, report benchrun.Report) error {
	entries := []benchrun.Report{report}
	if appendMode {
		existing, err := readExistingArray(path)
		if err != nil {
			return err
		}
		entries = append(existing, entries...)
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshaling benchmark report")
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, "writing %q", path)
	}
	return nil
}

// readExistingArray reads path's existing JSON-array contents for --append,
// failing clearly if the file holds something other than a JSON array.
func readExistingArray(path string) ([]benchrun.Report, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading %q for --append", path)
	}
	if len(data) == 0 {
		return nil, nil
	}

	var existing []benchrun.Report
	if err := json.Unmarshal(data, &existing); err != nil {
		return nil, errors.Wrapf(err, "%q does not hold a JSON array of benchmark reports, cannot --append", path)
	}
	return existing, nil
}
