// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"sort"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/tlparse/internal/errors"
)

// summaryLineRe matches the plain (non-JSON) log line format some
// training harnesses emit alongside the structured trace: an optional
// trainer/rank prefix, a timestamp, an optional frame id, a module
// name, and a level tag.
var summaryLineRe = regexp.MustCompile(
	`^(\[trainer\d+\]:)?(\[rank(?P<rank>\d+)\]:)?` +
		`\[(?P<year>\d{4})-(?P<month>\d{2})-(?P<day>\d{2}) ` +
		`(?P<hour>\d{2}):(?P<minute>\d{2}):(?P<second>\d{2}),(?P<millisecond>\d{3})\] ` +
		`(\[(?P<frame_id>\d+)/(?P<frame_compile_id>\d+)(_(?P<restart>\d+))?\] )?` +
		`(?P<module>[^:]+): ` +
		`\[(?P<level>DEBUG|INFO|WARNING|ERROR)\]` +
		` ?(?P<message>.+)$`,
)

// summaryRankLineRe flags a rank-prefixed line that failed the full
// parse as "probably relevant" rather than noise, mirroring the
// upstream tool's second, looser regex used only to classify misses.
var summaryRankLineRe = regexp.MustCompile(`\[rank\d+\]:.+torch`)

// runSummary implements the `tlparse summary <path>` subcommand: a
// line-classifying pass over a plain log file, independent of the
// structured-JSON ingestion pipeline. It exists for quickly eyeballing
// a log's shape before running the full report.
func runSummary(args []string) {
	fs := flag.NewFlagSet("summary", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: tlparse summary <path>

Prints basic per-module line counts and any dynamo guard messages found
in a plain-text log file.
`)
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(errors.ExitInput)
	}
	if fs.NArg() < 1 {
		fs.Usage()
		os.Exit(errors.ExitInput)
	}
	path := fs.Arg(0)

	f, err := os.Open(path)
	if err != nil {
		errors.FatalError(errors.NewInputError("cannot open log file", err.Error(), "check the path"), false)
	}
	defer f.Close()

	var ok, fail, skip int
	modCount := map[string]int{}

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	names := summaryLineRe.SubexpNames()
	for sc.Scan() {
		line := sc.Text()
		m := summaryLineRe.FindStringSubmatch(line)
		if m == nil {
			if summaryRankLineRe.MatchString(line) {
				fmt.Println(line)
				fail++
			} else {
				skip++
			}
			continue
		}
		ok++
		groups := map[string]string{}
		for i, name := range names {
			if name != "" {
				groups[name] = m[i]
			}
		}
		module := groups["module"]
		if module == "torch._dynamo.guards.__guards" {
			fmt.Println(groups["message"])
		}
		modCount[module]++
	}

	fmt.Printf("ok = %d, fail = %d, skip = %d\n", ok, fail, skip)

	keys := make([]string, 0, len(modCount))
	for k := range modCount {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("%s: %d\n", k, modCount[k])
	}
}
