// Copyright 2018 The gVisor Authors.
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

package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
	"golang.org/x/sync/errgroup"

	"github.com/minixcompat/minixcompat-go/pkg/abi/minix"
)

// selftestCmd implements subcommands.Command for "selftest": it checks the
// SignalMap bijection and WaitStat round-trip invariants spec.md §8 lists,
// plus that every MINIX signal has a name, and prints a pass/fail report.
// It has no ProcessTable check. It is the spiritual equivalent of `runsc boot
// --debug`. The checks are independent of each other, so they run
// concurrently via errgroup the way runsc's own boot-time diagnostics fan
// out independent checks rather than running them one at a time.
type selftestCmd struct{}

func (*selftestCmd) Name() string             { return "selftest" }
func (*selftestCmd) Synopsis() string         { return "check core invariants and print a pass/fail report" }
func (*selftestCmd) Usage() string            { return "selftest - check SignalMap/WaitStatusCodec invariants and signal names" }
func (*selftestCmd) SetFlags(*flag.FlagSet) {}

func (*selftestCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	checks := []struct {
		name string
		run  func() error
	}{
		{"signal map is a bijection", checkSignalMapBijection},
		{"wait status round-trips through Raw/WaitStatFromRaw", checkWaitStatRoundTrip},
		{"every MINIX signal has a name", checkSignalNames},
	}

	results := make([]error, len(checks))
	g, _ := errgroup.WithContext(ctx)
	for i, c := range checks {
		i, c := i, c
		g.Go(func() error {
			results[i] = c.run()
			return nil
		})
	}
	_ = g.Wait() // per-check errors are collected in results, not returned here

	failed := false
	for i, c := range checks {
		if results[i] != nil {
			fmt.Printf("FAIL %s: %v\n", c.name, results[i])
			failed = true
		} else {
			fmt.Printf("PASS %s\n", c.name)
		}
	}
	if failed {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func checkSignalMapBijection() error {
	seen := make(map[minix.Signal]bool)
	for s := minix.SIGHUP; s <= minix.SIGSTKFLT; s++ {
		host := minix.HostSignalForMinix(s)
		if host == 0 {
			return fmt.Errorf("minix signal %s has no host mapping", s)
		}
		back := minix.MinixSignalForHost(host)
		if back != s {
			return fmt.Errorf("minix signal %s round-trips to %s via host signal %d", s, back, host)
		}
		if seen[back] {
			return fmt.Errorf("host signal %d maps back to a minix signal seen twice", host)
		}
		seen[back] = true
	}
	return nil
}

func checkWaitStatRoundTrip() error {
	for _, w := range []minix.WaitStat{
		{ExitStat: 0},
		{ExitStat: 42},
		minix.EncodeSignaled(minix.SIGKILL),
	} {
		if got := minix.WaitStatFromRaw(w.Raw()); got != w {
			return fmt.Errorf("WaitStat %+v round-trips to %+v", w, got)
		}
	}
	return nil
}

func checkSignalNames() error {
	for s := minix.SIGHUP; s <= minix.SIGSTKFLT; s++ {
		if s.String() == fmt.Sprintf("Signal(%d)", int(s)) {
			return fmt.Errorf("minix signal %d has no name", s)
		}
	}
	return nil
}
