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
	"os"

	"github.com/google/subcommands"

	"github.com/minixcompat/minixcompat-go/pkg/hostif"
	"github.com/minixcompat/minixcompat-go/pkg/hostif/memhost"
	"github.com/minixcompat/minixcompat-go/pkg/hostlog"
	"github.com/minixcompat/minixcompat-go/pkg/kernel"
	"github.com/minixcompat/minixcompat-go/pkg/kernelconfig"
)

// runCmd implements subcommands.Command for "run": it loads a host file's
// bytes verbatim as a MINIX executable image and drives the process core
// through a single exec against a stub CPU/RAM pair, printing the
// resulting PID and execution state. This exists to smoke-test the core in
// isolation, the way `runsc run` exercises the sandbox without a real
// container image pipeline behind it.
type runCmd struct {
	configPath string
	debug      bool
}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "load a MINIX executable and drive the process core standalone" }
func (*runCmd) Usage() string {
	return `run [flags] <path> - load path as a MINIX executable image and exec it against a stub CPU/RAM pair`
}

func (r *runCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&r.configPath, "config", "", "path to an optional minixcompat.toml")
	f.BoolVar(&r.debug, "debug", false, "enable per-operation syscall tracing")
}

func (r *runCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	path := f.Arg(0)

	cfg, err := kernelconfig.Load(r.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "minixcompat: loading config: %v\n", err)
		return subcommands.ExitFailure
	}
	hostlog.Init(cfg.LogDir)
	hostlog.SetDebug(r.debug || cfg.Debug)

	image, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "minixcompat: reading %s: %v\n", path, err)
		return subcommands.ExitFailure
	}

	cpu := memhost.NewCPU(0, 0)
	ram := memhost.NewRAM(cfg.ExecutableLimit + 0x10000)
	ld := &memhost.Loader{Image: hostif.LoadedImage{TextAndData: image, InitialBreak: cfg.ExecutableBase + uint32(len(image))}}
	fs := &memhost.Filesystem{}

	core := kernel.NewCore(cpu, ram, fs, ld, hostlog.Default(), cfg)
	core.Init()

	if rc := core.ExecuteWithHostParams(path, []string{path}, os.Environ()); rc != 0 {
		fmt.Fprintf(os.Stderr, "minixcompat: exec_host(%s) -> %d\n", path, rc)
		return subcommands.ExitFailure
	}

	pid, ppid := core.GetProcessIDs()
	fmt.Printf("loaded %s: pid=%d ppid=%d cpu_state=%v pc=0x%08x\n", path, pid, ppid, cpu.State, cpu.PC())
	return subcommands.ExitSuccess
}
