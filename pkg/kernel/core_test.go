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

package kernel

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/minixcompat/minixcompat-go/pkg/abi/minix"
	"github.com/minixcompat/minixcompat-go/pkg/hostif"
	"github.com/minixcompat/minixcompat-go/pkg/hostif/memhost"
	"github.com/minixcompat/minixcompat-go/pkg/kernelconfig"
)

type nopLogger struct{}

func (nopLogger) Infof(string, ...any)    {}
func (nopLogger) Debugf(string, ...any)   {}
func (nopLogger) Warningf(string, ...any) {}

func newTestCore() *Core {
	cpu := memhost.NewCPU(0x1000, 0x2700)
	ram := memhost.NewRAM(0x00FF0000)
	fs := &memhost.Filesystem{}
	ld := &memhost.Loader{}
	c := NewCore(cpu, ram, fs, ld, nopLogger{}, kernelconfig.Default())
	c.Init()
	return c
}

// S1 — fresh init.
func TestCoreFreshInit(t *testing.T) {
	c := newTestCore()
	pid, ppid := c.GetProcessIDs()
	require.Equal(t, minix.PidEmulated, pid)
	require.Equal(t, minix.PidUserShell, ppid)
	require.Equal(t, minix.PidEmulated, c.table.entries[0].MinixPid)
	require.Equal(t, minix.PidUserShell, c.table.entries[1].MinixPid)
	require.Equal(t, minix.FirstFreshPid, c.table.nextPid)
}

// S2 — fork numbering: three successful forks number children 8, 9, 10 and
// grow the parent's live-child count to 1, 2, 3.
func TestCoreForkNumbering(t *testing.T) {
	c := newTestCore()

	nextHostPid := 2000
	restore := hostFork
	hostFork = func() (int, unix.Errno) {
		nextHostPid++
		return nextHostPid, 0
	}
	defer func() { hostFork = restore }()

	for i, want := range []minix.Pid{8, 9, 10} {
		got := c.Fork()
		require.Equal(t, want, got, "fork #%d", i+1)
		require.Equal(t, i+1, c.table.liveChildCount())
	}
}

func TestCoreForkFailureRollsBackNextPid(t *testing.T) {
	c := newTestCore()
	before := c.table.nextPid

	restore := hostFork
	hostFork = func() (int, unix.Errno) { return 0, unix.EAGAIN }
	defer func() { hostFork = restore }()

	result := c.Fork()
	require.Less(t, int16(result), int16(0))
	require.Equal(t, before, c.table.nextPid)
}

// S3 — wait cleanup: a child exits with code 42; wait reports it and
// removes it from the table.
func TestCoreWaitCleansUpTable(t *testing.T) {
	c := newTestCore()

	restoreFork := hostFork
	hostFork = func() (int, unix.Errno) { return 2009, 0 }
	defer func() { hostFork = restoreFork }()
	child := c.Fork()
	require.Equal(t, minix.Pid(8), child)

	restoreWait := hostWait4
	hostWait4 = func(pid int, wstatus *unix.WaitStatus, options int, rusage *unix.Rusage) (int, error) {
		*wstatus = unix.WaitStatus(42 << 8) // WIFEXITED, exit code 42
		return 2009, nil
	}
	defer func() { hostWait4 = restoreWait }()

	pid, stat, err := c.Wait()
	require.NoError(t, err)
	require.Equal(t, minix.Pid(8), pid)
	require.True(t, stat.Exited())
	require.Equal(t, int16(42), stat.ExitStatus())
	require.Equal(t, -1, c.table.hostForMinix(8))
}

// S4 — brk bounds, through Core.Brk.
func TestCoreBrk(t *testing.T) {
	c := newTestCore()
	c.brk.setInitial(0x00100000, 0x00FE0000)

	out, err := c.Brk(0x00200000)
	require.NoError(t, err)
	require.Equal(t, uint32(0x00200000), out)

	out, err = c.Brk(0x00FE0000)
	require.Error(t, err)
	require.Equal(t, uint32(0xFFFFFFFF), out)
}

// S5 — signal delivery: a guest handler for SIGINT pushes the interrupted
// PC, SR, and signal number, then redirects PC to the handler.
func TestCoreHandlePendingSignalInjectsFrame(t *testing.T) {
	c := newTestCore()
	const handlerAddr = minix.SignalHandler(0x00010000)

	old := c.Signal(minix.SIGINT, handlerAddr)
	require.Equal(t, minix.SigDfl, old)

	cpu := c.cpu.(*memhost.CPU)
	interruptedPC := cpu.PC()

	c.handlePendingSignal(minix.SIGINT)

	require.Equal(t, uint32(handlerAddr), cpu.PC())
	require.Len(t, cpu.Stack, 4+2+2)
	require.Equal(t, interruptedPC, binary.BigEndian.Uint32(cpu.Stack[0:4]))
	require.Equal(t, uint16(0x2700), binary.BigEndian.Uint16(cpu.Stack[4:6]))
	require.Equal(t, uint16(minix.SIGINT), binary.BigEndian.Uint16(cpu.Stack[6:8]))
}

func TestCoreHandlePendingSignalDefaultTerminates(t *testing.T) {
	c := newTestCore()
	c.handlePendingSignal(minix.SIGTERM) // SigDfl, terminates by default

	cpu := c.cpu.(*memhost.CPU)
	require.Equal(t, hostif.Finished, cpu.State)
}

func TestCoreHandlePendingSignalIgnored(t *testing.T) {
	c := newTestCore()
	c.Signal(minix.SIGUSR1, minix.SigIgn)
	c.handlePendingSignal(minix.SIGUSR1)

	cpu := c.cpu.(*memhost.CPU)
	require.Empty(t, cpu.Stack)
}

func TestCoreKillUnknownPid(t *testing.T) {
	c := newTestCore()
	result := c.Kill(99, minix.SIGTERM)
	require.Less(t, result, int16(0))
}
