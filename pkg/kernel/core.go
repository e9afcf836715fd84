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

// Package kernel is component F, ProcessOps: the public syscall surface a
// 68K syscall dispatcher calls into (SPEC_FULL.md §2, §6), plus the
// process-scope state (ProcessTable, HandlerTable, PendingSignalSet,
// BreakState) SPEC_FULL.md §9 groups into one "ProcessCore" value -- Core
// here, the same way the teacher groups a task's equivalent kernel state
// into *kernel.Task.
package kernel

import (
	"github.com/cenkalti/backoff"
	"golang.org/x/sys/unix"

	"github.com/minixcompat/minixcompat-go/pkg/abi/minix"
	"github.com/minixcompat/minixcompat-go/pkg/hostif"
	"github.com/minixcompat/minixcompat-go/pkg/kernel/sigdeferral"
	"github.com/minixcompat/minixcompat-go/pkg/kernelconfig"
	"github.com/minixcompat/minixcompat-go/pkg/minixerr"
)

// Core groups the process-scope state of one emulated MINIX process: the
// bidirectional pid table, the signal handler table, the pending-signal
// set, the heap break tracker, and the cached self/parent identities.
// Across a fork, the child inherits a copy of all of it and then mutates
// its own slots 0/1 (see Fork below); there is otherwise exactly one Core
// per host process, matching the module's one-emulated-process-per-host-
// process invariant (spec.md §1 Non-goals).
type Core struct {
	table    *procTable
	handlers [minix.NumSignals + 1]minix.SignalHandler // 1-indexed
	pending  *sigdeferral.Set

	selfPid, parentPid minix.Pid

	brk breakTracker

	// ExitStatus is the value most recently passed to Exit, or the raw
	// synthetic "killed by signal" WaitStat set when a SIG_DFL signal
	// that terminates by default is drained.
	ExitStatus int16

	cpu hostif.CPU
	ram hostif.RAM
	fs  hostif.Filesystem
	ld  hostif.Loader
	log hostif.Logger

	// cfg carries the memory-layout overrides SPEC_FULL.md §6 names
	// (ExecutableBase/ExecutableLimit/StackBase); Brk and the exec
	// variants consult it instead of the pkg/abi/minix defaults directly,
	// so a kernelconfig.Config loaded from minixcompat.toml actually
	// takes effect.
	cfg kernelconfig.Config
}

// NewCore constructs a Core wired to the given collaborators and tunables
// but does not yet initialize process-table state; call Init to do that.
func NewCore(cpu hostif.CPU, ram hostif.RAM, fs hostif.Filesystem, ld hostif.Loader, log hostif.Logger, cfg kernelconfig.Config) *Core {
	return &Core{cpu: cpu, ram: ram, fs: fs, ld: ld, log: log, cfg: cfg}
}

// Init is MINIXCompat_Processes_Initialize (spec.md §4.1 init): it
// allocates the process table, seeds slots 0/1 from the host's own
// getpid/getppid, and starts the pending-signal recording goroutine.
func (c *Core) Init() {
	selfHost := unix.Getpid()
	parentHost := unix.Getppid()

	c.table = newProcTable(selfHost, parentHost)
	c.selfPid = minix.PidEmulated
	c.parentPid = minix.PidUserShell
	c.pending = sigdeferral.NewSet()

	for s := minix.SIGHUP; s <= minix.SIGSTKFLT; s++ {
		c.handlers[s] = minix.SigDfl
	}
}

// GetProcessIDs implements getpid()/getppid() (spec.md §4.1
// GetProcessIDs / §6 get_process_ids).
func (c *Core) GetProcessIDs() (pid, ppid minix.Pid) {
	c.log.Debugf("getpid() -> %d", c.selfPid)
	c.log.Debugf("getppid() -> %d", c.parentPid)
	return c.selfPid, c.parentPid
}

// hostFork is rawFork by default; tests substitute a fake to exercise the
// table-mutation protocol without forking the test binary itself.
var hostFork = rawFork

// Fork implements spec.md §4.6. The slot-and-pid reservation happens
// before the host fork so both halves of the fork observe identical
// pre-fork table state (spec.md §5 ordering guarantee (ii)).
func (c *Core) Fork() minix.Pid {
	slot := c.table.nextFree()
	newPid := c.table.nextPid
	c.table.nextPid++

	hostPid, errno := hostFork()
	if errno != 0 {
		c.table.nextPid--
		result := minixerr.Errno(minixerr.TranslateHostErrno(errno))
		c.log.Debugf("fork() -> %d", result)
		return minix.Pid(result)
	}

	if hostPid != 0 {
		// Parent: the tables diverge here.
		c.table.entries[slot] = procEntry{HostPid: hostPid, MinixPid: newPid}
		c.log.Debugf("fork() -> %d", newPid)
		return newPid
	}

	// Child: reparent slots per spec.md §4.6. Put the old parent in the
	// slot the parent process now uses for this child, so no identity is
	// lost across the fork; then shift self -> parent and install the new
	// self.
	//
	// No logging call here, deliberately: every other M in this process
	// (GC workers, sysmon) vanished with the fork, but any lock they held
	// -- including logrus's own mutex -- did not, and this thread must
	// never block on one (fork_linux.go's rawFork doc comment). The slot
	// writes below only touch the pre-grown entries slice in place (no
	// allocation, see procTable.nextFree's call site in Fork above), so
	// they stay safe; a log call would not. The child's fork() -> 0 return
	// is therefore silent, an accepted gap against the parent branch's
	// logging.
	c.table.entries[slot] = c.table.entries[1]
	c.table.entries[1] = c.table.entries[0]
	c.table.entries[0] = procEntry{HostPid: unix.Getpid(), MinixPid: newPid}

	c.parentPid = c.selfPid
	c.selfPid = newPid

	return 0
}

// hostWait4 is unix.Wait4 by default; tests substitute a fake so S3-style
// wait-cleanup scenarios don't depend on a real child process existing.
var hostWait4 = unix.Wait4

// Wait implements spec.md §4.7. EINTR is swallowed and retried
// transparently -- most MINIX code does not handle it -- using
// backoff.Retry with a zero-growth constant backoff, which gives a
// uniform, attempt-counted retry idiom in place of a bare `for { ... }`
// loop without actually introducing any delay between attempts (spec.md
// §5: wait is uninterruptible from the guest's perspective, not slow).
func (c *Core) Wait() (pid minix.Pid, stat minix.WaitStat, err error) {
	var hostPid int
	var hostStatus unix.WaitStatus

	retryErr := backoff.Retry(func() error {
		p, werr := hostWait4(-1, &hostStatus, 0, nil)
		if werr == unix.EINTR {
			return werr // retry
		}
		if werr != nil {
			return backoff.Permanent(werr)
		}
		hostPid = p
		return nil
	}, backoff.NewConstantBackOff(0))

	if retryErr != nil {
		// backoff.Retry unwraps backoff.Permanent itself, so retryErr here
		// is already the bare unix.Errno from the failing Wait4 call.
		hostErr := minixerr.TranslateHostErrno(retryErr)
		result := minixerr.Errno(hostErr)
		c.log.Debugf("wait() -> %d", result)
		return minix.Pid(result), minix.WaitStat{}, hostErr
	}

	minixPid := c.table.minixForHost(hostPid)
	minixStat := minix.EncodeHostWaitStatus(hostStatus)

	if minixStat.Exited() || minixStat.Signaled() {
		c.table.remove(minixPid)
	}

	c.log.Debugf("wait(%s) -> %d", minixStat, minixPid)
	return minixPid, minixStat, nil
}

// Exit implements spec.md §4.8: it records the exit status and asks the
// CPU collaborator to transition to Finished. It does not itself return to
// the guest.
func (c *Core) Exit(status int16) {
	c.ExitStatus = status
	c.cpu.ChangeState(hostif.Finished)
	c.log.Debugf("exit(%d)", status)
}

// Brk implements spec.md §4.9.
func (c *Core) Brk(requested uint32) (result uint32, err error) {
	result, err = c.brk.Brk(requested)
	c.log.Debugf("brk(0x%08x) -> 0x%08x, %v", requested, result, err)
	return result, err
}

// Signal implements spec.md §4.5 signal(). It requires s to already be a
// valid MINIX signal; callers at the syscall-dispatch boundary are
// expected to have validated this the same way the original asserts it.
func (c *Core) Signal(s minix.Signal, newHandler minix.SignalHandler) minix.SignalHandler {
	if !s.Valid() {
		panic("kernel: Signal requires a valid MINIX signal number")
	}

	old := c.handlers[s]
	c.handlers[s] = newHandler
	c.pending.Watch(s, newHandler)

	c.log.Debugf("signal(%s, %s) -> %s", s, newHandler, old)
	return old
}

// Kill implements spec.md §4.5 kill().
func (c *Core) Kill(pid minix.Pid, s minix.Signal) int16 {
	if pid <= 0 || !s.Valid() {
		panic("kernel: Kill requires pid > 0 and a valid MINIX signal number")
	}

	hostSig := minix.HostSignalForMinix(s)
	if hostSig == 0 {
		c.log.Debugf("kill(%d, %s) -> %d", pid, s, minixerr.Errno(minixerr.EINVAL))
		return minixerr.Errno(minixerr.EINVAL)
	}

	hostPid := c.table.hostForMinix(pid)
	if hostPid <= 0 {
		c.log.Debugf("kill(%d, %s) -> %d", pid, s, minixerr.Errno(minixerr.ESRCH))
		return minixerr.Errno(minixerr.ESRCH)
	}

	if err := unix.Kill(hostPid, hostSig); err != nil {
		result := minixerr.Errno(minixerr.TranslateHostErrno(err))
		c.log.Debugf("kill(%d, %s) -> %d", pid, s, result)
		return result
	}
	c.log.Debugf("kill(%d, %s) -> 0", pid, s)
	return 0
}

// HandlePendingSignals implements spec.md §4.4 item 2 / §6
// handle_pending_signals(): the CPU loop's safe-point drain, which
// converts recorded host-signal notifications into emulated-CPU control
// transfers. It must never be called from inside the recording goroutine
// (SPEC_FULL.md §9 "Signal deferral vs re-entrancy").
func (c *Core) HandlePendingSignals() {
	c.pending.Drain(c.handlePendingSignal)
}

func (c *Core) handlePendingSignal(s minix.Signal) {
	handler := c.handlers[s]

	switch handler {
	case minix.SigIgn, minix.SigErr:
		return
	case minix.SigDfl:
		if s.TerminatesByDefault() {
			c.ExitStatus = int16(minix.EncodeSignaled(s).Raw())
			c.cpu.ChangeState(hostif.Finished)
		}
		return
	default:
		// A real 68K handler: inject a signal frame per spec.md §4.4
		// item 2.4 and the _begsig convention described in
		// original_source/MINIXCompat_Processes.c.
		pc := c.cpu.PC()
		c.cpu.Push32(pc)
		sr := c.cpu.SR()
		c.cpu.Push16(sr)
		c.cpu.Push16(uint16(s))
		c.cpu.SetPC(uint32(handler))
	}
}
