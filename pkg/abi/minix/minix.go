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

// Package minix holds the wire-level constants and types of the MINIX 1.5
// process-management ABI: process identifiers, signal numbers, errno
// numbers, signal handler sentinels and the wait-status encoding. It plays
// the role that pkg/abi/linux plays for the Linux ABI elsewhere in this
// corpus: a dependency-free leaf package that everything else references.
package minix

import "fmt"

// Pid is a MINIX process identifier: a signed 16-bit integer, much smaller
// than the host's pid_t.
type Pid int16

// Reserved pseudo-ancestor PIDs modeling the imaginary MINIX boot chain, so
// that getppid() returns something a guest shell expects to see.
const (
	PidMM         Pid = 0 // memory manager
	PidFS         Pid = 1 // file system server
	PidInit       Pid = 2
	PidRCShell    Pid = 3 // /bin/sh running /etc/rc
	PidGetty      Pid = 4
	PidLogin      Pid = 5
	PidUserShell  Pid = 6 // pseudo-parent of the emulated process
	PidEmulated   Pid = 7 // the one real emulated process
	FirstFreshPid Pid = 8 // first PID handed out by fork (procTable's initial nextPid)
)

// Memory layout constants from the out-of-scope CPU/RAM/loader
// collaborators. kernelconfig may override these from minixcompat.toml;
// these are the defaults matching the original MINIXCompat's layout.
const (
	// ExecutableBase is the emulated address at which a loaded tool's
	// relocated text+data image is placed.
	ExecutableBase uint32 = 0x00000000

	// ExecutableLimit is the highest address the heap break may reach.
	ExecutableLimit uint32 = 0x00FE0000

	// StackBase is where the argc/argv/envp block and the initial stack
	// begin; it must not be below ExecutableLimit since brk() must never
	// be allowed to grow over it.
	StackBase uint32 = ExecutableLimit
)

// SignalHandler is a 32-bit guest value: either a sentinel or a guest
// text-segment address of a 68K handler function.
type SignalHandler uint32

// The three signal-handler sentinels.
const (
	SigDfl SignalHandler = 0x00000000
	SigIgn SignalHandler = 0x00000001
	SigErr SignalHandler = 0xFFFFFFFF
)

func (h SignalHandler) String() string {
	switch h {
	case SigDfl:
		return "SIG_DFL"
	case SigIgn:
		return "SIG_IGN"
	case SigErr:
		return "SIG_ERR"
	default:
		return fmt.Sprintf("0x%08x", uint32(h))
	}
}

// Signal is one of the 16 MINIX signal numbers, 1-indexed like POSIX.
type Signal int

// The 16 MINIX 1.5 signal numbers.
const (
	SIGHUP Signal = iota + 1
	SIGINT
	SIGQUIT
	SIGILL
	SIGTRAP
	SIGABRT
	SIGUNUSED
	SIGFPE
	SIGKILL
	SIGUSR1
	SIGSEGV
	SIGUSR2
	SIGPIPE
	SIGALRM
	SIGTERM
	SIGSTKFLT
)

// NumSignals is the number of distinct MINIX signals (HandlerTable and
// PendingSignalSet are sized off this, 1-indexed, so index 0 is unused).
const NumSignals = int(SIGSTKFLT)

var signalNames = map[Signal]string{
	SIGHUP:    "SIGHUP",
	SIGINT:    "SIGINT",
	SIGQUIT:   "SIGQUIT",
	SIGILL:    "SIGILL",
	SIGTRAP:   "SIGTRAP",
	SIGABRT:   "SIGABRT",
	SIGUNUSED: "SIGUNUSED",
	SIGFPE:    "SIGFPE",
	SIGKILL:   "SIGKILL",
	SIGUSR1:   "SIGUSR1",
	SIGSEGV:   "SIGSEGV",
	SIGUSR2:   "SIGUSR2",
	SIGPIPE:   "SIGPIPE",
	SIGALRM:   "SIGALRM",
	SIGTERM:   "SIGTERM",
	SIGSTKFLT: "SIGSTKFLT",
}

// Valid reports whether s is one of the 16 MINIX signals.
func (s Signal) Valid() bool {
	return s >= SIGHUP && s <= SIGSTKFLT
}

func (s Signal) String() string {
	if name, ok := signalNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Signal(%d)", int(s))
}

// TerminatesByDefault reports whether the MINIX default action (SIG_DFL)
// for s is to terminate the process. USR1/USR2/UNUSED/STKFLT default to
// being ignored on the hosts MINIX 1.5 targeted; every other signal
// terminates. See SPEC_FULL.md §4.14 item 3.
func (s Signal) TerminatesByDefault() bool {
	switch s {
	case SIGUSR1, SIGUSR2, SIGUNUSED, SIGSTKFLT:
		return false
	default:
		return true
	}
}

// Errno values the core itself can produce (translation misses, table
// misses, OOM, hardcoded open failure). Host syscall failures are
// translated through a much larger table; pkg/minixerr holds both that
// table and the sentinel errors pkg/kernel actually returns for these four.
const (
	EINVAL int16 = 22
	ESRCH  int16 = 3
	ENOMEM int16 = 12
	EIO    int16 = 5
)
