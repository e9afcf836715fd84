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

// Package hostif declares the contracts of the collaborators
// SPEC_FULL.md §1 and §6 list as out of scope for the process-management
// core: the 68K CPU emulator, the emulated RAM, the executable loader, the
// filesystem path translator, and the process logger. pkg/kernel depends
// only on these interfaces, the way pkg/sentry/kernel in the teacher
// depends on pkg/sentry/arch.Context and pkg/sentry/vfs.FilesystemImpl
// without owning either.
package hostif

import "io"

// ExecState is the CPU's lifecycle state, set by Core after a successful
// exec and on exit.
type ExecState int

const (
	// Ready means the CPU should (re)start execution from the
	// executable's entry point with a freshly laid out stack.
	Ready ExecState = iota
	// Finished means the emulated process has exited; the host process
	// housing the emulator should tear down.
	Finished
)

// CPU is the 68000 register/stack contract the signal-frame injector and
// exec paths drive. Implementations mutate the emulated CPU's registers
// directly; Core never simulates instructions itself.
type CPU interface {
	// PC returns the current program counter.
	PC() uint32
	// SetPC sets the program counter, e.g. to redirect control to a 68K
	// signal handler or an executable's entry point.
	SetPC(pc uint32)
	// SR returns the current 16-bit status register.
	SR() uint16
	// Push32 pushes a 32-bit big-endian word onto the current stack,
	// decrementing the stack pointer by 4.
	Push32(v uint32)
	// Push16 pushes a 16-bit big-endian word onto the current stack,
	// decrementing the stack pointer by 2.
	Push16(v uint16)
	// ChangeState transitions the emulator's execution state.
	ChangeState(s ExecState)
}

// RAM is the emulated physical memory contract.
type RAM interface {
	// Clear zeroes the entire emulated address space.
	Clear()
	// CopyFromHost block-copies buf into emulated RAM starting at addr.
	CopyFromHost(addr uint32, buf []byte)
}

// LoadedImage is what the executable loader hands back: a relocated
// text+data buffer ready to be copied verbatim into emulated RAM, plus the
// break address the loaded tool should start with.
type LoadedImage struct {
	TextAndData  []byte
	InitialBreak uint32
}

// Loader relocates a MINIX a.out image read from r into LoadedImage. It
// performs no filesystem access of its own: stat-for-existence and
// open-for-reading are ProcessOps's job (spec.md §4.10 steps 2-3), so that
// their distinct error handling -- a real errno on a missing file, a
// hardcoded EIO on an open failure -- stays in scope rather than being
// folded into whatever error a Loader implementation happens to return.
type Loader interface {
	Load(r io.Reader) (LoadedImage, error)
}

// Filesystem translates emulated MINIX paths to host paths.
type Filesystem interface {
	HostPathFor(emuPath string) (string, error)
}

// Logger is the diagnostic collaborator; pkg/hostlog provides the
// logrus-backed implementation used outside of tests.
type Logger interface {
	Infof(format string, args ...any)
	Debugf(format string, args ...any)
	Warningf(format string, args ...any)
}
