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

//go:build linux

package kernel

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// rawFork issues a bare SYS_FORK, grounded on the same RawSyscall-based
// forking technique pkg/sentry/platform/ptrace's forkStub uses for its
// stub processes -- but without the ptrace/seccomp/session setup that
// exists there to sandbox an untraced subprocess, since this core's fork
// is the guest's own fork(2), which must behave exactly like the host's.
//
// Like forkStub, this must not allocate or acquire locks between the
// syscall and the parent/child branch, since the child is a full copy of
// this goroutine's OS thread with only one goroutine running in it.
//
// This is only safe because SPEC_FULL.md §5 requires a single host thread
// driving the CPU loop with no other goroutine touching kernel.Core state:
// a raw fork() of a multi-threaded Go program otherwise leaves the child
// with a runtime whose other M's (GC workers, sysmon) vanished mid-stride.
// The child must return straight back to the CPU loop and must not invoke
// anything that assumes those threads still exist.
//
//go:norace
func rawFork() (pid int, errno unix.Errno) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	r1, _, e := unix.RawSyscall(unix.SYS_FORK, 0, 0, 0)
	return int(r1), e
}
