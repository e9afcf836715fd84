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

package minix

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// sigstatSignaled is a dedicated sigstat value reserved for the
// killed-by-signal encoding. The original MINIXCompat C source reused
// sigstat == 0 for this case, which is indistinguishable from the
// exited-normally case and made its own WIFSIGNALED predicate
// (exitstat == 0) contradict its encoder. This core picks a
// self-consistent scheme instead; see SPEC_FULL.md §4.14 item 1.
const sigstatSignaled = 0xFF

// stoppedSigstat marks a job-control stop, matching MINIX's traditional
// 0177 (octal) "stopped" wait-status convention.
const stoppedSigstat = 0x7F

// WaitStat is the 16-bit MINIX wait-status word returned to the guest by
// wait(2): a two-byte union of exitstat (low byte) and sigstat (high byte).
type WaitStat struct {
	ExitStat uint8
	SigStat  uint8
}

// Raw packs the WaitStat into the little-endian 16-bit word MINIX code
// expects: low byte exitstat, high byte sigstat.
func (w WaitStat) Raw() uint16 {
	return uint16(w.ExitStat) | uint16(w.SigStat)<<8
}

// WaitStatFromRaw unpacks a raw 16-bit MINIX wait status.
func WaitStatFromRaw(raw uint16) WaitStat {
	return WaitStat{ExitStat: uint8(raw), SigStat: uint8(raw >> 8)}
}

// Exited reports whether the process exited normally.
func (w WaitStat) Exited() bool { return w.SigStat == 0 }

// Stopped reports whether the process is job-control-stopped.
func (w WaitStat) Stopped() bool { return w.SigStat == stoppedSigstat }

// Signaled reports whether the process was killed by a signal.
func (w WaitStat) Signaled() bool { return w.SigStat == sigstatSignaled }

// ExitStatus returns the exit code; valid only if Exited returns true.
func (w WaitStat) ExitStatus() int16 { return int16(w.ExitStat) }

// StopSignal returns the stop signal; valid only if Stopped returns true.
func (w WaitStat) StopSignal() Signal { return Signal(w.ExitStat) }

// TermSignal returns the terminating signal; valid only if Signaled
// returns true.
func (w WaitStat) TermSignal() Signal { return Signal(w.ExitStat) }

func (w WaitStat) String() string {
	switch {
	case w.Exited():
		return fmt.Sprintf("exited(%d)", w.ExitStatus())
	case w.Stopped():
		return fmt.Sprintf("stopped(%s)", w.StopSignal())
	case w.Signaled():
		return fmt.Sprintf("signaled(%s)", w.TermSignal())
	default:
		return fmt.Sprintf("other(0x%04x)", w.Raw())
	}
}

// EncodeHostWaitStatus translates a host wait(2) status, as returned by
// golang.org/x/sys/unix.Wait4, into the MINIX encoding. See
// SPEC_FULL.md §4.14 item 1 for why the signaled case uses a dedicated
// sigstat value rather than the original's ambiguous sigstat == 0.
func EncodeHostWaitStatus(host unix.WaitStatus) WaitStat {
	switch {
	case host.Exited():
		return WaitStat{ExitStat: uint8(host.ExitStatus())}
	case host.Stopped():
		return WaitStat{ExitStat: uint8(host.StopSignal()), SigStat: stoppedSigstat}
	case host.Signaled():
		return WaitStat{ExitStat: uint8(hostSignalToMinixRaw(host.Signal())), SigStat: sigstatSignaled}
	default:
		return WaitStat{ExitStat: uint8(SIGKILL), SigStat: sigstatSignaled}
	}
}

// EncodeSignaled builds a synthetic "killed by signal s" WaitStat, used by
// the default-signal-action path (SPEC_FULL.md §4.14 item 3) where there is
// no real host wait status to translate.
func EncodeSignaled(s Signal) WaitStat {
	return WaitStat{ExitStat: uint8(s), SigStat: sigstatSignaled}
}

func hostSignalToMinixRaw(hostSig unix.Signal) int {
	if m := MinixSignalForHost(hostSig); m != 0 {
		return int(m)
	}
	return int(SIGKILL)
}
