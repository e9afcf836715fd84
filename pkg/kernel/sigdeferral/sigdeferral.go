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

// Package sigdeferral is the async-signal-safe half of the signal
// deferral protocol in SPEC_FULL.md §4.4: it only ever records that a
// signal arrived, using atomics, and never touches the process table,
// handler table, RAM, or the logger. A C implementation installs the
// recording logic directly as the sigaction trampoline; Go offers no
// equivalent hook into user-installed signal handlers, so this package
// uses the idiomatic substitute, os/signal.Notify feeding a dedicated
// goroutine that does nothing but set flags -- grounded on the way the
// teacher's pkg/sighandling (referenced from runsc/boot/loader.go, not
// itself vendored into this pack) wires host signal delivery into the
// sentry via a notification channel rather than a raw C handler.
package sigdeferral

import (
	"os"
	"os/signal"
	"sync/atomic"

	"golang.org/x/sys/unix"

	"github.com/minixcompat/minixcompat-go/pkg/abi/minix"
)

// Set is the PendingSignalSet of spec.md §3: a flag per MINIX signal plus
// an aggregate "any pending" flag, safe to set from the notification
// goroutine and to read/clear from Drain.
type Set struct {
	any     atomic.Bool
	pending [minix.NumSignals + 1]atomic.Bool // 1-indexed, index 0 unused

	ch   chan os.Signal
	stop chan struct{}
}

// NewSet allocates an empty PendingSignalSet and starts its recording
// goroutine; Watch chooses which host signals reach it.
func NewSet() *Set {
	s := &Set{
		ch:   make(chan os.Signal, 64),
		stop: make(chan struct{}),
	}
	go s.recordLoop()
	return s
}

// recordLoop is the Go-idiomatic trampoline: its only job, like the C
// trampolines MINIXCompat_Processes_SignalHandler_DFL/_Other, is to
// translate a host signal to a MINIX signal and flip two bools.
func (s *Set) recordLoop() {
	for {
		select {
		case hostSig := <-s.ch:
			sig, ok := hostSig.(unix.Signal)
			if !ok {
				continue
			}
			if m := minix.MinixSignalForHost(sig); m != 0 {
				s.pending[m].Store(true)
				s.any.Store(true)
			}
		case <-s.stop:
			return
		}
	}
}

// Watch registers os/signal delivery of the host signal equivalent to m
// into this set, unless handler is SIG_IGN or SIG_ERR, which are passed
// straight through to the host via signal.Ignore/Reset without going
// through the recording goroutine at all (spec.md §4.4 item 1: "IGN and
// ERR map directly to host SIG_IGN/SIG_ERR and bypass the trampoline").
func (s *Set) Watch(m minix.Signal, handler minix.SignalHandler) {
	hostSig := minix.HostSignalForMinix(m)
	switch handler {
	case minix.SigIgn:
		signal.Ignore(hostSig)
	case minix.SigErr:
		signal.Reset(hostSig)
	default:
		signal.Notify(s.ch, hostSig)
	}
}

// Close stops the recording goroutine. Safe to call once.
func (s *Set) Close() { close(s.stop) }

// Drain takes a snapshot per spec.md §4.4 item 2: any_pending is cleared,
// and each pending flag is consumed in ascending MinixSignal order,
// invoking handle for each one. handle runs on the caller's goroutine (the
// CPU loop), never on the recording goroutine.
func (s *Set) Drain(handle func(minix.Signal)) {
	if !s.any.Load() {
		return
	}
	s.any.Store(false)
	for m := minix.SIGHUP; m <= minix.SIGSTKFLT; m++ {
		if s.pending[m].CompareAndSwap(true, false) {
			handle(m)
		}
	}
}

// AnyPending reports whether Drain would do any work right now; exposed
// for tests asserting property 6 of spec.md §8.
func (s *Set) AnyPending() bool { return s.any.Load() }
