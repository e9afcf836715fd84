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

import "github.com/minixcompat/minixcompat-go/pkg/abi/minix"

// procEntry is one slot of the process table: a bidirectional mapping
// between a host pid and a MINIX pid. A slot is free iff HostPid == 0.
type procEntry struct {
	HostPid  int
	MinixPid minix.Pid
}

// procTable is the bidirectional MINIX-pid/host-pid map. Slot 0 always
// represents "self"; slot 1 always represents "self's parent"; the
// remaining slots hold children. Lookups are linear -- the table is never
// expected to hold more than a handful of live entries, so search speed
// does not matter (ground: original_source's own comment to that effect).
type procTable struct {
	entries []procEntry
	nextPid minix.Pid
}

// initialTableSize matches MINIX's own NR_PROCS.
const initialTableSize = 32

func newProcTable(selfHostPid, parentHostPid int) *procTable {
	t := &procTable{entries: make([]procEntry, initialTableSize)}
	t.entries[0] = procEntry{HostPid: selfHostPid, MinixPid: minix.PidEmulated}
	t.entries[1] = procEntry{HostPid: parentHostPid, MinixPid: minix.PidUserShell}
	t.nextPid = minix.FirstFreshPid
	return t
}

// minixForHost returns the MINIX pid mapped to host pid h, or -1 on miss.
func (t *procTable) minixForHost(h int) minix.Pid {
	for _, e := range t.entries {
		if e.HostPid == h {
			return e.MinixPid
		}
	}
	return -1
}

// hostForMinix returns the host pid mapped to MINIX pid m, or -1 on miss.
func (t *procTable) hostForMinix(m minix.Pid) int {
	for _, e := range t.entries {
		if e.MinixPid == m {
			return e.HostPid
		}
	}
	return -1
}

// nextFree returns the index of a free slot at or after index 2, growing
// the table by 1.5x (rounded down) if none is free.
func (t *procTable) nextFree() int {
	for i := 2; i < len(t.entries); i++ {
		if t.entries[i].HostPid == 0 {
			return i
		}
	}

	oldSize := len(t.entries)
	newSize := oldSize + oldSize/2
	grown := make([]procEntry, newSize)
	copy(grown, t.entries)
	t.entries = grown
	return oldSize
}

// remove zeroes out the slot whose MinixPid is m. Requires m > 0.
func (t *procTable) remove(m minix.Pid) {
	if m <= 0 {
		panic("kernel: procTable.remove requires a positive MINIX pid")
	}
	for i := range t.entries {
		if t.entries[i].MinixPid == m {
			t.entries[i] = procEntry{}
			return
		}
	}
}

// liveChildCount is a test/diagnostic helper counting slots at or after
// index 2 that are in use.
func (t *procTable) liveChildCount() int {
	n := 0
	for i := 2; i < len(t.entries); i++ {
		if t.entries[i].HostPid != 0 {
			n++
		}
	}
	return n
}
