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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Invariant 5: encoding a synthetic exited-with-code-c host status and
// decoding it yields exited, c for c in [0, 255].
func TestWaitStatExitedRoundTrip(t *testing.T) {
	for c := 0; c <= 255; c++ {
		raw := WaitStat{ExitStat: uint8(c)}.Raw()
		got := WaitStatFromRaw(raw)
		require.True(t, got.Exited(), "code %d", c)
		require.Equal(t, int16(c), got.ExitStatus(), "code %d", c)
	}
}

func TestWaitStatRawRoundTrip(t *testing.T) {
	cases := []WaitStat{
		{ExitStat: 0, SigStat: 0},
		{ExitStat: 42, SigStat: 0},
		{ExitStat: uint8(SIGKILL), SigStat: stoppedSigstat},
		EncodeSignaled(SIGINT),
	}
	for _, w := range cases {
		assert.Equal(t, w, WaitStatFromRaw(w.Raw()))
	}
}

func TestWaitStatPredicatesAreDisjoint(t *testing.T) {
	cases := []struct {
		name string
		w    WaitStat
	}{
		{"exited", WaitStat{ExitStat: 7}},
		{"stopped", WaitStat{ExitStat: uint8(SIGSTKFLT), SigStat: stoppedSigstat}},
		{"signaled", EncodeSignaled(SIGSEGV)},
	}
	for _, c := range cases {
		n := 0
		for _, b := range []bool{c.w.Exited(), c.w.Stopped(), c.w.Signaled()} {
			if b {
				n++
			}
		}
		assert.Equalf(t, 1, n, "%s: exactly one predicate should hold for %+v", c.name, c.w)
	}
}

func TestEncodeSignaledUsesDedicatedSigstat(t *testing.T) {
	w := EncodeSignaled(SIGKILL)
	assert.True(t, w.Signaled())
	assert.False(t, w.Exited(), "signaled status must never also read as exited (spec.md §9 flag 1)")
	assert.Equal(t, SIGKILL, w.TermSignal())
}
