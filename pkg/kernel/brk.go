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

import "github.com/minixcompat/minixcompat-go/pkg/minixerr"

// breakTracker is component G: the current emulated heap break, lazily
// initialized from the loader's initial break the first time a process
// image is loaded.
type breakTracker struct {
	current      uint32
	initialized  bool
	initialBreak uint32
	limit        uint32
}

// setInitial records the loader-provided initial break for the most
// recently loaded tool; brk() requests are validated against it until the
// next exec.
func (b *breakTracker) setInitial(initialBreak, limit uint32) {
	b.initialBreak = initialBreak
	b.limit = limit
	b.current = initialBreak
	b.initialized = true
}

// Brk implements MINIXCompat_Processes_brk (spec.md §4.9). Accepts addr
// iff initialBreak <= addr < limit.
func (b *breakTracker) Brk(addr uint32) (result uint32, err error) {
	if b.initialized && addr >= b.initialBreak && addr < b.limit {
		b.current = addr
		return addr, nil
	}
	return 0xFFFFFFFF, minixerr.ENOMEM
}

// Current returns the current break, for diagnostics/tests.
func (b *breakTracker) Current() uint32 { return b.current }
