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
	"os"

	"github.com/minixcompat/minixcompat-go/pkg/hostif"
	"github.com/minixcompat/minixcompat-go/pkg/minixerr"
)

// loadTool is the shared first half of both exec variants (spec.md §4.10
// steps 1-4): translate the emulated path through the filesystem
// collaborator, stat it for existence, open it for reading, ask the
// loader for a relocated image, copy it to ExecutableBase, and record its
// initial break. The stat/open split matches
// original_source/MINIXCompat/MINIXCompat_Processes.c:800-824
// (MINIXCompat_Processes_LoadTool): a missing file returns its real
// negated errno, but an open failure always returns a hardcoded EIO
// regardless of the real one. hostif.Loader is scoped to a.out
// relocation only -- it never touches the filesystem itself.
//
// TODO: Support interpreter scripts: detect a leading "#!" in the loaded
// image and re-target the load at the named interpreter, prepending the
// script's own path to argv.
func (c *Core) loadTool(emuPath string) error {
	hostPath, err := c.fs.HostPathFor(emuPath)
	if err != nil {
		return minixerr.TranslateHostErrno(err)
	}

	if _, err := os.Stat(hostPath); err != nil {
		return minixerr.TranslateHostErrno(err)
	}

	f, err := os.Open(hostPath)
	if err != nil {
		return minixerr.EIO
	}
	defer f.Close()

	image, err := c.ld.Load(f)
	if err != nil {
		return minixerr.TranslateHostErrno(err)
	}

	c.ram.CopyFromHost(c.cfg.ExecutableBase, image.TextAndData)
	c.brk.setInitial(image.InitialBreak, c.cfg.ExecutableLimit)
	return nil
}

// ExecuteWithStackBlock is exec_stack (spec.md §4.10 Variant A), used during
// fork-exec where the guest's own argv/envp is already laid out as emulated
// offsets in hostStackBuf. Ordering follows spec.md §5 guarantee (iii):
// RAM-clear happens-before loader copy happens-before stack copy
// happens-before the Ready transition.
func (c *Core) ExecuteWithStackBlock(path string, hostStackBuf []byte) int16 {
	c.ram.Clear()

	if err := c.loadTool(path); err != nil {
		result := minixerr.Errno(err)
		c.log.Debugf("exec_stack(%s) -> %d", path, result)
		return result
	}

	patched := rebaseStackBlock(hostStackBuf, c.cfg.StackBase)
	c.ram.CopyFromHost(c.cfg.StackBase, patched)
	c.cpu.ChangeState(hostif.Ready)

	c.log.Debugf("exec_stack(%s) -> 0", path)
	return 0
}

// ExecuteWithHostParams is exec_host (spec.md §4.10 Variant B), used at
// initial entry from the host. It does not pre-clear RAM: the initial RAM
// is already zero, so clearing it again would be a wasted pass over
// ExecutableLimit bytes (SPEC_FULL.md §4.14 item 4 confirms this asymmetry
// against exec_stack is intentional, not an oversight).
func (c *Core) ExecuteWithHostParams(path string, argv, envp []string) int16 {
	if err := c.loadTool(path); err != nil {
		result := minixerr.Errno(err)
		c.log.Debugf("exec_host(%s) -> %d", path, result)
		return result
	}

	block := buildArgvEnvpBlock(argv, envp, c.cfg.StackBase, true)
	c.ram.CopyFromHost(c.cfg.StackBase, block)
	c.cpu.ChangeState(hostif.Ready)

	c.log.Debugf("exec_host(%s) -> 0", path)
	return 0
}

// rebaseStackBlock walks a big-endian argc/argv/NULL/envp/NULL pointer
// block and rebases every nonzero pointer by base, leaving argc and the two
// NULL terminators untouched. It returns a patched copy; buf itself is not
// mutated, since it may be a host-owned buffer the caller reuses.
func rebaseStackBlock(buf []byte, base uint32) []byte {
	patched := make([]byte, len(buf))
	copy(patched, buf)

	if len(patched) < 4 {
		return patched
	}
	argc := binary.BigEndian.Uint32(patched[0:4])
	off := uint32(4)

	rebaseRun := func() {
		for off+4 <= uint32(len(patched)) {
			ptr := binary.BigEndian.Uint32(patched[off : off+4])
			if ptr == 0 {
				off += 4
				return
			}
			binary.BigEndian.PutUint32(patched[off:off+4], ptr+base)
			off += 4
		}
	}

	for i := uint32(0); i < argc && off+4 <= uint32(len(patched)); i++ {
		ptr := binary.BigEndian.Uint32(patched[off : off+4])
		if ptr != 0 {
			binary.BigEndian.PutUint32(patched[off:off+4], ptr+base)
		}
		off += 4
	}
	off += 4 // skip argv's NULL terminator

	rebaseRun() // envp, terminated by its own NULL

	return patched
}
