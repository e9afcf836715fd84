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

// Package memhost is an in-process fake of the hostif collaborators (CPU,
// RAM, Loader, Filesystem). pkg/kernel's tests use it as their only
// collaborator implementation; cmd/minixcompat's run subcommand uses it
// too, as the stub CPU/RAM pair that lets the core run standalone without
// a real 68K emulator. Real deployments supply the
// emulator's own implementations; those are explicitly out of scope for
// this module (SPEC_FULL.md §1).
package memhost

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/minixcompat/minixcompat-go/pkg/hostif"
)

// CPU is a fake hostif.CPU backed by a plain byte slice stack.
type CPU struct {
	pc, sr uint32
	State  hostif.ExecState
	Stack  []byte // appended to on every Push, highest-index == most recent
}

var _ hostif.CPU = (*CPU)(nil)

func NewCPU(pc uint32, sr uint16) *CPU {
	return &CPU{pc: pc, sr: uint32(sr)}
}

func (c *CPU) PC() uint32      { return c.pc }
func (c *CPU) SetPC(pc uint32) { c.pc = pc }
func (c *CPU) SR() uint16      { return uint16(c.sr) }

func (c *CPU) Push32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	c.Stack = append(c.Stack, b[:]...)
}

func (c *CPU) Push16(v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	c.Stack = append(c.Stack, b[:]...)
}

func (c *CPU) ChangeState(s hostif.ExecState) { c.State = s }

// RAM is a fake hostif.RAM backed by a fixed-size byte slice.
type RAM struct {
	Bytes []byte
}

var _ hostif.RAM = (*RAM)(nil)

func NewRAM(size uint32) *RAM {
	return &RAM{Bytes: make([]byte, size)}
}

func (r *RAM) Clear() {
	for i := range r.Bytes {
		r.Bytes[i] = 0
	}
}

func (r *RAM) CopyFromHost(addr uint32, buf []byte) {
	n := copy(r.Bytes[addr:], buf)
	if n != len(buf) {
		panic(fmt.Sprintf("memhost: RAM too small to copy %d bytes at 0x%x", len(buf), addr))
	}
}

// Loader is a fake hostif.Loader that returns a canned image regardless of
// input, recording the bytes it was asked to relocate.
type Loader struct {
	Image    hostif.LoadedImage
	Err      error
	LastRead []byte
}

var _ hostif.Loader = (*Loader)(nil)

func (l *Loader) Load(r io.Reader) (hostif.LoadedImage, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return hostif.LoadedImage{}, err
	}
	l.LastRead = b
	return l.Image, l.Err
}

// Filesystem is a fake hostif.Filesystem that's the identity function
// unless a translation is registered.
type Filesystem struct {
	Translations map[string]string
}

var _ hostif.Filesystem = (*Filesystem)(nil)

func (f *Filesystem) HostPathFor(emuPath string) (string, error) {
	if f.Translations != nil {
		if host, ok := f.Translations[emuPath]; ok {
			return host, nil
		}
	}
	return emuPath, nil
}
