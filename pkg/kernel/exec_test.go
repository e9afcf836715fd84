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
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/minixcompat/minixcompat-go/pkg/abi/minix"
	"github.com/minixcompat/minixcompat-go/pkg/hostif"
	"github.com/minixcompat/minixcompat-go/pkg/hostif/memhost"
)

// newBackingFile creates a real host file for loadTool's stat/open steps to
// find, and registers it as the host path for emuPath on c's Filesystem.
func newBackingFile(t *testing.T, c *Core, emuPath string, content []byte) {
	t.Helper()
	hostPath := filepath.Join(t.TempDir(), "tool")
	require.NoError(t, os.WriteFile(hostPath, content, 0o644))
	fs := c.fs.(*memhost.Filesystem)
	if fs.Translations == nil {
		fs.Translations = map[string]string{}
	}
	fs.Translations[emuPath] = hostPath
}

// Invariant 8: after exec_host, emulated memory at STACK_BASE contains
// big-endian argc, then argc+1 argv pointers (last NULL), then envc+1 envp
// pointers (last NULL); every non-null pointer lies past the pointer block.
func TestExecuteWithHostParamsLayout(t *testing.T) {
	c := newTestCore()
	newBackingFile(t, c, "/bin/prog", []byte("ignored by the fake loader"))
	ld := c.ld.(*memhost.Loader)
	ld.Image = hostif.LoadedImage{TextAndData: []byte{1, 2, 3}, InitialBreak: 0x1000}

	rc := c.ExecuteWithHostParams("/bin/prog", []string{"prog", "a"}, []string{"PATH=/", "MINIX_HOME=/u"})
	require.Zero(t, rc)

	ram := c.ram.(*memhost.RAM)
	region := ram.Bytes[minix.StackBase:]

	argc := binary.BigEndian.Uint32(region[0:4])
	require.Equal(t, uint32(2), argc)

	pointerBlockEnd := uint32(4) * (1 + (argc + 1) + (1 + 1)) // argc + argv/NULL + envp/NULL
	for i := uint32(4); i < pointerBlockEnd; i += 4 {
		ptr := binary.BigEndian.Uint32(region[i : i+4])
		if ptr != 0 {
			require.GreaterOrEqual(t, ptr, minix.StackBase+pointerBlockEnd)
		}
	}

	cpu := c.cpu.(*memhost.CPU)
	require.Equal(t, hostif.Ready, cpu.State)
}

// spec.md §4.10 step 2: a missing file returns its real negated errno.
func TestExecuteWithHostParamsMissingFileReturnsENOENT(t *testing.T) {
	c := newTestCore()
	cpu := c.cpu.(*memhost.CPU)
	stateBefore := cpu.State

	rc := c.ExecuteWithHostParams("/does/not/exist", nil, nil)
	require.Equal(t, int16(-2), rc) // ENOENT == 2

	// Exec failures return before mutating the Ready execution state
	// (spec.md §7): the CPU collaborator's state must be untouched.
	require.Equal(t, stateBefore, cpu.State)
}

// spec.md §4.10 step 3: an open failure always reports a hardcoded EIO,
// regardless of the real errno -- unlike the stat-miss case above.
func TestExecuteWithHostParamsOpenFailureReturnsHardcodedEIO(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root bypasses file permissions; this case needs an unreadable file")
	}
	c := newTestCore()
	hostPath := filepath.Join(t.TempDir(), "unreadable")
	require.NoError(t, os.WriteFile(hostPath, []byte("x"), 0o000))
	fs := c.fs.(*memhost.Filesystem)
	fs.Translations = map[string]string{"/bin/locked": hostPath}

	rc := c.ExecuteWithHostParams("/bin/locked", nil, nil)
	require.Equal(t, int16(-5), rc) // EIO == 5, not EACCES
}

func TestExecuteWithHostParamsLoaderFailure(t *testing.T) {
	c := newTestCore()
	newBackingFile(t, c, "/bin/prog", nil)
	ld := c.ld.(*memhost.Loader)
	ld.Err = errors.New("relocation failed")
	cpu := c.cpu.(*memhost.CPU)
	stateBefore := cpu.State

	rc := c.ExecuteWithHostParams("/bin/prog", nil, nil)
	require.Less(t, rc, int16(0))

	// Exec failures return before mutating the Ready execution state
	// (spec.md §7): the CPU collaborator's state must be untouched.
	require.Equal(t, stateBefore, cpu.State)
}

func TestExecuteWithStackBlockRebasesPointers(t *testing.T) {
	c := newTestCore()
	newBackingFile(t, c, "/bin/prog", []byte("ignored by the fake loader"))
	ld := c.ld.(*memhost.Loader)
	ld.Image = hostif.LoadedImage{TextAndData: []byte{9}, InitialBreak: 0x1000}

	// argc=1, argv=[0x10] (an emulated-offset pointer), NULL, envc=0, NULL.
	buf := make([]byte, 4*4)
	binary.BigEndian.PutUint32(buf[0:4], 1)
	binary.BigEndian.PutUint32(buf[4:8], 0x10)
	binary.BigEndian.PutUint32(buf[8:12], 0)
	binary.BigEndian.PutUint32(buf[12:16], 0)

	rc := c.ExecuteWithStackBlock("/bin/prog", buf)
	require.Zero(t, rc)

	ram := c.ram.(*memhost.RAM)
	region := ram.Bytes[minix.StackBase:]
	rebased := binary.BigEndian.Uint32(region[4:8])
	require.Equal(t, minix.StackBase+0x10, rebased)
}

func TestRebaseStackBlockLeavesNullsAlone(t *testing.T) {
	buf := make([]byte, 4*4)
	binary.BigEndian.PutUint32(buf[0:4], 0) // argc=0
	binary.BigEndian.PutUint32(buf[4:8], 0) // argv NULL
	binary.BigEndian.PutUint32(buf[8:12], 0x20)
	binary.BigEndian.PutUint32(buf[12:16], 0) // envp NULL

	out := rebaseStackBlock(buf, 0x1000)
	require.Zero(t, binary.BigEndian.Uint32(out[4:8]))
	require.Equal(t, uint32(0x1020), binary.BigEndian.Uint32(out[8:12]))
	require.Zero(t, binary.BigEndian.Uint32(out[12:16]))
}
