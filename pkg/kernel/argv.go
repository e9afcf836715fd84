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
	"strings"
)

// minixEnvPrefix is stripped from forwarded environment variables: the
// guest sees KEY=VALUE, never MINIX_KEY=VALUE.
const minixEnvPrefix = "MINIX_"

// roundUp4 rounds x up to the next multiple of 4.
func roundUp4(x uint32) uint32 {
	if rem := x % 4; rem != 0 {
		return x + (4 - rem)
	}
	return x
}

// buildArgvEnvpBlock is component E, the ArgvEnvpMarshaller of spec.md
// §4.11. It lays out the MINIX "prix-fixe" argument block: a 32-bit argc,
// argc pointers, a NULL, envc pointers (one per filtered envp entry), a
// NULL, then the NUL-terminated, 4-byte-aligned string content those
// pointers address. stackBase is the emulated address the whole block will
// be copied to; every pointer in the pointer block is stackBase plus the
// pointer block's own size plus that string's content offset.
//
// filterEnvp, when true, keeps only envp entries beginning with
// MINIX_ and strips that prefix before copying (execute_with_host_params);
// when false, every envp entry is copied unmodified. The fork-exec
// stack-block path (ExecuteWithStackBlock) does not call this function; it
// rebases the guest's already-built block with rebaseStackBlock instead.
func buildArgvEnvpBlock(argv, envp []string, stackBase uint32, filterEnvp bool) []byte {
	var filtered []string
	if filterEnvp {
		for _, e := range envp {
			if strings.HasPrefix(e, minixEnvPrefix) {
				filtered = append(filtered, strings.TrimPrefix(e, minixEnvPrefix))
			}
		}
	} else {
		filtered = envp
	}

	pointerCount := 1 + (len(argv) + 1) + (len(filtered) + 1) // argc + argv+NULL + envp+NULL
	pointerBlockSize := uint32(pointerCount) * 4

	contentSize := uint32(0)
	for _, s := range argv {
		contentSize += roundUp4(uint32(len(s) + 1))
	}
	for _, s := range filtered {
		contentSize += roundUp4(uint32(len(s) + 1))
	}

	block := make([]byte, pointerBlockSize+contentSize)
	ptrIdx := 0
	putPtr := func(v uint32) {
		binary.BigEndian.PutUint32(block[ptrIdx*4:], v)
		ptrIdx++
	}

	putPtr(uint32(len(argv)))

	contentOffset := pointerBlockSize
	putString := func(s string) {
		copy(block[contentOffset:], s)
		block[contentOffset+uint32(len(s))] = 0
		putPtr(stackBase + contentOffset)
		contentOffset += roundUp4(uint32(len(s) + 1))
	}

	for _, s := range argv {
		putString(s)
	}
	putPtr(0)
	for _, s := range filtered {
		putString(s)
	}
	putPtr(0)

	return block
}
