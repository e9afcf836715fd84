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

package minixerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestErrnoSentinels(t *testing.T) {
	cases := map[error]int16{
		EINVAL: 22,
		ESRCH:  3,
		ENOMEM: 12,
		EIO:    5,
		EINTR:  4,
	}
	for err, want := range cases {
		require.Equal(t, -want, Errno(err))
	}
}

func TestErrnoNilIsZero(t *testing.T) {
	require.Zero(t, Errno(nil))
}

func TestErrnoUnrecognizedFallsBackToEIO(t *testing.T) {
	require.Equal(t, int16(-5), Errno(errors.New("boom")))
}

func TestTranslateHostErrnoKnownValue(t *testing.T) {
	err := TranslateHostErrno(unix.ENOENT)
	require.Equal(t, int16(-2), Errno(err))
}

func TestTranslateHostErrnoUnknownFallsBackToEIO(t *testing.T) {
	err := TranslateHostErrno(unix.Errno(0xFFFF))
	require.Equal(t, int16(-5), Errno(err))
}

func TestTranslateHostErrnoNonErrno(t *testing.T) {
	err := TranslateHostErrno(errors.New("not an errno"))
	require.Equal(t, int16(-5), Errno(err))
}
