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

import "golang.org/x/sys/unix"

// hostForMinix is the fixed bijection between the 16 MINIX signal numbers
// and host signals. Two MINIX signals the host lacks, SIGUNUSED and
// SIGSTKFLT, are proxied onto host signals that are rarely ever raised in
// practice (SIGXFSZ, SIGXCPU) purely so there is a host signal number to
// register a disposition against.
//
// unix.Signal, not syscall.Signal, is the currency here so that this map
// composes directly with unix.Kill and unix.Wait4 elsewhere in this module
// without a conversion at every call site.
var hostForMinix = map[Signal]unix.Signal{
	SIGHUP:    unix.SIGHUP,
	SIGINT:    unix.SIGINT,
	SIGQUIT:   unix.SIGQUIT,
	SIGILL:    unix.SIGILL,
	SIGTRAP:   unix.SIGTRAP,
	SIGABRT:   unix.SIGABRT,
	SIGUNUSED: unix.SIGXFSZ,
	SIGFPE:    unix.SIGFPE,
	SIGKILL:   unix.SIGKILL,
	SIGUSR1:   unix.SIGUSR1,
	SIGSEGV:   unix.SIGSEGV,
	SIGUSR2:   unix.SIGUSR2,
	SIGPIPE:   unix.SIGPIPE,
	SIGALRM:   unix.SIGALRM,
	SIGTERM:   unix.SIGTERM,
	SIGSTKFLT: unix.SIGXCPU,
}

var minixForHost map[unix.Signal]Signal

func init() {
	minixForHost = make(map[unix.Signal]Signal, len(hostForMinix))
	for m, h := range hostForMinix {
		minixForHost[h] = m
	}
}

// HostSignalForMinix returns the host signal equivalent to m, or 0 if m is
// not a valid MINIX signal.
func HostSignalForMinix(m Signal) unix.Signal {
	return hostForMinix[m]
}

// MinixSignalForHost returns the MINIX signal equivalent to the given host
// signal, or 0 if the host raised something MINIX has no name for. Callers
// treat 0 as "ignore".
func MinixSignalForHost(host unix.Signal) Signal {
	return minixForHost[host]
}
