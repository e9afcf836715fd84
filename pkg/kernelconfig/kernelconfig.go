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

// Package kernelconfig centralizes the process core's tunables -- the
// memory layout constants SPEC_FULL.md §6 names, plus the log directory --
// the way runsc/config centralizes the knobs boot.Loader and
// runsc/sandbox.Sandbox consume. Unlike runsc/config (which reads an
// OCI-spec-sized flag set), this core has only a handful of real knobs, so
// they are expressed as an optional TOML file rather than a flag set.
package kernelconfig

import (
	"os"

	"github.com/BurntSushi/toml"

	"github.com/minixcompat/minixcompat-go/pkg/abi/minix"
)

// Config holds the process core's tunables. Load decodes the TOML file over
// Default(), so fields the file does not set keep the spec.md §6 defaults;
// a field the file sets explicitly, even to zero, is kept as written
// (except an empty log_dir, which falls back to MINIXCOMPAT_LOG_DIR).
type Config struct {
	// LogDir mirrors the MINIXCOMPAT_LOG_DIR environment variable; an
	// explicit config value takes precedence over the environment.
	LogDir string `toml:"log_dir"`

	// ExecutableBase, ExecutableLimit and StackBase override the
	// pkg/abi/minix defaults of the same name.
	ExecutableBase  uint32 `toml:"executable_base"`
	ExecutableLimit uint32 `toml:"executable_limit"`
	StackBase       uint32 `toml:"stack_base"`

	// Debug enables per-operation syscall tracing (hostlog.SetDebug),
	// the runtime equivalent of the original's DEBUG_PROCESS_SYSCALLS.
	Debug bool `toml:"debug"`
}

// Default returns the spec.md §6 defaults.
func Default() Config {
	return Config{
		LogDir:          os.Getenv("MINIXCOMPAT_LOG_DIR"),
		ExecutableBase:  minix.ExecutableBase,
		ExecutableLimit: minix.ExecutableLimit,
		StackBase:       minix.StackBase,
	}
}

// Load reads an optional TOML config file at path, applying it on top of
// Default(). A missing file is not an error -- callers that want to
// require one should stat first.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, err
	}
	if cfg.LogDir == "" {
		cfg.LogDir = os.Getenv("MINIXCOMPAT_LOG_DIR")
	}
	return cfg, nil
}
