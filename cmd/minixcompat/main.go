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

// Binary minixcompat drives the process-management core standalone, for
// smoke-testing it without a real 68K emulator attached.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"
)

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")
	subcommands.Register(new(runCmd), "")
	subcommands.Register(new(selftestCmd), "")

	flag.Parse()

	// hostlog.Init is called per-subcommand, once its kernelconfig.Config
	// (and thus the log directory an explicit -config may override) is
	// loaded, rather than here from the bare environment.
	os.Exit(int(subcommands.Execute(context.Background())))
}
