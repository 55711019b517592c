// Copyright 2014 CoreOS, Inc.
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

// Package cli is a small subcommand registry: each kobotool verb
// (create, convert, extract) registers a Command with its own flag
// set, and Run dispatches argv[1] to the matching one.
package cli

import (
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
)

var (
	cliName        string
	cliDescription string
	out            *tabwriter.Writer
	commands       []*Command // Commands must add themselves via Register()
	help           bool
)

func init() {
	flag.BoolVar(&help, "help", false, "Print usage information and exit")
	flag.BoolVar(&help, "h", false, "")

	out = new(tabwriter.Writer)
	out.Init(os.Stdout, 0, 8, 1, '\t', 0)
}

// Command is one kobotool subcommand. Flags use single-dash getopt
// style names (-d, -k, -o, ...) registered directly on flag.FlagSet,
// which Go's flag package already accepts without a getopt shim.
type Command struct {
	Name        string       // Name of the Command and the string to use to invoke it
	Summary     string       // One-sentence summary of what the Command does
	Usage       string       // Usage options/arguments
	Description string       // Detailed description of command
	Flags       flag.FlagSet // Set of flags associated with this command

	Run func(args []string) int // Run a command with the given arguments, return exit status
}

// Register adds cmd to the set Run dispatches to. Called from each
// subcommand's init().
func Register(cmd *Command) {
	commands = append(commands, cmd)
}

func Executable() string {
	return cliName
}

func Description() string {
	return cliDescription
}

// Run parses argv[1] as a subcommand name and invokes it, exiting the
// process with its return code.
func Run(name, desc string) {
	var cmd *Command

	cliName = name
	cliDescription = desc

	// Parse global arguments that precede the command.
	flag.Parse()
	args := flag.Args()
	if len(args) < 1 {
		cmd = findCommand("help")
		help = false
	} else {
		cmd = findCommand(args[0])

		// Add command specific flags and resume parsing. Flags may
		// follow positional arguments, so parsing resumes after each one.
		updateCommandLine(&cmd.Flags)
		rest := args[1:]
		args = nil
		for {
			flag.CommandLine.Parse(rest)
			rest = flag.Args()
			if len(rest) == 0 {
				break
			}
			args = append(args, rest[0])
			rest = rest[1:]
		}
	}

	if help {
		args = []string{cmd.Name}
		cmd = findCommand("help")
	}

	os.Exit(cmd.Run(args))
}

func findCommand(name string) *Command {
	var cmd *Command

	for _, c := range commands {
		if c.Name == name {
			cmd = c
			break
		}
	}

	if cmd == nil {
		fmt.Fprintf(os.Stderr, "%v: unknown subcommand: %q\n", cliName, name)
		fmt.Fprintf(os.Stderr, "Run '%v help' for usage.\n", cliName)
		os.Exit(1)
	}

	return cmd
}

// Add subcommand specific flags to the globally known flags
func updateCommandLine(flagset *flag.FlagSet) {
	flagset.VisitAll(func(f *flag.Flag) {
		flag.Var(f.Value, f.Name, f.Usage)
	})
}
