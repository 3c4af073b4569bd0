// This file is part of glulx - https://github.com/db47h/glulx
//
// Copyright 2016 Denis Bernard <db047h@gmail.com>
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

// The glulxe command line tool runs Glulx game files on a text console. It is
// a showcase for the packages github.com/db47h/glulx/vm and
// github.com/db47h/glulx/glk.
//
// Usage:
//
//	glulxe [options] gamefile
//
//	-config filename
//		  read settings from TOML file filename
//	-debug
//		  enable debug diagnostics
//	-dir string
//		  directory for save files and other data files (default ".")
//	-disasm count
//		  disassemble count instructions of the start function and exit
//	-dump
//		  dump the VM state upon exit
//	-latin1
//		  ISO-8859-1 console output
//	-log filename
//		  log to filename instead of stderr
//	-maxmem uint
//		  maximum memory size in bytes (default 2147483392)
//	-noraw
//		  disable raw terminal IO
//	-resume filename
//		  resume from snapshot filename
//	-seed uint
//		  random number generator seed (0 seeds from the clock)
//	-snapshot filename
//		  write a snapshot to filename when interrupted
//	-undo int
//		  maximum number of undo states (default 8)
//	-v int
//		  log verbosity (default 1)
//
// The game file can be a raw Glulx file or a Blorb archive.
//
// -noraw: upon startup, glulxe switches the terminal to raw mode unless stdin
// has been redirected. Line input is then echoed and edited by glulxe. This
// flag disables this behavior.
//
// -snapshot: when interrupted with CTRL-C, glulxe stops the game, writes a
// snapshot of the whole VM state, including open windows and streams, and
// exits. The default file name is the game file name with its .ulx extension
// replaced by .snap. Use -resume to continue from there.
//
// -config: settings can be read from a TOML file. Flags given on the command
// line take precedence. Example:
//
//	undo = 16
//	max_memory = 0x1000000
//	raw = false
//	verbosity = 3
//	log_file = "glulxe.log"
//	snapshot = "game.snap"
//	seed = 42
//	dir = "saves"
//	latin1 = false
package main
