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

// Package glk implements the glk IO system for Glulx programs on a text
// console.
//
// A Console is used as the vm.Host of a VM instance. Windows are collapsed
// onto a single output: text buffer windows print to it, other windows are
// accepted but their output is discarded. Line and character input requests
// are served by reading from the input reader when the program calls
// glk_select.
//
// Memory streams read and write VM memory. File streams are backed by files
// in the console directory (see Dir) and are used by the save and restore
// opcodes through vm.StreamHost.
//
// Timers, styles, style hints, images, sound, mouse input and hyperlinks are
// accepted and ignored. Unknown selectors are logged and return zero.
package glk
