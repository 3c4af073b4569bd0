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

package vm

import (
	"io"

	"github.com/pkg/errors"
)

// Host is the interface to the IO system of the VM. It receives the output of
// the print opcodes when the Glk IO system is selected, and serves the glk
// opcode.
type Host interface {
	// PutChar prints a Latin-1 character.
	PutChar(ch byte)
	// PutCharUni prints a Unicode code point.
	PutCharUni(ch uint32)
	// Dispatch performs the glk call with the given selector and arguments.
	// The Instance can be used to access VM memory. Returning ErrExit stops
	// the VM cleanly. Any other error is fatal.
	Dispatch(i *Instance, id uint32, args []uint32) (uint32, error)
}

// StreamHost is implemented by Hosts that can provide the streams used by the
// save and restore opcodes.
type StreamHost interface {
	Host
	// Stream returns the stream with the given id, or nil if there is no such
	// stream.
	Stream(id uint32) io.ReadWriter
}

type nullHost struct{}

func (nullHost) PutChar(byte)      {}
func (nullHost) PutCharUni(uint32) {}

func (nullHost) Dispatch(_ *Instance, id uint32, _ []uint32) (uint32, error) {
	return 0, errors.Errorf("no IO host for glk call %#x", id)
}

// Print sends the string s to the host as if printed by the program in the
// Glk IO system. It is a convenience for hosts and accelerated functions.
func (i *Instance) Print(s string) {
	for _, r := range s {
		if r < 0x100 {
			i.host.PutChar(byte(r))
		} else {
			i.host.PutCharUni(uint32(r))
		}
	}
}
