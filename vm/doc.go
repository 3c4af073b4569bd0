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

// Package vm implements the Glulx virtual machine.
//
// An Instance is created from the content of a game file with New, then
// executed with Run:
//
//	img, err := vm.Load("game.ulx")
//	if err != nil {
//		// handle error
//	}
//	i, err := vm.New(img, vm.IO(host))
//	if err != nil {
//		// handle error
//	}
//	err = i.Run()
//
// All IO goes through a Host: the print opcodes send their output to the host
// when the program selects the Glk IO system, and the glk opcode is forwarded
// to Host.Dispatch. The glk package provides a console Host.
//
// Main memory is a big-endian byte array. Addresses below RAMSTART are read
// only and writing there is a fatal error. The call stack is a separate
// byte array, also big-endian, holding call frames and call stubs.
//
// Fatal errors (invalid opcodes, stack overflows, out of range memory
// accesses...) stop the VM: Run returns a *Error wrapped with the register
// values. Non-fatal conditions are logged as warnings with the
// "glulx.vm" logger (see github.com/tliron/commonlog) and execution continues.
//
// Printing strings may call back into the program: in the filter IO system,
// each character is passed to a VM function, and compressed strings may
// refer to functions. The decoder then pushes a call stub recording its exact
// position and enters the function. When the function returns, the call stub
// resumes decoding. This is transparent for the Run loop, which simply keeps
// executing instructions.
//
// The VM state can be saved with the save opcode or Save, in the portable
// Quetzal format (a FORM IFZS container), and restored with the restore
// opcode or Restore. Snapshot and Resume capture the complete state of the VM,
// including the state not covered by the Quetzal format.
//
// The VM is not safe for concurrent use, except for Interrupt which can be
// called from any goroutine to stop Run at the next instruction.
package vm
