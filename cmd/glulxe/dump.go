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

package main

import (
	"fmt"
	"io"

	"github.com/db47h/glulx/asm"
	"github.com/db47h/glulx/internal/iff"
	"github.com/db47h/glulx/vm"
)

// dumpVM writes the VM registers, memory layout and the instruction at PC to
// the specified io.Writer.
func dumpVM(i *vm.Instance, w io.Writer) error {
	ew := iff.NewErrWriter(w)
	r := i.Registers()
	h := i.Header()
	fmt.Fprintf(ew, "pc=%#x sp=%#x fp=%#x locals=%#x valstack=%#x stack-count=%d\n",
		r.PC, r.StackPtr, r.FramePtr, r.LocalsBase, r.ValStackBase, i.StackCount())
	fmt.Fprintf(ew, "ramstart=%#x extstart=%#x endmem=%#x (initial %#x) heap=%#x\n",
		h.RAMStart, h.ExtStart, i.MemSize(), h.EndMem, i.HeapStart())
	mode, rock := i.IOSys()
	fmt.Fprintf(ew, "iosys=%d/%#x string-table=%#x undo=%d instructions=%d\n",
		mode, rock, i.StringTable(), i.UndoCount(), i.InstructionCount())
	if i.Done() || r.PC >= i.MemSize() {
		return ew.Err
	}
	fmt.Fprintf(ew, "%08x\t", r.PC)
	if _, err := asm.Disassemble(i.Bytes(0, i.MemSize()), r.PC, ew); err != nil {
		fmt.Fprintf(ew, "(%v)", err)
	}
	ew.Write([]byte{'\n'})
	return ew.Err
}

// disassemble writes the header of the game file and a disassembly of count
// instructions starting at the first instruction of the start function.
func disassemble(img []byte, count int, w io.Writer) error {
	h, err := vm.ParseHeader(img)
	if err != nil {
		return err
	}
	ew := iff.NewErrWriter(w)
	fmt.Fprintf(ew, "version %d.%d.%d ramstart=%#x extstart=%#x endmem=%#x stack=%#x start=%#x table=%#x checksum=%#x\n",
		h.Version>>16, (h.Version>>8)&0xFF, h.Version&0xFF, h.RAMStart, h.ExtStart, h.EndMem, h.StackSize,
		h.StartFunc, h.DecodingTable, h.Checksum)
	pc := funcBody(img, h.StartFunc)
	for n := 0; n < count && pc < uint32(len(img)) && ew.Err == nil; n++ {
		fmt.Fprintf(ew, "%08x\t", pc)
		next, err := asm.Disassemble(img, pc, ew)
		ew.Write([]byte{'\n'})
		if err != nil {
			return err
		}
		pc = next
	}
	return ew.Err
}

// funcBody returns the address of the first instruction of the function at
// addr, skipping the function type and locals format.
func funcBody(img []byte, addr uint32) uint32 {
	p := addr + 1
	for p+1 < uint32(len(img)) {
		if img[p] == 0 && img[p+1] == 0 {
			return p + 2
		}
		p += 2
	}
	return p
}
