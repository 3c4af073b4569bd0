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

package asm

import (
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/scanner"

	"github.com/db47h/glulx/internal/iff"
	"github.com/db47h/glulx/vm"
)

var mnemonics = make(map[string]uint32)

func init() {
	for _, op := range vm.Opcodes() {
		name, _, _ := vm.OpcodeInfo(op)
		mnemonics[name] = op
	}
}

// ErrAsmEntry is a single assembly error.
type ErrAsmEntry struct {
	Pos scanner.Position
	Msg string
}

func (e ErrAsmEntry) Error() string {
	return e.Pos.String() + ": " + e.Msg
}

// ErrAsm is the error type returned by Assemble. It holds up to 10 errors.
type ErrAsm []ErrAsmEntry

func (e ErrAsm) Error() string {
	var b strings.Builder
	for i, err := range e {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(err.Error())
	}
	return b.String()
}

// Assemble compiles assembly read from the supplied io.Reader and returns the
// resulting game file and error if any. The game file header, including the
// checksum, is generated.
//
// Then name parameter is used only in error messages to name the source of the
// error. If the io.Reader is a file, name should be the file name.
//
// The returned error, if not nil, can safely be cast to an ErrAsm value that
// will contain up to 10 entries.
func Assemble(name string, r io.Reader) (img []byte, err error) {
	p := newParser()
	img, err = p.Parse(name, r)
	if err != nil {
		return nil, err
	}
	return img, nil
}

func operandString(mode uint32, v uint32) string {
	switch mode {
	case 0:
		return "0"
	case 1:
		return strconv.Itoa(int(int8(v)))
	case 2:
		return strconv.Itoa(int(int16(v)))
	case 3:
		return strconv.Itoa(int(int32(v)))
	case 5, 6, 7:
		return fmt.Sprintf("[%#x]", v)
	case 8:
		return "sp"
	case 9, 10, 11:
		return "$" + strconv.Itoa(int(v))
	case 13, 14, 15:
		return fmt.Sprintf("@%#x", v)
	}
	return "?"
}

// Disassemble writes a disassembly of the instruction at position pc in the
// given game file to the specified io.Writer and returns the position of the
// next instruction and any error. Store operands in mode 0 are shown as "_".
func Disassemble(img []byte, pc uint32, w io.Writer) (next uint32, err error) {
	ew, _ := w.(*iff.ErrWriter)
	if ew == nil {
		ew = iff.NewErrWriter(w)
	}
	need := func(n uint32) bool {
		if uint64(pc)+uint64(n) > uint64(len(img)) {
			err = fmt.Errorf("truncated instruction at %#x", pc)
			return false
		}
		return true
	}

	if !need(1) {
		return pc, err
	}
	op := uint32(img[pc])
	switch {
	case op >= 0xC0:
		if !need(4) {
			return pc, err
		}
		op = binary.BigEndian.Uint32(img[pc:]) & 0x0FFFFFFF
		pc += 4
	case op >= 0x80:
		if !need(2) {
			return pc, err
		}
		op = uint32(binary.BigEndian.Uint16(img[pc:])) & 0x7FFF
		pc += 2
	default:
		pc++
	}
	name, form, ok := vm.OpcodeInfo(op)
	if !ok {
		fmt.Fprintf(ew, ".op %#x", op)
		return pc, ew.Err
	}
	io.WriteString(ew, name)

	modes := pc
	n := uint32(len(form))
	if !need((n + 1) / 2) {
		return pc, err
	}
	pc += (n + 1) / 2
	for k := uint32(0); k < n; k++ {
		m := uint32(img[modes+k/2])
		if k&1 != 0 {
			m >>= 4
		}
		m &= 0xF
		var size uint32
		switch m {
		case 1, 5, 9, 13:
			size = 1
		case 2, 6, 10, 14:
			size = 2
		case 3, 7, 11, 15:
			size = 4
		}
		if !need(size) {
			return pc, err
		}
		var v uint32
		for b := uint32(0); b < size; b++ {
			v = v<<8 | uint32(img[pc+b])
		}
		pc += size
		s := operandString(m, v)
		if m == 0 && form[k] == 'S' {
			s = "_"
		}
		ew.Write([]byte{' '})
		io.WriteString(ew, s)
	}
	return pc, ew.Err
}

// DisassembleAll writes a disassembly of the code in img between addresses
// start and end to the specified io.Writer. Disassembly stops at the first
// undecodable instruction. It will return any write error.
func DisassembleAll(img []byte, start, end uint32, w io.Writer) error {
	ew := iff.NewErrWriter(w)
	for pc := start; pc < end && ew.Err == nil; {
		fmt.Fprintf(ew, "%08x\t", pc)
		next, err := Disassemble(img, pc, ew)
		ew.Write([]byte{'\n'})
		if err != nil {
			return err
		}
		pc = next
	}
	return ew.Err
}
