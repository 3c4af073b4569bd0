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

import "encoding/binary"

// Function type bytes.
const (
	funcStack  = 0xC0 // arguments pushed on the value stack
	funcLocals = 0xC1 // arguments copied into locals
)

// Destination types of call stubs. Values 0 to 3 are result storage types,
// the others mark a suspended string or number printing operation.
const (
	destDiscard       = 0
	destMemory        = 1
	destLocal         = 2
	destStack         = 3
	destResumeHuffman = 0x10
	destTerminator    = 0x11
	destResumeNumber  = 0x12
	destResumeCString = 0x13
	destResumeUnicode = 0x14
)

func (i *Instance) stk1(addr uint32) uint32 {
	return uint32(i.stack[addr])
}

func (i *Instance) stk2(addr uint32) uint32 {
	return uint32(binary.BigEndian.Uint16(i.stack[addr:]))
}

func (i *Instance) stk4(addr uint32) uint32 {
	return binary.BigEndian.Uint32(i.stack[addr:])
}

func (i *Instance) stkW1(addr, v uint32) {
	i.stack[addr] = byte(v)
}

func (i *Instance) stkW2(addr, v uint32) {
	binary.BigEndian.PutUint16(i.stack[addr:], uint16(v))
}

func (i *Instance) stkW4(addr, v uint32) {
	binary.BigEndian.PutUint32(i.stack[addr:], v)
}

// Push pushes v on top of the value stack.
func (i *Instance) Push(v uint32) {
	if i.sp+4 > uint32(len(i.stack)) {
		fatalf("stack overflow")
	}
	i.stkW4(i.sp, v)
	i.sp += 4
}

// Pop pops the value on top of the value stack and returns it.
func (i *Instance) Pop() uint32 {
	if i.sp < i.valstackBase+4 {
		fatalf("stack underflow")
	}
	i.sp -= 4
	return i.stk4(i.sp)
}

// StackCount returns the number of values on the current function's value
// stack.
func (i *Instance) StackCount() uint32 {
	return (i.sp - i.valstackBase) / 4
}

// popArguments returns count arguments, either popped from the value stack
// (addr == 0) or read from memory at addr. The returned slice is only valid
// until the next call.
func (i *Instance) popArguments(count, addr uint32) []uint32 {
	if count == 0 {
		return nil
	}
	if addr == 0 && uint64(i.sp) < uint64(i.valstackBase)+4*uint64(count) {
		fatalf("stack underflow in arguments")
	}
	if addr != 0 && uint64(count)*4 > uint64(i.endmem) {
		fatalf("argument list at %#x out of range", addr)
	}
	if cap(i.args) < int(count) {
		i.args = make([]uint32, count)
	}
	args := i.args[:count]
	if addr == 0 {
		i.sp -= 4 * count
		for ix := uint32(0); ix < count; ix++ {
			args[ix] = i.stk4(i.sp + 4*(count-1-ix))
		}
		return args
	}
	for ix := range args {
		args[ix] = i.Mem4(addr)
		addr += 4
	}
	return args
}

// enterFunction builds a new call frame for the function at addr and sets the
// PC to its first instruction. If the address is bound to an accelerated
// function, the native routine is run instead and its result delivered by
// popping the call stub.
func (i *Instance) enterFunction(addr uint32, args []uint32) {
	if f := i.accel.lookup(addr); f != accelNone {
		v := i.callAccel(f, args)
		i.popCallStub(v)
		return
	}

	ftype := i.Mem1(addr)
	if ftype != funcStack && ftype != funcLocals {
		if ftype >= 0xC0 && ftype <= 0xDF {
			fatalf("call to unknown type of function at %#x", addr)
		}
		fatalf("call to non-function at %#x", addr)
	}
	addr++

	i.fp = i.sp
	size := uint32(len(i.stack))

	// copy the locals-format list into the frame, computing the size of the
	// locals segment on the way.
	var ix, localsLen uint32
	for {
		if i.fp+8+2*ix+4 > size {
			fatalf("stack overflow in function call")
		}
		typ, count := i.Mem1(addr), i.Mem1(addr+1)
		addr += 2
		i.stkW1(i.fp+8+2*ix, typ)
		i.stkW1(i.fp+8+2*ix+1, count)
		ix++
		if typ == 0 {
			if ix&1 != 0 {
				i.stkW1(i.fp+8+2*ix, 0)
				i.stkW1(i.fp+8+2*ix+1, 0)
				ix++
			}
			break
		}
		switch typ {
		case 4:
			localsLen = (localsLen + 3) &^ 3
		case 2:
			localsLen = (localsLen + 1) &^ 1
		case 1:
		default:
			fatalf("illegal local type %d in locals-format list", typ)
		}
		localsLen += typ * count
	}
	localsLen = (localsLen + 3) &^ 3

	i.localsBase = i.fp + 8 + 2*ix
	i.valstackBase = i.localsBase + localsLen
	if i.valstackBase >= size {
		fatalf("stack overflow in function call")
	}
	i.stkW4(i.fp+4, 8+2*ix)
	i.stkW4(i.fp, 8+2*ix+localsLen)
	i.sp = i.valstackBase
	i.PC = addr

	for p := i.localsBase; p < i.valstackBase; p++ {
		i.stack[p] = 0
	}

	if ftype == funcStack {
		argc := uint32(len(args))
		if i.sp+4*(argc+1) > size {
			fatalf("stack overflow in function arguments")
		}
		for n := argc; n > 0; n-- {
			i.stkW4(i.sp, args[n-1])
			i.sp += 4
		}
		i.stkW4(i.sp, argc)
		i.sp += 4
		return
	}

	// Scatter arguments into the locals following the format list. Extra
	// arguments are dropped, missing ones are left at zero.
	mode := i.fp + 8
	op := i.localsBase
	n := 0
	for n < len(args) {
		typ, count := i.stk1(mode), i.stk1(mode+1)
		mode += 2
		if typ == 0 {
			break
		}
		switch typ {
		case 4:
			op = (op + 3) &^ 3
			for ; n < len(args) && count > 0; count-- {
				i.stkW4(op, args[n])
				op += 4
				n++
			}
		case 2:
			op = (op + 1) &^ 1
			for ; n < len(args) && count > 0; count-- {
				i.stkW2(op, args[n])
				op += 2
				n++
			}
		case 1:
			for ; n < len(args) && count > 0; count-- {
				i.stkW1(op, args[n])
				op++
				n++
			}
		}
	}
}

// leaveFunction pops the current call frame.
func (i *Instance) leaveFunction() {
	i.sp = i.fp
}

// pushCallStub pushes a call stub recording where to store a result and where
// to resume execution.
func (i *Instance) pushCallStub(destType, destAddr uint32) {
	if i.sp+16 > uint32(len(i.stack)) {
		fatalf("stack overflow in call stub")
	}
	i.stkW4(i.sp, destType)
	i.stkW4(i.sp+4, destAddr)
	i.stkW4(i.sp+8, i.PC)
	i.stkW4(i.sp+12, i.fp)
	i.sp += 16
}

// popCallStub pops a call stub and either stores v according to it and
// resumes execution in the calling frame, or resumes the suspended printing
// operation it describes (v is then discarded).
func (i *Instance) popCallStub(v uint32) {
	if i.sp < 16 {
		fatalf("stack underflow in call stub")
	}
	i.sp -= 16
	destType := i.stk4(i.sp)
	destAddr := i.stk4(i.sp + 4)
	i.PC = i.stk4(i.sp + 8)
	i.setFrame(i.stk4(i.sp + 12))

	switch destType {
	case destTerminator:
		fatalf("string-terminator call stub at end of function call")
	case destResumeHuffman:
		i.streamString(decodeTask{kind: strHuffman, addr: i.PC, bit: destAddr})
	case destResumeNumber:
		i.streamNum(numberTask{val: int32(i.PC), pos: destAddr, nested: true})
	case destResumeCString:
		i.streamString(decodeTask{kind: strC, addr: i.PC})
	case destResumeUnicode:
		i.streamString(decodeTask{kind: strUnicode, addr: i.PC})
	default:
		i.storeResult(destType, destAddr, v)
	}
}

// popCallStubString pops the call stub ending a nested string. It returns
// false if there is no enclosing string to resume, otherwise the task to
// resume.
func (i *Instance) popCallStubString() (decodeTask, bool) {
	if i.sp < 16 {
		fatalf("stack underflow in call stub")
	}
	i.sp -= 16
	destType := i.stk4(i.sp)
	destAddr := i.stk4(i.sp + 4)
	i.PC = i.stk4(i.sp + 8)
	switch destType {
	case destTerminator:
		return decodeTask{}, false
	case destResumeHuffman:
		return decodeTask{kind: strHuffman, addr: i.PC, bit: destAddr}, true
	}
	fatalf("function-terminator call stub at end of string")
	return decodeTask{}, false
}

// setFrame sets the frame pointer and recomputes the locals and value stack
// bases from the frame header.
func (i *Instance) setFrame(fp uint32) {
	i.fp = fp
	i.valstackBase = fp + i.stk4(fp)
	i.localsBase = fp + i.stk4(fp+4)
}
