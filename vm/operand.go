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

// operand is a decoded instruction operand. For load operands, val holds the
// loaded value. For store operands, dest holds the destination type and val
// the destination address (memory address or locals offset).
type operand struct {
	dest uint32
	val  uint32
}

const maxOperands = 8

// parseOperands decodes the operands of the current instruction according to
// the format of opcode info and advances the PC past them.
func (i *Instance) parseOperands(info *opInfo, ops []operand) {
	n := len(info.form)
	modes := i.PC
	i.PC += uint32(n+1) / 2
	for k := 0; k < n; k++ {
		m := i.Mem1(modes + uint32(k>>1))
		if k&1 != 0 {
			m >>= 4
		} else {
			m &= 0xF
		}
		if info.form[k] == 'S' {
			ops[k] = i.parseStore(m)
		} else {
			ops[k] = operand{val: i.parseLoad(m, info.size)}
		}
	}
}

// operandAddr reads the address or offset part of an operand for modes 5-7,
// 9-11 and 13-15.
func (i *Instance) operandAddr(mode uint32) uint32 {
	var a uint32
	switch mode & 3 {
	case 1:
		a = i.Mem1(i.PC)
		i.PC++
	case 2:
		a = i.Mem2(i.PC)
		i.PC += 2
	case 3:
		a = i.Mem4(i.PC)
		i.PC += 4
	}
	if mode >= 13 {
		a += i.hdr.RAMStart
	}
	return a
}

func (i *Instance) parseLoad(mode uint32, size int) uint32 {
	switch mode {
	case 0:
		return 0
	case 1:
		v := uint32(int32(int8(i.Mem1(i.PC))))
		i.PC++
		return v
	case 2:
		v := uint32(int32(int16(i.Mem2(i.PC))))
		i.PC += 2
		return v
	case 3:
		v := i.Mem4(i.PC)
		i.PC += 4
		return v
	case 5, 6, 7, 13, 14, 15:
		a := i.operandAddr(mode)
		switch size {
		case 2:
			return i.Mem2(a)
		case 1:
			return i.Mem1(a)
		}
		return i.Mem4(a)
	case 8:
		if i.sp < i.valstackBase+4 {
			fatalf("stack underflow in operand")
		}
		i.sp -= 4
		return i.stk4(i.sp)
	case 9, 10, 11:
		a := i.localAddr(i.operandAddr(mode), uint32(size))
		switch size {
		case 2:
			return i.stk2(a)
		case 1:
			return i.stk1(a)
		}
		return i.stk4(a)
	}
	fatalf("unknown addressing mode %d", mode)
	return 0
}

func (i *Instance) parseStore(mode uint32) operand {
	switch mode {
	case 0:
		return operand{dest: destDiscard}
	case 1, 2, 3:
		fatalf("constant addressing mode in store operand")
	case 5, 6, 7, 13, 14, 15:
		return operand{dest: destMemory, val: i.operandAddr(mode)}
	case 8:
		return operand{dest: destStack}
	case 9, 10, 11:
		return operand{dest: destLocal, val: i.operandAddr(mode)}
	}
	fatalf("unknown addressing mode %d in store operand", mode)
	return operand{}
}

// localAddr converts a locals offset into a stack address.
func (i *Instance) localAddr(off, size uint32) uint32 {
	a := i.localsBase + off
	if a < i.localsBase || a+size > i.valstackBase {
		fatalf("local variable offset %d out of range", off)
	}
	return a
}

// storeResult stores v according to the destination type and address.
func (i *Instance) storeResult(dest, addr, v uint32) {
	switch dest {
	case destDiscard:
	case destMemory:
		i.MemW4(addr, v)
	case destLocal:
		i.stkW4(i.localAddr(addr, 4), v)
	case destStack:
		i.Push(v)
	default:
		fatalf("unknown destination type %d", dest)
	}
}

// store is a shorthand for storing into a store operand.
func (i *Instance) store(op operand, v uint32) {
	i.storeResult(op.dest, op.val, v)
}

// storeShort and storeByte store the low 16 or 8 bits of v. Stack pushes are
// always 32 bits wide.
func (i *Instance) storeShort(op operand, v uint32) {
	switch op.dest {
	case destMemory:
		i.MemW2(op.val, v)
	case destLocal:
		i.stkW2(i.localAddr(op.val, 2), v)
	default:
		i.storeResult(op.dest, op.val, v&0xFFFF)
	}
}

func (i *Instance) storeByte(op operand, v uint32) {
	switch op.dest {
	case destMemory:
		i.MemW1(op.val, v)
	case destLocal:
		i.stkW1(i.localAddr(op.val, 1), v)
	default:
		i.storeResult(op.dest, op.val, v&0xFF)
	}
}
