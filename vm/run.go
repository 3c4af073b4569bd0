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

import "github.com/pkg/errors"

// Gestalt selectors.
const (
	GestaltGlulxVersion = 0
	GestaltTerpVersion  = 1
	GestaltResizeMem    = 2
	GestaltUndo         = 3
	GestaltIOSystem     = 4
	GestaltUnicode      = 5
	GestaltMemCopy      = 6
	GestaltMAlloc       = 7
	GestaltMAllocHeap   = 8
	GestaltAcceleration = 9
	GestaltAccelFunc    = 10
	GestaltFloat        = 11
	GestaltExtUndo      = 12
	GestaltDouble       = 13
)

const (
	glulxVersion = 0x00030103
	terpVersion  = 0x00000100
)

// Run executes instructions until the program quits, returns from its start
// function, Interrupt is called or a fatal error occurs.
//
// Fatal errors are returned as *Error wrapped with the register values at the
// time of the error (use errors.Cause to get the *Error). After a fatal error,
// the VM should be restarted or restored before resuming execution.
//
// If Interrupt was called, Run returns ErrInterrupted and can be called again
// to resume execution.
func (i *Instance) Run() (err error) {
	defer func() {
		if e := recover(); e != nil {
			err = i.recovered(e)
		}
	}()
	var ops [maxOperands]operand
	for !i.done {
		if i.halt.Load() {
			i.halt.Store(false)
			return ErrInterrupted
		}
		i.step(ops[:])
	}
	return nil
}

// step executes a single instruction.
func (i *Instance) step(ops []operand) {
	op := i.Mem1(i.PC)
	switch {
	case op >= 0xC0:
		op = i.Mem4(i.PC) & 0x0FFFFFFF
		i.PC += 4
	case op >= 0x80:
		op = i.Mem2(i.PC) & 0x7FFF
		i.PC += 2
	default:
		i.PC++
	}
	if op >= maxOpcode || opTable[op] == nil {
		fatalf("unknown opcode %#x", op)
	}
	i.parseOperands(opTable[op], ops)
	i.insCount++
	i.exec(op, ops)
}

// returnValue leaves the current function and delivers v to the caller.
// Returning from the outermost function halts the VM.
func (i *Instance) returnValue(v uint32) {
	i.leaveFunction()
	if i.sp == 0 {
		i.done = true
		return
	}
	i.popCallStub(v)
}

// branch performs a branch to the given offset. Offsets 0 and 1 return that
// value from the current function.
func (i *Instance) branch(off uint32) {
	if off == 0 || off == 1 {
		i.returnValue(off)
		return
	}
	i.PC += off - 2
}

func (i *Instance) branchIf(cond bool, off uint32) {
	if cond {
		i.branch(off)
	}
}

func (i *Instance) exec(op uint32, ops []operand) {
	v0, v1, v2 := ops[0].val, ops[1].val, ops[2].val
	switch op {
	case OpNop:

	case OpAdd:
		i.store(ops[2], v0+v1)
	case OpSub:
		i.store(ops[2], v0-v1)
	case OpMul:
		i.store(ops[2], v0*v1)
	case OpDiv:
		if v1 == 0 {
			fatalf("division by zero")
		}
		i.store(ops[2], uint32(int32(v0)/int32(v1)))
	case OpMod:
		if v1 == 0 {
			fatalf("division by zero doing remainder")
		}
		i.store(ops[2], uint32(int32(v0)%int32(v1)))
	case OpNeg:
		i.store(ops[1], -v0)
	case OpBitand:
		i.store(ops[2], v0&v1)
	case OpBitor:
		i.store(ops[2], v0|v1)
	case OpBitxor:
		i.store(ops[2], v0^v1)
	case OpBitnot:
		i.store(ops[1], ^v0)
	case OpShiftl:
		if v1 >= 32 {
			i.store(ops[2], 0)
		} else {
			i.store(ops[2], v0<<v1)
		}
	case OpSshiftr:
		if v1 >= 32 {
			v1 = 31
		}
		i.store(ops[2], uint32(int32(v0)>>v1))
	case OpUshiftr:
		if v1 >= 32 {
			i.store(ops[2], 0)
		} else {
			i.store(ops[2], v0>>v1)
		}

	case OpJump:
		i.branch(v0)
	case OpJz:
		i.branchIf(v0 == 0, v1)
	case OpJnz:
		i.branchIf(v0 != 0, v1)
	case OpJeq:
		i.branchIf(v0 == v1, v2)
	case OpJne:
		i.branchIf(v0 != v1, v2)
	case OpJlt:
		i.branchIf(int32(v0) < int32(v1), v2)
	case OpJge:
		i.branchIf(int32(v0) >= int32(v1), v2)
	case OpJgt:
		i.branchIf(int32(v0) > int32(v1), v2)
	case OpJle:
		i.branchIf(int32(v0) <= int32(v1), v2)
	case OpJltu:
		i.branchIf(v0 < v1, v2)
	case OpJgeu:
		i.branchIf(v0 >= v1, v2)
	case OpJgtu:
		i.branchIf(v0 > v1, v2)
	case OpJleu:
		i.branchIf(v0 <= v1, v2)
	case OpJumpabs:
		i.PC = v0

	case OpCall:
		args := i.popArguments(v1, 0)
		i.pushCallStub(ops[2].dest, ops[2].val)
		i.enterFunction(v0, args)
	case OpCallf, OpCallfi, OpCallfii, OpCallfiii:
		n := op - OpCallf
		args := i.args[:0]
		for k := uint32(0); k < n; k++ {
			args = append(args, ops[k+1].val)
		}
		i.args = args
		dst := ops[n+1]
		i.pushCallStub(dst.dest, dst.val)
		i.enterFunction(v0, args)
	case OpReturn:
		i.returnValue(v0)
	case OpTailcall:
		args := i.popArguments(v1, 0)
		i.leaveFunction()
		i.enterFunction(v0, args)
	case OpCatch:
		i.pushCallStub(ops[0].dest, ops[0].val)
		i.store(ops[0], i.sp)
		i.branch(v1)
	case OpThrow:
		if v1 < 16 || v1 > i.sp {
			fatalf("invalid catch token %#x", v1)
		}
		i.sp = v1
		i.popCallStub(v0)

	case OpCopy:
		i.store(ops[1], v0)
	case OpCopys:
		i.storeShort(ops[1], v0)
	case OpCopyb:
		i.storeByte(ops[1], v0)
	case OpSexs:
		i.store(ops[1], uint32(int32(int16(v0))))
	case OpSexb:
		i.store(ops[1], uint32(int32(int8(v0))))

	case OpAload:
		i.store(ops[2], i.Mem4(v0+4*v1))
	case OpAloads:
		i.store(ops[2], i.Mem2(v0+2*v1))
	case OpAloadb:
		i.store(ops[2], i.Mem1(v0+v1))
	case OpAloadbit:
		addr, bit := bitAddr(v0, v1)
		i.store(ops[2], (i.Mem1(addr)>>bit)&1)
	case OpAstore:
		i.MemW4(v0+4*v1, v2)
	case OpAstores:
		i.MemW2(v0+2*v1, v2)
	case OpAstoreb:
		i.MemW1(v0+v1, v2)
	case OpAstorebit:
		addr, bit := bitAddr(v0, v1)
		b := i.Mem1(addr)
		if v2 != 0 {
			b |= 1 << bit
		} else {
			b &^= 1 << bit
		}
		i.MemW1(addr, b)

	case OpStkcount:
		i.store(ops[0], i.StackCount())
	case OpStkpeek:
		if v0 >= i.StackCount() {
			fatalf("stkpeek outside current stack range")
		}
		i.store(ops[1], i.stk4(i.sp-4*(v0+1)))
	case OpStkswap:
		if i.StackCount() < 2 {
			fatalf("stack underflow in stkswap")
		}
		a, b := i.stk4(i.sp-4), i.stk4(i.sp-8)
		i.stkW4(i.sp-4, b)
		i.stkW4(i.sp-8, a)
	case OpStkroll:
		i.stkRoll(v0, int32(v1))
	case OpStkcopy:
		if v0 > i.StackCount() {
			fatalf("stack underflow in stkcopy")
		}
		if uint64(i.sp)+4*uint64(v0) > uint64(len(i.stack)) {
			fatalf("stack overflow in stkcopy")
		}
		src := i.sp - 4*v0
		copy(i.stack[i.sp:], i.stack[src:i.sp])
		i.sp += 4 * v0

	case OpStreamchar:
		i.streamChar(v0&0xFF, false)
	case OpStreamunichar:
		i.streamChar(v0, true)
	case OpStreamnum:
		i.streamNum(numberTask{val: int32(v0)})
	case OpStreamstr:
		if v0 == 0 {
			fatalf("attempt to print string at null address")
		}
		i.streamString(decodeTask{kind: strDetect, addr: v0})

	case OpGestalt:
		i.store(ops[2], i.gestalt(v0, v1))
	case OpDebugtrap:
		fatalf("user debugtrap encountered: %#x", v0)
	case OpGetmemsize:
		i.store(ops[0], i.endmem)
	case OpSetmemsize:
		if i.heap.active() {
			i.store(ops[1], 1)
			break
		}
		if err := i.changeMemSize(v0, false); err != nil {
			i.warnf("setmemsize: %v", err)
			i.store(ops[1], 1)
			break
		}
		i.store(ops[1], 0)

	case OpRandom:
		i.store(ops[1], i.random(int32(v0)))
	case OpSetrandom:
		i.seedRandom(uint64(v0))

	case OpQuit:
		i.done = true
	case OpVerify:
		if i.hdr.Verify(i.image) != nil {
			i.store(ops[0], 1)
		} else {
			i.store(ops[0], 0)
		}
	case OpRestart:
		i.restart()
	case OpProtect:
		i.Protect(v0, v1)

	case OpSave:
		i.pushCallStub(ops[1].dest, ops[1].val)
		res := i.saveToStream(v0)
		i.popCallStub(res)
	case OpRestore:
		if err := i.restoreFromStream(v0); err != nil {
			i.log.Errorf("restore: %v", err)
			i.store(ops[1], 1)
			break
		}
		i.popCallStub(^uint32(0))
	case OpSaveundo:
		i.pushCallStub(ops[0].dest, ops[0].val)
		res := uint32(0)
		if err := i.saveUndo(); err != nil {
			i.log.Debugf("saveundo: %v", err)
			res = 1
		}
		i.popCallStub(res)
	case OpRestoreundo:
		if err := i.restoreUndo(); err != nil {
			i.log.Debugf("restoreundo: %v", err)
			i.store(ops[0], 1)
			break
		}
		i.popCallStub(^uint32(0))
	case OpHasundo:
		if i.HasUndo() {
			i.store(ops[0], 0)
		} else {
			i.store(ops[0], 1)
		}
	case OpDiscardundo:
		i.DiscardUndo()

	case OpGlk:
		args := i.popArguments(v1, 0)
		res, err := i.host.Dispatch(i, v0, args)
		if err != nil {
			if errors.Cause(err) == ErrExit {
				i.done = true
				break
			}
			panic(errors.Wrapf(err, "glk selector %#x", v0))
		}
		i.store(ops[2], res)

	case OpGetstringtbl:
		i.store(ops[0], i.stringTable)
	case OpSetstringtbl:
		i.setStringTable(v0)
	case OpGetiosys:
		i.store(ops[0], i.iosys.mode)
		i.store(ops[1], i.iosys.rock)
	case OpSetiosys:
		i.setIOSys(v0, v1)

	case OpLinearsearch:
		i.store(ops[7], i.LinearSearch(v0, v1, v2, ops[3].val, ops[4].val, ops[5].val, ops[6].val))
	case OpBinarysearch:
		i.store(ops[7], i.BinarySearch(v0, v1, v2, ops[3].val, ops[4].val, ops[5].val, ops[6].val))
	case OpLinkedsearch:
		i.store(ops[6], i.LinkedSearch(v0, v1, v2, ops[3].val, ops[4].val, ops[5].val))

	case OpMzero:
		i.mzero(v0, v1)
	case OpMcopy:
		i.mcopy(v0, v1, v2)
	case OpMalloc:
		i.store(ops[1], i.heapAlloc(v0))
	case OpMfree:
		i.heapFree(v0)

	case OpAccelfunc:
		i.accelSetFunc(v0, v1)
	case OpAccelparam:
		i.accel.setParam(v0, v1)

	default:
		i.execFloat(op, ops)
	}
}

// bitAddr computes the byte address and bit number of bit n counted from
// addr. n is signed.
func bitAddr(addr, n uint32) (uint32, uint32) {
	bit := int32(n)
	if bit >= 0 {
		return addr + uint32(bit>>3), uint32(bit & 7)
	}
	return addr - 1 - uint32((-1-bit)>>3), 7 - uint32((-1-bit)&7)
}

// stkRoll rotates the top count values of the stack by shift places, a
// positive shift moving values toward the top.
func (i *Instance) stkRoll(count uint32, shift int32) {
	if count > i.StackCount() {
		fatalf("stack underflow in stkroll")
	}
	if count == 0 {
		return
	}
	s := shift % int32(count)
	if s < 0 {
		s += int32(count)
	}
	if s == 0 {
		return
	}
	base := i.sp - 4*count
	vals := make([]uint32, count)
	for k := uint32(0); k < count; k++ {
		vals[(k+uint32(s))%count] = i.stk4(base + 4*k)
	}
	for k, v := range vals {
		i.stkW4(base+4*uint32(k), v)
	}
}

func (i *Instance) random(n int32) uint32 {
	switch {
	case n == 0:
		return i.rng.Uint32()
	case n > 0:
		return i.rng.Uint32() % uint32(n)
	}
	return -(i.rng.Uint32() % uint32(-n))
}

func (i *Instance) gestalt(sel, arg uint32) uint32 {
	switch sel {
	case GestaltGlulxVersion:
		return glulxVersion
	case GestaltTerpVersion:
		return terpVersion
	case GestaltResizeMem, GestaltUnicode, GestaltMemCopy, GestaltMAlloc,
		GestaltAcceleration, GestaltFloat, GestaltExtUndo:
		return 1
	case GestaltUndo:
		if i.undo.depth > 0 {
			return 1
		}
		return 0
	case GestaltIOSystem:
		if arg <= IOSysGlk {
			return 1
		}
		return 0
	case GestaltMAllocHeap:
		return i.heap.start
	case GestaltAccelFunc:
		if accelFunc(arg) > accelNone && accelFunc(arg) < accelCount {
			return 1
		}
		return 0
	}
	return 0
}
