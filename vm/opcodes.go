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

// Glulx opcodes.
const (
	OpNop           = 0x00
	OpAdd           = 0x10
	OpSub           = 0x11
	OpMul           = 0x12
	OpDiv           = 0x13
	OpMod           = 0x14
	OpNeg           = 0x15
	OpBitand        = 0x18
	OpBitor         = 0x19
	OpBitxor        = 0x1A
	OpBitnot        = 0x1B
	OpShiftl        = 0x1C
	OpSshiftr       = 0x1D
	OpUshiftr       = 0x1E
	OpJump          = 0x20
	OpJz            = 0x22
	OpJnz           = 0x23
	OpJeq           = 0x24
	OpJne           = 0x25
	OpJlt           = 0x26
	OpJge           = 0x27
	OpJgt           = 0x28
	OpJle           = 0x29
	OpJltu          = 0x2A
	OpJgeu          = 0x2B
	OpJgtu          = 0x2C
	OpJleu          = 0x2D
	OpCall          = 0x30
	OpReturn        = 0x31
	OpCatch         = 0x32
	OpThrow         = 0x33
	OpTailcall      = 0x34
	OpCopy          = 0x40
	OpCopys         = 0x41
	OpCopyb         = 0x42
	OpSexs          = 0x44
	OpSexb          = 0x45
	OpAload         = 0x48
	OpAloads        = 0x49
	OpAloadb        = 0x4A
	OpAloadbit      = 0x4B
	OpAstore        = 0x4C
	OpAstores       = 0x4D
	OpAstoreb       = 0x4E
	OpAstorebit     = 0x4F
	OpStkcount      = 0x50
	OpStkpeek       = 0x51
	OpStkswap       = 0x52
	OpStkroll       = 0x53
	OpStkcopy       = 0x54
	OpStreamchar    = 0x70
	OpStreamnum     = 0x71
	OpStreamstr     = 0x72
	OpStreamunichar = 0x73
	OpGestalt       = 0x100
	OpDebugtrap     = 0x101
	OpGetmemsize    = 0x102
	OpSetmemsize    = 0x103
	OpJumpabs       = 0x104
	OpRandom        = 0x110
	OpSetrandom     = 0x111
	OpQuit          = 0x120
	OpVerify        = 0x121
	OpRestart       = 0x122
	OpSave          = 0x123
	OpRestore       = 0x124
	OpSaveundo      = 0x125
	OpRestoreundo   = 0x126
	OpProtect       = 0x127
	OpHasundo       = 0x128
	OpDiscardundo   = 0x129
	OpGlk           = 0x130
	OpGetstringtbl  = 0x140
	OpSetstringtbl  = 0x141
	OpGetiosys      = 0x148
	OpSetiosys      = 0x149
	OpLinearsearch  = 0x150
	OpBinarysearch  = 0x151
	OpLinkedsearch  = 0x152
	OpCallf         = 0x160
	OpCallfi        = 0x161
	OpCallfii       = 0x162
	OpCallfiii      = 0x163
	OpMzero         = 0x170
	OpMcopy         = 0x171
	OpMalloc        = 0x178
	OpMfree         = 0x179
	OpAccelfunc     = 0x180
	OpAccelparam    = 0x181
	OpNumtof        = 0x190
	OpFtonumz       = 0x191
	OpFtonumn       = 0x192
	OpCeil          = 0x198
	OpFloor         = 0x199
	OpFadd          = 0x1A0
	OpFsub          = 0x1A1
	OpFmul          = 0x1A2
	OpFdiv          = 0x1A3
	OpFmod          = 0x1A4
	OpSqrt          = 0x1A8
	OpExp           = 0x1A9
	OpLog           = 0x1AA
	OpPow           = 0x1AB
	OpSin           = 0x1B0
	OpCos           = 0x1B1
	OpTan           = 0x1B2
	OpAsin          = 0x1B3
	OpAcos          = 0x1B4
	OpAtan          = 0x1B5
	OpAtan2         = 0x1B6
	OpJfeq          = 0x1C0
	OpJfne          = 0x1C1
	OpJflt          = 0x1C2
	OpJfle          = 0x1C3
	OpJfgt          = 0x1C4
	OpJfge          = 0x1C5
	OpJisnan        = 0x1C8
	OpJisinf        = 0x1C9
)

// opInfo describes the operands of an opcode: form holds one letter per
// operand, 'L' for loads and 'S' for stores. size is the width in bytes of
// memory and locals operands.
type opInfo struct {
	name string
	form string
	size int
}

const maxOpcode = 0x1CA

var opTable [maxOpcode]*opInfo

func def(op uint32, name, form string) {
	opTable[op] = &opInfo{name, form, 4}
}

func init() {
	def(OpNop, "nop", "")
	def(OpAdd, "add", "LLS")
	def(OpSub, "sub", "LLS")
	def(OpMul, "mul", "LLS")
	def(OpDiv, "div", "LLS")
	def(OpMod, "mod", "LLS")
	def(OpNeg, "neg", "LS")
	def(OpBitand, "bitand", "LLS")
	def(OpBitor, "bitor", "LLS")
	def(OpBitxor, "bitxor", "LLS")
	def(OpBitnot, "bitnot", "LS")
	def(OpShiftl, "shiftl", "LLS")
	def(OpSshiftr, "sshiftr", "LLS")
	def(OpUshiftr, "ushiftr", "LLS")
	def(OpJump, "jump", "L")
	def(OpJz, "jz", "LL")
	def(OpJnz, "jnz", "LL")
	for op, name := range map[uint32]string{
		OpJeq: "jeq", OpJne: "jne", OpJlt: "jlt", OpJge: "jge", OpJgt: "jgt", OpJle: "jle",
		OpJltu: "jltu", OpJgeu: "jgeu", OpJgtu: "jgtu", OpJleu: "jleu",
	} {
		def(op, name, "LLL")
	}
	def(OpCall, "call", "LLS")
	def(OpReturn, "return", "L")
	def(OpCatch, "catch", "SL")
	def(OpThrow, "throw", "LL")
	def(OpTailcall, "tailcall", "LL")
	def(OpCopy, "copy", "LS")
	def(OpCopys, "copys", "LS")
	opTable[OpCopys].size = 2
	def(OpCopyb, "copyb", "LS")
	opTable[OpCopyb].size = 1
	def(OpSexs, "sexs", "LS")
	def(OpSexb, "sexb", "LS")
	def(OpAload, "aload", "LLS")
	def(OpAloads, "aloads", "LLS")
	def(OpAloadb, "aloadb", "LLS")
	def(OpAloadbit, "aloadbit", "LLS")
	def(OpAstore, "astore", "LLL")
	def(OpAstores, "astores", "LLL")
	def(OpAstoreb, "astoreb", "LLL")
	def(OpAstorebit, "astorebit", "LLL")
	def(OpStkcount, "stkcount", "S")
	def(OpStkpeek, "stkpeek", "LS")
	def(OpStkswap, "stkswap", "")
	def(OpStkroll, "stkroll", "LL")
	def(OpStkcopy, "stkcopy", "L")
	def(OpStreamchar, "streamchar", "L")
	def(OpStreamnum, "streamnum", "L")
	def(OpStreamstr, "streamstr", "L")
	def(OpStreamunichar, "streamunichar", "L")
	def(OpGestalt, "gestalt", "LLS")
	def(OpDebugtrap, "debugtrap", "L")
	def(OpGetmemsize, "getmemsize", "S")
	def(OpSetmemsize, "setmemsize", "LS")
	def(OpJumpabs, "jumpabs", "L")
	def(OpRandom, "random", "LS")
	def(OpSetrandom, "setrandom", "L")
	def(OpQuit, "quit", "")
	def(OpVerify, "verify", "S")
	def(OpRestart, "restart", "")
	def(OpSave, "save", "LS")
	def(OpRestore, "restore", "LS")
	def(OpSaveundo, "saveundo", "S")
	def(OpRestoreundo, "restoreundo", "S")
	def(OpProtect, "protect", "LL")
	def(OpHasundo, "hasundo", "S")
	def(OpDiscardundo, "discardundo", "")
	def(OpGlk, "glk", "LLS")
	def(OpGetstringtbl, "getstringtbl", "S")
	def(OpSetstringtbl, "setstringtbl", "L")
	def(OpGetiosys, "getiosys", "SS")
	def(OpSetiosys, "setiosys", "LL")
	def(OpLinearsearch, "linearsearch", "LLLLLLLS")
	def(OpBinarysearch, "binarysearch", "LLLLLLLS")
	def(OpLinkedsearch, "linkedsearch", "LLLLLLS")
	def(OpCallf, "callf", "LS")
	def(OpCallfi, "callfi", "LLS")
	def(OpCallfii, "callfii", "LLLS")
	def(OpCallfiii, "callfiii", "LLLLS")
	def(OpMzero, "mzero", "LL")
	def(OpMcopy, "mcopy", "LLL")
	def(OpMalloc, "malloc", "LS")
	def(OpMfree, "mfree", "L")
	def(OpAccelfunc, "accelfunc", "LL")
	def(OpAccelparam, "accelparam", "LL")
	def(OpNumtof, "numtof", "LS")
	def(OpFtonumz, "ftonumz", "LS")
	def(OpFtonumn, "ftonumn", "LS")
	def(OpCeil, "ceil", "LS")
	def(OpFloor, "floor", "LS")
	def(OpFadd, "fadd", "LLS")
	def(OpFsub, "fsub", "LLS")
	def(OpFmul, "fmul", "LLS")
	def(OpFdiv, "fdiv", "LLS")
	def(OpFmod, "fmod", "LLSS")
	def(OpSqrt, "sqrt", "LS")
	def(OpExp, "exp", "LS")
	def(OpLog, "log", "LS")
	def(OpPow, "pow", "LLS")
	def(OpSin, "sin", "LS")
	def(OpCos, "cos", "LS")
	def(OpTan, "tan", "LS")
	def(OpAsin, "asin", "LS")
	def(OpAcos, "acos", "LS")
	def(OpAtan, "atan", "LS")
	def(OpAtan2, "atan2", "LLS")
	def(OpJfeq, "jfeq", "LLLL")
	def(OpJfne, "jfne", "LLLL")
	def(OpJflt, "jflt", "LLL")
	def(OpJfle, "jfle", "LLL")
	def(OpJfgt, "jfgt", "LLL")
	def(OpJfge, "jfge", "LLL")
	def(OpJisnan, "jisnan", "LL")
	def(OpJisinf, "jisinf", "LL")
}

// OpcodeInfo returns the mnemonic and operand format of the given opcode. The
// format string holds one letter per operand: 'L' for a load, 'S' for a store.
// ok is false for unknown opcodes.
func OpcodeInfo(op uint32) (name, form string, ok bool) {
	if op >= maxOpcode || opTable[op] == nil {
		return "", "", false
	}
	return opTable[op].name, opTable[op].form, true
}

// Opcodes returns the list of known opcodes.
func Opcodes() []uint32 {
	var ops []uint32
	for op, info := range opTable {
		if info != nil {
			ops = append(ops, uint32(op))
		}
	}
	return ops
}
