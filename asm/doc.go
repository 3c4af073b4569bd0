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

// Package asm provides utility functions to assemble and disassemble Glulx
// code.
//
// The assembler produces complete game files: a header is generated with the
// memory layout, the start function, the decoding table and the checksum.
//
// Comments:
//
// Comments are placed between parentheses, i.e. '(' and ')'. The body of the
// comment must be separated from the enclosing parentheses by a space:
//
//	( this is a valid comment )
//	(this is not )
//
// Instructions:
//
// Instructions are written as the opcode mnemonic (see vm.OpcodeInfo) followed
// by its operands, separated by white space. More than one instruction may
// appear on the same line. Operands use the following syntax:
//
//	42 -1 0x20 'a'	constant (encoded in the smallest possible size)
//	NAME		constant defined with .equ
//	label		address of label, as a 4 bytes constant
//	>label		branch offset to label, for the last operand of branch opcodes
//	[0x100]		memory at address 0x100
//	[label]		memory at the address of label
//	@4		RAM at RAMSTART+4
//	$4		local variable at offset 4 in the locals segment
//	sp		stack (pop for loads, push for stores)
//	_		discard the result (stores) or zero (loads)
//
// Branch opcodes take an offset as their last operand. The offsets 0 and 1
// mean returning 0 or 1 from the current function, so these must be written
// as literal values:
//
//	jz $0 >done	( branch to done if local 0 is zero )
//	jz $0 1		( return 1 if local 0 is zero )
//
// Labels:
//
// Labels are defined by prefixing them with a colon (:) and can be used
// anywhere an address is expected. Forward references are ok.
//
// Local labels work in the same way as in the GNU assembler. They are defined
// as a colon followed by a sequence of digits (i.e. :007, :0, :42). References
// to such labels must be suffixed with either a '-' (meaning backward
// reference to the last definition of this label), or a '+' (meaning a forward
// reference to the next definition of this label):
//
//	:1	jump >1+	( next occurrence of :1 )
//	:1	jump >1-	( previous occurrence of :1 )
//
// Directives:
//
//	.equ NAME value		define a constant
//	.func stack N		function taking its arguments on the stack, with N locals
//	.func locals N		function taking its arguments in its N locals
//	.byte v			a byte
//	.short v		a 16 bits value
//	.word v			a 32 bits value or the address of a label
//	.string "text"		a Latin-1 string (E0)
//	.unistring "text"	a Unicode string (E2)
//	.space n		n zero bytes
//	.align n		pad to a multiple of n bytes
//	.ramstart		start RAM at the next 256 bytes boundary
//	.stack n		stack size (defaults to 4096)
//	.extend n		zeroed memory after the game file data
//	.start label		start function (defaults to main)
//	.table label		decoding table
//
// Locals are 32 bits wide. Functions with other local types can be built with
// .byte directives:
//
//	:f	.byte 0xC1 .byte 1 .byte 2 .byte 4 .byte 1 .byte 0 .byte 0
//
// Everything before .ramstart is ROM. Without .ramstart, RAM is limited to the
// memory added with .extend.
package asm
