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

package vm_test

import (
	"fmt"
	"strings"
	"testing"
)

// huffman returns the .byte directives encoding the given codes, each code
// being a sequence of bits, in reading order.
func huffman(codes ...string) string {
	var b strings.Builder
	var cur, n uint
	for _, c := range codes {
		for _, bit := range c {
			if bit == '1' {
				cur |= 1 << n
			}
			if n++; n == 8 {
				fmt.Fprintf(&b, " .byte %d", cur)
				cur, n = 0, 0
			}
		}
	}
	if n > 0 {
		fmt.Fprintf(&b, " .byte %d", cur)
	}
	return b.String()
}

// decoding table, with codes:
//
//	00 end of string	01 'a'		10 'b'
//	110 "xyz"		1110 U+263A	11110 indirect "hi"
//	111110 indirect bang	111111 'c'
const huffTable = `
	:table .word 0x80 .word 15 .word root
	:root .byte 0 .word n0 .word n1
	:n0 .byte 0 .word term .word chA
	:term .byte 1
	:chA .byte 2 .byte 'a'
	:n1 .byte 0 .word chB .word n11
	:chB .byte 2 .byte 'b'
	:n11 .byte 0 .word sXYZ .word n111
	:sXYZ .byte 3 .byte 'x' .byte 'y' .byte 'z' .byte 0
	:n111 .byte 0 .word uni .word n1111
	:uni .byte 4 .word 0x263A
	:n1111 .byte 0 .word refHi .word n11111
	:refHi .byte 8 .word hi
	:n11111 .byte 0 .word refBang .word chC
	:refBang .byte 8 .word bang
	:chC .byte 2 .byte 'c'
`

var huffStrings = `
	:bang .func locals 0 streamchar '!' return 0
	:hi .string "hi"
	:s1 .byte 0xE1` + huffman("01", "10", "110", "1110", "11110", "111110", "111111", "00") + `
	:s2 .byte 0xE1` + huffman("01", "01", "10", "01", "111111", "10", "10", "01", "00") + `
	:s3 .byte 0xE1` + huffman("00")

// huffProgram builds a program printing the compressed strings. The decoding
// table is placed in ROM or in RAM.
func huffProgram(main string, rom bool) string {
	code := prelude + main + " return 0\n" + huffStrings + "\n.table table\n"
	if rom {
		return code + huffTable + ".space 0x80\n"
	}
	return code + ".ramstart\n" + huffTable
}

func TestHuffman(t *testing.T) {
	main := "streamstr s1 streamchar 32 streamstr s2 streamchar 32 streamstr s3 streamchar '.'"
	const want = "abxyz☺hi!c aabacbbab ."
	for _, rom := range []bool{true, false} {
		i, out := run(t, "huffman", huffProgram(main, rom))
		assertEqual(t, fmt.Sprintf("output (rom: %v)", rom), want, out)
		assertEqual(t, "cached", rom, i.TableCached())
	}
}

func TestFilter(t *testing.T) {
	main := `setiosys 1 filter
		streamstr s1 streamnum -45 streamchar 'A' streamunichar 0x3B1 streamstr plain streamstr uplain
		setiosys 2 0 streamchar '|'`
	const want = "a.b.x.y.z.☺.h.i.!.c.-.4.5.A.α.p.q.ü.v.|"
	for _, rom := range []bool{true, false} {
		code := huffProgram(main, rom) + `
			:filter .func locals 1 setiosys 2 0 streamunichar $0 streamchar '.' setiosys 1 filter return 0
			:plain .string "pq"
			:uplain .unistring "üv"`
		_, out := run(t, "filter", code)
		assertEqual(t, fmt.Sprintf("filter (rom: %v)", rom), want, out)
	}
}

func TestStringTable(t *testing.T) {
	main := `getstringtbl sp streamnum sp streamchar 32
		setstringtbl 0 getstringtbl sp streamnum sp streamchar 32
		setstringtbl table streamstr s2 streamchar 32
		setiosys 0 0 streamstr s1 setiosys 2 0 streamchar '.'`
	i, out := run(t, "stringtbl", huffProgram(main, false))
	want := fmt.Sprintf("%d 0 aabacbbab .", i.StringTable())
	assertEqual(t, "string table", want, out)
}

// decoding table with indirect references, with codes:
//
//	00 end of string	01 call show(7, 8)	10 "hi" through pHi
//	110 call show(3) through pShow	111 'c'
const indirectTable = `
	:itable .word 0x60 .word 9 .word iroot
	:iroot .byte 0 .word in0 .word in1
	:in0 .byte 0 .word iterm .word callArgs
	:iterm .byte 1
	:callArgs .byte 0x0A .word show .word 2 .word 7 .word 8
	:in1 .byte 0 .word refHi .word in11
	:refHi .byte 0x09 .word pHi
	:in11 .byte 0 .word callRef .word chC
	:callRef .byte 0x0B .word pShow .word 1 .word 3
	:chC .byte 2 .byte 'c'
`

func indirectProgram(main string, rom bool) string {
	code := prelude + main + ` return 0
		:show .func locals 2 streamnum $0 streamchar ',' streamnum $4 return 0
		:filter .func locals 1 setiosys 2 0 streamunichar $0 streamchar '.' setiosys 1 filter return 0
		:hi .string "hi"
		:s .byte 0xE1` + huffman("01", "10", "110", "111", "00") + `
		.table itable
`
	ptrs := ".ramstart :pHi .word hi :pShow .word show\n"
	if rom {
		return code + indirectTable + ".space 0x60\n" + ptrs
	}
	return code + ptrs + indirectTable
}

func TestHuffmanIndirect(t *testing.T) {
	tests := []struct {
		name string
		main string
		want string
	}{
		{"host", "streamstr s streamchar '|'", "7,8hi3,0c|"},
		{"filter", "setiosys 1 filter streamstr s setiosys 2 0 streamchar '|'", "7.,.8.h.i.3.,.0.c.|"},
	}
	for _, test := range tests {
		for _, rom := range []bool{true, false} {
			name := fmt.Sprintf("%s (rom: %v)", test.name, rom)
			i, out := run(t, name, indirectProgram(test.main, rom))
			assertEqual(t, name, test.want, out)
			assertEqual(t, name+" cached", rom, i.TableCached())
		}
	}
}
