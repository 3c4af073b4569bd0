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

package asm_test

import (
	"bytes"
	"encoding/binary"
	"strings"
	"testing"
	"unicode"

	"github.com/db47h/glulx/asm"
	"github.com/db47h/glulx/vm"
)

// check some errors. We're not checking the messages, rather that they point at
// the correct place.
func TestAssemble_errors(t *testing.T) {
	code := `
:main .func locals 0
	frob 1 2	( unknown instruction )
	add 1 2 3	( constant store )
	.zoo
	copy 1 $x
	jump >nowhere
	`
	_, err := asm.Assemble("test_errors", strings.NewReader(code))
	if err == nil {
		t.Fatal("expected errors")
	}
	errs := err.(asm.ErrAsm)
	if len(errs) != 5 {
		t.Fatalf("expected 5 errors, got %d:\n%v", len(errs), err)
	}
	for _, e := range errs[:4] {
		o := e.Pos.Offset
		end := o
		for end < len(code) && !unicode.IsSpace(rune(code[end])) {
			end++
		}
		if !strings.Contains(e.Msg, code[o:end]) {
			t.Errorf("Error message \"%s\" points to %s", e.Msg, code[o:end])
		}
	}
	if !strings.Contains(errs[4].Msg, "undefined label nowhere") {
		t.Errorf("unexpected error %v", errs[4])
	}
}

func TestAssemble_header(t *testing.T) {
	code := `
	.stack 0x200
	.extend 300
:main .func locals 0
	return 0
	.ramstart
:var .word 42
`
	img, err := asm.Assemble("header", strings.NewReader(code))
	if err != nil {
		t.Fatal(err)
	}
	h, err := vm.ParseHeader(img)
	if err != nil {
		t.Fatal(err)
	}
	if err = h.Verify(img); err != nil {
		t.Fatal(err)
	}
	for _, c := range []struct {
		name      string
		got, want uint32
	}{
		{"RAMSTART", h.RAMStart, 0x100},
		{"EXTSTART", h.ExtStart, 0x200},
		{"ENDMEM", h.EndMem, 0x400},
		{"stack", h.StackSize, 0x200},
		{"start", h.StartFunc, vm.HeaderSize},
		{"var", binary.BigEndian.Uint32(img[0x100:]), 42},
	} {
		if c.got != c.want {
			t.Errorf("%s: got %#x, want %#x", c.name, c.got, c.want)
		}
	}
}

func TestAssemble_encoding(t *testing.T) {
	data := []struct {
		code string
		want []byte
	}{
		{"add 1 2 sp", []byte{0x10, 0x11, 0x08, 1, 2}},
		{"copy 0x1234 [0x20]", []byte{0x40, 0x52, 0x12, 0x34, 0x20}},
		{"copy -1 $8", []byte{0x40, 0x91, 0xFF, 8}},
		{"copy 100000 @4", []byte{0x40, 0xD3, 0x00, 0x01, 0x86, 0xA0, 4}},
		{"callf 0 _", []byte{0x81, 0x60, 0x00}},
		{":1 jump >1-", []byte{0x20, 0x03, 0xFF, 0xFF, 0xFF, 0xFC}},
		{"jz sp 1", []byte{0x22, 0x18, 1}},
		{"linkedsearch 1 2 3 4 5 6 sp", []byte{0x81, 0x52, 0x11, 0x11, 0x11, 0x08, 1, 2, 3, 4, 5, 6}},
	}
	for _, d := range data {
		img, err := asm.Assemble(d.code, strings.NewReader(":main .func locals 0 "+d.code))
		if err != nil {
			t.Errorf("%s: %v", d.code, err)
			continue
		}
		got := img[vm.HeaderSize+3 : vm.HeaderSize+3+len(d.want)]
		if !bytes.Equal(got, d.want) {
			t.Errorf("%s: got % x, want % x", d.code, got, d.want)
		}
	}
}

func TestAssemble_strings(t *testing.T) {
	img, err := asm.Assemble("strings", strings.NewReader(`
:main .func locals 0
:s	.string "hé"
:u	.unistring "€"
`))
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{0xE0, 'h', 0xE9, 0, 0xE2, 0, 0, 0, 0, 0, 0x20, 0xAC, 0, 0, 0, 0}
	got := img[vm.HeaderSize+3 : vm.HeaderSize+3+len(want)]
	if !bytes.Equal(got, want) {
		t.Errorf("got % x, want % x", got, want)
	}
}

func TestDisassemble_roundTrip(t *testing.T) {
	src := []string{
		"add 1 2 sp",
		"copy sp $0",
		"aload [0x100] @8 _",
		"streamstr 300",
		"fmod sp sp $4 $8",
	}
	img, err := asm.Assemble("dis", strings.NewReader(":main .func locals 3\n"+strings.Join(src, "\n")))
	if err != nil {
		t.Fatal(err)
	}
	pc := uint32(vm.HeaderSize + 5)
	for _, s := range src {
		var b bytes.Buffer
		next, err := asm.Disassemble(img, pc, &b)
		if err != nil {
			t.Fatal(err)
		}
		want := strings.Replace(s, "@8", "@0x8", 1)
		if b.String() != want {
			t.Errorf("got %q, want %q", b.String(), want)
		}
		pc = next
	}
}
