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

package glk_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/db47h/glulx/asm"
	"github.com/db47h/glulx/glk"
	"github.com/db47h/glulx/vm"
	"github.com/pkg/errors"
)

// prelude opens a text buffer window, stores its id in local 0 and makes it
// the current stream.
const prelude = `:main .func locals 4
	setiosys 2 0
	copy 201 sp copy 3 sp copy 0 sp copy 0 sp copy 0 sp glk 0x23 5 $0
	copy $0 sp glk 0x2F 1 _
`

// ram is appended to every program.
const ram = `
.ramstart
:ev	.space 16
:res	.space 8
:buf	.space 64
:ubuf	.word 0x73 .word 0x74 .word 0x72 .word 0x61 .word 0xDF .word 0x65 .space 8
:tbuf	.word 0x68 .word 0x45 .word 0x4C .word 0x4C .word 0x4F .space 12
`

func assemble(t *testing.T, name, code string) []byte {
	t.Helper()
	img, err := asm.Assemble(name, strings.NewReader(prelude+code+ram))
	if err != nil {
		t.Fatalf("%s: %v", name, err)
	}
	return img
}

func setup(t *testing.T, name, code, input string, opts ...glk.Option) (*vm.Instance, *glk.Console, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	c, err := glk.New(strings.NewReader(input), &out, opts...)
	if err != nil {
		t.Fatalf("%s: %v", name, err)
	}
	t.Cleanup(func() { c.Close() })
	i, err := vm.New(assemble(t, name, code), vm.IO(c))
	if err != nil {
		t.Fatalf("%s: %+v", name, err)
	}
	return i, c, &out
}

var tests = [...]struct {
	name  string
	code  string
	input string
	out   string
}{
	{"output", `streamstr hello streamchar 10 streamunichar 0x263A
		copy 'x' sp glk 0x80 1 _
		copy 0x263B sp glk 0x128 1 _
		copy hello sp glk 0x82 1 _
		copy uni sp glk 0x129 1 _
		return 0
	:hello	.string "Héllo"
	:uni	.unistring "€!"`, "", "Héllo\n☺x☻Héllo€!"},
	{"line", `copy 0 sp copy 32 sp copy buf sp copy $0 sp glk 0xD0 4 _
		copy ev sp glk 0xC0 1 _
		aload ev 0 sp streamnum sp streamchar ' '
		aload ev 1 sp jne sp $0 >bad
		aload ev 2 $4
		copy $4 sp copy buf sp glk 0x84 2 _
		return 0
	:bad	streamchar '?' return 0`, "look\r\nwest\n", "3 look"},
	{"line uni", `copy 0 sp copy 8 sp copy buf sp copy $0 sp glk 0x141 4 _
		copy ev sp glk 0xC0 1 _
		aload ev 2 $4
		copy $4 sp copy buf sp glk 0x12A 2 _
		streamchar ' ' aload buf 0 sp streamnum sp
		return 0`, "€uro\n", "€uro 8364"},
	{"line truncated", `copy 0 sp copy 3 sp copy buf sp copy $0 sp glk 0xD0 4 _
		copy ev sp glk 0xC0 1 _
		aload ev 2 $4 streamnum $4 streamchar ' '
		copy $4 sp copy buf sp glk 0x84 2 _
		return 0`, "abcdef\n", "3 abc"},
	{"line latin1", `copy 0 sp copy 8 sp copy buf sp copy $0 sp glk 0xD0 4 _
		copy ev sp glk 0xC0 1 _
		aload ev 2 $4
		copy $4 sp copy buf sp glk 0x84 2 _
		return 0`, "é€\n", "é?"},
	{"char", `copy $0 sp glk 0xD2 1 _
		copy ev sp glk 0xC0 1 _
		aload ev 0 sp streamnum sp streamchar ' '
		aload ev 2 sp streamchar sp
		copy $0 sp glk 0xD2 1 _
		copy ev sp glk 0xC0 1 _
		aload ev 2 sp streamnum sp
		return 0`, "yes\n\n", "2 y-6"},
	{"eof", `copy 0 sp copy 32 sp copy buf sp copy $0 sp glk 0xD0 4 _
		streamchar '>'
		copy ev sp glk 0xC0 1 _
		streamchar 'x'
		return 0`, "", ">"},
	{"exit", `streamchar 'a' glk 0x01 0 _ streamchar 'b' return 0`, "", "a"},
	{"memory stream", `copy 0 sp copy 1 sp copy 4 sp copy buf sp glk 0x43 4 $4
		copy $4 sp glk 0x47 1 _
		streamstr hello
		copy res sp copy $4 sp glk 0x44 2 _
		glk 0x48 0 sp jnz sp >bad
		copy $0 sp glk 0x2F 1 _
		aload res 1 sp streamnum sp streamchar ' '
		copy 4 sp copy buf sp glk 0x84 2 _
		return 0
	:bad	streamchar '?' return 0
	:hello	.string "hello"`, "", "5 hell"},
	{"memory read", `copy 0 sp copy 2 sp copy 5 sp copy text sp glk 0x43 4 $4
		copy $4 sp glk 0x90 1 sp streamchar sp
		copy 0 sp copy 2 sp copy $4 sp glk 0x45 3 _
		copy $4 sp glk 0x90 1 sp streamchar sp
		copy $4 sp glk 0x46 1 sp streamnum sp streamchar ' '
		copy 8 sp copy buf sp copy $4 sp glk 0x92 3 sp streamnum sp streamchar ' '
		copy 2 sp copy buf sp glk 0x84 2 _
		copy $4 sp glk 0x90 1 sp streamnum sp
		return 0
	:text	.byte 'a' .byte 'b' .byte 'c' .byte 'd' .byte 'e'`, "", "ac3 2 de-1"},
	{"memory uni", `copy 0 sp copy 1 sp copy 4 sp copy buf sp glk 0x139 4 $4
		copy 0x263A sp copy $4 sp glk 0x12B 2 _
		copy 'z' sp copy $4 sp glk 0x81 2 _
		copy 0 sp copy $4 sp glk 0x44 2 _
		aload buf 0 sp streamunichar sp
		aload buf 1 sp streamunichar sp
		return 0`, "", "☺z"},
	{"echo stream", `copy 0 sp copy 1 sp copy 8 sp copy buf sp glk 0x43 4 $4
		copy $4 sp copy $0 sp glk 0x2D 2 _
		copy $0 sp glk 0x2E 1 sp jne sp $4 >bad
		streamchar 'h' streamchar 'i'
		copy 0 sp copy $0 sp glk 0x2D 2 _
		copy res sp copy $4 sp glk 0x44 2 _
		streamchar ' '
		copy 2 sp copy buf sp glk 0x84 2 _
		return 0
	:bad	streamchar '?' return 0`, "", "hi hi"},
	{"grid", `copy 0 sp copy 4 sp copy 1 sp copy 0x12 sp copy $0 sp glk 0x23 5 $4
		copy $4 sp glk 0x2F 1 _ streamchar 'g'
		copy $0 sp glk 0x2F 1 _ streamchar 'b'
		copy $4 sp glk 0x28 1 sp streamnum sp
		copy -1 sp copy -1 sp copy $4 sp glk 0x25 3 _ streamnum sp streamnum sp
		return 0`, "", "b4180"},
	{"window size", `copy -1 sp copy -1 sp copy $0 sp glk 0x25 3 _
		streamnum sp streamchar ' ' streamnum sp
		return 0`, "", "24 80"},
	{"iterate", `copy -1 sp copy 0 sp glk 0x20 2 sp
		jne sp $0 >bad streamnum sp streamchar ' '
		copy 0 sp copy $0 sp glk 0x20 2 sp streamnum sp streamchar ' '
		glk 0x22 0 sp jne sp $0 >bad
		copy 0 sp copy 0 sp glk 0x40 2 sp
		copy $0 sp glk 0x2C 1 sp jne sp sp >bad
		glk 0x48 0 sp copy $0 sp glk 0x2C 1 sp jne sp sp >bad
		streamchar 'k'
		return 0
	:bad	streamchar '?' return 0`, "", "201 0 k"},
	{"close root", `copy 0 sp copy 4 sp copy 1 sp copy 0x12 sp copy $0 sp glk 0x23 5 _
		copy 0 sp copy $0 sp glk 0x24 2 _
		glk 0x22 0 $4
		copy 0 sp copy 0 sp glk 0x20 2 $8
		glk 0x48 0 $12
		copy 201 sp copy 3 sp copy 0 sp copy 0 sp copy 0 sp glk 0x23 5 $0
		copy $0 sp glk 0x2F 1 _
		streamnum $4 streamnum $8 streamnum $12
		return 0`, "", "000"},
	{"case", `copy 0xE9 sp glk 0xA1 1 sp streamchar sp
		copy 'A' sp glk 0xA0 1 sp streamchar sp
		copy 0xFF sp glk 0xA1 1 sp streamchar sp
		copy 6 sp copy 8 sp copy ubuf sp glk 0x121 3 $4
		copy $4 sp copy ubuf sp glk 0x12A 2 _
		streamchar ' ' streamnum $4 streamchar ' '
		copy 1 sp copy 5 sp copy 8 sp copy tbuf sp glk 0x122 4 $4
		copy $4 sp copy tbuf sp glk 0x12A 2 _
		return 0`, "", "ÉaÿSTRASSE 7 Hello"},
	{"gestalt", `copy 0 sp copy 0 sp glk 0x04 2 sp streamnum sp streamchar ' '
		copy 0x263A sp copy 3 sp glk 0x04 2 sp streamnum sp streamchar ' '
		copy 0 sp copy 15 sp glk 0x04 2 sp streamnum sp streamchar ' '
		copy 0 sp copy 6 sp glk 0x04 2 sp streamnum sp streamchar ' '
		copy 1 sp copy res sp copy 'a' sp copy 3 sp glk 0x05 4 sp streamnum sp
		aload res 0 sp streamnum sp
		return 0`, "", "460032 2 1 0 21"},
	{"unknown", `glk 0x7777 0 sp streamnum sp return 0`, "", "0"},
	{"select poll", `copy ev sp glk 0xC1 1 _ aload ev 0 sp streamnum sp return 0`, "", "0"},
}

func TestConsole(t *testing.T) {
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			i, _, out := setup(t, test.name, test.code, test.input)
			if err := i.Run(); err != nil {
				t.Fatalf("%+v", err)
			}
			if !i.Done() {
				t.Fatal("VM not done")
			}
			if got := out.String(); got != test.out {
				t.Errorf("expected %q, got %q", test.out, got)
			}
		})
	}
}

func TestErrors(t *testing.T) {
	for _, test := range []struct {
		name string
		code string
	}{
		{"args", `copy 0 sp copy 0 sp glk 0x23 2 _ return 0`},
		{"select", `copy ev sp glk 0xC0 1 _ return 0`},
		{"string type", `copy buf sp glk 0x82 1 _ return 0`},
		{"uni string type", `copy hello sp glk 0x129 1 _ return 0
		:hello .string "hello"`},
	} {
		t.Run(test.name, func(t *testing.T) {
			i, _, _ := setup(t, test.name, test.code, "")
			err := i.Run()
			if err == nil {
				t.Fatal("expected an error")
			}
			if _, ok := errors.Cause(err).(*vm.Error); ok {
				t.Fatalf("expected a glk error, got %v", err)
			}
		})
	}
}

func TestFiles(t *testing.T) {
	dir := t.TempDir()
	code := `copy 0 sp copy notes sp copy 0x100 sp glk 0x61 3 $8
		copy 0 sp copy 1 sp copy $8 sp glk 0x42 3 $4
		copy line sp copy $4 sp glk 0x83 2 _
		copy 0x263A sp copy $4 sp glk 0x81 2 _
		copy 0 sp copy $4 sp glk 0x44 2 _
		copy $8 sp glk 0x67 1 sp streamnum sp streamchar ' '
		copy 0 sp copy 2 sp copy $8 sp glk 0x42 3 $4
		copy 64 sp copy buf sp copy $4 sp glk 0x91 3 $12
		streamnum $12 streamchar ' '
		copy $12 sp copy buf sp glk 0x84 2 _
		copy res sp copy $4 sp glk 0x44 2 _
		aload res 0 sp streamnum sp
		streamchar ' '
		copy 0 sp copy $8 sp copy 0x102 sp glk 0x68 3 sp
		glk 0x65 1 sp streamnum sp
		copy $8 sp glk 0x66 1 _
		copy $8 sp glk 0x67 1 sp streamnum sp
		return 0
	:notes	.string "notes.txt"
	:line	.string "line one\n"`
	i, _, out := setup(t, "files", code, "", glk.Dir(dir))
	if err := i.Run(); err != nil {
		t.Fatalf("%+v", err)
	}
	if got, want := out.String(), "1 9 line one\n9 00"; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
	if _, err := os.Stat(filepath.Join(dir, "notes.glkdata")); !os.IsNotExist(err) {
		t.Errorf("file not deleted: %v", err)
	}
}

func TestFileUni(t *testing.T) {
	dir := t.TempDir()
	code := `copy 0 sp copy name sp copy 0x100 sp glk 0x61 3 $8
		copy 0 sp copy 1 sp copy $8 sp glk 0x138 3 $4
		copy 0x263A sp copy $4 sp glk 0x12B 2 _
		copy 'a' sp copy $4 sp glk 0x12B 2 _
		copy 0 sp copy $4 sp glk 0x44 2 _
		copy 0 sp copy $8 sp copy 0 sp glk 0x68 3 $12
		copy 0 sp copy 2 sp copy $8 sp glk 0x138 3 $4
		copy $4 sp glk 0x130 1 sp streamunichar sp
		copy $4 sp glk 0x46 1 sp streamnum sp
		copy 0 sp copy 2 sp copy $12 sp glk 0x42 3 $4
		copy $4 sp glk 0x130 1 sp streamnum sp
		return 0
	:name	.string "uni"`
	i, _, out := setup(t, "file uni", code, "", glk.Dir(dir))
	if err := i.Run(); err != nil {
		t.Fatalf("%+v", err)
	}
	if got, want := out.String(), "☺3226"; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
	b, err := os.ReadFile(filepath.Join(dir, "uni.glkdata"))
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "☺a" {
		t.Errorf("unexpected file content %q", b)
	}
}

func TestSaveRestore(t *testing.T) {
	dir := t.TempDir()
	code := `copy 0 sp copy game sp copy 1 sp glk 0x61 3 $8
		copy 0 sp copy 1 sp copy $8 sp glk 0x42 3 $4
		copy 7 $12
		save $4 sp
		jeq sp -1 >restored
		copy 0 sp copy $4 sp glk 0x44 2 _
		copy 0 sp copy 2 sp copy $8 sp glk 0x42 3 $4
		copy 9 $12
		streamchar 'S'
		restore $4 _
		streamchar 'X'
		return 0
	:restored
		streamchar 'R' streamnum $12
		return 0
	:game	.string "game"`
	i, _, out := setup(t, "save", code, "", glk.Dir(dir))
	if err := i.Run(); err != nil {
		t.Fatalf("%+v", err)
	}
	if got, want := out.String(), "SR7"; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
	b, err := os.ReadFile(filepath.Join(dir, "game.glksave"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(b, []byte("FORM")) || string(b[8:12]) != "IFZS" {
		t.Errorf("bad save file header % x", b[:12])
	}
}

func TestPrompt(t *testing.T) {
	dir := t.TempDir()
	code := `copy 0 sp copy 1 sp copy 1 sp glk 0x62 3 $8
		jz $8 >bad
		copy 0 sp copy 1 sp copy $8 sp glk 0x42 3 $4
		copy 'k' sp copy $4 sp glk 0x81 2 _
		copy 0 sp copy $4 sp glk 0x44 2 _
		copy 0 sp copy 1 sp copy 1 sp glk 0x62 3 sp streamnum sp
		return 0
	:bad	streamchar '?' return 0`
	i, _, out := setup(t, "prompt", code, "my/save.sav\n\n", glk.Dir(dir))
	if err := i.Run(); err != nil {
		t.Fatalf("%+v", err)
	}
	if got, want := out.String(), "Save to file: Save to file: 0"; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
	if _, err := os.Stat(filepath.Join(dir, "my-save.glksave")); err != nil {
		t.Error(err)
	}
}

func TestTempFile(t *testing.T) {
	code := `copy 0 sp copy 0 sp glk 0x60 2 $8
		copy $8 sp glk 0x67 1 sp streamnum sp
		copy $8 sp glk 0x63 1 _
		copy 0 sp copy 0 sp glk 0x64 2 sp streamnum sp
		return 0`
	i, _, out := setup(t, "temp", code, "")
	if err := i.Run(); err != nil {
		t.Fatalf("%+v", err)
	}
	if got, want := out.String(), "10"; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestLatin1Output(t *testing.T) {
	code := `streamchar 0xE9 streamunichar 0x263A return 0`
	i, _, out := setup(t, "latin1", code, "", glk.Latin1(true))
	if err := i.Run(); err != nil {
		t.Fatalf("%+v", err)
	}
	if got := out.Bytes(); len(got) != 2 || got[0] != 0xE9 {
		t.Errorf("unexpected output % x", got)
	}
}

func TestSizeOption(t *testing.T) {
	code := `copy -1 sp copy -1 sp copy $0 sp glk 0x25 3 _
		streamnum sp streamchar 'x' streamnum sp
		return 0`
	i, _, out := setup(t, "size", code, "", glk.Size(func() (int, int) { return 100, 40 }))
	if err := i.Run(); err != nil {
		t.Fatalf("%+v", err)
	}
	if got, want := out.String(), "40x100"; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestOptions(t *testing.T) {
	if _, err := glk.New(nil, nil); err == nil {
		t.Error("expected an error for a nil output")
	}
	if _, err := glk.New(nil, new(bytes.Buffer), glk.Dir(filepath.Join(t.TempDir(), "nope"))); err == nil {
		t.Error("expected an error for a missing directory")
	}
	if _, err := glk.New(nil, new(bytes.Buffer), glk.Logger(nil)); err == nil {
		t.Error("expected an error for a nil logger")
	}
	c, err := glk.New(nil, new(bytes.Buffer))
	if err != nil {
		t.Fatal(err)
	}
	if c.Stream(42) != nil {
		t.Error("Stream returned a non nil value for an invalid id")
	}
}

const lineLoop = `copy 0 sp copy 32 sp copy buf sp copy $0 sp glk 0xD0 4 _
	:loop
		copy ev sp glk 0xC0 1 _
		aload ev 0 sp jz sp >loop
		aload ev 2 $4
		copy $4 sp copy buf sp glk 0x84 2 _
		return 0`

func TestInterrupt(t *testing.T) {
	code := `copy 0 sp copy 32 sp copy buf sp copy $0 sp glk 0xD0 4 _
		copy ev sp glk 0xC0 1 _
		aload ev 0 sp streamnum sp streamchar ' '
		copy ev sp glk 0xC0 1 _
		aload ev 0 sp streamnum sp streamchar ' '
		aload ev 2 $4
		copy $4 sp copy buf sp glk 0x84 2 _
		return 0`
	i, c, out := setup(t, "interrupt", code, "hi\n")
	c.Interrupt()
	if err := i.Run(); err != nil {
		t.Fatalf("%+v", err)
	}
	if got, want := out.String(), "0 3 hi"; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

// stopHost stops the VM when select returns an event of type none.
type stopHost struct {
	*glk.Console
}

func (h stopHost) Dispatch(i *vm.Instance, id uint32, args []uint32) (uint32, error) {
	var ev uint32
	if id == 0xC0 && len(args) > 0 {
		ev = args[0]
	}
	res, err := h.Console.Dispatch(i, id, args)
	if ev != 0 && err == nil && i.Mem4(ev) == 0 {
		i.Interrupt()
	}
	return res, err
}

func TestState(t *testing.T) {
	img := assemble(t, "state", lineLoop)

	var out1 bytes.Buffer
	c1, err := glk.New(strings.NewReader("never read\n"), &out1)
	if err != nil {
		t.Fatal(err)
	}
	defer c1.Close()
	i1, err := vm.New(img, vm.IO(stopHost{c1}))
	if err != nil {
		t.Fatal(err)
	}
	c1.Interrupt()
	if err = i1.Run(); err != vm.ErrInterrupted {
		t.Fatalf("expected ErrInterrupted, got %v", err)
	}
	var snap bytes.Buffer
	if err = i1.Snapshot(&snap); err != nil {
		t.Fatal(err)
	}
	state, err := c1.MarshalState()
	if err != nil {
		t.Fatal(err)
	}

	var out2 bytes.Buffer
	c2, err := glk.New(strings.NewReader("north\n"), &out2)
	if err != nil {
		t.Fatal(err)
	}
	defer c2.Close()
	i2, err := vm.New(img, vm.IO(stopHost{c2}))
	if err != nil {
		t.Fatal(err)
	}
	if err = i2.Resume(&snap); err != nil {
		t.Fatalf("%+v", err)
	}
	if err = c2.UnmarshalState(state, i2); err != nil {
		t.Fatalf("%+v", err)
	}
	if err = i2.Run(); err != nil {
		t.Fatalf("%+v", err)
	}
	if got := out2.String(); got != "north" {
		t.Errorf("expected %q, got %q", "north", got)
	}
	if err = c2.UnmarshalState([]byte("garbage"), i2); err == nil {
		t.Error("expected an error for invalid state data")
	}
}
