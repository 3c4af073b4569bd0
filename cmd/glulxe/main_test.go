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
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/db47h/glulx/asm"
	"github.com/db47h/glulx/glk"
	"github.com/db47h/glulx/vm"
)

const hello = `:main .func locals 4
	setiosys 2 0
	copy 0 sp copy 3 sp copy 0 sp copy 0 sp copy 0 sp glk 0x23 5 $0
	copy $0 sp glk 0x2F 1 _
	streamstr msg
	return 0
:msg	.string "ok"
`

func newVM(t *testing.T, img []byte) (*vm.Instance, *glk.Console, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	c, err := glk.New(strings.NewReader(""), &out)
	if err != nil {
		t.Fatal(err)
	}
	i, err := vm.New(img, vm.IO(c))
	if err != nil {
		t.Fatal(err)
	}
	return i, c, &out
}

func TestSnapshotFile(t *testing.T) {
	img, err := asm.Assemble("hello", strings.NewReader(hello))
	if err != nil {
		t.Fatal(err)
	}
	i, c, _ := newVM(t, img)
	i.Interrupt()
	if err = i.Run(); err != vm.ErrInterrupted {
		t.Fatalf("expected ErrInterrupted, got %v", err)
	}
	name := filepath.Join(t.TempDir(), "hello.snap")
	if err = writeSnapshot(name, "/games/hello.ulx", i, c); err != nil {
		t.Fatalf("%+v", err)
	}
	if _, err = os.Stat(name + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temporary file left behind: %v", err)
	}

	i2, c2, out := newVM(t, img)
	if err = readSnapshot(name, i2, c2); err != nil {
		t.Fatalf("%+v", err)
	}
	if err = i2.Run(); err != nil {
		t.Fatalf("%+v", err)
	}
	if out.String() != "ok" {
		t.Errorf("expected %q, got %q", "ok", out.String())
	}

	bad := filepath.Join(t.TempDir(), "bad.snap")
	os.WriteFile(bad, []byte("not a snapshot"), 0644)
	if err = readSnapshot(bad, i2, c2); err == nil {
		t.Error("expected an error for an invalid snapshot file")
	}
}

func TestDump(t *testing.T) {
	img, err := asm.Assemble("hello", strings.NewReader(hello))
	if err != nil {
		t.Fatal(err)
	}
	var b bytes.Buffer
	if err = disassemble(img, 2, &b); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(b.String()), "\n")
	if len(lines) != 3 || !strings.HasPrefix(lines[0], "version 3.1.") || !strings.HasSuffix(lines[1], "setiosys 2 0") {
		t.Errorf("unexpected disassembly:\n%s", b.String())
	}

	i, _, _ := newVM(t, img)
	b.Reset()
	if err = dumpVM(i, &b); err != nil {
		t.Fatal(err)
	}
	if s := b.String(); !strings.Contains(s, "stack-count=0") || !strings.Contains(s, "setiosys 2 0") {
		t.Errorf("unexpected dump:\n%s", s)
	}
}
