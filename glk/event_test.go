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

package glk

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"unicode"
)

func TestReadLineEcho(t *testing.T) {
	var out bytes.Buffer
	c, err := New(strings.NewReader("ab\x7fc\r\x04"), &out, Echo(true))
	if err != nil {
		t.Fatal(err)
	}
	var line []rune
	if err = c.readLine(&line); err != nil {
		t.Fatal(err)
	}
	if string(line) != "ac" {
		t.Errorf("expected line %q, got %q", "ac", string(line))
	}
	if got, want := out.String(), "ab\b \bc\n"; got != want {
		t.Errorf("expected echo %q, got %q", want, got)
	}
	line = line[:0]
	if err = c.readLine(&line); err != io.EOF {
		t.Errorf("expected io.EOF on ^D, got %v", err)
	}
}

func TestReadLineResume(t *testing.T) {
	c, err := New(strings.NewReader("def\n"), new(bytes.Buffer))
	if err != nil {
		t.Fatal(err)
	}
	line := []rune("abc")
	c.Interrupt()
	if err = c.readLine(&line); err != errInterrupted {
		t.Fatalf("expected errInterrupted, got %v", err)
	}
	if err = c.readLine(&line); err != nil {
		t.Fatal(err)
	}
	if string(line) != "abcdef" {
		t.Errorf("expected %q, got %q", "abcdef", string(line))
	}
	if err = c.readLine(&line); err != io.EOF {
		t.Errorf("expected io.EOF, got %v", err)
	}
}

func TestKeycode(t *testing.T) {
	for _, test := range []struct {
		r   rune
		uni bool
		ch  uint32
	}{
		{'a', false, 'a'},
		{'\n', false, keycodeReturn},
		{'\r', true, keycodeReturn},
		{0x7F, false, keycodeDelete},
		{8, true, keycodeDelete},
		{0x1B, false, keycodeEscape},
		{'\t', false, keycodeTab},
		{'€', false, keycodeUnknown},
		{'€', true, '€'},
		{'é', false, 'é'},
	} {
		if ch := keycode(test.r, test.uni); ch != test.ch {
			t.Errorf("keycode(%q, %v): expected %#x, got %#x", test.r, test.uni, test.ch, ch)
		}
	}
}

func TestFileName(t *testing.T) {
	c := &Console{dir: "saves"}
	for _, test := range []struct {
		name  string
		usage uint32
		want  string
	}{
		{"game", fileusageSavedGame, "saves/game.glksave"},
		{"script.log", fileusageTranscript | fileusageTextMode, "saves/script.txt"},
		{"a/b:c", fileusageData, "saves/a-b-c.glkdata"},
		{".hidden", fileusageInputRecord, "saves/null.txt"},
	} {
		if got := c.fileName(test.name, test.usage); got != test.want {
			t.Errorf("fileName(%q): expected %q, got %q", test.name, test.want, got)
		}
	}
}

func TestRegistry(t *testing.T) {
	var r registry[string]
	r.add(3, "a")
	r.add(5, "b")
	r.add(9, "c")
	if o, ok := r.next(0); !ok || o != "a" {
		t.Errorf("next(0): got %q, %v", o, ok)
	}
	r.remove(5)
	if o, ok := r.next(3); !ok || o != "c" {
		t.Errorf("next(3): got %q, %v", o, ok)
	}
	if _, ok := r.next(9); ok {
		t.Error("next(9): expected no object")
	}
	if _, ok := r.next(5); ok {
		t.Error("next(5): expected no object for a removed id")
	}
	if l := r.all(); len(l) != 2 || l[0] != "a" || l[1] != "c" {
		t.Errorf("all: got %v", l)
	}
}

func TestCharCase(t *testing.T) {
	if got := titleCase("ßtraSSE", true); got != "Sstrasse" {
		t.Errorf("titleCase: got %q", got)
	}
	if got := titleCase("élan VITAL", false); got != "Élan VITAL" {
		t.Errorf("titleCase: got %q", got)
	}
	if got := charCase(0xE9, unicode.ToUpper); got != 0xC9 {
		t.Errorf("charCase(é): got %#x", got)
	}
	if got := charCase(0xB5, unicode.ToUpper); got != 0xB5 {
		t.Errorf("charCase(µ): got %#x", got)
	}
}
