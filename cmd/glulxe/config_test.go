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
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestConfig(t *testing.T) {
	name := writeFile(t, "glulxe.toml", `
undo = 16
max_memory = 0x100000
raw = false
verbosity = 3
seed = 42
dir = "saves"
`)
	cfg, fs, err := parseConfig([]string{"-config", name, "-undo", "2", "-v", "0", "game.ulx"})
	if err != nil {
		t.Fatal(err)
	}
	if fs.NArg() != 1 || fs.Arg(0) != "game.ulx" {
		t.Errorf("unexpected arguments %v", fs.Args())
	}
	want := defaultConfig()
	want.Undo = 2
	want.MaxMemory = 0x100000
	want.Raw = false
	want.Verbosity = 0
	want.Seed = 42
	want.Dir = "saves"
	if cfg != want {
		t.Errorf("expected %+v, got %+v", want, cfg)
	}
}

func TestConfigErrors(t *testing.T) {
	for _, content := range []string{
		`undo = "many"`,
		`colour = "red"`,
		`undo = `,
	} {
		name := writeFile(t, "bad.toml", content)
		if _, _, err := parseConfig([]string{"-config", name, "game.ulx"}); err == nil {
			t.Errorf("%q: expected an error", content)
		}
	}
	if _, _, err := parseConfig([]string{"-config", filepath.Join(t.TempDir(), "none.toml")}); err == nil {
		t.Error("expected an error for a missing config file")
	}
}

func TestNoRaw(t *testing.T) {
	cfg, _, err := parseConfig([]string{"-noraw", "game.ulx"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Raw {
		t.Error("-noraw did not disable raw mode")
	}
	name := writeFile(t, "raw.toml", "raw = false\n")
	cfg, _, err = parseConfig([]string{"-config", name, "-noraw=false", "game.ulx"})
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Raw {
		t.Error("-noraw=false did not override the config file")
	}
}
