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
	"flag"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// config holds the settings that can be set from the command line or from a
// TOML configuration file. Command line flags take precedence.
type config struct {
	Undo      int    `toml:"undo"`
	MaxMemory uint   `toml:"max_memory"`
	Raw       bool   `toml:"raw"`
	Verbosity int    `toml:"verbosity"`
	LogFile   string `toml:"log_file"`
	Snapshot  string `toml:"snapshot"`
	Seed      uint64 `toml:"seed"`
	Dir       string `toml:"dir"`
	Latin1    bool   `toml:"latin1"`
}

func defaultConfig() config {
	return config{
		Undo:      8,
		MaxMemory: 0x7FFFFF00,
		Raw:       true,
		Verbosity: 1,
		Dir:       ".",
	}
}

// keys maps configuration file keys to their command line flag.
var keys = [...]struct {
	key, flag string
	copy      func(dst, src *config)
}{
	{"undo", "undo", func(d, s *config) { d.Undo = s.Undo }},
	{"max_memory", "maxmem", func(d, s *config) { d.MaxMemory = s.MaxMemory }},
	{"raw", "noraw", func(d, s *config) { d.Raw = s.Raw }},
	{"verbosity", "v", func(d, s *config) { d.Verbosity = s.Verbosity }},
	{"log_file", "log", func(d, s *config) { d.LogFile = s.LogFile }},
	{"snapshot", "snapshot", func(d, s *config) { d.Snapshot = s.Snapshot }},
	{"seed", "seed", func(d, s *config) { d.Seed = s.Seed }},
	{"dir", "dir", func(d, s *config) { d.Dir = s.Dir }},
	{"latin1", "latin1", func(d, s *config) { d.Latin1 = s.Latin1 }},
}

// noRaw is the inverse of config.Raw for the -noraw flag.
type noRaw struct{ c *config }

func (n noRaw) String() string {
	if n.c == nil {
		return "false"
	}
	return strconv.FormatBool(!n.c.Raw)
}

func (n noRaw) Set(s string) error {
	v, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	n.c.Raw = !v
	return nil
}

func (n noRaw) IsBoolFlag() bool { return true }

// bindFlags defines the command line flags for c on fs.
func (c *config) bindFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.Undo, "undo", c.Undo, "maximum number of undo states")
	fs.UintVar(&c.MaxMemory, "maxmem", c.MaxMemory, "maximum memory size in bytes")
	fs.Var(noRaw{c}, "noraw", "disable raw terminal IO")
	fs.IntVar(&c.Verbosity, "v", c.Verbosity, "log verbosity")
	fs.StringVar(&c.LogFile, "log", c.LogFile, "log to `filename` instead of stderr")
	fs.StringVar(&c.Snapshot, "snapshot", c.Snapshot, "write a snapshot to `filename` when interrupted")
	fs.Uint64Var(&c.Seed, "seed", c.Seed, "random number generator seed (0 seeds from the clock)")
	fs.StringVar(&c.Dir, "dir", c.Dir, "directory for save files and other data files")
	fs.BoolVar(&c.Latin1, "latin1", c.Latin1, "ISO-8859-1 console output")
}

// load reads the configuration file name and applies the values of the keys
// it defines, except for those whose flag is in set.
func (c *config) load(name string, set map[string]bool) error {
	var fc config
	md, err := toml.DecodeFile(name, &fc)
	if err != nil {
		return errors.Wrapf(err, "config file %s", name)
	}
	if u := md.Undecoded(); len(u) > 0 {
		return errors.Errorf("config file %s: unknown keys %v", name, u)
	}
	for _, k := range keys {
		if md.IsDefined(k.key) && !set[k.flag] {
			k.copy(c, &fc)
		}
	}
	return nil
}
