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
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/db47h/glulx/glk"
	"github.com/db47h/glulx/vm"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
)

var (
	debug      bool
	dump       bool
	disasm     int
	configFile string
	resumeFile string
)

func atExit(i *vm.Instance, err error) {
	if err == nil {
		return
	}
	if !debug {
		fmt.Fprintf(os.Stderr, "\n%v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "\n%+v\n", err)
	if i != nil {
		dumpVM(i, os.Stderr)
	}
	os.Exit(1)
}

// parseConfig parses the command line and merges the configuration file.
func parseConfig(args []string) (config, *flag.FlagSet, error) {
	cfg := defaultConfig()
	fs := flag.NewFlagSet("glulxe", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: glulxe [options] gamefile\n\n")
		fs.PrintDefaults()
	}
	cfg.bindFlags(fs)
	fs.StringVar(&configFile, "config", "", "read settings from TOML file `filename`")
	fs.StringVar(&resumeFile, "resume", "", "resume from snapshot `filename`")
	fs.BoolVar(&debug, "debug", false, "enable debug diagnostics")
	fs.BoolVar(&dump, "dump", false, "dump the VM state upon exit")
	fs.IntVar(&disasm, "disasm", 0, "disassemble `count` instructions of the start function and exit")
	if err := fs.Parse(args); err != nil {
		return cfg, fs, err
	}
	if configFile != "" {
		set := make(map[string]bool)
		fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
		if err := cfg.load(configFile, set); err != nil {
			return cfg, fs, err
		}
	}
	return cfg, fs, nil
}

func setupIO(cfg *config) (raw bool, tearDown func()) {
	if !cfg.Raw || !isatty.IsTerminal(os.Stdin.Fd()) {
		return false, nil
	}
	tearDown, err := setRawIO()
	if err != nil {
		commonlog.GetLogger("glulxe").Warningf("raw terminal mode: %v", err)
		return false, nil
	}
	return true, tearDown
}

func main() {
	var err error
	var i *vm.Instance

	stdout := bufio.NewWriter(os.Stdout)

	// flush output, catch and log errors
	defer func() {
		stdout.Flush()
		if dump && i != nil {
			if e := dumpVM(i, os.Stderr); err == nil {
				err = e
			}
		}
		atExit(i, err)
	}()

	cfg, fs, err := parseConfig(os.Args[1:])
	if err != nil {
		return
	}
	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(2)
	}
	gameFile := fs.Arg(0)

	var logFile *string
	if cfg.LogFile != "" {
		logFile = &cfg.LogFile
	}
	commonlog.Configure(cfg.Verbosity, logFile)
	log := commonlog.GetLogger("glulxe")

	img, err := vm.Load(gameFile)
	if err != nil {
		return
	}
	if disasm > 0 {
		err = disassemble(img, disasm, stdout)
		return
	}
	if cfg.Snapshot == "" {
		cfg.Snapshot = strings.TrimSuffix(gameFile, ".ulx") + ".snap"
	}

	// try to switch the input terminal to raw mode.
	rawtty, ioTearDownFn := setupIO(&cfg)
	if ioTearDownFn != nil {
		defer ioTearDownFn()
	}

	var in io.Reader = os.Stdin
	if !rawtty {
		// buffer stdin if not in raw mode
		in = bufio.NewReader(os.Stdin)
	}
	gopts := []glk.Option{
		glk.Dir(cfg.Dir),
		glk.Echo(rawtty),
		glk.Latin1(cfg.Latin1),
		glk.Size(consoleSize(os.Stdout)),
	}
	console, err := glk.New(in, stdout, gopts...)
	if err != nil {
		return
	}

	opts := []vm.Option{
		vm.IO(console),
		vm.UndoDepth(cfg.Undo),
		vm.MaxMemory(uint32(min(cfg.MaxMemory, 0xFFFFFFFF))),
	}
	if cfg.Seed != 0 {
		opts = append(opts, vm.RandomSeed(cfg.Seed))
	}
	i, err = vm.New(img, opts...)
	if err != nil {
		return
	}
	if resumeFile != "" {
		if err = readSnapshot(resumeFile, i, console); err != nil {
			return
		}
		log.Infof("resumed from %s", resumeFile)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	defer signal.Stop(sig)
	go func() {
		for range sig {
			i.Interrupt()
			console.Interrupt()
		}
	}()

	err = i.Run()
	if errors.Cause(err) == vm.ErrInterrupted {
		if err = writeSnapshot(cfg.Snapshot, gameFile, i, console); err != nil {
			return
		}
		stdout.Flush()
		fmt.Fprintf(os.Stderr, "\nInterrupted. Resume with -resume %s\n", cfg.Snapshot)
		return
	}
	if e := console.Close(); err == nil {
		err = e
	}
}
