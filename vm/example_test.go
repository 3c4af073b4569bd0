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
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/db47h/glulx/asm"
	"github.com/db47h/glulx/vm"
)

// stdoutHost prints to os.Stdout and implements a single glk function.
type stdoutHost struct{}

func (stdoutHost) PutChar(ch byte)      { fmt.Fprintf(os.Stdout, "%c", rune(ch)) }
func (stdoutHost) PutCharUni(ch uint32) { fmt.Fprintf(os.Stdout, "%c", rune(ch)) }

func (stdoutHost) Dispatch(i *vm.Instance, id uint32, args []uint32) (uint32, error) {
	switch id {
	case 0x01: // glk_exit
		return 0, vm.ErrExit
	case 0xA0: // glk_char_to_lower
		ch := args[0]
		if ch >= 'A' && ch <= 'Z' {
			ch += 'a' - 'A'
		}
		return ch, nil
	}
	return 0, fmt.Errorf("unsupported glk function %#x", id)
}

// Shows how to assemble a program and run it with a custom Host.
func ExampleInstance_Run() {
	img, err := asm.Assemble("hello", strings.NewReader(`
		:main .func locals 1
			setiosys 2 0
			streamstr hello
			callfi fact 5 $0
			streamnum $0
			copy 'G' sp glk 0xA0 1 sp streamchar sp
			streamchar 10
			glk 0x01 0 _
			streamstr hello
		:fact .func locals 1
			jgt $0 1 >1+ return 1
		:1	sub $0 1 sp
			callfi fact sp sp mul sp $0 sp
			return sp
		:hello .string "Hello, World! 5! = "`))
	if err != nil {
		panic(err)
	}
	i, err := vm.New(img, vm.IO(stdoutHost{}))
	if err != nil {
		panic(err)
	}
	if err = i.Run(); err != nil {
		panic(err)
	}
	// Output:
	// Hello, World! 5! = 120g
}

// breakHost interrupts the VM on glk call 0x100.
type breakHost struct{ stdoutHost }

func (h breakHost) Dispatch(i *vm.Instance, id uint32, args []uint32) (uint32, error) {
	if id == 0x100 {
		i.Interrupt()
		return 0, nil
	}
	return h.stdoutHost.Dispatch(i, id, args)
}

// runAll runs i to completion, ignoring interrupts.
func runAll(i *vm.Instance) {
	for err := i.Run(); err != nil; err = i.Run() {
		if err != vm.ErrInterrupted {
			panic(err)
		}
	}
}

// Shows how to capture the whole state of a running program and resume it
// later, possibly in another process.
func ExampleInstance_Snapshot() {
	img, err := asm.Assemble("count", strings.NewReader(`
		:main .func locals 1
			setiosys 2 0
		:1	streamnum $0 streamchar ','
			add $0 1 $0
			glk 0x100 0 _
			jlt $0 3 >1-
			streamchar 10
			return 0`))
	if err != nil {
		panic(err)
	}
	i, err := vm.New(img, vm.IO(breakHost{}))
	if err != nil {
		panic(err)
	}
	// run until the first interrupt and take a snapshot
	if err = i.Run(); err != vm.ErrInterrupted {
		panic(err)
	}
	var snap bytes.Buffer
	if err = i.Snapshot(&snap); err != nil {
		panic(err)
	}
	runAll(i)

	// resume from the snapshot in a new instance
	j, err := vm.New(img, vm.IO(breakHost{}))
	if err != nil {
		panic(err)
	}
	if err = j.Resume(&snap); err != nil {
		panic(err)
	}
	runAll(j)
	// Output:
	// 0,1,2,
	// 1,2,
}

func ExampleEncodeFloat() {
	fmt.Printf("%#08x %v\n", vm.EncodeFloat(1.5), vm.DecodeFloat(0x40490FDB))
	// Output:
	// 0x3fc00000 3.1415927
}
