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

package vm

import (
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/tliron/commonlog"
)

const (
	defaultUndoDepth = 8
	defaultMaxMemory = 0x7FFFFF00
)

// Instance represents a Glulx VM instance.
type Instance struct {
	PC uint32 // Program Counter

	hdr    Header
	image  []byte // original game file, used by restart, verify and saves
	mem    []byte
	endmem uint32
	maxMem uint32

	stack        []byte
	sp           uint32 // stackptr
	fp           uint32 // frameptr
	localsBase   uint32
	valstackBase uint32

	protectStart uint32
	protectEnd   uint32

	heap  heap
	accel accel

	stringTable uint32
	tableCache  *cacheBlock
	iosys       ioSystem
	host        Host

	undo undoChain

	rng     *rand.Rand
	pcg     *rand.PCG
	seeded  bool
	seed    uint64
	started bool
	done    bool
	halt    atomic.Bool

	insCount int64
	args     []uint32 // scratch argument buffer
	chArg    [1]uint32
	log      commonlog.Logger
}

// Option interface
type Option func(*Instance) error

// IO sets the host used for character output and glk dispatch. The default
// host discards all output and fails every dispatch.
func IO(h Host) Option {
	return func(i *Instance) error {
		if h == nil {
			return errors.New("IO: nil host")
		}
		i.host = h
		return nil
	}
}

// UndoDepth sets the maximum number of undo states kept by saveundo. The
// default is 8. A depth of zero disables undo. The depth cannot be changed
// once the VM is running.
func UndoDepth(n int) Option {
	return func(i *Instance) error {
		if n < 0 {
			return errors.Errorf("UndoDepth: invalid depth %d", n)
		}
		if i.started {
			return errors.New("UndoDepth: VM already running")
		}
		i.undo.depth = n
		return nil
	}
}

// RandomSeed seeds the random number generator deterministically. Without
// this option, the generator is seeded from the current time.
func RandomSeed(seed uint64) Option {
	return func(i *Instance) error {
		i.seedRandom(seed)
		return nil
	}
}

// MaxMemory sets the upper bound for memory resizing by setmemsize and the
// heap allocator. It is rounded down to a multiple of 256.
func MaxMemory(n uint32) Option {
	return func(i *Instance) error {
		i.maxMem = n &^ 0xFF
		return nil
	}
}

// Logger sets the logger used for warnings and diagnostics.
func Logger(l commonlog.Logger) Option {
	return func(i *Instance) error {
		if l == nil {
			return errors.New("Logger: nil logger")
		}
		i.log = l
		return nil
	}
}

// SetOptions sets the provided options.
func (i *Instance) SetOptions(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(i); err != nil {
			return err
		}
	}
	return nil
}

// New creates a new Glulx Virtual Machine instance.
//
// The image parameter is the content of a game file, usually loaded with the
// Load function. The header is verified (see Header.Verify) and the memory map
// is built from it. The image slice is retained and must not be modified
// afterwards: it is used as the reference for restart, verify and the delta
// encoding of saved states.
//
// Upon return, the start function has been entered and the VM is ready to
// Run.
func New(image []byte, opts ...Option) (*Instance, error) {
	hdr, err := ParseHeader(image)
	if err != nil {
		return nil, err
	}
	if err = hdr.Verify(image); err != nil {
		return nil, err
	}
	i := &Instance{
		hdr:    hdr,
		image:  image,
		maxMem: defaultMaxMemory,
		host:   nullHost{},
		log:    commonlog.GetLogger("glulx.vm"),
		undo:   undoChain{depth: defaultUndoDepth},
	}
	if err = i.SetOptions(opts...); err != nil {
		return nil, err
	}
	if !i.seeded {
		i.seedRandom(0)
	}
	if hdr.EndMem > i.maxMem {
		return nil, errors.Errorf("ENDMEM %#x exceeds memory limit %#x", hdr.EndMem, i.maxMem)
	}
	i.mem = make([]byte, hdr.EndMem)
	i.endmem = hdr.EndMem
	i.stack = make([]byte, hdr.StackSize)
	i.started = true
	if err = i.Restart(); err != nil {
		return nil, err
	}
	return i, nil
}

// Restart resets the VM to its initial state and enters the start function.
// The protected memory range, if any, is preserved.
func (i *Instance) Restart() (err error) {
	defer func() {
		if e := recover(); e != nil {
			err = i.recovered(e)
		}
	}()
	i.restart()
	return nil
}

func (i *Instance) restart() {
	i.heap.clear()
	if err := i.changeMemSize(i.hdr.EndMem, false); err != nil {
		fatalf("memory could not be reset to its original size: %v", err)
	}
	ext := i.hdr.ExtStart
	for a := uint32(0); a < ext; a++ {
		if a >= i.protectStart && a < i.protectEnd {
			continue
		}
		i.mem[a] = i.image[a]
	}
	for a := ext; a < i.endmem; a++ {
		if a >= i.protectStart && a < i.protectEnd {
			continue
		}
		i.mem[a] = 0
	}
	i.sp, i.fp, i.PC = 0, 0, 0
	i.localsBase, i.valstackBase = 0, 0
	i.done = false
	i.setIOSys(IOSysNull, 0)
	i.setStringTable(i.hdr.DecodingTable)
	i.log.Debugf("restart: entering start function %#x", i.hdr.StartFunc)
	i.enterFunction(i.hdr.StartFunc, nil)
}

func (i *Instance) seedRandom(seed uint64) {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	} else {
		i.seeded = true
	}
	i.seed = seed
	i.pcg = rand.NewPCG(seed, seed^0x9E3779B97F4A7C15)
	i.rng = rand.New(i.pcg)
}

// Header returns the game file header.
func (i *Instance) Header() Header {
	return i.hdr
}

// Done returns true if the program has quit or returned from its start
// function.
func (i *Instance) Done() bool {
	return i.done
}

// InstructionCount returns the number of instructions executed so far.
func (i *Instance) InstructionCount() int64 {
	return i.insCount
}

// Interrupt requests the Run loop to stop at the next instruction boundary.
// It is safe to call from another goroutine. Run will then return
// ErrInterrupted and may be called again to resume execution.
func (i *Instance) Interrupt() {
	i.halt.Store(true)
}

// Registers holds a copy of the VM registers.
type Registers struct {
	PC           uint32
	StackPtr     uint32
	FramePtr     uint32
	LocalsBase   uint32
	ValStackBase uint32
}

// Registers returns a copy of the current register values.
func (i *Instance) Registers() Registers {
	return Registers{
		PC:           i.PC,
		StackPtr:     i.sp,
		FramePtr:     i.fp,
		LocalsBase:   i.localsBase,
		ValStackBase: i.valstackBase,
	}
}
