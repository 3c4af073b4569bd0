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
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
)

const snapshotVersion = 1

var snapEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("vm: failed to create CBOR enc mode: %v", err))
	}
	snapEncMode = em
}

// snapshot is the complete state of a VM between two instructions.
type snapshot struct {
	Version      int               `cbor:"1,keyasint"`
	Checksum     uint32            `cbor:"2,keyasint"` // game file checksum
	Memory       []byte            `cbor:"3,keyasint"`
	Heap         []uint32          `cbor:"4,keyasint,omitempty"`
	Stack        []byte            `cbor:"5,keyasint"`
	IOMode       uint32            `cbor:"6,keyasint"`
	IORock       uint32            `cbor:"7,keyasint"`
	StringTable  uint32            `cbor:"8,keyasint"`
	ProtectStart uint32            `cbor:"9,keyasint"`
	ProtectEnd   uint32            `cbor:"10,keyasint"`
	Params       []uint32          `cbor:"11,keyasint"`
	Accel        map[uint32]uint32 `cbor:"12,keyasint,omitempty"`
	Rand         []byte            `cbor:"13,keyasint"`
	Undo         [][]byte          `cbor:"14,keyasint,omitempty"`
}

// Snapshot writes the complete VM state to w. Unlike Save, a snapshot also
// records the IO system, decoding table, protected range, bound accelerated
// functions, random generator and undo chain, so that Resume continues the
// program exactly where it stopped. It must not be called while Run is
// executing.
func (i *Instance) Snapshot(w io.Writer) (err error) {
	defer func() {
		if e := recover(); e != nil {
			err = i.recovered(e)
		}
	}()
	if i.done {
		return errors.New("snapshot: program has ended")
	}
	sp := i.sp
	defer func() { i.sp = sp }()
	i.pushCallStub(destDiscard, 0)

	s := snapshot{
		Version:      snapshotVersion,
		Checksum:     i.hdr.Checksum,
		Memory:       i.memoryState(),
		Heap:         i.heapSummary(),
		Stack:        i.portableStack(),
		IOMode:       i.iosys.mode,
		IORock:       i.iosys.rock,
		StringTable:  i.stringTable,
		ProtectStart: i.protectStart,
		ProtectEnd:   i.protectEnd,
		Params:       i.accel.params[:],
		Undo:         i.undo.states,
	}
	if len(i.accel.funcs) > 0 {
		s.Accel = make(map[uint32]uint32, len(i.accel.funcs))
		for a, f := range i.accel.funcs {
			s.Accel[a] = uint32(f)
		}
	}
	if s.Rand, err = i.pcg.MarshalBinary(); err != nil {
		return errors.Wrap(err, "snapshot")
	}
	b, err := snapEncMode.Marshal(&s)
	if err != nil {
		return errors.Wrap(err, "snapshot")
	}
	_, err = w.Write(b)
	return errors.Wrap(err, "snapshot")
}

// Resume restores a state written by Snapshot. The snapshot must have been
// taken from the same game file. If Resume fails, the VM state is left
// unchanged.
func (i *Instance) Resume(r io.Reader) (err error) {
	defer func() {
		if e := recover(); e != nil {
			err = i.recovered(e)
		}
	}()
	var s snapshot
	if err = cbor.NewDecoder(r).Decode(&s); err != nil {
		return errors.Wrap(err, "resume")
	}
	if s.Version != snapshotVersion {
		return errors.Errorf("resume: unsupported snapshot version %d", s.Version)
	}
	if s.Checksum != i.hdr.Checksum {
		return errors.New("resume: snapshot does not match the running game file")
	}
	st := savedState{mem: s.Memory, heap: s.Heap, params: s.Params}
	if st.stack, err = convertStack(s.Stack); err != nil {
		return errors.Wrap(err, "resume")
	}
	if err = i.check(&st); err != nil {
		return errors.Wrap(err, "resume")
	}
	for a, f := range s.Accel {
		if f == 0 || f >= uint32(accelCount) {
			return errors.Errorf("resume: invalid accelerated function %d at %#x", f, a)
		}
	}
	pcg := *i.pcg
	if err = pcg.UnmarshalBinary(s.Rand); err != nil {
		return errors.Wrap(err, "resume")
	}

	i.protectStart, i.protectEnd = 0, 0
	i.apply(&st)
	i.protectStart, i.protectEnd = s.ProtectStart, s.ProtectEnd
	*i.pcg = pcg
	i.setIOSys(s.IOMode, s.IORock)
	i.setStringTable(s.StringTable)
	i.accel.funcs = nil
	if len(s.Accel) > 0 {
		i.accel.funcs = make(map[uint32]accelFunc, len(s.Accel))
		for a, f := range s.Accel {
			i.accel.funcs[a] = accelFunc(f)
		}
	}
	i.undo.states = s.Undo
	if len(i.undo.states) > i.undo.depth {
		i.undo.states = i.undo.states[len(i.undo.states)-i.undo.depth:]
	}
	i.done = false
	i.popCallStub(0)
	return nil
}
