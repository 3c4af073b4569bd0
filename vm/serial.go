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
	"encoding/binary"
	"io"

	"github.com/db47h/glulx/internal/iff"
	"github.com/pkg/errors"
)

// Save file chunk identifiers.
var (
	idIFZS = iff.MakeID("IFZS")
	idIFhd = iff.MakeID("IFhd")
	idCMem = iff.MakeID("CMem")
	idMAll = iff.MakeID("MAll")
	idStks = iff.MakeID("Stks")
	idAcPa = iff.MakeID("AcPa")
)

const ifhdSize = 128

// savedState is a decoded, not yet applied, VM state.
type savedState struct {
	mem    []byte   // memory state: ENDMEM followed by the RAM delta
	heap   []uint32 // heap summary, nil if the heap was inactive
	stack  []byte   // stack contents up to the stack pointer
	params []uint32 // acceleration parameters, may be nil
}

// memoryState encodes RAM as a run length encoded XOR delta against the
// original game file. A zero byte followed by n stands for n+1 unchanged
// bytes. Trailing unchanged bytes are omitted.
func (i *Instance) memoryState() []byte {
	out := make([]byte, 4, 4+(i.endmem-i.hdr.RAMStart)/8)
	binary.BigEndian.PutUint32(out, i.endmem)
	var run uint32
	for pos := i.hdr.RAMStart; pos < i.endmem; pos++ {
		ch := i.mem[pos]
		if pos < i.hdr.ExtStart {
			ch ^= i.image[pos]
		}
		if ch == 0 {
			run++
			continue
		}
		for run > 0 {
			n := min(run, 0x100)
			out = append(out, 0, byte(n-1))
			run -= n
		}
		out = append(out, ch)
	}
	return out
}

// checkMemoryState validates a memory state and returns the memory size it
// describes.
func (i *Instance) checkMemoryState(data []byte) (uint32, error) {
	if len(data) < 4 {
		return 0, errors.New("memory chunk too short")
	}
	n := binary.BigEndian.Uint32(data)
	switch {
	case n < i.hdr.EndMem:
		return 0, errors.Errorf("saved memory size %#x smaller than game file ENDMEM %#x", n, i.hdr.EndMem)
	case n&0xFF != 0:
		return 0, errors.Errorf("saved memory size %#x not a multiple of 256", n)
	case n > i.maxMem:
		return 0, errors.Errorf("saved memory size %#x exceeds limit %#x", n, i.maxMem)
	}
	return n, nil
}

// applyMemoryState resizes memory and decodes the RAM delta, leaving the
// protected range untouched. The heap must be inactive.
func (i *Instance) applyMemoryState(data []byte) {
	if err := i.changeMemSize(binary.BigEndian.Uint32(data), false); err != nil {
		fatalf("restore: %v", err)
	}
	data = data[4:]
	var run uint32
	for pos := i.hdr.RAMStart; pos < i.endmem; pos++ {
		var ch byte
		switch {
		case run > 0:
			run--
		case len(data) > 0:
			ch = data[0]
			data = data[1:]
			if ch == 0 && len(data) > 0 {
				run = uint32(data[0])
				data = data[1:]
			}
		}
		if pos < i.hdr.ExtStart {
			ch ^= i.image[pos]
		}
		if !i.protected(pos) {
			i.mem[pos] = ch
		}
	}
}

// walkFrames walks the call frames of stack, newest first. The stack must
// end with a call stub, as it does when a state is saved.
func walkFrames(stack []byte, fn func(frm, end uint32) error) error {
	end := uint32(len(stack))
	for end != 0 {
		if end < 16 {
			return errors.Errorf("truncated call stub at %#x", end)
		}
		frm := binary.BigEndian.Uint32(stack[end-4:])
		if frm >= end {
			return errors.Errorf("frame pointer %#x out of range", frm)
		}
		if err := fn(frm, end); err != nil {
			return err
		}
		end = frm
	}
	return nil
}

// convertFrame copies the frame [frm, end) from src to dst, converting each
// field according to the frame layout. Both buffers are big-endian.
func convertFrame(dst, src []byte, frm, end uint32) error {
	if end-frm < 8 {
		return errors.Errorf("frame at %#x too short", frm)
	}
	flen := binary.BigEndian.Uint32(src[frm:])
	lpos := binary.BigEndian.Uint32(src[frm+4:])
	if lpos < 8 || lpos&3 != 0 || lpos > flen || flen&3 != 0 || flen > end-frm {
		return errors.Errorf("invalid frame header at %#x", frm)
	}
	binary.BigEndian.PutUint32(dst[frm:], flen)
	binary.BigEndian.PutUint32(dst[frm+4:], lpos)
	copy(dst[frm+8:frm+lpos], src[frm+8:frm+lpos])

	locals, limit := frm+lpos, frm+flen
	copy(dst[locals:limit], src[locals:limit])
	p := locals
	for f := frm + 8; f+1 < frm+lpos; f += 2 {
		typ, count := uint32(src[f]), uint32(src[f+1])
		if typ == 0 {
			break
		}
		switch typ {
		case 4:
			p = (p + 3) &^ 3
		case 2:
			p = (p + 1) &^ 1
		case 1:
		default:
			return errors.Errorf("invalid local type %d in frame at %#x", typ, frm)
		}
		if p+typ*count > limit {
			return errors.Errorf("locals overflow frame at %#x", frm)
		}
		for ; count > 0; count-- {
			switch typ {
			case 4:
				binary.BigEndian.PutUint32(dst[p:], binary.BigEndian.Uint32(src[p:]))
			case 2:
				binary.BigEndian.PutUint16(dst[p:], binary.BigEndian.Uint16(src[p:]))
			default:
				dst[p] = src[p]
			}
			p += typ
		}
	}
	if (end-limit)&3 != 0 {
		return errors.Errorf("misaligned value stack in frame at %#x", frm)
	}
	for p := limit; p < end; p += 4 {
		binary.BigEndian.PutUint32(dst[p:], binary.BigEndian.Uint32(src[p:]))
	}
	return nil
}

// convertStack converts a whole stack, frame by frame.
func convertStack(src []byte) ([]byte, error) {
	if len(src)&3 != 0 {
		return nil, errors.New("stack size not a multiple of 4")
	}
	dst := make([]byte, len(src))
	err := walkFrames(src, func(frm, end uint32) error {
		return convertFrame(dst, src, frm, end)
	})
	if err != nil {
		return nil, err
	}
	return dst, nil
}

// portableStack returns the portable serialization of the stack.
func (i *Instance) portableStack() []byte {
	s, err := convertStack(i.stack[:i.sp])
	if err != nil {
		fatalf("corrupt stack: %v", err)
	}
	return s
}

func words(v []uint32) []byte {
	b := make([]byte, 4*len(v))
	for k, w := range v {
		binary.BigEndian.PutUint32(b[4*k:], w)
	}
	return b
}

func unwords(b []byte) ([]uint32, error) {
	if len(b)&3 != 0 {
		return nil, errors.New("chunk length not a multiple of 4")
	}
	v := make([]uint32, len(b)/4)
	for k := range v {
		v[k] = binary.BigEndian.Uint32(b[4*k:])
	}
	return v, nil
}

// check validates every part of s before anything is applied.
func (i *Instance) check(s *savedState) error {
	endmem, err := i.checkMemoryState(s.mem)
	if err != nil {
		return err
	}
	if err = checkHeapSummary(s.heap, endmem); err != nil {
		return err
	}
	if len(s.stack) > len(i.stack) {
		return errors.Errorf("saved stack size %d exceeds stack size %d", len(s.stack), len(i.stack))
	}
	if len(s.stack) < 16 || len(s.stack)&3 != 0 {
		return errors.Errorf("invalid saved stack size %d", len(s.stack))
	}
	if len(s.params) > AccelParamCount {
		return errors.New("too many acceleration parameters")
	}
	return nil
}

// apply replaces the VM state with s. s must have been checked.
func (i *Instance) apply(s *savedState) {
	i.heap.clear()
	i.applyMemoryState(s.mem)
	if err := i.heapApplySummary(s.heap); err != nil {
		fatalf("restore: %v", err)
	}
	copy(i.stack, s.stack)
	i.sp = uint32(len(s.stack))
	for k, v := range s.params {
		i.accel.setParam(uint32(k), v)
	}
}

// writeSave writes the state in a FORM IFZS container. The stack must end
// with the call stub to resume.
func (i *Instance) writeSave(w io.Writer) error {
	fw := iff.NewWriter(w, idIFZS)
	fw.WriteChunk(idIFhd, i.image[:ifhdSize])
	fw.WriteChunk(idCMem, i.memoryState())
	if s := i.heapSummary(); s != nil {
		fw.WriteChunk(idMAll, words(s))
	}
	fw.WriteChunk(idStks, i.portableStack())
	fw.WriteChunk(idAcPa, words(i.accel.params[:]))
	return fw.Close()
}

// readSave decodes and validates a FORM IFZS container.
func (i *Instance) readSave(r io.Reader) (*savedState, error) {
	fr, err := iff.NewReader(r, idIFZS)
	if err != nil {
		return nil, err
	}
	var s savedState
	var hdr bool
	for {
		c, err := fr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch c.ID {
		case idIFhd:
			if len(c.Data) != ifhdSize || string(c.Data) != string(i.image[:ifhdSize]) {
				return nil, errors.New("saved game does not match the running game file")
			}
			hdr = true
		case idCMem:
			s.mem = c.Data
		case idMAll:
			if s.heap, err = unwords(c.Data); err != nil {
				return nil, errors.Wrap(err, "heap chunk")
			}
		case idStks:
			if s.stack, err = convertStack(c.Data); err != nil {
				return nil, errors.Wrap(err, "stack chunk")
			}
		case idAcPa:
			if s.params, err = unwords(c.Data); err != nil {
				return nil, errors.Wrap(err, "acceleration chunk")
			}
		default:
			i.log.Debugf("restore: skipping chunk %s", c.ID)
		}
	}
	switch {
	case !hdr:
		return nil, errors.New("missing IFhd chunk")
	case s.mem == nil:
		return nil, errors.New("missing CMem chunk")
	case s.stack == nil:
		return nil, errors.New("missing Stks chunk")
	}
	if err = i.check(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

// restoreState reads a saved state from r and applies it. On error, the VM
// state is unchanged.
func (i *Instance) restoreState(r io.Reader) error {
	s, err := i.readSave(r)
	if err != nil {
		return err
	}
	i.apply(s)
	i.log.Infof("restored state: ENDMEM %#x, stack %d bytes", i.endmem, i.sp)
	return nil
}

// stream returns the host stream with the given id, or nil.
func (i *Instance) stream(id uint32) io.ReadWriter {
	sh, ok := i.host.(StreamHost)
	if !ok {
		i.warnf("host does not support streams")
		return nil
	}
	return sh.Stream(id)
}

func (i *Instance) saveToStream(id uint32) uint32 {
	w := i.stream(id)
	if w == nil {
		return 1
	}
	if err := i.writeSave(w); err != nil {
		i.log.Errorf("save: %v", err)
		return 1
	}
	i.log.Debugf("saved state to stream %d", id)
	return 0
}

func (i *Instance) restoreFromStream(id uint32) error {
	r := i.stream(id)
	if r == nil {
		return errors.Errorf("invalid stream %d", id)
	}
	return i.restoreState(r)
}

// Save writes the VM state to w in the portable Quetzal format. It must not
// be called while Run is executing. Restoring the state resumes execution at
// the current PC.
func (i *Instance) Save(w io.Writer) (err error) {
	defer func() {
		if e := recover(); e != nil {
			err = i.recovered(e)
		}
	}()
	sp := i.sp
	defer func() { i.sp = sp }()
	i.pushCallStub(destDiscard, 0)
	return i.writeSave(w)
}

// Restore restores a state written by Save or by the save opcode. If it
// fails, the VM state is left unchanged.
func (i *Instance) Restore(r io.Reader) (err error) {
	defer func() {
		if e := recover(); e != nil {
			err = i.recovered(e)
		}
	}()
	if err = i.restoreState(r); err != nil {
		return err
	}
	i.done = false
	i.popCallStub(^uint32(0))
	return nil
}
