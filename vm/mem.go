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

	"github.com/pkg/errors"
)

// MemSize returns the current size of main memory (ENDMEM).
func (i *Instance) MemSize() uint32 {
	return i.endmem
}

// RAMStart returns the address of the first writable byte of main memory.
func (i *Instance) RAMStart() uint32 {
	return i.hdr.RAMStart
}

func (i *Instance) checkRead(addr, n uint32) {
	if addr >= i.endmem || i.endmem-addr < n {
		fatalf("memory access out of range: %#x (%d bytes)", addr, n)
	}
}

func (i *Instance) checkWrite(addr, n uint32) {
	i.checkRead(addr, n)
	if addr < i.hdr.RAMStart {
		fatalf("memory write to read-only address %#x", addr)
	}
}

// Mem1 returns the byte at address addr.
func (i *Instance) Mem1(addr uint32) uint32 {
	i.checkRead(addr, 1)
	return uint32(i.mem[addr])
}

// Mem2 returns the big-endian 16 bits value at address addr.
func (i *Instance) Mem2(addr uint32) uint32 {
	i.checkRead(addr, 2)
	return uint32(binary.BigEndian.Uint16(i.mem[addr:]))
}

// Mem4 returns the big-endian 32 bits value at address addr.
func (i *Instance) Mem4(addr uint32) uint32 {
	i.checkRead(addr, 4)
	return binary.BigEndian.Uint32(i.mem[addr:])
}

// MemW1 stores the low byte of v at address addr.
func (i *Instance) MemW1(addr, v uint32) {
	i.checkWrite(addr, 1)
	i.mem[addr] = byte(v)
}

// MemW2 stores the low 16 bits of v at address addr.
func (i *Instance) MemW2(addr, v uint32) {
	i.checkWrite(addr, 2)
	binary.BigEndian.PutUint16(i.mem[addr:], uint16(v))
}

// MemW4 stores v at address addr.
func (i *Instance) MemW4(addr, v uint32) {
	i.checkWrite(addr, 4)
	binary.BigEndian.PutUint32(i.mem[addr:], v)
}

// Clamp returns the number of bytes that can be accessed from addr, up to n.
// A warning is logged when the range has to be reduced.
func (i *Instance) Clamp(addr, n uint32) uint32 {
	if addr >= i.endmem {
		if n > 0 {
			i.warnf("memory range %#x+%d starts beyond ENDMEM %#x", addr, n, i.endmem)
		}
		return 0
	}
	if max := i.endmem - addr; n > max {
		i.warnf("memory range %#x+%d clamped to %d bytes", addr, n, max)
		return max
	}
	return n
}

// Bytes returns the memory slice [addr, addr+n), clamped to ENDMEM. The slice
// aliases VM memory and is only valid until the next memory resize.
func (i *Instance) Bytes(addr, n uint32) []byte {
	n = i.Clamp(addr, n)
	if n == 0 {
		return nil
	}
	return i.mem[addr : addr+n]
}

// CString returns the zero terminated string at addr. It does not include the
// trailing zero.
func (i *Instance) CString(addr uint32) []byte {
	if addr >= i.endmem {
		fatalf("memory access out of range: %#x", addr)
	}
	end := addr
	for end < i.endmem && i.mem[end] != 0 {
		end++
	}
	return i.mem[addr:end]
}

// changeMemSize resizes main memory to newLen bytes. internal is true when
// called by the heap allocator.
func (i *Instance) changeMemSize(newLen uint32, internal bool) error {
	if newLen == i.endmem {
		return nil
	}
	if !internal && i.heap.active() {
		fatalf("cannot resize Glulx memory space while heap is active")
	}
	if newLen < i.hdr.EndMem {
		fatalf("cannot resize Glulx memory space smaller than it started")
	}
	if newLen&0xFF != 0 {
		fatalf("can only resize Glulx memory space to a 256-byte boundary")
	}
	if newLen > i.maxMem {
		return errors.Errorf("memory size %#x exceeds limit %#x", newLen, i.maxMem)
	}
	if int(newLen) <= cap(i.mem) {
		old := len(i.mem)
		i.mem = i.mem[:newLen]
		for p := old; p < int(newLen); p++ {
			i.mem[p] = 0
		}
	} else {
		m := make([]byte, newLen)
		copy(m, i.mem)
		i.mem = m
	}
	i.endmem = newLen
	return nil
}

// Protect sets the range of memory that is preserved by restart, restore and
// restoreundo. A zero length clears the protection.
func (i *Instance) Protect(start, length uint32) {
	if length == 0 {
		i.protectStart, i.protectEnd = 0, 0
		return
	}
	i.protectStart, i.protectEnd = start, start+length
	if i.protectEnd < start {
		i.protectEnd = ^uint32(0)
	}
}

func (i *Instance) protected(addr uint32) bool {
	return addr >= i.protectStart && addr < i.protectEnd
}

// mzero and mcopy clamp their ranges to writable memory.
func (i *Instance) mzero(count, addr uint32) {
	if count == 0 {
		return
	}
	i.checkWrite(addr, 1)
	count = i.Clamp(addr, count)
	for p := addr; p < addr+count; p++ {
		i.mem[p] = 0
	}
}

func (i *Instance) mcopy(count, src, dst uint32) {
	if count == 0 {
		return
	}
	i.checkRead(src, 1)
	i.checkWrite(dst, 1)
	count = i.Clamp(src, count)
	count = i.Clamp(dst, count)
	copy(i.mem[dst:dst+count], i.mem[src:src+count])
}
