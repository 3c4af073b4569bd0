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
	"sort"

	"github.com/pkg/errors"
)

const heapChunk = 256

type heapBlock struct {
	addr uint32
	len  uint32
	free bool
}

// heap is the allocator behind malloc and mfree. Its blocks are kept in
// address order and cover [start, endmem) without gaps. The heap is inactive
// when start is zero.
type heap struct {
	start      uint32
	count      uint32 // allocated blocks
	blocks     []heapBlock
	extensions int // number of memory extensions, for diagnostics
}

func (h *heap) active() bool {
	return h.start != 0
}

func (h *heap) clear() {
	h.start, h.count, h.blocks = 0, 0, nil
}

// HeapStart returns the start address of the heap, or 0 if the heap is not
// active.
func (i *Instance) HeapStart() uint32 {
	return i.heap.start
}

// heapAlloc allocates n bytes and returns the block address, or 0 if memory
// could not be extended.
func (i *Instance) heapAlloc(n uint32) uint32 {
	if n == 0 {
		fatalf("heap allocation length must be positive")
	}
	h := &i.heap
	for {
		for ix := 0; ix < len(h.blocks); ix++ {
			b := &h.blocks[ix]
			if !b.free {
				continue
			}
			for ix+1 < len(h.blocks) && h.blocks[ix+1].free {
				b.len += h.blocks[ix+1].len
				h.blocks = append(h.blocks[:ix+1], h.blocks[ix+2:]...)
			}
			if b.len < n {
				continue
			}
			addr := b.addr
			b.free = false
			if b.len > n {
				rest := heapBlock{addr: addr + n, len: b.len - n, free: true}
				b.len = n
				h.blocks = append(h.blocks, heapBlock{})
				copy(h.blocks[ix+2:], h.blocks[ix+1:])
				h.blocks[ix+1] = rest
			}
			h.count++
			return addr
		}
		if !i.heapExtend(n) {
			return 0
		}
	}
}

// heapExtend grows memory by at least n bytes and appends the new space to
// the heap as a free block.
func (i *Instance) heapExtend(n uint32) bool {
	h := &i.heap
	var size uint32
	if h.active() {
		size = i.endmem - h.start
	}
	ext := max(2*uint64(size), uint64(n), heapChunk)
	ext = (ext + heapChunk - 1) &^ (heapChunk - 1)
	oldEnd := i.endmem
	if uint64(oldEnd)+ext > uint64(i.maxMem) {
		i.warnf("heap: cannot extend memory by %d bytes", ext)
		return false
	}
	if err := i.changeMemSize(oldEnd+uint32(ext), true); err != nil {
		i.warnf("heap: %v", err)
		return false
	}
	if !h.active() {
		h.start = oldEnd
	}
	if last := len(h.blocks) - 1; last >= 0 && h.blocks[last].free {
		h.blocks[last].len += uint32(ext)
	} else {
		h.blocks = append(h.blocks, heapBlock{addr: oldEnd, len: uint32(ext), free: true})
	}
	h.extensions++
	return true
}

// heapFree releases the block at addr. When the last block is freed, the heap
// is torn down and memory shrinks back to its size before the heap started.
func (i *Instance) heapFree(addr uint32) {
	h := &i.heap
	ix := sort.Search(len(h.blocks), func(n int) bool { return h.blocks[n].addr >= addr })
	if ix == len(h.blocks) || h.blocks[ix].addr != addr || h.blocks[ix].free {
		fatalf("attempt to free unallocated address %#x from heap", addr)
	}
	h.blocks[ix].free = true
	h.count--
	if h.count == 0 {
		i.heapTearDown()
	}
}

func (i *Instance) heapTearDown() {
	start := i.heap.start
	i.heap.clear()
	if start != 0 {
		if err := i.changeMemSize(start, true); err != nil {
			fatalf("heap: %v", err)
		}
	}
}

// heapSummary returns the heap start, the allocated block count and the
// address and length of each allocated block. It returns nil if the heap is
// inactive.
func (i *Instance) heapSummary() []uint32 {
	h := &i.heap
	if !h.active() {
		return nil
	}
	s := make([]uint32, 0, 2+2*h.count)
	s = append(s, h.start, h.count)
	for _, b := range h.blocks {
		if !b.free {
			s = append(s, b.addr, b.len)
		}
	}
	return s
}

// checkHeapSummary verifies that s describes a valid heap for a memory size
// of endmem.
func checkHeapSummary(s []uint32, endmem uint32) error {
	if len(s) == 0 {
		return nil
	}
	if len(s) < 2 {
		return errors.New("heap summary too short")
	}
	start, count := s[0], s[1]
	if uint64(len(s)) != 2+2*uint64(count) {
		return errors.Errorf("heap summary has %d words, expected %d", len(s), 2+2*uint64(count))
	}
	if start == 0 || start > endmem {
		return errors.Errorf("heap start %#x out of range", start)
	}
	addr := uint64(start)
	for k := uint32(0); k < count; k++ {
		a, l := uint64(s[2+2*k]), uint64(s[3+2*k])
		if a < addr || l == 0 {
			return errors.Errorf("heap block %#x+%d out of order", a, l)
		}
		addr = a + l
	}
	if addr > uint64(endmem) {
		return errors.Errorf("heap extends beyond ENDMEM %#x", endmem)
	}
	return nil
}

// heapApplySummary rebuilds the heap from a summary. Gaps between allocated
// blocks become free blocks. The heap must be inactive.
func (i *Instance) heapApplySummary(s []uint32) error {
	h := &i.heap
	if h.active() {
		fatalf("heap active when applying heap summary")
	}
	if err := checkHeapSummary(s, i.endmem); err != nil {
		return err
	}
	if len(s) == 0 {
		return nil
	}
	h.start, h.count = s[0], s[1]
	addr := h.start
	for k := uint32(0); k < h.count; k++ {
		a, l := s[2+2*k], s[3+2*k]
		if a > addr {
			h.blocks = append(h.blocks, heapBlock{addr: addr, len: a - addr, free: true})
		}
		h.blocks = append(h.blocks, heapBlock{addr: a, len: l})
		addr = a + l
	}
	if addr < i.endmem {
		h.blocks = append(h.blocks, heapBlock{addr: addr, len: i.endmem - addr, free: true})
	}
	return nil
}
