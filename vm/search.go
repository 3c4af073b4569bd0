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

// Search options, as used by the search opcodes.
const (
	KeyIndirect       = 0x01 // the key is the address of the key bytes
	ZeroKeyTerminates = 0x02 // stop at a record whose key is all zeroes
	ReturnIndex       = 0x04 // return the record index instead of its address
)

const notFound = 0xFFFFFFFF

// searchKey holds the key being searched. Direct keys of at most 4 bytes are
// stored in buf, longer keys are compared against memory at addr.
type searchKey struct {
	buf  [4]byte
	addr uint32
	size uint32
	mem  bool
}

func (i *Instance) fetchKey(key, size, options uint32) searchKey {
	k := searchKey{size: size}
	if options&KeyIndirect == 0 {
		switch size {
		case 1, 2, 4:
		default:
			fatalf("direct search key must hold one, two, or four bytes")
		}
		for n := uint32(0); n < size; n++ {
			k.buf[n] = byte(key >> (8 * (size - 1 - n)))
		}
		return k
	}
	if size <= 4 {
		for n := uint32(0); n < size; n++ {
			k.buf[n] = byte(i.Mem1(key + n))
		}
		return k
	}
	k.addr = key
	k.mem = true
	return k
}

func (i *Instance) keyByte(k *searchKey, n uint32) uint32 {
	if k.mem {
		return i.Mem1(k.addr + n)
	}
	return uint32(k.buf[n])
}

// compareKey compares the record key at addr with k as unsigned big-endian
// byte strings.
func (i *Instance) compareKey(k *searchKey, addr uint32) int {
	for n := uint32(0); n < k.size; n++ {
		a, b := i.Mem1(addr+n), i.keyByte(k, n)
		if a < b {
			return -1
		}
		if a > b {
			return 1
		}
	}
	return 0
}

func (i *Instance) zeroKey(addr, size uint32) bool {
	for n := uint32(0); n < size; n++ {
		if i.Mem1(addr+n) != 0 {
			return false
		}
	}
	return true
}

// LinearSearch searches an array of numStructs records of structSize bytes
// starting at start for a record whose key, keySize bytes at keyOffset,
// matches key. A numStructs of 0xFFFFFFFF means no limit, in which case
// ZeroKeyTerminates should be set.
//
// It returns the address of the first matching record, or its index if
// options has ReturnIndex set. If no record matches, it returns 0, or
// 0xFFFFFFFF with ReturnIndex.
func (i *Instance) LinearSearch(key, keySize, start, structSize, numStructs, keyOffset, options uint32) uint32 {
	k := i.fetchKey(key, keySize, options)
	retIndex := options&ReturnIndex != 0
	for n := uint32(0); n < numStructs; n, start = n+1, start+structSize {
		if i.compareKey(&k, start+keyOffset) == 0 {
			if retIndex {
				return n
			}
			return start
		}
		if options&ZeroKeyTerminates != 0 && i.zeroKey(start+keyOffset, keySize) {
			break
		}
	}
	if retIndex {
		return notFound
	}
	return 0
}

// BinarySearch is like LinearSearch for arrays sorted in ascending key order.
// ZeroKeyTerminates is not allowed.
func (i *Instance) BinarySearch(key, keySize, start, structSize, numStructs, keyOffset, options uint32) uint32 {
	if options&ZeroKeyTerminates != 0 {
		fatalf("ZeroKeyTerminates option may not be used with binary search")
	}
	k := i.fetchKey(key, keySize, options)
	lo, hi := uint64(0), uint64(numStructs)
	for lo < hi {
		mid := (lo + hi) / 2
		addr := start + uint32(mid)*structSize
		switch i.compareKey(&k, addr+keyOffset) {
		case 0:
			if options&ReturnIndex != 0 {
				return uint32(mid)
			}
			return addr
		case -1:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	if options&ReturnIndex != 0 {
		return notFound
	}
	return 0
}

// LinkedSearch searches a linked list of records starting at start. The
// address of the next record is stored at nextOffset in each record, and a
// next address of zero ends the list. With ReturnIndex, the result is the
// 0-based position of the matching record in the chain, or 0xFFFFFFFF if
// no record matches.
func (i *Instance) LinkedSearch(key, keySize, start, keyOffset, nextOffset, options uint32) uint32 {
	k := i.fetchKey(key, keySize, options)
	retIndex := options&ReturnIndex != 0
	for n := uint32(0); start != 0; n++ {
		if i.compareKey(&k, start+keyOffset) == 0 {
			if retIndex {
				return n
			}
			return start
		}
		if options&ZeroKeyTerminates != 0 && i.zeroKey(start+keyOffset, keySize) {
			break
		}
		start = i.Mem4(start + nextOffset)
	}
	if retIndex {
		return notFound
	}
	return 0
}
