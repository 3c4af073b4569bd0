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

// IO system modes, as used by the setiosys opcode.
const (
	IOSysNull   = 0 // output is discarded
	IOSysFilter = 1 // each character is passed to a VM function
	IOSysGlk    = 2 // output goes to the Host
)

type ioSystem struct {
	mode uint32
	rock uint32
}

// IOSys returns the current IO system mode and rock.
func (i *Instance) IOSys() (mode, rock uint32) {
	return i.iosys.mode, i.iosys.rock
}

// setIOSys selects the output mode. Unknown modes select the null mode, and
// the rock is only kept for the filter mode.
func (i *Instance) setIOSys(mode, rock uint32) {
	switch mode {
	case IOSysFilter:
	case IOSysGlk:
		rock = 0
	default:
		mode, rock = IOSysNull, 0
	}
	i.iosys = ioSystem{mode, rock}
}

// stringKind identifies the encoding being decoded by a decodeTask.
type stringKind uint8

const (
	strDetect  stringKind = iota // type byte not read yet
	strC                         // zero terminated bytes (E0)
	strHuffman                   // compressed string (E1)
	strUnicode                   // zero terminated 32 bits code points (E2)
)

// decodeTask is the resumable position of a string being printed: the
// address of the next byte (or word) to read and, for compressed strings,
// the bit number within that byte.
type decodeTask struct {
	kind stringKind
	addr uint32
	bit  uint32
}

func (t *decodeTask) advance(bits uint32) {
	t.bit += bits
	t.addr += t.bit >> 3
	t.bit &= 7
}

// numberTask is the resumable state of a number being printed. pos is the
// number of characters already sent.
type numberTask struct {
	val    int32
	pos    uint32
	nested bool
}

// stepResult tells streamString what to do after decoding a node.
type stepResult int

const (
	stepContinue  stepResult = iota // keep decoding the current string
	stepDone                        // current string fully printed
	stepNested                      // the task was replaced by a nested string
	stepSuspended                   // a VM function was entered, return to the Run loop
)

// Decoding table cache parameters.
const (
	cacheBits = 4
	cacheSize = 1 << cacheBits
	cacheMask = cacheSize - 1
)

// leaf is a non-branch node of a decoding table. For characters, val is the
// character. For all other node types, val is the address of the node data.
type leaf struct {
	typ uint32
	val uint32
}

type cacheEntry struct {
	depth  uint32
	leaf   leaf
	branch *cacheBlock
}

// cacheBlock decodes cacheBits bits at a time. Leaves found at a lower depth
// fill every entry sharing their bit prefix.
type cacheBlock struct {
	entries [cacheSize]cacheEntry
}

// StringTable returns the address of the current decoding table.
func (i *Instance) StringTable() uint32 {
	return i.stringTable
}

// setStringTable sets the decoding table and rebuilds the decoding cache.
// The table is cached only if it lies entirely in ROM.
func (i *Instance) setStringTable(addr uint32) {
	i.stringTable = addr
	i.tableCache = nil
	if addr == 0 {
		return
	}
	tableLen := i.Mem4(addr)
	if uint64(addr)+uint64(tableLen) > uint64(i.hdr.RAMStart) {
		i.log.Debugf("decoding table at %#x is in RAM, not cached", addr)
		return
	}
	root := i.Mem4(addr + 8)
	if i.Mem1(root) != 0 {
		return
	}
	blk := new(cacheBlock)
	i.buildCache(blk, root, 0, 0)
	i.tableCache = blk
}

func (i *Instance) buildCache(blk *cacheBlock, node, depth, mask uint32) {
	typ := i.Mem1(node)
	if typ == 0 && depth == cacheBits {
		sub := new(cacheBlock)
		i.buildCache(sub, node, 0, 0)
		blk.entries[mask] = cacheEntry{depth: cacheBits, branch: sub}
		return
	}
	if typ == 0 {
		left, right := i.Mem4(node+1), i.Mem4(node+5)
		i.buildCache(blk, left, depth+1, mask)
		i.buildCache(blk, right, depth+1, mask|1<<depth)
		return
	}
	l := i.readLeaf(typ, node+1)
	for ix := mask; ix < cacheSize; ix += 1 << depth {
		blk.entries[ix] = cacheEntry{depth: depth, leaf: l}
	}
}

func (i *Instance) readLeaf(typ, data uint32) leaf {
	switch typ {
	case 0x01:
		return leaf{typ: typ}
	case 0x02:
		return leaf{typ, i.Mem1(data)}
	case 0x04:
		return leaf{typ, i.Mem4(data)}
	case 0x03, 0x05, 0x08, 0x09, 0x0A, 0x0B:
		return leaf{typ, data}
	}
	fatalf("unknown entity in string decoding: node type %#x", typ)
	return leaf{}
}

// peekBits returns the next cacheBits bits of a compressed string.
func (i *Instance) peekBits(addr, bit uint32) uint32 {
	v := i.Mem1(addr) >> bit
	if bit > 8-cacheBits && addr+1 < i.endmem {
		v |= uint32(i.mem[addr+1]) << (8 - bit)
	}
	return v & cacheMask
}

// streamChar prints a single character or code point.
func (i *Instance) streamChar(ch uint32, uni bool) {
	switch i.iosys.mode {
	case IOSysGlk:
		if uni {
			i.host.PutCharUni(ch)
		} else {
			i.host.PutChar(byte(ch))
		}
	case IOSysFilter:
		i.pushCallStub(destDiscard, 0)
		i.callFilter(ch)
	}
}

func (i *Instance) callFilter(ch uint32) {
	i.chArg[0] = ch
	i.enterFunction(i.iosys.rock, i.chArg[:])
}

// beginSubstring pushes the call stub that ends the outermost string the
// first time the string needs to be suspended.
func (i *Instance) beginSubstring(substring *bool) {
	if !*substring {
		i.pushCallStub(destTerminator, 0)
		*substring = true
	}
}

// suspend pushes a call stub that resumes decoding t.
func (i *Instance) suspend(t *decodeTask) {
	i.PC = t.addr
	i.pushCallStub(destResumeHuffman, t.bit)
}

// streamString prints the string described by t. A task with kind strDetect
// starts a new top level string. Any other kind resumes a string that was
// suspended by a call stub.
//
// In filter mode, or when the string refers to functions, streamString
// pushes call stubs recording its position and enters a VM function. It then
// returns to the Run loop, and decoding resumes when that function returns.
func (i *Instance) streamString(t decodeTask) {
	substring := t.kind != strDetect
	for {
		if t.kind == strDetect {
			switch typ := i.Mem1(t.addr); {
			case typ == 0xE0:
				t = decodeTask{kind: strC, addr: t.addr + 1}
			case typ == 0xE1:
				t = decodeTask{kind: strHuffman, addr: t.addr + 1}
			case typ == 0xE2:
				t = decodeTask{kind: strUnicode, addr: t.addr + 4}
			case typ > 0xE2:
				fatalf("attempt to print unknown type of string %#x at %#x", typ, t.addr)
			default:
				fatalf("attempt to print non-string at %#x", t.addr)
			}
		}

		var r stepResult
		switch t.kind {
		case strHuffman:
			r = i.decodeHuffman(&t, &substring)
		case strC:
			r = i.decodeC(&t, &substring)
		case strUnicode:
			r = i.decodeUnicode(&t, &substring)
		}
		switch r {
		case stepSuspended:
			return
		case stepNested:
			continue
		}

		if !substring {
			return
		}
		next, ok := i.popCallStubString()
		if !ok {
			return
		}
		t = next
	}
}

func (i *Instance) decodeC(t *decodeTask, substring *bool) stepResult {
	switch i.iosys.mode {
	case IOSysGlk:
		for {
			ch := i.Mem1(t.addr)
			t.addr++
			if ch == 0 {
				break
			}
			i.host.PutChar(byte(ch))
		}
	case IOSysFilter:
		i.beginSubstring(substring)
		ch := i.Mem1(t.addr)
		t.addr++
		if ch != 0 {
			i.PC = t.addr
			i.pushCallStub(destResumeCString, 0)
			i.callFilter(ch)
			return stepSuspended
		}
	default:
		for i.Mem1(t.addr) != 0 {
			t.addr++
		}
		t.addr++
	}
	return stepDone
}

func (i *Instance) decodeUnicode(t *decodeTask, substring *bool) stepResult {
	switch i.iosys.mode {
	case IOSysGlk:
		for {
			ch := i.Mem4(t.addr)
			t.addr += 4
			if ch == 0 {
				break
			}
			i.host.PutCharUni(ch)
		}
	case IOSysFilter:
		i.beginSubstring(substring)
		ch := i.Mem4(t.addr)
		t.addr += 4
		if ch != 0 {
			i.PC = t.addr
			i.pushCallStub(destResumeUnicode, 0)
			i.callFilter(ch)
			return stepSuspended
		}
	default:
		for i.Mem4(t.addr) != 0 {
			t.addr += 4
		}
		t.addr += 4
	}
	return stepDone
}

func (i *Instance) decodeHuffman(t *decodeTask, substring *bool) stepResult {
	if i.stringTable == 0 {
		fatalf("attempt to print a compressed string with no decoding table")
	}
	if c := i.tableCache; c != nil {
		for {
			blk := c
			var e *cacheEntry
			for {
				e = &blk.entries[i.peekBits(t.addr, t.bit)]
				t.advance(e.depth)
				if e.branch == nil {
					break
				}
				blk = e.branch
			}
			if r := i.decodeLeaf(e.leaf, t, substring); r != stepContinue {
				return r
			}
		}
	}
	root := i.Mem4(i.stringTable + 8)
	node := root
	for {
		typ := i.Mem1(node)
		if typ == 0 {
			if i.Mem1(t.addr)&(1<<t.bit) != 0 {
				node = i.Mem4(node + 5)
			} else {
				node = i.Mem4(node + 1)
			}
			t.advance(1)
			continue
		}
		if r := i.decodeLeaf(i.readLeaf(typ, node+1), t, substring); r != stepContinue {
			return r
		}
		node = root
	}
}

// decodeLeaf handles a leaf of the decoding tree. t is the position right
// after the bits that selected it.
func (i *Instance) decodeLeaf(l leaf, t *decodeTask, substring *bool) stepResult {
	switch l.typ {
	case 0x01:
		return stepDone
	case 0x02, 0x04:
		switch i.iosys.mode {
		case IOSysGlk:
			if l.typ == 0x02 {
				i.host.PutChar(byte(l.val))
			} else {
				i.host.PutCharUni(l.val)
			}
		case IOSysFilter:
			i.beginSubstring(substring)
			i.suspend(t)
			i.callFilter(l.val)
			return stepSuspended
		}
	case 0x03:
		switch i.iosys.mode {
		case IOSysGlk:
			for _, ch := range i.CString(l.val) {
				i.host.PutChar(ch)
			}
		case IOSysFilter:
			i.beginSubstring(substring)
			i.suspend(t)
			*t = decodeTask{kind: strC, addr: l.val}
			return stepNested
		}
	case 0x05:
		switch i.iosys.mode {
		case IOSysGlk:
			for a := l.val; ; a += 4 {
				ch := i.Mem4(a)
				if ch == 0 {
					break
				}
				i.host.PutCharUni(ch)
			}
		case IOSysFilter:
			i.beginSubstring(substring)
			i.suspend(t)
			*t = decodeTask{kind: strUnicode, addr: l.val}
			return stepNested
		}
	case 0x08, 0x09, 0x0A, 0x0B:
		ref := i.Mem4(l.val)
		if l.typ == 0x09 || l.typ == 0x0B {
			ref = i.Mem4(ref)
		}
		i.beginSubstring(substring)
		switch otype := i.Mem1(ref); {
		case otype >= 0xE0:
			i.suspend(t)
			*t = decodeTask{kind: strDetect, addr: ref}
			return stepNested
		case otype >= 0xC0:
			var args []uint32
			if l.typ == 0x0A || l.typ == 0x0B {
				args = i.popArguments(i.Mem4(l.val+4), l.val+8)
			}
			i.suspend(t)
			i.enterFunction(ref, args)
			return stepSuspended
		default:
			fatalf("unknown object %#x while decoding string indirect reference", ref)
		}
	default:
		fatalf("unknown entity in string decoding: node type %#x", l.typ)
	}
	return stepContinue
}

// streamNum prints the decimal representation of t.val. In filter mode, one
// character is sent per call to the filter function, t.pos counting the
// characters already sent.
func (i *Instance) streamNum(t numberTask) {
	var buf [16]byte
	n := 0
	if t.val == 0 {
		buf[0] = '0'
		n = 1
	} else {
		v := uint32(t.val)
		if t.val < 0 {
			v = -v
		}
		for ; v != 0; v /= 10 {
			buf[n] = byte(v%10) + '0'
			n++
		}
		if t.val < 0 {
			buf[n] = '-'
			n++
		}
	}

	switch i.iosys.mode {
	case IOSysGlk:
		for k := n - 1 - int(t.pos); k >= 0; k-- {
			i.host.PutChar(buf[k])
		}
	case IOSysFilter:
		if !t.nested {
			i.pushCallStub(destTerminator, 0)
			t.nested = true
		}
		if int(t.pos) < n {
			ch := buf[n-1-int(t.pos)]
			i.PC = uint32(t.val)
			i.pushCallStub(destResumeNumber, t.pos+1)
			i.callFilter(uint32(ch))
			return
		}
	}

	if t.nested {
		if _, ok := i.popCallStubString(); ok {
			fatalf("string-on-string call stub while printing number")
		}
	}
}
