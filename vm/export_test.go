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

// Test hooks into the VM internals.

const (
	DestDiscard      = destDiscard
	DestStack        = destStack
	DestTerminator   = destTerminator
	DestResumeNumber = destResumeNumber
)

func (i *Instance) EnterFunction(addr uint32, args ...uint32) { i.enterFunction(addr, args) }
func (i *Instance) LeaveFunction()                            { i.leaveFunction() }
func (i *Instance) PushCallStub(dest, addr uint32)            { i.pushCallStub(dest, addr) }
func (i *Instance) PopCallStub(v uint32)                      { i.popCallStub(v) }

func (i *Instance) SetIOSys(mode, rock uint32) { i.setIOSys(mode, rock) }

func (i *Instance) HeapAlloc(n uint32) uint32 { return i.heapAlloc(n) }
func (i *Instance) HeapFree(addr uint32)      { i.heapFree(addr) }
func (i *Instance) HeapSummary() []uint32     { return i.heapSummary() }
func (i *Instance) HeapExtensions() int       { return i.heap.extensions }

func (i *Instance) HeapApplySummary(s []uint32) error {
	return i.heapApplySummary(s)
}

func (i *Instance) MemoryState() []byte { return i.memoryState() }

func (i *Instance) ApplyMemoryState(b []byte) error {
	if _, err := i.checkMemoryState(b); err != nil {
		return err
	}
	i.applyMemoryState(b)
	return nil
}

// SaveUndo and RestoreUndo behave like the saveundo and restoreundo opcodes
// with a discarded result.
func (i *Instance) SaveUndo() error {
	i.pushCallStub(destDiscard, 0)
	defer func() { i.sp -= 16 }()
	return i.saveUndo()
}

func (i *Instance) RestoreUndo() error {
	if err := i.restoreUndo(); err != nil {
		return err
	}
	i.popCallStub(^uint32(0))
	return nil
}

func (i *Instance) TableCached() bool { return i.tableCache != nil }
