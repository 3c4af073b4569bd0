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

// undoChain holds serialized states, oldest first.
type undoChain struct {
	depth  int
	states [][]byte
}

func (u *undoChain) push(s []byte) {
	if len(u.states) >= u.depth {
		n := copy(u.states, u.states[len(u.states)-u.depth+1:])
		u.states = u.states[:n]
	}
	u.states = append(u.states, s)
}

func (u *undoChain) pop() []byte {
	n := len(u.states)
	if n == 0 {
		return nil
	}
	s := u.states[n-1]
	u.states[n-1] = nil
	u.states = u.states[:n-1]
	return s
}

// HasUndo returns true if an undo state is available.
func (i *Instance) HasUndo() bool {
	return len(i.undo.states) > 0
}

// DiscardUndo discards the most recent undo state, if any.
func (i *Instance) DiscardUndo() {
	i.undo.pop()
}

// UndoCount returns the number of undo states currently held.
func (i *Instance) UndoCount() int {
	return len(i.undo.states)
}

// undoState serializes the VM state as the memory state, the heap summary
// and a raw copy of the stack, each preceded by its length.
func (i *Instance) undoState() []byte {
	parts := [...][]byte{
		i.memoryState(),
		words(i.heapSummary()),
		i.stack[:i.sp],
		words(i.accel.params[:]),
	}
	n := 0
	for _, p := range parts {
		n += 4 + len(p)
	}
	b := make([]byte, 0, n)
	for _, p := range parts {
		b = binary.BigEndian.AppendUint32(b, uint32(len(p)))
		b = append(b, p...)
	}
	return b
}

func parseUndoState(b []byte) (*savedState, error) {
	var parts [4][]byte
	for k := range parts {
		if len(b) < 4 {
			return nil, errors.New("truncated undo state")
		}
		n := binary.BigEndian.Uint32(b)
		b = b[4:]
		if uint32(len(b)) < n {
			return nil, errors.New("truncated undo state")
		}
		parts[k], b = b[:n], b[n:]
	}
	s := &savedState{mem: parts[0], stack: parts[2]}
	var err error
	if s.heap, err = unwords(parts[1]); err != nil {
		return nil, err
	}
	if len(s.heap) == 0 {
		s.heap = nil
	}
	if s.params, err = unwords(parts[3]); err != nil {
		return nil, err
	}
	return s, nil
}

// saveUndo pushes the current state on the undo chain, evicting the oldest
// state if the chain is full.
func (i *Instance) saveUndo() error {
	if i.undo.depth == 0 {
		return errors.New("undo disabled")
	}
	i.undo.push(i.undoState())
	i.log.Debugf("saveundo: %d states", len(i.undo.states))
	return nil
}

// restoreUndo pops the most recent undo state and applies it.
func (i *Instance) restoreUndo() error {
	b := i.undo.pop()
	if b == nil {
		return errors.New("no undo state")
	}
	s, err := parseUndoState(b)
	if err == nil {
		err = i.check(s)
	}
	if err != nil {
		return errors.Wrap(err, "corrupt undo state")
	}
	i.apply(s)
	i.log.Debugf("restoreundo: %d states left", len(i.undo.states))
	return nil
}
