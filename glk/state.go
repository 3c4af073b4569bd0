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

package glk

import (
	"fmt"
	"io"

	"github.com/db47h/glulx/vm"
	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
)

var stateEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("glk: failed to create CBOR enc mode: %v", err))
	}
	stateEncMode = em
}

type consoleState struct {
	NextID   uint32         `cbor:"1,keyasint"`
	Root     uint32         `cbor:"2,keyasint"`
	Current  uint32         `cbor:"3,keyasint"`
	Windows  []windowState  `cbor:"4,keyasint,omitempty"`
	Streams  []streamState  `cbor:"5,keyasint,omitempty"`
	Filerefs []filerefState `cbor:"6,keyasint,omitempty"`
}

type windowState struct {
	ID      uint32     `cbor:"1,keyasint"`
	Rock    uint32     `cbor:"2,keyasint"`
	Type    uint32     `cbor:"3,keyasint"`
	Size    uint32     `cbor:"4,keyasint"`
	Stream  uint32     `cbor:"5,keyasint"`
	Echo    uint32     `cbor:"6,keyasint,omitempty"`
	Line    *lineState `cbor:"7,keyasint,omitempty"`
	Char    bool       `cbor:"8,keyasint,omitempty"`
	CharUni bool       `cbor:"9,keyasint,omitempty"`
}

type lineState struct {
	Buf     uint32 `cbor:"1,keyasint"`
	Max     uint32 `cbor:"2,keyasint"`
	Uni     bool   `cbor:"3,keyasint"`
	Partial []rune `cbor:"4,keyasint,omitempty"`
}

type streamState struct {
	ID     uint32     `cbor:"1,keyasint"`
	Rock   uint32     `cbor:"2,keyasint"`
	Kind   streamKind `cbor:"3,keyasint"`
	Mode   uint32     `cbor:"4,keyasint"`
	Uni    bool       `cbor:"5,keyasint"`
	Text   bool       `cbor:"6,keyasint"`
	RCount uint32     `cbor:"7,keyasint"`
	WCount uint32     `cbor:"8,keyasint"`
	Buf    uint32     `cbor:"9,keyasint,omitempty"`
	BufLen uint32     `cbor:"10,keyasint,omitempty"`
	Pos    uint32     `cbor:"11,keyasint,omitempty"`
	Name   string     `cbor:"12,keyasint,omitempty"`
	Offset int64      `cbor:"13,keyasint,omitempty"`
}

type filerefState struct {
	ID    uint32 `cbor:"1,keyasint"`
	Rock  uint32 `cbor:"2,keyasint"`
	Usage uint32 `cbor:"3,keyasint"`
	Name  string `cbor:"4,keyasint"`
	Temp  bool   `cbor:"5,keyasint,omitempty"`
}

// MarshalState returns the state of all glk objects, including pending input
// requests. Together with a VM snapshot, it allows a program to be resumed
// by another Console.
func (c *Console) MarshalState() ([]byte, error) {
	s := consoleState{NextID: c.nextID}
	if c.root != nil {
		s.Root = c.root.id
	}
	if c.current != nil {
		s.Current = c.current.id
	}
	for _, w := range c.windows.all() {
		ws := windowState{ID: w.id, Rock: w.rock, Type: w.typ, Size: w.size, Stream: w.str.id}
		if w.echo != nil {
			ws.Echo = w.echo.id
		}
		if w.line != nil {
			ws.Line = &lineState{Buf: w.line.buf, Max: w.line.max, Uni: w.line.uni, Partial: w.line.partial}
		}
		if w.char != nil {
			ws.Char, ws.CharUni = true, w.char.uni
		}
		s.Windows = append(s.Windows, ws)
	}
	for _, st := range c.streams.all() {
		ss := streamState{ID: st.id, Rock: st.rock, Kind: st.kind, Mode: st.mode, Uni: st.uni, Text: st.text,
			RCount: st.rcount, WCount: st.wcount}
		switch st.kind {
		case memoryStream:
			ss.Buf, ss.BufLen, ss.Pos = st.buf, st.buflen, st.pos
		case fileStream:
			off, err := st.f.Seek(0, io.SeekCurrent)
			if err != nil {
				return nil, errors.Wrapf(err, "stream %d", st.id)
			}
			ss.Name, ss.Offset = st.name, off
		}
		s.Streams = append(s.Streams, ss)
	}
	for _, f := range c.filerefs.all() {
		s.Filerefs = append(s.Filerefs, filerefState{ID: f.id, Rock: f.rock, Usage: f.usage, Name: f.name, Temp: f.temp})
	}
	return stateEncMode.Marshal(&s)
}

// UnmarshalState replaces all glk objects with the ones recorded by
// MarshalState. Memory streams are bound to the VM instance i and file
// streams are reopened at their recorded position.
func (c *Console) UnmarshalState(data []byte, i *vm.Instance) error {
	var s consoleState
	if err := cbor.Unmarshal(data, &s); err != nil {
		return errors.Wrap(err, "glk: unmarshal state")
	}
	n := &Console{}
	streams := make(map[uint32]*stream)
	for _, ss := range s.Streams {
		st := &stream{id: ss.ID, rock: ss.Rock, kind: ss.Kind, mode: ss.Mode, uni: ss.Uni, text: ss.Text,
			rcount: ss.RCount, wcount: ss.WCount, c: c}
		switch ss.Kind {
		case windowStream:
		case memoryStream:
			if ss.BufLen > 0 && i.Clamp(ss.Buf, ss.BufLen) == 0 {
				n.Close()
				return errors.Errorf("glk: memory stream %d out of range", ss.ID)
			}
			st.vm, st.buf, st.buflen, st.pos = i, ss.Buf, ss.BufLen, ss.Pos
		case fileStream:
			f, err := openFile(ss.Name, ss.Mode, true)
			if err == nil {
				_, err = f.Seek(ss.Offset, io.SeekStart)
			}
			if err != nil {
				n.Close()
				return errors.Wrapf(err, "glk: reopen stream %d", ss.ID)
			}
			st.f, st.name = f, ss.Name
			st.rr, st.rw = newRuneReader(f), newWriter(f)
		default:
			n.Close()
			return errors.Errorf("glk: stream %d has invalid kind %d", ss.ID, ss.Kind)
		}
		streams[st.id] = st
		n.streams.add(st.id, st)
	}
	for _, ws := range s.Windows {
		w := &window{id: ws.ID, rock: ws.Rock, typ: ws.Type, size: ws.Size}
		w.str = streams[ws.Stream]
		if w.str == nil || w.str.kind != windowStream {
			n.Close()
			return errors.Errorf("glk: window %d has no stream", ws.ID)
		}
		w.str.win = w
		if ws.Echo != 0 {
			w.echo = streams[ws.Echo]
		}
		if ws.Line != nil {
			w.line = &lineRequest{buf: ws.Line.Buf, max: ws.Line.Max, uni: ws.Line.Uni, partial: ws.Line.Partial}
		}
		if ws.Char {
			w.char = &charRequest{uni: ws.CharUni}
		}
		n.windows.add(w.id, w)
		if w.id == s.Root {
			n.root = w
		}
	}
	for _, fs := range s.Filerefs {
		n.filerefs.add(fs.ID, &fileref{id: fs.ID, rock: fs.Rock, usage: fs.Usage, name: fs.Name, temp: fs.Temp})
	}

	c.closeFiles()
	c.nextID = s.NextID
	c.windows, c.streams, c.filerefs = n.windows, n.streams, n.filerefs
	c.root = n.root
	c.current = streams[s.Current]
	return nil
}

// closeFiles closes the file streams without touching the files.
func (c *Console) closeFiles() {
	for _, s := range c.streams.all() {
		s.close()
	}
}
