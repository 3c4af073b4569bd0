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
	"encoding/binary"
	"io"
	"os"

	"github.com/db47h/glulx/vm"
	"github.com/pkg/errors"
)

type streamKind int

const (
	windowStream streamKind = iota
	memoryStream
	fileStream
)

// stream is a glk stream. Window streams print to the console, memory streams
// read and write VM memory, file streams read and write files named by a
// fileref.
type stream struct {
	id, rock       uint32
	kind           streamKind
	mode           uint32
	uni            bool
	text           bool
	rcount, wcount uint32

	c   *Console
	win *window

	vm          *vm.Instance
	buf, buflen uint32
	pos         uint32

	f    *os.File
	name string
	rr   io.RuneReader
	rw   runeWriter
}

func (s *stream) readable() bool {
	return s.mode == filemodeRead || s.mode == filemodeReadWrite
}

func (s *stream) writable() bool {
	return s.mode != filemodeRead
}

// unit returns the size in bytes of a character position.
func (s *stream) unit() int64 {
	if s.uni && !s.text {
		return 4
	}
	return 1
}

func (s *stream) putChar(ch uint32) {
	if !s.writable() {
		s.c.log.Warningf("stream %d: write to a read-only stream", s.id)
		return
	}
	s.wcount++
	switch s.kind {
	case windowStream:
		s.c.windowPut(s.win, ch)
	case memoryStream:
		if s.pos >= s.buflen {
			return
		}
		if s.uni {
			s.vm.MemW4(s.buf+4*s.pos, ch)
		} else {
			s.vm.MemW1(s.buf+s.pos, uint32(toLatin1(rune(ch))))
		}
		s.pos++
	case fileStream:
		var err error
		switch {
		case !s.uni:
			_, err = s.f.Write([]byte{toLatin1(rune(ch))})
		case s.text:
			_, err = s.rw.WriteRune(rune(ch))
		default:
			var b [4]byte
			binary.BigEndian.PutUint32(b[:], ch)
			_, err = s.f.Write(b[:])
		}
		if err != nil {
			s.c.log.Warningf("stream %d: %v", s.id, err)
		}
	}
}

// getChar reads the next character from the stream. It returns false at the
// end of the stream.
func (s *stream) getChar() (uint32, bool) {
	if !s.readable() {
		s.c.log.Warningf("stream %d: read from a write-only stream", s.id)
		return 0, false
	}
	var ch uint32
	switch s.kind {
	case windowStream:
		return 0, false
	case memoryStream:
		if s.pos >= s.buflen {
			return 0, false
		}
		if s.uni {
			ch = s.vm.Mem4(s.buf + 4*s.pos)
		} else {
			ch = s.vm.Mem1(s.buf + s.pos)
		}
		s.pos++
	case fileStream:
		switch {
		case !s.uni:
			var b [1]byte
			if _, err := io.ReadFull(s.f, b[:]); err != nil {
				return 0, false
			}
			ch = uint32(b[0])
		case s.text:
			r, size, _ := s.rr.ReadRune()
			if size == 0 {
				return 0, false
			}
			ch = uint32(r)
		default:
			var b [4]byte
			if _, err := io.ReadFull(s.f, b[:]); err != nil {
				return 0, false
			}
			ch = binary.BigEndian.Uint32(b[:])
		}
	}
	s.rcount++
	return ch, true
}

// Write implements io.Writer. It is used by the save opcode.
func (s *stream) Write(p []byte) (int, error) {
	if !s.writable() {
		return 0, errors.Errorf("stream %d: not open for writing", s.id)
	}
	switch s.kind {
	case windowStream:
		return 0, errors.Errorf("stream %d: cannot write binary data to a window", s.id)
	case fileStream:
		n, err := s.f.Write(p)
		s.wcount += uint32(n)
		return n, err
	}
	n := 0
	for _, b := range p {
		if s.pos >= s.buflen {
			return n, io.ErrShortWrite
		}
		s.putChar(uint32(b))
		n++
	}
	return n, nil
}

// Read implements io.Reader. It is used by the restore opcode.
func (s *stream) Read(p []byte) (int, error) {
	if !s.readable() {
		return 0, errors.Errorf("stream %d: not open for reading", s.id)
	}
	switch s.kind {
	case windowStream:
		return 0, errors.Errorf("stream %d: cannot read from a window", s.id)
	case fileStream:
		n, err := s.f.Read(p)
		s.rcount += uint32(n)
		return n, err
	}
	n := 0
	for n < len(p) {
		ch, ok := s.getChar()
		if !ok {
			break
		}
		p[n] = byte(ch)
		n++
	}
	if n == 0 && len(p) > 0 {
		return 0, io.EOF
	}
	return n, nil
}

func (s *stream) setPosition(pos int32, mode uint32) {
	switch s.kind {
	case memoryStream:
		var base int64
		switch mode {
		case seekmodeCurrent:
			base = int64(s.pos)
		case seekmodeEnd:
			base = int64(s.buflen)
		}
		p := min(max(base+int64(pos), 0), int64(s.buflen))
		s.pos = uint32(p)
	case fileStream:
		whence := io.SeekStart
		switch mode {
		case seekmodeCurrent:
			whence = io.SeekCurrent
		case seekmodeEnd:
			whence = io.SeekEnd
		}
		if _, err := s.f.Seek(int64(pos)*s.unit(), whence); err != nil {
			s.c.log.Warningf("stream %d: %v", s.id, err)
		}
	}
}

func (s *stream) position() uint32 {
	switch s.kind {
	case memoryStream:
		return s.pos
	case fileStream:
		off, err := s.f.Seek(0, io.SeekCurrent)
		if err != nil {
			s.c.log.Warningf("stream %d: %v", s.id, err)
			return 0
		}
		return uint32(off / s.unit())
	}
	return 0
}

func (s *stream) close() error {
	if s.kind == fileStream {
		return s.f.Close()
	}
	return nil
}

// openFile opens the file for a file stream. Write mode truncates the file
// unless keep is set.
func openFile(name string, mode uint32, keep bool) (*os.File, error) {
	var flag int
	switch mode {
	case filemodeRead:
		flag = os.O_RDONLY
	case filemodeWrite:
		flag = os.O_WRONLY | os.O_CREATE
		if !keep {
			flag |= os.O_TRUNC
		}
	case filemodeReadWrite:
		flag = os.O_RDWR | os.O_CREATE
	case filemodeWriteAppend:
		flag = os.O_WRONLY | os.O_CREATE | os.O_APPEND
	default:
		return nil, errors.Errorf("invalid file mode %#x", mode)
	}
	return os.OpenFile(name, flag, 0644)
}
