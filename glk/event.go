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
	"io"

	"github.com/db47h/glulx/vm"
	"github.com/pkg/errors"
)

var errInterrupted = errors.New("input interrupted")

type inputRune struct {
	r   rune
	err error
}

// reader feeds the input channel until the first read error.
func reader(in io.RuneReader, ch chan<- inputRune) {
	for {
		r, size, err := in.ReadRune()
		if size > 0 {
			ch <- inputRune{r: r}
		}
		if err != nil {
			ch <- inputRune{err: err}
			return
		}
	}
}

// readRune waits for the next input character. The input is read in a
// separate goroutine so that a call to Interrupt can wake it up.
func (c *Console) readRune() (rune, error) {
	if c.inErr != nil {
		return 0, c.inErr
	}
	if c.in == nil {
		return 0, io.EOF
	}
	if c.input == nil {
		c.input = make(chan inputRune)
		go reader(c.in, c.input)
	}
	select {
	case <-c.intr:
		return 0, errInterrupted
	default:
	}
	select {
	case in := <-c.input:
		if in.err != nil {
			c.inErr = in.err
			return 0, in.err
		}
		return in.r, nil
	case <-c.intr:
		return 0, errInterrupted
	}
}

func (c *Console) echoRune(r rune) {
	if c.echo {
		c.out.WriteRune(r)
		c.Flush()
	}
}

// readLine appends characters to line until the end of the line. On
// interruption, line holds the characters read so far and the next call
// continues from there.
func (c *Console) readLine(line *[]rune) error {
	for {
		r, err := c.readRune()
		if err != nil {
			if err == io.EOF && len(*line) > 0 {
				return nil
			}
			return err
		}
		switch {
		case r == '\n' || c.echo && r == '\r':
			c.echoRune('\n')
			return nil
		case r == '\r':
		case c.echo && (r == 8 || r == 0x7F):
			if n := len(*line); n > 0 {
				*line = (*line)[:n-1]
				c.echoRune(8)
				c.echoRune(' ')
				c.echoRune(8)
			}
		case c.echo && r == 4:
			if len(*line) == 0 {
				return io.EOF
			}
		default:
			*line = append(*line, r)
			c.echoRune(r)
		}
	}
}

func (c *Console) requestLine(i *vm.Instance, w *window, buf, n, initLen uint32, uni bool) {
	if w.line != nil || w.char != nil {
		c.log.Warningf("request_line_event: window %d already has a pending input request", w.id)
		return
	}
	n = clampBuf(i, buf, n, uni)
	req := &lineRequest{buf: buf, max: n, uni: uni}
	for k := uint32(0); k < min(initLen, n); k++ {
		r := rune(loadChar(i, buf, k, uni))
		req.partial = append(req.partial, r)
		c.echoRune(r)
	}
	w.line = req
}

// storeLine copies the input line to the request buffer and returns its
// length.
func (c *Console) storeLine(i *vm.Instance, req *lineRequest) uint32 {
	n := min(uint32(len(req.partial)), req.max)
	for k := uint32(0); k < n; k++ {
		storeChar(i, req.buf, k, uint32(req.partial[k]), req.uni)
	}
	return n
}

func (c *Console) cancelLine(i *vm.Instance, w *window, ev uint32) {
	req := w.line
	if req == nil {
		storeStruct(i, ev, evNone, 0, 0, 0)
		return
	}
	n := c.storeLine(i, req)
	w.line = nil
	storeStruct(i, ev, evLineInput, w.id, n, 0)
}

// selectEvent waits for the input requested in the first window that has a
// pending request and stores the event at ev.
func (c *Console) selectEvent(i *vm.Instance, ev uint32) error {
	c.Flush()
	for _, w := range c.windows.all() {
		var err error
		switch {
		case w.line != nil:
			err = c.lineEvent(i, w, ev)
		case w.char != nil:
			err = c.charEvent(i, w, ev)
		default:
			continue
		}
		switch {
		case err == errInterrupted:
			storeStruct(i, ev, evNone, 0, 0, 0)
			return nil
		case err == io.EOF:
			return vm.ErrExit
		}
		return errors.Wrap(err, "select")
	}
	return errors.New("select: no input event requested")
}

func (c *Console) lineEvent(i *vm.Instance, w *window, ev uint32) error {
	req := w.line
	if err := c.readLine(&req.partial); err != nil {
		return err
	}
	n := c.storeLine(i, req)
	w.line = nil
	if w.echo != nil {
		for _, r := range req.partial[:n] {
			w.echo.putChar(uint32(r))
		}
		w.echo.putChar('\n')
	}
	storeStruct(i, ev, evLineInput, w.id, n, 0)
	return nil
}

func (c *Console) charEvent(i *vm.Instance, w *window, ev uint32) error {
	var r rune
	if c.echo {
		var err error
		if r, err = c.readRune(); err != nil {
			return err
		}
		if r == 4 {
			return io.EOF
		}
	} else {
		var line []rune
		if err := c.readLine(&line); err != nil {
			return err
		}
		r = '\n'
		if len(line) > 0 {
			r = line[0]
		}
	}
	ch := keycode(r, w.char.uni)
	w.char = nil
	storeStruct(i, ev, evCharInput, w.id, ch, 0)
	return nil
}

func keycode(r rune, uni bool) uint32 {
	switch r {
	case '\n', '\r':
		return keycodeReturn
	case 8, 0x7F:
		return keycodeDelete
	case 0x1B:
		return keycodeEscape
	case '\t':
		return keycodeTab
	}
	if !uni && r > 0xFF {
		return keycodeUnknown
	}
	return uint32(r)
}
