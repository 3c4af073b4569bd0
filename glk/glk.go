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
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/db47h/glulx/vm"
	"github.com/pkg/errors"
	"github.com/tliron/commonlog"
	"golang.org/x/text/cases"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/language"
)

// Console is a glk implementation for text terminals. All windows share the
// console: text buffer windows print to the output writer, text grid windows
// are discarded and input is read line by line from the input reader.
//
// Console implements vm.StreamHost. Its methods must not be called
// concurrently, except for Interrupt.
type Console struct {
	in     io.RuneReader
	w      io.Writer
	out    runeWriter
	log    commonlog.Logger
	dir    string
	echo   bool
	latin1 bool
	size   func() (int, int)

	nextID   uint32
	windows  registry[*window]
	streams  registry[*stream]
	filerefs registry[*fileref]
	root     *window
	current  *stream

	input chan inputRune
	inErr error
	intr  chan struct{}
}

// Option interface
type Option func(*Console) error

// Dir sets the directory where files named by the program are created. The
// default is the current directory.
func Dir(dir string) Option {
	return func(c *Console) error {
		fi, err := os.Stat(dir)
		if err != nil {
			return errors.Wrap(err, "Dir")
		}
		if !fi.IsDir() {
			return errors.Errorf("Dir: %s is not a directory", dir)
		}
		c.dir = dir
		return nil
	}
}

// Echo enables echoing and editing of line input. It must be set when the
// input is a terminal in raw mode.
func Echo(on bool) Option {
	return func(c *Console) error {
		c.echo = on
		return nil
	}
}

// Latin1 sets the output encoding to ISO-8859-1 instead of UTF-8. Characters
// outside of Latin-1 are replaced.
func Latin1(on bool) Option {
	return func(c *Console) error {
		c.latin1 = on
		return nil
	}
}

// Size sets the function used to get the size of the terminal in characters.
// The default size is 80x24.
func Size(fn func() (width, height int)) Option {
	return func(c *Console) error {
		c.size = fn
		return nil
	}
}

// Logger sets the logger used for warnings.
func Logger(l commonlog.Logger) Option {
	return func(c *Console) error {
		if l == nil {
			return errors.New("Logger: nil logger")
		}
		c.log = l
		return nil
	}
}

// New returns a new Console reading from in and writing to out. If out
// implements Flush() error, it is flushed every time the program waits for
// input.
func New(in io.Reader, out io.Writer, opts ...Option) (*Console, error) {
	if out == nil {
		return nil, errors.New("nil output")
	}
	c := &Console{
		in:   newRuneReader(in),
		w:    out,
		log:  commonlog.GetLogger("glulx.glk"),
		dir:  ".",
		intr: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if c.latin1 {
		enc := encoding.ReplaceUnsupported(charmap.ISO8859_1.NewEncoder())
		c.out = newWriter(enc.Writer(out))
	} else {
		c.out = newWriter(out)
	}
	return c, nil
}

// PutChar prints a Latin-1 character to the current stream.
func (c *Console) PutChar(ch byte) {
	c.put(c.current, uint32(ch))
}

// PutCharUni prints a Unicode character to the current stream.
func (c *Console) PutCharUni(ch uint32) {
	c.put(c.current, ch)
}

// Stream returns the stream with the given id. It is used by the save and
// restore opcodes.
func (c *Console) Stream(id uint32) io.ReadWriter {
	if s, ok := c.streams.get(id); ok {
		return s
	}
	return nil
}

// Flush flushes the output.
func (c *Console) Flush() error {
	if f, ok := c.w.(flusher); ok {
		return f.Flush()
	}
	return nil
}

// Interrupt wakes up a pending select, which then returns an event of type
// none. It is safe to call from another goroutine.
func (c *Console) Interrupt() {
	select {
	case c.intr <- struct{}{}:
	default:
	}
}

// Close closes all file streams and removes temporary files.
func (c *Console) Close() error {
	var err error
	for _, s := range c.streams.all() {
		if e := s.close(); e != nil && err == nil {
			err = e
		}
	}
	for _, f := range c.filerefs.all() {
		if f.temp {
			os.Remove(f.name)
		}
	}
	c.windows.reset()
	c.streams.reset()
	c.filerefs.reset()
	c.root, c.current = nil, nil
	if e := c.Flush(); e != nil && err == nil {
		err = e
	}
	return err
}

func (c *Console) newID() uint32 {
	c.nextID++
	return c.nextID
}

func (c *Console) window(id uint32) *window {
	w, ok := c.windows.get(id)
	if !ok {
		c.log.Warningf("invalid window id %d", id)
		return nil
	}
	return w
}

func (c *Console) stream(id uint32) *stream {
	s, ok := c.streams.get(id)
	if !ok {
		c.log.Warningf("invalid stream id %d", id)
		return nil
	}
	return s
}

func (c *Console) fileref(id uint32) *fileref {
	f, ok := c.filerefs.get(id)
	if !ok {
		c.log.Warningf("invalid fileref id %d", id)
		return nil
	}
	return f
}

func (c *Console) put(s *stream, ch uint32) {
	if s != nil {
		s.putChar(ch)
	}
}

func (c *Console) windowPut(w *window, ch uint32) {
	if w.typ == wintypeTextBuffer {
		r := rune(ch)
		if ch < 0x100 {
			r = latin1(byte(ch))
		}
		if _, err := c.out.WriteRune(r); err != nil {
			c.log.Warningf("output: %v", err)
		}
	}
	if w.echo != nil && w.echo != w.str {
		w.echo.putChar(ch)
	}
}

func storeRef(i *vm.Instance, addr, v uint32) {
	switch addr {
	case 0:
	case stackRef:
		i.Push(v)
	default:
		i.MemW4(addr, v)
	}
}

// storeStruct stores vals at addr. For stack references, the values are
// pushed in reverse order so that the first one is on top of the stack.
func storeStruct(i *vm.Instance, addr uint32, vals ...uint32) {
	switch addr {
	case 0:
	case stackRef:
		for k := len(vals) - 1; k >= 0; k-- {
			i.Push(vals[k])
		}
	default:
		for k, v := range vals {
			i.MemW4(addr+uint32(4*k), v)
		}
	}
}

// clampBuf returns the number of characters of a buffer argument that fit in
// memory.
func clampBuf(i *vm.Instance, buf, n uint32, uni bool) uint32 {
	if !uni {
		return i.Clamp(buf, n)
	}
	n = min(n, 0x3FFFFFFF)
	return i.Clamp(buf, 4*n) / 4
}

func storeChar(i *vm.Instance, buf, k, ch uint32, uni bool) {
	if uni {
		i.MemW4(buf+4*k, ch)
	} else {
		i.MemW1(buf+k, uint32(toLatin1(rune(ch))))
	}
}

func loadChar(i *vm.Instance, buf, k uint32, uni bool) uint32 {
	if uni {
		return i.Mem4(buf + 4*k)
	}
	return i.Mem1(buf + k)
}

// Dispatch implements vm.Host.
func (c *Console) Dispatch(i *vm.Instance, id uint32, args []uint32) (uint32, error) {
	sel, ok := selectors[id]
	if !ok {
		c.log.Warningf("unsupported glk selector %#x", id)
		return 0, nil
	}
	if len(args) < sel.argc {
		return 0, errors.Errorf("glk %s: expected %d arguments, got %d", sel.name, sel.argc, len(args))
	}
	switch id {
	case fnExit:
		c.Flush()
		return 0, vm.ErrExit
	case fnGestalt:
		return c.gestalt(args[0], args[1]), nil
	case fnGestaltExt:
		if args[0] == gestaltCharOutput && args[3] > 0 {
			storeRef(i, args[2], 1)
		}
		return c.gestalt(args[0], args[1]), nil

	case fnWindowIterate:
		w, ok := c.windows.next(args[0])
		if !ok {
			return 0, nil
		}
		storeRef(i, args[1], w.rock)
		return w.id, nil
	case fnWindowGetRock:
		if w := c.window(args[0]); w != nil {
			return w.rock, nil
		}
	case fnWindowGetRoot:
		if c.root != nil {
			return c.root.id, nil
		}
	case fnWindowOpen:
		return c.openWindow(args[0], args[2], args[3], args[4]), nil
	case fnWindowClose:
		if w := c.window(args[0]); w != nil {
			storeStruct(i, args[1], w.str.rcount, w.str.wcount)
			c.closeWindow(w)
		}
	case fnWindowGetSize:
		if w := c.window(args[0]); w != nil {
			width, height := c.windowSize(w)
			storeRef(i, args[1], width)
			storeRef(i, args[2], height)
		}
	case fnWindowGetArrange:
		storeRef(i, args[1], 0)
		storeRef(i, args[2], 0)
		storeRef(i, args[3], 0)
	case fnWindowGetType:
		if w := c.window(args[0]); w != nil {
			return w.typ, nil
		}
	case fnWindowGetStream:
		if w := c.window(args[0]); w != nil {
			return w.str.id, nil
		}
	case fnWindowSetEcho:
		if w := c.window(args[0]); w != nil {
			w.echo = nil
			if args[1] != 0 {
				w.echo = c.stream(args[1])
			}
		}
	case fnWindowGetEcho:
		if w := c.window(args[0]); w != nil && w.echo != nil {
			return w.echo.id, nil
		}
	case fnSetWindow:
		c.current = nil
		if args[0] != 0 {
			if w := c.window(args[0]); w != nil {
				c.current = w.str
			}
		}

	case fnStreamIterate:
		s, ok := c.streams.next(args[0])
		if !ok {
			return 0, nil
		}
		storeRef(i, args[1], s.rock)
		return s.id, nil
	case fnStreamGetRock:
		if s := c.stream(args[0]); s != nil {
			return s.rock, nil
		}
	case fnStreamOpenFile, fnStreamOpenFileUni:
		return c.openFileStream(args[0], args[1], args[2], id == fnStreamOpenFileUni), nil
	case fnStreamOpenMemory, fnStreamOpenMemoryUni:
		return c.openMemoryStream(i, args[0], args[1], args[2], args[3], id == fnStreamOpenMemoryUni), nil
	case fnStreamClose:
		s := c.stream(args[0])
		if s == nil {
			break
		}
		if s.kind == windowStream {
			c.log.Warningf("stream_close: cannot close window stream %d", s.id)
			break
		}
		storeStruct(i, args[1], s.rcount, s.wcount)
		c.closeStream(s)
	case fnStreamSetPosition:
		if s := c.stream(args[0]); s != nil {
			s.setPosition(int32(args[1]), args[2])
		}
	case fnStreamGetPosition:
		if s := c.stream(args[0]); s != nil {
			return s.position(), nil
		}
	case fnStreamSetCurrent:
		c.current = nil
		if args[0] != 0 {
			c.current = c.stream(args[0])
		}
	case fnStreamGetCurrent:
		if c.current != nil {
			return c.current.id, nil
		}

	case fnFilerefCreateTemp:
		return c.createTemp(args[0], args[1]), nil
	case fnFilerefCreateByName:
		name, err := cstring(i, args[1])
		if err != nil {
			return 0, errors.Wrap(err, sel.name)
		}
		return c.newFileref(c.fileName(name, args[0]), args[0], args[2], false), nil
	case fnFilerefCreateByPrmt:
		return c.createByPrompt(args[0], args[1], args[2])
	case fnFilerefDestroy:
		if f := c.fileref(args[0]); f != nil {
			if f.temp {
				os.Remove(f.name)
			}
			c.filerefs.remove(f.id)
		}
	case fnFilerefIterate:
		f, ok := c.filerefs.next(args[0])
		if !ok {
			return 0, nil
		}
		storeRef(i, args[1], f.rock)
		return f.id, nil
	case fnFilerefGetRock:
		if f := c.fileref(args[0]); f != nil {
			return f.rock, nil
		}
	case fnFilerefDeleteFile:
		if f := c.fileref(args[0]); f != nil {
			if err := os.Remove(f.name); err != nil && !os.IsNotExist(err) {
				c.log.Warningf("fileref_delete_file: %v", err)
			}
		}
	case fnFilerefDoesExist:
		if f := c.fileref(args[0]); f != nil {
			if _, err := os.Stat(f.name); err == nil {
				return 1, nil
			}
		}
	case fnFilerefFromFileref:
		if f := c.fileref(args[1]); f != nil {
			return c.newFileref(f.name, args[0], args[2], false), nil
		}

	case fnPutChar:
		c.put(c.current, args[0]&0xFF)
	case fnPutCharUni:
		c.put(c.current, args[0])
	case fnPutCharStream:
		c.put(c.stream(args[0]), args[1]&0xFF)
	case fnPutCharStreamUni:
		c.put(c.stream(args[0]), args[1])
	case fnPutString:
		return 0, c.putString(i, c.current, args[0], false)
	case fnPutStringUni:
		return 0, c.putString(i, c.current, args[0], true)
	case fnPutStringStream:
		return 0, c.putString(i, c.stream(args[0]), args[1], false)
	case fnPutStringStreamUni:
		return 0, c.putString(i, c.stream(args[0]), args[1], true)
	case fnPutBuffer:
		c.putBuffer(i, c.current, args[0], args[1], false)
	case fnPutBufferUni:
		c.putBuffer(i, c.current, args[0], args[1], true)
	case fnPutBufferStream:
		c.putBuffer(i, c.stream(args[0]), args[1], args[2], false)
	case fnPutBufferStreamUni:
		c.putBuffer(i, c.stream(args[0]), args[1], args[2], true)

	case fnGetCharStream, fnGetCharStreamUni:
		s := c.stream(args[0])
		if s == nil {
			return ^uint32(0), nil
		}
		ch, ok := s.getChar()
		if !ok {
			return ^uint32(0), nil
		}
		if id == fnGetCharStream {
			ch = uint32(toLatin1(rune(ch)))
		}
		return ch, nil
	case fnGetLineStream, fnGetLineStreamUni:
		return c.getLine(i, c.stream(args[0]), args[1], args[2], id == fnGetLineStreamUni), nil
	case fnGetBufferStream, fnGetBufferStreamUni:
		return c.getBuffer(i, c.stream(args[0]), args[1], args[2], id == fnGetBufferStreamUni), nil

	case fnCharToLower:
		return charCase(args[0], unicode.ToLower), nil
	case fnCharToUpper:
		return charCase(args[0], unicode.ToUpper), nil
	case fnBufferToLowerUni:
		return convertCase(i, args[0], args[1], args[2], cases.Lower(language.Und).String), nil
	case fnBufferToUpperUni:
		return convertCase(i, args[0], args[1], args[2], cases.Upper(language.Und).String), nil
	case fnBufferToTitleUni:
		lowerRest := args[3] != 0
		return convertCase(i, args[0], args[1], args[2], func(s string) string {
			return titleCase(s, lowerRest)
		}), nil

	case fnSelect:
		return 0, c.selectEvent(i, args[0])
	case fnSelectPoll:
		storeStruct(i, args[0], evNone, 0, 0, 0)
	case fnRequestLineEvent, fnRequestLineEventUni:
		if w := c.window(args[0]); w != nil {
			c.requestLine(i, w, args[1], args[2], args[3], id == fnRequestLineEventUni)
		}
	case fnCancelLineEvent:
		if w := c.window(args[0]); w != nil {
			c.cancelLine(i, w, args[1])
		}
	case fnRequestCharEvent, fnRequestCharEventUni:
		if w := c.window(args[0]); w != nil {
			if w.line != nil {
				c.log.Warningf("request_char_event: window %d has a pending line request", w.id)
				break
			}
			w.char = &charRequest{uni: id == fnRequestCharEventUni}
		}
	case fnCancelCharEvent:
		if w := c.window(args[0]); w != nil {
			w.char = nil
		}

	case fnStyleMeasure:
		storeRef(i, args[3], 0)
	}
	// remaining selectors are no-ops on a console: tick, interrupt handler,
	// arrangement, clear, cursor, styles, hints, images, mouse, timer and
	// hyperlink events.
	return 0, nil
}

func (c *Console) gestalt(sel, val uint32) uint32 {
	switch sel {
	case gestaltVersion:
		return glkVersion
	case gestaltCharInput:
		switch val {
		case keycodeReturn, keycodeDelete, keycodeEscape, keycodeTab:
			return 1
		}
		if val <= unicode.MaxRune && unicode.IsPrint(rune(val)) {
			return 1
		}
	case gestaltLineInput:
		if val <= unicode.MaxRune && unicode.IsPrint(rune(val)) {
			return 1
		}
	case gestaltCharOutput:
		if val == '\n' || val <= unicode.MaxRune && unicode.IsPrint(rune(val)) {
			return charOutputExact
		}
	case gestaltUnicode:
		return 1
	case gestaltUnicodeNorm, gestaltLineInputEcho:
		return 0
	}
	return 0
}

func (c *Console) openWindow(split, size, typ, rock uint32) uint32 {
	if c.root == nil && split != 0 {
		c.log.Warningf("window_open: no root window to split")
		return 0
	}
	if c.root != nil {
		if _, ok := c.windows.get(split); !ok {
			c.log.Warningf("window_open: invalid split window %d", split)
			return 0
		}
	}
	switch typ {
	case wintypeBlank, wintypeTextBuffer, wintypeTextGrid, wintypeGraphics:
	default:
		c.log.Warningf("window_open: unsupported window type %d", typ)
		return 0
	}
	w := &window{id: c.newID(), rock: rock, typ: typ, size: size}
	w.str = &stream{id: c.newID(), kind: windowStream, mode: filemodeWrite, uni: true, c: c, win: w}
	c.windows.add(w.id, w)
	c.streams.add(w.str.id, w.str)
	if c.root == nil {
		c.root = w
	}
	return w.id
}

// closeWindow closes w. Closing the root window closes all windows.
func (c *Console) closeWindow(w *window) {
	if w != c.root {
		c.dropWindow(w)
		return
	}
	for _, w := range c.windows.all() {
		c.dropWindow(w)
	}
	c.root = nil
}

func (c *Console) dropWindow(w *window) {
	c.closeStream(w.str)
	c.windows.remove(w.id)
}

func (c *Console) closeStream(s *stream) {
	if err := s.close(); err != nil {
		c.log.Warningf("stream %d: %v", s.id, err)
	}
	if c.current == s {
		c.current = nil
	}
	for _, w := range c.windows.all() {
		if w.echo == s {
			w.echo = nil
		}
	}
	c.streams.remove(s.id)
}

func (c *Console) windowSize(w *window) (width, height uint32) {
	cw, ch := 80, 24
	if c.size != nil {
		if sw, sh := c.size(); sw > 0 && sh > 0 {
			cw, ch = sw, sh
		}
	}
	switch w.typ {
	case wintypeTextBuffer:
		return uint32(cw), uint32(ch)
	case wintypeTextGrid:
		return uint32(cw), max(w.size, 1)
	}
	return 0, 0
}

func (c *Console) openMemoryStream(i *vm.Instance, buf, n, mode, rock uint32, uni bool) uint32 {
	if mode == filemodeWriteAppend || mode&^filemodeReadWrite != 0 || mode == 0 {
		c.log.Warningf("stream_open_memory: invalid mode %#x", mode)
		return 0
	}
	if buf == 0 {
		n = 0
	}
	if n > 0 {
		n = clampBuf(i, buf, n, uni)
	}
	s := &stream{id: c.newID(), rock: rock, kind: memoryStream, mode: mode, uni: uni, c: c, vm: i, buf: buf, buflen: n}
	c.streams.add(s.id, s)
	return s.id
}

func (c *Console) openFileStream(fref, mode, rock uint32, uni bool) uint32 {
	f := c.fileref(fref)
	if f == nil {
		return 0
	}
	fd, err := openFile(f.name, mode, false)
	if err != nil {
		c.log.Warningf("stream_open_file: %v", err)
		return 0
	}
	s := &stream{id: c.newID(), rock: rock, kind: fileStream, mode: mode, uni: uni, text: f.text(), c: c, f: fd, name: f.name}
	s.rr = newRuneReader(fd)
	s.rw = newWriter(fd)
	c.streams.add(s.id, s)
	return s.id
}

func (c *Console) newFileref(name string, usage, rock uint32, temp bool) uint32 {
	f := &fileref{id: c.newID(), rock: rock, name: name, usage: usage, temp: temp}
	c.filerefs.add(f.id, f)
	return f.id
}

func (c *Console) createTemp(usage, rock uint32) uint32 {
	f, err := os.CreateTemp("", "glk-*")
	if err != nil {
		c.log.Warningf("fileref_create_temp: %v", err)
		return 0
	}
	name := f.Name()
	f.Close()
	return c.newFileref(name, usage, rock, true)
}

func (c *Console) createByPrompt(usage, mode, rock uint32) (uint32, error) {
	prompt := "Enter a file name: "
	if usage&fileusageTypeMask == fileusageSavedGame {
		if mode == filemodeRead {
			prompt = "Restore from file: "
		} else {
			prompt = "Save to file: "
		}
	}
	for _, r := range prompt {
		c.out.WriteRune(r)
	}
	c.Flush()
	var line []rune
	switch err := c.readLine(&line); {
	case err == errInterrupted:
		return 0, nil
	case err == io.EOF:
		return 0, vm.ErrExit
	case err != nil:
		return 0, errors.Wrap(err, "fileref_create_by_prompt")
	}
	name := strings.TrimSpace(string(line))
	if name == "" {
		return 0, nil
	}
	return c.newFileref(c.fileName(name, usage), usage, rock, false), nil
}

// fileName converts a name supplied by the program into a file name in the
// console directory. Only the part before the first dot is kept and an
// extension is added according to the usage.
func (c *Console) fileName(name string, usage uint32) string {
	if n := strings.IndexByte(name, '.'); n >= 0 {
		name = name[:n]
	}
	name = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7F || strings.ContainsRune(`/\<>:|?*"`, r) {
			return '-'
		}
		return r
	}, name)
	if name == "" {
		name = "null"
	}
	var ext string
	switch usage & fileusageTypeMask {
	case fileusageSavedGame:
		ext = ".glksave"
	case fileusageTranscript, fileusageInputRecord:
		ext = ".txt"
	default:
		ext = ".glkdata"
	}
	return filepath.Join(c.dir, name+ext)
}

// cstring returns the content of the Latin-1 string object at addr.
func cstring(i *vm.Instance, addr uint32) (string, error) {
	if t := i.Mem1(addr); t != 0xE0 {
		return "", errors.Errorf("not a Latin-1 string at %#x (type %#x)", addr, t)
	}
	b := i.CString(addr + 1)
	var sb strings.Builder
	for _, c := range b {
		sb.WriteRune(latin1(c))
	}
	return sb.String(), nil
}

func (c *Console) putString(i *vm.Instance, s *stream, addr uint32, uni bool) error {
	if s == nil {
		return nil
	}
	if !uni {
		str, err := cstring(i, addr)
		if err != nil {
			return err
		}
		for _, r := range str {
			s.putChar(uint32(r))
		}
		return nil
	}
	if t := i.Mem1(addr); t != 0xE2 {
		return errors.Errorf("not a Unicode string at %#x (type %#x)", addr, t)
	}
	for p := addr + 4; ; p += 4 {
		ch := i.Mem4(p)
		if ch == 0 {
			return nil
		}
		s.putChar(ch)
	}
}

func (c *Console) putBuffer(i *vm.Instance, s *stream, buf, n uint32, uni bool) {
	if s == nil {
		return
	}
	n = clampBuf(i, buf, n, uni)
	for k := uint32(0); k < n; k++ {
		s.putChar(loadChar(i, buf, k, uni))
	}
}

// getLine reads characters up to and including a newline into buf, leaving
// room for a terminating zero.
func (c *Console) getLine(i *vm.Instance, s *stream, buf, n uint32, uni bool) uint32 {
	if s == nil || n == 0 {
		return 0
	}
	n = clampBuf(i, buf, n, uni)
	if n == 0 {
		return 0
	}
	var k uint32
	for k < n-1 {
		ch, ok := s.getChar()
		if !ok {
			break
		}
		storeChar(i, buf, k, ch, uni)
		k++
		if ch == '\n' {
			break
		}
	}
	storeChar(i, buf, k, 0, uni)
	return k
}

func (c *Console) getBuffer(i *vm.Instance, s *stream, buf, n uint32, uni bool) uint32 {
	if s == nil {
		return 0
	}
	n = clampBuf(i, buf, n, uni)
	var k uint32
	for ; k < n; k++ {
		ch, ok := s.getChar()
		if !ok {
			break
		}
		storeChar(i, buf, k, ch, uni)
	}
	return k
}

// charCase converts a Latin-1 character. Characters whose conversion falls
// outside of Latin-1 are unchanged.
func charCase(ch uint32, conv func(rune) rune) uint32 {
	if ch >= 0x100 {
		return ch
	}
	if r := conv(rune(ch)); r < 0x100 {
		return uint32(r)
	}
	return ch
}

// convertCase converts the first n characters of the Unicode buffer buf of
// the given size and returns the length of the converted text, which may be
// larger than size.
func convertCase(i *vm.Instance, buf, size, n uint32, conv func(string) string) uint32 {
	size = clampBuf(i, buf, size, true)
	n = min(n, size)
	rs := make([]rune, n)
	for k := range rs {
		rs[k] = rune(i.Mem4(buf + 4*uint32(k)))
	}
	out := []rune(conv(string(rs)))
	for k, r := range out {
		if uint32(k) >= size {
			break
		}
		i.MemW4(buf+4*uint32(k), uint32(r))
	}
	return uint32(len(out))
}

func titleCase(s string, lowerRest bool) string {
	rs := []rune(s)
	if len(rs) == 0 {
		return s
	}
	rest := string(rs[1:])
	if lowerRest {
		rest = cases.Lower(language.Und).String(rest)
	}
	return cases.Title(language.Und).String(string(rs[:1])) + rest
}
