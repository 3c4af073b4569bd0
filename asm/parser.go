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

package asm

import (
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/scanner"
	"unicode"

	"github.com/db47h/glulx/vm"
)

const (
	defaultStackSize = 0x1000
	defaultVersion   = 0x00030103
)

func isIdentRune(ch rune, i int) bool {
	if ch == '"' {
		return false
	}
	return unicode.IsLetter(ch) || unicode.IsSymbol(ch) || unicode.IsPunct(ch) || unicode.IsDigit(ch)
}

type label struct {
	pos     scanner.Position
	address int
}

// reloc is a 4 bytes field to patch with the address of a label. For
// branches, the field receives the branch offset instead.
type reloc struct {
	pos    scanner.Position
	name   string
	at     int
	branch bool
	end    int
}

// operand is an encoded instruction operand.
type operand struct {
	mode byte
	data []byte
	rel  *reloc
}

type parser struct {
	img    []byte
	s      scanner.Scanner
	labels map[string]*label
	consts map[string]int64
	locals map[string]int // local label definition counts
	relocs []*reloc
	errs   ErrAsm
	skip   int // line to skip after an error

	ramStart int
	stack    int64
	extend   int64
	start    string
	table    string
}

func newParser() *parser {
	return &parser{
		img:    make([]byte, vm.HeaderSize),
		labels: make(map[string]*label),
		consts: make(map[string]int64),
		locals: make(map[string]int),
		stack:  defaultStackSize,
	}
}

func (p *parser) error(pos scanner.Position, msg string) {
	if !pos.IsValid() {
		pos = p.s.Pos()
	}
	if len(p.errs) < 10 {
		p.errs = append(p.errs, ErrAsmEntry{pos, msg})
	}
	p.skip = pos.Line
}

func (p *parser) errorf(format string, args ...interface{}) {
	p.error(p.s.Position, fmt.Sprintf(format, args...))
}

// next returns the next token, skipping comments.
func (p *parser) next() (rune, string) {
	for {
		tok := p.s.Scan()
		if tok == scanner.Ident && p.s.TokenText() == "(" {
			for tok = p.s.Scan(); tok != scanner.EOF && (tok != scanner.Ident || p.s.TokenText() != ")"); tok = p.s.Scan() {
			}
			if tok == scanner.EOF {
				p.errorf("unterminated comment")
				return tok, ""
			}
			continue
		}
		return tok, p.s.TokenText()
	}
}

// arg returns the next token as a directive or instruction argument.
func (p *parser) arg(what string) (string, bool) {
	tok, s := p.next()
	if tok != scanner.Ident {
		p.errorf("%s: unexpected %s", what, scanner.TokenString(tok))
		return "", false
	}
	return s, true
}

func (p *parser) value(s string) (int64, bool) {
	if n, err := strconv.ParseInt(s, 0, 64); err == nil {
		return n, true
	}
	if n, err := strconv.ParseUint(s, 0, 32); err == nil {
		return int64(n), true
	}
	if len(s) > 2 && s[0] == '\'' && s[len(s)-1] == '\'' {
		r, _, _, err := strconv.UnquoteChar(s[1:len(s)-1], '\'')
		if err == nil {
			return int64(r), true
		}
	}
	if v, ok := p.consts[s]; ok {
		return v, true
	}
	return 0, false
}

func (p *parser) intArg(what string) (int64, bool) {
	s, ok := p.arg(what)
	if !ok {
		return 0, false
	}
	v, ok := p.value(s)
	if !ok {
		p.errorf("%s: expected a number, got %s", what, s)
	}
	return v, ok
}

func isLocalLabel(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// labelName resolves N+ and N- local label references.
func (p *parser) labelName(s string) string {
	if n := len(s) - 1; n > 0 && isLocalLabel(s[:n]) {
		switch s[n] {
		case '-':
			return s[:n] + "·" + strconv.Itoa(p.locals[s[:n]])
		case '+':
			return s[:n] + "·" + strconv.Itoa(p.locals[s[:n]]+1)
		}
	}
	return s
}

func (p *parser) defineLabel(name string) {
	if name == "" {
		p.errorf("empty label name")
		return
	}
	if isLocalLabel(name) {
		p.locals[name]++
		name += "·" + strconv.Itoa(p.locals[name])
	}
	if _, ok := p.consts[name]; ok {
		p.errorf("label redefinition: %s, previously defined as a constant", name)
		return
	}
	if l, ok := p.labels[name]; ok {
		p.errorf("label redefinition: %s, previous definition here: %s", name, l.pos)
		return
	}
	p.labels[name] = &label{p.s.Position, len(p.img)}
}

func (p *parser) addReloc(name string, at int, branch bool) *reloc {
	r := &reloc{pos: p.s.Position, name: p.labelName(name), at: at, branch: branch}
	p.relocs = append(p.relocs, r)
	return r
}

func (p *parser) write(b ...byte) {
	p.img = append(p.img, b...)
}

func (p *parser) write32(v uint32) {
	p.img = binary.BigEndian.AppendUint32(p.img, v)
}

func sized(v int64, signed bool) (byte, []byte) {
	switch {
	case signed && v >= -0x80 && v < 0x80, !signed && v >= 0 && v < 0x100:
		return 1, []byte{byte(v)}
	case signed && v >= -0x8000 && v < 0x8000, !signed && v >= 0 && v < 0x10000:
		return 2, binary.BigEndian.AppendUint16(nil, uint16(v))
	}
	return 3, binary.BigEndian.AppendUint32(nil, uint32(v))
}

// operand parses an operand token.
func (p *parser) operand(s string, store bool) (operand, bool) {
	switch {
	case s == "sp":
		return operand{mode: 8}, true
	case s == "_":
		return operand{mode: 0}, true
	case len(s) > 1 && s[0] == '$':
		v, ok := p.value(s[1:])
		if !ok || v < 0 {
			p.errorf("invalid local offset %s", s)
			return operand{}, false
		}
		m, d := sized(v, false)
		return operand{mode: 8 + m, data: d}, true
	case len(s) > 1 && s[0] == '@':
		v, ok := p.value(s[1:])
		if !ok || v < 0 {
			p.errorf("invalid RAM address %s", s)
			return operand{}, false
		}
		m, d := sized(v, false)
		return operand{mode: 12 + m, data: d}, true
	case len(s) > 2 && s[0] == '[' && s[len(s)-1] == ']':
		inner := s[1 : len(s)-1]
		if v, ok := p.value(inner); ok {
			m, d := sized(v, false)
			return operand{mode: 4 + m, data: d}, true
		}
		return operand{mode: 7, data: make([]byte, 4), rel: &reloc{name: p.labelName(inner)}}, true
	}
	if store {
		p.errorf("invalid store operand %s", s)
		return operand{}, false
	}
	if len(s) > 1 && s[0] == '>' {
		return operand{mode: 3, data: make([]byte, 4), rel: &reloc{name: p.labelName(s[1:]), branch: true}}, true
	}
	if v, ok := p.value(s); ok {
		if v == 0 {
			return operand{mode: 0}, true
		}
		m, d := sized(v, true)
		return operand{mode: m, data: d}, true
	}
	return operand{mode: 3, data: make([]byte, 4), rel: &reloc{name: p.labelName(s)}}, true
}

func (p *parser) instruction(name string, op uint32, form string) {
	var ops [8]operand
	for k := range form {
		s, ok := p.arg(name)
		if !ok {
			return
		}
		if ops[k], ok = p.operand(s, form[k] == 'S'); !ok {
			return
		}
	}
	switch {
	case op < 0x80:
		p.write(byte(op))
	case op < 0x4000:
		p.write(byte(op>>8|0x80), byte(op))
	default:
		p.write32(op | 0xC0000000)
	}
	for k := 0; k < len(form); k += 2 {
		b := ops[k].mode
		if k+1 < len(form) {
			b |= ops[k+1].mode << 4
		}
		p.write(b)
	}
	var rels []*reloc
	for k := range form {
		if r := ops[k].rel; r != nil {
			r.pos = p.s.Position
			r.at = len(p.img)
			p.relocs = append(p.relocs, r)
			rels = append(rels, r)
		}
		p.write(ops[k].data...)
	}
	for _, r := range rels {
		r.end = len(p.img)
	}
}

func (p *parser) align(n int) {
	for len(p.img)%n != 0 {
		p.write(0)
	}
}

func (p *parser) directive(d string) {
	switch d {
	case ".equ":
		name, ok := p.arg(d)
		if !ok {
			return
		}
		if l, ok := p.labels[name]; ok {
			p.errorf(".equ: redefinition of %s, previously defined as a label here: %s", name, l.pos)
			return
		}
		if v, ok := p.intArg(d); ok {
			p.consts[name] = v
		}
	case ".func":
		kind, ok := p.arg(d)
		if !ok {
			return
		}
		switch kind {
		case "stack":
			p.write(0xC0)
		case "locals":
			p.write(0xC1)
		default:
			p.errorf(".func: function type must be stack or locals, got %s", kind)
			return
		}
		n, ok := p.intArg(d)
		if !ok {
			return
		}
		for ; n > 0; n -= 255 {
			p.write(4, byte(min(n, 255)))
		}
		p.write(0, 0)
	case ".byte":
		if v, ok := p.intArg(d); ok {
			p.write(byte(v))
		}
	case ".short":
		if v, ok := p.intArg(d); ok {
			p.img = binary.BigEndian.AppendUint16(p.img, uint16(v))
		}
	case ".word":
		s, ok := p.arg(d)
		if !ok {
			return
		}
		if v, ok := p.value(s); ok {
			p.write32(uint32(v))
			return
		}
		p.addReloc(s, len(p.img), false)
		p.write32(0)
	case ".string", ".unistring":
		tok, s := p.next()
		if tok != scanner.String {
			p.errorf("%s: expected a string", d)
			return
		}
		str, err := strconv.Unquote(s)
		if err != nil {
			p.errorf("%s: %v", d, err)
			return
		}
		if d == ".string" {
			p.write(0xE0)
			for _, r := range str {
				if r > 0xFF {
					p.errorf(".string: character %q out of Latin-1 range", r)
					return
				}
				p.write(byte(r))
			}
			p.write(0)
			return
		}
		p.write(0xE2, 0, 0, 0)
		for _, r := range str {
			p.write32(uint32(r))
		}
		p.write32(0)
	case ".space":
		if n, ok := p.intArg(d); ok {
			if n < 0 {
				p.errorf(".space: negative size %d", n)
				return
			}
			p.img = append(p.img, make([]byte, n)...)
		}
	case ".align":
		if n, ok := p.intArg(d); ok && n > 0 {
			p.align(int(n))
		}
	case ".ramstart":
		if p.ramStart != 0 {
			p.errorf(".ramstart: RAM already started")
			return
		}
		p.align(256)
		p.ramStart = len(p.img)
	case ".stack":
		if n, ok := p.intArg(d); ok {
			p.stack = n
		}
	case ".extend":
		if n, ok := p.intArg(d); ok {
			p.extend = n
		}
	case ".start":
		p.start, _ = p.arg(d)
	case ".table":
		p.table, _ = p.arg(d)
	default:
		p.errorf("unknown directive %s", d)
	}
}

// Parse assembles the source read from r.
func (p *parser) Parse(name string, r io.Reader) ([]byte, error) {
	p.s.Init(r)
	p.s.Error = func(s *scanner.Scanner, msg string) {
		p.error(s.Position, msg)
	}
	p.s.IsIdentRune = isIdentRune
	p.s.Mode = scanner.ScanIdents | scanner.ScanStrings
	p.s.Filename = name

	for tok, s := p.next(); tok != scanner.EOF; tok, s = p.next() {
		if p.s.Position.Line == p.skip {
			continue
		}
		if tok != scanner.Ident {
			p.errorf("unexpected %s", scanner.TokenString(tok))
			continue
		}
		switch {
		case s[0] == ':':
			p.defineLabel(s[1:])
		case s[0] == '.':
			p.directive(s)
		default:
			op, ok := mnemonics[s]
			if !ok {
				p.errorf("unknown instruction %s", s)
				continue
			}
			_, form, _ := vm.OpcodeInfo(op)
			p.instruction(s, op, form)
		}
	}
	return p.link()
}

func align256(n int64) int64 {
	return (n + 0xFF) &^ 0xFF
}

// link resolves labels and builds the header.
func (p *parser) link() ([]byte, error) {
	for _, r := range p.relocs {
		l, ok := p.labels[r.name]
		if !ok {
			p.error(r.pos, "undefined label "+strings.SplitN(r.name, "·", 2)[0])
			continue
		}
		v := uint32(l.address)
		if r.branch {
			v = uint32(l.address - r.end + 2)
		}
		binary.BigEndian.PutUint32(p.img[r.at:], v)
	}

	var start, table uint32
	if p.start == "" {
		p.start = "main"
	}
	if l, ok := p.labels[p.start]; ok {
		start = uint32(l.address)
	} else {
		p.error(scanner.Position{Filename: p.s.Filename}, "undefined start function "+p.start)
	}
	if p.table != "" {
		if l, ok := p.labels[p.table]; ok {
			table = uint32(l.address)
		} else {
			p.error(scanner.Position{Filename: p.s.Filename}, "undefined decoding table "+p.table)
		}
	}
	if len(p.errs) > 0 {
		return nil, p.errs
	}

	extStart := align256(max(int64(len(p.img)), 256))
	ramStart := int64(p.ramStart)
	if ramStart == 0 {
		ramStart = extStart
	}
	p.img = append(p.img, make([]byte, extStart-int64(len(p.img)))...)
	h := []uint32{
		vm.Magic,
		defaultVersion,
		uint32(ramStart),
		uint32(extStart),
		uint32(extStart + align256(p.extend)),
		uint32(align256(p.stack)),
		start,
		table,
		0,
	}
	for k, v := range h {
		binary.BigEndian.PutUint32(p.img[4*k:], v)
	}
	binary.BigEndian.PutUint32(p.img[32:], vm.Checksum(p.img))
	return p.img, nil
}
