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

// Package iff reads and writes the IFF containers used by save files and
// Blorb archives, along with some commonly used io helpers.
package iff

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// ID is a four character chunk identifier.
type ID uint32

// MakeID returns the ID for the given four character string.
func MakeID(s string) ID {
	var b [4]byte
	copy(b[:], s)
	return ID(binary.BigEndian.Uint32(b[:]))
}

func (id ID) String() string {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(id))
	return string(b[:])
}

var form = MakeID("FORM")

// ErrWriter is a simple wrapper to track io errors. Write will keep returning
// the last error over and over.
type ErrWriter struct {
	w   io.Writer
	Err error
}

func (w *ErrWriter) Write(p []byte) (n int, err error) {
	if w.Err != nil {
		return 0, w.Err
	}
	n, err = w.w.Write(p)
	if err != nil {
		w.Err = errors.Wrap(err, "write failed")
	}
	return n, w.Err
}

// NewErrWriter returns a new ErrWriter.
func NewErrWriter(w io.Writer) *ErrWriter {
	return &ErrWriter{w, nil}
}

// Chunk is a single IFF chunk.
type Chunk struct {
	ID   ID
	Data []byte
}

// Writer buffers chunks and writes them as a single FORM when closed.
type Writer struct {
	w        *ErrWriter
	formType ID
	buf      bytes.Buffer
}

// NewWriter returns a Writer for a FORM of the given type.
func NewWriter(w io.Writer, formType ID) *Writer {
	return &Writer{w: NewErrWriter(w), formType: formType}
}

// WriteChunk appends a chunk to the form. Odd length chunks are padded.
func (w *Writer) WriteChunk(id ID, data []byte) {
	var b [8]byte
	binary.BigEndian.PutUint32(b[:], uint32(id))
	binary.BigEndian.PutUint32(b[4:], uint32(len(data)))
	w.buf.Write(b[:])
	w.buf.Write(data)
	if len(data)&1 != 0 {
		w.buf.WriteByte(0)
	}
}

// Close writes the FORM to the underlying writer.
func (w *Writer) Close() error {
	var b [12]byte
	binary.BigEndian.PutUint32(b[:], uint32(form))
	binary.BigEndian.PutUint32(b[4:], uint32(w.buf.Len()+4))
	binary.BigEndian.PutUint32(b[8:], uint32(w.formType))
	w.w.Write(b[:])
	w.w.Write(w.buf.Bytes())
	return w.w.Err
}

// Reader reads chunks from a FORM.
type Reader struct {
	r         io.Reader
	remaining uint32
}

// NewReader reads the FORM header from r and checks its type.
func NewReader(r io.Reader, formType ID) (*Reader, error) {
	var b [12]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return nil, errors.Wrap(err, "IFF header")
	}
	if ID(binary.BigEndian.Uint32(b[:])) != form {
		return nil, errors.New("not an IFF file")
	}
	if t := ID(binary.BigEndian.Uint32(b[8:])); t != formType {
		return nil, errors.Errorf("IFF form type is %s, expected %s", t, formType)
	}
	l := binary.BigEndian.Uint32(b[4:])
	if l < 4 {
		return nil, errors.New("IFF form too short")
	}
	return &Reader{r: r, remaining: l - 4}, nil
}

// Next returns the next chunk in the form, or io.EOF.
func (r *Reader) Next() (*Chunk, error) {
	if r.remaining < 8 {
		return nil, io.EOF
	}
	var b [8]byte
	if _, err := io.ReadFull(r.r, b[:]); err != nil {
		return nil, errors.Wrap(err, "chunk header")
	}
	r.remaining -= 8
	l := binary.BigEndian.Uint32(b[4:])
	padded := l + l&1
	if padded > r.remaining {
		return nil, errors.Errorf("chunk %s overflows form", ID(binary.BigEndian.Uint32(b[:])))
	}
	data := make([]byte, padded)
	if _, err := io.ReadFull(r.r, data); err != nil {
		return nil, errors.Wrap(err, "chunk data")
	}
	r.remaining -= padded
	return &Chunk{ID: ID(binary.BigEndian.Uint32(b[:])), Data: data[:l]}, nil
}
