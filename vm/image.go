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
	"bytes"
	"encoding/binary"
	"io/ioutil"

	"github.com/db47h/glulx/internal/iff"
	"github.com/pkg/errors"
)

// Magic is the Glulx game file magic number ('Glul').
const Magic = 0x476C756C

// HeaderSize is the size in bytes of the game file header.
const HeaderSize = 36

const (
	minVersion = 0x00020000
	maxVersion = 0x000301FF
)

// Header is the game file header.
type Header struct {
	Magic         uint32
	Version       uint32
	RAMStart      uint32
	ExtStart      uint32 // end of the game file data
	EndMem        uint32
	StackSize     uint32
	StartFunc     uint32
	DecodingTable uint32
	Checksum      uint32
}

// ParseHeader reads the header from the first 36 bytes of image.
func ParseHeader(image []byte) (Header, error) {
	var h Header
	if len(image) < HeaderSize {
		return h, errors.Errorf("image too short: %d bytes", len(image))
	}
	if err := binary.Read(bytes.NewReader(image[:HeaderSize]), binary.BigEndian, &h); err != nil {
		return h, errors.Wrap(err, "ParseHeader")
	}
	return h, nil
}

// Verify checks the header fields for consistency and verifies the image
// checksum.
func (h *Header) Verify(image []byte) error {
	if h.Magic != Magic {
		return errors.Errorf("bad magic number %#08x, not a Glulx game file", h.Magic)
	}
	if h.Version < minVersion || h.Version > maxVersion {
		return errors.Errorf("unsupported Glulx version %d.%d.%d", h.Version>>16, (h.Version>>8)&0xFF, h.Version&0xFF)
	}
	if h.RAMStart < 0x100 || h.ExtStart < h.RAMStart || h.EndMem < h.ExtStart {
		return errors.Errorf("inconsistent memory layout: RAMSTART=%#x EXTSTART=%#x ENDMEM=%#x", h.RAMStart, h.ExtStart, h.EndMem)
	}
	if (h.RAMStart|h.ExtStart|h.EndMem|h.StackSize)&0xFF != 0 {
		return errors.New("memory layout values must be multiples of 256")
	}
	if uint32(len(image)) < h.ExtStart {
		return errors.Errorf("image truncated: %d bytes, expected %d", len(image), h.ExtStart)
	}
	if sum := Checksum(image[:h.ExtStart]); sum != h.Checksum {
		return errors.Errorf("checksum mismatch: computed %#08x, header says %#08x", sum, h.Checksum)
	}
	return nil
}

// Checksum computes the game file checksum of data: the sum of all big-endian
// 32 bits words, the checksum field itself being counted as zero.
func Checksum(data []byte) uint32 {
	var sum uint32
	for p := 0; p+4 <= len(data); p += 4 {
		if p == 32 {
			continue
		}
		sum += binary.BigEndian.Uint32(data[p:])
	}
	return sum
}

// Load loads a game file from file fileName. If the file is a Blorb archive,
// the Glulx executable chunk is extracted from it.
func Load(fileName string) ([]byte, error) {
	data, err := ioutil.ReadFile(fileName)
	if err != nil {
		return nil, errors.Wrap(err, "Load")
	}
	if len(data) >= 12 && bytes.Equal(data[:4], []byte("FORM")) && bytes.Equal(data[8:12], []byte("IFRS")) {
		data, err = blorbExec(data)
		if err != nil {
			return nil, errors.Wrapf(err, "Load %s", fileName)
		}
	}
	return data, nil
}

// blorbExec returns the content of the first GLUL chunk in a Blorb file.
func blorbExec(data []byte) ([]byte, error) {
	r, err := iff.NewReader(bytes.NewReader(data), iff.MakeID("IFRS"))
	if err != nil {
		return nil, err
	}
	for {
		c, err := r.Next()
		if err != nil {
			return nil, errors.Wrap(err, "no GLUL chunk in Blorb file")
		}
		if c.ID == iff.MakeID("GLUL") {
			return c.Data, nil
		}
	}
}
