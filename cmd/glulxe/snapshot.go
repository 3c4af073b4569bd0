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

package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/db47h/glulx/glk"
	"github.com/db47h/glulx/vm"
	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
)

var snapEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("glulxe: failed to create CBOR enc mode: %v", err))
	}
	snapEncMode = em
}

// snapshotFile is the content of a snapshot file: the VM snapshot and the
// state of the glk objects.
type snapshotFile struct {
	Game string `cbor:"1,keyasint"`
	VM   []byte `cbor:"2,keyasint"`
	Glk  []byte `cbor:"3,keyasint"`
}

// writeSnapshot writes the state of i and c to the file name. The file is
// replaced atomically.
func writeSnapshot(name, game string, i *vm.Instance, c *glk.Console) error {
	var s snapshotFile
	var buf bytes.Buffer
	if err := i.Snapshot(&buf); err != nil {
		return err
	}
	state, err := c.MarshalState()
	if err != nil {
		return err
	}
	s.Game, s.VM, s.Glk = filepath.Base(game), buf.Bytes(), state
	data, err := snapEncMode.Marshal(&s)
	if err != nil {
		return errors.Wrap(err, "snapshot")
	}
	tmp := name + ".tmp"
	if err = os.WriteFile(tmp, data, 0644); err != nil {
		return errors.Wrap(err, "snapshot")
	}
	return errors.Wrap(os.Rename(tmp, name), "snapshot")
}

// readSnapshot restores the state of i and c from the file name.
func readSnapshot(name string, i *vm.Instance, c *glk.Console) error {
	data, err := os.ReadFile(name)
	if err != nil {
		return errors.Wrap(err, "resume")
	}
	var s snapshotFile
	if err = cbor.Unmarshal(data, &s); err != nil {
		return errors.Wrapf(err, "resume %s", name)
	}
	if err = i.Resume(bytes.NewReader(s.VM)); err != nil {
		return errors.Wrapf(err, "resume %s", name)
	}
	return errors.Wrapf(c.UnmarshalState(s.Glk, i), "resume %s", name)
}
