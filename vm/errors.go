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
	"fmt"

	"github.com/pkg/errors"
)

// Error is the type of fatal errors raised by the VM. When Run returns an
// Error (see errors.Cause), the VM state is undefined and it should not be
// resumed.
type Error struct {
	Msg string
}

func (e *Error) Error() string {
	return e.Msg
}

var (
	// ErrExit may be returned by a Host Dispatch function to request the VM to
	// stop. Run will return nil.
	ErrExit = errors.New("exit requested")
	// ErrInterrupted is returned by Run when Interrupt was called.
	ErrInterrupted = errors.New("interrupted")
)

func fatalf(format string, args ...interface{}) {
	panic(&Error{fmt.Sprintf(format, args...)})
}

// recovered converts a value recovered from a panic into an error annotated
// with the register values. Non-error values are re-panicked.
func (i *Instance) recovered(e interface{}) error {
	err, ok := e.(error)
	if !ok {
		panic(e)
	}
	return errors.Wrapf(err, "pc=%#x sp=%#x/%#x fp=%#x", i.PC, i.sp, len(i.stack), i.fp)
}

func (i *Instance) warnf(format string, args ...interface{}) {
	i.log.Warningf(format, args...)
}
