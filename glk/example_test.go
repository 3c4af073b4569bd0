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

package glk_test

import (
	"fmt"
	"os"
	"strings"

	"github.com/db47h/glulx/asm"
	"github.com/db47h/glulx/glk"
	"github.com/db47h/glulx/vm"
)

// Read a line of input and greet the user.
func Example() {
	img, err := asm.Assemble("greet", strings.NewReader(`
:main	.func locals 4
	setiosys 2 0
	copy 0 sp copy 3 sp copy 0 sp copy 0 sp copy 0 sp glk 0x23 5 $0
	copy $0 sp glk 0x2F 1 _
	streamstr prompt
	copy 0 sp copy 32 sp copy name sp copy $0 sp glk 0xD0 4 _
	copy event sp glk 0xC0 1 _
	streamstr hello
	aload event 2 $4
	copy $4 sp copy name sp glk 0x84 2 _
	streamchar '!'
	return 0
:prompt	.string "Name? "
:hello	.string "Hello, "
.ramstart
:event	.space 16
:name	.space 32
`))
	if err != nil {
		fmt.Println(err)
		return
	}
	c, err := glk.New(strings.NewReader("Zork\n"), os.Stdout)
	if err != nil {
		fmt.Println(err)
		return
	}
	defer c.Close()
	i, err := vm.New(img, vm.IO(c))
	if err != nil {
		fmt.Println(err)
		return
	}
	if err = i.Run(); err != nil {
		fmt.Println(err)
	}

	// Output:
	// Name? Hello, Zork!
}
