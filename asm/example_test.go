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

package asm_test

import (
	"fmt"
	"os"
	"strings"

	"github.com/db47h/glulx/asm"
)

// Shows off some of the assembler features.
func ExampleAssemble() {
	code := `
		( a constant definition. Does not generate any code on its own )
		.equ ANSWER 42

:main	.func locals 1
		add 1 2 sp
		copy sp $0
		streamnum $0
		callf main _
		jne $0 3 >end
:end	return ANSWER
`

	img, err := asm.Assemble("raw_string", strings.NewReader(code))
	if err != nil {
		fmt.Println(err)
		return
	}

	asm.DisassembleAll(img, 0x29, 0x46, os.Stdout)

	// Output:
	// 00000029	add 1 2 sp
	// 0000002e	copy sp $0
	// 00000031	streamnum $0
	// 00000034	callf 36 _
	// 0000003b	jne $0 3 2
	// 00000044	return 42
}

// Demonstrates use of local labels
func ExampleAssemble_localLabels() {
	code := `
:main	.func locals 1
:1		jump >1+
:1		jump >1-
`
	img, err := asm.Assemble("local_labels", strings.NewReader(code))
	if err != nil {
		fmt.Println(err)
		return
	}
	asm.DisassembleAll(img, 0x29, 0x35, os.Stdout)

	// Output:
	// 00000029	jump 2
	// 0000002f	jump -4
}
