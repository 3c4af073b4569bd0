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

import "math"

// EncodeFloat returns the IEEE-754 single precision bit pattern of f.
func EncodeFloat(f float32) uint32 {
	return math.Float32bits(f)
}

// DecodeFloat returns the float32 whose IEEE-754 bit pattern is v.
func DecodeFloat(v uint32) float32 {
	return math.Float32frombits(v)
}

// toInt converts f to an integer after rounding it with round, saturating
// on overflow. NaN saturates according to its sign bit.
func toInt(f float32, round func(float64) float64) uint32 {
	d := float64(f)
	if !math.Signbit(d) {
		if math.IsNaN(d) || d > math.MaxInt32 {
			return 0x7FFFFFFF
		}
	} else if math.IsNaN(d) || d < -math.MaxInt32 {
		return 0x80000000
	}
	return uint32(int32(round(d)))
}

// floatFunc wraps a float64 function as a single precision function.
func floatFunc(fn func(float64) float64) func(float32) float32 {
	return func(f float32) float32 {
		return float32(fn(float64(f)))
	}
}

var unaryFloatOps = map[uint32]func(float32) float32{
	OpCeil:  floatFunc(math.Ceil),
	OpFloor: floatFunc(math.Floor),
	OpSqrt:  floatFunc(math.Sqrt),
	OpExp:   floatFunc(math.Exp),
	OpLog:   floatFunc(math.Log),
	OpSin:   floatFunc(math.Sin),
	OpCos:   floatFunc(math.Cos),
	OpTan:   floatFunc(math.Tan),
	OpAsin:  floatFunc(math.Asin),
	OpAcos:  floatFunc(math.Acos),
	OpAtan:  floatFunc(math.Atan),
}

// floatEqual implements the jfeq test: |a-b| <= |delta|.
func floatEqual(a, b, delta uint32) bool {
	if delta&0x7F800000 == 0x7F800000 && delta&0x007FFFFF != 0 {
		return false
	}
	inf := func(v uint32) bool { return v == 0x7F800000 || v == 0xFF800000 }
	if inf(a) && inf(b) {
		return a == b
	}
	d := DecodeFloat(b) - DecodeFloat(a)
	e := float32(math.Abs(float64(DecodeFloat(delta))))
	return d <= e && d >= -e
}

func (i *Instance) execFloat(op uint32, ops []operand) {
	v0, v1, v2 := ops[0].val, ops[1].val, ops[2].val
	f0, f1 := DecodeFloat(v0), DecodeFloat(v1)

	if fn, ok := unaryFloatOps[op]; ok {
		i.store(ops[1], EncodeFloat(fn(f0)))
		return
	}

	switch op {
	case OpNumtof:
		i.store(ops[1], EncodeFloat(float32(int32(v0))))
	case OpFtonumz:
		i.store(ops[1], toInt(f0, math.Trunc))
	case OpFtonumn:
		i.store(ops[1], toInt(f0, math.Round))
	case OpFadd:
		i.store(ops[2], EncodeFloat(f0+f1))
	case OpFsub:
		i.store(ops[2], EncodeFloat(f0-f1))
	case OpFmul:
		i.store(ops[2], EncodeFloat(f0*f1))
	case OpFdiv:
		i.store(ops[2], EncodeFloat(f0/f1))
	case OpFmod:
		rem := float32(math.Mod(float64(f0), float64(f1)))
		quo := EncodeFloat((f0 - rem) / f1)
		if quo == 0 || quo == 0x80000000 {
			quo = (v0 ^ v1) & 0x80000000
		}
		i.store(ops[2], EncodeFloat(rem))
		i.store(ops[3], quo)
	case OpPow:
		i.store(ops[2], EncodeFloat(float32(math.Pow(float64(f0), float64(f1)))))
	case OpAtan2:
		i.store(ops[2], EncodeFloat(float32(math.Atan2(float64(f0), float64(f1)))))

	case OpJfeq:
		i.branchIf(floatEqual(v0, v1, v2), ops[3].val)
	case OpJfne:
		i.branchIf(!floatEqual(v0, v1, v2), ops[3].val)
	case OpJflt:
		i.branchIf(f0 < f1, v2)
	case OpJfle:
		i.branchIf(f0 <= f1, v2)
	case OpJfgt:
		i.branchIf(f0 > f1, v2)
	case OpJfge:
		i.branchIf(f0 >= f1, v2)
	case OpJisnan:
		i.branchIf(math.IsNaN(float64(f0)), v1)
	case OpJisinf:
		i.branchIf(math.IsInf(float64(f0), 0), v1)

	default:
		fatalf("unimplemented opcode %#x", op)
	}
}
