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

// accelFunc identifies a native replacement for a library routine.
type accelFunc uint32

// Accelerated functions. Functions 1 to 7 assume the original object layout
// with 7 attribute bytes, 8 to 13 use the NumAttrBytes parameter.
const (
	accelNone     accelFunc = iota
	accelZRegion            // Z__Region
	accelCPTab              // CP__Tab
	accelRAPr               // RA__Pr
	accelRLPr               // RL__Pr
	accelOCCl               // OC__Cl
	accelRVPr               // RV__Pr
	accelOPPr               // OP__Pr
	accelCPTabNew           // CP__Tab, parameterized attribute bytes
	accelRAPrNew            // RA__Pr, parameterized attribute bytes
	accelRLPrNew            // RL__Pr, parameterized attribute bytes
	accelOCClNew            // OC__Cl, parameterized attribute bytes
	accelRVPrNew            // RV__Pr, parameterized attribute bytes
	accelOPPrNew            // OP__Pr, parameterized attribute bytes
	accelCount
)

var accelNames = [accelCount]string{
	"", "Z__Region", "CP__Tab", "RA__Pr", "RL__Pr", "OC__Cl", "RV__Pr", "OP__Pr",
	"CP__Tab", "RA__Pr", "RL__Pr", "OC__Cl", "RV__Pr", "OP__Pr",
}

// Acceleration parameters.
const (
	ParamClassesTable = iota
	ParamIndivPropStart
	ParamClassMetaclass
	ParamObjectMetaclass
	ParamRoutineMetaclass
	ParamStringMetaclass
	ParamSelf
	ParamNumAttrBytes
	ParamCPVStart
	AccelParamCount
)

const oldAttrBytes = 7

type accel struct {
	funcs  map[uint32]accelFunc
	params [AccelParamCount]uint32
}

func (a *accel) lookup(addr uint32) accelFunc {
	if a.funcs == nil {
		return accelNone
	}
	return a.funcs[addr]
}

func (a *accel) setParam(index, v uint32) {
	if index < AccelParamCount {
		a.params[index] = v
	}
}

func (a *accel) param(index uint32) uint32 {
	if index < AccelParamCount {
		return a.params[index]
	}
	return 0
}

// AccelParam returns the value of the given acceleration parameter.
func (i *Instance) AccelParam(index uint32) uint32 {
	return i.accel.param(index)
}

// AccelFunc returns the index of the native function bound to addr, or 0.
func (i *Instance) AccelFunc(addr uint32) uint32 {
	return uint32(i.accel.lookup(addr))
}

// accelSetFunc binds the function at addr to the native function index. An
// index of zero, or one that names no native function, removes the binding.
func (i *Instance) accelSetFunc(index, addr uint32) {
	if t := i.Mem1(addr); t != funcStack && t != funcLocals {
		fatalf("attempt to accelerate non-function at %#x", addr)
	}
	if index == 0 || index >= uint32(accelCount) {
		delete(i.accel.funcs, addr)
		if index != 0 {
			i.warnf("attempt to accelerate unknown function %d at %#x", index, addr)
		}
		return
	}
	if i.accel.funcs == nil {
		i.accel.funcs = make(map[uint32]accelFunc)
	}
	i.accel.funcs[addr] = accelFunc(index)
	i.log.Debugf("accelerated %s (%d) at %#x", accelNames[index], index, addr)
}

// accelError reports a programming error detected by a native routine.
func (i *Instance) accelError(msg string) {
	i.warnf("%s", msg)
	i.Print("\n" + msg + "\n")
}

func arg(args []uint32, n int) uint32 {
	if n < len(args) {
		return args[n]
	}
	return 0
}

// callAccel runs the native function f.
func (i *Instance) callAccel(f accelFunc, args []uint32) uint32 {
	a0, a1 := arg(args, 0), arg(args, 1)
	attr := i.accel.params[ParamNumAttrBytes]
	switch f {
	case accelZRegion:
		if len(args) < 1 {
			return 0
		}
		return i.zRegion(a0)
	case accelCPTab:
		return i.cpTab(a0, a1, oldAttrBytes)
	case accelRAPr:
		return i.raPr(a0, a1, oldAttrBytes)
	case accelRLPr:
		return i.rlPr(a0, a1, oldAttrBytes)
	case accelOCCl:
		return i.ocCl(a0, a1, oldAttrBytes)
	case accelRVPr:
		return i.rvPr(a0, a1, oldAttrBytes)
	case accelOPPr:
		return i.opPr(a0, a1, oldAttrBytes)
	case accelCPTabNew:
		return i.cpTab(a0, a1, attr)
	case accelRAPrNew:
		return i.raPr(a0, a1, attr)
	case accelRLPrNew:
		return i.rlPr(a0, a1, attr)
	case accelOCClNew:
		return i.ocCl(a0, a1, attr)
	case accelRVPrNew:
		return i.rvPr(a0, a1, attr)
	case accelOPPrNew:
		return i.opPr(a0, a1, attr)
	}
	fatalf("unknown accelerated function %d", f)
	return 0
}

// zRegion classifies addr: 1 for objects, 2 for functions, 3 for strings
// and 0 for anything else.
func (i *Instance) zRegion(addr uint32) uint32 {
	if addr < HeaderSize || addr >= i.endmem {
		return 0
	}
	tb := i.Mem1(addr)
	switch {
	case tb >= 0xE0:
		return 3
	case tb >= 0xC0:
		return 2
	case tb >= 0x70 && tb <= 0x7F && addr >= i.hdr.RAMStart:
		return 1
	}
	return 0
}

// objInClass reports whether obj is a class object.
func (i *Instance) objInClass(obj, attr uint32) bool {
	return i.Mem4(obj+13+attr) == i.accel.params[ParamClassMetaclass]
}

func (i *Instance) cpTab(obj, id, attr uint32) uint32 {
	if i.zRegion(obj) != 1 {
		i.accelError("[** Programming error: tried to find the \".\" of (something) **]")
		return 0
	}
	otab := i.Mem4(obj + 4*(3+attr/4))
	if otab == 0 {
		return 0
	}
	return i.BinarySearch(id, 2, otab+4, 10, i.Mem4(otab), 0, 0)
}

func (i *Instance) getProp(obj, id, attr uint32) uint32 {
	var cla uint32
	if id&0xFFFF0000 != 0 {
		cla = i.Mem4(i.accel.params[ParamClassesTable] + 4*(id&0xFFFF))
		if i.ocCl(obj, cla, attr) == 0 {
			return 0
		}
		id >>= 16
		obj = cla
	}
	prop := i.cpTab(obj, id, attr)
	if prop == 0 {
		return 0
	}
	if i.objInClass(obj, attr) && cla == 0 {
		start := i.accel.params[ParamIndivPropStart]
		if id < start || id >= start+8 {
			return 0
		}
	}
	if i.Mem4(i.accel.params[ParamSelf]) != obj {
		if i.Mem1(prop+9)&1 != 0 {
			return 0
		}
	}
	return prop
}

func (i *Instance) raPr(obj, id, attr uint32) uint32 {
	prop := i.getProp(obj, id, attr)
	if prop == 0 {
		return 0
	}
	return i.Mem4(prop + 4)
}

func (i *Instance) rlPr(obj, id, attr uint32) uint32 {
	prop := i.getProp(obj, id, attr)
	if prop == 0 {
		return 0
	}
	return 4 * i.Mem2(prop+2)
}

func (i *Instance) ocCl(obj, cla, attr uint32) uint32 {
	p := &i.accel.params
	switch i.zRegion(obj) {
	case 3:
		return b2u(cla == p[ParamStringMetaclass])
	case 2:
		return b2u(cla == p[ParamRoutineMetaclass])
	case 1:
	default:
		return 0
	}
	isMeta := obj == p[ParamClassMetaclass] || obj == p[ParamStringMetaclass] ||
		obj == p[ParamRoutineMetaclass] || obj == p[ParamObjectMetaclass]
	switch cla {
	case p[ParamClassMetaclass]:
		return b2u(i.objInClass(obj, attr) || isMeta)
	case p[ParamObjectMetaclass]:
		return b2u(!i.objInClass(obj, attr) && !isMeta)
	case p[ParamStringMetaclass], p[ParamRoutineMetaclass]:
		return 0
	}
	if !i.objInClass(cla, attr) {
		i.accelError("[** Programming error: tried to apply 'ofclass' with non-class **]")
		return 0
	}
	inlist := i.raPr(obj, 2, attr)
	if inlist == 0 {
		return 0
	}
	n := i.rlPr(obj, 2, attr) / 4
	for k := uint32(0); k < n; k++ {
		if i.Mem4(inlist+4*k) == cla {
			return 1
		}
	}
	return 0
}

func (i *Instance) rvPr(obj, id, attr uint32) uint32 {
	addr := i.raPr(obj, id, attr)
	if addr == 0 {
		if id > 0 && id < i.accel.params[ParamIndivPropStart] {
			return i.Mem4(i.accel.params[ParamCPVStart] + 4*id)
		}
		i.accelError("[** Programming error: tried to read (something) **]")
		return 0
	}
	return i.Mem4(addr)
}

func (i *Instance) opPr(obj, id, attr uint32) uint32 {
	start := i.accel.params[ParamIndivPropStart]
	switch i.zRegion(obj) {
	case 3:
		// print and print_to_array
		return b2u(id == start+6 || id == start+7)
	case 2:
		// call
		return b2u(id == start+5)
	case 1:
	default:
		return 0
	}
	if id >= start && id < start+8 && i.objInClass(obj, attr) {
		return 1
	}
	return b2u(i.raPr(obj, id, attr) != 0)
}

func b2u(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
