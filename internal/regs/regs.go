/*
 * ssabc - Register, register class, and register requirement model
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// Package regs models machine registers, register classes, and the
// register requirements the (external) allocator consumes and produces.
package regs

import "github.com/rcornwell/ssabc/internal/rbitset"

// Kind distinguishes ordinary allocatable registers from fixed machine
// resources and allocator scratch markers.
type Kind int

const (
	Normal  Kind = iota // an ordinary allocatable register.
	Ignore              // a fixed-register machine resource (e.g. SP); never spilled or rematerialised.
	Virtual             // a pre-allocator virtual register placeholder.
	State               // carries machine state (flags, FPU control word) rather than a value.
	Joker               // any register will do; resolved by the allocator to whatever is free.
)

// Register is one machine register within a Class.
type Register struct {
	Class *Class
	Index int // unique within Class.
	Name  string
	Kind  Kind
}

// Class is an ordered set of registers sharing a machine mode (e.g. the
// general-purpose class, the SSE class, the x87 stack).
type Class struct {
	Name      string
	Mode      string // machine mode name, e.g. "Iu32", "F64".
	Registers []*Register
}

// NewClass builds a Class and back-links each Register to it.
func NewClass(name, mode string, names []string) *Class {
	c := &Class{Name: name, Mode: mode}
	c.Registers = make([]*Register, len(names))
	for i, n := range names {
		c.Registers[i] = &Register{Class: c, Index: i, Name: n, Kind: Normal}
	}
	return c
}

// Len is the number of registers in the class.
func (c *Class) Len() int { return len(c.Registers) }

// Mask returns a fresh bitset sized to the class with no bits set, suitable
// as a limited_mask for a Requirement.
func (c *Class) Mask() *rbitset.Set {
	return rbitset.New(c.Len())
}

// MaskOf builds a mask selecting exactly the given register indices.
func (c *Class) MaskOf(indices ...int) *rbitset.Set {
	m := c.Mask()
	for _, i := range indices {
		m.Set(i)
	}
	return m
}

// ReqKind enumerates the shapes a register requirement can take.
type ReqKind int

const (
	ReqNone ReqKind = iota
	ReqNormal
	ReqLimited
	ReqSameAs      // must be assigned the same register as another slot.
	ReqDifferentAs // must be assigned a register different from another slot.
)

// Requirement is the allocator's input contract for one node slot: what
// class it needs a register from, and any constraint narrowing the choice.
type Requirement struct {
	Class       *Class
	Kind        ReqKind
	LimitedMask *rbitset.Set // ⊆ Class when Kind == ReqLimited.
	SameSlot    int          // valid when Kind == ReqSameAs.
	DiffMask    *rbitset.Set // valid when Kind == ReqDifferentAs.
}

// None is the catch-all "this slot needs no register" requirement.
var None = Requirement{Kind: ReqNone}

// Satisfies reports whether register r meets requirement req. A mismatch
// here is the "Register-requirement mismatch" fatal kind of the error
// model: the allocator's assignment violated a limited-set constraint.
func (req Requirement) Satisfies(r *Register) bool {
	switch req.Kind {
	case ReqNone:
		return true
	case ReqNormal, ReqSameAs, ReqDifferentAs:
		return req.Class == r.Class
	case ReqLimited:
		return req.Class == r.Class && req.LimitedMask.IsSet(r.Index)
	default:
		return false
	}
}
