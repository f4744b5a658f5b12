/*
 * ssabc - Calling-convention adapter
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

// Package abi places call arguments and return values according to the
// target's calling convention, and builds the prologue/epilogue stack
// adjustments every function needs. ARM gets two extra adapter steps no
// other target does: splitting a 64-bit float argument across a pair of
// integer registers, and rewriting integer divides into a call to a
// software routine when the target has no hardware divider.
package abi

import (
	"github.com/rcornwell/ssabc/internal/attr"
	"github.com/rcornwell/ssabc/internal/ctx"
	"github.com/rcornwell/ssabc/internal/ir"
	"github.com/rcornwell/ssabc/internal/regs"
	"github.com/rcornwell/ssabc/internal/target"
)

// Placement is where one argument or return value lives: either a
// register or a byte offset on the incoming-argument stack frame.
type Placement struct {
	Reg         *regs.Register
	StackOffset int // meaningful only when Reg == nil.
}

// Convention is the set of placement rules for one target/ABI pair.
type Convention struct {
	IntArgRegs   []*regs.Register
	FloatArgRegs []*regs.Register
	ReturnReg    *regs.Register
	StackAlign   int
}

// For returns the calling convention this module targets.
func For(t *target.Features, gpr *regs.Class) Convention {
	switch t.Arch {
	case target.AMD64:
		return Convention{
			IntArgRegs: regsByName(gpr, "rdi", "rsi", "rdx", "rcx", "r8", "r9"),
			ReturnReg:  regByName(gpr, "rax"),
			StackAlign: 16,
		}
	case target.ARM:
		return Convention{
			IntArgRegs: regsByName(gpr, "r0", "r1", "r2", "r3"),
			ReturnReg:  regByName(gpr, "r0"),
			StackAlign: 8,
		}
	default: // IA32, Template: cdecl, everything on the stack.
		return Convention{ReturnReg: regByName(gpr, "eax"), StackAlign: 4}
	}
}

func regByName(c *regs.Class, name string) *regs.Register {
	for _, r := range c.Registers {
		if r.Name == name {
			return r
		}
	}
	return nil
}

func regsByName(c *regs.Class, names ...string) []*regs.Register {
	out := make([]*regs.Register, 0, len(names))
	for _, n := range names {
		if r := regByName(c, n); r != nil {
			out = append(out, r)
		}
	}
	return out
}

// PlaceArgs assigns each argument mode a Placement in order, consuming
// IntArgRegs first and spilling the remainder to the stack, each aligned to
// its own size; cdecl conventions (IntArgRegs empty) place everything on
// the stack, matching ia32's calling convention.
func (cc Convention) PlaceArgs(modes []ir.Mode) []Placement {
	out := make([]Placement, len(modes))
	nextReg := 0
	stackOff := 0
	for i, m := range modes {
		size := m.Size()
		if size == 0 {
			size = 4
		}
		if nextReg < len(cc.IntArgRegs) && size <= 8 {
			out[i] = Placement{Reg: cc.IntArgRegs[nextReg]}
			nextReg++
			continue
		}
		stackOff = align(stackOff, size)
		out[i] = Placement{StackOffset: stackOff}
		stackOff += size
	}
	return out
}

// PlaceReturn returns where a value of mode lives on return.
func (cc Convention) PlaceReturn(m ir.Mode) Placement {
	return Placement{Reg: cc.ReturnReg}
}

func align(off, a int) int {
	if a <= 1 {
		return off
	}
	return (off + a - 1) &^ (a - 1)
}

// SplitDoubleArg expands a 64-bit float argument at index into a pair of
// 32-bit integer halves for AAPCS, which has no dedicated float argument
// registers in the softfloat configuration spec §6 names via -mfpu, and
// returns the resulting placement slice (one entry longer).
func SplitDoubleArg(placements []Placement, index int, lo, hi *regs.Register) []Placement {
	out := make([]Placement, 0, len(placements)+1)
	out = append(out, placements[:index]...)
	out = append(out, Placement{Reg: lo}, Placement{Reg: hi})
	out = append(out, placements[index+1:]...)
	return out
}

// softDivideEntities names the runtime routines ARM's softfloat/no-divide
// configurations call instead of emitting `sdiv`/`udiv`.
var softDivideEntities = map[ir.Opcode]string{
	ir.OpDiv: "__aeabi_idiv",
	ir.OpMod: "__aeabi_idivmod",
}

// InjectSoftwareDivide rewrites a Div/Mod node on a target with no
// hardware divider into a Call to the matching __aeabi_* routine,
// replacing the node's generic opcode with OpCall and recording the
// target entity in a Call attribute.
func InjectSoftwareDivide(c *ctx.Ctx, id ir.NodeId) bool {
	if c.Target.Arch != target.ARM || c.Target.Has("hw-divide") {
		return false
	}
	node := c.Arena.Node(id)
	name, ok := softDivideEntities[node.Op]
	if !ok {
		return false
	}
	ent := &ir.Entity{Name: name, Kind: ir.EntityFunction}
	node.Op = ir.OpCall
	node.Attr = attr.WithCall(attr.Common{}, &attr.Call{Entity: ent, NumRegArgs: len(node.In)})
	return true
}

// Prologue builds the frame-setup sequence for a function reserving
// frameSize bytes of locals, tagged with the "ia32_IncSP" family of
// mnemonics the peephole rules (IncSPMinus4ToPop, IncSPPlusStoreToPush)
// look for.
func Prologue(c *ctx.Ctx, entry ir.NodeId, frameSize int) ir.NodeId {
	sp := c.Arena.NewNode(ir.OpAdd, ir.ModeP, entry, nil, nil)
	c.Arena.Node(sp).Attr = attr.WithImmediate(
		attr.Common{Mnemonic: "ia32_IncSP"},
		&attr.Immediate{Value: int64(frameSize)},
	)
	return sp
}

// Epilogue builds the matching frame teardown before a Return.
func Epilogue(c *ctx.Ctx, block ir.NodeId, frameSize int) ir.NodeId {
	sp := c.Arena.NewNode(ir.OpAdd, ir.ModeP, block, nil, nil)
	c.Arena.Node(sp).Attr = attr.WithImmediate(
		attr.Common{Mnemonic: "ia32_IncSP"},
		&attr.Immediate{Value: int64(-frameSize)},
	)
	return sp
}
