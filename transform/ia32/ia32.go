/*
 * ssabc - ia32 node selection
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

// Package ia32 is the transform.Selector for the 32-bit x86 target,
// ported from libFirm's ia32_transform.c: source address-mode folding for
// loads, destination address-mode folding for read-modify-write stores,
// and the Setcc synthesis table for comparisons feeding non-branch
// consumers. Every selector here also carries its mnemonic's GAS format
// string (format.go), since emit.Writer.Instruction only prints text it
// finds on the node's Common.AsmText.
package ia32

import (
	"fmt"
	"math/bits"

	"github.com/rcornwell/ssabc/internal/addrmode"
	"github.com/rcornwell/ssabc/internal/attr"
	"github.com/rcornwell/ssabc/internal/ctx"
	"github.com/rcornwell/ssabc/internal/ir"
	"github.com/rcornwell/ssabc/internal/rbitset"
	"github.com/rcornwell/ssabc/internal/regs"
)

// GPR is the ia32 general-purpose register class: eax/ebx/ecx/edx/esi/edi/
// ebp/esp, matching the eight-register x86 integer file.
var GPR = regs.NewClass("gp", "Iu", []string{"eax", "ebx", "ecx", "edx", "esi", "edi", "ebp", "esp"})

type Selector struct{}

func New() Selector { return Selector{} }

func (Selector) Select(c *ctx.Ctx, n ir.NodeId) (*attr.Node, bool) {
	node := c.Arena.Node(n)
	switch node.Op {
	case ir.OpConst:
		return selectConst(c, node), true
	case ir.OpAdd, ir.OpSub, ir.OpAnd, ir.OpOr, ir.OpEor:
		return selectBinop(c, n, node), true
	case ir.OpMul, ir.OpMulh, ir.OpDiv, ir.OpMod, ir.OpDivMod:
		return selectArith(c, node), true
	case ir.OpShl, ir.OpShr, ir.OpShrs, ir.OpRotl:
		return selectShift(c, node), true
	case ir.OpLoad:
		return selectLoad(c, n, node), true
	case ir.OpStore:
		return selectStore(c, n, node), true
	case ir.OpConv:
		return selectConv(c, node), true
	case ir.OpCond:
		return selectCond(c, node), true
	case ir.OpReturn:
		return finish(attr.NewCommon(attr.Common{OpType: attr.Normal, Mnemonic: "ia32_Ret"})), true
	case ir.OpPhi:
		return attr.NewCommon(attr.Common{OpType: attr.Normal}), true
	default:
		return nil, false
	}
}

func selectConst(c *ctx.Ctx, node *ir.Node) *attr.Node {
	v, _ := node.Attr.(ir.ConstAttr)
	return finish(attr.WithImmediate(
		attr.Common{OpType: attr.Normal, Mnemonic: "ia32_Const",
			OutReqs: []regs.Requirement{{Class: GPR, Kind: regs.ReqNormal}}},
		&attr.Immediate{Value: v.Value},
	))
}

func selectBinop(c *ctx.Ctx, n ir.NodeId, node *ir.Node) *attr.Node {
	common := attr.Common{
		OpType:   attr.Normal,
		Mnemonic: "ia32_" + node.Op.String(),
		InReqs:   []regs.Requirement{{Class: GPR, Kind: regs.ReqNormal}, {Class: GPR, Kind: regs.ReqNormal}},
		OutReqs:  []regs.Requirement{{Class: GPR, Kind: regs.ReqSameAs, SameSlot: 0}},
	}
	// Add is the one opcode AM folding commonly applies to on the
	// arithmetic side (LEA-style base+index*scale+disp), per
	// match_arguments/build_address.
	if node.Op == ir.OpAdd {
		if m, ok := addrmode.Match(graphOf(c), n, 0); ok {
			common.AddrMode = &m
			common.OpType = attr.AddrModeSource
			common.Mnemonic = "ia32_Lea"
		}
	}
	return finish(attr.NewCommon(common))
}

func selectArith(c *ctx.Ctx, node *ir.Node) *attr.Node {
	reqs := make([]regs.Requirement, len(node.In))
	for i := range reqs {
		reqs[i] = regs.Requirement{Class: GPR, Kind: regs.ReqNormal}
	}
	return finish(attr.NewCommon(attr.Common{OpType: attr.Normal, Mnemonic: "ia32_" + node.Op.String(), InReqs: reqs,
		OutReqs: []regs.Requirement{{Class: GPR, Kind: regs.ReqNormal}}}))
}

func selectShift(c *ctx.Ctx, node *ir.Node) *attr.Node {
	// The shift count must land in %cl on ia32 unless it is a constant.
	inReqs := []regs.Requirement{{Class: GPR, Kind: regs.ReqNormal}}
	if len(node.In) > 1 {
		if _, isConst := isConstOperand(c, node.In[1]); isConst {
			inReqs = append(inReqs, regs.None)
		} else {
			inReqs = append(inReqs, regs.Requirement{Class: GPR, Kind: regs.ReqLimited, LimitedMask: GPR.MaskOf(2)}) // ecx
		}
	}
	return finish(attr.NewCommon(attr.Common{OpType: attr.Normal, Mnemonic: "ia32_" + node.Op.String(), InReqs: inReqs,
		OutReqs: []regs.Requirement{{Class: GPR, Kind: regs.ReqSameAs, SameSlot: 0}}}))
}

func isConstOperand(c *ctx.Ctx, id ir.NodeId) (int64, bool) {
	n := c.Arena.Node(id)
	if n.Op != ir.OpConst {
		return 0, false
	}
	v, _ := n.Attr.(ir.ConstAttr)
	return v.Value, true
}

func selectLoad(c *ctx.Ctx, n ir.NodeId, node *ir.Node) *attr.Node {
	common := attr.Common{OpType: attr.AddrModeSource, LoadStoreMode: node.Mode, Mnemonic: "ia32_Load",
		OutReqs: []regs.Requirement{{Class: GPR, Kind: regs.ReqNormal}}, ExceptionID: 1}
	if len(node.In) > 1 {
		if m, ok := addrmode.Match(graphOf(c), node.In[1], addrmode.ForceCreate); ok {
			common.AddrMode = &m
		}
	}
	return finish(attr.NewCommon(common))
}

func selectStore(c *ctx.Ctx, n ir.NodeId, node *ir.Node) *attr.Node {
	common := attr.Common{OpType: attr.AddrModeDest, ExceptionID: 1, Mnemonic: "ia32_Store",
		InReqs: []regs.Requirement{{Class: GPR, Kind: regs.ReqNormal}}}
	if len(node.In) > 1 {
		if m, ok := addrmode.Match(graphOf(c), node.In[1], addrmode.ForceCreate); ok {
			common.AddrMode = &m
		}
	}
	return finish(attr.NewCommon(common))
}

func selectConv(c *ctx.Ctx, node *ir.Node) *attr.Node {
	conv, _ := node.Attr.(ir.ConvAttr)
	// %D9, not %D0: Conv's OutReqs is ReqNormal (an independently assigned
	// register, not SameAs slot 0), so the destination placeholder must
	// fall past the single InReqs entry the same way selectLoad's does.
	return finish(attr.NewCommon(attr.Common{OpType: attr.Normal, Mnemonic: "ia32_Conv", LoadStoreMode: conv.FromMode,
		InReqs:  []regs.Requirement{{Class: GPR, Kind: regs.ReqNormal}},
		OutReqs: []regs.Requirement{{Class: GPR, Kind: regs.ReqNormal}}}))
}

func selectCond(c *ctx.Ctx, node *ir.Node) *attr.Node {
	ca, _ := node.Attr.(ir.CondAttr)
	if ca.IsSwitch {
		return finish(attr.NewCommon(attr.Common{OpType: attr.Normal, Mnemonic: "ia32_Switch",
			InReqs: []regs.Requirement{{Class: GPR, Kind: regs.ReqNormal}}}))
	}
	cmp := c.Arena.Node(node.In[0])
	cmpAttr, _ := cmp.Attr.(ir.CmpAttr)
	lhs := c.Arena.Node(cmp.In[0])
	return finish(attr.WithCondCode(attr.Common{OpType: attr.Normal, Mnemonic: "ia32_Jcc"},
		&attr.CondCode{Code: cmpAttr.Code, Signed: lhs.Mode.Signed()}))
}

// Setcc implements spec §4.3.1's synthesis order: a Cmp feeding a
// non-branch consumer normally costs a SETcc plus a zero-extend, but when
// the consumer maps {true,false} to two known constants (trueVal, falseVal)
// that difference can often be folded into the SETcc sequence itself,
// mirroring ia32_transform.c's match_mux_fold_setcc:
//
//   - delta == 1 (and falseVal == 0): bare SETcc, already correct as-is.
//   - delta == 1 (falseVal != 0):     SETcc, then ADD falseVal (ADD-imm).
//   - delta in {3, 5, 9}:             SETcc, then LEA falseVal(,%D9,delta-1)
//     (LEA-x3/x5/x9 — a scaled-index multiply-add in one instruction).
//   - delta a power of two:           SETcc, then SHL log2(delta), then
//     ADD falseVal if it's nonzero.
//   - anything else:                 SETcc, then IMUL by delta, then ADD
//     falseVal if it's nonzero (the generic fallback).
//
// A negative delta is handled by negating the comparison's pn-code and
// swapping the two constants, so every case below only ever sees delta > 0.
//
// Every case addresses its destination as %D9: the node being emitted is
// the original boolean/Mux node (In = [cmp] or [cmp, trueArm, falseArm]),
// and emit.Instruction resolves %D<n> the same way it resolves %S<n> — by
// slot into that In list until n falls past it. %D9 is conventionally out
// of range for any operand list this IR produces, so it always reaches
// this node's own result register, and reusing %D9 across every line of a
// synthesized sequence keeps the whole sequence operating on that one
// register instead of quietly touching others.
func (Selector) Setcc(c *ctx.Ctx, cmp ir.NodeId, code ir.PnCode, signed bool, trueVal, falseVal int64) (*attr.Node, bool) {
	delta := trueVal - falseVal
	if delta < 0 {
		code = code.Negated()
		trueVal, falseVal = falseVal, trueVal
		delta = -delta
	}

	const setcc = "set%P %D9\n\tmovzbl %D9, %D9"
	common := attr.Common{OpType: attr.Normal,
		OutReqs: []regs.Requirement{{Class: GPR, Kind: regs.ReqLimited, LimitedMask: byteAddressable()}}}

	switch {
	case trueVal == 1 && falseVal == 0:
		common.Mnemonic = "ia32_Setcc"
		common.AsmText = setcc

	case delta == 1:
		common.Mnemonic = "ia32_SetccAdd"
		common.AsmText = fmt.Sprintf("%s\n\tadd%%M $%d, %%D9", setcc, falseVal)

	case delta == 3 || delta == 5 || delta == 9:
		common.Mnemonic = "ia32_SetccLea"
		common.AsmText = fmt.Sprintf("%s\n\tlea%%M %d(,%%D9,%d), %%D9", setcc, falseVal, delta-1)

	case delta != 0 && delta&(delta-1) == 0:
		common.Mnemonic = "ia32_SetccShl"
		common.AsmText = fmt.Sprintf("%s\n\tshl%%M $%d, %%D9", setcc, bits.TrailingZeros64(uint64(delta)))
		if falseVal != 0 {
			common.AsmText += fmt.Sprintf("\n\tadd%%M $%d, %%D9", falseVal)
		}

	default:
		common.Mnemonic = "ia32_SetccImul"
		common.AsmText = fmt.Sprintf("%s\n\timul%%M $%d, %%D9, %%D9", setcc, delta)
		if falseVal != 0 {
			common.AsmText += fmt.Sprintf("\n\tadd%%M $%d, %%D9", falseVal)
		}
	}

	return attr.WithCondCode(common, &attr.CondCode{Code: code, Signed: signed}), true
}

// byteAddressable returns the subset of GPR with a byte-addressable
// sub-register (eax/ebx/ecx/edx, indices 0-3), the constraint SETcc's
// destination is under on ia32.
func byteAddressable() *rbitset.Set { return GPR.MaskOf(0, 1, 2, 3) }

type graphAdapter struct{ c *ctx.Ctx }

func (g graphAdapter) Node(id ir.NodeId) *ir.Node { return g.c.Arena.Node(id) }

func graphOf(c *ctx.Ctx) addrmode.Graph { return graphAdapter{c} }
