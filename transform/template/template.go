/*
 * ssabc - TEMPLATE node selection
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

// Package template is the reference minimal backend: one generic register
// class, no address-mode folding, no synthesized Setcc beyond a bare
// compare-and-set. It exists to prove out a new port against the shared
// transform/schedule/peephole/emit/abi machinery before investing in a
// real target's address modes and scheduling heuristics, the same role
// TEMPLATE plays in the example it's ported from.
package template

import (
	"fmt"
	"strings"

	"github.com/rcornwell/ssabc/internal/attr"
	"github.com/rcornwell/ssabc/internal/ctx"
	"github.com/rcornwell/ssabc/internal/ir"
	"github.com/rcornwell/ssabc/internal/regs"
)

var GPR = regs.NewClass("gp", "Iu", []string{"r0", "r1", "r2", "r3", "r4", "r5", "r6", "r7"})

type Selector struct{}

func New() Selector { return Selector{} }

func (Selector) Select(c *ctx.Ctx, n ir.NodeId) (*attr.Node, bool) {
	node := c.Arena.Node(n)
	switch node.Op {
	case ir.OpConst:
		v, _ := node.Attr.(ir.ConstAttr)
		return attr.WithImmediate(attr.Common{Mnemonic: "template_Const", AsmText: "mov %I, %D0",
			OutReqs: []regs.Requirement{{Class: GPR, Kind: regs.ReqNormal}}},
			&attr.Immediate{Value: v.Value}), true
	case ir.OpLoad:
		// %D1: with the single address InReq below, slot 1 always falls
		// past node.In (len 1) to the node's own separately-assigned
		// result register; %D0 would alias the address register instead,
		// since emit.Instruction resolves %S<n>/%D<n> identically by slot.
		return attr.NewCommon(attr.Common{LoadStoreMode: node.Mode, ExceptionID: 1,
			Mnemonic: "template_Load", AsmText: "ld (%S0), %D1",
			InReqs:  []regs.Requirement{{Class: GPR, Kind: regs.ReqNormal}},
			OutReqs: []regs.Requirement{{Class: GPR, Kind: regs.ReqNormal}}}), true
	case ir.OpStore:
		return attr.NewCommon(attr.Common{ExceptionID: 1, Mnemonic: "template_Store", AsmText: "st %S0, (%S1)",
			InReqs: []regs.Requirement{{Class: GPR, Kind: regs.ReqNormal}, {Class: GPR, Kind: regs.ReqNormal}}}), true
	case ir.OpReturn:
		return attr.NewCommon(attr.Common{Mnemonic: "template_Ret", AsmText: "ret"}), true
	case ir.OpPhi:
		return attr.NewCommon(attr.Common{}), true
	default:
		if len(node.In) == 0 {
			return nil, false
		}
		reqs := make([]regs.Requirement, len(node.In))
		for i := range reqs {
			reqs[i] = regs.Requirement{Class: GPR, Kind: regs.ReqNormal}
		}
		return attr.NewCommon(attr.Common{InReqs: reqs, Mnemonic: "template_" + node.Op.String(),
			AsmText:  genericAsmText(node.Op, len(node.In)),
			OutReqs:  []regs.Requirement{{Class: GPR, Kind: regs.ReqNormal}}}), true
	}
}

// genericAsmText builds a three-address-style mnemonic line for the generic
// arithmetic opcodes this minimal port doesn't special-case individually.
// The destination slot number must be >= arity: emit.Instruction resolves
// %S<n>/%D<n> by the same slot index, so a destination written as %D0 on a
// two-input op would alias the first operand's register instead of this
// node's own (non-same-as) result register.
func genericAsmText(op ir.Opcode, arity int) string {
	name := strings.ToLower(op.String())
	dest := fmt.Sprintf("%%D%d", arity)
	switch arity {
	case 1:
		return name + " %S0, " + dest
	default:
		return name + " %S0, %S1, " + dest
	}
}

// Setcc's destination is a freshly-assigned register, never the same as
// any operand, but the node being emitted is the original boolean/Mux
// node (In = [cmp] or [cmp, trueArm, falseArm]), so %D0 would alias one
// of those. %D9 is conventionally out of range for any operand list this
// IR produces and always falls through to the node's own register.
func (Selector) Setcc(c *ctx.Ctx, cmp ir.NodeId, code ir.PnCode, signed bool, trueVal, falseVal int64) (*attr.Node, bool) {
	return attr.WithCondCode(attr.Common{OutReqs: []regs.Requirement{{Class: GPR, Kind: regs.ReqNormal}},
		Mnemonic: "template_Setcc", AsmText: "setcc%P %D9"},
		&attr.CondCode{Code: code, Signed: signed}), true
}
