/*
 * ssabc - ARM node selection
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

// Package arm is the transform.Selector for the ARM (AArch32) target. ARM
// has no x86-style scale/base/index address mode, so this selector does
// not use package addrmode at all: loads and stores take their address
// from a single register operand. A Shl feeding a Load/Store is not folded
// into a shifted-register operand.
package arm

import (
	"strings"

	"github.com/rcornwell/ssabc/internal/attr"
	"github.com/rcornwell/ssabc/internal/ctx"
	"github.com/rcornwell/ssabc/internal/ir"
	"github.com/rcornwell/ssabc/internal/regs"
)

var GPR = regs.NewClass("gp", "Iu", []string{
	"r0", "r1", "r2", "r3", "r4", "r5", "r6", "r7",
	"r8", "r9", "r10", "fp", "ip", "sp", "lr", "pc",
})

type Selector struct{}

func New() Selector { return Selector{} }

func (Selector) Select(c *ctx.Ctx, n ir.NodeId) (*attr.Node, bool) {
	node := c.Arena.Node(n)
	switch node.Op {
	case ir.OpConst:
		v, _ := node.Attr.(ir.ConstAttr)
		return attr.WithImmediate(attr.Common{Mnemonic: "arm_Const", AsmText: "mov %D0, %I",
			OutReqs: []regs.Requirement{{Class: GPR, Kind: regs.ReqNormal}}},
			&attr.Immediate{Value: v.Value}), true

	case ir.OpAdd, ir.OpSub, ir.OpAnd, ir.OpOr, ir.OpEor:
		reqs := make([]regs.Requirement, len(node.In))
		for i := range reqs {
			reqs[i] = regs.Requirement{Class: GPR, Kind: regs.ReqNormal}
		}
		mnemonic := "arm_" + node.Op.String()
		return attr.NewCommon(attr.Common{InReqs: reqs, Mnemonic: mnemonic,
			AsmText: strings.ToLower(node.Op.String()) + " %D9, %S0, %S1",
			OutReqs: []regs.Requirement{{Class: GPR, Kind: regs.ReqNormal}}}), true

	case ir.OpLoad:
		return attr.NewCommon(attr.Common{OpType: attr.Normal, LoadStoreMode: node.Mode, ExceptionID: 1,
			Mnemonic: "arm_Load", AsmText: "ldr %D9, [%S0]",
			InReqs:  []regs.Requirement{{Class: GPR, Kind: regs.ReqNormal}},
			OutReqs: []regs.Requirement{{Class: GPR, Kind: regs.ReqNormal}}}), true

	case ir.OpStore:
		return attr.NewCommon(attr.Common{OpType: attr.Normal, ExceptionID: 1,
			Mnemonic: "arm_Store", AsmText: "str %S0, [%S1]",
			InReqs: []regs.Requirement{{Class: GPR, Kind: regs.ReqNormal}, {Class: GPR, Kind: regs.ReqNormal}}}), true

	case ir.OpReturn:
		return attr.NewCommon(attr.Common{Mnemonic: "arm_Ret", AsmText: "bx lr"}), true

	case ir.OpPhi:
		return attr.NewCommon(attr.Common{}), true

	default:
		return nil, false
	}
}

// Setcc on ARM is nearly free: every data-processing instruction can set
// flags and every instruction carries a condition field, so the usual x86
// synthesis table collapses to a MOV/MOVcc pair: zero the destination
// unconditionally, then conditionally overwrite it with 1. Like amd64's
// port, the {t,f}-specific imm/LEA/SHL synthesis table stays ia32-only;
// trueVal/falseVal are accepted for interface symmetry but unused.
// %D9, not %D0: the emitted node is the original boolean/Mux node (In =
// [cmp] or [cmp, trueArm, falseArm]), and %D<n> resolves by slot into that
// list the same way %S<n> does; %D9 is out of range for any arity this IR
// produces, so it always reaches this node's own result register.
func (Selector) Setcc(c *ctx.Ctx, cmp ir.NodeId, code ir.PnCode, signed bool, trueVal, falseVal int64) (*attr.Node, bool) {
	return attr.WithCondCode(attr.Common{OutReqs: []regs.Requirement{{Class: GPR, Kind: regs.ReqNormal}},
		Mnemonic: "arm_Movcc", AsmText: "mov %D9, #0\n\tmov%P %D9, #1"},
		&attr.CondCode{Code: code, Signed: signed}), true
}
