/*
 * ssabc - amd64 node selection
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

// Package amd64 is the transform.Selector for the 64-bit x86 target. It
// shares ia32's AM-folding approach (both are x86) but widens the register
// file to the sixteen integer GPRs and widens immediates to 64 bits.
package amd64

import (
	"strings"

	"github.com/rcornwell/ssabc/internal/addrmode"
	"github.com/rcornwell/ssabc/internal/attr"
	"github.com/rcornwell/ssabc/internal/ctx"
	"github.com/rcornwell/ssabc/internal/ir"
	"github.com/rcornwell/ssabc/internal/regs"
)

var GPR = regs.NewClass("gp", "Lu", []string{
	"rax", "rbx", "rcx", "rdx", "rsi", "rdi", "rbp", "rsp",
	"r8", "r9", "r10", "r11", "r12", "r13", "r14", "r15",
})

type Selector struct{}

func New() Selector { return Selector{} }

func (Selector) Select(c *ctx.Ctx, n ir.NodeId) (*attr.Node, bool) {
	node := c.Arena.Node(n)
	switch node.Op {
	case ir.OpConst:
		v, _ := node.Attr.(ir.ConstAttr)
		return attr.WithImmediate(attr.Common{Mnemonic: "amd64_Const", AsmText: "mov%M %I, %D0",
			OutReqs: []regs.Requirement{{Class: GPR, Kind: regs.ReqNormal}}},
			&attr.Immediate{Value: v.Value}), true

	case ir.OpAdd, ir.OpSub, ir.OpAnd, ir.OpOr, ir.OpEor:
		common := attr.Common{
			Mnemonic: "amd64_" + node.Op.String(),
			InReqs:   []regs.Requirement{{Class: GPR, Kind: regs.ReqNormal}, {Class: GPR, Kind: regs.ReqNormal}},
			OutReqs:  []regs.Requirement{{Class: GPR, Kind: regs.ReqSameAs, SameSlot: 0}},
		}
		if node.Op == ir.OpAdd {
			g := graphAdapter{c}
			if m, ok := addrmode.Match(g, n, 0); ok {
				common.AddrMode = &m
				common.OpType = attr.AddrModeSource
				common.Mnemonic = "amd64_Lea"
			}
		}
		common.AsmText = mnemonicText(common.Mnemonic)
		return attr.NewCommon(common), true

	case ir.OpLoad:
		common := attr.Common{OpType: attr.AddrModeSource, LoadStoreMode: node.Mode, ExceptionID: 1,
			Mnemonic: "amd64_Load", AsmText: "mov%M %AM, %D9",
			OutReqs: []regs.Requirement{{Class: GPR, Kind: regs.ReqNormal}}}
		if len(node.In) > 1 {
			if m, ok := addrmode.Match(graphAdapter{c}, node.In[1], addrmode.ForceCreate); ok {
				common.AddrMode = &m
			}
		}
		return attr.NewCommon(common), true

	case ir.OpStore:
		common := attr.Common{OpType: attr.AddrModeDest, ExceptionID: 1,
			Mnemonic: "amd64_Store", AsmText: "mov%M %S0, %AM",
			InReqs: []regs.Requirement{{Class: GPR, Kind: regs.ReqNormal}}}
		if len(node.In) > 1 {
			if m, ok := addrmode.Match(graphAdapter{c}, node.In[1], addrmode.ForceCreate); ok {
				common.AddrMode = &m
			}
		}
		return attr.NewCommon(common), true

	case ir.OpReturn:
		return attr.NewCommon(attr.Common{Mnemonic: "amd64_Ret", AsmText: "ret"}), true

	case ir.OpPhi:
		return attr.NewCommon(attr.Common{}), true

	default:
		return nil, false
	}
}

// mnemonicText gives Add/Sub/And/Or/Eor/Lea a two-operand AT&T format
// string keyed only by the mnemonic the case above already picked.
func mnemonicText(mnemonic string) string {
	if mnemonic == "amd64_Lea" {
		return "lea%M %AM, %D0"
	}
	op := strings.TrimPrefix(mnemonic, "amd64_")
	return strings.ToLower(op) + "%M %AS1, %D0"
}

// Setcc does not implement the ia32-style imm/LEA/SHL synthesis table:
// this port doesn't yet special-case the {t,f} arms, so every comparison
// materializes as a bare SETcc + zero-extend regardless of trueVal/falseVal.
// %D9 (not %D0): the node being emitted is the original boolean/Mux node
// (In = [cmp] or [cmp, trueArm, falseArm]), and emit.Instruction resolves
// %D<n> the same way it resolves %S<n> -- by slot into that In list until
// n falls past it. %D9 is conventionally out of range for any operand list
// this IR produces, so it always reaches this node's own result register.
func (Selector) Setcc(c *ctx.Ctx, cmp ir.NodeId, code ir.PnCode, signed bool, trueVal, falseVal int64) (*attr.Node, bool) {
	return attr.WithCondCode(attr.Common{OutReqs: []regs.Requirement{{Class: GPR, Kind: regs.ReqNormal}},
		Mnemonic: "amd64_Setcc", AsmText: "set%P %D9\n\tmovzbl %D9, %D9"},
		&attr.CondCode{Code: code, Signed: signed}), true
}

type graphAdapter struct{ c *ctx.Ctx }

func (g graphAdapter) Node(id ir.NodeId) *ir.Node { return g.c.Arena.Node(id) }
