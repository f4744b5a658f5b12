/*
 * ssabc - ia32 peephole rewrite rules
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

package peephole

import (
	"github.com/rcornwell/ssabc/internal/attr"
	"github.com/rcornwell/ssabc/internal/ctx"
	"github.com/rcornwell/ssabc/internal/ir"
)

// ConstZeroToXor replaces "mov $0, %reg" with "xor %reg, %reg": one byte
// shorter and doesn't touch the partial-register write the CPU would
// otherwise have to track.
func ConstZeroToXor(c *ctx.Ctx, order []ir.NodeId, i int, _ *LiveSet) bool {
	a, ok := backendAttr(c, order[i])
	if !ok || a.Common.Mnemonic != "ia32_Const" || a.Tag != attr.TagImmediate || a.Imm.Value != 0 {
		return false
	}
	a.Common.Mnemonic = "ia32_Xor0"
	a.Common.AsmText = "xor%M %D0, %D0"
	return true
}

// IncSPMinus4ToPop fuses a 4-byte stack-pointer increment immediately
// followed by a load from the vacated slot into "pop %reg", the textbook
// epilogue peephole.
func IncSPMinus4ToPop(c *ctx.Ctx, order []ir.NodeId, i int, _ *LiveSet) bool {
	if i+1 >= len(order) {
		return false
	}
	a, ok := backendAttr(c, order[i])
	if !ok || a.Common.Mnemonic != "ia32_IncSP" || a.Tag != attr.TagImmediate || a.Imm.Value != -4 {
		return false
	}
	next, ok := backendAttr(c, order[i+1])
	if !ok || next.Common.Mnemonic != "ia32_Load" {
		return false
	}
	a.Common.Mnemonic = "ia32_Pop"
	a.Common.AsmText = "pop %D0"
	next.Common.Dead = true
	return true
}

// IncSPPlusStoreToPush fuses a 4-byte stack-pointer decrement immediately
// followed by a store into the freshly reserved slot into "push %reg".
func IncSPPlusStoreToPush(c *ctx.Ctx, order []ir.NodeId, i int, _ *LiveSet) bool {
	if i+1 >= len(order) {
		return false
	}
	a, ok := backendAttr(c, order[i])
	if !ok || a.Common.Mnemonic != "ia32_IncSP" || a.Tag != attr.TagImmediate || a.Imm.Value != 4 {
		return false
	}
	next, ok := backendAttr(c, order[i+1])
	if !ok || next.Common.Mnemonic != "ia32_Store" {
		return false
	}
	a.Common.Mnemonic = "ia32_Push"
	a.Common.AsmText = "push %AS0"
	next.Common.Dead = true
	return true
}

// LeaToAdd demotes an LEA that folded only a base plus a displacement
// (no scaled index) back into a plain ADD, which some cores decode a
// cycle faster than LEA.
func LeaToAdd(c *ctx.Ctx, order []ir.NodeId, i int, _ *LiveSet) bool {
	a, ok := backendAttr(c, order[i])
	if !ok || a.Common.Mnemonic != "ia32_Lea" || a.Common.AddrMode == nil {
		return false
	}
	m := a.Common.AddrMode
	if m.Index != ir.Invalid || m.Symbol != nil {
		return false
	}
	a.Common.Mnemonic = "ia32_Add"
	a.Common.OpType = attr.Normal
	a.Common.AddrMode = nil
	return true
}

// TestAfterFlagsElision drops a Test of the same value against zero when
// the immediately preceding instruction already set flags reflecting it
// (any arithmetic op whose result register Test re-examines).
func TestAfterFlagsElision(c *ctx.Ctx, order []ir.NodeId, i int, _ *LiveSet) bool {
	a, ok := backendAttr(c, order[i])
	if !ok || a.Common.Mnemonic != "ia32_Test" {
		return false
	}
	if i == 0 {
		return false
	}
	prev, ok := backendAttr(c, order[i-1])
	if !ok || prev.Common.Mnemonic == "" {
		return false
	}
	switch prev.Common.Mnemonic {
	case "ia32_Add", "ia32_Sub", "ia32_And", "ia32_Or", "ia32_Eor":
		a.Common.Dead = true
		return true
	}
	return false
}

// RepPrefixBeforeRet prefixes every Ret with "rep" when the amd-k8-fix
// feature is enabled, to avoid a decode-stall erratum on AMD K8-family
// cores. It does not check whether the Ret is a branch target or what
// precedes it.
func RepPrefixBeforeRet(c *ctx.Ctx, order []ir.NodeId, i int, _ *LiveSet) bool {
	a, ok := backendAttr(c, order[i])
	if !ok || a.Common.Mnemonic != "ia32_Ret" || !c.Target.Has("amd-k8-fix") {
		return false
	}
	if a.Common.AsmText == "rep\n\tret" {
		return false
	}
	a.Common.AsmText = "rep\n\tret"
	return true
}

// Ia32Rules is the default rewrite set the ia32 target registers with the
// peephole driver, applied in this order at every position.
var Ia32Rules = []Rule{
	ConstZeroToXor,
	IncSPMinus4ToPop,
	IncSPPlusStoreToPush,
	LeaToAdd,
	TestAfterFlagsElision,
	RepPrefixBeforeRet,
}
