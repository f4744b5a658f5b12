/*
 * ssabc - Target attribute blocks hanging off backend IR nodes
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

// Package attr models the per-opcode metadata hanging off each backend IR
// node: the Common prefix every opcode carries, plus a tagged-variant
// payload (Call, CondCode, CopyB, Immediate, X87, Asm) per the design
// notes' "attribute polymorphism" section. Debug builds carry the variant
// tag explicitly so a mismatched down-cast is a checkable error rather than
// undefined behaviour.
package attr

import (
	"fmt"

	"github.com/rcornwell/ssabc/internal/addrmode"
	"github.com/rcornwell/ssabc/internal/ir"
	"github.com/rcornwell/ssabc/internal/regs"
)

// OpType classifies how an opcode consumes memory: as an ordinary register
// operation, as one whose source operand may be folded into an address
// mode, or as one whose destination is a read-modify-write address mode.
type OpType int

const (
	Normal OpType = iota
	AddrModeSource
	AddrModeDest
)

// Tag discriminates which variant field of Node is live.
type Tag int

const (
	TagCommon Tag = iota
	TagCall
	TagCondCode
	TagCopyB
	TagImmediate
	TagX87
	TagAsm
)

func (t Tag) String() string {
	switch t {
	case TagCommon:
		return "Common"
	case TagCall:
		return "Call"
	case TagCondCode:
		return "CondCode"
	case TagCopyB:
		return "CopyB"
	case TagImmediate:
		return "Immediate"
	case TagX87:
		return "X87"
	case TagAsm:
		return "Asm"
	default:
		return "Tag(?)"
	}
}

// Common fields are shared by every backend opcode attribute, per the
// design notes' "shared prefix fields... live in Common".
type Common struct {
	OpType      OpType
	LoadStoreMode ir.Mode
	AddrMode    *addrmode.Mode // nil when OpType == Normal.
	InReqs      []regs.Requirement
	OutReqs     []regs.Requirement
	FrameEntity *ir.Entity // non-nil only when AddrMode.UseFrame.
	ExceptionID int        // 0 means "cannot fault".
	AsmText     string     // the §4.7 format string, e.g. "add%M %AS1, %D0".
	Mnemonic    string     // backend instruction tag peephole matches on, e.g. "ia32_Add", "ia32_IncSP".
	Dead        bool       // set by a peephole rule that folded this node into a neighbor; package peephole compacts it away.
}

// Node is a tagged-union attribute block: exactly one of the variant
// pointers below is non-nil, matching Tag.
type Node struct {
	Tag    Tag
	Common Common

	Call     *Call
	CondCode *CondCode
	CopyB    *CopyB
	Imm      *Immediate
	X87      *X87
	Asm      *Asm
}

// Call carries a direct call's target and the ABI placement computed for
// it (filled in by package abi).
type Call struct {
	Entity   *ir.Entity
	NumRegArgs int
	StackBytes int
}

// CondCode carries a conditional branch/set's pn-code and signedness,
// resolved to a concrete condition-code mnemonic by the emitter's %P.
type CondCode struct {
	Code   ir.PnCode
	Signed bool
}

// CopyB describes a block-copy's length and whether it may over-copy past
// the requested size when the size is not a multiple of the unroll width
// (see DESIGN.md: the ARM CopyB behaviour is a preserved historical quirk).
type CopyB struct {
	Size        int
	UnrollWidth int
}

// Immediate carries an immediate operand (constant or symbol+offset) for
// opcodes whose OpReg/OpMem/OpImm selection picked the immediate form.
type Immediate struct {
	Value  int64
	Symbol *ir.Entity
}

// X87 names the physical ST(i) slots assigned to an x87 opcode's operands
// by the (external) x87 simulator; the back-end only records the slot
// indices it's told.
type X87 struct {
	Slots [3]int // -1 for an unused slot.
}

// Asm carries inline-assembly operand text, for the `Asm` opcode family.
type Asm struct {
	Template string
	Inputs   []string
	Outputs  []string
}

// checkTag asserts that n carries tag `want`, returning a descriptive
// error instead of panicking on mismatch — the debug-checkable down-cast
// the design notes ask for.
func (n *Node) checkTag(want Tag) error {
	if n.Tag != want {
		return fmt.Errorf("attr: requested %s variant but node tag is %s", want, n.Tag)
	}
	return nil
}

// AsCall returns the Call variant, or an error if n is not tagged TagCall.
func (n *Node) AsCall() (*Call, error) {
	if err := n.checkTag(TagCall); err != nil {
		return nil, err
	}
	return n.Call, nil
}

// AsCondCode returns the CondCode variant, or an error if mistagged.
func (n *Node) AsCondCode() (*CondCode, error) {
	if err := n.checkTag(TagCondCode); err != nil {
		return nil, err
	}
	return n.CondCode, nil
}

// AsCopyB returns the CopyB variant, or an error if mistagged.
func (n *Node) AsCopyB() (*CopyB, error) {
	if err := n.checkTag(TagCopyB); err != nil {
		return nil, err
	}
	return n.CopyB, nil
}

// AsImmediate returns the Immediate variant, or an error if mistagged.
func (n *Node) AsImmediate() (*Immediate, error) {
	if err := n.checkTag(TagImmediate); err != nil {
		return nil, err
	}
	return n.Imm, nil
}

// AsX87 returns the X87 variant, or an error if mistagged.
func (n *Node) AsX87() (*X87, error) {
	if err := n.checkTag(TagX87); err != nil {
		return nil, err
	}
	return n.X87, nil
}

// AsAsm returns the Asm variant, or an error if mistagged.
func (n *Node) AsAsm() (*Asm, error) {
	if err := n.checkTag(TagAsm); err != nil {
		return nil, err
	}
	return n.Asm, nil
}

// NewCommon builds a plain Node carrying only the Common fields (the
// majority of opcodes: arithmetic, load/store, branches without an
// explicit condition-code record).
func NewCommon(c Common) *Node {
	return &Node{Tag: TagCommon, Common: c}
}

// WithCall builds a Node tagged TagCall.
func WithCall(c Common, call *Call) *Node {
	return &Node{Tag: TagCall, Common: c, Call: call}
}

// WithCondCode builds a Node tagged TagCondCode.
func WithCondCode(c Common, cc *CondCode) *Node {
	return &Node{Tag: TagCondCode, Common: c, CondCode: cc}
}

// WithCopyB builds a Node tagged TagCopyB.
func WithCopyB(c Common, cb *CopyB) *Node {
	return &Node{Tag: TagCopyB, Common: c, CopyB: cb}
}

// WithImmediate builds a Node tagged TagImmediate.
func WithImmediate(c Common, imm *Immediate) *Node {
	return &Node{Tag: TagImmediate, Common: c, Imm: imm}
}

// WithX87 builds a Node tagged TagX87.
func WithX87(c Common, x *X87) *Node {
	return &Node{Tag: TagX87, Common: c, X87: x}
}

// WithAsm builds a Node tagged TagAsm.
func WithAsm(c Common, a *Asm) *Node {
	return &Node{Tag: TagAsm, Common: c, Asm: a}
}
