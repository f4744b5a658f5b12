/*
 * ssabc - Address-mode descriptor and matcher
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

// Package addrmode folds a pointer-shaped IR subtree into a single
// base+index*scale+disp+symbol descriptor, the x86 address mode (AM). The
// matcher mirrors libFirm's ia32_transform.c match_arguments/build_address.
package addrmode

import "github.com/rcornwell/ssabc/internal/ir"

// Mode is a folded memory operand: base + index*scale + offset, optionally
// plus a symbol, optionally rooted at the current frame.
type Mode struct {
	Base       ir.NodeId // ir.Invalid if absent.
	Index      ir.NodeId // ir.Invalid if absent.
	Scale      int       // 0..3; meaningful only when Index is present.
	Offset     int32
	Symbol     *ir.Entity // nil if absent.
	SymbolSign bool       // true if Symbol's address is subtracted, not added.
	UseFrame   bool
	FrameEntity *ir.Entity // required (non-nil) when UseFrame is true.
}

// Flags tune the matcher for destination-AM / forced cases.
type Flags int

const (
	// ForceCreate permits returning a degenerate descriptor (offset/symbol
	// only, no base) in contexts where the matcher would normally decline.
	ForceCreate Flags = 1 << iota
	// DoubleUse permits matching source-AM even when the candidate load has
	// two users, to support destination-AM read-modify-write forms.
	DoubleUse
)

// has reports whether flag f is set in flags.
func (flags Flags) has(f Flags) bool { return flags&f != 0 }

// Graph is the minimal read access the matcher needs into the arena: node
// lookup only (the memory-cycle check walks operands through Node as well).
type Graph interface {
	Node(id ir.NodeId) *ir.Node
}

// Match attempts to fold the pointer-shaped subtree rooted at n into an
// address Mode. ok is false, with a zero Mode, if n cannot be folded at all
// (the caller should then treat n as an ordinary operand); with ForceCreate
// set, such an n is instead returned as a base-only Mode with ok true.
func Match(g Graph, n ir.NodeId, flags Flags) (Mode, bool) {
	m := Mode{Base: ir.Invalid, Index: ir.Invalid}
	matched := matchInto(g, &m, n, true)
	if !matched && !flags.has(ForceCreate) {
		return Mode{}, false
	}
	if m.Index == ir.Invalid {
		m.Scale = 0
	}
	if m.Symbol == nil {
		m.SymbolSign = false
	}
	return m, true
}

// matchInto folds n's contribution into m, preferring to attribute at most
// one operand each to base/index/symbol/offset. Returns whether anything
// beyond a plain base assignment was folded.
func matchInto(g Graph, m *Mode, n ir.NodeId, top bool) bool {
	node := g.Node(n)

	switch node.Op {
	case ir.OpSymConst:
		if attr, ok := node.Attr.(ir.SymConstAttr); ok && attr.Kind == ir.SymConstAddr {
			m.Symbol = attr.Entity
			m.SymbolSign = false
			return true
		}
	case ir.OpFrameAddr:
		if attr, ok := node.Attr.(ir.FrameAddrAttr); ok {
			m.UseFrame = true
			m.FrameEntity = attr.Entity
			return true
		}
	case ir.OpConst:
		if attr, ok := node.Attr.(ir.ConstAttr); ok {
			m.Offset += int32(attr.Value)
			return true
		}
	case ir.OpAdd:
		a, b := node.In[0], node.In[1]
		matchedAny := false
		if tryOperand(g, m, a) {
			matchedAny = true
		} else if tryOperand(g, m, b) {
			a, b = b, a
			matchedAny = true
		}
		if matchedAny {
			// The other side still needs a home: base, if free.
			if foldRemainder(g, m, b) {
				return true
			}
			return true
		}
	}

	// Fall through: attribute n itself to base if free.
	if m.Base == ir.Invalid {
		m.Base = n
		return !top // a bare base-only fold isn't itself a "match" at the
		// top level call, only as a sub-step of Add folding.
	}
	return false
}

// tryOperand attempts to fold operand `side` of an Add as the
// index*scale/symbol/offset contribution, leaving base alone.
func tryOperand(g Graph, m *Mode, side ir.NodeId) bool {
	node := g.Node(side)
	switch node.Op {
	case ir.OpShl:
		if k, ok := shiftConst(g, node); ok && k >= 0 && k <= 3 && m.Index == ir.Invalid {
			m.Index = node.In[0]
			m.Scale = k
			return true
		}
	case ir.OpSymConst:
		if attr, ok := node.Attr.(ir.SymConstAttr); ok && attr.Kind == ir.SymConstAddr && m.Symbol == nil {
			m.Symbol = attr.Entity
			return true
		}
	case ir.OpConst:
		if attr, ok := node.Attr.(ir.ConstAttr); ok {
			m.Offset += int32(attr.Value)
			return true
		}
	case ir.OpFrameAddr:
		if attr, ok := node.Attr.(ir.FrameAddrAttr); ok && !m.UseFrame {
			m.UseFrame = true
			m.FrameEntity = attr.Entity
			return true
		}
	}
	return false
}

func foldRemainder(g Graph, m *Mode, side ir.NodeId) bool {
	if tryOperand(g, m, side) {
		return true
	}
	if g.Node(side).Op == ir.OpAdd {
		return matchInto(g, m, side, false)
	}
	if m.Base == ir.Invalid {
		m.Base = side
		return true
	}
	return false
}

func shiftConst(g Graph, shl *ir.Node) (int, bool) {
	if len(shl.In) != 2 {
		return 0, false
	}
	c := g.Node(shl.In[1])
	if c.Op != ir.OpConst {
		return 0, false
	}
	attr, ok := c.Attr.(ir.ConstAttr)
	if !ok {
		return 0, false
	}
	return int(attr.Value), true
}

// SourceAllowed implements the matcher's refusal rules for folding a load
// as a *source* address mode operand of a consumer node: the load must be
// in the same block as the consumer, must have exactly one user (the
// consumer) unless DoubleUse is set, and folding must not create a cycle
// through the memory edge (the consumer's other operand must not reach the
// load's own memory predecessor).
func SourceAllowed(g Graph, consumerBlock, load ir.NodeId, loadUsers int, otherOperand ir.NodeId, flags Flags) bool {
	loadNode := g.Node(load)
	if loadNode.Block != consumerBlock {
		return false
	}
	if loadUsers > 1 && !flags.has(DoubleUse) {
		return false
	}
	if reachesMemory(g, otherOperand, loadMemoryPred(loadNode)) {
		return false
	}
	return true
}

func loadMemoryPred(load *ir.Node) ir.NodeId {
	if load.Op != ir.OpLoad || len(load.In) == 0 {
		return ir.Invalid
	}
	return load.In[0] // by convention, in[0] of Load is its incoming memory edge.
}

// reachesMemory walks the transitive memory-producer chain starting at n
// looking for target, bounded to a small depth since memory chains in a
// single block are short; a match means folding the AM would create a
// cycle through the shared memory edge.
func reachesMemory(g Graph, n, target ir.NodeId) bool {
	if target == ir.Invalid || n == ir.Invalid {
		return false
	}
	seen := map[ir.NodeId]bool{}
	const maxDepth = 64
	cur := n
	for i := 0; i < maxDepth && cur != ir.Invalid; i++ {
		if cur == target {
			return true
		}
		if seen[cur] {
			return false
		}
		seen[cur] = true
		node := g.Node(cur)
		if node.Op == ir.OpLoad || node.Op == ir.OpStore {
			if len(node.In) == 0 {
				return false
			}
			cur = node.In[0]
			continue
		}
		return false
	}
	return false
}
