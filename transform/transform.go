/*
 * ssabc - Generic-to-target node transformer driver
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

// Package transform walks a graph bottom-up and asks a target-specific
// Selector to replace each generic node's attribute with a backend attr.Node,
// mirroring libFirm's per-backend transform_node dispatch table. The walk
// itself, the Setcc synthesis fallback, and the per-node memoization are
// shared; only the per-opcode selection rules differ between ia32, amd64,
// arm and TEMPLATE.
package transform

import (
	"fmt"

	"github.com/rcornwell/ssabc/internal/attr"
	"github.com/rcornwell/ssabc/internal/ctx"
	"github.com/rcornwell/ssabc/internal/ir"
)

// Selector is implemented once per architecture (transform/ia32,
// transform/amd64, transform/arm, transform/template).
type Selector interface {
	// Select returns the backend attribute for node n, or ok=false if the
	// generic default (a plain register-to-register op with no AM folding)
	// should be used.
	Select(c *ctx.Ctx, n ir.NodeId) (*attr.Node, bool)

	// Setcc returns the synthesized comparison-to-register sequence for a
	// Cmp feeding a non-branch consumer (spec §4.3.1). trueVal/falseVal are
	// the constants the consumer maps the comparison's {true,false} result
	// to: {1,0} for a bare boolean materialization, or the literal arms of
	// an OpMux with constant operands. ok=false leaves the node with a
	// plain Common attribute carrying no instruction text.
	Setcc(c *ctx.Ctx, cmp ir.NodeId, code ir.PnCode, signed bool, trueVal, falseVal int64) (*attr.Node, bool)
}

// Run transforms every node of c.Arena in a single reverse-postorder block
// walk, each block's nodes visited in arena (def-before-use) order. Nodes
// the selector declines are given a minimal Common attribute so every node
// leaving Run carries an attr.Node.
func Run(c *ctx.Ctx, sel Selector) error {
	for _, block := range c.Dom.ReversePostorder() {
		for _, id := range c.Arena.NodesInBlock(block) {
			node := c.Arena.Node(id)
			if node.Op == ir.OpCmp {
				continue // Cmp is folded into its consumer, not transformed itself.
			}
			if _, already := node.Attr.(*attr.Node); already {
				// A pass upstream of transform (abi's Prologue/Epilogue,
				// intrinsics.Lower) already gave this node its backend
				// attribute; the generic selector must not clobber it.
				continue
			}

			if a, ok := sel.Select(c, id); ok {
				node.Attr = a
				continue
			}

			if cmp, code, signed, trueVal, falseVal, ok := cmpConsumer(c, node); ok {
				if a, ok := sel.Setcc(c, cmp, code, signed, trueVal, falseVal); ok {
					node.Attr = a
					continue
				}
			}

			node.Attr = attr.NewCommon(attr.Common{OpType: attr.Normal})
		}
	}
	return nil
}

// cmpConsumer reports whether node is a non-branch consumer of a Cmp
// (e.g. Mux lowered to Setcc, or an explicit boolean materialization),
// returning the Cmp's node id, pn-code, signedness, and the constants the
// consumer maps {true,false} to. A bare boolean materialization (node.In
// holds only the Cmp) defaults to {1,0}; an OpMux with two further constant
// operands ([cmp, trueArm, falseArm]) reports those arms' literal values,
// so the selector can synthesize directly into {t,f} instead of {1,0}.
func cmpConsumer(c *ctx.Ctx, node *ir.Node) (ir.NodeId, ir.PnCode, bool, int64, int64, bool) {
	if node.Mode != ir.Modeb || len(node.In) == 0 {
		return ir.Invalid, 0, false, 0, 0, false
	}
	cmpID := node.In[0]
	cmp := c.Arena.Node(cmpID)
	if cmp.Op != ir.OpCmp {
		return ir.Invalid, 0, false, 0, 0, false
	}
	cmpAttr, ok := cmp.Attr.(ir.CmpAttr)
	if !ok {
		return ir.Invalid, 0, false, 0, 0, false
	}
	lhs := c.Arena.Node(cmp.In[0])
	trueVal, falseVal := int64(1), int64(0)
	if len(node.In) == 3 {
		if t, tok := constOperand(c, node.In[1]); tok {
			if f, fok := constOperand(c, node.In[2]); fok {
				trueVal, falseVal = t, f
			}
		}
	}
	return cmpID, cmpAttr.Code, lhs.Mode.Signed(), trueVal, falseVal, true
}

// constOperand returns id's constant value if it is an OpConst node, read
// from its generic ConstAttr or, once Run has already selected it, from
// the backend attribute's immediate.
func constOperand(c *ctx.Ctx, id ir.NodeId) (int64, bool) {
	n := c.Arena.Node(id)
	if n.Op != ir.OpConst {
		return 0, false
	}
	if a, ok := n.Attr.(*attr.Node); ok && a.Tag == attr.TagImmediate && a.Imm != nil {
		return a.Imm.Value, true
	}
	v, _ := n.Attr.(ir.ConstAttr)
	return v.Value, true
}

// UnexpectedOpcode builds the backend.Fatal-shaped error transform raises
// when a selector is handed an opcode it fundamentally cannot lower (as
// opposed to one it merely declines to specialize).
func UnexpectedOpcode(op ir.Opcode, id ir.NodeId) error {
	return fmt.Errorf("transform: no lowering for %s (node %d)", op, id)
}
