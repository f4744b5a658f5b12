/*
 * ssabc - Peephole rewriter
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

// Package peephole runs after scheduling and register allocation, walking
// each block's final instruction order and rewriting short windows of
// adjacent instructions into cheaper equivalents. Before the walk it
// computes, once per block, the set of nodes some instruction of the block
// reads, and hands that set to every rule; it does not track liveness per
// position or per physical register. The walk follows libFirm's
// bepeephole.c structure.
package peephole

import (
	"github.com/rcornwell/ssabc/internal/attr"
	"github.com/rcornwell/ssabc/internal/ctx"
	"github.com/rcornwell/ssabc/internal/ir"
)

// Rule inspects the window of nodes at position i in order (block's final
// instruction sequence) and, if it fires, mutates the nodes in place and
// returns true. Rules never change instruction count by removing entries
// from order themselves; they mark a node dead via attr.Common.Dead, and
// Run compacts the slice once after the pass to drop those entries.
type Rule func(c *ctx.Ctx, order []ir.NodeId, i int, live *LiveSet) bool

// LiveSet is the set of backend node ids whose value some instruction of
// the current block reads, consulted by rules that would otherwise clobber
// a value still in use.
type LiveSet struct {
	live map[ir.NodeId]bool
}

func newLiveSet() *LiveSet { return &LiveSet{live: map[ir.NodeId]bool{}} }

// IsLive reports whether id's result is read by some instruction in the
// current block, whether before or after the position being rewritten.
func (l *LiveSet) IsLive(id ir.NodeId) bool { return l.live[id] }

// Run applies rules to every block's schedule in order, once per block,
// in a single forward pass with a backward liveness precomputation.
func Run(c *ctx.Ctx, order map[ir.NodeId][]ir.NodeId, rules []Rule) {
	for block, seq := range order {
		live := computeLiveness(c, seq)
		for i := 0; i < len(seq); i++ {
			for _, rule := range rules {
				if rule(c, seq, i, live) {
					break
				}
			}
		}
		order[block] = compact(c, seq)
	}
}

func computeLiveness(c *ctx.Ctx, seq []ir.NodeId) *LiveSet {
	l := newLiveSet()
	for i := len(seq) - 1; i >= 0; i-- {
		n := c.Arena.Node(seq[i])
		for _, in := range n.In {
			l.live[in] = true
		}
	}
	return l
}

// compact drops any node a rewrite rule marked Dead (the rule's way of
// deleting an instruction: elided Test, folded Lea/Load/Store). A node a
// selector simply never gave a Mnemonic (every amd64/arm/template
// instruction, most ia32 ones) is untouched; Dead is the only deletion
// signal, kept separate from Mnemonic so an empty tag never looks deleted.
func compact(c *ctx.Ctx, seq []ir.NodeId) []ir.NodeId {
	out := seq[:0]
	for _, id := range seq {
		if a, ok := backendAttr(c, id); ok && a.Common.Dead {
			continue
		}
		out = append(out, id)
	}
	return out
}

func backendAttr(c *ctx.Ctx, id ir.NodeId) (*attr.Node, bool) {
	a, ok := c.Arena.Node(id).Attr.(*attr.Node)
	return a, ok
}

// Mnemonic returns the backend instruction tag the ia32/amd64/arm/template
// selector recorded (e.g. "ia32_Const"), or "" if none.
func Mnemonic(c *ctx.Ctx, id ir.NodeId) string {
	a, ok := backendAttr(c, id)
	if !ok {
		return ""
	}
	return a.Common.Mnemonic
}
