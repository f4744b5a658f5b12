/*
 * ssabc - Block scheduling
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

// Package blocksched orders a graph's blocks in the layout the emitter
// walks, choosing the order so that as many control-flow edges as possible
// become fall-through rather than an explicit jump. Without execution
// frequency (an external analysis this backend never computes, spec §9)
// the heuristic is structural: extend the current block's layout position
// with an unplaced successor that has only this block as a predecessor, so
// a Jmp to it can be elided; fall back to the dominance walk's order
// otherwise.
package blocksched

import "github.com/rcornwell/ssabc/internal/ir"

// Order returns the emission order for a's reachable blocks, seeded by
// base (typically a dominance tree's reverse postorder) and then greedily
// extended into fall-through chains.
func Order(a *ir.Arena, base []ir.NodeId) []ir.NodeId {
	placed := make(map[ir.NodeId]bool, len(base))
	pos := make(map[ir.NodeId]int, len(base))
	for i, b := range base {
		pos[b] = i
	}

	succs := successorsOf(a)
	var out []ir.NodeId
	for _, start := range base {
		if placed[start] {
			continue
		}
		cur := start
		for {
			out = append(out, cur)
			placed[cur] = true
			next := fallthroughCandidate(a, succs, placed, cur)
			if next == ir.Invalid {
				break
			}
			cur = next
		}
	}
	return out
}

// fallthroughCandidate picks the unplaced successor of cur best suited to
// be its fall-through: one whose only predecessor is cur, so laying it
// down immediately after cur turns what would be a Jmp into nothing. Ties
// (e.g. a Cond's two arms, both single-predecessor) favor the first
// successor in the block's Jmp/Cond input order, matching how a "then"
// arm is conventionally laid out directly after its test.
func fallthroughCandidate(a *ir.Arena, succs map[ir.NodeId][]ir.NodeId, placed map[ir.NodeId]bool, cur ir.NodeId) ir.NodeId {
	for _, s := range succs[cur] {
		if placed[s] {
			continue
		}
		if len(a.BlockPreds(s)) == 1 {
			return s
		}
	}
	return ir.Invalid
}

// successorsOf builds the block-successor adjacency every block scheduler
// needs, derived from the same predecessor links domtree.Build walks in
// reverse.
func successorsOf(a *ir.Arena) map[ir.NodeId][]ir.NodeId {
	out := make(map[ir.NodeId][]ir.NodeId, len(a.Blocks))
	for _, b := range a.Blocks {
		for _, p := range a.BlockPreds(b) {
			if n := a.Node(p); n.Op != ir.OpBlock {
				p = n.Block // a Jmp/Cond predecessor stands for its block.
			}
			out[p] = append(out[p], b)
		}
	}
	return out
}

// NeedsJump reports whether the edge from order[i] to its successor must
// be an explicit jump because layout did not place the successor directly
// after it.
func NeedsJump(order []ir.NodeId, i int, succ ir.NodeId) bool {
	return i+1 >= len(order) || order[i+1] != succ
}
