/*
 * ssabc - Dominance tree and iterated dominance frontier
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

// Package domtree computes dominance over a graph's blocks. Spec §9 treats
// dominance, heights, and execution frequency as external analyses the core
// only reads; this package plays that external role so the pipeline and its
// tests have dominance information to consume without mutating it.
package domtree

import "github.com/rcornwell/ssabc/internal/ir"

// Tree is an immutable dominance analysis over one graph's reachable
// blocks, read-only once built (the "Arc<Analysis>" of the design notes).
type Tree struct {
	arena   *ir.Arena
	idom    map[ir.NodeId]ir.NodeId
	order   []ir.NodeId // reverse postorder
	indexOf map[ir.NodeId]int
}

// Build computes the dominator tree for a.Start's block graph using the
// Cooper/Harvey/Kennedy iterative algorithm, a standard fixed point over
// reverse postorder that converges in a handful of passes on real CFGs.
func Build(a *ir.Arena, entry ir.NodeId) *Tree {
	order := reversePostorder(a, entry)
	indexOf := make(map[ir.NodeId]int, len(order))
	for i, b := range order {
		indexOf[b] = i
	}

	idom := map[ir.NodeId]ir.NodeId{entry: entry}
	changed := true
	for changed {
		changed = false
		for _, b := range order {
			if b == entry {
				continue
			}
			var newIdom ir.NodeId = ir.Invalid
			for _, p := range predBlocks(a, b) {
				if _, ok := idom[p]; !ok {
					continue
				}
				if newIdom == ir.Invalid {
					newIdom = p
					continue
				}
				newIdom = intersect(idom, indexOf, newIdom, p)
			}
			if newIdom != ir.Invalid && idom[b] != newIdom {
				idom[b] = newIdom
				changed = true
			}
		}
	}

	return &Tree{arena: a, idom: idom, order: order, indexOf: indexOf}
}

func intersect(idom map[ir.NodeId]ir.NodeId, indexOf map[ir.NodeId]int, a, b ir.NodeId) ir.NodeId {
	for a != b {
		for indexOf[a] > indexOf[b] {
			a = idom[a]
		}
		for indexOf[b] > indexOf[a] {
			b = idom[b]
		}
	}
	return a
}

func reversePostorder(a *ir.Arena, entry ir.NodeId) []ir.NodeId {
	visited := map[ir.NodeId]bool{}
	var post []ir.NodeId
	var visit func(b ir.NodeId)
	visit = func(b ir.NodeId) {
		if visited[b] {
			return
		}
		visited[b] = true
		for _, succ := range successors(a, b) {
			visit(succ)
		}
		post = append(post, b)
	}
	visit(entry)

	out := make([]ir.NodeId, len(post))
	for i, b := range post {
		out[len(post)-1-i] = b
	}
	return out
}

func successors(a *ir.Arena, block ir.NodeId) []ir.NodeId {
	var out []ir.NodeId
	for _, b := range a.Blocks {
		for _, p := range predBlocks(a, b) {
			if p == block {
				out = append(out, b)
			}
		}
	}
	return out
}

// predBlocks resolves block's control predecessors to the blocks they
// belong to: a predecessor is either a block itself or an X-mode node
// (Jmp/Cond) whose owning block is the CFG predecessor.
func predBlocks(a *ir.Arena, block ir.NodeId) []ir.NodeId {
	preds := a.BlockPreds(block)
	out := make([]ir.NodeId, 0, len(preds))
	for _, p := range preds {
		if n := a.Node(p); n.Op != ir.OpBlock {
			p = n.Block
		}
		out = append(out, p)
	}
	return out
}

// IDom returns the immediate dominator of block b (b itself for the entry
// block).
func (t *Tree) IDom(b ir.NodeId) ir.NodeId {
	return t.idom[b]
}

// Dominates reports whether a dominates b (reflexively: a dominates a).
func (t *Tree) Dominates(a, b ir.NodeId) bool {
	for {
		if a == b {
			return true
		}
		if b == t.arena.Start {
			return a == t.arena.Start
		}
		next := t.idom[b]
		if next == b {
			return false
		}
		b = next
	}
}

// DominanceFrontier returns the standard dominance frontier of block b: the
// set of blocks where b's dominance stops, i.e. blocks with a predecessor
// dominated by b that are not themselves strictly dominated by b.
func (t *Tree) DominanceFrontier(b ir.NodeId) []ir.NodeId {
	var frontier []ir.NodeId
	for _, y := range t.order {
		for _, p := range predBlocks(t.arena, y) {
			if t.Dominates(b, p) && !t.strictlyDominates(b, y) {
				frontier = append(frontier, y)
				break
			}
		}
	}
	return frontier
}

func (t *Tree) strictlyDominates(a, b ir.NodeId) bool {
	return a != b && t.Dominates(a, b)
}

// IteratedDominanceFrontier computes the IDF of a set of blocks: repeatedly
// union in the dominance frontier of every block added so far until no new
// block is produced. Used for Phi placement (spec §4.5 step 1).
func (t *Tree) IteratedDominanceFrontier(blocks []ir.NodeId) []ir.NodeId {
	inSet := map[ir.NodeId]bool{}
	var result []ir.NodeId
	worklist := append([]ir.NodeId(nil), blocks...)

	for len(worklist) > 0 {
		b := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		for _, f := range t.DominanceFrontier(b) {
			if !inSet[f] {
				inSet[f] = true
				result = append(result, f)
				worklist = append(worklist, f)
			}
		}
	}
	return result
}

// ReversePostorder exposes the block visitation order Build computed, for
// passes (block scheduling, list scheduling) that need a deterministic
// block-walk order (spec §5: "reverse post-order block-walk").
func (t *Tree) ReversePostorder() []ir.NodeId {
	return t.order
}
