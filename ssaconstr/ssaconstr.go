/*
 * ssabc - SSA reconstruction after backend-inserted copies
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

// Package ssaconstr restores the SSA property after a pass (the register
// allocator's spill/reload/rematerialization copies, chiefly) introduces a
// second definition of a value the graph still has old uses of. It is the
// Go analogue of libFirm's bessaconstr.c: compute the iterated dominance
// frontier of the new definition set, place a Phi at each, then resolve
// every stale use to the definition that actually dominates it.
package ssaconstr

import (
	"sort"

	"github.com/rcornwell/ssabc/internal/ctx"
	"github.com/rcornwell/ssabc/internal/domtree"
	"github.com/rcornwell/ssabc/internal/ir"
)

// Reconstructor tracks, per original SSA value being repaired, which block
// holds which definition. Calling Reconstruct twice for the same variable
// and definition set is idempotent: the second call finds the Phis already
// placed and inserts nothing new.
type Reconstructor struct {
	c    *ctx.Ctx
	dom  *domtree.Tree
	defs map[ir.NodeId]map[ir.NodeId]ir.NodeId // variable -> block -> def node
}

// New builds a Reconstructor bound to c's arena and dominance tree.
func New(c *ctx.Ctx) *Reconstructor {
	return &Reconstructor{c: c, dom: c.Dom, defs: map[ir.NodeId]map[ir.NodeId]ir.NodeId{}}
}

// AddDef records that block now holds a (re)definition def of variable, the
// seed set Reconstruct computes the IDF from. variable identifies the
// logical value being repaired — conventionally the original node id that
// now has more than one definition.
func (r *Reconstructor) AddDef(variable, block, def ir.NodeId) {
	m, ok := r.defs[variable]
	if !ok {
		m = map[ir.NodeId]ir.NodeId{}
		r.defs[variable] = m
	}
	m[block] = def
}

// Reconstruct places Phis at the iterated dominance frontier of variable's
// recorded definition blocks (skipping any block that already carries one,
// which is what makes repeated calls idempotent), wires each Phi's operand
// per predecessor to the nearest dominating definition, and finally
// rewrites every use in uses to read the definition that dominates it.
func (r *Reconstructor) Reconstruct(variable ir.NodeId, uses []ir.NodeId) {
	defBlocks := r.defs[variable]
	if len(defBlocks) == 0 {
		return
	}

	seed := make([]ir.NodeId, 0, len(defBlocks))
	for b := range defBlocks {
		seed = append(seed, b)
	}
	sort.Slice(seed, func(i, j int) bool { return seed[i] < seed[j] })

	for _, block := range r.dom.IteratedDominanceFrontier(seed) {
		if _, exists := defBlocks[block]; exists {
			continue // already has a definition here (idempotence).
		}
		preds := r.c.Arena.BlockPreds(block)
		phi := r.c.Arena.NewNode(ir.OpPhi, r.c.Arena.Node(variable).Mode, block, make([]ir.NodeId, len(preds)), nil)
		defBlocks[block] = phi
	}

	// Second pass: now that every IDF block has a Phi node allocated, wire
	// each Phi's per-predecessor operand to whatever reaches that
	// predecessor, and fix up the original stale uses the same way.
	for block, def := range defBlocks {
		phi := r.c.Arena.Node(def)
		if phi.Op != ir.OpPhi {
			continue
		}
		preds := r.c.Arena.BlockPreds(block)
		for i, p := range preds {
			if pn := r.c.Arena.Node(p); pn.Op != ir.OpBlock {
				p = pn.Block // a Jmp/Cond predecessor stands for its block.
			}
			phi.In[i] = r.reachingDef(variable, p)
		}
	}

	for _, use := range uses {
		n := r.c.Arena.Node(use)
		reaching := r.reachingDef(variable, n.Block)
		for i, in := range n.In {
			if in == variable {
				n.In[i] = reaching
			}
		}
	}
}

// reachingDef finds the definition of variable that dominates block: the
// block's own definition if Reconstruct placed or was given one, else the
// nearest ancestor's, walking the dominator tree — the "per-block
// dominance-sorted lookup" bessaconstr.c performs via a sorted def list per
// block, simplified here to an idom walk since the dominance tree is
// rebuilt fresh for every pipeline run rather than maintained incrementally.
func (r *Reconstructor) reachingDef(variable, block ir.NodeId) ir.NodeId {
	defBlocks := r.defs[variable]
	b := block
	for {
		if def, ok := defBlocks[b]; ok {
			return def
		}
		parent := r.dom.IDom(b)
		if parent == b {
			return variable // reached the entry without finding a redefinition.
		}
		b = parent
	}
}
