/*
 * ssabc - List scheduler
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

// Package schedule orders each block's nodes into a single linear
// instruction sequence once the SSA property no longer pins an order,
// using a classic ready-set list scheduler: Phis always first (they read
// the predecessor's end-of-block state, not anything scheduled in this
// block), the block's terminating control-flow node always last, and
// everything else ordered by a pluggable Selector heuristic.
package schedule

import (
	"math/rand"

	"github.com/rcornwell/ssabc/internal/ctx"
	"github.com/rcornwell/ssabc/internal/ir"
)

// Selector picks the next node to schedule from the current ready set.
// Implementations must not mutate ready; Run removes the chosen entry.
type Selector interface {
	Pick(c *ctx.Ctx, block ir.NodeId, ready []ir.NodeId) int
}

// Run computes a schedule for every block of c.Arena and returns it keyed
// by block id, each value the block's nodes (Phis, then body, then the
// terminator) in final emission order.
func Run(c *ctx.Ctx, sel Selector) map[ir.NodeId][]ir.NodeId {
	out := make(map[ir.NodeId][]ir.NodeId)
	for _, block := range c.Dom.ReversePostorder() {
		out[block] = scheduleBlock(c, sel, block)
	}
	return out
}

func scheduleBlock(c *ctx.Ctx, sel Selector, block ir.NodeId) []ir.NodeId {
	nodes := c.Arena.NodesInBlock(block)

	var phis, body []ir.NodeId
	var terminator ir.NodeId = ir.Invalid
	inBlock := make(map[ir.NodeId]bool, len(nodes))
	for _, id := range nodes {
		inBlock[id] = true
	}

	for _, id := range nodes {
		n := c.Arena.Node(id)
		switch n.Op {
		case ir.OpPhi:
			phis = append(phis, id)
		case ir.OpCond, ir.OpJmp, ir.OpReturn:
			terminator = id
		default:
			body = append(body, id)
		}
	}

	indeg := make(map[ir.NodeId]int, len(body))
	users := make(map[ir.NodeId][]ir.NodeId, len(body))
	for _, id := range body {
		n := c.Arena.Node(id)
		count := 0
		for _, in := range n.In {
			if inBlock[in] && isBodyMember(c, in, phis, terminator) {
				count++
				users[in] = append(users[in], id)
			}
		}
		indeg[id] = count
	}

	var ready []ir.NodeId
	for _, id := range body {
		if indeg[id] == 0 {
			ready = append(ready, id)
		}
	}

	var order []ir.NodeId
	scheduled := make(map[ir.NodeId]bool, len(body))
	for len(ready) > 0 {
		i := -1
		for j, id := range ready {
			if op := c.Arena.Node(id).Op; op == ir.OpKeep || op == ir.OpCopyKeep {
				i = j
				break
			}
		}
		if i < 0 {
			i = sel.Pick(c, block, ready)
			if i < 0 || i >= len(ready) {
				i = 0
			}
		}
		pick := ready[i]
		ready = append(ready[:i], ready[i+1:]...)
		order = append(order, pick)
		scheduled[pick] = true

		// A Keep/CopyKeep is scheduled immediately once its sole operand is
		// ready, never deferred by the heuristic: it exists only to pin a
		// value, so delaying it serves no purpose and could let the pinned
		// value's last ordinary use slip past it.
		for _, u := range users[pick] {
			indeg[u]--
			if indeg[u] == 0 {
				un := c.Arena.Node(u)
				if un.Op == ir.OpKeep || un.Op == ir.OpCopyKeep {
					ready = append([]ir.NodeId{u}, ready...)
				} else {
					ready = append(ready, u)
				}
			}
		}
	}

	out := make([]ir.NodeId, 0, len(phis)+len(order)+1)
	out = append(out, phis...)
	out = append(out, order...)
	if terminator != ir.Invalid {
		out = append(out, terminator)
	}
	return out
}

func isBodyMember(c *ctx.Ctx, id ir.NodeId, phis []ir.NodeId, terminator ir.NodeId) bool {
	if id == terminator {
		return false
	}
	for _, p := range phis {
		if p == id {
			return false
		}
	}
	return true
}

// Trivial schedules the first ready node in arena order, the cheapest
// correct heuristic and the one every other selector is validated against.
type Trivial struct{}

func (Trivial) Pick(_ *ctx.Ctx, _ ir.NodeId, ready []ir.NodeId) int { return 0 }

// Random schedules a uniformly random ready node, used to fuzz-test that
// the rest of the pipeline (peephole, emit) doesn't secretly depend on a
// particular schedule order.
type Random struct{ Rand *rand.Rand }

func (r Random) Pick(_ *ctx.Ctx, _ ir.NodeId, ready []ir.NodeId) int {
	if r.Rand == nil {
		return 0
	}
	return r.Rand.Intn(len(ready))
}

// RegPress schedules the ready node with the most operands (ties go to the
// earliest in the ready set), a greedy approximation of minimizing
// simultaneously-live values. It counts operands only; it does not check
// whether those operands have other users still unscheduled.
type RegPress struct{}

func (RegPress) Pick(c *ctx.Ctx, _ ir.NodeId, ready []ir.NodeId) int {
	best, bestScore := 0, -1
	for i, id := range ready {
		n := c.Arena.Node(id)
		score := len(n.In)
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	return best
}

// Trace schedules the first ready node in arena order, the same choice as
// Trivial; it does not look at the successor block's Phis or any other
// trace information.
type Trace struct{}

func (Trace) Pick(_ *ctx.Ctx, _ ir.NodeId, ready []ir.NodeId) int { return 0 }
