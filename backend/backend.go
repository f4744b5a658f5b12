/*
 * ssabc - Pipeline driver
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

// Package backend wires transform, block scheduling, list scheduling, an
// externally-supplied register allocator, peephole, and emit into the
// fixed pipeline order the back end always runs in: a function's generic
// SSA graph goes in, GAS text comes out, or a Fatal names exactly which
// pass and node couldn't proceed.
package backend

import (
	"fmt"
	"io"

	"github.com/rcornwell/ssabc/blocksched"
	"github.com/rcornwell/ssabc/emit"
	"github.com/rcornwell/ssabc/internal/ctx"
	"github.com/rcornwell/ssabc/internal/ir"
	"github.com/rcornwell/ssabc/keepwalk"
	"github.com/rcornwell/ssabc/peephole"
	"github.com/rcornwell/ssabc/schedule"
	"github.com/rcornwell/ssabc/transform"
)

// Fatal is the single error shape every pass raises when it cannot make
// progress: an unsupported opcode the selector never learned, a broken
// invariant a later pass detects, a register class an allocator ran out
// of. The CLI logs its Error() text and exits non-zero.
type Fatal struct {
	Pass   string
	Reason string
	Node   ir.NodeId
}

func (f *Fatal) Error() string {
	return fmt.Sprintf("%s: %s at %s", f.Pass, f.Reason, nodeTag(f.Node))
}

// nodeTag renders a NodeId the way %+F would a firm node: just enough to
// find it in -log output without needing the whole graph dumped.
func nodeTag(id ir.NodeId) string {
	if id == ir.Invalid {
		return "%+F(<none>)"
	}
	return fmt.Sprintf("%%+F(node %d)", int(id))
}

// RegisterAllocator is the external collaborator spec.md §9 names and
// explicitly leaves out of scope: given the list-scheduled order, it
// returns the physical register name assigned to every node's result.
// This package only ever calls it between schedule and peephole, exactly
// where the format spec places it.
type RegisterAllocator func(c *ctx.Ctx, order map[ir.NodeId][]ir.NodeId) (map[ir.NodeId]string, error)

// Pipeline bundles the per-target and per-run choices Compile needs: the
// target-specific node selector, the list-scheduling heuristic, the
// (external) register allocator, and the peephole rule set.
type Pipeline struct {
	Selector transform.Selector
	Schedule schedule.Selector
	Allocate RegisterAllocator
	Peephole []peephole.Rule
}

// Compile runs c.Arena's graph through every pass in order and writes the
// resulting GAS text for funcName to w.
func Compile(c *ctx.Ctx, p Pipeline, w io.Writer, funcName string) error {
	if err := transform.Run(c, p.Selector); err != nil {
		return &Fatal{Pass: "transform", Reason: err.Error(), Node: ir.Invalid}
	}

	keepwalk.Run(c.Arena)

	layout := blocksched.Order(c.Arena, c.Dom.ReversePostorder())

	sched := schedule.Run(c, p.Schedule)

	regsByNode, err := p.Allocate(c, sched)
	if err != nil {
		return &Fatal{Pass: "regalloc", Reason: err.Error(), Node: ir.Invalid}
	}

	peephole.Run(c, sched, p.Peephole)

	return emitFunction(c, w, funcName, layout, sched, regsByNode)
}

func emitFunction(c *ctx.Ctx, w io.Writer, funcName string, layout []ir.NodeId,
	sched map[ir.NodeId][]ir.NodeId, regsByNode map[ir.NodeId]string) error {
	out := emit.New(w, c.Target)
	out.FunctionStart(funcName)

	blockLabel := make(map[ir.NodeId]string, len(layout))
	for i, b := range layout {
		if b == c.Arena.Start {
			continue // entry falls straight through the function label.
		}
		blockLabel[b] = fmt.Sprintf(".L%d", i)
	}

	succs := blockSuccessors(c.Arena)
	labelOf := func(id ir.NodeId) string {
		n := c.Arena.Node(id)
		for _, s := range succs[n.Block] {
			if l, ok := blockLabel[s]; ok {
				return l
			}
		}
		return ""
	}

	for _, b := range layout {
		if l, ok := blockLabel[b]; ok {
			out.Label(l)
		}
		for _, id := range sched[b] {
			out.Instruction(c, id, perNodeRegName(c, regsByNode, id), labelOf)
		}
	}

	out.FunctionEnd(funcName, funcName+"_end")
	return out.Flush()
}

// perNodeRegName resolves %S<n>/%D<n> for one instruction, both the same
// way: a slot n below the node's operand count is whichever register the
// allocator gave operand n's defining node; any slot past the operands is
// the register assigned to the instruction's own result.
func perNodeRegName(c *ctx.Ctx, regsByNode map[ir.NodeId]string, id ir.NodeId) func(int) string {
	node := c.Arena.Node(id)
	return func(slot int) string {
		if slot < len(node.In) {
			if r, ok := regsByNode[node.In[slot]]; ok {
				return r
			}
			return "?"
		}
		if r, ok := regsByNode[id]; ok {
			return r
		}
		return "?"
	}
}

// blockSuccessors mirrors blocksched's private adjacency builder; kept
// separate since backend needs it for label resolution independent of
// layout order.
func blockSuccessors(a *ir.Arena) map[ir.NodeId][]ir.NodeId {
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
