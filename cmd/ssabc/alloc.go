/*
 * ssabc - Stand-in register allocator for the CLI driver
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

package main

import (
	"github.com/rcornwell/ssabc/backend"
	"github.com/rcornwell/ssabc/internal/ctx"
	"github.com/rcornwell/ssabc/internal/ir"
	"github.com/rcornwell/ssabc/internal/regs"
)

// roundRobinAllocator stands in for the real register allocator spec.md §9
// names as an external collaborator and explicitly out of scope: it hands
// out gpr's registers round-robin in schedule order, ignoring live ranges
// entirely. Good enough to drive the pipeline end to end and exercise
// emit's %S/%D substitution; a real allocator plugs in at the same
// backend.RegisterAllocator seam.
func roundRobinAllocator(gpr *regs.Class) backend.RegisterAllocator {
	return func(c *ctx.Ctx, order map[ir.NodeId][]ir.NodeId) (map[ir.NodeId]string, error) {
		out := make(map[ir.NodeId]string)
		next := 0
		for _, block := range c.Dom.ReversePostorder() {
			for _, id := range order[block] {
				n := c.Arena.Node(id)
				switch n.Mode {
				case ir.ModeNone, ir.ModeM, ir.ModeX, ir.ModeT:
					continue
				}
				out[id] = gpr.Registers[next%len(gpr.Registers)].Name
				next++
			}
		}
		return out, nil
	}
}
