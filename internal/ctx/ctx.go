/*
 * ssabc - Per-graph pipeline context
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

// Package ctx carries the per-graph scratch state every pass needs
// (the arena, the dominance analysis, the target feature set, and a
// logger) as an explicit handle instead of package-level globals, so two
// graphs can be compiled concurrently without sharing mutable state.
package ctx

import (
	"log/slog"

	"github.com/rcornwell/ssabc/internal/domtree"
	"github.com/rcornwell/ssabc/internal/ir"
	"github.com/rcornwell/ssabc/internal/target"
)

// Ctx is threaded explicitly through every pass entry point (transform,
// schedule, peephole, emit); nothing in this module keeps a package-level
// *Ctx.
type Ctx struct {
	Arena  *ir.Arena
	Dom    *domtree.Tree
	Target *target.Features
	Log    *slog.Logger

	// NextFrameSlot hands out fresh frame-entity offsets to passes that
	// spill (peephole's rematerialization, abi's splitting).
	NextFrameSlot int
}

// New builds a Ctx for one graph, computing its dominance tree once so
// every later pass reads the same analysis instead of recomputing it.
func New(a *ir.Arena, t *target.Features, log *slog.Logger) *Ctx {
	return &Ctx{
		Arena:  a,
		Dom:    domtree.Build(a, a.Start),
		Target: t,
		Log:    log,
	}
}

// AllocFrameSlot reserves size bytes of frame storage and returns a fresh
// frame entity for it, used by passes that must materialize a spill slot
// mid-pipeline.
func (c *Ctx) AllocFrameSlot(size, align int) *ir.Entity {
	off := c.NextFrameSlot
	if align > 0 {
		off = (off + align - 1) &^ (align - 1)
	}
	c.NextFrameSlot = off + size
	return &ir.Entity{Kind: ir.EntityFrameSlot, Size: size, Align: align}
}
