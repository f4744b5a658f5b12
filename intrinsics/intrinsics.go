/*
 * ssabc - Builtin intrinsic lowering
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

// Package intrinsics lowers the compiler-builtin family (ffs, clz, ctz,
// parity, popcount, bswap, return_address, frame_address, prefetch,
// trampoline, trap) either to a single hardware instruction where the
// target has one, or to a call to a named runtime helper otherwise.
package intrinsics

import (
	"github.com/rcornwell/ssabc/internal/attr"
	"github.com/rcornwell/ssabc/internal/ctx"
	"github.com/rcornwell/ssabc/internal/ir"
	"github.com/rcornwell/ssabc/internal/target"
)

// Builtin names one of the compiler intrinsics spec'd for lowering.
type Builtin int

const (
	Ffs Builtin = iota
	Clz
	Ctz
	Parity
	Popcount
	Bswap
	ReturnAddress
	FrameAddress
	Prefetch
	Trampoline
	Trap
)

// hwMnemonic names the single instruction that implements b natively for
// the given arch's feature set, or "" if no such instruction exists and a
// runtime call is required instead.
func hwMnemonic(arch target.Arch, feat *target.Features, b Builtin) string {
	switch b {
	case Ctz:
		if arch == target.IA32 || arch == target.AMD64 {
			if feat.Has("bmi1") {
				return "tzcnt"
			}
			return "bsf"
		}
	case Clz:
		if (arch == target.IA32 || arch == target.AMD64) && feat.Has("lzcnt") {
			return "lzcnt"
		}
		if arch == target.ARM {
			return "clz"
		}
	case Popcount:
		if (arch == target.IA32 || arch == target.AMD64) && feat.Has("popcnt") {
			return "popcnt"
		}
	case Bswap:
		if arch == target.IA32 || arch == target.AMD64 {
			return "bswap"
		}
	case Trap:
		return "ud2"
	}
	return ""
}

// runtimeHelper names the libgcc/compiler-rt style fallback routine used
// when hwMnemonic reports no native instruction.
var runtimeHelper = map[Builtin]string{
	Ffs:      "ffs",
	Clz:      "__clzsi2",
	Ctz:      "__ctzsi2",
	Parity:   "__paritysi2",
	Popcount: "__popcountsi2",
	Bswap:    "__bswapsi2",
}

// Lower rewrites node (currently an opaque placeholder for the builtin
// call) into either a Common attribute naming the native Mnemonic or an
// OpCall to the runtime helper, mirroring how the arithmetic opcodes are
// transformed: the node's generic shape stays, only its attribute and
// (for the call fallback) opcode change.
func Lower(c *ctx.Ctx, id ir.NodeId, b Builtin) {
	node := c.Arena.Node(id)
	if mnem := hwMnemonic(c.Target.Arch, c.Target, b); mnem != "" {
		node.Attr = attr.NewCommon(attr.Common{Mnemonic: mnem})
		return
	}

	switch b {
	case ReturnAddress, FrameAddress:
		node.Attr = attr.NewCommon(attr.Common{Mnemonic: "frame-walk"})
		return
	case Prefetch:
		node.Attr = attr.NewCommon(attr.Common{Mnemonic: "nop-prefetch"})
		return
	case Trampoline:
		node.Attr = attr.NewCommon(attr.Common{Mnemonic: "trampoline-fill"})
		return
	}

	name, ok := runtimeHelper[b]
	if !ok {
		node.Attr = attr.NewCommon(attr.Common{})
		return
	}
	ent := &ir.Entity{Name: name, Kind: ir.EntityFunction}
	node.Op = ir.OpCall
	node.Attr = attr.WithCall(attr.Common{}, &attr.Call{Entity: ent, NumRegArgs: len(node.In)})
}
