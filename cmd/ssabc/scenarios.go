/*
 * ssabc - Built-in demonstration graphs
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
	"fmt"

	"github.com/rcornwell/ssabc/internal/attr"
	"github.com/rcornwell/ssabc/internal/ir"
)

// Front-end lowering is out of scope (spec.md Non-goals): there is no
// parser turning source text into a graph. These hand-built graphs give
// -repl and the batch default something concrete to push through the
// pipeline, covering the same shapes spec.md §8's end-to-end scenarios
// name: constant folding into an add, a signed divide, a dense switch, a
// Mux lowered through Setcc, and an IncSP followed by a Store for the
// IncSP+Store-to-push peephole rule.
var scenarios = map[string]func() (*ir.Arena, string){
	"add":    scenarioAddConst,
	"div":    scenarioDivConst,
	"switch": scenarioSwitch,
	"setcc":  scenarioSetcc,
	"push":   scenarioPush,
}

func scenarioNames() []string {
	names := make([]string, 0, len(scenarios))
	for n := range scenarios {
		names = append(names, n)
	}
	return names
}

// scenarioAddConst: return (x + 4), testing ia32's Add-AM folding.
func scenarioAddConst() (*ir.Arena, string) {
	a := ir.NewArena()
	block := a.AddBlock(nil)
	a.Start = block
	x := a.NewNode(ir.OpConst, ir.ModeIu, block, nil, ir.ConstAttr{Value: 10})
	four := a.NewNode(ir.OpConst, ir.ModeIu, block, nil, ir.ConstAttr{Value: 4})
	sum := a.NewNode(ir.OpAdd, ir.ModeIu, block, []ir.NodeId{x, four}, nil)
	a.NewNode(ir.OpReturn, ir.ModeX, block, []ir.NodeId{sum}, nil)
	return a, "add_const"
}

// scenarioDivConst: return (x / 7), a signed divide by a constant divisor.
func scenarioDivConst() (*ir.Arena, string) {
	a := ir.NewArena()
	block := a.AddBlock(nil)
	a.Start = block
	x := a.NewNode(ir.OpConst, ir.ModeIs, block, nil, ir.ConstAttr{Value: 100})
	seven := a.NewNode(ir.OpConst, ir.ModeIs, block, nil, ir.ConstAttr{Value: 7})
	q := a.NewNode(ir.OpDiv, ir.ModeIs, block, []ir.NodeId{x, seven}, nil)
	a.NewNode(ir.OpReturn, ir.ModeX, block, []ir.NodeId{q}, nil)
	return a, "div_const"
}

// scenarioSwitch: a dense three-case switch over a selector value.
func scenarioSwitch() (*ir.Arena, string) {
	a := ir.NewArena()
	entry := a.AddBlock(nil)
	a.Start = entry
	sel := a.NewNode(ir.OpConst, ir.ModeIu, entry, nil, ir.ConstAttr{Value: 1})
	cond := a.NewNode(ir.OpCond, ir.ModeX, entry, []ir.NodeId{sel}, ir.CondAttr{Min: 0, Max: 2, IsSwitch: true})

	case0 := a.AddBlock([]ir.NodeId{cond})
	case1 := a.AddBlock([]ir.NodeId{cond})
	case2 := a.AddBlock([]ir.NodeId{cond})
	for _, b := range []ir.NodeId{case0, case1, case2} {
		v := a.NewNode(ir.OpConst, ir.ModeIu, b, nil, ir.ConstAttr{Value: int64(b)})
		a.NewNode(ir.OpReturn, ir.ModeX, b, []ir.NodeId{v}, nil)
	}
	return a, "switch3"
}

// scenarioSetcc: return (x == y) ? 11 : 3, a Cmp feeding a Mux with two
// constant arms eight apart. transform.Run's cmpConsumer fallback reports
// those arms to the selector instead of the bare {1,0} default, forcing
// ia32's Setcc synthesis down its power-of-two SHL+ADD path (spec §4.3.1)
// rather than a bare SETcc.
func scenarioSetcc() (*ir.Arena, string) {
	a := ir.NewArena()
	block := a.AddBlock(nil)
	a.Start = block
	x := a.NewNode(ir.OpConst, ir.ModeIu, block, nil, ir.ConstAttr{Value: 5})
	y := a.NewNode(ir.OpConst, ir.ModeIu, block, nil, ir.ConstAttr{Value: 5})
	cmp := a.NewNode(ir.OpCmp, ir.Modeb, block, []ir.NodeId{x, y}, ir.CmpAttr{Code: ir.PnEq})
	trueArm := a.NewNode(ir.OpConst, ir.ModeIu, block, nil, ir.ConstAttr{Value: 11})
	falseArm := a.NewNode(ir.OpConst, ir.ModeIu, block, nil, ir.ConstAttr{Value: 3})
	// None of the four selectors give OpMux a specialized case, so
	// transform.Run's cmpConsumer fallback fires and asks the selector for
	// a synthesized Setcc instead of a conditional branch.
	b := a.NewNode(ir.OpMux, ir.Modeb, block, []ir.NodeId{cmp, trueArm, falseArm}, nil)
	a.NewNode(ir.OpReturn, ir.ModeX, block, []ir.NodeId{b}, nil)
	return a, "setcc_eq"
}

// scenarioPush: a prologue IncSP immediately followed by a Store, the
// shape peephole.IncSPPlusStoreToPush folds into a single "push". The
// IncSP node carries its attr.Node up front, the same way abi.Prologue
// builds one, so transform.Run's already-attributed check leaves it
// alone for peephole to match on later.
func scenarioPush() (*ir.Arena, string) {
	a := ir.NewArena()
	block := a.AddBlock(nil)
	a.Start = block
	v := a.NewNode(ir.OpConst, ir.ModeIu, block, nil, ir.ConstAttr{Value: 42})
	incSP := a.NewNode(ir.OpAdd, ir.ModeP, block, nil, nil)
	a.Node(incSP).Attr = attr.WithImmediate(
		attr.Common{Mnemonic: "ia32_IncSP"}, &attr.Immediate{Value: 4})
	a.NewNode(ir.OpStore, ir.ModeM, block, []ir.NodeId{v}, nil)
	a.NewNode(ir.OpReturn, ir.ModeX, block, nil, nil)
	return a, "push_demo"
}

func describeScenarios() string {
	return fmt.Sprintf("available scenarios: %v", scenarioNames())
}
